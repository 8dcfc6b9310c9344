package ordered

import (
	"fmt"
	"io"
	"log/slog"
	"sync"
)

// Writer writes submitted buffers to a sink in order, one at a time.
//
// Thread-safety model:
//   - Submit, SubmitSkipPrefix: meant for a single producer goroutine; they
//     block only while the previous write is still in flight
//   - Err, Written, Drain, Close: safe from any goroutine
//
// INVARIANTS:
//   - inFlight is 0 or 1
//   - the Nth write starts only after the (N-1)th write has returned
//   - the error slot holds the first write error and is never overwritten
type Writer struct {
	sink        io.Writer
	logger      *slog.Logger
	synchronous bool

	mu       sync.Mutex
	cond     *sync.Cond
	inFlight int
	err      error
	closed   bool

	submitted int
	written   int64
}

// Option configures a Writer.
type Option func(*Writer)

// WithSynchronous makes Submit perform the write on the calling goroutine.
// Ordering and error-slot behavior are unchanged.
func WithSynchronous() Option {
	return func(w *Writer) {
		w.synchronous = true
	}
}

// WithLogger sets the logger used to report write failures.
func WithLogger(l *slog.Logger) Option {
	return func(w *Writer) {
		if l != nil {
			w.logger = l
		}
	}
}

// NewWriter returns a Writer that writes to sink.
func NewWriter(sink io.Writer, opts ...Option) *Writer {
	w := &Writer{
		sink:   sink,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	w.cond = sync.NewCond(&w.mu)
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Submit hands buf to the writer. It waits for any write in flight, then
// starts writing buf and returns without waiting for it.
//
// The returned error reports misuse only (ErrClosed, ErrBufferReleased).
// A failure of an earlier write is not returned here; see Err.
func (w *Writer) Submit(buf *Buffer) error {
	return w.submit(buf, 0)
}

// SubmitSkipPrefix is like Submit but does not write the first prefix bytes
// of buf. It is used for buffers that start with a length header that has
// already been sent.
func (w *Writer) SubmitSkipPrefix(buf *Buffer, prefix int) error {
	return w.submit(buf, prefix)
}

func (w *Writer) submit(buf *Buffer, prefix int) error {
	if buf == nil {
		return fmt.Errorf("ordered: nil buffer")
	}

	w.mu.Lock()
	for w.inFlight > 0 {
		w.cond.Wait()
	}
	if w.closed {
		w.mu.Unlock()
		return ErrClosed
	}
	if !buf.owned() {
		w.mu.Unlock()
		return ErrBufferReleased
	}
	if prefix < 0 || prefix > buf.Len() {
		w.mu.Unlock()
		return fmt.Errorf("%w: %d bytes of a %d-byte buffer", ErrInvalidPrefix, prefix, buf.Len())
	}
	data, err := buf.take()
	if err != nil {
		w.mu.Unlock()
		return err
	}
	w.inFlight = 1
	w.submitted++
	seq := w.submitted
	w.mu.Unlock()

	if w.synchronous {
		w.write(seq, buf, data[prefix:])
		return nil
	}
	go w.write(seq, buf, data[prefix:])
	return nil
}

// write runs on the worker goroutine (or the caller in synchronous mode).
func (w *Writer) write(seq int, buf *Buffer, p []byte) {
	n, err := w.sink.Write(p)
	if err == nil && n < len(p) {
		err = fmt.Errorf("%w: wrote %d of %d bytes", ErrShortWrite, n, len(p))
	}
	buf.release()

	w.mu.Lock()
	w.written += int64(n)
	if err != nil {
		w.logger.Error("ordered write failed",
			"submission", seq,
			"bytes", len(p),
			"written", n,
			"error", err)
		if w.err == nil {
			w.err = err
		}
	}
	w.inFlight = 0
	w.cond.Broadcast()
	w.mu.Unlock()
}

// Err returns the first write error recorded so far, or nil.
func (w *Writer) Err() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.err
}

// Written returns the number of bytes the sink has accepted.
func (w *Writer) Written() int64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.written
}

// Drain blocks until no write is in flight and returns Err.
func (w *Writer) Drain() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	for w.inFlight > 0 {
		w.cond.Wait()
	}
	return w.err
}

// Close waits for the write in flight to finish, rejects further
// submissions and returns the first write error. Close may be called more
// than once.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	for w.inFlight > 0 {
		w.cond.Wait()
	}
	if !w.closed {
		w.closed = true
		w.logger.Debug("ordered writer closed",
			"submissions", w.submitted,
			"bytes", w.written)
	}
	return w.err
}
