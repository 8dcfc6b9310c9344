package ordered

import "sync/atomic"

const (
	bufferOwned int32 = iota
	bufferSubmitted
	bufferReleased
)

// Buffer is a byte slice with single ownership. The producer owns it until it
// is submitted; the writer owns it afterwards and releases it exactly once.
type Buffer struct {
	b     []byte
	state atomic.Int32
}

// NewBuffer takes ownership of b. The caller must not use b afterwards.
func NewBuffer(b []byte) *Buffer {
	return &Buffer{b: b}
}

// Bytes returns the contents while the producer still owns the buffer, and
// nil once it has been submitted.
func (b *Buffer) Bytes() []byte {
	if b.state.Load() != bufferOwned {
		return nil
	}
	return b.b
}

// Len returns the length of the contents, or 0 after submission.
func (b *Buffer) Len() int {
	return len(b.Bytes())
}

// Released reports whether the writer has finished with the buffer.
func (b *Buffer) Released() bool {
	return b.state.Load() == bufferReleased
}

func (b *Buffer) owned() bool {
	return b.state.Load() == bufferOwned
}

// take moves ownership to the writer.
func (b *Buffer) take() ([]byte, error) {
	if !b.state.CompareAndSwap(bufferOwned, bufferSubmitted) {
		return nil, ErrBufferReleased
	}
	return b.b, nil
}

// release drops the contents. Called once by the goroutine that wrote them.
func (b *Buffer) release() {
	b.b = nil
	b.state.Store(bufferReleased)
}
