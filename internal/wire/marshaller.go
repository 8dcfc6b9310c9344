package wire

import (
	"encoding/binary"
	"fmt"
	"math"

	"golang.org/x/text/unicode/norm"

	"github.com/roach88/dapseq/internal/dap"
	"github.com/roach88/dapseq/internal/ordered"
)

// DefaultChunkSize is the number of encoded bytes collected before a chunk
// is submitted to the writer.
const DefaultChunkSize = 32 * 1024

// StreamMarshaller encodes values into chunks and submits them to an
// ordered.Writer. It is not safe for concurrent use.
//
// Write failures happen on the writer's goroutine and are reported by Close
// (or the writer's Err), not by the Put call that produced the bytes.
type StreamMarshaller struct {
	w         *ordered.Writer
	buf       []byte
	chunkSize int
	nfc       bool
	err       error
}

var _ dap.Marshaller = (*StreamMarshaller)(nil)

// MarshallerOption configures a StreamMarshaller.
type MarshallerOption func(*StreamMarshaller)

// WithChunkSize sets the chunk size. Values below 1 keep the default.
func WithChunkSize(n int) MarshallerOption {
	return func(m *StreamMarshaller) {
		if n > 0 {
			m.chunkSize = n
		}
	}
}

// WithNFC normalizes String and URL values to Unicode NFC before encoding.
func WithNFC() MarshallerOption {
	return func(m *StreamMarshaller) {
		m.nfc = true
	}
}

// NewStreamMarshaller returns a marshaller that submits chunks to w.
func NewStreamMarshaller(w *ordered.Writer, opts ...MarshallerOption) *StreamMarshaller {
	m := &StreamMarshaller{
		w:         w,
		chunkSize: DefaultChunkSize,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.buf = make([]byte, 0, m.chunkSize)
	return m
}

func (m *StreamMarshaller) append(b ...byte) error {
	if m.err != nil {
		return m.err
	}
	m.buf = append(m.buf, b...)
	if len(m.buf) >= m.chunkSize {
		return m.Flush()
	}
	return nil
}

func (m *StreamMarshaller) appendUint32(v uint32) error {
	return m.append(binary.BigEndian.AppendUint32(nil, v)...)
}

// Flush submits the bytes collected so far.
func (m *StreamMarshaller) Flush() error {
	if m.err != nil {
		return m.err
	}
	if len(m.buf) == 0 {
		return nil
	}
	if err := m.w.Submit(ordered.NewBuffer(m.buf)); err != nil {
		m.err = fmt.Errorf("submit chunk: %w", err)
		return m.err
	}
	m.buf = make([]byte, 0, m.chunkSize)
	return nil
}

// Close flushes, waits for the last write and returns the first error seen
// by either the marshaller or the writer.
func (m *StreamMarshaller) Close() error {
	flushErr := m.Flush()
	closeErr := m.w.Close()
	if flushErr != nil {
		return flushErr
	}
	if closeErr != nil {
		return fmt.Errorf("write response: %w", closeErr)
	}
	return nil
}

// PutOpaque writes b unpadded. It carries the one-byte Sequence markers.
func (m *StreamMarshaller) PutOpaque(b []byte) error {
	return m.append(b...)
}

// PutByte writes v widened to a 4-byte word.
func (m *StreamMarshaller) PutByte(v uint8) error {
	return m.appendUint32(uint32(v))
}

// PutInt16 writes v sign-extended to a 4-byte word.
func (m *StreamMarshaller) PutInt16(v int16) error {
	return m.appendUint32(uint32(int32(v)))
}

// PutUInt16 writes v widened to a 4-byte word.
func (m *StreamMarshaller) PutUInt16(v uint16) error {
	return m.appendUint32(uint32(v))
}

// PutInt32 writes v as a big-endian word.
func (m *StreamMarshaller) PutInt32(v int32) error {
	return m.appendUint32(uint32(v))
}

// PutUInt32 writes v as a big-endian word.
func (m *StreamMarshaller) PutUInt32(v uint32) error {
	return m.appendUint32(v)
}

// PutFloat32 writes the IEEE 754 bits of v.
func (m *StreamMarshaller) PutFloat32(v float32) error {
	return m.appendUint32(math.Float32bits(v))
}

// PutFloat64 writes the IEEE 754 bits of v as two words.
func (m *StreamMarshaller) PutFloat64(v float64) error {
	return m.append(binary.BigEndian.AppendUint64(nil, math.Float64bits(v))...)
}

// PutStr writes v as a length-prefixed, zero-padded string.
func (m *StreamMarshaller) PutStr(v string) error {
	if m.nfc {
		v = norm.NFC.String(v)
	}
	return m.append(appendPadded(nil, []byte(v))...)
}

// PutURL is PutStr.
func (m *StreamMarshaller) PutURL(v string) error {
	return m.PutStr(v)
}

// PutVectorStart writes the element count of an opaque vector.
func (m *StreamMarshaller) PutVectorStart(n int) error {
	if n < 0 || uint64(n) > math.MaxUint32 {
		return fmt.Errorf("vector length %d out of range", n)
	}
	return m.appendUint32(uint32(n))
}

// PutVectorPart writes the vector bytes as their own submission. The part is
// encoded with its XDR length header, which is skipped because PutVectorStart
// already sent the count.
func (m *StreamMarshaller) PutVectorPart(b []byte) error {
	if err := m.Flush(); err != nil {
		return err
	}
	part := appendPadded(make([]byte, 0, 4+len(b)+3), b)
	if err := m.w.SubmitSkipPrefix(ordered.NewBuffer(part), 4); err != nil {
		m.err = fmt.Errorf("submit vector part: %w", err)
		return m.err
	}
	return nil
}

// appendPadded appends the XDR variable-length encoding of b: a uint32
// length, the bytes, then zero padding to a multiple of four.
func appendPadded(dst, b []byte) []byte {
	dst = binary.BigEndian.AppendUint32(dst, uint32(len(b)))
	dst = append(dst, b...)
	for i := 0; i < padding(len(b)); i++ {
		dst = append(dst, 0)
	}
	return dst
}

func padding(n int) int {
	return (4 - n%4) % 4
}
