package wire

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/roach88/dapseq/internal/dap"
)

// ErrTruncated is returned when the stream ends inside a value.
var ErrTruncated = errors.New("wire: truncated stream")

// Limits bounds the lengths a StreamUnMarshaller accepts before allocating.
type Limits struct {
	MaxString int
	MaxVector int
}

// DefaultLimits allows strings and vectors up to 16 MiB.
var DefaultLimits = Limits{
	MaxString: 16 << 20,
	MaxVector: 16 << 20,
}

// StreamUnMarshaller decodes values written by StreamMarshaller.
type StreamUnMarshaller struct {
	r      *bufio.Reader
	limits Limits
	read   int64
}

var _ dap.UnMarshaller = (*StreamUnMarshaller)(nil)

// NewStreamUnMarshaller reads from r with DefaultLimits.
func NewStreamUnMarshaller(r io.Reader) *StreamUnMarshaller {
	return NewStreamUnMarshallerWithLimits(r, DefaultLimits)
}

// NewStreamUnMarshallerWithLimits reads from r with the given limits.
func NewStreamUnMarshallerWithLimits(r io.Reader, limits Limits) *StreamUnMarshaller {
	br, ok := r.(*bufio.Reader)
	if !ok {
		br = bufio.NewReader(r)
	}
	return &StreamUnMarshaller{r: br, limits: limits}
}

// BytesRead returns the number of bytes consumed so far.
func (u *StreamUnMarshaller) BytesRead() int64 {
	return u.read
}

// readFull reads exactly n bytes. A clean end of stream before the first
// byte is reported as io.EOF; a short read as ErrTruncated wrapping
// io.ErrUnexpectedEOF.
func (u *StreamUnMarshaller) readFull(n int, what string) ([]byte, error) {
	b := make([]byte, n)
	got, err := io.ReadFull(u.r, b)
	u.read += int64(got)
	switch {
	case err == nil:
		return b, nil
	case errors.Is(err, io.EOF):
		return nil, fmt.Errorf("read %s: %w", what, io.EOF)
	case errors.Is(err, io.ErrUnexpectedEOF):
		return nil, fmt.Errorf("%w: read %s: got %d of %d bytes: %w", ErrTruncated, what, got, n, io.ErrUnexpectedEOF)
	default:
		return nil, fmt.Errorf("read %s: %w", what, err)
	}
}

func (u *StreamUnMarshaller) uint32(what string) (uint32, error) {
	b, err := u.readFull(4, what)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b), nil
}

// GetOpaque reads n unpadded bytes.
func (u *StreamUnMarshaller) GetOpaque(n int) ([]byte, error) {
	return u.readFull(n, "opaque")
}

// GetByte reads a word and checks that it fits a byte.
func (u *StreamUnMarshaller) GetByte() (uint8, error) {
	v, err := u.uint32("byte")
	if err != nil {
		return 0, err
	}
	if v > math.MaxUint8 {
		return 0, fmt.Errorf("byte value %d out of range", v)
	}
	return uint8(v), nil
}

// GetInt16 reads a sign-extended word and checks its range.
func (u *StreamUnMarshaller) GetInt16() (int16, error) {
	v, err := u.uint32("int16")
	if err != nil {
		return 0, err
	}
	n := int32(v)
	if n < math.MinInt16 || n > math.MaxInt16 {
		return 0, fmt.Errorf("int16 value %d out of range", n)
	}
	return int16(n), nil
}

// GetUInt16 reads a word and checks its range.
func (u *StreamUnMarshaller) GetUInt16() (uint16, error) {
	v, err := u.uint32("uint16")
	if err != nil {
		return 0, err
	}
	if v > math.MaxUint16 {
		return 0, fmt.Errorf("uint16 value %d out of range", v)
	}
	return uint16(v), nil
}

// GetInt32 reads a big-endian word.
func (u *StreamUnMarshaller) GetInt32() (int32, error) {
	v, err := u.uint32("int32")
	return int32(v), err
}

// GetUInt32 reads a big-endian word.
func (u *StreamUnMarshaller) GetUInt32() (uint32, error) {
	return u.uint32("uint32")
}

// GetFloat32 reads IEEE 754 single-precision bits.
func (u *StreamUnMarshaller) GetFloat32() (float32, error) {
	v, err := u.uint32("float32")
	return math.Float32frombits(v), err
}

// GetFloat64 reads IEEE 754 double-precision bits.
func (u *StreamUnMarshaller) GetFloat64() (float64, error) {
	b, err := u.readFull(8, "float64")
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(binary.BigEndian.Uint64(b)), nil
}

// GetStr reads a length-prefixed string, bounded by Limits.MaxString.
func (u *StreamUnMarshaller) GetStr() (string, error) {
	b, err := u.padded("string", u.limits.MaxString)
	return string(b), err
}

// GetURL reads a URL encoded like a string.
func (u *StreamUnMarshaller) GetURL() (string, error) {
	b, err := u.padded("url", u.limits.MaxString)
	return string(b), err
}

// GetVector reads an opaque vector: count, bytes, padding.
func (u *StreamUnMarshaller) GetVector() ([]byte, error) {
	return u.padded("vector", u.limits.MaxVector)
}

func (u *StreamUnMarshaller) padded(what string, limit int) ([]byte, error) {
	n, err := u.uint32(what + " length")
	if err != nil {
		return nil, err
	}
	if limit > 0 && uint64(n) > uint64(limit) {
		return nil, fmt.Errorf("%s length %d exceeds limit %d", what, n, limit)
	}
	b, err := u.readFull(int(n)+padding(int(n)), what)
	if err != nil {
		if errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) && n > 0 {
			return nil, fmt.Errorf("%w: %s of %d bytes missing", ErrTruncated, what, n)
		}
		return nil, err
	}
	return b[:n], nil
}
