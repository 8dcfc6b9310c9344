package dap

import "context"

// Marker bytes framing Sequence rows on the wire.
const (
	StartOfInstance byte = 0x5A // 0101 1010
	EndOfSequence   byte = 0xA5 // 1010 0101
)

// Marshaller is the wire codec capability used to emit values.
//
// The Sequence protocol only calls PutOpaque (for single-byte markers); the
// typed methods are used by scalar fields. Implementations may buffer and
// write asynchronously, but must preserve call order on the wire.
type Marshaller interface {
	PutOpaque(b []byte) error
	PutByte(v uint8) error
	PutInt16(v int16) error
	PutUInt16(v uint16) error
	PutInt32(v int32) error
	PutUInt32(v uint32) error
	PutFloat32(v float32) error
	PutFloat64(v float64) error
	PutStr(v string) error
	PutURL(v string) error

	// PutVectorStart writes the element count of a vector; PutVectorPart
	// writes the elements without repeating the count.
	PutVectorStart(n int) error
	PutVectorPart(b []byte) error
}

// UnMarshaller is the wire codec capability used to consume values.
type UnMarshaller interface {
	GetOpaque(n int) ([]byte, error)
	GetByte() (uint8, error)
	GetInt16() (int16, error)
	GetUInt16() (uint16, error)
	GetInt32() (int32, error)
	GetUInt32() (uint32, error)
	GetFloat32() (float32, error)
	GetFloat64() (float64, error)
	GetStr() (string, error)
	GetURL() (string, error)
	GetVector() ([]byte, error)
}

// Selector is the constraint evaluator capability. Select reports whether the
// row currently loaded into s (and its ancestors) satisfies the selection.
type Selector interface {
	Select(ctx context.Context, s *Sequence) (bool, error)
}

// SelectorFunc adapts a function to the Selector interface.
type SelectorFunc func(ctx context.Context, s *Sequence) (bool, error)

// Select calls f(ctx, s).
func (f SelectorFunc) Select(ctx context.Context, s *Sequence) (bool, error) {
	return f(ctx, s)
}

// RowReader is the data source of a Sequence.
//
// Open is called each time the sequence starts a pass over its rows. For a
// nested sequence that is once per parent row, so a reader may consult
// s.Parent() to find the parent's current values. Next loads the next raw row
// into the fields of s (usually with SetRowValues) and returns false once the
// rows are exhausted.
type RowReader interface {
	Open(ctx context.Context, s *Sequence) error
	Next(ctx context.Context, s *Sequence) (bool, error)
}
