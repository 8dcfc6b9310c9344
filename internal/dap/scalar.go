package dap

import (
	"encoding/hex"
	"fmt"
	"io"
	"math"
	"strconv"
)

// Scalar is a leaf Variable holding a single value of its Type.
//
// Values are stored as the Go type matching the wire type: uint8, int16,
// uint16, int32, uint32, float32, float64, string (String and URL) or []byte
// (Opaque).
type Scalar struct {
	base
	val any
}

// NewScalar creates a scalar variable of type t holding the zero value.
func NewScalar(name string, t Type) (*Scalar, error) {
	if !t.IsScalar() {
		return nil, fmt.Errorf("%s is not a scalar type", t)
	}
	s := &Scalar{base: base{name: name, typ: t}}
	s.val = zeroValue(t)
	return s, nil
}

// MustScalar is like NewScalar but panics on error.
// Use only in tests or when the type is known to be scalar.
func MustScalar(name string, t Type) *Scalar {
	s, err := NewScalar(name, t)
	if err != nil {
		panic(err)
	}
	return s
}

// NewByte creates a Byte scalar.
func NewByte(name string) *Scalar { return MustScalar(name, TypeByte) }

// NewInt16 creates an Int16 scalar.
func NewInt16(name string) *Scalar { return MustScalar(name, TypeInt16) }

// NewUInt16 creates a UInt16 scalar.
func NewUInt16(name string) *Scalar { return MustScalar(name, TypeUInt16) }

// NewInt32 creates an Int32 scalar.
func NewInt32(name string) *Scalar { return MustScalar(name, TypeInt32) }

// NewUInt32 creates a UInt32 scalar.
func NewUInt32(name string) *Scalar { return MustScalar(name, TypeUInt32) }

// NewFloat32 creates a Float32 scalar.
func NewFloat32(name string) *Scalar { return MustScalar(name, TypeFloat32) }

// NewFloat64 creates a Float64 scalar.
func NewFloat64(name string) *Scalar { return MustScalar(name, TypeFloat64) }

// NewString creates a String scalar.
func NewString(name string) *Scalar { return MustScalar(name, TypeString) }

// NewURL creates a URL scalar.
func NewURL(name string) *Scalar { return MustScalar(name, TypeURL) }

// NewOpaque creates an Opaque scalar.
func NewOpaque(name string) *Scalar { return MustScalar(name, TypeOpaque) }

// Value returns the stored value.
func (s *Scalar) Value() any {
	return s.val
}

// SetValue converts v to the scalar's wire type and stores it.
// Integers are range checked; floats are accepted by integer types only
// when they hold an integral value.
func (s *Scalar) SetValue(v any) error {
	cv, err := coerce(s.typ, v)
	if err != nil {
		return fmt.Errorf("%s %s: %w", s.typ, s.name, err)
	}
	s.val = cv
	s.readP = true
	return nil
}

// Clone returns a copy of the scalar detached from its parent.
func (s *Scalar) Clone() Variable {
	c := &Scalar{base: s.base, val: s.val}
	c.setParent(nil)
	if b, ok := s.val.([]byte); ok {
		c.val = append([]byte(nil), b...)
	}
	return c
}

// Encode writes the value with the typed Marshaller method.
func (s *Scalar) Encode(m Marshaller) error {
	switch v := s.val.(type) {
	case uint8:
		return m.PutByte(v)
	case int16:
		return m.PutInt16(v)
	case uint16:
		return m.PutUInt16(v)
	case int32:
		return m.PutInt32(v)
	case uint32:
		return m.PutUInt32(v)
	case float32:
		return m.PutFloat32(v)
	case float64:
		return m.PutFloat64(v)
	case string:
		if s.typ == TypeURL {
			return m.PutURL(v)
		}
		return m.PutStr(v)
	case []byte:
		if err := m.PutVectorStart(len(v)); err != nil {
			return err
		}
		return m.PutVectorPart(v)
	default:
		return fmt.Errorf("%s %s: unsupported value %T", s.typ, s.name, s.val)
	}
}

// Decode reads a value of the scalar's type.
func (s *Scalar) Decode(um UnMarshaller) error {
	var (
		v   any
		err error
	)
	switch s.typ {
	case TypeByte:
		v, err = um.GetByte()
	case TypeInt16:
		v, err = um.GetInt16()
	case TypeUInt16:
		v, err = um.GetUInt16()
	case TypeInt32:
		v, err = um.GetInt32()
	case TypeUInt32:
		v, err = um.GetUInt32()
	case TypeFloat32:
		v, err = um.GetFloat32()
	case TypeFloat64:
		v, err = um.GetFloat64()
	case TypeString:
		v, err = um.GetStr()
	case TypeURL:
		v, err = um.GetURL()
	case TypeOpaque:
		v, err = um.GetVector()
	default:
		return fmt.Errorf("%s %s: cannot decode", s.typ, s.name)
	}
	if err != nil {
		return fmt.Errorf("decode %s %s: %w", s.typ, s.name, err)
	}
	s.val = v
	s.readP = true
	return nil
}

// Print writes the value: strings quoted, opaque bytes as hex.
func (s *Scalar) Print(w io.Writer) error {
	_, err := io.WriteString(w, FormatValue(s.val))
	return err
}

// FormatValue renders a scalar value the way Print does.
func FormatValue(v any) string {
	switch x := v.(type) {
	case string:
		return strconv.Quote(x)
	case []byte:
		return "0x" + hex.EncodeToString(x)
	case float32:
		return strconv.FormatFloat(float64(x), 'g', -1, 32)
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	default:
		return fmt.Sprint(x)
	}
}

func zeroValue(t Type) any {
	switch t {
	case TypeByte:
		return uint8(0)
	case TypeInt16:
		return int16(0)
	case TypeUInt16:
		return uint16(0)
	case TypeInt32:
		return int32(0)
	case TypeUInt32:
		return uint32(0)
	case TypeFloat32:
		return float32(0)
	case TypeFloat64:
		return float64(0)
	case TypeString, TypeURL:
		return ""
	case TypeOpaque:
		return []byte{}
	default:
		return nil
	}
}

func coerce(t Type, v any) (any, error) {
	switch t {
	case TypeByte:
		n, err := toInt64(v, 0, math.MaxUint8)
		return uint8(n), err
	case TypeInt16:
		n, err := toInt64(v, math.MinInt16, math.MaxInt16)
		return int16(n), err
	case TypeUInt16:
		n, err := toInt64(v, 0, math.MaxUint16)
		return uint16(n), err
	case TypeInt32:
		n, err := toInt64(v, math.MinInt32, math.MaxInt32)
		return int32(n), err
	case TypeUInt32:
		n, err := toInt64(v, 0, math.MaxUint32)
		return uint32(n), err
	case TypeFloat32:
		f, err := toFloat64(v)
		return float32(f), err
	case TypeFloat64:
		return toFloat64(v)
	case TypeString, TypeURL:
		switch x := v.(type) {
		case string:
			return x, nil
		case []byte:
			return string(x), nil
		}
		return nil, fmt.Errorf("cannot use %T as string", v)
	case TypeOpaque:
		switch x := v.(type) {
		case []byte:
			return append([]byte(nil), x...), nil
		case string:
			return []byte(x), nil
		}
		return nil, fmt.Errorf("cannot use %T as opaque", v)
	default:
		return nil, fmt.Errorf("type %s holds no scalar value", t)
	}
}

func toInt64(v any, lo, hi int64) (int64, error) {
	var n int64
	switch x := v.(type) {
	case int:
		n = int64(x)
	case int8:
		n = int64(x)
	case int16:
		n = int64(x)
	case int32:
		n = int64(x)
	case int64:
		n = x
	case uint:
		if uint64(x) > math.MaxInt64 {
			return 0, fmt.Errorf("value %d out of range", x)
		}
		n = int64(x)
	case uint8:
		n = int64(x)
	case uint16:
		n = int64(x)
	case uint32:
		n = int64(x)
	case uint64:
		if x > math.MaxInt64 {
			return 0, fmt.Errorf("value %d out of range", x)
		}
		n = int64(x)
	case float32:
		return toInt64(float64(x), lo, hi)
	case float64:
		if x != math.Trunc(x) || x < float64(lo) || x > float64(hi) {
			return 0, fmt.Errorf("value %v is not an integer in [%d, %d]", x, lo, hi)
		}
		n = int64(x)
	default:
		return 0, fmt.Errorf("cannot use %T as integer", v)
	}
	if n < lo || n > hi {
		return 0, fmt.Errorf("value %d out of range [%d, %d]", n, lo, hi)
	}
	return n, nil
}

func toFloat64(v any) (float64, error) {
	switch x := v.(type) {
	case float64:
		return x, nil
	case float32:
		return float64(x), nil
	case int:
		return float64(x), nil
	case int8:
		return float64(x), nil
	case int16:
		return float64(x), nil
	case int32:
		return float64(x), nil
	case int64:
		return float64(x), nil
	case uint:
		return float64(x), nil
	case uint8:
		return float64(x), nil
	case uint16:
		return float64(x), nil
	case uint32:
		return float64(x), nil
	case uint64:
		return float64(x), nil
	default:
		return 0, fmt.Errorf("cannot use %T as float", v)
	}
}
