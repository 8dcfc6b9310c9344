package harness

import (
	"encoding/hex"
	"fmt"
	"strconv"

	"github.com/roach88/dapseq/internal/dap"
)

// tracer wraps an UnMarshaller and records every value it returns as a
// trace token.
type tracer struct {
	um     dap.UnMarshaller
	tokens []string
}

var _ dap.UnMarshaller = (*tracer)(nil)

func newTracer(um dap.UnMarshaller) *tracer {
	return &tracer{um: um, tokens: []string{}}
}

func (t *tracer) record(format string, args ...any) {
	t.tokens = append(t.tokens, fmt.Sprintf(format, args...))
}

func (t *tracer) GetOpaque(n int) ([]byte, error) {
	b, err := t.um.GetOpaque(n)
	if err != nil {
		return nil, err
	}
	switch {
	case len(b) == 1 && b[0] == dap.StartOfInstance:
		t.record("SOI")
	case len(b) == 1 && b[0] == dap.EndOfSequence:
		t.record("EOS")
	default:
		t.record("opaque:%s", hex.EncodeToString(b))
	}
	return b, nil
}

func (t *tracer) GetByte() (uint8, error) {
	v, err := t.um.GetByte()
	if err == nil {
		t.record("u8:%d", v)
	}
	return v, err
}

func (t *tracer) GetInt16() (int16, error) {
	v, err := t.um.GetInt16()
	if err == nil {
		t.record("i16:%d", v)
	}
	return v, err
}

func (t *tracer) GetUInt16() (uint16, error) {
	v, err := t.um.GetUInt16()
	if err == nil {
		t.record("u16:%d", v)
	}
	return v, err
}

func (t *tracer) GetInt32() (int32, error) {
	v, err := t.um.GetInt32()
	if err == nil {
		t.record("i32:%d", v)
	}
	return v, err
}

func (t *tracer) GetUInt32() (uint32, error) {
	v, err := t.um.GetUInt32()
	if err == nil {
		t.record("u32:%d", v)
	}
	return v, err
}

func (t *tracer) GetFloat32() (float32, error) {
	v, err := t.um.GetFloat32()
	if err == nil {
		t.record("f32:%s", strconv.FormatFloat(float64(v), 'g', -1, 32))
	}
	return v, err
}

func (t *tracer) GetFloat64() (float64, error) {
	v, err := t.um.GetFloat64()
	if err == nil {
		t.record("f64:%s", strconv.FormatFloat(v, 'g', -1, 64))
	}
	return v, err
}

func (t *tracer) GetStr() (string, error) {
	v, err := t.um.GetStr()
	if err == nil {
		t.record("s:%s", v)
	}
	return v, err
}

func (t *tracer) GetURL() (string, error) {
	v, err := t.um.GetURL()
	if err == nil {
		t.record("url:%s", v)
	}
	return v, err
}

func (t *tracer) GetVector() ([]byte, error) {
	v, err := t.um.GetVector()
	if err == nil {
		t.record("bytes:%s", hex.EncodeToString(v))
	}
	return v, err
}
