package dap

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

// tape is an in-memory Marshaller/UnMarshaller that records typed tokens.
type tape struct {
	items []any
	pos   int
}

type urlValue string
type vectorLen int

func (t *tape) put(v any) error { t.items = append(t.items, v); return nil }

func (t *tape) PutOpaque(b []byte) error     { return t.put(append([]byte(nil), b...)) }
func (t *tape) PutByte(v uint8) error        { return t.put(v) }
func (t *tape) PutInt16(v int16) error       { return t.put(v) }
func (t *tape) PutUInt16(v uint16) error     { return t.put(v) }
func (t *tape) PutInt32(v int32) error       { return t.put(v) }
func (t *tape) PutUInt32(v uint32) error     { return t.put(v) }
func (t *tape) PutFloat32(v float32) error   { return t.put(v) }
func (t *tape) PutFloat64(v float64) error   { return t.put(v) }
func (t *tape) PutStr(v string) error        { return t.put(v) }
func (t *tape) PutURL(v string) error        { return t.put(urlValue(v)) }
func (t *tape) PutVectorStart(n int) error   { return t.put(vectorLen(n)) }
func (t *tape) PutVectorPart(b []byte) error { return t.put(append([]byte(nil), b...)) }

func (t *tape) next() (any, error) {
	if t.pos >= len(t.items) {
		return nil, fmt.Errorf("tape exhausted: %w", errEOF)
	}
	v := t.items[t.pos]
	t.pos++
	return v, nil
}

func get[T any](t *tape) (T, error) {
	var zero T
	v, err := t.next()
	if err != nil {
		return zero, err
	}
	x, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("tape item %d is %T, want %T", t.pos-1, v, zero)
	}
	return x, nil
}

func (t *tape) GetOpaque(n int) ([]byte, error) {
	b, err := get[[]byte](t)
	if err == nil && len(b) != n {
		return nil, fmt.Errorf("opaque of %d bytes, want %d", len(b), n)
	}
	return b, err
}
func (t *tape) GetByte() (uint8, error)       { return get[uint8](t) }
func (t *tape) GetInt16() (int16, error)      { return get[int16](t) }
func (t *tape) GetUInt16() (uint16, error)    { return get[uint16](t) }
func (t *tape) GetInt32() (int32, error)      { return get[int32](t) }
func (t *tape) GetUInt32() (uint32, error)    { return get[uint32](t) }
func (t *tape) GetFloat32() (float32, error)  { return get[float32](t) }
func (t *tape) GetFloat64() (float64, error)  { return get[float64](t) }
func (t *tape) GetStr() (string, error)       { return get[string](t) }
func (t *tape) GetURL() (string, error) {
	u, err := get[urlValue](t)
	return string(u), err
}
func (t *tape) GetVector() ([]byte, error) {
	if _, err := get[vectorLen](t); err != nil {
		return nil, err
	}
	return get[[]byte](t)
}

// tokens renders the tape as readable strings.
func (t *tape) tokens() []string {
	out := make([]string, 0, len(t.items))
	for _, item := range t.items {
		switch v := item.(type) {
		case []byte:
			switch {
			case len(v) == 1 && v[0] == StartOfInstance:
				out = append(out, "SOI")
			case len(v) == 1 && v[0] == EndOfSequence:
				out = append(out, "EOS")
			default:
				out = append(out, fmt.Sprintf("bytes:%x", v))
			}
		case string:
			out = append(out, "s:"+v)
		case int32:
			out = append(out, fmt.Sprintf("i32:%d", v))
		case float64:
			out = append(out, fmt.Sprintf("f64:%g", v))
		default:
			out = append(out, fmt.Sprintf("%T:%v", v, v))
		}
	}
	return out
}

var errEOF = fmt.Errorf("EOF")

// selectAll marks every variable of the tree for transmission.
func selectAll(v Variable) {
	_ = Walk(v, func(x Variable) error {
		x.SetSendP(true)
		return nil
	})
}

// newFlat builds Sequence flat { Int32 id; String name; } over n rows.
func newFlat(t *testing.T, n int) *Sequence {
	t.Helper()
	s := NewSequence("flat")
	require.NoError(t, s.AddVars(NewInt32("id"), NewString("name")))
	rows := make([][]any, n)
	for i := range rows {
		rows[i] = []any{i, fmt.Sprintf("row%d", i)}
	}
	s.SetReader(NewSliceReader(rows...))
	selectAll(s)
	return s
}

// newNested builds parents { String label; children { Int32 v; } } where the
// children of each parent row come from kids[label].
func newNested(t *testing.T, labels []string, kids map[string][]int) *Sequence {
	t.Helper()
	parent := NewSequence("parents")
	child := NewSequence("children")
	require.NoError(t, child.AddVar(NewInt32("v")))
	require.NoError(t, parent.AddVars(NewString("label"), child))

	rows := make([][]any, len(labels))
	for i, l := range labels {
		rows[i] = []any{l}
	}
	parent.SetReader(NewSliceReader(rows...))
	child.SetReader(&MemReader{Rows: func(_ context.Context, s *Sequence) ([][]any, error) {
		label := s.Parent().Var("label").(*Scalar).Value().(string)
		var out [][]any
		for _, v := range kids[label] {
			out = append(out, []any{v})
		}
		return out, nil
	}})
	selectAll(parent)
	return parent
}

// failingReader yields rows until failAt, then returns an error.
type failingReader struct {
	rows   [][]any
	failAt int
	next   int
}

func (r *failingReader) Open(context.Context, *Sequence) error { r.next = 0; return nil }

func (r *failingReader) Next(_ context.Context, s *Sequence) (bool, error) {
	if r.next == r.failAt {
		return false, fmt.Errorf("disk on fire")
	}
	if r.next >= len(r.rows) {
		return false, nil
	}
	row := r.rows[r.next]
	r.next++
	return true, SetRowValues(s, row)
}
