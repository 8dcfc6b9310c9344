package dap

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serializeTokens(t *testing.T, s *Sequence, sel Selector) []string {
	t.Helper()
	var tp tape
	require.NoError(t, s.Serialize(context.Background(), &tp, sel))
	return tp.tokens()
}

func emittedIDs(tokens []string) []string {
	var ids []string
	for i, tok := range tokens {
		if tok == "SOI" && i+1 < len(tokens) {
			ids = append(ids, tokens[i+1])
		}
	}
	return ids
}

func TestSerialize_FlatOneSOIPerRow(t *testing.T) {
	s := newFlat(t, 3)

	got := serializeTokens(t, s, nil)

	assert.Equal(t, []string{
		"SOI", "i32:0", "s:row0",
		"SOI", "i32:1", "s:row1",
		"SOI", "i32:2", "s:row2",
		"EOS",
	}, got)
}

func TestSerialize_EmptyTopLevelIsSingleEOS(t *testing.T) {
	s := newFlat(t, 0)

	got := serializeTokens(t, s, nil)

	assert.Equal(t, []string{"EOS"}, got)
}

func TestSerialize_ProjectionSkipsUnselectedFields(t *testing.T) {
	s := newFlat(t, 2)
	s.Var("name").SetSendP(false)

	got := serializeTokens(t, s, nil)

	assert.Equal(t, []string{"SOI", "i32:0", "SOI", "i32:1", "EOS"}, got)
}

func TestSerialize_RowRange(t *testing.T) {
	tests := []struct {
		name                string
		start, stride, stop int
		want                []string
	}{
		{"stride three", 1, 3, 7, []string{"i32:1", "i32:4", "i32:7"}},
		{"stop cuts stride", 1, 3, 6, []string{"i32:1", "i32:4"}},
		{"unbounded stop", 0, 2, Unbounded, []string{"i32:0", "i32:2", "i32:4", "i32:6", "i32:8"}},
		{"single row", 5, 1, 5, []string{"i32:5"}},
		{"start past data", 20, 1, Unbounded, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newFlat(t, 10)
			s.Var("name").SetSendP(false)
			require.NoError(t, s.SetRowRange(tt.start, tt.stride, tt.stop))

			got := serializeTokens(t, s, nil)

			assert.Equal(t, tt.want, emittedIDs(got))
			assert.Equal(t, "EOS", got[len(got)-1])
		})
	}
}

func TestSetRowRange_Malformed(t *testing.T) {
	s := NewSequence("s")

	err := s.SetRowRange(5, 1, 4)
	require.Error(t, err)
	assert.True(t, IsMalformedConstraint(err))

	assert.True(t, IsMalformedConstraint(s.SetRowRange(-1, 1, 4)))
	assert.True(t, IsMalformedConstraint(s.SetRowRange(0, 0, 4)))

	start, stride, stop := s.RowRange()
	assert.Equal(t, -1, start, "failed constraint must not be applied")
	assert.Equal(t, 1, stride)
	assert.Equal(t, Unbounded, stop)
}

func evenIDs() Selector {
	return SelectorFunc(func(_ context.Context, s *Sequence) (bool, error) {
		return s.Var("id").(*Scalar).Value().(int32)%2 == 0, nil
	})
}

func TestSerialize_SelectionFiltersRows(t *testing.T) {
	s := newFlat(t, 6)
	s.Var("name").SetSendP(false)

	got := serializeTokens(t, s, evenIDs())

	assert.Equal(t, []string{"i32:0", "i32:2", "i32:4"}, emittedIDs(got))
}

func TestSerialize_RowRangeCountsSelectedRows(t *testing.T) {
	s := newFlat(t, 10)
	s.Var("name").SetSendP(false)
	require.NoError(t, s.SetRowRange(1, 2, Unbounded))

	got := serializeTokens(t, s, evenIDs())

	// Selected rows are 0,2,4,6,8; the range picks the 2nd and 4th of them.
	assert.Equal(t, []string{"i32:2", "i32:6"}, emittedIDs(got))
}

func TestSerialize_LazyParentEmission(t *testing.T) {
	s := newNested(t, []string{"A", "B", "C"}, map[string][]int{"B": {7, 8}})

	got := serializeTokens(t, s, nil)

	assert.Equal(t, []string{
		"SOI", "s:B",
		"SOI", "i32:7",
		"SOI", "i32:8",
		"EOS",
		"EOS",
	}, got)
}

func TestSerialize_NestedWithNoChildRowsIsSingleEOS(t *testing.T) {
	s := newNested(t, []string{"A", "B"}, nil)

	got := serializeTokens(t, s, nil)

	assert.Equal(t, []string{"EOS"}, got)
}

func TestSerialize_LeafSelectionDecidesParentRows(t *testing.T) {
	s := newNested(t, []string{"A", "B"}, map[string][]int{"A": {1, 3}, "B": {2, 5}})
	odd := SelectorFunc(func(_ context.Context, s *Sequence) (bool, error) {
		v, ok := s.Var("v").(*Scalar)
		if !ok {
			return true, nil
		}
		return v.Value().(int32)%2 == 1, nil
	})
	// Leaf is "children"; only rows 1,3 (under A) and 5 (under B) pass.
	got := serializeTokens(t, s, odd)

	assert.Equal(t, []string{
		"SOI", "s:A", "SOI", "i32:1", "SOI", "i32:3", "EOS",
		"SOI", "s:B", "SOI", "i32:5", "EOS",
		"EOS",
	}, got)
}

func TestSerialize_UnselectedChildMakesParentALeaf(t *testing.T) {
	s := newNested(t, []string{"A", "B"}, map[string][]int{"B": {1}})
	s.Var("children").SetSendP(false)

	got := serializeTokens(t, s, nil)

	assert.Equal(t, []string{"SOI", "s:A", "SOI", "s:B", "EOS"}, got)
}

func TestSerialize_ThreeLevelsWriteAncestorsRootFirst(t *testing.T) {
	g := newThreeLevel(t)

	got := serializeTokens(t, g, nil)

	assert.Equal(t, []string{
		"SOI", "s:g1",
		"SOI", "s:p2",
		"SOI", "i32:10",
		"EOS",
		"EOS",
		"SOI", "s:g2",
		"SOI", "s:p3",
		"SOI", "i32:20",
		"SOI", "i32:21",
		"EOS",
		"EOS",
		"EOS",
	}, got)
}

func TestSerialize_ReusedTreeProducesSameBytes(t *testing.T) {
	s := newNested(t, []string{"A", "B", "C"}, map[string][]int{"A": {1}, "C": {2, 3}})

	first := serializeTokens(t, s, nil)
	second := serializeTokens(t, s, nil)

	assert.Equal(t, first, second)
}

func TestSerialize_TwoSelectedNestedSequencesIsShapeError(t *testing.T) {
	s := newNested(t, []string{"A"}, nil)
	extra := NewSequence("extra")
	extra.SetSendP(true)
	extra.setParent(s)
	s.vars = append(s.vars, extra)

	var tp tape
	err := s.Serialize(context.Background(), &tp, nil)

	require.Error(t, err)
	assert.True(t, IsShapeError(err))
	assert.Empty(t, tp.items, "nothing is emitted before classification succeeds")
}

func TestSerialize_ReadErrorAbortsAfterFlushedRows(t *testing.T) {
	s := NewSequence("flat")
	require.NoError(t, s.AddVar(NewInt32("id")))
	s.SetReader(&failingReader{rows: [][]any{{1}, {2}, {3}}, failAt: 2})
	selectAll(s)

	var tp tape
	err := s.Serialize(context.Background(), &tp, nil)

	require.Error(t, err)
	assert.True(t, IsReadError(err))
	assert.ErrorContains(t, err, "disk on fire")
	assert.Equal(t, []string{"SOI", "i32:1", "SOI", "i32:2"}, tp.tokens())
}

func TestSerialize_MissingReaderIsReadError(t *testing.T) {
	s := NewSequence("flat")
	require.NoError(t, s.AddVar(NewInt32("id")))
	selectAll(s)

	err := s.Serialize(context.Background(), &tape{}, nil)

	assert.True(t, IsReadError(err))
}

func TestSerialize_CanceledContext(t *testing.T) {
	s := newFlat(t, 3)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := s.Serialize(ctx, &tape{}, nil)

	require.Error(t, err)
	assert.True(t, IsReadError(err))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestReadRow_BackingUpIsInternalError(t *testing.T) {
	s := newFlat(t, 5)
	p, err := newPass(context.Background(), s, nil)
	require.NoError(t, err)
	require.NoError(t, p.open(s))

	ok, err := p.readRow(s, 2, false)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 2, s.RowNumber())

	_, err = p.readRow(s, 1, false)
	assert.True(t, IsInternalError(err))
}

// newThreeLevel builds g { String name; p { String name; l { Int32 x; } } }.
func newThreeLevel(t *testing.T) *Sequence {
	t.Helper()
	g := NewSequence("g")
	p := NewSequence("p")
	l := NewSequence("l")
	require.NoError(t, l.AddVar(NewInt32("x")))
	require.NoError(t, p.AddVars(NewString("name"), l))
	require.NoError(t, g.AddVars(NewString("name"), p))

	ps := map[string][]string{"g1": {"p1", "p2"}, "g2": {"p3"}}
	ls := map[string][]int{"p2": {10}, "p3": {20, 21}}

	g.SetReader(NewSliceReader([]any{"g1"}, []any{"g2"}))
	p.SetReader(&MemReader{Rows: func(_ context.Context, s *Sequence) ([][]any, error) {
		var out [][]any
		for _, name := range ps[s.Parent().Var("name").(*Scalar).Value().(string)] {
			out = append(out, []any{name})
		}
		return out, nil
	}})
	l.SetReader(&MemReader{Rows: func(_ context.Context, s *Sequence) ([][]any, error) {
		var out [][]any
		for _, x := range ls[s.Parent().Var("name").(*Scalar).Value().(string)] {
			out = append(out, []any{x})
		}
		return out, nil
	}})
	selectAll(g)
	return g
}
