package dap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeserialize_FlatRoundTrip(t *testing.T) {
	s := newFlat(t, 3)
	var tp tape
	require.NoError(t, s.Serialize(t.Context(), &tp, nil))

	got := Projected(s)
	require.NoError(t, got.Deserialize(&tp))

	require.Equal(t, 3, got.NumRows())
	for i := 0; i < 3; i++ {
		assert.Equal(t, int32(i), got.VarValue(i, "id").(*Scalar).Value())
	}
	assert.Equal(t, "row2", got.VarValue(2, "name").(*Scalar).Value())
	assert.True(t, got.ReadP())
}

func TestDeserialize_NestedRoundTrip(t *testing.T) {
	s := newNested(t, []string{"A", "B", "C"}, map[string][]int{"B": {7, 8}, "C": {9}})
	var tp tape
	require.NoError(t, s.Serialize(t.Context(), &tp, nil))

	got := Projected(s)
	require.NoError(t, got.Deserialize(&tp))

	require.Equal(t, 2, got.NumRows())
	assert.Equal(t, "B", got.VarValue(0, "label").(*Scalar).Value())
	kids := got.VarValue(0, "children").(*Sequence)
	require.Equal(t, 2, kids.NumRows())
	assert.Equal(t, int32(8), kids.VarValue(1, "v").(*Scalar).Value())
	assert.Same(t, got, kids.Parent())
	assert.Equal(t, 1, got.VarValue(1, "children").(*Sequence).NumRows())
}

func TestDeserialize_EmptySequence(t *testing.T) {
	tp := tape{items: []any{[]byte{EndOfSequence}}}
	s := NewSequence("s")
	require.NoError(t, s.AddVar(NewInt32("a")))

	require.NoError(t, s.Deserialize(&tp))
	assert.Equal(t, 0, s.NumRows())
}

func TestDeserialize_UnexpectedMarker(t *testing.T) {
	tp := tape{items: []any{[]byte{0x00}}}
	s := NewSequence("s")

	err := s.Deserialize(&tp)

	require.Error(t, err)
	assert.True(t, IsProtocolError(err))
	assert.Contains(t, err.Error(), "0x00")
}

func TestDeserialize_MissingEOS(t *testing.T) {
	tp := tape{items: []any{[]byte{StartOfInstance}, int32(1)}}
	s := NewSequence("s")
	require.NoError(t, s.AddVar(NewInt32("a")))

	err := s.Deserialize(&tp)

	require.Error(t, err)
	assert.True(t, IsProtocolError(err))
}

func TestDeserialize_FieldTypeMismatch(t *testing.T) {
	tp := tape{items: []any{[]byte{StartOfInstance}, "not an int", []byte{EndOfSequence}}}
	s := NewSequence("s")
	require.NoError(t, s.AddVar(NewInt32("a")))

	err := s.Deserialize(&tp)

	require.Error(t, err)
	assert.True(t, IsProtocolError(err))
	assert.Contains(t, err.Error(), `field "a"`)
}

func TestDeserialize_OpaqueField(t *testing.T) {
	s := NewSequence("s")
	blob := NewOpaque("blob")
	require.NoError(t, s.AddVar(blob))
	s.SetReader(NewSliceReader([]any{[]byte{1, 2, 3}}))
	selectAll(s)

	var tp tape
	require.NoError(t, s.Serialize(t.Context(), &tp, nil))
	assert.Equal(t, []string{"SOI", "dap.vectorLen:3", "bytes:010203", "EOS"}, tp.tokens())

	got := Projected(s)
	require.NoError(t, got.Deserialize(&tp))
	assert.Equal(t, []byte{1, 2, 3}, got.VarValue(0, "blob").(*Scalar).Value())
}
