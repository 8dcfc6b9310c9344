package engine

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/dapseq/internal/dap"
	"github.com/roach88/dapseq/internal/request"
	"github.com/roach88/dapseq/internal/store"
	"github.com/roach88/dapseq/internal/testutil"
)

func newTestEngine(t *testing.T, opts ...Option) (*Engine, *store.Store) {
	t.Helper()
	s, cat := testutil.OpenStations(t)
	return New(s, cat, testutil.NewSequentialIDGenerator(""), opts...), s
}

func stationsRequest(e *Engine, projection, selection, ranges []string) request.Request {
	req := e.NewRequest("stations")
	req.Projection = projection
	req.Selection = selection
	req.Ranges = ranges
	return req
}

func TestRespond_TopLevelProjection(t *testing.T) {
	e, _ := newTestEngine(t)
	var buf bytes.Buffer

	res, err := e.Respond(t.Context(), stationsRequest(e, []string{"stations.id"}, nil, nil), &buf)

	require.NoError(t, err)
	assert.Equal(t, []byte{
		0x5A, 0, 0, 0, 1,
		0x5A, 0, 0, 0, 2,
		0x5A, 0, 0, 0, 3,
		0xA5,
	}, buf.Bytes())
	assert.Equal(t, 3, res.Rows)
	assert.Equal(t, int64(16), res.Bytes)
	assert.Equal(t, "req-0001", res.RequestID)
}

func TestRespond_EmptyResultIsSingleEOS(t *testing.T) {
	e, _ := newTestEngine(t)
	var buf bytes.Buffer

	res, err := e.Respond(t.Context(),
		stationsRequest(e, []string{"stations.id"}, []string{"id > 100"}, nil), &buf)

	require.NoError(t, err)
	assert.Equal(t, []byte{0xA5}, buf.Bytes())
	assert.Equal(t, 0, res.Rows)
}

func TestRespond_NestedRoundTrip(t *testing.T) {
	e, _ := newTestEngine(t, WithChunkSize(7))
	var buf bytes.Buffer

	res, err := e.Respond(t.Context(), stationsRequest(e, nil, nil, nil), &buf)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Rows, "Bravo has no casts and is not sent")
	assert.Equal(t, int64(buf.Len()), res.Bytes)

	got, err := e.Decode("stations", nil, &buf)
	require.NoError(t, err)

	require.Equal(t, 2, got.NumRows())
	assert.Equal(t, "Alpha", got.VarValue(0, "name").(*dap.Scalar).Value())
	assert.Equal(t, "Charlie", got.VarValue(1, "name").(*dap.Scalar).Value())
	casts := got.VarValue(0, "casts").(*dap.Sequence)
	require.Equal(t, 2, casts.NumRows())
	assert.Equal(t, 20.0, casts.VarValue(1, "depth").(*dap.Scalar).Value())
}

func TestRespond_SelectionOnChildField(t *testing.T) {
	e, _ := newTestEngine(t)
	var buf bytes.Buffer
	req := stationsRequest(e, []string{"stations.name", "stations.casts.depth"}, []string{"depth >= 10"}, nil)

	res, err := e.Respond(t.Context(), req, &buf)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Rows)

	got, err := e.Decode("stations", req.Projection, &buf)
	require.NoError(t, err)
	require.Equal(t, 1, got.NumRows())
	assert.Equal(t, "Alpha", got.VarValue(0, "name").(*dap.Scalar).Value())
	assert.Equal(t, 2, got.VarValue(0, "casts").(*dap.Sequence).NumRows())
}

func TestRespond_RowRange(t *testing.T) {
	e, _ := newTestEngine(t)
	var buf bytes.Buffer
	req := stationsRequest(e, []string{"stations.id"}, nil, []string{"stations[0:2:*]"})

	res, err := e.Respond(t.Context(), req, &buf)

	require.NoError(t, err)
	assert.Equal(t, 2, res.Rows)
	got, err := e.Decode("stations", req.Projection, &buf)
	require.NoError(t, err)
	assert.Equal(t, int32(3), got.VarValue(1, "id").(*dap.Scalar).Value())
}

func TestRespond_SynchronousMatchesAsync(t *testing.T) {
	async, _ := newTestEngine(t, WithChunkSize(5))
	sync, _ := newTestEngine(t, WithChunkSize(5), WithSynchronous())

	var a, b bytes.Buffer
	_, err := async.Respond(t.Context(), stationsRequest(async, nil, nil, nil), &a)
	require.NoError(t, err)
	_, err = sync.Respond(t.Context(), stationsRequest(sync, nil, nil, nil), &b)
	require.NoError(t, err)

	assert.Equal(t, a.Bytes(), b.Bytes())
}

func TestRespond_WritesAreOrderedAndNeverOverlap(t *testing.T) {
	e, _ := newTestEngine(t, WithChunkSize(4))
	sink := &testutil.RecordingSink{}

	_, err := e.Respond(t.Context(), stationsRequest(e, nil, nil, nil), sink)
	require.NoError(t, err)

	var ref bytes.Buffer
	e2, _ := newTestEngine(t)
	_, err = e2.Respond(t.Context(), stationsRequest(e2, nil, nil, nil), &ref)
	require.NoError(t, err)

	assert.False(t, sink.Overlapped())
	assert.Greater(t, len(sink.Writes()), 1)
	assert.Equal(t, ref.Bytes(), sink.Bytes())
}

func TestRespond_UnknownDatasetIsBadRequest(t *testing.T) {
	e, s := newTestEngine(t)
	var buf bytes.Buffer

	_, err := e.Respond(t.Context(), e.NewRequest("nope"), &buf)

	require.Error(t, err)
	assert.True(t, IsBadRequest(err))
	assert.Zero(t, buf.Len())
	logged, err := s.ReadResponses(t.Context())
	require.NoError(t, err)
	assert.Empty(t, logged)
}

func TestRespond_BadConstraintIsBadRequest(t *testing.T) {
	tests := []struct {
		name string
		req  func(e *Engine) request.Request
	}{
		{"unknown projection", func(e *Engine) request.Request {
			return stationsRequest(e, []string{"stations.nope"}, nil, nil)
		}},
		{"unparsable clause", func(e *Engine) request.Request {
			return stationsRequest(e, nil, []string{"id ~ 3"}, nil)
		}},
		{"unknown clause field", func(e *Engine) request.Request {
			return stationsRequest(e, nil, []string{"salinity > 3"}, nil)
		}},
		{"stop before start", func(e *Engine) request.Request {
			return stationsRequest(e, nil, nil, []string{"stations[5:2]"})
		}},
		{"clause field below the leaf", func(e *Engine) request.Request {
			return stationsRequest(e, []string{"stations.id"}, []string{"temp < 12"}, nil)
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, s := newTestEngine(t)
			var buf bytes.Buffer

			_, err := e.Respond(t.Context(), tt.req(e), &buf)

			assert.True(t, IsBadRequest(err), "got %v", err)
			assert.False(t, IsTransmissionError(err))
			assert.Zero(t, buf.Len())
			logged, err := s.ReadResponses(t.Context())
			require.NoError(t, err)
			assert.Empty(t, logged)
		})
	}
}

func TestRespond_SinkFailureIsLogged(t *testing.T) {
	e, s := newTestEngine(t, WithChunkSize(4))
	sink := &testutil.FailingSink{OK: 2}

	res, err := e.Respond(t.Context(), stationsRequest(e, nil, nil, nil), sink)

	require.Error(t, err)
	assert.True(t, IsTransmissionError(err))
	assert.ErrorIs(t, err, testutil.ErrSinkBroken)
	assert.Equal(t, int64(len(sink.Bytes())), res.Bytes)

	logged, err := s.ReadResponses(t.Context())
	require.NoError(t, err)
	require.Len(t, logged, 1)
	assert.Contains(t, logged[0].Err, "sink broken")
	assert.Equal(t, res.Bytes, logged[0].Bytes)
}

func TestRespond_CanceledContextIsLogged(t *testing.T) {
	e, s := newTestEngine(t)
	ctx, cancel := context.WithCancel(t.Context())
	cancel()
	var buf bytes.Buffer

	_, err := e.Respond(ctx, stationsRequest(e, nil, nil, nil), &buf)

	assert.True(t, IsTransmissionError(err))
	assert.ErrorIs(t, err, context.Canceled)
	logged, err := s.ReadResponses(t.Context())
	require.NoError(t, err)
	require.Len(t, logged, 1)
	assert.NotEmpty(t, logged[0].Err)
}

func TestRespond_LogsResponsesAndCountsRepeats(t *testing.T) {
	e, s := newTestEngine(t)
	proj := []string{"stations.id"}

	first, err := e.Respond(t.Context(), stationsRequest(e, proj, nil, nil), &bytes.Buffer{})
	require.NoError(t, err)
	second, err := e.Respond(t.Context(), stationsRequest(e, proj, nil, nil), &bytes.Buffer{})
	require.NoError(t, err)

	assert.Equal(t, 0, first.Previous)
	assert.Equal(t, 1, second.Previous)
	assert.Equal(t, first.Fingerprint, second.Fingerprint)
	assert.NotEqual(t, first.RequestID, second.RequestID)

	logged, err := s.ReadResponses(t.Context())
	require.NoError(t, err)
	require.Len(t, logged, 2)
	assert.Equal(t, []string{"stations.id"}, logged[0].Projection)
	assert.Equal(t, 3, logged[1].Rows)
	assert.Empty(t, logged[1].Err)
}

func TestRespond_AssignsMissingRequestID(t *testing.T) {
	e, _ := newTestEngine(t)

	res, err := e.Respond(t.Context(), request.Request{Dataset: "stations"}, &bytes.Buffer{})

	require.NoError(t, err)
	assert.Equal(t, "req-0001", res.RequestID)
}

func TestIntern_MatchesDecodedResponse(t *testing.T) {
	e, _ := newTestEngine(t)
	req := stationsRequest(e, nil, []string{"temp < 13"}, nil)

	interned, err := e.Intern(t.Context(), req)
	require.NoError(t, err)

	var buf bytes.Buffer
	_, err = e.Respond(t.Context(), stationsRequest(e, nil, []string{"temp < 13"}, nil), &buf)
	require.NoError(t, err)
	decoded, err := e.Decode("stations", nil, &buf)
	require.NoError(t, err)

	var a, b bytes.Buffer
	require.NoError(t, interned.Print(&a))
	require.NoError(t, decoded.Print(&b))
	assert.Equal(t, b.String(), a.String())
	assert.Equal(t, 1, interned.NumRows())
}

func TestDecode_TruncatedStream(t *testing.T) {
	e, _ := newTestEngine(t)
	var buf bytes.Buffer
	_, err := e.Respond(t.Context(), stationsRequest(e, []string{"stations.id"}, nil, nil), &buf)
	require.NoError(t, err)

	_, err = e.Decode("stations", []string{"stations.id"}, bytes.NewReader(buf.Bytes()[:7]))

	require.Error(t, err)
	assert.ErrorContains(t, err, "decode stations at byte")
}

func TestDecode_WithoutStore(t *testing.T) {
	_, cat := testutil.OpenStations(t)
	e := New(nil, cat, request.UUIDv7Generator{})

	got, err := e.Decode("stations", []string{"stations.id"}, bytes.NewReader([]byte{0x5A, 0, 0, 0, 9, 0xA5}))

	require.NoError(t, err)
	require.Equal(t, 1, got.NumRows())
	assert.Equal(t, int32(9), got.VarValue(0, "id").(*dap.Scalar).Value())
}
