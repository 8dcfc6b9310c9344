package engine

import (
	"io"
	"log/slog"

	"github.com/roach88/dapseq/internal/catalog"
	"github.com/roach88/dapseq/internal/request"
	"github.com/roach88/dapseq/internal/store"
	"github.com/roach88/dapseq/internal/wire"
)

// Engine serves requests against a catalog of datasets backed by a store.
//
// Thread-safety model:
//   - Respond, Intern: safe from any goroutine; each call builds its own
//     Sequence tree and writer
//   - the store serializes database access on its single connection
type Engine struct {
	store   *store.Store
	catalog *catalog.Catalog
	idGen   request.IDGenerator
	logger  *slog.Logger

	chunkSize   int
	synchronous bool
	nfc         bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithChunkSize sets the number of bytes buffered before a write is
// submitted.
func WithChunkSize(n int) Option {
	return func(e *Engine) {
		e.chunkSize = n
	}
}

// WithSynchronous writes responses on the serializing goroutine instead of a
// helper goroutine.
func WithSynchronous() Option {
	return func(e *Engine) {
		e.synchronous = true
	}
}

// WithNFC normalizes transmitted strings to Unicode NFC.
func WithNFC() Option {
	return func(e *Engine) {
		e.nfc = true
	}
}

// New creates an Engine. s may be nil for an engine that only decodes.
func New(s *store.Store, cat *catalog.Catalog, idGen request.IDGenerator, opts ...Option) *Engine {
	e := &Engine{
		store:     s,
		catalog:   cat,
		idGen:     idGen,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		chunkSize: wire.DefaultChunkSize,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// NewRequest creates an empty request for dataset with a fresh ID.
func (e *Engine) NewRequest(dataset string) request.Request {
	return request.New(e.idGen, dataset)
}
