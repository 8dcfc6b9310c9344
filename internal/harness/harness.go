package harness

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/dapseq/internal/catalog"
	"github.com/roach88/dapseq/internal/ce"
	"github.com/roach88/dapseq/internal/dap"
	"github.com/roach88/dapseq/internal/engine"
	"github.com/roach88/dapseq/internal/request"
	"github.com/roach88/dapseq/internal/store"
	"github.com/roach88/dapseq/internal/testutil"
	"github.com/roach88/dapseq/internal/wire"
)

// Harness runs the requests of one scenario.
type Harness struct {
	store   *store.Store
	catalog *catalog.Catalog
	ids     *testutil.SequentialIDGenerator
	logger  *slog.Logger
}

// Run executes a test scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database for isolation. Request
// IDs are sequential so traces are reproducible.
//
// Execution flow:
// 1. Create fresh in-memory database
// 2. Compile the dataset descriptors
// 3. Import the scenario tables
// 4. Send each request and decode its response into a trace
// 5. Evaluate expect clauses and assertions
func Run(scenario *Scenario) (*Result, error) {
	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	cat, err := loadCatalog(scenario)
	if err != nil {
		return nil, err
	}

	ctx := context.Background()
	if err := st.ImportTables(ctx, scenario.Tables); err != nil {
		return nil, fmt.Errorf("failed to import tables: %w", err)
	}

	h := &Harness{
		store:   st,
		catalog: cat,
		ids:     testutil.NewSequentialIDGenerator(""),
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)), // Suppress logs in tests
	}

	result := NewResult()
	for i, step := range scenario.Requests {
		if err := h.executeRequest(ctx, i, step, result); err != nil {
			return nil, fmt.Errorf("request %d: %w", i, err)
		}
	}

	logged, err := st.ReadResponses(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read response log: %w", err)
	}
	result.Logged = len(logged)

	for _, msg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(msg)
	}
	return result, nil
}

func loadCatalog(scenario *Scenario) (*catalog.Catalog, error) {
	var (
		cat  *catalog.Catalog
		errs []error
	)
	if scenario.Specs != "" {
		cat, errs = catalog.LoadDir(scenario.Specs, catalog.LoadModeCollectAll)
	} else {
		cat, errs = catalog.CompileString(scenario.Schema, scenario.Name+".cue", catalog.LoadModeCollectAll)
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("failed to compile specs: %w", errors.Join(errs...))
	}
	return cat, nil
}

// executeRequest sends one request and appends its trace event.
func (h *Harness) executeRequest(ctx context.Context, index int, step RequestStep, result *Result) error {
	var opts []engine.Option
	opts = append(opts, engine.WithLogger(h.logger))
	if step.Chunk > 0 {
		opts = append(opts, engine.WithChunkSize(step.Chunk))
	}
	if step.Sync {
		opts = append(opts, engine.WithSynchronous())
	}
	eng := engine.New(h.store, h.catalog, h.ids, opts...)

	req := eng.NewRequest(step.Dataset)
	req.Projection = step.Project
	req.Selection = step.Select
	req.Ranges = step.Range

	var buf bytes.Buffer
	res, respErr := eng.Respond(ctx, req, &buf)

	event := TraceEvent{
		Request: res.RequestID,
		Dataset: step.Dataset,
		Rows:    res.Rows,
		Bytes:   res.Bytes,
		Tokens:  []string{},
	}
	var re *engine.RequestError
	if errors.As(respErr, &re) {
		event.Error = string(re.Code)
	} else if respErr != nil {
		return respErr
	}

	if buf.Len() > 0 {
		tokens, err := h.trace(req, buf.Bytes())
		if err != nil {
			result.AddError(fmt.Sprintf("request %d: decode response: %v", index, err))
		}
		event.Tokens = tokens
	}
	result.Trace = append(result.Trace, event)

	h.checkExpect(index, step.Expect, event, respErr, result)

	h.logger.Info("request completed",
		"index", index,
		"request_id", event.Request,
		"rows", event.Rows,
		"bytes", event.Bytes,
	)
	return nil
}

// trace decodes a response into tokens. On a decode error the tokens read
// so far are returned.
func (h *Harness) trace(req request.Request, data []byte) ([]string, error) {
	ds, err := h.catalog.Get(req.Dataset)
	if err != nil {
		return nil, err
	}
	shape, err := ds.Build(nil)
	if err != nil {
		return nil, err
	}
	if err := ce.Project(shape, req.Projection...); err != nil {
		return nil, err
	}

	tr := newTracer(wire.NewStreamUnMarshaller(bytes.NewReader(data)))
	if err := dap.Projected(shape).Deserialize(tr); err != nil {
		return tr.tokens, err
	}
	return tr.tokens, nil
}

func (h *Harness) checkExpect(index int, expect *ExpectClause, event TraceEvent, respErr error, result *Result) {
	wantErr := ""
	if expect != nil {
		wantErr = expect.Error
	}
	if event.Error != wantErr {
		result.AddError(fmt.Sprintf("request %d: expected error %q, got %q (%v)", index, wantErr, event.Error, respErr))
	}
	if expect != nil && expect.Rows != nil && *expect.Rows != event.Rows {
		result.AddError(fmt.Sprintf("request %d: expected %d rows, got %d", index, *expect.Rows, event.Rows))
	}
}
