package engine

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/roach88/dapseq/internal/catalog"
	"github.com/roach88/dapseq/internal/dap"
	"github.com/roach88/dapseq/internal/ordered"
	"github.com/roach88/dapseq/internal/request"
	"github.com/roach88/dapseq/internal/store"
	"github.com/roach88/dapseq/internal/wire"
)

// Result describes one response.
type Result struct {
	RequestID   string
	Fingerprint string
	Rows        int   // top-level instances emitted
	Bytes       int64 // bytes accepted by the sink
	Previous    int   // earlier logged responses with the same fingerprint
}

// Respond serializes the dataset named by req to w, constrained by the
// request, and records the response in the log.
//
// A bad request fails before anything is written. Once serialization has
// started, a failure leaves the bytes already written in place; the error
// and the byte count are both logged.
func (e *Engine) Respond(ctx context.Context, req request.Request, w io.Writer) (Result, error) {
	if req.ID == "" {
		req.ID = e.idGen.Generate()
	}
	res := Result{RequestID: req.ID}

	fp, err := req.Fingerprint()
	if err != nil {
		return res, badRequest(req, err)
	}
	res.Fingerprint = fp

	if e.store == nil {
		return res, badRequest(req, errors.New("no store configured"))
	}
	seq, sel, err := e.prepare(req, true)
	if err != nil {
		return res, err
	}

	prev, err := e.store.ResponsesByFingerprint(ctx, fp)
	if err != nil {
		e.logger.Warn("response history unavailable", "request_id", req.ID, "error", err)
	}
	res.Previous = len(prev)

	ow := ordered.NewWriter(w, e.writerOptions()...)
	m := wire.NewStreamMarshaller(ow, e.marshallerOptions()...)
	counter := newInstanceCounter(m, seq)

	e.logger.Debug("response starting",
		"request_id", req.ID,
		"dataset", req.Dataset,
		"fingerprint", fp,
		"previous", res.Previous,
	)

	sendErr := seq.Serialize(ctx, counter, sel)
	closeErr := m.Close()
	res.Rows = counter.instances
	res.Bytes = ow.Written()

	txErr := errors.Join(sendErr, closeErr)
	logErr := e.logResponse(ctx, req, res, txErr)

	if txErr != nil {
		e.logger.Error("response failed",
			"request_id", req.ID,
			"dataset", req.Dataset,
			"rows", res.Rows,
			"bytes", res.Bytes,
			"error", txErr,
		)
		return res, &RequestError{Code: ErrCodeTransmission, RequestID: req.ID, Dataset: req.Dataset, Err: txErr}
	}
	if logErr != nil {
		return res, &RequestError{Code: ErrCodeLog, RequestID: req.ID, Dataset: req.Dataset, Err: logErr}
	}

	e.logger.Info("response sent",
		"request_id", req.ID,
		"dataset", req.Dataset,
		"rows", res.Rows,
		"bytes", res.Bytes,
	)
	return res, nil
}

// Intern materializes the constrained dataset in memory instead of sending
// it. The returned tree holds the emitted rows in its row buffers.
func (e *Engine) Intern(ctx context.Context, req request.Request) (*dap.Sequence, error) {
	if e.store == nil {
		return nil, badRequest(req, errors.New("no store configured"))
	}
	seq, sel, err := e.prepare(req, true)
	if err != nil {
		return nil, err
	}
	if err := seq.InternData(ctx, sel); err != nil {
		return nil, &RequestError{Code: ErrCodeTransmission, RequestID: req.ID, Dataset: req.Dataset, Err: err}
	}
	return seq, nil
}

// prepare builds the dataset tree and applies the request constraint.
func (e *Engine) prepare(req request.Request, withReaders bool) (*dap.Sequence, dap.Selector, error) {
	ds, err := e.catalog.Get(req.Dataset)
	if err != nil {
		return nil, nil, badRequest(req, err)
	}
	c, err := req.Constraint()
	if err != nil {
		return nil, nil, badRequest(req, err)
	}

	var readers catalog.ReaderFactory
	if withReaders {
		readers = e.store.Readers(ds)
	}
	seq, err := ds.Build(readers)
	if err != nil {
		return nil, nil, badRequest(req, err)
	}
	sel, err := c.Apply(seq)
	if err != nil {
		return nil, nil, badRequest(req, err)
	}
	return seq, sel, nil
}

func (e *Engine) logResponse(ctx context.Context, req request.Request, res Result, txErr error) error {
	r := store.Response{
		RequestID:   req.ID,
		Fingerprint: res.Fingerprint,
		Dataset:     req.Dataset,
		Projection:  req.Projection,
		Selection:   req.Selection,
		Ranges:      req.Ranges,
		Rows:        res.Rows,
		Bytes:       res.Bytes,
	}
	if txErr != nil {
		r.Err = txErr.Error()
	}
	// A canceled request is still logged.
	if err := e.store.WriteResponse(context.WithoutCancel(ctx), r); err != nil {
		e.logger.Error("response log write failed", "request_id", req.ID, "error", err)
		return err
	}
	return nil
}

func (e *Engine) writerOptions() []ordered.Option {
	opts := []ordered.Option{ordered.WithLogger(e.logger)}
	if e.synchronous {
		opts = append(opts, ordered.WithSynchronous())
	}
	return opts
}

func (e *Engine) marshallerOptions() []wire.MarshallerOption {
	opts := []wire.MarshallerOption{wire.WithChunkSize(e.chunkSize)}
	if e.nfc {
		opts = append(opts, wire.WithNFC())
	}
	return opts
}

func badRequest(req request.Request, err error) error {
	return &RequestError{Code: ErrCodeBadRequest, RequestID: req.ID, Dataset: req.Dataset, Err: err}
}

// instanceCounter counts top-level instances by tracking the nesting level
// through the marker stream. Markers are the only single-byte opaque writes.
type instanceCounter struct {
	dap.Marshaller
	leafLevel int
	level     int
	instances int
}

func newInstanceCounter(m dap.Marshaller, top *dap.Sequence) *instanceCounter {
	leaf := 1
	for s := top.Child(); s != nil && s.SendP(); s = s.Child() {
		leaf++
	}
	return &instanceCounter{Marshaller: m, leafLevel: leaf, level: 1}
}

func (c *instanceCounter) PutOpaque(b []byte) error {
	if len(b) == 1 {
		switch b[0] {
		case dap.StartOfInstance:
			if c.level == 1 {
				c.instances++
			}
			if c.level < c.leafLevel {
				c.level++
			}
		case dap.EndOfSequence:
			c.level--
		}
	}
	if err := c.Marshaller.PutOpaque(b); err != nil {
		return fmt.Errorf("write marker: %w", err)
	}
	return nil
}
