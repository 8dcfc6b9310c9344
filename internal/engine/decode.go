package engine

import (
	"fmt"
	"io"

	"github.com/roach88/dapseq/internal/ce"
	"github.com/roach88/dapseq/internal/dap"
	"github.com/roach88/dapseq/internal/wire"
)

// Decode reads a response to a request for dataset with the given
// projection. The returned tree has only the projected fields and holds the
// received rows.
func (e *Engine) Decode(dataset string, projection []string, r io.Reader) (*dap.Sequence, error) {
	ds, err := e.catalog.Get(dataset)
	if err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	shape, err := ds.Build(nil)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", dataset, err)
	}
	if err := ce.Project(shape, projection...); err != nil {
		return nil, fmt.Errorf("decode %s: %w", dataset, err)
	}

	seq := dap.Projected(shape)
	um := wire.NewStreamUnMarshaller(r)
	if err := seq.Deserialize(um); err != nil {
		return nil, fmt.Errorf("decode %s at byte %d: %w", dataset, um.BytesRead(), err)
	}

	e.logger.Debug("response decoded",
		"dataset", dataset,
		"rows", seq.NumRows(),
		"bytes", um.BytesRead(),
	)
	return seq, nil
}
