package dap

import "context"

// MemReader is an in-memory RowReader. Rows returns the raw rows for one pass
// over the sequence; for a nested sequence it is called once per parent row
// and may inspect s.Parent() to pick the matching rows.
type MemReader struct {
	Rows func(ctx context.Context, s *Sequence) ([][]any, error)

	rows [][]any
	next int
}

// NewSliceReader returns a MemReader that yields the same rows on every pass.
func NewSliceReader(rows ...[]any) *MemReader {
	return &MemReader{
		Rows: func(context.Context, *Sequence) ([][]any, error) { return rows, nil },
	}
}

// Open computes the rows of this pass.
func (r *MemReader) Open(ctx context.Context, s *Sequence) error {
	rows, err := r.Rows(ctx, s)
	if err != nil {
		return err
	}
	r.rows = rows
	r.next = 0
	return nil
}

// Next loads the next row into the fields of s.
func (r *MemReader) Next(_ context.Context, s *Sequence) (bool, error) {
	if r.next >= len(r.rows) {
		return false, nil
	}
	row := r.rows[r.next]
	r.next++
	if err := SetRowValues(s, row); err != nil {
		return false, err
	}
	return true, nil
}
