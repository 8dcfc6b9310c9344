package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/roach88/dapseq/internal/catalog"
	"github.com/roach88/dapseq/internal/dap"
)

// TableReader reads the rows of one sequence level from its data table.
//
// Open runs the level's query and buffers the result: the store has a single
// connection, so a child level cannot query while a parent result set is
// still open.
type TableReader struct {
	db     *sql.DB
	desc   *catalog.SequenceDesc
	parent *catalog.SequenceDesc // nil for the top level

	rows [][]any
	next int
}

var _ dap.RowReader = (*TableReader)(nil)

// Readers returns the reader factory for building ds over this store.
func (s *Store) Readers(ds *catalog.Dataset) catalog.ReaderFactory {
	parents := make(map[*catalog.SequenceDesc]*catalog.SequenceDesc)
	for _, level := range ds.Levels() {
		if level.Child != nil {
			parents[level.Child] = level
		}
	}
	return func(desc *catalog.SequenceDesc) dap.RowReader {
		return &TableReader{db: s.db, desc: desc, parent: parents[desc]}
	}
}

// query returns the SELECT for this level.
func (r *TableReader) query() string {
	cols := make([]string, len(r.desc.Fields))
	for i, f := range r.desc.Fields {
		cols[i] = quoteIdent(f.Column)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "SELECT %s FROM %s", strings.Join(cols, ", "), quoteIdent(r.desc.Table))
	if r.parent != nil {
		fmt.Fprintf(&b, " WHERE %s = ?", quoteIdent(r.desc.ParentKey))
	}
	b.WriteString(" ORDER BY ")
	if r.desc.OrderBy != "" {
		b.WriteString(quoteIdent(r.desc.OrderBy))
		b.WriteString(", ")
	}
	b.WriteString("rowid")
	return b.String()
}

// Open queries the rows of this pass. For a nested level the rows are those
// whose parent_key column equals the parent's current key value.
func (r *TableReader) Open(ctx context.Context, s *dap.Sequence) error {
	var args []any
	if r.parent != nil {
		key, err := r.parentKey(s)
		if err != nil {
			return err
		}
		args = append(args, key)
	}

	rows, err := r.db.QueryContext(ctx, r.query(), args...)
	if err != nil {
		return fmt.Errorf("query %s: %w", r.desc.Table, err)
	}
	defer rows.Close()

	r.rows = r.rows[:0]
	r.next = 0
	for rows.Next() {
		vals := make([]any, len(r.desc.Fields))
		ptrs := make([]any, len(vals))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return fmt.Errorf("scan %s: %w", r.desc.Table, err)
		}
		if err := r.normalize(vals); err != nil {
			return err
		}
		r.rows = append(r.rows, vals)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate %s: %w", r.desc.Table, err)
	}
	return nil
}

// Next loads the next buffered row into the fields of s.
func (r *TableReader) Next(_ context.Context, s *dap.Sequence) (bool, error) {
	if r.next >= len(r.rows) {
		return false, nil
	}
	row := r.rows[r.next]
	r.next++
	if err := dap.SetRowValues(s, row); err != nil {
		return false, fmt.Errorf("%s row %d: %w", r.desc.Table, r.next-1, err)
	}
	return true, nil
}

func (r *TableReader) parentKey(s *dap.Sequence) (any, error) {
	p := s.Parent()
	if p == nil {
		return nil, fmt.Errorf("%s: nested level has no parent sequence", r.desc.Name)
	}
	key, ok := p.Var(r.parent.Key).(*dap.Scalar)
	if !ok {
		return nil, fmt.Errorf("%s: parent key %q is not a field of %s", r.desc.Name, r.parent.Key, p.Name())
	}
	return key.Value(), nil
}

// normalize maps driver values onto what the fields accept. SQL NULL has no
// representation in a row and is reported as an error.
func (r *TableReader) normalize(vals []any) error {
	for i, v := range vals {
		f := r.desc.Fields[i]
		switch x := v.(type) {
		case nil:
			return fmt.Errorf("%s.%s: NULL value", r.desc.Table, f.Column)
		case []byte:
			if f.Type != dap.TypeOpaque {
				vals[i] = string(x)
			}
		}
	}
	return nil
}
