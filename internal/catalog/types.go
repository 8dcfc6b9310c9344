package catalog

import (
	"github.com/roach88/dapseq/internal/dap"
)

// Field is one scalar field of a sequence level.
type Field struct {
	Name   string
	Type   dap.Type
	Column string // table column; defaults to Name
}

// SequenceDesc describes one sequence level and where its rows come from.
type SequenceDesc struct {
	Name      string
	Table     string
	Key       string // parent field whose value links child rows
	ParentKey string // child column matched against the parent's Key
	OrderBy   string // column; defaults to the table's row order
	Fields    []Field
	Child     *SequenceDesc
}

// Columns returns the table columns of the fields, in declared order.
func (d *SequenceDesc) Columns() []string {
	cols := make([]string, len(d.Fields))
	for i, f := range d.Fields {
		cols[i] = f.Column
	}
	return cols
}

// Dataset is a compiled dataset descriptor.
type Dataset struct {
	Name        string
	Description string
	Root        SequenceDesc
}

// Levels returns the sequence levels from the root down.
func (d *Dataset) Levels() []*SequenceDesc {
	var out []*SequenceDesc
	for s := &d.Root; s != nil; s = s.Child {
		out = append(out, s)
	}
	return out
}

// ReaderFactory returns the row reader for one sequence level.
type ReaderFactory func(desc *SequenceDesc) dap.RowReader

// Build creates the Sequence tree of the dataset. When readers is not nil
// every level gets the reader it returns. Nothing is selected for
// transmission; apply a projection before serializing.
func (d *Dataset) Build(readers ReaderFactory) (*dap.Sequence, error) {
	return buildSequence(&d.Root, readers)
}

func buildSequence(desc *SequenceDesc, readers ReaderFactory) (*dap.Sequence, error) {
	s := dap.NewSequence(desc.Name)
	for _, f := range desc.Fields {
		v, err := dap.NewScalar(f.Name, f.Type)
		if err != nil {
			return nil, err
		}
		if err := s.AddVar(v); err != nil {
			return nil, err
		}
	}
	if desc.Child != nil {
		child, err := buildSequence(desc.Child, readers)
		if err != nil {
			return nil, err
		}
		if err := s.AddVar(child); err != nil {
			return nil, err
		}
	}
	if readers != nil {
		s.SetReader(readers(desc))
	}
	return s, nil
}
