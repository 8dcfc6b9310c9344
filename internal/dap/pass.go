package dap

import (
	"context"
	"fmt"
)

// pass holds the state of one transmission (or materialization) over a
// Sequence tree. Leaf/parent classification lives here rather than on the
// nodes, so reusing a tree for another request cannot observe stale state.
type pass struct {
	ctx context.Context
	sel Selector
	top *Sequence

	// leaf is true for the leaf sequence and false for each parent. Only
	// sequences taking part in the pass have an entry.
	leaf  map[*Sequence]bool
	level map[*Sequence]int

	// Emission target (serialize) or destinations by nesting level
	// (materialize).
	m    Marshaller
	dest []*Sequence
}

func newPass(ctx context.Context, top *Sequence, sel Selector) (*pass, error) {
	p := &pass{
		ctx:   ctx,
		sel:   sel,
		top:   top,
		leaf:  make(map[*Sequence]bool),
		level: make(map[*Sequence]int),
	}
	if err := p.classify(top, 0); err != nil {
		return nil, err
	}
	return p, nil
}

// classify walks the selected nested sequences top-down and marks each level
// leaf or parent. It also resets the per-pass row state of every level.
func (p *pass) classify(s *Sequence, level int) error {
	var child *Sequence
	for _, v := range s.vars {
		cs, ok := v.(*Sequence)
		if !ok || !cs.SendP() {
			continue
		}
		if child != nil {
			return newError(CodeShape, Path(s),
				fmt.Sprintf("more than one selected nested sequence (%q and %q)", child.Name(), cs.Name()), nil)
		}
		child = cs
	}

	s.ResetRowNumber(false)
	p.level[s] = level
	p.leaf[s] = child == nil
	if child == nil {
		return nil
	}
	return p.classify(child, level+1)
}

// parentOf returns the enclosing sequence of s within this pass, or nil for
// the top of the pass.
func (p *pass) parentOf(s *Sequence) *Sequence {
	if s == p.top {
		return nil
	}
	parent := s.Parent()
	if parent == nil {
		return nil
	}
	if _, ok := p.leaf[parent]; !ok {
		return nil
	}
	return parent
}

// open starts a pass over the rows of s.
func (p *pass) open(s *Sequence) error {
	if s.reader == nil {
		return newError(CodeRead, Path(s), "sequence has no row reader", nil)
	}
	if err := s.reader.Open(p.ctx, s); err != nil {
		return newError(CodeRead, Path(s), "open rows", err)
	}
	return nil
}

// firstRow returns the first row index considered by the row range.
func (s *Sequence) firstRow() int {
	if s.start < 0 {
		return 0
	}
	return s.start
}

// isEndOfRows reports whether row i lies past the row-range stop.
func (s *Sequence) isEndOfRows(i int) bool {
	return s.stop != Unbounded && i > s.stop
}

// readRow advances the row counter until it reaches row, reading raw rows
// from the reader. When evalSelection is true only rows accepted by the
// selector advance the counter, so row indices address the selected rows.
// It returns false when the reader runs out of rows first.
func (p *pass) readRow(s *Sequence, row int, evalSelection bool) (bool, error) {
	if row < s.rowNumber {
		return false, newError(CodeInternal, Path(s),
			fmt.Sprintf("trying to back up inside a sequence (row %d, current %d)", row, s.rowNumber), nil)
	}
	if row == s.rowNumber {
		return true, nil
	}

	for s.rowNumber < row {
		if err := p.ctx.Err(); err != nil {
			return false, newError(CodeRead, Path(s), "read row", err)
		}
		ok, err := s.reader.Next(p.ctx, s)
		if err != nil {
			return false, newError(CodeRead, Path(s), fmt.Sprintf("read row %d", s.rowNumber+1), err)
		}
		if !ok {
			s.readP = false
			return false, nil
		}
		accept := true
		if evalSelection && p.sel != nil {
			accept, err = p.sel.Select(p.ctx, s)
			if err != nil {
				return false, newError(CodeRead, Path(s), "evaluate selection", err)
			}
		}
		if accept {
			s.rowNumber++
		}
	}

	s.readP = true
	s.unsent = true
	return true, nil
}

func writeMarker(m Marshaller, marker byte) error {
	return m.PutOpaque([]byte{marker})
}
