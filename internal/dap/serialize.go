package dap

import (
	"context"
	"fmt"
)

// Serialize streams the rows of s to m, one row at a time, applying the
// row-range constraints and the selection sel (nil selects every row).
//
// s is treated as the outermost sequence of the response, so it always ends
// with EOS: a response with no rows is the single byte 0xA5. A read failure
// aborts the transmission; bytes already handed to m are not retracted.
func (s *Sequence) Serialize(ctx context.Context, m Marshaller, sel Selector) error {
	p, err := newPass(ctx, s, sel)
	if err != nil {
		return err
	}
	p.m = m
	return p.serialize(s)
}

func (p *pass) serialize(s *Sequence) error {
	if err := p.open(s); err != nil {
		return err
	}
	if p.leaf[s] {
		return p.serializeLeaf(s)
	}
	return p.serializeParentPartOne(s)
}

// serializeLeaf drives emission: it evaluates the selection and, on the first
// row it will emit, asks its ancestors to write their pending rows.
func (p *pass) serializeLeaf(s *Sequence) error {
	i := s.firstRow()
	ok, err := p.readRow(s, i, true)
	if err != nil {
		return err
	}

	if ok && !s.isEndOfRows(i) {
		if parent := p.parentOf(s); parent != nil {
			if err := p.serializeParentPartTwo(parent); err != nil {
				return err
			}
		}
	}

	s.wroteSOI = false
	for ok && !s.isEndOfRows(i) {
		i += s.stride

		if err := writeMarker(p.m, StartOfInstance); err != nil {
			return p.codecError(s, err)
		}
		s.wroteSOI = true
		for _, v := range s.vars {
			if !v.SendP() || v.Type() == TypeSequence {
				continue
			}
			if err := v.Encode(p.m); err != nil {
				return p.codecError(s, err)
			}
		}
		s.unsent = false

		s.readP = false
		ok, err = p.readRow(s, i, true)
		if err != nil {
			return err
		}
	}

	s.rowNumber = -1
	return p.finish(s)
}

// serializeParentPartOne iterates the parent's rows and recurses into its
// selected nested sequence. It never evaluates the selection; the leaf does.
func (p *pass) serializeParentPartOne(s *Sequence) error {
	i := s.firstRow()
	ok, err := p.readRow(s, i, false)
	if err != nil {
		return err
	}

	for ok && !s.isEndOfRows(i) {
		i += s.stride

		for _, v := range s.vars {
			cs, isSeq := v.(*Sequence)
			if !isSeq || !cs.SendP() {
				continue
			}
			if err := p.serialize(cs); err != nil {
				return err
			}
		}
		s.unsent = false

		s.readP = false
		ok, err = p.readRow(s, i, false)
		if err != nil {
			return err
		}
	}

	s.rowNumber = -1
	return p.finish(s)
}

// serializeParentPartTwo writes the pending row of s, after first giving its
// own parent the chance to write, so ancestor rows appear root first.
func (p *pass) serializeParentPartTwo(s *Sequence) error {
	if parent := p.parentOf(s); parent != nil {
		if err := p.serializeParentPartTwo(parent); err != nil {
			return err
		}
	}

	if !s.unsent {
		return nil
	}
	if err := writeMarker(p.m, StartOfInstance); err != nil {
		return p.codecError(s, err)
	}
	for _, v := range s.vars {
		if !v.SendP() || v.Type() == TypeSequence {
			continue
		}
		if err := v.Encode(p.m); err != nil {
			return p.codecError(s, err)
		}
	}
	s.wroteSOI = true
	s.unsent = false
	return nil
}

// finish writes EOS for the outermost sequence, or for a nested level that
// wrote at least one row.
func (p *pass) finish(s *Sequence) error {
	if s != p.top && !s.wroteSOI {
		return nil
	}
	s.wroteSOI = false
	if err := writeMarker(p.m, EndOfSequence); err != nil {
		return p.codecError(s, err)
	}
	return nil
}

func (p *pass) codecError(s *Sequence, err error) error {
	return fmt.Errorf("sequence %s: write: %w", Path(s), err)
}
