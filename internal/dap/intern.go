package dap

import "context"

// InternData materializes the selected rows of s into row buffers instead of
// writing wire bytes. The leaf/parent split, row ranges and selection behave
// exactly as in Serialize. A parent row holds clones of its selected fields
// and, last, a Sequence whose row buffer holds the matching nested rows.
//
// Any rows already buffered in s are discarded.
func (s *Sequence) InternData(ctx context.Context, sel Selector) error {
	p, err := newPass(ctx, s, sel)
	if err != nil {
		return err
	}
	s.ClearRows()
	p.dest = make([]*Sequence, len(p.level))
	p.dest[0] = s
	return p.intern(s)
}

func (p *pass) intern(s *Sequence) error {
	if err := p.open(s); err != nil {
		return err
	}
	if p.leaf[s] {
		return p.internLeaf(s)
	}
	return p.internParentPartOne(s)
}

func (p *pass) internLeaf(s *Sequence) error {
	i := s.firstRow()
	ok, err := p.readRow(s, i, true)
	if err != nil {
		return err
	}

	if ok && !s.isEndOfRows(i) {
		if parent := p.parentOf(s); parent != nil {
			if err := p.internParentPartTwo(parent); err != nil {
				return err
			}
		}
		dest := p.dest[p.level[s]]

		for ok && !s.isEndOfRows(i) {
			i += s.stride

			row := make(Row, 0, len(s.vars))
			for _, v := range s.vars {
				if !v.SendP() || v.Type() == TypeSequence {
					continue
				}
				row = append(row, v.Clone())
			}
			dest.appendRow(row)
			s.unsent = false

			s.readP = false
			ok, err = p.readRow(s, i, true)
			if err != nil {
				return err
			}
		}
	}

	s.rowNumber = -1
	return nil
}

func (p *pass) internParentPartOne(s *Sequence) error {
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
			if err := p.intern(cs); err != nil {
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
	return nil
}

// internParentPartTwo appends the pending row of s to the destination of its
// level; the nested Sequence in that row becomes the destination of the next
// level.
func (p *pass) internParentPartTwo(s *Sequence) error {
	if parent := p.parentOf(s); parent != nil {
		if err := p.internParentPartTwo(parent); err != nil {
			return err
		}
	}

	if !s.unsent {
		return nil
	}
	level := p.level[s]
	row := make(Row, 0, len(s.vars))
	for _, v := range s.vars {
		if !v.SendP() {
			continue
		}
		if cs, ok := v.(*Sequence); ok {
			nested := cs.cloneShape()
			p.dest[level+1] = nested
			row = append(row, nested)
			continue
		}
		row = append(row, v.Clone())
	}
	p.dest[level].appendRow(row)
	s.unsent = false
	return nil
}
