package ce

import (
	"strings"

	"github.com/roach88/dapseq/internal/dap"
)

// Constraint is a parsed request constraint.
type Constraint struct {
	Projection []string
	Clauses    []Clause
	Ranges     []RowRange
}

// Parse builds a Constraint from its textual parts: projection paths,
// clauses in the form accepted by ParseClause, and row ranges in the form
// accepted by ParseRowRange.
func Parse(projection, clauses, ranges []string) (Constraint, error) {
	c := Constraint{}
	for _, p := range projection {
		if p = strings.TrimSpace(p); p != "" {
			c.Projection = append(c.Projection, p)
		}
	}
	for _, s := range clauses {
		cl, err := ParseClause(s)
		if err != nil {
			return Constraint{}, err
		}
		c.Clauses = append(c.Clauses, cl)
	}
	for _, s := range ranges {
		r, err := ParseRowRange(s)
		if err != nil {
			return Constraint{}, err
		}
		c.Ranges = append(c.Ranges, r)
	}
	return c, nil
}

// Apply resets any previous constraint on the tree, then applies the
// projection and row ranges. It returns the selector for the clauses, or nil
// when there are none.
func (c Constraint) Apply(top *dap.Sequence) (dap.Selector, error) {
	if err := dap.Walk(top, func(v dap.Variable) error {
		if s, ok := v.(*dap.Sequence); ok {
			s.ClearRowRange()
		}
		return nil
	}); err != nil {
		return nil, err
	}
	top.ResetRowNumber(true)

	if err := Project(top, c.Projection...); err != nil {
		return nil, err
	}
	for _, r := range c.Ranges {
		if err := r.Apply(top); err != nil {
			return nil, err
		}
	}
	leaf := leafOf(top)
	for _, cl := range c.Clauses {
		v := resolve(leaf, cl.Path)
		if v == nil {
			return nil, malformed(dap.Path(leaf), "no field %q in scope", cl.Path)
		}
		if _, ok := v.(*dap.Scalar); !ok {
			return nil, malformed(dap.Path(leaf), "field %q is a %s, not a scalar", cl.Path, v.Type())
		}
	}
	if len(c.Clauses) == 0 {
		return nil, nil
	}
	return NewEvaluator(c.Clauses...), nil
}
