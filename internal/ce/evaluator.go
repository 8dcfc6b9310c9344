package ce

import (
	"context"

	"github.com/roach88/dapseq/internal/dap"
)

// Evaluator is a dap.Selector that accepts a row when every clause holds.
type Evaluator struct {
	clauses []Clause
}

var _ dap.Selector = (*Evaluator)(nil)

// NewEvaluator returns an Evaluator over clauses. With no clauses every row
// is accepted.
func NewEvaluator(clauses ...Clause) *Evaluator {
	return &Evaluator{clauses: append([]Clause(nil), clauses...)}
}

// Select evaluates the clauses against the current row of s. Field paths are
// resolved in s and then in its enclosing sequences.
func (e *Evaluator) Select(_ context.Context, s *dap.Sequence) (bool, error) {
	for _, c := range e.clauses {
		v := resolve(s, c.Path)
		if v == nil {
			return false, malformed(dap.Path(s), "no field %q in scope", c.Path)
		}
		sc, ok := v.(*dap.Scalar)
		if !ok {
			return false, malformed(dap.Path(s), "field %q is a %s, not a scalar", c.Path, v.Type())
		}
		ok, err := c.eval(sc)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}
