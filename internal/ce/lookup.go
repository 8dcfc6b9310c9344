package ce

import (
	"strings"

	"github.com/roach88/dapseq/internal/dap"
)

// Lookup finds the variable named by a dotted path below top. The path may
// start with the name of top itself.
func Lookup(top *dap.Sequence, path string) (dap.Variable, error) {
	parts := strings.Split(path, ".")
	if len(parts) > 0 && parts[0] == top.Name() {
		if len(parts) == 1 {
			return top, nil
		}
		if v := descend(top, parts[1:]); v != nil {
			return v, nil
		}
	}
	if v := descend(top, parts); v != nil {
		return v, nil
	}
	return nil, malformed(top.Name(), "no field %q", path)
}

// descend follows parts through nested sequences starting at s.
func descend(s *dap.Sequence, parts []string) dap.Variable {
	v := s.Var(parts[0])
	if v == nil {
		return nil
	}
	if len(parts) == 1 {
		return v
	}
	child, ok := v.(*dap.Sequence)
	if !ok {
		return nil
	}
	return descend(child, parts[1:])
}

// resolve finds path relative to s or any of its ancestors, nearest first.
// Only fields owned by s or one of its ancestors are in scope; a path into a
// nested sequence below s resolves to nil.
func resolve(s *dap.Sequence, path string) dap.Variable {
	parts := strings.Split(path, ".")
	for seq := s; seq != nil; seq = seq.Parent() {
		if parts[0] == seq.Name() && len(parts) > 1 {
			if v := descend(seq, parts[1:]); v != nil && inScope(s, v) {
				return v
			}
		}
		if v := descend(seq, parts); v != nil && inScope(s, v) {
			return v
		}
	}
	return nil
}

func inScope(s *dap.Sequence, v dap.Variable) bool {
	owner := v.Parent()
	for seq := s; seq != nil; seq = seq.Parent() {
		if owner == seq {
			return true
		}
	}
	return false
}

// leafOf follows selected nested sequences down from top and returns the
// deepest one. Selection clauses are evaluated there.
func leafOf(top *dap.Sequence) *dap.Sequence {
	s := top
	for {
		var next *dap.Sequence
		for _, v := range s.Vars() {
			if cs, ok := v.(*dap.Sequence); ok && cs.SendP() {
				next = cs
				break
			}
		}
		if next == nil {
			return s
		}
		s = next
	}
}
