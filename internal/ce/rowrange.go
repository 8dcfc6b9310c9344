package ce

import (
	"fmt"
	"regexp"
	"strconv"

	"github.com/roach88/dapseq/internal/dap"
)

// RowRange is a bracket row constraint on one sequence.
type RowRange struct {
	Path   string
	Start  int
	Stride int
	Stop   int // dap.Unbounded for no upper limit
}

var rowRangeRe = regexp.MustCompile(`^\s*([A-Za-z_][A-Za-z0-9_.]*)?\s*\[\s*(\d+)\s*(?::\s*(\d+|\*)?\s*)?(?::\s*(\d+|\*)\s*)?\]\s*$`)

// ParseRowRange parses path[start], path[start:stop] or
// path[start:stride:stop]. A stop of * means no upper limit. An empty path
// refers to the top-level sequence.
func ParseRowRange(s string) (RowRange, error) {
	m := rowRangeRe.FindStringSubmatch(s)
	if m == nil {
		return RowRange{}, malformed("", "cannot parse row range %q", s)
	}
	r := RowRange{Path: m[1], Stride: 1}
	start, err := strconv.Atoi(m[2])
	if err != nil {
		return RowRange{}, malformed(r.Path, "bad start row %q", m[2])
	}
	r.Start = start
	r.Stop = start

	bound := func(s string) (int, error) {
		if s == "*" {
			return dap.Unbounded, nil
		}
		return strconv.Atoi(s)
	}
	switch {
	case m[4] != "":
		if m[3] == "" || m[3] == "*" {
			return RowRange{}, malformed(r.Path, "bad stride in %q", s)
		}
		if r.Stride, err = strconv.Atoi(m[3]); err != nil {
			return RowRange{}, malformed(r.Path, "bad stride %q", m[3])
		}
		if r.Stop, err = bound(m[4]); err != nil {
			return RowRange{}, malformed(r.Path, "bad stop %q", m[4])
		}
	case m[3] != "":
		if r.Stop, err = bound(m[3]); err != nil {
			return RowRange{}, malformed(r.Path, "bad stop %q", m[3])
		}
	}
	return r, nil
}

// String renders the range as path[start:stride:stop].
func (r RowRange) String() string {
	stop := "*"
	if r.Stop != dap.Unbounded {
		stop = strconv.Itoa(r.Stop)
	}
	return fmt.Sprintf("%s[%d:%d:%s]", r.Path, r.Start, r.Stride, stop)
}

// Apply sets the range on the sequence it names.
func (r RowRange) Apply(top *dap.Sequence) error {
	target := top
	if r.Path != "" {
		v, err := Lookup(top, r.Path)
		if err != nil {
			return err
		}
		s, ok := v.(*dap.Sequence)
		if !ok {
			return malformed(r.Path, "row range on %s field %q", v.Type(), r.Path)
		}
		target = s
	}
	return target.SetRowRange(r.Start, r.Stride, r.Stop)
}
