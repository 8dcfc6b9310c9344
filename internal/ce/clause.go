package ce

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/roach88/dapseq/internal/dap"
)

// Op is a relational operator of a selection clause.
type Op string

const (
	OpEq    Op = "="
	OpNe    Op = "!="
	OpLt    Op = "<"
	OpLe    Op = "<="
	OpGt    Op = ">"
	OpGe    Op = ">="
	OpMatch Op = "=~"
)

var validOps = map[Op]bool{
	OpEq: true, OpNe: true, OpLt: true, OpLe: true, OpGt: true, OpGe: true, OpMatch: true,
}

// Clause compares one field of the current row with a literal.
type Clause struct {
	Path  string
	Op    Op
	Value any // string or float64

	re *regexp.Regexp
}

// NewClause validates and builds a clause. Numeric literals of any Go
// numeric type are stored as float64. OpMatch requires a string literal,
// which is compiled as a regular expression.
func NewClause(path string, op Op, value any) (Clause, error) {
	if path == "" {
		return Clause{}, malformed("", "clause has no field")
	}
	if !validOps[op] {
		return Clause{}, malformed(path, "unknown operator %q", op)
	}
	c := Clause{Path: path, Op: op}
	switch v := value.(type) {
	case string:
		c.Value = v
	case float64:
		c.Value = v
	case float32:
		c.Value = float64(v)
	case int:
		c.Value = float64(v)
	case int32:
		c.Value = float64(v)
	case int64:
		c.Value = float64(v)
	case uint32:
		c.Value = float64(v)
	default:
		return Clause{}, malformed(path, "unsupported literal %T", value)
	}
	if op == OpMatch {
		pattern, ok := c.Value.(string)
		if !ok {
			return Clause{}, malformed(path, "operator =~ needs a string pattern")
		}
		re, err := regexp.Compile(pattern)
		if err != nil {
			return Clause{}, malformed(path, "bad pattern %q: %v", pattern, err)
		}
		c.re = re
	}
	return c, nil
}

var clauseRe = regexp.MustCompile(`^\s*([A-Za-z_][A-Za-z0-9_.]*)\s*(=~|!=|<=|>=|=|<|>)\s*(.+?)\s*$`)

// ParseClause parses "field op literal". The literal is a double-quoted
// string, a number, or a bare word taken as a string.
func ParseClause(s string) (Clause, error) {
	m := clauseRe.FindStringSubmatch(s)
	if m == nil {
		return Clause{}, malformed("", "cannot parse clause %q", s)
	}
	path, op, lit := m[1], Op(m[2]), m[3]

	var value any
	switch {
	case strings.HasPrefix(lit, `"`):
		str, err := strconv.Unquote(lit)
		if err != nil {
			return Clause{}, malformed(path, "bad string literal %s", lit)
		}
		value = str
	default:
		if f, err := strconv.ParseFloat(lit, 64); err == nil && op != OpMatch {
			value = f
		} else {
			value = lit
		}
	}
	return NewClause(path, op, value)
}

// String renders the clause in the form ParseClause reads.
func (c Clause) String() string {
	switch v := c.Value.(type) {
	case string:
		return fmt.Sprintf("%s%s%s", c.Path, c.Op, strconv.Quote(v))
	case float64:
		return fmt.Sprintf("%s%s%s", c.Path, c.Op, strconv.FormatFloat(v, 'g', -1, 64))
	default:
		return fmt.Sprintf("%s%s%v", c.Path, c.Op, v)
	}
}

// eval tests the clause against the current value of sc.
func (c Clause) eval(sc *dap.Scalar) (bool, error) {
	switch field := sc.Value().(type) {
	case string:
		lit, ok := c.Value.(string)
		if !ok {
			return false, malformed(c.Path, "string field compared with number %v", c.Value)
		}
		if c.Op == OpMatch {
			return c.re.MatchString(field), nil
		}
		return compare(strings.Compare(field, lit), c.Op), nil
	case []byte:
		return false, malformed(c.Path, "opaque fields cannot be compared")
	default:
		f, ok := asFloat(field)
		if !ok {
			return false, malformed(c.Path, "unsupported field value %T", field)
		}
		lit, ok := c.Value.(float64)
		if !ok || c.Op == OpMatch {
			return false, malformed(c.Path, "numeric field compared with %v using %s", c.Value, c.Op)
		}
		switch {
		case f < lit:
			return compare(-1, c.Op), nil
		case f > lit:
			return compare(1, c.Op), nil
		default:
			return compare(0, c.Op), nil
		}
	}
}

func compare(cmp int, op Op) bool {
	switch op {
	case OpEq:
		return cmp == 0
	case OpNe:
		return cmp != 0
	case OpLt:
		return cmp < 0
	case OpLe:
		return cmp <= 0
	case OpGt:
		return cmp > 0
	case OpGe:
		return cmp >= 0
	}
	return false
}

func asFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case uint8:
		return float64(x), true
	case int16:
		return float64(x), true
	case uint16:
		return float64(x), true
	case int32:
		return float64(x), true
	case uint32:
		return float64(x), true
	case float32:
		return float64(x), true
	case float64:
		return x, true
	}
	return 0, false
}
