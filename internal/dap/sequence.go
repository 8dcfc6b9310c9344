package dap

import (
	"fmt"
	"io"
	"strings"
)

// Unbounded is the stop row of a row-range constraint with no upper limit.
const Unbounded = -1

// Row is one materialized instance of a Sequence: one Variable per field that
// was selected for transmission, in declared order.
type Row []Variable

// Sequence is the row-oriented constructor type.
//
// The field list is the declared shape; it is fixed while a transmission is
// running. Rows are produced one at a time by the RowReader during a
// transmission, or held in the row buffer after InternData or Deserialize.
type Sequence struct {
	base

	vars   []Variable
	values []Row
	reader RowReader

	// Row counter of the current pass; -1 before the first row.
	rowNumber int

	// Bracket row-range constraint. start is -1 when unconstrained and stop
	// is Unbounded when there is no upper limit.
	start  int
	stride int
	stop   int

	// unsent is set once a row has been read and cleared once it is written.
	unsent bool
	// wroteSOI records whether this pass wrote at least one SOI at this level.
	wroteSOI bool
}

// NewSequence creates an empty Sequence with no fields.
func NewSequence(name string) *Sequence {
	return &Sequence{
		base:      base{name: name, typ: TypeSequence},
		rowNumber: -1,
		start:     -1,
		stride:    1,
		stop:      Unbounded,
	}
}

// AddVar appends a field. A nested Sequence is only accepted as the last
// field, and only one nested Sequence is allowed per level.
func (s *Sequence) AddVar(v Variable) error {
	if v == nil {
		return fmt.Errorf("sequence %s: nil field", s.name)
	}
	if s.Var(v.Name()) != nil {
		return newError(CodeShape, Path(s), fmt.Sprintf("duplicate field %q", v.Name()), nil)
	}
	if n := len(s.vars); n > 0 && s.vars[n-1].Type() == TypeSequence {
		return newError(CodeShape, Path(s),
			fmt.Sprintf("field %q follows nested sequence %q; a nested sequence must be the last field",
				v.Name(), s.vars[n-1].Name()), nil)
	}
	v.setParent(s)
	s.vars = append(s.vars, v)
	return nil
}

// AddVars appends fields in order, stopping at the first error.
func (s *Sequence) AddVars(vs ...Variable) error {
	for _, v := range vs {
		if err := s.AddVar(v); err != nil {
			return err
		}
	}
	return nil
}

// Var returns the field named name, or nil.
func (s *Sequence) Var(name string) Variable {
	for _, v := range s.vars {
		if v.Name() == name {
			return v
		}
	}
	return nil
}

// Vars returns the declared fields. The slice must not be modified.
func (s *Sequence) Vars() []Variable {
	return s.vars
}

// Child returns the nested Sequence field, or nil.
func (s *Sequence) Child() *Sequence {
	for _, v := range s.vars {
		if cs, ok := v.(*Sequence); ok {
			return cs
		}
	}
	return nil
}

// SetReader installs the row source used during transmission.
func (s *Sequence) SetReader(r RowReader) {
	s.reader = r
}

// Reader returns the row source, or nil.
func (s *Sequence) Reader() RowReader {
	return s.reader
}

// SetRowRange constrains the rows considered by the next transmission to
// start, start+stride, ... up to and including stop. Pass Unbounded as stop
// for no upper limit.
func (s *Sequence) SetRowRange(start, stride, stop int) error {
	switch {
	case start < 0:
		return newError(CodeMalformedConstraint, Path(s), fmt.Sprintf("starting row %d is negative", start), nil)
	case stride < 1:
		return newError(CodeMalformedConstraint, Path(s), fmt.Sprintf("row stride %d is less than one", stride), nil)
	case stop != Unbounded && stop < start:
		return newError(CodeMalformedConstraint, Path(s),
			fmt.Sprintf("starting row %d must precede the ending row %d", start, stop), nil)
	}
	s.start = start
	s.stride = stride
	s.stop = stop
	return nil
}

// ClearRowRange removes any row-range constraint.
func (s *Sequence) ClearRowRange() {
	s.start = -1
	s.stride = 1
	s.stop = Unbounded
}

// RowRange returns the constraint; start is -1 when unconstrained.
func (s *Sequence) RowRange() (start, stride, stop int) {
	return s.start, s.stride, s.stop
}

// RowNumber returns the row counter of the current pass (-1 before the
// first row has been read).
func (s *Sequence) RowNumber() int {
	return s.rowNumber
}

// ResetRowNumber resets the row counter and pending-row state, optionally
// for every nested Sequence too.
func (s *Sequence) ResetRowNumber(recursive bool) {
	s.rowNumber = -1
	s.unsent = false
	s.wroteSOI = false
	s.readP = false
	if !recursive {
		return
	}
	if child := s.Child(); child != nil {
		child.ResetRowNumber(true)
	}
}

// NumRows returns the number of rows in the row buffer.
func (s *Sequence) NumRows() int {
	return len(s.values)
}

// RowValue returns row i of the row buffer, or nil.
func (s *Sequence) RowValue(i int) Row {
	if i < 0 || i >= len(s.values) {
		return nil
	}
	return s.values[i]
}

// VarValue returns the variable named name in row i, or nil.
func (s *Sequence) VarValue(i int, name string) Variable {
	for _, v := range s.RowValue(i) {
		if v.Name() == name {
			return v
		}
	}
	return nil
}

// VarValueAt returns the j-th variable of row i, or nil.
func (s *Sequence) VarValueAt(i, j int) Variable {
	row := s.RowValue(i)
	if j < 0 || j >= len(row) {
		return nil
	}
	return row[j]
}

// ClearRows empties the row buffer.
func (s *Sequence) ClearRows() {
	s.values = nil
}

func (s *Sequence) appendRow(row Row) {
	for _, v := range row {
		v.setParent(s)
	}
	s.values = append(s.values, row)
}

// Clone deep-copies the shape, the row-range constraint and the row buffer.
// The clone shares the RowReader and has no parent.
func (s *Sequence) Clone() Variable {
	c := s.cloneShape()
	for _, row := range s.values {
		cr := make(Row, len(row))
		for i, v := range row {
			cr[i] = v.Clone()
		}
		c.appendRow(cr)
	}
	return c
}

// cloneShape copies the declared fields without any rows.
func (s *Sequence) cloneShape() *Sequence {
	c := NewSequence(s.name)
	c.sendP = s.sendP
	c.readP = s.readP
	c.start, c.stride, c.stop = s.start, s.stride, s.stop
	c.reader = s.reader
	for _, v := range s.vars {
		var cv Variable
		if cs, ok := v.(*Sequence); ok {
			cv = cs.cloneShape()
		} else {
			cv = v.Clone()
		}
		cv.setParent(c)
		c.vars = append(c.vars, cv)
	}
	return c
}

// Projected returns a shape-only copy of s that keeps only the fields
// selected for transmission. It is the shape a client needs to decode a
// constrained response.
func Projected(s *Sequence) *Sequence {
	c := NewSequence(s.name)
	c.sendP = true
	for _, v := range s.vars {
		if !v.SendP() {
			continue
		}
		var cv Variable
		if cs, ok := v.(*Sequence); ok {
			cv = Projected(cs)
		} else {
			cv = v.Clone()
		}
		cv.setParent(c)
		c.vars = append(c.vars, cv)
	}
	return c
}

// SetRowValues loads one raw row into the non-Sequence fields of s, in
// declared order. It is the usual way for a RowReader to implement Next.
func SetRowValues(s *Sequence, vals []any) error {
	i := 0
	for _, v := range s.vars {
		sc, ok := v.(*Scalar)
		if !ok {
			continue
		}
		if i >= len(vals) {
			return fmt.Errorf("sequence %s: row has %d values, field %q has none", s.name, len(vals), sc.Name())
		}
		if err := sc.SetValue(vals[i]); err != nil {
			return err
		}
		i++
	}
	if i != len(vals) {
		return fmt.Errorf("sequence %s: row has %d values for %d fields", s.name, len(vals), i)
	}
	return nil
}

// Encode writes the row buffer with the Sequence framing: SOI before every
// row, EOS at the end.
func (s *Sequence) Encode(m Marshaller) error {
	for _, row := range s.values {
		if err := writeMarker(m, StartOfInstance); err != nil {
			return err
		}
		for _, v := range row {
			if err := v.Encode(m); err != nil {
				return err
			}
		}
	}
	return writeMarker(m, EndOfSequence)
}

// Decode reads a framed Sequence value into the row buffer.
func (s *Sequence) Decode(um UnMarshaller) error {
	return s.Deserialize(um)
}

// Print writes the row buffer as { { v, v }, { v, v } }.
func (s *Sequence) Print(w io.Writer) error {
	if _, err := io.WriteString(w, "{ "); err != nil {
		return err
	}
	for i, row := range s.values {
		if i > 0 {
			if _, err := io.WriteString(w, ", "); err != nil {
				return err
			}
		}
		if err := printRow(w, row); err != nil {
			return err
		}
	}
	_, err := io.WriteString(w, " }")
	return err
}

func printRow(w io.Writer, row Row) error {
	if _, err := io.WriteString(w, "{ "); err != nil {
		return err
	}
	for i, v := range row {
		if i > 0 {
			if _, err := io.WriteString(w, ", "); err != nil {
				return err
			}
		}
		if err := v.Print(w); err != nil {
			return err
		}
	}
	_, err := io.WriteString(w, " }")
	return err
}

// PrintValByRows writes one row per line, optionally prefixed with its row
// number. Nested sequences are printed inline.
func (s *Sequence) PrintValByRows(w io.Writer, rowNumbers bool) error {
	for i, row := range s.values {
		if rowNumbers {
			if _, err := fmt.Fprintf(w, "%d: ", i); err != nil {
				return err
			}
		}
		if err := printRow(w, row); err != nil {
			return err
		}
		if _, err := io.WriteString(w, "\n"); err != nil {
			return err
		}
	}
	return nil
}

// Decl returns the declaration of v in DAP text form, e.g.
//
//	Sequence {
//	    Int32 id;
//	} stations;
func Decl(v Variable) string {
	var b strings.Builder
	writeDecl(&b, v, "")
	return b.String()
}

func writeDecl(b *strings.Builder, v Variable, indent string) {
	s, ok := v.(*Sequence)
	if !ok {
		fmt.Fprintf(b, "%s%s %s;\n", indent, v.Type(), v.Name())
		return
	}
	fmt.Fprintf(b, "%sSequence {\n", indent)
	for _, f := range s.vars {
		writeDecl(b, f, indent+"    ")
	}
	fmt.Fprintf(b, "%s} %s;\n", indent, s.name)
}

// Dump writes diagnostic state: row counter and bracket constraint.
func (s *Sequence) Dump(w io.Writer) error {
	_, err := fmt.Fprintf(w, "Sequence %s: rows buffered: %d, row number: %d, starting row: %d, row stride: %d, ending row: %d\n",
		Path(s), len(s.values), s.rowNumber, s.start, s.stride, s.stop)
	return err
}
