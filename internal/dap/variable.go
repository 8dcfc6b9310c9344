package dap

import (
	"io"
	"strings"
	"weak"
)

// Variable is a named, typed node of the value tree.
type Variable interface {
	Name() string
	Type() Type

	// SendP reports whether the variable is selected for the current
	// transmission.
	SendP() bool
	SetSendP(bool)

	// ReadP reports whether the variable's value has been materialized.
	ReadP() bool
	SetReadP(bool)

	// Parent returns the Sequence that owns this variable, or nil.
	Parent() *Sequence

	// Clone returns a deep copy detached from any parent.
	Clone() Variable

	// Encode writes the current value with m.
	Encode(m Marshaller) error

	// Decode reads a value with um and stores it.
	Decode(um UnMarshaller) error

	// Print writes the value in text form.
	Print(w io.Writer) error

	setParent(*Sequence)
}

// base carries the state common to every Variable.
type base struct {
	name   string
	typ    Type
	sendP  bool
	readP  bool
	parent weak.Pointer[Sequence]
}

func (b *base) Name() string       { return b.name }
func (b *base) Type() Type         { return b.typ }
func (b *base) SendP() bool        { return b.sendP }
func (b *base) SetSendP(send bool) { b.sendP = send }
func (b *base) ReadP() bool        { return b.readP }
func (b *base) SetReadP(read bool) { b.readP = read }

func (b *base) Parent() *Sequence {
	return b.parent.Value()
}

func (b *base) setParent(s *Sequence) {
	if s == nil {
		b.parent = weak.Pointer[Sequence]{}
		return
	}
	b.parent = weak.Make(s)
}

// Path returns the dotted path of v from the root of its tree,
// e.g. "stations.casts.depth".
func Path(v Variable) string {
	parts := []string{v.Name()}
	for p := v.Parent(); p != nil; p = p.Parent() {
		parts = append(parts, p.Name())
	}
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	return strings.Join(parts, ".")
}

// Walk calls fn for v and, depth first in declared order, for every field of
// every Sequence below it. Walk stops at the first error.
func Walk(v Variable, fn func(Variable) error) error {
	if err := fn(v); err != nil {
		return err
	}
	s, ok := v.(*Sequence)
	if !ok {
		return nil
	}
	for _, child := range s.vars {
		if err := Walk(child, fn); err != nil {
			return err
		}
	}
	return nil
}
