package catalog

import (
	"fmt"
	"regexp"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/dapseq/internal/dap"
)

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// CompileDataset parses a CUE value into a Dataset.
//
// The value should be the dataset struct itself, e.g.:
//
//	ctx := cuecontext.New()
//	v := ctx.CompileString(`dataset: stations: { ... }`)
//	ds, err := CompileDataset(v.LookupPath(cue.ParsePath("dataset.stations")))
func CompileDataset(v cue.Value) (*Dataset, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	ds := &Dataset{}
	labels := v.Path().Selectors()
	if len(labels) > 0 {
		ds.Name = labels[len(labels)-1].String()
	}

	if descVal := v.LookupPath(cue.ParsePath("description")); descVal.Exists() {
		desc, err := descVal.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		ds.Description = desc
	}

	seqVal := v.LookupPath(cue.ParsePath("sequence"))
	if !seqVal.Exists() {
		return nil, &CompileError{
			Field:   "sequence",
			Message: "sequence is required",
			Pos:     v.Pos(),
		}
	}
	root, err := compileSequence(seqVal, nil)
	if err != nil {
		return nil, err
	}
	ds.Root = *root
	return ds, nil
}

func compileSequence(v cue.Value, parent *SequenceDesc) (*SequenceDesc, error) {
	desc := &SequenceDesc{}
	var err error

	if desc.Name, err = requiredString(v, "name"); err != nil {
		return nil, err
	}
	if !identRe.MatchString(desc.Name) {
		return nil, &CompileError{Field: "name", Message: fmt.Sprintf("invalid sequence name %q", desc.Name), Pos: v.Pos()}
	}
	if desc.Table, err = requiredString(v, "table"); err != nil {
		return nil, err
	}
	if desc.Key, err = optionalString(v, "key"); err != nil {
		return nil, err
	}
	if desc.ParentKey, err = optionalString(v, "parent_key"); err != nil {
		return nil, err
	}
	if desc.OrderBy, err = optionalString(v, "order_by"); err != nil {
		return nil, err
	}

	if desc.Fields, err = compileFields(v); err != nil {
		return nil, err
	}

	if parent != nil {
		if desc.ParentKey == "" {
			return nil, &CompileError{
				Field:   "parent_key",
				Message: fmt.Sprintf("nested sequence %q needs parent_key", desc.Name),
				Pos:     v.Pos(),
			}
		}
		if parent.Key == "" {
			return nil, &CompileError{
				Field:   "key",
				Message: fmt.Sprintf("sequence %q has a child but no key", parent.Name),
				Pos:     v.Pos(),
			}
		}
	}
	if desc.Key != "" && !hasField(desc, desc.Key) {
		return nil, &CompileError{
			Field:   "key",
			Message: fmt.Sprintf("key %q is not a field of %q", desc.Key, desc.Name),
			Pos:     v.LookupPath(cue.ParsePath("key")).Pos(),
		}
	}

	if childVal := v.LookupPath(cue.ParsePath("child")); childVal.Exists() {
		child, err := compileSequence(childVal, desc)
		if err != nil {
			return nil, err
		}
		if hasField(desc, child.Name) {
			return nil, &CompileError{
				Field:   "child",
				Message: fmt.Sprintf("child %q has the name of a field of %q", child.Name, desc.Name),
				Pos:     childVal.Pos(),
			}
		}
		desc.Child = child
	}
	return desc, nil
}

func compileFields(v cue.Value) ([]Field, error) {
	fieldsVal := v.LookupPath(cue.ParsePath("fields"))
	if !fieldsVal.Exists() {
		return nil, &CompileError{Field: "fields", Message: "fields is required", Pos: v.Pos()}
	}
	iter, err := fieldsVal.List()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var fields []Field
	seen := make(map[string]bool)
	for iter.Next() {
		fv := iter.Value()
		f := Field{}
		if f.Name, err = requiredString(fv, "name"); err != nil {
			return nil, err
		}
		if !identRe.MatchString(f.Name) {
			return nil, &CompileError{Field: "name", Message: fmt.Sprintf("invalid field name %q", f.Name), Pos: fv.Pos()}
		}
		if seen[f.Name] {
			return nil, &CompileError{Field: "name", Message: fmt.Sprintf("duplicate field %q", f.Name), Pos: fv.Pos()}
		}
		seen[f.Name] = true

		typeName, err := requiredString(fv, "type")
		if err != nil {
			return nil, err
		}
		t, err := dap.ParseType(typeName)
		if err != nil || !t.IsScalar() {
			return nil, &CompileError{
				Field:   "type",
				Message: fmt.Sprintf("field %q: unsupported type %q", f.Name, typeName),
				Pos:     fv.LookupPath(cue.ParsePath("type")).Pos(),
			}
		}
		f.Type = t

		if f.Column, err = optionalString(fv, "column"); err != nil {
			return nil, err
		}
		if f.Column == "" {
			f.Column = f.Name
		}
		fields = append(fields, f)
	}
	if len(fields) == 0 {
		return nil, &CompileError{Field: "fields", Message: "at least one field is required", Pos: fieldsVal.Pos()}
	}
	return fields, nil
}

func hasField(desc *SequenceDesc, name string) bool {
	for _, f := range desc.Fields {
		if f.Name == name {
			return true
		}
	}
	return false
}

func requiredString(v cue.Value, field string) (string, error) {
	fv := v.LookupPath(cue.ParsePath(field))
	if !fv.Exists() {
		return "", &CompileError{Field: field, Message: field + " is required", Pos: v.Pos()}
	}
	s, err := fv.String()
	if err != nil {
		return "", formatCUEError(err)
	}
	return s, nil
}

func optionalString(v cue.Value, field string) (string, error) {
	fv := v.LookupPath(cue.ParsePath(field))
	if !fv.Exists() {
		return "", nil
	}
	s, err := fv.String()
	if err != nil {
		return "", formatCUEError(err)
	}
	return s, nil
}

// CompileError is a descriptor error with its CUE source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}
	first := errs[0]
	if positions := errors.Positions(first); len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: first.Error(),
			Pos:     positions[0],
		}
	}
	return err
}
