package dap

import (
	"fmt"
	"strings"
)

// Type tags a Variable with its wire type.
type Type int

const (
	TypeByte Type = iota + 1
	TypeInt16
	TypeUInt16
	TypeInt32
	TypeUInt32
	TypeFloat32
	TypeFloat64
	TypeString
	TypeURL
	TypeOpaque
	TypeSequence
)

var typeNames = map[Type]string{
	TypeByte:     "Byte",
	TypeInt16:    "Int16",
	TypeUInt16:   "UInt16",
	TypeInt32:    "Int32",
	TypeUInt32:   "UInt32",
	TypeFloat32:  "Float32",
	TypeFloat64:  "Float64",
	TypeString:   "String",
	TypeURL:      "Url",
	TypeOpaque:   "Opaque",
	TypeSequence: "Sequence",
}

// String returns the declaration name of the type (e.g. "Int32").
func (t Type) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("Type(%d)", int(t))
}

// IsScalar reports whether values of t are leaves of the value tree.
func (t Type) IsScalar() bool {
	return t >= TypeByte && t <= TypeOpaque
}

// ParseType maps a type name to a Type. Matching is case-insensitive so that
// descriptors may use either "int32" or "Int32".
func ParseType(name string) (Type, error) {
	want := strings.ToLower(strings.TrimSpace(name))
	for t, n := range typeNames {
		if strings.ToLower(n) == want {
			return t, nil
		}
	}
	if want == "url" {
		return TypeURL, nil
	}
	return 0, fmt.Errorf("unknown type %q", name)
}
