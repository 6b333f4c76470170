// Package schema defines the parameter contract attached to tools and
// prompts, and validates call input against it. A schema is an ordered
// list of fields; the order is stable and determines the order in which
// violations are reported.
package schema

import "fmt"

// FieldType identifies the declared type of a schema field.
type FieldType string

const (
	TypeString FieldType = "string"
	TypeInt    FieldType = "int"
	TypeFloat  FieldType = "float"
	TypeBool   FieldType = "bool"
	TypeObject FieldType = "object"
	TypeArray  FieldType = "array"
)

// Field declares a single named parameter.
type Field struct {
	Name        string    `json:"name"`
	Type        FieldType `json:"type"`
	Description string    `json:"description,omitempty"`
	Required    bool      `json:"required"`

	// Default is substituted when an optional field is absent from the
	// input. A required field never has a default applied.
	Default interface{} `json:"default,omitempty"`

	// Enum restricts a string field to a fixed set of literals.
	Enum []string `json:"enum,omitempty"`

	// Minimum and Maximum bound a numeric field (inclusive).
	Minimum *float64 `json:"minimum,omitempty"`
	Maximum *float64 `json:"maximum,omitempty"`
}

// Schema is an ordered set of field declarations.
type Schema []Field

// Field returns the declaration for name, if present.
func (s Schema) Field(name string) (Field, bool) {
	for _, f := range s {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// String creates a required string field.
func String(name, description string) Field {
	return Field{Name: name, Type: TypeString, Description: description, Required: true}
}

// StringDefault creates an optional string field with a default value.
func StringDefault(name, description, def string) Field {
	return Field{Name: name, Type: TypeString, Description: description, Default: def}
}

// StringOptional creates an optional string field with no default.
func StringOptional(name, description string) Field {
	return Field{Name: name, Type: TypeString, Description: description}
}

// Enum creates an optional string field restricted to the given
// literals, defaulting to the first one.
func Enum(name, description string, values ...string) Field {
	f := Field{Name: name, Type: TypeString, Description: description, Enum: values}
	if len(values) > 0 {
		f.Default = values[0]
	}
	return f
}

// IntRange creates an optional int field bounded to [min, max] with a
// default value.
func IntRange(name, description string, min, max, def int) Field {
	lo, hi := float64(min), float64(max)
	return Field{
		Name:        name,
		Type:        TypeInt,
		Description: description,
		Default:     def,
		Minimum:     &lo,
		Maximum:     &hi,
	}
}

// Bound renders a field's numeric bound for violation messages.
func (f Field) Bound() string {
	switch {
	case f.Minimum != nil && f.Maximum != nil:
		return fmt.Sprintf("[%v, %v]", *f.Minimum, *f.Maximum)
	case f.Minimum != nil:
		return fmt.Sprintf(">= %v", *f.Minimum)
	case f.Maximum != nil:
		return fmt.Sprintf("<= %v", *f.Maximum)
	default:
		return ""
	}
}
