package schema

import (
	"fmt"
	"math"
	"strings"
)

// ViolationKind classifies a single validation failure.
type ViolationKind string

const (
	// MissingField indicates a required field with no default was absent.
	MissingField ViolationKind = "MissingField"

	// TypeMismatch indicates a field was present with the wrong type.
	TypeMismatch ViolationKind = "TypeMismatch"

	// OutOfRange indicates a field value fell outside its declared
	// numeric bounds or enum literals.
	OutOfRange ViolationKind = "OutOfRange"
)

// Violation describes one validation failure. The Field, Expected and
// Actual values are populated so a client can correct the input without
// a second round-trip.
type Violation struct {
	Kind     ViolationKind `json:"kind"`
	Field    string        `json:"field"`
	Expected string        `json:"expected,omitempty"`
	Actual   string        `json:"actual,omitempty"`
}

func (v Violation) String() string {
	switch v.Kind {
	case MissingField:
		return fmt.Sprintf("missing required field %q", v.Field)
	case TypeMismatch:
		return fmt.Sprintf("field %q: expected %s, got %s", v.Field, v.Expected, v.Actual)
	case OutOfRange:
		return fmt.Sprintf("field %q: value %s outside %s", v.Field, v.Actual, v.Expected)
	default:
		return fmt.Sprintf("field %q: invalid", v.Field)
	}
}

// Validate checks input against the schema. It walks every declared
// field and collects all violations in declaration order rather than
// stopping at the first one. On success it returns a new map holding
// the type-checked input with defaults substituted; the caller's map is
// never mutated. Fields present in the input but not declared in the
// schema pass through untouched.
func Validate(s Schema, input map[string]interface{}) (map[string]interface{}, []Violation) {
	out := make(map[string]interface{}, len(input)+len(s))
	for k, v := range input {
		out[k] = v
	}

	var violations []Violation
	for _, field := range s {
		value, present := input[field.Name]
		if !present {
			if field.Default != nil {
				out[field.Name] = field.Default
				continue
			}
			if field.Required {
				violations = append(violations, Violation{
					Kind:     MissingField,
					Field:    field.Name,
					Expected: string(field.Type),
				})
			}
			continue
		}

		coerced, ok := coerce(field.Type, value)
		if !ok {
			violations = append(violations, Violation{
				Kind:     TypeMismatch,
				Field:    field.Name,
				Expected: string(field.Type),
				Actual:   typeName(value),
			})
			continue
		}
		out[field.Name] = coerced

		if v, bad := checkConstraints(field, coerced); bad {
			violations = append(violations, v)
		}
	}

	if len(violations) > 0 {
		return nil, violations
	}
	return out, nil
}

// coerce checks value against the declared type and returns the value
// in canonical form. JSON decoding delivers all numbers as float64, so
// an int field accepts a float64 with no fractional part.
func coerce(t FieldType, value interface{}) (interface{}, bool) {
	switch t {
	case TypeString:
		s, ok := value.(string)
		return s, ok
	case TypeBool:
		b, ok := value.(bool)
		return b, ok
	case TypeInt:
		switch n := value.(type) {
		case int:
			return n, true
		case int64:
			return int(n), true
		case float64:
			if n == math.Trunc(n) {
				return int(n), true
			}
			return nil, false
		default:
			return nil, false
		}
	case TypeFloat:
		switch n := value.(type) {
		case float64:
			return n, true
		case int:
			return float64(n), true
		default:
			return nil, false
		}
	case TypeObject:
		m, ok := value.(map[string]interface{})
		return m, ok
	case TypeArray:
		a, ok := value.([]interface{})
		return a, ok
	default:
		return nil, false
	}
}

// checkConstraints applies enum and numeric-bound constraints to an
// already type-checked value.
func checkConstraints(field Field, value interface{}) (Violation, bool) {
	if len(field.Enum) > 0 {
		s := value.(string)
		for _, lit := range field.Enum {
			if s == lit {
				return Violation{}, false
			}
		}
		return Violation{
			Kind:     OutOfRange,
			Field:    field.Name,
			Expected: "one of [" + strings.Join(field.Enum, ", ") + "]",
			Actual:   fmt.Sprintf("%q", s),
		}, true
	}

	if field.Minimum == nil && field.Maximum == nil {
		return Violation{}, false
	}

	var n float64
	switch v := value.(type) {
	case int:
		n = float64(v)
	case float64:
		n = v
	default:
		return Violation{}, false
	}

	if (field.Minimum != nil && n < *field.Minimum) || (field.Maximum != nil && n > *field.Maximum) {
		return Violation{
			Kind:     OutOfRange,
			Field:    field.Name,
			Expected: field.Bound(),
			Actual:   fmt.Sprintf("%v", value),
		}, true
	}
	return Violation{}, false
}

// typeName reports the input-side type label used in violations. It
// speaks the client's language (JSON types), not Go's.
func typeName(value interface{}) string {
	switch value.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case bool:
		return "bool"
	case float64, int, int64:
		return "number"
	case map[string]interface{}:
		return "object"
	case []interface{}:
		return "array"
	default:
		return fmt.Sprintf("%T", value)
	}
}
