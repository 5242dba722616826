// Copyright (C) 2025 Dyne.org foundation
// designed, written and maintained by Denis Roio <jaromil@dyne.org>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package tools

import (
	"fmt"
	"math"
	"slices"
	"sort"
	"strings"
)

// FieldType is the primitive type of a tool parameter.
type FieldType string

const (
	TypeString  FieldType = "string"
	TypeNumber  FieldType = "number"
	TypeInteger FieldType = "integer"
	TypeBoolean FieldType = "boolean"
)

// Field declares one tool parameter.
type Field struct {
	Name        string
	Type        FieldType
	Description string
	Required    bool
	// Enum restricts string values.
	Enum []string
	// Min and Max bound numeric values, inclusive.
	Min *float64
	Max *float64
	// Default is used when the field is omitted. It must itself be valid.
	Default any
}

// Schema is the declarative parameter shape of a tool.
type Schema struct {
	Fields []Field
}

// Object builds a schema from fields, keeping their order.
func Object(fields ...Field) Schema {
	return Schema{Fields: fields}
}

// Bound returns pointers suitable for Field.Min and Field.Max.
func Bound(min, max float64) (*float64, *float64) {
	return &min, &max
}

// Args holds validated tool arguments. Numbers are always float64.
type Args map[string]any

// String returns the string value of key, or "".
func (a Args) String(key string) string {
	s, _ := a[key].(string)
	return s
}

// Bool returns the boolean value of key, or false.
func (a Args) Bool(key string) bool {
	b, _ := a[key].(bool)
	return b
}

// Float returns the numeric value of key, or 0.
func (a Args) Float(key string) float64 {
	f, _ := a[key].(float64)
	return f
}

// Has reports whether key is present.
func (a Args) Has(key string) bool {
	_, ok := a[key]
	return ok
}

// ValidationError lists every problem found in a set of arguments.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return strings.Join(e.Problems, "; ")
}

// Is reports whether target is ErrInvalidArguments.
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidArguments
}

// Validate checks raw against the schema and returns a fresh argument map
// with defaults applied. Unknown fields, nulls and values of the wrong type
// are rejected rather than coerced.
func (s Schema) Validate(raw map[string]any) (Args, error) {
	var problems []string
	out := make(Args, len(s.Fields))

	known := make(map[string]struct{}, len(s.Fields))
	for _, f := range s.Fields {
		known[f.Name] = struct{}{}
	}
	var unknown []string
	for key := range raw {
		if _, ok := known[key]; !ok {
			unknown = append(unknown, key)
		}
	}
	sort.Strings(unknown)
	for _, key := range unknown {
		problems = append(problems, fmt.Sprintf("unknown field %q", key))
	}

	for _, f := range s.Fields {
		value, present := raw[f.Name]
		if !present {
			switch {
			case f.Default != nil:
				// Defaults are checked when the catalog is built.
				out[f.Name], _ = f.check(f.Default)
			case f.Required:
				problems = append(problems, fmt.Sprintf("missing required field %q", f.Name))
			}
			continue
		}
		normalized, err := f.check(value)
		if err != nil {
			problems = append(problems, err.Error())
			continue
		}
		out[f.Name] = normalized
	}

	if len(problems) > 0 {
		return nil, &ValidationError{Problems: problems}
	}
	return out, nil
}

func (f Field) check(value any) (any, error) {
	if value == nil {
		return nil, fmt.Errorf("field %q must be a %s, got null", f.Name, f.Type)
	}

	switch f.Type {
	case TypeString:
		s, ok := value.(string)
		if !ok {
			return nil, fmt.Errorf("field %q must be a string, got %s", f.Name, describeType(value))
		}
		if len(f.Enum) > 0 && !slices.Contains(f.Enum, s) {
			return nil, fmt.Errorf("field %q must be one of %s, got %q", f.Name, strings.Join(f.Enum, ", "), s)
		}
		return s, nil

	case TypeBoolean:
		b, ok := value.(bool)
		if !ok {
			return nil, fmt.Errorf("field %q must be a boolean, got %s", f.Name, describeType(value))
		}
		return b, nil

	case TypeNumber, TypeInteger:
		n, ok := toFloat(value)
		if !ok {
			return nil, fmt.Errorf("field %q must be a number, got %s", f.Name, describeType(value))
		}
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return nil, fmt.Errorf("field %q must be a finite number", f.Name)
		}
		if f.Type == TypeInteger && n != math.Trunc(n) {
			return nil, fmt.Errorf("field %q must be an integer, got %v", f.Name, n)
		}
		if f.Min != nil && n < *f.Min {
			return nil, fmt.Errorf("field %q must be >= %v, got %v", f.Name, *f.Min, n)
		}
		if f.Max != nil && n > *f.Max {
			return nil, fmt.Errorf("field %q must be <= %v, got %v", f.Name, *f.Max, n)
		}
		return n, nil
	}

	return nil, fmt.Errorf("field %q has unsupported schema type %q", f.Name, f.Type)
}

// toFloat accepts the numeric representations JSON decoding and Go callers
// produce. Strings are not numbers.
func toFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint:
		return float64(v), true
	case uint32:
		return float64(v), true
	case uint64:
		return float64(v), true
	}
	return 0, false
}

func describeType(value any) string {
	switch value.(type) {
	case string:
		return "string"
	case bool:
		return "boolean"
	case float64, float32, int, int32, int64, uint, uint32, uint64:
		return "number"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	}
	return fmt.Sprintf("%T", value)
}

// JSONSchema renders the schema as a JSON Schema object for the model.
func (s Schema) JSONSchema() map[string]any {
	properties := make(map[string]any, len(s.Fields))
	required := []string{}
	for _, f := range s.Fields {
		prop := map[string]any{"type": string(f.Type)}
		if f.Description != "" {
			prop["description"] = f.Description
		}
		if len(f.Enum) > 0 {
			prop["enum"] = append([]string(nil), f.Enum...)
		}
		if f.Min != nil {
			prop["minimum"] = *f.Min
		}
		if f.Max != nil {
			prop["maximum"] = *f.Max
		}
		if f.Default != nil {
			prop["default"] = f.Default
		}
		properties[f.Name] = prop
		if f.Required {
			required = append(required, f.Name)
		}
	}
	return map[string]any{
		"type":                 "object",
		"properties":           properties,
		"required":             required,
		"additionalProperties": false,
	}
}

// validateDefaults makes sure every declared default passes its own field.
func (s Schema) validateDefaults() error {
	seen := make(map[string]struct{}, len(s.Fields))
	for _, f := range s.Fields {
		if f.Name == "" {
			return fmt.Errorf("schema field without a name")
		}
		if _, dup := seen[f.Name]; dup {
			return fmt.Errorf("duplicate schema field %q", f.Name)
		}
		seen[f.Name] = struct{}{}
		if f.Default == nil {
			continue
		}
		if _, err := f.check(f.Default); err != nil {
			return fmt.Errorf("invalid default: %w", err)
		}
	}
	return nil
}
