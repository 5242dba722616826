package tools

import (
	"errors"
	"reflect"
	"strings"
	"testing"
)

func volumeSchema() Schema {
	min, max := Bound(0, 100)
	return Object(
		Field{Name: "level", Type: TypeNumber, Required: true, Min: min, Max: max},
		Field{Name: "app", Type: TypeString, Enum: []string{"music", "spotify"}, Default: "music"},
		Field{Name: "loud", Type: TypeBoolean},
		Field{Name: "count", Type: TypeInteger, Default: 1},
	)
}

func TestValidateAppliesDefaults(t *testing.T) {
	args, err := volumeSchema().Validate(map[string]any{"level": 42.5})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := Args{"level": 42.5, "app": "music", "count": float64(1)}
	if !reflect.DeepEqual(args, want) {
		t.Fatalf("expected %v, got %v", want, args)
	}
	if args.Float("count") != 1 {
		t.Fatalf("integer default should read back as 1, got %v", args.Float("count"))
	}
	if args.Has("loud") {
		t.Fatal("optional field without default should stay absent")
	}
}

func TestValidateRejections(t *testing.T) {
	tests := []struct {
		name string
		raw  map[string]any
		want string
	}{
		{"missing required", map[string]any{}, `missing required field "level"`},
		{"above max", map[string]any{"level": 150.0}, `field "level" must be <= 100, got 150`},
		{"below min", map[string]any{"level": -1.0}, `field "level" must be >= 0, got -1`},
		{"string for number", map[string]any{"level": "50"}, `field "level" must be a number, got string`},
		{"null value", map[string]any{"level": nil}, `got null`},
		{"enum", map[string]any{"level": 1.0, "app": "winamp"}, `must be one of music, spotify`},
		{"bool type", map[string]any{"level": 1.0, "loud": "yes"}, `field "loud" must be a boolean`},
		{"non integral", map[string]any{"level": 1.0, "count": 1.5}, `field "count" must be an integer`},
		{"unknown field", map[string]any{"level": 1.0, "extra": true}, `unknown field "extra"`},
		{"nested object", map[string]any{"level": map[string]any{"v": 1}}, `got object`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args, err := volumeSchema().Validate(tt.raw)
			if err == nil {
				t.Fatalf("expected error, got args %v", args)
			}
			if !errors.Is(err, ErrInvalidArguments) {
				t.Fatalf("expected ErrInvalidArguments, got %v", err)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected %q in %q", tt.want, err.Error())
			}
		})
	}
}

func TestValidateReportsEveryProblem(t *testing.T) {
	_, err := volumeSchema().Validate(map[string]any{"b": 1, "a": 2})
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	want := []string{`unknown field "a"`, `unknown field "b"`, `missing required field "level"`}
	if !reflect.DeepEqual(verr.Problems, want) {
		t.Fatalf("expected %v, got %v", want, verr.Problems)
	}
}

func TestValidateIsIdempotent(t *testing.T) {
	schema := volumeSchema()
	first, err := schema.Validate(map[string]any{"level": 7, "app": "spotify", "loud": true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := schema.Validate(first)
	if err != nil {
		t.Fatalf("revalidation failed: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("expected %v, got %v", first, second)
	}
	if _, ok := first["level"].(float64); !ok {
		t.Fatalf("numbers should be normalized to float64, got %T", first["level"])
	}
}

func TestValidateDoesNotMutateInput(t *testing.T) {
	raw := map[string]any{"level": 3.0}
	if _, err := volumeSchema().Validate(raw); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(raw) != 1 {
		t.Fatalf("input map was modified: %v", raw)
	}
}

func TestJSONSchema(t *testing.T) {
	doc := volumeSchema().JSONSchema()
	if doc["type"] != "object" || doc["additionalProperties"] != false {
		t.Fatalf("unexpected envelope: %v", doc)
	}
	if required := doc["required"].([]string); !reflect.DeepEqual(required, []string{"level"}) {
		t.Fatalf("unexpected required list: %v", required)
	}
	level := doc["properties"].(map[string]any)["level"].(map[string]any)
	if level["minimum"] != 0.0 || level["maximum"] != 100.0 {
		t.Fatalf("unexpected bounds: %v", level)
	}

	empty := Schema{}.JSONSchema()
	if props := empty["properties"].(map[string]any); len(props) != 0 {
		t.Fatalf("expected no properties, got %v", props)
	}
}

func TestValidateDefaultsCatchesBadSchemas(t *testing.T) {
	bad := []Schema{
		Object(Field{Name: "app", Type: TypeString, Enum: []string{"a"}, Default: "b"}),
		Object(Field{Name: "x", Type: TypeString}, Field{Name: "x", Type: TypeString}),
		Object(Field{Type: TypeString}),
	}
	for i, s := range bad {
		if err := s.validateDefaults(); err == nil {
			t.Fatalf("schema %d: expected error", i)
		}
	}
}
