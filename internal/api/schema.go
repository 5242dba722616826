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

package api

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sync"

	"github.com/567-labs/instructor-go/pkg/instructor"
)

var (
	schemaOnce  sync.Once
	schemaCache map[string]map[string]any
	schemaErr   error
)

// envelopeTypes are the request and response bodies documented by /schema.
var envelopeTypes = []reflect.Type{
	reflect.TypeOf(ChatRequest{}),
	reflect.TypeOf(ChatResponse{}),
	reflect.TypeOf(ToolsResponse{}),
	reflect.TypeOf(HealthResponse{}),
	reflect.TypeOf(ErrorResponse{}),
}

// EnvelopeSchemas returns the JSON schema of every HTTP envelope, keyed by
// type name. Nested types are included under their own names.
func EnvelopeSchemas() (map[string]map[string]any, error) {
	schemaOnce.Do(func() {
		schemaCache, schemaErr = buildEnvelopeSchemas(envelopeTypes)
	})
	return schemaCache, schemaErr
}

func buildEnvelopeSchemas(types []reflect.Type) (map[string]map[string]any, error) {
	out := make(map[string]map[string]any)
	for _, t := range types {
		schema, err := instructor.NewSchema(t)
		if err != nil {
			return nil, fmt.Errorf("schema for %s: %w", t.Name(), err)
		}
		found := false
		for _, fn := range schema.Functions {
			params, err := jsonSchemaToMap(fn.Parameters)
			if err != nil {
				return nil, fmt.Errorf("schema for %s: %w", fn.Name, err)
			}
			out[fn.Name] = params
			if fn.Name == t.Name() {
				found = true
			}
		}
		if !found {
			return nil, fmt.Errorf("schema definition %q not found", t.Name())
		}
	}
	return out, nil
}

func jsonSchemaToMap(schema interface{}) (map[string]interface{}, error) {
	raw, err := json.Marshal(schema)
	if err != nil {
		return nil, err
	}
	var params map[string]interface{}
	if err := json.Unmarshal(raw, &params); err != nil {
		return nil, err
	}
	return params, nil
}
