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

package config

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"
)

// SchemaJSON returns the JSON schema for config.json.
func SchemaJSON() string {
	return configSchemaJSON
}

// ExampleConfigJSON returns a minimal example config derived from the schema.
func ExampleConfigJSON() string {
	return exampleConfigJSON
}

func normalizeConfigJSON(data []byte) ([]byte, error) {
	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	migrateLegacyConfig(raw)
	if err := validateConfigMap(raw, ""); err != nil {
		return nil, err
	}
	normalized, err := json.Marshal(raw)
	if err != nil {
		return nil, err
	}
	return normalized, nil
}

// migrateLegacyConfig accepts the flat shell keys of early configs.
func migrateLegacyConfig(raw map[string]interface{}) {
	legacy := map[string]string{
		"allowed_commands":      "allow_commands",
		"shell_timeout_seconds": "timeout_seconds",
	}
	for old, key := range legacy {
		value, ok := raw[old]
		if !ok {
			continue
		}
		delete(raw, old)
		shell, ok := raw["shell"].(map[string]interface{})
		if !ok {
			shell = map[string]interface{}{}
			raw["shell"] = shell
		}
		if _, exists := shell[key]; !exists {
			shell[key] = value
		}
	}
}

func validateConfigMap(raw map[string]interface{}, prefix string) error {
	allowed := map[string]func(interface{}) error{
		"api_key": func(v interface{}) error { return validateString(v, prefix+"api_key") },
		"api_url": func(v interface{}) error { return validateString(v, prefix+"api_url") },
		"model":   func(v interface{}) error { return validateString(v, prefix+"model") },
		"temperature": func(v interface{}) error {
			return validateNumber(v, prefix+"temperature")
		},
		"max_tokens":     func(v interface{}) error { return validateInteger(v, prefix+"max_tokens") },
		"max_steps":      func(v interface{}) error { return validateInteger(v, prefix+"max_steps") },
		"parallel_tools": func(v interface{}) error { return validateInteger(v, prefix+"parallel_tools") },
		"system_prompt": func(v interface{}) error {
			return validateString(v, prefix+"system_prompt")
		},
		"port": func(v interface{}) error { return validateInteger(v, prefix+"port") },
		"command_history_file": func(v interface{}) error {
			return validateString(v, prefix+"command_history_file")
		},
		"shell": func(v interface{}) error {
			return validateShell(v, prefix+"shell.")
		},
		"tool_timeouts": func(v interface{}) error {
			return validateToolTimeouts(v, prefix+"tool_timeouts.")
		},
		"tool_output_filters": func(v interface{}) error {
			return validateToolOutputFilters(v, prefix+"tool_output_filters.")
		},
		"tool_rate_limits": func(v interface{}) error {
			return validateToolRateLimits(v, prefix+"tool_rate_limits.")
		},
	}
	return validateSection(raw, allowed, prefix)
}

func validateShell(value interface{}, prefix string) error {
	section, ok := value.(map[string]interface{})
	if !ok {
		return fmt.Errorf("%s must be an object", strings.TrimSuffix(prefix, "."))
	}
	allowed := map[string]func(interface{}) error{
		"allow_commands":   func(v interface{}) error { return validateStringArray(v, prefix+"allow_commands") },
		"deny_patterns":    func(v interface{}) error { return validateStringArray(v, prefix+"deny_patterns") },
		"replace_defaults": func(v interface{}) error { return validateBool(v, prefix+"replace_defaults") },
		"strict":           func(v interface{}) error { return validateBool(v, prefix+"strict") },
		"timeout_seconds":  func(v interface{}) error { return validateInteger(v, prefix+"timeout_seconds") },
	}
	return validateSection(section, allowed, prefix)
}

func validateToolTimeouts(value interface{}, prefix string) error {
	section, ok := value.(map[string]interface{})
	if !ok {
		return fmt.Errorf("%s must be an object", strings.TrimSuffix(prefix, "."))
	}
	allowed := map[string]func(interface{}) error{
		"default_seconds":  func(v interface{}) error { return validateInteger(v, prefix+"default_seconds") },
		"per_tool_seconds": func(v interface{}) error { return validateStringNumberMap(v, prefix+"per_tool_seconds") },
	}
	return validateSection(section, allowed, prefix)
}

func validateToolOutputFilters(value interface{}, prefix string) error {
	section, ok := value.(map[string]interface{})
	if !ok {
		return fmt.Errorf("%s must be an object", strings.TrimSuffix(prefix, "."))
	}
	allowed := map[string]func(interface{}) error{
		"max_chars":     func(v interface{}) error { return validateInteger(v, prefix+"max_chars") },
		"strip_ansi":    func(v interface{}) error { return validateBool(v, prefix+"strip_ansi") },
		"strip_control": func(v interface{}) error { return validateBool(v, prefix+"strip_control") },
	}
	return validateSection(section, allowed, prefix)
}

func validateToolRateLimits(value interface{}, prefix string) error {
	section, ok := value.(map[string]interface{})
	if !ok {
		return fmt.Errorf("%s must be an object", strings.TrimSuffix(prefix, "."))
	}
	allowed := map[string]func(interface{}) error{
		"default_per_minute":  func(v interface{}) error { return validateInteger(v, prefix+"default_per_minute") },
		"per_tool_per_minute": func(v interface{}) error { return validateStringNumberMap(v, prefix+"per_tool_per_minute") },
		"cooldown_seconds":    func(v interface{}) error { return validateStringNumberMap(v, prefix+"cooldown_seconds") },
	}
	return validateSection(section, allowed, prefix)
}

func validateSection(section map[string]interface{}, allowed map[string]func(interface{}) error, prefix string) error {
	keys := make([]string, 0, len(section))
	for key := range section {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		validator, ok := allowed[key]
		if !ok {
			return fmt.Errorf("unknown configuration field %q", prefix+key)
		}
		if err := validator(section[key]); err != nil {
			return err
		}
	}
	return nil
}

func validateString(value interface{}, name string) error {
	if _, ok := value.(string); !ok {
		return fmt.Errorf("%s must be a string", name)
	}
	return nil
}

func validateNumber(value interface{}, name string) error {
	if _, ok := value.(float64); !ok {
		return fmt.Errorf("%s must be a number", name)
	}
	return nil
}

func validateInteger(value interface{}, name string) error {
	n, ok := value.(float64)
	if !ok || n != math.Trunc(n) {
		return fmt.Errorf("%s must be an integer", name)
	}
	return nil
}

func validateBool(value interface{}, name string) error {
	if _, ok := value.(bool); !ok {
		return fmt.Errorf("%s must be a boolean", name)
	}
	return nil
}

func validateStringArray(value interface{}, name string) error {
	list, ok := value.([]interface{})
	if !ok {
		return fmt.Errorf("%s must be an array of strings", name)
	}
	for _, item := range list {
		if _, ok := item.(string); !ok {
			return fmt.Errorf("%s must be an array of strings", name)
		}
	}
	return nil
}

func validateStringNumberMap(value interface{}, name string) error {
	section, ok := value.(map[string]interface{})
	if !ok {
		return fmt.Errorf("%s must be an object of number values", name)
	}
	for key, entry := range section {
		if n, ok := entry.(float64); !ok || n != math.Trunc(n) {
			return fmt.Errorf("%s.%s must be a number", name, key)
		}
	}
	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

const configSchemaJSON = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "title": "DunMac Config",
  "type": "object",
  "properties": {
    "api_key": { "type": "string" },
    "api_url": { "type": "string" },
    "model": { "type": "string" },
    "temperature": { "type": "number" },
    "max_tokens": { "type": "integer" },
    "max_steps": { "type": "integer" },
    "parallel_tools": { "type": "integer" },
    "system_prompt": { "type": "string" },
    "port": { "type": "integer" },
    "command_history_file": { "type": "string" },
    "shell": {
      "type": "object",
      "properties": {
        "allow_commands": { "type": "array", "items": { "type": "string" } },
        "deny_patterns": { "type": "array", "items": { "type": "string" } },
        "replace_defaults": { "type": "boolean" },
        "strict": { "type": "boolean" },
        "timeout_seconds": { "type": "integer" }
      }
    },
    "tool_timeouts": {
      "type": "object",
      "properties": {
        "default_seconds": { "type": "integer" },
        "per_tool_seconds": { "type": "object", "additionalProperties": { "type": "integer" } }
      }
    },
    "tool_output_filters": {
      "type": "object",
      "properties": {
        "max_chars": { "type": "integer" },
        "strip_ansi": { "type": "boolean" },
        "strip_control": { "type": "boolean" }
      }
    },
    "tool_rate_limits": {
      "type": "object",
      "properties": {
        "default_per_minute": { "type": "integer" },
        "per_tool_per_minute": { "type": "object", "additionalProperties": { "type": "integer" } },
        "cooldown_seconds": { "type": "object", "additionalProperties": { "type": "integer" } }
      }
    }
  }
}`

const exampleConfigJSON = `{
  "api_key": "sk-or-...",
  "api_url": "https://openrouter.ai/api/v1",
  "model": "anthropic/claude-sonnet-4",
  "max_steps": 10,
  "port": 3456,
  "shell": {
    "allow_commands": ["sw_vers", "ioreg"],
    "strict": true,
    "timeout_seconds": 10
  },
  "tool_timeouts": {
    "per_tool_seconds": { "say": 60 }
  },
  "tool_rate_limits": {
    "per_tool_per_minute": { "say": 10 },
    "cooldown_seconds": { "shell": 2 }
  }
}`
