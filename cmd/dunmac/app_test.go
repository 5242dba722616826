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

package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestRunConfig(t *testing.T) {
	for _, sub := range []string{"schema", "example"} {
		var out bytes.Buffer
		if err := runConfig([]string{sub}, &out); err != nil {
			t.Fatalf("config %s failed: %v", sub, err)
		}
		var doc map[string]any
		if err := json.Unmarshal(out.Bytes(), &doc); err != nil {
			t.Fatalf("config %s printed invalid JSON: %v", sub, err)
		}
	}

	if err := runConfig(nil, &bytes.Buffer{}); err == nil {
		t.Fatal("expected usage error without a subcommand")
	}
	if err := runConfig([]string{"bogus"}, &bytes.Buffer{}); err == nil {
		t.Fatal("expected error for unknown subcommand")
	}
}

func TestNewApp(t *testing.T) {
	for _, name := range []string{"OPENROUTER_API_KEY", "OPENAI_API_KEY", "OPENAI_API_URL", "DUNMAC_MODEL", "PORT"} {
		t.Setenv(name, "")
	}
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(`{"api_key":"test-key","model":"test-model","max_steps":5}`), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	a, err := newApp(path, zerolog.Nop())
	if err != nil {
		t.Fatalf("newApp failed: %v", err)
	}
	if a.loop.Model != "test-model" || a.loop.MaxSteps != 5 {
		t.Fatalf("loop not configured from file: %+v", a.loop)
	}
	if a.executor.Catalog().Len() != 20 {
		t.Fatalf("expected 20 tools, got %d", a.executor.Catalog().Len())
	}
}

func TestNewAppMissingKey(t *testing.T) {
	for _, name := range []string{"OPENROUTER_API_KEY", "OPENAI_API_KEY", "OPENAI_API_URL", "DUNMAC_MODEL", "PORT"} {
		t.Setenv(name, "")
	}
	_, err := newApp(filepath.Join(t.TempDir(), "absent.json"), zerolog.Nop())
	if err == nil || !strings.Contains(err.Error(), "failed to load config") {
		t.Fatalf("expected config error, got %v", err)
	}
}
