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
	"strings"
	"testing"

	"dunmac/internal/chat"
	"dunmac/internal/tools"
)

func TestFormatActions(t *testing.T) {
	actions := []chat.Action{
		{Tool: "open_app", Result: tools.Succeed("Opened Safari", nil)},
		{Tool: "shell", Result: tools.Fail("Command not allowed: rm")},
	}
	want := "  ✓ open_app: Opened Safari\n  ✗ shell: Command not allowed: rm\n"
	if got := formatActions(actions); got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
	if got := formatActions(nil); got != "" {
		t.Fatalf("expected empty output, got %q", got)
	}
}

func TestSummarize(t *testing.T) {
	if got := summarize("line one\nline two", 100); got != "line one …" {
		t.Fatalf("unexpected first-line summary %q", got)
	}
	long := strings.Repeat("é", 10)
	if got := summarize(long, 4); got != "éééé…" {
		t.Fatalf("unexpected truncation %q", got)
	}
	if got := summarize("  short  ", 10); got != "short" {
		t.Fatalf("unexpected trim %q", got)
	}
}
