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
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/sashabaranov/go-openai"

	"dunmac/internal/tools"
)

func testCatalog(t *testing.T) *tools.Catalog {
	t.Helper()
	catalog, err := tools.NewDefaultCatalog(tools.NewHost())
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	return catalog
}

func TestHandleCommandQuit(t *testing.T) {
	session := newTestSession(&scriptedClient{}, tools.Succeed("ok", nil))
	for _, input := range []string{"/quit", "/exit", "/QUIT "} {
		var out bytes.Buffer
		if !handleCommand(input, session, nil, &out, zerolog.Nop()) {
			t.Fatalf("expected %q to quit", input)
		}
	}
}

func TestHandleCommandUnknown(t *testing.T) {
	session := newTestSession(&scriptedClient{}, tools.Succeed("ok", nil))
	var out bytes.Buffer
	if handleCommand("/frobnicate", session, nil, &out, zerolog.Nop()) {
		t.Fatal("unknown command should not quit")
	}
	if !strings.Contains(out.String(), "Unknown command: /frobnicate") {
		t.Fatalf("unexpected output %q", out.String())
	}
}

func TestHandleCommandHistoryAndReset(t *testing.T) {
	client := &scriptedClient{replies: []openai.ChatCompletionMessage{text("hi there")}}
	session := newTestSession(client, tools.Succeed("ok", nil))
	var out bytes.Buffer
	if err := runBatch(t.Context(), session, strings.NewReader("hello\n"), &out, zerolog.Nop()); err != nil {
		t.Fatalf("runBatch failed: %v", err)
	}

	out.Reset()
	handleCommand("/history", session, nil, &out, zerolog.Nop())
	if !strings.Contains(out.String(), "❯ hello") || !strings.Contains(out.String(), "⟫ hi there") {
		t.Fatalf("history output missing turns: %q", out.String())
	}

	out.Reset()
	handleCommand("/reset", session, nil, &out, zerolog.Nop())
	if len(session.History()) != 0 {
		t.Fatal("expected history to be cleared")
	}

	out.Reset()
	handleCommand("/history", session, nil, &out, zerolog.Nop())
	if !strings.Contains(out.String(), "No conversation history") {
		t.Fatalf("unexpected output %q", out.String())
	}
}

func TestHandleCommandTools(t *testing.T) {
	session := newTestSession(&scriptedClient{}, tools.Succeed("ok", nil))
	catalog := testCatalog(t)
	var out bytes.Buffer
	handleCommand("/tools", session, catalog, &out, zerolog.Nop())
	for _, id := range catalog.IDs() {
		if !strings.Contains(out.String(), id) {
			t.Fatalf("tool %q missing from /tools output", id)
		}
	}
}

func TestHandleCommandHelpListsCommands(t *testing.T) {
	session := newTestSession(&scriptedClient{}, tools.Succeed("ok", nil))
	var out bytes.Buffer
	handleCommand("/help", session, nil, &out, zerolog.Nop())
	for _, cmd := range getAvailableCommands() {
		if !strings.Contains(out.String(), "/"+cmd.Name) {
			t.Fatalf("help missing /%s", cmd.Name)
		}
	}
}
