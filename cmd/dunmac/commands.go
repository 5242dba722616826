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
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/rs/zerolog"

	"dunmac/internal/chat"
	"dunmac/internal/tools"
)

// Command represents a slash command
type Command struct {
	Name        string
	Description string
}

// getAvailableCommands returns the list of all slash commands
func getAvailableCommands() []Command {
	return []Command{
		{Name: "help", Description: "Show available commands"},
		{Name: "reset", Description: "Forget the conversation"},
		{Name: "history", Description: "Display conversation history"},
		{Name: "tools", Description: "List the tools the operator can use"},
		{Name: "quit", Description: "Exit the application"},
		{Name: "exit", Description: "Exit the application"},
	}
}

// handleCommand processes slash commands, returns true if should quit
func handleCommand(input string, session *chat.Session, catalog *tools.Catalog, out io.Writer, logger zerolog.Logger) bool {
	cmdName := strings.TrimPrefix(input, "/")
	cmdName = strings.ToLower(strings.TrimSpace(cmdName))

	logger.Debug().Str("command", cmdName).Msg("Executing command")

	switch cmdName {
	case "help":
		showHelp(out)
	case "reset", "clear":
		session.Reset()
		fmt.Fprintln(out, "✓ Conversation history cleared")
	case "history":
		showHistory(out, session.History())
	case "tools":
		showTools(out, catalog)
	case "quit", "exit":
		return true
	default:
		fmt.Fprintf(out, "✗ Unknown command: /%s (type /help for available commands)\n", cmdName)
	}
	return false
}

func showHelp(out io.Writer) {
	fmt.Fprintln(out, "\nAvailable Commands:")
	for _, cmd := range getAvailableCommands() {
		fmt.Fprintf(out, "  /%-12s - %s\n", cmd.Name, cmd.Description)
	}
	fmt.Fprintln(out, "\nKeyboard Shortcuts:")
	fmt.Fprintln(out, "  Ctrl+C       - Cancel the running request")
	fmt.Fprintln(out, "  Tab          - Auto-complete commands")
	fmt.Fprintln(out)
}

func showHistory(out io.Writer, turns []chat.Turn) {
	if len(turns) == 0 {
		fmt.Fprintln(out, "No conversation history")
		return
	}

	fmt.Fprintln(out, "\nConversation History:")
	for _, turn := range turns {
		switch turn.Role {
		case chat.RoleUser:
			fmt.Fprintf(out, "❯ %s\n", turn.Content)
		case chat.RoleAssistant:
			fmt.Fprintf(out, "⟫ %s\n", turn.Content)
		}
	}
	fmt.Fprintln(out)
}

func showTools(out io.Writer, catalog *tools.Catalog) {
	if catalog == nil || catalog.Len() == 0 {
		fmt.Fprintln(out, "No tools available")
		return
	}

	fmt.Fprintln(out, "\nTools:")
	w := tabwriter.NewWriter(out, 0, 8, 2, ' ', 0)
	for _, info := range catalog.List() {
		fmt.Fprintf(w, "  %s\t%s\n", info.Name, info.Description)
	}
	w.Flush()
	fmt.Fprintln(out)
}
