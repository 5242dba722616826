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
	"unicode/utf8"

	"dunmac/internal/chat"
)

const actionSummaryLimit = 120

// printResponse writes the action log, one line per call, then the answer.
func printResponse(out io.Writer, resp *chat.Response) {
	fmt.Fprint(out, formatActions(resp.Actions))
	fmt.Fprintln(out, resp.Message)
}

func formatActions(actions []chat.Action) string {
	var b strings.Builder
	for _, action := range actions {
		mark := "✓"
		if !action.Result.Success {
			mark = "✗"
		}
		fmt.Fprintf(&b, "  %s %s: %s\n", mark, action.Tool, summarize(action.Result.Message, actionSummaryLimit))
	}
	return b.String()
}

// summarize keeps the first line of s, cut to limit runes.
func summarize(s string, limit int) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = strings.TrimSpace(s[:i]) + " …"
	}
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return string(runes[:limit]) + "…"
}
