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
	"context"
	"sync"

	"github.com/chzyer/readline"
)

// operationCanceler holds the cancel function of the request in flight so
// Ctrl+C can stop it without leaving the REPL.
type operationCanceler struct {
	mu     sync.Mutex
	cancel context.CancelFunc
}

// Set registers the cancel function of the request about to run, replacing
// any earlier one.
func (c *operationCanceler) Set(cancel context.CancelFunc) {
	c.mu.Lock()
	c.cancel = cancel
	c.mu.Unlock()
}

// Clear forgets the registered request once it has returned.
func (c *operationCanceler) Clear() {
	c.mu.Lock()
	c.cancel = nil
	c.mu.Unlock()
}

// Cancel stops the request in flight and reports whether there was one.
// Each request is canceled at most once; further Ctrl+C presses while it
// unwinds report false. At the prompt nothing is registered, and readline
// handles Ctrl+C itself by clearing the line.
func (c *operationCanceler) Cancel() bool {
	c.mu.Lock()
	cancel := c.cancel
	c.cancel = nil
	c.mu.Unlock()
	if cancel == nil {
		return false
	}
	cancel()
	return true
}

// filterInterruptRune drops Ctrl+G so it cannot ring the bell mid-line.
func filterInterruptRune(r rune) (rune, bool) {
	if r == readline.CharBell {
		return 0, false
	}
	return r, true
}
