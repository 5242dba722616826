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

package sandbox

import (
	"errors"
	"strings"
)

var (
	// ErrCommandRejected is matched by every rejection the shell gate produces.
	ErrCommandRejected = errors.New("command rejected")

	// ErrEmptyCommand indicates there was nothing to execute.
	ErrEmptyCommand = errors.New("empty command")

	// ErrTimeout indicates a process was killed for exceeding its deadline.
	ErrTimeout = errors.New("command timed out")
)

// Layer names the check that rejected a command.
type Layer string

const (
	LayerMetacharacter Layer = "metacharacter"
	LayerDenyPattern   Layer = "deny_pattern"
	LayerSyntax        Layer = "syntax"
	LayerAllowlist     Layer = "allowlist"
)

// RejectionError describes why the gate refused to run a command.
type RejectionError struct {
	Layer   Layer
	Message string
	// Detail carries the offending character, pattern or command name.
	Detail string
}

func (e *RejectionError) Error() string {
	return e.Message
}

// Is reports whether target is ErrCommandRejected.
func (e *RejectionError) Is(target error) bool {
	return target == ErrCommandRejected
}

// LayerOf returns the rejecting layer for err, or "" when err is not a rejection.
func LayerOf(err error) Layer {
	var rej *RejectionError
	if errors.As(err, &rej) {
		return rej.Layer
	}
	return ""
}

func trimOutput(s string) string {
	return strings.TrimSpace(s)
}
