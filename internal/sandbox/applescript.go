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
	"context"
	"strings"
)

var literalStripper = strings.NewReplacer(`"`, "", `\`, "")

// StripLiteral removes the characters that could close or escape an
// AppleScript string literal.
func StripLiteral(s string) string {
	return literalStripper.Replace(s)
}

// Quote renders s as a double-quoted AppleScript string literal.
func Quote(s string) string {
	return `"` + StripLiteral(s) + `"`
}

// AppleScriptArgv is the process invocation for a script. The script travels
// as a single argument to osascript, never through a shell.
func AppleScriptArgv(script string) []string {
	return []string{"osascript", "-e", script}
}

// RunAppleScript executes script with runner and returns trimmed stdout.
func RunAppleScript(ctx context.Context, runner Runner, script string) (string, error) {
	res, err := runner.Run(ctx, AppleScriptArgv(script))
	if err != nil {
		return trimOutput(res.Stdout), err
	}
	return trimOutput(res.Stdout), nil
}
