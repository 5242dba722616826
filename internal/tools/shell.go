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

package tools

import (
	"context"
	"errors"
	"fmt"

	"dunmac/internal/sandbox"
)

func (h *Host) shellTool() Descriptor {
	return Descriptor{
		ID:          "shell",
		Description: "Run a shell command on macOS. Only safe commands are allowed. Use for system info, file operations, etc.",
		Schema: Object(Field{
			Name:        "command",
			Type:        TypeString,
			Description: "The shell command to execute",
			Required:    true,
		}),
		Execute: h.shell,
	}
}

func (h *Host) shell(ctx context.Context, args Args) (Outcome, error) {
	gate := h.Shell
	if gate == nil {
		gate = sandbox.NewGate(nil, h.runner(), 0)
	}

	res, err := gate.Run(ctx, args.String("command"))
	if err != nil {
		var rejection *sandbox.RejectionError
		var exitErr *sandbox.ExitError
		switch {
		case errors.As(err, &rejection):
			return Fail(rejection.Message), nil
		case errors.Is(err, sandbox.ErrTimeout):
			return Fail(fmt.Sprintf("Command timed out after %s", gate.Timeout())), nil
		case errors.As(err, &exitErr):
			if stderr, _ := h.Output.Apply(res.Stderr); stderr != "" {
				return Fail(stderr), nil
			}
			return Fail(fmt.Sprintf("Command failed with exit code %d", exitErr.ExitCode)), nil
		}
		return Fail(fmt.Sprintf("Command execution failed: %v", err)), nil
	}

	stdout, cutOut := h.Output.Apply(res.Stdout)
	stderr, cutErr := h.Output.Apply(res.Stderr)
	message := stdout
	if message == "" {
		message = "Command executed successfully"
	}
	return Succeed(message, CommandData{
		Stdout:    stdout,
		Stderr:    stderr,
		Truncated: res.Truncated || cutOut || cutErr,
	}), nil
}
