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
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"
)

// DefaultMaxOutput caps each of stdout and stderr kept from one process.
const DefaultMaxOutput = 1 << 20

// Result captures what a finished child process produced.
type Result struct {
	Argv     []string
	Stdout   string
	Stderr   string
	ExitCode int
	Duration time.Duration
	// Truncated is set when either stream went over the output cap.
	Truncated bool
}

// Runner starts a process from an argument vector and waits for it.
//
// Implementations must never hand the vector to a shell interpreter.
type Runner interface {
	Run(ctx context.Context, argv []string) (Result, error)
}

// ExitError reports a process that ran but exited with a non-zero status.
type ExitError struct {
	Command  string
	ExitCode int
	Stderr   string
}

func (e *ExitError) Error() string {
	if e.Stderr != "" {
		return fmt.Sprintf("%s exited with code %d: %s", e.Command, e.ExitCode, e.Stderr)
	}
	return fmt.Sprintf("%s exited with code %d", e.Command, e.ExitCode)
}

// ExecRunner runs argument vectors with os/exec, resolving argv[0] through PATH.
type ExecRunner struct {
	// WaitDelay bounds how long Run keeps reading output after the process
	// has been killed. Zero means one second.
	WaitDelay time.Duration
	// MaxOutput is the number of bytes kept per stream. Zero means
	// DefaultMaxOutput.
	MaxOutput int
}

// cappedBuffer keeps the first limit bytes written to it and drops the rest.
// It never fails a write, so a chatty child is not killed by EPIPE.
type cappedBuffer struct {
	buf       bytes.Buffer
	limit     int
	truncated bool
}

func (b *cappedBuffer) Write(p []byte) (int, error) {
	if room := b.limit - b.buf.Len(); room < len(p) {
		b.truncated = true
		if room > 0 {
			b.buf.Write(p[:room])
		}
		return len(p), nil
	}
	return b.buf.Write(p)
}

// Run executes argv and collects stdout and stderr. A context deadline kills
// the process (and on Unix its whole process group) and yields ErrTimeout.
func (r ExecRunner) Run(ctx context.Context, argv []string) (Result, error) {
	res := Result{Argv: append([]string(nil), argv...)}
	if len(argv) == 0 || argv[0] == "" {
		return res, ErrEmptyCommand
	}

	limit := r.MaxOutput
	if limit <= 0 {
		limit = DefaultMaxOutput
	}
	stdout := &cappedBuffer{limit: limit}
	stderr := &cappedBuffer{limit: limit}
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	cmd.WaitDelay = r.WaitDelay
	if cmd.WaitDelay <= 0 {
		cmd.WaitDelay = time.Second
	}
	configureProcess(cmd)

	start := time.Now()
	err := cmd.Run()
	res.Duration = time.Since(start)
	res.Stdout = stdout.buf.String()
	res.Stderr = stderr.buf.String()
	res.Truncated = stdout.truncated || stderr.truncated

	if err == nil {
		return res, nil
	}

	switch ctxErr := ctx.Err(); {
	case errors.Is(ctxErr, context.DeadlineExceeded):
		res.ExitCode = -1
		return res, fmt.Errorf("%w: %s killed after %s", ErrTimeout, argv[0], res.Duration.Round(time.Millisecond))
	case errors.Is(ctxErr, context.Canceled):
		res.ExitCode = -1
		return res, fmt.Errorf("%s canceled: %w", argv[0], ctxErr)
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		res.ExitCode = exitErr.ExitCode()
		return res, &ExitError{Command: argv[0], ExitCode: res.ExitCode, Stderr: trimOutput(res.Stderr)}
	}

	res.ExitCode = -1
	return res, fmt.Errorf("failed to start %s: %w", argv[0], err)
}
