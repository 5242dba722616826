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
	"fmt"
	"strings"
	"time"
)

// DefaultTimeout is the wall-clock limit for a gated command.
const DefaultTimeout = 10 * time.Second

// Gate decides whether an untrusted command line may run and runs it as an
// argument vector.
type Gate struct {
	policy  *Policy
	runner  Runner
	timeout time.Duration
}

// NewGate builds a gate. A nil policy means DefaultPolicy, a nil runner
// means ExecRunner and a non-positive timeout means DefaultTimeout.
func NewGate(policy *Policy, runner Runner, timeout time.Duration) *Gate {
	if policy == nil {
		policy = DefaultPolicy()
	}
	if runner == nil {
		runner = ExecRunner{}
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Gate{policy: policy, runner: runner, timeout: timeout}
}

// Policy returns the table the gate enforces.
func (g *Gate) Policy() *Policy {
	return g.policy
}

// Timeout returns the per-command deadline.
func (g *Gate) Timeout() time.Duration {
	return g.timeout
}

// Check applies the metacharacter, deny-pattern and allowlist layers and
// returns the argument vector that would be executed.
func (g *Gate) Check(command string) ([]string, error) {
	if ch, found := FindMetacharacter(command); found {
		return nil, &RejectionError{
			Layer:   LayerMetacharacter,
			Message: "Shell metacharacters are not allowed",
			Detail:  string(ch),
		}
	}

	if pattern, denied := g.policy.DeniedBy(command); denied {
		return nil, &RejectionError{
			Layer:   LayerDenyPattern,
			Message: "Blocked: dangerous command pattern detected",
			Detail:  pattern,
		}
	}

	argv, err := Tokenize(command)
	if err != nil {
		return nil, &RejectionError{Layer: LayerSyntax, Message: fmt.Sprintf("Invalid command: %v", err)}
	}
	if len(argv) == 0 {
		return nil, &RejectionError{Layer: LayerSyntax, Message: "Empty command"}
	}

	if !g.policy.Allows(argv[0]) {
		return nil, &RejectionError{
			Layer: LayerAllowlist,
			Message: fmt.Sprintf("Command %q is not in the allowlist. Allowed: %s",
				argv[0], strings.Join(g.policy.AllowedCommands(), ", ")),
			Detail: argv[0],
		}
	}

	return argv, nil
}

// Run checks command and, when accepted, executes it under the gate's
// deadline. Rejected commands never reach the runner.
func (g *Gate) Run(ctx context.Context, command string) (Result, error) {
	argv, err := g.Check(command)
	if err != nil {
		return Result{}, err
	}
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()
	return g.runner.Run(ctx, argv)
}
