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
	"fmt"
	"regexp"
	"strings"
)

// Metacharacters enable chaining, substitution or redirection in a shell and
// are refused whatever the base command is.
const Metacharacters = ";|&`$()<>"

// DefaultAllowedCommands are informational or narrowly scoped utilities.
var DefaultAllowedCommands = []string{
	"ls", "pwd", "whoami", "date", "cal", "uptime",
	"df", "du", "free", "top", "ps",
	"echo", "cat", "head", "tail", "wc",
	"grep", "find", "which", "whereis",
	"open", "say", "screencapture",
	"defaults",
	"networksetup", "system_profiler",
	"pmset", "caffeinate",
	"mkdir", "touch", "cp", "mv",
}

// DefaultDenyPatterns are matched case-insensitively against the full command.
var DefaultDenyPatterns = []string{
	`rm\s+-rf`,
	`sudo`,
	`chmod\s+777`,
	`>\s*/dev`,
	`mkfs`,
	`dd\s+if=`,
	regexp.QuoteMeta(`:(){ :|:& };:`), // fork bomb
	`curl.*\|.*sh`,
	`wget.*\|.*sh`,
}

// StrictDenyPatterns close the routes by which allowlisted find and open can
// still start other programs or delete files. They are opt-in.
var StrictDenyPatterns = []string{
	`\bfind\b.*\s-(exec|execdir|ok|okdir|delete)\b`,
	`\bopen\b.*\s-(a|b)\b`,
}

// Policy is the allow/deny table consulted by the shell gate. It is
// immutable after construction.
type Policy struct {
	allowed   []string
	allowSet  map[string]struct{}
	deny      []*regexp.Regexp
	denyTexts []string
}

// DefaultPolicy returns the built-in allowlist and deny patterns.
func DefaultPolicy() *Policy {
	p, err := NewPolicy(DefaultAllowedCommands, DefaultDenyPatterns)
	if err != nil {
		panic(fmt.Sprintf("default shell policy: %v", err))
	}
	return p
}

// NewPolicy compiles a policy from explicit tables. Deny patterns are
// compiled case-insensitively.
func NewPolicy(allow, deny []string) (*Policy, error) {
	p := &Policy{allowSet: make(map[string]struct{}, len(allow))}
	for _, name := range allow {
		name = strings.TrimSpace(name)
		if name == "" {
			return nil, fmt.Errorf("allowed command name cannot be empty")
		}
		if strings.ContainsAny(name, Metacharacters+" \t\n\"'") {
			return nil, fmt.Errorf("allowed command %q contains forbidden characters", name)
		}
		if _, dup := p.allowSet[name]; dup {
			continue
		}
		p.allowSet[name] = struct{}{}
		p.allowed = append(p.allowed, name)
	}
	for _, expr := range deny {
		re, err := regexp.Compile("(?i)" + expr)
		if err != nil {
			return nil, fmt.Errorf("invalid deny pattern %q: %w", expr, err)
		}
		p.deny = append(p.deny, re)
		p.denyTexts = append(p.denyTexts, expr)
	}
	return p, nil
}

// Extend returns a new policy with extra commands and patterns appended.
func (p *Policy) Extend(allow, deny []string) (*Policy, error) {
	return NewPolicy(append(p.AllowedCommands(), allow...), append(p.DenyPatterns(), deny...))
}

// AllowedCommands returns the allowlist in declaration order.
func (p *Policy) AllowedCommands() []string {
	return append([]string(nil), p.allowed...)
}

// DenyPatterns returns the source text of the deny patterns.
func (p *Policy) DenyPatterns() []string {
	return append([]string(nil), p.denyTexts...)
}

// Allows reports whether name is an allowlisted base command.
func (p *Policy) Allows(name string) bool {
	_, ok := p.allowSet[name]
	return ok
}

// DeniedBy returns the first deny pattern matching command.
func (p *Policy) DeniedBy(command string) (string, bool) {
	for i, re := range p.deny {
		if re.MatchString(command) {
			return p.denyTexts[i], true
		}
	}
	return "", false
}

// FindMetacharacter returns the first shell metacharacter in command.
func FindMetacharacter(command string) (rune, bool) {
	if i := strings.IndexAny(command, Metacharacters); i >= 0 {
		return rune(command[i]), true
	}
	return 0, false
}
