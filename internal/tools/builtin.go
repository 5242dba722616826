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
	"os"

	"dunmac/internal/sandbox"
)

// Host carries what the built-in tools need to reach the operating system.
type Host struct {
	// Runner spawns every process the tools start. Tests substitute it.
	Runner sandbox.Runner
	// Shell gates the free-form shell tool.
	Shell *sandbox.Gate
	// TempDir receives screenshot files. Empty means os.TempDir().
	TempDir string
	// Output filters shell output before it reaches the model.
	Output OutputFilterConfig
}

// NewHost returns a host that runs real processes under the default policy.
func NewHost() *Host {
	runner := sandbox.ExecRunner{}
	return &Host{
		Runner: runner,
		Shell:  sandbox.NewGate(sandbox.DefaultPolicy(), runner, sandbox.DefaultTimeout),
		Output: DefaultOutputFilterConfig(),
	}
}

func (h *Host) runner() sandbox.Runner {
	if h.Runner == nil {
		return sandbox.ExecRunner{}
	}
	return h.Runner
}

func (h *Host) tempDir() string {
	if h.TempDir == "" {
		return os.TempDir()
	}
	return h.TempDir
}

func (h *Host) run(ctx context.Context, argv ...string) (sandbox.Result, error) {
	return h.runner().Run(ctx, argv)
}

func (h *Host) appleScript(ctx context.Context, script string) (string, error) {
	return sandbox.RunAppleScript(ctx, h.runner(), script)
}

// Builtins returns every built-in tool in catalog order.
func (h *Host) Builtins() []Descriptor {
	var all []Descriptor
	all = append(all, h.appTools()...)
	all = append(all, h.speechTools()...)
	all = append(all, h.screenshotTool(), h.shellTool())
	all = append(all, h.mediaTools()...)
	all = append(all, h.systemTools()...)
	return all
}

// NewDefaultCatalog builds the catalog of built-in tools bound to host.
func NewDefaultCatalog(host *Host) (*Catalog, error) {
	return NewCatalog(host.Builtins()...)
}

var appChoice = []string{"music", "spotify"}

func appName(choice string) string {
	if choice == "spotify" {
		return "Spotify"
	}
	return "Music"
}
