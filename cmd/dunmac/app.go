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

	"github.com/rs/zerolog"

	"dunmac/internal/chat"
	"dunmac/internal/config"
	"dunmac/internal/tools"
)

// app bundles everything a mode needs once the config is loaded.
type app struct {
	cfg      *config.Config
	executor *tools.Executor
	loop     *chat.Loop
}

func newApp(cfgPath string, logger zerolog.Logger) (*app, error) {
	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	host, err := cfg.NewHost(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build tool host: %w", err)
	}
	catalog, err := tools.NewDefaultCatalog(host)
	if err != nil {
		return nil, fmt.Errorf("failed to build tool catalog: %w", err)
	}
	for _, w := range cfg.Validate(catalog) {
		logger.Warn().Str("field", w.Field).Msg(w.Message)
	}

	executor := tools.NewExecutor(catalog, logger, cfg.ToolTimeoutsConfig())
	executor.ConfigureRateLimits(cfg.ToolRateLimitsConfig())
	loop, err := chat.NewLoop(cfg, executor, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat loop: %w", err)
	}

	logger.Debug().
		Str("model", cfg.Model).
		Str("api_url", cfg.APIURL).
		Int("tools", catalog.Len()).
		Int("max_steps", cfg.MaxSteps).
		Msg("Application ready")

	return &app{cfg: cfg, executor: executor, loop: loop}, nil
}

func runConfig(args []string, out io.Writer) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: dunmac config schema|example")
	}
	switch args[0] {
	case "schema":
		_, err := fmt.Fprintln(out, strings.TrimSpace(config.SchemaJSON()))
		return err
	case "example":
		_, err := fmt.Fprintln(out, strings.TrimSpace(config.ExampleConfigJSON()))
		return err
	default:
		return fmt.Errorf("unknown config command %q", args[0])
	}
}
