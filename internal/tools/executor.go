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
	"encoding/json"
	"fmt"
	"runtime/debug"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/sashabaranov/go-openai"
)

// Executor resolves tools in a catalog, validates their arguments and runs
// them behind a failure boundary. It never returns an error or panics:
// every outcome, including unknown tools, is an Outcome.
type Executor struct {
	catalog  *Catalog
	logger   zerolog.Logger
	timeouts TimeoutConfig
	limiter  *rateLimiter
}

// NewExecutor creates an executor over catalog.
func NewExecutor(catalog *Catalog, logger zerolog.Logger, timeouts TimeoutConfig) *Executor {
	return &Executor{
		catalog:  catalog,
		logger:   logger.With().Str("component", "executor").Logger(),
		timeouts: timeouts,
	}
}

// ConfigureRateLimits sets per-tool call limits. Call it before the executor
// is shared.
func (e *Executor) ConfigureRateLimits(cfg RateLimitConfig) {
	e.limiter = newRateLimiter(cfg)
}

// Catalog returns the catalog the executor dispatches into.
func (e *Executor) Catalog() *Catalog {
	return e.catalog
}

// Tools returns the catalog as model tool definitions.
func (e *Executor) Tools() []openai.Tool {
	return e.catalog.OpenAITools()
}

// Execute runs tool id with raw, untrusted arguments.
func (e *Executor) Execute(ctx context.Context, id string, raw map[string]any) (out Outcome) {
	start := time.Now()
	logger := e.logger.With().Str("tool", id).Logger()

	defer func() {
		if r := recover(); r != nil {
			logger.Error().
				Interface("panic", r).
				Bytes("stack", debug.Stack()).
				Msg("Tool panicked")
			out = Fail(fmt.Sprintf("Tool %s crashed: %v", id, r))
		}
		logger.Debug().
			Bool("success", out.Success).
			Dur("duration", time.Since(start)).
			Msg("Tool finished")
	}()

	desc, ok := e.catalog.Lookup(id)
	if !ok {
		coded := NewToolExecutionError(id, ErrToolNotFound)
		logger.Warn().Str("error_code", string(coded.Code)).Msg("Unknown tool requested")
		return Fail("Unknown tool: " + id)
	}

	args, err := desc.Schema.Validate(raw)
	if err != nil {
		logger.Debug().Err(err).Msg("Tool arguments rejected")
		return Fail("Validation error: " + err.Error())
	}

	if err := e.limiter.Allow(id); err != nil {
		logger.Warn().Err(err).Str("error_code", string(classify(err))).Msg("Tool call throttled")
		return Fail(err.Error())
	}

	if timeout := e.timeouts.TimeoutForTool(id); timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	out, err = desc.Execute(ctx, args)
	if err != nil {
		coded := NewToolExecutionError(id, err)
		logger.Warn().Err(err).Str("error_code", string(coded.Code)).Msg("Tool failed")
		return Fail(err.Error())
	}
	if strings.TrimSpace(out.Message) == "" {
		if out.Success {
			out.Message = "Done"
		} else {
			out.Message = "Tool failed"
		}
	}
	if !out.Success {
		out.Data = nil
	}
	return out
}

// ExecuteCall runs a tool whose arguments arrive as a JSON object string,
// as in a model tool call. The decoded arguments are returned for the record.
func (e *Executor) ExecuteCall(ctx context.Context, id, argsJSON string) (map[string]any, Outcome) {
	args, err := ParseArguments(argsJSON)
	if err != nil {
		e.logger.Debug().Err(err).Str("tool", id).Msg("Malformed tool call arguments")
		return map[string]any{}, Fail("Validation error: " + err.Error())
	}
	return args, e.Execute(ctx, id, args)
}

// ParseArguments decodes a JSON object. Empty input is an empty object.
func ParseArguments(argsJSON string) (map[string]any, error) {
	args := map[string]any{}
	if strings.TrimSpace(argsJSON) == "" {
		return args, nil
	}
	if err := json.Unmarshal([]byte(argsJSON), &args); err != nil {
		return nil, fmt.Errorf("%w: arguments must be a JSON object: %v", ErrInvalidArguments, err)
	}
	if args == nil {
		return map[string]any{}, nil
	}
	return args, nil
}
