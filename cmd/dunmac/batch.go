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
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"dunmac/internal/chat"
)

func runBatchMode(ctx context.Context, cfgPath string, logger zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(cfgPath, logger)
	if err != nil {
		return err
	}
	if err := runBatch(ctx, chat.NewSession(a.loop), os.Stdin, os.Stdout, logger); err != nil {
		logger.Error().Err(err).Msg("Batch mode failed")
		return err
	}
	return nil
}

// runBatch sends every non-empty input line as one message of the same
// conversation and prints each answer.
func runBatch(ctx context.Context, session *chat.Session, in io.Reader, out io.Writer, logger zerolog.Logger) error {
	logger.Debug().Msg("Running in batch mode")

	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for scanner.Scan() {
		input := strings.TrimSpace(sanitizeInputLine(scanner.Text()))
		if input == "" {
			continue
		}
		logger.Info().Str("user_input", input).Msg("User input received")

		start := time.Now()
		resp, err := session.Send(ctx, input)
		duration := time.Since(start)
		if resp != nil {
			printResponse(out, resp)
		}
		if err != nil {
			logger.Error().Err(err).Dur("duration_ms", duration).Msg("Error getting response")
			return fmt.Errorf("failed to get response: %w", err)
		}

		logger.Info().
			Str("model_response", resp.Message).
			Int("actions", len(resp.Actions)).
			Dur("duration_ms", duration).
			Msg("AI response received")
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("error reading input: %w", err)
	}
	return nil
}
