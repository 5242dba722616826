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
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/chzyer/readline"
	"github.com/rs/zerolog"

	"dunmac/internal/chat"
)

func runREPL(ctx context.Context, cfgPath string, logger zerolog.Logger) error {
	logger.Debug().Msg("Running in REPL mode")

	a, err := newApp(cfgPath, logger)
	if err != nil {
		return err
	}
	session := chat.NewSession(a.loop)

	rl, err := readline.NewEx(&readline.Config{
		Prompt:              "❯ ",
		HistoryFile:         a.cfg.CommandHistoryFile,
		AutoComplete:        getCommandCompleter(),
		InterruptPrompt:     "^C",
		EOFPrompt:           "exit",
		FuncFilterInputRune: filterInterruptRune,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize readline: %w", err)
	}
	defer rl.Close()

	out := rl.Stdout()
	fmt.Fprintln(out, "DunMac by THISUX")
	fmt.Fprintf(out, "Connected to: %s\n", a.cfg.APIURL)
	fmt.Fprintf(out, "Model in use: %s\n", a.cfg.Model)
	fmt.Fprintln(out, "Type /help for commands, /quit to exit")
	fmt.Fprintln(out)

	// Ctrl+C while a request runs arrives as a signal, not as a readline
	// interrupt, because the terminal is out of raw mode.
	canceler := &operationCanceler{}
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt)
	defer signal.Stop(sigCh)
	done := make(chan struct{})
	defer close(done)
	go func() {
		for {
			select {
			case <-sigCh:
				if canceler.Cancel() {
					logger.Debug().Msg("Request canceled by user")
				}
			case <-done:
				return
			}
		}
	}()

	for {
		line, err := rl.Readline()
		switch classifyReadlineError(line, err) {
		case readlineContinue:
			continue
		case readlineExit:
			logger.Info().Msg("Session ended")
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read input: %w", err)
		}

		line = strings.TrimSpace(sanitizeInputLine(line))
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "/") {
			if handleCommand(line, session, a.executor.Catalog(), out, logger) {
				logger.Info().Msg("Session ended")
				return nil
			}
			continue
		}

		logger.Info().Str("user_input", line).Msg("User input received")
		handleConversation(ctx, line, session, canceler, out, logger)
	}
}

// handleConversation runs one message through the loop, cancelable with
// Ctrl+C, and prints the result.
func handleConversation(ctx context.Context, input string, session *chat.Session, canceler *operationCanceler, out io.Writer, logger zerolog.Logger) {
	opCtx, cancel := context.WithCancel(ctx)
	canceler.Set(cancel)
	defer func() {
		canceler.Clear()
		cancel()
	}()

	start := time.Now()
	resp, err := session.Send(opCtx, input)
	duration := time.Since(start)

	if err != nil {
		logger.Error().Err(err).Dur("duration_ms", duration).Msg("Error getting response")
		if errors.Is(err, context.Canceled) || opCtx.Err() != nil {
			fmt.Fprintln(out, "✗ Interrupted")
			return
		}
		if resp == nil {
			fmt.Fprintf(out, "✗ Error: %v\n", err)
			return
		}
	} else {
		logger.Info().
			Str("model_response", resp.Message).
			Int("actions", len(resp.Actions)).
			Dur("duration_ms", duration).
			Msg("AI response received")
	}

	printResponse(out, resp)
	fmt.Fprintln(out)
}
