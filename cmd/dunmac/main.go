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
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/term"
)

var (
	debugMode  = flag.Bool("d", false, "Enable debug mode")
	logFile    = flag.String("log-file", "", "Log file path (stderr when serving, disabled otherwise)")
	configPath = flag.String("config", "config.json", "Configuration file path")
)

func main() {
	flag.Usage = usage
	flag.Parse()

	mode := "serve"
	args := flag.Args()
	if len(args) > 0 {
		mode = args[0]
	}

	// Interactive modes keep the terminal clean unless a log file is given.
	var console io.Writer = io.Discard
	if mode == "serve" {
		console = os.Stderr
	}

	logger, closer, err := initLogger(*debugMode, *logFile, console)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	logger.Info().Str("mode", mode).Msg("DunMac starting")

	err = run(context.Background(), mode, args, logger)
	if closer != nil {
		_ = closer.Close()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, mode string, args []string, logger zerolog.Logger) error {
	switch mode {
	case "serve":
		return runServe(ctx, *configPath, logger)
	case "repl":
		if !term.IsTerminal(int(os.Stdin.Fd())) {
			logger.Debug().Msg("stdin is not a terminal, falling back to batch mode")
			return runBatchMode(ctx, *configPath, logger)
		}
		return runREPL(ctx, *configPath, logger)
	case "-":
		return runBatchMode(ctx, *configPath, logger)
	case "config":
		return runConfig(args[1:], os.Stdout)
	default:
		usage()
		return fmt.Errorf("unknown command %q", mode)
	}
}

func usage() {
	out := flag.CommandLine.Output()
	fmt.Fprintf(out, "Usage: dunmac [flags] [serve|repl|config schema|config example|-]\n\n")
	fmt.Fprintf(out, "  serve           run the HTTP API (default)\n")
	fmt.Fprintf(out, "  repl            chat with the operator in the terminal\n")
	fmt.Fprintf(out, "  -               read one message per line from stdin\n")
	fmt.Fprintf(out, "  config schema   print the configuration JSON schema\n")
	fmt.Fprintf(out, "  config example  print an example configuration\n\n")
	flag.PrintDefaults()
}

func initLogger(debug bool, logFilePath string, console io.Writer) (zerolog.Logger, io.Closer, error) {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	var (
		output io.Writer
		closer io.Closer
	)
	switch {
	case logFilePath != "":
		file, err := os.OpenFile(logFilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return zerolog.Nop(), nil, fmt.Errorf("failed to open log file: %w", err)
		}
		output = file
		closer = file
	case console == nil || console == io.Discard:
		output = io.Discard
	default:
		output = zerolog.ConsoleWriter{Out: console, TimeFormat: time.TimeOnly}
	}

	return zerolog.New(output).With().Timestamp().Logger(), closer, nil
}
