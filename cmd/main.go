// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/pflag"
	"golang.org/x/term"

	"censor-scan/internal/config"
	"censor-scan/internal/engine"
	"censor-scan/internal/formatters/text"
	"censor-scan/internal/logging"
	"censor-scan/internal/ui"
	"censor-scan/internal/version"
)

// isTerminal checks if the given file is a terminal
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	cfg, opts, err := config.Load("censor-scan", args)
	if errors.Is(err, pflag.ErrHelp) {
		return 0
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	if opts.ShowVersion {
		fmt.Println(version.Info())
		return 0
	}

	if cfg.NoColor || !isTerminal(os.Stdout) || os.Getenv("NO_COLOR") != "" {
		color.NoColor = true
	}

	// The terminal belongs to the console in interactive mode
	var console io.Writer = io.Discard
	if cfg.Hidden {
		console = os.Stderr
	}
	logs, logger := logging.NewManager(cfg.Logging, console)
	defer logs.Close()

	if cfg.Path != "" {
		logger.Debug("configuration loaded", "path", cfg.Path)
	}

	completed := make(chan engine.Completion, 1)
	eng := engine.New(cfg.Settings(),
		engine.WithLogger(logger),
		engine.OnCompleted(func(c engine.Completion) {
			if !c.Exit {
				return
			}
			select {
			case completed <- c:
			default:
			}
		}),
	)
	defer eng.Close()

	if cfg.Hidden {
		return runHidden(eng, completed)
	}

	if err := ui.Run(eng, version.Short()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

// runHidden waits for the autostarted run to complete, then prints its
// summary. An interrupt abandons the run.
func runHidden(eng *engine.Engine, completed <-chan engine.Completion) int {
	if err := eng.ConfigError(); err != nil {
		color.New(color.FgRed).Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	if st := eng.State(); st != engine.Started && st != engine.Completed {
		fmt.Fprintf(os.Stderr, "Error: run did not start (state %s)\n", st)
		return 1
	}

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigs)

	select {
	case c := <-completed:
		summary, err := text.NewConsoleFormatter().Format(c.Report)
		if err == nil {
			fmt.Print(string(summary))
		}
		fmt.Printf("Completed. Report file: %s\n", color.GreenString(c.ReportPath))
		return 0
	case sig := <-sigs:
		fmt.Fprintf(os.Stderr, "Interrupted (%s), discarding run\n", sig)
		if err := eng.Stop(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
		}
		return 130
	}
}
