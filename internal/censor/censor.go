// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package censor

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"

	"github.com/spf13/afero"

	"censor-scan/internal/observability"
	"censor-scan/internal/report"
	"censor-scan/internal/resilience"
)

// ErrCanceled is returned when the gate stops a scan part way through
var ErrCanceled = errors.New("scan canceled")

// Gate is polled before each file and each term. Proceed blocks while the
// run is paused and returns false once the run is stopped or replaced.
type Gate interface {
	Proceed() bool
}

// Sink receives per-file results
type Sink interface {
	// FileAnalyzed is called once for every text file that was read
	FileAnalyzed(path string)
	// FileMatched is called for a file with at least one term, after its
	// copies were stored
	FileMatched(entry report.FileEntry)
}

// Store persists the original and redacted copies of a matched file
type Store interface {
	SaveOriginal(src, name string) error
	SaveCensored(name string, data []byte) error
}

// Outcome is the result of processing one file
type Outcome int

const (
	// OutcomeSkipped means the file was binary, unreadable, or could not be stored
	OutcomeSkipped Outcome = iota
	// OutcomeClean means the file was analysed and no term was found
	OutcomeClean
	// OutcomeMatched means at least one term was found and redacted
	OutcomeMatched
)

func (o Outcome) String() string {
	switch o {
	case OutcomeClean:
		return "clean"
	case OutcomeMatched:
		return "matched"
	default:
		return "skipped"
	}
}

// Config holds the collaborators of an Engine
type Config struct {
	Fs     afero.Fs
	Words  []string
	Mask   string
	Store  Store
	Sink   Sink
	Logger *slog.Logger
	Retry  *resilience.RetryConfig
}

// Engine finds and redacts terms in the files of one directory at a time
type Engine struct {
	fs       afero.Fs
	words    []string
	mask     string
	store    Store
	sink     Sink
	logger   *slog.Logger
	observer *observability.Observer
	retry    resilience.RetryConfig
}

// New creates an Engine
func New(cfg Config) *Engine {
	e := &Engine{
		fs:     cfg.Fs,
		words:  cfg.Words,
		mask:   cfg.Mask,
		store:  cfg.Store,
		sink:   cfg.Sink,
		logger: cfg.Logger,
		retry:  resilience.FileRetryConfig(),
	}
	if e.fs == nil {
		e.fs = afero.NewOsFs()
	}
	if e.mask == "" {
		e.mask = DefaultMask
	}
	if e.logger == nil {
		e.logger = slog.New(slog.DiscardHandler)
	}
	if cfg.Retry != nil {
		e.retry = *cfg.Retry
	}
	e.observer = observability.NewObserver(e.logger)
	return e
}

// ScanDirectory processes the regular files directly inside dir. Errors on
// single files are logged and skipped. A listing error is returned, as is
// ErrCanceled when the gate closes.
func (e *Engine) ScanDirectory(ctx context.Context, dir string, gate Gate) error {
	finish := e.observer.StartTiming("censor", "scan_directory", dir)

	entries, err := afero.ReadDir(e.fs, dir)
	if err != nil {
		finish(false, nil)
		return fmt.Errorf("failed to list %s: %w", dir, err)
	}

	matched := 0
	for _, entry := range entries {
		if !entry.Mode().IsRegular() {
			continue
		}
		if !gate.Proceed() || ctx.Err() != nil {
			finish(false, map[string]any{"canceled": true})
			return ErrCanceled
		}

		path := filepath.Join(dir, entry.Name())
		outcome, err := e.ProcessFile(ctx, path, entry, gate)
		if errors.Is(err, ErrCanceled) {
			finish(false, map[string]any{"canceled": true})
			return err
		}
		if err != nil {
			e.logger.Debug("file skipped", "path", path, "error", err)
			continue
		}
		if outcome == OutcomeMatched {
			matched++
		}
	}

	finish(true, map[string]any{"entries": len(entries), "matched": matched})
	return nil
}

// ProcessFile analyses a single file. Binary files are skipped without being
// reported. Text files are reported as analysed; when a term matches, the
// original and the redacted copy are stored before the match is reported.
func (e *Engine) ProcessFile(ctx context.Context, path string, info fs.FileInfo, gate Gate) (Outcome, error) {
	binary, err := IsBinary(e.fs, path)
	if err != nil {
		return OutcomeSkipped, fmt.Errorf("failed to sniff file: %w", err)
	}
	if binary {
		return OutcomeSkipped, nil
	}

	raw, err := afero.ReadFile(e.fs, path)
	if err != nil {
		return OutcomeSkipped, fmt.Errorf("failed to read file: %w", err)
	}
	content, err := Decode(raw)
	if err != nil {
		return OutcomeSkipped, err
	}

	redacted, counts, ok := Redact(content, e.words, e.mask, gate.Proceed)
	if !ok {
		return OutcomeSkipped, ErrCanceled
	}

	if len(counts) == 0 {
		e.sink.FileAnalyzed(path)
		e.logger.Debug("file analysed", "path", path)
		return OutcomeClean, nil
	}

	name := info.Name()
	err = resilience.RetryWithBackoff(ctx, e.retry, func(context.Context) error {
		if err := e.store.SaveOriginal(path, name); err != nil {
			return resilience.ClassifyError(err)
		}
		if err := e.store.SaveCensored(name, []byte(redacted)); err != nil {
			return resilience.ClassifyError(err)
		}
		return nil
	})
	if err != nil {
		return OutcomeSkipped, fmt.Errorf("failed to store copies: %w", err)
	}

	e.sink.FileMatched(report.FileEntry{
		Name:  name,
		Path:  path,
		Size:  info.Size(),
		Words: counts,
	})
	e.sink.FileAnalyzed(path)
	e.logger.Debug("file analysed", "path", path, "terms", len(counts))
	return OutcomeMatched, nil
}
