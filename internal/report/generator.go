// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package report

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/afero"

	"censor-scan/internal/observability"
)

// BaseName is the file name, without extension, of every report artifact
const BaseName = "report"

// Encoder renders a report in one output format
type Encoder interface {
	Name() string
	FileExtension() string
	Format(r *RunReport) ([]byte, error)
}

// Generator writes a report into a bundle directory. The first encoder is
// the primary artifact; a failure there fails the write. Failures of the
// remaining encoders are logged and skipped.
type Generator struct {
	fs       afero.Fs
	encoders []Encoder
	logger   *slog.Logger
	observer *observability.Observer
}

// NewGenerator creates a generator. primary is required.
func NewGenerator(fs afero.Fs, logger *slog.Logger, primary Encoder, extra ...Encoder) *Generator {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Generator{
		fs:       fs,
		encoders: append([]Encoder{primary}, extra...),
		logger:   logger,
		observer: observability.NewObserver(logger),
	}
}

// Formats returns the names of the configured encoders
func (g *Generator) Formats() []string {
	names := make([]string, 0, len(g.encoders))
	for _, enc := range g.encoders {
		names = append(names, enc.Name())
	}
	return names
}

// Write renders r with every encoder and returns the primary artifact's path
func (g *Generator) Write(dir string, r *RunReport) (string, error) {
	var primary string
	for i, enc := range g.encoders {
		target := filepath.Join(dir, BaseName+enc.FileExtension())
		finish := g.observer.StartTiming("report", "write_"+enc.Name(), target)

		err := g.writeOne(target, enc, r)
		finish(err == nil, map[string]any{"files": len(r.Files)})

		if err != nil {
			if i == 0 {
				return "", err
			}
			g.logger.Warn("report format skipped", "format", enc.Name(), "error", err)
			continue
		}
		if i == 0 {
			primary = target
		}
	}
	return primary, nil
}

func (g *Generator) writeOne(target string, enc Encoder, r *RunReport) error {
	data, err := enc.Format(r)
	if err != nil {
		return fmt.Errorf("failed to format %s report: %w", enc.Name(), err)
	}
	if err := writeFileAtomic(g.fs, target, data, 0600); err != nil {
		return fmt.Errorf("failed to write %s report: %w", enc.Name(), err)
	}
	return nil
}

// writeFileAtomic writes data next to target and renames it into place, so
// a reader never sees a half-written report. An existing target is moved to
// a .bak file first and restored if the final rename fails.
func writeFileAtomic(fs afero.Fs, target string, data []byte, perm os.FileMode) error {
	tmpPath := target + ".tmp"
	bakPath := target + ".bak"

	if err := afero.WriteFile(fs, tmpPath, data, perm); err != nil {
		return fmt.Errorf("writing temp file: %w", err)
	}

	hadTarget, _ := afero.Exists(fs, target)
	if hadTarget {
		if err := fs.Rename(target, bakPath); err != nil {
			_ = fs.Remove(tmpPath)
			return fmt.Errorf("backing up existing file: %w", err)
		}
	}

	if err := fs.Rename(tmpPath, target); err != nil {
		if hadTarget {
			_ = fs.Rename(bakPath, target)
		}
		_ = fs.Remove(tmpPath)
		return fmt.Errorf("renaming temp to target: %w", err)
	}

	if hadTarget {
		_ = fs.Remove(bakPath)
	}
	return nil
}
