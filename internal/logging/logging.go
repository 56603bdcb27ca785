// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package logging

import (
	"fmt"
	"io"
	"log/slog"
	"sync"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Config describes the desired logging configuration.
type Config struct {
	Level          string `yaml:"level"`
	Format         string `yaml:"format"`
	FilePath       string `yaml:"filePath,omitempty"`
	FileMaxSizeMB  int    `yaml:"fileMaxSizeMB,omitempty"`
	FileMaxFiles   int    `yaml:"fileMaxFiles,omitempty"`
	FileMaxAgeDays int    `yaml:"fileMaxAgeDays,omitempty"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Level:          "info",
		Format:         "text",
		FileMaxSizeMB:  50,
		FileMaxFiles:   3,
		FileMaxAgeDays: 30,
	}
}

// String returns a human-readable summary of the config.
func (c Config) String() string {
	s := fmt.Sprintf("level=%s format=%s", c.Level, c.Format)
	if c.FilePath != "" {
		s += fmt.Sprintf(" file=%s max_size=%dMB max_files=%d max_age=%dd",
			c.FilePath, c.FileMaxSizeMB, c.FileMaxFiles, c.FileMaxAgeDays)
	}
	return s
}

// Manager owns the logger lifecycle.
type Manager struct {
	levelVar *slog.LevelVar
	config   Config
	mu       sync.Mutex
	closer   io.Closer // lumberjack writer, if any
}

// NewManager creates a Manager and a ready-to-use logger. Records go to
// console (nil discards them) and, when FilePath is set, to a rotating file.
func NewManager(cfg Config, console io.Writer) (*Manager, *slog.Logger) {
	lvl := &slog.LevelVar{}
	lvl.Set(parseLevel(cfg.Level))

	writer, closer := buildWriter(cfg, console)
	m := &Manager{
		levelVar: lvl,
		config:   cfg,
		closer:   closer,
	}
	return m, slog.New(buildHandler(writer, lvl, cfg.Format))
}

// SetLevel changes the level of every logger derived from the manager.
func (m *Manager) SetLevel(level string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.levelVar.Set(parseLevel(level))
	m.config.Level = level
}

// Config returns the current configuration snapshot.
func (m *Manager) Config() Config {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.config
}

// Close releases the log file writer.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closer != nil {
		err := m.closer.Close()
		m.closer = nil
		return err
	}
	return nil
}

// ValidLevel returns true if s is a recognized log level.
func ValidLevel(s string) bool {
	switch s {
	case "debug", "info", "warn", "error":
		return true
	}
	return false
}

// ValidFormat returns true if s is a recognized log format.
func ValidFormat(s string) bool {
	return s == "text" || s == "json"
}

func parseLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func buildWriter(cfg Config, console io.Writer) (io.Writer, io.Closer) {
	if console == nil {
		console = io.Discard
	}
	if cfg.FilePath == "" {
		return console, nil
	}

	maxSize := cfg.FileMaxSizeMB
	if maxSize <= 0 {
		maxSize = 50
	}
	maxFiles := cfg.FileMaxFiles
	if maxFiles <= 0 {
		maxFiles = 3
	}
	maxAge := cfg.FileMaxAgeDays
	if maxAge <= 0 {
		maxAge = 30
	}

	lj := &lumberjack.Logger{
		Filename:   cfg.FilePath,
		MaxSize:    maxSize,
		MaxBackups: maxFiles,
		MaxAge:     maxAge,
	}
	if console == io.Discard {
		return lj, lj
	}
	return io.MultiWriter(console, lj), lj
}

func buildHandler(w io.Writer, leveler slog.Leveler, format string) slog.Handler {
	opts := &slog.HandlerOptions{Level: leveler}
	if format == "json" {
		return slog.NewJSONHandler(w, opts)
	}
	return slog.NewTextHandler(w, opts)
}
