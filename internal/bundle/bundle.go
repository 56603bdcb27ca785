// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package bundle

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/afero"

	"censor-scan/internal/observability"
	"censor-scan/internal/resilience"
)

// Layout of a run's bundle directory under the reports folder
const (
	OriginalFiles = "OriginalFiles"
	CensoredFiles = "CensoredFiles"
	ReportFile    = "report.json"

	// IDLayout is the fixed-width timestamp used as run id (ddMMyyyyHHmmss)
	IDLayout = "02012006150405"

	dirPerm  os.FileMode = 0700
	filePerm os.FileMode = 0600

	// maxIDAttempts bounds the search for a free run id
	maxIDAttempts = 3600
)

// ErrNotDirectory is returned when the reports folder path is occupied by a file
var ErrNotDirectory = errors.New("reports folder is not a directory")

// Manager allocates bundle directories under one reports folder
type Manager struct {
	fs       afero.Fs
	root     string
	now      func() time.Time
	observer *observability.Observer
}

// Option configures a Manager
type Option func(*Manager)

// WithClock sets the time source used for run ids
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// WithObserver attaches an operation timing observer
func WithObserver(o *observability.Observer) Option {
	return func(m *Manager) { m.observer = o }
}

// NewManager creates the reports folder if needed and verifies it is a directory
func NewManager(fs afero.Fs, root string, opts ...Option) (*Manager, error) {
	if root == "" {
		return nil, fmt.Errorf("reports folder cannot be empty")
	}
	m := &Manager{
		fs:   fs,
		root: filepath.Clean(root),
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}

	if err := fs.MkdirAll(m.root, dirPerm); err != nil {
		return nil, fmt.Errorf("failed to create reports folder %s: %w", m.root, err)
	}
	info, err := fs.Stat(m.root)
	if err != nil {
		return nil, fmt.Errorf("failed to stat reports folder %s: %w", m.root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrNotDirectory, m.root)
	}
	return m, nil
}

// Root returns the reports folder
func (m *Manager) Root() string {
	return m.root
}

// Create allocates a fresh bundle directory with its OriginalFiles and
// CensoredFiles subdirectories. When the timestamp id is taken the clock is
// advanced one second at a time until a free id is found.
func (m *Manager) Create() (*Bundle, error) {
	finish := m.observer.StartTiming("bundle", "create", m.root)
	ts := m.now()

	for range maxIDAttempts {
		id := ts.Format(IDLayout)
		dir := filepath.Join(m.root, id)

		exists, err := afero.Exists(m.fs, dir)
		if err != nil {
			finish(false, map[string]any{"error": err.Error()})
			return nil, fmt.Errorf("failed to check bundle directory %s: %w", dir, err)
		}
		if exists {
			ts = ts.Add(time.Second)
			continue
		}

		for _, sub := range []string{OriginalFiles, CensoredFiles} {
			if err := m.fs.MkdirAll(filepath.Join(dir, sub), dirPerm); err != nil {
				finish(false, map[string]any{"error": err.Error()})
				return nil, fmt.Errorf("failed to create bundle directory %s: %w", dir, err)
			}
		}

		finish(true, map[string]any{"run_id": id})
		return &Bundle{fs: m.fs, id: id, dir: dir, observer: m.observer}, nil
	}

	finish(false, nil)
	return nil, fmt.Errorf("no free run id under %s", m.root)
}

// Bundle is one run's output directory
type Bundle struct {
	fs       afero.Fs
	id       string
	dir      string
	observer *observability.Observer
}

// ID returns the run id
func (b *Bundle) ID() string { return b.id }

// Dir returns the bundle directory
func (b *Bundle) Dir() string { return b.dir }

// ReportPath returns the location of report.json
func (b *Bundle) ReportPath() string { return filepath.Join(b.dir, ReportFile) }

// OriginalPath returns where the unmodified copy of name is stored
func (b *Bundle) OriginalPath(name string) string {
	return filepath.Join(b.dir, OriginalFiles, filepath.Base(name))
}

// CensoredPath returns where the redacted copy of name is stored
func (b *Bundle) CensoredPath(name string) string {
	return filepath.Join(b.dir, CensoredFiles, filepath.Base(name))
}

// SaveOriginal copies src into OriginalFiles under name, replacing any earlier copy
func (b *Bundle) SaveOriginal(src, name string) error {
	in, err := b.fs.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open source file: %w", err)
	}
	defer in.Close()

	out, err := b.fs.OpenFile(b.OriginalPath(name), os.O_CREATE|os.O_WRONLY|os.O_TRUNC, filePerm)
	if err != nil {
		return fmt.Errorf("failed to create destination file: %w", err)
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("failed to copy file contents: %w", err)
	}
	if err := out.Sync(); err != nil {
		out.Close()
		return fmt.Errorf("failed to sync destination file: %w", err)
	}
	return out.Close()
}

// SaveCensored writes the redacted content into CensoredFiles under name
func (b *Bundle) SaveCensored(name string, data []byte) error {
	if err := afero.WriteFile(b.fs, b.CensoredPath(name), data, filePerm); err != nil {
		return fmt.Errorf("failed to write censored file: %w", err)
	}
	return nil
}

// Discard deletes the bundle directory and everything in it. Removal is
// retried because workers abandoning the run may still hold files open.
func (b *Bundle) Discard(ctx context.Context) error {
	finish := b.observer.StartTiming("bundle", "discard", b.dir)
	err := resilience.RetryWithBackoff(ctx, resilience.CleanupRetryConfig(), func(context.Context) error {
		return b.fs.RemoveAll(b.dir)
	})
	finish(err == nil, nil)
	if err != nil {
		return fmt.Errorf("failed to discard bundle %s: %w", b.id, err)
	}
	return nil
}
