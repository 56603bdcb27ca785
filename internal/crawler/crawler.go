// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package crawler

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/afero"

	"censor-scan/internal/workqueue"
)

// ErrCanceled is returned when the gate stops discovery
var ErrCanceled = errors.New("discovery canceled")

// Gate is polled before each directory. Proceed blocks while the run is
// paused and returns false once it is stopped. Current answers the same
// question without blocking.
type Gate interface {
	Proceed() bool
	Current() bool
}

// Listener is told about every directory pushed to the queue
type Listener interface {
	DirectoryDiscovered(path string)
}

// RootsFunc lists the directories discovery starts from
type RootsFunc func() ([]string, error)

// Crawler walks directory trees and queues every directory it may scan
type Crawler struct {
	// Epoch is stamped on every queued task
	Epoch uint64

	fs       afero.Fs
	queue    *workqueue.Queue
	excludes []string
	skip     []string
	listener Listener
	logger   *slog.Logger
}

// New creates a crawler. Exclusions are matched case-insensitively as
// substrings of the full directory path.
func New(fs afero.Fs, queue *workqueue.Queue, excludes []string, listener Listener, logger *slog.Logger) *Crawler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	lowered := make([]string, 0, len(excludes))
	for _, ex := range excludes {
		ex = strings.ToLower(strings.TrimSpace(ex))
		if ex != "" {
			lowered = append(lowered, ex)
		}
	}
	return &Crawler{
		fs:       fs,
		queue:    queue,
		excludes: lowered,
		listener: listener,
		logger:   logger,
	}
}

// Excluded reports whether path contains one of the exclusion substrings
func (c *Crawler) Excluded(path string) bool {
	lower := strings.ToLower(path)
	for _, ex := range c.excludes {
		if strings.Contains(lower, ex) {
			return true
		}
	}
	return false
}

// SkipTree keeps discovery out of root and everything below it
func (c *Crawler) SkipTree(root string) {
	if root != "" {
		c.skip = append(c.skip, filepath.Clean(root))
	}
}

func (c *Crawler) skipped(path string) bool {
	for _, root := range c.skip {
		if path == root || strings.HasPrefix(path, root+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

// Run resolves the roots and crawls each in turn
func (c *Crawler) Run(roots RootsFunc, gate Gate) error {
	dirs, err := roots()
	if err != nil {
		return fmt.Errorf("failed to enumerate roots: %w", err)
	}
	return c.Crawl(dirs, gate)
}

// Crawl pushes every non-excluded directory under roots onto the queue, a
// parent always before its children. It works from an explicit stack so
// deep trees do not grow the goroutine stack. Directories that cannot be
// listed are queued but not descended into.
func (c *Crawler) Crawl(roots []string, gate Gate) error {
	stack := slices.Clone(roots)
	slices.Reverse(stack)

	for len(stack) > 0 {
		dir := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if !gate.Proceed() {
			return ErrCanceled
		}
		if c.Excluded(dir) || c.skipped(dir) {
			c.logger.Debug("directory excluded", "path", dir)
			continue
		}

		if !c.queue.PushIf(workqueue.Task{Path: dir, Epoch: c.Epoch}, gate.Current) {
			return ErrCanceled
		}
		if c.listener != nil {
			c.listener.DirectoryDiscovered(dir)
		}

		entries, err := afero.ReadDir(c.fs, dir)
		if err != nil {
			c.logger.Debug("directory not listed", "path", dir, "error", err)
			continue
		}

		var children []string
		for _, entry := range entries {
			if entry.IsDir() {
				children = append(children, filepath.Join(dir, entry.Name()))
			}
		}
		for i := len(children) - 1; i >= 0; i-- {
			stack = append(stack, children[i])
		}
	}
	return nil
}
