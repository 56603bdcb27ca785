// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package progress

import (
	"log/slog"
	"slices"
	"sync"

	"censor-scan/internal/report"
	"censor-scan/internal/terms"
)

const (
	// MaxRecentFiles bounds the recent-files list
	MaxRecentFiles = 100

	// paths longer than shortenOver are displayed as head...tail
	shortenOver = 43
	shortenKeep = 20

	defaultBuffer = 1024
)

type kind int

const (
	dirDiscovered kind = iota
	dirScanned
	fileAnalysed
	fileMatched
	flush
)

type event struct {
	kind  kind
	epoch uint64
	path  string
	entry report.FileEntry
	done  chan struct{}
}

// Snapshot is a copy of the progress of one run
type Snapshot struct {
	Epoch              uint64
	TotalDirectories   int
	CurrentDirectories int
	AnalysedFiles      int
	// RecentFiles holds display paths, newest first
	RecentFiles []string
	// MatchedFiles is newest first
	MatchedFiles []report.FileEntry
	Terms        []terms.WordCount
}

// Aggregator owns all progress state of the current run. Workers publish
// events on a channel; one consumer goroutine applies them in order, so
// observers see a totally ordered stream of updates. Events tagged with an
// epoch other than the current one are dropped.
type Aggregator struct {
	registry *terms.Registry
	logger   *slog.Logger

	events   chan event
	changes  chan struct{}
	done     chan struct{}
	stopOnce sync.Once

	mu          sync.RWMutex
	epoch       uint64
	totalDirs   int
	currentDirs int
	analysed    int
	recent      []string
	matched     []report.FileEntry
}

// New creates an aggregator over the given term registry. Call Start in a
// goroutine before publishing.
func New(registry *terms.Registry, logger *slog.Logger) *Aggregator {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Aggregator{
		registry: registry,
		logger:   logger,
		events:   make(chan event, defaultBuffer),
		changes:  make(chan struct{}, 1),
		done:     make(chan struct{}),
	}
}

// Start applies events until Stop is called. It blocks.
func (a *Aggregator) Start() {
	for {
		select {
		case e := <-a.events:
			a.apply(e)
		case <-a.done:
			for {
				select {
				case e := <-a.events:
					a.apply(e)
				default:
					return
				}
			}
		}
	}
}

// Stop ends the consumer after draining queued events. Later publishes are
// dropped.
func (a *Aggregator) Stop() {
	a.stopOnce.Do(func() { close(a.done) })
}

// Changes signals, coalesced, that the state moved
func (a *Aggregator) Changes() <-chan struct{} {
	return a.changes
}

// Notify signals observers without changing the state, e.g. after a
// lifecycle transition
func (a *Aggregator) Notify() {
	a.notify()
}

// Flush returns once every event published before the call was applied
func (a *Aggregator) Flush() {
	e := event{kind: flush, done: make(chan struct{})}
	if !a.send(e) {
		return
	}
	select {
	case <-e.done:
	case <-a.done:
	}
}

// Reset starts a new epoch with zeroed counters, empty lists and term
// counts at zero.
func (a *Aggregator) Reset(epoch uint64) {
	a.mu.Lock()
	a.epoch = epoch
	a.totalDirs = 0
	a.currentDirs = 0
	a.analysed = 0
	a.recent = nil
	a.matched = nil
	a.registry.Reset()
	a.mu.Unlock()
	a.notify()
}

// AnalysedFiles returns the number of files analysed in the current epoch
func (a *Aggregator) AnalysedFiles() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.analysed
}

// Snapshot copies the current state
func (a *Aggregator) Snapshot() Snapshot {
	a.mu.RLock()
	defer a.mu.RUnlock()

	recent := slices.Clone(a.recent)
	slices.Reverse(recent)
	matched := slices.Clone(a.matched)
	slices.Reverse(matched)

	return Snapshot{
		Epoch:              a.epoch,
		TotalDirectories:   a.totalDirs,
		CurrentDirectories: a.currentDirs,
		AnalysedFiles:      a.analysed,
		RecentFiles:        recent,
		MatchedFiles:       matched,
		Terms:              a.registry.Snapshot(),
	}
}

// Publisher returns a handle that tags every event with epoch
func (a *Aggregator) Publisher(epoch uint64) *Publisher {
	return &Publisher{agg: a, epoch: epoch}
}

func (a *Aggregator) send(e event) bool {
	select {
	case <-a.done:
		return false
	default:
	}
	select {
	case a.events <- e:
		return true
	case <-a.done:
		return false
	}
}

func (a *Aggregator) apply(e event) {
	if e.kind == flush {
		close(e.done)
		return
	}

	a.mu.Lock()
	if e.epoch != a.epoch {
		a.mu.Unlock()
		a.logger.Debug("stale progress event dropped", "epoch", e.epoch, "current", a.epoch)
		return
	}

	switch e.kind {
	case dirDiscovered:
		a.totalDirs++
	case dirScanned:
		a.currentDirs++
	case fileAnalysed:
		a.analysed++
		a.recent = append(a.recent, ShortenPath(e.path))
		if len(a.recent) > MaxRecentFiles {
			a.recent = slices.Delete(a.recent, 0, len(a.recent)-MaxRecentFiles)
		}
	case fileMatched:
		for _, w := range e.entry.Words {
			if !a.registry.Add(w.Word, w.Count) {
				a.logger.Warn("match for unknown term", "term", w.Word)
			}
		}
		a.matched = append(a.matched, e.entry)
	}
	a.mu.Unlock()
	a.notify()
}

func (a *Aggregator) notify() {
	select {
	case a.changes <- struct{}{}:
	default:
	}
}

// ShortenPath abbreviates long paths for display as the first and last 20
// characters joined by "..."
func ShortenPath(path string) string {
	r := []rune(path)
	if len(r) <= shortenOver {
		return path
	}
	return string(r[:shortenKeep]) + "..." + string(r[len(r)-shortenKeep:])
}

// Publisher feeds events of one epoch into an Aggregator
type Publisher struct {
	agg   *Aggregator
	epoch uint64
}

// Epoch returns the epoch this publisher tags events with
func (p *Publisher) Epoch() uint64 { return p.epoch }

// DirectoryDiscovered records a directory queued for scanning
func (p *Publisher) DirectoryDiscovered(string) {
	p.agg.send(event{kind: dirDiscovered, epoch: p.epoch})
}

// DirectoryScanned records a directory whose files were all processed
func (p *Publisher) DirectoryScanned(string) {
	p.agg.send(event{kind: dirScanned, epoch: p.epoch})
}

// FileAnalyzed records a text file that was read
func (p *Publisher) FileAnalyzed(path string) {
	p.agg.send(event{kind: fileAnalysed, epoch: p.epoch, path: path})
}

// FileMatched records a matched file and adds its counts to the term totals
func (p *Publisher) FileMatched(entry report.FileEntry) {
	p.agg.send(event{kind: fileMatched, epoch: p.epoch, entry: entry})
}
