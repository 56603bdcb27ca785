// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/afero"

	"censor-scan/internal/bundle"
	"censor-scan/internal/censor"
	"censor-scan/internal/crawler"
	"censor-scan/internal/formatters"
	_ "censor-scan/internal/formatters/json"
	_ "censor-scan/internal/formatters/text"
	_ "censor-scan/internal/formatters/xlsx"
	_ "censor-scan/internal/formatters/yaml"
	"censor-scan/internal/observability"
	"censor-scan/internal/parallel"
	"censor-scan/internal/platform"
	"censor-scan/internal/progress"
	"censor-scan/internal/report"
	"censor-scan/internal/terms"
	"censor-scan/internal/workqueue"
)

var (
	// ErrBadConfig is returned by Start when the configuration was rejected
	ErrBadConfig = errors.New("bad configuration")
	// ErrClosed is returned by Start after Close
	ErrClosed = errors.New("engine closed")
)

// Completion describes a finished run
type Completion struct {
	RunID      string
	BundleDir  string
	ReportPath string
	Report     *report.RunReport
	// Exit asks the host to terminate, set in hidden mode
	Exit bool
}

// Option configures an Engine
type Option func(*Engine)

// WithFs sets the filesystem scanned and written to
func WithFs(fs afero.Fs) Option {
	return func(e *Engine) { e.fs = fs }
}

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// WithVolumes replaces the volume enumeration used when no analyse folder is set
func WithVolumes(fn crawler.RootsFunc) Option {
	return func(e *Engine) { e.volumes = fn }
}

// WithClock sets the time source for run ids and report timestamps
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// OnCompleted registers a hook called after each completed run
func OnCompleted(fn func(Completion)) Option {
	return func(e *Engine) { e.hooks = append(e.hooks, fn) }
}

type run struct {
	id         string
	trace      string
	epoch      uint64
	bundle     *bundle.Bundle
	logger     *slog.Logger
	ctx        context.Context
	cancel     context.CancelFunc
	publisher  *progress.Publisher
	censor     *censor.Engine
	reportPath string

	discoveryLaunched bool // guarded by Engine.mu
	discoveryActive   atomic.Bool
}

// Engine scans directory trees for banned terms. It owns the lifecycle,
// the scheduler tick, the worker pool and the progress state.
type Engine struct {
	settings Settings
	fs       afero.Fs
	logger   *slog.Logger
	volumes  crawler.RootsFunc
	now      func() time.Time
	hooks    []func(Completion)

	registry  *terms.Registry
	queue     *workqueue.Queue
	pool      *parallel.WorkerPool
	agg       *progress.Aggregator
	bundles   *bundle.Manager
	generator *report.Generator
	gate      *gate

	mu       sync.Mutex
	cfgErr   error
	epoch    uint64
	run      *run
	tickStop chan struct{}
	closed   bool
}

// New builds an engine. Configuration problems put it into BadConfig,
// reported by ConfigError, and no goroutines are started. Otherwise the
// worker pool and progress consumer run until Close, and the engine starts
// right away when Autostart or Hidden is set.
func New(settings Settings, opts ...Option) *Engine {
	e := &Engine{
		settings: settings.withDefaults(),
		fs:       afero.NewOsFs(),
		volumes:  platform.Volumes,
		now:      time.Now,
		queue:    workqueue.New(),
		gate:     newGate(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = slog.New(slog.DiscardHandler)
	}

	e.registry = terms.NewRegistry(e.settings.CensoredWords)
	e.agg = progress.New(e.registry, e.logger)
	e.pool = parallel.NewWorkerPool(e.settings.MaxWorkers, e.logger)

	if err := e.configure(); err != nil {
		e.cfgErr = err
		e.gate.set(BadConfig, 0)
		e.logger.Error("bad configuration", "error", err)
		return e
	}

	go e.agg.Start()
	e.pool.Start()

	e.logger.Info("engine ready",
		"terms", e.registry.Len(),
		"reports", e.bundles.Root(),
		"analyse", e.settings.AnalyseFolder,
		"workers", e.pool.Workers(),
		"formats", e.generator.Formats())

	if e.settings.Autostart || e.settings.Hidden {
		if err := e.Start(); err != nil {
			e.logger.Error("autostart failed", "error", err)
		}
	}
	return e
}

func (e *Engine) configure() error {
	if e.registry.Len() == 0 {
		return errors.New("no censored words configured")
	}
	for _, word := range e.registry.Words() {
		if censor.MaskReveals(e.settings.Mask, word) {
			return fmt.Errorf("mask %q would leave censored word %q readable", e.settings.Mask, word)
		}
	}
	if e.settings.ReportsFolder == "" {
		return errors.New("reports folder not configured")
	}

	bundles, err := bundle.NewManager(e.fs, e.settings.ReportsFolder,
		bundle.WithClock(e.now),
		bundle.WithObserver(observability.NewObserver(e.logger)))
	if err != nil {
		return err
	}
	e.bundles = bundles

	if dir := e.settings.AnalyseFolder; dir != "" {
		info, err := e.fs.Stat(dir)
		if err != nil {
			return fmt.Errorf("analyse folder %s: %w", dir, err)
		}
		if !info.IsDir() {
			return fmt.Errorf("analyse folder %s is not a directory", dir)
		}
	}

	encoders, err := formatters.DefaultRegistry.Encoders(append([]string{"json"}, e.settings.ReportFormats...)...)
	if err != nil {
		return err
	}
	e.generator = report.NewGenerator(e.fs, e.logger, encoders[0], encoders[1:]...)
	return nil
}

// ConfigError returns why the engine is in BadConfig, or nil
func (e *Engine) ConfigError() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cfgErr
}

// State returns the current lifecycle state
func (e *Engine) State() State {
	return e.gate.state()
}

// Settings returns the effective settings
func (e *Engine) Settings() Settings {
	return e.settings
}

// Progress returns a snapshot of the current run's progress
func (e *Engine) Progress() progress.Snapshot {
	return e.agg.Snapshot()
}

// Changes signals, coalesced, that progress or state moved
func (e *Engine) Changes() <-chan struct{} {
	return e.agg.Changes()
}

// RunID returns the id of the current or last completed run
func (e *Engine) RunID() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.run == nil {
		return ""
	}
	return e.run.id
}

// BundleDir returns the bundle directory of the current or last completed run
func (e *Engine) BundleDir() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.run == nil {
		return ""
	}
	return e.run.bundle.Dir()
}

// ReportPath returns the report.json of the last completed run
func (e *Engine) ReportPath() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.run == nil {
		return ""
	}
	return e.run.reportPath
}

// Start begins a fresh run from Idle or Completed and resumes a paused one.
// It does nothing while Started.
func (e *Engine) Start() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return ErrClosed
	}

	switch e.gate.state() {
	case BadConfig:
		return fmt.Errorf("%w: %v", ErrBadConfig, e.cfgErr)
	case Started:
		return nil
	case Paused:
		e.gate.set(Started, e.epoch)
		e.startTicker()
		e.run.logger.Info("run resumed")
		e.agg.Notify()
		return nil
	}

	b, err := e.bundles.Create()
	if err != nil {
		return fmt.Errorf("failed to create report bundle: %w", err)
	}

	e.epoch++
	e.queue.Clear()
	e.agg.Reset(e.epoch)

	ctx, cancel := context.WithCancel(context.Background())
	trace := uuid.NewString()
	logger := e.logger.With("run", b.ID(), "trace", trace)
	publisher := e.agg.Publisher(e.epoch)

	e.run = &run{
		id:        b.ID(),
		trace:     trace,
		epoch:     e.epoch,
		bundle:    b,
		logger:    logger,
		ctx:       ctx,
		cancel:    cancel,
		publisher: publisher,
		censor: censor.New(censor.Config{
			Fs:     e.fs,
			Words:  e.registry.Words(),
			Mask:   e.settings.Mask,
			Store:  b,
			Sink:   publisher,
			Logger: logger,
		}),
	}

	e.gate.set(Started, e.epoch)
	e.startTicker()
	logger.Info("run started", "bundle", b.Dir())
	return nil
}

// Pause suspends a started run. Workers finish the file or term at hand
// and wait at the next gate check.
func (e *Engine) Pause() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.gate.state() != Started {
		return
	}
	e.gate.set(Paused, e.epoch)
	e.stopTicker()
	e.run.logger.Info("run paused")
	e.agg.Notify()
}

// Stop abandons the current run, discarding its bundle directory, queue and
// counters. It does nothing while Idle or in BadConfig.
func (e *Engine) Stop() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stopLocked()
}

func (e *Engine) stopLocked() error {
	switch e.gate.state() {
	case Idle, BadConfig:
		return nil
	}

	r := e.run
	e.epoch++
	e.gate.set(Idle, e.epoch)
	e.stopTicker()
	e.queue.Clear()
	e.agg.Reset(e.epoch)
	e.run = nil

	if r == nil {
		return nil
	}
	r.cancel()
	if err := r.bundle.Discard(context.Background()); err != nil {
		r.logger.Error("bundle not removed", "error", err)
		return err
	}
	r.logger.Info("run stopped")
	return nil
}

// Close stops a running scan and releases the worker pool and the progress
// aggregator. A completed run's bundle is kept.
func (e *Engine) Close() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	var err error
	switch e.gate.state() {
	case Started, Paused:
		err = e.stopLocked()
	default:
		e.stopTicker()
	}
	e.closed = true
	e.mu.Unlock()

	e.pool.Stop()
	e.agg.Stop()
	return err
}

func (e *Engine) startTicker() {
	if e.tickStop != nil {
		return
	}
	stop := make(chan struct{})
	e.tickStop = stop
	interval := e.settings.TickInterval

	go func() {
		t := time.NewTicker(interval)
		defer t.Stop()
		for {
			select {
			case <-stop:
				return
			case <-t.C:
				e.tick()
			}
		}
	}()
}

func (e *Engine) stopTicker() {
	if e.tickStop != nil {
		close(e.tickStop)
		e.tickStop = nil
	}
}

// tick launches discovery once per run, detects completion and otherwise
// hands at most one queued directory to the pool
func (e *Engine) tick() {
	e.mu.Lock()
	r := e.run
	if r == nil || e.gate.state() != Started {
		e.mu.Unlock()
		return
	}

	if !r.discoveryLaunched {
		e.launchDiscovery(r)
	}

	if r.discoveryLaunched && !r.discoveryActive.Load() && e.queue.Len() == 0 && e.pool.InFlight() == 0 {
		e.agg.Flush()
		if e.agg.AnalysedFiles() > 0 {
			done := e.complete(r)
			hooks := slices.Clone(e.hooks)
			e.mu.Unlock()
			for _, hook := range hooks {
				hook(done)
			}
			return
		}
	}

	if task, ok := e.queue.Peek(); ok {
		if task.Epoch != r.epoch {
			e.queue.Pop()
		} else if e.pool.TrySubmit(e.scanJob(r, task)) {
			e.queue.Pop()
		}
	}
	e.mu.Unlock()
}

func (e *Engine) roots() ([]string, error) {
	if dir := e.settings.AnalyseFolder; dir != "" {
		return []string{filepath.Clean(dir)}, nil
	}
	return e.volumes()
}

func (e *Engine) launchDiscovery(r *run) {
	c := crawler.New(e.fs, e.queue, e.settings.ExcludeFolders, r.publisher, r.logger)
	c.Epoch = r.epoch
	c.SkipTree(e.bundles.Root())

	r.discoveryActive.Store(true)
	job := &parallel.Job{
		Kind:   "discover",
		Target: e.settings.AnalyseFolder,
		Run: func(context.Context) error {
			err := c.Run(e.roots, runGate{g: e.gate, epoch: r.epoch})
			r.discoveryActive.Store(false)
			if err == nil {
				r.logger.Info("discovery finished")
				return nil
			}

			e.mu.Lock()
			if e.run == r {
				r.discoveryLaunched = false
			}
			e.mu.Unlock()

			if errors.Is(err, crawler.ErrCanceled) {
				r.logger.Debug("discovery canceled")
			} else {
				r.logger.Warn("discovery aborted, will retry", "error", err)
			}
			return err
		},
	}

	if e.pool.TrySubmit(job) {
		r.discoveryLaunched = true
		return
	}
	r.discoveryActive.Store(false)
}

func (e *Engine) scanJob(r *run, task workqueue.Task) *parallel.Job {
	return &parallel.Job{
		Kind:   "scan",
		Target: task.Path,
		Run: func(context.Context) error {
			err := r.censor.ScanDirectory(r.ctx, task.Path, runGate{g: e.gate, epoch: r.epoch})
			if errors.Is(err, censor.ErrCanceled) {
				return err
			}
			if err != nil {
				r.logger.Debug("directory skipped", "path", task.Path, "error", err)
			}
			r.publisher.DirectoryScanned(task.Path)
			return nil
		},
	}
}

// complete writes the report and settles in Completed. Called with e.mu held
// once the run is quiescent.
func (e *Engine) complete(r *run) Completion {
	snap := e.agg.Snapshot()
	rep := report.New(r.id, e.now(), snap.Terms, snap.MatchedFiles)

	path, err := e.generator.Write(r.bundle.Dir(), rep)
	if err != nil {
		r.logger.Error("report not written", "error", err)
	}
	r.reportPath = path

	e.gate.set(Completed, e.epoch)
	e.stopTicker()
	r.cancel()
	e.agg.Notify()

	r.logger.Info("run completed",
		"analysed", snap.AnalysedFiles,
		"matched", len(snap.MatchedFiles),
		"directories", snap.CurrentDirectories,
		"report", path)

	return Completion{
		RunID:      r.id,
		BundleDir:  r.bundle.Dir(),
		ReportPath: path,
		Report:     rep,
		Exit:       e.settings.Hidden,
	}
}
