// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package engine

import (
	"time"

	"censor-scan/internal/censor"
	"censor-scan/internal/parallel"
)

// DefaultTickInterval is the scheduler period
const DefaultTickInterval = 2 * time.Millisecond

// Settings is the parsed engine configuration
type Settings struct {
	// CensoredWords are the banned terms; at least one is required
	CensoredWords []string
	// AnalyseFolder limits the scan to one tree. Empty means every ready volume.
	AnalyseFolder string
	// ReportsFolder receives one bundle directory per run
	ReportsFolder string
	// ExcludeFolders are case-insensitive path substrings to skip
	ExcludeFolders []string
	Autostart      bool
	// Hidden runs without an operator; the host exits when the run completes
	Hidden bool

	MaxWorkers   int
	TickInterval time.Duration
	Mask         string
	// ReportFormats are written next to report.json, e.g. "xlsx"
	ReportFormats []string
}

func (s Settings) withDefaults() Settings {
	if s.MaxWorkers <= 0 {
		s.MaxWorkers = parallel.DefaultWorkers()
	}
	if s.TickInterval <= 0 {
		s.TickInterval = DefaultTickInterval
	}
	if s.Mask == "" {
		s.Mask = censor.DefaultMask
	}
	return s
}
