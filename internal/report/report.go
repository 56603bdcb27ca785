// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package report

import (
	"slices"
	"strings"
	"time"

	"censor-scan/internal/terms"
)

// FileEntry is the result for one file that matched at least one term
type FileEntry struct {
	Name  string            `json:"name" yaml:"name"`
	Path  string            `json:"path" yaml:"path"`
	Size  int64             `json:"size" yaml:"size"`
	Words []terms.WordCount `json:"words" yaml:"words"`
}

// Total returns the number of occurrences across all terms
func (f FileEntry) Total() int {
	n := 0
	for _, w := range f.Words {
		n += w.Count
	}
	return n
}

// RunReport is the summary written when a run completes
type RunReport struct {
	Name          string            `json:"name" yaml:"name"`
	CreatedTime   time.Time         `json:"createdTime" yaml:"createdTime"`
	CensoredWords []terms.WordCount `json:"censoredWords" yaml:"censoredWords"`
	Files         []FileEntry       `json:"files" yaml:"files"`
}

// New builds a report from snapshots. Files are ordered by path so the
// artifact does not depend on the order workers finished in.
func New(runID string, created time.Time, words []terms.WordCount, files []FileEntry) *RunReport {
	r := &RunReport{
		Name:          runID,
		CreatedTime:   created,
		CensoredWords: slices.Clone(words),
		Files:         slices.Clone(files),
	}
	if r.CensoredWords == nil {
		r.CensoredWords = []terms.WordCount{}
	}
	if r.Files == nil {
		r.Files = []FileEntry{}
	}
	slices.SortStableFunc(r.Files, func(a, b FileEntry) int {
		return strings.Compare(a.Path, b.Path)
	})
	return r
}

// TotalMatches returns the sum of all term counts
func (r *RunReport) TotalMatches() int {
	n := 0
	for _, w := range r.CensoredWords {
		n += w.Count
	}
	return n
}
