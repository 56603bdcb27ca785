// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package terms

import (
	"strings"
	"sync/atomic"
)

// WordCount pairs a censored word with a number of occurrences
type WordCount struct {
	Word  string `json:"word"`
	Count int    `json:"count"`
}

// Term is a single banned word and its running match count
type Term struct {
	text  string
	count atomic.Int64
}

// Text returns the banned word
func (t *Term) Text() string {
	return t.text
}

// Count returns the current number of matches recorded for the word
func (t *Term) Count() int {
	return int(t.count.Load())
}

// Registry holds the fixed set of banned words for the process lifetime.
// Only the counters change after construction.
type Registry struct {
	terms  []*Term
	byText map[string]*Term
}

// NewRegistry builds a registry from the configured words. Words are trimmed,
// empty entries are dropped and duplicates keep their first position.
func NewRegistry(words []string) *Registry {
	r := &Registry{
		byText: make(map[string]*Term, len(words)),
	}
	for _, w := range words {
		w = strings.TrimSpace(w)
		if w == "" {
			continue
		}
		if _, exists := r.byText[w]; exists {
			continue
		}
		t := &Term{text: w}
		r.terms = append(r.terms, t)
		r.byText[w] = t
	}
	return r
}

// Len returns the number of distinct banned words
func (r *Registry) Len() int {
	return len(r.terms)
}

// Words returns the banned words in configuration order
func (r *Registry) Words() []string {
	words := make([]string, len(r.terms))
	for i, t := range r.terms {
		words[i] = t.text
	}
	return words
}

// Add atomically adds n matches to word. It reports false for unknown words.
func (r *Registry) Add(word string, n int) bool {
	t, ok := r.byText[word]
	if !ok {
		return false
	}
	t.count.Add(int64(n))
	return true
}

// Count returns the match count for word, or 0 if it is not registered
func (r *Registry) Count(word string) int {
	if t, ok := r.byText[word]; ok {
		return t.Count()
	}
	return 0
}

// Reset zeroes every counter
func (r *Registry) Reset() {
	for _, t := range r.terms {
		t.count.Store(0)
	}
}

// Snapshot returns the current counts in configuration order
func (r *Registry) Snapshot() []WordCount {
	out := make([]WordCount, len(r.terms))
	for i, t := range r.terms {
		out[i] = WordCount{Word: t.text, Count: t.Count()}
	}
	return out
}
