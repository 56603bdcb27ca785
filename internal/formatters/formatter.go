// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package formatters

import (
	"fmt"
	"slices"
	"strings"

	"censor-scan/internal/report"
)

// Formatter interface defines methods that all report formatters must implement
type Formatter interface {
	// Format renders the run report in the formatter's output format
	Format(r *report.RunReport) ([]byte, error)

	// Name returns the name of the formatter (e.g., "json", "xlsx", "text")
	Name() string

	// Description returns a brief description of what this formatter outputs
	Description() string

	// FileExtension returns the file extension written for this format (e.g., ".json")
	FileExtension() string
}

// Registry holds all registered formatters
type Registry struct {
	formatters map[string]Formatter
}

// NewRegistry creates a new formatter registry
func NewRegistry() *Registry {
	return &Registry{
		formatters: make(map[string]Formatter),
	}
}

// Register adds a formatter to the registry
func (r *Registry) Register(formatter Formatter) {
	r.formatters[formatter.Name()] = formatter
}

// Get retrieves a formatter by name
func (r *Registry) Get(name string) (Formatter, bool) {
	formatter, exists := r.formatters[strings.ToLower(name)]
	return formatter, exists
}

// List returns all registered formatter names in sorted order
func (r *Registry) List() []string {
	names := make([]string, 0, len(r.formatters))
	for name := range r.formatters {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Encoders resolves names to report encoders, skipping duplicates
func (r *Registry) Encoders(names ...string) ([]report.Encoder, error) {
	var out []report.Encoder
	seen := make(map[string]bool)
	for _, name := range names {
		f, ok := r.Get(name)
		if !ok {
			return nil, fmt.Errorf("unsupported format '%s'. Available formats: %s", name, strings.Join(r.List(), ", "))
		}
		if seen[f.Name()] {
			continue
		}
		seen[f.Name()] = true
		out = append(out, f)
	}
	return out, nil
}

// DefaultRegistry is the global formatter registry
var DefaultRegistry = NewRegistry()

// Register is a convenience function to register a formatter with the default registry
func Register(formatter Formatter) {
	DefaultRegistry.Register(formatter)
}

// Get is a convenience function to get a formatter from the default registry
func Get(name string) (Formatter, bool) {
	return DefaultRegistry.Get(name)
}

// List is a convenience function to list all formatters in the default registry
func List() []string {
	return DefaultRegistry.List()
}
