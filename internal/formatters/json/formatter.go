// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package json

import (
	"encoding/json"
	"fmt"

	"censor-scan/internal/formatters"
	"censor-scan/internal/report"
)

// Formatter implements JSON output formatting
type Formatter struct{}

// NewFormatter creates a new JSON formatter
func NewFormatter() *Formatter {
	return &Formatter{}
}

func (f *Formatter) Name() string {
	return "json"
}

func (f *Formatter) Description() string {
	return "Run report as JSON, the primary artifact of every bundle"
}

func (f *Formatter) FileExtension() string {
	return ".json"
}

func (f *Formatter) Format(r *report.RunReport) ([]byte, error) {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("error formatting JSON: %w", err)
	}
	return append(data, '\n'), nil
}

// Register the formatter during package initialization
func init() {
	formatters.Register(NewFormatter())
}
