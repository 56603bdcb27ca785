// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package yaml

import (
	"fmt"

	"censor-scan/internal/formatters"
	"censor-scan/internal/report"

	"gopkg.in/yaml.v3"
)

// Formatter implements YAML output formatting
type Formatter struct{}

// NewFormatter creates a new YAML formatter
func NewFormatter() *Formatter {
	return &Formatter{}
}

func (f *Formatter) Name() string {
	return "yaml"
}

func (f *Formatter) Description() string {
	return "YAML format output with the same structure as report.json"
}

func (f *Formatter) FileExtension() string {
	return ".yaml"
}

func (f *Formatter) Format(r *report.RunReport) ([]byte, error) {
	data, err := yaml.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("error formatting YAML: %w", err)
	}
	return data, nil
}

// Register the formatter during package initialization
func init() {
	formatters.Register(NewFormatter())
}
