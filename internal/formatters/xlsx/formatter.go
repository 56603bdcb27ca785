// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package xlsx

import (
	"fmt"
	"strings"

	"censor-scan/internal/formatters"
	"censor-scan/internal/report"

	"github.com/xuri/excelize/v2"
)

// Sheet names in the workbook
const (
	WordsSheet = "Words"
	FilesSheet = "Files"
)

// Formatter writes the run report as an Excel workbook
type Formatter struct{}

// NewFormatter creates a new workbook formatter
func NewFormatter() *Formatter {
	return &Formatter{}
}

func (f *Formatter) Name() string {
	return "xlsx"
}

func (f *Formatter) Description() string {
	return "Excel workbook with a Words sheet and a Files sheet"
}

func (f *Formatter) FileExtension() string {
	return ".xlsx"
}

func (f *Formatter) Format(r *report.RunReport) ([]byte, error) {
	wb := excelize.NewFile()
	defer wb.Close()

	// the default sheet becomes the Words sheet
	wb.SetSheetName(wb.GetSheetName(0), WordsSheet)
	if _, err := wb.NewSheet(FilesSheet); err != nil {
		return nil, fmt.Errorf("failed to add sheet: %w", err)
	}

	rows := [][]any{{"Word", "Count"}}
	for _, w := range r.CensoredWords {
		rows = append(rows, []any{w.Word, w.Count})
	}
	if err := writeRows(wb, WordsSheet, rows); err != nil {
		return nil, err
	}

	rows = [][]any{{"Name", "Path", "Size", "Matches", "Words"}}
	for _, file := range r.Files {
		words := make([]string, 0, len(file.Words))
		for _, w := range file.Words {
			words = append(words, fmt.Sprintf("%s=%d", w.Word, w.Count))
		}
		rows = append(rows, []any{file.Name, file.Path, file.Size, file.Total(), strings.Join(words, ", ")})
	}
	if err := writeRows(wb, FilesSheet, rows); err != nil {
		return nil, err
	}

	buf, err := wb.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to encode workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func writeRows(wb *excelize.File, sheet string, rows [][]any) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := wb.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}

// Register the formatter during package initialization
func init() {
	formatters.Register(NewFormatter())
}
