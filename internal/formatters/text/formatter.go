// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package text

import (
	"fmt"
	"strings"
	"time"

	"censor-scan/internal/formatters"
	"censor-scan/internal/report"

	"github.com/fatih/color"
)

const maxPathWidth = 60

// Formatter implements text-based output formatting
type Formatter struct {
	noColor bool
	colors  map[string]*color.Color
}

// NewFormatter creates a text formatter without colors, for report files
func NewFormatter() *Formatter {
	return newFormatter(true)
}

// NewConsoleFormatter creates a text formatter that colors its output
func NewConsoleFormatter() *Formatter {
	return newFormatter(false)
}

func newFormatter(noColor bool) *Formatter {
	return &Formatter{
		noColor: noColor,
		colors: map[string]*color.Color{
			"green":  color.New(color.FgGreen),
			"yellow": color.New(color.FgYellow),
			"red":    color.New(color.FgRed),
			"cyan":   color.New(color.FgCyan),
			"white":  color.New(color.FgWhite, color.Bold),
		},
	}
}

func (f *Formatter) Name() string {
	return "text"
}

func (f *Formatter) Description() string {
	return "Human-readable summary with term totals and a table of matched files"
}

func (f *Formatter) FileExtension() string {
	return ".txt"
}

func (f *Formatter) Format(r *report.RunReport) ([]byte, error) {
	var b strings.Builder

	f.write(&b, "white", "Run %s (%s)\n", r.Name, r.CreatedTime.Format(time.RFC3339))
	b.WriteString("\n")

	f.write(&b, "white", "%-30s %8s\n", "TERM", "COUNT")
	for _, w := range r.CensoredWords {
		c := "green"
		if w.Count > 0 {
			c = "red"
		}
		f.write(&b, c, "%-30s %8d\n", w.Word, w.Count)
	}
	b.WriteString("\n")

	if len(r.Files) == 0 {
		f.write(&b, "green", "No matches found.\n")
		return []byte(b.String()), nil
	}

	f.write(&b, "white", "%-*s %10s %8s  %s\n", maxPathWidth, "FILE", "SIZE", "MATCHES", "TERMS")
	b.WriteString(f.sprint("white", strings.Repeat("-", maxPathWidth+1+10+1+8+2+20)+"\n"))
	for _, file := range r.Files {
		fmt.Fprintf(&b, "%-*s %10d ", maxPathWidth, truncate(file.Path, maxPathWidth), file.Size)
		b.WriteString(f.sprint("yellow", fmt.Sprintf("%8d", file.Total())))
		b.WriteString("  ")
		b.WriteString(f.sprint("cyan", joinWords(file)))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	f.write(&b, "white", "%d files, %d occurrences\n", len(r.Files), r.TotalMatches())

	return []byte(b.String()), nil
}

func (f *Formatter) write(b *strings.Builder, c, format string, args ...any) {
	b.WriteString(f.sprint(c, fmt.Sprintf(format, args...)))
}

func (f *Formatter) sprint(c, s string) string {
	if f.noColor {
		return s
	}
	return f.colors[c].Sprint(s)
}

func joinWords(file report.FileEntry) string {
	parts := make([]string, 0, len(file.Words))
	for _, w := range file.Words {
		parts = append(parts, fmt.Sprintf("%s=%d", w.Word, w.Count))
	}
	return strings.Join(parts, ", ")
}

// truncate keeps the tail of long paths, where the file name is
func truncate(s string, width int) string {
	r := []rune(s)
	if len(r) <= width {
		return s
	}
	return "..." + string(r[len(r)-width+3:])
}

// Register the formatter during package initialization
func init() {
	formatters.Register(NewFormatter())
}
