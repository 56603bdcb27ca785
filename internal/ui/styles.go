// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package ui

import (
	"github.com/charmbracelet/lipgloss"

	"censor-scan/internal/engine"
)

var (
	ColorAccent = lipgloss.Color("63")
	ColorMuted  = lipgloss.Color("245")
	ColorOK     = lipgloss.Color("42")
	ColorWarn   = lipgloss.Color("214")
	ColorError  = lipgloss.Color("196")

	HeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("230")).
			Background(ColorAccent).
			Padding(0, 1)

	FooterStyle = lipgloss.NewStyle().
			Foreground(ColorMuted).
			Padding(0, 1)

	SectionStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorAccent).
			MarginTop(1)

	LabelStyle = lipgloss.NewStyle().Foreground(ColorMuted)
	ValueStyle = lipgloss.NewStyle().Bold(true)
	PathStyle  = lipgloss.NewStyle().Foreground(ColorMuted)
	ErrorStyle = lipgloss.NewStyle().Foreground(ColorError).Bold(true)
)

// stateStyle picks the badge color for a lifecycle state
func stateStyle(s engine.State) lipgloss.Style {
	base := lipgloss.NewStyle().Bold(true).Padding(0, 1)
	switch s {
	case engine.Started:
		return base.Foreground(ColorOK)
	case engine.Paused:
		return base.Foreground(ColorWarn)
	case engine.Completed:
		return base.Foreground(ColorAccent)
	case engine.BadConfig:
		return base.Foreground(ColorError)
	default:
		return base.Foreground(ColorMuted)
	}
}
