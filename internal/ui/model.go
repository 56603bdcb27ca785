// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package ui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"censor-scan/internal/engine"
	"censor-scan/internal/progress"
)

const (
	// RefreshInterval is how often the console polls the engine
	RefreshInterval = 100 * time.Millisecond

	// MaxRecentShown bounds the recent files rendered on screen
	MaxRecentShown = 10

	keyHelp = "s/enter: start  p: pause  x: stop  q: quit"
)

// Controller is the part of the engine the console drives
type Controller interface {
	Start() error
	Pause()
	Stop() error
	State() engine.State
	Progress() progress.Snapshot
	BundleDir() string
	ReportPath() string
}

type refreshMsg time.Time

// Model is the operator console. It renders a polled view of the engine
// and maps key presses onto lifecycle commands.
type Model struct {
	ctrl    Controller
	version string

	width  int
	height int

	state      engine.State
	snap       progress.Snapshot
	bundleDir  string
	reportPath string
	lastErr    string
	started    time.Time

	quitting bool
}

// NewModel creates the console over ctrl
func NewModel(ctrl Controller, version string) *Model {
	m := &Model{ctrl: ctrl, version: version}
	m.refresh()
	return m
}

func refresh() tea.Cmd {
	return tea.Tick(RefreshInterval, func(t time.Time) tea.Msg {
		return refreshMsg(t)
	})
}

// Init starts the refresh loop
func (m *Model) Init() tea.Cmd {
	return refresh()
}

// Update handles key presses, resizes and refresh ticks
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		if m.quitting {
			return m, nil
		}
		switch msg.String() {
		case "ctrl+c", "q":
			m.quitting = true
			return m, tea.Quit
		case "s", "enter":
			m.setErr(m.ctrl.Start())
		case "p":
			m.ctrl.Pause()
		case "x":
			m.setErr(m.ctrl.Stop())
		}
		m.refresh()

	case refreshMsg:
		m.refresh()
		return m, refresh()
	}
	return m, nil
}

func (m *Model) setErr(err error) {
	if err != nil {
		m.lastErr = err.Error()
		return
	}
	m.lastErr = ""
}

func (m *Model) refresh() {
	prev := m.state
	m.state = m.ctrl.State()
	m.snap = m.ctrl.Progress()
	m.bundleDir = m.ctrl.BundleDir()
	m.reportPath = m.ctrl.ReportPath()

	if m.state == engine.Started && prev != engine.Started && prev != engine.Paused {
		m.started = time.Now()
	}
	if m.state == engine.Idle {
		m.started = time.Time{}
	}
}

// View renders the console
func (m *Model) View() string {
	if m.quitting {
		return "Exiting...\n"
	}

	var b strings.Builder

	title := fmt.Sprintf("censor-scan %s", m.version)
	header := lipgloss.JoinHorizontal(lipgloss.Top, title, "  ", stateStyle(m.state).Render(m.state.String()))
	if m.width > 0 {
		b.WriteString(HeaderStyle.Width(m.width).Render(header))
	} else {
		b.WriteString(HeaderStyle.Render(header))
	}
	b.WriteString("\n")

	matches := 0
	for _, t := range m.snap.Terms {
		matches += t.Count
	}

	b.WriteString(SectionStyle.Render("Progress"))
	b.WriteString("\n")
	m.row(&b, "Directories", fmt.Sprintf("%d / %d", m.snap.CurrentDirectories, m.snap.TotalDirectories))
	m.row(&b, "Analysed files", fmt.Sprintf("%d", m.snap.AnalysedFiles))
	m.row(&b, "Matched files", fmt.Sprintf("%d", len(m.snap.MatchedFiles)))
	m.row(&b, "Occurrences", fmt.Sprintf("%d", matches))
	if !m.started.IsZero() && m.state != engine.Completed {
		m.row(&b, "Elapsed", time.Since(m.started).Round(time.Second).String())
	}

	b.WriteString(SectionStyle.Render("Terms"))
	b.WriteString("\n")
	if len(m.snap.Terms) == 0 {
		b.WriteString(PathStyle.Render("  none"))
		b.WriteString("\n")
	}
	for _, t := range m.snap.Terms {
		m.row(&b, t.Word, fmt.Sprintf("%d", t.Count))
	}

	b.WriteString(SectionStyle.Render("Recent files"))
	b.WriteString("\n")
	recent := m.snap.RecentFiles[:min(len(m.snap.RecentFiles), MaxRecentShown)]
	for _, p := range recent {
		b.WriteString("  ")
		b.WriteString(PathStyle.Render(p))
		b.WriteString("\n")
	}

	if m.bundleDir != "" {
		b.WriteString("\n")
		m.row(&b, "Bundle", m.bundleDir)
	}
	if m.reportPath != "" && m.state == engine.Completed {
		m.row(&b, "Report", m.reportPath)
	}

	if m.lastErr != "" {
		b.WriteString("\n")
		b.WriteString(ErrorStyle.Render(m.lastErr))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(FooterStyle.Render(keyHelp))
	b.WriteString("\n")
	return b.String()
}

func (m *Model) row(b *strings.Builder, label, value string) {
	b.WriteString("  ")
	b.WriteString(LabelStyle.Render(fmt.Sprintf("%-20s", label)))
	b.WriteString(ValueStyle.Render(value))
	b.WriteString("\n")
}

// Run drives the console until the operator quits
func Run(ctrl Controller, version string, opts ...tea.ProgramOption) error {
	opts = append([]tea.ProgramOption{tea.WithAltScreen()}, opts...)
	_, err := tea.NewProgram(NewModel(ctrl, version), opts...).Run()
	return err
}
