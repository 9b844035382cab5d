// ABOUTME: Bubbletea model for the audiocore dashboard
// ABOUTME: Shows registered environments and forwards key actions
package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/Resonate-Protocol/audiocore/pkg/audiomanager"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Model represents the TUI state
type Model struct {
	// Environments, sorted by id
	environments []audiomanager.EnvironmentStatus
	selected     int
	running      bool

	// Runtime
	startTime  time.Time
	goroutines int
	memAlloc   uint64
	memSys     uint64

	// Debug
	showDebug bool
	quitting  bool

	controls *Controls

	// Dimensions
	width  int
	height int
}

// StatusMsg updates TUI state
type StatusMsg struct {
	Running      *bool
	Environments []audiomanager.EnvironmentStatus
	Goroutines   int
	MemAlloc     uint64
	MemSys       uint64
}

type tickMsg time.Time

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return tickEvery()
}

func tickEvery() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	case tickMsg:
		return m, tickEvery()
	case StatusMsg:
		m.applyStatus(msg)
	}

	return m, nil
}

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205")).
			MarginBottom(1)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("86"))

	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("250"))

	envHeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("220"))

	selectedStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("212"))

	faintStyle = lipgloss.NewStyle().Faint(true)
)

// View renders the TUI
func (m Model) View() string {
	if m.quitting {
		return "Shutting down audiocore...\n"
	}

	var b strings.Builder

	b.WriteString(titleStyle.Render("audiocore"))
	b.WriteString("\n\n")

	state := "stopped"
	if m.running {
		state = "running"
	}
	b.WriteString(headerStyle.Render("Manager: "))
	b.WriteString(valueStyle.Render(state))
	b.WriteString("\n")

	b.WriteString(headerStyle.Render("Uptime: "))
	b.WriteString(valueStyle.Render(time.Since(m.startTime).Round(time.Second).String()))
	b.WriteString("\n\n")

	b.WriteString(envHeaderStyle.Render(fmt.Sprintf("Environments (%d)", len(m.environments))))
	b.WriteString("\n\n")

	if len(m.environments) == 0 {
		b.WriteString(valueStyle.Render("  No environments registered"))
		b.WriteString("\n")
	}
	for i, env := range m.environments {
		line := renderEnvironment(env)
		if i == m.selected {
			b.WriteString(selectedStyle.Render("> " + line))
		} else {
			b.WriteString(valueStyle.Render("  " + line))
		}
		b.WriteString("\n")
	}

	if m.showDebug {
		b.WriteString("\n")
		b.WriteString(m.renderDebug())
	}

	b.WriteString("\n")
	b.WriteString(faintStyle.Render("↑/↓:Select  b:Beep  s:Stop output  d:Debug  q:Quit"))

	return b.String()
}

// renderEnvironment renders one environment row
func renderEnvironment(env audiomanager.EnvironmentStatus) string {
	activity := "idle"
	if env.Outputting {
		activity = "playing"
	}
	return fmt.Sprintf("%s  [%s, %s]  queued:%d  streams:%d  out:%s",
		truncate(env.ID, 36), env.State, activity, env.QueueLength, env.Streams, env.OutputFormat)
}

// renderDebug renders runtime statistics
func (m Model) renderDebug() string {
	return fmt.Sprintf("DEBUG: goroutines:%d  alloc:%s  sys:%s\n",
		m.goroutines, formatBytes(m.memAlloc), formatBytes(m.memSys))
}

// handleKey handles keyboard input
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.quitting = true
		if m.controls != nil {
			m.controls.signalQuit()
		}
		return m, tea.Quit
	case "up", "k":
		if m.selected > 0 {
			m.selected--
		}
	case "down", "j":
		if m.selected < len(m.environments)-1 {
			m.selected++
		}
	case "b":
		if id, ok := m.selectedID(); ok && m.controls != nil {
			m.controls.send(Action{Kind: ActionBeep, EnvironmentID: id})
		}
	case "s":
		if id, ok := m.selectedID(); ok && m.controls != nil {
			m.controls.send(Action{Kind: ActionStopOutput, EnvironmentID: id})
		}
	case "d":
		m.showDebug = !m.showDebug
	}

	return m, nil
}

func (m Model) selectedID() (string, bool) {
	if m.selected < 0 || m.selected >= len(m.environments) {
		return "", false
	}
	return m.environments[m.selected].ID, true
}

// applyStatus updates model from status message
func (m *Model) applyStatus(msg StatusMsg) {
	if msg.Running != nil {
		m.running = *msg.Running
	}
	if msg.Environments != nil {
		m.environments = msg.Environments
		if m.selected >= len(m.environments) {
			m.selected = len(m.environments) - 1
		}
		if m.selected < 0 {
			m.selected = 0
		}
	}
	if msg.Goroutines != 0 {
		m.goroutines = msg.Goroutines
		m.memAlloc = msg.MemAlloc
		m.memSys = msg.MemSys
	}
}

// Utility functions
func truncate(s string, length int) string {
	if len(s) <= length {
		return s
	}
	return s[:length-3] + "..."
}

func formatBytes(n uint64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%dB", n)
	}
	div, exp := uint64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f%ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
