// ABOUTME: TUI initialization and control
// ABOUTME: Wraps the bubbletea program and the action channels it feeds
package ui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// ActionKind identifies a user action
type ActionKind int

const (
	ActionBeep ActionKind = iota
	ActionStopOutput
)

// Action is a request from the dashboard to the daemon
type Action struct {
	Kind          ActionKind
	EnvironmentID string
}

// Controls holds channels for dashboard communication
type Controls struct {
	Actions chan Action
	Quit    chan struct{}
}

// NewControls creates a new control handler
func NewControls() *Controls {
	return &Controls{
		Actions: make(chan Action, 10),
		Quit:    make(chan struct{}, 1),
	}
}

func (c *Controls) send(a Action) {
	select {
	case c.Actions <- a:
	default:
		// Don't block the UI if the daemon is busy
	}
}

func (c *Controls) signalQuit() {
	select {
	case c.Quit <- struct{}{}:
	default:
	}
}

// NewModel creates a new TUI model
func NewModel(controls *Controls) Model {
	return Model{
		startTime: time.Now(),
		controls:  controls,
	}
}

// Run creates the TUI program; the caller runs it
func Run(controls *Controls) (*tea.Program, error) {
	p := tea.NewProgram(NewModel(controls), tea.WithAltScreen())
	return p, nil
}
