package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// Sink forwards countdown renders to a running Bubble Tea program. It
// satisfies the countdown loop's counter and connected sinks, so the loop
// never touches the terminal directly.
type Sink struct {
	program *tea.Program
}

// NewSink wraps a program.
func NewSink(program *tea.Program) *Sink {
	return &Sink{program: program}
}

// RenderRemaining forwards the remaining time.
func (s *Sink) RenderRemaining(remaining time.Duration) {
	if s.program != nil {
		s.program.Send(RemainingMsg(remaining))
	}
}

// RenderConnected forwards the connected endpoint.
func (s *Sink) RenderConnected(endpoint string) {
	if s.program != nil {
		s.program.Send(ConnectedMsg(endpoint))
	}
}

// Done tells the screen the session ended.
func (s *Sink) Done(expired bool) {
	if s.program != nil {
		s.program.Send(DoneMsg{Expired: expired})
	}
}
