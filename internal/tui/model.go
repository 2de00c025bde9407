package tui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// RemainingMsg carries the countdown's remaining time for the next render.
type RemainingMsg time.Duration

// ConnectedMsg carries the peer endpoint after the first connection.
type ConnectedMsg string

// DoneMsg signals the session has ended and the TUI should exit.
type DoneMsg struct {
	Expired bool
}

// Config holds TUI configuration.
type Config struct {
	ReceiverVersion string
	Mode            string
	Address         string
	Port            int
	Timeout         time.Duration
	NetemDelayMs    int // 0 = emulation disabled
	MetricsAddr     string

	// OnTerminate runs when the operator requests termination from the
	// keyboard. The program quits right after.
	OnTerminate func()
}

// Model represents the TUI state.
type Model struct {
	cfg Config

	remaining time.Duration
	connected bool
	endpoint  string
	expired   bool

	width    int
	height   int
	quitting bool
}

// New creates a new TUI model.
func New(cfg Config) Model {
	return Model{
		cfg:       cfg,
		remaining: cfg.Timeout,
		width:     80,
		height:    24,
	}
}

// Init initializes the model. All updates arrive via Program.Send, so there
// is no tick command to schedule.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "t", "q", "ctrl+c", "esc":
			m.quitting = true
			if m.cfg.OnTerminate != nil {
				m.cfg.OnTerminate()
			}
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case RemainingMsg:
		m.remaining = time.Duration(msg)
		return m, nil

	case ConnectedMsg:
		m.connected = true
		m.endpoint = string(msg)
		return m, nil

	case DoneMsg:
		m.quitting = true
		m.expired = msg.Expired
		return m, tea.Quit
	}

	return m, nil
}

// View renders the session screen.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	header := titleStyle.Render("SRT Receiver Session")

	uri := fmt.Sprintf("srt://%s:%d?mode=%s", m.cfg.Address, m.cfg.Port, m.cfg.Mode)
	lines := []string{
		renderKeyValue("Receiver", "srt-live-transmit v"+m.cfg.ReceiverVersion),
		renderKeyValue("URI", uri),
	}
	if m.cfg.NetemDelayMs > 0 {
		lines = append(lines, renderKeyValue("Emulation", fmt.Sprintf("netem delay %dms", m.cfg.NetemDelayMs)))
	}
	if m.cfg.MetricsAddr != "" {
		lines = append(lines, renderKeyValue("Metrics", "http://"+m.cfg.MetricsAddr+"/metrics"))
	}

	lines = append(lines, "",
		renderKeyValue("Remaining", countdownStyle.Render(formatDuration(m.remaining))),
		renderCountdownBar(m.progress(), 40),
		"",
		m.connectionLine(),
	)

	body := boxStyle.Render(strings.Join(lines, "\n"))
	footer := footerStyle.Render("t/q: terminate session")

	return header + "\n" + body + "\n" + footer + "\n"
}

func (m Model) connectionLine() string {
	if m.connected {
		return connectedStyle.Render("● Connected") + " " + valueStyle.Render(m.endpoint)
	}
	return waitingStyle.Render("○ Waiting for connection")
}

// progress is the elapsed fraction of the session, 0.0 at launch.
func (m Model) progress() float64 {
	if m.cfg.Timeout <= 0 {
		return 0
	}
	p := 1 - float64(m.remaining)/float64(m.cfg.Timeout)
	if p < 0 {
		return 0
	}
	if p > 1 {
		return 1
	}
	return p
}

// Remaining returns the last rendered remaining time.
func (m Model) Remaining() time.Duration {
	return m.remaining
}

// Connected reports whether a connection notification arrived.
func (m Model) Connected() bool {
	return m.connected
}

// formatDuration formats a duration as MM:SS, or HH:MM:SS past an hour.
func formatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	h := int(d.Hours())
	mins := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	if h > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", h, mins, s)
	}
	return fmt.Sprintf("%02d:%02d", mins, s)
}
