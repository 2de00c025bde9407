package tui

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

func testModel() Model {
	return New(Config{
		ReceiverVersion: "1.5.3",
		Mode:            "listener",
		Address:         "10.0.0.5",
		Port:            9000,
		Timeout:         60 * time.Second,
		NetemDelayMs:    100,
		MetricsAddr:     "0.0.0.0:17092",
	})
}

func TestView_InitialState(t *testing.T) {
	view := testModel().View()

	for _, want := range []string{
		"srt-live-transmit v1.5.3",
		"srt://10.0.0.5:9000?mode=listener",
		"netem delay 100ms",
		"01:00",
		"Waiting for connection",
	} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}
}

func TestUpdate_Remaining(t *testing.T) {
	m := testModel()

	updated, _ := m.Update(RemainingMsg(42 * time.Second))
	m = updated.(Model)

	if m.Remaining() != 42*time.Second {
		t.Errorf("remaining = %v", m.Remaining())
	}
	if !strings.Contains(m.View(), "00:42") {
		t.Errorf("view does not show remaining time:\n%s", m.View())
	}
}

func TestUpdate_Connected(t *testing.T) {
	m := testModel()

	updated, _ := m.Update(ConnectedMsg("192.168.1.7:41566"))
	m = updated.(Model)

	if !m.Connected() {
		t.Error("connected flag not set")
	}
	view := m.View()
	if !strings.Contains(view, "192.168.1.7:41566") {
		t.Errorf("view missing endpoint:\n%s", view)
	}
	if strings.Contains(view, "Waiting for connection") {
		t.Errorf("view still waiting after connection:\n%s", view)
	}
}

func TestUpdate_TerminateKey(t *testing.T) {
	terminated := false
	m := New(Config{Timeout: 30 * time.Second, OnTerminate: func() { terminated = true }})

	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'t'}})
	m = updated.(Model)

	if !terminated {
		t.Error("terminate callback not invoked")
	}
	if cmd == nil {
		t.Fatal("no quit command returned")
	}
	if m.View() != "" {
		t.Errorf("quitting view not empty: %q", m.View())
	}
}

func TestUpdate_Done(t *testing.T) {
	m := testModel()

	updated, cmd := m.Update(DoneMsg{Expired: true})
	m = updated.(Model)

	if cmd == nil {
		t.Fatal("no quit command returned")
	}
	if m.View() != "" {
		t.Errorf("view after done: %q", m.View())
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{0, "00:00"},
		{-1 * time.Second, "00:00"},
		{59 * time.Second, "00:59"},
		{10 * time.Minute, "10:00"},
		{61 * time.Minute, "01:01:00"},
	}
	for _, tt := range tests {
		if got := formatDuration(tt.d); got != tt.want {
			t.Errorf("formatDuration(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}

func TestProgress(t *testing.T) {
	m := testModel()

	if got := m.progress(); got != 0 {
		t.Errorf("initial progress = %v", got)
	}

	updated, _ := m.Update(RemainingMsg(15 * time.Second))
	m = updated.(Model)
	if got := m.progress(); got < 0.74 || got > 0.76 {
		t.Errorf("progress at 15s/60s = %v, want 0.75", got)
	}

	updated, _ = m.Update(RemainingMsg(-5 * time.Second))
	m = updated.(Model)
	if got := m.progress(); got != 1 {
		t.Errorf("overrun progress = %v, want clamped to 1", got)
	}
}
