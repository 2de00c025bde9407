package logging

import (
	"bufio"
	"io"
	"log/slog"
	"strings"
	"sync"
)

const (
	// MaxLineLength is the maximum length of a receiver stderr line before truncation.
	MaxLineLength = 4096

	// MaxBufferedLines is the number of recent stderr lines retained for the
	// session exit summary.
	MaxBufferedLines = 100
)

// StderrHandler drains stderr from the receiver process. It keeps a ring of
// recent lines for the exit summary and forwards them to the logger at
// debug level (warn when the line looks like an SRT error).
type StderrHandler struct {
	logger  *slog.Logger
	verbose bool

	buffer []string
	bufIdx int
	total  int
	mu     sync.Mutex
}

// NewStderrHandler creates a stderr handler for a receiver process.
func NewStderrHandler(logger *slog.Logger, verbose bool) *StderrHandler {
	return &StderrHandler{
		logger:  logger,
		verbose: verbose,
		buffer:  make([]string, MaxBufferedLines),
	}
}

// HandleReader reads from r until EOF, processing each line.
// Run in a goroutine; returns when the process closes its stderr.
func (h *StderrHandler) HandleReader(r io.Reader) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, MaxLineLength), MaxLineLength)

	for scanner.Scan() {
		h.HandleLine(scanner.Text())
	}
}

// HandleLine processes a single line of receiver stderr output.
func (h *StderrHandler) HandleLine(line string) {
	if len(line) > MaxLineLength {
		line = line[:MaxLineLength] + "...(truncated)"
	}

	h.mu.Lock()
	h.buffer[h.bufIdx] = line
	h.bufIdx = (h.bufIdx + 1) % MaxBufferedLines
	h.total++
	h.mu.Unlock()

	switch {
	case strings.Contains(line, "ERROR") || strings.Contains(line, "!W:SRT"):
		h.logger.Warn("receiver_stderr", "line", line)
	case h.verbose:
		h.logger.Debug("receiver_stderr", "line", line)
	}
}

// RecentLines returns the buffered lines, oldest first.
func (h *StderrHandler) RecentLines() []string {
	h.mu.Lock()
	defer h.mu.Unlock()

	n := h.total
	if n > MaxBufferedLines {
		n = MaxBufferedLines
	}

	lines := make([]string, 0, n)
	start := h.bufIdx - n
	if start < 0 {
		start += MaxBufferedLines
	}
	for i := 0; i < n; i++ {
		lines = append(lines, h.buffer[(start+i)%MaxBufferedLines])
	}
	return lines
}
