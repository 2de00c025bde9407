package process

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// ReceiverConfig holds everything needed to construct one srt-live-transmit
// invocation. Fields are validated by the config package before they get
// here; the builder only assembles them.
type ReceiverConfig struct {
	// BinaryPath overrides the versioned binary name when set.
	BinaryPath string

	// Version selects the receiver build (binary srt-live-transmit-v<Version>).
	Version string

	// Mode is the handshake role: "listener" or "caller".
	Mode string

	// Address is the bind address (listener) or the peer (caller).
	Address string

	// Port is the session port.
	Port int

	// Timeout is how long the receiver waits before giving up.
	Timeout time.Duration

	// StatsReportFrequency is the packet interval between stats CSV rows.
	StatsReportFrequency int

	// StatsPath is where the receiver writes its CSV statistics artifact.
	StatsPath string

	// LogPath is where the receiver writes its free-text log.
	LogPath string
}

// ReceiverRunner implements Runner for the SRT receiver process.
//
// The receiver always acts as the flow receiver regardless of handshake
// role; stdout carries the received transport stream and is captured by the
// Handle's drain.
type ReceiverRunner struct {
	config *ReceiverConfig
}

// NewReceiverRunner creates a receiver runner with the given configuration.
func NewReceiverRunner(cfg *ReceiverConfig) *ReceiverRunner {
	return &ReceiverRunner{config: cfg}
}

// Name returns "srt-receiver".
func (r *ReceiverRunner) Name() string {
	return "srt-receiver"
}

// BuildCommand creates an exec.Cmd for the receiver with all configured options.
func (r *ReceiverRunner) BuildCommand(ctx context.Context) (*exec.Cmd, error) {
	return exec.CommandContext(ctx, r.binaryPath(), r.buildArgs()...), nil
}

// buildArgs constructs the receiver command-line arguments.
func (r *ReceiverRunner) buildArgs() []string {
	args := []string{
		"-fullstats",
		"-statspf:csv",
		"-stats-report-frequency:" + strconv.Itoa(r.config.StatsReportFrequency),
		"-statsout:" + r.config.StatsPath,
		"-loglevel:info",
		"-logfile:" + r.config.LogPath,
		"-to:" + strconv.Itoa(int(r.config.Timeout.Seconds())),
		r.sessionURI(),
		"file://con", // received payload to stdout, captured by the drain
	}
	return args
}

// sessionURI builds the srt:// endpoint with the handshake mode query.
func (r *ReceiverRunner) sessionURI() string {
	return fmt.Sprintf("srt://%s:%d?mode=%s", r.config.Address, r.config.Port, r.config.Mode)
}

// binaryPath returns the receiver binary to execute.
func (r *ReceiverRunner) binaryPath() string {
	if r.config.BinaryPath != "" {
		return r.config.BinaryPath
	}
	return "srt-live-transmit-v" + r.config.Version
}

// Config returns the receiver configuration.
func (r *ReceiverRunner) Config() *ReceiverConfig {
	return r.config
}

// CommandString returns the command that would be executed (for -print-cmd).
func (r *ReceiverRunner) CommandString() string {
	return r.binaryPath() + " " + strings.Join(r.buildArgs(), " ")
}
