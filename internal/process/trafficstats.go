package process

import (
	"context"
	"os/exec"
	"strings"
)

// TrafficStatsConfig configures one get-traffic-stats invocation over an
// uploaded packet capture.
type TrafficStatsConfig struct {
	// BinaryPath is the path to the get-traffic-stats binary.
	BinaryPath string

	// CapturePath is the pcap/pcapng file to analyze.
	CapturePath string

	// Side selects which flow direction to report. The console is always
	// the receiver, so this defaults to "rcv".
	Side string
}

// TrafficStatsRunner implements Runner for the capture-analysis tool.
// It follows the same lifecycle as the receiver: the tool's stdout is the
// result and is drained into the results artifact by the Handle.
type TrafficStatsRunner struct {
	config *TrafficStatsConfig
}

// NewTrafficStatsRunner creates a capture-analysis runner.
func NewTrafficStatsRunner(cfg *TrafficStatsConfig) *TrafficStatsRunner {
	if cfg.Side == "" {
		cfg.Side = "rcv"
	}
	return &TrafficStatsRunner{config: cfg}
}

// Name returns "traffic-stats".
func (r *TrafficStatsRunner) Name() string {
	return "traffic-stats"
}

// BuildCommand creates an exec.Cmd for the capture analysis.
func (r *TrafficStatsRunner) BuildCommand(ctx context.Context) (*exec.Cmd, error) {
	return exec.CommandContext(ctx, r.config.BinaryPath, r.buildArgs()...), nil
}

func (r *TrafficStatsRunner) buildArgs() []string {
	return []string{
		"--overwrite",
		"--side", r.config.Side,
		r.config.CapturePath,
	}
}

// CommandString returns the command that would be executed.
func (r *TrafficStatsRunner) CommandString() string {
	return r.config.BinaryPath + " " + strings.Join(r.buildArgs(), " ")
}
