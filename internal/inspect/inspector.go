// Package inspect probes the captured output file with ffprobe.
//
// The console never parses the transport stream itself; it only asks
// ffprobe to describe the container and enumerate programs. Both calls are
// read-only and stateless.
package inspect

import (
	"context"
	"encoding/json"
	"log/slog"
	"os/exec"
)

// transportStreamFormat is the ffprobe format name for MPEG-TS.
const transportStreamFormat = "mpegts"

// Verdict is the three-way outcome of a container-format check.
//
// Indeterminate means the probe itself failed (binary error, unparseable
// output) and says nothing about the file. Callers must branch on all
// three values, not collapse this to a boolean.
type Verdict int

const (
	// VerdictIndeterminate means the probe failed; the file may still be valid.
	VerdictIndeterminate Verdict = iota

	// VerdictValid means ffprobe identified the file as a transport stream.
	VerdictValid

	// VerdictInvalid means ffprobe succeeded and reported another format.
	VerdictInvalid
)

// String returns a human-readable name for the verdict.
func (v Verdict) String() string {
	switch v {
	case VerdictValid:
		return "valid"
	case VerdictInvalid:
		return "invalid"
	default:
		return "indeterminate"
	}
}

// formatResult is the shape of ffprobe -show_format output.
type formatResult struct {
	Format struct {
		FormatName string `json:"format_name"`
	} `json:"format"`
}

// ProgramList is the decoded output of ffprobe -show_programs.
type ProgramList struct {
	Programs []Program `json:"programs"`
}

// Program describes one program in the transport stream.
type Program struct {
	ProgramID  int            `json:"program_id"`
	ProgramNum int            `json:"program_num"`
	NumStreams int            `json:"nb_streams"`
	Tags       map[string]any `json:"tags"`
	Streams    []Stream       `json:"streams"`
}

// Stream describes one elementary stream within a program.
type Stream struct {
	Index         int    `json:"index"`
	CodecName     string `json:"codec_name"`
	CodecLongName string `json:"codec_long_name"`
	Profile       string `json:"profile"`
	CodecType     string `json:"codec_type"`
	Width         int    `json:"width,omitempty"`
	Height        int    `json:"height,omitempty"`
	StartTime     string `json:"start_time"`
	Duration      string `json:"duration"`
	BitRate       string `json:"bit_rate"`
}

// execOutputFunc runs a command and returns its stdout. Swappable in tests.
type execOutputFunc func(ctx context.Context, name string, args ...string) ([]byte, error)

// Inspector probes a single captured file.
type Inspector struct {
	binaryPath string
	target     string
	logger     *slog.Logger

	execOutput execOutputFunc
}

// New creates an Inspector for the file at target.
func New(binaryPath, target string, logger *slog.Logger) *Inspector {
	return &Inspector{
		binaryPath: binaryPath,
		target:     target,
		logger:     logger,
		execOutput: func(ctx context.Context, name string, args ...string) ([]byte, error) {
			return exec.CommandContext(ctx, name, args...).Output()
		},
	}
}

// FormatVerdict asks ffprobe for the container format of the target.
func (i *Inspector) FormatVerdict(ctx context.Context) Verdict {
	output, err := i.execOutput(ctx, i.binaryPath,
		"-v", "error",
		"-show_format",
		"-of", "json",
		i.target,
	)
	if err != nil {
		i.logger.Info("format_probe_failed", "target", i.target, "error", err)
		return VerdictIndeterminate
	}

	var result formatResult
	if err := json.Unmarshal(output, &result); err != nil {
		i.logger.Info("format_probe_unparseable", "target", i.target, "error", err)
		return VerdictIndeterminate
	}

	if result.Format.FormatName == transportStreamFormat {
		return VerdictValid
	}
	return VerdictInvalid
}

// Programs asks ffprobe to enumerate the programs and streams of the target.
// Returns nil (and logs) when the probe fails or produces no program data.
func (i *Inspector) Programs(ctx context.Context) *ProgramList {
	output, err := i.execOutput(ctx, i.binaryPath,
		"-v", "error",
		"-show_programs",
		"-of", "json",
		i.target,
	)
	if err != nil {
		i.logger.Info("program_probe_failed", "target", i.target, "error", err)
		return nil
	}

	var list ProgramList
	if err := json.Unmarshal(output, &list); err != nil {
		i.logger.Info("program_probe_unparseable", "target", i.target, "error", err)
		return nil
	}

	if list.Programs == nil {
		return nil
	}
	return &list
}
