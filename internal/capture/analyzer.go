package capture

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/srt-tools/srt-rx-console/internal/logging"
	"github.com/srt-tools/srt-rx-console/internal/process"
)

// analysisGrace bounds how long an analysis run may take after the process
// is asked to stop.
const analysisGrace = 30 * time.Second

// resultHeaderLines is how many banner lines the analysis tool prints
// before the report body.
const resultHeaderLines = 2

// handle is the slice of process.Handle the analyzer needs.
type handle interface {
	Terminate()
	Join(grace time.Duration) error
	ExitCode() int
}

// launchFunc starts the analysis process. Swappable in tests.
type launchFunc func(ctx context.Context, runner process.Runner, opts process.Options, logger *slog.Logger) (handle, error)

// Analyzer runs the traffic-stats tool over a capture and materializes its
// report as the session's results artifact.
type Analyzer struct {
	binaryPath string
	logger     *slog.Logger

	launch launchFunc
}

// NewAnalyzer creates an Analyzer using the given traffic-stats binary.
func NewAnalyzer(binaryPath string, logger *slog.Logger) *Analyzer {
	return &Analyzer{
		binaryPath: binaryPath,
		logger:     logger,
		launch: func(ctx context.Context, runner process.Runner, opts process.Options, logger *slog.Logger) (handle, error) {
			return process.Launch(ctx, runner, opts, logger)
		},
	}
}

// Analyze verifies capturePath is a packet capture, runs the analysis tool
// over it, and writes the tool's stdout to resultsPath. It blocks until the
// tool exits.
func (a *Analyzer) Analyze(ctx context.Context, capturePath, resultsPath string) error {
	kind, err := Sniff(capturePath)
	if err != nil {
		return err
	}
	a.logger.Debug("capture_identified", "path", capturePath, "kind", kind.String())

	results, err := os.Create(resultsPath)
	if err != nil {
		return fmt.Errorf("failed to create results artifact: %w", err)
	}

	runner := process.NewTrafficStatsRunner(&process.TrafficStatsConfig{
		BinaryPath:  a.binaryPath,
		CapturePath: capturePath,
	})

	handle, err := a.launch(ctx, runner, process.Options{
		Stdout: results,
		Stderr: logging.NewStderrHandler(a.logger, false),
	}, a.logger)
	if err != nil {
		results.Close()
		return fmt.Errorf("failed to launch analysis: %w", err)
	}

	if err := handle.Join(analysisGrace); err != nil {
		handle.Terminate()
		return fmt.Errorf("analysis did not finish: %w", err)
	}
	if code := handle.ExitCode(); code != 0 {
		return fmt.Errorf("analysis exited with code %d", code)
	}
	return nil
}

// Output reads the results artifact and strips the tool's banner, returning
// only the report body.
func Output(resultsPath string) (string, error) {
	raw, err := os.ReadFile(resultsPath)
	if err != nil {
		return "", fmt.Errorf("failed to read results artifact: %w", err)
	}

	lines := strings.Split(string(raw), "\n")
	if len(lines) <= resultHeaderLines {
		return "", nil
	}
	return strings.Join(lines[resultHeaderLines:], "\n"), nil
}
