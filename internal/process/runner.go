// Package process provides abstractions for running the console's external
// tools: the SRT receiver and the capture-analysis utility.
package process

import (
	"context"
	"os/exec"
)

// Runner creates executable commands for external workloads.
// The lifecycle (launch, poll, terminate) is shared by Handle; each workload
// contributes only its command construction.
type Runner interface {
	// BuildCommand returns a ready-to-start command.
	// The command should NOT be started yet.
	BuildCommand(ctx context.Context) (*exec.Cmd, error)

	// Name returns a human-readable name for this process type.
	Name() string
}
