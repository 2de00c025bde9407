// Package netem applies and removes netem delay rules on a host interface
// via the tc traffic-control utility.
//
// Emulation is best-effort instrumentation: a failure to apply or clear a
// rule is logged and swallowed, never propagated, so it can never block or
// abort a session.
package netem

import (
	"context"
	"log/slog"
	"os/exec"
	"strconv"
)

// runCommandFunc executes a command and returns combined output. Swappable
// in tests.
type runCommandFunc func(ctx context.Context, name string, args ...string) ([]byte, error)

// Controller manages at most one delay rule per interface.
//
// tc itself happily stacks duplicate netem qdiscs, so Apply always clears
// first; callers that clear explicitly before applying get the same result.
type Controller struct {
	tcPath string
	logger *slog.Logger

	runCommand runCommandFunc
}

// NewController creates a netem controller using the tc binary at tcPath.
func NewController(tcPath string, logger *slog.Logger) *Controller {
	return &Controller{
		tcPath: tcPath,
		logger: logger,
		runCommand: func(ctx context.Context, name string, args ...string) ([]byte, error) {
			return exec.CommandContext(ctx, name, args...).CombinedOutput()
		},
	}
}

// Apply adds a delay rule to the named interface. Clears any existing rule
// first so at most one rule is ever active.
func (c *Controller) Apply(ctx context.Context, iface string, delayMs int) {
	c.Clear(ctx, iface)

	output, err := c.runCommand(ctx, c.tcPath,
		"qdisc", "add", "dev", iface, "root", "netem",
		"delay", strconv.Itoa(delayMs)+"ms",
	)
	if err != nil {
		c.logger.Info("netem_apply_failed",
			"iface", iface,
			"delay_ms", delayMs,
			"error", err,
			"output", string(output),
		)
		return
	}

	c.logger.Info("netem_applied", "iface", iface, "delay_ms", delayMs)
}

// Clear removes the delay rule from the named interface. Clearing an
// interface with no rule is a logged no-op; tc errors in that case and the
// error is deliberately swallowed.
func (c *Controller) Clear(ctx context.Context, iface string) {
	output, err := c.runCommand(ctx, c.tcPath,
		"qdisc", "del", "dev", iface, "root", "netem",
	)
	if err != nil {
		c.logger.Debug("netem_clear_failed",
			"iface", iface,
			"error", err,
			"output", string(output),
		)
		return
	}

	c.logger.Info("netem_cleared", "iface", iface)
}
