package process

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os/exec"
	"sync"
	"sync/atomic"
	"syscall"
	"time"
)

// LineHandler consumes stderr lines from a launched process.
type LineHandler interface {
	HandleReader(r io.Reader)
}

// Options configures how a Handle wires up a launched process.
type Options struct {
	// Stdout receives everything the process writes to stdout. For the
	// receiver this is the captured transport stream; for the capture
	// analyzer it is the processed results file. Closed by the Handle when
	// the stream ends. May be nil to discard stdout.
	Stdout io.WriteCloser

	// Stderr consumes the process's stderr lines. May be nil to discard.
	Stderr LineHandler
}

// Handle represents one live or terminated OS process.
//
// Liveness is observed lazily: a reaper goroutine waits on the process and
// flips the exited flag; Alive never blocks. Stdout is drained continuously
// from the moment of launch so the child can never stall on a full pipe.
type Handle struct {
	cmd    *exec.Cmd
	name   string
	logger *slog.Logger

	startTime time.Time

	exited   atomic.Bool
	exitCode atomic.Int64

	drainWg sync.WaitGroup
	done    chan struct{}

	termOnce sync.Once
}

// Launch builds the runner's command and starts it.
// A spawn failure is fatal to the attempt and returned immediately; there is
// no retry here.
func Launch(ctx context.Context, runner Runner, opts Options, logger *slog.Logger) (*Handle, error) {
	cmd, err := runner.BuildCommand(ctx)
	if err != nil {
		return nil, err
	}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, err
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, err
	}

	// Own process group so Terminate can signal children too.
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setpgid: true,
	}

	h := &Handle{
		cmd:    cmd,
		name:   runner.Name(),
		logger: logger,
		done:   make(chan struct{}),
	}

	h.startTime = time.Now()
	if err := cmd.Start(); err != nil {
		h.logger.Error("failed_to_start_process",
			"process", h.name,
			"error", err,
		)
		return nil, err
	}

	h.logger.Info("process_started",
		"process", h.name,
		"pid", cmd.Process.Pid,
	)

	// Drain stdout for the process's lifetime. This must start before
	// anything else: a full stdout pipe would block the child.
	h.drainWg.Add(1)
	go func() {
		defer h.drainWg.Done()
		h.drainStdout(stdout, opts.Stdout)
	}()

	h.drainWg.Add(1)
	go func() {
		defer h.drainWg.Done()
		if opts.Stderr != nil {
			opts.Stderr.HandleReader(stderr)
		} else {
			io.Copy(io.Discard, stderr)
		}
	}()

	// Reaper: the pipes must be fully read before Wait releases them.
	go func() {
		h.drainWg.Wait()
		waitErr := cmd.Wait()
		h.exitCode.Store(int64(extractExitCode(waitErr)))
		h.exited.Store(true)
		close(h.done)

		h.logger.Info("process_exited",
			"process", h.name,
			"pid", cmd.Process.Pid,
			"exit_code", h.exitCode.Load(),
			"uptime", time.Since(h.startTime).String(),
		)
	}()

	return h, nil
}

// drainStdout copies the process's stdout into the sink until the stream
// closes (process exit). Bytes, not lines: the receiver's stdout is the raw
// transport stream.
func (h *Handle) drainStdout(r io.Reader, sink io.WriteCloser) {
	if sink == nil {
		io.Copy(io.Discard, r)
		return
	}

	if _, err := io.Copy(sink, r); err != nil {
		h.logger.Warn("stdout_drain_error",
			"process", h.name,
			"error", err,
		)
	}
	if err := sink.Close(); err != nil {
		h.logger.Warn("stdout_sink_close_error",
			"process", h.name,
			"error", err,
		)
	}
}

// Alive reports whether the process is still running. Never blocks.
func (h *Handle) Alive() bool {
	return !h.exited.Load()
}

// PID returns the OS process id.
func (h *Handle) PID() int {
	return h.cmd.Process.Pid
}

// ExitCode returns the exit code once the process has exited, -1 before.
func (h *Handle) ExitCode() int {
	if h.Alive() {
		return -1
	}
	return int(h.exitCode.Load())
}

// Done returns a channel closed when the process has exited and its output
// streams are fully drained.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Terminate sends SIGTERM to the process group if the process is still
// alive. Idempotent; a no-op on an already-exited process. Does not wait
// for the process to exit.
func (h *Handle) Terminate() {
	if !h.Alive() {
		return
	}

	h.termOnce.Do(func() {
		pid := h.cmd.Process.Pid
		h.logger.Info("process_terminating", "process", h.name, "pid", pid)

		if pgid, err := syscall.Getpgid(pid); err == nil {
			syscall.Kill(-pgid, syscall.SIGTERM)
		} else {
			h.cmd.Process.Signal(syscall.SIGTERM)
		}
	})
}

// Join waits for the process to exit and its drains to finish, up to the
// grace period. Returns an error if the process outlived the grace.
func (h *Handle) Join(grace time.Duration) error {
	select {
	case <-h.done:
		return nil
	case <-time.After(grace):
		return errors.New("process did not exit within grace period")
	}
}

// extractExitCode extracts the exit code from a Wait() error.
func extractExitCode(err error) int {
	if err == nil {
		return 0
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		if status, ok := exitErr.Sys().(syscall.WaitStatus); ok {
			if status.Signaled() {
				// Signal exit: 128 + signal number
				return 128 + int(status.Signal())
			}
			return status.ExitStatus()
		}
	}

	return 1
}
