package supervisor

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/srt-tools/srt-rx-console/internal/config"
	"github.com/srt-tools/srt-rx-console/internal/inspect"
	"github.com/srt-tools/srt-rx-console/internal/logging"
	"github.com/srt-tools/srt-rx-console/internal/netem"
	"github.com/srt-tools/srt-rx-console/internal/process"
)

const (
	// monitorGrace is how long the monitor waits after launch before its
	// first stats poll, giving the receiver time to create the artifact.
	monitorGrace = 1 * time.Second

	// monitorInterval is the fixed stats-artifact polling interval.
	monitorInterval = 1 * time.Second

	// teardownGrace bounds how long Stop waits for the process and its
	// drains after signalling termination.
	teardownGrace = 5 * time.Second
)

// Handle is the slice of process.Handle the supervisor needs. Narrowed to
// an interface so the monitor can be exercised without spawning processes.
type Handle interface {
	Alive() bool
	Terminate()
	Done() <-chan struct{}
	Join(grace time.Duration) error
}

// launchFunc starts the receiver process. Swappable in tests.
type launchFunc func(ctx context.Context, runner process.Runner, opts process.Options, logger *slog.Logger) (Handle, error)

// Supervisor owns one receiver session at a time.
//
// The connected flag is written exactly once per session by the monitor
// goroutine (false→true) and read by the countdown loop; an atomic.Bool is
// all the synchronization that single-writer monotonic signal needs. A
// fresh Start resets it, so the flag can never leak across sessions.
type Supervisor struct {
	cfg    *config.Config
	netem  *netem.Controller
	logger *slog.Logger

	launch launchFunc

	mu        sync.Mutex
	state     State
	handle    Handle
	artifacts *Artifacts
	scraper   EndpointScraper
	monitorWg sync.WaitGroup
	stop      chan struct{}

	connected atomic.Bool
}

// New creates a Supervisor. It owns no process until Start.
func New(cfg *config.Config, netemCtl *netem.Controller, logger *slog.Logger) *Supervisor {
	return &Supervisor{
		cfg:    cfg,
		netem:  netemCtl,
		logger: logger,
		state:  StateIdle,
		launch: func(ctx context.Context, runner process.Runner, opts process.Options, logger *slog.Logger) (Handle, error) {
			return process.Launch(ctx, runner, opts, logger)
		},
	}
}

// Start launches a receiver session from the supervisor's configuration.
//
// If a prior session is still running it is superseded: its process is
// terminated and its monitor joined before the new launch, so two sessions
// never overlap on the network interface. Artifacts are namespaced per
// session id, so they never overlap on disk either.
//
// A launch failure is fatal to the attempt and returned immediately.
func (s *Supervisor) Start(ctx context.Context) error {
	s.supersede()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.setStateLocked(StateLaunching)
	s.connected.Store(false)

	artifacts, err := NewArtifacts(s.cfg.WorkDir)
	if err != nil {
		s.setStateLocked(StateTerminated)
		return err
	}

	capture, err := os.Create(artifacts.Capture)
	if err != nil {
		s.setStateLocked(StateTerminated)
		return fmt.Errorf("failed to create capture file: %w", err)
	}

	runner := process.NewReceiverRunner(&process.ReceiverConfig{
		BinaryPath:           s.cfg.ReceiverPath,
		Version:              s.cfg.Version,
		Mode:                 s.cfg.Mode,
		Address:              s.cfg.Address,
		Port:                 s.cfg.Port,
		Timeout:              s.cfg.Timeout,
		StatsReportFrequency: s.cfg.StatsReportFrequency,
		StatsPath:            artifacts.Stats,
		LogPath:              artifacts.Log,
	})

	s.logger.Info("session_starting",
		"session_id", artifacts.SessionID,
		"command", runner.CommandString(),
	)

	handle, err := s.launch(ctx, runner, process.Options{
		Stdout: capture,
		Stderr: logging.NewStderrHandler(s.logger, s.cfg.Verbose),
	}, s.logger)
	if err != nil {
		capture.Close()
		s.setStateLocked(StateTerminated)
		return fmt.Errorf("failed to launch receiver: %w", err)
	}

	s.handle = handle
	s.artifacts = artifacts
	s.scraper = NewLogScraper(artifacts.Log)
	s.stop = make(chan struct{})
	s.setStateLocked(StateMonitoring)

	s.monitorWg.Add(1)
	go func() {
		defer s.monitorWg.Done()
		s.monitor(handle, artifacts, s.stop)
	}()

	return nil
}

// monitor polls the stats artifact until it turns non-empty, the process
// exits, or the session is stopped. The receiver writes the first stats row
// only after a peer connects, so a non-empty artifact is the connection
// signal. The loop cannot outlive the process: it selects on Done.
func (s *Supervisor) monitor(handle Handle, artifacts *Artifacts, stop <-chan struct{}) {
	select {
	case <-time.After(monitorGrace):
	case <-stop:
		return
	case <-handle.Done():
		return
	}

	for handle.Alive() {
		if artifacts.StatsReady() {
			s.connected.Store(true)
			s.setState(StateConnected)
			s.logger.Info("session_connected", "session_id", artifacts.SessionID)
			return
		}

		select {
		case <-time.After(monitorInterval):
		case <-stop:
			return
		case <-handle.Done():
			return
		}
	}
}

// ConnectionStatus returns whether the monitor has observed an established
// connection for the current session. Non-blocking, no side effects.
func (s *Supervisor) ConnectionStatus() bool {
	return s.connected.Load()
}

// ResetConnection clears the connected flag after a session ends, ahead of
// the next status refresh. It never runs mid-session: only the countdown's
// teardown and a fresh Start call it.
func (s *Supervisor) ResetConnection() {
	s.connected.Store(false)
}

// ConnectedEndpoint returns the peer endpoint scraped from the session log,
// or SentinelNoEndpoint when it cannot be determined (yet). Call it after
// ConnectionStatus reports true; it tolerates a still-growing log.
func (s *Supervisor) ConnectedEndpoint() string {
	s.mu.Lock()
	scraper := s.scraper
	s.mu.Unlock()

	if scraper == nil {
		return SentinelNoEndpoint
	}
	endpoint, ok := scraper.ConnectedEndpoint()
	if !ok {
		return SentinelNoEndpoint
	}
	return endpoint
}

// Running reports whether the current session's process is alive.
func (s *Supervisor) Running() bool {
	s.mu.Lock()
	handle := s.handle
	s.mu.Unlock()
	return handle != nil && handle.Alive()
}

// Stop terminates the current session's process and joins its monitor.
// Idempotent; safe with no session started.
func (s *Supervisor) Stop() {
	s.supersede()
}

// supersede tears down any prior session so a new one can take its place.
func (s *Supervisor) supersede() {
	s.mu.Lock()
	handle := s.handle
	stop := s.stop
	s.handle = nil
	s.stop = nil
	s.mu.Unlock()

	if stop != nil {
		close(stop)
	}
	if handle != nil {
		handle.Terminate()
		if err := handle.Join(teardownGrace); err != nil {
			s.logger.Warn("session_teardown_overran", "error", err)
		}
	}
	s.monitorWg.Wait()

	if handle != nil {
		s.setState(StateTerminated)
	}
}

// TransportStreamVerdict probes the captured output file. Indeterminate
// (not invalid) when probing fails or no session has produced a capture.
func (s *Supervisor) TransportStreamVerdict(ctx context.Context) inspect.Verdict {
	inspector := s.inspector()
	if inspector == nil {
		return inspect.VerdictIndeterminate
	}
	return inspector.FormatVerdict(ctx)
}

// Programs enumerates programs and streams of the captured output file.
// Nil when probing fails or no session has produced a capture.
func (s *Supervisor) Programs(ctx context.Context) *inspect.ProgramList {
	inspector := s.inspector()
	if inspector == nil {
		return nil
	}
	return inspector.Programs(ctx)
}

func (s *Supervisor) inspector() *inspect.Inspector {
	s.mu.Lock()
	artifacts := s.artifacts
	s.mu.Unlock()

	if artifacts == nil {
		return nil
	}
	return inspect.New(s.cfg.FFprobePath, artifacts.Capture, s.logger)
}

// AddNetworkEmulation applies a delay rule to the interface. Best-effort;
// the controller clears first so rules never stack.
func (s *Supervisor) AddNetworkEmulation(ctx context.Context, iface string, delayMs int) {
	s.netem.Apply(ctx, iface, delayMs)
}

// ClearNetworkEmulation removes any delay rule from the interface.
func (s *Supervisor) ClearNetworkEmulation(ctx context.Context, iface string) {
	s.netem.Clear(ctx, iface)
}

// State returns the current session state.
func (s *Supervisor) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// StateName returns the current session state's name. It exists so the
// status API can read the state without depending on the State type.
func (s *Supervisor) StateName() string {
	return s.State().String()
}

// SessionID returns the current session's id, or "" before the first Start.
func (s *Supervisor) SessionID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.artifacts == nil {
		return ""
	}
	return s.artifacts.SessionID
}

// Artifacts returns the current session's artifact layout, or nil before
// the first Start.
func (s *Supervisor) Artifacts() *Artifacts {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.artifacts
}

func (s *Supervisor) setState(state State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setStateLocked(state)
}

func (s *Supervisor) setStateLocked(state State) {
	if s.state != state {
		s.logger.Debug("session_state", "from", s.state.String(), "to", state.String())
		s.state = state
	}
}
