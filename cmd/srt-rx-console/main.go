// Package main provides the srt-rx-console CLI entry point.
//
// srt-rx-console supervises one srt-live-transmit receiver session at a
// time: it launches the receiver, detects the incoming connection, runs a
// countdown until the session timeout, and inspects the captured transport
// stream when the session ends.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/srt-tools/srt-rx-console/internal/capture"
	"github.com/srt-tools/srt-rx-console/internal/config"
	"github.com/srt-tools/srt-rx-console/internal/countdown"
	"github.com/srt-tools/srt-rx-console/internal/logging"
	"github.com/srt-tools/srt-rx-console/internal/metrics"
	"github.com/srt-tools/srt-rx-console/internal/netem"
	"github.com/srt-tools/srt-rx-console/internal/process"
	"github.com/srt-tools/srt-rx-console/internal/stats"
	"github.com/srt-tools/srt-rx-console/internal/supervisor"
	"github.com/srt-tools/srt-rx-console/internal/tui"
)

// version is set at build time via ldflags:
//
//	go build -ldflags "-X main.version=1.0.0" ./cmd/srt-rx-console
var version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	// Handle version flag early (before flag parsing)
	if len(os.Args) > 1 {
		arg := os.Args[1]
		if arg == "-version" || arg == "--version" || arg == "version" {
			fmt.Printf("srt-rx-console %s\n", version)
			return 0
		}
	}

	cfg, err := config.ParseFlags()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing flags: %v\n", err)
		return 1
	}

	// When the TUI is enabled, suppress logs to avoid interfering with
	// screen rendering.
	var logger *slog.Logger
	if cfg.TUIEnabled && !cfg.PrintCmd && cfg.AnalyzePcap == "" {
		logger = logging.NewLoggerWithWriter(io.Discard, "json", "info")
	} else {
		logger = logging.NewLogger(cfg.LogFormat, "info", cfg.Verbose)
	}
	logging.SetDefault(logger)

	// Capture analysis is a standalone diagnostic: it needs no session
	// configuration, so it runs before validation.
	if cfg.AnalyzePcap != "" {
		return analyzeCapture(cfg, logger)
	}

	if err := config.Validate(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		return 1
	}

	if cfg.PrintCmd {
		printReceiverCommand(cfg)
		return 0
	}

	logger.Info("starting",
		"version", version,
		"receiver_version", cfg.Version,
		"mode", cfg.Mode,
		"address", cfg.Address,
		"port", cfg.Port,
		"timeout", cfg.Timeout.String(),
		"metrics_addr", cfg.MetricsAddr,
	)

	if !cfg.TUIEnabled {
		printBanner(cfg)
	}

	return runSession(cfg, logger)
}

func runSession(cfg *config.Config, logger *slog.Logger) int {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	collector := metrics.NewCollector(metrics.CollectorConfig{
		ReceiverVersion: cfg.Version,
		Mode:            cfg.Mode,
		Address:         cfg.Address,
		Port:            strconv.Itoa(cfg.Port),
		Timeout:         cfg.Timeout,
		NetemDelayMs:    cfg.NetemDelayMs,
	})

	netemCtl := netem.NewController(cfg.TCPath, logger)
	sup := supervisor.New(cfg, netemCtl, logger)

	server := metrics.NewServer(metrics.ServerConfig{
		Addr:   cfg.MetricsAddr,
		Status: sup,
		Summary: func() (*stats.Summary, error) {
			artifacts := sup.Artifacts()
			if artifacts == nil {
				return nil, stats.ErrNoRecords
			}
			return stats.SummarizeFile(artifacts.Stats)
		},
		Logger: logger,
	})
	server.Start()
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		server.Shutdown(shutdownCtx)
	}()

	if cfg.NetemEnabled {
		sup.AddNetworkEmulation(ctx, cfg.NetemIface, cfg.NetemDelayMs)
		collector.NetemApplied()
	}

	if err := sup.Start(ctx); err != nil {
		logger.Error("session_launch_failed", "error", err)
		return 1
	}
	collector.SessionLaunched()

	counter, connected, teardownUI := buildSinks(cfg, cancel)

	controller := countdown.New(countdown.Config{
		Source:    sup,
		Timeout:   cfg.Timeout,
		Counter:   &meteredCounter{inner: counter, collector: collector},
		Connected: &meteredConnected{inner: connected, collector: collector},
		Logger:    logger,
		Cleanup: func(ctx context.Context) {
			sup.Stop()
			if cfg.NetemEnabled {
				sup.ClearNetworkEmulation(ctx, cfg.NetemIface)
				collector.NetemCleared()
			}
			collector.SessionEnded()
		},
	})

	result := controller.Run(ctx)
	if result.Expired {
		collector.SessionExpired()
	}
	teardownUI(result.Expired)

	printSessionReport(cfg, sup, result)
	return 0
}

// buildSinks wires the countdown's render sinks to either the TUI or plain
// stdout, returning a teardown to run once the session ends.
func buildSinks(cfg *config.Config, cancel context.CancelFunc) (countdown.CounterSink, countdown.ConnectedSink, func(expired bool)) {
	if !cfg.TUIEnabled {
		sink := &plainSink{}
		return sink, sink, func(bool) { fmt.Println() }
	}

	model := tui.New(tui.Config{
		ReceiverVersion: cfg.Version,
		Mode:            cfg.Mode,
		Address:         cfg.Address,
		Port:            cfg.Port,
		Timeout:         cfg.Timeout,
		NetemDelayMs:    netemDelay(cfg),
		MetricsAddr:     cfg.MetricsAddr,
		OnTerminate:     cancel,
	})
	program := tea.NewProgram(model, tea.WithAltScreen())

	done := make(chan struct{})
	go func() {
		defer close(done)
		program.Run()
	}()

	sink := tui.NewSink(program)
	return sink, sink, func(expired bool) {
		sink.Done(expired)
		<-done
	}
}

func netemDelay(cfg *config.Config) int {
	if !cfg.NetemEnabled {
		return 0
	}
	return cfg.NetemDelayMs
}

// plainSink renders the countdown on stdout for headless runs.
type plainSink struct{}

func (p *plainSink) RenderRemaining(remaining time.Duration) {
	fmt.Printf("\rremaining %-8s", remaining.String())
}

func (p *plainSink) RenderConnected(endpoint string) {
	fmt.Printf("\nconnected to %s\n", endpoint)
}

// meteredCounter forwards renders and keeps the tick metrics current.
type meteredCounter struct {
	inner     countdown.CounterSink
	collector *metrics.Collector
}

func (m *meteredCounter) RenderRemaining(remaining time.Duration) {
	m.collector.Tick(remaining)
	m.inner.RenderRemaining(remaining)
}

// meteredConnected forwards the connected notification and counts it.
type meteredConnected struct {
	inner     countdown.ConnectedSink
	collector *metrics.Collector
}

func (m *meteredConnected) RenderConnected(endpoint string) {
	m.collector.Connected()
	m.inner.RenderConnected(endpoint)
}

// printSessionReport inspects the session's artifacts after the countdown
// ends and prints the outcome.
func printSessionReport(cfg *config.Config, sup *supervisor.Supervisor, result countdown.Result) {
	fmt.Println()
	fmt.Println("Session report")
	fmt.Println("--------------")

	if !result.Connected {
		fmt.Println("  Connection:  none")
		return
	}
	fmt.Printf("  Connection:  %s\n", result.Endpoint)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	verdict := sup.TransportStreamVerdict(ctx)
	fmt.Printf("  MPEG-TS:     %s\n", verdict.String())

	if programs := sup.Programs(ctx); programs != nil {
		for _, program := range programs.Programs {
			fmt.Printf("  Program %d:\n", program.ProgramID)
			for _, stream := range program.Streams {
				fmt.Printf("    stream %d: %s (%s)\n", stream.Index, stream.CodecName, stream.CodecType)
			}
		}
	}

	artifacts := sup.Artifacts()
	if artifacts == nil {
		return
	}
	summary, err := stats.SummarizeFile(artifacts.Stats)
	if err != nil {
		return
	}
	fmt.Printf("  Session:     %s over %d stats rows\n", summary.SessionTime.String(), summary.Rows)
	fmt.Printf("  RTT:         mean %.1fms  p50 %.1fms  p95 %.1fms  p99 %.1fms\n",
		summary.MeanRTTMs, summary.RTTP50Ms, summary.RTTP95Ms, summary.RTTP99Ms)
	fmt.Printf("  Jitter:      mean %.2fms\n", summary.MeanJitterMs)
	fmt.Printf("  Rate:        %.2f Mbps (link estimate %.2f Mbps)\n",
		summary.MeanRecvRateMbps, summary.MeanBandwidthMbps)
	fmt.Printf("  Packets:     recv %d  loss %d  drop %d  retrans %d\n",
		summary.PktRecv, summary.PktRcvLoss, summary.PktRcvDrop, summary.PktRcvRetrans)
	fmt.Printf("  Artifacts:   %s\n", artifacts.Dir)
}

// analyzeCapture runs get-traffic-stats over a capture file and prints the
// trimmed report.
func analyzeCapture(cfg *config.Config, logger *slog.Logger) int {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	info, err := capture.Describe(cfg.AnalyzePcap)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	fmt.Printf("%s: %s, %d packets, %d bytes, link %s\n",
		filepath.Base(cfg.AnalyzePcap), info.Kind.String(), info.Packets, info.Bytes, info.LinkType)

	resultsPath := cfg.AnalyzePcap + ".processed"
	analyzer := capture.NewAnalyzer(cfg.TrafficStatsPath, logger)
	if err := analyzer.Analyze(ctx, cfg.AnalyzePcap, resultsPath); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	output, err := capture.Output(resultsPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	fmt.Print(output)
	return 0
}

// printBanner prints the startup banner for headless runs.
func printBanner(cfg *config.Config) {
	fmt.Println()
	fmt.Println("╔═══════════════════════════════════════════════════════════════════╗")
	fmt.Println("║                          srt-rx-console                           ║")
	fmt.Println("║          Supervised srt-live-transmit Receiver Sessions           ║")
	fmt.Println("╚═══════════════════════════════════════════════════════════════════╝")
	fmt.Println()
	fmt.Printf("  Receiver:    srt-live-transmit v%s\n", cfg.Version)
	fmt.Printf("  URI:         srt://%s:%d?mode=%s\n", cfg.Address, cfg.Port, cfg.Mode)
	fmt.Printf("  Timeout:     %s\n", cfg.Timeout)
	fmt.Printf("  Artifacts:   %s\n", cfg.WorkDir)
	fmt.Printf("  Metrics:     http://%s/metrics\n", cfg.MetricsAddr)
	if cfg.NetemEnabled {
		fmt.Printf("  Emulation:   netem delay %dms on %s\n", cfg.NetemDelayMs, cfg.NetemIface)
	}
	fmt.Println()
	fmt.Println("Press Ctrl+C to stop.")
	fmt.Println()
}

// printReceiverCommand prints the receiver command that would be generated.
func printReceiverCommand(cfg *config.Config) {
	runner := process.NewReceiverRunner(&process.ReceiverConfig{
		BinaryPath:           cfg.ReceiverPath,
		Version:              cfg.Version,
		Mode:                 cfg.Mode,
		Address:              cfg.Address,
		Port:                 cfg.Port,
		Timeout:              cfg.Timeout,
		StatsReportFrequency: cfg.StatsReportFrequency,
		StatsPath:            filepath.Join(cfg.WorkDir, "received.ts.stats"),
		LogPath:              filepath.Join(cfg.WorkDir, "received.ts.log"),
	})

	fmt.Println("# Receiver command that would be run:")
	fmt.Println()
	fmt.Println(runner.CommandString() + " > received.ts")
}
