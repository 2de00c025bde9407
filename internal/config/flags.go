package config

import (
	"flag"
	"fmt"
	"os"
	"strings"
)

// ParseFlags parses command-line flags and returns a Config.
// If -config names a YAML file it is loaded first and flags override it.
func ParseFlags() (*Config, error) {
	return parseFlags(os.Args[1:])
}

func parseFlags(args []string) (*Config, error) {
	cfg := DefaultConfig()

	fs := flag.NewFlagSet("srt-rx-console", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `srt-rx-console - supervised srt-live-transmit receiver sessions

Usage:
  srt-rx-console [flags]

Session Flags:
`)
		printFlagCategory(fs, []string{"srt-version", "mode", "address", "port", "timeout"})

		fmt.Fprintf(os.Stderr, "\nNetwork Emulation:\n")
		printFlagCategory(fs, []string{"netem", "netem-iface", "netem-delay"})

		fmt.Fprintf(os.Stderr, "\nArtifacts / Binaries:\n")
		printFlagCategory(fs, []string{"workdir", "receiver", "ffprobe", "tc", "traffic-stats", "stats-freq"})

		fmt.Fprintf(os.Stderr, "\nObservability:\n")
		printFlagCategory(fs, []string{"metrics", "v", "log-format"})

		fmt.Fprintf(os.Stderr, "\nOperator Surface / Diagnostics:\n")
		printFlagCategory(fs, []string{"tui", "print-cmd", "analyze", "config"})

		fmt.Fprintf(os.Stderr, `
Examples:
  # Wait for a caller on port 9000 for 60 seconds
  srt-rx-console -mode listener -address 10.0.0.5 -port 9000 -timeout 60s

  # Call out to a listener with 50ms of injected delay on eth0
  srt-rx-console -mode caller -address 192.168.1.7 -netem -netem-iface eth0 -netem-delay 50

`)
	}

	// A first pass just to find -config (both "-config FILE" and
	// "-config=FILE" forms), so flags can override file values.
	var configFile string
	for i, arg := range args {
		switch {
		case arg == "-config" || arg == "--config":
			if i+1 < len(args) {
				configFile = args[i+1]
			}
		case strings.HasPrefix(arg, "-config="):
			configFile = strings.TrimPrefix(arg, "-config=")
		case strings.HasPrefix(arg, "--config="):
			configFile = strings.TrimPrefix(arg, "--config=")
		}
	}
	if configFile != "" {
		if err := LoadFile(configFile, cfg); err != nil {
			return nil, err
		}
	}

	// Session
	fs.StringVar(&cfg.Version, "srt-version", cfg.Version, "srt-live-transmit version tag (1.5.3, 1.5.0, 1.4.4)")
	fs.StringVar(&cfg.Mode, "mode", cfg.Mode, `Handshake mode: "listener" or "caller"`)
	fs.StringVar(&cfg.Address, "address", cfg.Address, "IPv4 address (bind for listener, peer for caller)")
	fs.IntVar(&cfg.Port, "port", cfg.Port, "Session port (9000-9100)")
	fs.DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "Session timeout (30s-600s)")

	// Network emulation
	fs.BoolVar(&cfg.NetemEnabled, "netem", cfg.NetemEnabled, "Apply netem delay to an interface for the session")
	fs.StringVar(&cfg.NetemIface, "netem-iface", cfg.NetemIface, "Interface to impair (required with -netem)")
	fs.IntVar(&cfg.NetemDelayMs, "netem-delay", cfg.NetemDelayMs, "Delay to inject in milliseconds (10-200)")

	// Artifacts / binaries
	fs.StringVar(&cfg.WorkDir, "workdir", cfg.WorkDir, "Directory for session artifacts")
	fs.StringVar(&cfg.ReceiverPath, "receiver", cfg.ReceiverPath, "Receiver binary path (default derives from -srt-version)")
	fs.StringVar(&cfg.FFprobePath, "ffprobe", cfg.FFprobePath, "Path to ffprobe binary")
	fs.StringVar(&cfg.TCPath, "tc", cfg.TCPath, "Path to tc binary")
	fs.StringVar(&cfg.TrafficStatsPath, "traffic-stats", cfg.TrafficStatsPath, "Path to get-traffic-stats binary")
	fs.IntVar(&cfg.StatsReportFrequency, "stats-freq", cfg.StatsReportFrequency, "Packets between stats CSV rows")

	// Observability
	fs.StringVar(&cfg.MetricsAddr, "metrics", cfg.MetricsAddr, "Metrics/status HTTP address")
	fs.BoolVar(&cfg.Verbose, "v", cfg.Verbose, "Verbose logging")
	fs.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, `Log format: "json" or "text"`)

	// Operator surface / diagnostics
	fs.BoolVar(&cfg.TUIEnabled, "tui", cfg.TUIEnabled, "Enable the countdown TUI (use -tui=false for headless)")
	fs.BoolVar(&cfg.PrintCmd, "print-cmd", cfg.PrintCmd, "Print the receiver command and exit")
	fs.StringVar(&cfg.AnalyzePcap, "analyze", cfg.AnalyzePcap, "Analyze a pcap/pcapng file with get-traffic-stats and exit")
	fs.StringVar(&cfg.File, "config", configFile, "YAML config file (flags override)")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	return cfg, nil
}

// printFlagCategory prints flags matching the given names (helper for usage).
func printFlagCategory(fs *flag.FlagSet, names []string) {
	fs.VisitAll(func(f *flag.Flag) {
		for _, name := range names {
			if f.Name == name {
				fmt.Fprintf(os.Stderr, "  -%s\n    \t%s", f.Name, f.Usage)
				if f.DefValue != "" && f.DefValue != "false" && f.DefValue != "0" && f.DefValue != "0s" {
					fmt.Fprintf(os.Stderr, " (default %s)", f.DefValue)
				}
				fmt.Fprintln(os.Stderr)
				return
			}
		}
	})
}
