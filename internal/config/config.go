// Package config provides configuration management for srt-rx-console.
package config

import "time"

// Handshake mode values accepted by the receiver.
const (
	ModeListener = "listener"
	ModeCaller   = "caller"
)

// Session parameter bounds. These mirror the limits the operator form
// enforces: the port window reserved for SRT sessions, a timeout range that
// guarantees the receiver cannot run unattended forever, and the netem
// delay range that keeps impairment within realistic WAN territory.
const (
	PortMin = 9000
	PortMax = 9100

	TimeoutMin = 30 * time.Second
	TimeoutMax = 600 * time.Second

	NetemDelayMin = 10
	NetemDelayMax = 200
)

// Config holds all configuration options for the console.
type Config struct {
	// Session
	Version string        `yaml:"version"` // srt-live-transmit version tag
	Mode    string        `yaml:"mode"`    // listener or caller
	Address string        `yaml:"address"` // bind (listener) or peer (caller) IPv4
	Port    int           `yaml:"port"`
	Timeout time.Duration `yaml:"timeout"`

	// Network emulation
	NetemEnabled bool   `yaml:"netem"`
	NetemIface   string `yaml:"netem_iface"`
	NetemDelayMs int    `yaml:"netem_delay_ms"`

	// External binaries
	ReceiverPath     string `yaml:"receiver_path"` // "" = derive from Version
	FFprobePath      string `yaml:"ffprobe_path"`
	TCPath           string `yaml:"tc_path"`
	TrafficStatsPath string `yaml:"traffic_stats_path"`

	// Artifacts
	WorkDir string `yaml:"work_dir"`

	// Stats artifact
	StatsReportFrequency int `yaml:"stats_report_frequency"` // packets between CSV rows

	// Observability
	MetricsAddr string `yaml:"metrics_addr"`
	Verbose     bool   `yaml:"verbose"`
	LogFormat   string `yaml:"log_format"` // json, text

	// Operator surface
	TUIEnabled bool `yaml:"tui"`

	// Diagnostic modes
	PrintCmd    bool   `yaml:"-"`
	AnalyzePcap string `yaml:"-"` // analyze a capture file and exit

	// Optional YAML config file (flag only)
	File string `yaml:"-"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		// Session
		Version: "1.5.3",
		Mode:    ModeListener,
		Port:    9000,
		Timeout: 60 * time.Second,

		// Network emulation
		NetemDelayMs: NetemDelayMin,

		// Binaries
		FFprobePath:      "ffprobe",
		TCPath:           "tc",
		TrafficStatsPath: "get-traffic-stats",

		// Artifacts
		WorkDir: "./srt",

		StatsReportFrequency: 100,

		// Observability
		MetricsAddr: "0.0.0.0:17092",
		Verbose:     false,
		LogFormat:   "json",

		TUIEnabled: true,
	}
}

// ReceiverVersions lists the srt-live-transmit builds the console knows how
// to invoke (binary name is srt-live-transmit-v<version>).
var ReceiverVersions = []string{"1.5.3", "1.5.0", "1.4.4"}
