package process

import (
	"context"
	"strings"
	"testing"
	"time"
)

func testReceiverConfig() *ReceiverConfig {
	return &ReceiverConfig{
		Version:              "1.5.3",
		Mode:                 "listener",
		Address:              "10.0.0.5",
		Port:                 9000,
		Timeout:              60 * time.Second,
		StatsReportFrequency: 100,
		StatsPath:            "srt/received.ts.stats",
		LogPath:              "srt/received.ts.log",
	}
}

func TestReceiverRunner_BuildArgs(t *testing.T) {
	r := NewReceiverRunner(testReceiverConfig())
	cmd := r.CommandString()

	for _, want := range []string{
		"srt-live-transmit-v1.5.3",
		"-fullstats",
		"-statspf:csv",
		"-stats-report-frequency:100",
		"-statsout:srt/received.ts.stats",
		"-loglevel:info",
		"-logfile:srt/received.ts.log",
		"-to:60",
		"srt://10.0.0.5:9000?mode=listener",
		"file://con",
	} {
		if !strings.Contains(cmd, want) {
			t.Errorf("command %q missing %q", cmd, want)
		}
	}
}

func TestReceiverRunner_CallerMode(t *testing.T) {
	cfg := testReceiverConfig()
	cfg.Mode = "caller"
	cfg.Address = "192.168.1.7"
	cfg.Port = 9042

	r := NewReceiverRunner(cfg)
	if uri := r.sessionURI(); uri != "srt://192.168.1.7:9042?mode=caller" {
		t.Errorf("sessionURI = %q", uri)
	}
}

func TestReceiverRunner_TimeoutInSeconds(t *testing.T) {
	cfg := testReceiverConfig()
	cfg.Timeout = 90 * time.Second

	r := NewReceiverRunner(cfg)
	if cmd := r.CommandString(); !strings.Contains(cmd, "-to:90") {
		t.Errorf("command %q missing -to:90", cmd)
	}
}

func TestReceiverRunner_BinaryOverride(t *testing.T) {
	cfg := testReceiverConfig()
	cfg.BinaryPath = "/opt/srt/bin/srt-live-transmit"

	r := NewReceiverRunner(cfg)
	if got := r.binaryPath(); got != "/opt/srt/bin/srt-live-transmit" {
		t.Errorf("binaryPath = %q", got)
	}
}

func TestReceiverRunner_BuildCommand(t *testing.T) {
	r := NewReceiverRunner(testReceiverConfig())
	cmd, err := r.BuildCommand(context.Background())
	if err != nil {
		t.Fatalf("BuildCommand: %v", err)
	}
	if len(cmd.Args) != 10 {
		t.Errorf("args = %d, want 10: %v", len(cmd.Args), cmd.Args)
	}
	// The payload sink must be the last argument, after the session URI.
	if cmd.Args[len(cmd.Args)-1] != "file://con" {
		t.Errorf("last arg = %q, want file://con", cmd.Args[len(cmd.Args)-1])
	}
}

func TestTrafficStatsRunner_BuildArgs(t *testing.T) {
	r := NewTrafficStatsRunner(&TrafficStatsConfig{
		BinaryPath:  "get-traffic-stats",
		CapturePath: "pcaps/upload.pcap",
	})

	cmd := r.CommandString()
	for _, want := range []string{"--overwrite", "--side rcv", "pcaps/upload.pcap"} {
		if !strings.Contains(cmd, want) {
			t.Errorf("command %q missing %q", cmd, want)
		}
	}
}
