package supervisor

import (
	"os"
	"path/filepath"
	"testing"
)

func writeLog(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "received.ts.log")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLogScraper_ExtractsFirstEndpoint(t *testing.T) {
	log := `14:05:51.632181 [I] SRT.cn: accepted connection
14:05:51.632245 [I] SRT.cn: @639manage: connected to peer 192.168.1.7:41566
14:05:52.110034 [I] SRT.cn: secondary peer 10.0.0.9:5000
`
	s := NewLogScraper(writeLog(t, log))

	endpoint, ok := s.ConnectedEndpoint()
	if !ok {
		t.Fatal("no endpoint found")
	}
	if endpoint != "192.168.1.7:41566" {
		t.Errorf("endpoint = %q", endpoint)
	}
}

func TestLogScraper_NoMatch(t *testing.T) {
	s := NewLogScraper(writeLog(t, "receiver starting\nwaiting for peer\n"))

	if endpoint, ok := s.ConnectedEndpoint(); ok {
		t.Errorf("unexpected endpoint %q from log without one", endpoint)
	}
}

func TestLogScraper_MissingLog(t *testing.T) {
	s := NewLogScraper(filepath.Join(t.TempDir(), "absent.log"))

	if _, ok := s.ConnectedEndpoint(); ok {
		t.Error("endpoint reported from missing log")
	}
}

func TestLogScraper_Idempotent(t *testing.T) {
	s := NewLogScraper(writeLog(t, "peer 10.1.2.3:9000 connected\n"))

	first, ok := s.ConnectedEndpoint()
	if !ok {
		t.Fatal("no endpoint found")
	}
	for i := 0; i < 3; i++ {
		again, ok := s.ConnectedEndpoint()
		if !ok || again != first {
			t.Fatalf("call %d returned %q/%v, first was %q", i, again, ok, first)
		}
	}
}

func TestLogScraper_PartialContent(t *testing.T) {
	// A log caught mid-write: prefix only, no endpoint yet. Must read as
	// "not yet", not error, then succeed once the line lands.
	path := writeLog(t, "14:05:51.632245 [I] SRT.cn: @639manage: connected to peer 192.168.")
	s := NewLogScraper(path)

	if _, ok := s.ConnectedEndpoint(); ok {
		t.Error("endpoint extracted from truncated address")
	}

	if err := os.WriteFile(path, []byte("connected to peer 192.168.1.7:41566\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	endpoint, ok := s.ConnectedEndpoint()
	if !ok || endpoint != "192.168.1.7:41566" {
		t.Errorf("endpoint = %q/%v after completion", endpoint, ok)
	}
}
