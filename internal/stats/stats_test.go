package stats

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const sampleHeader = "Time,SocketID,pktFlowWindow,Timepoint,msRTT,mbpsRecvRate,mbpsBandwidth,byteAvailRcvBuf,msRcvBuf,pktRecv,pktRcvLoss,pktRcvDrop,pktRcvRetrans"

const sampleCSV = sampleHeader + `
100,639,8192,2026-08-29T14:05:51.7,25.0,4.8,96.3,12058624,120.0,412,0,0,0
200,639,8192,2026-08-29T14:05:51.8,27.0,5.1,95.9,12058112,121.0,833,2,0,1
300,639,8192,2026-08-29T14:05:51.9,23.0,5.0,96.1,12057600,119.5,1251,2,1,1
`

func TestParse_SampleRows(t *testing.T) {
	records, err := Parse(strings.NewReader(sampleCSV))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("records = %d, want 3", len(records))
	}

	first := records[0]
	if first.TimeMs != 100 || first.RTTMs != 25.0 || first.PktRecv != 412 {
		t.Errorf("first record = %+v", first)
	}
	if first.Timepoint != "2026-08-29T14:05:51.7" {
		t.Errorf("timepoint = %q", first.Timepoint)
	}

	last := records[2]
	if last.PktRcvLoss != 2 || last.PktRcvDrop != 1 || last.PktRcvRetrans != 1 {
		t.Errorf("last record counters = %+v", last)
	}
}

func TestParse_ColumnsByName(t *testing.T) {
	// Same fields, different order: parsing must not depend on positions.
	reordered := `msRTT,pktRecv,Time,mbpsBandwidth,mbpsRecvRate,pktRcvLoss,pktRcvDrop,pktRcvRetrans
30.5,99,500,80.0,3.3,1,0,0
`
	records, err := Parse(strings.NewReader(reordered))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("records = %d, want 1", len(records))
	}
	if records[0].TimeMs != 500 || records[0].RTTMs != 30.5 || records[0].PktRecv != 99 {
		t.Errorf("record = %+v", records[0])
	}
}

func TestParse_MissingColumn(t *testing.T) {
	_, err := Parse(strings.NewReader("Time,msRTT\n100,25.0\n"))
	if err == nil {
		t.Fatal("missing columns not reported")
	}
}

func TestParse_TruncatedTrailingRow(t *testing.T) {
	// The receiver may be mid-write when the artifact is read.
	truncated := sampleHeader + `
100,639,8192,t,25.0,4.8,96.3,12058624,120.0,412,0,0,0
200,639,8192,t,27.0,5.1,96`
	records, err := Parse(strings.NewReader(truncated))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(records) != 1 {
		t.Errorf("records = %d, want 1 complete row", len(records))
	}
}

func TestParse_EmptyBody(t *testing.T) {
	records, err := Parse(strings.NewReader(sampleHeader + "\n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("records = %d, want 0", len(records))
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.csv")); err == nil {
		t.Fatal("missing artifact not reported")
	}
}

func TestSummarize(t *testing.T) {
	records := []Record{
		{TimeMs: 1000, RTTMs: 20, RecvRateMbps: 4.0, BandwidthMbps: 90, PktRecv: 400},
		{TimeMs: 2000, RTTMs: 30, RecvRateMbps: 5.0, BandwidthMbps: 92, PktRecv: 800, PktRcvLoss: 1},
		{TimeMs: 3000, RTTMs: 25, RecvRateMbps: 6.0, BandwidthMbps: 94, PktRecv: 1200, PktRcvLoss: 2, PktRcvDrop: 1, PktRcvRetrans: 3},
	}

	s, err := Summarize(records)
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}

	if s.SessionTime != 3*time.Second {
		t.Errorf("session time = %v, want 3s", s.SessionTime)
	}
	if s.Rows != 3 {
		t.Errorf("rows = %d", s.Rows)
	}
	if got := s.MeanRTTMs; math.Abs(got-25.0) > 1e-9 {
		t.Errorf("mean rtt = %v, want 25", got)
	}
	// |30-20| = 10, |25-30| = 5, mean = 7.5
	if got := s.MeanJitterMs; math.Abs(got-7.5) > 1e-9 {
		t.Errorf("mean jitter = %v, want 7.5", got)
	}
	if got := s.MeanRecvRateMbps; math.Abs(got-5.0) > 1e-9 {
		t.Errorf("mean recv rate = %v, want 5", got)
	}

	// Cumulative counters come from the last row.
	if s.PktRecv != 1200 || s.PktRcvLoss != 2 || s.PktRcvDrop != 1 || s.PktRcvRetrans != 3 {
		t.Errorf("counters = %+v", s)
	}

	// Percentiles stay within the observed range and are ordered.
	if s.RTTP50Ms < 20 || s.RTTP50Ms > 30 {
		t.Errorf("p50 = %v outside sample range", s.RTTP50Ms)
	}
	if s.RTTP50Ms > s.RTTP95Ms || s.RTTP95Ms > s.RTTP99Ms {
		t.Errorf("percentiles not ordered: p50=%v p95=%v p99=%v", s.RTTP50Ms, s.RTTP95Ms, s.RTTP99Ms)
	}
}

func TestSummarize_SingleRow(t *testing.T) {
	s, err := Summarize([]Record{{TimeMs: 500, RTTMs: 40, PktRecv: 10}})
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if s.MeanJitterMs != 0 {
		t.Errorf("jitter over one sample = %v, want 0", s.MeanJitterMs)
	}
	if s.SessionTime != 500*time.Millisecond {
		t.Errorf("session time = %v", s.SessionTime)
	}
}

func TestSummarize_Empty(t *testing.T) {
	if _, err := Summarize(nil); !errors.Is(err, ErrNoRecords) {
		t.Errorf("err = %v, want ErrNoRecords", err)
	}
}

func TestSummarizeFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "received.ts.stats")
	if err := os.WriteFile(path, []byte(sampleCSV), 0o644); err != nil {
		t.Fatal(err)
	}

	s, err := SummarizeFile(path)
	if err != nil {
		t.Fatalf("SummarizeFile: %v", err)
	}
	if s.Rows != 3 || s.PktRecv != 1251 {
		t.Errorf("summary = %+v", s)
	}
}
