// Package stats parses the receiver's CSV statistics artifact and computes
// the session summary the status API serves.
package stats

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
)

// Record is one stats row written by the receiver.
//
// Field names track the artifact's column headers; mbpsBandwidth is carried
// as Mbps exactly as the receiver reports it.
type Record struct {
	TimeMs            int64   // Time: ms since session start
	Timepoint         string  // Timepoint: wall-clock timestamp
	RTTMs             float64 // msRTT
	RecvRateMbps      float64 // mbpsRecvRate
	BandwidthMbps     float64 // mbpsBandwidth
	AvailRecvBufBytes int64   // byteAvailRcvBuf
	RecvBufMs         float64 // msRcvBuf
	PktRecv           int64   // pktRecv (cumulative)
	PktRcvLoss        int64   // pktRcvLoss (cumulative)
	PktRcvDrop        int64   // pktRcvDrop (cumulative)
	PktRcvRetrans     int64   // pktRcvRetrans (cumulative)
}

// requiredColumns are the headers the parser must find.
var requiredColumns = []string{
	"Time", "msRTT", "mbpsRecvRate", "mbpsBandwidth",
	"pktRecv", "pktRcvLoss", "pktRcvDrop", "pktRcvRetrans",
}

// Load reads and parses the stats artifact at path.
func Load(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open stats artifact: %w", err)
	}
	defer f.Close()

	return Parse(f)
}

// Parse decodes receiver stats CSV. Columns are located by header name so
// receiver versions that reorder or extend the schema still parse. The
// artifact may still be growing; a short or malformed trailing row is
// skipped, not an error.
func Parse(r io.Reader) ([]Record, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1 // tolerate a truncated final row
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read stats header: %w", err)
	}

	col := make(map[string]int, len(header))
	for i, name := range header {
		col[name] = i
	}
	for _, name := range requiredColumns {
		if _, ok := col[name]; !ok {
			return nil, fmt.Errorf("stats artifact missing column %q", name)
		}
	}

	field := func(row []string, name string) (string, bool) {
		i, ok := col[name]
		if !ok || i >= len(row) {
			return "", false
		}
		return row[i], true
	}

	var records []Record
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			// Mid-write garbage at the tail; keep what parsed.
			break
		}

		var rec Record
		ok := true

		if s, present := field(row, "Time"); present {
			rec.TimeMs, ok = parseInt(s)
		} else {
			ok = false
		}
		if s, present := field(row, "Timepoint"); present {
			rec.Timepoint = s
		}
		if ok {
			if s, present := field(row, "msRTT"); present {
				rec.RTTMs, ok = parseFloat(s)
			}
		}
		if ok {
			if s, present := field(row, "mbpsRecvRate"); present {
				rec.RecvRateMbps, ok = parseFloat(s)
			}
		}
		if ok {
			if s, present := field(row, "mbpsBandwidth"); present {
				rec.BandwidthMbps, ok = parseFloat(s)
			}
		}
		if s, present := field(row, "byteAvailRcvBuf"); present {
			if v, vok := parseInt(s); vok {
				rec.AvailRecvBufBytes = v
			}
		}
		if s, present := field(row, "msRcvBuf"); present {
			if v, vok := parseFloat(s); vok {
				rec.RecvBufMs = v
			}
		}
		if ok {
			if s, present := field(row, "pktRecv"); present {
				rec.PktRecv, ok = parseInt(s)
			}
		}
		if ok {
			if s, present := field(row, "pktRcvLoss"); present {
				rec.PktRcvLoss, ok = parseInt(s)
			}
		}
		if ok {
			if s, present := field(row, "pktRcvDrop"); present {
				rec.PktRcvDrop, ok = parseInt(s)
			}
		}
		if ok {
			if s, present := field(row, "pktRcvRetrans"); present {
				rec.PktRcvRetrans, ok = parseInt(s)
			}
		}

		if !ok {
			continue
		}
		records = append(records, rec)
	}

	return records, nil
}

func parseInt(s string) (int64, bool) {
	v, err := strconv.ParseInt(s, 10, 64)
	return v, err == nil
}

func parseFloat(s string) (float64, bool) {
	v, err := strconv.ParseFloat(s, 64)
	return v, err == nil
}
