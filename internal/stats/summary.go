package stats

import (
	"errors"
	"math"
	"time"

	"github.com/influxdata/tdigest"
)

// ErrNoRecords is returned when a summary is requested over zero rows.
var ErrNoRecords = errors.New("no stats records")

// Summary condenses a session's stats rows.
//
// Packet counters are cumulative in the artifact, so the last row carries the
// session totals. Jitter is the mean absolute difference between consecutive
// RTT samples.
type Summary struct {
	SessionTime time.Duration `json:"session_time"`
	Rows        int           `json:"rows"`

	MeanRTTMs         float64 `json:"mean_rtt_ms"`
	MeanJitterMs      float64 `json:"mean_jitter_ms"`
	MeanRecvRateMbps  float64 `json:"mean_recv_rate_mbps"`
	MeanBandwidthMbps float64 `json:"mean_bandwidth_mbps"`

	RTTP50Ms float64 `json:"rtt_p50_ms"`
	RTTP95Ms float64 `json:"rtt_p95_ms"`
	RTTP99Ms float64 `json:"rtt_p99_ms"`

	PktRecv       int64 `json:"pkt_recv"`
	PktRcvLoss    int64 `json:"pkt_rcv_loss"`
	PktRcvDrop    int64 `json:"pkt_rcv_drop"`
	PktRcvRetrans int64 `json:"pkt_rcv_retrans"`
}

// Summarize computes a Summary over records in artifact order.
func Summarize(records []Record) (*Summary, error) {
	if len(records) == 0 {
		return nil, ErrNoRecords
	}

	td := tdigest.NewWithCompression(100)

	var (
		rttSum    float64
		rateSum   float64
		bwSum     float64
		jitterSum float64
	)
	for i, rec := range records {
		rttSum += rec.RTTMs
		rateSum += rec.RecvRateMbps
		bwSum += rec.BandwidthMbps
		td.Add(rec.RTTMs, 1)
		if i > 0 {
			jitterSum += math.Abs(rec.RTTMs - records[i-1].RTTMs)
		}
	}

	n := float64(len(records))
	last := records[len(records)-1]

	s := &Summary{
		SessionTime:       time.Duration(last.TimeMs) * time.Millisecond,
		Rows:              len(records),
		MeanRTTMs:         rttSum / n,
		MeanRecvRateMbps:  rateSum / n,
		MeanBandwidthMbps: bwSum / n,
		RTTP50Ms:          td.Quantile(0.50),
		RTTP95Ms:          td.Quantile(0.95),
		RTTP99Ms:          td.Quantile(0.99),
		PktRecv:           last.PktRecv,
		PktRcvLoss:        last.PktRcvLoss,
		PktRcvDrop:        last.PktRcvDrop,
		PktRcvRetrans:     last.PktRcvRetrans,
	}
	if len(records) > 1 {
		s.MeanJitterMs = jitterSum / float64(len(records)-1)
	}
	return s, nil
}

// SummarizeFile loads the stats artifact at path and summarizes it.
func SummarizeFile(path string) (*Summary, error) {
	records, err := Load(path)
	if err != nil {
		return nil, err
	}
	return Summarize(records)
}
