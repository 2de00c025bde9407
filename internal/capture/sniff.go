// Package capture identifies and analyzes uploaded packet captures.
package capture

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/google/gopacket"
	"github.com/google/gopacket/pcapgo"
)

// Kind is the detected capture file format.
type Kind int

const (
	KindUnknown Kind = iota
	KindPcap
	KindPcapNg
)

func (k Kind) String() string {
	switch k {
	case KindPcap:
		return "pcap"
	case KindPcapNg:
		return "pcapng"
	default:
		return "unknown"
	}
}

// ErrNotCapture is returned when a file is neither pcap nor pcapng.
var ErrNotCapture = errors.New("not a packet capture")

// Info describes a sniffed capture file.
type Info struct {
	Kind     Kind
	LinkType string
	Packets  int
	Bytes    int64
}

// Sniff detects the capture format by header. Both readers validate magic
// numbers on construction, so a failed construction means the format does
// not match.
func Sniff(path string) (Kind, error) {
	f, err := os.Open(path)
	if err != nil {
		return KindUnknown, fmt.Errorf("failed to open capture: %w", err)
	}
	defer f.Close()

	if _, err := pcapgo.NewReader(f); err == nil {
		return KindPcap, nil
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return KindUnknown, err
	}
	if _, err := pcapgo.NewNgReader(f, pcapgo.DefaultNgReaderOptions); err == nil {
		return KindPcapNg, nil
	}
	return KindUnknown, ErrNotCapture
}

// Describe sniffs the capture and walks its packets, returning the format,
// link type, and packet totals. A capture truncated mid-packet still yields
// the packets read up to the truncation.
func Describe(path string) (*Info, error) {
	kind, err := Sniff(path)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open capture: %w", err)
	}
	defer f.Close()

	info := &Info{Kind: kind}

	switch kind {
	case KindPcap:
		r, err := pcapgo.NewReader(f)
		if err != nil {
			return nil, err
		}
		info.LinkType = r.LinkType().String()
		countPackets(info, r.ReadPacketData)
	case KindPcapNg:
		r, err := pcapgo.NewNgReader(f, pcapgo.DefaultNgReaderOptions)
		if err != nil {
			return nil, err
		}
		info.LinkType = r.LinkType().String()
		countPackets(info, r.ReadPacketData)
	}
	return info, nil
}

func countPackets(info *Info, read func() ([]byte, gopacket.CaptureInfo, error)) {
	for {
		data, _, err := read()
		if err != nil {
			return
		}
		info.Packets++
		info.Bytes += int64(len(data))
	}
}
