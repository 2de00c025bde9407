package supervisor

import (
	"os"
	"regexp"
)

// SentinelNoEndpoint is returned when the log holds no endpoint yet.
const SentinelNoEndpoint = "error: unable to determine connected host"

// EndpointScraper extracts the connected peer's endpoint from session
// artifacts. The receiver only exposes the peer in free-text log output, so
// the default implementation is a regex scrape; isolating it behind this
// interface keeps the supervisor contract stable if the receiver ever grows
// structured logging.
type EndpointScraper interface {
	// ConnectedEndpoint returns the peer as "ip:port" and true, or
	// ("", false) when no endpoint is derivable yet.
	ConnectedEndpoint() (string, bool)
}

// endpointPattern matches the first address:port token the receiver logs
// once the handshake completes.
var endpointPattern = regexp.MustCompile(`(\d+\.\d+\.\d+\.\d+):(\d+)`)

// LogScraper scrapes the receiver's log file for the peer endpoint.
type LogScraper struct {
	path string
}

// NewLogScraper creates a scraper over the log file at path.
func NewLogScraper(path string) *LogScraper {
	return &LogScraper{path: path}
}

// ConnectedEndpoint reads the log and returns the first ip:port match.
// The log is append-only and still growing while the session runs; a read
// mid-write just sees a prefix, and a missing match is "not yet", not an
// error. Repeated calls over unchanged content return the same result.
func (s *LogScraper) ConnectedEndpoint() (string, bool) {
	content, err := os.ReadFile(s.path)
	if err != nil {
		return "", false
	}

	match := endpointPattern.FindSubmatch(content)
	if match == nil {
		return "", false
	}

	return string(match[1]) + ":" + string(match[2]), true
}
