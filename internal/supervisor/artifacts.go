package supervisor

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// Artifact filenames within a session directory. The external receiver
// writes the stats and log files as side effects; the capture file is
// written by the Handle's stdout drain.
const (
	captureName = "received.ts"
	statsName   = "received.ts.stats"
	logName     = "received.ts.log"
	resultsName = "result.processed"
)

// Artifacts is the on-disk layout for one session.
//
// Each session gets its own directory keyed by a fresh id, so a new session
// can never race a prior session's monitor or scraper on shared paths.
type Artifacts struct {
	SessionID string
	Dir       string

	Capture string
	Stats   string
	Log     string
	Results string
}

// NewArtifacts creates a session directory under workDir and returns the
// artifact paths within it.
func NewArtifacts(workDir string) (*Artifacts, error) {
	id := uuid.NewString()
	dir := filepath.Join(workDir, id)

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create session dir: %w", err)
	}

	return &Artifacts{
		SessionID: id,
		Dir:       dir,
		Capture:   filepath.Join(dir, captureName),
		Stats:     filepath.Join(dir, statsName),
		Log:       filepath.Join(dir, logName),
		Results:   filepath.Join(dir, resultsName),
	}, nil
}

// StatsReady reports whether the stats artifact exists and is non-empty.
// A missing or empty file is "not ready yet", never an error: the receiver
// creates it lazily and only fills it once a peer connects.
func (a *Artifacts) StatsReady() bool {
	info, err := os.Stat(a.Stats)
	if err != nil {
		return false
	}
	return info.Size() > 0
}
