// Package supervisor owns one SRT receiver session: its process, its
// connection-detection monitor, and its log-derived metadata.
package supervisor

// State represents where a session is in its lifecycle.
//
// Transitions run one way: Idle → Launching → Monitoring → Connected →
// Terminated. Monitoring reaches Terminated directly when the process exits
// without ever connecting. No state is re-enterable; a new session gets a
// fresh Supervisor (or supersedes this one via Start).
type State int

const (
	// StateIdle is the initial state before any launch.
	StateIdle State = iota

	// StateLaunching indicates the receiver process is being spawned.
	StateLaunching

	// StateMonitoring indicates the receiver is running, connection not yet seen.
	StateMonitoring

	// StateConnected indicates the stats artifact showed a live connection.
	StateConnected

	// StateTerminated indicates the process exited or was stopped.
	StateTerminated
)

// String returns a human-readable name for the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLaunching:
		return "launching"
	case StateMonitoring:
		return "monitoring"
	case StateConnected:
		return "connected"
	case StateTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// IsActive returns true while the session's process should be running.
func (s State) IsActive() bool {
	return s == StateLaunching || s == StateMonitoring || s == StateConnected
}
