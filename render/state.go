package render

// State is the phase of one render request.
type State int

const (
	// StateCheckingAvailability means the cache missed and the external
	// tool is being probed.
	StateCheckingAvailability State = iota
	// StateUnavailable means the external tool is absent. Terminal; the
	// host shows setup guidance.
	StateUnavailable
	// StateRendering means the external tool is converting the diagram.
	StateRendering
	// StateSucceeded means image bytes are ready. Terminal.
	StateSucceeded
	// StateFailed means the tool rejected the diagram or the call timed
	// out. Terminal; Update.Err carries the reason.
	StateFailed
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateCheckingAvailability:
		return "checking-availability"
	case StateUnavailable:
		return "unavailable"
	case StateRendering:
		return "rendering"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further transition follows s.
func (s State) Terminal() bool {
	switch s {
	case StateUnavailable, StateSucceeded, StateFailed:
		return true
	}
	return false
}

// Update is one state transition delivered to the requester.
type Update struct {
	// State is the phase entered.
	State State

	// Image holds the encoded image on StateSucceeded.
	Image []byte

	// Err holds the failure reason on StateFailed.
	Err error
}
