package models

import "time"

// Phase is the current state of the failure detector.
type Phase string

const (
	PhaseHealthy        Phase = "healthy"
	PhasePendingFailure Phase = "pending_failure"
	PhaseFailed         Phase = "failed"
)

// Transition is an edge of the detector state machine that requires action.
type Transition int

const (
	TransitionNone Transition = iota
	TransitionEnterFailed
	TransitionEnterHealthy
)

// String returns a readable name for logging and history rows.
func (t Transition) String() string {
	switch t {
	case TransitionEnterFailed:
		return "enter_failed"
	case TransitionEnterHealthy:
		return "enter_healthy"
	default:
		return "none"
	}
}

// Severity classifies an outbound notification.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// EncoderHealth is the verdict produced by one probe cycle. It is immutable
// once produced; Error is populated whenever Online is false and a concrete
// cause is known.
type EncoderHealth struct {
	Online      bool      `json:"online"`
	Connected   bool      `json:"connected"`
	BitrateKbps float64   `json:"bitrate_kbps"`
	RTTMs       float64   `json:"rtt_ms"`
	DroppedPkts int       `json:"dropped_pkts"`
	Error       string    `json:"error,omitempty"`
	CheckedAt   time.Time `json:"checked_at"`
}

// MonitorState is the snapshot published by the monitor loop. It is replaced
// wholesale each cycle, never field-mutated, so readers can never observe a
// torn update.
type MonitorState struct {
	Phase              Phase         `json:"phase"`
	PendingSince       *time.Time    `json:"pending_since,omitempty"`
	LastKnownGoodScene string        `json:"last_known_good_scene,omitempty"`
	LastHealth         EncoderHealth `json:"last_health"`
}

// Return behavior values for Config.ReturnBehavior. Any other value is
// treated as a literal scene name to switch to on recovery.
const (
	ReturnPrevious = "previous"
	ReturnManual   = "manual"
)
