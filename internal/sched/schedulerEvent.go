// internal/sched/schedulerEvent.go

package sched

// StatusKind represents the type of scheduler event
type StatusKind int

const (
	StatusIdle StatusKind = iota
	StatusAdmit
	StatusDispatch
	StatusPreempt
	StatusBlock
	StatusWake
	StatusFinish
)

// StatusEvent is emitted on every state transition and whenever the CPU goes
// idle.
type StatusEvent struct {
	Tick      int64      `json:"tick"`
	Kind      StatusKind `json:"kind"`
	PID       int        `json:"pid"` // -1 for idle
	Priority  int        `json:"priority"`
	Remaining int64      `json:"remaining"` // units left in the current burst after the transition
}

func (sk StatusKind) String() string {
	switch sk {
	case StatusIdle:
		return "Idle"
	case StatusAdmit:
		return "Admit"
	case StatusDispatch:
		return "Dispatch"
	case StatusPreempt:
		return "Preempt"
	case StatusBlock:
		return "Block"
	case StatusWake:
		return "Wake"
	case StatusFinish:
		return "Finish"
	default:
		return "Unknown"
	}
}

// MarshalText renders the kind by name in JSON output.
func (sk StatusKind) MarshalText() ([]byte, error) {
	return []byte(sk.String()), nil
}
