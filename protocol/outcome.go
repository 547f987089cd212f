package protocol

import (
	"fmt"

	"github.com/synnergy-network/coordhead/chain"
)

// WaitReason explains why an event is being asked to be redelivered later
// (spec.md §3, §4.6): "Wait means deliver me later."
type WaitReason struct {
	Kind WaitKind
	// WaitOnNotApplicableTx
	Validation *chain.ValidationError
	// WaitOnSnapshotNumber
	Number uint64
}

type WaitKind int

const (
	WaitOnNotApplicableTx WaitKind = iota
	WaitOnSeenSnapshot
	WaitOnSnapshotNumber
	WaitOnContestationPeriod
)

func (w WaitReason) String() string {
	switch w.Kind {
	case WaitOnNotApplicableTx:
		if w.Validation != nil {
			return fmt.Sprintf("wait: tx not applicable: %v", w.Validation)
		}
		return "wait: tx not applicable"
	case WaitOnSeenSnapshot:
		return "wait: no seen snapshot yet"
	case WaitOnSnapshotNumber:
		return fmt.Sprintf("wait: snapshot number %d in flight", w.Number)
	case WaitOnContestationPeriod:
		return "wait: contestation period running"
	default:
		return "wait: unknown reason"
	}
}

// LogicError is a terminal-for-this-event protocol violation (spec.md §3,
// §4.6): "Error means never valid for this state."
type LogicError struct {
	Kind LogicErrorKind
	// InvalidEvent
	Event Event
	State HeadState
	// RequireFailed
	Reason string
}

type LogicErrorKind int

const (
	ErrInvalidEvent LogicErrorKind = iota
	ErrRequireFailed
	ErrNotOurHead
)

func (e LogicError) Error() string {
	switch e.Kind {
	case ErrInvalidEvent:
		return fmt.Sprintf("invalid event for state %s", e.State.Tag())
	case ErrRequireFailed:
		return fmt.Sprintf("require failed: %s", e.Reason)
	case ErrNotOurHead:
		return "observation is not for our head"
	default:
		return "unknown logic error"
	}
}

func invalidEvent(ev Event, s HeadState) Outcome {
	return Outcome{Kind: OutcomeError, Error: LogicError{Kind: ErrInvalidEvent, Event: ev, State: s}}
}

func requireFailed(reason string) Outcome {
	return Outcome{Kind: OutcomeError, Error: LogicError{Kind: ErrRequireFailed, Reason: reason}}
}

// Outcome is the single return type of Update: exactly one of NewState,
// Wait, or Error (spec.md §3).
type Outcome struct {
	Kind OutcomeKind
	// NewState
	State   HeadState
	Effects []Effect
	// Wait
	Wait WaitReason
	// Error
	Error LogicError
}

type OutcomeKind int

const (
	OutcomeNewState OutcomeKind = iota
	OutcomeWait
	OutcomeError
)

func NewState(s HeadState, effects ...Effect) Outcome {
	return Outcome{Kind: OutcomeNewState, State: s, Effects: effects}
}

func Wait(reason WaitReason) Outcome {
	return Outcome{Kind: OutcomeWait, Wait: reason}
}

func ErrorOutcome(err LogicError) Outcome {
	return Outcome{Kind: OutcomeError, Error: err}
}
