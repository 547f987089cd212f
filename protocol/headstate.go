package protocol

import "github.com/synnergy-network/coordhead/chain"

// HeadState is the top-level tagged union of spec.md §3. Exactly one of
// the Is* tags is true for any value produced by Update; the zero value is
// Idle.
//
// The Initial, Open and Closed variants each carry their own parameters
// rather than sharing them structurally (spec.md §9: "Avoid sharing fields
// structurally across variants"), and a Prev state forming the rollback
// chain (spec.md §4.4). Idle and Final carry no payload.
type HeadState struct {
	tag   stateTag
	idle  *idleState
	init  *InitialState
	open  *OpenState
	close *ClosedState
}

type stateTag int

const (
	tagIdle stateTag = iota
	tagInitial
	tagOpen
	tagClosed
	tagFinal
)

type idleState struct{}

// InitialState is spec.md's Initial{parameters, pendingCommits, committed, prev}.
type InitialState struct {
	Parameters     HeadParameters
	PendingCommits map[Party]struct{}
	Committed      map[Party]chain.UTxO
	Prev           HeadState
}

// OpenState is spec.md's Open{parameters, coordinatedHeadState, prev}.
type OpenState struct {
	Parameters           HeadParameters
	CoordinatedHeadState CoordinatedHeadState
	Prev                 HeadState
}

// ClosedState is spec.md's Closed{parameters, confirmedSnapshot, prev}.
type ClosedState struct {
	Parameters        HeadParameters
	ConfirmedSnapshot ConfirmedSnapshot
	Prev              HeadState
}

func Idle() HeadState { return HeadState{tag: tagIdle} }

func Initial(s InitialState) HeadState { return HeadState{tag: tagInitial, init: &s} }

func Open(s OpenState) HeadState { return HeadState{tag: tagOpen, open: &s} }

func Closed(s ClosedState) HeadState { return HeadState{tag: tagClosed, close: &s} }

func Final() HeadState { return HeadState{tag: tagFinal} }

func (h HeadState) IsIdle() bool    { return h.tag == tagIdle }
func (h HeadState) IsInitial() bool { return h.tag == tagInitial }
func (h HeadState) IsOpen() bool    { return h.tag == tagOpen }
func (h HeadState) IsClosed() bool  { return h.tag == tagClosed }
func (h HeadState) IsFinal() bool   { return h.tag == tagFinal }

// AsInitial returns the Initial payload and whether h is in that variant.
func (h HeadState) AsInitial() (InitialState, bool) {
	if h.tag != tagInitial {
		return InitialState{}, false
	}
	return *h.init, true
}

func (h HeadState) AsOpen() (OpenState, bool) {
	if h.tag != tagOpen {
		return OpenState{}, false
	}
	return *h.open, true
}

func (h HeadState) AsClosed() (ClosedState, bool) {
	if h.tag != tagClosed {
		return ClosedState{}, false
	}
	return *h.close, true
}

// Tag returns a stable, human-readable name for logging and error messages.
func (h HeadState) Tag() string {
	switch h.tag {
	case tagIdle:
		return "Idle"
	case tagInitial:
		return "Initial"
	case tagOpen:
		return "Open"
	case tagClosed:
		return "Closed"
	case tagFinal:
		return "Final"
	default:
		return "Unknown"
	}
}

// prev returns the state this one rolls back to, per spec.md §4.4. Idle and
// Final carry no history and roll back to themselves.
func (h HeadState) prev() HeadState {
	switch h.tag {
	case tagInitial:
		return h.init.Prev
	case tagOpen:
		return h.open.Prev
	case tagClosed:
		return h.close.Prev
	default:
		return h
	}
}
