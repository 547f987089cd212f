package wire

import (
	"fmt"

	"github.com/synnergy-network/coordhead/chain"
	"github.com/synnergy-network/coordhead/headcrypto"
	"github.com/synnergy-network/coordhead/protocol"
)

// Tags for the top-level HeadState union (spec.md §3).
const (
	TagIdle    = "Idle"
	TagInitial = "Initial"
	TagOpen    = "Open"
	TagClosed  = "Closed"
	TagFinal   = "Final"
)

// HeadState is the wire shape of protocol.HeadState. Only the current
// variant's payload is populated; Prev nests recursively, matching the
// rollback chain spec.md §4.4 describes.
type HeadState struct {
	Tag   string        `json:"tag"`
	Init  *InitialState `json:"init,omitempty"`
	Open  *OpenState    `json:"open,omitempty"`
	Close *ClosedState  `json:"close,omitempty"`
}

type InitialState struct {
	Parameters     *HeadParameters `json:"parameters"`
	PendingCommits []string        `json:"pendingCommits"`
	Committed      []CommittedUTxO `json:"committed"`
	Prev           *HeadState      `json:"prev,omitempty"`
}

type CommittedUTxO struct {
	Party string `json:"party"`
	UTxO  UTxO   `json:"utxo"`
}

type OpenState struct {
	Parameters *HeadParameters   `json:"parameters"`
	SeenUTxO   UTxO              `json:"seenUTxO"`
	SeenTxs    []Tx              `json:"seenTxs"`
	Confirmed  ConfirmedSnapshot `json:"confirmedSnapshot"`
	Seen       *SeenSnapshot     `json:"seenSnapshot,omitempty"`
	Prev       *HeadState        `json:"prev,omitempty"`
}

type ClosedState struct {
	Parameters *HeadParameters   `json:"parameters"`
	Confirmed  ConfirmedSnapshot `json:"confirmedSnapshot"`
	Prev       *HeadState        `json:"prev,omitempty"`
}

type ConfirmedSnapshot struct {
	Snapshot  Snapshot `json:"snapshot"`
	Confirmed bool     `json:"confirmed"`
	Agg       string   `json:"agg,omitempty"`
}

type SeenSnapshot struct {
	Snapshot Snapshot          `json:"snapshot"`
	Sigs     map[string]string `json:"sigs"`
}

// FromHeadState converts a protocol.HeadState into its wire shape.
func FromHeadState(h protocol.HeadState) HeadState {
	switch {
	case h.IsIdle():
		return HeadState{Tag: TagIdle}
	case h.IsInitial():
		init, _ := h.AsInitial()
		return HeadState{Tag: TagInitial, Init: fromInitialState(init)}
	case h.IsOpen():
		open, _ := h.AsOpen()
		return HeadState{Tag: TagOpen, Open: fromOpenState(open)}
	case h.IsClosed():
		closed, _ := h.AsClosed()
		return HeadState{Tag: TagClosed, Close: fromClosedState(closed)}
	case h.IsFinal():
		return HeadState{Tag: TagFinal}
	default:
		return HeadState{Tag: "Unknown"}
	}
}

// ToHeadState converts a wire HeadState back into a protocol.HeadState.
func ToHeadState(w HeadState) (protocol.HeadState, error) {
	switch w.Tag {
	case TagIdle:
		return protocol.Idle(), nil
	case TagInitial:
		if w.Init == nil {
			return protocol.HeadState{}, fmt.Errorf("Initial: missing payload")
		}
		s, err := toInitialState(*w.Init)
		if err != nil {
			return protocol.HeadState{}, err
		}
		return protocol.Initial(s), nil
	case TagOpen:
		if w.Open == nil {
			return protocol.HeadState{}, fmt.Errorf("Open: missing payload")
		}
		s, err := toOpenState(*w.Open)
		if err != nil {
			return protocol.HeadState{}, err
		}
		return protocol.Open(s), nil
	case TagClosed:
		if w.Close == nil {
			return protocol.HeadState{}, fmt.Errorf("Closed: missing payload")
		}
		s, err := toClosedState(*w.Close)
		if err != nil {
			return protocol.HeadState{}, err
		}
		return protocol.Closed(s), nil
	case TagFinal:
		return protocol.Final(), nil
	default:
		return protocol.HeadState{}, fmt.Errorf("unknown head state tag %q", w.Tag)
	}
}

func fromPrev(h protocol.HeadState) *HeadState {
	w := FromHeadState(h)
	return &w
}

func toPrev(w *HeadState) (protocol.HeadState, error) {
	if w == nil {
		return protocol.Idle(), nil
	}
	return ToHeadState(*w)
}

func fromInitialState(s protocol.InitialState) *InitialState {
	pending := make([]string, 0, len(s.PendingCommits))
	for p := range s.PendingCommits {
		pending = append(pending, string(p))
	}
	committed := make([]CommittedUTxO, 0, len(s.Committed))
	for p, u := range s.Committed {
		committed = append(committed, CommittedUTxO{Party: string(p), UTxO: fromUTxO(u)})
	}
	return &InitialState{
		Parameters:     fromParams(s.Parameters),
		PendingCommits: pending,
		Committed:      committed,
		Prev:           fromPrev(s.Prev),
	}
}

func toInitialState(w InitialState) (protocol.InitialState, error) {
	params, err := toParams(w.Parameters)
	if err != nil {
		return protocol.InitialState{}, err
	}
	pending := make(map[protocol.Party]struct{}, len(w.PendingCommits))
	for _, p := range w.PendingCommits {
		pending[protocol.Party(p)] = struct{}{}
	}
	committed := make(map[protocol.Party]chain.UTxO, len(w.Committed))
	for _, c := range w.Committed {
		u, err := toUTxO(c.UTxO)
		if err != nil {
			return protocol.InitialState{}, err
		}
		committed[protocol.Party(c.Party)] = u
	}
	prev, err := toPrev(w.Prev)
	if err != nil {
		return protocol.InitialState{}, err
	}
	return protocol.InitialState{
		Parameters:     params,
		PendingCommits: pending,
		Committed:      committed,
		Prev:           prev,
	}, nil
}

func fromOpenState(s protocol.OpenState) *OpenState {
	return &OpenState{
		Parameters: fromParams(s.Parameters),
		SeenUTxO:   fromUTxO(s.CoordinatedHeadState.SeenUTxO),
		SeenTxs:    fromTxs(s.CoordinatedHeadState.SeenTxs),
		Confirmed:  fromConfirmedSnapshot(s.CoordinatedHeadState.ConfirmedSnapshot),
		Seen:       fromSeenSnapshot(s.CoordinatedHeadState.SeenSnapshot),
		Prev:       fromPrev(s.Prev),
	}
}

func toOpenState(w OpenState) (protocol.OpenState, error) {
	params, err := toParams(w.Parameters)
	if err != nil {
		return protocol.OpenState{}, err
	}
	seenUTxO, err := toUTxO(w.SeenUTxO)
	if err != nil {
		return protocol.OpenState{}, err
	}
	seenTxs, err := toTxs(w.SeenTxs)
	if err != nil {
		return protocol.OpenState{}, err
	}
	confirmed, err := toConfirmedSnapshot(w.Confirmed)
	if err != nil {
		return protocol.OpenState{}, err
	}
	seen, err := toSeenSnapshot(w.Seen)
	if err != nil {
		return protocol.OpenState{}, err
	}
	prev, err := toPrev(w.Prev)
	if err != nil {
		return protocol.OpenState{}, err
	}
	return protocol.OpenState{
		Parameters: params,
		CoordinatedHeadState: protocol.CoordinatedHeadState{
			SeenUTxO:          seenUTxO,
			SeenTxs:           seenTxs,
			ConfirmedSnapshot: confirmed,
			SeenSnapshot:      seen,
		},
		Prev: prev,
	}, nil
}

func fromClosedState(s protocol.ClosedState) *ClosedState {
	return &ClosedState{
		Parameters: fromParams(s.Parameters),
		Confirmed:  fromConfirmedSnapshot(s.ConfirmedSnapshot),
		Prev:       fromPrev(s.Prev),
	}
}

func toClosedState(w ClosedState) (protocol.ClosedState, error) {
	params, err := toParams(w.Parameters)
	if err != nil {
		return protocol.ClosedState{}, err
	}
	confirmed, err := toConfirmedSnapshot(w.Confirmed)
	if err != nil {
		return protocol.ClosedState{}, err
	}
	prev, err := toPrev(w.Prev)
	if err != nil {
		return protocol.ClosedState{}, err
	}
	return protocol.ClosedState{Parameters: params, ConfirmedSnapshot: confirmed, Prev: prev}, nil
}

func fromConfirmedSnapshot(c protocol.ConfirmedSnapshot) ConfirmedSnapshot {
	w := ConfirmedSnapshot{Snapshot: fromSnapshot(c.Snapshot), Confirmed: c.IsConfirmed()}
	if c.IsConfirmed() {
		w.Agg = hexAgg(c.Agg)
	}
	return w
}

func toConfirmedSnapshot(w ConfirmedSnapshot) (protocol.ConfirmedSnapshot, error) {
	s, err := toSnapshot(w.Snapshot)
	if err != nil {
		return protocol.ConfirmedSnapshot{}, err
	}
	if !w.Confirmed {
		return protocol.InitialConfirmedSnapshot(s), nil
	}
	agg, err := aggFromHex(w.Agg)
	if err != nil {
		return protocol.ConfirmedSnapshot{}, err
	}
	return protocol.ConfirmedConfirmedSnapshot(s, agg), nil
}

func fromSeenSnapshot(s protocol.SeenSnapshot) *SeenSnapshot {
	if !s.IsSeen() {
		return nil
	}
	sigs := make(map[string]string, len(s.Sigs))
	for p, sig := range s.Sigs {
		sigs[string(p)] = hexSig(sig)
	}
	return &SeenSnapshot{Snapshot: fromSnapshot(s.Snapshot), Sigs: sigs}
}

func toSeenSnapshot(w *SeenSnapshot) (protocol.SeenSnapshot, error) {
	if w == nil {
		return protocol.NoSeenSnapshot(), nil
	}
	snap, err := toSnapshot(w.Snapshot)
	if err != nil {
		return protocol.SeenSnapshot{}, err
	}
	sigs := make(map[protocol.Party]headcrypto.Signature, len(w.Sigs))
	for p, hexSig := range w.Sigs {
		sig, err := sigFromHex(hexSig)
		if err != nil {
			return protocol.SeenSnapshot{}, err
		}
		sigs[protocol.Party(p)] = sig
	}
	return protocol.Seen(snap, sigs), nil
}
