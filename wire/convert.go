package wire

import (
	"fmt"
	"time"

	"github.com/synnergy-network/coordhead/headcrypto"
	"github.com/synnergy-network/coordhead/protocol"
)

// Tag discriminators for Event, stable per spec.md §6.
const (
	TagClient            = "Client"
	TagNetwork           = "Network"
	TagChain             = "Chain"
	TagShouldPostFanout   = "ShouldPostFanout"
)

const (
	TagInit     = "Init"
	TagCommit   = "Commit"
	TagNewTx    = "NewTx"
	TagClose    = "Close"
	TagContest  = "Contest"
	TagGetUTxO  = "GetUTxO"
	TagAbort    = "Abort"
)

const (
	TagReqTx       = "ReqTx"
	TagReqSn       = "ReqSn"
	TagAckSn       = "AckSn"
	TagConnected   = "Connected"
	TagDisconnected = "Disconnected"
)

const (
	TagObservation = "Observation"
	TagRollback    = "Rollback"
	TagTick        = "Tick"
)

const (
	TagOnInitTx      = "OnInitTx"
	TagOnCommitTx    = "OnCommitTx"
	TagOnCollectComTx = "OnCollectComTx"
	TagOnAbortTx     = "OnAbortTx"
	TagOnCloseTx     = "OnCloseTx"
	TagOnContestTx   = "OnContestTx"
	TagOnFanoutTx    = "OnFanoutTx"
)

// ServerOutput tags (spec.md §6).
const (
	TagPeerConnected     = "PeerConnected"
	TagPeerDisconnected  = "PeerDisconnected"
	TagHeadIsInitializing = "HeadIsInitializing"
	TagHeadIsOpen        = "HeadIsOpen"
	TagSnapshotConfirmed = "SnapshotConfirmed"
	TagRolledBack        = "RolledBack"
	TagHeadIsClosed      = "HeadIsClosed"
	TagHeadIsFinalized   = "HeadIsFinalized"
	TagHeadIsAborted     = "HeadIsAborted"
	TagUTxO              = "UTxO"
)

func fromParams(p protocol.HeadParameters) *HeadParameters {
	parties := make([]string, len(p.Parties))
	for i, party := range p.Parties {
		parties[i] = string(party)
	}
	return &HeadParameters{ContestationPeriodSeconds: p.ContestationPeriod.Seconds(), Parties: parties}
}

func toParams(w *HeadParameters) (protocol.HeadParameters, error) {
	if w == nil {
		return protocol.HeadParameters{}, fmt.Errorf("missing parameters")
	}
	parties := make([]protocol.Party, len(w.Parties))
	for i, p := range w.Parties {
		parties[i] = protocol.Party(p)
	}
	return protocol.HeadParameters{
		ContestationPeriod: time.Duration(w.ContestationPeriodSeconds * float64(time.Second)),
		Parties:            parties,
	}, nil
}

// FromEvent converts a protocol.Event into its wire representation.
func FromEvent(ev protocol.Event) Event {
	switch ev.Kind {
	case protocol.EventClient:
		return Event{Tag: TagClient, Command: fromCommand(ev.Client)}
	case protocol.EventNetwork:
		return Event{Tag: TagNetwork, Message: fromMessage(ev.Network)}
	case protocol.EventChain:
		return Event{Tag: TagChain, Chain: fromChainEvent(ev.Chain)}
	case protocol.EventShouldPostFanout:
		return Event{Tag: TagShouldPostFanout}
	default:
		return Event{Tag: "Unknown"}
	}
}

// ToEvent converts a wire Event back into a protocol.Event.
func ToEvent(w Event) (protocol.Event, error) {
	switch w.Tag {
	case TagClient:
		c, err := toCommand(w.Command)
		if err != nil {
			return protocol.Event{}, err
		}
		return protocol.ClientEvent(c), nil
	case TagNetwork:
		m, err := toMessage(w.Message)
		if err != nil {
			return protocol.Event{}, err
		}
		return protocol.NetworkEvent(m), nil
	case TagChain:
		c, err := toChainEvent(w.Chain)
		if err != nil {
			return protocol.Event{}, err
		}
		return protocol.OnChainEvent(c), nil
	case TagShouldPostFanout:
		return protocol.ShouldPostFanoutEvent(), nil
	default:
		return protocol.Event{}, fmt.Errorf("unknown event tag %q", w.Tag)
	}
}

func fromCommand(c protocol.Command) *Command {
	w := &Command{}
	switch c.Kind {
	case protocol.CmdInit:
		w.Tag = TagInit
		w.Parameters = fromParams(c.Parameters)
	case protocol.CmdCommit:
		w.Tag = TagCommit
		u := fromUTxO(c.Commit)
		w.Commit = &u
	case protocol.CmdNewTx:
		w.Tag = TagNewTx
		tx := fromTx(c.Tx)
		w.Tx = &tx
	case protocol.CmdClose:
		w.Tag = TagClose
	case protocol.CmdContest:
		w.Tag = TagContest
	case protocol.CmdGetUTxO:
		w.Tag = TagGetUTxO
	case protocol.CmdAbort:
		w.Tag = TagAbort
	}
	return w
}

func toCommand(w *Command) (protocol.Command, error) {
	if w == nil {
		return protocol.Command{}, fmt.Errorf("missing command")
	}
	switch w.Tag {
	case TagInit:
		params, err := toParams(w.Parameters)
		if err != nil {
			return protocol.Command{}, err
		}
		return protocol.Command{Kind: protocol.CmdInit, Parameters: params}, nil
	case TagCommit:
		if w.Commit == nil {
			return protocol.Command{}, fmt.Errorf("Commit: missing utxo")
		}
		u, err := toUTxO(*w.Commit)
		if err != nil {
			return protocol.Command{}, err
		}
		return protocol.Command{Kind: protocol.CmdCommit, Commit: u}, nil
	case TagNewTx:
		if w.Tx == nil {
			return protocol.Command{}, fmt.Errorf("NewTx: missing tx")
		}
		tx, err := toTx(*w.Tx)
		if err != nil {
			return protocol.Command{}, err
		}
		return protocol.Command{Kind: protocol.CmdNewTx, Tx: tx}, nil
	case TagClose:
		return protocol.Command{Kind: protocol.CmdClose}, nil
	case TagContest:
		return protocol.Command{Kind: protocol.CmdContest}, nil
	case TagGetUTxO:
		return protocol.Command{Kind: protocol.CmdGetUTxO}, nil
	case TagAbort:
		return protocol.Command{Kind: protocol.CmdAbort}, nil
	default:
		return protocol.Command{}, fmt.Errorf("unknown command tag %q", w.Tag)
	}
}

func fromMessage(m protocol.Message) *Message {
	w := &Message{From: string(m.From), Host: m.Host}
	switch m.Kind {
	case protocol.MsgReqTx:
		w.Tag = TagReqTx
		tx := fromTx(m.Tx)
		w.Tx = &tx
	case protocol.MsgReqSn:
		w.Tag = TagReqSn
		w.Number = m.Number
		w.Txs = fromTxs(m.Txs)
	case protocol.MsgAckSn:
		w.Tag = TagAckSn
		w.Number = m.Number
		w.Sig = hexSig(m.Sig)
	case protocol.MsgConnected:
		w.Tag = TagConnected
	case protocol.MsgDisconnected:
		w.Tag = TagDisconnected
	}
	return w
}

func toMessage(w *Message) (protocol.Message, error) {
	if w == nil {
		return protocol.Message{}, fmt.Errorf("missing message")
	}
	switch w.Tag {
	case TagReqTx:
		if w.Tx == nil {
			return protocol.Message{}, fmt.Errorf("ReqTx: missing tx")
		}
		tx, err := toTx(*w.Tx)
		if err != nil {
			return protocol.Message{}, err
		}
		return protocol.Message{Kind: protocol.MsgReqTx, From: protocol.Party(w.From), Tx: tx}, nil
	case TagReqSn:
		txs, err := toTxs(w.Txs)
		if err != nil {
			return protocol.Message{}, err
		}
		return protocol.Message{Kind: protocol.MsgReqSn, From: protocol.Party(w.From), Number: w.Number, Txs: txs}, nil
	case TagAckSn:
		sig, err := sigFromHex(w.Sig)
		if err != nil {
			return protocol.Message{}, err
		}
		return protocol.Message{Kind: protocol.MsgAckSn, From: protocol.Party(w.From), Number: w.Number, Sig: sig}, nil
	case TagConnected:
		return protocol.Message{Kind: protocol.MsgConnected, Host: w.Host}, nil
	case TagDisconnected:
		return protocol.Message{Kind: protocol.MsgDisconnected, Host: w.Host}, nil
	default:
		return protocol.Message{}, fmt.Errorf("unknown message tag %q", w.Tag)
	}
}

func fromChainEvent(c protocol.ChainEvent) *ChainEvent {
	w := &ChainEvent{Depth: c.Depth}
	switch c.Kind {
	case protocol.ChainObservation:
		w.Tag = TagObservation
		tx := fromOnChainTx(c.Tx)
		w.Tx = &tx
	case protocol.ChainRollback:
		w.Tag = TagRollback
	case protocol.ChainTick:
		w.Tag = TagTick
		t := c.Time
		w.Time = &t
	}
	return w
}

func toChainEvent(w *ChainEvent) (protocol.ChainEvent, error) {
	if w == nil {
		return protocol.ChainEvent{}, fmt.Errorf("missing chain event")
	}
	switch w.Tag {
	case TagObservation:
		if w.Tx == nil {
			return protocol.ChainEvent{}, fmt.Errorf("Observation: missing tx")
		}
		tx, err := toOnChainTx(*w.Tx)
		if err != nil {
			return protocol.ChainEvent{}, err
		}
		return protocol.ChainEvent{Kind: protocol.ChainObservation, Tx: tx}, nil
	case TagRollback:
		return protocol.ChainEvent{Kind: protocol.ChainRollback, Depth: w.Depth}, nil
	case TagTick:
		var t time.Time
		if w.Time != nil {
			t = *w.Time
		}
		return protocol.ChainEvent{Kind: protocol.ChainTick, Time: t}, nil
	default:
		return protocol.ChainEvent{}, fmt.Errorf("unknown chain event tag %q", w.Tag)
	}
}

func fromOnChainTx(o protocol.OnChainTx) OnChainTx {
	w := OnChainTx{Party: string(o.Party), SnapshotNumber: o.SnapshotNumber}
	if !o.Deadline.IsZero() {
		d := o.Deadline
		w.Deadline = &d
	}
	switch o.Kind {
	case protocol.OnInitTx:
		w.Tag = TagOnInitTx
		w.Parameters = fromParams(o.Parameters)
	case protocol.OnCommitTx:
		w.Tag = TagOnCommitTx
		u := fromUTxO(o.UTxO)
		w.UTxO = &u
	case protocol.OnCollectComTx:
		w.Tag = TagOnCollectComTx
	case protocol.OnAbortTx:
		w.Tag = TagOnAbortTx
	case protocol.OnCloseTx:
		w.Tag = TagOnCloseTx
	case protocol.OnContestTx:
		w.Tag = TagOnContestTx
	case protocol.OnFanoutTx:
		w.Tag = TagOnFanoutTx
	}
	return w
}

func toOnChainTx(w OnChainTx) (protocol.OnChainTx, error) {
	var deadline time.Time
	if w.Deadline != nil {
		deadline = *w.Deadline
	}
	base := protocol.OnChainTx{Party: protocol.Party(w.Party), SnapshotNumber: w.SnapshotNumber, Deadline: deadline}
	switch w.Tag {
	case TagOnInitTx:
		params, err := toParams(w.Parameters)
		if err != nil {
			return protocol.OnChainTx{}, err
		}
		base.Kind = protocol.OnInitTx
		base.Parameters = params
	case TagOnCommitTx:
		if w.UTxO == nil {
			return protocol.OnChainTx{}, fmt.Errorf("OnCommitTx: missing utxo")
		}
		u, err := toUTxO(*w.UTxO)
		if err != nil {
			return protocol.OnChainTx{}, err
		}
		base.Kind = protocol.OnCommitTx
		base.UTxO = u
	case TagOnCollectComTx:
		base.Kind = protocol.OnCollectComTx
	case TagOnAbortTx:
		base.Kind = protocol.OnAbortTx
	case TagOnCloseTx:
		base.Kind = protocol.OnCloseTx
	case TagOnContestTx:
		base.Kind = protocol.OnContestTx
	case TagOnFanoutTx:
		base.Kind = protocol.OnFanoutTx
	default:
		return protocol.OnChainTx{}, fmt.Errorf("unknown on-chain tx tag %q", w.Tag)
	}
	return base, nil
}

// FromServerOutput converts a protocol.ServerOutput into its wire shape.
func FromServerOutput(o protocol.ServerOutput) ServerOutput {
	w := ServerOutput{Host: o.Host}
	switch o.Kind {
	case protocol.OutPeerConnected:
		w.Tag = TagPeerConnected
	case protocol.OutPeerDisconnected:
		w.Tag = TagPeerDisconnected
	case protocol.OutHeadIsInitializing:
		w.Tag = TagHeadIsInitializing
	case protocol.OutHeadIsOpen:
		w.Tag = TagHeadIsOpen
	case protocol.OutSnapshotConfirmed:
		w.Tag = TagSnapshotConfirmed
		s := fromSnapshot(o.Snapshot)
		w.Snapshot = &s
		w.Agg = hexAgg(o.Agg)
	case protocol.OutRolledBack:
		w.Tag = TagRolledBack
	case protocol.OutHeadIsClosed:
		w.Tag = TagHeadIsClosed
	case protocol.OutHeadIsFinalized:
		w.Tag = TagHeadIsFinalized
	case protocol.OutHeadIsAborted:
		w.Tag = TagHeadIsAborted
	case protocol.OutUTxO:
		w.Tag = TagUTxO
		u := fromUTxO(o.UTxO)
		w.UTxO = &u
	}
	return w
}

// ToServerOutput converts a wire ServerOutput back into a protocol value.
func ToServerOutput(w ServerOutput) (protocol.ServerOutput, error) {
	base := protocol.ServerOutput{Host: w.Host}
	switch w.Tag {
	case TagPeerConnected:
		base.Kind = protocol.OutPeerConnected
	case TagPeerDisconnected:
		base.Kind = protocol.OutPeerDisconnected
	case TagHeadIsInitializing:
		base.Kind = protocol.OutHeadIsInitializing
	case TagHeadIsOpen:
		base.Kind = protocol.OutHeadIsOpen
	case TagSnapshotConfirmed:
		if w.Snapshot == nil {
			return protocol.ServerOutput{}, fmt.Errorf("SnapshotConfirmed: missing snapshot")
		}
		s, err := toSnapshot(*w.Snapshot)
		if err != nil {
			return protocol.ServerOutput{}, err
		}
		agg, err := aggFromHex(w.Agg)
		if err != nil {
			return protocol.ServerOutput{}, err
		}
		base.Kind = protocol.OutSnapshotConfirmed
		base.Snapshot = s
		base.Agg = agg
	case TagRolledBack:
		base.Kind = protocol.OutRolledBack
	case TagHeadIsClosed:
		base.Kind = protocol.OutHeadIsClosed
	case TagHeadIsFinalized:
		base.Kind = protocol.OutHeadIsFinalized
	case TagHeadIsAborted:
		base.Kind = protocol.OutHeadIsAborted
	case TagUTxO:
		if w.UTxO == nil {
			return protocol.ServerOutput{}, fmt.Errorf("UTxO: missing utxo")
		}
		u, err := toUTxO(*w.UTxO)
		if err != nil {
			return protocol.ServerOutput{}, err
		}
		base.Kind = protocol.OutUTxO
		base.UTxO = u
	default:
		return protocol.ServerOutput{}, fmt.Errorf("unknown server output tag %q", w.Tag)
	}
	return base, nil
}

func fromSnapshot(s protocol.Snapshot) Snapshot {
	return Snapshot{Number: s.Number, UTxO: fromUTxO(s.UTxO), ConfirmedTxs: fromTxs(s.ConfirmedTxs)}
}

func toSnapshot(w Snapshot) (protocol.Snapshot, error) {
	u, err := toUTxO(w.UTxO)
	if err != nil {
		return protocol.Snapshot{}, err
	}
	txs, err := toTxs(w.ConfirmedTxs)
	if err != nil {
		return protocol.Snapshot{}, err
	}
	return protocol.Snapshot{Number: w.Number, UTxO: u, ConfirmedTxs: txs}, nil
}

func hexSig(s headcrypto.Signature) string    { return hexBytes(s.Bytes()) }
func hexAgg(a headcrypto.AggregateSignature) string { return hexBytes(a.Bytes()) }

func sigFromHex(s string) (headcrypto.Signature, error) {
	b, err := hexDecode(s)
	if err != nil {
		return headcrypto.Signature{}, err
	}
	return headcrypto.SignatureFromBytes(b)
}

func aggFromHex(s string) (headcrypto.AggregateSignature, error) {
	if s == "" {
		return headcrypto.AggregateSignature{}, nil
	}
	b, err := hexDecode(s)
	if err != nil {
		return headcrypto.AggregateSignature{}, err
	}
	return headcrypto.AggregateSignatureFromBytes(b)
}
