package protocol

import (
	"time"

	"github.com/synnergy-network/coordhead/chain"
	"github.com/synnergy-network/coordhead/headcrypto"
)

// ServerOutput is a client-facing notification (spec.md §6).
type ServerOutput struct {
	Kind ServerOutputKind
	Host string
	// SnapshotConfirmed
	Snapshot Snapshot
	Agg      headcrypto.AggregateSignature
	// UTxO
	UTxO chain.UTxO
}

type ServerOutputKind int

const (
	OutPeerConnected ServerOutputKind = iota
	OutPeerDisconnected
	OutHeadIsInitializing
	OutHeadIsOpen
	OutSnapshotConfirmed
	OutRolledBack
	OutHeadIsClosed
	OutHeadIsFinalized
	OutHeadIsAborted
	OutUTxO
)

// PostChainTx is an on-chain transaction to submit (spec.md §6).
type PostChainTx struct {
	Kind       PostChainTxKind
	Parameters HeadParameters
	Party      Party
	UTxO       chain.UTxO
	Snapshot   ConfirmedSnapshot
}

type PostChainTxKind int

const (
	PostInitTx PostChainTxKind = iota
	PostCommitTx
	PostCollectComTx
	PostCloseTx
	PostContestTx
	PostFanoutTx
	PostAbortTx
)

// Effect is a single side-effecting instruction the runtime must execute,
// in the order the Outcome lists them (spec.md §4.1, §5).
type Effect struct {
	Kind EffectKind
	// ClientEffect
	ServerOutput ServerOutput
	// NetworkEffect
	Message Message
	// OnChainEffect
	PostChainTx PostChainTx
	// Delay
	Delay       time.Duration
	DelayReason WaitReason
	DelayEvent  Event
}

type EffectKind int

const (
	EffectClient EffectKind = iota
	EffectNetwork
	EffectOnChain
	EffectDelay
)

func ClientEffect(o ServerOutput) Effect  { return Effect{Kind: EffectClient, ServerOutput: o} }
func NetworkEffect(m Message) Effect      { return Effect{Kind: EffectNetwork, Message: m} }
func OnChainEffect(p PostChainTx) Effect  { return Effect{Kind: EffectOnChain, PostChainTx: p} }

func DelayEffect(d time.Duration, reason WaitReason, ev Event) Effect {
	return Effect{Kind: EffectDelay, Delay: d, DelayReason: reason, DelayEvent: ev}
}
