package protocol

import (
	"time"

	"github.com/synnergy-network/coordhead/chain"
	"github.com/synnergy-network/coordhead/headcrypto"
)

// Command is a client-originated request (spec.md §3).
type Command struct {
	Kind CommandKind
	// Init
	Parameters HeadParameters
	// Commit
	Commit chain.UTxO
	// NewTx
	Tx chain.Tx
}

type CommandKind int

const (
	CmdInit CommandKind = iota
	CmdCommit
	CmdNewTx
	CmdClose
	CmdContest
	CmdGetUTxO
	CmdAbort
)

// Message is a network-originated request (spec.md §3).
type Message struct {
	Kind MessageKind
	// ReqTx
	From Party
	Tx   chain.Tx
	// ReqSn
	Number uint64
	Txs    []chain.Tx
	// AckSn
	Sig headcrypto.Signature
	// Connected / Disconnected
	Host string
}

type MessageKind int

const (
	MsgReqTx MessageKind = iota
	MsgReqSn
	MsgAckSn
	MsgConnected
	MsgDisconnected
)

// OnChainTx is an on-chain observation (spec.md §3).
type OnChainTx struct {
	Kind OnChainTxKind
	// OnInitTx
	Parameters HeadParameters
	// OnCommitTx
	Party Party
	UTxO  chain.UTxO
	// OnCloseTx / OnContestTx
	SnapshotNumber uint64
	Deadline       time.Time
}

type OnChainTxKind int

const (
	OnInitTx OnChainTxKind = iota
	OnCommitTx
	OnCollectComTx
	OnAbortTx
	OnCloseTx
	OnContestTx
	OnFanoutTx
)

// ChainEvent is an on-chain-originated event (spec.md §3).
type ChainEvent struct {
	Kind ChainEventKind
	// Observation
	Tx OnChainTx
	// Rollback
	Depth int
	// Tick
	Time time.Time
}

type ChainEventKind int

const (
	ChainObservation ChainEventKind = iota
	ChainRollback
	ChainTick
)

// Event is the single input type Update accepts (spec.md §3).
type Event struct {
	Kind EventKind
	Client     Command
	Network    Message
	Chain      ChainEvent
}

type EventKind int

const (
	EventClient EventKind = iota
	EventNetwork
	EventChain
	EventShouldPostFanout
)

func ClientEvent(c Command) Event     { return Event{Kind: EventClient, Client: c} }
func NetworkEvent(m Message) Event    { return Event{Kind: EventNetwork, Network: m} }
func OnChainEvent(c ChainEvent) Event { return Event{Kind: EventChain, Chain: c} }
func ShouldPostFanoutEvent() Event    { return Event{Kind: EventShouldPostFanout} }
