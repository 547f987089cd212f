package protocol

import "github.com/synnergy-network/coordhead/chain"

// This file implements spec.md §4.5 (client commands) plus the Idle-state
// handler for CmdInit. The on-chain observation handlers live in
// onchain.go, the snapshot-engine handlers in snapshot.go.

func onClientInit(state HeadState, params HeadParameters) Outcome {
	return NewState(state, OnChainEffect(PostChainTx{Kind: PostInitTx, Parameters: params}))
}

func onClientCommit(env Environment, init InitialState, utxo chain.UTxO) Outcome {
	if _, ok := init.PendingCommits[env.Self]; !ok {
		return invalidEvent(ClientEvent(Command{Kind: CmdCommit, Commit: utxo}), Initial(init))
	}
	return NewState(Initial(init), OnChainEffect(PostChainTx{Kind: PostCommitTx, Party: env.Self, UTxO: utxo}))
}

func onClientAbort(env Environment, init InitialState) Outcome {
	return NewState(Initial(init), OnChainEffect(PostChainTx{Kind: PostAbortTx}))
}

// onClientNewTx is spec.md §4.5's NewTx: "equivalent to NetworkEvent(ReqTx)
// after broadcasting it" — it runs the same local acceptance logic as an
// incoming ReqTx and, only if that accepts, prepends the broadcast to
// peers. A tx that does not yet apply locally produces the same Wait an
// incoming ReqTx would, and is not broadcast.
func onClientNewTx(env Environment, ledger Ledger, open OpenState, tx chain.Tx) Outcome {
	msg := Message{Kind: MsgReqTx, From: env.Self, Tx: tx}
	outcome := onReqTx(env, ledger, open, msg)
	if outcome.Kind != OutcomeNewState {
		return outcome
	}
	effects := append([]Effect{NetworkEffect(msg)}, outcome.Effects...)
	return NewState(outcome.State, effects...)
}

func onClientClose(open OpenState) Outcome {
	return NewState(Open(open), OnChainEffect(PostChainTx{
		Kind:     PostCloseTx,
		Snapshot: open.CoordinatedHeadState.ConfirmedSnapshot,
	}))
}

func onClientContest(closed ClosedState) Outcome {
	return NewState(Closed(closed), OnChainEffect(PostChainTx{
		Kind:     PostContestTx,
		Snapshot: closed.ConfirmedSnapshot,
	}))
}

func onClientGetUTxO(open OpenState) Outcome {
	return NewState(Open(open), ClientEffect(ServerOutput{
		Kind: OutUTxO,
		UTxO: open.CoordinatedHeadState.SeenUTxO,
	}))
}
