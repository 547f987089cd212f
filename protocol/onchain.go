package protocol

import "github.com/synnergy-network/coordhead/chain"

// This file implements spec.md §4.3: the on-chain observation handler
// driving Idle→Initial→Open→Closed→Final and the mutual exclusion between
// OnCollectComTx and OnAbortTx that falls naturally out of the state tag.

func onObserveInitTx(params HeadParameters) Outcome {
	pending := make(map[Party]struct{}, len(params.Parties))
	for _, p := range params.Parties {
		pending[p] = struct{}{}
	}
	st := Initial(InitialState{
		Parameters:     params,
		PendingCommits: pending,
		Committed:      map[Party]chain.UTxO{},
		Prev:           Idle(),
	})
	return NewState(st, ClientEffect(ServerOutput{Kind: OutHeadIsInitializing}))
}

func onObserveCommitTx(init InitialState, tx OnChainTx) Outcome {
	if _, ok := init.PendingCommits[tx.Party]; !ok {
		return invalidEvent(OnChainEvent(ChainEvent{Kind: ChainObservation, Tx: tx}), Initial(init))
	}
	pending := make(map[Party]struct{}, len(init.PendingCommits)-1)
	for p := range init.PendingCommits {
		if p != tx.Party {
			pending[p] = struct{}{}
		}
	}
	committed := make(map[Party]chain.UTxO, len(init.Committed)+1)
	for p, u := range init.Committed {
		committed[p] = u
	}
	committed[tx.Party] = tx.UTxO

	newInit := init
	newInit.PendingCommits = pending
	newInit.Committed = committed

	var effects []Effect
	if len(pending) == 0 {
		// spec.md §4.3: emitted once all commits are in; the runtime's
		// idempotence handles the race of several parties observing the
		// same emptying of pendingCommits.
		effects = append(effects, OnChainEffect(PostChainTx{Kind: PostCollectComTx, Parameters: init.Parameters}))
	}
	return NewState(Initial(newInit), effects...)
}

func onObserveCollectComTx(ledger Ledger, init InitialState) Outcome {
	utxo := chain.Empty()
	for _, u := range init.Committed {
		utxo = utxo.Union(u)
	}
	snapshot := Snapshot{Number: 0, UTxO: utxo}
	chs := CoordinatedHeadState{
		SeenUTxO:          utxo,
		ConfirmedSnapshot: InitialConfirmedSnapshot(snapshot),
		SeenSnapshot:      NoSeenSnapshot(),
	}
	newState := Open(OpenState{
		Parameters:           init.Parameters,
		CoordinatedHeadState: chs,
		Prev:                 Initial(init),
	})
	return NewState(newState, ClientEffect(ServerOutput{Kind: OutHeadIsOpen}))
}

func onObserveAbortTx(init InitialState) Outcome {
	return NewState(Final(), ClientEffect(ServerOutput{Kind: OutHeadIsAborted}))
}

// onObserveCloseTx is spec.md §4.3's OnCloseTx handler. A stale
// snapshotNumber additionally triggers a contest; a Delay for the
// contestation period is always scheduled, regardless.
func onObserveCloseTx(open OpenState, tx OnChainTx) Outcome {
	confirmed := open.CoordinatedHeadState.ConfirmedSnapshot
	effects := []Effect{ClientEffect(ServerOutput{Kind: OutHeadIsClosed})}
	if tx.SnapshotNumber < confirmed.Snapshot.Number {
		effects = append(effects, OnChainEffect(PostChainTx{Kind: PostContestTx, Snapshot: confirmed}))
	}
	effects = append(effects, DelayEffect(open.Parameters.ContestationPeriod, WaitReason{Kind: WaitOnContestationPeriod}, ShouldPostFanoutEvent()))

	newState := Closed(ClosedState{
		Parameters:        open.Parameters,
		ConfirmedSnapshot: confirmed,
		Prev:              Open(open),
	})
	return NewState(newState, effects...)
}

func onObserveContestTx(closed ClosedState, tx OnChainTx) Outcome {
	if tx.SnapshotNumber < closed.ConfirmedSnapshot.Snapshot.Number {
		return NewState(Closed(closed), OnChainEffect(PostChainTx{Kind: PostContestTx, Snapshot: closed.ConfirmedSnapshot}))
	}
	return NewState(Closed(closed))
}

func onShouldPostFanout(closed ClosedState) Outcome {
	return NewState(Closed(closed), OnChainEffect(PostChainTx{Kind: PostFanoutTx, Snapshot: closed.ConfirmedSnapshot}))
}

func onObserveFanoutTx(closed ClosedState) Outcome {
	return NewState(Final(), ClientEffect(ServerOutput{Kind: OutHeadIsFinalized}))
}
