package protocol

import "testing"

// scenario 1: confirm snapshot in order (spec.md §8).
func TestConfirmSnapshotInOrder(t *testing.T) {
	f := newFixture(t)
	state := f.openState()
	env := f.env(f.bob)

	out := Update(env, f.ledger, state, NetworkEvent(Message{Kind: MsgReqSn, From: f.alice, Number: 1}))
	if out.Kind != OutcomeNewState {
		t.Fatalf("ReqSn(alice, 1, []) should accept, got %+v", out)
	}
	state = out.State
	seen := f.mustOpen(state).CoordinatedHeadState.SeenSnapshot
	if !seen.IsSeen() || seen.Snapshot.Number != 1 {
		t.Fatalf("expected a seen snapshot at number 1")
	}

	carolSig := f.sign(f.carol, seen.Snapshot)
	out = Update(env, f.ledger, state, NetworkEvent(Message{Kind: MsgAckSn, From: f.carol, Sig: carolSig, Number: 1}))
	mustNewState(t, out)
	state = out.State
	if f.mustOpen(state).CoordinatedHeadState.ConfirmedSnapshot.Snapshot.Number != 0 {
		t.Fatalf("confirmation must not fire until all parties have acked")
	}

	aliceSig := f.sign(f.alice, seen.Snapshot)
	out = Update(env, f.ledger, state, NetworkEvent(Message{Kind: MsgAckSn, From: f.alice, Sig: aliceSig, Number: 1}))
	mustNewState(t, out)
	state = out.State
	if f.mustOpen(state).CoordinatedHeadState.ConfirmedSnapshot.Snapshot.Number != 0 {
		t.Fatalf("confirmation must not fire before bob (self) acks")
	}

	bobSig := f.sign(f.bob, seen.Snapshot)
	out = Update(env, f.ledger, state, NetworkEvent(Message{Kind: MsgAckSn, From: f.bob, Sig: bobSig, Number: 1}))
	mustNewState(t, out)
	state = out.State
	open := f.mustOpen(state)
	if open.CoordinatedHeadState.ConfirmedSnapshot.Snapshot.Number != 1 {
		t.Fatalf("expected snapshot 1 confirmed after all acks, got %d", open.CoordinatedHeadState.ConfirmedSnapshot.Snapshot.Number)
	}
	if !open.CoordinatedHeadState.ConfirmedSnapshot.IsConfirmed() {
		t.Fatalf("expected confirmed snapshot variant")
	}
	if open.CoordinatedHeadState.SeenSnapshot.IsSeen() {
		t.Fatalf("seenSnapshot must clear to None on confirmation")
	}
	foundConfirmed := false
	for _, e := range out.Effects {
		if e.Kind == EffectClient && e.ServerOutput.Kind == OutSnapshotConfirmed {
			foundConfirmed = true
		}
	}
	if !foundConfirmed {
		t.Fatalf("expected a ClientEffect(SnapshotConfirmed)")
	}
}

// scenario 2: a bad-signature ack is dropped silently, not confirmed.
func TestBadSignatureAckIsIgnored(t *testing.T) {
	f := newFixture(t)
	state := f.openState()
	env := f.env(f.bob)

	out := Update(env, f.ledger, state, NetworkEvent(Message{Kind: MsgReqSn, From: f.alice, Number: 1}))
	mustNewState(t, out)
	state = out.State
	seen := f.mustOpen(state).CoordinatedHeadState.SeenSnapshot

	carolSig := f.sign(f.carol, seen.Snapshot)
	out = Update(env, f.ledger, state, NetworkEvent(Message{Kind: MsgAckSn, From: f.carol, Sig: carolSig, Number: 1}))
	mustNewState(t, out)
	state = out.State

	aliceSig := f.sign(f.alice, seen.Snapshot)
	out = Update(env, f.ledger, state, NetworkEvent(Message{Kind: MsgAckSn, From: f.alice, Sig: aliceSig, Number: 1}))
	mustNewState(t, out)
	preBob := out.State

	// bob signs a different snapshot (number 2) instead of the in-flight one.
	wrongSnapshot := Snapshot{Number: 2, UTxO: seen.Snapshot.UTxO}
	bobBadSig := f.sign(f.bob, wrongSnapshot)
	out = Update(env, f.ledger, preBob, NetworkEvent(Message{Kind: MsgAckSn, From: f.bob, Sig: bobBadSig, Number: 1}))
	mustNewState(t, out)

	before := f.mustOpen(preBob).CoordinatedHeadState.ConfirmedSnapshot
	after := f.mustOpen(out.State).CoordinatedHeadState.ConfirmedSnapshot
	if after.Snapshot.Number != before.Snapshot.Number || after.IsConfirmed() != before.IsConfirmed() {
		t.Fatalf("confirmedSnapshot must be unchanged after a bad-signature ack")
	}
	if len(out.Effects) != 0 {
		t.Fatalf("a dropped ack must produce no effects, got %+v", out.Effects)
	}
}

// scenario 3: a snapshot request for a future number waits.
func TestFutureSnapshotWaits(t *testing.T) {
	f := newFixture(t)
	state := f.openState()
	env := f.env(f.bob)

	out := Update(env, f.ledger, state, NetworkEvent(Message{Kind: MsgReqSn, From: f.bob, Number: 2}))
	if out.Kind != OutcomeWait || out.Wait.Kind != WaitOnSeenSnapshot {
		t.Fatalf("expected Wait(WaitOnSeenSnapshot), got %+v", out)
	}
}

// scenario 4: overlapping leader requests for the same number reject the
// second one.
func TestOverlappingLeaderRequestsReject(t *testing.T) {
	f := newFixture(t)
	state := f.openState()
	env := f.env(f.bob)

	tx1 := txWithMemo(1)
	out := Update(env, f.ledger, state, NetworkEvent(Message{Kind: MsgReqSn, From: f.alice, Number: 1, Txs: txSlice(tx1)}))
	mustNewState(t, out)
	state = out.State

	tx2 := txWithMemo(2)
	out = Update(env, f.ledger, state, NetworkEvent(Message{Kind: MsgReqSn, From: f.alice, Number: 1, Txs: txSlice(tx2)}))
	if out.Kind != OutcomeError || out.Error.Kind != ErrInvalidEvent {
		t.Fatalf("expected Error(InvalidEvent) for overlapping request, got %+v", out)
	}
}

// scenario 5: observing a close with a stale snapshot number triggers a
// contest and always schedules the fanout delay.
func TestObserveCloseWithStaleSnapshotTriggersContest(t *testing.T) {
	f := newFixture(t)
	state := f.openState()
	env := f.env(f.bob)
	open := f.mustOpen(state)
	open.CoordinatedHeadState.ConfirmedSnapshot = ConfirmedConfirmedSnapshot(Snapshot{Number: 2}, zeroAgg(f))
	state = Open(open)

	out := Update(env, f.ledger, state, OnChainEvent(ChainEvent{
		Kind: ChainObservation,
		Tx:   OnChainTx{Kind: OnCloseTx, SnapshotNumber: 0},
	}))
	mustNewState(t, out)
	if !out.State.IsClosed() {
		t.Fatalf("expected Closed state after OnCloseTx, got %s", out.State.Tag())
	}

	var sawContest, sawDelay bool
	for _, e := range out.Effects {
		if e.Kind == EffectOnChain && e.PostChainTx.Kind == PostContestTx {
			sawContest = true
		}
		if e.Kind == EffectDelay {
			sawDelay = true
			if e.Delay != f.params.ContestationPeriod {
				t.Fatalf("expected delay of %v, got %v", f.params.ContestationPeriod, e.Delay)
			}
		}
	}
	if !sawContest {
		t.Fatalf("expected OnChainEffect(ContestTx) for a stale close, got %+v", out.Effects)
	}
	if !sawDelay {
		t.Fatalf("expected a Delay effect scheduling ShouldPostFanout, got %+v", out.Effects)
	}
}

