package protocol

import (
	"bytes"
	"testing"
)

// UTxO cache consistency (spec.md §8): after any accepted transition in
// Open, applyTransactions(confirmedSnapshot.utxo, seenTxs) == seenUTxO.
func TestSeenUTxOCacheConsistency(t *testing.T) {
	f := newFixture(t)
	env := f.env(f.bob)
	state := f.openState()

	tx := txWithMemo(7)
	out := Update(env, f.ledger, state, ClientEvent(Command{Kind: CmdNewTx, Tx: tx}))
	mustNewState(t, out)

	open := f.mustOpen(out.State)
	recomputed, err := f.ledger.ApplyTransactions(open.CoordinatedHeadState.ConfirmedSnapshot.Snapshot.UTxO, open.CoordinatedHeadState.SeenTxs)
	if err != nil {
		t.Fatalf("unexpected apply error: %v", err)
	}
	if !bytes.Equal(recomputed.CanonicalBytes(), open.CoordinatedHeadState.SeenUTxO.CanonicalBytes()) {
		t.Fatalf("seenUTxO cache is inconsistent with applyTransactions(confirmedSnapshot.utxo, seenTxs)")
	}
}

// Leader constraint (spec.md §8): for all ReqSn(from, sn, _) accepted,
// from == parties[(sn-1) mod N].
func TestLeaderConstraintRejectsWrongSender(t *testing.T) {
	f := newFixture(t)
	env := f.env(f.bob)
	state := f.openState()

	// snapshot 1's leader is parties[0] == alice; carol is not the leader.
	out := Update(env, f.ledger, state, NetworkEvent(Message{Kind: MsgReqSn, From: f.carol, Number: 1}))
	if out.Kind != OutcomeError || out.Error.Kind != ErrInvalidEvent {
		t.Fatalf("expected Error(InvalidEvent) for a non-leader ReqSn, got %+v", out)
	}
}

// Snapshot monotonicity (spec.md §8): confirmedSnapshot.number never
// decreases across a sequence of accepted transitions.
func TestSnapshotNumberNonDecreasing(t *testing.T) {
	f := newFixture(t)
	env := f.env(f.bob)
	state := f.openState()

	out := Update(env, f.ledger, state, NetworkEvent(Message{Kind: MsgReqSn, From: f.alice, Number: 1}))
	mustNewState(t, out)
	seen := f.mustOpen(out.State).CoordinatedHeadState.SeenSnapshot
	state = out.State

	last := f.mustOpen(state).CoordinatedHeadState.ConfirmedSnapshot.Snapshot.Number
	for _, p := range []Party{f.carol, f.alice, f.bob} {
		sig := f.sign(p, seen.Snapshot)
		out = Update(env, f.ledger, state, NetworkEvent(Message{Kind: MsgAckSn, From: p, Sig: sig, Number: 1}))
		mustNewState(t, out)
		state = out.State
		next := f.mustOpen(state).CoordinatedHeadState.ConfirmedSnapshot.Snapshot.Number
		if next < last {
			t.Fatalf("confirmedSnapshot.number decreased: %d -> %d", last, next)
		}
		last = next
	}
	if last != 1 {
		t.Fatalf("expected snapshot 1 confirmed at the end, got %d", last)
	}
}
