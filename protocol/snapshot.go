package protocol

import (
	"github.com/synnergy-network/coordhead/chain"
	"github.com/synnergy-network/coordhead/headcrypto"
)

// This file implements spec.md §4.2: leader election and the ReqTx / ReqSn
// / AckSn processing that drives snapshot confirmation.

// onReqTx is spec.md §4.2's "Processing ReqTx(from, tx)".
func onReqTx(env Environment, ledger Ledger, open OpenState, msg Message) Outcome {
	chs := open.CoordinatedHeadState
	newUTxO, err := ledger.ApplyTransactions(chs.SeenUTxO, []chain.Tx{msg.Tx})
	if err != nil {
		return Wait(WaitReason{Kind: WaitOnNotApplicableTx, Validation: asValidationError(err)})
	}

	newTxs := make([]chain.Tx, len(chs.SeenTxs)+1)
	copy(newTxs, chs.SeenTxs)
	newTxs[len(chs.SeenTxs)] = msg.Tx

	chs.SeenTxs = newTxs
	chs.SeenUTxO = newUTxO

	var effects []Effect
	nextSn := chs.ConfirmedSnapshot.Snapshot.Number + 1
	if env.Self == open.Parameters.Leader(nextSn) && !chs.SeenSnapshot.IsSeen() {
		effects = append(effects, NetworkEffect(Message{Kind: MsgReqSn, From: env.Self, Number: nextSn, Txs: newTxs}))
	}

	newOpen := open
	newOpen.CoordinatedHeadState = chs
	return NewState(Open(newOpen), effects...)
}

// onReqSn is spec.md §4.2's "Processing ReqSn(from, sn, txs)": the guard
// chain runs in the exact order spec.md lists, first failure wins.
func onReqSn(env Environment, ledger Ledger, open OpenState, msg Message) Outcome {
	chs := open.CoordinatedHeadState
	sn := msg.Number

	if msg.From != open.Parameters.Leader(sn) {
		return invalidEvent(NetworkEvent(msg), Open(open))
	}
	confirmedNum := chs.ConfirmedSnapshot.Snapshot.Number
	if sn <= confirmedNum {
		return invalidEvent(NetworkEvent(msg), Open(open))
	}
	if sn > confirmedNum+1 {
		return Wait(WaitReason{Kind: WaitOnSeenSnapshot})
	}
	if chs.SeenSnapshot.IsSeen() {
		inFlight := chs.SeenSnapshot.Snapshot.Number
		if sn == inFlight {
			return invalidEvent(NetworkEvent(msg), Open(open))
		}
		return Wait(WaitReason{Kind: WaitOnSnapshotNumber, Number: inFlight})
	}

	utxo, err := ledger.ApplyTransactions(chs.ConfirmedSnapshot.Snapshot.UTxO, msg.Txs)
	if err != nil {
		return Wait(WaitReason{Kind: WaitOnNotApplicableTx, Validation: asValidationError(err)})
	}

	snapshot := Snapshot{Number: sn, UTxO: utxo, ConfirmedTxs: msg.Txs}
	sig, err := headcrypto.Sign(env.SigningKey, snapshot)
	if err != nil {
		// a signing-capability fault is a collaborator fault (spec.md §7):
		// it propagates out of the reducer rather than being swallowed.
		panic(err)
	}

	// The ack map starts empty: this node's own signature is counted when its
	// broadcast AckSn is delivered back to it, like every other party's.
	chs.SeenSnapshot = Seen(snapshot, map[Party]headcrypto.Signature{})
	newOpen := open
	newOpen.CoordinatedHeadState = chs
	return NewState(Open(newOpen), NetworkEffect(Message{Kind: MsgAckSn, From: env.Self, Sig: sig, Number: sn}))
}

// onAckSn is spec.md §4.2's "Processing AckSn(from, sig, sn)". An ack
// carrying a bad signature is dropped silently (state unchanged, no
// effects) rather than raising an Error, per spec.md §9: this keeps a
// byzantine or buggy peer from being able to stall the protocol.
func onAckSn(env Environment, ledger Ledger, open OpenState, msg Message) Outcome {
	chs := open.CoordinatedHeadState
	if !chs.SeenSnapshot.IsSeen() || chs.SeenSnapshot.Snapshot.Number != msg.Number {
		return Wait(WaitReason{Kind: WaitOnSeenSnapshot})
	}

	vk, err := msg.From.VerificationKey()
	if err != nil || !headcrypto.Verify(vk, msg.Sig, chs.SeenSnapshot.Snapshot) {
		return NewState(Open(open))
	}

	sigs := make(map[Party]headcrypto.Signature, len(chs.SeenSnapshot.Sigs)+1)
	for p, s := range chs.SeenSnapshot.Sigs {
		sigs[p] = s
	}
	sigs[msg.From] = msg.Sig

	ordered := make([]headcrypto.Signature, 0, len(open.Parameters.Parties))
	complete := true
	for _, p := range open.Parameters.Parties {
		s, ok := sigs[p]
		if !ok {
			complete = false
			break
		}
		if _, err := p.VerificationKey(); err != nil {
			complete = false
			break
		}
		ordered = append(ordered, s)
	}

	if !complete {
		newSeen := chs.SeenSnapshot
		newSeen.Sigs = sigs
		chs.SeenSnapshot = newSeen
		newOpen := open
		newOpen.CoordinatedHeadState = chs
		return NewState(Open(newOpen))
	}

	agg, err := headcrypto.Aggregate(ordered)
	if err != nil {
		panic(err)
	}

	snapshot := chs.SeenSnapshot.Snapshot
	remaining := dropConfirmedPrefix(chs.SeenTxs, snapshot.ConfirmedTxs)
	newUTxO, err := ledger.ApplyTransactions(snapshot.UTxO, remaining)
	if err != nil {
		// remaining was already applicable against the prior confirmed
		// utxo plus the now-confirmed prefix; re-applying against the new
		// confirmed utxo cannot fail without a ledger capability bug.
		panic(err)
	}

	chs.ConfirmedSnapshot = ConfirmedConfirmedSnapshot(snapshot, agg)
	chs.SeenTxs = remaining
	chs.SeenUTxO = newUTxO
	chs.SeenSnapshot = NoSeenSnapshot()

	effects := []Effect{ClientEffect(ServerOutput{Kind: OutSnapshotConfirmed, Snapshot: snapshot, Agg: agg})}
	nextSn := snapshot.Number + 1
	if len(remaining) > 0 && env.Self == open.Parameters.Leader(nextSn) {
		effects = append(effects, NetworkEffect(Message{Kind: MsgReqSn, From: env.Self, Number: nextSn, Txs: remaining}))
	}

	newOpen := open
	newOpen.CoordinatedHeadState = chs
	return NewState(Open(newOpen), effects...)
}

// dropConfirmedPrefix removes the now-confirmed leading txs from seenTxs,
// matching by tx identity in order (spec.md §4.2: "drop snapshot.confirmedTxs
// from seenTxs").
func dropConfirmedPrefix(all, prefix []chain.Tx) []chain.Tx {
	if len(prefix) > len(all) {
		prefix = prefix[:len(all)]
	}
	for i, tx := range prefix {
		if !tx.Equal(all[i]) {
			out := make([]chain.Tx, len(all))
			copy(out, all)
			return out
		}
	}
	out := make([]chain.Tx, len(all)-len(prefix))
	copy(out, all[len(prefix):])
	return out
}

func asValidationError(err error) *chain.ValidationError {
	ve, _ := err.(*chain.ValidationError)
	return ve
}
