package wire

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/synnergy-network/coordhead/chain"
	"github.com/synnergy-network/coordhead/headcrypto"
	"github.com/synnergy-network/coordhead/protocol"
)

func mustKeys(t *testing.T) (headcrypto.SigningKey, headcrypto.VerificationKey) {
	t.Helper()
	sk, vk, err := headcrypto.GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	return sk, vk
}

func sampleTx() chain.Tx {
	var owner chain.Address
	owner[0] = 0x7
	return chain.Tx{Outputs: []chain.TxOut{{Owner: owner, Amount: 100}}, Memo: []byte("hi")}
}

func roundTripEvent(t *testing.T, ev protocol.Event) {
	t.Helper()
	data, err := MarshalEvent(ev)
	if err != nil {
		t.Fatalf("MarshalEvent: %v", err)
	}
	got, err := UnmarshalEvent(data)
	if err != nil {
		t.Fatalf("UnmarshalEvent: %v\n%s", err, data)
	}
	data2, err := MarshalEvent(got)
	if err != nil {
		t.Fatalf("re-MarshalEvent: %v", err)
	}
	if string(data) != string(data2) {
		t.Fatalf("round trip not idempotent:\n%s\nvs\n%s", data, data2)
	}
}

func TestEventRoundTripInit(t *testing.T) {
	_, vk := mustKeys(t)
	ev := protocol.ClientEvent(protocol.Command{
		Kind: protocol.CmdInit,
		Parameters: protocol.HeadParameters{
			ContestationPeriod: 30 * time.Second,
			Parties:            []protocol.Party{protocol.PartyOf(vk)},
		},
	})
	roundTripEvent(t, ev)
}

func TestEventRoundTripCommit(t *testing.T) {
	ev := protocol.ClientEvent(protocol.Command{Kind: protocol.CmdCommit, Commit: chain.FromOutputs(sampleTx())})
	roundTripEvent(t, ev)
}

func TestEventRoundTripNewTx(t *testing.T) {
	ev := protocol.ClientEvent(protocol.Command{Kind: protocol.CmdNewTx, Tx: sampleTx()})
	roundTripEvent(t, ev)
}

func TestEventRoundTripClose(t *testing.T) {
	roundTripEvent(t, protocol.ClientEvent(protocol.Command{Kind: protocol.CmdClose}))
}

func TestEventRoundTripReqTx(t *testing.T) {
	_, vk := mustKeys(t)
	msg := protocol.Message{Kind: protocol.MsgReqTx, From: protocol.PartyOf(vk), Tx: sampleTx()}
	roundTripEvent(t, protocol.NetworkEvent(msg))
}

func TestEventRoundTripReqSn(t *testing.T) {
	_, vk := mustKeys(t)
	msg := protocol.Message{Kind: protocol.MsgReqSn, From: protocol.PartyOf(vk), Number: 3, Txs: []chain.Tx{sampleTx()}}
	roundTripEvent(t, protocol.NetworkEvent(msg))
}

func TestEventRoundTripAckSn(t *testing.T) {
	sk, vk := mustKeys(t)
	snap := protocol.Snapshot{Number: 1, UTxO: chain.FromOutputs(sampleTx())}
	sig, err := headcrypto.Sign(sk, snap)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	msg := protocol.Message{Kind: protocol.MsgAckSn, From: protocol.PartyOf(vk), Number: 1, Sig: sig}
	roundTripEvent(t, protocol.NetworkEvent(msg))
}

func TestEventRoundTripConnected(t *testing.T) {
	roundTripEvent(t, protocol.NetworkEvent(protocol.Message{Kind: protocol.MsgConnected, Host: "/ip4/127.0.0.1/tcp/4001"}))
}

func TestEventRoundTripChainObservation(t *testing.T) {
	_, vk := mustKeys(t)
	onTx := protocol.OnChainTx{
		Kind: protocol.OnInitTx,
		Parameters: protocol.HeadParameters{
			ContestationPeriod: time.Minute,
			Parties:            []protocol.Party{protocol.PartyOf(vk)},
		},
	}
	roundTripEvent(t, protocol.OnChainEvent(protocol.ChainEvent{Kind: protocol.ChainObservation, Tx: onTx}))
}

func TestEventRoundTripRollback(t *testing.T) {
	roundTripEvent(t, protocol.OnChainEvent(protocol.ChainEvent{Kind: protocol.ChainRollback, Depth: 2}))
}

func TestEventRoundTripShouldPostFanout(t *testing.T) {
	roundTripEvent(t, protocol.ShouldPostFanoutEvent())
}

func TestServerOutputRoundTripSnapshotConfirmed(t *testing.T) {
	sk, _ := mustKeys(t)
	snap := protocol.Snapshot{Number: 1, UTxO: chain.FromOutputs(sampleTx()), ConfirmedTxs: []chain.Tx{sampleTx()}}
	sig, err := headcrypto.Sign(sk, snap)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	agg, err := headcrypto.Aggregate([]headcrypto.Signature{sig})
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}

	out := protocol.ServerOutput{Kind: protocol.OutSnapshotConfirmed, Snapshot: snap, Agg: agg}
	data, err := MarshalServerOutput(out)
	if err != nil {
		t.Fatalf("MarshalServerOutput: %v", err)
	}
	got, err := UnmarshalServerOutput(data)
	if err != nil {
		t.Fatalf("UnmarshalServerOutput: %v\n%s", err, data)
	}
	if got.Snapshot.Number != out.Snapshot.Number {
		t.Fatalf("snapshot number mismatch: got %d want %d", got.Snapshot.Number, out.Snapshot.Number)
	}
	if got.Agg.Bytes() == nil || len(got.Agg.Bytes()) != len(out.Agg.Bytes()) {
		t.Fatalf("aggregate signature did not round trip")
	}
}

func TestServerOutputRoundTripUTxO(t *testing.T) {
	out := protocol.ServerOutput{Kind: protocol.OutUTxO, UTxO: chain.FromOutputs(sampleTx())}
	data, err := MarshalServerOutput(out)
	if err != nil {
		t.Fatalf("MarshalServerOutput: %v", err)
	}
	got, err := UnmarshalServerOutput(data)
	if err != nil {
		t.Fatalf("UnmarshalServerOutput: %v\n%s", err, data)
	}
	if got.UTxO.Len() != out.UTxO.Len() {
		t.Fatalf("utxo length mismatch: got %d want %d", got.UTxO.Len(), out.UTxO.Len())
	}
}

func TestServerOutputRoundTripPlainKinds(t *testing.T) {
	kinds := []protocol.ServerOutputKind{
		protocol.OutPeerConnected, protocol.OutPeerDisconnected,
		protocol.OutHeadIsInitializing, protocol.OutHeadIsOpen,
		protocol.OutRolledBack, protocol.OutHeadIsClosed,
		protocol.OutHeadIsFinalized, protocol.OutHeadIsAborted,
	}
	for _, k := range kinds {
		out := protocol.ServerOutput{Kind: k, Host: "peer-1"}
		data, err := MarshalServerOutput(out)
		if err != nil {
			t.Fatalf("MarshalServerOutput(%d): %v", k, err)
		}
		got, err := UnmarshalServerOutput(data)
		if err != nil {
			t.Fatalf("UnmarshalServerOutput(%d): %v", k, err)
		}
		if got.Kind != k {
			t.Fatalf("kind mismatch: got %d want %d", got.Kind, k)
		}
	}
}

func TestUnknownTagFailsToDecode(t *testing.T) {
	data := []byte(`{"tag":"NotARealTag"}`)
	if _, err := UnmarshalEvent(data); err == nil {
		t.Fatalf("expected error decoding unknown event tag")
	}
}

func TestMarshalEventUsesStableFieldNames(t *testing.T) {
	ev := protocol.ClientEvent(protocol.Command{Kind: protocol.CmdClose})
	data, err := MarshalEvent(ev)
	if err != nil {
		t.Fatalf("MarshalEvent: %v", err)
	}
	var generic map[string]json.RawMessage
	if err := json.Unmarshal(data, &generic); err != nil {
		t.Fatalf("json.Unmarshal: %v", err)
	}
	if _, ok := generic["tag"]; !ok {
		t.Fatalf("expected top-level %q field, got %s", "tag", data)
	}
}
