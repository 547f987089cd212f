package wire

import (
	"os"
	"testing"

	"github.com/synnergy-network/coordhead/protocol"
)

func readGolden(t *testing.T, name string) []byte {
	t.Helper()
	data, err := os.ReadFile("testdata/" + name)
	if err != nil {
		t.Fatalf("ReadFile(%s): %v", name, err)
	}
	return data
}

func TestGoldenEventClose(t *testing.T) {
	data := readGolden(t, "event_close.json")
	ev, err := UnmarshalEvent(data)
	if err != nil {
		t.Fatalf("UnmarshalEvent: %v", err)
	}
	if ev.Kind != protocol.EventClient {
		t.Fatalf("expected EventClient, got %d", ev.Kind)
	}
	if ev.Client.Kind != protocol.CmdClose {
		t.Fatalf("expected CmdClose, got %d", ev.Client.Kind)
	}
}

func TestGoldenEventReqTx(t *testing.T) {
	data := readGolden(t, "event_reqtx.json")
	ev, err := UnmarshalEvent(data)
	if err != nil {
		t.Fatalf("UnmarshalEvent: %v", err)
	}
	if string(ev.Network.From) != "b01f2a" {
		t.Fatalf("unexpected From: %q", ev.Network.From)
	}
	if len(ev.Network.Tx.Outputs) != 1 || ev.Network.Tx.Outputs[0].Amount != 100 {
		t.Fatalf("unexpected tx outputs: %+v", ev.Network.Tx.Outputs)
	}
	if string(ev.Network.Tx.Memo) != "hi" {
		t.Fatalf("unexpected memo: %q", ev.Network.Tx.Memo)
	}
}

func TestGoldenHeadStateIdle(t *testing.T) {
	data := readGolden(t, "headstate_idle.json")
	h, err := UnmarshalHeadState(data)
	if err != nil {
		t.Fatalf("UnmarshalHeadState: %v", err)
	}
	if !h.IsIdle() {
		t.Fatalf("expected Idle state, got %s", h.Tag())
	}
	roundTrip, err := MarshalHeadState(h)
	if err != nil {
		t.Fatalf("MarshalHeadState: %v", err)
	}
	h2, err := UnmarshalHeadState(roundTrip)
	if err != nil {
		t.Fatalf("UnmarshalHeadState (re-decode): %v", err)
	}
	if !h2.IsIdle() {
		t.Fatalf("expected Idle state after round trip")
	}
}
