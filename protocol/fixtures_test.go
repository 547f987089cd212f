package protocol

import (
	"testing"
	"time"

	"github.com/synnergy-network/coordhead/chain"
	"github.com/synnergy-network/coordhead/headcrypto"
)

// fixture is a three-party head (alice, bob, carol) matching spec.md §8's
// end-to-end scenarios with env.self = bob, cp = 42s. Party identities are
// derived from real generated BLS keys, exactly as production does via
// PartyOf, since onAckSn decodes a Party back into a verification key.
type fixture struct {
	t      *testing.T
	alice  Party
	bob    Party
	carol  Party
	sks    map[Party]headcrypto.SigningKey
	params HeadParameters
	ledger Ledger
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	labels := []string{"alice", "bob", "carol"}
	sks := make(map[Party]headcrypto.SigningKey, 3)
	var parties [3]Party
	for i, label := range labels {
		sk, vk, err := headcrypto.GenerateKey()
		if err != nil {
			t.Fatalf("generate key for %s: %v", label, err)
		}
		p := PartyOf(vk)
		parties[i] = p
		sks[p] = sk
	}
	return &fixture{
		t:     t,
		alice: parties[0],
		bob:   parties[1],
		carol: parties[2],
		sks:   sks,
		params: HeadParameters{
			ContestationPeriod: 42 * time.Second,
			Parties:            parties[:],
		},
		ledger: DefaultLedger{},
	}
}

func (f *fixture) env(self Party) Environment {
	return Environment{Self: self, SigningKey: f.sks[self]}
}

func (f *fixture) sign(self Party, s Snapshot) headcrypto.Signature {
	f.t.Helper()
	sig, err := headcrypto.Sign(f.sks[self], s)
	if err != nil {
		f.t.Fatalf("sign: %v", err)
	}
	return sig
}

// openState builds a fresh Open state at snapshot 0 with no seen txs.
func (f *fixture) openState() HeadState {
	snap := Snapshot{Number: 0, UTxO: chain.Empty()}
	chs := CoordinatedHeadState{
		SeenUTxO:          chain.Empty(),
		ConfirmedSnapshot: InitialConfirmedSnapshot(snap),
		SeenSnapshot:      NoSeenSnapshot(),
	}
	return Open(OpenState{Parameters: f.params, CoordinatedHeadState: chs})
}

func (f *fixture) mustOpen(h HeadState) OpenState {
	f.t.Helper()
	o, ok := h.AsOpen()
	if !ok {
		f.t.Fatalf("expected Open state, got %s", h.Tag())
	}
	return o
}

func (f *fixture) mustClosed(h HeadState) ClosedState {
	f.t.Helper()
	c, ok := h.AsClosed()
	if !ok {
		f.t.Fatalf("expected Closed state, got %s", h.Tag())
	}
	return c
}

func (f *fixture) mustInitial(h HeadState) InitialState {
	f.t.Helper()
	i, ok := h.AsInitial()
	if !ok {
		f.t.Fatalf("expected Initial state, got %s", h.Tag())
	}
	return i
}

func mustNewState(t *testing.T, out Outcome) {
	t.Helper()
	if out.Kind != OutcomeNewState {
		t.Fatalf("expected NewState, got kind=%d (wait=%+v error=%+v)", out.Kind, out.Wait, out.Error)
	}
}

func txWithMemo(n byte) chain.Tx {
	return chain.Tx{Memo: []byte{n}}
}

func txSlice(txs ...chain.Tx) []chain.Tx {
	return txs
}

// zeroAgg returns a usable (if meaningless) aggregate signature, for tests
// that only need a Confirmed variant to exist and never verify it.
func zeroAgg(f *fixture) headcrypto.AggregateSignature {
	sig := f.sign(f.bob, Snapshot{})
	agg, err := headcrypto.Aggregate([]headcrypto.Signature{sig})
	if err != nil {
		f.t.Fatalf("aggregate: %v", err)
	}
	return agg
}
