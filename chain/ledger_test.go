package chain

import "testing"

func addr(b byte) Address {
	var a Address
	a[0] = b
	return a
}

func TestApplyTransactionsEmptyIsIdentity(t *testing.T) {
	u := Empty()
	got, err := ApplyTransactions(u, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Len() != u.Len() {
		t.Fatalf("expected unchanged utxo, got len %d", got.Len())
	}
}

func TestApplyTransactionsSpendAndCreate(t *testing.T) {
	genesisTx := Tx{Outputs: []TxOut{{Owner: addr(1), Amount: 100}}}
	u := FromOutputs(genesisTx)

	spend := Tx{
		Inputs:  []TxIn{{TxID: genesisTx.ID(), Index: 0}},
		Outputs: []TxOut{{Owner: addr(2), Amount: 60}, {Owner: addr(1), Amount: 40}},
	}

	got, err := ApplyTransactions(u, []Tx{spend})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.BalanceOf(addr(2)) != 60 {
		t.Fatalf("expected 60 for addr2, got %d", got.BalanceOf(addr(2)))
	}
	if got.BalanceOf(addr(1)) != 40 {
		t.Fatalf("expected 40 for addr1, got %d", got.BalanceOf(addr(1)))
	}
	if got.Has(TxIn{TxID: genesisTx.ID(), Index: 0}) {
		t.Fatalf("spent input should no longer be in utxo")
	}
}

func TestApplyTransactionsRejectsUnknownInput(t *testing.T) {
	u := Empty()
	bogus := Tx{Inputs: []TxIn{{TxID: Hash{0xff}, Index: 0}}}

	got, err := ApplyTransactions(u, []Tx{bogus})
	if err == nil {
		t.Fatalf("expected ValidationError")
	}
	if _, ok := err.(*ValidationError); !ok {
		t.Fatalf("expected *ValidationError, got %T", err)
	}
	if got.Len() != u.Len() {
		t.Fatalf("utxo must be unchanged on failure")
	}
}

func TestApplyTransactionsStopsAtFirstFailure(t *testing.T) {
	genesisTx := Tx{Outputs: []TxOut{{Owner: addr(1), Amount: 10}}}
	u := FromOutputs(genesisTx)

	good := Tx{
		Inputs:  []TxIn{{TxID: genesisTx.ID(), Index: 0}},
		Outputs: []TxOut{{Owner: addr(2), Amount: 10}},
	}
	doubleSpend := Tx{
		Inputs:  []TxIn{{TxID: genesisTx.ID(), Index: 0}},
		Outputs: []TxOut{{Owner: addr(3), Amount: 10}},
	}

	_, err := ApplyTransactions(u, []Tx{good, doubleSpend})
	if err == nil {
		t.Fatalf("expected the double-spend to fail")
	}
}

func TestUnionIsCommutativeOnDisjointSets(t *testing.T) {
	a := FromOutputs(Tx{Outputs: []TxOut{{Owner: addr(1), Amount: 1}}})
	b := FromOutputs(Tx{Outputs: []TxOut{{Owner: addr(2), Amount: 2}}})

	ab := a.Union(b)
	ba := b.Union(a)
	if ab.Len() != ba.Len() || ab.Len() != 2 {
		t.Fatalf("expected union of disjoint sets to have 2 entries both ways")
	}
}
