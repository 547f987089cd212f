// Package chain implements the Ledger capability (spec.md §6): an opaque,
// deterministic UTxO set with order-sensitive transaction application.
// Nothing in this package talks to the network or to disk; persistence is
// the runtime's concern (see package runtime).
package chain

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
)

// Address identifies the owner of a transaction output.
type Address [20]byte

// Hash is a 32-byte content hash, used as a transaction identifier.
type Hash [32]byte

// TxIn references a previously created output by the hash of the
// transaction that created it and its index within that transaction's
// output list.
type TxIn struct {
	TxID  Hash   `json:"txId"`
	Index uint32 `json:"index"`
}

// TxOut is a spendable output: an amount owned by an address.
type TxOut struct {
	Owner  Address `json:"owner"`
	Amount uint64  `json:"amount"`
}

// Tx is the opaque transaction spec.md §3 refers to. Two transactions with
// identical fields hash identically and are considered equal.
type Tx struct {
	Inputs  []TxIn  `json:"inputs"`
	Outputs []TxOut `json:"outputs"`
	// Memo is arbitrary application payload carried through untouched; it
	// has no bearing on validation but lets snapshots distinguish
	// otherwise-identical transactions (e.g. in property tests).
	Memo []byte `json:"memo,omitempty"`
}

// ID derives a stable identifier from the transaction's canonical JSON
// encoding. Go map iteration order is not involved: Inputs/Outputs are
// slices, so encoding is already deterministic.
func (t Tx) ID() Hash {
	raw, _ := json.Marshal(t)
	return sha256.Sum256(raw)
}

func (t Tx) Equal(o Tx) bool {
	return t.ID() == o.ID()
}

func outKey(txID Hash, index uint32) string {
	return fmt.Sprintf("%x:%d", txID, index)
}
