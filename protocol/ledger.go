package protocol

import "github.com/synnergy-network/coordhead/chain"

// Ledger is the capability spec.md §6 describes as "the ledger transaction
// validator": initUTxO plus an order-sensitive applyTransactions. It is an
// interface, not a concrete import of package chain, so tests can inject a
// fake that fails on demand — grounded on the teacher's consensus.go
// pattern of small capability interfaces (txPool, networkAdapter,
// securityAdapter) wired into the engine rather than imported directly.
type Ledger interface {
	InitUTxO() chain.UTxO
	ApplyTransactions(utxo chain.UTxO, txs []chain.Tx) (chain.UTxO, error)
}

// DefaultLedger is the real capability, backed by package chain.
type DefaultLedger struct{}

func (DefaultLedger) InitUTxO() chain.UTxO { return chain.InitUTxO() }

func (DefaultLedger) ApplyTransactions(utxo chain.UTxO, txs []chain.Tx) (chain.UTxO, error) {
	return chain.ApplyTransactions(utxo, txs)
}
