package chain

import "fmt"

// ValidationError reports why a transaction did not apply. It is returned
// wrapped inside WaitOnNotApplicableTx by the protocol package; the ledger
// capability itself never panics on a bad transaction.
type ValidationError struct {
	TxID   Hash
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("tx %x: %s", e.TxID[:4], e.Reason)
}

// InitUTxO returns the ∅ UTxO set, matching spec.md §6's initUTxO.
func InitUTxO() UTxO { return Empty() }

// ApplyTransactions applies txs, in order, against utxo, grounded on the
// spend/create step of the teacher's Ledger.applyBlock (core/ledger.go):
// every input must reference a currently-unspent output, inputs are
// removed, and outputs are inserted keyed by (txID, index). Applying nil or
// an empty slice returns utxo unchanged, per spec.md §6.
//
// On the first invalid transaction, apply stops and returns the original
// utxo together with a *ValidationError identifying the offending tx and
// reason. This is order-sensitive and deterministic: the same (utxo, txs)
// always yields the same result.
func ApplyTransactions(utxo UTxO, txs []Tx) (UTxO, error) {
	if len(txs) == 0 {
		return utxo, nil
	}
	working := utxo.clone()
	for _, tx := range txs {
		id := tx.ID()
		for _, in := range tx.Inputs {
			if !working.Has(in) {
				return utxo, &ValidationError{TxID: id, Reason: fmt.Sprintf("input %x:%d not in utxo", in.TxID[:4], in.Index)}
			}
		}
		for _, in := range tx.Inputs {
			delete(working.outputs, outKey(in.TxID, in.Index))
		}
		for i, out := range tx.Outputs {
			working.outputs[outKey(id, uint32(i))] = entry{txID: id, index: uint32(i), out: out}
		}
	}
	return working, nil
}
