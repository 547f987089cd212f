package protocol

import "encoding/json"

// CanonicalBytes implements headcrypto.Snapshottable: spec.md §6 fixes the
// signed message as a canonical byte serialization of
// (number, utxo, confirmedTxs); both signer and verifier must agree
// bit-exactly, so this is the single place that encoding is defined.
func (s Snapshot) CanonicalBytes() []byte {
	txs, _ := json.Marshal(s.ConfirmedTxs)
	type wire struct {
		Number       uint64          `json:"number"`
		UTxO         json.RawMessage `json:"utxo"`
		ConfirmedTxs json.RawMessage `json:"confirmedTxs"`
	}
	raw, _ := json.Marshal(wire{
		Number:       s.Number,
		UTxO:         s.UTxO.CanonicalBytes(),
		ConfirmedTxs: txs,
	})
	return raw
}
