package chain

import (
	"encoding/json"
	"sort"
)

// UTxO is the monoidal set of unspent outputs described in spec.md §3: it
// supports an empty value and a union, and is otherwise opaque to callers
// outside this package. The zero value is the empty set.
//
// UTxO values are immutable from the caller's point of view: every method
// that "changes" a set returns a new one, grounded on the teacher's
// core/ledger.go applyBlock step, which deletes spent keys and inserts new
// ones into a fresh working copy rather than mutating shared state.
type UTxO struct {
	outputs map[string]entry
}

type entry struct {
	txID  Hash
	index uint32
	out   TxOut
}

// Empty returns the ∅ UTxO set.
func Empty() UTxO { return UTxO{} }

// FromOutputs seeds a UTxO set from a genesis-style output list, as if they
// were all produced by a single transaction tx.
func FromOutputs(tx Tx) UTxO {
	u := UTxO{outputs: make(map[string]entry, len(tx.Outputs))}
	id := tx.ID()
	for i, o := range tx.Outputs {
		u.outputs[outKey(id, uint32(i))] = entry{txID: id, index: uint32(i), out: o}
	}
	return u
}

// Union merges two UTxO sets. Overlapping keys favor the argument o, matching
// the teacher's map-assignment semantics (later write wins) since in
// practice the two sides of a union never legitimately overlap.
func (u UTxO) Union(o UTxO) UTxO {
	out := make(map[string]entry, len(u.outputs)+len(o.outputs))
	for k, v := range u.outputs {
		out[k] = v
	}
	for k, v := range o.outputs {
		out[k] = v
	}
	return UTxO{outputs: out}
}

// Len reports the number of unspent outputs. Exposed for tests and metrics,
// never consulted by protocol logic.
func (u UTxO) Len() int { return len(u.outputs) }

// Has reports whether the given output is unspent.
func (u UTxO) Has(in TxIn) bool {
	_, ok := u.outputs[outKey(in.TxID, in.Index)]
	return ok
}

// BalanceOf sums every unspent output owned by addr. Convenience for the
// client-facing UTxO query (spec.md §4.5, GetUTxO).
func (u UTxO) BalanceOf(addr Address) uint64 {
	var sum uint64
	for _, e := range u.outputs {
		if e.out.Owner == addr {
			sum += e.out.Amount
		}
	}
	return sum
}

// Entry is a single unspent output, exported so callers outside this
// package (the wire codec, persistence) can enumerate and reconstruct a
// UTxO set without reaching into its private map.
type Entry struct {
	TxID   Hash   `json:"txId"`
	Index  uint32 `json:"index"`
	Output TxOut  `json:"output"`
}

// utxoEntry is the JSON-stable shape of a single unspent output, keyed
// explicitly rather than via the internal map key string so that encoding
// does not depend on fmt.Sprintf's formatting choices.
type utxoEntry = Entry

// Entries returns every unspent output as an exported (txID, index,
// output) triple, in no particular order. Used by the wire codec to
// serialize a UTxO without depending on CanonicalBytes' JSON shape.
func (u UTxO) Entries() []Entry {
	out := make([]Entry, 0, len(u.outputs))
	for _, e := range u.outputs {
		out = append(out, Entry{TxID: e.txID, Index: e.index, Output: e.out})
	}
	return out
}

// FromEntries reconstructs a UTxO set from exported entries, the inverse
// of Entries. Used by the wire codec to decode a UTxO set back from its
// wire representation.
func FromEntries(entries []Entry) UTxO {
	u := UTxO{outputs: make(map[string]entry, len(entries))}
	for _, e := range entries {
		u.outputs[outKey(e.TxID, e.Index)] = entry{txID: e.TxID, index: e.Index, out: e.Output}
	}
	return u
}

// CanonicalBytes returns a deterministic JSON encoding of the set, sorted
// by (txID, index), suitable for hashing or signing. Used by the protocol
// package to build the bytes a Snapshot's signature covers.
func (u UTxO) CanonicalBytes() []byte {
	entries := make([]utxoEntry, 0, len(u.outputs))
	for _, e := range u.outputs {
		entries = append(entries, utxoEntry{TxID: e.txID, Index: e.index, Output: e.out})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].TxID != entries[j].TxID {
			return outKey(entries[i].TxID, entries[i].Index) < outKey(entries[j].TxID, entries[j].Index)
		}
		return entries[i].Index < entries[j].Index
	})
	raw, _ := json.Marshal(entries)
	return raw
}

// clone returns a shallow, independent copy safe to mutate.
func (u UTxO) clone() UTxO {
	out := make(map[string]entry, len(u.outputs))
	for k, v := range u.outputs {
		out[k] = v
	}
	return UTxO{outputs: out}
}
