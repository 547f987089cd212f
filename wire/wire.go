// Package wire implements the JSON envelopes spec.md §6 requires for
// NetworkEvent, ServerOutput, and HeadState: stable string tag
// discriminators, losslessly round-tripping through JSON. It knows about
// package protocol's types but protocol never imports wire, keeping the
// reducer itself free of encoding concerns (spec.md §1: the core performs
// no I/O).
package wire

import (
	"encoding/hex"
	"fmt"
	"sort"
	"time"

	"github.com/synnergy-network/coordhead/chain"
)

// Event is the wire shape of protocol.Event: a single "tag" discriminator
// plus the payload for that tag, matching spec.md §6's "Field names and
// tag discriminators are part of the public contract".
type Event struct {
	Tag     string           `json:"tag"`
	Command *Command         `json:"command,omitempty"`
	Message *Message         `json:"message,omitempty"`
	Chain   *ChainEvent      `json:"chain,omitempty"`
}

type Command struct {
	Tag        string            `json:"tag"`
	Parameters *HeadParameters   `json:"parameters,omitempty"`
	Commit     *UTxO             `json:"commit,omitempty"`
	Tx         *Tx               `json:"tx,omitempty"`
}

type Message struct {
	Tag    string `json:"tag"`
	From   string `json:"from,omitempty"`
	Tx     *Tx    `json:"tx,omitempty"`
	Number uint64 `json:"number,omitempty"`
	Txs    []Tx   `json:"txs,omitempty"`
	Sig    string `json:"sig,omitempty"`
	Host   string `json:"host,omitempty"`
}

type ChainEvent struct {
	Tag   string     `json:"tag"`
	Tx    *OnChainTx `json:"tx,omitempty"`
	Depth int        `json:"depth,omitempty"`
	Time  *time.Time `json:"time,omitempty"`
}

type OnChainTx struct {
	Tag            string          `json:"tag"`
	Parameters     *HeadParameters `json:"parameters,omitempty"`
	Party          string          `json:"party,omitempty"`
	UTxO           *UTxO           `json:"utxo,omitempty"`
	SnapshotNumber uint64          `json:"snapshotNumber,omitempty"`
	Deadline       *time.Time      `json:"deadline,omitempty"`
}

type HeadParameters struct {
	ContestationPeriodSeconds float64  `json:"contestationPeriodSeconds"`
	Parties                   []string `json:"parties"`
}

type Tx struct {
	Inputs  []TxIn  `json:"inputs"`
	Outputs []TxOut `json:"outputs"`
	Memo    string  `json:"memo,omitempty"`
}

type TxIn struct {
	TxID  string `json:"txId"`
	Index uint32 `json:"index"`
}

type TxOut struct {
	Owner  string `json:"owner"`
	Amount uint64 `json:"amount"`
}

// UTxO is the wire shape of chain.UTxO: an explicit list of entries, since
// the domain type is otherwise opaque outside package chain.
type UTxO struct {
	Entries []UTxOEntry `json:"entries"`
}

type UTxOEntry struct {
	TxID   string `json:"txId"`
	Index  uint32 `json:"index"`
	Output TxOut  `json:"output"`
}

// ServerOutput is the wire shape of protocol.ServerOutput (spec.md §6).
type ServerOutput struct {
	Tag      string                     `json:"tag"`
	Host     string                     `json:"host,omitempty"`
	Snapshot *Snapshot                  `json:"snapshot,omitempty"`
	Agg      string                     `json:"agg,omitempty"`
	UTxO     *UTxO                      `json:"utxo,omitempty"`
}

type Snapshot struct {
	Number       uint64 `json:"number"`
	UTxO         UTxO   `json:"utxo"`
	ConfirmedTxs []Tx   `json:"confirmedTxs"`
}

func hexBytes(b []byte) string { return hex.EncodeToString(b) }

func hexDecode(s string) ([]byte, error) { return hex.DecodeString(s) }

func txIDString(h chain.Hash) string { return hex.EncodeToString(h[:]) }

func txIDFromString(s string) (chain.Hash, error) {
	var h chain.Hash
	b, err := hex.DecodeString(s)
	if err != nil {
		return h, err
	}
	if len(b) != len(h) {
		return h, fmt.Errorf("txId: expected %d bytes, got %d", len(h), len(b))
	}
	copy(h[:], b)
	return h, nil
}

func addrString(a chain.Address) string { return hex.EncodeToString(a[:]) }

func addrFromString(s string) (chain.Address, error) {
	var a chain.Address
	b, err := hex.DecodeString(s)
	if err != nil {
		return a, err
	}
	if len(b) != len(a) {
		return a, fmt.Errorf("owner: expected %d bytes, got %d", len(a), len(b))
	}
	copy(a[:], b)
	return a, nil
}

func fromTx(t chain.Tx) Tx {
	w := Tx{Memo: hex.EncodeToString(t.Memo)}
	for _, in := range t.Inputs {
		w.Inputs = append(w.Inputs, TxIn{TxID: txIDString(in.TxID), Index: in.Index})
	}
	for _, out := range t.Outputs {
		w.Outputs = append(w.Outputs, TxOut{Owner: addrString(out.Owner), Amount: out.Amount})
	}
	return w
}

func toTx(w Tx) (chain.Tx, error) {
	var t chain.Tx
	if w.Memo != "" {
		memo, err := hex.DecodeString(w.Memo)
		if err != nil {
			return t, fmt.Errorf("memo: %w", err)
		}
		t.Memo = memo
	}
	for _, in := range w.Inputs {
		id, err := txIDFromString(in.TxID)
		if err != nil {
			return t, err
		}
		t.Inputs = append(t.Inputs, chain.TxIn{TxID: id, Index: in.Index})
	}
	for _, out := range w.Outputs {
		owner, err := addrFromString(out.Owner)
		if err != nil {
			return t, err
		}
		t.Outputs = append(t.Outputs, chain.TxOut{Owner: owner, Amount: out.Amount})
	}
	return t, nil
}

func fromTxs(txs []chain.Tx) []Tx {
	out := make([]Tx, len(txs))
	for i, t := range txs {
		out[i] = fromTx(t)
	}
	return out
}

func toTxs(txs []Tx) ([]chain.Tx, error) {
	out := make([]chain.Tx, len(txs))
	for i, t := range txs {
		tx, err := toTx(t)
		if err != nil {
			return nil, err
		}
		out[i] = tx
	}
	return out, nil
}

// fromUTxO encodes entries in a fixed (txID, index) order: chain.UTxO's
// underlying map iterates in random order, and a stable encoding lets wire
// bytes be compared byte-for-byte across calls, as CanonicalBytes also does.
func fromUTxO(u chain.UTxO) UTxO {
	entries := u.Entries()
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].TxID != entries[j].TxID {
			return txIDString(entries[i].TxID) < txIDString(entries[j].TxID)
		}
		return entries[i].Index < entries[j].Index
	})
	w := UTxO{}
	for _, e := range entries {
		w.Entries = append(w.Entries, UTxOEntry{
			TxID:   txIDString(e.TxID),
			Index:  e.Index,
			Output: TxOut{Owner: addrString(e.Output.Owner), Amount: e.Output.Amount},
		})
	}
	return w
}

func toUTxO(w UTxO) (chain.UTxO, error) {
	entries := make([]chain.Entry, len(w.Entries))
	for i, e := range w.Entries {
		id, err := txIDFromString(e.TxID)
		if err != nil {
			return chain.UTxO{}, err
		}
		owner, err := addrFromString(e.Output.Owner)
		if err != nil {
			return chain.UTxO{}, err
		}
		entries[i] = chain.Entry{TxID: id, Index: e.Index, Output: chain.TxOut{Owner: owner, Amount: e.Output.Amount}}
	}
	return chain.FromEntries(entries), nil
}
