// Package protocol is the core of this repository: a pure, side-effect-free
// reducer implementing the coordinated Head protocol described in
// SPEC_FULL.md §3–§9. It imports only package chain (the Ledger capability)
// and package headcrypto (the Crypto capability); it performs no I/O, holds
// no locks, and never blocks.
package protocol

import (
	"encoding/hex"
	"time"

	"github.com/synnergy-network/coordhead/chain"
	"github.com/synnergy-network/coordhead/headcrypto"
)

// Party is the hex encoding of a party's BLS verification key. spec.md §3:
// "The verification key *is* the Party identity." A string identity keeps
// Party trivially comparable and usable as a Go map key and JSON object
// key, which a raw headcrypto.VerificationKey (wrapping cgo-backed BLS
// state) is not guaranteed to be.
type Party string

// PartyOf derives a Party identity from a verification key.
func PartyOf(vk headcrypto.VerificationKey) Party {
	return Party(hex.EncodeToString(vk.Bytes()))
}

// VerificationKey re-derives the BLS key backing a Party identity.
func (p Party) VerificationKey() (headcrypto.VerificationKey, error) {
	b, err := hex.DecodeString(string(p))
	if err != nil {
		return headcrypto.VerificationKey{}, err
	}
	return headcrypto.VerificationKeyFromBytes(b)
}

// HeadParameters is frozen at head initialization (spec.md §3). Parties is
// ordered: leader election indexes into it directly.
type HeadParameters struct {
	ContestationPeriod time.Duration
	Parties            []Party
}

// IndexOf returns the position of p in params.Parties, or -1.
func (hp HeadParameters) IndexOf(p Party) int {
	for i, q := range hp.Parties {
		if q == p {
			return i
		}
	}
	return -1
}

// Leader returns the party entitled to originate snapshot number sn,
// spec.md §4.2: parties[(sn-1) mod N].
func (hp HeadParameters) Leader(sn uint64) Party {
	n := uint64(len(hp.Parties))
	if n == 0 {
		return ""
	}
	return hp.Parties[(sn-1)%n]
}

// Environment is the per-node constant context threaded through every call
// to Update (spec.md §3).
type Environment struct {
	Self       Party
	SigningKey headcrypto.SigningKey
	Others     map[Party]struct{}
}

// Snapshot is a numbered, signed summary of the head's UTxO and confirmed
// transactions (spec.md §3). Number 0 is the initial snapshot.
type Snapshot struct {
	Number       uint64
	UTxO         chain.UTxO
	ConfirmedTxs []chain.Tx
}

// ConfirmedSnapshot is Initial(Snapshot) | Confirmed(Snapshot, AggregateSignature).
type ConfirmedSnapshot struct {
	Snapshot Snapshot
	// Agg is the zero value iff this is the Initial variant.
	Agg       headcrypto.AggregateSignature
	confirmed bool
}

// InitialConfirmedSnapshot constructs the Initial(snapshot) variant.
func InitialConfirmedSnapshot(s Snapshot) ConfirmedSnapshot {
	return ConfirmedSnapshot{Snapshot: s}
}

// ConfirmedConfirmedSnapshot constructs the Confirmed(snapshot, agg) variant.
func ConfirmedConfirmedSnapshot(s Snapshot, agg headcrypto.AggregateSignature) ConfirmedSnapshot {
	return ConfirmedSnapshot{Snapshot: s, Agg: agg, confirmed: true}
}

func (c ConfirmedSnapshot) IsConfirmed() bool { return c.confirmed }

// SeenSnapshot is None | Seen(Snapshot, map<Party, Signature>).
type SeenSnapshot struct {
	present   bool
	Snapshot  Snapshot
	Sigs      map[Party]headcrypto.Signature
}

// NoSeenSnapshot is the None variant.
func NoSeenSnapshot() SeenSnapshot { return SeenSnapshot{} }

// Seen constructs the Seen(snapshot, sigs) variant. The sigs map is copied
// defensively, grounded on quorum_tracker.go's copy-on-write vote map.
func Seen(s Snapshot, sigs map[Party]headcrypto.Signature) SeenSnapshot {
	cp := make(map[Party]headcrypto.Signature, len(sigs))
	for k, v := range sigs {
		cp[k] = v
	}
	return SeenSnapshot{present: true, Snapshot: s, Sigs: cp}
}

func (s SeenSnapshot) IsSeen() bool { return s.present }

// CoordinatedHeadState is the per-Open bookkeeping state (spec.md §3).
type CoordinatedHeadState struct {
	SeenUTxO          chain.UTxO
	SeenTxs           []chain.Tx
	ConfirmedSnapshot ConfirmedSnapshot
	SeenSnapshot      SeenSnapshot
}
