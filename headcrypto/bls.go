// Package headcrypto implements the Crypto capability of spec.md §6:
// sign, verify, aggregate, and verify-aggregate over snapshots.
//
// It is grounded on core/security.go's BLS12-381 helpers (Sign, Verify,
// AggregateBLSSigs, VerifyAggregated) from the teacher codebase, trimmed to
// the single curve and single message shape the protocol needs: every
// party signs the identical canonical snapshot bytes, so aggregation is
// the "fast aggregate" form — sum the signatures, sum the public keys,
// verify once.
package headcrypto

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	bls "github.com/herumi/bls-eth-go-binary/bls"
)

var initOnce sync.Once
var initErr error

func ensureInit() error {
	initOnce.Do(func() {
		initErr = bls.Init(bls.BLS12_381)
	})
	return initErr
}

// SigningKey is a party's BLS secret key.
type SigningKey struct{ sk bls.SecretKey }

// VerificationKey is a party's BLS public key; spec.md §3 says this value
// *is* the Party identity.
type VerificationKey struct{ pk bls.PublicKey }

// Signature is a single party's signature over a snapshot.
type Signature struct{ sig bls.Sign }

// AggregateSignature combines signatures from every party over the same
// snapshot.
type AggregateSignature struct{ sig bls.Sign }

// GenerateKey produces a fresh random keypair, used by tests and by
// operators provisioning a new head.
func GenerateKey() (SigningKey, VerificationKey, error) {
	if err := ensureInit(); err != nil {
		return SigningKey{}, VerificationKey{}, err
	}
	var sk bls.SecretKey
	sk.SetByCSPRNG()
	return SigningKey{sk: sk}, VerificationKey{pk: *sk.GetPublicKey()}, nil
}

// Snapshottable is the minimal shape the crypto capability needs to sign:
// spec.md §6 fixes the signed message as "a canonical byte serialization
// of (number, utxo, confirmedTxs)"; CanonicalBytes produces exactly that.
type Snapshottable interface {
	CanonicalBytes() []byte
}

// canonicalSnapshot mirrors the three fields spec.md §6 names, independent
// of how the caller's Snapshot type is shaped, so this package has no
// import-cycle dependency on package protocol.
type canonicalSnapshot struct {
	Number       uint64          `json:"number"`
	UTxO         json.RawMessage `json:"utxo"`
	ConfirmedTxs json.RawMessage `json:"confirmedTxs"`
}

// Sign signs s with sk.
func Sign(sk SigningKey, s Snapshottable) (Signature, error) {
	if err := ensureInit(); err != nil {
		return Signature{}, err
	}
	return Signature{sig: *sk.sk.SignByte(s.CanonicalBytes())}, nil
}

// Verify checks sig against vk and s.
func Verify(vk VerificationKey, sig Signature, s Snapshottable) bool {
	return sig.sig.VerifyByte(&vk.pk, s.CanonicalBytes())
}

// Aggregate combines signatures collected from parties into a single
// AggregateSignature, grounded on AggregateBLSSigs.
func Aggregate(sigs []Signature) (AggregateSignature, error) {
	if len(sigs) == 0 {
		return AggregateSignature{}, errors.New("no signatures to aggregate")
	}
	agg := sigs[0].sig
	for _, s := range sigs[1:] {
		agg.Add(&s.sig)
	}
	return AggregateSignature{sig: agg}, nil
}

// VerifyAggregate checks that agg is a valid aggregate of signatures by
// exactly the given verification keys over s, grounded on VerifyAggregated.
// Every signer is assumed to have signed the identical message s, which
// holds by construction: the snapshot engine never asks two parties to
// sign different content for the same snapshot number.
func VerifyAggregate(vks []VerificationKey, agg AggregateSignature, s Snapshottable) bool {
	if len(vks) == 0 {
		return false
	}
	pubAgg := vks[0].pk
	for _, vk := range vks[1:] {
		pubAgg.Add(&vk.pk)
	}
	return agg.sig.VerifyByte(&pubAgg, s.CanonicalBytes())
}

// Bytes/FromBytes round-trip keys and signatures through their compressed
// serialization, used by the wire package for JSON transport and by
// persistence in the runtime package.

func (vk VerificationKey) Bytes() []byte { return vk.pk.Serialize() }

func VerificationKeyFromBytes(b []byte) (VerificationKey, error) {
	var pk bls.PublicKey
	if err := pk.Deserialize(b); err != nil {
		return VerificationKey{}, fmt.Errorf("verification key: %w", err)
	}
	return VerificationKey{pk: pk}, nil
}

// Public derives the verification key matching sk, used to recover a
// party's identity after its signing key is loaded back from disk.
func (sk SigningKey) Public() VerificationKey {
	return VerificationKey{pk: *sk.sk.GetPublicKey()}
}

func (sk SigningKey) Bytes() []byte { return sk.sk.Serialize() }

func SigningKeyFromBytes(b []byte) (SigningKey, error) {
	var sk bls.SecretKey
	if err := sk.Deserialize(b); err != nil {
		return SigningKey{}, fmt.Errorf("signing key: %w", err)
	}
	return SigningKey{sk: sk}, nil
}

func (s Signature) Bytes() []byte { return s.sig.Serialize() }

func SignatureFromBytes(b []byte) (Signature, error) {
	var sig bls.Sign
	if err := sig.Deserialize(b); err != nil {
		return Signature{}, fmt.Errorf("signature: %w", err)
	}
	return Signature{sig: sig}, nil
}

func (a AggregateSignature) Bytes() []byte { return a.sig.Serialize() }

func AggregateSignatureFromBytes(b []byte) (AggregateSignature, error) {
	var sig bls.Sign
	if err := sig.Deserialize(b); err != nil {
		return AggregateSignature{}, fmt.Errorf("aggregate signature: %w", err)
	}
	return AggregateSignature{sig: sig}, nil
}
