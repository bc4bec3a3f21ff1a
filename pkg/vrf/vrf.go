// Package vrf evaluates the temporary verifiable digest over experience
// record commitments. This is not a standards-compliant ECVRF: the output
// is BLAKE3-256 over the SHA-512 of a deterministic Ed25519 signature, and
// key ids carry the TEMPORARY_VRF prefix so a later
// ECVRF-ED25519-SHA512-TAI engine can replace it without ambiguity.
package vrf

import (
	"bytes"
	"crypto/ed25519"
	"crypto/sha512"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"

	"lukechampine.com/blake3"
)

const (
	vrfDomain     = "UCF:VRF:EXPERIENCE_RECORD"
	devSeedDomain = "UCF:VRF:DEV"
	keyIDPrefix   = "TEMPORARY_VRF"
)

// ErrProofInvalid reports a proof that does not verify against the public
// key or does not reproduce the claimed output.
var ErrProofInvalid = errors.New("vrf proof invalid")

// Keypair is the public half of an engine's key material.
type Keypair struct {
	KeyID   string
	EpochID uint64
	Public  ed25519.PublicKey
}

// Engine signs record commitments and derives their VRF digests.
type Engine struct {
	signing ed25519.PrivateKey
	current Keypair
}

// NewDev returns a deterministic dev/test engine for the given epoch. The
// seed is BLAKE3 over a fixed domain and the little-endian epoch, so every
// process holding the same epoch derives the same keypair.
func NewDev(epochID uint64) *Engine {
	h := blake3.New(32, nil)
	h.Write([]byte(devSeedDomain))
	var epoch [8]byte
	binary.LittleEndian.PutUint64(epoch[:], epochID)
	h.Write(epoch[:])
	seed := h.Sum(nil)

	priv := ed25519.NewKeyFromSeed(seed)
	pub := priv.Public().(ed25519.PublicKey)
	return &Engine{
		signing: priv,
		current: Keypair{
			KeyID:   fmt.Sprintf("%s:%s", keyIDPrefix, hex.EncodeToString(pub[:8])),
			EpochID: epochID,
			Public:  pub,
		},
	}
}

// Keypair returns the engine's current public key material.
func (e *Engine) Keypair() Keypair { return e.current }

// PublicKey returns the engine's verification key.
func (e *Engine) PublicKey() ed25519.PublicKey { return e.current.Public }

// Epoch returns the key epoch the engine was derived for.
func (e *Engine) Epoch() uint64 { return e.current.EpochID }

// EvalRecordVRF derives the VRF digest for one record commitment.
func (e *Engine) EvalRecordVRF(prev, record [32]byte, charterDigest string, profile [32]byte, epochID uint64) [32]byte {
	out, _ := e.ProveRecordVRF(prev, record, charterDigest, profile, epochID)
	return out
}

// ProveRecordVRF is EvalRecordVRF plus the proof: the Ed25519 signature a
// third party needs to re-derive the output with Verify.
func (e *Engine) ProveRecordVRF(prev, record [32]byte, charterDigest string, profile [32]byte, epochID uint64) ([32]byte, []byte) {
	msg := BuildMessage(prev, record, charterDigest, profile, epochID)
	sig := ed25519.Sign(e.signing, msg)
	return digestProof(sig), sig
}

// BuildMessage assembles the signed preimage: domain, previous record
// digest, record digest, charter digest UTF-8, profile digest, and the
// little-endian epoch, concatenated without separators.
func BuildMessage(prev, record [32]byte, charterDigest string, profile [32]byte, epochID uint64) []byte {
	msg := make([]byte, 0, len(vrfDomain)+len(prev)+len(record)+len(charterDigest)+len(profile)+8)
	msg = append(msg, vrfDomain...)
	msg = append(msg, prev[:]...)
	msg = append(msg, record[:]...)
	msg = append(msg, charterDigest...)
	msg = append(msg, profile[:]...)
	return binary.LittleEndian.AppendUint64(msg, epochID)
}

// Verify checks that proof is a valid signature over the commitment's
// preimage under pk and that it reproduces the claimed output.
func Verify(pk ed25519.PublicKey, prev, record [32]byte, charterDigest string, profile [32]byte, epochID uint64, proof []byte, output [32]byte) error {
	if len(proof) != ed25519.SignatureSize {
		return fmt.Errorf("%w: proof holds %d bytes, want %d", ErrProofInvalid, len(proof), ed25519.SignatureSize)
	}
	msg := BuildMessage(prev, record, charterDigest, profile, epochID)
	if !ed25519.Verify(pk, msg, proof) {
		return fmt.Errorf("%w: signature does not verify", ErrProofInvalid)
	}
	derived := digestProof(proof)
	if !bytes.Equal(derived[:], output[:]) {
		return fmt.Errorf("%w: proof derives %x, claimed %x", ErrProofInvalid, derived, output)
	}
	return nil
}

// digestProof compresses a signature into the 32-byte VRF output.
func digestProof(sig []byte) [32]byte {
	sum := sha512.Sum512(sig)
	return blake3.Sum256(sum[:])
}
