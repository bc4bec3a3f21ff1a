// Package pvgs issues proof receipts for verified experience record
// commitments: it recombines the record digest from its components, derives
// the commitment's VRF digest, and emits a ucf.v1.ProofReceipt.
package pvgs

import (
	"crypto/ed25519"
	"fmt"

	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/types/dynamicpb"
	"lukechampine.com/blake3"

	"github.com/Mindburn-Labs/ucf/core/pkg/schema"
	"github.com/Mindburn-Labs/ucf/core/pkg/vrf"
)

// ReceiptSchema is the schema id of issued receipts.
const ReceiptSchema = "ucf.v1.ProofReceipt"

// RecordDigestFromComponents derives an experience record digest from the
// verified fields digest, the previous record digest, and the commit id,
// concatenated in that order.
func RecordDigestFromComponents(verifiedFields, prevRecord [32]byte, commitID []byte) [32]byte {
	h := blake3.New(32, nil)
	h.Write(verifiedFields[:])
	h.Write(prevRecord[:])
	h.Write(commitID)
	var out [32]byte
	h.Sum(out[:0])
	return out
}

// ValidatorSig is the validator's signature triple carried in a receipt.
type ValidatorSig struct {
	Algorithm string
	Signer    []byte
	Signature []byte
}

// ReceiptInputs are the components of one receipt issuance.
type ReceiptInputs struct {
	// Status is a ucf.v1.ReceiptStatus value name, for example
	// RECEIPT_STATUS_ACCEPTED.
	Status               string
	ReceiptDigest        [32]byte
	VerifiedFieldsDigest [32]byte
	PrevRecordDigest     [32]byte
	CharterDigest        string
	ProfileDigest        [32]byte
	CommitID             []byte
	EpochID              uint64
	Validator            ValidatorSig
}

// Issuer builds proof receipts over a VRF engine.
type Issuer struct {
	reg *schema.Registry
	vrf *vrf.Engine
}

// NewIssuer returns an issuer bound to the registry and VRF engine.
func NewIssuer(reg *schema.Registry, eng *vrf.Engine) *Issuer {
	return &Issuer{reg: reg, vrf: eng}
}

// VRFPublicKey exposes the engine's verification key for consumers that
// re-check receipts.
func (i *Issuer) VRFPublicKey() ed25519.PublicKey { return i.vrf.PublicKey() }

// RecordDigest derives the record digest an issuance over these inputs
// will commit to.
func (i *Issuer) RecordDigest(in ReceiptInputs) [32]byte {
	return RecordDigestFromComponents(in.VerifiedFieldsDigest, in.PrevRecordDigest, in.CommitID)
}

// IssueProofReceipt derives the record and VRF digests for the inputs and
// returns the assembled ucf.v1.ProofReceipt.
func (i *Issuer) IssueProofReceipt(in ReceiptInputs) (*dynamicpb.Message, error) {
	record := i.RecordDigest(in)
	vrfDigest := i.vrf.EvalRecordVRF(in.PrevRecordDigest, record, in.CharterDigest, in.ProfileDigest, in.EpochID)

	msg, err := i.reg.New(ReceiptSchema)
	if err != nil {
		return nil, err
	}

	statusFd := msg.Descriptor().Fields().ByName("status")
	ev := statusFd.Enum().Values().ByName(protoreflect.Name(in.Status))
	if ev == nil {
		return nil, fmt.Errorf("unknown receipt status %q", in.Status)
	}
	msg.Set(statusFd, protoreflect.ValueOfEnum(ev.Number()))

	if err := schema.SetDigest(msg, "receipt_digest", in.ReceiptDigest); err != nil {
		return nil, err
	}
	if err := schema.SetDigest(msg, "vrf_digest", vrfDigest); err != nil {
		return nil, err
	}

	validator := msg.Mutable(msg.Descriptor().Fields().ByName("validator")).Message()
	vfields := validator.Descriptor().Fields()
	validator.Set(vfields.ByName("algorithm"), protoreflect.ValueOfString(in.Validator.Algorithm))
	validator.Set(vfields.ByName("signer"), protoreflect.ValueOfBytes(in.Validator.Signer))
	validator.Set(vfields.ByName("signature"), protoreflect.ValueOfBytes(in.Validator.Signature))

	return msg, nil
}
