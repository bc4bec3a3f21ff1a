package pvgs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/reflect/protoreflect"

	"github.com/Mindburn-Labs/ucf/core/pkg/schema"
	"github.com/Mindburn-Labs/ucf/core/pkg/vrf"
)

func fill(b byte) [32]byte {
	var d [32]byte
	for i := range d {
		d[i] = b
	}
	return d
}

func fillBytes(b byte, n int) []byte {
	out := make([]byte, n)
	for i := range out {
		out[i] = b
	}
	return out
}

func TestRecordDigestFromComponents_Deterministic(t *testing.T) {
	d1 := RecordDigestFromComponents(fill(3), fill(0), []byte("commit-abc123"))
	d2 := RecordDigestFromComponents(fill(3), fill(0), []byte("commit-abc123"))
	assert.Equal(t, d1, d2)

	assert.NotEqual(t, d1, RecordDigestFromComponents(fill(4), fill(0), []byte("commit-abc123")))
	assert.NotEqual(t, d1, RecordDigestFromComponents(fill(3), fill(1), []byte("commit-abc123")))
	assert.NotEqual(t, d1, RecordDigestFromComponents(fill(3), fill(0), []byte("commit-abc124")))
}

func sampleInputs(eng *vrf.Engine) ReceiptInputs {
	return ReceiptInputs{
		Status:               "RECEIPT_STATUS_ACCEPTED",
		ReceiptDigest:        fill(9),
		VerifiedFieldsDigest: fill(3),
		PrevRecordDigest:     fill(0),
		CharterDigest:        "charter-digest",
		ProfileDigest:        fill(2),
		CommitID:             []byte("commit-abc123"),
		EpochID:              eng.Epoch(),
		Validator: ValidatorSig{
			Algorithm: "ed25519",
			Signer:    fillBytes(0xAA, 32),
			Signature: fillBytes(0xBB, 64),
		},
	}
}

func TestIssueProofReceipt_CarriesVRFDigest(t *testing.T) {
	eng := vrf.NewDev(5)
	issuer := NewIssuer(schema.Default(), eng)

	msg, err := issuer.IssueProofReceipt(sampleInputs(eng))
	require.NoError(t, err)

	vrfDigest, ok, err := schema.GetDigest(msg, "vrf_digest")
	require.NoError(t, err)
	require.True(t, ok, "vrf digest should be set")
	assert.NotEqual(t, [32]byte{}, vrfDigest, "vrf digest should not be all zeros")

	record := RecordDigestFromComponents(fill(3), fill(0), []byte("commit-abc123"))
	expected := eng.EvalRecordVRF(fill(0), record, "charter-digest", fill(2), eng.Epoch())
	assert.Equal(t, expected, vrfDigest)

	receiptDigest, ok, err := schema.GetDigest(msg, "receipt_digest")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, fill(9), receiptDigest)

	statusFd := msg.Descriptor().Fields().ByName("status")
	assert.Equal(t, protoreflect.EnumNumber(2), msg.Get(statusFd).Enum())

	validator := msg.Get(msg.Descriptor().Fields().ByName("validator")).Message()
	algo := validator.Get(validator.Descriptor().Fields().ByName("algorithm")).String()
	assert.Equal(t, "ed25519", algo)
}

func TestIssueProofReceipt_RejectsUnknownStatus(t *testing.T) {
	eng := vrf.NewDev(5)
	issuer := NewIssuer(schema.Default(), eng)

	in := sampleInputs(eng)
	in.Status = "RECEIPT_STATUS_GRANTED"
	_, err := issuer.IssueProofReceipt(in)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown receipt status")
}

func TestIssueProofReceipt_DeterministicAcrossIssuers(t *testing.T) {
	a := NewIssuer(schema.Default(), vrf.NewDev(5))
	b := NewIssuer(schema.Default(), vrf.NewDev(5))

	ma, err := a.IssueProofReceipt(sampleInputs(vrf.NewDev(5)))
	require.NoError(t, err)
	mb, err := b.IssueProofReceipt(sampleInputs(vrf.NewDev(5)))
	require.NoError(t, err)

	da, _, err := schema.GetDigest(ma, "vrf_digest")
	require.NoError(t, err)
	db, _, err := schema.GetDigest(mb, "vrf_digest")
	require.NoError(t, err)
	assert.Equal(t, da, db)
}
