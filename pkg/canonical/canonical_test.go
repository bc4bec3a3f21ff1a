package canonical

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/encoding/protowire"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protodesc"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/types/descriptorpb"
	"google.golang.org/protobuf/types/dynamicpb"

	"github.com/Mindburn-Labs/ucf/core/pkg/schema"
)

func testEncoder() *Encoder { return NewEncoder(schema.Default()) }

func newMsg(t *testing.T, schemaID string) *dynamicpb.Message {
	t.Helper()
	m, err := schema.Default().New(schemaID)
	require.NoError(t, err)
	return m
}

func newNested(t *testing.T, name protoreflect.FullName) *dynamicpb.Message {
	t.Helper()
	md, err := schema.Default().Descriptor(name)
	require.NoError(t, err)
	return dynamicpb.NewMessage(md)
}

func field(t *testing.T, m protoreflect.Message, name string) protoreflect.FieldDescriptor {
	t.Helper()
	fd := m.Descriptor().Fields().ByName(protoreflect.Name(name))
	require.NotNil(t, fd, "field %q not on %s", name, m.Descriptor().FullName())
	return fd
}

func appendStrings(t *testing.T, m protoreflect.Message, name string, vals ...string) {
	t.Helper()
	list := m.Mutable(field(t, m, name)).List()
	for _, v := range vals {
		list.Append(protoreflect.ValueOfString(v))
	}
}

func listStrings(t *testing.T, m protoreflect.Message, name string) []string {
	t.Helper()
	list := m.Get(field(t, m, name)).List()
	out := make([]string, list.Len())
	for i := 0; i < list.Len(); i++ {
		out[i] = list.Get(i).String()
	}
	return out
}

func reasonCodes(t *testing.T, codes ...string) *dynamicpb.Message {
	t.Helper()
	m := newMsg(t, "ucf.v1.ReasonCodes")
	appendStrings(t, m.ProtoReflect(), "codes", codes...)
	return m
}

func policyFor(t *testing.T, schemaID string) *schema.NormalizationPolicy {
	t.Helper()
	b, err := schema.Default().Binding(schemaID)
	require.NoError(t, err)
	return b.Policy
}

func TestBytes_SetFieldOrderInsensitive(t *testing.T) {
	enc := testEncoder()
	pol := policyFor(t, "ucf.v1.ReasonCodes")

	permutations := [][]string{
		{"b", "a", "c"},
		{"c", "b", "a"},
		{"a", "b", "c"},
		{"a", "c", "b"},
	}
	want, err := enc.Bytes(reasonCodes(t, permutations[0]...), pol)
	require.NoError(t, err)
	for _, perm := range permutations[1:] {
		got, err := enc.Bytes(reasonCodes(t, perm...), pol)
		require.NoError(t, err)
		assert.Equal(t, want, got, "permutation %v", perm)
	}

	// codes is field 1, length-delimited, elements sorted ascending.
	assert.Equal(t, []byte{0x0a, 0x01, 'a', 0x0a, 0x01, 'b', 0x0a, 0x01, 'c'}, want)
}

func TestBytes_EncodeDecodeRoundTrip(t *testing.T) {
	enc := testEncoder()
	pol := policyFor(t, "ucf.v1.PolicyDecision")

	msg := newMsg(t, "ucf.v1.PolicyDecision")
	m := msg.ProtoReflect()
	m.Set(field(t, m, "decision"), protoreflect.ValueOfEnum(2))
	rc := m.Mutable(field(t, m, "reason_codes")).Message()
	appendStrings(t, rc, "codes", "policy.rate_limit", "policy.data_class")
	cd := m.Mutable(field(t, m, "constraints")).Message()
	appendStrings(t, cd, "constraints_added", "net.egress.deny", "fs.write.deny")
	appendStrings(t, cd, "constraints_removed", "tool.shell")

	first, err := enc.Bytes(msg, pol)
	require.NoError(t, err)

	decoded, err := enc.Decode("ucf.v1.PolicyDecision", first)
	require.NoError(t, err)
	second, err := enc.Bytes(decoded, pol)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	normalized, err := enc.Normalize(msg, pol)
	require.NoError(t, err)
	assert.True(t, proto.Equal(normalized, decoded))
}

func TestNormalize_InputNotMutated(t *testing.T) {
	enc := testEncoder()
	pol := policyFor(t, "ucf.v1.ReasonCodes")

	msg := reasonCodes(t, "b", "a")
	_, err := enc.Bytes(msg, pol)
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a"}, listStrings(t, msg.ProtoReflect(), "codes"))
}

func TestNormalize_NestedSetFieldsSorted(t *testing.T) {
	enc := testEncoder()
	pol := policyFor(t, "ucf.v1.SepEvent")

	msg := newMsg(t, "ucf.v1.SepEvent")
	m := msg.ProtoReflect()
	m.Set(field(t, m, "event_id"), protoreflect.ValueOfString("evt-1"))
	rc := m.Mutable(field(t, m, "reason_codes")).Message()
	appendStrings(t, rc, "codes", "zeta", "alpha", "mike")

	normalized, err := enc.Normalize(msg, pol)
	require.NoError(t, err)
	nrc := normalized.ProtoReflect().Get(field(t, normalized.ProtoReflect(), "reason_codes")).Message()
	assert.Equal(t, []string{"alpha", "mike", "zeta"}, listStrings(t, nrc, "codes"))
}

func TestNormalize_KeyTieBrokenByElementBytes(t *testing.T) {
	enc := testEncoder()
	pol := policyFor(t, "ucf.v1.ApprovalArtifactPackage")

	ref := func(uri, label string) *dynamicpb.Message {
		r := newNested(t, "ucf.v1.Ref")
		m := r.ProtoReflect()
		m.Set(field(t, m, "uri"), protoreflect.ValueOfString(uri))
		m.Set(field(t, m, "label"), protoreflect.ValueOfString(label))
		return r
	}

	msg := newMsg(t, "ucf.v1.ApprovalArtifactPackage")
	m := msg.ProtoReflect()
	refs := m.Mutable(field(t, m, "evidence_refs")).List()
	refs.Append(protoreflect.ValueOfMessage(ref("ucf://evidence/1", "zeta").ProtoReflect()))
	refs.Append(protoreflect.ValueOfMessage(ref("ucf://evidence/1", "alpha").ProtoReflect()))
	refs.Append(protoreflect.ValueOfMessage(ref("ucf://evidence/0", "omega").ProtoReflect()))

	normalized, err := enc.Normalize(msg, pol)
	require.NoError(t, err)
	nm := normalized.ProtoReflect()
	sorted := nm.Get(field(t, nm, "evidence_refs")).List()
	require.Equal(t, 3, sorted.Len())

	labelOf := func(i int) string {
		e := sorted.Get(i).Message()
		return e.Get(field(t, e, "label")).String()
	}
	// Key field uri first, full canonical bytes break the tie.
	assert.Equal(t, "omega", labelOf(0))
	assert.Equal(t, "alpha", labelOf(1))
	assert.Equal(t, "zeta", labelOf(2))
}

func TestBytes_FieldNumbersAscending(t *testing.T) {
	enc := testEncoder()
	pol := policyFor(t, "ucf.v1.SepEvent")

	msg := newMsg(t, "ucf.v1.SepEvent")
	m := msg.ProtoReflect()
	m.Set(field(t, m, "timestamp_ms"), protoreflect.ValueOfUint64(1_700_000_000_000))
	m.Set(field(t, m, "event_type"), protoreflect.ValueOfEnum(2))
	m.Set(field(t, m, "session_id"), protoreflect.ValueOfString("sess-1"))
	m.Set(field(t, m, "event_id"), protoreflect.ValueOfString("evt-1"))

	b, err := enc.Bytes(msg, pol)
	require.NoError(t, err)

	var prev protowire.Number
	rest := b
	for len(rest) > 0 {
		num, typ, n := protowire.ConsumeTag(rest)
		require.Positive(t, n)
		rest = rest[n:]
		size := protowire.ConsumeFieldValue(num, typ, rest)
		require.GreaterOrEqual(t, size, 0)
		rest = rest[size:]
		assert.Greater(t, num, prev, "field numbers must ascend")
		prev = num
	}
}

func TestBytes_ImplicitDefaultsOmitted(t *testing.T) {
	enc := testEncoder()
	pol := policyFor(t, "ucf.v1.PolicyDecision")

	empty := newMsg(t, "ucf.v1.PolicyDecision")
	b, err := enc.Bytes(empty, pol)
	require.NoError(t, err)
	assert.Empty(t, b)

	// Implicit presence: setting the zero value is indistinguishable from unset.
	zeroed := newMsg(t, "ucf.v1.PolicyDecision")
	m := zeroed.ProtoReflect()
	m.Set(field(t, m, "decision"), protoreflect.ValueOfEnum(0))
	b, err = enc.Bytes(zeroed, pol)
	require.NoError(t, err)
	assert.Empty(t, b)
}

func TestBytes_ExplicitPresenceEmittedAtDefault(t *testing.T) {
	enc := testEncoder()
	emptyPol := &schema.NormalizationPolicy{}

	params := newNested(t, "ucf.v1.ChannelParams")
	m := params.ProtoReflect()
	m.Set(field(t, m, "ca_g"), protoreflect.ValueOfUint32(0))
	m.Set(field(t, m, "e_rev_leak"), protoreflect.ValueOfInt32(0))

	b, err := enc.Bytes(params, emptyPol)
	require.NoError(t, err)
	// ca_g is field 6 varint, e_rev_leak field 7 zigzag varint.
	assert.Equal(t, []byte{0x30, 0x00, 0x38, 0x00}, b)

	unset := newNested(t, "ucf.v1.ChannelParams")
	b, err = enc.Bytes(unset, emptyPol)
	require.NoError(t, err)
	assert.Empty(t, b)
}

func TestBytes_OneofMemberEmittedAtDefault(t *testing.T) {
	enc := testEncoder()
	pol := policyFor(t, "ucf.v1.CanonicalIntent")

	msg := newMsg(t, "ucf.v1.CanonicalIntent")
	m := msg.ProtoReflect()
	m.Set(field(t, m, "opaque_params"), protoreflect.ValueOfBytes(nil))

	b, err := enc.Bytes(msg, pol)
	require.NoError(t, err)
	// opaque_params is field 8, length-delimited, zero length.
	assert.Equal(t, []byte{0x42, 0x00}, b)
}

func TestBytes_StoredSelfDigestKept(t *testing.T) {
	enc := testEncoder()
	pol := policyFor(t, "ucf.v1.SepEvent")

	var stored [32]byte
	for i := range stored {
		stored[i] = 0x11
	}
	msg := newMsg(t, "ucf.v1.SepEvent")
	m := msg.ProtoReflect()
	m.Set(field(t, m, "event_id"), protoreflect.ValueOfString("evt-1"))
	require.NoError(t, schema.SetDigest(msg, "event_digest", stored))

	plain, err := enc.Bytes(msg, pol)
	require.NoError(t, err)
	assert.Contains(t, string(plain), string(stored[:]))

	zeroed, err := enc.Bytes(msg, pol, WithZeroSelfDigest())
	require.NoError(t, err)
	assert.NotEqual(t, plain, zeroed)
}

func TestBytes_WithZeroSelfDigestMatchesExplicitZeros(t *testing.T) {
	enc := testEncoder()
	pol := policyFor(t, "ucf.v1.SepEvent")

	build := func(d *[32]byte) *dynamicpb.Message {
		msg := newMsg(t, "ucf.v1.SepEvent")
		m := msg.ProtoReflect()
		m.Set(field(t, m, "event_id"), protoreflect.ValueOfString("evt-1"))
		m.Set(field(t, m, "timestamp_ms"), protoreflect.ValueOfUint64(1_700_000_000_000))
		if d != nil {
			require.NoError(t, schema.SetDigest(msg, "event_digest", *d))
		}
		return msg
	}

	var junk [32]byte
	for i := range junk {
		junk[i] = 0xEE
	}
	zeroedJunk, err := enc.Bytes(build(&junk), pol, WithZeroSelfDigest())
	require.NoError(t, err)

	// The placeholder materializes even when the field was never set.
	zeroedUnset, err := enc.Bytes(build(nil), pol, WithZeroSelfDigest())
	require.NoError(t, err)
	assert.Equal(t, zeroedJunk, zeroedUnset)

	var zero [32]byte
	explicit, err := enc.Bytes(build(&zero), pol)
	require.NoError(t, err)
	assert.Equal(t, explicit, zeroedJunk)
}

func TestBytes_UnknownFieldsDroppedOnReencode(t *testing.T) {
	enc := testEncoder()
	pol := policyFor(t, "ucf.v1.PolicyDecision")

	msg := newMsg(t, "ucf.v1.PolicyDecision")
	m := msg.ProtoReflect()
	m.Set(field(t, m, "decision"), protoreflect.ValueOfEnum(1))
	canonical, err := enc.Bytes(msg, pol)
	require.NoError(t, err)

	// Field 2047, varint 1: decodes fine, survives nowhere.
	tampered := append(append([]byte{}, canonical...), 0xF8, 0x7F, 0x01)
	decoded, err := enc.Decode("ucf.v1.PolicyDecision", tampered)
	require.NoError(t, err)

	reencoded, err := enc.Bytes(decoded, pol)
	require.NoError(t, err)
	assert.Equal(t, canonical, reencoded)
}

func TestNormalize_PolicyFieldMismatch(t *testing.T) {
	enc := testEncoder()
	msg := reasonCodes(t, "a")

	_, err := enc.Normalize(msg, &schema.NormalizationPolicy{
		SetFields: []schema.SetField{{Field: "missing"}},
	})
	require.ErrorIs(t, err, ErrSchemaPolicyMismatch)
}

func TestNormalize_BadKeyField(t *testing.T) {
	enc := testEncoder()

	msg := newMsg(t, "ucf.v1.ApprovalArtifactPackage")
	m := msg.ProtoReflect()
	refs := m.Mutable(field(t, m, "evidence_refs")).List()
	for i := 0; i < 2; i++ {
		refs.Append(protoreflect.ValueOfMessage(newNested(t, "ucf.v1.Ref").ProtoReflect()))
	}

	_, err := enc.Normalize(msg, &schema.NormalizationPolicy{
		SetFields: []schema.SetField{{Field: "evidence_refs", Key: schema.SortKey{Fields: []string{"nope"}}}},
	})
	require.ErrorIs(t, err, ErrSchemaPolicyMismatch)
}

func TestBytes_RejectsMapFields(t *testing.T) {
	// The registry cannot declare map fields, so build one directly and
	// prove the encoder refuses it rather than inventing an entry order.
	fd := &descriptorpb.FileDescriptorProto{
		Name:    proto.String("ucf/test/map_carrier.proto"),
		Package: proto.String("ucf.test"),
		Syntax:  proto.String("proto3"),
		MessageType: []*descriptorpb.DescriptorProto{{
			Name: proto.String("MapCarrier"),
			Field: []*descriptorpb.FieldDescriptorProto{{
				Name:     proto.String("attrs"),
				Number:   proto.Int32(1),
				Label:    descriptorpb.FieldDescriptorProto_LABEL_REPEATED.Enum(),
				Type:     descriptorpb.FieldDescriptorProto_TYPE_MESSAGE.Enum(),
				TypeName: proto.String(".ucf.test.MapCarrier.AttrsEntry"),
			}},
			NestedType: []*descriptorpb.DescriptorProto{{
				Name:    proto.String("AttrsEntry"),
				Options: &descriptorpb.MessageOptions{MapEntry: proto.Bool(true)},
				Field: []*descriptorpb.FieldDescriptorProto{
					{
						Name:   proto.String("key"),
						Number: proto.Int32(1),
						Label:  descriptorpb.FieldDescriptorProto_LABEL_OPTIONAL.Enum(),
						Type:   descriptorpb.FieldDescriptorProto_TYPE_STRING.Enum(),
					},
					{
						Name:   proto.String("value"),
						Number: proto.Int32(2),
						Label:  descriptorpb.FieldDescriptorProto_LABEL_OPTIONAL.Enum(),
						Type:   descriptorpb.FieldDescriptorProto_TYPE_STRING.Enum(),
					},
				},
			}},
		}},
	}

	file, err := protodesc.NewFile(fd, nil)
	require.NoError(t, err)

	msg := dynamicpb.NewMessage(file.Messages().Get(0))
	m := msg.ProtoReflect()
	m.Mutable(field(t, m, "attrs")).Map().Set(
		protoreflect.ValueOfString("k").MapKey(),
		protoreflect.ValueOfString("v"),
	)

	_, err = testEncoder().Bytes(msg, &schema.NormalizationPolicy{})
	require.ErrorIs(t, err, ErrSchemaPolicyMismatch)
	assert.Contains(t, err.Error(), "map fields")
}

func TestDecode_UnknownSchema(t *testing.T) {
	enc := testEncoder()
	_, err := enc.Decode("ucf.v1.NotARealSchema", nil)
	require.ErrorIs(t, err, schema.ErrUnknownSchema)
}

func TestDecode_MalformedBytes(t *testing.T) {
	enc := testEncoder()
	_, err := enc.Decode("ucf.v1.PolicyDecision", []byte{0xFF, 0xFF, 0xFF})
	require.Error(t, err)
}
