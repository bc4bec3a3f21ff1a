package fixtures

import (
	"fmt"

	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/types/dynamicpb"

	"github.com/Mindburn-Labs/ucf/core/pkg/schema"
)

// Suites group samples for selective generation.
const (
	SuiteCore         = "core"
	SuiteAssets       = "assets"
	SuiteBiophys      = "biophys"
	SuiteMicrocircuit = "microcircuit"
	SuiteReplay       = "replay"
)

// Sample is one corpus case definition: a name, the schema it exercises,
// and a constructor for the message content. Set-like fields are written
// deliberately out of key order so the corpus proves normalization, not
// just serialization.
type Sample struct {
	Name     string
	SchemaID string
	Suite    string
	Encoding Encoding
	Build    func() *dynamicpb.Message
}

// Samples returns every corpus case definition, sorted by name. Each
// registered schema appears at least once; the verifier's hygiene pass
// enforces that coverage on generated corpora.
func Samples() []Sample {
	out := make([]Sample, len(samples))
	copy(out, samples)
	return out
}

var samples = []Sample{
	{
		Name:     "approval_artifact_package",
		SchemaID: "ucf.v1.ApprovalArtifactPackage",
		Suite:    SuiteCore,
		Encoding: EncodingHex,
		Build: func() *dynamicpb.Message {
			return newMsg("ucf.v1.ApprovalArtifactPackage").
				str("package_id", "aap-31").
				msgField("proposal_ref", ref("ucf://proposals/asset-morph-v2", "proposal")).
				msgs("evidence_refs",
					ref("proof://evidence/replay-1", "replay"),
					ref("proof://evidence/diff-1", "diff")).
				msgField("reason_codes", reasonCodes("human.approval.required")).
				u64("created_at_ms", 1_700_000_020_000).
				digest("package_digest", fill32(0x70)).
				build()
		},
	},
	{
		Name:     "approval_decision",
		SchemaID: "ucf.v1.ApprovalDecision",
		Suite:    SuiteCore,
		Encoding: EncodingHex,
		Build: func() *dynamicpb.Message {
			return newMsg("ucf.v1.ApprovalDecision").
				str("decision_id", "ad-31").
				digest("package_digest", fill32(0x70)).
				enum("verdict", "APPROVAL_VERDICT_APPROVED").
				msgField("approver", sig("ed25519", fillBytes(0x05, 32), fillBytes(0x06, 64))).
				msgField("reason_codes", reasonCodes("human.approved")).
				u64("decided_at_ms", 1_700_000_021_000).
				build()
		},
	},
	{
		Name:     "asset_digest_morphology_v1",
		SchemaID: "ucf.v1.AssetDigest",
		Suite:    SuiteAssets,
		Encoding: EncodingHex,
		Build: func() *dynamicpb.Message {
			return newMsg("ucf.v1.AssetDigest").
				enum("kind", "ASSET_KIND_MORPHOLOGY_SET").
				u32("version", 1).
				digest("digest", fill32(0xAA)).
				u64("created_at_ms", 1_700_000_100_000).
				digest("prev_digest", fill32(0x00)).
				msgField("proof_receipt_ref", ref("proof://asset/morphology/1", "")).
				build()
		},
	},
	{
		Name:     "asset_manifest_v1",
		SchemaID: "ucf.v1.AssetManifest",
		Suite:    SuiteAssets,
		Encoding: EncodingHex,
		Build: func() *dynamicpb.Message {
			return newMsg("ucf.v1.AssetManifest").
				u32("manifest_version", 1).
				digest("manifest_digest", fill32(0xEE)).
				msgField("morphology",
					assetDigest("ASSET_KIND_MORPHOLOGY_SET", 1, 0xAA, 1_700_000_100_000)).
				msgField("channel_params",
					assetDigest("ASSET_KIND_CHANNEL_PARAMS_SET", 1, 0xBB, 1_700_000_100_250)).
				msgField("synapse_params",
					assetDigest("ASSET_KIND_SYNAPSE_PARAMS_SET", 1, 0xCC, 1_700_000_100_500)).
				msgField("connectivity",
					assetDigest("ASSET_KIND_CONNECTIVITY_GRAPH", 1, 0xDD, 1_700_000_100_750)).
				u64("created_at_ms", 1_700_000_101_000).
				msgField("proof_receipt_ref", ref("proof://asset/manifest/1", "")).
				build()
		},
	},
	{
		Name:     "biophys_channel_params_set_v1",
		SchemaID: "ucf.v1.ChannelParamsSetPayload",
		Suite:    SuiteBiophys,
		Encoding: EncodingHex,
		Build: func() *dynamicpb.Message {
			return newMsg("ucf.v1.ChannelParamsSetPayload").
				u32("version", 1).
				msgs("params",
					channelParams(2, 1, 10, 1200, 360).i32("e_rev_leak", -65),
					channelParams(1, 2, 8, 0, 240),
					channelParams(1, 1, 10, 1200, 360).u32("ca_g", 45).i32("e_rev_leak", -65)).
				digest("payload_digest", fill32(0xA2)).
				build()
		},
	},
	{
		Name:     "biophys_connectivity_graph_v1",
		SchemaID: "ucf.v1.ConnectivityGraphPayload",
		Suite:    SuiteBiophys,
		Encoding: EncodingHex,
		Build: func() *dynamicpb.Message {
			return newMsg("ucf.v1.ConnectivityGraphPayload").
				u32("version", 1).
				msgs("edges",
					connEdge(2, 3, 1, 1, 4),
					connEdge(1, 2, 1, 2, 3),
					connEdge(1, 2, 1, 1, 2)).
				digest("payload_digest", fill32(0xA4)).
				build()
		},
	},
	{
		Name:     "biophys_morphology_set_v1",
		SchemaID: "ucf.v1.MorphologySetPayload",
		Suite:    SuiteBiophys,
		Encoding: EncodingHex,
		Build: func() *dynamicpb.Message {
			soma := func() *msgBuilder {
				return newMsg("ucf.v1.Compartment").
					u32("comp_id", 1).
					enum("kind", "COMPARTMENT_KIND_SOMA").
					u32("length_um", 20).
					u32("diameter_um", 20)
			}
			dendrite := newMsg("ucf.v1.Compartment").
				u32("comp_id", 2).
				u32("parent_comp_id", 1).
				enum("kind", "COMPARTMENT_KIND_DENDRITE").
				u32("length_um", 120).
				u32("diameter_um", 2)
			return newMsg("ucf.v1.MorphologySetPayload").
				u32("version", 1).
				msgs("neurons",
					newMsg("ucf.v1.MorphNeuron").
						u32("neuron_id", 2).
						msgs("compartments", soma()).
						msgs("labels", labelKv("type", "pyramidal"), labelKv("pool", "l5")),
					newMsg("ucf.v1.MorphNeuron").
						u32("neuron_id", 1).
						msgs("compartments", soma(), dendrite).
						msgs("labels", labelKv("pool", "l4"), labelKv("type", "basket"))).
				digest("payload_digest", fill32(0xA1)).
				build()
		},
	},
	{
		Name:     "biophys_synapse_params_set_v1",
		SchemaID: "ucf.v1.SynapseParamsSetPayload",
		Suite:    SuiteBiophys,
		Encoding: EncodingHex,
		Build: func() *dynamicpb.Message {
			return newMsg("ucf.v1.SynapseParamsSetPayload").
				u32("version", 1).
				msgs("params",
					newMsg("ucf.v1.SynapseParams").
						u32("syn_param_id", 2).
						enum("syn_type", "SYN_TYPE_EXC").
						enum("syn_kind", "SYN_KIND_AMPA").
						u32("g_max_q", 850).
						i32("e_rev_mv", 0).
						u32("tau_decay_steps", 20).
						u32("stp_u_q", 120).
						u32("tau_rec_steps", 800).
						enum("mod_channel", "MOD_CHANNEL_NONE"),
					newMsg("ucf.v1.SynapseParams").
						u32("syn_param_id", 1).
						enum("syn_type", "SYN_TYPE_INH").
						enum("syn_kind", "SYN_KIND_GABA").
						u32("g_max_q", 400).
						i32("e_rev_mv", -70).
						u32("tau_decay_steps", 80).
						u32("stp_u_q", 90).
						u32("tau_rec_steps", 600).
						u32("tau_fac_steps", 50).
						enum("mod_channel", "MOD_CHANNEL_CA")).
				digest("payload_digest", fill32(0xA3)).
				build()
		},
	},
	{
		Name:     "canonical_intent_query",
		SchemaID: "ucf.v1.CanonicalIntent",
		Suite:    SuiteCore,
		Encoding: EncodingHex,
		Build: func() *dynamicpb.Message {
			return newMsg("ucf.v1.CanonicalIntent").
				str("intent_id", "intent-123").
				enum("channel", "CHANNEL_REALTIME").
				enum("risk_level", "RISK_LEVEL_LOW").
				enum("data_class", "DATA_CLASS_PUBLIC").
				msgField("subject", ref("ucf://subject/alpha", "subject")).
				msgField("reason_codes", reasonCodes("query", "baseline")).
				msgField("query", newMsg("ucf.v1.QueryParams").
					str("query", "SELECT state").
					strs("selectors", "foo", "bar")).
				build()
		},
	},
	{
		Name:     "experience_rt_perception",
		SchemaID: "ucf.v1.ExperienceRecord",
		Suite:    SuiteCore,
		Encoding: EncodingHex,
		Build: func() *dynamicpb.Message {
			return newMsg("ucf.v1.ExperienceRecord").
				enum("record_type", "RT_PERCEPTION").
				msgField("core_frame_ref", ref("ucf://frames/core/18", "")).
				msgField("metabolic_frame_ref", ref("ucf://frames/metabolic/18", "")).
				msgField("governance_frame_ref", ref("ucf://frames/governance/18", "")).
				msgField("finalization_header", newMsg("ucf.v1.FinalizationHeader").
					u64("experience_id", 18).
					u64("timestamp_ms", 1_700_000_010_000).
					digest("prev_record_digest", fill32(0x60)).
					digest("record_digest", fill32(0x61)).
					msgField("vrf_digest_ref", ref("proof://vrf/18", "")).
					msgField("proof_receipt_ref", ref("proof://receipts/18", "")).
					str("charter_version_digest", "3f9c2d5a117e40b8").
					str("policy_version_digest", "84d0aa31c6e95b02")).
				build()
		},
	},
	{
		Name:     "mc_cfg_hpa",
		SchemaID: "ucf.v1.MicrocircuitConfigEvidence",
		Suite:    SuiteMicrocircuit,
		Encoding: EncodingBinary,
		Build:    func() *dynamicpb.Message { return mcConfigHPA().build() },
	},
	{
		Name:     "microcircuit_config_hpa_v1",
		SchemaID: "ucf.v1.MicrocircuitConfigEvidence",
		Suite:    SuiteMicrocircuit,
		Encoding: EncodingHex,
		Build:    func() *dynamicpb.Message { return mcConfigHPA().build() },
	},
	{
		Name:     "microcircuit_config_lc_v1",
		SchemaID: "ucf.v1.MicrocircuitConfigEvidence",
		Suite:    SuiteMicrocircuit,
		Encoding: EncodingHex,
		Build: func() *dynamicpb.Message {
			// No attestation and no key id: the explicit-presence string
			// stays unset here, in contrast to the sn case below.
			return newMsg("ucf.v1.MicrocircuitConfigEvidence").
				enum("module", "MICRO_MODULE_LC").
				u32("config_version", 3).
				digest("config_digest", fill32(0xC1)).
				u64("created_at_ms", 1_700_000_200_000).
				digest("prev_config_digest", fill32(0x00)).
				msgField("proof_receipt_ref", ref("proof://mc/lc/3", "")).
				build()
		},
	},
	{
		Name:     "microcircuit_config_sn_v1",
		SchemaID: "ucf.v1.MicrocircuitConfigEvidence",
		Suite:    SuiteMicrocircuit,
		Encoding: EncodingHex,
		Build: func() *dynamicpb.Message {
			// attestation_key_id is set to the empty string on purpose:
			// explicit-presence fields serialize even at their default.
			return newMsg("ucf.v1.MicrocircuitConfigEvidence").
				enum("module", "MICRO_MODULE_SN").
				u32("config_version", 2).
				digest("config_digest", fill32(0xC2)).
				u64("created_at_ms", 1_700_000_201_000).
				digest("prev_config_digest", fill32(0x00)).
				msgField("proof_receipt_ref", ref("proof://mc/sn/2", "")).
				str("attestation_key_id", "").
				build()
		},
	},
	{
		Name:     "policy_decision",
		SchemaID: "ucf.v1.PolicyDecision",
		Suite:    SuiteCore,
		Encoding: EncodingHex,
		Build: func() *dynamicpb.Message {
			return newMsg("ucf.v1.PolicyDecision").
				enum("decision", "DECISION_FORM_ALLOW").
				msgField("reason_codes", reasonCodes("risk.low", "policy.baseline")).
				msgField("constraints", newMsg("ucf.v1.ConstraintsDelta").
					strs("constraints_added", "rate.qps.10", "egress.deny").
					strs("constraints_removed", "legacy.allow")).
				build()
		},
	},
	{
		Name:     "proof_receipt_accepted",
		SchemaID: "ucf.v1.ProofReceipt",
		Suite:    SuiteCore,
		Encoding: EncodingHex,
		Build: func() *dynamicpb.Message {
			return newMsg("ucf.v1.ProofReceipt").
				enum("status", "RECEIPT_STATUS_ACCEPTED").
				digest("receipt_digest", fill32(0xAB)).
				msgField("validator", sig("ed25519", fillBytes(0x03, 32), fillBytes(0x04, 64))).
				digest("vrf_digest", fill32(0x10)).
				build()
		},
	},
	{
		Name:     "pvgs_receipt",
		SchemaID: "ucf.v1.PVGSReceipt",
		Suite:    SuiteCore,
		Encoding: EncodingHex,
		Build: func() *dynamicpb.Message {
			return newMsg("ucf.v1.PVGSReceipt").
				enum("status", "RECEIPT_STATUS_ACCEPTED").
				digest("program_digest", seq32()).
				digest("proof_digest", fill32(0xAA)).
				msgField("signer", sig("ed25519", fillBytes(0x01, 32), fillBytes(0x02, 64))).
				build()
		},
	},
	{
		Name:     "reason_codes_basic",
		SchemaID: "ucf.v1.ReasonCodes",
		Suite:    SuiteCore,
		Encoding: EncodingHex,
		Build: func() *dynamicpb.Message {
			return reasonCodes("deterministic", "coverage").build()
		},
	},
	{
		Name:     "replay_run_evidence",
		SchemaID: "ucf.v1.ReplayRunEvidence",
		Suite:    SuiteReplay,
		Encoding: EncodingHex,
		Build: func() *dynamicpb.Message {
			return newMsg("ucf.v1.ReplayRunEvidence").
				str("run_id", "run-2025-10-01-a").
				digest("run_digest", fill32(0xD0)).
				msgField("replay_plan_ref", ref("proof://replay/plan/7", "")).
				msgField("asset_manifest_ref", ref("proof://asset/manifest/1", "")).
				msgs("micro_configs",
					ref("proof://mc/sn/2", ""),
					ref("proof://mc/lc/3", ""),
					ref("proof://mc/hpa/5", "")).
				u64("steps", 10_000).
				u32("dt_us", 100).
				u32("substeps_per_tick", 4).
				digest("summary_profile_seq_digest", fill32(0xD1)).
				digest("summary_dwm_seq_digest", fill32(0xD2)).
				build()
		},
	},
	{
		Name:     "sep_event_chain_1",
		SchemaID: "ucf.v1.SepEvent",
		Suite:    SuiteCore,
		Encoding: EncodingHex,
		Build: func() *dynamicpb.Message {
			return sepEvent("evt-1", "EV_INTENT", "ucf://intent/intent-123",
				1_700_000_001_000, fill32(0x00), fill32(0x10)).build()
		},
	},
	{
		Name:     "sep_event_chain_2",
		SchemaID: "ucf.v1.SepEvent",
		Suite:    SuiteCore,
		Encoding: EncodingHex,
		Build: func() *dynamicpb.Message {
			return sepEvent("evt-2", "EV_DECISION", "ucf://decision/intent-123",
				1_700_000_002_000, fill32(0x10), fill32(0x20)).build()
		},
	},
	{
		Name:     "sep_event_chain_3",
		SchemaID: "ucf.v1.SepEvent",
		Suite:    SuiteCore,
		Encoding: EncodingHex,
		Build: func() *dynamicpb.Message {
			return sepEvent("evt-3", "EV_RECEIPT", "ucf://receipt/intent-123",
				1_700_000_003_000, fill32(0x20), fill32(0x30)).
				msgField("attestation_sig", sig("ed25519", fillBytes(0x03, 32), fillBytes(0x04, 64))).
				build()
		},
	},
	{
		Name:     "session_seal",
		SchemaID: "ucf.v1.SessionSeal",
		Suite:    SuiteCore,
		Encoding: EncodingHex,
		Build: func() *dynamicpb.Message {
			return newMsg("ucf.v1.SessionSeal").
				str("seal_id", "seal-1").
				digest("seal_digest", fill32(0x40)).
				str("session_id", "sess-9").
				digest("final_event_digest", fill32(0x30)).
				digest("final_record_digest", fill32(0x50)).
				msgField("proof_receipt_ref", ref("proof://receipts/sess-9", "")).
				u64("created_at_ms", 1_700_000_004_000).
				build()
		},
	},
	{
		Name:     "tool_onboarding_event",
		SchemaID: "ucf.v1.ToolOnboardingEvent",
		Suite:    SuiteCore,
		Encoding: EncodingHex,
		Build: func() *dynamicpb.Message {
			return newMsg("ucf.v1.ToolOnboardingEvent").
				str("event_id", "toe-5").
				str("tool_id", "tool.telemetry.export").
				enum("action", "ONBOARDING_ACTION_REGISTERED").
				digest("registry_digest", fill32(0x80)).
				digest("prev_registry_digest", fill32(0x00)).
				u64("occurred_at_ms", 1_700_000_030_000).
				msgField("attestation_sig", sig("ed25519", fillBytes(0x07, 32), fillBytes(0x08, 64))).
				build()
		},
	},
	{
		Name:     "ucf_envelope_policy_decision",
		SchemaID: "ucf.v1.UcfEnvelope",
		Suite:    SuiteCore,
		Encoding: EncodingHex,
		Build: func() *dynamicpb.Message {
			return newMsg("ucf.v1.UcfEnvelope").
				str("epoch_id", "epoch-000042").
				bytes("nonce", fillBytes(0x5A, 16)).
				msgField("payload_ref", ref("proof://payloads/policy-decision/1", "decision")).
				digest("payload_digest", fill32(0xAB)).
				msgField("reason_codes", reasonCodes("policy.allow", "baseline")).
				build()
		},
	},
}

func mcConfigHPA() *msgBuilder {
	return newMsg("ucf.v1.MicrocircuitConfigEvidence").
		enum("module", "MICRO_MODULE_HPA").
		u32("config_version", 5).
		digest("config_digest", fill32(0xC3)).
		u64("created_at_ms", 1_700_000_202_000).
		digest("prev_config_digest", fill32(0x00)).
		msgField("proof_receipt_ref", ref("proof://mc/hpa/5", "")).
		msgField("attestation_sig", sig("ed25519", fillBytes(0x09, 32), fillBytes(0x0A, 64))).
		str("attestation_key_id", "mc-attest-1")
}

func sepEvent(id, evType, objectURI string, ts uint64, prev, self [32]byte) *msgBuilder {
	return newMsg("ucf.v1.SepEvent").
		str("event_id", id).
		str("session_id", "sess-9").
		enum("event_type", evType).
		msgField("object_ref", ref(objectURI, "")).
		msgField("reason_codes", reasonCodes("baseline")).
		u64("timestamp_ms", ts).
		digest("prev_event_digest", prev).
		digest("event_digest", self)
}

func assetDigest(kind string, version uint32, fill byte, createdAt uint64) *msgBuilder {
	return newMsg("ucf.v1.AssetDigest").
		enum("kind", kind).
		u32("version", version).
		digest("digest", fill32(fill)).
		u64("created_at_ms", createdAt)
}

func channelParams(neuron, comp, leak, na, k uint32) *msgBuilder {
	b := newMsg("ucf.v1.ChannelParams").
		u32("neuron_id", neuron).
		u32("comp_id", comp).
		u32("leak_g", leak).
		u32("k_g", k)
	if na != 0 {
		b.u32("na_g", na)
	}
	return b
}

func connEdge(pre, post, postComp, synParam, delay uint32) *msgBuilder {
	return newMsg("ucf.v1.ConnEdge").
		u32("pre", pre).
		u32("post", post).
		u32("post_compartment", postComp).
		u32("syn_param_id", synParam).
		u32("delay_steps", delay)
}

func ref(uri, label string) *msgBuilder {
	b := newMsg("ucf.v1.Ref").str("uri", uri)
	if label != "" {
		b.str("label", label)
	}
	return b
}

func sig(algorithm string, signer, signature []byte) *msgBuilder {
	return newMsg("ucf.v1.Signature").
		str("algorithm", algorithm).
		bytes("signer", signer).
		bytes("signature", signature)
}

func reasonCodes(codes ...string) *msgBuilder {
	return newMsg("ucf.v1.ReasonCodes").strs("codes", codes...)
}

func labelKv(k, v string) *msgBuilder {
	return newMsg("ucf.v1.LabelKv").str("k", k).str("v", v)
}

func fill32(b byte) [32]byte {
	var d [32]byte
	for i := range d {
		d[i] = b
	}
	return d
}

func seq32() [32]byte {
	var d [32]byte
	for i := range d {
		d[i] = byte(i)
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

// msgBuilder assembles dynamic messages field by field. Samples are static
// data, so a bad field or enum value name panics rather than threading
// errors through every constructor; the generator tests touch every sample.
type msgBuilder struct {
	m *dynamicpb.Message
}

func newMsg(name string) *msgBuilder {
	md, err := schema.Default().Descriptor(protoreflect.FullName(name))
	if err != nil {
		panic(fmt.Sprintf("fixtures: %v", err))
	}
	return &msgBuilder{m: dynamicpb.NewMessage(md)}
}

func (b *msgBuilder) fd(name string) protoreflect.FieldDescriptor {
	fd := b.m.Descriptor().Fields().ByName(protoreflect.Name(name))
	if fd == nil {
		panic(fmt.Sprintf("fixtures: %s has no field %q", b.m.Descriptor().FullName(), name))
	}
	return fd
}

func (b *msgBuilder) str(name, v string) *msgBuilder {
	b.m.Set(b.fd(name), protoreflect.ValueOfString(v))
	return b
}

func (b *msgBuilder) bytes(name string, v []byte) *msgBuilder {
	b.m.Set(b.fd(name), protoreflect.ValueOfBytes(v))
	return b
}

func (b *msgBuilder) u32(name string, v uint32) *msgBuilder {
	b.m.Set(b.fd(name), protoreflect.ValueOfUint32(v))
	return b
}

func (b *msgBuilder) u64(name string, v uint64) *msgBuilder {
	b.m.Set(b.fd(name), protoreflect.ValueOfUint64(v))
	return b
}

func (b *msgBuilder) i32(name string, v int32) *msgBuilder {
	b.m.Set(b.fd(name), protoreflect.ValueOfInt32(v))
	return b
}

func (b *msgBuilder) enum(name, value string) *msgBuilder {
	fd := b.fd(name)
	ev := fd.Enum().Values().ByName(protoreflect.Name(value))
	if ev == nil {
		panic(fmt.Sprintf("fixtures: %s has no value %q", fd.Enum().FullName(), value))
	}
	b.m.Set(fd, protoreflect.ValueOfEnum(ev.Number()))
	return b
}

func (b *msgBuilder) msgField(name string, child *msgBuilder) *msgBuilder {
	b.m.Set(b.fd(name), protoreflect.ValueOfMessage(child.m))
	return b
}

func (b *msgBuilder) msgs(name string, children ...*msgBuilder) *msgBuilder {
	list := b.m.Mutable(b.fd(name)).List()
	for _, c := range children {
		list.Append(protoreflect.ValueOfMessage(c.m))
	}
	return b
}

func (b *msgBuilder) strs(name string, vals ...string) *msgBuilder {
	list := b.m.Mutable(b.fd(name)).List()
	for _, v := range vals {
		list.Append(protoreflect.ValueOfString(v))
	}
	return b
}

func (b *msgBuilder) digest(name string, d [32]byte) *msgBuilder {
	leaf := b.m.Mutable(b.fd(name)).Message()
	valueFd := leaf.Descriptor().Fields().ByName("value")
	leaf.Set(valueFd, protoreflect.ValueOfBytes(append([]byte(nil), d[:]...)))
	return b
}

func (b *msgBuilder) build() *dynamicpb.Message { return b.m }
