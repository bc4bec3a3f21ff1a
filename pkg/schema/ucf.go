package schema

import (
	"fmt"
	"sort"

	"google.golang.org/protobuf/reflect/protoreflect"
)

// The synthetic proto source files mirror the layout the .proto sources are
// maintained in; the verifier's coverage check keys off these names.
const (
	fileCommon       = "ucf/v1/common.proto"
	fileEnvelope     = "ucf/v1/envelope.proto"
	fileCanonical    = "ucf/v1/canonical.proto"
	filePolicy       = "ucf/v1/policy.proto"
	filePVGS         = "ucf/v1/pvgs.proto"
	fileSep          = "ucf/v1/sep.proto"
	fileExperience   = "ucf/v1/experience.proto"
	fileHuman        = "ucf/v1/human.proto"
	fileTooling      = "ucf/v1/tooling.proto"
	fileAssets       = "ucf/v1/assets.proto"
	fileBiophys      = "ucf/v1/biophys_assets.proto"
	fileMicrocircuit = "ucf/v1/microcircuit.proto"
	fileReplayRun    = "ucf/v1/replay_run.proto"
)

func commonFile() *fileBuilder {
	f := newFile(fileCommon)

	f.message("Digest32").
		scalar(1, "value", tBytes)

	f.message("Ref").
		scalar(1, "uri", tString).
		scalar(2, "label", tString)

	f.message("Signature").
		scalar(1, "algorithm", tString).
		scalar(2, "signer", tBytes).
		scalar(3, "signature", tBytes)

	f.message("ReasonCodes").
		scalar(1, "codes", tString, repeated())

	f.message("ConstraintsDelta").
		scalar(1, "constraints_added", tString, repeated()).
		scalar(2, "constraints_removed", tString, repeated())

	return f
}

func envelopeFile() *fileBuilder {
	f := newFile(fileEnvelope, fileCommon)

	f.message("UcfEnvelope").
		scalar(1, "epoch_id", tString).
		scalar(2, "nonce", tBytes).
		msg(3, "payload_ref", "Ref").
		msg(4, "payload_digest", "Digest32").
		msg(5, "reason_codes", "ReasonCodes")

	return f
}

func canonicalFile() *fileBuilder {
	f := newFile(fileCanonical, fileCommon)

	f.enum("Channel",
		"CHANNEL_UNSPECIFIED", "CHANNEL_REALTIME", "CHANNEL_BATCH", "CHANNEL_REPLAY")
	f.enum("RiskLevel",
		"RISK_LEVEL_UNSPECIFIED", "RISK_LEVEL_LOW", "RISK_LEVEL_MEDIUM", "RISK_LEVEL_HIGH")
	f.enum("DataClass",
		"DATA_CLASS_UNSPECIFIED", "DATA_CLASS_PUBLIC", "DATA_CLASS_INTERNAL",
		"DATA_CLASS_CONFIDENTIAL", "DATA_CLASS_RESTRICTED")

	f.message("QueryParams").
		scalar(1, "query", tString).
		scalar(2, "selectors", tString, repeated())

	f.message("CanonicalIntent").
		scalar(1, "intent_id", tString).
		enumField(2, "channel", "Channel").
		enumField(3, "risk_level", "RiskLevel").
		enumField(4, "data_class", "DataClass").
		msg(5, "subject", "Ref").
		msg(6, "reason_codes", "ReasonCodes").
		msg(7, "query", "QueryParams", inOneof("params")).
		scalar(8, "opaque_params", tBytes, inOneof("params"))

	return f
}

func policyFile() *fileBuilder {
	f := newFile(filePolicy, fileCommon)

	f.enum("DecisionForm",
		"DECISION_FORM_UNSPECIFIED", "DECISION_FORM_ALLOW", "DECISION_FORM_DENY",
		"DECISION_FORM_REQUIRE_APPROVAL")

	f.message("PolicyDecision").
		enumField(1, "decision", "DecisionForm").
		msg(2, "reason_codes", "ReasonCodes").
		msg(3, "constraints", "ConstraintsDelta")

	return f
}

func pvgsFile() *fileBuilder {
	f := newFile(filePVGS, fileCommon)

	f.enum("ReceiptStatus",
		"RECEIPT_STATUS_UNSPECIFIED", "RECEIPT_STATUS_PENDING",
		"RECEIPT_STATUS_ACCEPTED", "RECEIPT_STATUS_REJECTED")

	f.message("PVGSReceipt").
		enumField(1, "status", "ReceiptStatus").
		msg(2, "program_digest", "Digest32").
		msg(3, "proof_digest", "Digest32").
		msg(4, "signer", "Signature")

	f.message("ProofReceipt").
		enumField(1, "status", "ReceiptStatus").
		msg(2, "receipt_digest", "Digest32").
		msg(3, "validator", "Signature").
		msg(4, "vrf_digest", "Digest32")

	return f
}

func sepFile() *fileBuilder {
	f := newFile(fileSep, fileCommon)

	f.enum("SepEventType",
		"SEP_EVENT_TYPE_UNSPECIFIED", "EV_INTENT", "EV_DECISION", "EV_EXECUTION",
		"EV_RECEIPT", "EV_SEAL")

	f.message("SepEvent").
		scalar(1, "event_id", tString).
		scalar(2, "session_id", tString).
		enumField(3, "event_type", "SepEventType").
		msg(4, "object_ref", "Ref").
		msg(5, "reason_codes", "ReasonCodes").
		scalar(6, "timestamp_ms", tUint64).
		msg(7, "prev_event_digest", "Digest32").
		msg(8, "event_digest", "Digest32").
		msg(9, "attestation_sig", "Signature")

	f.message("SessionSeal").
		scalar(1, "seal_id", tString).
		msg(2, "seal_digest", "Digest32").
		scalar(3, "session_id", tString).
		msg(4, "final_event_digest", "Digest32").
		msg(5, "final_record_digest", "Digest32").
		msg(6, "proof_receipt_ref", "Ref").
		scalar(7, "created_at_ms", tUint64)

	return f
}

func experienceFile() *fileBuilder {
	f := newFile(fileExperience, fileCommon)

	f.enum("RecordType",
		"RECORD_TYPE_UNSPECIFIED", "RT_PERCEPTION", "RT_ACTION_EXEC",
		"RT_GOVERNANCE", "RT_CONSOLIDATION")

	f.message("FinalizationHeader").
		scalar(1, "experience_id", tUint64).
		scalar(2, "timestamp_ms", tUint64).
		msg(3, "prev_record_digest", "Digest32").
		msg(4, "record_digest", "Digest32").
		msg(5, "vrf_digest_ref", "Ref").
		msg(6, "proof_receipt_ref", "Ref").
		scalar(7, "charter_version_digest", tString).
		scalar(8, "policy_version_digest", tString)

	f.message("ExperienceRecord").
		enumField(1, "record_type", "RecordType").
		msg(2, "core_frame_ref", "Ref").
		msg(3, "metabolic_frame_ref", "Ref").
		msg(4, "governance_frame_ref", "Ref").
		msg(5, "finalization_header", "FinalizationHeader")

	return f
}

func humanFile() *fileBuilder {
	f := newFile(fileHuman, fileCommon)

	f.enum("ApprovalVerdict",
		"APPROVAL_VERDICT_UNSPECIFIED", "APPROVAL_VERDICT_APPROVED",
		"APPROVAL_VERDICT_REJECTED", "APPROVAL_VERDICT_ESCALATED")

	f.message("ApprovalArtifactPackage").
		scalar(1, "package_id", tString).
		msg(2, "proposal_ref", "Ref").
		msg(3, "evidence_refs", "Ref", repeated()).
		msg(4, "reason_codes", "ReasonCodes").
		scalar(5, "created_at_ms", tUint64).
		msg(6, "package_digest", "Digest32")

	f.message("ApprovalDecision").
		scalar(1, "decision_id", tString).
		msg(2, "package_digest", "Digest32").
		enumField(3, "verdict", "ApprovalVerdict").
		msg(4, "approver", "Signature").
		msg(5, "reason_codes", "ReasonCodes").
		scalar(6, "decided_at_ms", tUint64)

	return f
}

func toolingFile() *fileBuilder {
	f := newFile(fileTooling, fileCommon)

	f.enum("OnboardingAction",
		"ONBOARDING_ACTION_UNSPECIFIED", "ONBOARDING_ACTION_REGISTERED",
		"ONBOARDING_ACTION_ACTIVATED", "ONBOARDING_ACTION_SUSPENDED",
		"ONBOARDING_ACTION_RETIRED")

	f.message("ToolOnboardingEvent").
		scalar(1, "event_id", tString).
		scalar(2, "tool_id", tString).
		enumField(3, "action", "OnboardingAction").
		msg(4, "registry_digest", "Digest32").
		msg(5, "prev_registry_digest", "Digest32").
		scalar(6, "occurred_at_ms", tUint64).
		msg(7, "attestation_sig", "Signature")

	return f
}

func assetsFile() *fileBuilder {
	f := newFile(fileAssets, fileCommon)

	f.enum("AssetKind",
		"ASSET_KIND_UNSPECIFIED", "ASSET_KIND_MORPHOLOGY_SET",
		"ASSET_KIND_CHANNEL_PARAMS_SET", "ASSET_KIND_SYNAPSE_PARAMS_SET",
		"ASSET_KIND_CONNECTIVITY_GRAPH")

	f.message("AssetDigest").
		enumField(1, "kind", "AssetKind").
		scalar(2, "version", tUint32).
		msg(3, "digest", "Digest32").
		scalar(4, "created_at_ms", tUint64).
		msg(5, "prev_digest", "Digest32").
		msg(6, "proof_receipt_ref", "Ref")

	f.message("AssetManifest").
		scalar(1, "manifest_version", tUint32).
		msg(2, "manifest_digest", "Digest32").
		msg(3, "morphology", "AssetDigest").
		msg(4, "channel_params", "AssetDigest").
		msg(5, "synapse_params", "AssetDigest").
		msg(6, "connectivity", "AssetDigest").
		scalar(7, "created_at_ms", tUint64).
		msg(8, "proof_receipt_ref", "Ref")

	return f
}

func biophysFile() *fileBuilder {
	f := newFile(fileBiophys, fileCommon)

	f.enum("CompartmentKind",
		"COMPARTMENT_KIND_UNSPECIFIED", "COMPARTMENT_KIND_SOMA",
		"COMPARTMENT_KIND_DENDRITE", "COMPARTMENT_KIND_AXON")
	f.enum("SynType",
		"SYN_TYPE_UNSPECIFIED", "SYN_TYPE_EXC", "SYN_TYPE_INH", "SYN_TYPE_MOD")
	f.enum("SynKind",
		"SYN_KIND_UNSPECIFIED", "SYN_KIND_AMPA", "SYN_KIND_NMDA",
		"SYN_KIND_GABA", "SYN_KIND_NEUROMOD")
	// MOD_CHANNEL_NONE doubles as the explicit zero value.
	f.enum("ModChannel",
		"MOD_CHANNEL_NONE", "MOD_CHANNEL_NA", "MOD_CHANNEL_K", "MOD_CHANNEL_CA")

	f.message("LabelKv").
		scalar(1, "k", tString).
		scalar(2, "v", tString)

	f.message("Compartment").
		scalar(1, "comp_id", tUint32).
		scalar(2, "parent_comp_id", tUint32, inOneof("parent")).
		enumField(3, "kind", "CompartmentKind").
		scalar(4, "length_um", tUint32).
		scalar(5, "diameter_um", tUint32)

	f.message("MorphNeuron").
		scalar(1, "neuron_id", tUint32).
		msg(2, "compartments", "Compartment", repeated()).
		msg(3, "labels", "LabelKv", repeated())

	f.message("MorphologySetPayload").
		scalar(1, "version", tUint32).
		msg(2, "neurons", "MorphNeuron", repeated()).
		msg(3, "payload_digest", "Digest32")

	f.message("ChannelParams").
		scalar(1, "neuron_id", tUint32).
		scalar(2, "comp_id", tUint32).
		scalar(3, "leak_g", tUint32).
		scalar(4, "na_g", tUint32).
		scalar(5, "k_g", tUint32).
		scalar(6, "ca_g", tUint32, explicit()).
		scalar(7, "e_rev_leak", tSint32, explicit())

	f.message("ChannelParamsSetPayload").
		scalar(1, "version", tUint32).
		msg(2, "params", "ChannelParams", repeated()).
		msg(3, "payload_digest", "Digest32")

	f.message("SynapseParams").
		scalar(1, "syn_param_id", tUint32).
		enumField(2, "syn_type", "SynType").
		enumField(3, "syn_kind", "SynKind").
		scalar(4, "g_max_q", tUint32).
		scalar(5, "e_rev_mv", tSint32).
		scalar(6, "tau_decay_steps", tUint32).
		scalar(7, "stp_u_q", tUint32).
		scalar(8, "tau_rec_steps", tUint32).
		scalar(9, "tau_fac_steps", tUint32).
		enumField(10, "mod_channel", "ModChannel")

	f.message("SynapseParamsSetPayload").
		scalar(1, "version", tUint32).
		msg(2, "params", "SynapseParams", repeated()).
		msg(3, "payload_digest", "Digest32")

	f.message("ConnEdge").
		scalar(1, "pre", tUint32).
		scalar(2, "post", tUint32).
		scalar(3, "post_compartment", tUint32).
		scalar(4, "syn_param_id", tUint32).
		scalar(5, "delay_steps", tUint32)

	f.message("ConnectivityGraphPayload").
		scalar(1, "version", tUint32).
		msg(2, "edges", "ConnEdge", repeated()).
		msg(3, "payload_digest", "Digest32")

	return f
}

func microcircuitFile() *fileBuilder {
	f := newFile(fileMicrocircuit, fileCommon)

	f.enum("MicroModule",
		"MICRO_MODULE_UNSPECIFIED", "MICRO_MODULE_LC", "MICRO_MODULE_SN",
		"MICRO_MODULE_VTA", "MICRO_MODULE_HPA", "MICRO_MODULE_RAPHE")

	f.message("MicrocircuitConfigEvidence").
		enumField(1, "module", "MicroModule").
		scalar(2, "config_version", tUint32).
		msg(3, "config_digest", "Digest32").
		scalar(4, "created_at_ms", tUint64).
		msg(5, "prev_config_digest", "Digest32").
		msg(6, "proof_receipt_ref", "Ref").
		msg(7, "attestation_sig", "Signature").
		scalar(8, "attestation_key_id", tString, explicit())

	return f
}

func replayRunFile() *fileBuilder {
	f := newFile(fileReplayRun, fileCommon)

	f.message("ReplayRunEvidence").
		scalar(1, "run_id", tString).
		msg(2, "run_digest", "Digest32").
		msg(3, "replay_plan_ref", "Ref").
		msg(4, "asset_manifest_ref", "Ref").
		msg(5, "micro_configs", "Ref", repeated()).
		scalar(6, "steps", tUint64).
		scalar(7, "dt_us", tUint32).
		scalar(8, "substeps_per_tick", tUint32).
		msg(9, "summary_profile_seq_digest", "Digest32").
		msg(10, "summary_dwm_seq_digest", "Digest32")

	return f
}

// element is the sort key for scalar set-like fields.
func element() SortKey { return SortKey{} }

// by builds a tuple sort key from sub-field names.
func by(fields ...string) SortKey { return SortKey{Fields: fields} }

type bindingSpec struct {
	schemaID string
	domain   string
	file     string
}

func newUCFRegistry() *Registry {
	files := buildFiles(
		commonFile().fd,
		envelopeFile().fd,
		canonicalFile().fd,
		policyFile().fd,
		pvgsFile().fd,
		sepFile().fd,
		experienceFile().fd,
		humanFile().fd,
		toolingFile().fd,
		assetsFile().fd,
		biophysFile().fd,
		microcircuitFile().fd,
		replayRunFile().fd,
	)

	policies := map[protoreflect.FullName]*NormalizationPolicy{
		"ucf.v1.ReasonCodes": {
			SetFields: []SetField{{Field: "codes", Key: element()}},
		},
		"ucf.v1.ConstraintsDelta": {
			SetFields: []SetField{
				{Field: "constraints_added", Key: element()},
				{Field: "constraints_removed", Key: element()},
			},
		},
		"ucf.v1.QueryParams": {
			SetFields: []SetField{{Field: "selectors", Key: element()}},
		},
		"ucf.v1.SepEvent": {
			SelfDigestField: "event_digest",
			PrevDigestField: "prev_event_digest",
		},
		"ucf.v1.SessionSeal": {
			SelfDigestField: "seal_digest",
		},
		"ucf.v1.ExperienceRecord": {
			SelfDigestField: "finalization_header.record_digest",
			PrevDigestField: "finalization_header.prev_record_digest",
		},
		"ucf.v1.ApprovalArtifactPackage": {
			SetFields:       []SetField{{Field: "evidence_refs", Key: by("uri")}},
			SelfDigestField: "package_digest",
		},
		"ucf.v1.ToolOnboardingEvent": {
			PrevDigestField: "prev_registry_digest",
		},
		"ucf.v1.AssetDigest": {
			PrevDigestField: "prev_digest",
		},
		"ucf.v1.AssetManifest": {
			SelfDigestField: "manifest_digest",
		},
		"ucf.v1.MorphNeuron": {
			SetFields: []SetField{{Field: "labels", Key: by("k")}},
		},
		"ucf.v1.MorphologySetPayload": {
			SetFields:       []SetField{{Field: "neurons", Key: by("neuron_id")}},
			SelfDigestField: "payload_digest",
		},
		"ucf.v1.ChannelParamsSetPayload": {
			SetFields:       []SetField{{Field: "params", Key: by("neuron_id", "comp_id")}},
			SelfDigestField: "payload_digest",
		},
		"ucf.v1.SynapseParamsSetPayload": {
			SetFields:       []SetField{{Field: "params", Key: by("syn_param_id")}},
			SelfDigestField: "payload_digest",
		},
		"ucf.v1.ConnectivityGraphPayload": {
			SetFields: []SetField{{Field: "edges",
				Key: by("pre", "post", "post_compartment", "syn_param_id", "delay_steps")}},
			SelfDigestField: "payload_digest",
		},
		"ucf.v1.MicrocircuitConfigEvidence": {
			SelfDigestField: "config_digest",
			PrevDigestField: "prev_config_digest",
		},
		"ucf.v1.ReplayRunEvidence": {
			SetFields:       []SetField{{Field: "micro_configs", Key: by("uri")}},
			SelfDigestField: "run_digest",
		},
	}

	specs := []bindingSpec{
		{"ucf.v1.ReasonCodes", DomainCore, fileCommon},
		{"ucf.v1.UcfEnvelope", DomainCore, fileEnvelope},
		{"ucf.v1.CanonicalIntent", DomainCore, fileCanonical},
		{"ucf.v1.PolicyDecision", DomainCore, filePolicy},
		{"ucf.v1.PVGSReceipt", DomainCore, filePVGS},
		{"ucf.v1.ProofReceipt", DomainCore, filePVGS},
		{"ucf.v1.SepEvent", DomainCore, fileSep},
		{"ucf.v1.SessionSeal", DomainCore, fileSep},
		{"ucf.v1.ExperienceRecord", DomainCore, fileExperience},
		{"ucf.v1.ApprovalArtifactPackage", DomainProposalEvidence, fileHuman},
		{"ucf.v1.ApprovalDecision", DomainProposalPayload, fileHuman},
		{"ucf.v1.ToolOnboardingEvent", DomainActivationEvidence, fileTooling},
		{"ucf.v1.AssetDigest", DomainCore, fileAssets},
		{"ucf.v1.AssetManifest", DomainAssetManifest, fileAssets},
		{"ucf.v1.MorphologySetPayload", DomainAssetMorph, fileBiophys},
		{"ucf.v1.ChannelParamsSetPayload", DomainAssetChannelParams, fileBiophys},
		{"ucf.v1.SynapseParamsSetPayload", DomainAssetSynParams, fileBiophys},
		{"ucf.v1.ConnectivityGraphPayload", DomainAssetConnectivity, fileBiophys},
		{"ucf.v1.MicrocircuitConfigEvidence", DomainMicrocircuitConfig, fileMicrocircuit},
		{"ucf.v1.ReplayRunEvidence", DomainTraceRunEvidence, fileReplayRun},
	}

	r := &Registry{
		files:    files,
		bindings: make(map[string]*Binding, len(specs)),
		policies: policies,
	}
	for _, s := range specs {
		d, err := files.FindDescriptorByName(protoreflect.FullName(s.schemaID))
		if err != nil {
			panic(fmt.Sprintf("schema: binding %s: %v", s.schemaID, err))
		}
		md, ok := d.(protoreflect.MessageDescriptor)
		if !ok {
			panic(fmt.Sprintf("schema: binding %s is not a message", s.schemaID))
		}
		pol := policies[md.FullName()]
		if pol == nil {
			pol = &NormalizationPolicy{}
		}
		b := &Binding{
			SchemaID: s.schemaID,
			Version:  Version,
			Domain:   s.domain,
			File:     s.file,
			Desc:     md,
			Policy:   pol,
		}
		r.bindings[s.schemaID] = b
		r.ordered = append(r.ordered, b)
	}
	sort.Slice(r.ordered, func(i, j int) bool {
		return r.ordered[i].SchemaID < r.ordered[j].SchemaID
	})

	// Policies must reference real fields; a typo here is unrecoverable at
	// runtime, so fail loudly at init.
	for name, pol := range policies {
		d, err := files.FindDescriptorByName(name)
		if err != nil {
			panic(fmt.Sprintf("schema: policy for unknown type %s", name))
		}
		md := d.(protoreflect.MessageDescriptor)
		for _, sf := range pol.SetFields {
			fd := md.Fields().ByName(protoreflect.Name(sf.Field))
			if fd == nil || !fd.IsList() {
				panic(fmt.Sprintf("schema: policy for %s: %q is not a repeated field", name, sf.Field))
			}
			for _, key := range sf.Key.Fields {
				if fd.Kind() != protoreflect.MessageKind {
					panic(fmt.Sprintf("schema: policy for %s: key fields on scalar list %q", name, sf.Field))
				}
				if fd.Message().Fields().ByName(protoreflect.Name(key)) == nil {
					panic(fmt.Sprintf("schema: policy for %s: key %q missing on %s", name, key, fd.Message().FullName()))
				}
			}
		}
		for _, path := range []string{pol.SelfDigestField, pol.PrevDigestField} {
			if path == "" {
				continue
			}
			if _, err := ResolveField(md, path); err != nil {
				panic(fmt.Sprintf("schema: policy for %s: %v", name, err))
			}
		}
	}

	return r
}
