// Package schema holds the ucf.v1 message family as a runtime descriptor
// registry. Core logic never hard-codes a message type: each schema is an
// opaque typed record reached through its (schema_id, schema_version) pair,
// its NormalizationPolicy, and dynamicpb accessors.
package schema

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/reflect/protoregistry"
	"google.golang.org/protobuf/types/dynamicpb"
)

const pkgName = "ucf.v1"

// Version is the schema version of every ucf.v1 schema. Additive changes
// bump it; breaking changes move to a new namespace major instead.
const Version uint32 = 1

// Digest domains. Each schema is permanently bound to exactly one domain;
// rebinding an existing schema is a breaking change.
const (
	DomainCore               = "ucf-core"
	DomainMicrocircuitConfig = "UCF:HASH:MC_CONFIG"
	DomainAssetMorph         = "UCF:ASSET:MORPH"
	DomainAssetChannelParams = "UCF:ASSET:CHANNEL_PARAMS"
	DomainAssetSynParams     = "UCF:ASSET:SYN_PARAMS"
	DomainAssetConnectivity  = "UCF:ASSET:CONNECTIVITY"
	DomainAssetManifest      = "UCF:ASSET:MANIFEST"
	DomainProposalEvidence   = "UCF:PROPOSAL_EVIDENCE"
	DomainProposalPayload    = "UCF:PROPOSAL_PAYLOAD"
	DomainActivationEvidence = "UCF:ACTIVATION_EVIDENCE"
	DomainTraceRunEvidence   = "UCF:TRACE_RUN_EVIDENCE"
)

// ErrUnknownSchema is returned for lookups of schema ids the registry does
// not carry.
var ErrUnknownSchema = errors.New("unknown schema")

// SortKey declares how elements of a set-like field are ordered. An empty
// Fields list means the element value itself is the key (scalar lists);
// otherwise the named sub-fields are compared in order, forming a tuple key.
type SortKey struct {
	Fields []string
}

// SetField marks one repeated field of a message as set-like.
type SetField struct {
	Field string
	Key   SortKey
}

// NormalizationPolicy declares, per message type, which repeated fields are
// set-like, and which field (possibly nested, dotted path) stores the
// message's own digest or the previous instance's digest. Policies attach
// to types, so nested messages bring their own sort rules wherever they are
// embedded.
type NormalizationPolicy struct {
	SetFields       []SetField
	SelfDigestField string
	PrevDigestField string
}

// Binding is the permanent association of a digestable schema with its
// domain and version.
type Binding struct {
	SchemaID string
	Version  uint32
	Domain   string
	File     string
	Desc     protoreflect.MessageDescriptor
	Policy   *NormalizationPolicy
}

// Registry is the process-wide schema table. It is fully populated at init
// and immutable afterwards, so concurrent reads need no locking.
type Registry struct {
	files    *protoregistry.Files
	bindings map[string]*Binding
	policies map[protoreflect.FullName]*NormalizationPolicy
	ordered  []*Binding
}

var defaultRegistry = newUCFRegistry()

// Default returns the registry carrying the full ucf.v1 surface.
func Default() *Registry { return defaultRegistry }

// Binding resolves a schema id to its binding.
func (r *Registry) Binding(schemaID string) (*Binding, error) {
	b, ok := r.bindings[schemaID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSchema, schemaID)
	}
	return b, nil
}

// New returns an empty dynamic message for the schema.
func (r *Registry) New(schemaID string) (*dynamicpb.Message, error) {
	b, err := r.Binding(schemaID)
	if err != nil {
		return nil, err
	}
	return dynamicpb.NewMessage(b.Desc), nil
}

// Policy returns the normalization policy registered for a message type.
// Types without set-like or digest fields have none.
func (r *Registry) Policy(name protoreflect.FullName) (*NormalizationPolicy, bool) {
	p, ok := r.policies[name]
	return p, ok
}

// Descriptor resolves any registered message type by full name, including
// nested-only types that carry no schema binding.
func (r *Registry) Descriptor(name protoreflect.FullName) (protoreflect.MessageDescriptor, error) {
	d, err := r.files.FindDescriptorByName(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSchema, name)
	}
	md, ok := d.(protoreflect.MessageDescriptor)
	if !ok {
		return nil, fmt.Errorf("%s is not a message type", name)
	}
	return md, nil
}

// All returns every binding, sorted by schema id.
func (r *Registry) All() []*Binding {
	out := make([]*Binding, len(r.ordered))
	copy(out, r.ordered)
	return out
}

// Files returns the synthetic proto source files backing the registry,
// sorted, for the verifier's coverage check.
func (r *Registry) Files() []string {
	var names []string
	r.files.RangeFiles(func(fd protoreflect.FileDescriptor) bool {
		names = append(names, fd.Path())
		return true
	})
	sort.Strings(names)
	return names
}

// RangeMessages visits every message descriptor in the registry, including
// nested-only types, until f returns false.
func (r *Registry) RangeMessages(f func(protoreflect.MessageDescriptor) bool) {
	r.files.RangeFiles(func(fd protoreflect.FileDescriptor) bool {
		return rangeMessageSet(fd.Messages(), f)
	})
}

// RangeEnums visits every enum descriptor in the registry.
func (r *Registry) RangeEnums(f func(protoreflect.EnumDescriptor) bool) {
	r.files.RangeFiles(func(fd protoreflect.FileDescriptor) bool {
		eds := fd.Enums()
		for i := 0; i < eds.Len(); i++ {
			if !f(eds.Get(i)) {
				return false
			}
		}
		return rangeMessageSet(fd.Messages(), func(md protoreflect.MessageDescriptor) bool {
			nested := md.Enums()
			for i := 0; i < nested.Len(); i++ {
				if !f(nested.Get(i)) {
					return false
				}
			}
			return true
		})
	})
}

func rangeMessageSet(mds protoreflect.MessageDescriptors, f func(protoreflect.MessageDescriptor) bool) bool {
	for i := 0; i < mds.Len(); i++ {
		md := mds.Get(i)
		if !f(md) {
			return false
		}
		if !rangeMessageSet(md.Messages(), f) {
			return false
		}
	}
	return true
}

// ResolveField walks a dotted field path from a message descriptor and
// returns the descriptor of the leaf field. Paths are policy-authored, so a
// miss is a configuration error the caller must surface as such.
func ResolveField(md protoreflect.MessageDescriptor, path string) (protoreflect.FieldDescriptor, error) {
	parts := strings.Split(path, ".")
	var fd protoreflect.FieldDescriptor
	for i, part := range parts {
		fd = md.Fields().ByName(protoreflect.Name(part))
		if fd == nil {
			return nil, fmt.Errorf("field %q not present on %s", path, md.FullName())
		}
		if i < len(parts)-1 {
			if fd.Kind() != protoreflect.MessageKind || fd.IsList() {
				return nil, fmt.Errorf("field %q on %s: %q is not a singular message", path, md.FullName(), part)
			}
			md = fd.Message()
		}
	}
	return fd, nil
}
