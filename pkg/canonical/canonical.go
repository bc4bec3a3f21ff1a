// Package canonical produces the unique byte form of a ucf.v1 message:
// set-like repeated fields sorted by their declared keys, fields serialized
// in ascending field-number order, packed repeated scalars, no map fields.
// Two producers holding the same logical content get identical bytes.
package canonical

import (
	"errors"
	"fmt"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/types/dynamicpb"

	"github.com/Mindburn-Labs/ucf/core/pkg/schema"
)

// ErrSchemaPolicyMismatch reports a normalization policy referencing a field
// the message type does not declare. This is a configuration error; the
// fixture verifier's hygiene pass catches it before release.
var ErrSchemaPolicyMismatch = errors.New("schema policy mismatch")

// EncodingError wraps a serialization failure for a specific schema. It is
// propagated to the caller and never retried.
type EncodingError struct {
	SchemaID string
	Err      error
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("encoding %s: %v", e.SchemaID, e.Err)
}

func (e *EncodingError) Unwrap() error { return e.Err }

type options struct {
	zeroSelfDigest bool
}

// Option adjusts a single normalization pass.
type Option func(*options)

// WithZeroSelfDigest overwrites the policy's self-digest field with 32 zero
// bytes. Only the self-digest derivation path uses this; plain canonical
// bytes of a sealed message keep the stored digest so fixture round-trips
// stay byte-identical.
func WithZeroSelfDigest() Option {
	return func(o *options) { o.zeroSelfDigest = true }
}

// Encoder binds the canonicalization pipeline to a schema registry. The
// registry supplies nested types' sort rules during the tree walk.
type Encoder struct {
	reg *schema.Registry
}

// NewEncoder returns an encoder over the given registry.
func NewEncoder(reg *schema.Registry) *Encoder {
	return &Encoder{reg: reg}
}

// Normalize returns a normalized deep copy of msg: every set-like field
// sorted by its declared key (ties broken by full-element canonical bytes),
// ordered fields untouched, and, under WithZeroSelfDigest, the self-digest
// field overwritten with a 32-zero-byte placeholder. The input is never
// mutated.
func (e *Encoder) Normalize(msg proto.Message, pol *schema.NormalizationPolicy, opts ...Option) (proto.Message, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	clone := proto.Clone(msg)
	root := clone.ProtoReflect()
	if err := e.normalizeTree(root, pol); err != nil {
		return nil, err
	}
	if o.zeroSelfDigest && pol.SelfDigestField != "" {
		if err := e.zeroDigestField(root, pol.SelfDigestField); err != nil {
			return nil, err
		}
	}
	return clone, nil
}

// Bytes runs Normalize then the deterministic serializer.
func (e *Encoder) Bytes(msg proto.Message, pol *schema.NormalizationPolicy, opts ...Option) ([]byte, error) {
	normalized, err := e.Normalize(msg, pol, opts...)
	if err != nil {
		return nil, err
	}
	m := normalized.ProtoReflect()
	b, err := marshalMessage(m)
	if err != nil {
		return nil, &EncodingError{SchemaID: string(m.Descriptor().FullName()), Err: err}
	}
	return b, nil
}

// Decode unmarshals canonical bytes into a fresh dynamic message for the
// given schema.
func (e *Encoder) Decode(schemaID string, b []byte) (*dynamicpb.Message, error) {
	msg, err := e.reg.New(schemaID)
	if err != nil {
		return nil, err
	}
	if err := proto.Unmarshal(b, msg); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", schemaID, err)
	}
	return msg, nil
}

// Registry exposes the bound registry for callers composing pipelines.
func (e *Encoder) Registry() *schema.Registry { return e.reg }

// normalizeTree recurses post-order: children first, then this node's
// set-like fields, so tie-breaking sorts see already-normalized elements.
func (e *Encoder) normalizeTree(m protoreflect.Message, pol *schema.NormalizationPolicy) error {
	md := m.Descriptor()
	fields := md.Fields()
	for i := 0; i < fields.Len(); i++ {
		fd := fields.Get(i)
		if fd.IsMap() {
			return fmt.Errorf("%w: %s.%s: map fields have no canonical order", ErrSchemaPolicyMismatch, md.FullName(), fd.Name())
		}
		if fd.Kind() != protoreflect.MessageKind {
			continue
		}
		if fd.IsList() {
			list := m.Get(fd).List()
			if list.Len() == 0 {
				continue
			}
			mutable := m.Mutable(fd).List()
			for j := 0; j < mutable.Len(); j++ {
				if err := e.normalizeChild(mutable.Get(j).Message()); err != nil {
					return err
				}
			}
			continue
		}
		if m.Has(fd) {
			if err := e.normalizeChild(m.Mutable(fd).Message()); err != nil {
				return err
			}
		}
	}

	for _, sf := range pol.SetFields {
		fd := fields.ByName(protoreflect.Name(sf.Field))
		if fd == nil || !fd.IsList() {
			return fmt.Errorf("%w: %s has no repeated field %q", ErrSchemaPolicyMismatch, md.FullName(), sf.Field)
		}
		if err := sortList(m, fd, sf.Key); err != nil {
			return err
		}
	}
	return nil
}

func (e *Encoder) normalizeChild(m protoreflect.Message) error {
	pol, ok := e.reg.Policy(m.Descriptor().FullName())
	if !ok {
		pol = &schema.NormalizationPolicy{}
	}
	return e.normalizeTree(m, pol)
}

// zeroDigestField materializes the digest field along its dotted path and
// sets its value to 32 zero bytes, regardless of what the field held.
func (e *Encoder) zeroDigestField(m protoreflect.Message, path string) error {
	fd, err := schema.ResolveField(m.Descriptor(), path)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSchemaPolicyMismatch, err)
	}
	if fd.Kind() != protoreflect.MessageKind || fd.IsList() {
		return fmt.Errorf("%w: digest field %s.%s is not a singular message", ErrSchemaPolicyMismatch, m.Descriptor().FullName(), path)
	}

	node := m
	parts := splitPath(path)
	for _, part := range parts[:len(parts)-1] {
		node = node.Mutable(node.Descriptor().Fields().ByName(protoreflect.Name(part))).Message()
	}
	leaf := node.Mutable(node.Descriptor().Fields().ByName(protoreflect.Name(parts[len(parts)-1]))).Message()

	valueFd := leaf.Descriptor().Fields().ByName("value")
	if valueFd == nil || valueFd.Kind() != protoreflect.BytesKind {
		return fmt.Errorf("%w: digest field %s.%s does not carry a bytes value", ErrSchemaPolicyMismatch, m.Descriptor().FullName(), path)
	}
	leaf.Set(valueFd, protoreflect.ValueOfBytes(make([]byte, 32)))
	return nil
}

func splitPath(path string) []string {
	var parts []string
	start := 0
	for i := 0; i < len(path); i++ {
		if path[i] == '.' {
			parts = append(parts, path[start:i])
			start = i + 1
		}
	}
	return append(parts, path[start:])
}
