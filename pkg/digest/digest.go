// Package digest derives the domain-separated 32-byte BLAKE3 digests that
// identify canonical ucf.v1 messages, including the self-referential
// zero-then-hash form and previous-digest chain links.
package digest

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"

	"google.golang.org/protobuf/proto"
	"lukechampine.com/blake3"

	"github.com/Mindburn-Labs/ucf/core/pkg/canonical"
	"github.com/Mindburn-Labs/ucf/core/pkg/schema"
)

// Size is the digest width of this profile.
const Size = 32

// ErrChainBroken reports a previous-digest field that does not match the
// independently known digest of the prior instance. Consumers must reject;
// the condition is never healed silently.
var ErrChainBroken = errors.New("digest chain broken")

// ErrInputTooLarge reports a payload over the engine's configured cap.
// Digesting itself is total; the cap is a caller-supplied allocation bound.
var ErrInputTooLarge = errors.New("digest input too large")

// Zero is the all-zero digest marking the start of a chain.
var Zero [32]byte

// Digest32 computes BLAKE3-256 over the undelimited concatenation
// domain || schema_id || decimal(version) || payload. Domain strings are
// fixed-format ASCII, so the concatenation is unambiguous for every
// registered triple; the fixture verifier proves that property.
func Digest32(domain, schemaID string, version uint32, payload []byte) [32]byte {
	h := blake3.New(Size, nil)
	h.Write([]byte(domain))
	h.Write([]byte(schemaID))
	h.Write([]byte(strconv.FormatUint(uint64(version), 10)))
	h.Write(payload)
	var out [32]byte
	h.Sum(out[:0])
	return out
}

// CheckLink compares a stored previous-digest against the known accepted
// digest of the prior instance.
func CheckLink(stored, known [32]byte) error {
	if !bytes.Equal(stored[:], known[:]) {
		return fmt.Errorf("%w: stored prev %x, accepted head %x", ErrChainBroken, stored, known)
	}
	return nil
}

// Engine binds digesting to a schema registry and canonical encoder.
type Engine struct {
	enc      *canonical.Encoder
	maxInput int
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithMaxInput caps the canonical-byte length the engine will digest.
// Zero means no cap.
func WithMaxInput(n int) EngineOption {
	return func(e *Engine) { e.maxInput = n }
}

// NewEngine returns an engine over the given registry.
func NewEngine(reg *schema.Registry, opts ...EngineOption) *Engine {
	e := &Engine{enc: canonical.NewEncoder(reg)}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Encoder exposes the engine's canonical encoder.
func (e *Engine) Encoder() *canonical.Encoder { return e.enc }

// Digest applies the input cap and then Digest32. Raw-bytes entry point for
// callers that already hold canonical bytes (the fixture verifier).
func (e *Engine) Digest(domain, schemaID string, version uint32, payload []byte) ([32]byte, error) {
	if e.maxInput > 0 && len(payload) > e.maxInput {
		return Zero, fmt.Errorf("%w: %d bytes, cap %d", ErrInputTooLarge, len(payload), e.maxInput)
	}
	return Digest32(domain, schemaID, version, payload), nil
}

// Sum canonicalizes msg under its schema binding and digests the result
// with the schema's permanently bound domain.
func (e *Engine) Sum(msg proto.Message, schemaID string) ([32]byte, error) {
	b, err := e.enc.Registry().Binding(schemaID)
	if err != nil {
		return Zero, err
	}
	payload, err := e.enc.Bytes(msg, b.Policy)
	if err != nil {
		return Zero, err
	}
	return e.Digest(b.Domain, b.SchemaID, b.Version, payload)
}

// SelfDigest derives the digest a producer writes into the message's own
// digest field: normalize with that field zeroed, encode, digest. Whatever
// the field held before, stale bytes or nothing, does not influence the
// result.
func (e *Engine) SelfDigest(msg proto.Message, schemaID string) ([32]byte, error) {
	b, err := e.enc.Registry().Binding(schemaID)
	if err != nil {
		return Zero, err
	}
	if b.Policy.SelfDigestField == "" {
		return Zero, fmt.Errorf("schema %s declares no self-digest field", schemaID)
	}
	payload, err := e.enc.Bytes(msg, b.Policy, canonical.WithZeroSelfDigest())
	if err != nil {
		return Zero, err
	}
	return e.Digest(b.Domain, b.SchemaID, b.Version, payload)
}

// Seal returns a normalized copy of msg with the freshly derived self
// digest written into the designated field, plus the digest itself. The
// input is left untouched; hashing never happens in place on live objects.
func (e *Engine) Seal(msg proto.Message, schemaID string) (proto.Message, [32]byte, error) {
	d, err := e.SelfDigest(msg, schemaID)
	if err != nil {
		return nil, Zero, err
	}
	b, err := e.enc.Registry().Binding(schemaID)
	if err != nil {
		return nil, Zero, err
	}
	sealed, err := e.enc.Normalize(msg, b.Policy)
	if err != nil {
		return nil, Zero, err
	}
	if err := schema.SetDigest(sealed, b.Policy.SelfDigestField, d); err != nil {
		return nil, Zero, err
	}
	return sealed, d, nil
}

// VerifySelfDigest recomputes the self digest of a sealed message and
// checks it against the value stored in the designated field.
func (e *Engine) VerifySelfDigest(msg proto.Message, schemaID string) error {
	b, err := e.enc.Registry().Binding(schemaID)
	if err != nil {
		return err
	}
	if b.Policy.SelfDigestField == "" {
		return fmt.Errorf("schema %s declares no self-digest field", schemaID)
	}
	stored, ok, err := schema.GetDigest(msg, b.Policy.SelfDigestField)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%s: self-digest field %s is unset", schemaID, b.Policy.SelfDigestField)
	}
	want, err := e.SelfDigest(msg, schemaID)
	if err != nil {
		return err
	}
	if !bytes.Equal(stored[:], want[:]) {
		return fmt.Errorf("%s: stored self digest %x, derived %x", schemaID, stored, want)
	}
	return nil
}
