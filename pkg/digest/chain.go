package digest

import (
	"fmt"

	"google.golang.org/protobuf/proto"

	"github.com/Mindburn-Labs/ucf/core/pkg/schema"
)

// VerifyChain walks an ordered sequence of same-schema messages and checks
// that every element's previous-digest field equals the digest of the
// element before it. The first element must carry the zero digest. Each
// element's digest is recomputed from canonical bytes, so a swapped or
// tampered interior element surfaces as ErrChainBroken at the first link
// that no longer holds.
func (e *Engine) VerifyChain(msgs []proto.Message, schemaID string) error {
	if len(msgs) == 0 {
		return nil
	}
	b, err := e.enc.Registry().Binding(schemaID)
	if err != nil {
		return err
	}
	if b.Policy.PrevDigestField == "" {
		return fmt.Errorf("schema %s declares no previous-digest field", schemaID)
	}
	head := Zero
	for i, msg := range msgs {
		stored, ok, err := schema.GetDigest(msg, b.Policy.PrevDigestField)
		if err != nil {
			return fmt.Errorf("element %d: %w", i, err)
		}
		if !ok {
			stored = Zero
		}
		if err := CheckLink(stored, head); err != nil {
			return fmt.Errorf("element %d: %w", i, err)
		}
		d, err := e.digestElement(msg, b)
		if err != nil {
			return fmt.Errorf("element %d: %w", i, err)
		}
		head = d
	}
	return nil
}

// digestElement picks the digest that the next element's prev field must
// reference: the self digest when the schema seals one, otherwise the plain
// canonical digest of the element as stored.
func (e *Engine) digestElement(msg proto.Message, b *schema.Binding) ([32]byte, error) {
	if b.Policy.SelfDigestField != "" {
		return e.SelfDigest(msg, b.SchemaID)
	}
	payload, err := e.enc.Bytes(msg, b.Policy)
	if err != nil {
		return Zero, err
	}
	return e.Digest(b.Domain, b.SchemaID, b.Version, payload)
}
