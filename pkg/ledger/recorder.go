package ledger

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/protobuf/proto"

	"github.com/Mindburn-Labs/ucf/core/pkg/digest"
	"github.com/Mindburn-Labs/ucf/core/pkg/schema"
)

// Recorder accepts canonical messages into digest streams. It derives each
// message's digest through the engine, proves the message's own
// previous-digest field against the stream head, and advances the head.
type Recorder struct {
	eng *digest.Engine
	led Ledger
}

func NewRecorder(eng *digest.Engine, led Ledger) *Recorder {
	return &Recorder{eng: eng, led: led}
}

// Record canonicalizes msg under schemaID and appends its digest to the
// stream. For schemas that carry a previous-digest field the stored value
// must equal the current head; the first message of a stream must carry
// the zero digest.
func (r *Recorder) Record(ctx context.Context, stream, schemaID string, msg proto.Message) (Entry, error) {
	b, err := r.eng.Encoder().Registry().Binding(schemaID)
	if err != nil {
		return Entry{}, err
	}

	head, err := r.led.Head(ctx, stream)
	if errors.Is(err, ErrStreamNotFound) {
		head = digest.Zero
	} else if err != nil {
		return Entry{}, err
	}

	if b.Policy.PrevDigestField != "" {
		stored, ok, err := schema.GetDigest(msg, b.Policy.PrevDigestField)
		if err != nil {
			return Entry{}, err
		}
		if !ok {
			stored = digest.Zero
		}
		if err := digest.CheckLink(stored, head); err != nil {
			return Entry{}, fmt.Errorf("stream %s: %w", stream, err)
		}
	}

	var d [32]byte
	if b.Policy.SelfDigestField != "" {
		d, err = r.eng.SelfDigest(msg, schemaID)
	} else {
		d, err = r.eng.Sum(msg, schemaID)
	}
	if err != nil {
		return Entry{}, err
	}

	e := Entry{
		Stream:   stream,
		SchemaID: schemaID,
		Prev:     head,
		Digest:   d,
	}
	seq, err := r.led.Accept(ctx, e)
	if err != nil {
		return Entry{}, err
	}
	e.Seq = seq
	return e, nil
}
