package ledger

import (
	"encoding/hex"
	"fmt"
	"time"
)

// entryRecord is the JSON projection shared by the file and redis backends.
// Digests travel as lowercase hex.
type entryRecord struct {
	Stream     string    `json:"stream"`
	Seq        uint64    `json:"seq"`
	SchemaID   string    `json:"schema_id"`
	Prev       string    `json:"prev_digest"`
	Digest     string    `json:"digest"`
	RecordedAt time.Time `json:"recorded_at"`
}

func toRecord(e Entry) entryRecord {
	return entryRecord{
		Stream:     e.Stream,
		Seq:        e.Seq,
		SchemaID:   e.SchemaID,
		Prev:       hex.EncodeToString(e.Prev[:]),
		Digest:     hex.EncodeToString(e.Digest[:]),
		RecordedAt: e.RecordedAt,
	}
}

func fromRecord(r entryRecord) (Entry, error) {
	prev, err := parseDigest(r.Prev)
	if err != nil {
		return Entry{}, fmt.Errorf("prev_digest: %w", err)
	}
	d, err := parseDigest(r.Digest)
	if err != nil {
		return Entry{}, fmt.Errorf("digest: %w", err)
	}
	return Entry{
		Stream:     r.Stream,
		Seq:        r.Seq,
		SchemaID:   r.SchemaID,
		Prev:       prev,
		Digest:     d,
		RecordedAt: r.RecordedAt,
	}, nil
}

func parseDigest(s string) ([32]byte, error) {
	var out [32]byte
	b, err := hex.DecodeString(s)
	if err != nil {
		return out, err
	}
	if len(b) != 32 {
		return out, fmt.Errorf("digest is %d bytes, want 32", len(b))
	}
	copy(out[:], b)
	return out, nil
}
