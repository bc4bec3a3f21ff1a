// Package ledger persists accepted digest-chain heads. A stream is an
// append-only sequence of digests where every new link must name the
// current head as its predecessor; acceptance is compare-and-swap, so two
// writers racing on the same stream cannot fork it.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/Mindburn-Labs/ucf/core/pkg/digest"
)

// ErrStreamNotFound is returned when a stream has no accepted entries.
var ErrStreamNotFound = errors.New("stream not found")

// Entry is one accepted link in a digest stream.
type Entry struct {
	Stream     string
	Seq        uint64
	SchemaID   string
	Prev       [32]byte
	Digest     [32]byte
	RecordedAt time.Time
}

// Ledger is the durable interface for stream head management.
type Ledger interface {
	// Head returns the digest of the newest accepted entry.
	Head(ctx context.Context, stream string) ([32]byte, error)

	// Accept appends an entry whose Prev matches the current head (the
	// zero digest for an empty stream) and returns its assigned sequence
	// number. A mismatch fails with digest.ErrChainBroken.
	Accept(ctx context.Context, e Entry) (uint64, error)

	// History returns all accepted entries in sequence order.
	History(ctx context.Context, stream string) ([]Entry, error)
}

func checkEntry(e Entry) error {
	if e.Stream == "" {
		return errors.New("entry stream is empty")
	}
	if e.Digest == digest.Zero {
		// An all-zero head would collide with the empty-stream marker.
		return errors.New("entry digest is zero")
	}
	return nil
}

func chainMismatch(stream string, prev, head [32]byte) error {
	return fmt.Errorf("stream %s: %w: entry prev %x, accepted head %x",
		stream, digest.ErrChainBroken, prev, head)
}

// MemoryLedger implements Ledger in process memory.
type MemoryLedger struct {
	mu      sync.RWMutex
	streams map[string][]Entry
	clock   func() time.Time
}

func NewMemoryLedger() *MemoryLedger {
	return NewMemoryLedgerWithClock(time.Now)
}

func NewMemoryLedgerWithClock(clock func() time.Time) *MemoryLedger {
	return &MemoryLedger{
		streams: make(map[string][]Entry),
		clock:   clock,
	}
}

func (m *MemoryLedger) Head(ctx context.Context, stream string) ([32]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	entries, exists := m.streams[stream]
	if !exists || len(entries) == 0 {
		return digest.Zero, ErrStreamNotFound
	}
	return entries[len(entries)-1].Digest, nil
}

func (m *MemoryLedger) Accept(ctx context.Context, e Entry) (uint64, error) {
	if err := checkEntry(e); err != nil {
		return 0, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	entries := m.streams[e.Stream]
	head := digest.Zero
	if len(entries) > 0 {
		head = entries[len(entries)-1].Digest
	}
	if e.Prev != head {
		return 0, chainMismatch(e.Stream, e.Prev, head)
	}

	e.Seq = uint64(len(entries)) + 1
	e.RecordedAt = m.clock()
	m.streams[e.Stream] = append(entries, e)
	return e.Seq, nil
}

func (m *MemoryLedger) History(ctx context.Context, stream string) ([]Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	entries, exists := m.streams[stream]
	if !exists {
		return nil, ErrStreamNotFound
	}
	out := make([]Entry, len(entries))
	copy(out, entries)
	return out, nil
}

// Streams returns the names of all streams with at least one entry.
func (m *MemoryLedger) Streams() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := make([]string, 0, len(m.streams))
	for name := range m.streams {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
