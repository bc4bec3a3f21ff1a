package ledger

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/Mindburn-Labs/ucf/core/pkg/digest"
)

// FileLedger implements Ledger over an append-only JSON-lines file. The
// full log is replayed on open to rebuild the head index; accepts append a
// single line and fsync.
type FileLedger struct {
	path    string
	mu      sync.RWMutex
	streams map[string][]Entry
	clock   func() time.Time
}

func NewFileLedger(path string) (*FileLedger, error) {
	return NewFileLedgerWithClock(path, time.Now)
}

func NewFileLedgerWithClock(path string, clock func() time.Time) (*FileLedger, error) {
	fl := &FileLedger{
		path:    path,
		streams: make(map[string][]Entry),
		clock:   clock,
	}
	if err := fl.load(); err != nil {
		return nil, err
	}
	return fl, nil
}

func (f *FileLedger) load() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	file, err := os.Open(f.path)
	if os.IsNotExist(err) {
		return nil // Start empty
	}
	if err != nil {
		return err
	}
	defer func() { _ = file.Close() }()

	scanner := bufio.NewScanner(file)
	line := 0
	for scanner.Scan() {
		line++
		if len(scanner.Bytes()) == 0 {
			continue
		}
		var rec entryRecord
		if err := json.Unmarshal(scanner.Bytes(), &rec); err != nil {
			return fmt.Errorf("%s line %d: %w", f.path, line, err)
		}
		e, err := fromRecord(rec)
		if err != nil {
			return fmt.Errorf("%s line %d: %w", f.path, line, err)
		}
		f.streams[e.Stream] = append(f.streams[e.Stream], e)
	}
	if err := scanner.Err(); err != nil {
		return err
	}

	// Replayed entries must still chain; a log edited by hand does not load.
	for stream, entries := range f.streams {
		head := digest.Zero
		for i, e := range entries {
			if e.Prev != head {
				return fmt.Errorf("%s: stream %s entry %d: %w",
					f.path, stream, i+1, digest.ErrChainBroken)
			}
			head = e.Digest
		}
	}
	return nil
}

func (f *FileLedger) appendLine(e Entry) error {
	file, err := os.OpenFile(f.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return err
	}
	defer func() { _ = file.Close() }()

	bytes, err := json.Marshal(toRecord(e))
	if err != nil {
		return err
	}
	if _, err := file.Write(append(bytes, '\n')); err != nil {
		return err
	}
	return file.Sync()
}

func (f *FileLedger) Head(ctx context.Context, stream string) ([32]byte, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	entries, exists := f.streams[stream]
	if !exists || len(entries) == 0 {
		return digest.Zero, ErrStreamNotFound
	}
	return entries[len(entries)-1].Digest, nil
}

func (f *FileLedger) Accept(ctx context.Context, e Entry) (uint64, error) {
	if err := checkEntry(e); err != nil {
		return 0, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	entries := f.streams[e.Stream]
	head := digest.Zero
	if len(entries) > 0 {
		head = entries[len(entries)-1].Digest
	}
	if e.Prev != head {
		return 0, chainMismatch(e.Stream, e.Prev, head)
	}

	e.Seq = uint64(len(entries)) + 1
	e.RecordedAt = f.clock()
	if err := f.appendLine(e); err != nil {
		return 0, err
	}
	f.streams[e.Stream] = append(entries, e)
	return e.Seq, nil
}

func (f *FileLedger) History(ctx context.Context, stream string) ([]Entry, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	entries, exists := f.streams[stream]
	if !exists {
		return nil, ErrStreamNotFound
	}
	out := make([]Entry, len(entries))
	copy(out, entries)
	return out, nil
}
