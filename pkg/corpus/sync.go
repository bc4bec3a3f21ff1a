package corpus

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"sort"
	"strings"

	"golang.org/x/time/rate"
	"lukechampine.com/blake3"
)

// SumFile is the checksum index written alongside corpus objects. Each line
// is "<blake3-256 hex>  <key>", sorted by key.
const SumFile = "corpus.sum"

// ErrIntegrity is returned when a pulled object does not match its
// recorded checksum.
var ErrIntegrity = errors.New("corpus integrity check failed")

// Syncer copies corpora between stores with a transfer rate limit.
type Syncer struct {
	limiter *rate.Limiter
}

// NewSyncer creates a Syncer allowing r object transfers per second with
// burst b.
func NewSyncer(r rate.Limit, b int) *Syncer {
	return &Syncer{limiter: rate.NewLimiter(r, b)}
}

func sum(data []byte) string {
	d := blake3.Sum256(data)
	return hex.EncodeToString(d[:])
}

// Push copies every object under prefix from src to dst, then writes a
// fresh checksum file. The sum file lands last so a reader never sees
// sums for objects that have not arrived yet.
func (s *Syncer) Push(ctx context.Context, src, dst Store, prefix string) (int, error) {
	keys, err := src.List(ctx, prefix)
	if err != nil {
		return 0, err
	}

	sums := make(map[string]string, len(keys))
	pushed := 0
	for _, key := range keys {
		if key == SumFile {
			continue
		}
		if err := s.limiter.Wait(ctx); err != nil {
			return pushed, err
		}
		data, err := src.Get(ctx, key)
		if err != nil {
			return pushed, err
		}
		if err := dst.Put(ctx, key, data); err != nil {
			return pushed, err
		}
		sums[key] = sum(data)
		pushed++
	}

	if err := dst.Put(ctx, SumFile, encodeSums(sums)); err != nil {
		return pushed, err
	}
	return pushed, nil
}

// Pull fetches the objects named by src's checksum file, verifies each
// against its recorded checksum, and writes them to dst.
func (s *Syncer) Pull(ctx context.Context, src, dst Store) (int, error) {
	raw, err := src.Get(ctx, SumFile)
	if err != nil {
		return 0, fmt.Errorf("reading %s: %w", SumFile, err)
	}
	sums, err := parseSums(raw)
	if err != nil {
		return 0, err
	}

	keys := make([]string, 0, len(sums))
	for key := range sums {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	pulled := 0
	for _, key := range keys {
		if err := s.limiter.Wait(ctx); err != nil {
			return pulled, err
		}
		data, err := src.Get(ctx, key)
		if err != nil {
			return pulled, err
		}
		if got := sum(data); got != sums[key] {
			return pulled, fmt.Errorf("%s: %w: want %s, got %s", key, ErrIntegrity, sums[key], got)
		}
		if err := dst.Put(ctx, key, data); err != nil {
			return pulled, err
		}
		pulled++
	}

	if err := dst.Put(ctx, SumFile, raw); err != nil {
		return pulled, err
	}
	return pulled, nil
}

func encodeSums(sums map[string]string) []byte {
	keys := make([]string, 0, len(sums))
	for key := range sums {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, key := range keys {
		b.WriteString(sums[key])
		b.WriteString("  ")
		b.WriteString(key)
		b.WriteString("\n")
	}
	return []byte(b.String())
}

func parseSums(raw []byte) (map[string]string, error) {
	sums := make(map[string]string)
	for i, line := range strings.Split(string(raw), "\n") {
		if line == "" {
			continue
		}
		parts := strings.SplitN(line, "  ", 2)
		if len(parts) != 2 || len(parts[0]) != 64 {
			return nil, fmt.Errorf("%s line %d: malformed entry", SumFile, i+1)
		}
		if _, err := hex.DecodeString(parts[0]); err != nil {
			return nil, fmt.Errorf("%s line %d: %w", SumFile, i+1, err)
		}
		sums[parts[1]] = parts[0]
	}
	return sums, nil
}
