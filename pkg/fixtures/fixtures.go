// Package fixtures generates and verifies the golden test-vector corpus.
// Each case stores the canonical byte form of one message plus its expected
// digest; independent implementations of the same profile prove
// interoperability by reproducing both, byte for byte.
package fixtures

import (
	"context"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/Mindburn-Labs/ucf/core/pkg/corpus"
)

// Encoding names the on-disk form of a case's canonical bytes.
type Encoding string

const (
	// EncodingHex stores canonical bytes as a lowercase hex string in
	// <name>.hex. Hex survives editors, diffs, and code review.
	EncodingHex Encoding = "hex"
	// EncodingBinary stores canonical bytes raw in <name>.bin, for large
	// payloads where hex doubling is not worth it.
	EncodingBinary Encoding = "bin"
)

// Fixture is one loaded corpus case: the canonical bytes of a message and
// the digest an implementation must derive from them.
type Fixture struct {
	Name     string
	Encoding Encoding
	Bytes    []byte
	Digest   [32]byte
}

// LoadFixture reads <name>.hex or <name>.bin plus <name>.digest from the
// store. Text forms tolerate surrounding whitespace; the digest file always
// holds 64 hex characters.
func LoadFixture(ctx context.Context, store corpus.Store, name string, enc Encoding) (*Fixture, error) {
	f := &Fixture{Name: name, Encoding: enc}

	switch enc {
	case EncodingHex:
		raw, err := store.Get(ctx, name+".hex")
		if err != nil {
			return nil, fmt.Errorf("fixture %s: %w", name, err)
		}
		f.Bytes, err = hex.DecodeString(strings.TrimSpace(string(raw)))
		if err != nil {
			return nil, fmt.Errorf("fixture %s: invalid hex: %w", name, err)
		}
	case EncodingBinary:
		raw, err := store.Get(ctx, name+".bin")
		if err != nil {
			return nil, fmt.Errorf("fixture %s: %w", name, err)
		}
		f.Bytes = raw
	default:
		return nil, fmt.Errorf("fixture %s: unknown encoding %q", name, enc)
	}

	raw, err := store.Get(ctx, name+".digest")
	if err != nil {
		return nil, fmt.Errorf("fixture %s: %w", name, err)
	}
	d, err := hex.DecodeString(strings.TrimSpace(string(raw)))
	if err != nil {
		return nil, fmt.Errorf("fixture %s: invalid digest hex: %w", name, err)
	}
	if len(d) != 32 {
		return nil, fmt.Errorf("fixture %s: digest holds %d bytes, want 32", name, len(d))
	}
	copy(f.Digest[:], d)
	return f, nil
}

// dataKey returns the store key holding the case's canonical bytes.
func dataKey(name string, enc Encoding) string {
	if enc == EncodingBinary {
		return name + ".bin"
	}
	return name + ".hex"
}
