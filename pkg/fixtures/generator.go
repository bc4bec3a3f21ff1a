package fixtures

import (
	"context"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/Masterminds/semver/v3"

	"github.com/Mindburn-Labs/ucf/core/pkg/corpus"
	"github.com/Mindburn-Labs/ucf/core/pkg/digest"
)

// Generator produces a fixture corpus from the built-in samples: for each
// case the canonical bytes, the expected digest, and finally the manifest.
type Generator struct {
	eng     *digest.Engine
	version *semver.Version
	clock   func() time.Time
}

// NewGenerator returns a generator stamping corpora with the given
// semantic version.
func NewGenerator(eng *digest.Engine, version string) (*Generator, error) {
	return NewGeneratorWithClock(eng, version, time.Now)
}

// NewGeneratorWithClock is NewGenerator with an injectable clock.
func NewGeneratorWithClock(eng *digest.Engine, version string, clock func() time.Time) (*Generator, error) {
	v, err := semver.NewVersion(version)
	if err != nil {
		return nil, fmt.Errorf("invalid generator version %q: %w", version, err)
	}
	return &Generator{eng: eng, version: v, clock: clock}, nil
}

// Generate writes the corpus selected by profile into the store and returns
// its manifest. A nil profile selects every suite. The manifest goes in
// last; readers finding one can rely on every case it lists being present.
func (g *Generator) Generate(ctx context.Context, store corpus.Store, profile *Profile) (*Manifest, error) {
	if profile != nil && !profile.Overwrite {
		ok, err := store.Exists(ctx, ManifestKey)
		if err != nil {
			return nil, err
		}
		if ok {
			return nil, fmt.Errorf("corpus already present at %s (set overwrite to regenerate)", ManifestKey)
		}
	}

	man := &Manifest{
		Generator: GeneratorInfo{Name: GeneratorName, Version: g.version.String()},
		CreatedAt: g.clock().UTC(),
	}

	reg := g.eng.Encoder().Registry()
	for _, s := range Samples() {
		if !profile.selects(s.Suite) {
			continue
		}
		b, err := reg.Binding(s.SchemaID)
		if err != nil {
			return nil, fmt.Errorf("case %s: %w", s.Name, err)
		}
		payload, err := g.eng.Encoder().Bytes(s.Build(), b.Policy)
		if err != nil {
			return nil, fmt.Errorf("case %s: %w", s.Name, err)
		}
		d, err := g.eng.Digest(b.Domain, b.SchemaID, b.Version, payload)
		if err != nil {
			return nil, fmt.Errorf("case %s: %w", s.Name, err)
		}

		var data []byte
		if s.Encoding == EncodingBinary {
			data = payload
		} else {
			data = []byte(hex.EncodeToString(payload) + "\n")
		}
		if err := store.Put(ctx, dataKey(s.Name, s.Encoding), data); err != nil {
			return nil, fmt.Errorf("case %s: %w", s.Name, err)
		}
		if err := store.Put(ctx, s.Name+".digest", []byte(hex.EncodeToString(d[:])+"\n")); err != nil {
			return nil, fmt.Errorf("case %s: %w", s.Name, err)
		}

		man.Cases = append(man.Cases, ManifestCase{
			Name:          s.Name,
			Schema:        b.SchemaID,
			Domain:        b.Domain,
			SchemaVersion: b.Version,
			Encoding:      s.Encoding,
		})
	}

	man.SortCases()
	if err := WriteManifest(ctx, store, man); err != nil {
		return nil, err
	}
	return man, nil
}
