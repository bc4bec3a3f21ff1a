package fixtures

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/Masterminds/semver/v3"
	"gopkg.in/yaml.v3"

	"github.com/Mindburn-Labs/ucf/core/pkg/corpus"
)

// ManifestKey is the store key of the corpus manifest. The generator writes
// it last, so a manifest's presence marks a complete corpus.
const ManifestKey = "manifest.yaml"

// GeneratorName identifies corpora produced by this module. Verifiers
// refuse manifests from other generators outright.
const GeneratorName = "ucf-fixture-gen"

// Manifest describes a generated corpus: which tool produced it and the
// cases it contains, sorted by name.
type Manifest struct {
	Generator GeneratorInfo  `yaml:"generator" json:"generator"`
	CreatedAt time.Time      `yaml:"created_at" json:"created_at"`
	Cases     []ManifestCase `yaml:"cases" json:"cases"`
}

// GeneratorInfo records the producing tool and its semantic version.
type GeneratorInfo struct {
	Name    string `yaml:"name" json:"name"`
	Version string `yaml:"version" json:"version"`
}

// ManifestCase pins one case to the digest input triple it was generated
// under. A verifier recomputes digests from these values, never from its
// own defaults, so a rebound schema shows up as a mismatch instead of
// silently re-anchoring the corpus.
type ManifestCase struct {
	Name          string   `yaml:"name" json:"name"`
	Schema        string   `yaml:"schema" json:"schema"`
	Domain        string   `yaml:"domain" json:"domain"`
	SchemaVersion uint32   `yaml:"schema_version" json:"schema_version"`
	Encoding      Encoding `yaml:"encoding" json:"encoding"`
}

// LoadManifest reads and parses the corpus manifest.
func LoadManifest(ctx context.Context, store corpus.Store) (*Manifest, error) {
	raw, err := store.Get(ctx, ManifestKey)
	if err != nil {
		return nil, fmt.Errorf("corpus manifest: %w", err)
	}
	var m Manifest
	if err := yaml.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("parse corpus manifest: %w", err)
	}
	return &m, nil
}

// WriteManifest serializes the manifest into the store.
func WriteManifest(ctx context.Context, store corpus.Store, m *Manifest) error {
	raw, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Errorf("encode corpus manifest: %w", err)
	}
	if err := store.Put(ctx, ManifestKey, raw); err != nil {
		return fmt.Errorf("write corpus manifest: %w", err)
	}
	return nil
}

// CheckGenerator gates the manifest against a consumer's version. Corpora
// are consumable across minor and patch revisions; a major bump means the
// canonical profile itself may have moved, so the corpus must be
// regenerated rather than reinterpreted.
func (m *Manifest) CheckGenerator(consumer *semver.Version) error {
	if m.Generator.Name != GeneratorName {
		return fmt.Errorf("corpus generated by %q, want %q", m.Generator.Name, GeneratorName)
	}
	gen, err := semver.NewVersion(m.Generator.Version)
	if err != nil {
		return fmt.Errorf("invalid generator version %q: %w", m.Generator.Version, err)
	}
	if gen.Major() != consumer.Major() {
		return fmt.Errorf("corpus generator v%s incompatible with verifier v%s: major versions differ",
			gen, consumer)
	}
	return nil
}

// SortCases orders cases by name, the manifest's persisted order.
func (m *Manifest) SortCases() {
	sort.Slice(m.Cases, func(i, j int) bool { return m.Cases[i].Name < m.Cases[j].Name })
}
