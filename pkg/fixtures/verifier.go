package fixtures

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/google/uuid"
	"google.golang.org/protobuf/reflect/protoreflect"

	"github.com/Mindburn-Labs/ucf/core/pkg/corpus"
	"github.com/Mindburn-Labs/ucf/core/pkg/digest"
)

// ErrFixtureMismatch reports a corpus that failed verification. The report
// returned alongside it carries every failing check, not just the first.
var ErrFixtureMismatch = errors.New("fixture mismatch")

// CheckType classifies one verification check.
type CheckType string

const (
	// CheckManifest covers manifest-level properties: generator
	// compatibility, case ordering, binding agreement.
	CheckManifest CheckType = "manifest"
	// CheckDecode proves the stored bytes parse as the declared schema.
	CheckDecode CheckType = "decode"
	// CheckStability proves decode followed by canonical re-encode
	// reproduces the stored bytes exactly.
	CheckStability CheckType = "canonical_stability"
	// CheckDigest proves the stored digest matches a recomputation from
	// the stored bytes under the manifest's digest triple.
	CheckDigest CheckType = "digest"
	// CheckHygiene covers registry-wide structural rules.
	CheckHygiene CheckType = "schema_hygiene"
)

// CheckResult is the outcome of a single check.
type CheckResult struct {
	CheckType CheckType `json:"check_type"`
	Case      string    `json:"case,omitempty"`
	Passed    bool      `json:"passed"`
	Message   string    `json:"message"`
	Details   string    `json:"details,omitempty"`
}

// Summary aggregates a report's check outcomes.
type Summary struct {
	Cases        int `json:"cases"`
	TotalChecks  int `json:"total_checks"`
	PassedChecks int `json:"passed_checks"`
	FailedChecks int `json:"failed_checks"`
}

// Report is the full outcome of one corpus verification run.
type Report struct {
	ReportID   string        `json:"report_id"`
	VerifiedAt time.Time     `json:"verified_at"`
	Generator  GeneratorInfo `json:"generator"`
	Checks     []CheckResult `json:"checks"`
	Summary    Summary       `json:"summary"`
	Passed     bool          `json:"passed"`
}

// Verifier checks a fixture corpus against the live registry and encoder.
type Verifier struct {
	eng     *digest.Engine
	version *semver.Version
	clock   func() time.Time
}

// NewVerifier returns a verifier that accepts corpora from generators
// sharing its major version.
func NewVerifier(eng *digest.Engine, version string) (*Verifier, error) {
	return NewVerifierWithClock(eng, version, time.Now)
}

// NewVerifierWithClock is NewVerifier with an injectable clock.
func NewVerifierWithClock(eng *digest.Engine, version string, clock func() time.Time) (*Verifier, error) {
	v, err := semver.NewVersion(version)
	if err != nil {
		return nil, fmt.Errorf("invalid verifier version %q: %w", version, err)
	}
	return &Verifier{eng: eng, version: v, clock: clock}, nil
}

// Verify runs every check over the corpus and aggregates the results. Cases
// verify concurrently; a failing check never stops the run. The returned
// error is ErrFixtureMismatch when any check failed, with the report still
// populated, or an I/O error when the corpus could not be read at all.
func (v *Verifier) Verify(ctx context.Context, store corpus.Store) (*Report, error) {
	man, err := LoadManifest(ctx, store)
	if err != nil {
		return nil, err
	}

	report := &Report{
		ReportID:   uuid.New().String(),
		VerifiedAt: v.clock().UTC(),
		Generator:  man.Generator,
	}

	var mu sync.Mutex
	add := func(c CheckResult) {
		mu.Lock()
		report.Checks = append(report.Checks, c)
		mu.Unlock()
	}

	v.checkManifest(man, add)

	var wg sync.WaitGroup
	for _, c := range man.Cases {
		wg.Add(1)
		go func(c ManifestCase) {
			defer wg.Done()
			v.verifyCase(ctx, store, c, add)
		}(c)
	}
	wg.Wait()

	v.checkHygiene(man, add)

	// Concurrent appends land in arrival order; sort for a stable report.
	sort.Slice(report.Checks, func(i, j int) bool {
		a, b := report.Checks[i], report.Checks[j]
		if a.Case != b.Case {
			return a.Case < b.Case
		}
		return a.CheckType < b.CheckType
	})

	report.Summary = summarize(man, report.Checks)
	report.Passed = report.Summary.FailedChecks == 0
	if !report.Passed {
		return report, fmt.Errorf("%w: %d of %d checks failed",
			ErrFixtureMismatch, report.Summary.FailedChecks, report.Summary.TotalChecks)
	}
	return report, nil
}

// checkManifest validates corpus-level properties before any case runs.
func (v *Verifier) checkManifest(man *Manifest, add func(CheckResult)) {
	if err := man.CheckGenerator(v.version); err != nil {
		add(CheckResult{CheckType: CheckManifest, Passed: false,
			Message: "generator compatibility", Details: err.Error()})
	} else {
		add(CheckResult{CheckType: CheckManifest, Passed: true,
			Message: "generator compatibility"})
	}

	sorted := true
	seen := make(map[string]bool, len(man.Cases))
	for i, c := range man.Cases {
		if i > 0 && man.Cases[i-1].Name >= c.Name {
			sorted = false
		}
		if seen[c.Name] {
			sorted = false
		}
		seen[c.Name] = true
	}
	add(CheckResult{CheckType: CheckManifest, Passed: sorted,
		Message: "case names sorted and unique"})
}

// verifyCase runs the per-case pipeline: decode, canonical stability,
// digest recomputation. Later checks are skipped once the bytes themselves
// are unavailable or unparseable.
func (v *Verifier) verifyCase(ctx context.Context, store corpus.Store, c ManifestCase, add func(CheckResult)) {
	reg := v.eng.Encoder().Registry()
	b, err := reg.Binding(c.Schema)
	if err != nil {
		add(CheckResult{CheckType: CheckDecode, Case: c.Name, Passed: false,
			Message: "schema registered", Details: err.Error()})
		return
	}
	if b.Domain != c.Domain || b.Version != c.SchemaVersion {
		add(CheckResult{CheckType: CheckManifest, Case: c.Name, Passed: false,
			Message: "binding agreement",
			Details: fmt.Sprintf("manifest has (%s, %d), registry binds (%s, %d)",
				c.Domain, c.SchemaVersion, b.Domain, b.Version)})
	}

	f, err := LoadFixture(ctx, store, c.Name, c.Encoding)
	if err != nil {
		add(CheckResult{CheckType: CheckDecode, Case: c.Name, Passed: false,
			Message: "fixture readable", Details: err.Error()})
		return
	}

	msg, err := v.eng.Encoder().Decode(c.Schema, f.Bytes)
	if err != nil {
		add(CheckResult{CheckType: CheckDecode, Case: c.Name, Passed: false,
			Message: "bytes decode as " + c.Schema, Details: err.Error()})
		return
	}
	add(CheckResult{CheckType: CheckDecode, Case: c.Name, Passed: true,
		Message: "bytes decode as " + c.Schema})

	reencoded, err := v.eng.Encoder().Bytes(msg, b.Policy)
	switch {
	case err != nil:
		add(CheckResult{CheckType: CheckStability, Case: c.Name, Passed: false,
			Message: "canonical re-encode", Details: err.Error()})
	case !bytes.Equal(reencoded, f.Bytes):
		add(CheckResult{CheckType: CheckStability, Case: c.Name, Passed: false,
			Message: "decode then re-encode reproduces stored bytes",
			Details: fmt.Sprintf("stored %d bytes, re-encoded %d bytes", len(f.Bytes), len(reencoded))})
	default:
		add(CheckResult{CheckType: CheckStability, Case: c.Name, Passed: true,
			Message: "decode then re-encode reproduces stored bytes"})
	}

	// Recompute under the manifest's triple, not the registry's, so a
	// silently rebound domain fails here instead of vanishing.
	d, err := v.eng.Digest(c.Domain, c.Schema, c.SchemaVersion, f.Bytes)
	switch {
	case err != nil:
		add(CheckResult{CheckType: CheckDigest, Case: c.Name, Passed: false,
			Message: "digest recomputation", Details: err.Error()})
	case d != f.Digest:
		add(CheckResult{CheckType: CheckDigest, Case: c.Name, Passed: false,
			Message: "stored digest matches recomputation",
			Details: fmt.Sprintf("stored %x, recomputed %x", f.Digest, d)})
	default:
		add(CheckResult{CheckType: CheckDigest, Case: c.Name, Passed: true,
			Message: "stored digest matches recomputation"})
	}
}

// checkHygiene enforces the registry-wide structural rules every release
// corpus must hold: total enum coverage of zero values, no map fields,
// unambiguous digest-input headers, and full schema and file coverage.
func (v *Verifier) checkHygiene(man *Manifest, add func(CheckResult)) {
	reg := v.eng.Encoder().Registry()

	var missingZero []string
	reg.RangeEnums(func(ed protoreflect.EnumDescriptor) bool {
		if ed.Values().ByNumber(0) == nil {
			missingZero = append(missingZero, string(ed.FullName()))
		}
		return true
	})
	add(CheckResult{CheckType: CheckHygiene, Passed: len(missingZero) == 0,
		Message: "every enum declares a zero value",
		Details: strings.Join(missingZero, ", ")})

	var mapFields []string
	reg.RangeMessages(func(md protoreflect.MessageDescriptor) bool {
		fields := md.Fields()
		for i := 0; i < fields.Len(); i++ {
			if fields.Get(i).IsMap() {
				mapFields = append(mapFields, string(fields.Get(i).FullName()))
			}
		}
		return true
	})
	add(CheckResult{CheckType: CheckHygiene, Passed: len(mapFields) == 0,
		Message: "no map fields anywhere in the registry",
		Details: strings.Join(mapFields, ", ")})

	// Digest inputs concatenate domain, schema id, and version without
	// separators. That stays injective only while no header is a prefix
	// of another; sorting makes any prefix pair adjacent.
	headers := make([]string, 0, len(reg.All()))
	for _, b := range reg.All() {
		headers = append(headers, b.Domain+b.SchemaID+strconv.FormatUint(uint64(b.Version), 10))
	}
	sort.Strings(headers)
	var ambiguous []string
	for i := 1; i < len(headers); i++ {
		if strings.HasPrefix(headers[i], headers[i-1]) {
			ambiguous = append(ambiguous, headers[i-1]+" / "+headers[i])
		}
	}
	add(CheckResult{CheckType: CheckHygiene, Passed: len(ambiguous) == 0,
		Message: "digest-input headers are prefix-free",
		Details: strings.Join(ambiguous, ", ")})

	covered := make(map[string]bool, len(man.Cases))
	coveredFiles := make(map[string]bool)
	for _, c := range man.Cases {
		covered[c.Schema] = true
		if b, err := reg.Binding(c.Schema); err == nil {
			coveredFiles[b.File] = true
		}
	}
	var uncovered []string
	for _, b := range reg.All() {
		if !covered[b.SchemaID] {
			uncovered = append(uncovered, b.SchemaID)
		}
	}
	add(CheckResult{CheckType: CheckHygiene, Passed: len(uncovered) == 0,
		Message: "every registered schema has a fixture case",
		Details: strings.Join(uncovered, ", ")})

	var uncoveredFiles []string
	for _, f := range reg.Files() {
		if !coveredFiles[f] {
			uncoveredFiles = append(uncoveredFiles, f)
		}
	}
	add(CheckResult{CheckType: CheckHygiene, Passed: len(uncoveredFiles) == 0,
		Message: "every schema file has a fixture case",
		Details: strings.Join(uncoveredFiles, ", ")})
}

func summarize(man *Manifest, checks []CheckResult) Summary {
	s := Summary{Cases: len(man.Cases), TotalChecks: len(checks)}
	for _, c := range checks {
		if c.Passed {
			s.PassedChecks++
		} else {
			s.FailedChecks++
		}
	}
	return s
}
