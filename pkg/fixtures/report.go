package fixtures

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/gowebpki/jcs"

	"github.com/Mindburn-Labs/ucf/core/pkg/corpus"
)

// ReportKey is the default store key for the verification report.
const ReportKey = "report.json"

// CanonicalJSON renders the report in RFC 8785 canonical form, so two runs
// over the same corpus differ only in report id and timestamp.
func (r *Report) CanonicalJSON() ([]byte, error) {
	raw, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("encode report: %w", err)
	}
	out, err := jcs.Transform(raw)
	if err != nil {
		return nil, fmt.Errorf("canonicalize report: %w", err)
	}
	return out, nil
}

// WriteReport stores the canonical JSON rendering of the report.
func WriteReport(ctx context.Context, store corpus.Store, key string, r *Report) error {
	raw, err := r.CanonicalJSON()
	if err != nil {
		return err
	}
	if err := store.Put(ctx, key, raw); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}
