package store

import (
	"encoding/json"
	"fmt"

	"github.com/roach88/dapseq/internal/request"
)

// constraintRecord is the stored form of a request constraint.
type constraintRecord struct {
	Projection []string `json:"projection"`
	Selection  []string `json:"selection"`
	Ranges     []string `json:"ranges"`
}

// marshalConstraint converts the constraint parts to canonical JSON TEXT.
// Canonical form keeps the column byte-stable across runs for golden traces.
func marshalConstraint(projection, selection, ranges []string) (string, error) {
	data, err := request.MarshalCanonical(map[string]any{
		"projection": nonNil(projection),
		"selection":  nonNil(selection),
		"ranges":     nonNil(ranges),
	})
	if err != nil {
		return "", fmt.Errorf("marshal constraint: %w", err)
	}
	return string(data), nil
}

// unmarshalConstraint parses constraint JSON TEXT. Missing parts come back as
// empty slices.
func unmarshalConstraint(data string) (constraintRecord, error) {
	var rec constraintRecord
	if data != "" && data != "{}" {
		if err := json.Unmarshal([]byte(data), &rec); err != nil {
			return constraintRecord{}, fmt.Errorf("unmarshal constraint: %w", err)
		}
	}
	rec.Projection = nonNil(rec.Projection)
	rec.Selection = nonNil(rec.Selection)
	rec.Ranges = nonNil(rec.Ranges)
	return rec, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
