package request

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/roach88/dapseq/internal/ce"
)

// DomainRequest is the hash domain of request fingerprints. The version
// suffix allows the canonical form to change later.
const DomainRequest = "dapseq/request/v1"

// Request is one data request against a dataset.
type Request struct {
	// ID identifies this request in logs and the response log. It is not
	// part of the fingerprint.
	ID string

	Dataset    string
	Projection []string
	Selection  []string
	Ranges     []string
}

// New creates a request for dataset with an ID from gen.
func New(gen IDGenerator, dataset string) Request {
	return Request{ID: gen.Generate(), Dataset: dataset}
}

// Constraint parses the projection, selection and ranges.
func (r Request) Constraint() (ce.Constraint, error) {
	c, err := ce.Parse(r.Projection, r.Selection, r.Ranges)
	if err != nil {
		return ce.Constraint{}, fmt.Errorf("request %s: %w", r.ID, err)
	}
	return c, nil
}

// Fingerprint returns the content hash of the request: the dataset and the
// constraint in their given order. Requests that differ only in Unicode
// normalization share a fingerprint.
func (r Request) Fingerprint() (string, error) {
	obj := map[string]any{
		"dataset":    r.Dataset,
		"projection": nonNil(r.Projection),
		"selection":  nonNil(r.Selection),
		"ranges":     nonNil(r.Ranges),
	}
	canonical, err := MarshalCanonical(obj)
	if err != nil {
		return "", fmt.Errorf("fingerprint: %w", err)
	}
	return hashWithDomain(DomainRequest, canonical), nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// hashWithDomain computes SHA256(domain + 0x00 + data) as hex.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}
