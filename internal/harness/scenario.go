package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/dapseq/internal/store"
)

// Scenario defines a conformance test scenario.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Specs is a directory of CUE dataset descriptors. Relative paths are
	// resolved against the scenario file's directory.
	Specs string `yaml:"specs,omitempty"`

	// Schema is inline CUE, used instead of Specs.
	Schema string `yaml:"schema,omitempty"`

	// Tables are loaded into the store before the first request.
	Tables []store.Table `yaml:"tables"`

	// Requests are sent in order.
	Requests []RequestStep `yaml:"requests"`

	// Assertions validate the final trace and response log.
	Assertions []Assertion `yaml:"assertions"`
}

// RequestStep is one request and how to send it.
type RequestStep struct {
	Dataset string   `yaml:"dataset"`
	Project []string `yaml:"project,omitempty"`
	Select  []string `yaml:"select,omitempty"`
	Range   []string `yaml:"range,omitempty"`

	// Chunk is the marshaller chunk size; 0 means the default.
	Chunk int `yaml:"chunk,omitempty"`

	// Sync writes on the serializing goroutine.
	Sync bool `yaml:"sync,omitempty"`

	// Expect is checked against the response. If nil, the request must
	// succeed.
	Expect *ExpectClause `yaml:"expect,omitempty"`
}

// ExpectClause specifies the expected outcome of a request.
type ExpectClause struct {
	// Rows is the expected number of top-level instances.
	Rows *int `yaml:"rows,omitempty"`

	// Error is the expected engine error code (BAD_REQUEST, TRANSMISSION).
	// Empty means the request must succeed.
	Error string `yaml:"error,omitempty"`
}

// Assertion validates the trace or the response log.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// Request indexes Requests (trace assertions).
	Request int `yaml:"request,omitempty"`

	// Tokens is the expected trace (trace_tokens) or sub-sequence
	// (trace_contains).
	Tokens []string `yaml:"tokens,omitempty"`

	// Token is counted by trace_count.
	Token string `yaml:"token,omitempty"`

	// Count is the expected number of occurrences (trace_count) or log
	// entries (response_log).
	Count int `yaml:"count,omitempty"`
}

// Assertion type constants.
const (
	AssertTraceTokens   = "trace_tokens"
	AssertTraceContains = "trace_contains"
	AssertTraceCount    = "trace_count"
	AssertResponseLog   = "response_log"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Strict field validation catches typos like "assertion:" vs "assertions:".
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if scenario.Specs != "" && !filepath.IsAbs(scenario.Specs) {
		scenario.Specs = filepath.Join(filepath.Dir(path), scenario.Specs)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario %s: %w", path, err)
	}
	return &scenario, nil
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if (s.Specs == "") == (s.Schema == "") {
		return fmt.Errorf("exactly one of specs or schema is required")
	}
	if s.Specs != "" {
		if _, err := os.Stat(s.Specs); err != nil {
			return fmt.Errorf("specs directory not found: %s", s.Specs)
		}
	}
	if len(s.Requests) == 0 {
		return fmt.Errorf("requests list is required and must be non-empty")
	}

	for i, r := range s.Requests {
		if r.Dataset == "" {
			return fmt.Errorf("requests[%d]: dataset is required", i)
		}
		if r.Chunk < 0 {
			return fmt.Errorf("requests[%d]: chunk must be non-negative", i)
		}
	}

	for i, a := range s.Assertions {
		if err := validateAssertion(i, &a, len(s.Requests)); err != nil {
			return err
		}
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion, requests int) error {
	switch a.Type {
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	case AssertTraceTokens, AssertTraceContains:
		if len(a.Tokens) == 0 && a.Type == AssertTraceContains {
			return fmt.Errorf("assertions[%d]: tokens are required for %s", index, a.Type)
		}
	case AssertTraceCount:
		if a.Token == "" {
			return fmt.Errorf("assertions[%d]: token is required for trace_count", index)
		}
	case AssertResponseLog:
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	if a.Count < 0 {
		return fmt.Errorf("assertions[%d]: count must be non-negative", index)
	}
	if a.Type != AssertResponseLog && (a.Request < 0 || a.Request >= requests) {
		return fmt.Errorf("assertions[%d]: request %d out of range", index, a.Request)
	}
	return nil
}
