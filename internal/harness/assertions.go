package harness

import (
	"fmt"
	"strings"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string   // Assertion type for categorization
	Expected string   // Human-readable expected outcome
	Actual   string   // Human-readable actual outcome
	Tokens   []string // Trace of the request, for context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Tokens) > 0 {
		fmt.Fprintf(&buf, "\nTrace:\n  %s\n", strings.Join(e.Tokens, " "))
	}
	return buf.String()
}

// EvaluateAssertions runs every assertion and returns the failure messages.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var msgs []string
	for i, a := range assertions {
		if err := evaluateAssertion(result, a); err != nil {
			msgs = append(msgs, fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}
	return msgs
}

func evaluateAssertion(result *Result, a Assertion) error {
	if a.Type == AssertResponseLog {
		return assertResponseLog(result.Logged, a)
	}
	if a.Request < 0 || a.Request >= len(result.Trace) {
		return fmt.Errorf("request %d not in trace", a.Request)
	}
	tokens := result.Trace[a.Request].Tokens

	switch a.Type {
	case AssertTraceTokens:
		return assertTraceTokens(tokens, a)
	case AssertTraceContains:
		return assertTraceContains(tokens, a)
	case AssertTraceCount:
		return assertTraceCount(tokens, a)
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
}

// assertTraceTokens checks that the trace equals the expected tokens.
func assertTraceTokens(tokens []string, a Assertion) error {
	if len(tokens) == len(a.Tokens) {
		same := true
		for i := range tokens {
			if tokens[i] != a.Tokens[i] {
				same = false
				break
			}
		}
		if same {
			return nil
		}
	}
	return &AssertionError{
		Type:     AssertTraceTokens,
		Expected: strings.Join(a.Tokens, " "),
		Actual:   strings.Join(tokens, " "),
		Tokens:   tokens,
	}
}

// assertTraceContains checks that the expected tokens appear consecutively.
func assertTraceContains(tokens []string, a Assertion) error {
	for start := 0; start+len(a.Tokens) <= len(tokens); start++ {
		match := true
		for j, want := range a.Tokens {
			if tokens[start+j] != want {
				match = false
				break
			}
		}
		if match {
			return nil
		}
	}
	return &AssertionError{
		Type:     AssertTraceContains,
		Expected: strings.Join(a.Tokens, " "),
		Actual:   "not found in trace",
		Tokens:   tokens,
	}
}

// assertTraceCount checks that a token appears exactly Count times.
func assertTraceCount(tokens []string, a Assertion) error {
	count := 0
	for _, tok := range tokens {
		if tok == a.Token {
			count++
		}
	}
	if count == a.Count {
		return nil
	}
	return &AssertionError{
		Type:     AssertTraceCount,
		Expected: fmt.Sprintf("%s appears %d times", a.Token, a.Count),
		Actual:   fmt.Sprintf("appears %d times", count),
		Tokens:   tokens,
	}
}

// assertResponseLog checks the number of response log entries.
func assertResponseLog(logged int, a Assertion) error {
	if logged == a.Count {
		return nil
	}
	return &AssertionError{
		Type:     AssertResponseLog,
		Expected: fmt.Sprintf("%d logged responses", a.Count),
		Actual:   fmt.Sprintf("%d logged responses", logged),
	}
}
