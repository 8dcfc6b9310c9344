package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

var sampleTokens = []string{"SOI", "s:B", "SOI", "i32:7", "SOI", "i32:8", "EOS", "EOS"}

func TestAssertTraceTokens(t *testing.T) {
	assert.NoError(t, assertTraceTokens(sampleTokens, Assertion{Tokens: sampleTokens}))

	err := assertTraceTokens(sampleTokens, Assertion{Tokens: []string{"EOS"}})
	var ae *AssertionError
	assert.ErrorAs(t, err, &ae)
	assert.Equal(t, AssertTraceTokens, ae.Type)
	assert.Contains(t, err.Error(), "Expected: EOS")
}

func TestAssertTraceContains(t *testing.T) {
	tests := []struct {
		name   string
		tokens []string
		ok     bool
	}{
		{"prefix", []string{"SOI", "s:B"}, true},
		{"middle", []string{"i32:7", "SOI", "i32:8"}, true},
		{"suffix", []string{"EOS", "EOS"}, true},
		{"not consecutive", []string{"s:B", "i32:7"}, false},
		{"longer than trace", append(append([]string{}, sampleTokens...), "EOS"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := assertTraceContains(sampleTokens, Assertion{Tokens: tt.tokens})
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestAssertTraceCount(t *testing.T) {
	assert.NoError(t, assertTraceCount(sampleTokens, Assertion{Token: "SOI", Count: 3}))
	assert.NoError(t, assertTraceCount(sampleTokens, Assertion{Token: "s:A", Count: 0}))
	assert.ErrorContains(t, assertTraceCount(sampleTokens, Assertion{Token: "EOS", Count: 1}), "appears 2 times")
}

func TestEvaluateAssertions_RequestOutOfTrace(t *testing.T) {
	result := NewResult()

	msgs := EvaluateAssertions(result, []Assertion{{Type: AssertTraceTokens, Request: 0}})

	assert.Equal(t, []string{"assertions[0]: request 0 not in trace"}, msgs)
}

func TestResult_AddError(t *testing.T) {
	r := NewResult()
	assert.True(t, r.Pass)

	r.AddError("boom")

	assert.False(t, r.Pass)
	assert.Equal(t, []string{"boom"}, r.Errors)
}
