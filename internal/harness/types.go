package harness

// TraceEvent is the observed outcome of one request.
type TraceEvent struct {
	Request string   `json:"request"` // request ID
	Dataset string   `json:"dataset"`
	Rows    int      `json:"rows"`
	Bytes   int64    `json:"bytes"`
	Error   string   `json:"error,omitempty"` // engine error code
	Tokens  []string `json:"tokens"`
}

// Result is the outcome of a test scenario execution.
type Result struct {
	// Pass indicates overall test success.
	// True if all expect clauses and assertions match.
	Pass bool `json:"pass"`

	// Trace holds one event per request, in request order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// Logged is the number of response log entries after the last request.
	Logged int `json:"logged"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
