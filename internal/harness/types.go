package harness

import "github.com/nlupugla/saveload/internal/variant"

// TraceEvent records one state-changing step.
type TraceEvent struct {
	Seq    int64  `json:"seq"`
	Op     string `json:"op"`
	Target string `json:"target"`

	// Warnings holds the codes reported by a save or load, in order.
	Warnings []string `json:"warnings,omitempty"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass indicates overall test success.
	// True if every step ran and every expectation matched.
	Pass bool `json:"pass"`

	// Trace contains the state-changing steps in order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains step failures and mismatched expectations.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// State is the structured form of a snapshot built after the last step.
	State variant.Dictionary `json:"-"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds a failure and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddTrace appends a state-changing step to the trace.
func (r *Result) AddTrace(seq int64, op, target string, warnings []string) {
	r.Trace = append(r.Trace, TraceEvent{
		Seq:      seq,
		Op:       op,
		Target:   target,
		Warnings: warnings,
	})
}
