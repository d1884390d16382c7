package harness

import "fmt"

// Trace event actions.
const (
	ActionImport   = "import"
	ActionReimport = "reimport"
	ActionExport   = "export"
	ActionUndo     = "undo"
)

// TraceEvent is one planned op, or the outcome of a flow step when Kind is
// empty.
type TraceEvent struct {
	Step     int      `json:"step"`
	Action   string   `json:"action"`
	Kind     string   `json:"kind,omitempty"`
	Target   string   `json:"target,omitempty"`
	Path     string   `json:"path,omitempty"`
	Parent   string   `json:"parent,omitempty"`
	Changes  []string `json:"changes,omitempty"`
	Outcome  string   `json:"outcome,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

// IsOp reports whether the event records a planned op.
func (e TraceEvent) IsOp() bool {
	return e.Kind != ""
}

// OpString renders an op event as "KIND target path", the form plan_order
// assertions use.
func (e TraceEvent) OpString() string {
	return fmt.Sprintf("%s %s %s", e.Kind, e.Target, e.Path)
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass indicates overall test success.
	// True if every expect clause and assertion held.
	Pass bool `json:"pass"`

	// Trace contains every planned op and step outcome in order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
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

// stepOps returns the op events of step, or of every step when step < 0.
func (r *Result) stepOps(step int) []TraceEvent {
	var out []TraceEvent
	for _, e := range r.Trace {
		if e.IsOp() && (step < 0 || e.Step == step) {
			out = append(out, e)
		}
	}
	return out
}
