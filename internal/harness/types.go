package harness

import (
	"github.com/roach88/tradesim/internal/engine"
	"github.com/roach88/tradesim/internal/market"
)

// TraceEvent is one top-level history entry, oldest first.
type TraceEvent struct {
	Seq     int64         `json:"seq"`
	Event   string        `json:"event"`
	Payload any           `json:"payload"`
	Output  any           `json:"output"`
	State   *market.State `json:"state"`

	// Triggered lists random events fired while this event ran, at any
	// depth, in the order they committed.
	Triggered []string `json:"triggered,omitempty"`
}

// StepOutcome records what a single scenario step did.
type StepOutcome struct {
	Action string `json:"action"`
	Output any    `json:"output,omitempty"`
	Error  string `json:"error,omitempty"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass indicates overall scenario success.
	// True if every step and assertion matched.
	Pass bool `json:"pass"`

	// Steps holds one outcome per scenario step, failed steps included.
	Steps []StepOutcome `json:"steps"`

	// Trace is the committed history, init entry first.
	Trace []TraceEvent `json:"trace"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// State is the final game state.
	State *market.State `json:"state,omitempty"`

	// Digest is the domain-separated hash of the golden trace snapshot.
	Digest string `json:"digest,omitempty"`

	// Export is the full history projection of the game process.
	Export engine.ProcessExport `json:"-"`
}

// NewResult creates a new passing result.
// Used as the starting point for scenario execution.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Steps:  []StepOutcome{},
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// buildTrace projects the process history into trace events, oldest first.
func buildTrace(p *engine.Process[*market.State]) []TraceEvent {
	history := p.History()
	trace := make([]TraceEvent, 0, len(history))
	for i := len(history) - 1; i >= 0; i-- {
		e := history[i]
		trace = append(trace, TraceEvent{
			Seq:       e.Seq,
			Event:     e.Event.Name,
			Payload:   orEmpty(e.Event.Payload),
			Output:    orEmpty(e.Event.Output),
			State:     e.Event.State,
			Triggered: triggered(e.Event.History),
		})
	}
	return trace
}

// triggered walks nested histories depth-first, oldest first, skipping the
// init entries.
func triggered(history []engine.HistoryEntry[*market.State]) []string {
	var names []string
	for i := len(history) - 1; i >= 0; i-- {
		rec := history[i].Event
		if rec.Name == engine.InitEventName {
			continue
		}
		names = append(names, rec.Name)
		names = append(names, triggered(rec.History)...)
	}
	return names
}

func orEmpty(v any) any {
	if v == nil {
		return map[string]any{}
	}
	return v
}
