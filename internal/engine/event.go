package engine

import "context"

// Event is a unit of state transition.
//
// Execute runs against a private child Process whose current state is a
// clone of the dispatcher's state. It may mutate p.State() in place or
// replace it with p.SetState, and may call p.TriggerRandomEvent to layer in
// secondary effects. The returned value becomes the event's output.
//
// Precondition failures must be returned as errors (typically
// *ValidationError), never swallowed, so that Dispatch commits nothing.
type Event[S Snapshot[S]] interface {
	Name() string
	Payload() any
	Execute(ctx context.Context, p *Process[S]) (any, error)
}

// Factory constructs an event for TriggerRandomEvent. Any payload the event
// needs is bound by the factory itself.
type Factory[S Snapshot[S]] func() Event[S]

// Candidate is one entry of a random event pool.
type Candidate[S Snapshot[S]] struct {
	Factory Factory[S]
	Weight  float64
}

// Pool is an ordered list of weighted event factories.
//
// Weights summing to less than 1 are trigger probabilities: a draw past the
// last boundary fires nothing.
type Pool[S Snapshot[S]] []Candidate[S]

// Result is what a successful dispatch returns: the adopted state and the
// event's output.
type Result[S Snapshot[S]] struct {
	State S
	Data  any
}

// StateFunc is the plain-function form of an event: it receives the private
// state clone and returns the resulting state and output.
type StateFunc[S Snapshot[S]] func(ctx context.Context, state S) (S, any, error)

// Func adapts a StateFunc into an Event. Function events have no access to
// the child process, so they never trigger nested events.
func Func[S Snapshot[S]](name string, payload any, fn StateFunc[S]) Event[S] {
	return &funcEvent[S]{name: name, payload: payload, fn: fn}
}

type funcEvent[S Snapshot[S]] struct {
	name    string
	payload any
	fn      StateFunc[S]
}

func (e *funcEvent[S]) Name() string { return e.name }

func (e *funcEvent[S]) Payload() any { return e.payload }

func (e *funcEvent[S]) Execute(ctx context.Context, p *Process[S]) (any, error) {
	next, out, err := e.fn(ctx, p.State())
	if err != nil {
		return nil, err
	}
	p.SetState(next)
	return out, nil
}
