package engine

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// InitEventName names the synthetic oldest history entry of every Process.
const InitEventName = "init"

// Process owns a current state snapshot, its history of applied events, and
// an optional back-reference to the process that dispatched it.
//
// Events are applied through Dispatch. Each event runs inside a child
// Process seeded with a clone of the current state, so nested random events
// are recorded in the child's history and the parent only ever sees the
// committed result.
//
// Thread-safety model:
//   - Dispatch() and TriggerRandomEvent(): serialised per Process (single writer)
//   - State(), History(), Len(), Export(): safe from any goroutine
//   - SetState(): for use by the executing event only
//
// INVARIANTS:
//   - history holds one "init" entry plus one entry per successful dispatch
//   - the current state is the state recorded in the newest entry
//   - a failed dispatch leaves state and history untouched
type Process[S Snapshot[S]] struct {
	dispatchMu sync.Mutex

	mu      sync.RWMutex
	state   S
	history []HistoryEntry[S] // chronological; exported newest-first

	parent *Process[S]
	depth  int

	src      Source
	ids      IDGenerator
	now      NowFunc
	clock    *Clock
	maxDepth int
}

// HistoryEntry is one committed transition.
type HistoryEntry[S Snapshot[S]] struct {
	Event     *Record[S]
	Timestamp time.Time
	Seq       int64
}

// Record is the frozen projection of an applied event.
type Record[S Snapshot[S]] struct {
	Name    string
	Payload any
	Output  any

	// State is the snapshot the event produced.
	State S

	// History is the event's own history, newest first. It starts with the
	// event's init entry and holds any random events it triggered.
	History []HistoryEntry[S]
}

type options struct {
	src      Source
	ids      IDGenerator
	now      NowFunc
	maxDepth int
}

// Option configures a Process.
type Option func(*options)

// WithRandom sets the random source used for event selection and handed to
// events through Random(). Default: a SeededSource with a crypto seed.
func WithRandom(src Source) Option {
	return func(o *options) {
		o.src = src
	}
}

// WithIDGenerator sets the snapshot identifier generator.
// Default: UUIDv7Generator.
func WithIDGenerator(gen IDGenerator) Option {
	return func(o *options) {
		o.ids = gen
	}
}

// WithNow sets the wall clock used for history timestamps.
// Default: time.Now.
func WithNow(now NowFunc) Option {
	return func(o *options) {
		o.now = now
	}
}

// WithMaxDepth sets the nesting quota for dispatch.
//
// Default: DefaultMaxDepth.
// Use WithMaxDepth(1) to forbid events from triggering random events.
func WithMaxDepth(n int) Option {
	return func(o *options) {
		o.maxDepth = n
	}
}

// New creates a top-level Process.
//
// initial is cloned twice: once to become the current state and once for the
// init history entry, so the caller's value is never referenced.
func New[S Snapshot[S]](initial S, opts ...Option) *Process[S] {
	o := options{
		ids:      UUIDv7Generator{},
		now:      time.Now,
		maxDepth: DefaultMaxDepth,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.src == nil {
		seed, err := NewSeed()
		if err != nil {
			seed = time.Now().UnixNano()
		}
		o.src = NewSeededSource(seed)
	}

	return newProcess(initial, nil, 0, o)
}

// NewChild creates a Process with parent as its back-reference. The child
// shares the parent's random source, id generator, wall clock and depth
// quota and sits one level deeper.
func NewChild[S Snapshot[S]](initial S, parent *Process[S]) *Process[S] {
	o := options{
		src:      parent.src,
		ids:      parent.ids,
		now:      parent.now,
		maxDepth: parent.maxDepth,
	}
	return newProcess(initial, parent, parent.depth+1, o)
}

func newProcess[S Snapshot[S]](initial S, parent *Process[S], depth int, o options) *Process[S] {
	p := &Process[S]{
		state:    Clone(initial, o.ids),
		parent:   parent,
		depth:    depth,
		src:      o.src,
		ids:      o.ids,
		now:      o.now,
		clock:    NewClock(),
		maxDepth: o.maxDepth,
	}
	p.history = []HistoryEntry[S]{{
		Event: &Record[S]{
			Name:  InitEventName,
			State: Clone(initial, o.ids),
		},
		Timestamp: o.now(),
		Seq:       p.clock.Current(),
	}}
	return p
}

// Dispatch applies ev to the process.
//
// The event executes against a child process holding a clone of the current
// state. On success one history entry is added, the child's final state is
// adopted and {State, Data} is returned. On failure the event's error is
// returned unchanged and nothing is committed.
//
// Dispatch refuses to start when ctx is already done or when the child
// would exceed the depth quota. It does not interrupt a running event.
func (p *Process[S]) Dispatch(ctx context.Context, ev Event[S]) (Result[S], error) {
	if ev == nil {
		return Result[S]{}, &RuntimeError{Code: ErrCodeNilEvent, Message: "dispatch called with nil event"}
	}
	if err := ctx.Err(); err != nil {
		return Result[S]{}, err
	}

	p.dispatchMu.Lock()
	defer p.dispatchMu.Unlock()

	if err := checkDepth(ev.Name(), p.depth+1, p.maxDepth); err != nil {
		return Result[S]{}, err
	}

	child := NewChild(p.State(), p)
	out, err := ev.Execute(ctx, child)
	if err != nil {
		return Result[S]{}, err
	}

	next := child.State()
	rec := &Record[S]{
		Name:    ev.Name(),
		Payload: ev.Payload(),
		Output:  out,
		State:   next,
		History: child.History(),
	}

	p.mu.Lock()
	entry := HistoryEntry[S]{Event: rec, Timestamp: p.now(), Seq: p.clock.Next()}
	p.history = append(p.history, entry)
	p.state = next
	p.mu.Unlock()

	slog.Debug("event committed",
		"event", rec.Name,
		"seq", entry.Seq,
		"state_id", next.SnapshotID(),
		"depth", p.depth,
	)

	return Result[S]{State: next, Data: out}, nil
}

// TriggerRandomEvent selects at most one candidate from pool by weight and
// dispatches it on this process.
//
// A miss (weights summing below 1 and the draw landing past the last
// boundary) returns (nil, nil) without dispatching. Malformed pools return a
// ConfigurationError.
func (p *Process[S]) TriggerRandomEvent(ctx context.Context, pool Pool[S]) (*Result[S], error) {
	pairs := make([]Weighted[Factory[S]], len(pool))
	for i, c := range pool {
		pairs[i] = Weighted[Factory[S]]{Value: c.Factory, Weight: c.Weight}
	}

	factory, ok, err := ChooseFromPairs(p.src, pairs)
	if err != nil {
		return nil, err
	}
	if !ok {
		slog.Debug("random event not triggered", "depth", p.depth, "pool_size", len(pool))
		return nil, nil
	}

	var ev Event[S]
	if factory != nil {
		ev = factory()
	}
	if ev == nil {
		return nil, &RuntimeError{Code: ErrCodeNilEvent, Message: "random event factory returned nil"}
	}

	res, err := p.Dispatch(ctx, ev)
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// State returns the current snapshot. The value is shared with the newest
// history entry and must be treated as read-only except by the event
// executing on this process.
func (p *Process[S]) State() S {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.state
}

// SetState replaces the current snapshot. Intended for events that build a
// new state instead of mutating the clone in place.
func (p *Process[S]) SetState(s S) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.state = s
}

// InitialState returns the snapshot held by the init entry.
func (p *Process[S]) InitialState() S {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.history[0].Event.State
}

// History returns a copy of the history, newest first. The init entry is
// always last.
func (p *Process[S]) History() []HistoryEntry[S] {
	p.mu.RLock()
	defer p.mu.RUnlock()

	out := make([]HistoryEntry[S], len(p.history))
	for i, e := range p.history {
		out[len(p.history)-1-i] = e
	}
	return out
}

// Len returns the number of history entries, including init.
func (p *Process[S]) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.history)
}

// Parent returns the dispatching process, or nil for a top-level Process.
// Events must not dispatch on their parent.
func (p *Process[S]) Parent() *Process[S] {
	return p.parent
}

// Depth returns the nesting level: 0 for a top-level Process.
func (p *Process[S]) Depth() int {
	return p.depth
}

// Random returns the process's random source.
func (p *Process[S]) Random() Source {
	return p.src
}
