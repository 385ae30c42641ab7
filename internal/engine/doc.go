// Package engine implements the event-sourcing core of tradesim.
//
// A Process holds the current state snapshot of a simulation and the
// append-only history of the events applied to it. Hosts construct concrete
// events and hand them to Process.Dispatch; the engine never references a
// ruleset by name.
//
// ARCHITECTURE:
//
// Dispatch by composition:
// Each dispatched event executes inside a child Process created with a clone
// of the dispatcher's current state and the dispatcher as parent. The event
// mutates that private clone and may call TriggerRandomEvent on the child,
// which dispatches the selected sub-event the same way one level deeper.
// When Execute returns successfully the dispatcher records one history entry
// (carrying the child's own history) and adopts the child's state. When it
// fails, nothing is recorded and the dispatcher's state is untouched.
//
// Weighted selection:
// Pools are drawn over [0, max(1, total)). Pools summing to 1 or more always
// select an event; pools summing to less than 1 act as trigger probabilities
// and may select nothing.
//
// CRITICAL PATTERNS:
//
// Logical Clock:
// History entries carry a monotonic seq from Clock (init is seq 0).
// Wall-clock timestamps are informational only.
//
// Injected randomness:
// Every draw goes through the Source passed with WithRandom. The same seed
// (or the same scripted draws) reproduces the same run, including snapshot
// ids when a deterministic IDGenerator is used.
//
// Depth quota:
// Nested dispatch is bounded by WithMaxDepth (DefaultMaxDepth) so that random
// events re-triggering each other fail with a DEPTH_EXCEEDED RuntimeError.
package engine
