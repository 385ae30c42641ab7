package harness

import (
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/roach88/tradesim/internal/ir"
	"github.com/roach88/tradesim/internal/market"
)

// floatTolerance is the relative tolerance for comparing non-integral numbers.
const floatTolerance = 1e-9

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	// Header with assertion type
	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)

	// Expected vs Actual (most important info)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) == 0 {
		return buf.String()
	}

	// Full trace for context
	fmt.Fprintf(&buf, "\nFull trace:\n")
	for _, event := range e.Trace {
		fmt.Fprintf(&buf, "  [%d] %s %v", event.Seq, event.Event, event.Payload)
		if len(event.Triggered) > 0 {
			fmt.Fprintf(&buf, " -> %s", strings.Join(event.Triggered, ", "))
		}
		buf.WriteByte('\n')
	}

	return buf.String()
}

// assertFinalState checks state fields addressed by dotted paths.
// Only the listed paths are checked (subset semantics).
func assertFinalState(state *market.State, trace []TraceEvent, assertion Assertion) error {
	doc, err := ir.FromStruct(state)
	if err != nil {
		return fmt.Errorf("final_state: project state: %w", err)
	}

	paths := make([]string, 0, len(assertion.Expect))
	for p := range assertion.Expect {
		paths = append(paths, p)
	}
	slices.Sort(paths)

	for _, path := range paths {
		actual, ok := lookupPath(doc, path)
		if !ok {
			return &AssertionError{
				Type:     AssertFinalState,
				Expected: fmt.Sprintf("field %q to exist", path),
				Actual:   "not present in state",
				Trace:    trace,
			}
		}

		expected, err := ir.FromAny(assertion.Expect[path])
		if err != nil {
			return fmt.Errorf("final_state: field %q: %w", path, err)
		}

		if !irEqual(expected, actual) {
			return &AssertionError{
				Type:     AssertFinalState,
				Expected: fmt.Sprintf("field %q = %s", path, render(expected)),
				Actual:   fmt.Sprintf("field %q = %s", path, render(actual)),
				Trace:    trace,
			}
		}
	}

	return nil
}

// assertHistoryLength checks the number of top-level history entries.
func assertHistoryLength(trace []TraceEvent, assertion Assertion) error {
	if len(trace) != assertion.Count {
		return &AssertionError{
			Type:     AssertHistoryLength,
			Expected: fmt.Sprintf("%d entries", assertion.Count),
			Actual:   fmt.Sprintf("%d entries", len(trace)),
			Trace:    trace,
		}
	}
	return nil
}

// assertHistoryOrder checks that top-level events appear in the specified
// order. Events don't need to be consecutive.
func assertHistoryOrder(trace []TraceEvent, assertion Assertion) error {
	// Step 1: Find first position of each expected event
	positions := make(map[string]int)
	for i, event := range trace {
		for _, expected := range assertion.Events {
			if event.Event == expected && positions[expected] == 0 {
				positions[expected] = i + 1 // 1-indexed for readability
			}
		}
	}

	// Step 2: Verify all events found
	for _, name := range assertion.Events {
		if positions[name] == 0 {
			return &AssertionError{
				Type:     AssertHistoryOrder,
				Expected: fmt.Sprintf("all events present: %v", assertion.Events),
				Actual:   fmt.Sprintf("missing event: %s", name),
				Trace:    trace,
			}
		}
	}

	// Step 3: Verify order
	for i := 1; i < len(assertion.Events); i++ {
		prev := assertion.Events[i-1]
		curr := assertion.Events[i]

		if positions[prev] >= positions[curr] {
			return &AssertionError{
				Type:     AssertHistoryOrder,
				Expected: fmt.Sprintf("events in order: %v", assertion.Events),
				Actual: fmt.Sprintf("%s (pos %d) should be before %s (pos %d)",
					prev, positions[prev], curr, positions[curr]),
				Trace: trace,
			}
		}
	}

	return nil
}

// assertEventCount checks how often an event committed, counting both
// top-level entries and random events triggered at any depth.
func assertEventCount(trace []TraceEvent, assertion Assertion) error {
	count := 0
	for _, event := range trace {
		if event.Event == assertion.Event {
			count++
		}
		for _, name := range event.Triggered {
			if name == assertion.Event {
				count++
			}
		}
	}

	if count != assertion.Count {
		return &AssertionError{
			Type:     AssertEventCount,
			Expected: fmt.Sprintf("%d occurrences of %s", assertion.Count, assertion.Event),
			Actual:   fmt.Sprintf("%d occurrences", count),
			Trace:    trace,
		}
	}
	return nil
}

// matchOutput checks that actual contains every expected field (subset match).
// Extra fields in actual are ignored.
func matchOutput(actual any, expected map[string]any) []string {
	got, err := ir.FromStruct(actual)
	if err != nil {
		return []string{fmt.Sprintf("output: %v", err)}
	}
	obj, ok := got.(ir.IRObject)
	if !ok {
		return []string{fmt.Sprintf("output is %s, not an object", render(got))}
	}

	keys := make([]string, 0, len(expected))
	for k := range expected {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	var errs []string
	for _, key := range keys {
		want, err := ir.FromAny(expected[key])
		if err != nil {
			errs = append(errs, fmt.Sprintf("output %q: %v", key, err))
			continue
		}
		have, exists := obj[key]
		if !exists {
			errs = append(errs, fmt.Sprintf("output %q missing", key))
			continue
		}
		if !irEqual(want, have) {
			errs = append(errs, fmt.Sprintf("output %q = %s, want %s", key, render(have), render(want)))
		}
	}
	return errs
}

// lookupPath resolves a dotted path such as "inventory.Tea" or
// "goods.0.price". An array segment is either an index or the name of an
// element whose "name" field matches, so "goods.Tea.price" also works.
func lookupPath(v ir.IRValue, path string) (ir.IRValue, bool) {
	for _, seg := range strings.Split(path, ".") {
		switch node := v.(type) {
		case ir.IRObject:
			next, ok := node[seg]
			if !ok {
				return nil, false
			}
			v = next
		case ir.IRArray:
			if i, err := strconv.Atoi(seg); err == nil {
				if i < 0 || i >= len(node) {
					return nil, false
				}
				v = node[i]
				continue
			}
			found := false
			for _, elem := range node {
				if obj, ok := elem.(ir.IRObject); ok && obj["name"] == ir.IRString(seg) {
					v, found = obj, true
					break
				}
			}
			if !found {
				return nil, false
			}
		default:
			return nil, false
		}
	}
	return v, true
}

// irEqual compares IR values, allowing a relative tolerance between
// non-integral numbers.
func irEqual(a, b ir.IRValue) bool {
	if x, ok := asFloat(a); ok {
		y, ok := asFloat(b)
		if !ok {
			return false
		}
		if x == y {
			return true
		}
		return math.Abs(x-y) <= floatTolerance*math.Max(1, math.Max(math.Abs(x), math.Abs(y)))
	}

	switch av := a.(type) {
	case ir.IRArray:
		bv, ok := b.(ir.IRArray)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !irEqual(av[i], bv[i]) {
				return false
			}
		}
		return true
	case ir.IRObject:
		bv, ok := b.(ir.IRObject)
		if !ok || len(av) != len(bv) {
			return false
		}
		for k, elem := range av {
			other, exists := bv[k]
			if !exists || !irEqual(elem, other) {
				return false
			}
		}
		return true
	}

	switch b.(type) {
	case ir.IRArray, ir.IRObject:
		return false
	}
	return a == b
}

func asFloat(v ir.IRValue) (float64, bool) {
	switch n := v.(type) {
	case ir.IRInt:
		return float64(n), true
	case ir.IRNumber:
		return float64(n), true
	}
	return 0, false
}

// render formats an IR value as canonical JSON for error messages.
func render(v ir.IRValue) string {
	data, err := ir.MarshalCanonical(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(data)
}

// EvaluateAssertions evaluates all assertions against the result.
// Returns a slice of error messages for failed assertions.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var errors []string

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertFinalState:
			if result.State == nil {
				err = fmt.Errorf("assertion[%d]: final_state requires a final state", i)
			} else {
				err = assertFinalState(result.State, result.Trace, assertion)
			}
		case AssertHistoryLength:
			err = assertHistoryLength(result.Trace, assertion)
		case AssertHistoryOrder:
			err = assertHistoryOrder(result.Trace, assertion)
		case AssertEventCount:
			err = assertEventCount(result.Trace, assertion)
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}

	return errors
}
