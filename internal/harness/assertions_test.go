package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/tradesim/internal/ir"
	"github.com/roach88/tradesim/internal/market"
)

func sampleTrace() []TraceEvent {
	return []TraceEvent{
		{Seq: 0, Event: "init"},
		{Seq: 1, Event: "buy", Payload: map[string]any{"good": "X"}, Triggered: []string{"dealer-scam"}},
		{Seq: 2, Event: "travel", Triggered: []string{"lucky-find"}},
		{Seq: 3, Event: "buy", Triggered: []string{"dealer-scam"}},
	}
}

func sampleState() *market.State {
	return &market.State{
		ID:      "state-9",
		Day:     3,
		Cash:    42.5,
		MaxDays: 10,
		Goods: []market.Good{
			{Name: "Tea", BasePrice: 30, Price: 33.3, Volatility: 0.2},
			{Name: "Silk", BasePrice: 120, Price: 120, Volatility: 0.3},
		},
		Inventory: map[string]int{"Tea": 4, "Silk": 0},
		AvgPrice:  map[string]float64{"Tea": 31.25, "Silk": 0},
	}
}

func TestAssertFinalState(t *testing.T) {
	tests := []struct {
		name    string
		expect  map[string]any
		wantErr string
	}{
		{name: "top-level fields", expect: map[string]any{"day": 3, "cash": 42.5, "gameOver": false}},
		{name: "map entry", expect: map[string]any{"inventory.Tea": 4, "avgPrice.Tea": 31.25}},
		{name: "array index", expect: map[string]any{"goods.1.name": "Silk"}},
		{name: "array element by name", expect: map[string]any{"goods.Tea.price": 33.3}},
		{name: "integral float matches int", expect: map[string]any{"goods.Silk.price": 120.0}},
		{name: "within tolerance", expect: map[string]any{"cash": 42.50000000000001}},
		{
			name:    "wrong value",
			expect:  map[string]any{"inventory.Tea": 5},
			wantErr: `field "inventory.Tea" = 5`,
		},
		{
			name:    "missing field",
			expect:  map[string]any{"inventory.Gems": 0},
			wantErr: `field "inventory.Gems" to exist`,
		},
		{
			name:    "index out of range",
			expect:  map[string]any{"goods.7.name": "Tea"},
			wantErr: "to exist",
		},
		{
			name:    "type mismatch",
			expect:  map[string]any{"day": "3"},
			wantErr: `field "day" = "3"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := assertFinalState(sampleState(), sampleTrace(), Assertion{Type: AssertFinalState, Expect: tt.expect})
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			var ae *AssertionError
			require.ErrorAs(t, err, &ae)
			assert.Equal(t, AssertFinalState, ae.Type)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestAssertHistoryLength(t *testing.T) {
	assert.NoError(t, assertHistoryLength(sampleTrace(), Assertion{Count: 4}))

	err := assertHistoryLength(sampleTrace(), Assertion{Count: 2})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Expected: 2 entries")
	assert.Contains(t, err.Error(), "Actual: 4 entries")
}

func TestAssertHistoryOrder(t *testing.T) {
	tests := []struct {
		name    string
		events  []string
		wantErr string
	}{
		{name: "in order", events: []string{"init", "buy", "travel"}},
		{name: "gaps allowed", events: []string{"init", "travel"}},
		{name: "out of order", events: []string{"travel", "buy"}, wantErr: "travel (pos 3) should be before buy (pos 2)"},
		{name: "missing", events: []string{"buy", "sell"}, wantErr: "missing event: sell"},
		{name: "nested events are not top-level", events: []string{"dealer-scam"}, wantErr: "missing event: dealer-scam"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := assertHistoryOrder(sampleTrace(), Assertion{Events: tt.events})
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestAssertEventCount(t *testing.T) {
	tests := []struct {
		event string
		count int
		ok    bool
	}{
		{event: "buy", count: 2, ok: true},
		{event: "dealer-scam", count: 2, ok: true},
		{event: "lucky-find", count: 1, ok: true},
		{event: "price-surge", count: 0, ok: true},
		{event: "buy", count: 1, ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.event, func(t *testing.T) {
			err := assertEventCount(sampleTrace(), Assertion{Event: tt.event, Count: tt.count})
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestAssertionError_Format(t *testing.T) {
	err := &AssertionError{
		Type:     AssertEventCount,
		Expected: "1 occurrences of buy",
		Actual:   "2 occurrences",
		Trace:    sampleTrace()[:2],
	}

	msg := err.Error()
	assert.Contains(t, msg, "Assertion failed: event_count\n")
	assert.Contains(t, msg, "  Expected: 1 occurrences of buy\n")
	assert.Contains(t, msg, "  Actual: 2 occurrences\n")
	assert.Contains(t, msg, "Full trace:")
	assert.Contains(t, msg, "[1] buy map[good:X] -> dealer-scam")

	bare := (&AssertionError{Type: "x", Expected: "a", Actual: "b"}).Error()
	assert.NotContains(t, bare, "Full trace")
}

func TestMatchOutput(t *testing.T) {
	out := market.BuyOutput{Good: "X", Requested: 10, Delivered: 6, Cost: 100, Scammed: true}

	assert.Empty(t, matchOutput(out, map[string]any{"delivered": 6, "scammed": true}))
	assert.Empty(t, matchOutput(out, map[string]any{"cost": 100.0}))

	errs := matchOutput(out, map[string]any{"delivered": 7, "refund": 1})
	assert.Equal(t, []string{`output "delivered" = 6, want 7`, `output "refund" missing`}, errs)

	errs = matchOutput(42, map[string]any{"x": 1})
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "not an object")
}

func TestIREqual(t *testing.T) {
	tests := []struct {
		name string
		a, b ir.IRValue
		want bool
	}{
		{"ints", ir.IRInt(3), ir.IRInt(3), true},
		{"int and number", ir.IRInt(3), ir.IRNumber(3.0000000000001), true},
		{"numbers apart", ir.IRNumber(1.5), ir.IRNumber(1.6), false},
		{"string and int", ir.IRString("3"), ir.IRInt(3), false},
		{"nulls", ir.IRNull{}, ir.IRNull{}, true},
		{"arrays", ir.IRArray{ir.IRInt(1), ir.IRString("a")}, ir.IRArray{ir.IRInt(1), ir.IRString("a")}, true},
		{"array lengths", ir.IRArray{ir.IRInt(1)}, ir.IRArray{}, false},
		{"objects", ir.IRObject{"a": ir.IRBool(true)}, ir.IRObject{"a": ir.IRBool(true)}, true},
		{"object keys", ir.IRObject{"a": ir.IRBool(true)}, ir.IRObject{"b": ir.IRBool(true)}, false},
		{"object and scalar", ir.IRObject{}, ir.IRString(""), false},
		{"scalar and array", ir.IRString(""), ir.IRArray{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, irEqual(tt.a, tt.b))
		})
	}
}

func TestEvaluateAssertions(t *testing.T) {
	result := NewResult()
	result.Trace = sampleTrace()
	result.State = sampleState()

	errs := EvaluateAssertions(result, []Assertion{
		{Type: AssertHistoryLength, Count: 4},
		{Type: AssertEventCount, Event: "buy", Count: 9},
		{Type: "bogus"},
	})

	require.Len(t, errs, 2)
	assert.Contains(t, errs[0], "9 occurrences of buy")
	assert.Contains(t, errs[1], `unknown assertion type "bogus"`)

	errs = EvaluateAssertions(NewResult(), []Assertion{{Type: AssertFinalState, Expect: map[string]any{"day": 1}}})
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "requires a final state")
}
