// Package harness runs scripted trading scenarios against the market engine.
//
// A scenario builds a fresh game, dispatches a list of actions through the
// real event process, and validates step outcomes, the final state and the
// recorded history. Traces are compared against golden files.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: scenario_name
//	description: "What this scenario validates"
//	seed: 42                  # optional; falls back to the config seed, then 0
//	random: [0.05, 0.5]       # optional scripted draws, consumed first
//	config: |                 # optional inline CUE, see internal/config
//	  randomEvents: dealerScam: 0.1
//	initial_state:            # optional; default is day 1 of the config
//	  cash: 100
//	  max_days: 10
//	  goods:
//	    - { name: X, base_price: 10, volatility: 0.5 }
//	steps:
//	  - action: buy
//	    args: { good: X, quantity: 5 }
//	    expect:
//	      output: { delivered: 5 }
//	  - action: sell
//	    args: { good: X, quantity: 10 }
//	    expect:
//	      error: insufficient inventory
//	assertions:
//	  - type: final_state
//	    expect: { cash: 50, inventory.X: 5 }
//	  - type: history_length
//	    count: 2
//
// # Assertion Types
//
// The following assertion types are supported:
//
//   - final_state: compares state fields addressed by dotted paths
//   - history_length: counts top-level history entries, init included
//   - history_order: verifies top-level events appear in the given order
//   - event_count: counts an event at any depth, random events included
//
// # Deterministic Testing
//
// The harness uses:
//   - Sequential snapshot ids (state-1, state-2, ...)
//   - A step clock starting at testutil.Epoch
//   - Scripted draws backed by a seeded PCG source
//
// This ensures identical traces across runs for golden file comparison.
//
// # Usage
//
//	scenario, err := harness.LoadScenario("testdata/scenarios/buy_sell.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	result, err := harness.Run(scenario)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if !result.Pass {
//	    for _, msg := range result.Errors {
//	        log.Println(msg)
//	    }
//	}
package harness
