package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/tradesim/internal/market"
)

// Scenario defines a reproducible game script.
// Scenarios drive a market game through a list of actions and assert on
// the outputs, the final state and the recorded history.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Seed seeds the random source. Falls back to the config seed, then 0.
	Seed *int64 `yaml:"seed,omitempty"`

	// Random lists scripted draws in [0, 1) consumed before the seeded
	// source takes over. Use it to force a random event to fire or miss.
	Random []float64 `yaml:"random,omitempty"`

	// Config is inline CUE game configuration. Empty means the defaults.
	Config string `yaml:"config,omitempty"`

	// InitialState replaces day 1 of the configured game.
	InitialState *StateSpec `yaml:"initial_state,omitempty"`

	// Steps are the actions to dispatch, in order.
	Steps []Step `yaml:"steps"`

	// Assertions validate the final state and history.
	// Supported types: final_state, history_length, history_order, event_count
	Assertions []Assertion `yaml:"assertions"`
}

// StateSpec is the YAML form of a market.State.
type StateSpec struct {
	Day       int                `yaml:"day"`
	Cash      float64            `yaml:"cash"`
	MaxDays   int                `yaml:"max_days"`
	Goods     []GoodSpec         `yaml:"goods"`
	Inventory map[string]int     `yaml:"inventory,omitempty"`
	AvgPrice  map[string]float64 `yaml:"avg_price,omitempty"`
	GameOver  bool               `yaml:"game_over,omitempty"`
}

// GoodSpec is the YAML form of a market.Good. Price defaults to BasePrice.
type GoodSpec struct {
	Name       string  `yaml:"name"`
	BasePrice  float64 `yaml:"base_price"`
	Price      float64 `yaml:"price,omitempty"`
	Volatility float64 `yaml:"volatility,omitempty"`
}

// Step is one action dispatched on the game.
type Step struct {
	// Action is a registered market event name (buy, sell, travel, ...).
	Action string `yaml:"action"`

	// Args are the event arguments, e.g. {good: Tea, quantity: 3}.
	Args map[string]any `yaml:"args,omitempty"`

	// Expect validates the outcome. Without it the step must succeed.
	Expect *Expect `yaml:"expect,omitempty"`
}

// Expect specifies the expected outcome of a step.
type Expect struct {
	// Error is a substring of the expected error message. Empty means the
	// step must succeed.
	Error string `yaml:"error,omitempty"`

	// Output contains expected output fields (subset match).
	Output map[string]any `yaml:"output,omitempty"`
}

// Assertion validates the final state or history.
type Assertion struct {
	// Type specifies the assertion type:
	// - "final_state": compare state fields addressed by dotted paths
	// - "history_length": number of top-level history entries, init included
	// - "history_order": top-level events appear in this order
	// - "event_count": occurrences of an event at any nesting depth
	Type string `yaml:"type"`

	// Expect maps dotted state paths (e.g. "inventory.Tea", "goods.0.price")
	// to expected values (used by final_state).
	Expect map[string]any `yaml:"expect,omitempty"`

	// Count is the expected length or occurrence count.
	Count int `yaml:"count,omitempty"`

	// Event is the event name (used by event_count).
	Event string `yaml:"event,omitempty"`

	// Events is the expected event order (used by history_order).
	Events []string `yaml:"events,omitempty"`
}

// Assertion type constants.
const (
	AssertFinalState    = "final_state"
	AssertHistoryLength = "history_length"
	AssertHistoryOrder  = "history_order"
	AssertEventCount    = "event_count"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML from memory.
func ParseScenario(data []byte) (*Scenario, error) {
	// Strict field validation catches typos like "assertion:" vs "assertions:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// LoadDir loads every *.yaml and *.yml scenario in dir, sorted by file name.
func LoadDir(dir string) ([]*Scenario, error) {
	var paths []string
	for _, pattern := range []string{"*.yaml", "*.yml"} {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", dir, err)
		}
		paths = append(paths, matches...)
	}
	slices.Sort(paths)

	scenarios := make([]*Scenario, 0, len(paths))
	for _, p := range paths {
		s, err := LoadScenario(p)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", filepath.Base(p), err)
		}
		scenarios = append(scenarios, s)
	}
	return scenarios, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if strings.ContainsAny(s.Name, `/\ `) {
		return fmt.Errorf("name %q must not contain spaces or path separators", s.Name)
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	for i, v := range s.Random {
		if v < 0 || v >= 1 {
			return fmt.Errorf("random[%d]: %v is outside [0, 1)", i, v)
		}
	}

	if s.InitialState != nil {
		if err := validateStateSpec(s.InitialState); err != nil {
			return fmt.Errorf("initial_state: %w", err)
		}
	}

	known := market.Actions()
	for i, step := range s.Steps {
		if step.Action == "" {
			return fmt.Errorf("steps[%d]: action is required", i)
		}
		if !slices.Contains(known, step.Action) {
			return fmt.Errorf("steps[%d]: unknown action %q", i, step.Action)
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}

	return nil
}

func validateStateSpec(s *StateSpec) error {
	if len(s.Goods) == 0 {
		return fmt.Errorf("goods list is required and must be non-empty")
	}
	if s.MaxDays <= 0 {
		return fmt.Errorf("max_days must be positive")
	}
	for i, g := range s.Goods {
		if g.Name == "" {
			return fmt.Errorf("goods[%d]: name is required", i)
		}
		if g.BasePrice <= 0 {
			return fmt.Errorf("goods[%d]: base_price must be positive", i)
		}
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertFinalState:
		if len(a.Expect) == 0 {
			return fmt.Errorf("assertions[%d]: expect is required for final_state", index)
		}
	case AssertHistoryLength:
		if a.Count < 1 {
			return fmt.Errorf("assertions[%d]: count must be at least 1 for history_length", index)
		}
	case AssertHistoryOrder:
		if len(a.Events) == 0 {
			return fmt.Errorf("assertions[%d]: events list is required for history_order", index)
		}
	case AssertEventCount:
		if a.Event == "" {
			return fmt.Errorf("assertions[%d]: event is required for event_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for event_count", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}

// toState builds the market state s describes.
func (s *StateSpec) toState() *market.State {
	st := &market.State{
		Day:       s.Day,
		Cash:      s.Cash,
		MaxDays:   s.MaxDays,
		Goods:     make([]market.Good, len(s.Goods)),
		Inventory: make(map[string]int, len(s.Goods)),
		AvgPrice:  make(map[string]float64, len(s.Goods)),
		GameOver:  s.GameOver,
	}
	if st.Day == 0 {
		st.Day = 1
	}
	for i, g := range s.Goods {
		price := g.Price
		if price == 0 {
			price = g.BasePrice
		}
		st.Goods[i] = market.Good{Name: g.Name, BasePrice: g.BasePrice, Price: price, Volatility: g.Volatility}
		st.Inventory[g.Name] = s.Inventory[g.Name]
		st.AvgPrice[g.Name] = s.AvgPrice[g.Name]
	}
	return st
}
