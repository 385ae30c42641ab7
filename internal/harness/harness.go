package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/roach88/tradesim/internal/config"
	"github.com/roach88/tradesim/internal/engine"
	"github.com/roach88/tradesim/internal/ir"
	"github.com/roach88/tradesim/internal/market"
	"github.com/roach88/tradesim/internal/testutil"
)

// IDPrefix prefixes every snapshot id generated during a scenario run.
const IDPrefix = "state"

// Harness is the scenario execution engine.
// It runs scenarios with a deterministic clock, id sequence and random source.
type Harness struct {
	game   *market.Game
	logger *slog.Logger
}

// Run executes a scenario and returns the result.
//
// Each scenario runs against a fresh game for isolation.
// Deterministic helpers ensure reproducible results.
//
// Execution flow:
// 1. Load the inline config (or the defaults)
// 2. Build the game from the initial state (or day 1 of the config)
// 3. Dispatch each step, checking its expect clause
// 4. Project the history into the trace and evaluate assertions
//
// Run returns an error only when the scenario cannot be set up. Step and
// assertion mismatches are reported through Result.Errors.
func Run(scenario *Scenario) (*Result, error) {
	return RunContext(context.Background(), scenario)
}

// RunContext is Run with a caller-supplied context.
func RunContext(ctx context.Context, scenario *Scenario) (*Result, error) {
	h, err := newHarness(scenario)
	if err != nil {
		return nil, err
	}

	result := NewResult()
	h.executeSteps(ctx, scenario.Steps, result)

	proc := h.game.Process()
	result.Trace = buildTrace(proc)
	result.State = h.game.State()
	result.Export = proc.Export()

	snapshot := TraceSnapshot{ScenarioName: scenario.Name, Trace: result.Trace}
	digest, err := ir.Digest(ir.DomainTrace, snapshot)
	if err != nil {
		return nil, fmt.Errorf("failed to digest trace: %w", err)
	}
	result.Digest = digest

	for _, errMsg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(errMsg)
	}

	return result, nil
}

func newHarness(scenario *Scenario) (*Harness, error) {
	cfg := config.Default()
	if scenario.Config != "" {
		var err error
		cfg, err = config.LoadBytes(scenario.Name+".cue", []byte(scenario.Config))
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
	}

	var seed int64
	switch {
	case scenario.Seed != nil:
		seed = *scenario.Seed
	case cfg.Seed != nil:
		seed = *cfg.Seed
	}
	var src engine.Source = engine.NewSeededSource(seed)
	if len(scenario.Random) > 0 {
		src = testutil.NewScriptedSource(scenario.Random...).WithFallback(src)
	}

	opts := []engine.Option{
		engine.WithRandom(src),
		engine.WithIDGenerator(engine.NewSequenceGenerator(IDPrefix)),
		engine.WithNow(testutil.NewStepClock().Now),
	}

	var game *market.Game
	if scenario.InitialState != nil {
		game = market.NewGameFromState(scenario.InitialState.toState(), market.RulesFrom(cfg), opts...)
	} else {
		var err error
		game, err = market.NewGame(cfg, opts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create game: %w", err)
		}
	}

	return &Harness{
		game:   game,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)), // Suppress logs in tests
	}, nil
}

// executeSteps dispatches every step in order. A failing step does not stop
// the run; later steps see the state as it was before the failure.
func (h *Harness) executeSteps(ctx context.Context, steps []Step, result *Result) {
	for i, step := range steps {
		res, err := h.game.Apply(ctx, step.Action, step.Args)

		outcome := StepOutcome{Action: step.Action}
		if err != nil {
			outcome.Error = err.Error()
		} else {
			outcome.Output = res.Data
		}
		result.Steps = append(result.Steps, outcome)

		for _, msg := range checkExpect(step, res.Data, err) {
			result.AddError(fmt.Sprintf("step %d (%s): %s", i, step.Action, msg))
		}

		h.logger.Info("step completed",
			"step", i,
			"action", step.Action,
			"error", outcome.Error,
			"history_len", h.game.Process().Len(),
		)
	}
}

// checkExpect compares a step outcome to its expect clause.
func checkExpect(step Step, output any, err error) []string {
	want := step.Expect
	if want == nil {
		want = &Expect{}
	}

	if err != nil {
		if want.Error == "" {
			return []string{fmt.Sprintf("unexpected error: %v", err)}
		}
		if !strings.Contains(err.Error(), want.Error) {
			return []string{fmt.Sprintf("expected error containing %q, got %q", want.Error, err.Error())}
		}
		return nil
	}

	if want.Error != "" {
		return []string{fmt.Sprintf("expected error containing %q, got success", want.Error)}
	}
	if len(want.Output) == 0 {
		return nil
	}
	return matchOutput(output, want.Output)
}
