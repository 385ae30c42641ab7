package cli

import (
	"bytes"
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/tradesim/internal/market"
)

// Script is a list of player actions read from YAML:
//
//	steps:
//	  - action: buy
//	    args: { good: Tea, quantity: 3 }
//	  - action: travel
//	  - action: sell
//	    args: { good: Tea, quantity: 3 }
type Script struct {
	Steps []ScriptStep `yaml:"steps"`
}

// ScriptStep is one player action.
type ScriptStep struct {
	Action string         `yaml:"action"`
	Args   map[string]any `yaml:"args,omitempty"`
}

// StepReport records the outcome of one script step.
type StepReport struct {
	Step   int            `json:"step"`
	Action string         `json:"action"`
	Args   map[string]any `json:"args,omitempty"`
	Output any            `json:"output,omitempty"`
	Error  *CLIError      `json:"error,omitempty"`
}

// LoadScript reads a YAML action script. Unknown fields are rejected.
func LoadScript(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read script: %w", err)
	}

	var script Script
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&script); err != nil {
		return nil, fmt.Errorf("failed to parse script: %w", err)
	}

	if len(script.Steps) == 0 {
		return nil, fmt.Errorf("invalid script: steps list is required and must be non-empty")
	}
	for i, step := range script.Steps {
		if step.Action == "" {
			return nil, fmt.Errorf("invalid script: steps[%d]: action is required", i)
		}
	}
	return &script, nil
}

// playScript applies every step to game. Rejected actions are reported and
// skipped; the game carries on from the last committed state. Cancellation
// stops the run.
func playScript(ctx context.Context, game *market.Game, script *Script) ([]StepReport, error) {
	reports := make([]StepReport, 0, len(script.Steps))
	for i, step := range script.Steps {
		if err := ctx.Err(); err != nil {
			return reports, err
		}

		report := StepReport{Step: i, Action: step.Action, Args: step.Args}
		res, err := game.Apply(ctx, step.Action, step.Args)
		if err != nil {
			report.Error = &CLIError{Code: ErrorCode(err), Message: err.Error()}
		} else {
			report.Output = res.Data
		}
		reports = append(reports, report)
	}
	return reports, nil
}

// rejected counts the reports that carry an error.
func rejected(reports []StepReport) int {
	n := 0
	for _, r := range reports {
		if r.Error != nil {
			n++
		}
	}
	return n
}
