package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/tradesim/internal/engine"
	"github.com/roach88/tradesim/internal/ir"
	"github.com/roach88/tradesim/internal/market"
)

// PlayOptions holds flags for the play command.
type PlayOptions struct {
	*RootOptions
	Strict bool // exit 1 when any action is rejected

	// EngineOptions are appended to the game's process options (for testing).
	EngineOptions []engine.Option
}

// PlayResult is the outcome of a played script.
type PlayResult struct {
	Steps          []StepReport  `json:"steps"`
	Rejected       int           `json:"rejected"`
	State          *market.State `json:"state"`
	TotalValue     float64       `json:"totalValue"`
	ProjectedValue float64       `json:"projectedValue"`
	StateDigest    string        `json:"stateDigest"`
}

// NewPlayCommand creates the play command.
func NewPlayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &PlayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "play <script.yaml>",
		Short: "Play an action script",
		Long: `Play a YAML action script on a freshly configured game and print the
final state.

Rejected actions (insufficient cash, unknown good, game over, ...) are
reported and skipped. With --strict any rejection fails the command.

Exit codes:
  0 - Script played
  1 - An action was rejected under --strict
  2 - Command error (missing script, invalid config, etc.)

Examples:
  tradesim play ./script.yaml
  tradesim play ./script.yaml --config ./short.cue --seed 42
  tradesim play ./script.yaml --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlay(opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Strict, "strict", false, "fail when any action is rejected")

	return cmd
}

func runPlay(opts *PlayOptions, scriptPath string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	game, script, err := prepareGame(opts.RootOptions, scriptPath, opts.EngineOptions, formatter)
	if err != nil {
		return err
	}

	reports, err := playScript(cmd.Context(), game, script)
	if err != nil {
		return formatter.Fail(ExitCommandError, "play interrupted", err)
	}

	state := game.State()
	digest, err := ir.StateDigest(state)
	if err != nil {
		return formatter.Fail(ExitCommandError, "failed to digest state", err)
	}

	result := PlayResult{
		Steps:          reports,
		Rejected:       rejected(reports),
		State:          state,
		TotalValue:     market.TotalValue(state),
		ProjectedValue: market.ProjectedValue(state),
		StateDigest:    digest,
	}

	if opts.Format == "json" {
		if err := formatter.Success(result); err != nil {
			return err
		}
	} else {
		writePlayText(formatter.Writer, result)
	}

	if opts.Strict && result.Rejected > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d action(s) rejected", result.Rejected))
	}
	return nil
}

// prepareGame loads the configuration and the script and starts a game.
// Failures are reported through formatter and returned as command errors.
func prepareGame(opts *RootOptions, scriptPath string, extra []engine.Option, formatter *OutputFormatter) (*market.Game, *Script, error) {
	cfg, err := opts.LoadConfig()
	if err != nil {
		return nil, nil, formatter.Fail(ExitCommandError, "failed to load config", err)
	}
	if cfg.Seed != nil {
		formatter.VerboseLog("Using seed %d", *cfg.Seed)
	}

	script, err := LoadScript(scriptPath)
	if err != nil {
		code := ErrCodeLoadFailed
		if ErrorCode(err) == ErrCodeNotFound {
			code = ErrCodeNotFound
		}
		_ = formatter.Error(code, err.Error(), nil)
		return nil, nil, WrapExitError(ExitCommandError, "failed to load script", err)
	}
	formatter.VerboseLog("Loaded %d step(s) from %s", len(script.Steps), scriptPath)

	game, err := market.NewGame(cfg, extra...)
	if err != nil {
		return nil, nil, formatter.Fail(ExitCommandError, "failed to create game", err)
	}
	return game, script, nil
}

func writePlayText(w io.Writer, result PlayResult) {
	for _, r := range result.Steps {
		if r.Error != nil {
			fmt.Fprintf(w, "✗ [%d] %s %v\n", r.Step, r.Action, r.Args)
			fmt.Fprintf(w, "  %s: %s\n", r.Error.Code, r.Error.Message)
			continue
		}
		fmt.Fprintf(w, "✓ [%d] %s %v\n", r.Step, r.Action, r.Args)
		fmt.Fprintf(w, "  %+v\n", r.Output)
	}

	s := result.State
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Day %d/%d  Cash %.2f  Value %.2f  Projected %.2f\n",
		s.Day, s.MaxDays, s.Cash, result.TotalValue, result.ProjectedValue)
	if s.GameOver {
		fmt.Fprintln(w, "Game over")
	}
	for _, g := range s.Goods {
		if qty := s.Inventory[g.Name]; qty > 0 {
			fmt.Fprintf(w, "  %-10s %4d @ %.2f (now %.2f)\n", g.Name, qty, s.AvgPrice[g.Name], g.Price)
		}
	}
	if result.Rejected > 0 {
		fmt.Fprintf(w, "%d action(s) rejected\n", result.Rejected)
	}
}
