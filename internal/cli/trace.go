package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/tradesim/internal/engine"
	"github.com/roach88/tradesim/internal/ir"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions

	// EngineOptions are appended to the game's process options (for testing).
	EngineOptions []engine.Option
}

// TraceResult wraps the exported process history for JSON output.
type TraceResult struct {
	Digest string          `json:"digest"`
	Export json.RawMessage `json:"export"`
	Stats  TraceStats      `json:"stats"`
}

// TraceStats holds summary statistics for the trace.
type TraceStats struct {
	Entries  int `json:"entries"`  // top-level history entries, init included
	Nested   int `json:"nested"`   // random events at any depth
	Rejected int `json:"rejected"` // script steps that were not committed
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace <script.yaml>",
		Short: "Print the event history of a played script",
		Long: `Play a YAML action script and print the canonical JSON export of the
process: the current state and the full history, newest entry first,
with every random event nested under the action that triggered it.

Snapshot ids are sequential (state-1, state-2, ...) so traces of seeded
runs differ only in their timestamps.

Examples:
  tradesim trace ./script.yaml --seed 42
  tradesim trace ./script.yaml --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(opts, args[0], cmd)
		},
	}

	return cmd
}

func runTrace(opts *TraceOptions, scriptPath string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	engineOpts := append([]engine.Option{engine.WithIDGenerator(engine.NewSequenceGenerator("state"))}, opts.EngineOptions...)
	game, script, err := prepareGame(opts.RootOptions, scriptPath, engineOpts, formatter)
	if err != nil {
		return err
	}

	reports, err := playScript(cmd.Context(), game, script)
	if err != nil {
		return formatter.Fail(ExitCommandError, "trace interrupted", err)
	}
	for _, r := range reports {
		if r.Error != nil {
			formatter.VerboseLog("step %d (%s) rejected: %s", r.Step, r.Action, r.Error.Message)
		}
	}

	export := game.Process().Export()
	canonical, err := ir.MarshalCanonicalStruct(export)
	if err != nil {
		return formatter.Fail(ExitCommandError, "failed to export trace", err)
	}
	digest, err := ir.Digest(ir.DomainTrace, export)
	if err != nil {
		return formatter.Fail(ExitCommandError, "failed to digest trace", err)
	}

	stats := TraceStats{
		Entries:  len(export.StateHistory),
		Nested:   countNested(export.StateHistory),
		Rejected: rejected(reports),
	}

	if opts.Format == "json" {
		return formatter.Success(TraceResult{Digest: digest, Export: canonical, Stats: stats})
	}

	w := formatter.Writer
	fmt.Fprintln(w, string(canonical))
	formatter.VerboseLog("digest %s (%d entries, %d nested, %d rejected)",
		digest, stats.Entries, stats.Nested, stats.Rejected)
	return nil
}

// countNested counts non-init entries below the top level.
func countNested(entries []engine.EntryExport) int {
	n := 0
	for _, e := range entries {
		for _, child := range e.Event.StateHistory {
			if child.Event.Name != engine.InitEventName {
				n++
			}
		}
		n += countNested(e.Event.StateHistory)
	}
	return n
}
