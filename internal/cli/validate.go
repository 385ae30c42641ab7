package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/tradesim/internal/config"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid   bool          `json:"valid"`
	Path    string        `json:"path"`
	Summary *ConfigDigest `json:"summary,omitempty"`
	Error   *FieldError   `json:"error,omitempty"`
}

// ConfigDigest summarises a valid configuration.
type ConfigDigest struct {
	StartingCash float64              `json:"startingCash"`
	MaxDays      int                  `json:"maxDays"`
	Goods        []string             `json:"goods"`
	RandomEvents config.RandomEvents `json:"randomEvents"`
	Seed         *int64               `json:"seed,omitempty"`
}

// FieldError locates a configuration error.
type FieldError struct {
	Code    string `json:"code"`
	Field   string `json:"field"`
	Message string `json:"message"`
	Line    int    `json:"line,omitempty"`
	Column  int    `json:"column,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <config.cue>",
		Short: "Validate a game configuration",
		Long: `Validate a CUE game configuration against the embedded schema.

Checks types and ranges (probabilities within [0, 1], positive prices
and day counts), fills in defaults, and rejects duplicate goods.

Exit codes:
  0 - Configuration valid
  1 - Configuration invalid
  2 - Command error (file not found, etc.)`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	cfg, err := config.Load(path)
	if err != nil {
		var cfgErr *config.ConfigError
		if !errors.As(err, &cfgErr) {
			code := ErrCodeGeneric
			if errors.Is(err, os.ErrNotExist) {
				code = ErrCodeNotFound
			}
			_ = formatter.Error(code, err.Error(), nil)
			return WrapExitError(ExitCommandError, "failed to read config", err)
		}
		return outputValidationError(formatter, path, cfgErr)
	}

	formatter.VerboseLog("Loaded %s: %d good(s), %d day(s)", path, len(cfg.Goods), cfg.MaxDays)
	return outputValidateSuccess(formatter, path, cfg)
}

// outputValidateSuccess outputs successful validation results.
func outputValidateSuccess(formatter *OutputFormatter, path string, cfg *config.Config) error {
	if formatter.Format == "json" {
		return formatter.Success(ValidationResult{
			Valid: true,
			Path:  path,
			Summary: &ConfigDigest{
				StartingCash: cfg.StartingCash,
				MaxDays:      cfg.MaxDays,
				Goods:        cfg.GoodNames(),
				RandomEvents: cfg.RandomEvents,
				Seed:         cfg.Seed,
			},
		})
	}

	fmt.Fprintf(formatter.Writer, "✓ %s valid: %d good(s), %d day(s), starting cash %.2f\n",
		path, len(cfg.Goods), cfg.MaxDays, cfg.StartingCash)
	return nil
}

// outputValidationError outputs a configuration error.
func outputValidationError(formatter *OutputFormatter, path string, cfgErr *config.ConfigError) error {
	fe := &FieldError{
		Code:    ErrCodeConfigInvalid,
		Field:   cfgErr.Field,
		Message: cfgErr.Message,
	}
	if cfgErr.Pos.IsValid() {
		fe.Line = cfgErr.Pos.Line()
		fe.Column = cfgErr.Pos.Column()
	}

	if formatter.Format == "json" {
		_ = formatter.Error(fe.Code, cfgErr.Error(), ValidationResult{Valid: false, Path: path, Error: fe})
	} else {
		fmt.Fprintln(formatter.Writer, "✗ Validation failed")
		fmt.Fprintln(formatter.Writer)
		if fe.Line > 0 {
			fmt.Fprintf(formatter.Writer, "line %d\n", fe.Line)
		}
		fmt.Fprintf(formatter.Writer, "  %s: %s: %s\n", fe.Code, fe.Field, fe.Message)
	}

	// Validation failures = exit code 1 (test/validation failure)
	return WrapExitError(ExitFailure, "validation failed", cfgErr)
}
