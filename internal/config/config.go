// Package config loads and validates tradesim game configuration.
//
// Configuration files are CUE. They are unified with the embedded schema
// (schema.cue), which supplies defaults and constraints, and then decoded
// into Config. An empty file yields the classic game: 30 days, 2000 cash,
// six goods.
package config

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
)

//go:embed schema.cue
var schemaSource string

// Good is one tradable commodity in the catalog.
type Good struct {
	Name       string  `json:"name"`
	BasePrice  float64 `json:"basePrice"`
	Volatility float64 `json:"volatility"`
}

// RandomEvents holds the trigger chance of each random event, in [0, 1].
type RandomEvents struct {
	DealerScam float64 `json:"dealerScam"`
	PriceSurge float64 `json:"priceSurge"`
	LuckyFind  float64 `json:"luckyFind"`
}

// Config is a decoded game configuration.
type Config struct {
	StartingCash float64      `json:"startingCash"`
	MaxDays      int          `json:"maxDays"`
	Goods        []Good       `json:"goods"`
	RandomEvents RandomEvents `json:"randomEvents"`

	// Seed fixes the random source when set.
	Seed *int64 `json:"seed,omitempty"`
}

// ConfigError reports an invalid configuration, with the CUE source
// position when one is known.
type ConfigError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *ConfigError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Default returns the configuration produced by an empty file.
func Default() *Config {
	cfg, err := LoadBytes("default.cue", nil)
	if err != nil {
		// The embedded schema is covered by tests.
		panic(fmt.Sprintf("config: embedded schema defaults are invalid: %v", err))
	}
	return cfg
}

// Load reads and validates the configuration file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return LoadBytes(path, data)
}

// LoadBytes validates CUE source against the schema. filename is used for
// error positions only.
func LoadBytes(filename string, data []byte) (*Config, error) {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	def := schema.LookupPath(cue.ParsePath("#Config"))

	user := ctx.CompileBytes(data, cue.Filename(filename))
	if err := user.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	v := def.Unify(user)
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return nil, formatCUEError(err)
	}

	var cfg Config
	if err := v.Decode(&cfg); err != nil {
		return nil, formatCUEError(err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the constraints CUE cannot express on its own. It is also
// used for configurations built in code.
func (c *Config) Validate() error {
	if c.StartingCash < 0 {
		return &ConfigError{Field: "startingCash", Message: "must not be negative"}
	}
	if c.MaxDays <= 0 {
		return &ConfigError{Field: "maxDays", Message: "must be positive"}
	}
	if len(c.Goods) == 0 {
		return &ConfigError{Field: "goods", Message: "at least one good is required"}
	}

	seen := make(map[string]bool, len(c.Goods))
	for i, g := range c.Goods {
		field := fmt.Sprintf("goods[%d]", i)
		if g.Name == "" {
			return &ConfigError{Field: field, Message: "name is required"}
		}
		if seen[g.Name] {
			return &ConfigError{Field: field, Message: fmt.Sprintf("duplicate good %q", g.Name)}
		}
		seen[g.Name] = true
		if g.BasePrice <= 0 {
			return &ConfigError{Field: field, Message: "basePrice must be positive"}
		}
		if g.Volatility < 0 || g.Volatility > 1 {
			return &ConfigError{Field: field, Message: "volatility must be within [0, 1]"}
		}
	}

	chances := []struct {
		name  string
		value float64
	}{
		{"randomEvents.dealerScam", c.RandomEvents.DealerScam},
		{"randomEvents.priceSurge", c.RandomEvents.PriceSurge},
		{"randomEvents.luckyFind", c.RandomEvents.LuckyFind},
	}
	for _, ch := range chances {
		if ch.value < 0 || ch.value > 1 {
			return &ConfigError{Field: ch.name, Message: "chance must be within [0, 1]"}
		}
	}
	return nil
}

// GoodNames returns the catalog names in declaration order.
func (c *Config) GoodNames() []string {
	names := make([]string, len(c.Goods))
	for i, g := range c.Goods {
		names[i] = g.Name
	}
	return names
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	errs := errors.Errors(err)
	if len(errs) == 0 {
		return &ConfigError{Field: "cue", Message: err.Error()}
	}

	first := errs[0]
	ce := &ConfigError{Field: "cue", Message: first.Error()}
	if path := first.Path(); len(path) > 0 {
		ce.Field = strings.Join(path, ".")
	}
	if positions := errors.Positions(first); len(positions) > 0 {
		ce.Pos = positions[0]
	}
	return ce
}
