package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, 2000.0, cfg.StartingCash)
	assert.Equal(t, 30, cfg.MaxDays)
	assert.Equal(t, []string{"Spices", "Silk", "Tea", "Coffee", "Tobacco", "Gems"}, cfg.GoodNames())
	assert.Equal(t, Good{Name: "Gems", BasePrice: 500, Volatility: 0.5}, cfg.Goods[5])
	assert.Equal(t, RandomEvents{DealerScam: 0.1, PriceSurge: 0.1, LuckyFind: 0.05}, cfg.RandomEvents)
	assert.Nil(t, cfg.Seed)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_File(t *testing.T) {
	cfg, err := Load(filepath.Join("testdata", "short.cue"))
	require.NoError(t, err)

	assert.Equal(t, 500.0, cfg.StartingCash)
	assert.Equal(t, 10, cfg.MaxDays)
	require.Len(t, cfg.Goods, 2)
	assert.Equal(t, Good{Name: "Tea", BasePrice: 10, Volatility: 0.1}, cfg.Goods[0])
	assert.Equal(t, 0.2, cfg.Goods[1].Volatility, "volatility defaults per good")
	assert.Equal(t, RandomEvents{DealerScam: 0, PriceSurge: 0.25, LuckyFind: 0.05}, cfg.RandomEvents)
	require.NotNil(t, cfg.Seed)
	assert.Equal(t, int64(42), *cfg.Seed)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.cue"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestLoadBytes_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		src   string
		field string
	}{
		{"syntax error", `maxDays: `, ""},
		{"zero days", `maxDays: 0`, ""},
		{"fractional days", `maxDays: 1.5`, ""},
		{"negative cash", `startingCash: -1`, ""},
		{"chance above one", `randomEvents: dealerScam: 1.5`, ""},
		{"volatility above one", `goods: [{name: "Tea", basePrice: 10, volatility: 2}]`, ""},
		{"zero base price", `goods: [{name: "Tea", basePrice: 0}]`, ""},
		{"empty goods", `goods: []`, ""},
		{"unknown field", `colour: "red"`, ""},
		{"duplicate goods", `goods: [{name: "Tea", basePrice: 10}, {name: "Tea", basePrice: 20}]`, "goods[1]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadBytes("test.cue", []byte(tt.src))
			require.Error(t, err)

			var ce *ConfigError
			require.True(t, errors.As(err, &ce), "expected ConfigError, got %T: %v", err, err)
			if tt.field != "" {
				assert.Equal(t, tt.field, ce.Field)
			}
		})
	}
}

func TestConfigError_Format(t *testing.T) {
	err := &ConfigError{Field: "maxDays", Message: "must be positive"}
	assert.Equal(t, "maxDays: must be positive", err.Error())
}

func TestValidate_CodeBuiltConfig(t *testing.T) {
	cfg := Default()
	cfg.Goods = append(cfg.Goods, Good{Name: "Spices", BasePrice: 1})

	err := cfg.Validate()
	var ce *ConfigError
	require.True(t, errors.As(err, &ce))
	assert.Contains(t, ce.Message, `duplicate good "Spices"`)

	cfg = Default()
	cfg.RandomEvents.LuckyFind = -0.1
	assert.Error(t, cfg.Validate())
}
