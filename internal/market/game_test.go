package market

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/tradesim/internal/config"
	"github.com/roach88/tradesim/internal/engine"
	"github.com/roach88/tradesim/internal/testutil"
)

func TestNewGame_Defaults(t *testing.T) {
	g, err := NewGame(nil)
	require.NoError(t, err)

	assert.Equal(t, 1, g.State().Day)
	assert.Equal(t, 2000.0, g.State().Cash)
	assert.Equal(t, RulesFrom(config.Default()), g.Rules())
	assert.False(t, g.Over())
	assert.Equal(t, 1, g.Process().Len())
}

func TestNewGame_InvalidConfig(t *testing.T) {
	cfg := config.Default()
	cfg.MaxDays = 0

	_, err := NewGame(cfg)
	var ce *config.ConfigError
	assert.ErrorAs(t, err, &ce)
}

func TestNewGame_SeedIsReproducible(t *testing.T) {
	seed := int64(42)
	cfg := config.Default()
	cfg.Seed = &seed

	play := func() []float64 {
		g, err := NewGame(cfg, engine.WithIDGenerator(engine.NewSequenceGenerator("state")))
		require.NoError(t, err)
		for i := 0; i < 5; i++ {
			_, err := g.Travel(context.Background(), 1)
			require.NoError(t, err)
		}
		prices := make([]float64, 0, len(g.State().Goods))
		for _, good := range g.State().Goods {
			prices = append(prices, good.Price)
		}
		return prices
	}

	assert.Equal(t, play(), play())
}

func TestNewGame_OptionOverridesSeed(t *testing.T) {
	seed := int64(42)
	cfg := config.Default()
	cfg.Seed = &seed
	src := testutil.NewScriptedSource()

	g, err := NewGame(cfg, engine.WithRandom(src))
	require.NoError(t, err)
	assert.Same(t, src, g.Process().Random())
}

func TestGame_PlayLoop(t *testing.T) {
	ctx := context.Background()
	g := NewGameFromState(singleGoodState(), Rules{}, engine.WithRandom(testutil.NewScriptedSource(0.5, 0.5)))

	bought, err := g.Buy(ctx, "X", 4)
	require.NoError(t, err)
	assert.Equal(t, 4, bought.Delivered)

	moved, err := g.Travel(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, moved.Day)

	sold, err := g.Sell(ctx, "X", 4)
	require.NoError(t, err)
	assert.Equal(t, 40.0, sold.Revenue)

	res, err := g.Apply(ctx, EventTravel, map[string]any{"days": 20})
	require.NoError(t, err)
	assert.True(t, res.State.GameOver)
	assert.True(t, g.Over())

	_, err = g.Buy(ctx, "X", 1)
	requireReason(t, err, ReasonGameOver)

	assert.Equal(t, 5, g.Process().Len())
	assert.Equal(t, 100.0, g.State().Cash)
}

func TestGame_ApplyUnknownAction(t *testing.T) {
	g := NewGameFromState(singleGoodState(), Rules{})
	_, err := g.Apply(context.Background(), "teleport", nil)
	assert.ErrorIs(t, err, ErrUnknownAction)
	assert.Equal(t, 1, g.Process().Len())
}
