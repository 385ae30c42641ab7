package market

import (
	"context"

	"github.com/roach88/tradesim/internal/config"
	"github.com/roach88/tradesim/internal/engine"
)

// Game couples a market process with the rules it was configured with.
type Game struct {
	rules Rules
	proc  *engine.Process[*State]
}

// NewGame starts a game on day 1 of cfg. A nil cfg means config.Default().
//
// When cfg carries a seed, the game draws from a SeededSource with that
// seed unless opts supply their own random source.
func NewGame(cfg *config.Config, opts ...engine.Option) (*Game, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Seed != nil {
		opts = append([]engine.Option{engine.WithRandom(engine.NewSeededSource(*cfg.Seed))}, opts...)
	}
	return NewGameFromState(NewState(cfg), RulesFrom(cfg), opts...), nil
}

// NewGameFromState starts a game from an arbitrary state, e.g. one taken
// from a scenario file. The state is cloned and never referenced.
func NewGameFromState(s *State, rules Rules, opts ...engine.Option) *Game {
	return &Game{
		rules: rules,
		proc:  engine.New(s, opts...),
	}
}

// Process returns the underlying engine process.
func (g *Game) Process() *engine.Process[*State] { return g.proc }

// Rules returns the random-event chances of the game.
func (g *Game) Rules() Rules { return g.rules }

// State returns the current state. Treat it as read-only.
func (g *Game) State() *State { return g.proc.State() }

// Over reports whether the game has ended.
func (g *Game) Over() bool { return g.proc.State().GameOver }

// Apply builds the named event from args and dispatches it.
func (g *Game) Apply(ctx context.Context, action string, args map[string]any) (engine.Result[*State], error) {
	ev, err := NewEvent(g.rules, action, args)
	if err != nil {
		return engine.Result[*State]{}, err
	}
	return g.proc.Dispatch(ctx, ev)
}

// Buy purchases quantity units of good.
func (g *Game) Buy(ctx context.Context, good string, quantity int) (BuyOutput, error) {
	res, err := g.proc.Dispatch(ctx, &Buy{BuyPayload: BuyPayload{Good: good, Quantity: quantity}, Rules: g.rules})
	if err != nil {
		return BuyOutput{}, err
	}
	return res.Data.(BuyOutput), nil
}

// Sell sells quantity units of good.
func (g *Game) Sell(ctx context.Context, good string, quantity int) (SellOutput, error) {
	res, err := g.proc.Dispatch(ctx, &Sell{SellPayload: SellPayload{Good: good, Quantity: quantity}})
	if err != nil {
		return SellOutput{}, err
	}
	return res.Data.(SellOutput), nil
}

// Travel advances the game by days (1 when zero).
func (g *Game) Travel(ctx context.Context, days int) (TravelOutput, error) {
	res, err := g.proc.Dispatch(ctx, &Travel{TravelPayload: TravelPayload{Days: days}, Rules: g.rules})
	if err != nil {
		return TravelOutput{}, err
	}
	return res.Data.(TravelOutput), nil
}
