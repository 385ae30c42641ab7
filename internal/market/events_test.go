package market

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/tradesim/internal/engine"
	"github.com/roach88/tradesim/internal/testutil"
)

func singleGoodState() *State {
	return &State{
		ID:      "s0",
		Day:     1,
		Cash:    100,
		MaxDays: 10,
		Goods: []Good{
			{Name: "X", BasePrice: 10, Price: 10, Volatility: 0.5},
		},
		Inventory: map[string]int{"X": 0},
		AvgPrice:  map[string]float64{"X": 0},
	}
}

func newProcess(s *State, draws ...float64) *engine.Process[*State] {
	return engine.New(s,
		engine.WithRandom(testutil.NewScriptedSource(draws...)),
		engine.WithIDGenerator(engine.NewSequenceGenerator("state")),
		engine.WithNow(testutil.NewStepClock().Now),
	)
}

func requireReason(t *testing.T, err error, reason string) {
	t.Helper()
	var ve *engine.ValidationError
	require.True(t, errors.As(err, &ve), "expected ValidationError, got %T: %v", err, err)
	assert.Equal(t, reason, ve.Reason)
}

// Scenario A
func TestBuy_UpdatesCashInventoryAndAverage(t *testing.T) {
	p := newProcess(singleGoodState())

	res, err := p.Dispatch(context.Background(), &Buy{BuyPayload: BuyPayload{Good: "X", Quantity: 5}})
	require.NoError(t, err)

	s := p.State()
	assert.Equal(t, 50.0, s.Cash)
	assert.Equal(t, 5, s.Inventory["X"])
	assert.Equal(t, 10.0, s.AvgPrice["X"])
	assert.Equal(t, 2, p.Len())
	assert.Equal(t, BuyOutput{Good: "X", Requested: 5, Delivered: 5, Cost: 50}, res.Data)
}

// Scenario B
func TestSell_ExhaustionResetsAverage(t *testing.T) {
	s := singleGoodState()
	s.Cash = 50
	s.Inventory["X"] = 5
	s.AvgPrice["X"] = 10
	p := newProcess(s)

	res, err := p.Dispatch(context.Background(), &Sell{SellPayload: SellPayload{Good: "X", Quantity: 5}})
	require.NoError(t, err)

	assert.Equal(t, 100.0, p.State().Cash)
	assert.Equal(t, 0, p.State().Inventory["X"])
	assert.Equal(t, 0.0, p.State().AvgPrice["X"])
	assert.Equal(t, SellOutput{Good: "X", Quantity: 5, Revenue: 50}, res.Data)
}

// Scenario C
func TestSell_InsufficientInventory(t *testing.T) {
	s := singleGoodState()
	s.Cash = 50
	s.Inventory["X"] = 5
	s.AvgPrice["X"] = 10
	p := newProcess(s)
	before := p.State()

	_, err := p.Dispatch(context.Background(), &Sell{SellPayload: SellPayload{Good: "X", Quantity: 10}})

	requireReason(t, err, ReasonInsufficientInventory)
	assert.Same(t, before, p.State())
	assert.Equal(t, 50.0, p.State().Cash)
	assert.Equal(t, 5, p.State().Inventory["X"])
	assert.Equal(t, 10.0, p.State().AvgPrice["X"])
	assert.Equal(t, 1, p.Len())
}

// Scenario D
func TestTravel_PastLastDayEndsGame(t *testing.T) {
	s := singleGoodState()
	s.Day = 9
	// An empty script fails the test on any draw.
	p := newProcess(s)

	res, err := p.Dispatch(context.Background(), &Travel{
		TravelPayload: TravelPayload{Days: 2},
		Rules:         Rules{PriceSurge: 0.5, LuckyFind: 0.5},
	})
	require.NoError(t, err)

	assert.True(t, p.State().GameOver)
	assert.Equal(t, 9, p.State().Day)
	assert.Equal(t, 10.0, p.State().Goods[0].Price)
	assert.Equal(t, TravelOutput{Day: 9, GameOver: true}, res.Data)
}

func TestBuy_Validation(t *testing.T) {
	tests := []struct {
		name    string
		payload BuyPayload
		reason  string
	}{
		{"unknown good", BuyPayload{Good: "Y", Quantity: 1}, ReasonUnknownGood},
		{"zero quantity", BuyPayload{Good: "X", Quantity: 0}, ReasonInvalidQuantity},
		{"negative quantity", BuyPayload{Good: "X", Quantity: -3}, ReasonInvalidQuantity},
		{"insufficient cash", BuyPayload{Good: "X", Quantity: 11}, ReasonInsufficientCash},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newProcess(singleGoodState())
			_, err := p.Dispatch(context.Background(), &Buy{BuyPayload: tt.payload})
			requireReason(t, err, tt.reason)
			assert.Equal(t, 100.0, p.State().Cash)
			assert.Equal(t, 1, p.Len())
		})
	}
}

func TestBuy_ExactCashAllowed(t *testing.T) {
	p := newProcess(singleGoodState())
	_, err := p.Dispatch(context.Background(), &Buy{BuyPayload: BuyPayload{Good: "X", Quantity: 10}})
	require.NoError(t, err)
	assert.Equal(t, 0.0, p.State().Cash)
}

func TestBuy_AveragesWithExistingInventory(t *testing.T) {
	s := singleGoodState()
	s.Cash = 1000
	s.Inventory["X"] = 10
	s.AvgPrice["X"] = 4
	s.Goods[0].Price = 10
	p := newProcess(s)

	_, err := p.Dispatch(context.Background(), &Buy{BuyPayload: BuyPayload{Good: "X", Quantity: 10}})
	require.NoError(t, err)

	// (4*10 + 100) / 20
	assert.Equal(t, 7.0, p.State().AvgPrice["X"])
	assert.Equal(t, 20, p.State().Inventory["X"])
}

func TestBuy_DealerScam(t *testing.T) {
	// 0.05 < 0.1 fires the scam; 0.5 maps to 0.65 of the quantity.
	p := newProcess(singleGoodState(), 0.05, 0.5)

	res, err := p.Dispatch(context.Background(), &Buy{
		BuyPayload: BuyPayload{Good: "X", Quantity: 10},
		Rules:      Rules{DealerScam: 0.1},
	})
	require.NoError(t, err)

	assert.Equal(t, BuyOutput{Good: "X", Requested: 10, Delivered: 6, Cost: 100, Scammed: true}, res.Data)
	s := p.State()
	assert.Equal(t, 0.0, s.Cash, "the full price is paid")
	assert.Equal(t, 6, s.Inventory["X"])
	assert.InDelta(t, 100.0/6, s.AvgPrice["X"], 1e-9)

	buy := p.History()[0].Event
	require.Len(t, buy.History, 2)
	scam := buy.History[0].Event
	assert.Equal(t, EventDealerScam, scam.Name)
	assert.Equal(t, DealerScamPayload{Quantity: 10}, scam.Payload)
	assert.Equal(t, DealerScamOutput{Quantity: 10, Delivered: 6}, scam.Output)
}

func TestBuy_DealerScamMiss(t *testing.T) {
	p := newProcess(singleGoodState(), 0.5)

	res, err := p.Dispatch(context.Background(), &Buy{
		BuyPayload: BuyPayload{Good: "X", Quantity: 10},
		Rules:      Rules{DealerScam: 0.1},
	})
	require.NoError(t, err)

	assert.False(t, res.Data.(BuyOutput).Scammed)
	assert.Equal(t, 10, p.State().Inventory["X"])
	assert.Len(t, p.History()[0].Event.History, 1)
}

func TestBuy_ScamDeliveringNothing(t *testing.T) {
	// floor(1 * 0.5) = 0
	p := newProcess(singleGoodState(), 0.0, 0.0)

	res, err := p.Dispatch(context.Background(), &Buy{
		BuyPayload: BuyPayload{Good: "X", Quantity: 1},
		Rules:      Rules{DealerScam: 1},
	})
	require.NoError(t, err)

	assert.Equal(t, 0, res.Data.(BuyOutput).Delivered)
	assert.Equal(t, 90.0, p.State().Cash)
	assert.Equal(t, 0, p.State().Inventory["X"])
	assert.Equal(t, 0.0, p.State().AvgPrice["X"])
}

func TestSell_Validation(t *testing.T) {
	tests := []struct {
		name    string
		payload SellPayload
		reason  string
	}{
		{"unknown good", SellPayload{Good: "Y", Quantity: 1}, ReasonUnknownGood},
		{"zero quantity", SellPayload{Good: "X", Quantity: 0}, ReasonInvalidQuantity},
		{"nothing held", SellPayload{Good: "X", Quantity: 1}, ReasonInsufficientInventory},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newProcess(singleGoodState())
			_, err := p.Dispatch(context.Background(), &Sell{SellPayload: tt.payload})
			requireReason(t, err, tt.reason)
		})
	}
}

func TestSell_PartialKeepsAverage(t *testing.T) {
	s := singleGoodState()
	s.Inventory["X"] = 5
	s.AvgPrice["X"] = 8
	s.Goods[0].Price = 12
	p := newProcess(s)

	_, err := p.Dispatch(context.Background(), &Sell{SellPayload: SellPayload{Good: "X", Quantity: 2}})
	require.NoError(t, err)

	assert.Equal(t, 124.0, p.State().Cash)
	assert.Equal(t, 3, p.State().Inventory["X"])
	assert.Equal(t, 8.0, p.State().AvgPrice["X"])
}

func TestTravel_RepricesWithinVolatility(t *testing.T) {
	// 0.75 maps to +25% on a 0.5 volatility; 0.9 misses both random events.
	p := newProcess(singleGoodState(), 0.75, 0.9)

	res, err := p.Dispatch(context.Background(), &Travel{Rules: Rules{PriceSurge: 0.1, LuckyFind: 0.05}})
	require.NoError(t, err)

	assert.Equal(t, TravelOutput{Day: 2}, res.Data)
	assert.Equal(t, 2, p.State().Day)
	assert.Equal(t, 12.5, p.State().Goods[0].Price)
	assert.Equal(t, 10.0, p.State().Goods[0].BasePrice)
}

func TestTravel_LastDayIsReachable(t *testing.T) {
	s := singleGoodState()
	s.Day = 9
	p := newProcess(s, 0.5)

	_, err := p.Dispatch(context.Background(), &Travel{})
	require.NoError(t, err)

	assert.Equal(t, 10, p.State().Day)
	assert.False(t, p.State().GameOver)
}

func TestTravel_NegativeDays(t *testing.T) {
	p := newProcess(singleGoodState())
	_, err := p.Dispatch(context.Background(), &Travel{TravelPayload: TravelPayload{Days: -1}})
	requireReason(t, err, ReasonInvalidDays)
}

func TestTravel_PriceSurge(t *testing.T) {
	// reprice at 0%, fire the surge, pick the only good
	p := newProcess(singleGoodState(), 0.5, 0.05, 0.0)

	res, err := p.Dispatch(context.Background(), &Travel{Rules: Rules{PriceSurge: 0.1, LuckyFind: 0.05}})
	require.NoError(t, err)

	assert.Equal(t, TravelOutput{Day: 2, Event: EventPriceSurge}, res.Data)
	assert.Equal(t, 20.0, p.State().Goods[0].Price)

	surge := p.History()[0].Event.History[0].Event
	assert.Equal(t, PriceSurgeOutput{Good: "X", OldPrice: 10, NewPrice: 20}, surge.Output)
}

func TestTravel_LuckyFind(t *testing.T) {
	// reprice at 0%, fire the lucky find, pick the only good, smallest amount
	p := newProcess(singleGoodState(), 0.5, 0.12, 0.0, 0.0)

	res, err := p.Dispatch(context.Background(), &Travel{Rules: Rules{PriceSurge: 0.1, LuckyFind: 0.05}})
	require.NoError(t, err)

	assert.Equal(t, TravelOutput{Day: 2, Event: EventLuckyFind}, res.Data)
	assert.Equal(t, 3, p.State().Inventory["X"], "at least 3 units are found")
	assert.Equal(t, 0.0, p.State().AvgPrice["X"])
}

func TestLuckyFind_ScalesAndDilutes(t *testing.T) {
	s := singleGoodState()
	s.Cash = 1000
	s.Inventory["X"] = 5
	s.AvgPrice["X"] = 10
	// total value 1050, span 105, amount in [5.25, 10.5): 0.5 -> 7.875 -> 8
	p := newProcess(s, 0.0, 0.5)

	res, err := p.Dispatch(context.Background(), &LuckyFind{})
	require.NoError(t, err)

	assert.Equal(t, LuckyFindOutput{Good: "X", Quantity: 8}, res.Data)
	assert.Equal(t, 13, p.State().Inventory["X"])
	assert.InDelta(t, 50.0/13, p.State().AvgPrice["X"], 1e-9)
}

func TestPriceSurge_NamedGood(t *testing.T) {
	p := newProcess(singleGoodState())

	_, err := p.Dispatch(context.Background(), &PriceSurge{PriceSurgePayload{Good: "X"}})
	require.NoError(t, err)
	assert.Equal(t, 20.0, p.State().Goods[0].Price)

	_, err = p.Dispatch(context.Background(), &PriceSurge{PriceSurgePayload{Good: "Nope"}})
	requireReason(t, err, ReasonUnknownGood)
}

func TestGameOver_BlocksActions(t *testing.T) {
	s := singleGoodState()
	s.GameOver = true
	s.Inventory["X"] = 1

	events := []engine.Event[*State]{
		&Buy{BuyPayload: BuyPayload{Good: "X", Quantity: 1}},
		&Sell{SellPayload: SellPayload{Good: "X", Quantity: 1}},
		&Travel{},
	}
	for _, ev := range events {
		t.Run(ev.Name(), func(t *testing.T) {
			p := newProcess(s)
			_, err := p.Dispatch(context.Background(), ev)
			requireReason(t, err, ReasonGameOver)
		})
	}
}
