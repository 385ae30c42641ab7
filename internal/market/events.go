package market

import (
	"context"
	"math"
	"strconv"

	"github.com/roach88/tradesim/internal/config"
	"github.com/roach88/tradesim/internal/engine"
)

// Event names.
const (
	EventBuy        = "buy"
	EventSell       = "sell"
	EventTravel     = "travel"
	EventPriceSurge = "price-surge"
	EventDealerScam = "dealer-scam"
	EventLuckyFind  = "lucky-find"
)

// Validation reasons.
const (
	ReasonUnknownGood           = "unknown good"
	ReasonInvalidQuantity       = "quantity must be positive"
	ReasonInvalidDays           = "days must be positive"
	ReasonInsufficientCash      = "insufficient cash"
	ReasonInsufficientInventory = "insufficient inventory"
	ReasonGameOver              = "game is over"
)

// Rules holds the trigger chance of each random event. The zero value
// disables all of them.
type Rules struct {
	DealerScam float64
	PriceSurge float64
	LuckyFind  float64
}

// RulesFrom extracts the random-event chances from cfg.
func RulesFrom(cfg *config.Config) Rules {
	return Rules{
		DealerScam: cfg.RandomEvents.DealerScam,
		PriceSurge: cfg.RandomEvents.PriceSurge,
		LuckyFind:  cfg.RandomEvents.LuckyFind,
	}
}

// BuyPayload is the input of a buy.
type BuyPayload struct {
	Good     string `json:"good"`
	Quantity int    `json:"quantity"`
}

// BuyOutput reports what a buy delivered.
type BuyOutput struct {
	Good      string  `json:"good"`
	Requested int     `json:"requested"`
	Delivered int     `json:"delivered"`
	Cost      float64 `json:"cost"`
	Scammed   bool    `json:"scammed"`
}

// Buy purchases Quantity units of Good at today's price. The dealer may
// scam the buyer: the full cost is paid but fewer units are delivered.
type Buy struct {
	BuyPayload
	Rules Rules `json:"-"`
}

func (e *Buy) Name() string { return EventBuy }

func (e *Buy) Payload() any { return e.BuyPayload }

func (e *Buy) Execute(ctx context.Context, p *engine.Process[*State]) (any, error) {
	s := p.State()
	if s.GameOver {
		return nil, engine.NewValidationError(EventBuy, ReasonGameOver)
	}
	i, ok := s.Lookup(e.Good)
	if !ok {
		return nil, engine.NewValidationError(EventBuy, ReasonUnknownGood).WithDetail("good", e.Good)
	}
	if e.Quantity <= 0 {
		return nil, engine.NewValidationError(EventBuy, ReasonInvalidQuantity).
			WithDetail("quantity", strconv.Itoa(e.Quantity))
	}
	price := s.Goods[i].Price
	cost := price * float64(e.Quantity)
	if cost > s.Cash {
		return nil, engine.NewValidationError(EventBuy, ReasonInsufficientCash).
			WithDetail("cost", strconv.FormatFloat(cost, 'f', -1, 64)).
			WithDetail("cash", strconv.FormatFloat(s.Cash, 'f', -1, 64))
	}
	s.Cash -= cost

	out := BuyOutput{Good: e.Good, Requested: e.Quantity, Delivered: e.Quantity, Cost: cost}
	res, err := roll(ctx, p, engine.Pool[*State]{
		{Factory: func() engine.Event[*State] { return &DealerScam{Quantity: e.Quantity} }, Weight: e.Rules.DealerScam},
	})
	if err != nil {
		return nil, err
	}
	if res != nil {
		scam := res.Data.(DealerScamOutput)
		out.Delivered = scam.Delivered
		out.Scammed = true
	}

	// A triggered event replaces the process state.
	s = p.State()
	base := s.AvgPrice[e.Good]
	if s.Inventory[e.Good] == 0 {
		base = price
	}
	s.Inventory[e.Good] += out.Delivered
	if inv := s.Inventory[e.Good]; inv > 0 {
		s.AvgPrice[e.Good] = (base*float64(inv-out.Delivered) + cost) / float64(inv)
	} else {
		s.AvgPrice[e.Good] = 0
	}
	return out, nil
}

// SellPayload is the input of a sell.
type SellPayload struct {
	Good     string `json:"good"`
	Quantity int    `json:"quantity"`
}

// SellOutput reports the proceeds of a sell.
type SellOutput struct {
	Good     string  `json:"good"`
	Quantity int     `json:"quantity"`
	Revenue  float64 `json:"revenue"`
}

// Sell sells Quantity units of Good at today's price. Selling the last unit
// resets the good's average price to 0.
type Sell struct {
	SellPayload
}

func (e *Sell) Name() string { return EventSell }

func (e *Sell) Payload() any { return e.SellPayload }

func (e *Sell) Execute(_ context.Context, p *engine.Process[*State]) (any, error) {
	s := p.State()
	if s.GameOver {
		return nil, engine.NewValidationError(EventSell, ReasonGameOver)
	}
	i, ok := s.Lookup(e.Good)
	if !ok {
		return nil, engine.NewValidationError(EventSell, ReasonUnknownGood).WithDetail("good", e.Good)
	}
	if e.Quantity <= 0 {
		return nil, engine.NewValidationError(EventSell, ReasonInvalidQuantity).
			WithDetail("quantity", strconv.Itoa(e.Quantity))
	}
	if e.Quantity > s.Inventory[e.Good] {
		return nil, engine.NewValidationError(EventSell, ReasonInsufficientInventory).
			WithDetail("requested", strconv.Itoa(e.Quantity)).
			WithDetail("held", strconv.Itoa(s.Inventory[e.Good]))
	}

	revenue := s.Goods[i].Price * float64(e.Quantity)
	s.Cash += revenue
	s.Inventory[e.Good] -= e.Quantity
	if s.Inventory[e.Good] == 0 {
		s.AvgPrice[e.Good] = 0
	}
	return SellOutput{Good: e.Good, Quantity: e.Quantity, Revenue: revenue}, nil
}

// TravelPayload is the input of a travel. Days defaults to 1.
type TravelPayload struct {
	Days int `json:"days,omitempty"`
}

// TravelOutput reports the outcome of a travel.
type TravelOutput struct {
	Day      int    `json:"day"`
	GameOver bool   `json:"gameOver"`
	Event    string `json:"event,omitempty"`
}

// Travel advances the calendar and re-prices every good. Travelling past
// the last day ends the game without touching anything else.
type Travel struct {
	TravelPayload
	Rules Rules `json:"-"`
}

func (e *Travel) Name() string { return EventTravel }

func (e *Travel) Payload() any { return e.TravelPayload }

func (e *Travel) Execute(ctx context.Context, p *engine.Process[*State]) (any, error) {
	s := p.State()
	if s.GameOver {
		return nil, engine.NewValidationError(EventTravel, ReasonGameOver)
	}
	days := e.Days
	if days == 0 {
		days = 1
	}
	if days < 0 {
		return nil, engine.NewValidationError(EventTravel, ReasonInvalidDays).
			WithDetail("days", strconv.Itoa(days))
	}

	if s.Day+days > s.MaxDays {
		s.GameOver = true
		return TravelOutput{Day: s.Day, GameOver: true}, nil
	}
	s.Day += days

	src := p.Random()
	for i := range s.Goods {
		g := &s.Goods[i]
		variation := engine.Between(src, -g.Volatility, g.Volatility)
		g.Price = g.BasePrice * (1 + variation)
	}

	out := TravelOutput{Day: s.Day}
	res, err := roll(ctx, p, engine.Pool[*State]{
		{Factory: func() engine.Event[*State] { return &PriceSurge{} }, Weight: e.Rules.PriceSurge},
		{Factory: func() engine.Event[*State] { return &LuckyFind{} }, Weight: e.Rules.LuckyFind},
	})
	if err != nil {
		return nil, err
	}
	if res != nil {
		h := p.History()
		out.Event = h[0].Event.Name
	}
	return out, nil
}

// PriceSurgePayload names the good to surge; empty picks one at random.
type PriceSurgePayload struct {
	Good string `json:"good,omitempty"`
}

// PriceSurgeOutput reports the surged good.
type PriceSurgeOutput struct {
	Good     string  `json:"good"`
	OldPrice float64 `json:"oldPrice"`
	NewPrice float64 `json:"newPrice"`
}

// PriceSurge doubles the price of a good.
type PriceSurge struct {
	PriceSurgePayload
}

func (e *PriceSurge) Name() string { return EventPriceSurge }

func (e *PriceSurge) Payload() any { return e.PriceSurgePayload }

func (e *PriceSurge) Execute(_ context.Context, p *engine.Process[*State]) (any, error) {
	s := p.State()
	name := e.Good
	if name == "" {
		picked, err := engine.ChooseUniform(p.Random(), s.GoodNames())
		if err != nil {
			return nil, err
		}
		name = picked
	}
	i, ok := s.Lookup(name)
	if !ok {
		return nil, engine.NewValidationError(EventPriceSurge, ReasonUnknownGood).WithDetail("good", name)
	}

	old := s.Goods[i].Price
	s.Goods[i].Price *= 2
	logRandomEvent(EventPriceSurge, "good", name, "old_price", old, "new_price", s.Goods[i].Price)
	return PriceSurgeOutput{Good: name, OldPrice: old, NewPrice: s.Goods[i].Price}, nil
}

// DealerScamPayload is the quantity the buyer paid for.
type DealerScamPayload struct {
	Quantity int `json:"quantity"`
}

// DealerScamOutput reports how much was actually delivered.
type DealerScamOutput struct {
	Quantity  int `json:"quantity"`
	Delivered int `json:"delivered"`
}

// DealerScam computes a short delivery of between 50% and 80% of Quantity,
// rounded down. It does not touch the state; Buy applies the delivery.
type DealerScam struct {
	DealerScamPayload
}

func (e *DealerScam) Name() string { return EventDealerScam }

func (e *DealerScam) Payload() any { return e.DealerScamPayload }

func (e *DealerScam) Execute(_ context.Context, p *engine.Process[*State]) (any, error) {
	if e.Quantity < 0 {
		return nil, engine.NewValidationError(EventDealerScam, ReasonInvalidQuantity)
	}
	delivered := int(math.Floor(float64(e.Quantity) * engine.Between(p.Random(), 0.5, 0.8)))
	logRandomEvent(EventDealerScam, "quantity", e.Quantity, "delivered", delivered)
	return DealerScamOutput{Quantity: e.Quantity, Delivered: delivered}, nil
}

// LuckyFindOutput reports the found goods.
type LuckyFindOutput struct {
	Good     string `json:"good"`
	Quantity int    `json:"quantity"`
}

// LuckyFind adds free units of a random good to the inventory. The amount
// scales with the player's total value, at least 3 units, and dilutes the
// good's average price.
type LuckyFind struct{}

func (e *LuckyFind) Name() string { return EventLuckyFind }

func (e *LuckyFind) Payload() any { return struct{}{} }

func (e *LuckyFind) Execute(_ context.Context, p *engine.Process[*State]) (any, error) {
	s := p.State()
	src := p.Random()

	g, err := engine.ChooseUniform(src, s.Goods)
	if err != nil {
		return nil, err
	}
	span := TotalValue(s) / g.BasePrice
	qty := max(int(math.Ceil(engine.Between(src, span*0.05, span*0.1))), 3)

	s.Inventory[g.Name] += qty
	inv := s.Inventory[g.Name]
	s.AvgPrice[g.Name] = s.AvgPrice[g.Name] * float64(inv-qty) / float64(inv)

	logRandomEvent(EventLuckyFind, "good", g.Name, "quantity", qty)
	return LuckyFindOutput{Good: g.Name, Quantity: qty}, nil
}

// roll triggers at most one event from pool on p. Candidates with zero
// weight are dropped first; an empty pool triggers nothing.
func roll(ctx context.Context, p *engine.Process[*State], pool engine.Pool[*State]) (*engine.Result[*State], error) {
	active := make(engine.Pool[*State], 0, len(pool))
	for _, c := range pool {
		if c.Weight > 0 {
			active = append(active, c)
		}
	}
	if len(active) == 0 {
		return nil, nil
	}
	return p.TriggerRandomEvent(ctx, active)
}
