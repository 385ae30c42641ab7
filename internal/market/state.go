package market

import (
	"maps"
	"slices"

	"github.com/roach88/tradesim/internal/config"
)

// Good is a commodity as it stands in the market on the current day.
type Good struct {
	Name       string  `json:"name"`
	BasePrice  float64 `json:"basePrice"`
	Price      float64 `json:"price"`
	Volatility float64 `json:"volatility"`
}

// State is the trading snapshot driven by the engine.
//
// Inventory and AvgPrice hold an entry for every good in Goods; the average
// price of a good is 0 whenever its inventory is 0.
type State struct {
	ID        string             `json:"id"`
	Day       int                `json:"day"`
	Cash      float64            `json:"cash"`
	MaxDays   int                `json:"maxDays"`
	Goods     []Good             `json:"goods"`
	Inventory map[string]int     `json:"inventory"`
	AvgPrice  map[string]float64 `json:"avgPrice"`
	GameOver  bool               `json:"gameOver"`
}

// NewState builds day 1 of a game from cfg. Every good starts at its base
// price with nothing in inventory.
func NewState(cfg *config.Config) *State {
	s := &State{
		Day:       1,
		Cash:      cfg.StartingCash,
		MaxDays:   cfg.MaxDays,
		Goods:     make([]Good, len(cfg.Goods)),
		Inventory: make(map[string]int, len(cfg.Goods)),
		AvgPrice:  make(map[string]float64, len(cfg.Goods)),
	}
	for i, g := range cfg.Goods {
		s.Goods[i] = Good{
			Name:       g.Name,
			BasePrice:  g.BasePrice,
			Price:      g.BasePrice,
			Volatility: g.Volatility,
		}
		s.Inventory[g.Name] = 0
		s.AvgPrice[g.Name] = 0
	}
	return s
}

// SnapshotID implements engine.Snapshot.
func (s *State) SnapshotID() string { return s.ID }

// Clone implements engine.Snapshot.
func (s *State) Clone(id string) *State {
	c := *s
	c.ID = id
	c.Goods = slices.Clone(s.Goods)
	c.Inventory = maps.Clone(s.Inventory)
	c.AvgPrice = maps.Clone(s.AvgPrice)
	if c.Inventory == nil {
		c.Inventory = map[string]int{}
	}
	if c.AvgPrice == nil {
		c.AvgPrice = map[string]float64{}
	}
	return &c
}

// Lookup returns the index of the named good.
func (s *State) Lookup(name string) (int, bool) {
	for i, g := range s.Goods {
		if g.Name == name {
			return i, true
		}
	}
	return -1, false
}

// GoodNames returns the names of all goods in catalog order.
func (s *State) GoodNames() []string {
	names := make([]string, len(s.Goods))
	for i, g := range s.Goods {
		names[i] = g.Name
	}
	return names
}
