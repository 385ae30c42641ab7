package market

// TotalInventoryValue is the cost basis of the inventory: the sum of
// quantity times average purchase price over all goods.
func TotalInventoryValue(s *State) float64 {
	total := 0.0
	for _, g := range s.Goods {
		total += float64(s.Inventory[g.Name]) * s.AvgPrice[g.Name]
	}
	return total
}

// TotalValue is cash plus the inventory at cost.
func TotalValue(s *State) float64 {
	return s.Cash + TotalInventoryValue(s)
}

// ProjectedValue is cash plus the inventory at today's market prices.
func ProjectedValue(s *State) float64 {
	total := s.Cash
	for _, g := range s.Goods {
		total += g.Price * float64(s.Inventory[g.Name])
	}
	return total
}
