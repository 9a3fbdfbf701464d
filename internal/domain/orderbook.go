package domain

// OrderBook holds the best bid and ask for a symbol. Bid is the price the
// engine would receive when selling; Ask is the price it would pay when buying.
type OrderBook struct {
	Symbol string
	Bid    float64
	Ask    float64
}
