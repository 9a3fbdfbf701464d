package ports

import (
	"context"
	"time"

	"spotTargetBot/internal/domain"
)

// OrderResponse represents the essential details returned after placing an order.
type OrderResponse struct {
	OrderID       int64     // Exchange's order ID
	Symbol        string    // Symbol for the order
	ClientOrderID string    // Client-assigned order ID
	AvgPrice      float64   // Average filled price (0 if not reported)
	ExecutedQty   float64   // Quantity filled
	Status        string    // Order status (e.g., NEW, FILLED)
	Side          string    // Order side (BUY, SELL)
	Timestamp     time.Time // Time the order response was generated
}

// PriceFeed provides best bid/ask market data for a symbol.
type PriceFeed interface {
	// GetOrderBook retrieves the current best bid and ask for a symbol.
	GetOrderBook(ctx context.Context, symbol string) (*domain.OrderBook, error)
}

// OrderGateway submits orders to the exchange with fire-and-confirm semantics:
// anything other than a nil error is treated as a failed order and the caller
// performs no partial bookkeeping.
type OrderGateway interface {
	// PlaceMarketOrder places a market order. The quantity string is
	// interpreted according to unit: base-asset amount or quote-currency amount.
	PlaceMarketOrder(ctx context.Context, symbol string, side domain.OrderSide, quantity string, unit domain.QuantityUnit) (*OrderResponse, error)
}
