package domain

import (
	"math"
	"time"
)

// tickPrecision is the number of decimal places target prices and amounts
// are rounded to at computation time, matching exchange tick-size expectations.
const tickPrecision = 3

// Position represents the single open trade tracked by the engine.
// Target fields are computed once at open time and never change afterwards.
type Position struct {
	Symbol       string       // Trading symbol (e.g., "BTCUSDT")
	OrderID      int64        // Exchange-assigned ID of the opening order
	EntryPrice   float64      // Price at which the position was deemed opened
	Amount       float64      // Quantity committed (base or quote, see Unit)
	Unit         QuantityUnit // How Amount is denominated
	TargetPrice  float64      // Exit price at which the profit target is realized
	TargetAmount float64      // Amount grown by the profit target
	OpenedAt     time.Time    // Timestamp when the position was opened
}

// NewPosition builds a Position with its target price and amount derived from
// the entry price, the committed amount and the configured profit percentage.
func NewPosition(symbol string, orderID int64, entryPrice, amount float64, unit QuantityUnit, targetProfitPct float64, openedAt time.Time) *Position {
	return &Position{
		Symbol:       symbol,
		OrderID:      orderID,
		EntryPrice:   entryPrice,
		Amount:       amount,
		Unit:         unit,
		TargetPrice:  TargetValue(entryPrice, targetProfitPct),
		TargetAmount: TargetValue(amount, targetProfitPct),
		OpenedAt:     openedAt,
	}
}

// TargetReached reports whether a close executed at the given bid price would
// realize the configured profit target.
func (p *Position) TargetReached(bidPrice float64) bool {
	return bidPrice >= p.TargetPrice
}

// TargetValue grows v by the given profit percentage and rounds the result
// to tick precision.
func TargetValue(v, profitPct float64) float64 {
	return RoundTick(v * (1 + profitPct/100))
}

// ProfitPercent returns the realized profit percentage for a position entered
// at entryPrice and exited at exitPrice.
func ProfitPercent(exitPrice, entryPrice float64) float64 {
	return (exitPrice/entryPrice - 1) * 100
}

// Profit returns the absolute profit, in units of the committed amount, for a
// position of the given amount entered at entryPrice and exited at exitPrice.
func Profit(exitPrice, entryPrice, amount float64) float64 {
	return (exitPrice/entryPrice - 1) * amount
}

// RoundTick rounds v to tick precision (3 decimal places).
func RoundTick(v float64) float64 {
	shift := math.Pow10(tickPrecision)
	return math.Round(v*shift) / shift
}
