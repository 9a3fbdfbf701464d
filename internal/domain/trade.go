package domain

import "time"

// Trade represents a completed round trip: one opened and closed position.
type Trade struct {
	ID            int64       // Unique identifier (assigned by the journal)
	Symbol        string      // Trading symbol
	OrderID       int64       // Exchange order ID of the opening order
	EntryPrice    float64     // Price at which the position was entered
	ExitPrice     float64     // Price at which the position was exited
	Amount        float64     // Quantity committed
	Profit        float64     // Absolute profit in units of Amount
	ProfitPercent float64     // Realized profit percentage
	OpenedAt      time.Time   // When the position was opened
	ClosedAt      time.Time   // When the position was closed
	CloseReason   CloseReason // Why the position was closed
}
