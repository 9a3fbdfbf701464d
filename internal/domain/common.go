package domain

// OrderSide represents the side of an order (BUY or SELL).
type OrderSide string

const (
	Buy  OrderSide = "BUY"
	Sell OrderSide = "SELL"
)

// QuantityUnit tells the gateway how to interpret an order quantity:
// as an amount of the base asset or as an amount of the quote currency.
type QuantityUnit string

const (
	UnitBase  QuantityUnit = "base"
	UnitQuote QuantityUnit = "quote"
)

// CloseReason indicates why a position was closed.
type CloseReason string

const (
	CloseReasonTarget  CloseReason = "TARGET"
	CloseReasonManual  CloseReason = "MANUAL"
	CloseReasonUnknown CloseReason = "UNKNOWN"
)
