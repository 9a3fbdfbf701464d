package ports

import (
	"context"

	"spotTargetBot/internal/domain"
)

// TradeRepository stores and retrieves completed trades. It is a journal of
// closed round trips; the active-position slot itself is never persisted.
type TradeRepository interface {
	// RecordTrade saves a completed trade and returns its assigned ID.
	RecordTrade(ctx context.Context, trade *domain.Trade) (int64, error)
	// FindBySymbol retrieves the most recent trades for a symbol, up to a limit.
	FindBySymbol(ctx context.Context, symbol string, limit int) ([]*domain.Trade, error)
	// CountTodayBySymbol counts the trades closed today for a symbol.
	CountTodayBySymbol(ctx context.Context, symbol string) (int, error)
	// TotalProfit sums the absolute profit over all recorded trades.
	TotalProfit(ctx context.Context) (float64, error)
}
