package engine

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"spotTargetBot/config"
	"spotTargetBot/internal/domain"
	"spotTargetBot/internal/metrics"
	"spotTargetBot/internal/ports"
)

// state tracks where the engine is in the position lifecycle. Opening and
// Closing are transient and exist only so that a conflicting Open/Close
// request can be rejected while one is already in flight.
type state int

const (
	stateIdle state = iota
	stateOpening
	stateOpen
	stateClosing
)

func (s state) String() string {
	switch s {
	case stateIdle:
		return "idle"
	case stateOpening:
		return "opening"
	case stateOpen:
		return "open"
	case stateClosing:
		return "closing"
	default:
		return "unknown"
	}
}

// CloseResult describes a successfully closed position.
type CloseResult struct {
	Position      domain.Position
	ExitPrice     float64
	Profit        float64
	ProfitPercent float64
	Reason        domain.CloseReason
}

// Snapshot is a read-only view of the active position together with a fresh
// market price and the profit it currently represents.
type Snapshot struct {
	Position      domain.Position
	CurrentPrice  float64
	ProfitPercent float64
	TargetProfit  float64
}

// Engine owns the single active-position slot and serializes all transitions
// on it. At most one position exists at any time, and exactly one monitoring
// goroutine is alive while a position is open.
type Engine struct {
	cfg      *config.Config
	logger   ports.Logger
	feed     ports.PriceFeed
	gateway  ports.OrderGateway
	notifier ports.Notifier
	trades   ports.TradeRepository

	// mu protects the state fields below. All collaborator I/O happens
	// outside the lock.
	mu            sync.Mutex
	state         state
	position      *domain.Position
	monitorCancel context.CancelFunc
	monitorDone   chan struct{}
}

// New creates a position engine. The trade repository may be nil, in which
// case no journal is kept and the daily trade cap is not enforced.
func New(cfg *config.Config, logger ports.Logger, feed ports.PriceFeed, gateway ports.OrderGateway, notifier ports.Notifier, trades ports.TradeRepository) (*Engine, error) {
	if cfg == nil || logger == nil || feed == nil || gateway == nil || notifier == nil {
		return nil, fmt.Errorf("missing required dependencies for Engine")
	}
	if cfg.Amount <= 0 {
		return nil, fmt.Errorf("configuration Amount must be positive")
	}
	if cfg.TargetProfitPercent <= 0 {
		return nil, fmt.Errorf("configuration TargetProfitPercent must be positive")
	}
	if cfg.PollInterval <= 0 {
		return nil, fmt.Errorf("configuration PollInterval must be positive")
	}

	return &Engine{
		cfg:      cfg,
		logger:   logger,
		feed:     feed,
		gateway:  gateway,
		notifier: notifier,
		trades:   trades,
		state:    stateIdle,
	}, nil
}

// formatQuantity formats a float64 quantity into a string suitable for the
// exchange API.
func formatQuantity(quantity float64) string {
	return strconv.FormatFloat(quantity, 'f', -1, 64)
}

// Open opens a new position: it captures the current best ask as the entry
// price, submits a market buy for the configured amount, computes the target
// price and amount, and starts the monitoring goroutine. Open fails fast with
// ErrPositionActive while any position is active or a transition is in flight.
func (e *Engine) Open(ctx context.Context) (*domain.Position, error) {
	op := "Open"

	e.mu.Lock()
	if e.state != stateIdle {
		st := e.state
		e.mu.Unlock()
		e.logger.Warn(ctx, op+": rejected, slot not idle", map[string]interface{}{"state": st.String()})
		return nil, ports.ErrPositionActive
	}
	e.state = stateOpening
	prevDone := e.monitorDone
	e.mu.Unlock()

	// The previous monitor's context was cancelled by the Close that freed
	// the slot; wait for the goroutine to finish before starting a new one.
	if prevDone != nil {
		<-prevDone
	}

	pos, err := e.open(ctx)
	if err != nil {
		e.mu.Lock()
		e.state = stateIdle
		e.mu.Unlock()
		return nil, err
	}
	return pos, nil
}

// open performs the actual open sequence. The caller holds the Opening state;
// on error the caller rolls back to Idle.
func (e *Engine) open(ctx context.Context) (*domain.Position, error) {
	op := "Open"

	if e.cfg.MaxTradesPerDay > 0 && e.trades != nil {
		count, err := e.trades.CountTodayBySymbol(ctx, e.cfg.Symbol)
		if err != nil {
			e.logger.Error(ctx, err, op+": failed to count today's trades")
			return nil, fmt.Errorf("counting today's trades: %w", err)
		}
		if count >= e.cfg.MaxTradesPerDay {
			e.logger.Warn(ctx, op+": daily trade limit reached", map[string]interface{}{"count": count, "limit": e.cfg.MaxTradesPerDay})
			return nil, fmt.Errorf("%w (%d/%d)", ports.ErrTradeLimitReached, count, e.cfg.MaxTradesPerDay)
		}
	}

	book, err := e.feed.GetOrderBook(ctx, e.cfg.Symbol)
	if err != nil {
		metrics.FeedErrors.Inc()
		e.logger.Error(ctx, err, op+": failed to fetch order book")
		return nil, fmt.Errorf("%w: %w", ports.ErrFeedUnavailable, err)
	}

	order, err := e.gateway.PlaceMarketOrder(ctx, e.cfg.Symbol, domain.Buy, formatQuantity(e.cfg.Amount), e.cfg.AmountUnit)
	if err != nil {
		e.logger.Error(ctx, err, op+": failed to place entry market order")
		return nil, fmt.Errorf("entry market order failed: %w", err)
	}
	metrics.OrdersPlaced.WithLabelValues(string(domain.Buy)).Inc()

	// Entry price is the best ask captured before the order was submitted.
	pos := domain.NewPosition(e.cfg.Symbol, order.OrderID, book.Ask, e.cfg.Amount, e.cfg.AmountUnit, e.cfg.TargetProfitPercent, time.Now().UTC())

	mctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	e.mu.Lock()
	e.position = pos
	e.state = stateOpen
	e.monitorCancel = cancel
	e.monitorDone = done
	e.mu.Unlock()

	metrics.PositionOpen.Set(1)
	e.logger.Info(ctx, op+": position opened", map[string]interface{}{
		"symbol":       pos.Symbol,
		"orderID":      pos.OrderID,
		"entryPrice":   pos.EntryPrice,
		"amount":       pos.Amount,
		"targetPrice":  pos.TargetPrice,
		"targetAmount": pos.TargetAmount,
	})

	go e.monitor(mctx, *pos, done)

	return pos, nil
}

// Close closes the active position: it captures the current best bid as the
// exit price, submits a market sell for the original amount, notifies the
// operator, journals the trade, clears the slot, and stops the monitor.
// Exactly one concurrent caller wins; the others observe ErrNoActivePosition
// or ErrCloseInProgress and no second sell order is issued. If the feed or
// the gateway fails, the engine returns to Open and the monitor keeps polling.
func (e *Engine) Close(ctx context.Context, reason domain.CloseReason) (*CloseResult, error) {
	op := "Close"

	e.mu.Lock()
	switch e.state {
	case stateIdle, stateOpening:
		e.mu.Unlock()
		return nil, ports.ErrNoActivePosition
	case stateClosing:
		e.mu.Unlock()
		return nil, ports.ErrCloseInProgress
	}
	pos := *e.position
	e.state = stateClosing
	e.mu.Unlock()

	res, err := e.close(ctx, pos, reason)
	if err != nil {
		// The position is not lost: return to Open so the monitor keeps
		// polling and a later close attempt can succeed.
		e.mu.Lock()
		e.state = stateOpen
		e.mu.Unlock()
		return nil, err
	}

	e.mu.Lock()
	e.position = nil
	e.state = stateIdle
	cancel := e.monitorCancel
	e.monitorCancel = nil
	e.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	metrics.PositionOpen.Set(0)
	e.logger.Info(ctx, op+": position closed", map[string]interface{}{
		"symbol":        res.Position.Symbol,
		"reason":        res.Reason,
		"exitPrice":     res.ExitPrice,
		"profit":        res.Profit,
		"profitPercent": res.ProfitPercent,
	})
	return res, nil
}

// close performs the actual close sequence for the snapshotted position.
func (e *Engine) close(ctx context.Context, pos domain.Position, reason domain.CloseReason) (*CloseResult, error) {
	op := "Close"

	book, err := e.feed.GetOrderBook(ctx, pos.Symbol)
	if err != nil {
		metrics.FeedErrors.Inc()
		e.logger.Error(ctx, err, op+": failed to fetch order book")
		return nil, fmt.Errorf("%w: %w", ports.ErrFeedUnavailable, err)
	}

	// Sell the original amount, not the profit-adjusted target amount: the
	// position never holds more than was bought, and selling TargetAmount
	// would be rejected for insufficient balance.
	_, err = e.gateway.PlaceMarketOrder(ctx, pos.Symbol, domain.Sell, formatQuantity(pos.Amount), pos.Unit)
	if err != nil {
		e.logger.Error(ctx, err, op+": failed to place closing market order")
		return nil, fmt.Errorf("closing market order failed: %w", err)
	}
	metrics.OrdersPlaced.WithLabelValues(string(domain.Sell)).Inc()

	exitPrice := book.Bid
	res := &CloseResult{
		Position:      pos,
		ExitPrice:     exitPrice,
		Profit:        domain.Profit(exitPrice, pos.EntryPrice, pos.Amount),
		ProfitPercent: domain.ProfitPercent(exitPrice, pos.EntryPrice),
		Reason:        reason,
	}
	metrics.TradesClosed.WithLabelValues(string(reason)).Inc()
	metrics.RealizedProfit.Add(res.Profit)

	e.notifyClosed(ctx, res)
	e.journal(ctx, res)

	return res, nil
}

// notifyClosed sends the close notification. Delivery is best-effort and
// never fails the close operation.
func (e *Engine) notifyClosed(ctx context.Context, res *CloseResult) {
	text := fmt.Sprintf("✅ Position closed!\n"+
		"Trading Pair: %s\n"+
		"Profit Percentage: %.2f%%\n"+
		"Entry Price: %v\n"+
		"Target Price: %v\n"+
		"Exit Price: %v",
		res.Position.Symbol, res.ProfitPercent, res.Position.EntryPrice, res.Position.TargetPrice, res.ExitPrice)

	if err := e.notifier.Send(ctx, text); err != nil {
		metrics.NotifyErrors.Inc()
		e.logger.Error(ctx, fmt.Errorf("%w: %w", ports.ErrNotificationFailed, err), "Close: failed to send close notification")
	}
}

// journal records the completed trade. Failures are logged only.
func (e *Engine) journal(ctx context.Context, res *CloseResult) {
	if e.trades == nil {
		return
	}
	trade := &domain.Trade{
		Symbol:        res.Position.Symbol,
		OrderID:       res.Position.OrderID,
		EntryPrice:    res.Position.EntryPrice,
		ExitPrice:     res.ExitPrice,
		Amount:        res.Position.Amount,
		Profit:        res.Profit,
		ProfitPercent: res.ProfitPercent,
		OpenedAt:      res.Position.OpenedAt,
		ClosedAt:      time.Now().UTC(),
		CloseReason:   res.Reason,
	}
	if _, err := e.trades.RecordTrade(ctx, trade); err != nil {
		e.logger.Error(ctx, err, "Close: failed to journal trade")
	}
}

// History returns the most recent closed trades for the configured symbol,
// newest first. Without a journal the history is empty.
func (e *Engine) History(ctx context.Context, limit int) ([]*domain.Trade, error) {
	if e.trades == nil {
		return nil, nil
	}
	return e.trades.FindBySymbol(ctx, e.cfg.Symbol, limit)
}

// TotalProfit returns the cumulative realized profit over all journaled trades.
func (e *Engine) TotalProfit(ctx context.Context) (float64, error) {
	if e.trades == nil {
		return 0, nil
	}
	return e.trades.TotalProfit(ctx)
}

// Status returns a consistent snapshot of the active position together with a
// freshly fetched bid price and the profit it currently represents. It never
// mutates engine state. Returns ErrNoActivePosition when the slot is empty.
func (e *Engine) Status(ctx context.Context) (*Snapshot, error) {
	e.mu.Lock()
	if e.position == nil {
		e.mu.Unlock()
		return nil, ports.ErrNoActivePosition
	}
	pos := *e.position
	e.mu.Unlock()

	book, err := e.feed.GetOrderBook(ctx, pos.Symbol)
	if err != nil {
		metrics.FeedErrors.Inc()
		return nil, fmt.Errorf("%w: %w", ports.ErrFeedUnavailable, err)
	}

	return &Snapshot{
		Position:      pos,
		CurrentPrice:  book.Bid,
		ProfitPercent: domain.ProfitPercent(book.Bid, pos.EntryPrice),
		TargetProfit:  e.cfg.TargetProfitPercent,
	}, nil
}

// monitor polls the order book at the configured cadence and closes the
// position once the best bid reaches the target price. A failed poll is
// logged and skipped; the loop exits when its context is cancelled by a
// successful Close through any path.
func (e *Engine) monitor(ctx context.Context, pos domain.Position, done chan struct{}) {
	defer close(done)

	e.logger.Debug(ctx, "monitor: started", map[string]interface{}{"symbol": pos.Symbol, "targetPrice": pos.TargetPrice})
	ticker := time.NewTicker(e.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			e.logger.Debug(ctx, "monitor: stopped", map[string]interface{}{"symbol": pos.Symbol})
			return
		case <-ticker.C:
			metrics.MonitorTicks.Inc()
			book, err := e.feed.GetOrderBook(ctx, pos.Symbol)
			if err != nil {
				metrics.FeedErrors.Inc()
				e.logger.Warn(ctx, "monitor: order book fetch failed, retrying next tick", map[string]interface{}{"symbol": pos.Symbol, "error": err.Error()})
				continue
			}
			if !pos.TargetReached(book.Bid) {
				continue
			}

			e.logger.Info(ctx, "monitor: target price reached", map[string]interface{}{"symbol": pos.Symbol, "bid": book.Bid, "targetPrice": pos.TargetPrice})
			if _, err := e.Close(ctx, domain.CloseReasonTarget); err != nil {
				if errors.Is(err, ports.ErrNoActivePosition) || errors.Is(err, ports.ErrCloseInProgress) {
					// Another caller already won the close; this monitor's
					// context is about to be cancelled.
					return
				}
				e.logger.Error(ctx, err, "monitor: close failed, position stays open", map[string]interface{}{"symbol": pos.Symbol})
				continue
			}
			return
		}
	}
}
