package telegram

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spotTargetBot/config"
	"spotTargetBot/internal/domain"
	"spotTargetBot/internal/engine"
	"spotTargetBot/internal/ports"
)

type stubLogger struct{}

func (stubLogger) Debug(ctx context.Context, msg string, fields ...map[string]interface{}) {}
func (stubLogger) Info(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (stubLogger) Warn(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (stubLogger) Error(ctx context.Context, err error, msg string, fields ...map[string]interface{}) {
}

type stubFeed struct {
	mu   sync.Mutex
	book domain.OrderBook
}

func (s *stubFeed) GetOrderBook(ctx context.Context, symbol string) (*domain.OrderBook, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	book := s.book
	book.Symbol = symbol
	return &book, nil
}

func (s *stubFeed) setBook(bid, ask float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.book = domain.OrderBook{Bid: bid, Ask: ask}
}

type stubGateway struct {
	mu     sync.Mutex
	orders int
}

func (s *stubGateway) PlaceMarketOrder(ctx context.Context, symbol string, side domain.OrderSide, quantity string, unit domain.QuantityUnit) (*ports.OrderResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders++
	return &ports.OrderResponse{OrderID: int64(s.orders), Symbol: symbol, Status: "FILLED", Side: string(side), Timestamp: time.Now()}, nil
}

type stubNotifier struct{}

func (stubNotifier) Send(ctx context.Context, text string) error { return nil }

type stubRepo struct {
	mu     sync.Mutex
	trades []*domain.Trade
}

func (s *stubRepo) RecordTrade(ctx context.Context, trade *domain.Trade) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	trade.ID = int64(len(s.trades) + 1)
	s.trades = append(s.trades, trade)
	return trade.ID, nil
}

func (s *stubRepo) FindBySymbol(ctx context.Context, symbol string, limit int) ([]*domain.Trade, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*domain.Trade
	for _, tr := range s.trades {
		if tr.Symbol == symbol && len(out) < limit {
			out = append(out, tr)
		}
	}
	return out, nil
}

func (s *stubRepo) CountTodayBySymbol(ctx context.Context, symbol string) (int, error) {
	return 0, nil
}

func (s *stubRepo) TotalProfit(ctx context.Context) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var total float64
	for _, tr := range s.trades {
		total += tr.Profit
	}
	return total, nil
}

const testChatID = "12345"

// newTestBot wires a CommandBot to a real engine over stubbed exchange ports
// and a recorded Bot API server. The trade repository may be nil.
func newTestBot(t *testing.T, repo ports.TradeRepository) (*CommandBot, *stubFeed, *apiRecorder) {
	t.Helper()

	cfg := &config.Config{
		Symbol:              "BTCUSDT",
		TargetProfitPercent: 2.0,
		Amount:              0.1,
		AmountUnit:          domain.UnitBase,
		PollInterval:        time.Hour, // the monitor must not interfere with the test
	}
	feed := &stubFeed{book: domain.OrderBook{Bid: 99.0, Ask: 100.0}}
	eng, err := engine.New(cfg, stubLogger{}, feed, &stubGateway{}, stubNotifier{}, repo)
	require.NoError(t, err)

	client, rec := newTestClient(t, nil)
	bot, err := NewCommandBot(client, testChatID, eng, stubLogger{})
	require.NoError(t, err)
	return bot, feed, rec
}

func TestNewCommandBot(t *testing.T) {
	client := NewClient("test-token")
	eng := &engine.Engine{}

	tests := []struct {
		name    string
		client  *Client
		chatID  string
		engine  *engine.Engine
		wantErr bool
	}{
		{name: "valid", client: client, chatID: "1", engine: eng, wantErr: false},
		{name: "nil client", client: nil, chatID: "1", engine: eng, wantErr: true},
		{name: "nil engine", client: client, chatID: "1", engine: nil, wantErr: true},
		{name: "empty chat id", client: client, chatID: "", engine: eng, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bot, err := NewCommandBot(tt.client, tt.chatID, tt.engine, stubLogger{})
			if tt.wantErr {
				assert.Error(t, err)
				assert.Nil(t, bot)
			} else {
				assert.NoError(t, err)
				assert.NotNil(t, bot)
			}
		})
	}
}

func TestCommandBot_HandleCommand(t *testing.T) {
	ctx := context.Background()

	replyText := func(t *testing.T, rec *apiRecorder) string {
		req := rec.last(t)
		require.Equal(t, "sendMessage", req.method)
		require.Equal(t, testChatID, req.payload["chat_id"])
		return req.payload["text"].(string)
	}

	t.Run("start lists the commands", func(t *testing.T) {
		bot, _, rec := newTestBot(t, nil)
		bot.handleCommand(ctx, "/start")
		assert.Contains(t, replyText(t, rec), "/trade")
	})

	t.Run("trade opens a position and reports entry and target", func(t *testing.T) {
		bot, _, rec := newTestBot(t, nil)
		bot.handleCommand(ctx, "/trade")

		text := replyText(t, rec)
		assert.Contains(t, text, "✅ Position opened!")
		assert.Contains(t, text, "Entry Price: 100")
		assert.Contains(t, text, "Target Price: 102")
	})

	t.Run("second trade is rejected", func(t *testing.T) {
		bot, _, rec := newTestBot(t, nil)
		bot.handleCommand(ctx, "/trade")
		bot.handleCommand(ctx, "/trade")
		assert.Equal(t, "❌ You already have an open position!", replyText(t, rec))
	})

	t.Run("status without a position", func(t *testing.T) {
		bot, _, rec := newTestBot(t, nil)
		bot.handleCommand(ctx, "/status")
		assert.Equal(t, "❌ No open positions", replyText(t, rec))
	})

	t.Run("status reports current profit", func(t *testing.T) {
		bot, feed, rec := newTestBot(t, nil)
		bot.handleCommand(ctx, "/trade")

		feed.setBook(101.0, 101.1)
		bot.handleCommand(ctx, "/status")

		text := replyText(t, rec)
		assert.Contains(t, text, "📊 Current position:")
		assert.Contains(t, text, "Current Profit: 1.00%")
		assert.Contains(t, text, "Target Profit: 2%")
	})

	t.Run("close without a position", func(t *testing.T) {
		bot, _, rec := newTestBot(t, nil)
		bot.handleCommand(ctx, "/close")
		assert.Equal(t, "❌ No open positions", replyText(t, rec))
	})

	t.Run("close acknowledges and frees the slot", func(t *testing.T) {
		bot, _, rec := newTestBot(t, nil)
		bot.handleCommand(ctx, "/trade")
		bot.handleCommand(ctx, "/close")
		assert.Equal(t, "✅ Position closed.", replyText(t, rec))

		bot.handleCommand(ctx, "/status")
		assert.Equal(t, "❌ No open positions", replyText(t, rec))
	})

	t.Run("group-chat suffix is stripped", func(t *testing.T) {
		bot, _, rec := newTestBot(t, nil)
		bot.handleCommand(ctx, "/status@spot_target_bot")
		assert.Equal(t, "❌ No open positions", replyText(t, rec))
	})

	t.Run("unknown command is ignored", func(t *testing.T) {
		bot, _, rec := newTestBot(t, nil)
		bot.handleCommand(ctx, "/help")
		rec.mu.Lock()
		defer rec.mu.Unlock()
		assert.Empty(t, rec.requests)
	})

	t.Run("whitespace-only message is ignored", func(t *testing.T) {
		bot, _, rec := newTestBot(t, nil)
		bot.handleCommand(ctx, "   ")
		bot.handleCommand(ctx, "\n\t")
		rec.mu.Lock()
		defer rec.mu.Unlock()
		assert.Empty(t, rec.requests)
	})

	t.Run("history without closed trades", func(t *testing.T) {
		bot, _, rec := newTestBot(t, nil)
		bot.handleCommand(ctx, "/history")
		assert.Equal(t, "📭 No closed trades yet", replyText(t, rec))
	})

	t.Run("history lists journaled trades and the running total", func(t *testing.T) {
		bot, feed, rec := newTestBot(t, &stubRepo{})

		bot.handleCommand(ctx, "/trade")
		feed.setBook(103.0, 103.1)
		bot.handleCommand(ctx, "/close")

		bot.handleCommand(ctx, "/history")
		text := replyText(t, rec)
		assert.Contains(t, text, "📜 Recent trades:")
		assert.Contains(t, text, "100 → 103")
		assert.Contains(t, text, "+3.00%")
		assert.Contains(t, text, "MANUAL")
		assert.Contains(t, text, "Total profit:")
	})
}
