package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spotTargetBot/internal/domain"
)

type nopLogger struct{}

func (nopLogger) Debug(ctx context.Context, msg string, fields ...map[string]interface{}) {}
func (nopLogger) Info(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (nopLogger) Warn(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (nopLogger) Error(ctx context.Context, err error, msg string, fields ...map[string]interface{}) {
}

func setupTestRepo(t *testing.T) *Repository {
	t.Helper()
	repo, err := NewRepository(Config{
		DBPath: filepath.Join(t.TempDir(), "trades.db"),
		Logger: nopLogger{},
	})
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func makeTrade(symbol string, profit float64, closedAt time.Time) *domain.Trade {
	return &domain.Trade{
		Symbol:        symbol,
		OrderID:       1001,
		EntryPrice:    100.0,
		ExitPrice:     100.0 + profit,
		Amount:        0.1,
		Profit:        profit,
		ProfitPercent: profit,
		OpenedAt:      closedAt.Add(-10 * time.Minute),
		ClosedAt:      closedAt,
		CloseReason:   domain.CloseReasonTarget,
	}
}

func TestNewRepository(t *testing.T) {
	t.Run("creates database and schema", func(t *testing.T) {
		repo := setupTestRepo(t)
		count, err := repo.CountTodayBySymbol(context.Background(), "BTCUSDT")
		require.NoError(t, err)
		assert.Equal(t, 0, count)
	})

	t.Run("requires a logger", func(t *testing.T) {
		repo, err := NewRepository(Config{DBPath: filepath.Join(t.TempDir(), "trades.db")})
		assert.Error(t, err)
		assert.Nil(t, repo)
	})
}

func TestRepository_RecordTrade(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	trade := makeTrade("BTCUSDT", 1.5, time.Now().UTC())
	id, err := repo.RecordTrade(ctx, trade)
	require.NoError(t, err)
	assert.Greater(t, id, int64(0))
	assert.Equal(t, id, trade.ID)

	found, err := repo.FindBySymbol(ctx, "BTCUSDT", 10)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, id, found[0].ID)
	assert.Equal(t, "BTCUSDT", found[0].Symbol)
	assert.Equal(t, int64(1001), found[0].OrderID)
	assert.Equal(t, 100.0, found[0].EntryPrice)
	assert.Equal(t, 101.5, found[0].ExitPrice)
	assert.Equal(t, 1.5, found[0].Profit)
	assert.Equal(t, domain.CloseReasonTarget, found[0].CloseReason)
}

func TestRepository_FindBySymbol(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()
	now := time.Now().UTC()

	for i := 0; i < 5; i++ {
		_, err := repo.RecordTrade(ctx, makeTrade("BTCUSDT", float64(i), now.Add(time.Duration(i)*time.Minute)))
		require.NoError(t, err)
	}
	_, err := repo.RecordTrade(ctx, makeTrade("ETHUSDT", 2.0, now))
	require.NoError(t, err)

	t.Run("filters by symbol and honors the limit", func(t *testing.T) {
		found, err := repo.FindBySymbol(ctx, "BTCUSDT", 3)
		require.NoError(t, err)
		require.Len(t, found, 3)
		for _, tr := range found {
			assert.Equal(t, "BTCUSDT", tr.Symbol)
		}
	})

	t.Run("most recent first", func(t *testing.T) {
		found, err := repo.FindBySymbol(ctx, "BTCUSDT", 10)
		require.NoError(t, err)
		require.Len(t, found, 5)
		assert.Equal(t, 4.0, found[0].Profit)
		assert.Equal(t, 0.0, found[4].Profit)
	})

	t.Run("unknown symbol returns empty", func(t *testing.T) {
		found, err := repo.FindBySymbol(ctx, "DOGEUSDT", 10)
		require.NoError(t, err)
		assert.Empty(t, found)
	})
}

func TestRepository_CountTodayBySymbol(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	_, err := repo.RecordTrade(ctx, makeTrade("BTCUSDT", 1.0, time.Now()))
	require.NoError(t, err)
	_, err = repo.RecordTrade(ctx, makeTrade("BTCUSDT", 2.0, time.Now()))
	require.NoError(t, err)
	// A trade from two days ago must not count against today's cap.
	_, err = repo.RecordTrade(ctx, makeTrade("BTCUSDT", 3.0, time.Now().Add(-48*time.Hour)))
	require.NoError(t, err)
	_, err = repo.RecordTrade(ctx, makeTrade("ETHUSDT", 1.0, time.Now()))
	require.NoError(t, err)

	count, err := repo.CountTodayBySymbol(ctx, "BTCUSDT")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestRepository_TotalProfit(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	total, err := repo.TotalProfit(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0.0, total)

	_, err = repo.RecordTrade(ctx, makeTrade("BTCUSDT", 1.5, time.Now()))
	require.NoError(t, err)
	_, err = repo.RecordTrade(ctx, makeTrade("BTCUSDT", -0.5, time.Now()))
	require.NoError(t, err)

	total, err = repo.TotalProfit(ctx)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, total, 1e-9)
}
