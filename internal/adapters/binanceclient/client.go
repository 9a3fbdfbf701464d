package binanceclient

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"spotTargetBot/internal/domain"
	"spotTargetBot/internal/ports"

	binance "github.com/adshao/go-binance/v2"
	"github.com/adshao/go-binance/v2/common"
	"github.com/google/uuid"
)

const (
	baseURLProduction = "https://api.binance.com"
	baseURLTestnet    = "https://testnet.binance.vision"

	// Depth levels requested per book fetch; only the best bid/ask is used.
	bookDepthLimit = 5
)

// Client implements the ports.PriceFeed and ports.OrderGateway interfaces
// using the go-binance spot API.
type Client struct {
	spot   *binance.Client
	logger ports.Logger
}

// Config holds configuration specific to the Binance client adapter.
type Config struct {
	APIKey     string
	SecretKey  string
	UseTestnet bool
	Logger     ports.Logger
}

// New creates a new Binance spot client adapter.
func New(cfg Config) (*Client, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for Binance client")
	}
	if cfg.APIKey == "" || cfg.SecretKey == "" {
		cfg.Logger.Warn(context.Background(), "APIKey or SecretKey is empty. Client will only work for public endpoints.")
	}

	client := binance.NewClient(cfg.APIKey, cfg.SecretKey)

	// Set BaseURL directly instead of using the global binance.UseTestnet
	if cfg.UseTestnet {
		client.BaseURL = baseURLTestnet
		cfg.Logger.Info(context.Background(), "Binance client configured for Testnet", map[string]interface{}{"baseURL": client.BaseURL})
	} else {
		client.BaseURL = baseURLProduction
		cfg.Logger.Info(context.Background(), "Binance client configured for Production", map[string]interface{}{"baseURL": client.BaseURL})
	}

	return &Client{spot: client, logger: cfg.Logger}, nil
}

// handleError translates common Binance API errors into standardized ports errors.
func (c *Client) handleError(ctx context.Context, err error, operation string) error {
	if err == nil {
		return nil
	}

	fields := map[string]interface{}{"operation": operation, "originalError": err.Error()}

	var apiErr *common.APIError
	if errors.As(err, &apiErr) {
		fields["apiErrorCode"] = apiErr.Code
		fields["apiErrorMessage"] = apiErr.Message

		var mappedErr error
		switch apiErr.Code {
		case -1003: // Too many requests
			mappedErr = ports.ErrRateLimited
		case -1021: // Timestamp outside of the recvWindow
			mappedErr = ports.ErrTimeout
		case -1022: // Invalid signature
			mappedErr = ports.ErrAuthenticationFailed
		case -1013, -1100, -1104, -1106, -1111, -1121: // Filter/parameter failures
			mappedErr = ports.ErrInvalidRequest
		case -2010: // New order rejected
			mappedErr = ports.ErrOrderPlacementFailed
		case -2014, -2015: // API key format/permissions
			mappedErr = ports.ErrAuthenticationFailed
		case -3005: // Insufficient balance
			mappedErr = ports.ErrInsufficientFunds
		default:
			mappedErr = ports.ErrUnknown
		}
		finalErr := fmt.Errorf("%s failed: %w: %w", operation, mappedErr, err)
		c.logger.Error(ctx, err, fmt.Sprintf("%s failed with API error", operation), fields)
		return finalErr
	}

	var finalErr error
	if errors.Is(err, context.DeadlineExceeded) {
		finalErr = fmt.Errorf("%s failed: %w: %w", operation, ports.ErrTimeout, err)
	} else if errors.Is(err, context.Canceled) {
		finalErr = fmt.Errorf("%s operation canceled: %w: %w", operation, ports.ErrContextCanceled, err)
	} else if strings.Contains(err.Error(), "use of closed network connection") ||
		strings.Contains(err.Error(), "connection refused") ||
		strings.Contains(err.Error(), "connection reset by peer") {
		finalErr = fmt.Errorf("%s failed: %w: %w", operation, ports.ErrConnectionFailed, err)
	} else {
		finalErr = fmt.Errorf("%s failed: %w: %w", operation, ports.ErrUnknown, err)
	}

	c.logger.Error(ctx, err, fmt.Sprintf("%s failed", operation), fields)
	return finalErr
}

// GetOrderBook retrieves the current best bid and ask for a symbol.
func (c *Client) GetOrderBook(ctx context.Context, symbol string) (*domain.OrderBook, error) {
	op := "GetOrderBook"
	depth, err := c.spot.NewDepthService().Symbol(symbol).Limit(bookDepthLimit).Do(ctx)
	if err != nil {
		return nil, c.handleError(ctx, err, op)
	}
	if len(depth.Bids) == 0 || len(depth.Asks) == 0 {
		err := fmt.Errorf("empty order book returned for symbol %s", symbol)
		return nil, c.handleError(ctx, err, op)
	}

	bid, err := strconv.ParseFloat(depth.Bids[0].Price, 64)
	if err != nil {
		parseErr := fmt.Errorf("could not parse bid price '%s': %w", depth.Bids[0].Price, err)
		return nil, c.handleError(ctx, parseErr, op)
	}
	ask, err := strconv.ParseFloat(depth.Asks[0].Price, 64)
	if err != nil {
		parseErr := fmt.Errorf("could not parse ask price '%s': %w", depth.Asks[0].Price, err)
		return nil, c.handleError(ctx, parseErr, op)
	}

	return &domain.OrderBook{Symbol: symbol, Bid: bid, Ask: ask}, nil
}

// PlaceMarketOrder places a spot market order. The quantity string is applied
// as a base-asset quantity or a quote-currency amount depending on unit.
func (c *Client) PlaceMarketOrder(ctx context.Context, symbol string, side domain.OrderSide, quantity string, unit domain.QuantityUnit) (*ports.OrderResponse, error) {
	op := "PlaceMarketOrder"

	svc := c.spot.NewCreateOrderService().
		Symbol(symbol).
		Side(binance.SideType(side)).
		Type(binance.OrderTypeMarket).
		NewClientOrderID(uuid.NewString())
	if unit == domain.UnitQuote {
		svc = svc.QuoteOrderQty(quantity)
	} else {
		svc = svc.Quantity(quantity)
	}

	order, err := svc.Do(ctx)
	if err != nil {
		return nil, c.handleError(ctx, err, op)
	}

	resp := translateOrderResponse(order)
	c.logger.Info(ctx, op+" successful", map[string]interface{}{
		"symbol":   symbol,
		"side":     side,
		"quantity": quantity,
		"unit":     unit,
		"orderID":  resp.OrderID,
		"status":   resp.Status,
		"avgPrice": resp.AvgPrice,
	})
	return resp, nil
}

// Ping checks the connectivity to the exchange API.
func (c *Client) Ping(ctx context.Context) error {
	op := "Ping"
	if err := c.spot.NewPingService().Do(ctx); err != nil {
		return c.handleError(ctx, fmt.Errorf("ping failed: %w", err), op)
	}
	c.logger.Debug(ctx, op+" successful")
	return nil
}

// --- Translation Helpers ---

func translateOrderResponse(order *binance.CreateOrderResponse) *ports.OrderResponse {
	if order == nil {
		return nil
	}
	execQty, _ := strconv.ParseFloat(order.ExecutedQuantity, 64)

	return &ports.OrderResponse{
		OrderID:       order.OrderID,
		Symbol:        order.Symbol,
		ClientOrderID: order.ClientOrderID,
		AvgPrice:      fillsAvgPrice(order.Fills),
		ExecutedQty:   execQty,
		Status:        string(order.Status),
		Side:          string(order.Side),
		Timestamp:     time.UnixMilli(order.TransactTime),
	}
}

// fillsAvgPrice computes the quantity-weighted average price over the order's
// fills. Returns 0 when no fills are reported.
func fillsAvgPrice(fills []*binance.Fill) float64 {
	var totalQty, totalQuote float64
	for _, f := range fills {
		price, err := strconv.ParseFloat(f.Price, 64)
		if err != nil {
			continue
		}
		qty, err := strconv.ParseFloat(f.Quantity, 64)
		if err != nil {
			continue
		}
		totalQty += qty
		totalQuote += price * qty
	}
	if totalQty == 0 {
		return 0
	}
	return totalQuote / totalQty
}
