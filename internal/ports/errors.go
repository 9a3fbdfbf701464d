package ports

import "errors"

// Standard application-level errors.
// Adapters wrap underlying infrastructure errors with these standard errors;
// the engine reports state-machine violations with them directly.
var (
	// General errors
	ErrUnknown         = errors.New("unknown error occurred")
	ErrInvalidRequest  = errors.New("invalid request parameters or format")
	ErrTimeout         = errors.New("operation timed out")
	ErrContextCanceled = errors.New("operation canceled via context")

	// Engine state errors
	ErrPositionActive    = errors.New("a position is already active")
	ErrNoActivePosition  = errors.New("no active position")
	ErrCloseInProgress   = errors.New("close already in progress")
	ErrTradeLimitReached = errors.New("daily trade limit reached")

	// Exchange errors
	ErrFeedUnavailable      = errors.New("price feed is unavailable")
	ErrConnectionFailed     = errors.New("failed to connect to the exchange")
	ErrRateLimited          = errors.New("API rate limit exceeded")
	ErrAuthenticationFailed = errors.New("exchange authentication failed (check API keys)")
	ErrInsufficientFunds    = errors.New("insufficient funds for operation")
	ErrOrderPlacementFailed = errors.New("failed to place order")

	// Notification errors
	ErrNotificationFailed = errors.New("failed to deliver notification")
)
