package ports

import "context"

// Notifier delivers a text message to one fixed operator destination.
// Delivery is best-effort: callers log failures but never let a failed
// notification fail the operation that triggered it.
type Notifier interface {
	Send(ctx context.Context, text string) error
}
