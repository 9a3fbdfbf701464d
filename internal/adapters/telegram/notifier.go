package telegram

import (
	"context"
)

// Notifier implements the ports.Notifier interface by sending messages to one
// fixed operator chat.
type Notifier struct {
	client *Client
	chatID string
}

// NewNotifier creates a Notifier delivering to the given chat.
func NewNotifier(client *Client, chatID string) *Notifier {
	return &Notifier{client: client, chatID: chatID}
}

// Send delivers a text message to the operator chat.
func (n *Notifier) Send(ctx context.Context, text string) error {
	return n.client.SendMessage(ctx, n.chatID, text)
}
