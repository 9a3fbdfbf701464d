package telegram

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"spotTargetBot/internal/domain"
	"spotTargetBot/internal/engine"
	"spotTargetBot/internal/ports"
)

const (
	pollTimeoutSeconds = 30
	pollRetryDelay     = 5 * time.Second

	// Trades shown by /history.
	historyLimit = 5
)

// CommandBot is the chat-command front end: it long-polls the Bot API for
// commands from the configured operator chat and maps them to engine
// operations. Each command is handled in its own goroutine; the engine's own
// guard serializes conflicting transitions.
type CommandBot struct {
	client *Client
	chatID string
	engine *engine.Engine
	logger ports.Logger
}

// NewCommandBot creates the command front end bound to one operator chat.
func NewCommandBot(client *Client, chatID string, eng *engine.Engine, logger ports.Logger) (*CommandBot, error) {
	if client == nil || eng == nil || logger == nil {
		return nil, fmt.Errorf("missing required dependencies for CommandBot")
	}
	if chatID == "" {
		return nil, fmt.Errorf("chatID is required for CommandBot")
	}
	return &CommandBot{client: client, chatID: chatID, engine: eng, logger: logger}, nil
}

// Run registers the command menu and polls for commands until the context is
// cancelled. Poll failures are logged and retried after a short delay.
func (b *CommandBot) Run(ctx context.Context) error {
	if err := b.client.SetMyCommands(ctx, []BotCommand{
		{Command: "/start", Description: "Start the bot"},
		{Command: "/trade", Description: "Open a position"},
		{Command: "/status", Description: "Check current position"},
		{Command: "/close", Description: "Close the position manually"},
		{Command: "/history", Description: "Show recent trades"},
	}); err != nil {
		// The menu is cosmetic; commands still work without it.
		b.logger.Warn(ctx, "Failed to register command menu", map[string]interface{}{"error": err.Error()})
	}

	b.logger.Info(ctx, "Command bot started", map[string]interface{}{"chatID": b.chatID})

	var offset int64
	for {
		select {
		case <-ctx.Done():
			b.logger.Info(ctx, "Command bot stopped")
			return nil
		default:
		}

		updates, err := b.client.GetUpdates(ctx, offset, pollTimeoutSeconds)
		if err != nil {
			if ctx.Err() != nil {
				b.logger.Info(ctx, "Command bot stopped")
				return nil
			}
			b.logger.Error(ctx, err, "Failed to poll for updates, retrying")
			select {
			case <-time.After(pollRetryDelay):
			case <-ctx.Done():
				return nil
			}
			continue
		}

		for _, update := range updates {
			if update.UpdateID >= offset {
				offset = update.UpdateID + 1
			}
			msg := update.Message
			if msg == nil || msg.Text == "" {
				continue
			}
			if strconv.FormatInt(msg.Chat.ID, 10) != b.chatID {
				b.logger.Warn(ctx, "Ignoring command from unknown chat", map[string]interface{}{"chatID": msg.Chat.ID})
				continue
			}
			go b.handleCommand(ctx, msg.Text)
		}
	}
}

// handleCommand dispatches one inbound command and replies to the operator.
func (b *CommandBot) handleCommand(ctx context.Context, text string) {
	words := strings.Fields(text)
	if len(words) == 0 {
		// Whitespace-only message.
		return
	}
	command := words[0]
	// Strip the "@botname" suffix used in group chats.
	if i := strings.Index(command, "@"); i > 0 {
		command = command[:i]
	}

	var reply string
	switch command {
	case "/start":
		reply = "👋 Hello! I am a spot trading bot.\n" +
			"Available commands:\n" +
			"/trade - open a new position\n" +
			"/status - check the current position\n" +
			"/close - close the position manually\n" +
			"/history - show recent trades"
	case "/trade":
		reply = b.handleTrade(ctx)
	case "/status":
		reply = b.handleStatus(ctx)
	case "/close":
		reply = b.handleClose(ctx)
	case "/history":
		reply = b.handleHistory(ctx)
	default:
		b.logger.Debug(ctx, "Ignoring unknown command", map[string]interface{}{"command": command})
		return
	}

	if err := b.client.SendMessage(ctx, b.chatID, reply); err != nil {
		b.logger.Error(ctx, err, "Failed to send command reply", map[string]interface{}{"command": command})
	}
}

func (b *CommandBot) handleTrade(ctx context.Context) string {
	pos, err := b.engine.Open(ctx)
	if err != nil {
		if errors.Is(err, ports.ErrPositionActive) {
			return "❌ You already have an open position!"
		}
		if errors.Is(err, ports.ErrTradeLimitReached) {
			return "❌ Daily trade limit reached"
		}
		return "❌ Error while opening position"
	}
	return fmt.Sprintf("✅ Position opened!\n"+
		"Trading Pair: %s\n"+
		"Entry Price: %v\n"+
		"Target Price: %v",
		pos.Symbol, pos.EntryPrice, pos.TargetPrice)
}

func (b *CommandBot) handleStatus(ctx context.Context) string {
	snap, err := b.engine.Status(ctx)
	if err != nil {
		if errors.Is(err, ports.ErrNoActivePosition) {
			return "❌ No open positions"
		}
		return "❌ Error while fetching position status"
	}
	return fmt.Sprintf("📊 Current position:\n"+
		"Trading Pair: %s\n"+
		"Entry Price: %v\n"+
		"Current Price: %v\n"+
		"Current Profit: %.2f%%\n"+
		"Target Profit: %v%%",
		snap.Position.Symbol, snap.Position.EntryPrice, snap.CurrentPrice, snap.ProfitPercent, snap.TargetProfit)
}

func (b *CommandBot) handleHistory(ctx context.Context) string {
	trades, err := b.engine.History(ctx, historyLimit)
	if err != nil {
		return "❌ Error while fetching trade history"
	}
	if len(trades) == 0 {
		return "📭 No closed trades yet"
	}
	total, err := b.engine.TotalProfit(ctx)
	if err != nil {
		return "❌ Error while fetching trade history"
	}

	var sb strings.Builder
	sb.WriteString("📜 Recent trades:\n")
	for _, tr := range trades {
		sb.WriteString(fmt.Sprintf("%s  %v → %v  %+.2f%%  (%s)\n",
			tr.ClosedAt.Format("2006-01-02 15:04"), tr.EntryPrice, tr.ExitPrice, tr.ProfitPercent, tr.CloseReason))
	}
	sb.WriteString(fmt.Sprintf("Total profit: %v", total))
	return sb.String()
}

func (b *CommandBot) handleClose(ctx context.Context) string {
	// The engine sends the detailed close notification itself; the reply is
	// just the command acknowledgement.
	if _, err := b.engine.Close(ctx, domain.CloseReasonManual); err != nil {
		if errors.Is(err, ports.ErrNoActivePosition) {
			return "❌ No open positions"
		}
		if errors.Is(err, ports.ErrCloseInProgress) {
			return "❌ Close already in progress"
		}
		return "❌ Error while closing position"
	}
	return "✅ Position closed."
}
