// Package notify sends best-effort admin notifications to a Telegram
// chat. Send failures are logged and swallowed: a dropped notification
// must never fail the ledger operation that produced it.
package notify

import (
	"context"
	"fmt"
	"log/slog"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Spok95/atk-inventory/internal/domain/items"
	"github.com/Spok95/atk-inventory/internal/domain/requests"
)

type Telegram struct {
	bot    *tgbotapi.BotAPI
	chatID int64
	log    *slog.Logger
}

func NewTelegram(token string, chatID int64, log *slog.Logger) (*Telegram, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}
	return &Telegram{bot: bot, chatID: chatID, log: log}, nil
}

func (t *Telegram) RequestSubmitted(_ context.Context, r requests.Request, it items.Item) {
	t.send(fmt.Sprintf(
		"New request #%d: %s (%s) asks for %d %s of %s",
		r.ID, r.RequesterName, r.Department, r.Qty, it.Unit, it.Name,
	))
}

func (t *Telegram) LowStock(_ context.Context, it items.Item) {
	label := "low"
	if it.Status() == items.StatusCritical {
		label = "OUT OF STOCK"
	}
	t.send(fmt.Sprintf(
		"Stock %s: %s at %d %s (minimum %d)",
		label, it.Name, it.Stock, it.Unit, it.MinStock,
	))
}

func (t *Telegram) send(text string) {
	if _, err := t.bot.Send(tgbotapi.NewMessage(t.chatID, text)); err != nil {
		t.log.Warn("telegram notification failed", "err", err)
	}
}
