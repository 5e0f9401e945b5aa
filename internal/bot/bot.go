// Package bot is the Telegram front-end of the indent cart: search the
// catalogue, add quantities, review and approve the cart, get the forms.
package bot

import (
	"context"
	"log/slog"
	"time"

	"github.com/Spok95/pharmacy-indent/internal/cart"
	"github.com/Spok95/pharmacy-indent/internal/dialog"
	"github.com/Spok95/pharmacy-indent/internal/domain/catalog"
	"github.com/Spok95/pharmacy-indent/internal/domain/indent"
	"github.com/Spok95/pharmacy-indent/internal/export"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// API is the part of *tgbotapi.BotAPI the bot uses.
type API interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

type States interface {
	Get(ctx context.Context, chatID int64) (*dialog.Item, error)
	Set(ctx context.Context, chatID int64, state dialog.State, payload dialog.Payload) error
	Reset(ctx context.Context, chatID int64) error
}

type Items interface {
	Get(ctx context.Context, id int64) (*catalog.Item, error)
	Search(ctx context.Context, q string, limit int) ([]catalog.Item, error)
}

type Cart interface {
	Load(ctx context.Context) (cart.Cart, error)
	Add(ctx context.Context, itemID int64, qty string) (*indent.Request, error)
	Remove(ctx context.Context, id int64, confirmed bool) (cart.Cart, error)
	Approve(ctx context.Context, confirmed bool) (int, cart.Cart, error)
	Location() *time.Location
}

type Bot struct {
	api     API
	log     *slog.Logger
	states  States
	items   Items
	cart    Cart
	columns export.Columns
	signer  export.Signer
	// only this chat is served when set
	adminChat int64
}

func New(api API, log *slog.Logger, states States, items Items, c Cart,
	columns export.Columns, signer export.Signer, adminChatID int64) *Bot {

	return &Bot{
		api: api, log: log, states: states, items: items, cart: c,
		columns: columns, signer: signer, adminChat: adminChatID,
	}
}

func (b *Bot) Run(ctx context.Context, timeoutSec int) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = timeoutSec
	updates := b.api.GetUpdatesChan(u)
	defer b.api.StopReceivingUpdates()
	for {
		select {
		case <-ctx.Done():
			return nil
		case upd, ok := <-updates:
			if !ok {
				return nil
			}
			b.handleUpdate(ctx, upd)
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, upd tgbotapi.Update) {
	switch {
	case upd.Message != nil:
		b.onMessage(ctx, upd.Message)
	case upd.CallbackQuery != nil && upd.CallbackQuery.Message != nil:
		b.handleCallback(ctx, upd.CallbackQuery)
	}
}

func (b *Bot) allowed(chatID int64) bool {
	return b.adminChat == 0 || chatID == b.adminChat
}

func (b *Bot) onMessage(ctx context.Context, msg *tgbotapi.Message) {
	if !b.allowed(msg.Chat.ID) {
		b.send(tgbotapi.NewMessage(msg.Chat.ID, "Access denied."))
		return
	}
	if msg.IsCommand() {
		b.handleCommand(ctx, msg)
		return
	}
	b.handleStateMessage(ctx, msg)
}

func (b *Bot) send(msg tgbotapi.Chattable) tgbotapi.Message {
	m, err := b.api.Send(msg)
	if err != nil {
		b.log.Error("send failed", "err", err)
	}
	return m
}

func (b *Bot) answerCallback(cb *tgbotapi.CallbackQuery, text string) {
	if _, err := b.api.Request(tgbotapi.NewCallback(cb.ID, text)); err != nil {
		b.log.Warn("callback answer failed", "err", err)
	}
}

func (b *Bot) editTextAndClear(chatID int64, messageID int, text string) {
	edit := tgbotapi.NewEditMessageTextAndMarkup(
		chatID, messageID, text,
		tgbotapi.InlineKeyboardMarkup{InlineKeyboard: [][]tgbotapi.InlineKeyboardButton{}},
	)
	b.send(edit)
}

func (b *Bot) setState(ctx context.Context, chatID int64, st dialog.State, p dialog.Payload) {
	if err := b.states.Set(ctx, chatID, st, p); err != nil {
		b.log.Error("dialog state save failed", "chat_id", chatID, "state", st, "err", err)
	}
}

func (b *Bot) resetState(ctx context.Context, chatID int64) {
	if err := b.states.Reset(ctx, chatID); err != nil {
		b.log.Error("dialog state reset failed", "chat_id", chatID, "err", err)
	}
}
