package bot

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Spok95/pharmacy-indent/internal/cart"
	"github.com/Spok95/pharmacy-indent/internal/dialog"
	"github.com/Spok95/pharmacy-indent/internal/domain/catalog"
	"github.com/Spok95/pharmacy-indent/internal/domain/indent"
	"github.com/Spok95/pharmacy-indent/internal/export"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const helpText = `Commands:
/search <text> - find a drug by part of its name
/cart - show the pending indent cart
/export - get the cart as KEW.PS-8 PDF and XLSX
/cancel - drop the current step`

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	switch msg.Command() {
	case "start":
		b.resetState(ctx, chatID)
		m := tgbotapi.NewMessage(chatID, "Drug locator and indent cart. Send a drug name to search.")
		m.ReplyMarkup = mainReplyKeyboard()
		b.send(m)
	case "help":
		b.send(tgbotapi.NewMessage(chatID, helpText))
	case "search":
		if q := strings.TrimSpace(msg.CommandArguments()); q != "" {
			b.search(ctx, chatID, q)
			return
		}
		b.askSearch(ctx, chatID)
	case "cart":
		b.showCart(ctx, chatID, nil)
	case "export":
		b.exportCart(ctx, chatID)
	case "cancel":
		b.resetState(ctx, chatID)
		b.send(tgbotapi.NewMessage(chatID, "Cancelled."))
	default:
		b.send(tgbotapi.NewMessage(chatID, "Unknown command. Send /help"))
	}
}

func (b *Bot) handleStateMessage(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	text := strings.TrimSpace(msg.Text)

	switch text {
	case btnSearch:
		b.askSearch(ctx, chatID)
		return
	case btnCart:
		b.showCart(ctx, chatID, nil)
		return
	case btnExport:
		b.exportCart(ctx, chatID)
		return
	}

	st, err := b.states.Get(ctx, chatID)
	if err != nil {
		b.log.Error("dialog state load failed", "chat_id", chatID, "err", err)
		st = &dialog.Item{ChatID: chatID, State: dialog.StateIdle}
	}

	switch st.State {
	case dialog.StateAwaitQty:
		b.addQty(ctx, chatID, st.Payload, text)
	default:
		// anything typed while idle is a search
		if text != "" {
			b.search(ctx, chatID, text)
		}
	}
}

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	data := cb.Data
	chatID := cb.Message.Chat.ID
	mid := cb.Message.MessageID

	if !b.allowed(chatID) {
		b.answerCallback(cb, "Access denied")
		return
	}

	switch {
	case data == "nav:cancel":
		b.resetState(ctx, chatID)
		b.editTextAndClear(chatID, mid, "Cancelled.")
		b.answerCallback(cb, "Cancelled")

	case strings.HasPrefix(data, "add:"):
		id, err := strconv.ParseInt(strings.TrimPrefix(data, "add:"), 10, 64)
		if err != nil {
			b.answerCallback(cb, "Bad button")
			return
		}
		b.answerCallback(cb, "")
		b.askQty(ctx, chatID, id)

	case data == "approve":
		edit := tgbotapi.NewEditMessageTextAndMarkup(chatID, mid,
			"Approve every pending request? This cannot be undone.", confirmKeyboard("approve:yes"))
		b.send(edit)
		b.answerCallback(cb, "")

	case data == "approve:yes":
		n, _, err := b.cart.Approve(ctx, true)
		if err != nil {
			b.log.Error("approve failed", "err", err)
			b.answerCallback(cb, "Approve failed")
			return
		}
		b.editTextAndClear(chatID, mid, fmt.Sprintf("Approved %d request(s).", n))
		b.answerCallback(cb, "Approved")

	case strings.HasPrefix(data, "rm:yes:"):
		id, err := strconv.ParseInt(strings.TrimPrefix(data, "rm:yes:"), 10, 64)
		if err != nil {
			b.answerCallback(cb, "Bad button")
			return
		}
		_, err = b.cart.Remove(ctx, id, true)
		switch {
		case errors.Is(err, indent.ErrNotFound), errors.Is(err, indent.ErrNotPending):
			b.answerCallback(cb, "That request is no longer pending")
		case err != nil:
			b.log.Error("remove failed", "id", id, "err", err)
			b.answerCallback(cb, "Remove failed")
			return
		default:
			b.answerCallback(cb, "Removed")
		}
		b.showCart(ctx, chatID, &mid)

	case strings.HasPrefix(data, "rm:"):
		id, err := strconv.ParseInt(strings.TrimPrefix(data, "rm:"), 10, 64)
		if err != nil {
			b.answerCallback(cb, "Bad button")
			return
		}
		edit := tgbotapi.NewEditMessageTextAndMarkup(chatID, mid,
			"Remove this request from the cart?", confirmKeyboard(fmt.Sprintf("rm:yes:%d", id)))
		b.send(edit)
		b.answerCallback(cb, "")

	default:
		b.answerCallback(cb, "")
	}
}

func (b *Bot) askSearch(ctx context.Context, chatID int64) {
	b.setState(ctx, chatID, dialog.StateSearch, dialog.Payload{})
	m := tgbotapi.NewMessage(chatID, "Send part of the drug name.")
	m.ReplyMarkup = cancelKeyboard()
	b.send(m)
}

func (b *Bot) search(ctx context.Context, chatID int64, q string) {
	items, err := b.items.Search(ctx, q, catalog.DefaultSearchLimit)
	if err != nil {
		b.log.Error("search failed", "q", q, "err", err)
		b.send(tgbotapi.NewMessage(chatID, "Search failed, try again."))
		return
	}
	b.resetState(ctx, chatID)
	if len(items) == 0 {
		b.send(tgbotapi.NewMessage(chatID, fmt.Sprintf("No drugs found for %q.", q)))
		return
	}
	m := tgbotapi.NewMessage(chatID, fmt.Sprintf("Found %d. Pick one to add to the indent:", len(items)))
	m.ReplyMarkup = resultsKeyboard(items)
	b.send(m)
}

func (b *Bot) askQty(ctx context.Context, chatID int64, itemID int64) {
	it, err := b.items.Get(ctx, itemID)
	if errors.Is(err, catalog.ErrNotFound) {
		b.send(tgbotapi.NewMessage(chatID, "That drug is no longer in the catalogue."))
		return
	}
	if err != nil {
		b.log.Error("item load failed", "id", itemID, "err", err)
		b.send(tgbotapi.NewMessage(chatID, "Could not load the drug, try again."))
		return
	}
	b.setState(ctx, chatID, dialog.StateAwaitQty, dialog.Payload{"item_id": it.ID, "name": it.Name})
	m := tgbotapi.NewMessage(chatID, fmt.Sprintf("Quantity for %s (%s)?\nFor example 10 or 5x30's.", it.Name, it.LocationCode))
	m.ReplyMarkup = cancelKeyboard()
	b.send(m)
}

func (b *Bot) addQty(ctx context.Context, chatID int64, p dialog.Payload, qty string) {
	itemID, ok := dialog.GetInt64(p, "item_id")
	if !ok {
		b.resetState(ctx, chatID)
		b.send(tgbotapi.NewMessage(chatID, "Pick a drug first: send its name to search."))
		return
	}
	req, err := b.cart.Add(ctx, itemID, qty)
	var verr *indent.ValidationError
	if errors.As(err, &verr) {
		// stay in the same step
		b.send(tgbotapi.NewMessage(chatID, "Quantity is required. Type it again or /cancel."))
		return
	}
	if err != nil {
		b.log.Error("add to cart failed", "item_id", itemID, "err", err)
		b.send(tgbotapi.NewMessage(chatID, "Could not add to the cart, try again."))
		return
	}
	b.resetState(ctx, chatID)
	name, _ := dialog.GetString(p, "name")
	b.send(tgbotapi.NewMessage(chatID, fmt.Sprintf("Added %s (%s) to the indent cart.", name, req.Qty)))
}

func cartText(c cart.Cart) string {
	if c.Empty() {
		return "The indent cart is empty."
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "Indent cart: %d request(s)\n", c.Total)
	for _, bk := range c.NonEmpty() {
		fmt.Fprintf(&sb, "\n%s\n", bk.Source)
		for i, l := range bk.Lines {
			fmt.Fprintf(&sb, "%d. %s - %s [%s]\n", i+1, l.Item.Name, l.Qty, l.Item.LocationCode)
		}
	}
	return sb.String()
}

// showCart sends the cart, or rewrites message editID in place.
func (b *Bot) showCart(ctx context.Context, chatID int64, editID *int) {
	c, err := b.cart.Load(ctx)
	if err != nil {
		b.log.Error("cart load failed", "err", err)
		b.send(tgbotapi.NewMessage(chatID, "Could not load the cart, try again."))
		return
	}
	text := cartText(c)
	kb := tgbotapi.InlineKeyboardMarkup{InlineKeyboard: [][]tgbotapi.InlineKeyboardButton{}}
	if !c.Empty() {
		kb = cartKeyboard(c)
	}
	if editID != nil {
		b.send(tgbotapi.NewEditMessageTextAndMarkup(chatID, *editID, text, kb))
		return
	}
	m := tgbotapi.NewMessage(chatID, text)
	if !c.Empty() {
		m.ReplyMarkup = kb
	}
	b.send(m)
}

func (b *Bot) exportCart(ctx context.Context, chatID int64) {
	c, err := b.cart.Load(ctx)
	if err != nil {
		b.log.Error("cart load failed", "err", err)
		b.send(tgbotapi.NewMessage(chatID, "Could not load the cart, try again."))
		return
	}
	if c.Empty() {
		b.send(tgbotapi.NewMessage(chatID, "The indent cart is empty, nothing to export."))
		return
	}
	day := time.Now().In(b.cart.Location())

	pdf := &bytes.Buffer{}
	if err := export.WriteCombinedPDF(pdf, c, b.signer); err != nil {
		b.log.Error("pdf export failed", "err", err)
	} else {
		b.send(tgbotapi.NewDocument(chatID, tgbotapi.FileBytes{Name: export.CombinedPDFFilename(day), Bytes: pdf.Bytes()}))
	}

	xlsx := &bytes.Buffer{}
	if err := export.WriteWorkbook(xlsx, c, b.columns); err != nil {
		b.log.Error("xlsx export failed", "err", err)
	} else {
		b.send(tgbotapi.NewDocument(chatID, tgbotapi.FileBytes{Name: export.CartFilename(day), Bytes: xlsx.Bytes()}))
	}
}
