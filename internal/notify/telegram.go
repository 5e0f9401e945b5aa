// Package notify tells the pharmacy admin chat about approved indents.
package notify

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Spok95/pharmacy-indent/internal/cart"
	"github.com/Spok95/pharmacy-indent/internal/domain/indent"
	"github.com/Spok95/pharmacy-indent/internal/export"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Sender is satisfied by *tgbotapi.BotAPI.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Telegram is a cart.Observer that reports approvals to one chat, with the
// KEW.PS-8 form attached.
type Telegram struct {
	api    Sender
	chatID int64
	signer export.Signer
	loc    *time.Location
	log    *slog.Logger
}

func NewTelegram(api Sender, chatID int64, signer export.Signer, loc *time.Location, log *slog.Logger) *Telegram {
	if loc == nil {
		loc = time.UTC
	}
	return &Telegram{api: api, chatID: chatID, signer: signer, loc: loc, log: log}
}

func (t *Telegram) send(msg tgbotapi.Chattable) {
	if _, err := t.api.Send(msg); err != nil {
		t.log.Error("telegram send failed", "err", err)
	}
}

func (t *Telegram) RequestCreated(context.Context, indent.Request) {}

func (t *Telegram) RequestDeleted(context.Context, int64) {}

func (t *Telegram) CartApproved(_ context.Context, a cart.Approval) {
	if t.chatID == 0 {
		return
	}
	day := a.At.In(t.loc)
	t.send(tgbotapi.NewMessage(t.chatID, approvalText(a, day)))

	buf := &bytes.Buffer{}
	if err := export.WriteCombinedPDF(buf, a.Cart, t.signer); err != nil {
		t.log.Error("approval form not attached", "err", err)
		return
	}
	doc := tgbotapi.NewDocument(t.chatID, tgbotapi.FileBytes{
		Name:  export.CombinedPDFFilename(day),
		Bytes: buf.Bytes(),
	})
	doc.Caption = "KEW.PS-8 " + day.Format("2006-01-02")
	t.send(doc)
}

func approvalText(a cart.Approval, day time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Indent approved %s: %d request(s)\n", day.Format("2006-01-02 15:04"), len(a.IDs))
	for _, bk := range a.Cart.NonEmpty() {
		fmt.Fprintf(&b, "\n%s (%d)\n", bk.Source, len(bk.Lines))
		for _, l := range bk.Lines {
			fmt.Fprintf(&b, "- %s: %s\n", l.Item.Name, l.Qty)
		}
	}
	return strings.TrimSpace(b.String())
}
