package notify

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Spok95/pharmacy-indent/internal/cart"
	"github.com/Spok95/pharmacy-indent/internal/domain/catalog"
	"github.com/Spok95/pharmacy-indent/internal/domain/indent"
	"github.com/Spok95/pharmacy-indent/internal/export"
	"github.com/Spok95/pharmacy-indent/internal/infra/logger"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSender struct {
	sent []tgbotapi.Chattable
	err  error
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.sent = append(f.sent, c)
	return tgbotapi.Message{}, f.err
}

func approval() cart.Approval {
	c := cart.Group([]indent.Line{
		{Request: indent.Request{ID: 1, Qty: "10"}, Item: catalog.Item{Name: "Ceftriaxone 1g", Source: catalog.SourceIPD}},
		{Request: indent.Request{ID: 2, Qty: "5x30's"}, Item: catalog.Item{Name: "Paracetamol 500mg", Source: catalog.SourceOPD}},
	})
	return cart.Approval{IDs: []int64{1, 2}, Cart: c, At: time.Date(2026, 3, 2, 1, 15, 0, 0, time.UTC)}
}

func TestTelegram_CartApproved(t *testing.T) {
	api := &fakeSender{}
	myt := time.FixedZone("MYT", 8*3600)
	n := NewTelegram(api, 42, export.Signer{Name: "Muhd Redzuan"}, myt, logger.Discard())

	n.CartApproved(context.Background(), approval())

	require.Len(t, api.sent, 2)
	msg, ok := api.sent[0].(tgbotapi.MessageConfig)
	require.True(t, ok)
	assert.Equal(t, int64(42), msg.ChatID)
	assert.Contains(t, msg.Text, "Indent approved 2026-03-02 09:15: 2 request(s)")
	assert.Contains(t, msg.Text, "IPD (1)")
	assert.Contains(t, msg.Text, "- Paracetamol 500mg: 5x30's")

	doc, ok := api.sent[1].(tgbotapi.DocumentConfig)
	require.True(t, ok)
	file, ok := doc.File.(tgbotapi.FileBytes)
	require.True(t, ok)
	assert.Equal(t, "Indent_ED_2026-03-02.pdf", file.Name)
	assert.NotEmpty(t, file.Bytes)
}

func TestTelegram_NoChatConfigured(t *testing.T) {
	api := &fakeSender{}
	NewTelegram(api, 0, export.Signer{}, nil, logger.Discard()).CartApproved(context.Background(), approval())
	assert.Empty(t, api.sent)
}

func TestTelegram_SendErrorIsLogged(t *testing.T) {
	api := &fakeSender{err: errors.New("forbidden")}
	n := NewTelegram(api, 42, export.Signer{}, nil, logger.Discard())
	assert.NotPanics(t, func() { n.CartApproved(context.Background(), approval()) })
	assert.Len(t, api.sent, 2)
}
