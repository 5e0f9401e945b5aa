package bot

import (
	"context"
	"testing"
	"time"

	"github.com/Spok95/pharmacy-indent/internal/cart"
	"github.com/Spok95/pharmacy-indent/internal/dialog"
	"github.com/Spok95/pharmacy-indent/internal/domain/catalog"
	"github.com/Spok95/pharmacy-indent/internal/domain/indent"
	"github.com/Spok95/pharmacy-indent/internal/export"
	"github.com/Spok95/pharmacy-indent/internal/infra/logger"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAPI struct {
	sent     []tgbotapi.Chattable
	answered []string
	updates  chan tgbotapi.Update
}

func (f *fakeAPI) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.sent = append(f.sent, c)
	return tgbotapi.Message{MessageID: len(f.sent)}, nil
}

func (f *fakeAPI) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	if cb, ok := c.(tgbotapi.CallbackConfig); ok {
		f.answered = append(f.answered, cb.Text)
	}
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (f *fakeAPI) GetUpdatesChan(tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel { return f.updates }
func (f *fakeAPI) StopReceivingUpdates()                                        {}

func (f *fakeAPI) last() tgbotapi.Chattable { return f.sent[len(f.sent)-1] }

func (f *fakeAPI) lastText(t *testing.T) string {
	t.Helper()
	switch m := f.last().(type) {
	case tgbotapi.MessageConfig:
		return m.Text
	case tgbotapi.EditMessageTextConfig:
		return m.Text
	}
	t.Fatalf("last sent is %T", f.last())
	return ""
}

type memStates struct{ m map[int64]dialog.Item }

func (s *memStates) Get(_ context.Context, chatID int64) (*dialog.Item, error) {
	if it, ok := s.m[chatID]; ok {
		return &it, nil
	}
	return &dialog.Item{ChatID: chatID, State: dialog.StateIdle, Payload: dialog.Payload{}}, nil
}

func (s *memStates) Set(_ context.Context, chatID int64, st dialog.State, p dialog.Payload) error {
	s.m[chatID] = dialog.Item{ChatID: chatID, State: st, Payload: p}
	return nil
}

func (s *memStates) Reset(_ context.Context, chatID int64) error {
	delete(s.m, chatID)
	return nil
}

type fakeItems struct{ items []catalog.Item }

func (f *fakeItems) Get(_ context.Context, id int64) (*catalog.Item, error) {
	for _, it := range f.items {
		if it.ID == id {
			return &it, nil
		}
	}
	return nil, catalog.ErrNotFound
}

func (f *fakeItems) Search(_ context.Context, q string, _ int) ([]catalog.Item, error) {
	var out []catalog.Item
	for _, it := range f.items {
		if it.Name == q {
			out = append(out, it)
		}
	}
	return out, nil
}

type fakeCart struct {
	lines    []indent.Line
	nextID   int64
	approved int
	removed  []int64
}

func (f *fakeCart) Load(context.Context) (cart.Cart, error) { return cart.Group(f.lines), nil }

func (f *fakeCart) Add(_ context.Context, itemID int64, qty string) (*indent.Request, error) {
	if err := indent.ValidateQty(qty); err != nil {
		return nil, err
	}
	f.nextID++
	req := indent.Request{ID: f.nextID, ItemID: itemID, Qty: qty, Status: indent.StatusPending}
	f.lines = append(f.lines, indent.Line{Request: req, Item: catalog.Item{ID: itemID, Name: "Paracetamol", Source: catalog.SourceIPD}})
	return &req, nil
}

func (f *fakeCart) Remove(_ context.Context, id int64, confirmed bool) (cart.Cart, error) {
	if !confirmed {
		return cart.Cart{}, cart.ErrNotConfirmed
	}
	for i, l := range f.lines {
		if l.ID == id {
			f.lines = append(f.lines[:i], f.lines[i+1:]...)
			f.removed = append(f.removed, id)
			return cart.Group(f.lines), nil
		}
	}
	return cart.Cart{}, indent.ErrNotFound
}

func (f *fakeCart) Approve(_ context.Context, confirmed bool) (int, cart.Cart, error) {
	if !confirmed {
		return 0, cart.Cart{}, cart.ErrNotConfirmed
	}
	f.approved = len(f.lines)
	c := cart.Group(f.lines)
	f.lines = nil
	return f.approved, c, nil
}

func (f *fakeCart) Location() *time.Location { return time.UTC }

const chatID = 100

func newTestBot(admin int64) (*Bot, *fakeAPI, *memStates, *fakeCart) {
	api := &fakeAPI{}
	states := &memStates{m: map[int64]dialog.Item{}}
	items := &fakeItems{items: []catalog.Item{{ID: 7, Name: "Paracetamol", LocationCode: "A1-1-M1"}}}
	c := &fakeCart{}
	b := New(api, logger.Discard(), states, items, c, export.ColumnsBasic, export.Signer{}, admin)
	return b, api, states, c
}

func text(s string) tgbotapi.Update {
	return tgbotapi.Update{Message: &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: chatID}, Text: s}}
}

func command(s string) tgbotapi.Update {
	u := text(s)
	end := len(s)
	for i, r := range s {
		if r == ' ' {
			end = i
			break
		}
	}
	u.Message.Entities = []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: end}}
	return u
}

func callback(data string) tgbotapi.Update {
	return tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
		ID:      "cb",
		Data:    data,
		Message: &tgbotapi.Message{MessageID: 55, Chat: &tgbotapi.Chat{ID: chatID}},
	}}
}

func TestBot_SearchAddFlow(t *testing.T) {
	b, api, states, c := newTestBot(0)
	ctx := context.Background()

	b.handleUpdate(ctx, text("Paracetamol"))
	m, ok := api.last().(tgbotapi.MessageConfig)
	require.True(t, ok)
	kb, ok := m.ReplyMarkup.(tgbotapi.InlineKeyboardMarkup)
	require.True(t, ok)
	assert.Equal(t, "add:7", *kb.InlineKeyboard[0][0].CallbackData)

	b.handleUpdate(ctx, callback("add:7"))
	assert.Equal(t, dialog.StateAwaitQty, states.m[chatID].State)
	assert.Contains(t, api.lastText(t), "Quantity for Paracetamol (A1-1-M1)")

	b.handleUpdate(ctx, text("   "))
	assert.Contains(t, api.lastText(t), "Quantity is required")
	assert.Equal(t, dialog.StateAwaitQty, states.m[chatID].State, "still waiting")

	b.handleUpdate(ctx, text("5x30's"))
	assert.Equal(t, "Added Paracetamol (5x30's) to the indent cart.", api.lastText(t))
	assert.NotContains(t, states.m, int64(chatID))
	require.Len(t, c.lines, 1)
	assert.Equal(t, "5x30's", c.lines[0].Qty)
}

func TestBot_SearchCommandNoResults(t *testing.T) {
	b, api, _, _ := newTestBot(0)
	b.handleUpdate(context.Background(), command("/search Aspirin"))
	assert.Equal(t, `No drugs found for "Aspirin".`, api.lastText(t))
}

func TestBot_CartAndRemoveNeedsConfirmation(t *testing.T) {
	b, api, _, c := newTestBot(0)
	ctx := context.Background()
	_, err := c.Add(ctx, 7, "10")
	require.NoError(t, err)

	b.handleUpdate(ctx, command("/cart"))
	assert.Contains(t, api.lastText(t), "1. Paracetamol - 10")
	assert.Contains(t, api.lastText(t), "IPD")

	b.handleUpdate(ctx, callback("rm:1"))
	assert.Equal(t, "Remove this request from the cart?", api.lastText(t))
	assert.Len(t, c.lines, 1, "nothing removed before confirmation")

	b.handleUpdate(ctx, callback("rm:yes:1"))
	assert.Equal(t, []int64{1}, c.removed)
	assert.Equal(t, "The indent cart is empty.", api.lastText(t))

	b.handleUpdate(ctx, callback("rm:yes:1"))
	assert.Equal(t, "That request is no longer pending", api.answered[len(api.answered)-1])
}

func TestBot_ApproveNeedsConfirmation(t *testing.T) {
	b, api, _, c := newTestBot(0)
	ctx := context.Background()
	_, _ = c.Add(ctx, 7, "10")
	_, _ = c.Add(ctx, 7, "20")

	b.handleUpdate(ctx, callback("approve"))
	assert.Zero(t, c.approved)

	b.handleUpdate(ctx, callback("approve:yes"))
	assert.Equal(t, 2, c.approved)
	assert.Equal(t, "Approved 2 request(s).", api.lastText(t))
}

func TestBot_Export(t *testing.T) {
	b, api, _, c := newTestBot(0)
	ctx := context.Background()

	b.handleUpdate(ctx, command("/export"))
	assert.Contains(t, api.lastText(t), "nothing to export")

	_, _ = c.Add(ctx, 7, "10")
	before := len(api.sent)
	b.handleUpdate(ctx, command("/export"))
	require.Len(t, api.sent, before+2)

	var names []string
	for _, s := range api.sent[before:] {
		doc, ok := s.(tgbotapi.DocumentConfig)
		require.True(t, ok)
		names = append(names, doc.File.(tgbotapi.FileBytes).Name)
	}
	day := time.Now().UTC()
	assert.Equal(t, []string{export.CombinedPDFFilename(day), export.CartFilename(day)}, names)
}

func TestBot_OtherChatsDenied(t *testing.T) {
	b, api, _, c := newTestBot(999)
	ctx := context.Background()

	b.handleUpdate(ctx, text("Paracetamol"))
	assert.Equal(t, "Access denied.", api.lastText(t))

	b.handleUpdate(ctx, callback("approve:yes"))
	assert.Zero(t, c.approved)
}

func TestBot_Cancel(t *testing.T) {
	b, api, states, _ := newTestBot(0)
	ctx := context.Background()

	b.handleUpdate(ctx, callback("add:7"))
	require.Equal(t, dialog.StateAwaitQty, states.m[chatID].State)

	b.handleUpdate(ctx, callback("nav:cancel"))
	assert.NotContains(t, states.m, int64(chatID))
	assert.Equal(t, "Cancelled.", api.lastText(t))
}

func TestBot_RunStopsOnCancel(t *testing.T) {
	b, api, _, _ := newTestBot(0)
	api.updates = make(chan tgbotapi.Update, 1)
	api.updates <- command("/help")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- b.Run(ctx, 1) }()

	require.Eventually(t, func() bool { return len(api.updates) == 0 }, time.Second, 5*time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not return")
	}
}

func TestBot_SearchPromptsMatchNameSearch(t *testing.T) {
	b, api, states, _ := newTestBot(0)
	ctx := context.Background()

	b.handleUpdate(ctx, command("/help"))
	assert.Contains(t, api.lastText(t), "part of its name")
	assert.NotContains(t, api.lastText(t), "remarks")

	b.handleUpdate(ctx, command("/search"))
	assert.Equal(t, "Send part of the drug name.", api.lastText(t))
	assert.Equal(t, dialog.StateSearch, states.m[chatID].State)
}
