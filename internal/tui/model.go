// Package tui is the terminal front-end: browse the catalogue by shelf and
// put quantities into the indent cart.
package tui

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/Spok95/pharmacy-indent/internal/domain/catalog"
	"github.com/Spok95/pharmacy-indent/internal/domain/indent"
	"github.com/Spok95/pharmacy-indent/internal/locator"
	"github.com/Spok95/pharmacy-indent/internal/realtime"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

type Catalogue interface {
	List(ctx context.Context) ([]catalog.Item, error)
}

type Cart interface {
	Add(ctx context.Context, itemID int64, qty string) (*indent.Request, error)
}

type mode int

const (
	modeBrowse mode = iota
	modeSearch
	modeQuantity
)

type itemsLoadedMsg struct {
	items []catalog.Item
	err   error
}

// searchTickMsg fires after the debounce delay; seq tells whether newer
// input has superseded it.
type searchTickMsg struct {
	seq   int
	query string
}

// changeMsg carries one inventory_items change from the realtime stream.
type changeMsg struct{ change realtime.Change }

type addedMsg struct {
	item catalog.Item
	req  *indent.Request
	err  error
}

type Model struct {
	ctx       context.Context
	catalogue Catalogue
	cart      Cart
	keys      KeyMap
	help      help.Model

	state  locator.State
	mode   mode
	cursor int

	// changes is nil when the catalogue is not followed live. Changes that
	// arrive while a load is in flight are held in pending and replayed on
	// top of the loaded rows.
	changes <-chan realtime.Change
	loading int
	pending []locator.Event

	search    textinput.Model
	searchSeq int
	delay     time.Duration

	qty     textinput.Model
	picking catalog.Item

	status string
	err    error
}

func New(ctx context.Context, catalogue Catalogue, cart Cart, pageSize int, delay time.Duration) Model {
	search := textinput.New()
	search.Prompt = "/ "
	search.Placeholder = "name, type, location or remarks"
	search.CharLimit = 100

	qty := textinput.New()
	qty.Prompt = "Quantity: "
	qty.Placeholder = "e.g. 10 or 5x30's"
	qty.CharLimit = 40

	return Model{
		ctx:       ctx,
		catalogue: catalogue,
		cart:      cart,
		keys:      DefaultKeyMap(),
		help:      help.New(),
		state:     locator.NewState(pageSize),
		search:    search,
		qty:       qty,
		delay:     delay,
		loading:   1,
	}
}

// Follow makes the model apply item changes from ch as they arrive.
func (m Model) Follow(ch <-chan realtime.Change) Model {
	m.changes = ch
	return m
}

func (m Model) Init() tea.Cmd {
	if m.changes == nil {
		return m.load()
	}
	return tea.Batch(m.load(), m.waitForChange())
}

func (m Model) waitForChange() tea.Cmd {
	if m.changes == nil {
		return nil
	}
	ch := m.changes
	return func() tea.Msg {
		c, ok := <-ch
		if !ok {
			return nil
		}
		return changeMsg{change: c}
	}
}

func (m Model) reload() (Model, tea.Cmd) {
	m.loading++
	return m, m.load()
}

func (m Model) load() tea.Cmd {
	return func() tea.Msg {
		items, err := m.catalogue.List(m.ctx)
		return itemsLoadedMsg{items: items, err: err}
	}
}

func (m Model) add(it catalog.Item, qty string) tea.Cmd {
	return func() tea.Msg {
		req, err := m.cart.Add(m.ctx, it.ID, qty)
		return addedMsg{item: it, req: req, err: err}
	}
}

func (m Model) view() locator.View { return m.state.View() }

func (m Model) reduce(e locator.Event) Model {
	m.state = locator.Reduce(m.state, e)
	m.cursor = min(m.cursor, max(len(m.view().Items)-1, 0))
	return m
}

// nextSection cycles ALL -> first section -> ... -> last -> ALL.
func (m Model) nextSection() string {
	opts := append([]string{locator.AllSections}, m.view().Sections...)
	i := slices.Index(opts, m.state.Section)
	return opts[(i+1)%len(opts)]
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case itemsLoadedMsg:
		replay := m.pending
		if m.loading > 0 {
			m.loading--
		}
		if m.loading == 0 {
			m.pending = nil
		}
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.err = nil
		m = m.reduce(locator.Loaded{Items: msg.items})
		for _, e := range replay {
			m = m.reduce(e)
		}
		return m, nil

	case changeMsg:
		e, ok := locator.ChangeEvent(msg.change)
		if !ok {
			var cmd tea.Cmd
			m, cmd = m.reload()
			return m, tea.Batch(cmd, m.waitForChange())
		}
		if m.loading > 0 {
			m.pending = append(slices.Clip(m.pending), e)
			return m, m.waitForChange()
		}
		return m.reduce(e), m.waitForChange()

	case searchTickMsg:
		if msg.seq != m.searchSeq {
			return m, nil
		}
		m.cursor = 0
		return m.reduce(locator.QueryChanged{Query: msg.query}), nil

	case addedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.err = nil
		m.status = fmt.Sprintf("Added %s (%s) to indent", msg.item.Name, msg.req.Qty)
		return m, nil

	case tea.KeyMsg:
		switch m.mode {
		case modeSearch:
			return m.updateSearch(msg)
		case modeQuantity:
			return m.updateQuantity(msg)
		}
		return m.updateBrowse(msg)
	}
	return m, nil
}

func (m Model) updateBrowse(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	v := m.view()
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Search):
		m.mode = modeSearch
		return m, m.search.Focus()
	case key.Matches(msg, m.keys.Section):
		m.cursor = 0
		return m.reduce(locator.SectionChanged{Section: m.nextSection()}), nil
	case key.Matches(msg, m.keys.NextPage):
		if v.Page < v.TotalPages {
			m.cursor = 0
			return m.reduce(locator.PageChanged{Page: v.Page + 1}), nil
		}
	case key.Matches(msg, m.keys.PrevPage):
		if v.Page > 1 {
			m.cursor = 0
			return m.reduce(locator.PageChanged{Page: v.Page - 1}), nil
		}
	case key.Matches(msg, m.keys.Up):
		m.cursor = max(m.cursor-1, 0)
	case key.Matches(msg, m.keys.Down):
		m.cursor = min(m.cursor+1, max(len(v.Items)-1, 0))
	case key.Matches(msg, m.keys.View):
		next := locator.ViewList
		if m.state.Mode == locator.ViewList {
			next = locator.ViewGrid
		}
		return m.reduce(locator.ViewModeChanged{Mode: next}), nil
	case key.Matches(msg, m.keys.Reload):
		return m.reload()
	case key.Matches(msg, m.keys.Select):
		if len(v.Items) == 0 {
			return m, nil
		}
		m.picking = v.Items[m.cursor]
		m.mode = modeQuantity
		m.qty.SetValue("")
		m.status = ""
		return m, m.qty.Focus()
	}
	return m, nil
}

func (m Model) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case msg.Type == tea.KeyCtrlC:
		return m, tea.Quit
	case key.Matches(msg, m.keys.Cancel), msg.Type == tea.KeyEnter:
		m.search.Blur()
		m.mode = modeBrowse
		// apply what was typed without waiting for the tick
		m.searchSeq++
		m.cursor = 0
		return m.reduce(locator.QueryChanged{Query: m.search.Value()}), nil
	}

	before := m.search.Value()
	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	if m.search.Value() == before {
		return m, cmd
	}
	m.searchSeq++
	seq, q := m.searchSeq, m.search.Value()
	tick := tea.Tick(m.delay, func(time.Time) tea.Msg { return searchTickMsg{seq: seq, query: q} })
	return m, tea.Batch(cmd, tick)
}

func (m Model) updateQuantity(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case msg.Type == tea.KeyCtrlC:
		return m, tea.Quit
	case key.Matches(msg, m.keys.Cancel):
		m.qty.Blur()
		m.mode = modeBrowse
		return m, nil
	case msg.Type == tea.KeyEnter:
		q := strings.TrimSpace(m.qty.Value())
		if err := indent.ValidateQty(q); err != nil {
			m.err = err
			return m, nil
		}
		m.qty.Blur()
		m.mode = modeBrowse
		m.err = nil
		return m, m.add(m.picking, q)
	}
	var cmd tea.Cmd
	m.qty, cmd = m.qty.Update(msg)
	return m, cmd
}
