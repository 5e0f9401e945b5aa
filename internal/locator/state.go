package locator

import (
	"maps"
	"slices"

	"github.com/Spok95/pharmacy-indent/internal/domain/catalog"
)

type ViewMode string

const (
	ViewGrid ViewMode = "grid"
	ViewList ViewMode = "list"
)

const DefaultPageSize = 10

// State is the whole catalogue screen. Values are treated as immutable:
// Reduce never writes into the Items map it was given.
type State struct {
	Items    map[int64]catalog.Item
	Loaded   bool
	Query    string
	Section  string
	Page     int
	PageSize int
	Mode     ViewMode
}

func NewState(pageSize int) State {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return State{
		Items:    map[int64]catalog.Item{},
		Section:  AllSections,
		Page:     1,
		PageSize: pageSize,
		Mode:     ViewGrid,
	}
}

// Event is anything Reduce understands.
type Event interface{ locatorEvent() }

type (
	Loaded          struct{ Items []catalog.Item }
	QueryChanged    struct{ Query string }
	SectionChanged  struct{ Section string }
	PageChanged     struct{ Page int }
	PageSizeChanged struct{ Size int }
	ViewModeChanged struct{ Mode ViewMode }
	ItemUpserted    struct{ Item catalog.Item }
	ItemDeleted     struct{ ID int64 }
)

func (Loaded) locatorEvent()          {}
func (QueryChanged) locatorEvent()    {}
func (SectionChanged) locatorEvent()  {}
func (PageChanged) locatorEvent()     {}
func (PageSizeChanged) locatorEvent() {}
func (ViewModeChanged) locatorEvent() {}
func (ItemUpserted) locatorEvent()    {}
func (ItemDeleted) locatorEvent()     {}

// Reduce is the only way State changes. Filter changes send the user back
// to page 1.
func Reduce(s State, e Event) State {
	switch e := e.(type) {
	case Loaded:
		items := make(map[int64]catalog.Item, len(e.Items))
		for _, it := range e.Items {
			items[it.ID] = it
		}
		s.Items = items
		s.Loaded = true
	case QueryChanged:
		if e.Query != s.Query {
			s.Query = e.Query
			s.Page = 1
		}
	case SectionChanged:
		sec := e.Section
		if sec == "" {
			sec = AllSections
		}
		if sec != s.Section {
			s.Section = sec
			s.Page = 1
		}
	case PageChanged:
		s.Page = max(e.Page, 1)
	case PageSizeChanged:
		if e.Size > 0 && e.Size != s.PageSize {
			s.PageSize = e.Size
			s.Page = 1
		}
	case ViewModeChanged:
		if e.Mode == ViewGrid || e.Mode == ViewList {
			s.Mode = e.Mode
		}
	case ItemUpserted:
		items := maps.Clone(s.Items)
		if items == nil {
			items = map[int64]catalog.Item{}
		}
		items[e.Item.ID] = e.Item
		s.Items = items
	case ItemDeleted:
		if _, ok := s.Items[e.ID]; ok {
			items := maps.Clone(s.Items)
			delete(items, e.ID)
			s.Items = items
		}
	}
	return s
}

// View is what a screen renders for a State.
type View struct {
	Items      []catalog.Item `json:"items"`
	Total      int            `json:"total"`
	Page       int            `json:"page"`
	PageSize   int            `json:"page_size"`
	TotalPages int            `json:"total_pages"`
	Query      string         `json:"query"`
	Section    string         `json:"section"`
	Sections   []string       `json:"sections"`
	Mode       ViewMode       `json:"view"`
}

// All returns the cached items in shelf order.
func (s State) All() []catalog.Item {
	items := slices.Collect(maps.Values(s.Items))
	Sort(items)
	return items
}

func (s State) View() View {
	all := s.All()
	filtered := Filter(all, s.Query, s.Section)
	return View{
		Items:      Paginate(filtered, s.Page, s.PageSize),
		Total:      len(filtered),
		Page:       max(s.Page, 1),
		PageSize:   s.PageSize,
		TotalPages: TotalPages(len(filtered), s.PageSize),
		Query:      s.Query,
		Section:    s.Section,
		Sections:   Sections(all),
		Mode:       s.Mode,
	}
}
