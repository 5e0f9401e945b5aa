package cart

import (
	"github.com/Spok95/pharmacy-indent/internal/domain/catalog"
	"github.com/Spok95/pharmacy-indent/internal/domain/indent"
)

// Edit is the open quantity form, pre-filled from the line and its item.
type Edit struct {
	RequestID int64          `json:"request_id"`
	Qty       string         `json:"quantity"`
	MinQty    *int           `json:"min_qty,omitempty"`
	MaxQty    *int           `json:"max_qty,omitempty"`
	Source    catalog.Source `json:"indent_source"`
	Remarks   string         `json:"remarks"`
}

// Patch is the item-level part of the form. Thresholds left blank are not
// written.
func (e Edit) Patch() indent.ItemPatch {
	src, remarks := e.Source, e.Remarks
	return indent.ItemPatch{MinQty: e.MinQty, MaxQty: e.MaxQty, Source: &src, Remarks: &remarks}
}

type State struct {
	Cart    Cart
	Editing *Edit
}

type Event interface{ cartEvent() }

type (
	Loaded        struct{ Cart Cart }
	EditStarted   struct{ RequestID int64 }
	EditChanged   struct{ Edit Edit }
	EditCancelled struct{}
)

func (Loaded) cartEvent()        {}
func (EditStarted) cartEvent()   {}
func (EditChanged) cartEvent()   {}
func (EditCancelled) cartEvent() {}

func Reduce(s State, e Event) State {
	switch e := e.(type) {
	case Loaded:
		s.Cart = e.Cart
		if s.Editing != nil {
			if _, ok := e.Cart.Line(s.Editing.RequestID); !ok {
				s.Editing = nil
			}
		}
	case EditStarted:
		l, ok := s.Cart.Line(e.RequestID)
		if !ok {
			return s
		}
		s.Editing = &Edit{
			RequestID: l.ID,
			Qty:       l.Qty,
			MinQty:    copyInt(l.Item.MinQty),
			MaxQty:    copyInt(l.Item.MaxQty),
			Source:    l.Item.Source,
			Remarks:   l.Item.Remarks,
		}
	case EditChanged:
		if s.Editing == nil || s.Editing.RequestID != e.Edit.RequestID {
			return s
		}
		ed := e.Edit
		s.Editing = &ed
	case EditCancelled:
		s.Editing = nil
	}
	return s
}

func copyInt(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
