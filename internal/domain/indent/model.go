package indent

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Spok95/pharmacy-indent/internal/domain/catalog"
)

var (
	ErrNotFound   = errors.New("indent: request not found")
	ErrNotPending = errors.New("indent: request is no longer pending")
)

type Status string

const (
	StatusPending  Status = "Pending"
	StatusApproved Status = "Approved"
)

// Request is one cart line. Qty is kept exactly as typed ("10", "5x30's").
type Request struct {
	ID         int64      `json:"id"`
	ItemID     int64      `json:"item_id"`
	Qty        string     `json:"requested_qty"`
	Status     Status     `json:"status"`
	CreatedAt  time.Time  `json:"created_at"`
	ApprovedAt *time.Time `json:"approved_at,omitempty"`
}

// Line is a request joined with its catalogue item.
type Line struct {
	Request
	Item catalog.Item `json:"item"`
}

// ItemPatch carries the item-level fields editable from the cart.
// Nil pointer means "leave as is".
type ItemPatch struct {
	MinQty  *int            `json:"min_qty,omitempty"`
	MaxQty  *int            `json:"max_qty,omitempty"`
	Source  *catalog.Source `json:"indent_source,omitempty"`
	Remarks *string         `json:"remarks,omitempty"`
}

func (p ItemPatch) Empty() bool {
	return p.MinQty == nil && p.MaxQty == nil && p.Source == nil && p.Remarks == nil
}

type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Msg)
}

// ValidateQty rejects a blank quantity; anything else is accepted verbatim.
func ValidateQty(qty string) error {
	if strings.TrimSpace(qty) == "" {
		return &ValidationError{Field: "quantity", Msg: "please enter quantity"}
	}
	return nil
}

// Normalize upper-cases and trims the source tag the way Item.Normalize does.
// The pointee is replaced, not written through.
func (p *ItemPatch) Normalize() {
	if p.Source == nil {
		return
	}
	src := catalog.Source(strings.ToUpper(strings.TrimSpace(string(*p.Source))))
	p.Source = &src
}

func (p ItemPatch) Validate() error {
	if p.Source != nil && *p.Source != "" && !p.Source.Known() {
		return &ValidationError{Field: "indent_source", Msg: fmt.Sprintf("unknown source %q", *p.Source)}
	}
	if p.MinQty != nil && *p.MinQty < 0 {
		return &ValidationError{Field: "min_qty", Msg: "must not be negative"}
	}
	if p.MaxQty != nil && *p.MaxQty < 0 {
		return &ValidationError{Field: "max_qty", Msg: "must not be negative"}
	}
	return nil
}
