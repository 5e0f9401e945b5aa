package catalog

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var ErrNotFound = errors.New("catalog: item not found")

// Source is the requisition source an item is normally indented from.
type Source string

const (
	SourceIPD Source = "IPD" // in-patient pharmacy
	SourceOPD Source = "OPD" // out-patient pharmacy
	SourceMFG Source = "MFG" // manufacturing / compounding
)

// Sources lists the known tags in display order.
var Sources = []Source{SourceIPD, SourceOPD, SourceMFG}

func (s Source) Known() bool {
	switch s {
	case SourceIPD, SourceOPD, SourceMFG:
		return true
	}
	return false
}

type ItemType string

const (
	TypeTablet    ItemType = "Tablet"
	TypeInjection ItemType = "Injection"
	TypeSyrup     ItemType = "Syrup"
	TypeEyeDrops  ItemType = "Eye Drops"
	TypeEarDrops  ItemType = "Ear Drops"
	TypeOthers    ItemType = "Others"
)

type Item struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Type         ItemType  `json:"type"`
	Section      string    `json:"section"`
	Row          string    `json:"row"`
	Bin          string    `json:"bin"`
	LocationCode string    `json:"location_code"`
	MinQty       *int      `json:"min_qty"`
	MaxQty       *int      `json:"max_qty"`
	Source       Source    `json:"indent_source"`
	Remarks      string    `json:"remarks"`
	ImageURL     string    `json:"image_url"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// LocationCode derives the shelf code shown on labels, e.g. "A2-1-M10".
func LocationCode(section, row, bin string) string {
	return section + "-" + row + "-" + bin
}

// Normalize trims the free-text fields and fills in the derived location code.
func (it *Item) Normalize() {
	it.Name = strings.TrimSpace(it.Name)
	it.Section = strings.TrimSpace(it.Section)
	it.Row = strings.TrimSpace(it.Row)
	it.Bin = strings.TrimSpace(it.Bin)
	it.Remarks = strings.TrimSpace(it.Remarks)
	it.ImageURL = strings.TrimSpace(it.ImageURL)
	it.Source = Source(strings.ToUpper(strings.TrimSpace(string(it.Source))))
	it.LocationCode = LocationCode(it.Section, it.Row, it.Bin)
}

// ValidationError reports a form field that blocks submission.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Msg)
}

// Validate checks the required inventory form fields. Min/max ordering is
// deliberately left to the operator.
func (it Item) Validate() error {
	switch {
	case strings.TrimSpace(it.Name) == "":
		return &ValidationError{Field: "name", Msg: "please enter drug name"}
	case strings.TrimSpace(string(it.Type)) == "":
		return &ValidationError{Field: "type", Msg: "please select type"}
	case strings.TrimSpace(it.Section) == "":
		return &ValidationError{Field: "section", Msg: "required"}
	case strings.TrimSpace(it.Row) == "":
		return &ValidationError{Field: "row", Msg: "required"}
	case strings.TrimSpace(it.Bin) == "":
		return &ValidationError{Field: "bin", Msg: "required"}
	}
	if it.Source != "" && !it.Source.Known() {
		return &ValidationError{Field: "indent_source", Msg: fmt.Sprintf("unknown source %q", it.Source)}
	}
	if it.MinQty != nil && *it.MinQty < 0 {
		return &ValidationError{Field: "min_qty", Msg: "must not be negative"}
	}
	if it.MaxQty != nil && *it.MaxQty < 0 {
		return &ValidationError{Field: "max_qty", Msg: "must not be negative"}
	}
	return nil
}
