package catalog

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intp(v int) *int { return &v }

func validItem() Item {
	return Item{Name: "Paracetamol 500mg", Type: TypeTablet, Section: "A2", Row: "1", Bin: "M10"}
}

func TestItem_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Item)
		field  string
	}{
		{name: "valid", mutate: func(*Item) {}},
		{name: "missing name", mutate: func(it *Item) { it.Name = "  " }, field: "name"},
		{name: "missing type", mutate: func(it *Item) { it.Type = "" }, field: "type"},
		{name: "missing section", mutate: func(it *Item) { it.Section = "" }, field: "section"},
		{name: "missing row", mutate: func(it *Item) { it.Row = "" }, field: "row"},
		{name: "missing bin", mutate: func(it *Item) { it.Bin = "" }, field: "bin"},
		{name: "unknown source", mutate: func(it *Item) { it.Source = "ER" }, field: "indent_source"},
		{name: "known source", mutate: func(it *Item) { it.Source = SourceMFG }},
		{name: "negative min", mutate: func(it *Item) { it.MinQty = intp(-1) }, field: "min_qty"},
		{name: "min above max is allowed", mutate: func(it *Item) { it.MinQty, it.MaxQty = intp(50), intp(10) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			it := validItem()
			tt.mutate(&it)
			err := it.Validate()
			if tt.field == "" {
				assert.NoError(t, err)
				return
			}
			var verr *ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}

func TestItem_Normalize(t *testing.T) {
	it := Item{Name: " Amoxicillin ", Section: " B1", Row: "3 ", Bin: "M2", Source: " ipd "}
	it.Normalize()

	assert.Equal(t, "Amoxicillin", it.Name)
	assert.Equal(t, "B1-3-M2", it.LocationCode)
	assert.Equal(t, SourceIPD, it.Source)
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, `50\%`, escapeLike("50%"))
	assert.Equal(t, `a\_b`, escapeLike("a_b"))
	assert.Equal(t, "para", escapeLike("para"))
}
