package locator

import (
	"fmt"
	"testing"

	"github.com/Spok95/pharmacy-indent/internal/domain/catalog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func item(id int64, name, section string) catalog.Item {
	it := catalog.Item{ID: id, Name: name, Type: catalog.TypeTablet, Section: section, Row: "1", Bin: "M1"}
	it.Normalize()
	return it
}

func TestFilter_Text(t *testing.T) {
	items := []catalog.Item{
		item(1, "Paracetamol 500mg", "A1"),
		item(2, "Amoxicillin", "A1"),
	}

	got := Filter(items, "para", AllSections)
	require.Len(t, got, 1)
	assert.Equal(t, "Paracetamol 500mg", got[0].Name)

	assert.Len(t, Filter(items, "", AllSections), 2)
	assert.Len(t, Filter(items, "   ", AllSections), 2)
}

func TestMatches_Fields(t *testing.T) {
	it := catalog.Item{Name: "Chloramphenicol", Type: catalog.TypeEyeDrops, LocationCode: "B3-2-M4", Remarks: "Keep in fridge"}

	tests := []struct {
		q    string
		want bool
	}{
		{"CHLOR", true},
		{"eye drops", true},
		{"b3-2", true},
		{"FRIDGE", true},
		{"syrup", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Matches(it, tt.q), tt.q)
	}
}

func TestFilter_Section(t *testing.T) {
	items := []catalog.Item{item(1, "a", "A1"), item(2, "b", "A10"), item(3, "c", "A1")}

	assert.Len(t, Filter(items, "", "A1"), 2)
	assert.Len(t, Filter(items, "", "A"), 0)
	assert.Len(t, Filter(items, "", AllSections), 3)
}

func TestPaginate(t *testing.T) {
	var items []catalog.Item
	for i := 1; i <= 25; i++ {
		items = append(items, item(int64(i), fmt.Sprintf("drug %02d", i), "A1"))
	}
	items = Filter(items, "", AllSections)

	p1 := Paginate(items, 1, 10)
	require.Len(t, p1, 10)
	assert.Equal(t, int64(1), p1[0].ID)
	assert.Equal(t, int64(10), p1[9].ID)

	p3 := Paginate(items, 3, 10)
	require.Len(t, p3, 5)
	assert.Equal(t, int64(21), p3[0].ID)
	assert.Equal(t, int64(25), p3[4].ID)

	assert.Empty(t, Paginate(items, 4, 10))
	assert.Equal(t, p1, Paginate(items, 0, 10))
	assert.Equal(t, 3, TotalPages(25, 10))
	assert.Equal(t, 1, TotalPages(0, 10))
}

func TestSections(t *testing.T) {
	items := []catalog.Item{item(1, "a", "A10"), item(2, "b", "A2"), item(3, "c", "A1"), item(4, "d", "A2")}
	assert.Equal(t, []string{"A1", "A2", "A10"}, Sections(items))
}
