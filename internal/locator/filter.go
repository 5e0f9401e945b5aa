package locator

import (
	"slices"
	"strings"

	"github.com/Spok95/pharmacy-indent/internal/domain/catalog"
)

// AllSections is the section selector that lets every item through.
const AllSections = "ALL"

// Matches reports whether q is a case-insensitive substring of the name,
// type, location code or remarks. A blank q matches everything.
func Matches(it catalog.Item, q string) bool {
	q = strings.ToLower(strings.TrimSpace(q))
	if q == "" {
		return true
	}
	for _, f := range []string{it.Name, string(it.Type), it.LocationCode, it.Remarks} {
		if strings.Contains(strings.ToLower(f), q) {
			return true
		}
	}
	return false
}

func inSection(it catalog.Item, section string) bool {
	return section == "" || section == AllSections || it.Section == section
}

// Filter returns the items passing both the text query and the section
// selector, in shelf order. items is not modified.
func Filter(items []catalog.Item, q, section string) []catalog.Item {
	out := make([]catalog.Item, 0, len(items))
	for _, it := range items {
		if inSection(it, section) && Matches(it, q) {
			out = append(out, it)
		}
	}
	Sort(out)
	return out
}

// Paginate slices out page (1-based) of size items. page < 1 reads as 1;
// a page past the end is empty.
func Paginate(items []catalog.Item, page, size int) []catalog.Item {
	if size <= 0 {
		return items
	}
	if page < 1 {
		page = 1
	}
	start := (page - 1) * size
	if start >= len(items) {
		return []catalog.Item{}
	}
	end := min(start+size, len(items))
	return items[start:end]
}

// TotalPages is at least 1 so an empty list still has a page to show.
func TotalPages(total, size int) int {
	if size <= 0 || total == 0 {
		return 1
	}
	return (total + size - 1) / size
}

// Sections lists the distinct non-empty sections in natural order.
func Sections(items []catalog.Item) []string {
	seen := map[string]struct{}{}
	var out []string
	for _, it := range items {
		if it.Section == "" {
			continue
		}
		if _, ok := seen[it.Section]; ok {
			continue
		}
		seen[it.Section] = struct{}{}
		out = append(out, it.Section)
	}
	slices.SortFunc(out, CompareCode)
	return out
}
