package tui

import (
	"fmt"
	"strings"

	"github.com/Spok95/pharmacy-indent/internal/domain/catalog"
	"github.com/Spok95/pharmacy-indent/internal/locator"
	"github.com/charmbracelet/lipgloss"
)

func (m Model) View() string {
	v := m.view()
	var b strings.Builder

	b.WriteString(titleStyle.Render("Drug Locator"))
	b.WriteString(mutedStyle.Render(fmt.Sprintf("  %d item(s)", v.Total)))
	b.WriteString("\n\n")

	if m.mode == modeSearch {
		b.WriteString(m.search.View())
	} else if v.Query != "" {
		b.WriteString(mutedStyle.Render("search: " + v.Query))
	}
	b.WriteString("\n")
	b.WriteString(sectionBar(v))
	b.WriteString("\n\n")

	if !m.state.Loaded && m.err == nil {
		b.WriteString(mutedStyle.Render("Loading…"))
	} else if len(v.Items) == 0 {
		b.WriteString(mutedStyle.Render("No drugs found"))
	} else if v.Mode == locator.ViewList {
		b.WriteString(m.listView(v.Items))
	} else {
		b.WriteString(m.gridView(v.Items))
	}
	b.WriteString("\n\n")
	b.WriteString(mutedStyle.Render(fmt.Sprintf("page %d/%d", v.Page, v.TotalPages)))
	b.WriteString("\n")

	if m.mode == modeQuantity {
		b.WriteString("\n" + titleStyle.Render(m.picking.Name) + " " + mutedStyle.Render(m.picking.LocationCode) + "\n")
		b.WriteString(m.qty.View() + "\n")
	}
	if m.err != nil {
		b.WriteString(errorStyle.Render(m.err.Error()) + "\n")
	} else if m.status != "" {
		b.WriteString(okStyle.Render(m.status) + "\n")
	}
	b.WriteString("\n" + m.help.View(m.keys))
	return b.String()
}

func sectionBar(v locator.View) string {
	tabs := make([]string, 0, len(v.Sections)+1)
	for _, s := range append([]string{locator.AllSections}, v.Sections...) {
		label := s
		if s != locator.AllSections {
			label = "Section " + s
		}
		if s == v.Section {
			tabs = append(tabs, activeTab.Render(label))
		} else {
			tabs = append(tabs, mutedStyle.Render(label))
		}
	}
	return strings.Join(tabs, "  ")
}

func itemLine(it catalog.Item) string {
	return fmt.Sprintf("%-12s %-40s %-10s %s", it.LocationCode, it.Name, it.Type, it.Remarks)
}

func (m Model) listView(items []catalog.Item) string {
	lines := make([]string, len(items))
	for i, it := range items {
		prefix := "  "
		line := itemLine(it)
		if i == m.cursor {
			prefix = selectedStyle.Render("> ")
			line = selectedStyle.Render(line)
		}
		lines[i] = prefix + line
	}
	return strings.Join(lines, "\n")
}

func (m Model) gridView(items []catalog.Item) string {
	const perRow = 3
	var rows []string
	for start := 0; start < len(items); start += perRow {
		var cards []string
		for i := start; i < min(start+perRow, len(items)); i++ {
			it := items[i]
			body := fmt.Sprintf("%s\n%s\n%s", it.Name, mutedStyle.Render(string(it.Type)), it.LocationCode)
			style := cardStyle
			if i == m.cursor {
				style = style.BorderForeground(lipgloss.Color("#04B575"))
			}
			cards = append(cards, style.Render(body))
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, cards...))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}
