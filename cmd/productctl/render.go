package main

import (
	"fmt"
	"io"
	"maps"
	"slices"
	"strconv"
	"strings"

	"product-dashboard/internal/domain"
	"product-dashboard/internal/format"
	"product-dashboard/internal/viewmodel"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

var (
	success     = lipgloss.Color("#8BC34A")
	destructive = lipgloss.Color("#e53935")
	muted       = lipgloss.Color("#6b7280")

	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	labelStyle  = lipgloss.NewStyle().Bold(true).Width(12)
	mutedStyle  = lipgloss.NewStyle().Foreground(muted)
)

// statusStyle colors the status badge
func statusStyle(s domain.Status) lipgloss.Style {
	switch s {
	case domain.StatusActive:
		return cellStyle.Foreground(success)
	case domain.StatusOutOfStock:
		return cellStyle.Foreground(destructive)
	default:
		return cellStyle.Foreground(muted)
	}
}

func renderList(w io.Writer, view viewmodel.View) {
	if view.Total == 0 {
		fmt.Fprintln(w, "No products found.")
		fmt.Fprintln(w, mutedStyle.Render("Categories: "+strings.Join(view.Categories, ", ")))
		return
	}

	statuses := make([]domain.Status, len(view.VisibleItems))
	rows := make([][]string, len(view.VisibleItems))
	for i, p := range view.VisibleItems {
		category, ok := p.Category()
		if !ok || category == "" {
			category = format.NotAvailable
		}
		statuses[i] = domain.DeriveStatus(p)
		rows[i] = []string{
			p.ID,
			p.Name,
			category,
			format.Price(p.Price()),
			format.Stock(p.Stock()),
			statuses[i].String(),
			format.Date(p.CreatedAt),
		}
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(mutedStyle).
		Headers("ID", "NAME", "CATEGORY", "PRICE", "STOCK", "STATUS", "CREATED").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case col == 5 && row >= 0 && row < len(statuses):
				return statusStyle(statuses[row])
			default:
				return cellStyle
			}
		})

	fmt.Fprintln(w, t.Render())
	fmt.Fprintf(w, "Showing %d to %d of %d products\n", view.First, view.Last, view.Total)
	fmt.Fprintln(w, mutedStyle.Render(pageBar(view)))
	fmt.Fprintln(w, mutedStyle.Render("Categories: "+strings.Join(view.Categories, ", ")))
}

// pageBar renders the pagination bar, e.g. "1 … 4 [5] 6 … 10"
func pageBar(view viewmodel.View) string {
	parts := make([]string, 0, len(view.Pages))
	for _, item := range view.Pages {
		switch {
		case item.Ellipsis:
			parts = append(parts, "…")
		case item.Page == view.Page:
			parts = append(parts, "["+strconv.Itoa(item.Page)+"]")
		default:
			parts = append(parts, strconv.Itoa(item.Page))
		}
	}
	if len(parts) == 0 {
		return fmt.Sprintf("Page %d of %d", view.Page, view.PageCount)
	}
	return fmt.Sprintf("Page %d of %d: %s", view.Page, view.PageCount, strings.Join(parts, " "))
}

func renderProduct(w io.Writer, p domain.Product) {
	status := domain.DeriveStatus(p)
	category, ok := p.Category()
	if !ok || category == "" {
		category = format.NotAvailable
	}

	line := func(label, value string) {
		fmt.Fprintln(w, labelStyle.Render(label)+value)
	}
	line("ID", p.ID)
	line("Name", p.Name)
	line("Category", category)
	line("Price", format.Price(p.Price()))
	line("Stock", format.Stock(p.Stock()))
	line("Status", statusStyle(status).UnsetPadding().Render(status.String()))
	line("Created", format.Date(p.CreatedAt))

	// remaining attributes, in key order
	known := map[string]bool{
		domain.AttrPrice:    true,
		domain.AttrCategory: true,
		domain.AttrStock:    true,
		domain.AttrStatus:   true,
	}
	for _, key := range slices.Sorted(maps.Keys(p.Data)) {
		if known[key] {
			continue
		}
		line(key, p.Data[key].Text())
	}
}
