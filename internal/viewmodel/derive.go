// Package viewmodel derives the visible dashboard page from the products list.
// Every function here is pure; results depend only on the arguments.
package viewmodel

import (
	"strings"

	"product-dashboard/internal/domain"
)

const (
	// AllCategories disables the category filter
	AllCategories = "All"

	DefaultPageSize = 5
)

// Categories returns "All" followed by the distinct non-empty categories of
// items in first-seen order
func Categories(items []domain.Product) []string {
	categories := []string{AllCategories}
	seen := map[string]bool{AllCategories: true}

	for _, p := range items {
		category, ok := p.Category()
		if !ok || category == "" || seen[category] {
			continue
		}
		seen[category] = true
		categories = append(categories, category)
	}

	return categories
}

// Filter keeps the items whose name contains search, ignoring case, and
// whose category equals category unless it is AllCategories. Order is kept.
func Filter(items []domain.Product, search, category string) []domain.Product {
	needle := strings.ToLower(search)
	filtered := make([]domain.Product, 0, len(items))

	for _, p := range items {
		if needle != "" && !strings.Contains(strings.ToLower(p.Name), needle) {
			continue
		}
		if category != AllCategories {
			if c, _ := p.Category(); c != category {
				continue
			}
		}
		filtered = append(filtered, p)
	}

	return filtered
}

// Paginate returns the 1-based page of items, clipped to the available length
func Paginate(items []domain.Product, page, pageSize int) []domain.Product {
	if page < 1 || pageSize < 1 {
		return []domain.Product{}
	}

	start := (page - 1) * pageSize
	if start >= len(items) {
		return []domain.Product{}
	}
	end := start + pageSize
	if end > len(items) {
		end = len(items)
	}

	return items[start:end]
}

// PageCount returns the number of pages needed for total items
func PageCount(total, pageSize int) int {
	if total <= 0 || pageSize < 1 {
		return 0
	}
	return (total + pageSize - 1) / pageSize
}

// Range returns the 1-based positions of the first and last item shown on
// page, as in "Showing 11 to 12 of 12". Both are zero when the page is empty.
func Range(page, pageSize, total int) (first, last int) {
	if page < 1 || pageSize < 1 || total <= 0 {
		return 0, 0
	}
	first = (page-1)*pageSize + 1
	if first > total {
		return 0, 0
	}
	last = page * pageSize
	if last > total {
		last = total
	}
	return first, last
}
