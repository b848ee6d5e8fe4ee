package viewmodel

// PageItem is one entry of a pagination bar: a page number or an ellipsis
type PageItem struct {
	Page     int  `json:"page,omitempty"`
	Ellipsis bool `json:"ellipsis,omitempty"`
}

// siblings is how many pages are shown on each side of the current one
const siblings = 1

// PageItems lays out the pagination bar for current out of totalPages.
// The first and last page are always present; gaps collapse to an ellipsis.
func PageItems(current, totalPages int) []PageItem {
	if totalPages <= 0 {
		return nil
	}
	if current < 1 {
		current = 1
	}
	if current > totalPages {
		current = totalPages
	}

	// first, last, current, its siblings and two ellipses
	slots := siblings*2 + 5
	if totalPages <= slots {
		return pageRange(1, totalPages)
	}

	left := max(current-siblings, 1)
	right := min(current+siblings, totalPages)
	showLeftDots := left > 2
	showRightDots := right < totalPages-1
	edge := 3 + 2*siblings

	switch {
	case !showLeftDots && showRightDots:
		items := pageRange(1, edge)
		return append(items, PageItem{Ellipsis: true}, PageItem{Page: totalPages})
	case showLeftDots && !showRightDots:
		items := []PageItem{{Page: 1}, {Ellipsis: true}}
		return append(items, pageRange(totalPages-edge+1, totalPages)...)
	default:
		items := []PageItem{{Page: 1}, {Ellipsis: true}}
		items = append(items, pageRange(left, right)...)
		return append(items, PageItem{Ellipsis: true}, PageItem{Page: totalPages})
	}
}

func pageRange(from, to int) []PageItem {
	items := make([]PageItem, 0, to-from+1)
	for p := from; p <= to; p++ {
		items = append(items, PageItem{Page: p})
	}
	return items
}
