package viewmodel

import (
	"sync"

	"product-dashboard/internal/domain"
)

// Filters holds the user's search text, category and page. Changing the
// search or the category always returns to the first page.
type Filters struct {
	mu       sync.RWMutex
	search   string
	category string
	page     int
	pageSize int
}

// NewFilters creates filters showing page 1 of every category
func NewFilters(pageSize int) *Filters {
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	return &Filters{category: AllCategories, page: 1, pageSize: pageSize}
}

func (f *Filters) Search() string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.search
}

func (f *Filters) Category() string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.category
}

func (f *Filters) Page() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.page
}

func (f *Filters) PageSize() int {
	return f.pageSize
}

// SetSearch changes the search text and resets the page
func (f *Filters) SetSearch(search string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.search = search
	f.page = 1
}

// SetCategory changes the category and resets the page. An empty category
// means AllCategories.
func (f *Filters) SetCategory(category string) {
	if category == "" {
		category = AllCategories
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.category = category
	f.page = 1
}

// SetPage moves to page; pages below 1 clamp to 1
func (f *Filters) SetPage(page int) {
	if page < 1 {
		page = 1
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.page = page
}

// View is everything the presentation needs to render one dashboard page
type View struct {
	Search       string           `json:"search"`
	Category     string           `json:"category"`
	Page         int              `json:"page"`
	PageSize     int              `json:"pageSize"`
	PageCount    int              `json:"pageCount"`
	Total        int              `json:"totalFilteredCount"`
	First        int              `json:"first"`
	Last         int              `json:"last"`
	Categories   []string         `json:"categories"`
	VisibleItems []domain.Product `json:"visibleItems"`
	Pages        []PageItem       `json:"pages"`
}

// View derives the current page from items
func (f *Filters) View(items []domain.Product) View {
	f.mu.RLock()
	search, category, page, pageSize := f.search, f.category, f.page, f.pageSize
	f.mu.RUnlock()

	filtered := Filter(items, search, category)
	total := len(filtered)
	pageCount := PageCount(total, pageSize)
	first, last := Range(page, pageSize, total)

	return View{
		Search:       search,
		Category:     category,
		Page:         page,
		PageSize:     pageSize,
		PageCount:    pageCount,
		Total:        total,
		First:        first,
		Last:         last,
		Categories:   Categories(items),
		VisibleItems: Paginate(filtered, page, pageSize),
		Pages:        PageItems(page, pageCount),
	}
}
