package store

import (
	"product-dashboard/internal/domain"
)

// OpStatus is the status of one operation category. The zero value is idle.
type OpStatus struct {
	Loading bool   `json:"loading"`
	Err     string `json:"error,omitempty"`
}

// Failed reports whether the last operation of the category failed
func (s OpStatus) Failed() bool {
	return !s.Loading && s.Err != ""
}

// Category identifies an operation category of the products state
type Category int

const (
	CategoryList Category = iota
	CategoryItem
	CategoryCreate
	CategoryUpdate
	CategoryDelete
)

func (c Category) String() string {
	switch c {
	case CategoryList:
		return "list"
	case CategoryItem:
		return "item"
	case CategoryCreate:
		return "create"
	case CategoryUpdate:
		return "update"
	case CategoryDelete:
		return "delete"
	default:
		return "unknown"
	}
}

// State is the products list plus the currently viewed product
type State struct {
	Items    []domain.Product `json:"items"`
	Selected *domain.Product  `json:"selected"`

	List   OpStatus `json:"list"`
	Item   OpStatus `json:"item"`
	Create OpStatus `json:"create"`
	Update OpStatus `json:"update"`
	Delete OpStatus `json:"delete"`
}

func (s *State) status(c Category) *OpStatus {
	switch c {
	case CategoryList:
		return &s.List
	case CategoryItem:
		return &s.Item
	case CategoryCreate:
		return &s.Create
	case CategoryUpdate:
		return &s.Update
	default:
		return &s.Delete
	}
}

// Clone returns a deep copy of the state
func (s State) Clone() State {
	out := s
	if s.Items != nil {
		out.Items = make([]domain.Product, len(s.Items))
		for i, p := range s.Items {
			out.Items[i] = p.Clone()
		}
	}
	if s.Selected != nil {
		selected := s.Selected.Clone()
		out.Selected = &selected
	}
	return out
}

// The transitions below are the only way the state changes.

// begin enters Loading and clears the previous error of the category
func (s *State) begin(c Category) {
	st := s.status(c)
	st.Loading = true
	st.Err = ""
}

// fail leaves the data untouched and records the message
func (s *State) fail(c Category, message string) {
	st := s.status(c)
	st.Loading = false
	st.Err = message
}

func (s *State) succeed(c Category) {
	st := s.status(c)
	st.Loading = false
	st.Err = ""
}

// listLoaded replaces the items wholesale
func (s *State) listLoaded(items []domain.Product) {
	s.succeed(CategoryList)
	s.Items = items
}

// itemLoaded replaces the selection wholesale
func (s *State) itemLoaded(p domain.Product) {
	s.succeed(CategoryItem)
	s.Selected = &p
}

// created prepends p. The selection is not touched.
func (s *State) created(p domain.Product) {
	s.succeed(CategoryCreate)
	items := make([]domain.Product, 0, len(s.Items)+1)
	items = append(items, p)
	s.Items = append(items, s.Items...)
}

// updated replaces the list entry and the selection independently
func (s *State) updated(p domain.Product) {
	s.succeed(CategoryUpdate)
	for i := range s.Items {
		if s.Items[i].ID == p.ID {
			s.Items[i] = p
			break
		}
	}
	if s.Selected != nil && s.Selected.ID == p.ID {
		selected := p.Clone()
		s.Selected = &selected
	}
}

// deleted drops id from the list and clears the selection iff it was id
func (s *State) deleted(id string) {
	s.succeed(CategoryDelete)
	items := s.Items[:0:0]
	for _, p := range s.Items {
		if p.ID != id {
			items = append(items, p)
		}
	}
	s.Items = items
	if s.Selected != nil && s.Selected.ID == id {
		s.Selected = nil
	}
}
