package domain

// Recognized keys of the product attribute bag
const (
	AttrPrice    = "price"
	AttrCategory = "category"
	AttrStock    = "stock"
	AttrStatus   = "status"
	AttrColor    = "color"
)

// Product represents a record of the remote product store
type Product struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	CreatedAt string     `json:"createdAt,omitempty"`
	Data      Attributes `json:"data"`
}

// Clone returns a copy of the product that shares no mutable state with p
func (p Product) Clone() Product {
	p.Data = p.Data.Clone()
	return p
}

// Price returns the numeric price and whether it is known
func (p Product) Price() (float64, bool) {
	return p.Data.Number(AttrPrice)
}

// Category returns the category and whether it is set
func (p Product) Category() (string, bool) {
	return p.Data.String(AttrCategory)
}

// Stock returns the numeric stock and whether it is known.
// A stock of zero is known; a missing or non-numeric stock is not.
func (p Product) Stock() (float64, bool) {
	return p.Data.Number(AttrStock)
}

// Attributes is the open-ended attribute bag of a product.
// A nil Attributes encodes as JSON null and means the bag is absent.
type Attributes map[string]Value

// Clone copies the attribute bag, preserving nil
func (a Attributes) Clone() Attributes {
	if a == nil {
		return nil
	}
	out := make(Attributes, len(a))
	for k, v := range a {
		out[k] = v.clone()
	}
	return out
}

// Number returns the value under key if it is a number
func (a Attributes) Number(key string) (float64, bool) {
	v, ok := a[key]
	if !ok {
		return 0, false
	}
	return v.AsNumber()
}

// String returns the value under key if it is a string
func (a Attributes) String(key string) (string, bool) {
	v, ok := a[key]
	if !ok {
		return "", false
	}
	return v.AsString()
}
