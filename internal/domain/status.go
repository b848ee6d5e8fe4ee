package domain

// Status is the availability of a product, derived from its stock
type Status int

const (
	StatusUnknown Status = iota
	StatusActive
	StatusOutOfStock
)

func (s Status) String() string {
	switch s {
	case StatusActive:
		return "Active"
	case StatusOutOfStock:
		return "Out of Stock"
	default:
		return "Unknown"
	}
}

// DeriveStatus computes the status of p. It is never read from the stored
// status attribute.
func DeriveStatus(p Product) Status {
	return StatusForStock(p.Stock())
}

// StatusForStock maps a stock reading to a status
func StatusForStock(stock float64, known bool) Status {
	if !known {
		return StatusUnknown
	}
	if stock > 0 {
		return StatusActive
	}
	return StatusOutOfStock
}
