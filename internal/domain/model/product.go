package model

// Product is the read-side projection of a catalog entry that this core
// needs: the subscription duration granted per purchase. The catalog itself
// is owned elsewhere.
type Product struct {
	ID           string // UUID
	Title        string
	PriceUzs     int64
	DurationDays *int // nil -> default applies at grant time
}

// DefaultDurationDays applies when a product does not specify a duration.
const DefaultDurationDays = 30

// Duration returns the product's subscription duration in days.
func (p *Product) Duration() int {
	if p.DurationDays == nil || *p.DurationDays <= 0 {
		return DefaultDurationDays
	}
	return *p.DurationDays
}
