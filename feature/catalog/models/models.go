package models

import "time"

// UnboundedQuantity is the sentinel for a price tier with no upper bound.
// Tiers always carry a concrete maximum so range comparisons stay total.
const UnboundedQuantity = 999999

// CategoryNode is one level of a supplier's category hierarchy.
type CategoryNode struct {
	Ref  string
	Name string
}

// PriceTier is one quantity bracket of a variant's price list.
type PriceTier struct {
	MinQuantity int
	MaxQuantity int
	Price       float64
	Currency    string
}

// PrintArea describes one printable surface of a product.
type PrintArea struct {
	Name      string
	Technique string
	MaxColors int
	Width     float64
	Height    float64
}

// Variant is one sellable unit of a product, normalized from the feed.
type Variant struct {
	SupplierVariantRef string
	SKU                string
	Color              string
	Size               string
	Image              string
	Tiers              []PriceTier
}

// Product is the normalized, source-independent product shape that every
// parser produces. It carries no persistence concerns.
type Product struct {
	SupplierCode string
	SupplierRef  string
	Name         string
	Description  string
	ShortDesc    string
	Brand        string

	// CategoryPath is the hierarchical path from XML-style feeds, root
	// first. Categories is the flat list synthesized by feeds without a
	// hierarchy. At most one of the two is non-empty.
	CategoryPath []CategoryNode
	Categories   []string

	WeightKg  float64
	LengthCm  float64
	WidthCm   float64
	HeightCm  float64
	Images    []string
	MainImage string

	Printable  bool
	PrintAreas []PrintArea

	Variants []Variant
	Tiers    []PriceTier
}

// Stock is a normalized stock reading for one variant SKU. It replaces the
// stored row wholesale on sync.
type Stock struct {
	SupplierRef         string
	SKU                 string
	Quantity            int
	Available           bool
	NextArrivalDate     *time.Time
	NextArrivalQuantity int
}

// VariantPrices is the incoming tier set for one variant SKU.
type VariantPrices struct {
	SupplierRef string
	SKU         string
	Tiers       []PriceTier
}

// PrintData carries a product's printability information from feeds that
// publish it separately from the catalog.
type PrintData struct {
	SupplierRef string
	Printable   bool
	Areas       []PrintArea
}

// BaseTier returns the tier with the lowest minimum quantity, which becomes
// the product's displayed base price. Returns nil for an empty set.
func BaseTier(tiers []PriceTier) *PriceTier {
	var base *PriceTier
	for i := range tiers {
		if base == nil || tiers[i].MinQuantity < base.MinQuantity {
			base = &tiers[i]
		}
	}
	return base
}
