package commerce

import (
	"strconv"
	"time"

	"supplier-sync/feature/catalog/models"
)

// StatusDraft is the non-visible product status every push uses; products
// never go live without manual review.
const StatusDraft = "draft"

// Image is one product image in the platform payload.
type Image struct {
	Src      string `json:"src"`
	Alt      string `json:"alt,omitempty"`
	Name     string `json:"name,omitempty"`
	Position int    `json:"position"`
}

// CategoryRef references a platform category by its remote id.
type CategoryRef struct {
	ID int64 `json:"id"`
}

// Attribute is a product attribute (color/size lists).
type Attribute struct {
	Name      string   `json:"name"`
	Options   []string `json:"options"`
	Visible   bool     `json:"visible"`
	Variation bool     `json:"variation"`
}

// MetaData is one supplier-provenance key/value pair on the product.
type MetaData struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Dimensions carries the product dimensions as the platform expects them,
// stringified.
type Dimensions struct {
	Length string `json:"length,omitempty"`
	Width  string `json:"width,omitempty"`
	Height string `json:"height,omitempty"`
}

// ProductPayload is the platform product document.
type ProductPayload struct {
	Name              string        `json:"name"`
	Type              string        `json:"type"`
	SKU               string        `json:"sku"`
	Description       string        `json:"description,omitempty"`
	ShortDescription  string        `json:"short_description,omitempty"`
	Status            string        `json:"status"`
	CatalogVisibility string        `json:"catalog_visibility"`
	ManageStock       bool          `json:"manage_stock"`
	StockQuantity     int           `json:"stock_quantity"`
	StockStatus       string        `json:"stock_status"`
	RegularPrice      string        `json:"regular_price,omitempty"`
	Weight            string        `json:"weight,omitempty"`
	Dimensions        *Dimensions   `json:"dimensions,omitempty"`
	Images            []Image       `json:"images,omitempty"`
	Categories        []CategoryRef `json:"categories,omitempty"`
	Attributes        []Attribute   `json:"attributes,omitempty"`
	MetaData          []MetaData    `json:"meta_data,omitempty"`
}

// PushItem aggregates everything the payload builder needs for one product.
type PushItem struct {
	Product          *models.ProductRow
	SKU              string
	SupplierName     string
	StockQuantity    int
	CategoryRemoteID int64
	Colors           []string
	Sizes            []string
	Images           []Image
	LastSync         *time.Time
}

// BuildPayload assembles the platform document for one product. The status
// is always draft; visibility decisions stay manual.
func BuildPayload(item PushItem) ProductPayload {
	p := item.Product

	payload := ProductPayload{
		Name:              p.Name,
		Type:              "simple",
		SKU:               item.SKU,
		Description:       p.Description,
		ShortDescription:  p.ShortDesc,
		Status:            StatusDraft,
		CatalogVisibility: "visible",
		ManageStock:       true,
		StockQuantity:     item.StockQuantity,
		StockStatus:       "outofstock",
		Images:            item.Images,
	}
	if item.StockQuantity > 0 {
		payload.StockStatus = "instock"
	}

	if p.BasePrice > 0 {
		payload.RegularPrice = formatAmount(p.BasePrice)
	}
	if p.WeightKg > 0 {
		payload.Weight = formatAmount(p.WeightKg)
	}
	if p.LengthCm > 0 || p.WidthCm > 0 || p.HeightCm > 0 {
		payload.Dimensions = &Dimensions{
			Length: formatAmount(p.LengthCm),
			Width:  formatAmount(p.WidthCm),
			Height: formatAmount(p.HeightCm),
		}
	}

	if item.CategoryRemoteID > 0 {
		payload.Categories = []CategoryRef{{ID: item.CategoryRemoteID}}
	}

	if len(item.Colors) > 0 {
		payload.Attributes = append(payload.Attributes, Attribute{
			Name: "Color", Options: item.Colors, Visible: true, Variation: true,
		})
	}
	if len(item.Sizes) > 0 {
		payload.Attributes = append(payload.Attributes, Attribute{
			Name: "Size", Options: item.Sizes, Visible: true, Variation: true,
		})
	}

	payload.MetaData = []MetaData{
		{Key: "_supplier_name", Value: item.SupplierName},
		{Key: "_supplier_ref", Value: p.SupplierRef},
	}
	if item.LastSync != nil {
		payload.MetaData = append(payload.MetaData, MetaData{
			Key: "_last_sync", Value: item.LastSync.Format(time.RFC3339),
		})
	}

	return payload
}

func formatAmount(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
