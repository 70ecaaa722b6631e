package restfeed

import (
	"time"

	"supplier-sync/core/feed"
	"supplier-sync/core/utils"
	"supplier-sync/feature/catalog/models"
	"supplier-sync/feature/supplier"
)

const arrivalDateLayout = "2006-01-02"

// normalizeProduct maps one product item. The API keys products by
// master_code and nests sellable variants with their own SKUs.
func normalizeProduct(src supplier.Source, rec *feed.Record) (models.Product, error) {
	ref := rec.Str("master_code")
	if ref == "" {
		ref = rec.Str("master_id")
	}
	if ref == "" {
		return models.Product{}, supplier.Errf(supplier.KindValidation, src.Code, "product item without master code")
	}

	p := models.Product{
		SupplierCode: src.Code,
		SupplierRef:  ref,
		Name:         rec.Str("product_name"),
		Description:  rec.Str("long_description"),
		ShortDesc:    rec.Str("short_description"),
		Brand:        rec.Str("brand"),
	}

	if dims, ok := utils.ParseDimensions(dimensionsString(rec)); ok {
		p.LengthCm = dims.Length
		p.WidthCm = dims.Width
		p.HeightCm = dims.Height
	}
	p.WeightKg, _ = utils.ToFloat(rec.Str("net_weight"))

	p.MainImage = rec.Str("main_image")
	if p.MainImage != "" {
		p.Images = append(p.Images, p.MainImage)
	}
	for _, img := range rec.Get("images").Items() {
		url := img.Str("url")
		if url == "" {
			url = img.Text()
		}
		if url != "" && url != p.MainImage {
			p.Images = append(p.Images, url)
		}
	}

	// Category levels come flat on the product, names only.
	for _, key := range []string{"category_level1", "category_level2", "category_level3"} {
		if name := rec.Str(key); name != "" {
			p.CategoryPath = append(p.CategoryPath, models.CategoryNode{Ref: utils.Slugify(name), Name: name})
		}
	}

	for _, v := range rec.Get("variants").Items() {
		variant := models.Variant{
			SupplierVariantRef: v.Str("variant_id"),
			SKU:                v.Str("sku"),
			Color:              v.Str("color_description"),
			Size:               v.Str("size"),
		}
		if variant.SupplierVariantRef == "" {
			variant.SupplierVariantRef = variant.SKU
		}
		if variant.SKU == "" {
			variant.SKU = supplier.SynthesizeSKU(src.Prefix, ref, variant.Color, variant.Size)
		}
		p.Variants = append(p.Variants, variant)
	}

	return p, nil
}

func normalizeStock(src supplier.Source, rec *feed.Record) (models.Stock, error) {
	sku := rec.Str("sku")
	if sku == "" {
		return models.Stock{}, supplier.Errf(supplier.KindValidation, src.Code, "stock item without sku")
	}

	s := models.Stock{SKU: sku}
	s.Quantity, _ = utils.ToInt(rec.Str("qty"))
	s.Available = s.Quantity > 0

	if d := rec.Str("first_arrival_date"); d != "" {
		if ts, err := time.Parse(arrivalDateLayout, d); err == nil {
			s.NextArrivalDate = &ts
			s.NextArrivalQuantity, _ = utils.ToInt(rec.Str("first_arrival_qty"))
		}
	}

	return s, nil
}

// normalizePrices maps one price item: a base price plus an optional scale
// of quantity brackets. The scale replaces the base price for its brackets.
func normalizePrices(src supplier.Source, rec *feed.Record) (models.VariantPrices, error) {
	sku := rec.Str("sku")
	if sku == "" {
		return models.VariantPrices{}, supplier.Errf(supplier.KindValidation, src.Code, "price item without sku")
	}

	currency := rec.Str("currency")
	if currency == "" {
		currency = src.Currency
	}
	if currency == "" {
		currency = "EUR"
	}

	var tiers []models.PriceTier
	for _, bracket := range rec.Get("scale").Items() {
		minQty, okMin := utils.ToInt(bracket.Str("minimum_quantity"))
		price, okPrice := utils.ToFloat(bracket.Str("price"))
		if !okMin || !okPrice || minQty <= 0 || price <= 0 {
			continue
		}
		tiers = append(tiers, models.PriceTier{
			MinQuantity: minQty,
			MaxQuantity: models.UnboundedQuantity,
			Price:       price,
			Currency:    currency,
		})
	}

	// No scale: the flat price is a single unbounded tier from quantity 1.
	if len(tiers) == 0 {
		if price, ok := utils.ToFloat(rec.Str("price")); ok && price > 0 {
			tiers = append(tiers, models.PriceTier{
				MinQuantity: 1,
				MaxQuantity: models.UnboundedQuantity,
				Price:       price,
				Currency:    currency,
			})
		}
	}

	for i := 0; i < len(tiers)-1; i++ {
		if tiers[i+1].MinQuantity > tiers[i].MinQuantity {
			tiers[i].MaxQuantity = tiers[i+1].MinQuantity - 1
		}
	}

	return models.VariantPrices{SKU: sku, Tiers: tiers}, nil
}

func normalizePrintData(src supplier.Source, rec *feed.Record) (models.PrintData, error) {
	ref := rec.Str("master_code")
	if ref == "" {
		return models.PrintData{}, supplier.Errf(supplier.KindValidation, src.Code, "print item without master code")
	}

	pd := models.PrintData{SupplierRef: ref}
	for _, pos := range rec.Get("printing_positions").Items() {
		area := models.PrintArea{
			Name:      pos.Str("position_id"),
			Technique: pos.Str("printing_technique"),
		}
		area.MaxColors, _ = utils.ToInt(pos.Str("max_colours"))
		area.Width, _ = utils.ToFloat(pos.Str("max_print_size_width"))
		area.Height, _ = utils.ToFloat(pos.Str("max_print_size_height"))
		pd.Areas = append(pd.Areas, area)
	}
	pd.Printable = len(pd.Areas) > 0

	return pd, nil
}
