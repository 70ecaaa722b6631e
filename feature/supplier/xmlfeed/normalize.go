package xmlfeed

import (
	"fmt"
	"sort"
	"time"

	"supplier-sync/core/feed"
	"supplier-sync/core/utils"
	"supplier-sync/feature/catalog/models"
	"supplier-sync/feature/supplier"
)

const arrivalDateLayout = "2006-01-02"

// normalizeProduct maps one catalog subtree to the normalized product
// shape. A record without a supplier ref is invalid.
func normalizeProduct(src supplier.Source, rec *feed.Record) (models.Product, error) {
	ref := rec.Str("ref")
	if ref == "" {
		return models.Product{}, supplier.Errf(supplier.KindValidation, src.Code, "product record without ref")
	}

	p := models.Product{
		SupplierCode: src.Code,
		SupplierRef:  ref,
		Name:         rec.Str("name"),
		Description:  rec.Str("extendedinfo"),
		ShortDesc:    rec.Str("otherinfo"),
		Brand:        rec.Str("brand"),
		MainImage:    rec.Str("imagemain"),
	}

	p.LengthCm, _ = utils.ToFloat(rec.Str("item_long"))
	p.WidthCm, _ = utils.ToFloat(rec.Str("item_width"))
	p.HeightCm, _ = utils.ToFloat(rec.Str("item_hight"))
	p.WeightKg, _ = utils.ToFloat(rec.Str("item_weight"))

	p.Images = extractImages(rec)
	p.CategoryPath = extractCategoryPath(rec.Get("categories"))

	for _, v := range rec.Get("variants").Get("variant").Items() {
		variant := models.Variant{
			SupplierVariantRef: v.Str("matnr"),
			SKU:                v.Str("refct"),
			Color:              v.Str("colour"),
			Size:               v.Str("size"),
			Image:              v.Str("image500px"),
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

func extractImages(rec *feed.Record) []string {
	var images []string
	seen := make(map[string]struct{})
	add := func(url string) {
		if url == "" {
			return
		}
		if _, dup := seen[url]; dup {
			return
		}
		seen[url] = struct{}{}
		images = append(images, url)
	}

	add(rec.Str("imagemain"))
	for _, img := range rec.Get("images").Get("image").Items() {
		add(img.Str("imagemax"))
	}
	return images
}

// extractCategoryPath reads the fixed-depth hierarchy: category_ref_1
// through category_ref_5 with matching names. Levels missing either half
// end the path.
func extractCategoryPath(categories *feed.Record) []models.CategoryNode {
	var path []models.CategoryNode
	for i := 1; i <= 5; i++ {
		ref := categories.Str(fmt.Sprintf("category_ref_%d", i))
		name := categories.Str(fmt.Sprintf("category_name_%d", i))
		if ref == "" || name == "" {
			break
		}
		path = append(path, models.CategoryNode{Ref: ref, Name: name})
	}
	return path
}

// normalizeStock maps one grouped-stock subtree. The feed keys stock by
// variant (reftc); records without one get a synthesized SKU so they can
// still be matched against synthesized variants.
func normalizeStock(src supplier.Source, rec *feed.Record) (models.Stock, error) {
	ref := rec.Str("ref")
	if ref == "" {
		return models.Stock{}, supplier.Errf(supplier.KindValidation, src.Code, "stock record without ref")
	}

	sku := rec.Str("reftc")
	if sku == "" {
		sku = supplier.SynthesizeSKU(src.Prefix, ref, rec.Str("colour"), rec.Str("size"))
	}

	s := models.Stock{
		SupplierRef: ref,
		SKU:         sku,
	}

	info := rec.Get("infostocks").Get("infostock").Items()
	if len(info) > 0 {
		first := info[0]
		s.Quantity, _ = utils.ToInt(first.Str("stock"))
		s.Available = utils.ToBool(first.Str("available"))
	}

	if d := rec.Str("first_arrival_date"); d != "" {
		if ts, err := time.Parse(arrivalDateLayout, d); err == nil {
			s.NextArrivalDate = &ts
			s.NextArrivalQuantity, _ = utils.ToInt(rec.Str("first_arrival_qty"))
		}
	}

	return s, nil
}

// normalizePrices maps one price subtree: up to four quantity sections,
// sectionN holding the minimum quantity and priceN the unit price. A
// section missing either half is discarded. Maximum quantities are derived
// from the next section's minimum; the last tier is unbounded.
func normalizePrices(src supplier.Source, rec *feed.Record) (models.VariantPrices, error) {
	ref := rec.Str("ref")
	if ref == "" {
		return models.VariantPrices{}, supplier.Errf(supplier.KindValidation, src.Code, "price record without ref")
	}

	currency := src.Currency
	if currency == "" {
		currency = "EUR"
	}

	var tiers []models.PriceTier
	for i := 1; i <= 4; i++ {
		minQty, okMin := utils.ToInt(rec.Str(fmt.Sprintf("section%d", i)))
		price, okPrice := utils.ToFloat(rec.Str(fmt.Sprintf("price%d", i)))
		if !okMin || !okPrice || price == 0 {
			continue
		}
		if minQty <= 0 {
			minQty = 1
		}
		tiers = append(tiers, models.PriceTier{
			MinQuantity: minQty,
			MaxQuantity: models.UnboundedQuantity,
			Price:       price,
			Currency:    currency,
		})
	}

	sort.Slice(tiers, func(i, j int) bool { return tiers[i].MinQuantity < tiers[j].MinQuantity })
	for i := 0; i < len(tiers)-1; i++ {
		tiers[i].MaxQuantity = tiers[i+1].MinQuantity - 1
	}

	return models.VariantPrices{SupplierRef: ref, Tiers: tiers}, nil
}

// normalizePrintData maps one print-data subtree: the product is printable
// when at least one printjob is declared.
func normalizePrintData(src supplier.Source, rec *feed.Record) (models.PrintData, error) {
	ref := rec.Str("ref")
	if ref == "" {
		return models.PrintData{}, supplier.Errf(supplier.KindValidation, src.Code, "print record without ref")
	}

	pd := models.PrintData{SupplierRef: ref}
	for _, job := range rec.Get("printjobs").Get("printjob").Items() {
		area := models.PrintArea{
			Name:      job.Str("name"),
			Technique: job.Str("teccode"),
		}
		area.MaxColors, _ = utils.ToInt(job.Str("maxcolour"))
		area.Width, _ = utils.ToFloat(job.Str("areawidth"))
		area.Height, _ = utils.ToFloat(job.Str("areahight"))
		pd.Areas = append(pd.Areas, area)
	}
	pd.Printable = len(pd.Areas) > 0

	return pd, nil
}
