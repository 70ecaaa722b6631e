package csvfeed

import (
	"fmt"

	"supplier-sync/core/feed"
	"supplier-sync/core/utils"
	"supplier-sync/feature/catalog/models"
	"supplier-sync/feature/supplier"
)

// promotionalCategory is the generic bucket added to every product of this
// format, since the feed carries no category hierarchy.
const promotionalCategory = "Promotional Products"

// maxTierColumns bounds the price.N/minQty.N/maxQty.N column scan.
const maxTierColumns = 10

// group collects the per-language rows of one product code, preserving the
// order the languages appeared in the file.
type group struct {
	code    string
	locales []string
	rows    map[string]*feed.Record
}

// groupRows buckets active rows by product code keyed by language.
func groupRows(rows []*feed.Record) []*group {
	var groups []*group
	byCode := make(map[string]*group)

	for _, row := range rows {
		code := row.Str("productCode")
		locale := row.Str("language")

		g, ok := byCode[code]
		if !ok {
			g = &group{code: code, rows: make(map[string]*feed.Record)}
			byCode[code] = g
			groups = append(groups, g)
		}
		if _, dup := g.rows[locale]; !dup {
			g.locales = append(g.locales, locale)
		}
		g.rows[locale] = row
	}
	return groups
}

// pickLocale selects the row to normalize from: the preferred locale when
// present, then English, then the first locale the file declared.
func pickLocale(preferred string, g *group) *feed.Record {
	if row, ok := g.rows[preferred]; ok && preferred != "" {
		return row
	}
	if row, ok := g.rows["en"]; ok {
		return row
	}
	if len(g.locales) > 0 {
		return g.rows[g.locales[0]]
	}
	return nil
}

func normalizeProduct(src supplier.Source, g *group) (models.Product, error) {
	row := pickLocale(src.PreferredLocale, g)
	if row == nil {
		return models.Product{}, supplier.Errf(supplier.KindValidation, src.Code, "product %s has no usable rows", g.code)
	}

	brand := row.Str("brand")
	if brand == "" {
		brand = src.Name
	}

	p := models.Product{
		SupplierCode: src.Code,
		SupplierRef:  g.code,
		Name:         row.Str("name"),
		Description:  row.Str("description"),
		ShortDesc:    truncate(row.Str("benefits"), 500),
		Brand:        brand,
		MainImage:    row.Str("listImage"),
	}
	if p.Name == "" {
		return models.Product{}, supplier.Errf(supplier.KindValidation, src.Code, "product %s has no name", g.code)
	}

	// No hierarchy in the feed: brand plus the generic promotional bucket.
	if brand != "" {
		p.Categories = append(p.Categories, brand)
	}
	p.Categories = append(p.Categories, promotionalCategory)

	if img := row.Str("listImage"); img != "" {
		p.Images = append(p.Images, img)
	}
	if tpl := row.Str("imprintTemplate"); tpl != "" && tpl != row.Str("listImage") {
		p.Images = append(p.Images, tpl)
	}

	p.WidthCm, _ = utils.ToFloat(row.Str("width"))
	p.HeightCm, _ = utils.ToFloat(row.Str("height"))
	p.LengthCm, _ = utils.ToFloat(row.Str("depth"))
	// Weight column is in grams.
	if grams, ok := utils.ToFloat(row.Str("weight")); ok {
		p.WeightKg = grams / 1000
	}

	tiers := extractTiers(row)
	p.Tiers = tiers
	p.Variants = []models.Variant{{
		SupplierVariantRef: g.code,
		SKU:                supplier.SynthesizeSKU(src.Prefix, g.code, "", ""),
		Image:              row.Str("listImage"),
		Tiers:              tiers,
	}}

	return p, nil
}

// extractTiers scans the fixed tier columns. A tier needs both a price and
// a minimum quantity; a missing maximum means unbounded.
func extractTiers(row *feed.Record) []models.PriceTier {
	if row == nil {
		return nil
	}

	currency := row.Str("price.currency")
	if currency == "" {
		currency = "EUR"
	}

	var tiers []models.PriceTier
	for i := 1; i <= maxTierColumns; i++ {
		minQty, okMin := utils.ToInt(row.Str(fmt.Sprintf("minQty.%d", i)))
		price, okPrice := utils.ToFloat(row.Str(fmt.Sprintf("price.%d", i)))
		if !okMin || !okPrice || minQty <= 0 || price <= 0 {
			continue
		}

		maxQty, okMax := utils.ToInt(row.Str(fmt.Sprintf("maxQty.%d", i)))
		if !okMax || maxQty <= 0 {
			maxQty = models.UnboundedQuantity
		}

		tiers = append(tiers, models.PriceTier{
			MinQuantity: minQty,
			MaxQuantity: maxQty,
			Price:       price,
			Currency:    currency,
		})
	}
	return tiers
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
