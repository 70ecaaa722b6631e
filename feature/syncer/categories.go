package syncer

import (
	"supplier-sync/feature/catalog"
	"supplier-sync/feature/catalog/models"
	"supplier-sync/feature/supplier"
)

// resolveCategory picks the product's category using the first strategy
// that yields one: the feed's hierarchical path, then the feed's flat
// category list, then the source's configured default. The default is only
// materialized when a product actually falls through to it.
func resolveCategory(tx *catalog.Store, src supplier.Source, p models.Product) (*models.CategoryRow, error) {
	if len(p.CategoryPath) > 0 {
		return tx.GetOrCreateCategoryPath(p.CategoryPath)
	}
	if len(p.Categories) > 0 {
		return tx.GetOrCreateCategory(p.Categories[0])
	}
	if src.DefaultCategory != "" {
		return tx.GetOrCreateCategory(src.DefaultCategory)
	}
	return nil, nil
}
