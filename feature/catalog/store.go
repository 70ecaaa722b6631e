package catalog

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"supplier-sync/core/utils"
	"supplier-sync/feature/catalog/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Store is the persistence layer of the catalog: upsert-by-natural-key for
// products and variants, replace semantics for stock, activation swaps for
// price tiers, and append-only sync error records.
type Store struct {
	db  *gorm.DB
	log *zap.Logger
}

// NewStore wraps a database handle.
func NewStore(db *gorm.DB, log *zap.Logger) *Store {
	return &Store{db: db, log: log}
}

// Migrate creates or updates the catalog schema.
func (s *Store) Migrate() error {
	return s.db.AutoMigrate(
		&models.SupplierRow{},
		&models.ProductRow{},
		&models.VariantRow{},
		&models.StockRow{},
		&models.PriceRow{},
		&models.CategoryRow{},
		&models.SyncRunRow{},
		&models.SyncErrorRow{},
	)
}

// WithTx runs fn against a transactional copy of the store. A returned
// error rolls everything back, so one record's writes are all-or-nothing.
func (s *Store) WithTx(fn func(tx *Store) error) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		return fn(&Store{db: tx, log: s.log})
	})
}

// EnsureSupplier returns the supplier row, creating it on first sight.
func (s *Store) EnsureSupplier(code, name string) (*models.SupplierRow, error) {
	var row models.SupplierRow
	err := s.db.Where("code = ?", code).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		row = models.SupplierRow{Code: code, Name: name}
		if err := s.db.Create(&row).Error; err != nil {
			return nil, err
		}
		return &row, nil
	}
	if err != nil {
		return nil, err
	}
	if name != "" && row.Name != name {
		row.Name = name
		if err := s.db.Save(&row).Error; err != nil {
			return nil, err
		}
	}
	return &row, nil
}

// AdvanceLastSync moves the supplier's last_sync forward. Called only after
// a run ends in SUCCESS.
func (s *Store) AdvanceLastSync(code string, t time.Time) error {
	return s.db.Model(&models.SupplierRow{}).
		Where("code = ?", code).
		Update("last_sync", t).Error
}

// UpsertProduct writes a normalized product by its natural key. The second
// return value reports whether a new row was created.
func (s *Store) UpsertProduct(p models.Product) (*models.ProductRow, bool, error) {
	var row models.ProductRow
	err := s.db.Where("supplier_code = ? AND supplier_ref = ?", p.SupplierCode, p.SupplierRef).First(&row).Error

	created := false
	if errors.Is(err, gorm.ErrRecordNotFound) {
		row = models.ProductRow{
			SupplierCode: p.SupplierCode,
			SupplierRef:  p.SupplierRef,
		}
		created = true
	} else if err != nil {
		return nil, false, err
	}

	row.Name = p.Name
	row.Description = p.Description
	row.ShortDesc = p.ShortDesc
	row.Brand = p.Brand
	row.WeightKg = p.WeightKg
	row.LengthCm = p.LengthCm
	row.WidthCm = p.WidthCm
	row.HeightCm = p.HeightCm
	row.MainImage = p.MainImage
	row.Images = models.EncodeImages(p.Images)
	row.Printable = p.Printable

	if created {
		if err := s.db.Create(&row).Error; err != nil {
			return nil, false, err
		}
	} else {
		if err := s.db.Save(&row).Error; err != nil {
			return nil, false, err
		}
	}
	return &row, created, nil
}

// GetProduct fetches a product by its natural key.
func (s *Store) GetProduct(supplierCode, supplierRef string) (*models.ProductRow, error) {
	var row models.ProductRow
	if err := s.db.Where("supplier_code = ? AND supplier_ref = ?", supplierCode, supplierRef).First(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

// UpsertVariant writes a variant under its product by natural key,
// resolving global SKU collisions first. An empty incoming SKU must have
// been synthesized by the caller already; the store rejects it.
func (s *Store) UpsertVariant(product *models.ProductRow, v models.Variant) (*models.VariantRow, bool, error) {
	if v.SKU == "" {
		return nil, false, fmt.Errorf("variant %s of product %s has empty sku", v.SupplierVariantRef, product.SupplierRef)
	}

	sku, err := s.resolveSKU(product, v.SupplierVariantRef, v.SKU)
	if err != nil {
		return nil, false, err
	}

	var row models.VariantRow
	err = s.db.Where("product_id = ? AND supplier_variant_ref = ?", product.ID, v.SupplierVariantRef).First(&row).Error

	created := false
	if errors.Is(err, gorm.ErrRecordNotFound) {
		row = models.VariantRow{
			ProductID:          product.ID,
			SupplierVariantRef: v.SupplierVariantRef,
		}
		created = true
	} else if err != nil {
		return nil, false, err
	}

	row.SKU = sku
	row.Color = v.Color
	row.Size = v.Size
	row.Image = v.Image

	if created {
		if err := s.db.Create(&row).Error; err != nil {
			return nil, false, err
		}
	} else {
		if err := s.db.Save(&row).Error; err != nil {
			return nil, false, err
		}
	}
	return &row, created, nil
}

// resolveSKU enforces global SKU uniqueness. When the SKU already belongs
// to another variant, a suffix derived from this product's supplier ref is
// appended, then a numeric counter until the SKU is free. The scheme is
// deterministic: the same inputs always resolve to the same SKU.
func (s *Store) resolveSKU(product *models.ProductRow, variantRef, sku string) (string, error) {
	candidate := sku
	for attempt := 0; ; attempt++ {
		var owner models.VariantRow
		err := s.db.Where("sku = ?", candidate).First(&owner).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return candidate, nil
		}
		if err != nil {
			return "", err
		}
		if owner.ProductID == product.ID && owner.SupplierVariantRef == variantRef {
			// The same variant re-syncing; the SKU stays with it.
			return candidate, nil
		}

		switch attempt {
		case 0:
			candidate = fmt.Sprintf("%s-%s", sku, sanitizeSuffix(product.SupplierRef))
		default:
			candidate = fmt.Sprintf("%s-%s-%d", sku, sanitizeSuffix(product.SupplierRef), attempt+1)
		}

		if attempt > 50 {
			return "", fmt.Errorf("unable to resolve unique sku for %q", sku)
		}
	}
}

func sanitizeSuffix(ref string) string {
	ref = strings.ReplaceAll(ref, "/", "")
	return strings.ReplaceAll(ref, " ", "")
}

// ProductsForSupplier returns every product of a supplier, ordered by
// supplier ref for stable batching.
func (s *Store) ProductsForSupplier(code string) ([]models.ProductRow, error) {
	var rows []models.ProductRow
	err := s.db.Where("supplier_code = ?", code).Order("supplier_ref ASC").Find(&rows).Error
	return rows, err
}

// VariantsOf returns the variants of a product ordered by insertion.
func (s *Store) VariantsOf(productID uint) ([]models.VariantRow, error) {
	var rows []models.VariantRow
	err := s.db.Where("product_id = ?", productID).Order("id ASC").Find(&rows).Error
	return rows, err
}

// FindVariantBySKU resolves a variant by SKU within one supplier's scope.
func (s *Store) FindVariantBySKU(supplierCode, sku string) (*models.VariantRow, error) {
	var row models.VariantRow
	err := s.db.
		Joins("JOIN products ON products.id = product_variants.product_id").
		Where("products.supplier_code = ? AND product_variants.sku = ?", supplierCode, sku).
		First(&row).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// ReplaceStock overwrites the variant's stock row. This is a replace, not
// an accumulate: a quantity of zero is stored as zero.
func (s *Store) ReplaceStock(variantID uint, stock models.Stock) error {
	var row models.StockRow
	err := s.db.Where("variant_id = ?", variantID).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		row = models.StockRow{VariantID: variantID}
	} else if err != nil {
		return err
	}

	row.Quantity = stock.Quantity
	row.Available = stock.Available
	row.NextArrivalDate = stock.NextArrivalDate
	row.NextArrivalQuantity = stock.NextArrivalQuantity

	if row.ID == 0 {
		return s.db.Create(&row).Error
	}
	return s.db.Save(&row).Error
}

// GetStock reads the variant's stock row, if any.
func (s *Store) GetStock(variantID uint) (*models.StockRow, error) {
	var row models.StockRow
	if err := s.db.Where("variant_id = ?", variantID).First(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

// ApplyPriceTiers swaps the variant's active tier set: all currently active
// tiers are deactivated, then the new set is inserted active, keeping at
// most one active set per variant.
func (s *Store) ApplyPriceTiers(variantID uint, tiers []models.PriceTier) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.PriceRow{}).
			Where("variant_id = ? AND is_active = ?", variantID, true).
			Update("is_active", false).Error; err != nil {
			return err
		}

		for _, tier := range tiers {
			row := models.PriceRow{
				VariantID:   variantID,
				MinQuantity: tier.MinQuantity,
				MaxQuantity: tier.MaxQuantity,
				Price:       tier.Price,
				Currency:    tier.Currency,
				IsActive:    true,
			}
			if err := tx.Create(&row).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// ActiveTiers returns the variant's active tier set ordered by minimum
// quantity.
func (s *Store) ActiveTiers(variantID uint) ([]models.PriceRow, error) {
	var rows []models.PriceRow
	err := s.db.
		Where("variant_id = ? AND is_active = ?", variantID, true).
		Order("min_quantity ASC").
		Find(&rows).Error
	return rows, err
}

// GetOrCreateCategoryPath resolves a hierarchical category path level by
// level, reusing existing nodes by slug, and returns the leaf.
func (s *Store) GetOrCreateCategoryPath(path []models.CategoryNode) (*models.CategoryRow, error) {
	if len(path) == 0 {
		return nil, errors.New("empty category path")
	}

	var parent *models.CategoryRow
	for _, node := range path {
		row, err := s.getOrCreateCategoryNode(parent, node.Name, node.Ref)
		if err != nil {
			return nil, err
		}
		parent = row
	}
	return parent, nil
}

// GetOrCreateCategory resolves a single top-level category by name.
func (s *Store) GetOrCreateCategory(name string) (*models.CategoryRow, error) {
	return s.getOrCreateCategoryNode(nil, name, "")
}

// getOrCreateCategoryNode looks a node up by slug under the parent, which
// makes the match case-insensitive and diacritic-insensitive, and creates
// it when absent.
func (s *Store) getOrCreateCategoryNode(parent *models.CategoryRow, name, ref string) (*models.CategoryRow, error) {
	slug := utils.Slugify(name)
	if slug == "" {
		return nil, fmt.Errorf("category name %q slugs to nothing", name)
	}

	query := s.db.Where("slug = ?", slug)
	if parent == nil {
		query = query.Where("parent_id IS NULL")
	} else {
		query = query.Where("parent_id = ?", parent.ID)
	}

	var row models.CategoryRow
	err := query.First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		row = models.CategoryRow{Slug: slug, Name: name, SupplierRef: ref}
		if parent != nil {
			row.ParentID = &parent.ID
		}
		if err := s.db.Create(&row).Error; err != nil {
			return nil, err
		}
		return &row, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// GetCategory fetches one category node by id.
func (s *Store) GetCategory(id uint) (*models.CategoryRow, error) {
	var row models.CategoryRow
	if err := s.db.Where("id = ?", id).First(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

// SetProductCategory assigns the resolved category to the product.
func (s *Store) SetProductCategory(productID, categoryID uint) error {
	return s.db.Model(&models.ProductRow{}).
		Where("id = ?", productID).
		Update("category_id", categoryID).Error
}

// SetBasePrice stores the product's displayed base price and currency.
func (s *Store) SetBasePrice(productID uint, tier models.PriceTier) error {
	return s.db.Model(&models.ProductRow{}).
		Where("id = ?", productID).
		Updates(map[string]any{"base_price": tier.Price, "currency": tier.Currency}).Error
}

// SetProductPrintable flips the product's printability flag.
func (s *Store) SetProductPrintable(productID uint, printable bool) error {
	return s.db.Model(&models.ProductRow{}).
		Where("id = ?", productID).
		Update("printable", printable).Error
}

// SetProductRemote stores the platform mapping. Called only after the push
// response confirmed the remote id.
func (s *Store) SetProductRemote(productID uint, remoteID int64, status string) error {
	return s.db.Model(&models.ProductRow{}).
		Where("id = ?", productID).
		Updates(map[string]any{"remote_id": remoteID, "remote_status": status}).Error
}

// TouchProductLastSync stamps the product's last successful sync.
func (s *Store) TouchProductLastSync(productID uint, t time.Time) error {
	return s.db.Model(&models.ProductRow{}).
		Where("id = ?", productID).
		Update("last_sync", t).Error
}

// CreateRun persists a new sync run in PENDING state.
func (s *Store) CreateRun(id, supplierCode string) (*models.SyncRunRow, error) {
	row := models.SyncRunRow{
		ID:           id,
		SupplierCode: supplierCode,
		Status:       models.RunPending,
	}
	if err := s.db.Create(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

// StartRun moves a run to RUNNING and stamps its start time.
func (s *Store) StartRun(id string) error {
	now := time.Now()
	return s.db.Model(&models.SyncRunRow{}).
		Where("id = ?", id).
		Updates(map[string]any{"status": models.RunRunning, "started_at": now}).Error
}

// FinishRun writes the terminal status and aggregated counters exactly
// once; a run already in a terminal state is left untouched.
func (s *Store) FinishRun(id string, status models.RunStatus, processed, created, updated, errCount int) error {
	if !status.Terminal() {
		return fmt.Errorf("status %s is not terminal", status)
	}
	now := time.Now()
	return s.db.Model(&models.SyncRunRow{}).
		Where("id = ? AND status IN ?", id, []models.RunStatus{models.RunPending, models.RunRunning}).
		Updates(map[string]any{
			"status":      status,
			"processed":   processed,
			"created":     created,
			"updated":     updated,
			"errors":      errCount,
			"finished_at": now,
		}).Error
}

// GetRun fetches one sync run.
func (s *Store) GetRun(id string) (*models.SyncRunRow, error) {
	var row models.SyncRunRow
	if err := s.db.Where("id = ?", id).First(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

// RecordError appends one sync error. Errors are never updated or deleted.
func (s *Store) RecordError(e models.SyncErrorRow) error {
	return s.db.Create(&e).Error
}

// RunErrors returns the most recent errors of a run, newest first.
func (s *Store) RunErrors(runID string, limit int) ([]models.SyncErrorRow, error) {
	var rows []models.SyncErrorRow
	q := s.db.Where("run_id = ?", runID).Order("id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&rows).Error
	return rows, err
}
