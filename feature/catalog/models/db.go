package models

import (
	"encoding/json"
	"time"
)

// RunStatus is the lifecycle state of one supplier sync run.
type RunStatus string

const (
	RunPending RunStatus = "PENDING"
	RunRunning RunStatus = "RUNNING"
	RunSuccess RunStatus = "SUCCESS"
	RunPartial RunStatus = "PARTIAL"
	RunError   RunStatus = "ERROR"
)

// Terminal reports whether the status ends the run.
func (s RunStatus) Terminal() bool {
	return s == RunSuccess || s == RunPartial || s == RunError
}

// ErrorSeverity grades a recorded sync error.
type ErrorSeverity string

const (
	SeverityWarning ErrorSeverity = "warning"
	SeverityError   ErrorSeverity = "error"
)

// SupplierRow represents the 'suppliers' table.
type SupplierRow struct {
	ID        uint       `gorm:"column:id;primaryKey;autoIncrement"`
	Code      string     `gorm:"column:code;size:64;uniqueIndex"`
	Name      string     `gorm:"column:name;size:255"`
	LastSync  *time.Time `gorm:"column:last_sync"`
	CreatedAt time.Time  `gorm:"column:created_at"`
	UpdatedAt time.Time  `gorm:"column:updated_at"`
}

func (SupplierRow) TableName() string {
	return "suppliers"
}

// ProductRow represents the 'products' table. The natural key is
// (supplier_code, supplier_ref).
type ProductRow struct {
	ID           uint   `gorm:"column:id;primaryKey;autoIncrement"`
	SupplierCode string `gorm:"column:supplier_code;size:64;uniqueIndex:idx_products_natural"`
	SupplierRef  string `gorm:"column:supplier_ref;size:128;uniqueIndex:idx_products_natural"`
	Name         string `gorm:"column:name;size:512"`
	Description  string `gorm:"column:description;type:text"`
	ShortDesc    string `gorm:"column:short_desc;size:1024"`
	Brand        string `gorm:"column:brand;size:255"`

	CategoryID *uint   `gorm:"column:category_id;index"`
	BasePrice  float64 `gorm:"column:base_price"`
	Currency   string  `gorm:"column:currency;size:8"`

	WeightKg float64 `gorm:"column:weight_kg"`
	LengthCm float64 `gorm:"column:length_cm"`
	WidthCm  float64 `gorm:"column:width_cm"`
	HeightCm float64 `gorm:"column:height_cm"`

	MainImage string `gorm:"column:main_image;size:1024"`
	Images    string `gorm:"column:images;type:text"` // JSON array of URLs

	Printable bool `gorm:"column:printable"`

	// Remote mapping, written only after a confirmed platform push.
	RemoteID     int64  `gorm:"column:remote_id"`
	RemoteStatus string `gorm:"column:remote_status;size:32"`

	LastSync  *time.Time `gorm:"column:last_sync"`
	CreatedAt time.Time  `gorm:"column:created_at"`
	UpdatedAt time.Time  `gorm:"column:updated_at"`
}

func (ProductRow) TableName() string {
	return "products"
}

// ImageList decodes the serialized image URLs.
func (p ProductRow) ImageList() []string {
	if p.Images == "" {
		return nil
	}
	var urls []string
	if err := json.Unmarshal([]byte(p.Images), &urls); err != nil {
		return nil
	}
	return urls
}

// EncodeImages serializes image URLs for the images column.
func EncodeImages(urls []string) string {
	if len(urls) == 0 {
		return ""
	}
	b, err := json.Marshal(urls)
	if err != nil {
		return ""
	}
	return string(b)
}

// VariantRow represents the 'product_variants' table. The natural key is
// (product_id, supplier_variant_ref); the SKU is globally unique.
type VariantRow struct {
	ID                 uint      `gorm:"column:id;primaryKey;autoIncrement"`
	ProductID          uint      `gorm:"column:product_id;uniqueIndex:idx_variants_natural"`
	SupplierVariantRef string    `gorm:"column:supplier_variant_ref;size:128;uniqueIndex:idx_variants_natural"`
	SKU                string    `gorm:"column:sku;size:255;uniqueIndex"`
	Color              string    `gorm:"column:color;size:128"`
	Size               string    `gorm:"column:size;size:64"`
	Image              string    `gorm:"column:image;size:1024"`
	CreatedAt          time.Time `gorm:"column:created_at"`
	UpdatedAt          time.Time `gorm:"column:updated_at"`
}

func (VariantRow) TableName() string {
	return "product_variants"
}

// StockRow represents the 'stocks' table: one row per variant, replaced
// wholesale on every stock sync.
type StockRow struct {
	ID                  uint       `gorm:"column:id;primaryKey;autoIncrement"`
	VariantID           uint       `gorm:"column:variant_id;uniqueIndex"`
	Quantity            int        `gorm:"column:quantity"`
	Available           bool       `gorm:"column:available"`
	NextArrivalDate     *time.Time `gorm:"column:next_arrival_date"`
	NextArrivalQuantity int        `gorm:"column:next_arrival_quantity"`
	UpdatedAt           time.Time  `gorm:"column:updated_at"`
}

func (StockRow) TableName() string {
	return "stocks"
}

// PriceRow represents the 'prices' table. At most one tier set per variant
// is active at any time.
type PriceRow struct {
	ID          uint      `gorm:"column:id;primaryKey;autoIncrement"`
	VariantID   uint      `gorm:"column:variant_id;index"`
	MinQuantity int       `gorm:"column:min_quantity"`
	MaxQuantity int       `gorm:"column:max_quantity"`
	Price       float64   `gorm:"column:price"`
	Currency    string    `gorm:"column:currency;size:8"`
	IsActive    bool      `gorm:"column:is_active;index"`
	CreatedAt   time.Time `gorm:"column:created_at"`
}

func (PriceRow) TableName() string {
	return "prices"
}

// CategoryRow represents the 'categories' table, a tree addressed by slug
// within a parent.
type CategoryRow struct {
	ID          uint      `gorm:"column:id;primaryKey;autoIncrement"`
	ParentID    *uint     `gorm:"column:parent_id;uniqueIndex:idx_categories_parent_slug"`
	Slug        string    `gorm:"column:slug;size:255;uniqueIndex:idx_categories_parent_slug"`
	Name        string    `gorm:"column:name;size:255"`
	SupplierRef string    `gorm:"column:supplier_ref;size:128"`
	RemoteID    int64     `gorm:"column:remote_id"`
	CreatedAt   time.Time `gorm:"column:created_at"`
}

func (CategoryRow) TableName() string {
	return "categories"
}

// SyncRunRow represents the 'sync_runs' table.
type SyncRunRow struct {
	ID           string     `gorm:"column:id;primaryKey;size:36"`
	SupplierCode string     `gorm:"column:supplier_code;size:64;index"`
	Status       RunStatus  `gorm:"column:status;size:16"`
	Processed    int        `gorm:"column:processed"`
	Created      int        `gorm:"column:created"`
	Updated      int        `gorm:"column:updated"`
	Errors       int        `gorm:"column:errors"`
	StartedAt    *time.Time `gorm:"column:started_at"`
	FinishedAt   *time.Time `gorm:"column:finished_at"`
	CreatedAt    time.Time  `gorm:"column:created_at"`
}

func (SyncRunRow) TableName() string {
	return "sync_runs"
}

// SyncErrorRow represents the append-only 'sync_errors' table.
type SyncErrorRow struct {
	ID         uint          `gorm:"column:id;primaryKey;autoIncrement"`
	RunID      string        `gorm:"column:run_id;size:36;index"`
	Kind       string        `gorm:"column:kind;size:32"`
	Severity   ErrorSeverity `gorm:"column:severity;size:16"`
	ObjectType string        `gorm:"column:object_type;size:32"`
	ObjectRef  string        `gorm:"column:object_ref;size:255"`
	Message    string        `gorm:"column:message;type:text"`
	Context    string        `gorm:"column:context;type:text"`
	CreatedAt  time.Time     `gorm:"column:created_at"`
}

func (SyncErrorRow) TableName() string {
	return "sync_errors"
}
