package supplier

import (
	"context"

	"supplier-sync/feature/catalog/models"
)

// FetchOptions tunes a single fetch call.
type FetchOptions struct {
	// Limit caps the number of returned records; zero means no cap.
	Limit int
	// ForceRefresh bypasses the feed cache and overwrites it on success.
	ForceRefresh bool
}

// Client hides feed-format differences behind one capability interface.
// Sources without separate price or print feeds return empty slices from
// the corresponding methods.
type Client interface {
	FetchProducts(ctx context.Context, opts FetchOptions) ([]models.Product, error)
	FetchStock(ctx context.Context, opts FetchOptions) ([]models.Stock, error)
	FetchPrices(ctx context.Context, opts FetchOptions) ([]models.VariantPrices, error)
	FetchPrintData(ctx context.Context, opts FetchOptions) ([]models.PrintData, error)

	// TestConnection performs a one-record fetch and reports failure as an
	// error without side effects on the cache.
	TestConnection(ctx context.Context) error
}

// Truncate returns how many of n records survive the option's cap. A zero
// limit passes everything through.
func (o FetchOptions) Truncate(n int) int {
	if o.Limit > 0 && o.Limit < n {
		return o.Limit
	}
	return n
}
