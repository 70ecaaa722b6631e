package csvfeed

import (
	"context"
	"encoding/csv"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"supplier-sync/core/cache"
	"supplier-sync/core/feed"
	"supplier-sync/feature/catalog/models"
	"supplier-sync/feature/supplier"

	"go.uber.org/zap"
)

// Client reads grouped-CSV feeds: one flat file where each product appears
// as one row per language, grouped by product code before normalization.
type Client struct {
	src   supplier.Source
	cache *cache.Store
	log   *zap.Logger
	http  *http.Client
}

// New creates a grouped-CSV client for the source.
func New(src supplier.Source, store *cache.Store, log *zap.Logger) *Client {
	return &Client{
		src:   src,
		cache: store,
		log:   log,
		http: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

func (c *Client) FetchProducts(ctx context.Context, opts supplier.FetchOptions) ([]models.Product, error) {
	groups, err := c.loadGroups(ctx, opts.ForceRefresh)
	if err != nil {
		return nil, err
	}

	limit := opts.Truncate(len(groups))
	products := make([]models.Product, 0, limit)
	for _, g := range groups {
		p, err := normalizeProduct(c.src, g)
		if err != nil {
			c.log.Debug("skipping invalid product row group", zap.Error(err))
			continue
		}
		products = append(products, p)
		if len(products) >= limit {
			break
		}
	}
	return products, nil
}

// FetchStock returns nothing: this format carries no separate stock feed.
func (c *Client) FetchStock(ctx context.Context, opts supplier.FetchOptions) ([]models.Stock, error) {
	return nil, nil
}

// FetchPrices extracts the tier columns of each product row. Prices live in
// the same file as the catalog, so this shares the products cache entry.
func (c *Client) FetchPrices(ctx context.Context, opts supplier.FetchOptions) ([]models.VariantPrices, error) {
	groups, err := c.loadGroups(ctx, opts.ForceRefresh)
	if err != nil {
		return nil, err
	}

	limit := opts.Truncate(len(groups))
	prices := make([]models.VariantPrices, 0, limit)
	for _, g := range groups {
		row := pickLocale(c.src.PreferredLocale, g)
		tiers := extractTiers(row)
		if len(tiers) == 0 {
			continue
		}
		prices = append(prices, models.VariantPrices{
			SupplierRef: g.code,
			SKU:         supplier.SynthesizeSKU(c.src.Prefix, g.code, "", ""),
			Tiers:       tiers,
		})
		if len(prices) >= limit {
			break
		}
	}
	return prices, nil
}

// FetchPrintData surfaces rows flagged as requiring an imprint.
func (c *Client) FetchPrintData(ctx context.Context, opts supplier.FetchOptions) ([]models.PrintData, error) {
	groups, err := c.loadGroups(ctx, opts.ForceRefresh)
	if err != nil {
		return nil, err
	}

	limit := opts.Truncate(len(groups))
	var printData []models.PrintData
	for _, g := range groups {
		row := pickLocale(c.src.PreferredLocale, g)
		if row.Str("imprintRequired") != "1" {
			continue
		}
		printData = append(printData, models.PrintData{
			SupplierRef: g.code,
			Printable:   true,
			Areas: []models.PrintArea{
				{Name: "Standard", Technique: "pad", MaxColors: 4},
			},
		})
		if len(printData) >= limit {
			break
		}
	}
	return printData, nil
}

// TestConnection reads the header and the first data row.
func (c *Client) TestConnection(ctx context.Context) error {
	rc, err := c.open(ctx, c.src.Feeds.Products)
	if err != nil {
		return err
	}
	defer rc.Close()

	reader := csv.NewReader(rc)
	if _, err := reader.Read(); err != nil {
		return supplier.WrapErr(supplier.KindParse, c.src.Code, err)
	}
	if _, err := reader.Read(); err != nil && err != io.EOF {
		return supplier.WrapErr(supplier.KindParse, c.src.Code, err)
	}
	return nil
}

// loadGroups returns the active rows grouped by product code, with the raw
// rows coming from the products cache entry.
func (c *Client) loadGroups(ctx context.Context, force bool) ([]*group, error) {
	rows, _, err := c.cache.GetOrFetch(ctx, c.src.Code, cache.KindProducts, force, func(ctx context.Context) ([]*feed.Record, error) {
		return c.parse(ctx)
	})
	if err != nil {
		return nil, err
	}
	return groupRows(rows), nil
}

func (c *Client) parse(ctx context.Context) ([]*feed.Record, error) {
	rc, err := c.open(ctx, c.src.Feeds.Products)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	reader := csv.NewReader(rc)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, supplier.Errf(supplier.KindEmptyFile, c.src.Code, "feed has no header: %s", c.src.Feeds.Products)
	}
	if err != nil {
		return nil, supplier.WrapErr(supplier.KindParse, c.src.Code, err)
	}

	var (
		records []*feed.Record
		skipped int
	)
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			skipped++
			continue
		}

		rec := feed.FromRow(header, row)
		// Inactive rows never enter the pipeline.
		if rec.Str("active") != "1" {
			continue
		}
		if rec.Str("productCode") == "" {
			skipped++
			continue
		}
		records = append(records, rec)
	}

	if skipped > 0 {
		c.log.Warn("skipped malformed feed rows",
			zap.String("supplier", c.src.Code),
			zap.Int("skipped", skipped))
	}
	return records, nil
}

func (c *Client) open(ctx context.Context, location string) (io.ReadCloser, error) {
	if location == "" {
		return nil, supplier.Errf(supplier.KindConfiguration, c.src.Code, "feed location is empty")
	}

	if strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://") {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
		if err != nil {
			return nil, supplier.WrapErr(supplier.KindTransport, c.src.Code, err)
		}
		if c.src.Credentials.Username != "" {
			req.SetBasicAuth(c.src.Credentials.Username, c.src.Credentials.Password)
		}
		resp, err := c.http.Do(req)
		if err != nil {
			return nil, supplier.WrapErr(supplier.KindTransport, c.src.Code, err)
		}
		switch {
		case resp.StatusCode == http.StatusNotFound:
			resp.Body.Close()
			return nil, supplier.Errf(supplier.KindNotFound, c.src.Code, "feed not found: %s", location)
		case resp.StatusCode == http.StatusUnauthorized:
			resp.Body.Close()
			return nil, supplier.Errf(supplier.KindAuthentication, c.src.Code, "authentication failed for %s", location)
		case resp.StatusCode != http.StatusOK:
			resp.Body.Close()
			return nil, supplier.Errf(supplier.KindTransport, c.src.Code, "unexpected status %d for %s", resp.StatusCode, location)
		}
		return resp.Body, nil
	}

	info, err := os.Stat(location)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, supplier.Errf(supplier.KindNotFound, c.src.Code, "feed file not found: %s", location)
		}
		return nil, supplier.WrapErr(supplier.KindTransport, c.src.Code, err)
	}
	if info.Size() == 0 {
		return nil, supplier.Errf(supplier.KindEmptyFile, c.src.Code, "feed file is empty: %s", location)
	}

	f, err := os.Open(location)
	if err != nil {
		return nil, supplier.WrapErr(supplier.KindTransport, c.src.Code, err)
	}
	return f, nil
}
