package xmlfeed

import (
	"context"
	"encoding/xml"
	"fmt"
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

// productElement is the repeated element every feed kind of this format
// wraps its records in.
const productElement = "product"

// Client reads streaming-XML feeds: large per-kind XML documents walked
// with a forward-only decoder, one product subtree buffered at a time.
type Client struct {
	src   supplier.Source
	cache *cache.Store
	log   *zap.Logger
	http  *http.Client
}

// New creates a streaming-XML client for the source.
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
	records, err := c.load(ctx, cache.KindProducts, c.src.Feeds.Products, opts.ForceRefresh)
	if err != nil {
		return nil, err
	}

	limit := opts.Truncate(len(records))
	products := make([]models.Product, 0, limit)
	for _, rec := range records {
		p, err := normalizeProduct(c.src, rec)
		if err != nil {
			c.log.Debug("skipping invalid product record", zap.Error(err))
			continue
		}
		products = append(products, p)
		if len(products) >= limit {
			break
		}
	}
	return products, nil
}

func (c *Client) FetchStock(ctx context.Context, opts supplier.FetchOptions) ([]models.Stock, error) {
	if c.src.Feeds.Stock == "" {
		return nil, nil
	}
	records, err := c.load(ctx, cache.KindStock, c.src.Feeds.Stock, opts.ForceRefresh)
	if err != nil {
		return nil, err
	}

	limit := opts.Truncate(len(records))
	stock := make([]models.Stock, 0, limit)
	for _, rec := range records {
		s, err := normalizeStock(c.src, rec)
		if err != nil {
			c.log.Debug("skipping invalid stock record", zap.Error(err))
			continue
		}
		stock = append(stock, s)
		if len(stock) >= limit {
			break
		}
	}
	return stock, nil
}

func (c *Client) FetchPrices(ctx context.Context, opts supplier.FetchOptions) ([]models.VariantPrices, error) {
	if c.src.Feeds.Prices == "" {
		return nil, nil
	}
	records, err := c.load(ctx, cache.KindPrices, c.src.Feeds.Prices, opts.ForceRefresh)
	if err != nil {
		return nil, err
	}

	limit := opts.Truncate(len(records))
	prices := make([]models.VariantPrices, 0, limit)
	for _, rec := range records {
		p, err := normalizePrices(c.src, rec)
		if err != nil {
			c.log.Debug("skipping invalid price record", zap.Error(err))
			continue
		}
		prices = append(prices, p)
		if len(prices) >= limit {
			break
		}
	}
	return prices, nil
}

func (c *Client) FetchPrintData(ctx context.Context, opts supplier.FetchOptions) ([]models.PrintData, error) {
	if c.src.Feeds.PrintData == "" {
		return nil, nil
	}
	records, err := c.load(ctx, cache.KindPrintData, c.src.Feeds.PrintData, opts.ForceRefresh)
	if err != nil {
		return nil, err
	}

	limit := opts.Truncate(len(records))
	printData := make([]models.PrintData, 0, limit)
	for _, rec := range records {
		pd, err := normalizePrintData(c.src, rec)
		if err != nil {
			c.log.Debug("skipping invalid print record", zap.Error(err))
			continue
		}
		printData = append(printData, pd)
		if len(printData) >= limit {
			break
		}
	}
	return printData, nil
}

// TestConnection opens the products feed and decodes up to the first
// product element, without touching the cache.
func (c *Client) TestConnection(ctx context.Context) error {
	rc, err := c.open(ctx, c.src.Feeds.Products)
	if err != nil {
		return err
	}
	defer rc.Close()

	dec := xml.NewDecoder(rc)
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return supplier.WrapErr(supplier.KindParse, c.src.Code, err)
		}
		if start, ok := tok.(xml.StartElement); ok && start.Name.Local == productElement {
			if _, err := decodeSubtree(dec, start); err != nil {
				return supplier.WrapErr(supplier.KindParse, c.src.Code, err)
			}
			return nil
		}
	}
}

// load returns the parsed feed for one kind, going through the cache.
func (c *Client) load(ctx context.Context, kind cache.DataKind, location string, force bool) ([]*feed.Record, error) {
	records, hit, err := c.cache.GetOrFetch(ctx, c.src.Code, kind, force, func(ctx context.Context) ([]*feed.Record, error) {
		return c.parse(ctx, location)
	})
	if err != nil {
		return nil, err
	}
	if hit {
		c.log.Debug("feed served from cache",
			zap.String("supplier", c.src.Code),
			zap.String("kind", string(kind)))
	}
	return records, nil
}

func (c *Client) parse(ctx context.Context, location string) ([]*feed.Record, error) {
	rc, err := c.open(ctx, location)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	records, skipped, err := parseStream(ctx, rc, productElement)
	if err != nil {
		if err == ctx.Err() {
			return nil, err
		}
		return nil, supplier.WrapErr(supplier.KindParse, c.src.Code, err)
	}
	if skipped > 0 {
		c.log.Warn("skipped malformed feed elements",
			zap.String("supplier", c.src.Code),
			zap.String("location", location),
			zap.Int("skipped", skipped))
	}
	return records, nil
}

// open resolves a feed location to a reader: http(s) URLs are fetched with
// the client timeout, everything else is a local file path.
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
		if resp.ContentLength == 0 {
			resp.Body.Close()
			return nil, supplier.Errf(supplier.KindEmptyFile, c.src.Code, "feed is empty: %s", location)
		}
		return resp.Body, nil
	}

	info, err := os.Stat(location)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, supplier.Errf(supplier.KindNotFound, c.src.Code, "feed file not found: %s", location)
		}
		return nil, supplier.WrapErr(supplier.KindTransport, c.src.Code, fmt.Errorf("stat %s: %w", location, err))
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
