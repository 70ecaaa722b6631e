package restfeed

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"supplier-sync/core/cache"
	"supplier-sync/core/feed"
	"supplier-sync/feature/catalog/models"
	"supplier-sync/feature/supplier"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	// defaultPageSize is the page size requested from the API.
	defaultPageSize = 100
	// maxPages is the hard pagination ceiling; a feed that never returns an
	// empty page cannot loop forever.
	maxPages = 500
	// rateLimitBackoff is the fixed delay before retrying a 429 response.
	rateLimitBackoff = 5 * time.Second
	// requestsPerSecond paces outgoing API calls.
	requestsPerSecond = 2
)

// Client reads paginated REST feeds: JSON endpoints fetched page by page
// until an empty page or the page ceiling, paced by a rate limiter.
type Client struct {
	src      supplier.Source
	cache    *cache.Store
	log      *zap.Logger
	http     *http.Client
	limiter  *rate.Limiter
	pageSize int
	backoff  time.Duration
}

// New creates a paginated REST client for the source.
func New(src supplier.Source, store *cache.Store, log *zap.Logger) *Client {
	return &Client{
		src:   src,
		cache: store,
		log:   log,
		http: &http.Client{
			Timeout: 30 * time.Second,
		},
		limiter:  rate.NewLimiter(rate.Limit(requestsPerSecond), 1),
		pageSize: defaultPageSize,
		backoff:  rateLimitBackoff,
	}
}

func (c *Client) FetchProducts(ctx context.Context, opts supplier.FetchOptions) ([]models.Product, error) {
	records, err := c.load(ctx, cache.KindProducts, c.src.Feeds.Products, "products", opts.ForceRefresh)
	if err != nil {
		return nil, err
	}

	limit := opts.Truncate(len(records))
	products := make([]models.Product, 0, limit)
	for _, rec := range records {
		p, err := normalizeProduct(c.src, rec)
		if err != nil {
			c.log.Debug("skipping invalid product item", zap.Error(err))
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
	records, err := c.load(ctx, cache.KindStock, c.src.Feeds.Stock, "stock", opts.ForceRefresh)
	if err != nil {
		return nil, err
	}

	limit := opts.Truncate(len(records))
	stock := make([]models.Stock, 0, limit)
	for _, rec := range records {
		s, err := normalizeStock(c.src, rec)
		if err != nil {
			c.log.Debug("skipping invalid stock item", zap.Error(err))
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
	records, err := c.load(ctx, cache.KindPrices, c.src.Feeds.Prices, "price", opts.ForceRefresh)
	if err != nil {
		return nil, err
	}

	limit := opts.Truncate(len(records))
	prices := make([]models.VariantPrices, 0, limit)
	for _, rec := range records {
		p, err := normalizePrices(c.src, rec)
		if err != nil {
			c.log.Debug("skipping invalid price item", zap.Error(err))
			continue
		}
		prices = append(prices, p)
		if len(prices) >= limit {
			break
		}
	}
	return prices, nil
}

// FetchPrintData reads the print-data endpoint when the source declares
// one; sources without it yield nothing.
func (c *Client) FetchPrintData(ctx context.Context, opts supplier.FetchOptions) ([]models.PrintData, error) {
	if c.src.Feeds.PrintData == "" {
		return nil, nil
	}
	records, err := c.load(ctx, cache.KindPrintData, c.src.Feeds.PrintData, "products", opts.ForceRefresh)
	if err != nil {
		return nil, err
	}

	limit := opts.Truncate(len(records))
	printData := make([]models.PrintData, 0, limit)
	for _, rec := range records {
		pd, err := normalizePrintData(c.src, rec)
		if err != nil {
			continue
		}
		printData = append(printData, pd)
		if len(printData) >= limit {
			break
		}
	}
	return printData, nil
}

// TestConnection requests the first products page without caching it.
func (c *Client) TestConnection(ctx context.Context) error {
	_, err := c.fetchPage(ctx, c.src.Feeds.Products, "products", 1)
	return err
}

func (c *Client) load(ctx context.Context, kind cache.DataKind, endpoint, itemsKey string, force bool) ([]*feed.Record, error) {
	records, hit, err := c.cache.GetOrFetch(ctx, c.src.Code, kind, force, func(ctx context.Context) ([]*feed.Record, error) {
		return c.fetchAllPages(ctx, endpoint, itemsKey)
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

// fetchAllPages walks the endpoint page by page until an empty page, a
// short page, or the hard ceiling.
func (c *Client) fetchAllPages(ctx context.Context, endpoint, itemsKey string) ([]*feed.Record, error) {
	var all []*feed.Record
	for page := 1; page <= maxPages; page++ {
		items, err := c.fetchPage(ctx, endpoint, itemsKey, page)
		if err != nil {
			return nil, err
		}
		all = append(all, items...)
		if len(items) < c.pageSize {
			break
		}
	}
	return all, nil
}

// fetchPage requests one page, mapping HTTP failures to the error taxonomy.
// A 429 is retried once after a fixed backoff.
func (c *Client) fetchPage(ctx context.Context, endpoint, itemsKey string, page int) ([]*feed.Record, error) {
	items, retryable, err := c.doPage(ctx, endpoint, itemsKey, page)
	if err == nil || !retryable {
		return items, err
	}

	c.log.Warn("rate limited, backing off",
		zap.String("supplier", c.src.Code),
		zap.Duration("backoff", c.backoff))
	select {
	case <-time.After(c.backoff):
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	items, _, err = c.doPage(ctx, endpoint, itemsKey, page)
	return items, err
}

func (c *Client) doPage(ctx context.Context, endpoint, itemsKey string, page int) ([]*feed.Record, bool, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, false, err
	}

	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, false, supplier.Errf(supplier.KindConfiguration, c.src.Code, "invalid endpoint %q: %v", endpoint, err)
	}
	q := u.Query()
	q.Set("page", strconv.Itoa(page))
	q.Set("page_size", strconv.Itoa(c.pageSize))
	if c.src.PreferredLocale != "" {
		q.Set("language", c.src.PreferredLocale)
	}
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, false, supplier.WrapErr(supplier.KindTransport, c.src.Code, err)
	}
	req.Header.Set("Accept", "application/json")
	if c.src.Credentials.APIKey != "" {
		req.Header.Set("x-Gateway-APIKey", c.src.Credentials.APIKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, false, supplier.WrapErr(supplier.KindTransport, c.src.Code, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusUnauthorized, http.StatusForbidden:
		return nil, false, supplier.Errf(supplier.KindAuthentication, c.src.Code, "authentication failed (%d)", resp.StatusCode)
	case http.StatusTooManyRequests:
		return nil, true, supplier.Errf(supplier.KindRateLimit, c.src.Code, "rate limit exceeded")
	default:
		return nil, false, supplier.Errf(supplier.KindTransport, c.src.Code, "unexpected status %d from %s", resp.StatusCode, u.Path)
	}

	var body any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, false, supplier.WrapErr(supplier.KindParse, c.src.Code, err)
	}

	items, err := extractItems(body, itemsKey)
	if err != nil {
		return nil, false, supplier.WrapErr(supplier.KindParse, c.src.Code, err)
	}
	return items, false, nil
}

// extractItems accepts either a bare JSON array or an object wrapping the
// array under the kind's key.
func extractItems(body any, itemsKey string) ([]*feed.Record, error) {
	var raw []any
	switch t := body.(type) {
	case []any:
		raw = t
	case map[string]any:
		wrapped, ok := t[itemsKey].([]any)
		if !ok {
			if t[itemsKey] == nil {
				return nil, nil
			}
			return nil, fmt.Errorf("unexpected payload shape under %q", itemsKey)
		}
		raw = wrapped
	default:
		return nil, fmt.Errorf("unexpected payload type %T", body)
	}

	records := make([]*feed.Record, 0, len(raw))
	for _, item := range raw {
		rec := feed.FromJSON(item)
		if rec.Kind() != feed.KindMap {
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

// dimensionsString joins whatever free-text dimension field the API sends.
func dimensionsString(rec *feed.Record) string {
	for _, key := range []string{"dimensions", "size_dimensions"} {
		if v := rec.Str(key); v != "" {
			return v
		}
	}
	return strings.TrimSpace(strings.Join([]string{rec.Str("length"), rec.Str("width"), rec.Str("height")}, "x"))
}
