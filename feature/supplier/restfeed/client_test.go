package restfeed

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"supplier-sync/core/cache"
	"supplier-sync/feature/catalog/models"
	"supplier-sync/feature/supplier"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

func newTestClient(t *testing.T, feeds supplier.FeedLocations) *Client {
	t.Helper()
	src := supplier.Source{
		Code:            "midocean",
		Name:            "Midocean",
		Format:          supplier.FormatPaginatedREST,
		Active:          true,
		Prefix:          "MID",
		PreferredLocale: "it",
		Currency:        "EUR",
		Feeds:           feeds,
		Credentials:     supplier.Credentials{APIKey: "test-key"},
	}
	store := cache.New(cache.Config{ProductsTTLMinutes: 360, StockTTLMinutes: 30, PricesTTLMinutes: 240, PrintDataTTLMinutes: 720})
	c := New(src, store, zap.NewNop())
	c.limiter = rate.NewLimiter(rate.Inf, 0)
	c.backoff = 10 * time.Millisecond
	return c
}

func productItem(code string) map[string]any {
	return map[string]any{
		"master_code":       code,
		"product_name":      "Notebook " + code,
		"long_description":  "A5 notebook with elastic band",
		"short_description": "A5 notebook",
		"brand":             "Midocean",
		"dimensions":        "21X14X1,6 CM",
		"net_weight":        "0.180",
		"main_image":        "https://img.example.com/" + code + ".jpg",
		"category_level1":   "Office",
		"category_level2":   "Notebooks",
		"variants": []any{
			map[string]any{
				"variant_id":        code + "-03",
				"sku":               code + "-03",
				"color_description": "Blue",
			},
		},
	}
}

func TestFetchProductsPaginates(t *testing.T) {
	var pagesServed int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.Header.Get("x-Gateway-APIKey"))
		assert.Equal(t, "it", r.URL.Query().Get("language"))

		atomic.AddInt32(&pagesServed, 1)
		page := r.URL.Query().Get("page")

		var items []any
		switch page {
		case "1":
			// A full page keeps pagination going.
			for i := 0; i < defaultPageSize; i++ {
				items = append(items, productItem(fmt.Sprintf("MO%04d", i)))
			}
		case "2":
			items = append(items, productItem("MO9999"))
		}
		json.NewEncoder(w).Encode(map[string]any{"products": items})
	}))
	defer srv.Close()

	client := newTestClient(t, supplier.FeedLocations{Products: srv.URL + "/gateway/products/2.0"})

	products, err := client.FetchProducts(context.Background(), supplier.FetchOptions{})
	require.NoError(t, err)
	assert.Len(t, products, defaultPageSize+1)
	// Page 2 was short, so page 3 was never requested.
	assert.Equal(t, int32(2), atomic.LoadInt32(&pagesServed))

	p := products[0]
	assert.Equal(t, "MO0000", p.SupplierRef)
	assert.Equal(t, "Notebook MO0000", p.Name)
	assert.Equal(t, 21.0, p.LengthCm)
	assert.Equal(t, 1.6, p.HeightCm)
	assert.InDelta(t, 0.18, p.WeightKg, 1e-9)
	require.Len(t, p.CategoryPath, 2)
	assert.Equal(t, "Office", p.CategoryPath[0].Name)
	require.Len(t, p.Variants, 1)
	assert.Equal(t, "MO0000-03", p.Variants[0].SKU)
}

func TestFetchProductsLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		items := []any{productItem("A1"), productItem("A2"), productItem("A3")}
		json.NewEncoder(w).Encode(map[string]any{"products": items})
	}))
	defer srv.Close()

	client := newTestClient(t, supplier.FeedLocations{Products: srv.URL})
	products, err := client.FetchProducts(context.Background(), supplier.FetchOptions{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, products, 2)
}

func TestFetchStock(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"stock": []any{
			map[string]any{"sku": "MO0001-03", "qty": float64(120), "first_arrival_date": "2026-10-01", "first_arrival_qty": float64(500)},
			map[string]any{"sku": "MO0002-06", "qty": float64(0)},
			map[string]any{"qty": float64(9)},
		}})
	}))
	defer srv.Close()

	client := newTestClient(t, supplier.FeedLocations{Products: srv.URL, Stock: srv.URL + "/stock"})
	stock, err := client.FetchStock(context.Background(), supplier.FetchOptions{})
	require.NoError(t, err)
	// The SKU-less item is dropped.
	require.Len(t, stock, 2)

	assert.Equal(t, 120, stock[0].Quantity)
	assert.True(t, stock[0].Available)
	require.NotNil(t, stock[0].NextArrivalDate)
	assert.Equal(t, 500, stock[0].NextArrivalQuantity)

	assert.Equal(t, 0, stock[1].Quantity)
	assert.False(t, stock[1].Available)
}

func TestFetchPricesScaleAndFlat(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"price": []any{
			map[string]any{
				"sku":      "MO0001-03",
				"currency": "EUR",
				"scale": []any{
					map[string]any{"minimum_quantity": float64(1), "price": "12,50"},
					map[string]any{"minimum_quantity": float64(100), "price": "10,90"},
				},
			},
			map[string]any{"sku": "MO0002-06", "price": "3,20"},
		}})
	}))
	defer srv.Close()

	client := newTestClient(t, supplier.FeedLocations{Products: srv.URL, Prices: srv.URL + "/prices"})
	prices, err := client.FetchPrices(context.Background(), supplier.FetchOptions{})
	require.NoError(t, err)
	require.Len(t, prices, 2)

	scaled := prices[0]
	require.Len(t, scaled.Tiers, 2)
	assert.Equal(t, 1, scaled.Tiers[0].MinQuantity)
	assert.Equal(t, 99, scaled.Tiers[0].MaxQuantity)
	assert.InDelta(t, 12.5, scaled.Tiers[0].Price, 1e-9)
	assert.Equal(t, models.UnboundedQuantity, scaled.Tiers[1].MaxQuantity)

	flat := prices[1]
	require.Len(t, flat.Tiers, 1)
	assert.Equal(t, 1, flat.Tiers[0].MinQuantity)
	assert.Equal(t, models.UnboundedQuantity, flat.Tiers[0].MaxQuantity)
	assert.InDelta(t, 3.2, flat.Tiers[0].Price, 1e-9)
}

func TestAuthenticationError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	client := newTestClient(t, supplier.FeedLocations{Products: srv.URL})
	_, err := client.FetchProducts(context.Background(), supplier.FetchOptions{})
	assert.True(t, supplier.IsKind(err, supplier.KindAuthentication))
}

func TestRateLimitRetriesOnceThenSucceeds(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"products": []any{productItem("A1")}})
	}))
	defer srv.Close()

	client := newTestClient(t, supplier.FeedLocations{Products: srv.URL})
	products, err := client.FetchProducts(context.Background(), supplier.FetchOptions{})
	require.NoError(t, err)
	assert.Len(t, products, 1)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestRateLimitExhaustsRetry(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	client := newTestClient(t, supplier.FeedLocations{Products: srv.URL})
	_, err := client.FetchProducts(context.Background(), supplier.FetchOptions{})
	assert.True(t, supplier.IsKind(err, supplier.KindRateLimit))
}

func TestTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := newTestClient(t, supplier.FeedLocations{Products: srv.URL})
	_, err := client.FetchProducts(context.Background(), supplier.FetchOptions{})
	assert.True(t, supplier.IsKind(err, supplier.KindTransport))
}

func TestSecondFetchServedFromCache(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		json.NewEncoder(w).Encode(map[string]any{"products": []any{productItem("A1")}})
	}))
	defer srv.Close()

	client := newTestClient(t, supplier.FeedLocations{Products: srv.URL})

	_, err := client.FetchProducts(context.Background(), supplier.FetchOptions{})
	require.NoError(t, err)
	_, err = client.FetchProducts(context.Background(), supplier.FetchOptions{})
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))

	_, err = client.FetchProducts(context.Background(), supplier.FetchOptions{ForceRefresh: true})
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestTestConnection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"products": []any{}})
	}))
	defer srv.Close()

	client := newTestClient(t, supplier.FeedLocations{Products: srv.URL})
	assert.NoError(t, client.TestConnection(context.Background()))

	srv.Close()
	assert.Error(t, client.TestConnection(context.Background()))
}
