package csvfeed

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"supplier-sync/core/cache"
	"supplier-sync/feature/catalog/models"
	"supplier-sync/feature/supplier"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const catalogCSV = `productCode,language,active,name,description,benefits,brand,listImage,imprintTemplate,imprintRequired,width,height,depth,weight,price.currency,minQty.1,maxQty.1,price.1,minQty.2,maxQty.2,price.2
P1,it,1,Penna a Sfera,Penna a sfera con corpo colorato,Scrittura fluida,BIC,https://img.example.com/p1.jpg,https://img.example.com/p1_tpl.jpg,1,1.2,14.5,1.2,8 g,EUR,100,499,"0,45",500,,"0,39"
P1,en,1,Ballpoint Pen,Ballpoint pen with colored barrel,Smooth writing,BIC,https://img.example.com/p1.jpg,,1,1.2,14.5,1.2,8 g,EUR,100,499,"0,45",500,,"0,39"
P2,en,1,Lighter,Classic pocket lighter,,BIC,https://img.example.com/p2.jpg,,0,2.5,8.0,1.1,22 g,EUR,50,,"1,10",,,
P3,it,0,Prodotto Ritirato,Non piu disponibile,,BIC,,,0,,,,,,,,,,,
`

func writeCatalog(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "catalog.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func newTestClient(t *testing.T, path, preferredLocale string) *Client {
	t.Helper()
	src := supplier.Source{
		Code:            "bic",
		Name:            "BIC Graphic",
		Format:          supplier.FormatGroupedCSV,
		Active:          true,
		Prefix:          "BIC",
		PreferredLocale: preferredLocale,
		Feeds:           supplier.FeedLocations{Products: path},
	}
	store := cache.New(cache.Config{ProductsTTLMinutes: 360, StockTTLMinutes: 30, PricesTTLMinutes: 240, PrintDataTTLMinutes: 720})
	return New(src, store, zap.NewNop())
}

func TestFetchProductsPrefersConfiguredLocale(t *testing.T) {
	client := newTestClient(t, writeCatalog(t, catalogCSV), "it")

	products, err := client.FetchProducts(context.Background(), supplier.FetchOptions{})
	require.NoError(t, err)
	// P3 is inactive and never enters the pipeline.
	require.Len(t, products, 2)

	p1 := products[0]
	assert.Equal(t, "P1", p1.SupplierRef)
	assert.Equal(t, "Penna a Sfera", p1.Name)
	assert.Equal(t, "Penna a sfera con corpo colorato", p1.Description)
	assert.Equal(t, "Scrittura fluida", p1.ShortDesc)

	// P2 has no it row, falls back to en.
	assert.Equal(t, "Lighter", products[1].Name)
}

func TestFetchProductsLocaleFallbackToFirst(t *testing.T) {
	csv := `productCode,language,active,name,minQty.1,price.1
P9,de,1,Kugelschreiber,100,"0,50"
`
	client := newTestClient(t, writeCatalog(t, csv), "it")

	products, err := client.FetchProducts(context.Background(), supplier.FetchOptions{})
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "Kugelschreiber", products[0].Name)
}

func TestFetchProductsShape(t *testing.T) {
	client := newTestClient(t, writeCatalog(t, catalogCSV), "it")

	products, err := client.FetchProducts(context.Background(), supplier.FetchOptions{})
	require.NoError(t, err)
	p1 := products[0]

	// Flat category synthesis: brand plus the promotional bucket.
	assert.Equal(t, []string{"BIC", "Promotional Products"}, p1.Categories)
	assert.Empty(t, p1.CategoryPath)

	assert.Equal(t, []string{
		"https://img.example.com/p1.jpg",
		"https://img.example.com/p1_tpl.jpg",
	}, p1.Images)

	assert.Equal(t, 1.2, p1.WidthCm)
	assert.Equal(t, 14.5, p1.HeightCm)
	assert.InDelta(t, 0.008, p1.WeightKg, 1e-9)

	require.Len(t, p1.Variants, 1)
	assert.Equal(t, "BIC_P1", p1.Variants[0].SKU)
	assert.Equal(t, "P1", p1.Variants[0].SupplierVariantRef)

	require.Len(t, p1.Tiers, 2)
	assert.Equal(t, 100, p1.Tiers[0].MinQuantity)
	assert.Equal(t, 499, p1.Tiers[0].MaxQuantity)
	assert.InDelta(t, 0.45, p1.Tiers[0].Price, 1e-9)
	// Missing maxQty means unbounded.
	assert.Equal(t, models.UnboundedQuantity, p1.Tiers[1].MaxQuantity)
}

func TestFetchPrices(t *testing.T) {
	client := newTestClient(t, writeCatalog(t, catalogCSV), "it")

	prices, err := client.FetchPrices(context.Background(), supplier.FetchOptions{})
	require.NoError(t, err)
	require.Len(t, prices, 2)

	assert.Equal(t, "BIC_P1", prices[0].SKU)
	assert.Len(t, prices[0].Tiers, 2)
	assert.Equal(t, "BIC_P2", prices[1].SKU)
	require.Len(t, prices[1].Tiers, 1)
	assert.InDelta(t, 1.10, prices[1].Tiers[0].Price, 1e-9)
}

func TestFetchPrintData(t *testing.T) {
	client := newTestClient(t, writeCatalog(t, catalogCSV), "it")

	printData, err := client.FetchPrintData(context.Background(), supplier.FetchOptions{})
	require.NoError(t, err)
	// Only P1 has imprintRequired=1.
	require.Len(t, printData, 1)
	assert.Equal(t, "P1", printData[0].SupplierRef)
	assert.True(t, printData[0].Printable)
}

func TestFetchStockIsEmpty(t *testing.T) {
	client := newTestClient(t, writeCatalog(t, catalogCSV), "it")
	stock, err := client.FetchStock(context.Background(), supplier.FetchOptions{})
	require.NoError(t, err)
	assert.Empty(t, stock)
}

func TestFetchProductsLimit(t *testing.T) {
	client := newTestClient(t, writeCatalog(t, catalogCSV), "it")
	products, err := client.FetchProducts(context.Background(), supplier.FetchOptions{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, products, 1)
}

func TestFetchMissingFile(t *testing.T) {
	client := newTestClient(t, "/nonexistent/catalog.csv", "it")
	_, err := client.FetchProducts(context.Background(), supplier.FetchOptions{})
	assert.True(t, supplier.IsKind(err, supplier.KindNotFound))
}

func TestTestConnection(t *testing.T) {
	client := newTestClient(t, writeCatalog(t, catalogCSV), "it")
	assert.NoError(t, client.TestConnection(context.Background()))
}
