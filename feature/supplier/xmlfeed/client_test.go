package xmlfeed

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

const productsXML = `<?xml version="1.0" encoding="UTF-8"?>
<catalog>
  <product>
    <ref>4078</ref>
    <name>Zaino Trekking</name>
    <brand>Makito</brand>
    <extendedinfo>Zaino da trekking 30L</extendedinfo>
    <otherinfo>Poliestere 600D</otherinfo>
    <item_long>45</item_long>
    <item_width>30</item_width>
    <item_hight>15</item_hight>
    <item_weight>0,42</item_weight>
    <imagemain>https://img.example.com/4078.jpg</imagemain>
    <images>
      <image><imagemax>https://img.example.com/4078_a.jpg</imagemax></image>
      <image><imagemax>https://img.example.com/4078_b.jpg</imagemax></image>
    </images>
    <categories>
      <category_ref_1>10</category_ref_1>
      <category_name_1>Borse</category_name_1>
      <category_ref_2>1015</category_ref_2>
      <category_name_2>Zaini</category_name_2>
    </categories>
    <variants>
      <variant>
        <matnr>4078-01</matnr>
        <refct>4078ROJ</refct>
        <colour>ROJO</colour>
        <size>S/T</size>
        <image500px>https://img.example.com/4078_roj.jpg</image500px>
      </variant>
      <variant>
        <matnr>4078-02</matnr>
        <colour>AZUL</colour>
        <size>M</size>
      </variant>
    </variants>
  </product>
  <product>
    <name>Senza Riferimento</name>
  </product>
  <product>
    <ref>5102</ref>
    <name>Penna Touch</name>
  </product>
</catalog>`

func writeFeed(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func newTestClient(t *testing.T, feeds supplier.FeedLocations) *Client {
	t.Helper()
	src := supplier.Source{
		Code:     "makito",
		Name:     "Makito",
		Format:   supplier.FormatStreamingXML,
		Active:   true,
		Prefix:   "MKT",
		Currency: "EUR",
		Feeds:    feeds,
	}
	store := cache.New(cache.Config{
		ProductsTTLMinutes:  360,
		StockTTLMinutes:     30,
		PricesTTLMinutes:    240,
		PrintDataTTLMinutes: 720,
	})
	return New(src, store, zap.NewNop())
}

func TestFetchProducts(t *testing.T) {
	path := writeFeed(t, "products.xml", productsXML)
	client := newTestClient(t, supplier.FeedLocations{Products: path})

	products, err := client.FetchProducts(context.Background(), supplier.FetchOptions{})
	require.NoError(t, err)

	// The ref-less element is dropped, the other two survive.
	require.Len(t, products, 2)

	p := products[0]
	assert.Equal(t, "4078", p.SupplierRef)
	assert.Equal(t, "makito", p.SupplierCode)
	assert.Equal(t, "Zaino Trekking", p.Name)
	assert.Equal(t, "Zaino da trekking 30L", p.Description)
	assert.Equal(t, 45.0, p.LengthCm)
	assert.Equal(t, 0.42, p.WeightKg)

	assert.Equal(t, []string{
		"https://img.example.com/4078.jpg",
		"https://img.example.com/4078_a.jpg",
		"https://img.example.com/4078_b.jpg",
	}, p.Images)

	require.Len(t, p.CategoryPath, 2)
	assert.Equal(t, models.CategoryNode{Ref: "10", Name: "Borse"}, p.CategoryPath[0])
	assert.Equal(t, models.CategoryNode{Ref: "1015", Name: "Zaini"}, p.CategoryPath[1])

	require.Len(t, p.Variants, 2)
	// Explicit variant code used verbatim.
	assert.Equal(t, "4078ROJ", p.Variants[0].SKU)
	// Missing code synthesized; size carried, sentinel size dropped.
	assert.Equal(t, "MKT_4078_AZUL_M", p.Variants[1].SKU)
}

func TestFetchProductsLimit(t *testing.T) {
	path := writeFeed(t, "products.xml", productsXML)
	client := newTestClient(t, supplier.FeedLocations{Products: path})

	products, err := client.FetchProducts(context.Background(), supplier.FetchOptions{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, products, 1)
}

func TestFetchProductsUsesCache(t *testing.T) {
	path := writeFeed(t, "products.xml", productsXML)
	client := newTestClient(t, supplier.FeedLocations{Products: path})

	first, err := client.FetchProducts(context.Background(), supplier.FetchOptions{})
	require.NoError(t, err)

	// Replace the file; a cached fetch must not see the new content.
	require.NoError(t, os.WriteFile(path, []byte(`<catalog></catalog>`), 0o644))

	second, err := client.FetchProducts(context.Background(), supplier.FetchOptions{})
	require.NoError(t, err)
	assert.Equal(t, len(first), len(second))

	// Force refresh re-reads.
	third, err := client.FetchProducts(context.Background(), supplier.FetchOptions{ForceRefresh: true})
	require.NoError(t, err)
	assert.Empty(t, third)
}

func TestFetchStock(t *testing.T) {
	path := writeFeed(t, "stock.xml", `<stocks>
  <product>
    <ref>4078</ref>
    <reftc>4078ROJ</reftc>
    <colour>ROJO</colour>
    <size>S/T</size>
    <infostocks>
      <infostock><stock>150</stock><available>1</available></infostock>
    </infostocks>
    <first_arrival_date>2026-09-15</first_arrival_date>
    <first_arrival_qty>400</first_arrival_qty>
  </product>
  <product>
    <ref>5102</ref>
    <colour>NEGRO</colour>
    <size>M</size>
    <infostocks>
      <infostock><stock>0</stock><available>0</available></infostock>
    </infostocks>
  </product>
</stocks>`)
	client := newTestClient(t, supplier.FeedLocations{Products: path, Stock: path})

	stock, err := client.FetchStock(context.Background(), supplier.FetchOptions{})
	require.NoError(t, err)
	require.Len(t, stock, 2)

	assert.Equal(t, "4078ROJ", stock[0].SKU)
	assert.Equal(t, 150, stock[0].Quantity)
	assert.True(t, stock[0].Available)
	require.NotNil(t, stock[0].NextArrivalDate)
	assert.Equal(t, "2026-09-15", stock[0].NextArrivalDate.Format("2006-01-02"))
	assert.Equal(t, 400, stock[0].NextArrivalQuantity)

	// Missing variant code falls back to the synthesized SKU.
	assert.Equal(t, "MKT_5102_NEGRO_M", stock[1].SKU)
	assert.Equal(t, 0, stock[1].Quantity)
	assert.False(t, stock[1].Available)
}

func TestFetchPrices(t *testing.T) {
	path := writeFeed(t, "prices.xml", `<prices>
  <product>
    <ref>4078</ref>
    <section1>1</section1><price1>12,50</price1>
    <section2>50</section2><price2>11.20</price2>
    <section3>200</section3><price3>9.80</price3>
    <section4></section4><price4></price4>
  </product>
</prices>`)
	client := newTestClient(t, supplier.FeedLocations{Products: path, Prices: path})

	prices, err := client.FetchPrices(context.Background(), supplier.FetchOptions{})
	require.NoError(t, err)
	require.Len(t, prices, 1)

	tiers := prices[0].Tiers
	require.Len(t, tiers, 3)

	assert.Equal(t, 1, tiers[0].MinQuantity)
	assert.Equal(t, 49, tiers[0].MaxQuantity)
	assert.Equal(t, 12.5, tiers[0].Price)
	assert.Equal(t, "EUR", tiers[0].Currency)

	assert.Equal(t, 50, tiers[1].MinQuantity)
	assert.Equal(t, 199, tiers[1].MaxQuantity)

	// Last tier is unbounded, never zero.
	assert.Equal(t, 200, tiers[2].MinQuantity)
	assert.Equal(t, models.UnboundedQuantity, tiers[2].MaxQuantity)
}

func TestFetchPrintData(t *testing.T) {
	path := writeFeed(t, "printdata.xml", `<printdata>
  <product>
    <ref>4078</ref>
    <printjobs>
      <printjob>
        <name>Front</name>
        <teccode>SER</teccode>
        <maxcolour>4</maxcolour>
        <areawidth>80</areawidth>
        <areahight>60</areahight>
      </printjob>
    </printjobs>
  </product>
  <product>
    <ref>5102</ref>
  </product>
</printdata>`)
	client := newTestClient(t, supplier.FeedLocations{Products: path, PrintData: path})

	printData, err := client.FetchPrintData(context.Background(), supplier.FetchOptions{})
	require.NoError(t, err)
	require.Len(t, printData, 2)

	assert.True(t, printData[0].Printable)
	require.Len(t, printData[0].Areas, 1)
	assert.Equal(t, "SER", printData[0].Areas[0].Technique)
	assert.Equal(t, 4, printData[0].Areas[0].MaxColors)
	assert.Equal(t, 80.0, printData[0].Areas[0].Width)

	assert.False(t, printData[1].Printable)
}

func TestFetchProductsKeepsRecordsBeforeDamage(t *testing.T) {
	// The decoder cannot resume past a syntax error; records parsed before
	// the breakage survive with a skip, never an error.
	path := writeFeed(t, "products.xml", `<catalog>
  <product><ref>4078</ref><name>Zaino Trekking</name></product>
  <product><ref>5102</ref><name>Penna Touch</name></product>
  <product><ref>61`)
	client := newTestClient(t, supplier.FeedLocations{Products: path})

	products, err := client.FetchProducts(context.Background(), supplier.FetchOptions{})
	require.NoError(t, err)
	require.Len(t, products, 2)
	assert.Equal(t, "4078", products[0].SupplierRef)
	assert.Equal(t, "5102", products[1].SupplierRef)
}

func TestFetchProductsDamagedBeforeFirstRecord(t *testing.T) {
	path := writeFeed(t, "products.xml", `<catalog><<broken`)
	client := newTestClient(t, supplier.FeedLocations{Products: path})

	_, err := client.FetchProducts(context.Background(), supplier.FetchOptions{})
	assert.True(t, supplier.IsKind(err, supplier.KindParse))
}

func TestFetchMissingFile(t *testing.T) {
	client := newTestClient(t, supplier.FeedLocations{Products: "/nonexistent/products.xml"})
	_, err := client.FetchProducts(context.Background(), supplier.FetchOptions{})
	assert.True(t, supplier.IsKind(err, supplier.KindNotFound))
}

func TestFetchEmptyFile(t *testing.T) {
	path := writeFeed(t, "empty.xml", "")
	client := newTestClient(t, supplier.FeedLocations{Products: path})
	_, err := client.FetchProducts(context.Background(), supplier.FetchOptions{})
	assert.True(t, supplier.IsKind(err, supplier.KindEmptyFile))
}

func TestNormalizeProductIdempotent(t *testing.T) {
	path := writeFeed(t, "products.xml", productsXML)
	client := newTestClient(t, supplier.FeedLocations{Products: path})

	first, err := client.FetchProducts(context.Background(), supplier.FetchOptions{})
	require.NoError(t, err)
	second, err := client.FetchProducts(context.Background(), supplier.FetchOptions{})
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestTestConnection(t *testing.T) {
	path := writeFeed(t, "products.xml", productsXML)
	client := newTestClient(t, supplier.FeedLocations{Products: path})
	assert.NoError(t, client.TestConnection(context.Background()))

	missing := newTestClient(t, supplier.FeedLocations{Products: "/nonexistent/feed.xml"})
	assert.Error(t, missing.TestConnection(context.Background()))
}
