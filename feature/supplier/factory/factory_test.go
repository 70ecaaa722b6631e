package factory

import (
	"testing"

	"supplier-sync/core/cache"
	"supplier-sync/feature/supplier"
	"supplier-sync/feature/supplier/csvfeed"
	"supplier-sync/feature/supplier/restfeed"
	"supplier-sync/feature/supplier/xmlfeed"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testStore() *cache.Store {
	return cache.New(cache.Config{ProductsTTLMinutes: 360, StockTTLMinutes: 30, PricesTTLMinutes: 240, PrintDataTTLMinutes: 720})
}

func TestNewClientSelectsByFormat(t *testing.T) {
	cases := []struct {
		format supplier.Format
		want   any
	}{
		{supplier.FormatStreamingXML, &xmlfeed.Client{}},
		{supplier.FormatGroupedCSV, &csvfeed.Client{}},
		{supplier.FormatPaginatedREST, &restfeed.Client{}},
	}

	for _, c := range cases {
		src := supplier.Source{
			Code:   "acme",
			Format: c.format,
			Active: true,
			Feeds:  supplier.FeedLocations{Products: "/feeds/products"},
		}
		client, err := NewClient(src, testStore(), zap.NewNop())
		require.NoError(t, err, string(c.format))
		assert.IsType(t, c.want, client, string(c.format))
	}
}

func TestNewClientRejectsInactiveSource(t *testing.T) {
	src := supplier.Source{
		Code:   "acme",
		Format: supplier.FormatStreamingXML,
		Active: false,
		Feeds:  supplier.FeedLocations{Products: "/feeds/products.xml"},
	}
	_, err := NewClient(src, testStore(), zap.NewNop())
	assert.True(t, supplier.IsKind(err, supplier.KindConfiguration))
}

func TestNewClientRejectsUnknownFormat(t *testing.T) {
	src := supplier.Source{
		Code:   "acme",
		Format: "soap",
		Active: true,
		Feeds:  supplier.FeedLocations{Products: "/feeds/products"},
	}
	_, err := NewClient(src, testStore(), zap.NewNop())
	assert.True(t, supplier.IsKind(err, supplier.KindConfiguration))
}
