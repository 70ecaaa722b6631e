package cache

import "time"

// Config holds the per-kind TTLs for cached feed payloads, in minutes.
// Stock turns over far faster than catalog data, so it gets the shortest
// window; print data is close to static.
type Config struct {
	ProductsTTLMinutes  int `mapstructure:"products_ttl_minutes" default:"360"`
	StockTTLMinutes     int `mapstructure:"stock_ttl_minutes" default:"30"`
	PricesTTLMinutes    int `mapstructure:"prices_ttl_minutes" default:"240"`
	PrintDataTTLMinutes int `mapstructure:"printdata_ttl_minutes" default:"720"`
}

// TTLFor returns the configured TTL for a data kind. Unknown kinds get the
// stock TTL, the most conservative of the four.
func (c Config) TTLFor(kind DataKind) time.Duration {
	minutes := c.StockTTLMinutes
	switch kind {
	case KindProducts:
		minutes = c.ProductsTTLMinutes
	case KindStock:
		minutes = c.StockTTLMinutes
	case KindPrices:
		minutes = c.PricesTTLMinutes
	case KindPrintData:
		minutes = c.PrintDataTTLMinutes
	}
	return time.Duration(minutes) * time.Minute
}
