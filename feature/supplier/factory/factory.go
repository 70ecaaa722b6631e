package factory

import (
	"supplier-sync/core/cache"
	"supplier-sync/feature/supplier"
	"supplier-sync/feature/supplier/csvfeed"
	"supplier-sync/feature/supplier/restfeed"
	"supplier-sync/feature/supplier/xmlfeed"

	"go.uber.org/zap"
)

// NewClient selects the concrete feed client for a source. An inactive or
// invalid source fails with a configuration error before any client is
// constructed.
func NewClient(src supplier.Source, store *cache.Store, log *zap.Logger) (supplier.Client, error) {
	if !src.Active {
		return nil, supplier.Errf(supplier.KindConfiguration, src.Code, "supplier is inactive")
	}
	if err := src.Validate(); err != nil {
		return nil, err
	}

	switch src.Format {
	case supplier.FormatStreamingXML:
		return xmlfeed.New(src, store, log), nil
	case supplier.FormatGroupedCSV:
		return csvfeed.New(src, store, log), nil
	case supplier.FormatPaginatedREST:
		return restfeed.New(src, store, log), nil
	default:
		return nil, supplier.Errf(supplier.KindConfiguration, src.Code, "no client for format %q", src.Format)
	}
}
