package supplier

import (
	"fmt"

	"github.com/spf13/viper"
)

// Format identifies the feed mechanism a supplier publishes through.
type Format string

const (
	FormatStreamingXML  Format = "streaming-xml"
	FormatGroupedCSV    Format = "grouped-csv"
	FormatPaginatedREST Format = "paginated-rest"
)

// Credentials holds whatever authentication the feed endpoint needs. File
// based feeds leave all fields empty.
type Credentials struct {
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	APIKey   string `mapstructure:"api_key"`
}

// FeedLocations names the per-kind feed endpoints of a source: file paths
// for XML/CSV feeds, URL endpoints for REST ones. Kinds the supplier does
// not publish are left empty.
type FeedLocations struct {
	Products  string `mapstructure:"products"`
	Stock     string `mapstructure:"stock"`
	Prices    string `mapstructure:"prices"`
	PrintData string `mapstructure:"print_data"`
}

// Source is one supplier's declared configuration.
type Source struct {
	Code            string        `mapstructure:"code"`
	Name            string        `mapstructure:"name"`
	Format          Format        `mapstructure:"format"`
	Active          bool          `mapstructure:"active"`
	Prefix          string        `mapstructure:"prefix"`
	PreferredLocale string        `mapstructure:"preferred_locale"`
	DefaultCategory string        `mapstructure:"default_category"`
	Currency        string        `mapstructure:"currency"`
	Feeds           FeedLocations `mapstructure:"feeds"`
	Credentials     Credentials   `mapstructure:"credentials"`
}

// Validate checks that the source is complete enough to build a client for.
func (s Source) Validate() error {
	if s.Code == "" {
		return Errf(KindConfiguration, s.Code, "supplier code is required")
	}
	switch s.Format {
	case FormatStreamingXML, FormatGroupedCSV, FormatPaginatedREST:
	default:
		return Errf(KindConfiguration, s.Code, "unknown feed format %q", s.Format)
	}
	if s.Feeds.Products == "" {
		return Errf(KindConfiguration, s.Code, "products feed location is required")
	}
	return nil
}

// LoadSources reads the supplier declarations from a YAML file with a
// top-level `suppliers:` list.
func LoadSources(path string) ([]Source, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read sources file %s: %w", path, err)
	}

	var decl struct {
		Suppliers []Source `mapstructure:"suppliers"`
	}
	if err := v.Unmarshal(&decl); err != nil {
		return nil, fmt.Errorf("failed to decode sources file %s: %w", path, err)
	}

	seen := make(map[string]struct{}, len(decl.Suppliers))
	for _, src := range decl.Suppliers {
		if err := src.Validate(); err != nil {
			return nil, err
		}
		if _, dup := seen[src.Code]; dup {
			return nil, Errf(KindConfiguration, src.Code, "duplicate supplier code")
		}
		seen[src.Code] = struct{}{}
	}

	return decl.Suppliers, nil
}
