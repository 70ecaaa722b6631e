package commerce

// Config holds the commerce platform API settings.
type Config struct {
	// URL is the base URL of the store (without the API path).
	URL string `mapstructure:"url" default:""`
	// Key is the API consumer key.
	Key string `mapstructure:"key" default:""`
	// Secret is the API consumer secret.
	Secret string `mapstructure:"secret" default:""`
	// TimeoutSeconds is the per-request timeout.
	TimeoutSeconds int `mapstructure:"timeout_seconds" default:"30"`
}
