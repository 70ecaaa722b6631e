package syncer

// Config holds the sync orchestrator settings.
type Config struct {
	// SourcesFile is the path to the supplier declarations YAML.
	SourcesFile string `mapstructure:"sources_file" default:"suppliers.yaml"`
	// BatchSize caps how many products one platform batch create carries.
	BatchSize int `mapstructure:"batch_size" default:"50"`
	// ErrorLimit aborts a run early once this many record errors piled up;
	// zero disables the limit.
	ErrorLimit int `mapstructure:"error_limit" default:"0"`
}
