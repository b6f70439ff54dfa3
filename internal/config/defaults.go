package config

import "time"

// Default values for optional configuration fields.
const (
	DefaultBasePath        = "data"
	DefaultYear            = 2024
	DefaultFuturesDir      = "futures_data_local"
	DefaultOutputDir       = "data/processed_matched_data"
	DefaultThreshold       = 5 * time.Second
	DefaultLookback        = 1 * time.Second
	DefaultDepth           = 10
	DefaultPriceEpsilon    = 1e-9
	DefaultTickSize        = 0.5
	DefaultConcurrency     = 4
	DefaultFileConcurrency = 4
	DefaultCompression     = "snappy"
	DefaultTable           = "hedge_lob_matches"
	DefaultDBPort          = 5432
	DefaultDBSSLMode       = "prefer"
	DefaultMaxConns        = 4
	DefaultMinConns        = 1
	DefaultLogLevel        = "info"
	DefaultLogFormat       = "text"
	DefaultMetricsPath     = "/metrics"
	DefaultTraceExporter   = "none"
	DefaultServiceName     = "hedgematch"

	// MaxDepth is the deepest book level present in the LOB files.
	MaxDepth = 10
)

// DefaultIndices are the LOB directories shipped with the dataset.
var DefaultIndices = []string{"FTSE", "NASDAQ", "SP"}

// DefaultTickPrefixes maps RIC prefixes to exchange tick sizes.
var DefaultTickPrefixes = map[string]float64{
	"FF": 0.5,  // FTSE futures
	"ES": 0.25, // E-mini S&P
	"NQ": 0.25, // E-mini NASDAQ
}

// ApplyDefaults fills zero-valued fields.
func (c *PipelineConfig) ApplyDefaults() {
	// Data defaults
	if c.Data.BasePath == "" {
		c.Data.BasePath = DefaultBasePath
	}
	if c.Data.Year == 0 {
		c.Data.Year = DefaultYear
	}
	if c.Data.FuturesDir == "" {
		c.Data.FuturesDir = DefaultFuturesDir
	}
	if len(c.Data.Indices) == 0 {
		c.Data.Indices = append([]string(nil), DefaultIndices...)
	}

	// Matching defaults
	if c.Matching.Threshold == 0 {
		c.Matching.Threshold = DefaultThreshold
	}
	if c.Matching.Lookback == 0 {
		c.Matching.Lookback = DefaultLookback
	}
	if c.Matching.Depth == 0 {
		c.Matching.Depth = DefaultDepth
	}
	if c.Matching.PriceEpsilon == 0 {
		c.Matching.PriceEpsilon = DefaultPriceEpsilon
	}

	// Tick defaults; configured prefixes win over the built-in table.
	if c.Ticks.Default == 0 {
		c.Ticks.Default = DefaultTickSize
	}
	if c.Ticks.Prefixes == nil {
		c.Ticks.Prefixes = make(map[string]float64, len(DefaultTickPrefixes))
	}
	for prefix, size := range DefaultTickPrefixes {
		if _, ok := c.Ticks.Prefixes[prefix]; !ok {
			c.Ticks.Prefixes[prefix] = size
		}
	}

	// Run defaults
	if c.Run.Concurrency == 0 {
		c.Run.Concurrency = DefaultConcurrency
	}
	if c.Run.FileConcurrency == 0 {
		c.Run.FileConcurrency = DefaultFileConcurrency
	}

	// Output defaults
	if c.Output.Dir == "" {
		c.Output.Dir = DefaultOutputDir
	}
	if c.Output.Compression == "" {
		c.Output.Compression = DefaultCompression
	}

	// Database defaults
	if c.Database.Table == "" {
		c.Database.Table = DefaultTable
	}
	applyDBDefaults(&c.Database.Postgres)

	// Logging defaults
	if c.Logging.Level == "" {
		c.Logging.Level = DefaultLogLevel
	}
	if c.Logging.Format == "" {
		c.Logging.Format = DefaultLogFormat
	}

	// Metrics defaults
	if c.Metrics.Path == "" {
		c.Metrics.Path = DefaultMetricsPath
	}

	// Tracing defaults
	if c.Tracing.Exporter == "" {
		c.Tracing.Exporter = DefaultTraceExporter
	}
	if c.Tracing.ServiceName == "" {
		c.Tracing.ServiceName = DefaultServiceName
	}
}

func applyDBDefaults(db *DBConfig) {
	if db.Port == 0 {
		db.Port = DefaultDBPort
	}
	if db.SSLMode == "" {
		db.SSLMode = DefaultDBSSLMode
	}
	if db.MaxConns == 0 {
		db.MaxConns = DefaultMaxConns
	}
	if db.MinConns == 0 {
		db.MinConns = DefaultMinConns
	}
}
