package config

import "time"

// PipelineConfig is the root configuration for a matching run.
type PipelineConfig struct {
	Data     DataConfig     `yaml:"data" envconfig:"DATA"`
	Matching MatchingConfig `yaml:"matching" envconfig:"MATCHING"`
	Ticks    TicksConfig    `yaml:"ticks" envconfig:"TICKS"`
	Run      RunConfig      `yaml:"run" envconfig:"RUN"`
	Output   OutputConfig   `yaml:"output" envconfig:"OUTPUT"`
	Database DatabaseConfig `yaml:"database" envconfig:"DATABASE"`
	Logging  LoggingConfig  `yaml:"logging" envconfig:"LOGGING"`
	Metrics  MetricsConfig  `yaml:"metrics" envconfig:"METRICS"`
	Tracing  TracingConfig  `yaml:"tracing" envconfig:"TRACING"`
}

// DataConfig describes where market data lives on disk.
type DataConfig struct {
	BasePath   string   `yaml:"base_path" split_words:"true"`
	Year       int      `yaml:"year" split_words:"true"`        // LOB directory year, e.g. FTSE_2024_data_parquet
	FuturesDir string   `yaml:"futures_dir" split_words:"true"` // Hedge data root under BasePath
	Indices    []string `yaml:"indices" split_words:"true"`     // Index names checked by verify
}

// MatchingConfig holds the hedge-to-LOB matching parameters.
type MatchingConfig struct {
	Threshold    time.Duration `yaml:"threshold" split_words:"true"` // Window after the hedge time
	Lookback     time.Duration `yaml:"lookback" split_words:"true"`  // Window before the hedge time
	Depth        int           `yaml:"depth" split_words:"true"`     // Max book levels searched
	PriceEpsilon float64       `yaml:"price_epsilon" split_words:"true"`
}

// TicksConfig maps two-letter RIC prefixes to tick sizes.
type TicksConfig struct {
	Default  float64            `yaml:"default" split_words:"true"`
	Prefixes map[string]float64 `yaml:"prefixes" split_words:"true"`
}

// RunConfig bounds pipeline concurrency.
type RunConfig struct {
	Concurrency     int `yaml:"concurrency" split_words:"true"`      // RICs processed at once
	FileConcurrency int `yaml:"file_concurrency" split_words:"true"` // LOB files read at once
}

// OutputConfig controls where and how matches are written.
type OutputConfig struct {
	Dir                string `yaml:"dir" split_words:"true"`
	Compression        string `yaml:"compression" split_words:"true"` // snappy, gzip, zstd, lz4, none
	DisableCSVFallback bool   `yaml:"disable_csv_fallback" split_words:"true"`
	XLSXReport         string `yaml:"xlsx_report" split_words:"true"` // Optional summary workbook
}

// DatabaseConfig holds the optional Postgres sink.
type DatabaseConfig struct {
	Enabled  bool     `yaml:"enabled" split_words:"true"`
	Table    string   `yaml:"table" split_words:"true"`
	Postgres DBConfig `yaml:"postgres" envconfig:"POSTGRES"`
}

// DBConfig holds a single database connection.
type DBConfig struct {
	Host     string `yaml:"host" split_words:"true"`
	Port     int    `yaml:"port" split_words:"true"`
	Name     string `yaml:"name" split_words:"true"`
	User     string `yaml:"user" split_words:"true"`
	Password string `yaml:"password" split_words:"true"`
	SSLMode  string `yaml:"ssl_mode" split_words:"true"`
	MaxConns int    `yaml:"max_conns" split_words:"true"`
	MinConns int    `yaml:"min_conns" split_words:"true"`
}

// LoggingConfig selects the slog handler.
type LoggingConfig struct {
	Level  string `yaml:"level" split_words:"true"`  // debug, info, warn, error
	Format string `yaml:"format" split_words:"true"` // text or json
}

// MetricsConfig holds Prometheus settings. Both outputs are optional.
type MetricsConfig struct {
	Textfile string `yaml:"textfile" split_words:"true"` // Written once when the run ends
	Addr     string `yaml:"addr" split_words:"true"`     // Served while the run is in progress
	Path     string `yaml:"path" split_words:"true"`
}

// TracingConfig holds OpenTelemetry settings.
type TracingConfig struct {
	Exporter    string `yaml:"exporter" split_words:"true"` // none or stdout
	ServiceName string `yaml:"service_name" split_words:"true"`
}
