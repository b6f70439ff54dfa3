package config

import (
	"errors"
	"fmt"
	"regexp"
)

var tablePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Validate checks that all required fields are set and values are valid.
func (c *PipelineConfig) Validate() error {
	if c.Data.BasePath == "" {
		return errors.New("data.base_path is required")
	}
	if c.Data.Year < 1 {
		return fmt.Errorf("data.year must be positive, got %d", c.Data.Year)
	}

	if c.Matching.Threshold < 0 {
		return errors.New("matching.threshold must be >= 0")
	}
	if c.Matching.Lookback < 0 {
		return errors.New("matching.lookback must be >= 0")
	}
	if c.Matching.Depth < 1 || c.Matching.Depth > MaxDepth {
		return fmt.Errorf("matching.depth must be between 1 and %d, got %d", MaxDepth, c.Matching.Depth)
	}
	if c.Matching.PriceEpsilon <= 0 {
		return errors.New("matching.price_epsilon must be > 0")
	}

	if c.Ticks.Default <= 0 {
		return errors.New("ticks.default must be > 0")
	}
	for prefix, size := range c.Ticks.Prefixes {
		if len(prefix) != 2 {
			return fmt.Errorf("ticks.prefixes: prefix %q must be two characters", prefix)
		}
		if size <= 0 {
			return fmt.Errorf("ticks.prefixes.%s must be > 0", prefix)
		}
	}

	if c.Run.Concurrency < 1 {
		return errors.New("run.concurrency must be >= 1")
	}
	if c.Run.FileConcurrency < 1 {
		return errors.New("run.file_concurrency must be >= 1")
	}

	if c.Output.Dir == "" {
		return errors.New("output.dir is required")
	}
	switch c.Output.Compression {
	case "snappy", "gzip", "zstd", "lz4", "none":
	default:
		return fmt.Errorf("output.compression %q is not one of snappy, gzip, zstd, lz4, none", c.Output.Compression)
	}

	if c.Database.Enabled {
		if !tablePattern.MatchString(c.Database.Table) {
			return fmt.Errorf("database.table %q is not a valid identifier", c.Database.Table)
		}
		if err := c.Database.Postgres.validate("database.postgres"); err != nil {
			return err
		}
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level %q is not one of debug, info, warn, error", c.Logging.Level)
	}
	if c.Logging.Format != "text" && c.Logging.Format != "json" {
		return fmt.Errorf("logging.format %q must be text or json", c.Logging.Format)
	}

	if c.Tracing.Exporter != "none" && c.Tracing.Exporter != "stdout" {
		return fmt.Errorf("tracing.exporter %q must be none or stdout", c.Tracing.Exporter)
	}

	return nil
}

func (db *DBConfig) validate(prefix string) error {
	if db.Host == "" {
		return fmt.Errorf("%s.host is required", prefix)
	}
	if db.Name == "" {
		return fmt.Errorf("%s.name is required", prefix)
	}
	if db.User == "" {
		return fmt.Errorf("%s.user is required", prefix)
	}
	if db.Password == "" {
		return fmt.Errorf("%s.password is required", prefix)
	}
	if db.MaxConns < 1 {
		return fmt.Errorf("%s.max_conns must be >= 1", prefix)
	}
	if db.MinConns < 0 {
		return fmt.Errorf("%s.min_conns must be >= 0", prefix)
	}
	if db.MinConns > db.MaxConns {
		return fmt.Errorf("%s.min_conns (%d) cannot exceed max_conns (%d)", prefix, db.MinConns, db.MaxConns)
	}
	return nil
}
