package writer

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rickgao/hedge-lob/internal/layout"
	"github.com/rickgao/hedge-lob/internal/model"
	"github.com/rickgao/hedge-lob/internal/parquetio"
)

// FileConfig configures the per-RIC file sink.
type FileConfig struct {
	Compression        string
	DisableCSVFallback bool
}

// FileMetrics tracks file sink activity.
type FileMetrics struct {
	ParquetFiles int64
	CSVFiles     int64
	Rows         int64
	Errors       int64
}

// FileWriter writes one output file per RIC under the layout's output dir.
type FileWriter struct {
	cfg    FileConfig
	layout layout.Layout
	logger *slog.Logger

	mu      sync.Mutex
	metrics FileMetrics
}

// NewFileWriter creates a FileWriter.
func NewFileWriter(cfg FileConfig, l layout.Layout, logger *slog.Logger) *FileWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileWriter{cfg: cfg, layout: l, logger: logger}
}

// Write stores matches for ric and returns the path written. Parquet is
// tried first; if it fails the same rows are written as CSV unless the
// fallback is disabled. The output directory is created when missing.
func (w *FileWriter) Write(ric string, matches []model.Match, depth int, runID string) (string, error) {
	if err := os.MkdirAll(w.layout.OutputDir, 0755); err != nil {
		w.recordError()
		return "", fmt.Errorf("create output dir: %w", err)
	}

	start := time.Now()
	fields := Fields(depth)

	path := w.layout.OutputFile(ric, "parquet")
	perr := writeParquet(path, fields, matches, depth, runID, w.cfg.Compression)
	if perr == nil {
		w.record(func(m *FileMetrics) {
			m.ParquetFiles++
			m.Rows += int64(len(matches))
		})
		w.logger.Info("matches written",
			"ric", ric,
			"path", path,
			"rows", len(matches),
			"duration", time.Since(start),
		)
		return path, nil
	}

	w.logger.Error("parquet write failed", "ric", ric, "path", path, "error", perr)
	if w.cfg.DisableCSVFallback {
		w.recordError()
		return "", perr
	}

	csvPath := w.layout.OutputFile(ric, "csv")
	if err := writeCSV(csvPath, fields, matches, depth, runID); err != nil {
		w.recordError()
		return "", errors.Join(perr, err)
	}

	w.record(func(m *FileMetrics) {
		m.CSVFiles++
		m.Rows += int64(len(matches))
	})
	w.logger.Warn("matches written as csv",
		"ric", ric,
		"path", csvPath,
		"rows", len(matches),
	)
	return csvPath, nil
}

// Stats returns current metrics.
func (w *FileWriter) Stats() FileMetrics {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.metrics
}

func (w *FileWriter) record(fn func(*FileMetrics)) {
	w.mu.Lock()
	fn(&w.metrics)
	w.mu.Unlock()
}

func (w *FileWriter) recordError() {
	w.record(func(m *FileMetrics) { m.Errors++ })
}

// outputMode matches what os.Create gives the CSV fallback under a 022 umask.
const outputMode = 0o644

// writeParquet writes to a temp file in the same directory and renames it
// into place, so a failed write never leaves a truncated file at path.
func writeParquet(path string, fields []parquetio.Field, matches []model.Match, depth int, runID, compression string) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create parquet file: %w", err)
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	pw, err := parquetio.NewWriter(tmp, "matches", fields, compression)
	if err != nil {
		return err
	}
	for _, m := range matches {
		if err := pw.Write(rowValues(m, depth, runID)...); err != nil {
			return err
		}
	}
	if err := pw.Close(); err != nil {
		return err
	}
	if err := tmp.Chmod(outputMode); err != nil {
		return fmt.Errorf("chmod parquet file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close parquet file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename parquet file: %w", err)
	}
	return nil
}
