package lob

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/rickgao/hedge-lob/internal/layout"
	"github.com/rickgao/hedge-lob/internal/model"
	"github.com/rickgao/hedge-lob/internal/parquetio"
)

// ErrNoLOBData is returned when no snapshot rows were loaded.
var ErrNoLOBData = errors.New("no lob data loaded")

// Data is the raw result of loading an index's LOB directory.
type Data struct {
	Snapshots []model.Snapshot
	Depth     int // Smallest depth across files that contributed rows
	Files     int // Files that contributed rows
}

// Loader reads LOB files for an index.
type Loader struct {
	layout      layout.Layout
	concurrency int
	logger      *slog.Logger
}

// NewLoader creates a Loader reading up to concurrency files at once.
func NewLoader(l layout.Layout, concurrency int, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	if concurrency < 1 {
		concurrency = 1
	}
	return &Loader{layout: l, concurrency: concurrency, logger: logger}
}

type fileResult struct {
	snapshots []model.Snapshot
	depth     int
}

// Load reads every parquet file for the index. When ric is set, files
// without a RIC column are skipped and other RICs' rows are dropped.
// Unreadable files are logged and skipped. Output keeps file order.
func (l *Loader) Load(ctx context.Context, index, ric string) (*Data, error) {
	files, err := l.layout.DiscoverLOBFiles(index)
	if err != nil {
		return nil, err
	}

	l.logger.Info("loading lob data",
		"index", index,
		"dir", l.layout.LOBDir(index),
		"files", len(files),
		"ric", ric,
	)

	results := make([]fileResult, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(l.concurrency)
	for i, file := range files {
		g.Go(func() error {
			res, err := l.loadFile(gctx, file.Path, ric)
			if err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				l.logger.Warn("skipping lob file",
					"file", file.Path,
					"error", err,
				)
				return nil
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	data := &Data{Depth: model.MaxDepth}
	for _, res := range results {
		if len(res.snapshots) == 0 {
			continue
		}
		data.Files++
		data.Snapshots = append(data.Snapshots, res.snapshots...)
		data.Depth = min(data.Depth, res.depth)
	}

	if len(data.Snapshots) == 0 {
		if ric != "" {
			return nil, fmt.Errorf("%w for %s and RIC %s", ErrNoLOBData, index, ric)
		}
		return nil, fmt.Errorf("%w for %s", ErrNoLOBData, index)
	}

	l.logger.Info("lob data loaded",
		"index", index,
		"records", len(data.Snapshots),
		"files", data.Files,
		"depth", data.Depth,
	)
	return data, nil
}

func (l *Loader) loadFile(ctx context.Context, path, ric string) (fileResult, error) {
	r, err := parquetio.Open(path)
	if err != nil {
		return fileResult{}, err
	}
	defer r.Close()

	if !r.Has(ColTime) {
		return fileResult{}, fmt.Errorf("missing %q column", ColTime)
	}
	if ric != "" && !r.Has(ColRIC) {
		l.logger.Debug("lob file has no ric column, skipping", "file", path)
		return fileResult{}, nil
	}

	depth := depthOf(r)
	var out []model.Snapshot
	err = r.Scan(ctx, func(rec parquetio.Record) error {
		rowRIC := rec.String(ColRIC)
		if ric != "" && rowRIC != ric {
			return nil
		}
		out = append(out, decodeSnapshot(rec, rowRIC, depth))
		return nil
	})
	if err != nil {
		return fileResult{}, err
	}

	return fileResult{snapshots: out, depth: depth}, nil
}

func decodeSnapshot(rec parquetio.Record, ric string, depth int) model.Snapshot {
	t, _ := rec.Time(ColTime)
	s := model.NewSnapshot(ric, t)
	for i := 0; i < depth; i++ {
		level := i + 1
		s.Asks[i] = model.Level{Price: rec.Float(AskPriceCol(level)), Size: rec.Float(AskSizeCol(level))}
		s.Bids[i] = model.Level{Price: rec.Float(BidPriceCol(level)), Size: rec.Float(BidSizeCol(level))}
	}
	return s
}

// RICs returns the distinct non-empty RICs in order of first appearance.
func RICs(snapshots []model.Snapshot) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, s := range snapshots {
		if s.RIC == "" {
			continue
		}
		if _, ok := seen[s.RIC]; ok {
			continue
		}
		seen[s.RIC] = struct{}{}
		out = append(out, s.RIC)
	}
	return out
}
