// Package layout encodes the on-disk data layout.
//
//	<base>/<INDEX>_<YEAR>_data_parquet/*.parquet                  LOB snapshots
//	<base>/<futures_dir>/<FAMILY>/<RIC>/<RIC>.parquet             hedge executions
//	<out>/<RIC>_matched_lob_hedge.{parquet,csv}                   match output
//
// Directory names must match exactly; nothing here searches or guesses.
package layout

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

var (
	// ErrLOBDirNotFound is returned when an index has no LOB directory.
	ErrLOBDirNotFound = errors.New("lob directory not found")
)

// Layout resolves paths under a data root.
type Layout struct {
	BasePath   string
	Year       int
	FuturesDir string
	OutputDir  string
}

// FileInfo describes a discovered data file.
type FileInfo struct {
	Path string
	Name string
	Size int64
}

// LOBDirName returns the directory name for an index, e.g. FTSE_2024_data_parquet.
func (l Layout) LOBDirName(index string) string {
	return fmt.Sprintf("%s_%d_data_parquet", index, l.Year)
}

// LOBDir returns the LOB directory for an index.
func (l Layout) LOBDir(index string) string {
	return filepath.Join(l.BasePath, l.LOBDirName(index))
}

// FuturesRoot returns the hedge data root.
func (l Layout) FuturesRoot() string {
	return filepath.Join(l.BasePath, l.FuturesDir)
}

// HedgeFile returns the hedge file for a RIC within an index family.
// The contract subdirectory and file stem are both the RIC.
func (l Layout) HedgeFile(family, ric string) string {
	return filepath.Join(l.FuturesRoot(), family, ric, ric+".parquet")
}

// OutputFile returns the match output path for a RIC. ext has no dot.
func (l Layout) OutputFile(ric, ext string) string {
	return filepath.Join(l.OutputDir, ric+"_matched_lob_hedge."+ext)
}

// DiscoverLOBFiles lists the parquet files directly inside an index's LOB
// directory, sorted by name.
func (l Layout) DiscoverLOBFiles(index string) ([]FileInfo, error) {
	dir := l.LOBDir(index)

	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrLOBDirNotFound, dir)
		}
		return nil, fmt.Errorf("read lob directory %s: %w", dir, err)
	}

	var files []FileInfo
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".parquet") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, FileInfo{
			Path: filepath.Join(dir, entry.Name()),
			Name: entry.Name(),
			Size: info.Size(),
		})
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].Name < files[j].Name
	})

	return files, nil
}

// DirStatus is the result of checking one expected directory.
type DirStatus struct {
	Name     string
	Path     string
	Exists   bool
	Parquets int // Parquet files directly inside; 0 for the futures root
}

// Verify checks that each index's LOB directory and the futures root exist.
func (l Layout) Verify(indices []string) []DirStatus {
	out := make([]DirStatus, 0, len(indices)+1)
	for _, index := range indices {
		st := DirStatus{Name: l.LOBDirName(index), Path: l.LOBDir(index)}
		if files, err := l.DiscoverLOBFiles(index); err == nil {
			st.Exists = true
			st.Parquets = len(files)
		}
		out = append(out, st)
	}

	root := DirStatus{Name: l.FuturesDir, Path: l.FuturesRoot()}
	if info, err := os.Stat(root.Path); err == nil && info.IsDir() {
		root.Exists = true
	}
	return append(out, root)
}
