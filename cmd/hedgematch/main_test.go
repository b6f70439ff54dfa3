package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	fx "github.com/rickgao/hedge-lob/internal/testutil"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestVersionCmd(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "hedgematch dev")
}

func TestTicksCmd_Lookup(t *testing.T) {
	out, err := execute(t, "ticks", "FFIH4", "ZZZ1")
	require.NoError(t, err)
	assert.Contains(t, out, "FFIH4")
	assert.Regexp(t, `FFIH4\s+0.5\s+prefix`, out)
	assert.Regexp(t, `ZZZ1\s+0.5\s+default`, out)
}

func TestTicksCmd_Table(t *testing.T) {
	out, err := execute(t, "ticks")
	require.NoError(t, err)
	assert.Regexp(t, `ES\s+0.25`, out)
	assert.Regexp(t, `FF\s+0.5`, out)
	assert.Regexp(t, `NQ\s+0.25`, out)
}

func TestVerifyCmd_Missing(t *testing.T) {
	base := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(base, "FTSE_2024_data_parquet"), 0o755))

	out, err := execute(t, "verify", "--base-path", base)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing")
	assert.Regexp(t, `FTSE_2024_data_parquet\s+ok`, out)
	assert.Regexp(t, `NASDAQ_2024_data_parquet\s+missing`, out)
}

func TestRunCmd_RequiresIndex(t *testing.T) {
	_, err := execute(t, "run")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "index-name")
}

func TestRunCmd(t *testing.T) {
	base := t.TempDir()
	fx.WriteLOB(t, filepath.Join(base, "FTSE_2024_data_parquet", "part-0.parquet"), 2, []fx.LOBRow{
		fx.Book("FFIH4", fx.At(0), 7499.5, 7500, 0.5, 5, 2),
		fx.Book("FFIH4", fx.At(time.Second), 7499.5, 7500, 0.5, 5, 2),
	})
	fx.WriteHedge(t, filepath.Join(base, "futures_data_local", "FF", "FFIH4", "FFIH4.parquet"), []fx.HedgeRow{
		fx.Fill("A1", 1, fx.At(time.Second), 2, 0, 7500, "FFIH4"),
	})
	outDir := filepath.Join(base, "out")

	out, err := execute(t, "run",
		"--index-name", "FTSE",
		"--ric", "FFIH4",
		"--base-path", base,
		"--output-dir", outDir,
		"--threshold-sec", "2",
	)
	require.NoError(t, err)
	assert.Regexp(t, `FFIH4\s+matched\s+1\s+1\s+1\s+0`, out)

	files, err := filepath.Glob(filepath.Join(outDir, "FFIH4*"))
	require.NoError(t, err)
	assert.Len(t, files, 1)
}

func TestInspectCmd(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lob.parquet")
	fx.WriteLOB(t, path, 1, []fx.LOBRow{
		fx.Book("FFIH4", fx.At(0), 7499.5, 7500, 0.5, 5, 1),
	})

	out, err := execute(t, "inspect", path)
	require.NoError(t, err)
	assert.Contains(t, out, "1 rows, 6 columns")
	assert.Contains(t, out, "Date-Time")
	assert.Contains(t, out, "L1-AskPrice")
}

func TestRunCmd_ZeroThreshold(t *testing.T) {
	base := t.TempDir()
	fx.WriteLOB(t, filepath.Join(base, "FTSE_2024_data_parquet", "part-0.parquet"), 1, []fx.LOBRow{
		fx.Book("FFIH4", fx.At(time.Second), 7499.5, 7500, 0.5, 5, 1),
	})
	fx.WriteHedge(t, filepath.Join(base, "futures_data_local", "FF", "FFIH4", "FFIH4.parquet"), []fx.HedgeRow{
		fx.Fill("A1", 1, fx.At(0), 2, 0, 7500, "FFIH4"),
	})

	args := []string{"run",
		"--index-name", "FTSE",
		"--base-path", base,
		"--output-dir", filepath.Join(base, "out"),
	}

	out, err := execute(t, append(args, "--threshold-sec", "0")...)
	require.NoError(t, err)
	assert.Regexp(t, `FFIH4\s+no_matches\s+1\s+0`, out)

	out, err = execute(t, args...)
	require.NoError(t, err)
	assert.Regexp(t, `FFIH4\s+matched\s+1\s+1`, out)
}
