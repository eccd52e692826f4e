package todds

import (
	"archive/zip"
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// withTestConfig points the global configuration at a temporary directory
// for the duration of one test, restoring the previous configuration and
// closing any database handle afterwards
func withTestConfig(t *testing.T) *ToddsConfig {
	t.Helper()

	previous := Config
	root := t.TempDir()

	cfg := DefaultToddsConfig()
	cfg.AssetsPath = root
	cfg.DataPath = filepath.Join(root, "atp_data")
	cfg.ArchiveZipPath = filepath.Join(root, "cached_atp_dataset.zip")
	cfg.StagingPath = filepath.Join(root, "_temp_tennis_data")
	cfg.KagglePath = filepath.Join(root, "kaggle_data")
	cfg.DbPath = filepath.Join(root, "todds.db")
	cfg.ExtractBackoff = time.Millisecond

	UpdateConfig(cfg)
	t.Cleanup(func() {
		CloseDatabase()
		UpdateConfig(previous)
	})

	return cfg
}

// buildZip assembles an in-memory zip from a name -> content map
func buildZip(t *testing.T, files map[string]string) []byte {
	t.Helper()

	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for name, content := range files {
		f, err := w.Create(name)
		require.NoError(t, err, "Failed to add zip entry")
		_, err = f.Write([]byte(content))
		require.NoError(t, err, "Failed to write zip entry")
	}
	require.NoError(t, w.Close(), "Failed to finalize zip")

	return buf.Bytes()
}

// writeYearFile drops a per-year CSV into the configured data directory
func writeYearFile(t *testing.T, name, content string) {
	t.Helper()

	require.NoError(t, os.MkdirAll(Config.DataPath, 0755), "Failed to create data directory")
	path := filepath.Join(Config.DataPath, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644), "Failed to write year file")
}

const matchHeader = "tourney_name,surface,tourney_level,winner_name,loser_name,score,best_of,round\n"

// matchCSV produces a minimal source file with the given rows appended
// to the standard header
func matchCSV(rows ...string) string {
	out := matchHeader
	for _, r := range rows {
		out += r + "\n"
	}
	return out
}
