package todds

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// archiveServer serves a valid archive zip and counts how many times it
// is fetched
func archiveServer(t *testing.T, hits *int) *httptest.Server {
	t.Helper()

	payload := buildZip(t, map[string]string{
		"tennis_atp-master/atp_matches_2023.csv": matchCSV(
			"Wimbledon,Grass,G,Carlos Alcaraz,Novak Djokovic,1-6 7-6 6-1 3-6 6-4,5,F"),
		"tennis_atp-master/README.md": "data",
	})

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*hits++
		w.Write(payload)
	}))
	t.Cleanup(server.Close)
	return server
}

func TestEnsurePrimarySourceDownloadsAndExtracts(t *testing.T) {
	withTestConfig(t)

	hits := 0
	server := archiveServer(t, &hits)
	Config.ArchiveURL = server.URL

	err := EnsurePrimarySource()
	require.NoError(t, err, "First acquisition should succeed")
	assert.Equal(t, 1, hits, "Archive should be fetched exactly once")

	// The year file must have landed in the data directory
	_, err = os.Stat(filepath.Join(Config.DataPath, "atp_matches_2023.csv"))
	assert.NoError(t, err, "Extracted year file should exist")

	// The cached zip must survive extraction
	_, err = os.Stat(Config.ArchiveZipPath)
	assert.NoError(t, err, "Cached zip should remain after extraction")

	// The staging directory must not be left behind
	_, err = os.Stat(Config.StagingPath)
	assert.True(t, os.IsNotExist(err), "Staging directory should be cleaned up")
}

func TestEnsurePrimarySourceIsIdempotent(t *testing.T) {
	withTestConfig(t)

	hits := 0
	server := archiveServer(t, &hits)
	Config.ArchiveURL = server.URL

	require.NoError(t, EnsurePrimarySource(), "First acquisition should succeed")
	require.NoError(t, EnsurePrimarySource(), "Second acquisition should succeed")
	assert.Equal(t, 1, hits, "Populated data directory should short-circuit the fetch")
}

func TestEnsurePrimarySourceRebuildsFromCachedZip(t *testing.T) {
	withTestConfig(t)

	hits := 0
	server := archiveServer(t, &hits)
	Config.ArchiveURL = server.URL

	require.NoError(t, EnsurePrimarySource(), "First acquisition should succeed")

	// Wipe the data directory, the cached zip should cover the rebuild
	require.NoError(t, os.RemoveAll(Config.DataPath), "Failed to wipe data directory")
	require.NoError(t, EnsurePrimarySource(), "Rebuild from cache should succeed")
	assert.Equal(t, 1, hits, "Rebuild should use the cached zip, not the network")
}

func TestExtractionRetriesThenFails(t *testing.T) {
	withTestConfig(t)

	// A cached file that is not a zip forces every extraction attempt to fail
	require.NoError(t, os.MkdirAll(Config.AssetsPath, 0755))
	require.NoError(t, os.WriteFile(Config.ArchiveZipPath, []byte("not a zip"), 0644))

	err := EnsurePrimarySource()
	require.Error(t, err, "Corrupt archive should fail acquisition")
	assert.Contains(t, err.Error(), "3 attempts", "Error should report the attempt count")
}

func TestExtractZipRejectsPathTraversal(t *testing.T) {
	withTestConfig(t)

	payload := buildZip(t, map[string]string{
		"../escape.txt": "bad",
	})
	zipPath := filepath.Join(Config.AssetsPath, "evil.zip")
	require.NoError(t, os.MkdirAll(Config.AssetsPath, 0755))
	require.NoError(t, os.WriteFile(zipPath, payload, 0644))

	dest := filepath.Join(Config.AssetsPath, "out")
	require.NoError(t, os.MkdirAll(dest, 0755))

	err := extractZip(zipPath, dest)
	require.Error(t, err, "Traversal entry should be rejected")
	assert.Contains(t, err.Error(), "escapes destination")
}

func TestRemoveTreeClearsReadOnlyFiles(t *testing.T) {
	withTestConfig(t)

	dir := filepath.Join(Config.AssetsPath, "readonly")
	require.NoError(t, os.MkdirAll(dir, 0755))
	path := filepath.Join(dir, "locked.csv")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0644))
	require.NoError(t, os.Chmod(path, 0444))

	require.NoError(t, removeTree(dir), "Read-only content should not block removal")
	_, err := os.Stat(dir)
	assert.True(t, os.IsNotExist(err), "Tree should be gone")
}
