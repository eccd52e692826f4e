package todds

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/richard-senior/todds/internal/logger"
	"github.com/richard-senior/todds/pkg/transport"
)

/**
* Acquisition of the primary data source.
* The remote archive is a zip of per-year CSV files which we download once,
* cache on disk and unpack into the configured data directory. All the
* operations here are idempotent, re-running against a populated data
* directory touches nothing.
 */

// EnsurePrimarySource makes sure the per-year match files exist locally.
// Resolution order:
//  1. data directory already populated -> nothing to do
//  2. cached zip on disk -> extract it
//  3. otherwise download the archive, cache it, then extract
//
// The cached zip survives extraction so a wiped data directory can be
// rebuilt without another download.
func EnsurePrimarySource() error {
	if dirHasFiles(Config.DataPath) {
		logger.Debug("Primary source already present", Config.DataPath)
		return nil
	}

	if _, err := os.Stat(Config.ArchiveZipPath); os.IsNotExist(err) {
		if err := os.MkdirAll(filepath.Dir(Config.ArchiveZipPath), 0755); err != nil {
			return fmt.Errorf("failed to create assets directory: %w", err)
		}
		logger.Info("Downloading match archive", Config.ArchiveURL)
		if err := transport.Download(Config.ArchiveURL, Config.ArchiveZipPath); err != nil {
			return fmt.Errorf("failed to download archive: %w", err)
		}
		logger.Info("Archive cached", Config.ArchiveZipPath)
	} else {
		logger.Info("Using cached archive", Config.ArchiveZipPath)
	}

	if err := installArchive(); err != nil {
		return err
	}

	logger.Highlight("Primary source ready", Config.DataPath)
	return nil
}

// dirHasFiles returns true when the directory exists and contains at
// least one entry
func dirHasFiles(dir string) bool {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return false
	}
	return len(entries) > 0
}

// installArchive unpacks the cached zip into a staging directory, finds
// the expected top-level folder and moves it into place as the data
// directory. The staging directory is always cleaned up, failure to do
// so is logged but never fatal.
func installArchive() error {
	// Fresh staging area for every install
	if err := removeTree(Config.StagingPath); err != nil {
		return fmt.Errorf("failed to clear staging directory: %w", err)
	}
	if err := os.MkdirAll(Config.StagingPath, 0755); err != nil {
		return fmt.Errorf("failed to create staging directory: %w", err)
	}
	defer func() {
		if err := removeTree(Config.StagingPath); err != nil {
			logger.Warn("Failed to clean up staging directory", err)
		}
	}()

	if err := extractWithRetry(Config.ArchiveZipPath, Config.StagingPath); err != nil {
		return err
	}

	extracted := filepath.Join(Config.StagingPath, Config.ArchiveFolder)
	if _, err := os.Stat(extracted); err != nil {
		return fmt.Errorf("archive did not contain expected folder %s: %w", Config.ArchiveFolder, err)
	}

	// Replace any stale data directory before the rename
	if err := removeTree(Config.DataPath); err != nil {
		return fmt.Errorf("failed to remove stale data directory: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(Config.DataPath), 0755); err != nil {
		return fmt.Errorf("failed to create data parent directory: %w", err)
	}
	if err := os.Rename(extracted, Config.DataPath); err != nil {
		return fmt.Errorf("failed to move extracted data into place: %w", err)
	}

	return nil
}

// extractWithRetry attempts zip extraction up to Config.ExtractRetries
// times with a linearly growing backoff between attempts. Partial output
// from a failed attempt is cleared before the next one.
func extractWithRetry(zipPath, destDir string) error {
	var lastErr error
	for attempt := 1; attempt <= Config.ExtractRetries; attempt++ {
		lastErr = extractZip(zipPath, destDir)
		if lastErr == nil {
			return nil
		}

		logger.Warn("Extraction attempt failed", attempt, lastErr)

		// Clear partial output before retrying
		if err := removeTree(destDir); err != nil {
			logger.Warn("Failed to clear partial extraction", err)
		}
		if err := os.MkdirAll(destDir, 0755); err != nil {
			return fmt.Errorf("failed to recreate extraction directory: %w", err)
		}

		if attempt < Config.ExtractRetries {
			time.Sleep(time.Duration(attempt) * Config.ExtractBackoff)
		}
	}
	return fmt.Errorf("extraction failed after %d attempts: %w", Config.ExtractRetries, lastErr)
}

// extractZip unpacks zipPath into destDir, refusing entries whose paths
// escape the destination
func extractZip(zipPath, destDir string) error {
	reader, err := zip.OpenReader(zipPath)
	if err != nil {
		return fmt.Errorf("failed to open zip %s: %w", zipPath, err)
	}
	defer reader.Close()

	for _, entry := range reader.File {
		target := filepath.Join(destDir, entry.Name)

		// Guard against path traversal inside the archive
		if !strings.HasPrefix(target, filepath.Clean(destDir)+string(os.PathSeparator)) {
			return fmt.Errorf("zip entry %s escapes destination directory", entry.Name)
		}

		if entry.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0755); err != nil {
				return fmt.Errorf("failed to create directory %s: %w", target, err)
			}
			continue
		}

		if err := extractZipEntry(entry, target); err != nil {
			return err
		}
	}

	return nil
}

// extractZipEntry writes one file entry to disk
func extractZipEntry(entry *zip.File, target string) error {
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", target, err)
	}

	src, err := entry.Open()
	if err != nil {
		return fmt.Errorf("failed to open zip entry %s: %w", entry.Name, err)
	}
	defer src.Close()

	dst, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("failed to create file %s: %w", target, err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return fmt.Errorf("failed to write %s: %w", target, err)
	}

	return nil
}

// removeTree deletes a directory tree, first clearing read-only
// permission bits which otherwise make RemoveAll fail on some
// filesystems. A missing tree is not an error.
func removeTree(dir string) error {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return nil
	}

	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if info.Mode().Perm()&0200 == 0 {
			// Best effort, RemoveAll will surface anything that still fails
			os.Chmod(path, info.Mode().Perm()|0200)
		}
		return nil
	})
	if err != nil {
		logger.Warn("Permission sweep failed", err)
	}

	return os.RemoveAll(dir)
}
