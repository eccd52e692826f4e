package todds

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/richard-senior/todds/internal/logger"
)

/**
* Acquisition of the optional secondary data source.
* This shells out to the kaggle CLI because kaggle offers no plain
* download URL, authentication happens through the CLI's own env vars.
* Everything here is best effort, the secondary source enriches the
* dataset but its absence never blocks the pipeline.
 */

// EnsureSecondarySource downloads and unpacks the kaggle dataset when
// credentials are configured. Missing credentials, a missing kaggle
// binary or a failed download all log a warning and return nil, only
// genuinely unexpected conditions surface as errors.
func EnsureSecondarySource() error {
	if _, err := os.Stat(KaggleCSVPath()); err == nil {
		logger.Debug("Secondary source already present", KaggleCSVPath())
		return nil
	}

	if !HasKaggleCredentials() {
		logger.Warn("No kaggle credentials configured, skipping secondary source")
		return nil
	}

	if err := os.MkdirAll(Config.KagglePath, 0755); err != nil {
		return fmt.Errorf("failed to create kaggle directory: %w", err)
	}

	if _, err := os.Stat(KaggleZipPath()); os.IsNotExist(err) {
		if err := downloadKaggleDataset(); err != nil {
			logger.Warn("Kaggle download failed, continuing without secondary source", err)
			return nil
		}
	} else {
		logger.Info("Using cached kaggle zip", KaggleZipPath())
	}

	// Extraction clears its destination between attempts, so unpack into
	// a staging subdirectory rather than next to the cached zip
	staging := filepath.Join(Config.KagglePath, "_staging")
	defer func() {
		if err := os.RemoveAll(staging); err != nil {
			logger.Warn("Failed to clean up kaggle staging directory", err)
		}
	}()

	if err := extractWithRetry(KaggleZipPath(), staging); err != nil {
		logger.Warn("Kaggle extraction failed, continuing without secondary source", err)
		return nil
	}

	extracted := filepath.Join(staging, Config.KaggleCSVName)
	if _, err := os.Stat(extracted); err != nil {
		logger.Warn("Kaggle zip did not contain expected CSV", Config.KaggleCSVName)
		return nil
	}
	if err := os.Rename(extracted, KaggleCSVPath()); err != nil {
		logger.Warn("Failed to move kaggle CSV into place", err)
		return nil
	}

	logger.Highlight("Secondary source ready", KaggleCSVPath())
	return nil
}

// downloadKaggleDataset invokes the kaggle CLI with credentials passed
// through its environment
func downloadKaggleDataset() error {
	binary, err := exec.LookPath("kaggle")
	if err != nil {
		return fmt.Errorf("kaggle CLI not found on PATH: %w", err)
	}

	logger.Info("Downloading kaggle dataset", Config.KaggleDataset)

	cmd := exec.Command(binary, "datasets", "download", "-d", Config.KaggleDataset, "-p", Config.KagglePath)
	cmd.Env = append(os.Environ(),
		"KAGGLE_USERNAME="+Config.KaggleUsername,
		"KAGGLE_KEY="+Config.KaggleKey,
	)

	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("kaggle CLI failed: %w: %s", err, string(output))
	}

	return nil
}
