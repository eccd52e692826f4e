package todds

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// ToddsConfig contains all configurable parameters that influence data
// acquisition and prediction outcomes
// This centralizes all magic numbers and constants for easy adjustment
type ToddsConfig struct {
	// Database and cache parameters
	AssetsPath     string `koanf:"assets_path"`      // The base directory of assets relating to todds
	DataPath       string `koanf:"data_path"`        // The directory holding the extracted per-year ATP match files
	ArchiveZipPath string `koanf:"archive_zip_path"` // The cached copy of the downloaded bulk archive
	StagingPath    string `koanf:"staging_path"`     // Temporary directory used only during archive extraction
	KagglePath     string `koanf:"kaggle_path"`      // The directory holding the kaggle zip and extracted CSV
	DbPath         string `koanf:"db_path"`          // The location of the todds sqlite database

	// === PRIMARY SOURCE (bulk archive) ===

	ArchiveURL    string `koanf:"archive_url"`    // Fixed remote archive of per-year CSV files
	ArchiveFolder string `koanf:"archive_folder"` // The top-level folder expected inside the archive
	FirstYear     int    `koanf:"first_year"`     // Earliest per-year file consumed (default: 1981)
	LastYear      int    `koanf:"last_year"`      // Latest per-year file consumed (default: 2024)

	// === SECONDARY SOURCE (kaggle, optional) ===

	KaggleDataset  string `koanf:"kaggle_dataset"`  // Dataset slug passed to the kaggle CLI
	KaggleZipName  string `koanf:"kaggle_zip_name"` // Name of the zip the kaggle CLI produces
	KaggleCSVName  string `koanf:"kaggle_csv_name"` // Name of the CSV expected after extraction
	KaggleUsername string `koanf:"kaggle_username"` // Optional credential, empty disables the secondary source
	KaggleKey      string `koanf:"kaggle_key"`      // Optional credential, empty disables the secondary source

	// === EXTRACTION RETRY POLICY ===

	ExtractRetries int           `koanf:"extract_retries"` // Maximum zip extraction attempts (default: 3)
	ExtractBackoff time.Duration `koanf:"extract_backoff"` // Base backoff, multiplied by the attempt number (default: 1.5s)

	// === CORE PREDICTION PARAMETERS ===

	BoostRounds      int     `koanf:"boost_rounds"`      // Number of boosting rounds (default: 100)
	LearningRate     float64 `koanf:"learning_rate"`     // Shrinkage applied to each stump (default: 0.3)
	L2Regularisation float64 `koanf:"l2_regularisation"` // Lambda term on leaf weights (default: 1.0)
}

// DefaultToddsConfig returns the default configuration with all standard values
func DefaultToddsConfig() *ToddsConfig {
	assetsPath := defaultAssetsPath()
	config := &ToddsConfig{
		AssetsPath:     assetsPath,
		DataPath:       filepath.Join(assetsPath, "atp_data"),
		ArchiveZipPath: filepath.Join(assetsPath, "cached_atp_dataset.zip"),
		StagingPath:    filepath.Join(assetsPath, "_temp_tennis_data"),
		KagglePath:     filepath.Join(assetsPath, "kaggle_data"),
		DbPath:         filepath.Join(assetsPath, "todds.db"),

		// === PRIMARY SOURCE ===
		ArchiveURL:    "https://github.com/JeffSackmann/tennis_atp/archive/refs/heads/master.zip",
		ArchiveFolder: "tennis_atp-master",
		FirstYear:     1981,
		LastYear:      2024,

		// === SECONDARY SOURCE ===
		KaggleDataset: "dissfya/atp-tennis-2000-2023daily-pull",
		KaggleZipName: "atp-tennis-2000-2023daily-pull.zip",
		KaggleCSVName: "atp_matches.csv",

		// === EXTRACTION RETRY POLICY ===
		ExtractRetries: 3,
		ExtractBackoff: 1500 * time.Millisecond,

		// === CORE PREDICTION PARAMETERS ===
		BoostRounds:      100,
		LearningRate:     0.3,
		L2Regularisation: 1.0,
	}
	return config
}

// defaultAssetsPath returns the per-user asset directory
func defaultAssetsPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		// Fall back to the working directory, matching the original layout
		return ".todds"
	}
	return filepath.Join(home, ".todds")
}

// Global configuration instance
var Config *ToddsConfig

// init initializes the global configuration with default values
func init() {
	Config = DefaultToddsConfig()
}

// UpdateConfig allows updating the global configuration
func UpdateConfig(newConfig *ToddsConfig) {
	Config = newConfig
}

// LoadConfig builds a ToddsConfig by layering defaults, an optional YAML
// file and environment variables.
// Order of precedence (low -> high):
//  1. defaults (DefaultToddsConfig)
//  2. file (YAML) if TODDS_CONFIG is set
//  3. env (prefix TODDS_), e.g. TODDS_KAGGLE_USERNAME, TODDS_KAGGLE_KEY
//
// Credentials arrive through this object rather than ambient process state,
// absence of both kaggle fields simply disables the secondary source.
func LoadConfig() (*ToddsConfig, error) {
	base := DefaultToddsConfig()

	k := koanf.New(".")

	// Load from file if provided
	if path := os.Getenv("TODDS_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	// Environment variables: TODDS_KAGGLE_USERNAME -> kaggle_username etc.
	envProvider := env.Provider("TODDS_", ".", func(s string) string {
		s = strings.ToLower(s)
		s = strings.TrimPrefix(s, "todds_")
		return s
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment config: %w", err)
	}

	// Unmarshal into a copy of the defaults
	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// If the assets path was overridden but the derived paths were not,
	// re-derive them so everything stays under one directory
	if cfg.AssetsPath != base.AssetsPath {
		if cfg.DataPath == base.DataPath {
			cfg.DataPath = filepath.Join(cfg.AssetsPath, "atp_data")
		}
		if cfg.ArchiveZipPath == base.ArchiveZipPath {
			cfg.ArchiveZipPath = filepath.Join(cfg.AssetsPath, "cached_atp_dataset.zip")
		}
		if cfg.StagingPath == base.StagingPath {
			cfg.StagingPath = filepath.Join(cfg.AssetsPath, "_temp_tennis_data")
		}
		if cfg.KagglePath == base.KagglePath {
			cfg.KagglePath = filepath.Join(cfg.AssetsPath, "kaggle_data")
		}
		if cfg.DbPath == base.DbPath {
			cfg.DbPath = filepath.Join(cfg.AssetsPath, "todds.db")
		}
	}

	if err := ValidateConfig(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// === CONFIGURATION VALIDATION ===

// ValidateConfig ensures all configuration values are within reasonable ranges
func ValidateConfig(config *ToddsConfig) error {
	if config.ArchiveURL == "" {
		return fmt.Errorf("ArchiveURL must not be empty")
	}

	if config.ArchiveFolder == "" {
		return fmt.Errorf("ArchiveFolder must not be empty")
	}

	if config.FirstYear < 1800 || config.LastYear < config.FirstYear {
		return fmt.Errorf("year range %d-%d is not sensible", config.FirstYear, config.LastYear)
	}

	if config.ExtractRetries < 1 {
		return fmt.Errorf("ExtractRetries must be at least 1, got: %d", config.ExtractRetries)
	}

	if config.ExtractBackoff < 0 {
		return fmt.Errorf("ExtractBackoff must not be negative, got: %v", config.ExtractBackoff)
	}

	if config.BoostRounds < 1 {
		return fmt.Errorf("BoostRounds must be at least 1, got: %d", config.BoostRounds)
	}

	if config.LearningRate <= 0.0 || config.LearningRate > 1.0 {
		return fmt.Errorf("LearningRate must be between 0.0 and 1.0, got: %f", config.LearningRate)
	}

	if config.L2Regularisation < 0.0 {
		return fmt.Errorf("L2Regularisation must not be negative, got: %f", config.L2Regularisation)
	}

	return nil
}

// === HELPER FUNCTIONS FOR EASY ACCESS ===

// HasKaggleCredentials returns true when both secondary source credentials
// are present in the configuration
func HasKaggleCredentials() bool {
	return Config.KaggleUsername != "" && Config.KaggleKey != ""
}

// KaggleCSVPath returns the path of the extracted secondary source CSV
func KaggleCSVPath() string {
	return filepath.Join(Config.KagglePath, Config.KaggleCSVName)
}

// KaggleZipPath returns the path of the cached secondary source zip
func KaggleZipPath() string {
	return filepath.Join(Config.KagglePath, Config.KaggleZipName)
}
