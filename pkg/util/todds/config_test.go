package todds

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultToddsConfig()
	require.NoError(t, ValidateConfig(cfg))

	assert.Equal(t, 1981, cfg.FirstYear)
	assert.Equal(t, 2024, cfg.LastYear)
	assert.Equal(t, 3, cfg.ExtractRetries)
	assert.Equal(t, 1500*time.Millisecond, cfg.ExtractBackoff)
	assert.Equal(t, 100, cfg.BoostRounds)
	assert.Contains(t, cfg.ArchiveURL, "tennis_atp")
	assert.Equal(t, "tennis_atp-master", cfg.ArchiveFolder)
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	t.Setenv("TODDS_KAGGLE_USERNAME", "someone")
	t.Setenv("TODDS_KAGGLE_KEY", "secret")
	t.Setenv("TODDS_FIRST_YEAR", "2000")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "someone", cfg.KaggleUsername)
	assert.Equal(t, "secret", cfg.KaggleKey)
	assert.Equal(t, 2000, cfg.FirstYear)
	// Untouched fields keep their defaults
	assert.Equal(t, 2024, cfg.LastYear)
}

func TestLoadConfigRederivesPaths(t *testing.T) {
	root := t.TempDir()
	t.Setenv("TODDS_ASSETS_PATH", root)

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, root, cfg.AssetsPath)
	assert.Equal(t, filepath.Join(root, "atp_data"), cfg.DataPath)
	assert.Equal(t, filepath.Join(root, "todds.db"), cfg.DbPath)
}

func TestLoadConfigFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "todds.yaml")
	yaml := "boost_rounds: 50\nlearning_rate: 0.1\n"
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0644))
	t.Setenv("TODDS_CONFIG", path)

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 50, cfg.BoostRounds)
	assert.Equal(t, 0.1, cfg.LearningRate)
}

func TestLoadConfigEnvBeatsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "todds.yaml")
	require.NoError(t, os.WriteFile(path, []byte("boost_rounds: 50\n"), 0644))
	t.Setenv("TODDS_CONFIG", path)
	t.Setenv("TODDS_BOOST_ROUNDS", "25")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, 25, cfg.BoostRounds)
}

func TestValidateConfigRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*ToddsConfig)
	}{
		{"empty archive url", func(c *ToddsConfig) { c.ArchiveURL = "" }},
		{"empty archive folder", func(c *ToddsConfig) { c.ArchiveFolder = "" }},
		{"inverted year range", func(c *ToddsConfig) { c.FirstYear = 2024; c.LastYear = 1981 }},
		{"zero retries", func(c *ToddsConfig) { c.ExtractRetries = 0 }},
		{"negative backoff", func(c *ToddsConfig) { c.ExtractBackoff = -time.Second }},
		{"zero rounds", func(c *ToddsConfig) { c.BoostRounds = 0 }},
		{"learning rate too high", func(c *ToddsConfig) { c.LearningRate = 1.5 }},
		{"negative lambda", func(c *ToddsConfig) { c.L2Regularisation = -1.0 }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultToddsConfig()
			tc.mutate(cfg)
			assert.Error(t, ValidateConfig(cfg))
		})
	}
}

func TestHasKaggleCredentials(t *testing.T) {
	withTestConfig(t)

	Config.KaggleUsername = ""
	Config.KaggleKey = ""
	assert.False(t, HasKaggleCredentials())

	Config.KaggleUsername = "someone"
	assert.False(t, HasKaggleCredentials(), "Username alone is not enough")

	Config.KaggleKey = "secret"
	assert.True(t, HasKaggleCredentials())
}
