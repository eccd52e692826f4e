package todds

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureSecondarySourceSkipsWithoutCredentials(t *testing.T) {
	withTestConfig(t)
	Config.KaggleUsername = ""
	Config.KaggleKey = ""

	assert.NoError(t, EnsureSecondarySource(), "Missing credentials should be a soft skip")

	_, err := os.Stat(KaggleCSVPath())
	assert.True(t, os.IsNotExist(err), "Nothing should be downloaded")
}

func TestEnsureSecondarySourceShortCircuitsOnExistingCSV(t *testing.T) {
	withTestConfig(t)

	require.NoError(t, os.MkdirAll(Config.KagglePath, 0755))
	require.NoError(t, os.WriteFile(KaggleCSVPath(), []byte("winner_name\n"), 0644))

	// Credentials are set but must never be used, a broken dataset slug
	// would otherwise fail the CLI invocation
	Config.KaggleUsername = "someone"
	Config.KaggleKey = "secret"
	Config.KaggleDataset = "definitely/not-real"

	assert.NoError(t, EnsureSecondarySource())
}

func TestEnsureSecondarySourceExtractsCachedZip(t *testing.T) {
	withTestConfig(t)
	Config.KaggleUsername = "someone"
	Config.KaggleKey = "secret"

	require.NoError(t, os.MkdirAll(Config.KagglePath, 0755))
	payload := buildZip(t, map[string]string{
		Config.KaggleCSVName: "winner_name,loser_name,surface,tourney_level\n",
	})
	require.NoError(t, os.WriteFile(KaggleZipPath(), payload, 0644))

	require.NoError(t, EnsureSecondarySource())

	_, err := os.Stat(KaggleCSVPath())
	assert.NoError(t, err, "CSV should be extracted from the cached zip")
}
