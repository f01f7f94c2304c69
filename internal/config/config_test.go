package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func baseViper(t *testing.T) *viper.Viper {
	t.Helper()

	v := viper.New()
	v.Set("CONFIG_DIR", t.TempDir())
	v.Set("CATALOG_USER_URL", "https://catalog.example/user/")
	v.Set("CATALOG_SHOW_URL", "https://catalog.example/show")
	v.Set("CATALOG_USER_ID", "12")
	v.Set("INDEXER_URL", "https://indexer.example/api/")
	v.Set("INDEXER_PASSKEY", "secret")
	v.Set("WATCH_DIR", "/watch")
	return v
}

func TestFromViperDefaults(t *testing.T) {
	v := baseViper(t)

	cfg, err := FromViper(v)
	require.NoError(t, err)

	configDir := v.GetString("CONFIG_DIR")
	assert.Equal(t, "https://catalog.example/user", cfg.CatalogUserURL)
	assert.Equal(t, "https://indexer.example/api", cfg.IndexerURL)
	assert.Equal(t, "MULTi", cfg.PreferredLanguage)
	assert.Equal(t, "1080p", cfg.PreferredResolution)
	assert.Equal(t, time.Second, cfg.DownloadDelay)
	assert.False(t, cfg.DownloadContinueOnError)
	assert.False(t, cfg.TrustRemoteAired)
	assert.Equal(t, "Local", cfg.OCPath)
	assert.Equal(t, 30*time.Second, cfg.BrowserListTTL)
	assert.Equal(t, 10, cfg.BrowserWorkers)
	assert.Equal(t, "system", cfg.AuditActor)
	assert.Empty(t, cfg.SchedulePrewarm)
	assert.Equal(t, filepath.Join(configDir, "tmp"), cfg.TempDir)
	assert.Equal(t, filepath.Join(configDir, "tvshowfetcher.db"), cfg.DatabaseFile)
	assert.Equal(t, filepath.Join(configDir, "blacklist.txt"), cfg.BlacklistFile)
	assert.False(t, cfg.MailEnabled())
	assert.False(t, cfg.BrowserEnabled())
}

func TestFromViperParsesListsAndPairs(t *testing.T) {
	v := baseViper(t)
	v.Set("MAIL_TO", "a@example.com, ,b@example.com")
	v.Set("MAIL_FROM", "fetcher@example.com")
	v.Set("MAILJET_API_KEY", "key")
	v.Set("MAILJET_API_SECRET", "secret")
	v.Set("CATALOG_PARAMS", "lang=en, mode=full,broken")
	v.Set("DOWNLOAD_DELAY", "5s")

	cfg, err := FromViper(v)
	require.NoError(t, err)
	assert.Equal(t, []string{"a@example.com", "b@example.com"}, cfg.MailTo)
	assert.Equal(t, map[string]string{"lang": "en", "mode": "full"}, cfg.CatalogParams)
	assert.Equal(t, 5*time.Second, cfg.DownloadDelay)
	assert.True(t, cfg.MailEnabled())
}

func TestFromViperRequiredFields(t *testing.T) {
	for _, key := range []string{"CATALOG_USER_URL", "CATALOG_SHOW_URL", "CATALOG_USER_ID", "INDEXER_URL", "INDEXER_PASSKEY", "WATCH_DIR"} {
		t.Run(key, func(t *testing.T) {
			v := baseViper(t)
			v.Set(key, "")

			_, err := FromViper(v)
			assert.ErrorContains(t, err, key+" is required")
		})
	}
}

func TestFromViperRejectsNonPositiveWorkers(t *testing.T) {
	v := baseViper(t)
	v.Set("BROWSER_WORKERS", 0)

	_, err := FromViper(v)
	assert.ErrorContains(t, err, "BROWSER_WORKERS")
}
