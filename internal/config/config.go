package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	// Catalog
	CatalogUserURL     string
	CatalogShowURL     string
	CatalogUserID      string
	CatalogParams      map[string]string // Extra query parameters sent with every catalog request
	CatalogHeaders     map[string]string // Extra headers sent with every catalog request
	TrustRemoteAired   bool              // Legacy: take "aired" from the catalog instead of deriving it from the date
	CatalogTimeoutSecs int

	// Indexer
	IndexerURL          string
	IndexerPasskey      string
	PreferredLanguage   string
	PreferredResolution string

	// Download
	TempDir                 string
	WatchDir                string // Folder watched by the torrent client
	DownloadDelay           time.Duration
	DownloadContinueOnError bool
	TempMaxAge              time.Duration

	// Mail
	MailjetAPIKey    string
	MailjetAPISecret string
	MailFrom         string
	MailTo           []string

	// Cloud browser
	OCServer        string
	OCUser          string
	OCPassword      string
	OCPath          string
	YourlsEndpoint  string
	YourlsSignature string
	BrowserListTTL  time.Duration
	BrowserWorkers  int

	// Audit
	AuditActor string

	// Schedules (cron expressions, empty disables the job)
	ScheduleSync     string
	ScheduleDownload string
	SchedulePrewarm  string
	SchedulePurge    string

	// Server
	ServerPort string

	// Paths
	BlacklistFile string // $CONFIG_DIR/blacklist.txt
	DatabaseFile  string // $CONFIG_DIR/tvshowfetcher.db

	// Logging
	LogLevel      string
	LogFile       string
	LogMaxSizeMB  int
	LogMaxBackups int
}

// Load loads configuration from environment variables and .env file
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	v.AutomaticEnv()

	// Load .env file if it exists (ignore if not found)
	_ = v.ReadInConfig()

	return FromViper(v)
}

// FromViper builds a Config from an already populated viper instance
func FromViper(v *viper.Viper) (*Config, error) {
	setDefaults(v)

	configDir := v.GetString("CONFIG_DIR")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		configDir = filepath.Join(homeDir, ".config", "tvshowfetcher")
	} else {
		absPath, err := filepath.Abs(configDir)
		if err != nil {
			return nil, fmt.Errorf("failed to get absolute path for CONFIG_DIR: %w", err)
		}
		configDir = absPath
	}

	if err := os.MkdirAll(configDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	tempDir := v.GetString("TEMP_DIR")
	if tempDir == "" {
		tempDir = filepath.Join(configDir, "tmp")
	}

	config := &Config{
		// Catalog
		CatalogUserURL:     strings.TrimRight(v.GetString("CATALOG_USER_URL"), "/"),
		CatalogShowURL:     strings.TrimRight(v.GetString("CATALOG_SHOW_URL"), "/"),
		CatalogUserID:      v.GetString("CATALOG_USER_ID"),
		CatalogParams:      parsePairs(v.GetString("CATALOG_PARAMS")),
		CatalogHeaders:     parsePairs(v.GetString("CATALOG_HEADERS")),
		TrustRemoteAired:   v.GetBool("CATALOG_TRUST_REMOTE_AIRED"),
		CatalogTimeoutSecs: v.GetInt("CATALOG_TIMEOUT_SECONDS"),

		// Indexer
		IndexerURL:          strings.TrimRight(v.GetString("INDEXER_URL"), "/"),
		IndexerPasskey:      v.GetString("INDEXER_PASSKEY"),
		PreferredLanguage:   v.GetString("PREFERRED_LANGUAGE"),
		PreferredResolution: v.GetString("PREFERRED_RESOLUTION"),

		// Download
		TempDir:                 tempDir,
		WatchDir:                v.GetString("WATCH_DIR"),
		DownloadDelay:           v.GetDuration("DOWNLOAD_DELAY"),
		DownloadContinueOnError: v.GetBool("DOWNLOAD_CONTINUE_ON_ERROR"),
		TempMaxAge:              v.GetDuration("TEMP_MAX_AGE"),

		// Mail
		MailjetAPIKey:    v.GetString("MAILJET_API_KEY"),
		MailjetAPISecret: v.GetString("MAILJET_API_SECRET"),
		MailFrom:         v.GetString("MAIL_FROM"),
		MailTo:           parseList(v.GetString("MAIL_TO")),

		// Cloud browser
		OCServer:        strings.TrimRight(v.GetString("OC_SERVER"), "/"),
		OCUser:          v.GetString("OC_USER"),
		OCPassword:      v.GetString("OC_PASSWORD"),
		OCPath:          v.GetString("OC_PATH"),
		YourlsEndpoint:  v.GetString("YOURLS_ENDPOINT"),
		YourlsSignature: v.GetString("YOURLS_SIGNATURE"),
		BrowserListTTL:  v.GetDuration("BROWSER_LIST_TTL"),
		BrowserWorkers:  v.GetInt("BROWSER_WORKERS"),

		// Audit
		AuditActor: v.GetString("AUDIT_ACTOR"),

		// Schedules
		ScheduleSync:     v.GetString("SCHEDULE_SYNC"),
		ScheduleDownload: v.GetString("SCHEDULE_DOWNLOAD"),
		SchedulePrewarm:  v.GetString("SCHEDULE_PREWARM"),
		SchedulePurge:    v.GetString("SCHEDULE_PURGE"),

		// Server
		ServerPort: v.GetString("SERVER_PORT"),

		// Paths
		BlacklistFile: filepath.Join(configDir, "blacklist.txt"),
		DatabaseFile:  filepath.Join(configDir, "tvshowfetcher.db"),

		// Logging
		LogLevel:      v.GetString("LOG_LEVEL"),
		LogFile:       v.GetString("LOG_FILE"),
		LogMaxSizeMB:  v.GetInt("LOG_MAX_SIZE_MB"),
		LogMaxBackups: v.GetInt("LOG_MAX_BACKUPS"),
	}

	if err := config.validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("CATALOG_TIMEOUT_SECONDS", 30)
	v.SetDefault("PREFERRED_LANGUAGE", "MULTi")
	v.SetDefault("PREFERRED_RESOLUTION", "1080p")
	v.SetDefault("DOWNLOAD_DELAY", time.Second)
	v.SetDefault("TEMP_MAX_AGE", 7*24*time.Hour)
	v.SetDefault("OC_PATH", "Local")
	v.SetDefault("BROWSER_LIST_TTL", 30*time.Second)
	v.SetDefault("BROWSER_WORKERS", 10)
	v.SetDefault("AUDIT_ACTOR", "system")
	v.SetDefault("SCHEDULE_SYNC", "0 */6 * * *")
	v.SetDefault("SCHEDULE_DOWNLOAD", "30 */6 * * *")
	v.SetDefault("SCHEDULE_PREWARM", "")
	v.SetDefault("SCHEDULE_PURGE", "15 4 * * *")
	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_MAX_SIZE_MB", 50)
	v.SetDefault("LOG_MAX_BACKUPS", 3)
}

func (c *Config) validate() error {
	if c.CatalogUserURL == "" {
		return fmt.Errorf("CATALOG_USER_URL is required")
	}
	if c.CatalogShowURL == "" {
		return fmt.Errorf("CATALOG_SHOW_URL is required")
	}
	if c.CatalogUserID == "" {
		return fmt.Errorf("CATALOG_USER_ID is required")
	}
	if c.IndexerURL == "" {
		return fmt.Errorf("INDEXER_URL is required")
	}
	if c.IndexerPasskey == "" {
		return fmt.Errorf("INDEXER_PASSKEY is required")
	}
	if c.WatchDir == "" {
		return fmt.Errorf("WATCH_DIR is required")
	}
	if c.BrowserWorkers <= 0 {
		return fmt.Errorf("BROWSER_WORKERS must be positive, got %d", c.BrowserWorkers)
	}
	return nil
}

// MailEnabled reports whether enough settings are present to send notifications
func (c *Config) MailEnabled() bool {
	return c.MailjetAPIKey != "" && c.MailjetAPISecret != "" && c.MailFrom != "" && len(c.MailTo) > 0
}

// BrowserEnabled reports whether the cloud browser has its remote endpoints configured
func (c *Config) BrowserEnabled() bool {
	return c.OCServer != "" && c.YourlsEndpoint != ""
}

// parseList splits a comma separated list, dropping blanks
func parseList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// parsePairs parses "k1=v1,k2=v2" into a map
func parsePairs(raw string) map[string]string {
	out := make(map[string]string)
	for _, part := range parseList(raw) {
		key, value, ok := strings.Cut(part, "=")
		if !ok {
			continue
		}
		out[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}
	return out
}
