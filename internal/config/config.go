// Package config loads and validates service configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Apify    ApifyConfig    `mapstructure:"apify"`
	Sheets   SheetsConfig   `mapstructure:"sheets"`
	Registry RegistryConfig `mapstructure:"registry"`
	Archive  ArchiveConfig  `mapstructure:"archive"`
	Notify   NotifyConfig   `mapstructure:"notify"`
	Crawl    CrawlConfig    `mapstructure:"crawl"`
}

// ServerConfig controls HTTP server behavior.
type ServerConfig struct {
	Port int `mapstructure:"port"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// ApifyConfig holds the scraping provider token, actor identifiers and
// actor tuning parameters.
type ApifyConfig struct {
	Token          string `mapstructure:"token"`
	ListingActor   string `mapstructure:"listing_actor"`
	ContactActor   string `mapstructure:"contact_actor"`
	ResultCount    int    `mapstructure:"result_count"`
	ProxyGroup     string `mapstructure:"proxy_group"`
	MaxConcurrency int    `mapstructure:"max_concurrency"`
	ContactDepth   int    `mapstructure:"contact_depth"`
	ContactMaxReqs int    `mapstructure:"contact_max_requests"`
	PollSeconds    int    `mapstructure:"poll_seconds"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

// SheetsConfig identifies the target spreadsheet and its credentials.
type SheetsConfig struct {
	SpreadsheetID   string `mapstructure:"spreadsheet_id"`
	CredentialsFile string `mapstructure:"credentials_file"`
	Worksheet       string `mapstructure:"worksheet"`
}

// RegistryConfig governs the task sweep cycle.
type RegistryConfig struct {
	SweepIntervalMinutes int `mapstructure:"sweep_interval_minutes"`
	RetentionMinutes     int `mapstructure:"retention_minutes"`
}

// ArchiveConfig selects the raw-dataset archive backend.
type ArchiveConfig struct {
	Provider  string `mapstructure:"provider"`
	GCSBucket string `mapstructure:"gcs_bucket"`
	Prefix    string `mapstructure:"prefix"`
}

// NotifyConfig selects the row-appended notification backend.
type NotifyConfig struct {
	Provider  string `mapstructure:"provider"`
	ProjectID string `mapstructure:"project_id"`
	Topic     string `mapstructure:"topic"`
}

// CrawlConfig tunes the built-in contact crawler used when no contact actor
// is configured.
type CrawlConfig struct {
	UserAgent      string `mapstructure:"user_agent"`
	MaxDepth       int    `mapstructure:"max_depth"`
	MaxRequests    int    `mapstructure:"max_requests"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("LEADHARVEST")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindLegacyEnv(v)

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// bindLegacyEnv keeps the environment variable names the original deployment
// used, alongside the LEADHARVEST_* forms.
func bindLegacyEnv(v *viper.Viper) {
	// BindEnv never fails with at least one key.
	_ = v.BindEnv("apify.token", "LEADHARVEST_APIFY_TOKEN", "APIFY_API_TOKEN")
	_ = v.BindEnv("apify.listing_actor", "LEADHARVEST_APIFY_LISTING_ACTOR", "APIFY_JOB_ACTOR_ID")
	_ = v.BindEnv("apify.contact_actor", "LEADHARVEST_APIFY_CONTACT_ACTOR", "APIFY_CONTACT_ACTOR_ID")
	_ = v.BindEnv("sheets.spreadsheet_id", "LEADHARVEST_SHEETS_SPREADSHEET_ID", "GOOGLE_SHEET_ID")
	_ = v.BindEnv("sheets.credentials_file", "LEADHARVEST_SHEETS_CREDENTIALS_FILE", "GOOGLE_SERVICE_ACCOUNT_PATH")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("logging.development", true)
	v.SetDefault("apify.listing_actor", "hKByXkMQaC5Qt9UMN")
	v.SetDefault("apify.contact_actor", "2RxbxbuelHKumjdS6")
	v.SetDefault("apify.result_count", 100)
	v.SetDefault("apify.proxy_group", "RESIDENTIAL")
	v.SetDefault("apify.max_concurrency", 5)
	v.SetDefault("apify.contact_depth", 2)
	v.SetDefault("apify.contact_max_requests", 5)
	v.SetDefault("apify.poll_seconds", 3)
	v.SetDefault("apify.timeout_seconds", 300)
	v.SetDefault("sheets.worksheet", "Sheet1")
	v.SetDefault("registry.sweep_interval_minutes", 60)
	v.SetDefault("registry.retention_minutes", 60)
	v.SetDefault("archive.provider", "noop")
	v.SetDefault("archive.prefix", "datasets")
	v.SetDefault("notify.provider", "noop")
	v.SetDefault("crawl.user_agent", "leadharvest-bot/0.1")
	v.SetDefault("crawl.max_depth", 2)
	v.SetDefault("crawl.max_requests", 5)
	v.SetDefault("crawl.timeout_seconds", 15)
}

// Validate enforces required values and reasonable limits. Missing secrets
// are deliberately not checked here: their absence fails the affected task,
// not the process.
func (c Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	if c.Apify.ListingActor == "" {
		return fmt.Errorf("apify.listing_actor must be set")
	}
	if c.Apify.ResultCount <= 0 {
		return fmt.Errorf("apify.result_count must be > 0")
	}
	if c.Apify.PollSeconds <= 0 {
		return fmt.Errorf("apify.poll_seconds must be > 0")
	}
	if c.Registry.SweepIntervalMinutes <= 0 {
		return fmt.Errorf("registry.sweep_interval_minutes must be > 0")
	}
	if c.Registry.RetentionMinutes <= 0 {
		return fmt.Errorf("registry.retention_minutes must be > 0")
	}
	switch c.Archive.Provider {
	case "noop":
	case "gcs":
		if c.Archive.GCSBucket == "" {
			return fmt.Errorf("archive.gcs_bucket must be set when archive.provider is gcs")
		}
	default:
		return fmt.Errorf("unknown archive provider: %s", c.Archive.Provider)
	}
	switch c.Notify.Provider {
	case "noop", "memory":
	case "pubsub":
		if c.Notify.ProjectID == "" || c.Notify.Topic == "" {
			return fmt.Errorf("notify.project_id and notify.topic must be set when notify.provider is pubsub")
		}
	default:
		return fmt.Errorf("unknown notify provider: %s", c.Notify.Provider)
	}
	return nil
}

// RequiredSecrets maps the environment name of each value the orchestrator
// cannot run without to its resolved value. Empty values fail the task at
// orchestration start.
func (c Config) RequiredSecrets() map[string]string {
	return map[string]string{
		"APIFY_API_TOKEN":             c.Apify.Token,
		"GOOGLE_SHEET_ID":             c.Sheets.SpreadsheetID,
		"GOOGLE_SERVICE_ACCOUNT_PATH": c.Sheets.CredentialsFile,
	}
}

// SweepInterval converts the registry sweep config to a duration.
func (c Config) SweepInterval() time.Duration {
	return time.Duration(c.Registry.SweepIntervalMinutes) * time.Minute
}

// Retention converts the registry retention config to a duration.
func (c Config) Retention() time.Duration {
	return time.Duration(c.Registry.RetentionMinutes) * time.Minute
}
