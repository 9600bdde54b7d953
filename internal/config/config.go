package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/spf13/viper"
)

// ErrMissingConfig marks a required setting that is absent. It is the only
// condition that aborts a run before discovery starts.
var ErrMissingConfig = errors.New("missing required configuration")

// Store drivers.
const (
	DriverFirestore = "firestore"
	DriverSQLite    = "sqlite"
)

// Config holds all credit reminder configuration.
type Config struct {
	Store    StoreConfig    `mapstructure:"store"`
	Telegram TelegramConfig `mapstructure:"telegram"`
	Dispatch DispatchConfig `mapstructure:"dispatch"`
	Reminder ReminderConfig `mapstructure:"reminder"`
	Reports  ReportsConfig  `mapstructure:"reports"`
	Server   ServerConfig   `mapstructure:"server"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// StoreConfig selects the document store backend.
type StoreConfig struct {
	Driver    string          `mapstructure:"driver"`
	SQLite    SQLiteConfig    `mapstructure:"sqlite"`
	Firestore FirestoreConfig `mapstructure:"firestore"`
}

// SQLiteConfig defines the local store settings.
type SQLiteConfig struct {
	Path string `mapstructure:"path"`
}

// FirestoreConfig defines the hosted store settings.
type FirestoreConfig struct {
	ProjectID       string `mapstructure:"project_id"`
	CredentialsJSON string `mapstructure:"credentials_json"`
	CredentialsFile string `mapstructure:"credentials_file"`
}

// TelegramConfig defines the notification gateway.
type TelegramConfig struct {
	Token     string `mapstructure:"token"`
	APIURL    string `mapstructure:"api_url"`
	ParseMode string `mapstructure:"parse_mode"`
	Timeout   string `mapstructure:"timeout"`
}

// DispatchConfig defines delivery pacing and framing.
type DispatchConfig struct {
	Delay  string `mapstructure:"delay"`
	Header string `mapstructure:"header"`
}

// ReminderConfig defines how "today" is determined.
type ReminderConfig struct {
	Timezone string `mapstructure:"timezone"`
}

// ReportsConfig defines optional run-report sinks.
type ReportsConfig struct {
	Slack   SlackConfig   `mapstructure:"slack"`
	Webhook WebhookConfig `mapstructure:"webhook"`
}

// SlackConfig defines Slack webhook settings.
type SlackConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	WebhookURL string `mapstructure:"webhook_url"`
	Channel    string `mapstructure:"channel"`
}

// WebhookConfig defines generic webhook settings.
type WebhookConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	URL     string `mapstructure:"url"`
	Secret  string `mapstructure:"secret"`
}

// ServerConfig defines the read-only inspection API.
type ServerConfig struct {
	Listen       string `mapstructure:"listen"`
	ReadTimeout  string `mapstructure:"read_timeout"`
	WriteTimeout string `mapstructure:"write_timeout"`
}

// LoggingConfig defines logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from file and environment variables.
func Load(cfgFile string) (*Config, error) {
	v := viper.New()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("find home directory: %w", err)
		}

		v.AddConfigPath(filepath.Join(home, ".credit-reminder"))
		v.AddConfigPath(".")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	// Defaults
	home, _ := os.UserHomeDir()
	v.SetDefault("store.driver", DriverFirestore)
	v.SetDefault("store.sqlite.path", filepath.Join(home, ".credit-reminder", "store.db"))
	v.SetDefault("telegram.api_url", "https://api.telegram.org")
	v.SetDefault("telegram.parse_mode", "HTML")
	v.SetDefault("telegram.timeout", "10s")
	v.SetDefault("dispatch.delay", "500ms")
	v.SetDefault("reminder.timezone", "Local")
	v.SetDefault("server.listen", ":8080")
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "60s")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
	v.SetDefault("reports.slack.channel", "#credit-reminders")

	// Keys without a real default are registered empty so AutomaticEnv can
	// still supply them during Unmarshal.
	for _, key := range []string{
		"store.firestore.project_id",
		"store.firestore.credentials_file",
		"dispatch.header",
		"reports.slack.webhook_url",
		"reports.webhook.url",
		"reports.webhook.secret",
	} {
		v.SetDefault(key, "")
	}
	v.SetDefault("reports.slack.enabled", false)
	v.SetDefault("reports.webhook.enabled", false)

	// Environment variables
	v.SetEnvPrefix("REMINDER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Names used by the existing scheduled deployment.
	_ = v.BindEnv("telegram.token", "REMINDER_TELEGRAM_TOKEN", "TG_BOT_TOKEN")
	_ = v.BindEnv("store.firestore.credentials_json", "REMINDER_STORE_FIRESTORE_CREDENTIALS_JSON", "FIREBASE_KEY")

	// Read config file (ignore if not found)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	return &cfg, nil
}

// Validate checks the settings a delivering run cannot start without.
// requireGateway is false for commands that never deliver.
func (c *Config) Validate(requireGateway bool) error {
	if requireGateway && c.Telegram.Token == "" {
		return fmt.Errorf("telegram.token (TG_BOT_TOKEN): %w", ErrMissingConfig)
	}

	switch c.Store.Driver {
	case DriverSQLite:
		if c.Store.SQLite.Path == "" {
			return fmt.Errorf("store.sqlite.path: %w", ErrMissingConfig)
		}
	case DriverFirestore:
		fs := c.Store.Firestore
		if fs.CredentialsJSON == "" && fs.CredentialsFile == "" && fs.ProjectID == "" {
			return fmt.Errorf("store.firestore credentials (FIREBASE_KEY): %w", ErrMissingConfig)
		}
	default:
		return fmt.Errorf("unknown store driver %q", c.Store.Driver)
	}

	for _, d := range []struct{ key, val string }{
		{"telegram.timeout", c.Telegram.Timeout},
		{"dispatch.delay", c.Dispatch.Delay},
	} {
		if d.val == "" {
			continue
		}
		if _, err := time.ParseDuration(d.val); err != nil {
			return fmt.Errorf("%s: %w", d.key, err)
		}
	}

	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// Location resolves reminder.timezone.
func (c *Config) Location() (*time.Location, error) {
	tz := c.Reminder.Timezone
	if tz == "" || tz == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("reminder.timezone: %w", err)
	}
	return loc, nil
}

// DispatchDelay returns dispatch.delay, or 500ms when unset.
func (c *Config) DispatchDelay() time.Duration {
	d, err := time.ParseDuration(c.Dispatch.Delay)
	if err != nil || c.Dispatch.Delay == "" {
		return 500 * time.Millisecond
	}
	return d
}

// TelegramTimeout returns telegram.timeout, or 10s when unset.
func (c *Config) TelegramTimeout() time.Duration {
	d, err := time.ParseDuration(c.Telegram.Timeout)
	if err != nil || d <= 0 {
		return 10 * time.Second
	}
	return d
}
