package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ogulcanaydogan/credit-reminder/internal/config"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)

	assert.Equal(t, config.DriverFirestore, cfg.Store.Driver)
	assert.Equal(t, "https://api.telegram.org", cfg.Telegram.APIURL)
	assert.Equal(t, "HTML", cfg.Telegram.ParseMode)
	assert.Equal(t, "10s", cfg.Telegram.Timeout)
	assert.Equal(t, "500ms", cfg.Dispatch.Delay)
	assert.Equal(t, "Local", cfg.Reminder.Timezone)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "text", cfg.Logging.Format)
	assert.Equal(t, "#credit-reminders", cfg.Reports.Slack.Channel)
	assert.Equal(t, ":8080", cfg.Server.Listen)
	assert.Equal(t, "30s", cfg.Server.ReadTimeout)
	assert.Equal(t, 500*time.Millisecond, cfg.DispatchDelay())
	assert.Equal(t, 10*time.Second, cfg.TelegramTimeout())
}

func TestLoad_FromFile(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	data := []byte(`
store:
  driver: sqlite
  sqlite:
    path: /tmp/reminder.db
telegram:
  token: file-token
dispatch:
  delay: 1s
  header: "Reminders:"
reminder:
  timezone: Europe/Kyiv
reports:
  webhook:
    enabled: true
    url: https://hooks.example.com/run
logging:
  level: debug
`)
	require.NoError(t, os.WriteFile(cfgPath, data, 0o644))

	cfg, err := config.Load(cfgPath)
	require.NoError(t, err)

	assert.Equal(t, config.DriverSQLite, cfg.Store.Driver)
	assert.Equal(t, "/tmp/reminder.db", cfg.Store.SQLite.Path)
	assert.Equal(t, time.Second, cfg.DispatchDelay())
	assert.Equal(t, "Reminders:", cfg.Dispatch.Header)
	assert.True(t, cfg.Reports.Webhook.Enabled)
	assert.Equal(t, "https://hooks.example.com/run", cfg.Reports.Webhook.URL)
	assert.Equal(t, "debug", cfg.Logging.Level)

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, "Europe/Kyiv", loc.String())
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("REMINDER_LOGGING_LEVEL", "error")
	t.Setenv("REMINDER_DISPATCH_DELAY", "2s")

	cfg, err := config.Load("")
	require.NoError(t, err)

	assert.Equal(t, "error", cfg.Logging.Level)
	assert.Equal(t, 2*time.Second, cfg.DispatchDelay())
}

func TestLoad_EnvOnlyKeys(t *testing.T) {
	t.Setenv("REMINDER_TELEGRAM_TOKEN", "123:abc")
	t.Setenv("REMINDER_STORE_FIRESTORE_CREDENTIALS_FILE", "/etc/key.json")
	t.Setenv("REMINDER_STORE_FIRESTORE_PROJECT_ID", "bonds")
	t.Setenv("REMINDER_DISPATCH_HEADER", "Reminders:")
	t.Setenv("REMINDER_REPORTS_WEBHOOK_ENABLED", "true")
	t.Setenv("REMINDER_REPORTS_WEBHOOK_URL", "http://hooks.local/run")
	t.Setenv("REMINDER_REPORTS_WEBHOOK_SECRET", "s3cret")
	t.Setenv("REMINDER_REPORTS_SLACK_ENABLED", "true")
	t.Setenv("REMINDER_REPORTS_SLACK_WEBHOOK_URL", "http://slack.local/hook")

	cfg, err := config.Load("")
	require.NoError(t, err)

	assert.Equal(t, "/etc/key.json", cfg.Store.Firestore.CredentialsFile)
	assert.Equal(t, "bonds", cfg.Store.Firestore.ProjectID)
	assert.Equal(t, "Reminders:", cfg.Dispatch.Header)
	assert.True(t, cfg.Reports.Webhook.Enabled)
	assert.Equal(t, "http://hooks.local/run", cfg.Reports.Webhook.URL)
	assert.Equal(t, "s3cret", cfg.Reports.Webhook.Secret)
	assert.True(t, cfg.Reports.Slack.Enabled)
	assert.Equal(t, "http://slack.local/hook", cfg.Reports.Slack.WebhookURL)
	assert.NoError(t, cfg.Validate(true))
}

func TestLoad_DeploymentEnvNames(t *testing.T) {
	t.Setenv("TG_BOT_TOKEN", "123:abc")
	t.Setenv("FIREBASE_KEY", `{"type":"service_account"}`)

	cfg, err := config.Load("")
	require.NoError(t, err)

	assert.Equal(t, "123:abc", cfg.Telegram.Token)
	assert.Equal(t, `{"type":"service_account"}`, cfg.Store.Firestore.CredentialsJSON)
	assert.NoError(t, cfg.Validate(true))
}

func TestLoad_InvalidFile(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("invalid: [yaml"), 0o644))

	_, err := config.Load(cfgPath)
	assert.Error(t, err)
}

func validConfig() *config.Config {
	return &config.Config{
		Store: config.StoreConfig{
			Driver: config.DriverSQLite,
			SQLite: config.SQLiteConfig{Path: "/tmp/reminder.db"},
		},
		Telegram: config.TelegramConfig{Token: "123:abc", Timeout: "10s"},
		Dispatch: config.DispatchConfig{Delay: "500ms"},
		Reminder: config.ReminderConfig{Timezone: "UTC"},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name           string
		mutate         func(*config.Config)
		requireGateway bool
		missing        bool
		wantErr        bool
	}{
		{name: "valid", mutate: func(*config.Config) {}, requireGateway: true},
		{
			name:           "missing token",
			mutate:         func(c *config.Config) { c.Telegram.Token = "" },
			requireGateway: true,
			missing:        true,
			wantErr:        true,
		},
		{
			name:   "missing token without delivery",
			mutate: func(c *config.Config) { c.Telegram.Token = "" },
		},
		{
			name:    "missing sqlite path",
			mutate:  func(c *config.Config) { c.Store.SQLite.Path = "" },
			missing: true,
			wantErr: true,
		},
		{
			name:    "missing firestore credentials",
			mutate:  func(c *config.Config) { c.Store = config.StoreConfig{Driver: config.DriverFirestore} },
			missing: true,
			wantErr: true,
		},
		{
			name: "firestore project only",
			mutate: func(c *config.Config) {
				c.Store = config.StoreConfig{Driver: config.DriverFirestore, Firestore: config.FirestoreConfig{ProjectID: "credits-prod"}}
			},
		},
		{
			name:    "unknown driver",
			mutate:  func(c *config.Config) { c.Store.Driver = "mongo" },
			wantErr: true,
		},
		{
			name:    "bad delay",
			mutate:  func(c *config.Config) { c.Dispatch.Delay = "soon" },
			wantErr: true,
		},
		{
			name:    "bad timezone",
			mutate:  func(c *config.Config) { c.Reminder.Timezone = "Mars/Olympus" },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate(tt.requireGateway)
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tt.missing, errors.Is(err, config.ErrMissingConfig))
		})
	}
}

func TestDispatchDelay_Zero(t *testing.T) {
	cfg := validConfig()
	cfg.Dispatch.Delay = "0s"
	assert.Equal(t, time.Duration(0), cfg.DispatchDelay())
}
