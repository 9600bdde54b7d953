package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ogulcanaydogan/credit-reminder/internal/config"
	"github.com/ogulcanaydogan/credit-reminder/pkg/model"
	"github.com/ogulcanaydogan/credit-reminder/pkg/notify"
	"github.com/ogulcanaydogan/credit-reminder/pkg/storage"
)

// Version is set at build time via ldflags.
var Version = "dev"

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "reminder",
	Short: "Credit reminder - consolidated Telegram reminders for approaching credit deadlines",
	Long: `Credit reminder reviews the credit obligations stored per user and sends each
Telegram recipient one consolidated message when a deadline is 5, 3, 1 or 0 days
away or already past. Records reachable through a linked account are included.

Invoked without a subcommand it performs one run.`,
	SilenceUsage: true,
	Args:         cobra.NoArgs,
	RunE:         runRun,
}

// Execute runs the CLI.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ~/.credit-reminder/config.yaml)")
	addRunFlags(rootCmd)
}

// loadConfig loads the configuration.
func loadConfig() (*config.Config, error) {
	return config.Load(cfgFile)
}

// newLogger creates a structured logger from config.
func newLogger(cfg *config.Config) *slog.Logger {
	level := slog.LevelInfo
	switch cfg.Logging.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	var handler slog.Handler
	if cfg.Logging.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	} else {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	}

	return slog.New(handler)
}

// initStorage opens the configured document store.
func initStorage(ctx context.Context, cfg *config.Config) (storage.Storage, error) {
	switch cfg.Store.Driver {
	case config.DriverSQLite:
		return storage.NewSQLite(cfg.Store.SQLite.Path)
	case config.DriverFirestore:
		return storage.NewFirestore(ctx, storage.FirestoreConfig{
			ProjectID:       cfg.Store.Firestore.ProjectID,
			CredentialsJSON: cfg.Store.Firestore.CredentialsJSON,
			CredentialsFile: cfg.Store.Firestore.CredentialsFile,
		})
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}

// initGateway creates the Telegram gateway.
func initGateway(cfg *config.Config) *notify.Telegram {
	return notify.NewTelegram(
		cfg.Telegram.APIURL,
		cfg.Telegram.Token,
		cfg.Telegram.ParseMode,
		cfg.TelegramTimeout(),
	)
}

// initReporters creates run-report sinks from config.
func initReporters(cfg *config.Config) []notify.Reporter {
	var reporters []notify.Reporter

	if cfg.Reports.Slack.Enabled && cfg.Reports.Slack.WebhookURL != "" {
		reporters = append(reporters, notify.NewSlackReporter(
			cfg.Reports.Slack.WebhookURL,
			cfg.Reports.Slack.Channel,
		))
	}

	if cfg.Reports.Webhook.Enabled && cfg.Reports.Webhook.URL != "" {
		reporters = append(reporters, notify.NewWebhookReporter(
			cfg.Reports.Webhook.URL,
			cfg.Reports.Webhook.Secret,
		))
	}

	return reporters
}

// resolveToday returns the run date: the --today flag if given, else the
// current date in the configured timezone.
func resolveToday(cfg *config.Config, flag string) (time.Time, error) {
	loc, err := cfg.Location()
	if err != nil {
		return time.Time{}, err
	}
	if flag == "" {
		return time.Now().In(loc), nil
	}
	t, err := time.ParseInLocation(model.DateLayout, flag, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --today %q: %w", flag, err)
	}
	return t, nil
}
