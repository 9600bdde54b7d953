package cli

import (
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/ogulcanaydogan/credit-reminder/internal/config"
	"github.com/ogulcanaydogan/credit-reminder/pkg/reminder"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Perform one reminder run",
	Long: `Discover credit records, evaluate their deadlines and deliver one combined
message per recipient. With --dry-run the messages are printed instead.`,
	Args: cobra.NoArgs,
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)
	addRunFlags(runCmd)
}

func addRunFlags(cmd *cobra.Command) {
	cmd.Flags().Bool("dry-run", false, "Evaluate and print messages without delivering")
	cmd.Flags().String("today", "", "Evaluate as of this date (YYYY-MM-DD)")
}

func runRun(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	dryRun, _ := cmd.Flags().GetBool("dry-run")
	todayFlag, _ := cmd.Flags().GetString("today")

	if err := cfg.Validate(!dryRun); err != nil {
		return err
	}

	today, err := resolveToday(cfg, todayFlag)
	if err != nil {
		return err
	}

	logger := newLogger(cfg)

	store, err := initStorage(cmd.Context(), cfg)
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}
	defer store.Close()

	var gateway reminder.Gateway
	if !dryRun {
		gateway = initGateway(cfg)
	}

	engine := reminder.NewEngine(store, gateway, initReporters(cfg), reminder.Options{
		Delay:  cfg.DispatchDelay(),
		Header: cfg.Dispatch.Header,
		DryRun: dryRun,
	}, logger)

	result, err := engine.Run(cmd.Context(), today)
	if err != nil {
		return fmt.Errorf("reminder run: %w", err)
	}

	if dryRun {
		printBatches(cfg, result.Batches)
	}
	return nil
}

func printBatches(cfg *config.Config, batches map[string][]string) {
	if len(batches) == 0 {
		fmt.Println("No reminders due.")
		return
	}

	ids := make([]string, 0, len(batches))
	for id := range batches {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	header := cfg.Dispatch.Header
	if header == "" {
		header = reminder.DefaultHeader
	}
	for _, id := range ids {
		fmt.Fprintf(os.Stdout, "=== %s ===\n%s\n\n", id, reminder.Compose(header, batches[id]))
	}
}
