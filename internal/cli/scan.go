package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ogulcanaydogan/credit-reminder/pkg/model"
	"github.com/ogulcanaydogan/credit-reminder/pkg/reminder"
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "List every discovered credit and its reminder tier",
	Long:  `Run discovery and evaluation and print a table of findings. Nothing is delivered.`,
	Args:  cobra.NoArgs,
	RunE:  runScan,
}

func init() {
	rootCmd.AddCommand(scanCmd)
	scanCmd.Flags().String("today", "", "Evaluate as of this date (YYYY-MM-DD)")
	scanCmd.Flags().Bool("due", false, "Show only credits that produce a reminder")
}

func runScan(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := cfg.Validate(false); err != nil {
		return err
	}

	todayFlag, _ := cmd.Flags().GetString("today")
	dueOnly, _ := cmd.Flags().GetBool("due")

	today, err := resolveToday(cfg, todayFlag)
	if err != nil {
		return err
	}

	store, err := initStorage(cmd.Context(), cfg)
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}
	defer store.Close()

	engine := reminder.NewEngine(store, nil, nil, reminder.Options{DryRun: true}, newLogger(cfg))
	evals, err := engine.Scan(cmd.Context(), today)
	if err != nil {
		return fmt.Errorf("scan: %w", err)
	}

	fmt.Printf("=== Credits as of %s ===\n\n", today.Format(model.DateLayout))

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "RECIPIENT\tOWNER\tCREDIT\tBANK\tAMOUNT\tDEADLINE\tVIA\tTIER\n")
	shown := 0
	for _, ev := range evals {
		if dueOnly && !ev.Alerted {
			continue
		}
		tier := "-"
		if ev.Alerted {
			tier = string(ev.Alert.Tier)
		}
		c := ev.Finding.Credit
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			ev.Finding.Recipient.ID, c.OwnerID, c.ID, c.Bank,
			reminder.FormatAmount(c.Amount), c.Deadline,
			ev.Finding.Strategy, tier,
		)
		shown++
	}
	w.Flush()

	fmt.Printf("\n%d credit(s)\n", shown)
	return nil
}
