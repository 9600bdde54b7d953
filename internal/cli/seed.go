package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ogulcanaydogan/credit-reminder/internal/config"
	"github.com/ogulcanaydogan/credit-reminder/pkg/storage"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load a YAML snapshot into the SQLite store",
	Long: `Load users and their credit records from a YAML snapshot into the local SQLite
store. Existing documents with the same ids are replaced.`,
	Example: `  reminder seed --file testdata/store.yaml`,
	Args:    cobra.NoArgs,
	RunE:    runSeed,
}

func init() {
	rootCmd.AddCommand(seedCmd)
	seedCmd.Flags().StringP("file", "f", "", "Snapshot file (required)")
	_ = seedCmd.MarkFlagRequired("file")
}

func runSeed(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.Store.Driver != config.DriverSQLite {
		return fmt.Errorf("seed writes to the sqlite store only (store.driver is %q)", cfg.Store.Driver)
	}
	if err := cfg.Validate(false); err != nil {
		return err
	}

	file, _ := cmd.Flags().GetString("file")
	snap, err := storage.LoadSnapshot(file)
	if err != nil {
		return err
	}

	db, err := storage.NewSQLite(cfg.Store.SQLite.Path)
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}
	defer db.Close()

	accounts, credits, err := snap.Apply(cmd.Context(), db)
	if err != nil {
		return fmt.Errorf("seed: %w", err)
	}

	fmt.Printf("Seeded %d account(s) and %d credit(s) into %s\n", accounts, credits, cfg.Store.SQLite.Path)
	return nil
}
