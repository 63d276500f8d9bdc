package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/faceattend/faceattend/internal/config"
	"github.com/faceattend/faceattend/internal/database/mariadb"
	"github.com/faceattend/faceattend/internal/directory"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Sync users from the HR directory",
	Long: `Mirror active people from the company HR directory into the
attendance store, so enrollment ids and display names stay aligned with
the system of record.`,
	RunE: runSync,
}

func init() {
	rootCmd.AddCommand(syncCmd)

	syncCmd.Flags().Bool("json", false, "Output results as JSON")
}

// syncResult is the JSON shape of a directory sync run.
type syncResult struct {
	Synced     int `json:"synced"`
	Skipped    int `json:"skipped"`
	Duplicates int `json:"duplicates"`
}

func runSync(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	jsonOutput := mustGetBool(cmd, "json")

	if cfg.Directory.DatabaseURL == "" {
		return errors.New("DIRECTORY_DATABASE_URL environment variable is required")
	}

	pool, err := mariadb.NewPool(cfg.Directory.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to the HR directory: %w", err)
	}
	defer func() { _ = pool.Close() }()

	ctx := context.Background()
	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	var bar *progressbar.ProgressBar
	if !jsonOutput {
		bar = progressbar.NewOptions(-1,
			progressbar.OptionSetDescription("Syncing directory"),
			progressbar.OptionShowCount(),
			progressbar.OptionShowIts(),
			progressbar.OptionSetItsString("people"),
			progressbar.OptionShowElapsedTimeOnFinish(),
		)
	}

	syncer := &directory.Syncer{
		People: pool,
		Store:  store,
		OnPerson: func(person mariadb.Person) {
			if bar != nil {
				_ = bar.Add(1)
			}
		},
	}
	result, err := syncer.Sync(ctx)
	if err != nil {
		return fmt.Errorf("directory sync failed: %w", err)
	}
	if bar != nil {
		_ = bar.Finish()
	}

	if jsonOutput {
		return outputJSON(syncResult{
			Synced:     result.Synced,
			Skipped:    result.Skipped,
			Duplicates: result.Duplicates,
		})
	}

	fmt.Printf("\nSynced %d person(s)", result.Synced)
	if result.Skipped > 0 {
		fmt.Printf(", skipped %d", result.Skipped)
	}
	if result.Duplicates > 0 {
		fmt.Printf(", flagged %d duplicate name(s)", result.Duplicates)
	}
	fmt.Println()
	return nil
}

// outputJSON writes data to stdout as indented JSON.
func outputJSON(data any) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(data); err != nil {
		return fmt.Errorf("encoding JSON output: %w", err)
	}
	return nil
}
