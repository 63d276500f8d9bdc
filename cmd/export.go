package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/faceattend/faceattend/internal/config"
	"github.com/faceattend/faceattend/internal/database"
	"github.com/faceattend/faceattend/internal/export"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export attendance to CSV",
	Long: `Export attendance events to a CSV file with Id,Name,Date,Time columns.
The period picks the reporting window: daily (today), weekly (since Monday),
or monthly (since the 1st).`,
	RunE: runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().String("period", "daily", "Reporting window: daily, weekly, monthly")
	exportCmd.Flags().String("output", "", "Output file (defaults to attendance_<period>_<date>.csv)")
}

func runExport(cmd *cobra.Command, args []string) error {
	cfg := config.Load()

	period, err := export.ParsePeriod(mustGetString(cmd, "period"))
	if err != nil {
		return err
	}

	now := time.Now()
	output := mustGetString(cmd, "output")
	if output == "" {
		output = export.Filename(period, now)
	}

	ctx := context.Background()
	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	file, err := os.Create(output)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", output, err)
	}

	bar := progressbar.NewOptions(-1,
		progressbar.OptionSetDescription("Exporting attendance"),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("events"),
		progressbar.OptionShowElapsedTimeOnFinish(),
	)

	reporter := &export.Reporter{
		Store: store,
		OnRow: func(event database.AttendanceEvent) {
			_ = bar.Add(1)
		},
	}
	rows, err := reporter.WriteCSV(ctx, period, now, file)
	if err != nil {
		_ = file.Close()
		return fmt.Errorf("failed to export attendance: %w", err)
	}
	_ = bar.Finish()

	if err := file.Close(); err != nil {
		return fmt.Errorf("failed to write %s: %w", output, err)
	}

	fmt.Printf("\nExported %d event(s) to %s\n", rows, output)
	return nil
}
