package cmd

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/faceattend/faceattend/internal/config"
	"github.com/faceattend/faceattend/internal/database"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import legacy CSV data into the store",
	Long: `Import users and attendance history from legacy CSV files. This is a
one-time migration: each file is only imported while its table is still
empty. Malformed rows are skipped and counted, so one bad line cannot sink
a migration.

Users CSV columns:      Id,Name
Attendance CSV columns: Id,Name,Date,Time`,
	RunE: runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)

	importCmd.Flags().String("users", "", "Users CSV file to import")
	importCmd.Flags().String("attendance", "", "Attendance CSV file to import")
}

func runImport(cmd *cobra.Command, args []string) error {
	usersPath := mustGetString(cmd, "users")
	attendancePath := mustGetString(cmd, "attendance")
	if usersPath == "" && attendancePath == "" {
		return errors.New("nothing to import: pass --users and/or --attendance")
	}

	cfg := config.Load()

	ctx := context.Background()
	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	if usersPath != "" {
		if err := importUsers(ctx, store, usersPath); err != nil {
			return err
		}
	}
	if attendancePath != "" {
		if err := importAttendance(ctx, store, attendancePath); err != nil {
			return err
		}
	}
	return nil
}

func importUsers(ctx context.Context, store database.Store, path string) error {
	existing, err := store.ListUsers(ctx)
	if err != nil {
		return fmt.Errorf("failed to check user table: %w", err)
	}
	if len(existing) > 0 {
		return fmt.Errorf("user table already has %d users, refusing to import", len(existing))
	}

	records, err := readCSV(path)
	if err != nil {
		return err
	}

	bar := importBar(len(records), "Importing users", "users")
	var imported, skipped int
	for _, record := range records {
		_ = bar.Add(1)
		id, name, ok := parseUserRecord(record)
		if !ok {
			skipped++
			continue
		}
		if err := store.UpsertUser(ctx, id, name); err != nil {
			slog.Warn("skipping unimportable user row", "id", id, "error", err)
			skipped++
			continue
		}
		imported++
	}
	_ = bar.Finish()

	printImportSummary("user", imported, skipped, path)
	return nil
}

func importAttendance(ctx context.Context, store database.Store, path string) error {
	existing, err := store.EventsSince(ctx, time.Time{})
	if err != nil {
		return fmt.Errorf("failed to check attendance table: %w", err)
	}
	if len(existing) > 0 {
		return fmt.Errorf("attendance table already has %d events, refusing to import", len(existing))
	}

	records, err := readCSV(path)
	if err != nil {
		return err
	}

	bar := importBar(len(records), "Importing attendance", "events")
	var imported, skipped int
	for _, record := range records {
		_ = bar.Add(1)
		event, ok := parseAttendanceRecord(record)
		if !ok {
			skipped++
			continue
		}
		if err := store.ImportEvent(ctx, event); err != nil {
			slog.Warn("skipping unimportable attendance row",
				"user_id", event.UserID, "ts", event.TS, "error", err)
			skipped++
			continue
		}
		imported++
	}
	_ = bar.Finish()

	printImportSummary("attendance event", imported, skipped, path)
	return nil
}

// readCSV loads all records from path and strips the header row if present.
func readCSV(path string) ([][]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer func() { _ = file.Close() }()

	reader := csv.NewReader(file)
	// Ragged rows are validated per record instead of failing the file.
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if len(records) > 0 && looksLikeHeader(records[0]) {
		records = records[1:]
	}
	return records, nil
}

func looksLikeHeader(record []string) bool {
	return len(record) > 0 && strings.EqualFold(strings.TrimSpace(record[0]), "Id")
}

func parseUserRecord(record []string) (int, string, bool) {
	if len(record) < 2 {
		return 0, "", false
	}
	id, err := strconv.Atoi(strings.TrimSpace(record[0]))
	if err != nil || id < 0 {
		return 0, "", false
	}
	name := strings.TrimSpace(record[1])
	if name == "" {
		return 0, "", false
	}
	return id, name, true
}

func parseAttendanceRecord(record []string) (database.AttendanceEvent, bool) {
	if len(record) < 4 {
		return database.AttendanceEvent{}, false
	}
	id, err := strconv.Atoi(strings.TrimSpace(record[0]))
	if err != nil || id < 0 {
		return database.AttendanceEvent{}, false
	}
	name := strings.TrimSpace(record[1])
	date := strings.TrimSpace(record[2])
	timeOfDay := strings.TrimSpace(record[3])
	if name == "" {
		return database.AttendanceEvent{}, false
	}
	if _, err := time.Parse(database.DateLayout, date); err != nil {
		return database.AttendanceEvent{}, false
	}
	if _, err := time.Parse(database.TimeLayout, timeOfDay); err != nil {
		return database.AttendanceEvent{}, false
	}
	return database.AttendanceEvent{
		UserID: id,
		Name:   name,
		TS:     date + " " + timeOfDay,
		Date:   date,
		Time:   timeOfDay,
	}, true
}

func importBar(total int, description, unit string) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetDescription(description),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString(unit),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionFullWidth(),
	)
}

func printImportSummary(noun string, imported, skipped int, path string) {
	fmt.Printf("\nImported %d %s(s) from %s", imported, noun, path)
	if skipped > 0 {
		fmt.Printf(" (%d row(s) skipped)", skipped)
	}
	fmt.Println()
}
