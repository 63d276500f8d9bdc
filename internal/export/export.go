// Package export renders attendance events as CSV reports over daily,
// weekly, or monthly windows.
package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/faceattend/faceattend/internal/database"
)

// Period selects the reporting window of an export.
type Period string

// Periods supported by attendance exports.
const (
	PeriodDaily   Period = "daily"
	PeriodWeekly  Period = "weekly"
	PeriodMonthly Period = "monthly"
)

// ParsePeriod normalizes a period name. Matching is case-insensitive and an
// empty value defaults to daily.
func ParsePeriod(raw string) (Period, error) {
	switch Period(strings.ToLower(strings.TrimSpace(raw))) {
	case "", PeriodDaily:
		return PeriodDaily, nil
	case PeriodWeekly:
		return PeriodWeekly, nil
	case PeriodMonthly:
		return PeriodMonthly, nil
	}
	return "", fmt.Errorf("period must be one of: daily, weekly, monthly")
}

// WindowStart returns the inclusive start of the reporting window: today
// 00:00 for daily, the most recent Monday 00:00 for weekly, the first of
// the current month 00:00 for monthly.
func WindowStart(period Period, now time.Time) time.Time {
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	switch period {
	case PeriodWeekly:
		// time.Weekday counts Sunday as 0; shift so the week starts Monday.
		offset := (int(now.Weekday()) + 6) % 7
		return midnight.AddDate(0, 0, -offset)
	case PeriodMonthly:
		return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	default:
		return midnight
	}
}

// Filename suggests a file name for a report generated now.
func Filename(period Period, now time.Time) string {
	return fmt.Sprintf("attendance_%s_%s.csv", period, now.Format(database.DateLayout))
}

// Reporter writes attendance reports from a store.
type Reporter struct {
	Store database.AttendanceStore

	// OnRow, when set, is called once per exported event. The CLI uses it
	// to drive a progress bar.
	OnRow func(event database.AttendanceEvent)
}

// WriteCSV writes all events inside the period's window to w, oldest first,
// with an Id,Name,Date,Time header. It returns the number of data rows
// written.
func (r *Reporter) WriteCSV(ctx context.Context, period Period, now time.Time, w io.Writer) (int, error) {
	events, err := r.Store.EventsSince(ctx, WindowStart(period, now))
	if err != nil {
		return 0, fmt.Errorf("query attendance window: %w", err)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"Id", "Name", "Date", "Time"}); err != nil {
		return 0, fmt.Errorf("write csv header: %w", err)
	}
	for _, event := range events {
		record := []string{strconv.Itoa(event.UserID), event.Name, event.Date, event.Time}
		if err := cw.Write(record); err != nil {
			return 0, fmt.Errorf("write csv row: %w", err)
		}
		if r.OnRow != nil {
			r.OnRow(event)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return 0, fmt.Errorf("flush csv: %w", err)
	}
	return len(events), nil
}
