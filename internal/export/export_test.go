package export

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/faceattend/faceattend/internal/database"
	"github.com/faceattend/faceattend/internal/database/mock"
)

func TestParsePeriod(t *testing.T) {
	tests := []struct {
		raw     string
		want    Period
		wantErr bool
	}{
		{"daily", PeriodDaily, false},
		{"", PeriodDaily, false},
		{"  WEEKLY ", PeriodWeekly, false},
		{"Monthly", PeriodMonthly, false},
		{"yearly", "", true},
	}

	for _, tt := range tests {
		got, err := ParsePeriod(tt.raw)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParsePeriod(%q) expected error", tt.raw)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParsePeriod(%q) failed: %v", tt.raw, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParsePeriod(%q) = %s, want %s", tt.raw, got, tt.want)
		}
	}
}

func TestWindowStart(t *testing.T) {
	// 2026-03-18 is a Wednesday, 2026-03-22 a Sunday, 2026-03-16 a Monday.
	wednesday := time.Date(2026, 3, 18, 15, 4, 5, 0, time.UTC)
	sunday := time.Date(2026, 3, 22, 8, 0, 0, 0, time.UTC)
	monday := time.Date(2026, 3, 16, 23, 59, 59, 0, time.UTC)

	tests := []struct {
		name   string
		period Period
		now    time.Time
		want   time.Time
	}{
		{"DailyMidweek", PeriodDaily, wednesday, time.Date(2026, 3, 18, 0, 0, 0, 0, time.UTC)},
		{"WeeklyMidweek", PeriodWeekly, wednesday, time.Date(2026, 3, 16, 0, 0, 0, 0, time.UTC)},
		{"WeeklyOnSunday", PeriodWeekly, sunday, time.Date(2026, 3, 16, 0, 0, 0, 0, time.UTC)},
		{"WeeklyOnMonday", PeriodWeekly, monday, time.Date(2026, 3, 16, 0, 0, 0, 0, time.UTC)},
		{"Monthly", PeriodMonthly, wednesday, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := WindowStart(tt.period, tt.now); !got.Equal(tt.want) {
				t.Errorf("WindowStart(%s, %v) = %v, want %v", tt.period, tt.now, got, tt.want)
			}
		})
	}
}

func TestReporterWriteCSV(t *testing.T) {
	store := mock.NewStore()
	seed := func(userID int, name, ts, date, tod string) {
		store.SeedEvent(database.AttendanceEvent{UserID: userID, Name: name, TS: ts, Date: date, Time: tod})
	}
	// One event the week before, two inside the current week, out of order.
	seed(1, "Ana", "2026-03-13 09:00:00", "2026-03-13", "09:00:00")
	seed(2, "Ben", "2026-03-17 10:30:00", "2026-03-17", "10:30:00")
	seed(1, "Ana", "2026-03-16 08:15:00", "2026-03-16", "08:15:00")

	now := time.Date(2026, 3, 18, 12, 0, 0, 0, time.UTC)

	var rows int
	reporter := &Reporter{
		Store: store,
		OnRow: func(database.AttendanceEvent) { rows++ },
	}

	var buf bytes.Buffer
	n, err := reporter.WriteCSV(context.Background(), PeriodWeekly, now, &buf)
	if err != nil {
		t.Fatalf("WriteCSV failed: %v", err)
	}
	if n != 2 || rows != 2 {
		t.Errorf("wrote %d rows (callback saw %d), want 2", n, rows)
	}

	want := "Id,Name,Date,Time\n" +
		"1,Ana,2026-03-16,08:15:00\n" +
		"2,Ben,2026-03-17,10:30:00\n"
	if got := buf.String(); got != want {
		t.Errorf("csv output = %q, want %q", got, want)
	}
}

func TestReporterEmptyWindow(t *testing.T) {
	reporter := &Reporter{Store: mock.NewStore()}

	var buf bytes.Buffer
	n, err := reporter.WriteCSV(context.Background(), PeriodDaily, time.Now(), &buf)
	if err != nil {
		t.Fatalf("WriteCSV failed: %v", err)
	}
	if n != 0 {
		t.Errorf("wrote %d rows, want 0", n)
	}
	if got := buf.String(); got != "Id,Name,Date,Time\n" {
		t.Errorf("csv output = %q, want header only", got)
	}
}

func TestFilename(t *testing.T) {
	now := time.Date(2026, 3, 18, 12, 0, 0, 0, time.UTC)
	if got := Filename(PeriodWeekly, now); got != "attendance_weekly_2026-03-18.csv" {
		t.Errorf("Filename = %q", got)
	}
}
