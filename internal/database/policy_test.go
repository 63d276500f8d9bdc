package database

import (
	"testing"
	"time"
)

func eventAt(t *testing.T, ts string) *AttendanceEvent {
	t.Helper()
	at, err := time.ParseInLocation(TimestampLayout, ts, time.Local)
	if err != nil {
		t.Fatalf("bad test timestamp %q: %v", ts, err)
	}
	e := NewEvent(1, "Ana", at)
	return &e
}

func localTime(t *testing.T, ts string) time.Time {
	t.Helper()
	at, err := time.ParseInLocation(TimestampLayout, ts, time.Local)
	if err != nil {
		t.Fatalf("bad test timestamp %q: %v", ts, err)
	}
	return at
}

func TestShouldLogRules(t *testing.T) {
	tests := []struct {
		name    string
		prior   *AttendanceEvent
		now     string
		policy  LogPolicy
		allow   bool
		corrupt bool
	}{
		{
			name:   "no prior event always logs",
			prior:  nil,
			now:    "2024-03-11 09:00:00",
			policy: LogPolicy{MinMinutesBetween: 10, OnePerDay: true},
			allow:  true,
		},
		{
			name:   "same day suppressed by one-per-day",
			prior:  eventAt(t, "2024-03-11 08:00:00"),
			now:    "2024-03-11 17:30:00",
			policy: LogPolicy{OnePerDay: true},
			allow:  false,
		},
		{
			name:   "one-per-day wins over a satisfied minutes rule",
			prior:  eventAt(t, "2024-03-11 08:00:00"),
			now:    "2024-03-11 17:30:00",
			policy: LogPolicy{MinMinutesBetween: 10, OnePerDay: true},
			allow:  false,
		},
		{
			name:   "next day allowed under one-per-day",
			prior:  eventAt(t, "2024-03-11 08:00:00"),
			now:    "2024-03-12 08:00:00",
			policy: LogPolicy{OnePerDay: true},
			allow:  true,
		},
		{
			name:   "five minutes later suppressed by ten-minute rule",
			prior:  eventAt(t, "2024-03-11 09:00:00"),
			now:    "2024-03-11 09:05:00",
			policy: LogPolicy{MinMinutesBetween: 10},
			allow:  false,
		},
		{
			name:   "eleven minutes later allowed by ten-minute rule",
			prior:  eventAt(t, "2024-03-11 09:00:00"),
			now:    "2024-03-11 09:11:00",
			policy: LogPolicy{MinMinutesBetween: 10},
			allow:  true,
		},
		{
			name:   "exactly at the interval allowed",
			prior:  eventAt(t, "2024-03-11 09:00:00"),
			now:    "2024-03-11 09:10:00",
			policy: LogPolicy{MinMinutesBetween: 10},
			allow:  true,
		},
		{
			name:   "zero minutes disables the interval rule",
			prior:  eventAt(t, "2024-03-11 09:00:00"),
			now:    "2024-03-11 09:00:01",
			policy: LogPolicy{MinMinutesBetween: 0},
			allow:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			allow, corrupt := ShouldLog(tt.prior, localTime(t, tt.now), tt.policy)
			if allow != tt.allow {
				t.Errorf("allow = %v, want %v", allow, tt.allow)
			}
			if corrupt != tt.corrupt {
				t.Errorf("corrupt = %v, want %v", corrupt, tt.corrupt)
			}
		})
	}
}

func TestShouldLogCorruptTimestampFailsOpen(t *testing.T) {
	prior := &AttendanceEvent{
		UserID: 1,
		Name:   "Ana",
		TS:     "not-a-timestamp",
		Date:   "2024-03-10", // different day so one-per-day does not apply
		Time:   "09:00:00",
	}

	allow, corrupt := ShouldLog(prior, localTime(t, "2024-03-11 09:00:01"), LogPolicy{MinMinutesBetween: 60})
	if !allow {
		t.Fatal("corrupt prior timestamp must fail open and allow the log")
	}
	if !corrupt {
		t.Fatal("corrupt prior timestamp should be reported for warning logs")
	}
}

func TestShouldLogCorruptTimestampStillBlocksSameDay(t *testing.T) {
	// The one-per-day rule works off the stored date string and is not
	// affected by a corrupt ts column.
	prior := &AttendanceEvent{
		UserID: 1,
		Name:   "Ana",
		TS:     "garbage",
		Date:   "2024-03-11",
		Time:   "09:00:00",
	}

	allow, _ := ShouldLog(prior, localTime(t, "2024-03-11 12:00:00"), LogPolicy{OnePerDay: true})
	if allow {
		t.Fatal("same stored date must suppress even when ts is corrupt")
	}
}

func TestNewEventFormats(t *testing.T) {
	at := localTime(t, "2024-03-11 09:05:07")
	e := NewEvent(3, "Maya", at)

	if e.TS != "2024-03-11 09:05:07" {
		t.Errorf("TS = %q", e.TS)
	}
	if e.Date != "2024-03-11" {
		t.Errorf("Date = %q", e.Date)
	}
	if e.Time != "09:05:07" {
		t.Errorf("Time = %q", e.Time)
	}
	if when, ok := e.When(); !ok || !when.Equal(at) {
		t.Errorf("When() = (%v, %v), want (%v, true)", when, ok, at)
	}
}
