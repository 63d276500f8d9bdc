// Package database defines the storage model for the attendance system and
// the repository interfaces implemented by the sqlite, postgres and mock
// backends. Shared policy logic (duplicate suppression) lives here so every
// backend enforces identical rules inside its own critical section.
package database

import "time"

// Timestamp layouts used in stored rows. Timestamps are persisted as TEXT in
// the local timezone; historical rows are treated as opaque point-in-time
// facts and may predate the current schema (or be hand-edited), which is why
// readers must tolerate unparsable values.
const (
	TimestampLayout = "2006-01-02 15:04:05"
	DateLayout      = "2006-01-02"
	TimeLayout      = "15:04:05"
)

// User is an enrolled identity: a stable numeric id and a display name.
// Deleting a user removes it from future recognition but never touches
// historical attendance rows, which keep the name captured at log time.
type User struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// AttendanceEvent is one accepted attendance log. Append-only: events are
// never mutated or deleted by this system.
type AttendanceEvent struct {
	ID     int64  `json:"id"`
	UserID int    `json:"user_id"`
	Name   string `json:"name"` // snapshot of the user's name at log time
	TS     string `json:"ts"`   // TimestampLayout, stored verbatim
	Date   string `json:"date"` // DateLayout
	Time   string `json:"time"` // TimeLayout
}

// When parses the event's stored timestamp. The bool reports whether the
// stored text was parsable; callers that hit false must fail open.
func (e *AttendanceEvent) When() (time.Time, bool) {
	t, err := time.ParseInLocation(TimestampLayout, e.TS, time.Local)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// EnrollmentRequest is a visitor's ask to be enrolled, reviewed by an admin.
type EnrollmentRequest struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Contact   string `json:"contact"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"` // TimestampLayout
	Status    string `json:"status"`
}

// Request statuses written by this system. The column is free-form text, so
// historical rows may carry other values.
const (
	RequestPending  = "Pending"
	RequestApproved = "Approved"
	RequestRejected = "Rejected"
)

// TemplateMatch is one hit from a face-template similarity query, used by
// the duplicate-enrollment check. Distance is cosine distance (lower is
// more similar).
type TemplateMatch struct {
	UserID   int     `json:"user_id"`
	Name     string  `json:"name"`
	Distance float64 `json:"distance"`
}
