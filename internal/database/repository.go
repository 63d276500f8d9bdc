package database

import (
	"context"
	"errors"
	"strings"
	"time"
)

// Sentinel errors shared by all backends. Callers match with errors.Is.
var (
	ErrUserNotFound    = errors.New("user not found")
	ErrRequestNotFound = errors.New("request not found")
	ErrEmptyName       = errors.New("name cannot be empty")
	ErrEmptyContact    = errors.New("contact cannot be empty")
	ErrEmptyMessage    = errors.New("message cannot be empty")
	ErrEmptyStatus     = errors.New("status cannot be empty")
)

// UserStore manages enrolled identities.
type UserStore interface {
	// UpsertUser creates or renames a user. The name is trimmed; an empty
	// result is rejected with ErrEmptyName.
	UpsertUser(ctx context.Context, id int, name string) error
	// DeleteUser removes a user from future recognition. Historical
	// attendance rows are untouched. Unknown ids yield ErrUserNotFound.
	DeleteUser(ctx context.Context, id int) error
	// ListUsers returns all users ordered by id.
	ListUsers(ctx context.Context) ([]User, error)
	// UserMap returns id -> name for every enrolled user. The session loop
	// uses it as the known-identity set.
	UserMap(ctx context.Context) (map[int]string, error)
}

// AttendanceStore is the append-only attendance ledger.
type AttendanceStore interface {
	// LogAttendance atomically applies the suppression rules against the
	// most recent prior event for the user and inserts a new event when
	// they allow it. The check-then-insert sequence is serialized per
	// identity by each backend; suppression is a normal outcome, not an
	// error. See ShouldLog for the rules.
	LogAttendance(ctx context.Context, userID int, name string, now time.Time, policy LogPolicy) (LogResult, error)
	// LastEvent returns the most recent event for the user, or nil.
	LastEvent(ctx context.Context, userID int) (*AttendanceEvent, error)
	// EventsSince returns events with ts >= start, ascending by ts.
	EventsSince(ctx context.Context, start time.Time) ([]AttendanceEvent, error)
	// ImportEvent inserts a historical event verbatim, bypassing the
	// suppression rules. The CSV migration uses it; duplicate (user, ts)
	// pairs are silently ignored.
	ImportEvent(ctx context.Context, event AttendanceEvent) error
}

// RequestStore manages enrollment requests.
type RequestStore interface {
	// AddRequest records a pending request. All three fields are trimmed
	// and required.
	AddRequest(ctx context.Context, name, contact, message string, now time.Time) (int64, error)
	// ListRequests returns all requests ordered by id.
	ListRequests(ctx context.Context) ([]EnrollmentRequest, error)
	// UpdateRequestStatus sets the status of one request. Unknown ids
	// yield ErrRequestNotFound, empty statuses ErrEmptyStatus.
	UpdateRequestStatus(ctx context.Context, id int64, status string) error
}

// TemplateStore holds opaque face-template vectors for enrolled users and
// answers similarity queries for the duplicate-enrollment check. Only
// backends with vector support implement it; callers type-assert.
type TemplateStore interface {
	SaveTemplate(ctx context.Context, userID int, template []float32) error
	// SimilarTemplates returns enrolled users whose template is within
	// maxDistance (cosine) of the given one, nearest first.
	SimilarTemplates(ctx context.Context, template []float32, limit int, maxDistance float64) ([]TemplateMatch, error)
}

// Store is the full backend surface used by the CLI and web server.
type Store interface {
	UserStore
	AttendanceStore
	RequestStore
	Close() error
}

// CleanName trims a display name and rejects empty results.
func CleanName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ErrEmptyName
	}
	return name, nil
}

// CleanRequest validates the three enrollment-request fields.
func CleanRequest(name, contact, message string) (string, string, string, error) {
	name = strings.TrimSpace(name)
	contact = strings.TrimSpace(contact)
	message = strings.TrimSpace(message)
	switch {
	case name == "":
		return "", "", "", ErrEmptyName
	case contact == "":
		return "", "", "", ErrEmptyContact
	case message == "":
		return "", "", "", ErrEmptyMessage
	}
	return name, contact, message, nil
}

// CleanStatus validates a request status update.
func CleanStatus(status string) (string, error) {
	status = strings.TrimSpace(status)
	if status == "" {
		return "", ErrEmptyStatus
	}
	return status, nil
}
