// Package mock provides an in-memory database.Store for testing. Behavior
// matches the real backends, including the full suppression policy, so
// session and handler tests exercise real ledger semantics. Every operation
// has an error-injection field.
package mock

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/faceattend/faceattend/internal/database"
)

// Store is an in-memory implementation of database.Store.
type Store struct {
	mu       sync.RWMutex
	users    map[int]string
	events   []database.AttendanceEvent
	requests []database.EnrollmentRequest

	nextEventID   int64
	nextRequestID int64

	// Error injection
	UpsertUserError          error
	DeleteUserError          error
	ListUsersError           error
	UserMapError             error
	LogAttendanceError       error
	LastEventError           error
	EventsSinceError         error
	ImportEventError         error
	AddRequestError          error
	ListRequestsError        error
	UpdateRequestStatusError error
}

// NewStore creates an empty mock store.
func NewStore() *Store {
	return &Store{users: make(map[int]string)}
}

// SeedEvent inserts an attendance row verbatim, bypassing policy. Tests use
// it to plant historical rows, including rows with broken timestamps.
func (m *Store) SeedEvent(e database.AttendanceEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextEventID++
	e.ID = m.nextEventID
	m.events = append(m.events, e)
}

// UpsertUser creates or renames a user.
func (m *Store) UpsertUser(ctx context.Context, id int, name string) error {
	if m.UpsertUserError != nil {
		return m.UpsertUserError
	}
	name, err := database.CleanName(name)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[id] = name
	return nil
}

// DeleteUser removes a user; attendance rows stay.
func (m *Store) DeleteUser(ctx context.Context, id int) error {
	if m.DeleteUserError != nil {
		return m.DeleteUserError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[id]; !ok {
		return database.ErrUserNotFound
	}
	delete(m.users, id)
	return nil
}

// ListUsers returns all users ordered by id.
func (m *Store) ListUsers(ctx context.Context) ([]database.User, error) {
	if m.ListUsersError != nil {
		return nil, m.ListUsersError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	users := make([]database.User, 0, len(m.users))
	for id, name := range m.users {
		users = append(users, database.User{ID: id, Name: name})
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users, nil
}

// UserMap returns a copy of the id -> name map.
func (m *Store) UserMap(ctx context.Context) (map[int]string, error) {
	if m.UserMapError != nil {
		return nil, m.UserMapError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[int]string, len(m.users))
	for id, name := range m.users {
		out[id] = name
	}
	return out, nil
}

// LogAttendance applies the suppression policy under the store lock, which
// serializes check-then-insert just like the real backends.
func (m *Store) LogAttendance(ctx context.Context, userID int, name string, now time.Time, policy database.LogPolicy) (database.LogResult, error) {
	if m.LogAttendanceError != nil {
		return database.LogResult{}, m.LogAttendanceError
	}

	result := database.LogResult{TimeOfDay: now.Format(database.TimeLayout)}

	m.mu.Lock()
	defer m.mu.Unlock()

	prior := m.lastEventLocked(userID)
	allow, _ := database.ShouldLog(prior, now, policy)
	if !allow {
		return result, nil
	}

	event := database.NewEvent(userID, name, now)
	for _, e := range m.events {
		if e.UserID == userID && e.TS == event.TS {
			return result, nil
		}
	}

	m.nextEventID++
	event.ID = m.nextEventID
	m.events = append(m.events, event)
	result.Logged = true
	return result, nil
}

// ImportEvent inserts a historical event verbatim, skipping duplicate
// (user, ts) pairs like the real backends do.
func (m *Store) ImportEvent(ctx context.Context, event database.AttendanceEvent) error {
	if m.ImportEventError != nil {
		return m.ImportEventError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.events {
		if e.UserID == event.UserID && e.TS == event.TS {
			return nil
		}
	}
	m.nextEventID++
	event.ID = m.nextEventID
	m.events = append(m.events, event)
	return nil
}

// LastEvent returns the most recent event for the user, or nil.
func (m *Store) LastEvent(ctx context.Context, userID int) (*database.AttendanceEvent, error) {
	if m.LastEventError != nil {
		return nil, m.LastEventError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastEventLocked(userID), nil
}

func (m *Store) lastEventLocked(userID int) *database.AttendanceEvent {
	var last *database.AttendanceEvent
	for i := range m.events {
		e := &m.events[i]
		if e.UserID != userID {
			continue
		}
		if last == nil || e.TS > last.TS || (e.TS == last.TS && e.ID > last.ID) {
			last = e
		}
	}
	if last == nil {
		return nil
	}
	out := *last
	return &out
}

// EventsSince returns events with ts >= start, ascending.
func (m *Store) EventsSince(ctx context.Context, start time.Time) ([]database.AttendanceEvent, error) {
	if m.EventsSinceError != nil {
		return nil, m.EventsSinceError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	cutoff := start.Format(database.TimestampLayout)
	var out []database.AttendanceEvent
	for _, e := range m.events {
		if e.TS >= cutoff {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].TS != out[j].TS {
			return out[i].TS < out[j].TS
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// AddRequest records a pending enrollment request.
func (m *Store) AddRequest(ctx context.Context, name, contact, message string, now time.Time) (int64, error) {
	if m.AddRequestError != nil {
		return 0, m.AddRequestError
	}
	name, contact, message, err := database.CleanRequest(name, contact, message)
	if err != nil {
		return 0, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextRequestID++
	m.requests = append(m.requests, database.EnrollmentRequest{
		ID:        m.nextRequestID,
		Name:      name,
		Contact:   contact,
		Message:   message,
		Timestamp: now.Format(database.TimestampLayout),
		Status:    database.RequestPending,
	})
	return m.nextRequestID, nil
}

// ListRequests returns all requests ordered by id.
func (m *Store) ListRequests(ctx context.Context) ([]database.EnrollmentRequest, error) {
	if m.ListRequestsError != nil {
		return nil, m.ListRequestsError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]database.EnrollmentRequest, len(m.requests))
	copy(out, m.requests)
	return out, nil
}

// UpdateRequestStatus sets the status of one request.
func (m *Store) UpdateRequestStatus(ctx context.Context, id int64, status string) error {
	if m.UpdateRequestStatusError != nil {
		return m.UpdateRequestStatusError
	}
	status, err := database.CleanStatus(status)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.requests {
		if m.requests[i].ID == id {
			m.requests[i].Status = status
			return nil
		}
	}
	return database.ErrRequestNotFound
}

// Close is a no-op.
func (m *Store) Close() error { return nil }

// Verify interface compliance.
var _ database.Store = (*Store)(nil)
