package session

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// ErrSourceBusy is returned when a capture session is already running on
// the requested frame source.
var ErrSourceBusy = errors.New("a session is already running on this source")

// Manager tracks capture sessions and enforces one active session per
// frame source.
type Manager struct {
	controller *Controller
	sessions   map[string]*Session
	mu         sync.RWMutex
}

// NewManager creates a session manager.
func NewManager(controller *Controller) *Manager {
	return &Manager{
		controller: controller,
		sessions:   make(map[string]*Session),
	}
}

// Start verifies the capture prerequisites, registers a new session, and
// launches its capture loop in the background. The frame source belongs
// exclusively to the session until it reaches a terminal state; starting a
// second session on the same source fails with ErrSourceBusy.
func (m *Manager) Start(ctx context.Context, source string, params Params) (*Session, error) {
	if err := m.controller.Preflight(ctx, params); err != nil {
		return nil, err
	}

	m.mu.Lock()
	for _, sess := range m.sessions {
		if sess.Source == source && !sess.GetState().Terminal() {
			m.mu.Unlock()
			return nil, fmt.Errorf("%w: %s", ErrSourceBusy, source)
		}
	}
	sess := newSession(uuid.New().String(), source)
	// The loop runs detached from the caller's context: a session started
	// over HTTP must outlive the request that started it.
	runCtx, cancel := context.WithCancel(context.Background())
	sess.setCancel(cancel)
	m.sessions[sess.ID] = sess
	m.mu.Unlock()

	go func() {
		defer cancel()
		m.controller.Run(runCtx, sess, params)
	}()

	return sess, nil
}

// Get retrieves a session by id. Returns nil when the id is unknown.
func (m *Manager) Get(id string) *Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sessions[id]
}

// List returns all known sessions, oldest first.
func (m *Manager) List() []*Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, sess := range m.sessions {
		sessions = append(sessions, sess)
	}
	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].StartedAt.Before(sessions[j].StartedAt)
	})
	return sessions
}

// Delete removes a finished session from the registry. Sessions that are
// still running are kept, so the per-source exclusivity check can see them.
func (m *Manager) Delete(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, ok := m.sessions[id]
	if !ok || !sess.GetState().Terminal() {
		return false
	}
	delete(m.sessions, id)
	return true
}
