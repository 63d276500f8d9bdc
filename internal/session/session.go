// Package session runs attendance capture sessions. A session drives the
// frame loop against one recognizer source, stabilizes noisy matches, writes
// accepted identities to the attendance store, and fans out status and log
// events to any number of observers.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/faceattend/faceattend/internal/constants"
)

// State represents the lifecycle state of a capture session.
type State string

// State constants define the lifecycle of a capture session.
const (
	StateIdle      State = "idle"
	StateRunning   State = "running"
	StateCompleted State = "completed"
	StateAborted   State = "aborted"
)

// Terminal reports whether the state is final.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateAborted
}

// Event represents one notification from a capture session. Status events
// carry a human-readable message; log events carry a LogEntry in Data.
type Event struct {
	Type    string `json:"type"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// LogEntry records one successful attendance insert made during a session.
type LogEntry struct {
	UserID int    `json:"user_id"`
	Name   string `json:"name"`
	Time   string `json:"time"`
}

// Session represents one capture run on a single frame source. The capture
// loop is the only writer; observers read through Snapshot, GetState, and
// the event listener channels.
type Session struct {
	EventBroadcaster

	ID         string     `json:"id"`
	Source     string     `json:"source"`
	State      State      `json:"state"`
	LastStatus string     `json:"last_status,omitempty"`
	Logged     []LogEntry `json:"logged"`
	Error      string     `json:"error,omitempty"`
	StartedAt  time.Time  `json:"started_at"`
	EndedAt    *time.Time `json:"ended_at,omitempty"`

	done chan struct{}
}

func newSession(id, source string) *Session {
	return &Session{
		ID:        id,
		Source:    source,
		State:     StateIdle,
		StartedAt: time.Now(),
		done:      make(chan struct{}),
	}
}

// GetState returns the current lifecycle state.
func (s *Session) GetState() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.State
}

// Snapshot returns a copy of the session that is safe to marshal while the
// capture loop keeps writing.
func (s *Session) Snapshot() Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := Session{
		ID:         s.ID,
		Source:     s.Source,
		State:      s.State,
		LastStatus: s.LastStatus,
		Logged:     append([]LogEntry(nil), s.Logged...),
		Error:      s.Error,
		StartedAt:  s.StartedAt,
	}
	if s.EndedAt != nil {
		ended := *s.EndedAt
		snap.EndedAt = &ended
	}
	return snap
}

// Stop asks the capture loop to end early, the service equivalent of the
// operator pressing a key at the kiosk. Safe to call at any time, including
// after the session finished.
func (s *Session) Stop() {
	s.EventBroadcaster.Cancel()
}

// Done returns a channel that is closed once the session reaches a terminal
// state.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// setStatus updates the last status line and broadcasts it.
func (s *Session) setStatus(message string) {
	s.mu.Lock()
	s.LastStatus = message
	s.mu.Unlock()
	s.SendEvent(Event{Type: "status", Message: message})
}

// addLog records a successful attendance insert and broadcasts it. The
// capture loop calls this exactly once per inserted event.
func (s *Session) addLog(entry LogEntry) {
	s.mu.Lock()
	s.Logged = append(s.Logged, entry)
	s.mu.Unlock()
	s.SendEvent(Event{Type: "log", Data: entry})
}

func (s *Session) setRunning() {
	s.mu.Lock()
	s.State = StateRunning
	s.mu.Unlock()
	s.SendEvent(Event{Type: string(StateRunning)})
}

// finish moves the session into a terminal state. Called once, by the
// capture loop, on every exit path.
func (s *Session) finish(state State, err error) {
	now := time.Now()
	s.mu.Lock()
	s.State = state
	s.EndedAt = &now
	if err != nil {
		s.Error = err.Error()
	}
	s.mu.Unlock()
	s.SendEvent(Event{Type: string(state)})
	close(s.done)
}

// EventBroadcaster provides listener management and event fan-out for a
// capture session. Embed this in session structs to get AddListener,
// RemoveListener, and SendEvent methods.
type EventBroadcaster struct {
	cancel    context.CancelFunc
	listeners []chan Event
	mu        sync.RWMutex
}

// AddListener adds an event listener.
func (b *EventBroadcaster) AddListener() chan Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	ch := make(chan Event, constants.EventChannelBuffer)
	b.listeners = append(b.listeners, ch)
	return ch
}

// RemoveListener removes an event listener and closes its channel.
func (b *EventBroadcaster) RemoveListener(ch chan Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, listener := range b.listeners {
		if listener == ch {
			b.listeners = append(b.listeners[:i], b.listeners[i+1:]...)
			close(ch)
			return
		}
	}
}

// SendEvent sends an event to all listeners.
func (b *EventBroadcaster) SendEvent(event Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, listener := range b.listeners {
		select {
		case listener <- event:
		default:
			// Listener buffer full, skip.
		}
	}
}

// Cancel signals the capture loop to stop. The loop emits its own status
// lines on the way out, so no event is sent here.
func (b *EventBroadcaster) Cancel() {
	b.mu.RLock()
	cancel := b.cancel
	b.mu.RUnlock()
	if cancel != nil {
		cancel()
	}
}

func (b *EventBroadcaster) setCancel(cancel context.CancelFunc) {
	b.mu.Lock()
	b.cancel = cancel
	b.mu.Unlock()
}
