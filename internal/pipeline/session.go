package pipeline

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Session holds the progress and last result of one user's pipeline runs.
// It is owned by the caller and passed to every Run; a new run discards the previous state.
type Session struct {
	id        string
	createdAt time.Time
	observer  Observer

	mu        sync.Mutex
	state     State
	running   bool
	history   []Event
	result    *Result
	updatedAt time.Time
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithObserver registers a progress observer.
func WithObserver(observer Observer) SessionOption {
	return func(s *Session) {
		s.observer = observer
	}
}

// NewSession creates an idle session with a random ID.
func NewSession(opts ...SessionOption) *Session {
	now := time.Now().UTC()
	s := &Session{
		id:        uuid.NewString(),
		createdAt: now,
		updatedAt: now,
		state:     StateIdle,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// State returns the current pipeline state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Result returns the result of the last finished run, or nil.
func (s *Session) Result() *Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.result
}

// History returns a copy of the events of the current or last run.
func (s *Session) History() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Event(nil), s.history...)
}

// TryAcquire marks the session as running. It returns false when a run is already in progress.
func (s *Session) TryAcquire() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return false
	}
	s.running = true
	return true
}

// Release clears the running mark set by TryAcquire.
func (s *Session) Release() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running = false
}

// Snapshot is a point-in-time view of a session.
type Snapshot struct {
	ID        string    `json:"id"`
	State     State     `json:"state"`
	Running   bool      `json:"running"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	History   []Event   `json:"history"`
	Result    *Result   `json:"result,omitempty"`
}

// Snapshot returns a consistent copy of the session state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		ID:        s.id,
		State:     s.state,
		Running:   s.running,
		CreatedAt: s.createdAt,
		UpdatedAt: s.updatedAt,
		History:   append([]Event{}, s.history...),
		Result:    s.result,
	}
}

func (s *Session) reset(at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = StateIdle
	s.history = nil
	s.result = nil
	s.updatedAt = at
}

func (s *Session) record(ev Event) {
	s.mu.Lock()
	if ev.Kind == EventTransition {
		s.state = ev.To
	}
	s.history = append(s.history, ev)
	s.updatedAt = ev.At
	observer := s.observer
	s.mu.Unlock()

	if observer != nil {
		observer(ev)
	}
}

func (s *Session) finish(result *Result) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.result = result
	s.updatedAt = result.FinishedAt
}
