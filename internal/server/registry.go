package server

import (
	"sync"

	"github.com/scan-io-git/codemedic/internal/pipeline"
)

// Registry keeps the sessions of all connected users in memory.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*pipeline.Session
	opts     []pipeline.SessionOption
}

// NewRegistry creates an empty registry. opts are applied to every new session.
func NewRegistry(opts ...pipeline.SessionOption) *Registry {
	return &Registry{
		sessions: make(map[string]*pipeline.Session),
		opts:     opts,
	}
}

// Create registers a new idle session.
func (r *Registry) Create() *pipeline.Session {
	session := pipeline.NewSession(r.opts...)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[session.ID()] = session
	return session
}

// Get returns the session with the given id.
func (r *Registry) Get(id string) (*pipeline.Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	session, ok := r.sessions[id]
	return session, ok
}

// Delete forgets the session. It reports whether the session existed.
func (r *Registry) Delete(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[id]; !ok {
		return false
	}
	delete(r.sessions, id)
	return true
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}
