// Package presence tracks which actors currently hold a live connection.
package presence

import "sync"

// Conn is a live delivery channel to one actor. Send must not block
// indefinitely; slow consumers should drop.
type Conn interface {
	Send(payload map[string]any) error
}

// Registry maps actor ids to their connection. One connection per actor; a
// new registration replaces the old one.
type Registry struct {
	mu    sync.RWMutex
	conns map[string]Conn
}

func NewRegistry() *Registry {
	return &Registry{conns: make(map[string]Conn)}
}

func (r *Registry) Register(actorID string, conn Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conns[actorID] = conn
}

func (r *Registry) Unregister(actorID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.conns, actorID)
}

func (r *Registry) Get(actorID string) (Conn, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	conn, ok := r.conns[actorID]
	return conn, ok
}

func (r *Registry) Online(actorID string) bool {
	_, ok := r.Get(actorID)
	return ok
}

// Snapshot returns the ids of all connected actors.
func (r *Registry) Snapshot() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.conns))
	for id := range r.conns {
		ids = append(ids, id)
	}
	return ids
}
