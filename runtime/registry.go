package runtime

import (
	"estate-desk/contract"
	"estate-desk/domain"
	"sync"
)

var _ contract.IRegistry = (*Registry)(nil)

type sinkID uint64

// Registry keeps the open streams of every connected participant.
type Registry struct {
	mu       sync.RWMutex
	nextID   sinkID
	Sessions map[string]map[sinkID]contract.EventSink // map email -> sinks
}

func NewRegistry() *Registry {
	return &Registry{Sessions: make(map[string]map[sinkID]contract.EventSink)}
}

// GetSinks retrieves all active streams of a participant.
// Returns nil if the participant is not connected.
func (r *Registry) GetSinks(email string) []contract.EventSink {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sessions, ok := r.Sessions[domain.NormalizeEmail(email)]
	if !ok {
		return nil
	}
	sinks := make([]contract.EventSink, 0, len(sessions))
	for _, sink := range sessions {
		sinks = append(sinks, sink)
	}
	return sinks
}

// Subscribe registers one stream of a participant and returns the func removing it.
// The returned func is safe to call more than once.
func (r *Registry) Subscribe(email string, sink contract.EventSink) func() {
	email = domain.NormalizeEmail(email)

	r.mu.Lock()
	r.nextID++
	id := r.nextID
	if _, ok := r.Sessions[email]; !ok {
		r.Sessions[email] = make(map[sinkID]contract.EventSink)
	}
	r.Sessions[email][id] = sink
	r.mu.Unlock()

	return func() { r.unsubscribe(email, id) }
}

// unsubscribe ensures no empty sets are left behind to prevent memory leaks over time.
func (r *Registry) unsubscribe(email string, id sinkID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	sessions, ok := r.Sessions[email]
	if !ok {
		return
	}
	delete(sessions, id)
	if len(sessions) == 0 {
		delete(r.Sessions, email)
	}
}
