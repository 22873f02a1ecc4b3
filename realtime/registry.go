package realtime

import (
	"encoding/json"
	"sync"
)

// Handler receives the data payload of an emitted event.
type Handler func(data json.RawMessage)

type listenerEntry struct {
	id int
	fn Handler
}

// registry is the observer table: event name -> ordered callback list.
// Callbacks run in registration order; a panicking callback is isolated
// and never prevents delivery to the rest.
type registry struct {
	mu     sync.Mutex
	nextID int
	table  map[string][]listenerEntry
}

func newRegistry() *registry {
	return &registry{table: make(map[string][]listenerEntry)}
}

// add registers a handler and returns its subscription id.
func (r *registry) add(event string, fn Handler) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	r.table[event] = append(r.table[event], listenerEntry{id: r.nextID, fn: fn})
	return r.nextID
}

// remove unregisters the handler with the given subscription id.
func (r *registry) remove(event string, id int) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	entries := r.table[event]
	for i, entry := range entries {
		if entry.id == id {
			r.table[event] = append(entries[:i:i], entries[i+1:]...)
			return true
		}
	}
	return false
}

// handlers returns a snapshot of the callbacks for an event, in
// registration order.
func (r *registry) handlers(event string) []Handler {
	r.mu.Lock()
	defer r.mu.Unlock()
	entries := r.table[event]
	out := make([]Handler, len(entries))
	for i, entry := range entries {
		out[i] = entry.fn
	}
	return out
}
