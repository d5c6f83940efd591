// Package hub owns the live-connection side of notification delivery: the
// registry that maps identities to open websocket connections and the event
// bus that pushes named events to them. Delivery is best-effort; the durable
// record in the store is the source of truth.
package hub

import (
	"encoding/json"
	"log"
	"sync"
)

// EventNotificationNew carries a full persisted notification record.
const EventNotificationNew = "notification:new"

// Event is the wire envelope for every server push.
type Event struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// Pusher is one live connection's outbound queue. Push must not block; it
// returns false when the message could not be queued.
type Pusher interface {
	Push(message []byte) bool
}

// Registry maps an identity to its set of live connections. An identity may
// hold zero, one, or many connections (multiple devices or tabs). Every
// operation is a single atomic step under one lock; no partial state is ever
// visible to other handlers.
type Registry struct {
	mu    sync.RWMutex
	conns map[string]map[Pusher]struct{}
	owner map[Pusher]string
}

func NewRegistry() *Registry {
	return &Registry{
		conns: make(map[string]map[Pusher]struct{}),
		owner: make(map[Pusher]string),
	}
}

// Join attaches a connection to an identity's channel set. Joining twice is a
// no-op; a connection previously joined under another identity is re-homed.
func (r *Registry) Join(identity string, p Pusher) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if prev, ok := r.owner[p]; ok {
		if prev == identity {
			return
		}
		delete(r.conns[prev], p)
		if len(r.conns[prev]) == 0 {
			delete(r.conns, prev)
		}
	}
	set, ok := r.conns[identity]
	if !ok {
		set = make(map[Pusher]struct{})
		r.conns[identity] = set
	}
	set[p] = struct{}{}
	r.owner[p] = identity
}

// Leave removes a connection from whichever identity holds it. It runs on
// every disconnect path and is a no-op for connections that never joined.
func (r *Registry) Leave(p Pusher) {
	r.mu.Lock()
	defer r.mu.Unlock()

	identity, ok := r.owner[p]
	if !ok {
		return
	}
	delete(r.owner, p)
	delete(r.conns[identity], p)
	if len(r.conns[identity]) == 0 {
		delete(r.conns, identity)
	}
}

// Lookup returns the identity's current live connections. Empty means the
// recipient is unreachable, never an error.
func (r *Registry) Lookup(identity string) []Pusher {
	r.mu.RLock()
	defer r.mu.RUnlock()

	set := r.conns[identity]
	if len(set) == 0 {
		return nil
	}
	out := make([]Pusher, 0, len(set))
	for p := range set {
		out = append(out, p)
	}
	return out
}

// EmitTo pushes a named event to every connection of one identity. No
// connections is a silent no-op. A connection with a full queue is skipped;
// it never stalls delivery to the others.
func (r *Registry) EmitTo(identity, event string, data any) {
	payload, err := json.Marshal(Event{Event: event, Data: data})
	if err != nil {
		log.Printf("hub: marshal %s event for %s: %v", event, identity, err)
		return
	}
	for _, p := range r.Lookup(identity) {
		if !p.Push(payload) {
			log.Printf("hub: dropped %s event for %s (send queue full)", event, identity)
		}
	}
}

// Broadcast applies EmitTo across a set of identities. Each recipient gets its
// own payload; one unreachable or failing connection never aborts the rest.
func (r *Registry) Broadcast(identities []string, event string, data any) {
	for _, identity := range identities {
		r.EmitTo(identity, event, data)
	}
}
