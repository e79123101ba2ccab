package hub

import (
	"errors"
	"sync"

	"github.com/adnanfazil/ChatApp/internal/model"
)

// ErrDuplicateConnection is an internal invariant violation: a connection id
// may only ever be registered once.
var ErrDuplicateConnection = errors.New("connection id already registered")

// registry tracks live connections and the identity owning each one. Entries
// are purely in-memory and reclaimed on disconnect.
type registry struct {
	mu      sync.RWMutex
	clients map[string]*Client                    // connection id → client
	byUser  map[model.Identity]map[string]*Client // identity → live connections
}

func newRegistry() *registry {
	return &registry{
		clients: make(map[string]*Client),
		byUser:  make(map[model.Identity]map[string]*Client),
	}
}

// register adds a connection and reports how many live connections its
// identity has afterwards. total == 1 marks the OFFLINE→ONLINE transition.
func (r *registry) register(c *Client) (total int, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.clients[c.ID]; exists {
		return 0, ErrDuplicateConnection
	}

	r.clients[c.ID] = c

	conns := r.byUser[c.identity]
	if conns == nil {
		conns = make(map[string]*Client)
		r.byUser[c.identity] = conns
	}
	conns[c.ID] = c

	return len(conns), nil
}

// unregister removes a connection. Idempotent: unknown ids are a no-op.
// remaining reports how many live connections the identity still has;
// remaining == 0 on a removed connection marks the ONLINE→OFFLINE transition.
func (r *registry) unregister(connID string) (removed *Client, remaining int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.clients[connID]
	if !ok {
		return nil, 0
	}
	delete(r.clients, connID)

	if conns, ok := r.byUser[c.identity]; ok {
		delete(conns, connID)
		remaining = len(conns)
		if remaining == 0 {
			delete(r.byUser, c.identity)
		}
	}

	return c, remaining
}

// connectionsOf returns the live connections of an identity. Presence is
// "online" exactly while this is non-empty.
func (r *registry) connectionsOf(id model.Identity) []*Client {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conns := r.byUser[id]
	if len(conns) == 0 {
		return nil
	}
	out := make([]*Client, 0, len(conns))
	for _, c := range conns {
		out = append(out, c)
	}
	return out
}

// snapshot returns every registered client, for shutdown and monitoring.
func (r *registry) snapshot() []*Client {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Client, 0, len(r.clients))
	for _, c := range r.clients {
		out = append(out, c)
	}
	return out
}

// totals reports connection and distinct-identity counts.
func (r *registry) totals() (connections, identities int) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.clients), len(r.byUser)
}
