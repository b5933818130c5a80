/*
Package server - dispatching server and per-peer connected-client handler

Mirrors the client side's clientnode package on the other end of the
wire: a connection-id-keyed registry of connected peers, a per-peer
receive/write loop, and a fan-out dispatcher that re-broadcasts inbound
NearUserMessage packets to other peers.
*/
package server

import "sync"

// registry maps connection id to ConnectedClient. Unlike the
// connection-manager ConnectionManager this replaces, lookups and
// iteration are serialized with an explicit lock rather than sync.Map:
// fan-out needs a consistent snapshot of "every currently registered
// peer" to broadcast against, which a lock-free map can't give cheaply.
type registry struct {
	mu      sync.Mutex
	clients map[uint64]*ConnectedClient
	nextID  uint64
}

func newRegistry() *registry {
	return &registry{clients: make(map[uint64]*ConnectedClient)}
}

// nextConnID returns the next connection id, starting at 1 and unique
// for the lifetime of the process.
func (r *registry) nextConnID() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	return r.nextID
}

func (r *registry) add(c *ConnectedClient) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clients[c.ID] = c
}

// remove deletes id's entry. Called exactly once, when that peer's
// disconnected signal fires.
func (r *registry) remove(id uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.clients, id)
}

// snapshot returns every currently registered client. Taken under the
// registry lock so a fan-out sees a consistent view even while peers
// connect or disconnect concurrently.
func (r *registry) snapshot() []*ConnectedClient {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*ConnectedClient, 0, len(r.clients))
	for _, c := range r.clients {
		out = append(out, c)
	}
	return out
}

func (r *registry) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.clients)
}
