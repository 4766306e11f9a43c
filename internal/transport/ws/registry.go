package ws

import (
	"sort"
	"sync"
)

// Conn is one live client socket as the hub sees it. server.go's wsConn is
// the production implementation; tests plug in fakes.
type Conn interface {
	Send(f Frame) error
	Open() bool
	Close() error
	Email() string
	Name() string
}

// Registry maps a user identity (email) to its single live connection.
type Registry struct {
	mu    sync.RWMutex
	conns map[string]Conn // email -> connection
}

func NewRegistry() *Registry {
	return &Registry{conns: make(map[string]Conn)}
}

// Register inserts or replaces the live connection for c's identity. A
// superseded connection is not closed here; the transport layer drives its
// closure.
func (r *Registry) Register(c Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conns[c.Email()] = c
}

// Unregister removes c's entry, but only while c is still the registered
// connection. The close of a superseded socket must not evict the
// connection that replaced it.
func (r *Registry) Unregister(c Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if cur, ok := r.conns[c.Email()]; ok && cur == c {
		delete(r.conns, c.Email())
	}
}

func (r *Registry) Lookup(email string) (Conn, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.conns[email]
	return c, ok
}

func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}

// Emails returns every registered identity.
func (r *Registry) Emails() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.conns))
	for email := range r.conns {
		out = append(out, email)
	}
	return out
}

// Snapshot answers "who is online", ordered by email for stable output.
func (r *Registry) Snapshot() []OnlineUser {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]OnlineUser, 0, len(r.conns))
	for email, c := range r.conns {
		out = append(out, OnlineUser{UserEmail: email, UserName: c.Name()})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserEmail < out[j].UserEmail })
	return out
}
