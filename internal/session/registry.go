package session

import (
	"errors"
	"fmt"
	"net"
	"sort"
	"sync"
)

var (
	// ErrNodesFull is returned when every node number is taken.
	ErrNodesFull = errors.New("all nodes are busy")
	// ErrTooManyFromIP is returned when one address holds too many sessions.
	ErrTooManyFromIP = errors.New("too many connections from this address")
)

// SessionRegistry tracks all active sessions by ID and node number.
type SessionRegistry struct {
	mu       sync.RWMutex
	maxNodes int
	maxPerIP int
	sessions map[string]*Session
	nodes    map[int]*Session
	perIP    map[string]int
}

// NewSessionRegistry creates a registry with maxNodes node numbers and at
// most maxPerIP sessions per remote address. Zero means unlimited.
func NewSessionRegistry(maxNodes, maxPerIP int) *SessionRegistry {
	return &SessionRegistry{
		maxNodes: maxNodes,
		maxPerIP: maxPerIP,
		sessions: make(map[string]*Session),
		nodes:    make(map[int]*Session),
		perIP:    make(map[string]int),
	}
}

// extractIP strips the port from a remote address.
func extractIP(remoteAddr string) string {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		return remoteAddr
	}
	return host
}

// Register assigns s the lowest free node number.
func (r *SessionRegistry) Register(s *Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.sessions[s.ID]; exists {
		return fmt.Errorf("session %s already registered", s.ID)
	}

	ip := extractIP(s.RemoteAddr)
	if r.maxPerIP > 0 && ip != "" && r.perIP[ip] >= r.maxPerIP {
		return ErrTooManyFromIP
	}

	node := 1
	for r.nodes[node] != nil {
		node++
	}
	if r.maxNodes > 0 && node > r.maxNodes {
		return ErrNodesFull
	}

	s.NodeID = node
	r.sessions[s.ID] = s
	r.nodes[node] = s
	if ip != "" {
		r.perIP[ip]++
	}
	return nil
}

// Unregister frees the session's node number.
func (r *SessionRegistry) Unregister(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	if !ok {
		return
	}
	delete(r.sessions, id)
	delete(r.nodes, s.NodeID)
	if ip := extractIP(s.RemoteAddr); ip != "" {
		if r.perIP[ip]--; r.perIP[ip] <= 0 {
			delete(r.perIP, ip)
		}
	}
}

// Get returns the session with id, or nil.
func (r *SessionRegistry) Get(id string) *Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sessions[id]
}

// GetNode returns the session on node, or nil.
func (r *SessionRegistry) GetNode(node int) *Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.nodes[node]
}

// ListActive returns every session sorted by node number.
func (r *SessionRegistry) ListActive() []*Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		result = append(result, s)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].NodeID < result[j].NodeID
	})
	return result
}

// List returns Info for every session sorted by node number.
func (r *SessionRegistry) List() []Info {
	active := r.ListActive()
	infos := make([]Info, 0, len(active))
	for _, s := range active {
		infos = append(infos, s.Info())
	}
	return infos
}
