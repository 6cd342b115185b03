// Package session tracks the node shell's connected sessions: which node
// number each one occupies, how it connected and where it is in the shell.
package session

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tecnoter/ttsh/internal/state"
)

// Transport names how a session reached the node.
type Transport string

const (
	TransportSSH       Transport = "ssh"
	TransportTelnet    Transport = "telnet"
	TransportHTTP      Transport = "http"
	TransportWebSocket Transport = "websocket"
	TransportConsole   Transport = "console"
)

// Session is one connected terminal. Its SessionState is owned by the
// session's host loop; other goroutines read it through State.
type Session struct {
	ID         string
	NodeID     int
	Transport  Transport
	RemoteAddr string
	StartTime  time.Time

	mu           sync.RWMutex
	state        state.SessionState
	lastActivity time.Time
}

// New creates an unregistered session holding the bootstrap state.
func New(transport Transport, remoteAddr string) *Session {
	now := time.Now()
	return &Session{
		ID:           uuid.NewString(),
		Transport:    transport,
		RemoteAddr:   remoteAddr,
		StartTime:    now,
		state:        state.Default(),
		lastActivity: now,
	}
}

// State returns the current snapshot.
func (s *Session) State() state.SessionState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// SetState stores the snapshot returned by a dispatch call.
func (s *Session) SetState(st state.SessionState) {
	s.mu.Lock()
	s.state = st
	s.lastActivity = time.Now()
	s.mu.Unlock()
}

// Info is the public view of a session.
type Info struct {
	ID         string     `json:"id"`
	NodeID     int        `json:"node"`
	Transport  Transport  `json:"transport"`
	RemoteAddr string     `json:"remoteAddr"`
	User       string     `json:"user"`
	Mode       state.Mode `json:"mode"`
	Cwd        string     `json:"cwd"`
	StartTime  time.Time  `json:"startTime"`
	IdleFor    string     `json:"idle"`
}

// Info snapshots the session for listing.
func (s *Session) Info() Info {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Info{
		ID:         s.ID,
		NodeID:     s.NodeID,
		Transport:  s.Transport,
		RemoteAddr: s.RemoteAddr,
		User:       s.state.CurrentUser,
		Mode:       s.state.LoginState,
		Cwd:        s.state.Cwd,
		StartTime:  s.StartTime,
		IdleFor:    time.Since(s.lastActivity).Truncate(time.Second).String(),
	}
}
