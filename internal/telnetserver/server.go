package telnetserver

import (
	"errors"
	"fmt"
	"log"
	"net"
	"sync"
)

// SessionHandler is called with each negotiated connection. The connection
// is closed when it returns.
type SessionHandler func(*TelnetConn)

// Config holds telnet server configuration.
type Config struct {
	Port           int
	Host           string
	SessionHandler SessionHandler
}

// Server is a telnet server that listens for TCP connections
// and wraps them with telnet protocol handling.
type Server struct {
	listener net.Listener
	config   Config
	mu       sync.Mutex
	wg       sync.WaitGroup
}

// NewServer creates a new telnet server instance.
func NewServer(cfg Config) (*Server, error) {
	if cfg.SessionHandler == nil {
		return nil, fmt.Errorf("session handler is required")
	}
	if cfg.Port <= 0 {
		return nil, fmt.Errorf("invalid port: %d", cfg.Port)
	}
	if cfg.Host == "" {
		cfg.Host = "0.0.0.0"
	}

	return &Server{config: cfg}, nil
}

// ListenAndServe starts listening for telnet connections and blocks.
func (s *Server) ListenAndServe() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	log.Printf("INFO: Telnet server listening on %s", addr)
	return s.Serve(listener)
}

// Serve accepts connections on listener until Close is called.
func (s *Server) Serve(listener net.Listener) error {
	s.mu.Lock()
	s.listener = listener
	s.mu.Unlock()

	for {
		conn, err := listener.Accept()
		if err != nil {
			s.mu.Lock()
			closed := s.listener == nil
			s.mu.Unlock()
			if closed || errors.Is(err, net.ErrClosed) {
				return nil
			}
			log.Printf("ERROR: Telnet accept error: %v", err)
			continue
		}

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.handleConnection(conn)
		}()
	}
}

// handleConnection negotiates options and hands the connection over.
func (s *Server) handleConnection(conn net.Conn) {
	remoteAddr := conn.RemoteAddr().String()
	log.Printf("INFO: Telnet connection from %s", remoteAddr)

	tc := NewTelnetConn(conn)
	defer func() {
		if r := recover(); r != nil {
			log.Printf("ERROR: Telnet panic handling %s: %v", remoteAddr, r)
		}
		tc.Close()
		log.Printf("INFO: Telnet connection closed from %s", remoteAddr)
	}()

	if err := tc.Negotiate(); err != nil {
		log.Printf("ERROR: Telnet negotiation failed for %s: %v", remoteAddr, err)
		return
	}
	w, h := tc.WindowSize()
	log.Printf("INFO: Telnet session from %s - terminal %s %dx%d", remoteAddr, tc.TermType(), w, h)

	s.config.SessionHandler(tc)
}

// Close stops accepting connections. Sessions in progress keep running;
// Wait blocks until they finish.
func (s *Server) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.listener != nil {
		err := s.listener.Close()
		s.listener = nil
		return err
	}
	return nil
}

// Wait blocks until every session handler has returned.
func (s *Server) Wait() {
	s.wg.Wait()
}
