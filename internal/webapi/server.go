// Package webapi exposes the node shell over HTTP: the stateless dispatch
// contract, a session directory, server-sent events for output that
// arrives after a call returns, and WebSocket sessions whose state the
// server holds.
package webapi

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/tecnoter/ttsh/internal/feed"
	"github.com/tecnoter/ttsh/internal/fetch"
	"github.com/tecnoter/ttsh/internal/logging"
	"github.com/tecnoter/ttsh/internal/output"
	"github.com/tecnoter/ttsh/internal/session"
	"github.com/tecnoter/ttsh/internal/shell"
	"github.com/tecnoter/ttsh/internal/state"
)

// HeaderSessionID routes a stateless call's background output to a session.
const HeaderSessionID = "X-Session-ID"

// dateLayout matches what browsers print for Date.toDateString.
const dateLayout = "Mon Jan 02 2006"

// ErrUnknownSession is returned for a session id nobody created.
var ErrUnknownSession = errors.New("unknown session")

// Config holds the web host's collaborators. Zero fields get the same
// defaults as the terminal node.
type Config struct {
	Store    *feed.Store
	Registry *session.SessionRegistry
	Client   fetch.HTTPClient
	Logger   logging.Logger
	Now      func() time.Time
	Intn     func(n int) int
}

// Server is the HTTP host.
type Server struct {
	cfg  Config
	log  logging.Logger
	echo *echo.Echo

	ctx    context.Context
	cancel context.CancelFunc

	mu    sync.Mutex
	peers map[string]*peer
}

// New builds the server and its routes.
func New(cfg Config) (*Server, error) {
	if cfg.Registry == nil {
		cfg.Registry = session.NewSessionRegistry(0, 0)
	}
	if cfg.Client == nil {
		cfg.Client = http.DefaultClient
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Intn == nil {
		cfg.Intn = rand.IntN
	}

	s := &Server{
		cfg:   cfg,
		log:   logging.OrStd(cfg.Logger),
		peers: make(map[string]*peer),
	}
	s.ctx, s.cancel = context.WithCancel(context.Background())
	// Fail at startup rather than on the first stateless call.
	if _, err := s.processDetached(state.Default(), ""); err != nil {
		return nil, err
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())

	e.POST("/api/process", s.handleProcess)
	e.POST("/api/sessions", s.handleCreateSession)
	e.GET("/api/sessions", s.handleListSessions)
	e.DELETE("/api/sessions/:id", s.handleRemoveSession)
	e.GET("/api/events/:id", s.handleEvents)
	e.GET("/ws", s.handleWebSocket)
	s.echo = e

	return s, nil
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// ListenAndServe serves on addr until Shutdown.
func (s *Server) ListenAndServe(addr string) error {
	s.log.Printf("INFO: HTTP API listening on %s", addr)
	if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to serve HTTP on %s: %w", addr, err)
	}
	return nil
}

// Shutdown stops the listener and ends every web session.
func (s *Server) Shutdown(ctx context.Context) error {
	s.cancel()
	s.mu.Lock()
	peers := make([]*peer, 0, len(s.peers))
	for id, p := range s.peers {
		peers = append(peers, p)
		delete(s.peers, id)
	}
	s.mu.Unlock()
	for _, p := range peers {
		s.release(p)
	}
	return s.echo.Shutdown(ctx)
}

// peer is one web session: a registry entry plus the dispatcher and outbox
// its background requests write to.
type peer struct {
	sess    *session.Session
	disp    *shell.Dispatcher
	outbox  *fetch.Outbox
	fetcher *fetch.Fetcher
	cancel  context.CancelFunc

	// mu serializes dispatch calls for the session.
	mu sync.Mutex
}

// open registers a new session for transport.
func (s *Server) open(transport session.Transport, remoteAddr string) (*peer, error) {
	sess := session.New(transport, remoteAddr)
	if err := s.cfg.Registry.Register(sess); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(s.ctx)
	outbox := fetch.NewOutbox(0)
	fetcher := fetch.New(ctx, s.cfg.Client, outbox, s.log)
	disp, err := shell.New(shell.Config{Fetcher: fetcher, Logger: s.log, Now: s.cfg.Now, Intn: s.cfg.Intn})
	if err != nil {
		cancel()
		s.cfg.Registry.Unregister(sess.ID)
		return nil, fmt.Errorf("failed to create session dispatcher: %w", err)
	}

	p := &peer{sess: sess, disp: disp, outbox: outbox, fetcher: fetcher, cancel: cancel}
	s.mu.Lock()
	s.peers[sess.ID] = p
	s.mu.Unlock()
	s.log.Printf("INFO: Node %d: %s session %s from %s", sess.NodeID, transport, sess.ID, remoteAddr)
	return p, nil
}

func (s *Server) lookup(id string) (*peer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.peers[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSession, id)
	}
	return p, nil
}

// close ends the session id.
func (s *Server) close(id string) error {
	s.mu.Lock()
	p, ok := s.peers[id]
	delete(s.peers, id)
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownSession, id)
	}
	s.release(p)
	return nil
}

func (s *Server) release(p *peer) {
	// An in-flight dispatch may still be starting fetches.
	p.mu.Lock()
	p.cancel()
	p.fetcher.Wait()
	p.mu.Unlock()
	s.cfg.Registry.Unregister(p.sess.ID)
	s.log.Printf("INFO: Node %d: Disconnected %s (User: %s)", p.sess.NodeID, p.sess.RemoteAddr, p.sess.State().CurrentUser)
}

// prepare injects the feed snapshot and the current date.
func (s *Server) prepare(st state.SessionState) state.SessionState {
	if s.cfg.Store != nil {
		st = s.cfg.Store.Apply(st)
	}
	st.SystemInfo.CurrentDate = s.cfg.Now().Format(dateLayout)
	return st
}

// detachedNotice follows a stateless reply whose command started a fetch.
const detachedNotice = "(no session: open one with POST /api/sessions and send " + HeaderSessionID + " to receive this output)"

// detachedFetcher stands in for the outbox a stateless call lacks. It only
// notes that the command asked for background output.
type detachedFetcher struct{ requested bool }

func (f *detachedFetcher) FetchContent(string, bool) { f.requested = true }
func (f *detachedFetcher) FetchURL(string, bool)     { f.requested = true }

// processDetached runs one call that belongs to no session.
func (s *Server) processDetached(st state.SessionState, input string) (shell.Response, error) {
	var f detachedFetcher
	disp, err := shell.New(shell.Config{Fetcher: &f, Logger: s.log, Now: s.cfg.Now, Intn: s.cfg.Intn})
	if err != nil {
		return shell.Response{}, fmt.Errorf("failed to create web dispatcher: %w", err)
	}
	resp := disp.Process(s.prepare(st), input)
	if f.requested {
		resp.Lines = append(resp.Lines, output.Text(detachedNotice))
	}
	return resp, nil
}

// dispatch runs one call for the session p.
func (s *Server) dispatch(p *peer, st state.SessionState, input string) shell.Response {
	st = s.prepare(st)
	p.mu.Lock()
	defer p.mu.Unlock()
	resp := p.disp.Process(st, input)
	p.sess.SetState(resp.State)
	return resp
}
