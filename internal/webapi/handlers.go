package webapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/tecnoter/ttsh/internal/session"
	"github.com/tecnoter/ttsh/internal/state"
)

// ProcessRequest is the body of POST /api/process.
type ProcessRequest struct {
	State json.RawMessage `json:"state"`
	Input string          `json:"input"`
}

// CreateSessionResponse is returned by POST /api/sessions.
type CreateSessionResponse struct {
	Session session.Info       `json:"session"`
	State   state.SessionState `json:"state"`
}

// ListSessionsResponse is returned by GET /api/sessions.
type ListSessionsResponse struct {
	Sessions []session.Info `json:"sessions"`
}

// ErrorResponse carries a failure message.
type ErrorResponse struct {
	Error string `json:"error"`
}

func respondError(c echo.Context, status int, err error) error {
	return c.JSON(status, ErrorResponse{Error: err.Error()})
}

// handleProcess is the stateless contract: the client sends its snapshot
// and gets the next one back.
func (s *Server) handleProcess(c echo.Context) error {
	var req ProcessRequest
	if err := json.NewDecoder(c.Request().Body).Decode(&req); err != nil {
		return respondError(c, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
	}

	var p *peer
	if id := c.Request().Header.Get(HeaderSessionID); id != "" {
		var err error
		if p, err = s.lookup(id); err != nil {
			return respondError(c, http.StatusNotFound, err)
		}
	}

	st := state.Default()
	if len(req.State) > 0 && string(req.State) != "null" {
		var err error
		if st, err = state.Decode(req.State); err != nil {
			s.log.Printf("ERROR: Critical state deserialization failure: %v", err)
		}
	}
	if p != nil {
		return c.JSON(http.StatusOK, s.dispatch(p, st, req.Input))
	}
	resp, err := s.processDetached(st, req.Input)
	if err != nil {
		return respondError(c, http.StatusInternalServerError, err)
	}
	return c.JSON(http.StatusOK, resp)
}

func (s *Server) handleCreateSession(c echo.Context) error {
	p, err := s.open(session.TransportHTTP, c.RealIP())
	if err != nil {
		if errors.Is(err, session.ErrNodesFull) || errors.Is(err, session.ErrTooManyFromIP) {
			return respondError(c, http.StatusServiceUnavailable, err)
		}
		return respondError(c, http.StatusInternalServerError, err)
	}
	return c.JSON(http.StatusCreated, CreateSessionResponse{Session: p.sess.Info(), State: p.sess.State()})
}

func (s *Server) handleListSessions(c echo.Context) error {
	sessions := s.cfg.Registry.List()
	if sessions == nil {
		sessions = []session.Info{}
	}
	return c.JSON(http.StatusOK, ListSessionsResponse{Sessions: sessions})
}

func (s *Server) handleRemoveSession(c echo.Context) error {
	if err := s.close(c.Param("id")); err != nil {
		return respondError(c, http.StatusNotFound, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// handleEvents streams a session's background output as server-sent
// events, one JSON-encoded line per event.
func (s *Server) handleEvents(c echo.Context) error {
	p, err := s.lookup(c.Param("id"))
	if err != nil {
		return respondError(c, http.StatusNotFound, err)
	}

	res := c.Response()
	res.Header().Set(echo.HeaderContentType, "text/event-stream")
	res.Header().Set(echo.HeaderCacheControl, "no-cache")
	res.Header().Set(echo.HeaderConnection, "keep-alive")
	res.WriteHeader(http.StatusOK)
	res.Flush()

	ctx := c.Request().Context()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-s.ctx.Done():
			return nil
		case line := <-p.outbox.Lines():
			data, err := json.Marshal(line)
			if err != nil {
				return fmt.Errorf("failed to encode event: %w", err)
			}
			if _, err := fmt.Fprintf(res, "data: %s\n\n", data); err != nil {
				return err
			}
			res.Flush()
		}
	}
}
