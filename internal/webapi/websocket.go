package webapi

import (
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/tecnoter/ttsh/internal/output"
	"github.com/tecnoter/ttsh/internal/session"
	"github.com/tecnoter/ttsh/internal/shell"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WSRequest is one client frame: a line of input.
type WSRequest struct {
	Input string `json:"input"`
}

// WSMessage is one server frame. Type "response" carries a dispatch
// result; type "line" carries background output.
type WSMessage struct {
	Type     string          `json:"type"`
	Response *shell.Response `json:"response,omitempty"`
	Line     *output.Line    `json:"line,omitempty"`
}

// handleWebSocket runs a session whose state lives on the server. The
// socket closes when the client leaves or the session exits.
func (s *Server) handleWebSocket(c echo.Context) error {
	p, err := s.open(session.TransportWebSocket, c.RealIP())
	if err != nil {
		return respondError(c, http.StatusServiceUnavailable, err)
	}
	defer s.close(p.sess.ID)

	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		s.log.Printf("WARN: WebSocket upgrade failed for %s: %v", c.RealIP(), err)
		return nil
	}
	defer conn.Close()

	var writeMu sync.Mutex
	send := func(m WSMessage) error {
		writeMu.Lock()
		defer writeMu.Unlock()
		return conn.WriteJSON(m)
	}

	done := make(chan struct{})
	defer close(done)
	go func() {
		for {
			select {
			case <-done:
				return
			case line := <-p.outbox.Lines():
				if err := send(WSMessage{Type: "line", Line: &line}); err != nil {
					return
				}
			}
		}
	}()

	for {
		var req WSRequest
		if err := conn.ReadJSON(&req); err != nil {
			return nil
		}
		resp := s.dispatch(p, p.sess.State(), req.Input)
		if err := send(WSMessage{Type: "response", Response: &resp}); err != nil {
			return nil
		}
		if exits(resp) {
			writeMu.Lock()
			conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "session terminated"))
			writeMu.Unlock()
			return nil
		}
	}
}

func exits(resp shell.Response) bool {
	for _, l := range resp.Lines {
		if l.Type == output.Instruction && output.ParseInstruction(l.Text).Kind == "exit" {
			return true
		}
	}
	return false
}
