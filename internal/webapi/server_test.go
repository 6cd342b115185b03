package webapi

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/gorilla/websocket"

	"github.com/tecnoter/ttsh/internal/feed"
	"github.com/tecnoter/ttsh/internal/output"
	"github.com/tecnoter/ttsh/internal/session"
	"github.com/tecnoter/ttsh/internal/state"
)

var fixedNow = time.Date(2026, 1, 5, 9, 30, 0, 0, time.UTC)

type lockedLog struct {
	mu       sync.Mutex
	messages []string
}

func (l *lockedLog) Printf(format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.messages = append(l.messages, fmt.Sprintf(format, args...))
}

func (l *lockedLog) contains(sub string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, m := range l.messages {
		if strings.Contains(m, sub) {
			return true
		}
	}
	return false
}

func newTestServer(t *testing.T, cfg Config) (*Server, *httptest.Server) {
	t.Helper()
	if cfg.Logger == nil {
		cfg.Logger = &lockedLog{}
	}
	cfg.Now = func() time.Time { return fixedNow }
	cfg.Intn = func(int) int { return 0 }
	srv, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		srv.Shutdown(context.Background())
		ts.Close()
	})
	return srv, ts
}

type wireResponse struct {
	Lines   []output.Line   `json:"lines"`
	State   json.RawMessage `json:"state"`
	Handled bool            `json:"handled"`
}

func post(t *testing.T, url, sessionID string, body any) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatal(err)
	}
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Content-Type", "application/json")
	if sessionID != "" {
		req.Header.Set(HeaderSessionID, sessionID)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	return resp
}

func decodeProcess(t *testing.T, resp *http.Response) (wireResponse, state.SessionState) {
	t.Helper()
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d", resp.StatusCode)
	}
	var wr wireResponse
	if err := json.NewDecoder(resp.Body).Decode(&wr); err != nil {
		t.Fatalf("decode: %v", err)
	}
	st, err := state.Decode(wr.State)
	if err != nil {
		t.Fatalf("state: %v", err)
	}
	return wr, st
}

func TestProcess(t *testing.T) {
	promptState, _ := state.Encode(state.Default().Enter(state.ModePrompt))

	testCases := []struct {
		name        string
		body        ProcessRequest
		wantHandled bool
		wantMode    state.Mode
		wantFirst   string
		wantLog     string
	}{
		{
			name:        "boot without state",
			body:        ProcessRequest{Input: "_boot"},
			wantHandled: true,
			wantMode:    state.ModeBoot,
			wantFirst:   "TECNOTER.IO(TM) CORE SYSTEM",
		},
		{
			name:        "prompt command",
			body:        ProcessRequest{State: promptState, Input: "date"},
			wantHandled: true,
			wantMode:    state.ModePrompt,
		},
		{
			name:     "unknown command",
			body:     ProcessRequest{State: promptState, Input: "frobnicate"},
			wantMode: state.ModePrompt,
		},
		{
			name:     "broken state falls back",
			body:     ProcessRequest{State: json.RawMessage(`{"cwd":"relative"}`), Input: ""},
			wantMode: state.ModeUninitialized,
			wantLog:  "Critical state deserialization failure",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			log := &lockedLog{}
			_, ts := newTestServer(t, Config{Logger: log})

			wr, st := decodeProcess(t, post(t, ts.URL+"/api/process", "", tc.body))
			if wr.Handled != tc.wantHandled {
				t.Errorf("handled = %v, want %v", wr.Handled, tc.wantHandled)
			}
			if st.LoginState != tc.wantMode {
				t.Errorf("mode = %s, want %s", st.LoginState, tc.wantMode)
			}
			if wr.Lines == nil {
				t.Error("lines encoded as null")
			}
			if tc.wantFirst != "" && (len(wr.Lines) == 0 || wr.Lines[0].Text != tc.wantFirst) {
				t.Errorf("lines = %+v", wr.Lines)
			}
			if tc.wantLog != "" && !log.contains(tc.wantLog) {
				t.Errorf("expected log containing %q", tc.wantLog)
			}
		})
	}
}

func TestProcessInjectsFeedAndDate(t *testing.T) {
	store := feed.NewStore("", "node-7", []string{"stay curious"})
	_, ts := newTestServer(t, Config{Store: store})

	body := ProcessRequest{Input: "fortune"}
	body.State, _ = state.Encode(state.Default().Enter(state.ModePrompt))
	wr, st := decodeProcess(t, post(t, ts.URL+"/api/process", "", body))

	if st.SystemInfo.NodeName != "node-7" {
		t.Errorf("node name = %q", st.SystemInfo.NodeName)
	}
	if st.SystemInfo.CurrentDate != "Mon Jan 05 2026" {
		t.Errorf("current date = %q", st.SystemInfo.CurrentDate)
	}
	if len(wr.Lines) == 0 || !strings.Contains(wr.Lines[0].Text, "stay curious") {
		t.Errorf("fortune lines = %+v", wr.Lines)
	}
}

func TestProcessRejectsBadRequests(t *testing.T) {
	_, ts := newTestServer(t, Config{})

	resp, err := http.Post(ts.URL+"/api/process", "application/json", strings.NewReader("not json"))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("bad body status = %d", resp.StatusCode)
	}

	resp = post(t, ts.URL+"/api/process", "no-such-session", ProcessRequest{Input: "help"})
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("unknown session status = %d", resp.StatusCode)
	}
}

func createSession(t *testing.T, url string) (CreateSessionResponse, int) {
	t.Helper()
	resp := post(t, url+"/api/sessions", "", struct{}{})
	defer resp.Body.Close()
	var out CreateSessionResponse
	if resp.StatusCode == http.StatusCreated {
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			t.Fatalf("decode: %v", err)
		}
	}
	return out, resp.StatusCode
}

func listSessions(t *testing.T, url string) []session.Info {
	t.Helper()
	resp, err := http.Get(url + "/api/sessions")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var out ListSessionsResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return out.Sessions
}

func TestSessionLifecycle(t *testing.T) {
	_, ts := newTestServer(t, Config{Registry: session.NewSessionRegistry(1, 0)})

	created, status := createSession(t, ts.URL)
	if status != http.StatusCreated {
		t.Fatalf("create status = %d", status)
	}
	if created.Session.NodeID != 1 || created.Session.Transport != session.TransportHTTP {
		t.Errorf("created %+v", created.Session)
	}

	if _, status := createSession(t, ts.URL); status != http.StatusServiceUnavailable {
		t.Errorf("second create status = %d, want 503", status)
	}

	listed := listSessions(t, ts.URL)
	ids := make([]string, len(listed))
	for i, info := range listed {
		ids[i] = info.ID
	}
	if diff := cmp.Diff([]string{created.Session.ID}, ids); diff != "" {
		t.Errorf("listed ids (-want +got):\n%s", diff)
	}

	for _, want := range []int{http.StatusNoContent, http.StatusNotFound} {
		req, _ := http.NewRequest(http.MethodDelete, ts.URL+"/api/sessions/"+created.Session.ID, nil)
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		if resp.StatusCode != want {
			t.Errorf("delete status = %d, want %d", resp.StatusCode, want)
		}
	}
	if n := len(listSessions(t, ts.URL)); n != 0 {
		t.Errorf("%d sessions left after delete", n)
	}
}

func TestSessionTracksState(t *testing.T) {
	_, ts := newTestServer(t, Config{})
	created, _ := createSession(t, ts.URL)

	body := ProcessRequest{Input: "_login guest"}
	body.State, _ = state.Encode(created.State.Enter(state.ModeLogin))
	decodeProcess(t, post(t, ts.URL+"/api/process", created.Session.ID, body))

	listed := listSessions(t, ts.URL)
	if len(listed) != 1 || listed[0].User != "guest" || listed[0].Mode != state.ModePrompt {
		t.Errorf("listed %+v", listed)
	}
}

func TestEventsStreamBackgroundOutput(t *testing.T) {
	content := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		fmt.Fprint(w, "hello from upstream")
	}))
	defer content.Close()

	_, ts := newTestServer(t, Config{Client: content.Client()})
	created, _ := createSession(t, ts.URL)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/api/events/"+created.Session.ID, nil)
	events, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("events: %v", err)
	}
	defer events.Body.Close()
	if ct := events.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("content type = %q", ct)
	}

	body := ProcessRequest{Input: "curl " + content.URL}
	body.State, _ = state.Encode(state.Default().Enter(state.ModePrompt))
	decodeProcess(t, post(t, ts.URL+"/api/process", created.Session.ID, body))

	var got []string
	scanner := bufio.NewScanner(events.Body)
	for scanner.Scan() && len(got) < 2 {
		data, ok := strings.CutPrefix(scanner.Text(), "data: ")
		if !ok {
			continue
		}
		var line output.Line
		if err := json.Unmarshal([]byte(data), &line); err != nil {
			t.Fatalf("event %q: %v", data, err)
		}
		got = append(got, line.Text)
	}
	want := []string{"fetching " + content.URL + "...", "hello from upstream"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("events (-want +got):\n%s", diff)
	}
}

func TestEventsUnknownSession(t *testing.T) {
	_, ts := newTestServer(t, Config{})
	resp, err := http.Get(ts.URL + "/api/events/missing")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d", resp.StatusCode)
	}
}

func TestWebSocketSession(t *testing.T) {
	reg := session.NewSessionRegistry(0, 0)
	_, ts := newTestServer(t, Config{Registry: reg})

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	exchange := func(input string) WSMessage {
		t.Helper()
		if err := conn.WriteJSON(WSRequest{Input: input}); err != nil {
			t.Fatalf("write: %v", err)
		}
		var msg WSMessage
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("read: %v", err)
		}
		return msg
	}

	exchange("_start_login")
	msg := exchange("_login guest")
	if msg.Type != "response" || msg.Response == nil || msg.Response.State.LoginState != state.ModePrompt {
		t.Fatalf("login reply %+v", msg)
	}

	msg = exchange("cd posts")
	if msg.Response.State.Cwd != "/posts" {
		t.Errorf("cwd = %q, want /posts", msg.Response.State.Cwd)
	}
	if infos := reg.List(); len(infos) != 1 || infos[0].Transport != session.TransportWebSocket {
		t.Errorf("registry %+v", infos)
	}

	msg = exchange("exit")
	if len(msg.Response.Lines) == 0 || msg.Response.Lines[0].Type != output.Instruction {
		t.Errorf("exit reply %+v", msg.Response.Lines)
	}
	if _, _, err := conn.ReadMessage(); !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
		t.Errorf("expected normal close, got %v", err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for len(reg.List()) != 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if n := len(reg.List()); n != 0 {
		t.Errorf("%d sessions left after exit", n)
	}
}

func TestProcessWithoutSessionNotesFetch(t *testing.T) {
	_, ts := newTestServer(t, Config{})
	promptState, _ := state.Encode(state.Default().Enter(state.ModePrompt))

	testCases := []struct {
		input      string
		wantNotice bool
	}{
		{"curl https://example.com", true},
		{"date", false},
	}
	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			wr, _ := decodeProcess(t, post(t, ts.URL+"/api/process", "", ProcessRequest{State: promptState, Input: tc.input}))
			gotNotice := len(wr.Lines) > 0 && wr.Lines[len(wr.Lines)-1].Text == detachedNotice
			if gotNotice != tc.wantNotice {
				t.Errorf("notice = %v, want %v; lines = %+v", gotNotice, tc.wantNotice, wr.Lines)
			}
		})
	}
}

func TestDeleteDuringProcess(t *testing.T) {
	_, ts := newTestServer(t, Config{Client: &http.Client{Timeout: time.Second}})
	created, _ := createSession(t, ts.URL)

	promptState, _ := state.Encode(state.Default().Enter(state.ModePrompt))
	body, _ := json.Marshal(ProcessRequest{State: promptState, Input: "curl http://127.0.0.1:1/"})
	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			req, _ := http.NewRequest(http.MethodPost, ts.URL+"/api/process", bytes.NewReader(body))
			req.Header.Set(HeaderSessionID, created.Session.ID)
			if resp, err := http.DefaultClient.Do(req); err == nil {
				resp.Body.Close()
			}
		}()
	}

	req, _ := http.NewRequest(http.MethodDelete, ts.URL+"/api/sessions/"+created.Session.ID, nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("delete status = %d", resp.StatusCode)
	}
	wg.Wait()
}
