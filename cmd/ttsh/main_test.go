package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/tecnoter/ttsh/internal/config"
	"github.com/tecnoter/ttsh/internal/feed"
	"github.com/tecnoter/ttsh/internal/scheduler"
	"github.com/tecnoter/ttsh/internal/state"
)

type execResponse struct {
	Lines []struct {
		Text string `json:"text"`
		Type string `json:"lineType"`
	} `json:"lines"`
	State   json.RawMessage `json:"state"`
	Handled bool            `json:"handled"`
}

func TestDispatchOnce(t *testing.T) {
	prompt, err := state.Encode(state.Default().Enter(state.ModePrompt))
	if err != nil {
		t.Fatal(err)
	}

	testCases := []struct {
		name        string
		state       []byte
		input       string
		wantHandled bool
		wantText    string
		wantMode    state.Mode
	}{
		{
			name:        "boot from a fresh session",
			state:       []byte("null"),
			input:       "_boot",
			wantHandled: true,
			wantText:    "WELCOME TO THE TECNOTER.IO NODE",
			wantMode:    state.ModeBoot,
		},
		{
			name:        "login as guest",
			state:       []byte("null"),
			input:       "_login guest",
			wantHandled: true,
			wantText:    "ACCESS GRANTED",
			wantMode:    state.ModePrompt,
		},
		{
			name:        "unknown command",
			state:       prompt,
			input:       "frobnicate",
			wantHandled: false,
			wantMode:    state.ModePrompt,
		},
		{
			name:        "corrupt state starts over",
			state:       []byte("{not json"),
			input:       "_login bbs",
			wantHandled: true,
			wantMode:    state.ModeBBSMain,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var out, errOut bytes.Buffer
			if err := dispatchOnce(context.Background(), tc.state, tc.input, &out, &errOut); err != nil {
				t.Fatalf("dispatchOnce: %v", err)
			}

			var resp execResponse
			if err := json.Unmarshal(out.Bytes(), &resp); err != nil {
				t.Fatalf("response is not JSON: %v\n%s", err, out.String())
			}
			if resp.Handled != tc.wantHandled {
				t.Errorf("handled = %v, want %v", resp.Handled, tc.wantHandled)
			}
			var text []string
			for _, l := range resp.Lines {
				text = append(text, l.Text)
			}
			if tc.wantText != "" && !strings.Contains(strings.Join(text, "\n"), tc.wantText) {
				t.Errorf("lines missing %q: %q", tc.wantText, text)
			}
			st, err := state.Decode(resp.State)
			if err != nil {
				t.Fatalf("state does not decode: %v", err)
			}
			if st.LoginState != tc.wantMode {
				t.Errorf("mode = %v, want %v", st.LoginState, tc.wantMode)
			}
		})
	}
}

func TestSaveStateChainsCalls(t *testing.T) {
	file := filepath.Join(t.TempDir(), "state.json")

	var out bytes.Buffer
	if err := dispatchOnce(context.Background(), []byte("null"), "_login guest", &out, io.Discard); err != nil {
		t.Fatalf("dispatchOnce: %v", err)
	}
	if err := saveState(file, out.Bytes()); err != nil {
		t.Fatalf("saveState: %v", err)
	}

	raw, err := readState(file, nil)
	if err != nil {
		t.Fatal(err)
	}
	out.Reset()
	if err := dispatchOnce(context.Background(), raw, "cd posts", &out, io.Discard); err != nil {
		t.Fatalf("dispatchOnce: %v", err)
	}
	var resp execResponse
	if err := json.Unmarshal(out.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	st, err := state.Decode(resp.State)
	if err != nil {
		t.Fatal(err)
	}
	if st.LoginState != state.ModePrompt || st.CurrentUser != "guest" || st.Cwd != "/posts" {
		t.Errorf("chained state = %s %q %q", st.LoginState, st.CurrentUser, st.Cwd)
	}

	if err := saveState(file, []byte("not json")); err == nil {
		t.Error("expected an unreadable response to be rejected")
	}
}

func TestReloadOnHangup(t *testing.T) {
	path := filepath.Join(t.TempDir(), "feed.json")
	if err := os.WriteFile(path, []byte(`{"posts":[{"title":"A","slug":"a"}]}`), 0644); err != nil {
		t.Fatal(err)
	}
	store := feed.NewStore(path, "", nil)
	sched := scheduler.NewScheduler([]scheduler.Job{scheduler.FeedReloadJob(store, "@every 1h")}, 1, "")

	ctx, cancel := context.WithCancel(context.Background())
	hup := make(chan os.Signal)
	done := make(chan struct{})
	go func() {
		reloadOnHangup(ctx, hup, sched)
		close(done)
	}()

	hup <- syscall.SIGHUP
	hup <- syscall.SIGHUP
	cancel()
	<-done

	if got := len(store.Snapshot().Posts); got != 1 {
		t.Errorf("expected 1 post after SIGHUP, got %d", got)
	}
}

func TestReadState(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "state.json")
	if err := os.WriteFile(file, []byte(`{"cwd":"/posts"}`), 0644); err != nil {
		t.Fatal(err)
	}

	testCases := []struct {
		name  string
		path  string
		stdin string
		want  string
	}{
		{name: "fresh", path: "", want: "null"},
		{name: "stdin", path: "-", stdin: `{"cwd":"/"}`, want: `{"cwd":"/"}`},
		{name: "file", path: file, want: `{"cwd":"/posts"}`},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := readState(tc.path, strings.NewReader(tc.stdin))
			if err != nil {
				t.Fatalf("readState: %v", err)
			}
			if diff := cmp.Diff(tc.want, string(got)); diff != "" {
				t.Errorf("state (-want +got):\n%s", diff)
			}
		})
	}

	if _, err := readState(filepath.Join(dir, "missing.json"), nil); err == nil {
		t.Error("expected an error for a missing file")
	}
}

func TestConfigWatcherSeesEdits(t *testing.T) {
	dir := t.TempDir()
	changed := make(chan string, 4)
	cw, err := watchConfig(dir, func(path string) { changed <- path })
	if err != nil {
		t.Fatalf("watchConfig: %v", err)
	}
	defer cw.Stop()

	if err := os.WriteFile(filepath.Join(dir, "other.json"), []byte("{}"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "config.json"), []byte(`{"boardName":"x"}`), 0644); err != nil {
		t.Fatal(err)
	}

	select {
	case path := <-changed:
		if filepath.Base(path) != "config.json" {
			t.Errorf("reported %s, want config.json", path)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("config change not reported")
	}

	cw.Stop()
	cw.Stop()
}

func TestNewSchedulerRejectsBadSchedule(t *testing.T) {
	cfg := config.DefaultServerConfig()
	cfg.HistoryPath = ""
	cfg.RefreshSchedule = "not a schedule"
	if _, err := newScheduler(cfg, nil); err == nil {
		t.Error("expected an invalid schedule to be rejected")
	}

	cfg.RefreshSchedule = "@every 30s"
	cfg.FeedReloadSchedule = "@every 5m"
	if _, err := newScheduler(cfg, nil); err != nil {
		t.Errorf("newScheduler: %v", err)
	}
}
