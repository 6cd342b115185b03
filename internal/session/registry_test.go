package session

import (
	"errors"
	"sync"
	"testing"

	"github.com/tecnoter/ttsh/internal/state"
)

func TestRegistryRegisterAndList(t *testing.T) {
	r := NewSessionRegistry(0, 0)

	s1 := New(TransportSSH, "10.0.0.1:5000")
	s2 := New(TransportTelnet, "10.0.0.2:5000")
	if err := r.Register(s1); err != nil {
		t.Fatalf("register s1: %v", err)
	}
	if err := r.Register(s2); err != nil {
		t.Fatalf("register s2: %v", err)
	}

	active := r.ListActive()
	if len(active) != 2 {
		t.Fatalf("expected 2 sessions, got %d", len(active))
	}
	if active[0].NodeID != 1 || active[1].NodeID != 2 {
		t.Errorf("expected sorted by NodeID [1,2], got [%d,%d]", active[0].NodeID, active[1].NodeID)
	}
	if active[0].ID == active[1].ID {
		t.Error("expected unique session IDs")
	}
}

func TestRegistryReusesLowestFreeNode(t *testing.T) {
	r := NewSessionRegistry(3, 0)

	sessions := []*Session{New(TransportSSH, ""), New(TransportSSH, ""), New(TransportSSH, "")}
	for _, s := range sessions {
		if err := r.Register(s); err != nil {
			t.Fatalf("register: %v", err)
		}
	}

	if err := r.Register(New(TransportSSH, "")); !errors.Is(err, ErrNodesFull) {
		t.Fatalf("expected ErrNodesFull, got %v", err)
	}

	r.Unregister(sessions[1].ID)
	next := New(TransportTelnet, "")
	if err := r.Register(next); err != nil {
		t.Fatalf("register after free: %v", err)
	}
	if next.NodeID != 2 {
		t.Errorf("expected freed node 2, got %d", next.NodeID)
	}
	if r.GetNode(2) != next {
		t.Error("GetNode(2) should return the new session")
	}
}

func TestRegistryPerIPLimit(t *testing.T) {
	r := NewSessionRegistry(0, 2)

	a := New(TransportSSH, "192.0.2.7:1000")
	b := New(TransportTelnet, "192.0.2.7:1001")
	if err := r.Register(a); err != nil {
		t.Fatal(err)
	}
	if err := r.Register(b); err != nil {
		t.Fatal(err)
	}
	if err := r.Register(New(TransportSSH, "192.0.2.7:1002")); !errors.Is(err, ErrTooManyFromIP) {
		t.Fatalf("expected ErrTooManyFromIP, got %v", err)
	}
	if err := r.Register(New(TransportSSH, "192.0.2.8:1000")); err != nil {
		t.Errorf("other address should be admitted: %v", err)
	}

	r.Unregister(a.ID)
	if err := r.Register(New(TransportSSH, "192.0.2.7:1003")); err != nil {
		t.Errorf("slot should be free after unregister: %v", err)
	}
}

func TestRegistryUnregisterAndGet(t *testing.T) {
	r := NewSessionRegistry(0, 0)

	s1 := New(TransportHTTP, "")
	if err := r.Register(s1); err != nil {
		t.Fatal(err)
	}
	if got := r.Get(s1.ID); got != s1 {
		t.Errorf("expected session %s, got %v", s1.ID, got)
	}
	if err := r.Register(s1); err == nil {
		t.Error("expected duplicate registration to fail")
	}

	r.Unregister(s1.ID)
	r.Unregister(s1.ID)
	if len(r.ListActive()) != 0 {
		t.Fatal("expected 0 sessions after unregister")
	}
	if r.Get(s1.ID) != nil {
		t.Error("expected nil for unregistered session")
	}
}

func TestSessionInfoTracksState(t *testing.T) {
	r := NewSessionRegistry(0, 0)
	s := New(TransportConsole, "local")
	if err := r.Register(s); err != nil {
		t.Fatal(err)
	}

	st := state.Default()
	st.CurrentUser = "bbs"
	st.LoginState = state.ModeBBSMain
	st.Cwd = "/posts"
	s.SetState(st)

	infos := r.List()
	if len(infos) != 1 {
		t.Fatalf("expected 1 info, got %d", len(infos))
	}
	got := infos[0]
	if got.User != "bbs" || got.Mode != state.ModeBBSMain || got.Cwd != "/posts" {
		t.Errorf("unexpected info %+v", got)
	}
	if got.NodeID != 1 || got.Transport != TransportConsole {
		t.Errorf("unexpected node/transport %+v", got)
	}
}

func TestRegistryConcurrentRegister(t *testing.T) {
	r := NewSessionRegistry(50, 0)
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := r.Register(New(TransportSSH, "")); err != nil {
				t.Errorf("register: %v", err)
			}
		}()
	}
	wg.Wait()

	seen := make(map[int]bool)
	for _, s := range r.ListActive() {
		if seen[s.NodeID] {
			t.Errorf("node %d assigned twice", s.NodeID)
		}
		seen[s.NodeID] = true
	}
	if len(seen) != 50 {
		t.Errorf("expected 50 nodes, got %d", len(seen))
	}
}
