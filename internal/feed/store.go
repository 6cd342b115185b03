package feed

import (
	"log"
	"slices"
	"sync"

	"github.com/tecnoter/ttsh/internal/state"
)

// Live is system information measured by the host rather than authored in
// the feed. Empty fields leave the feed's value in place.
type Live struct {
	Uptime      string
	LoadAverage string
	CurrentDate string
}

// Store holds the current feed snapshot. Reloads swap whole slices, so the
// slices handed to sessions are never mutated afterwards.
type Store struct {
	mu       sync.RWMutex
	path     string
	nodeName string
	fortunes []string
	feed     Feed
	live     Live
	reloads  int
}

// NewStore creates a store for the feed at path. fortunes are served in
// addition to any the feed carries; nodeName fills in a feed that names
// no node.
func NewStore(path, nodeName string, fortunes []string) *Store {
	return &Store{
		path:     path,
		nodeName: nodeName,
		fortunes: fortunes,
		feed:     Feed{}.normalised(),
	}
}

// Path returns the feed file the store reloads from.
func (s *Store) Path() string { return s.path }

// Reload reads the feed file again. On failure the previous snapshot stays.
func (s *Store) Reload() error {
	f, err := Load(s.path)
	if err != nil {
		log.Printf("ERROR: Feed reload failed, keeping previous snapshot: %v", err)
		return err
	}
	s.Set(f)
	return nil
}

// Set replaces the feed snapshot.
func (s *Store) Set(f Feed) {
	f = f.normalised()
	s.mu.Lock()
	s.feed = f
	s.reloads++
	s.mu.Unlock()
}

// Reloads reports how many snapshots have been installed.
func (s *Store) Reloads() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.reloads
}

// SetLive records freshly measured system information.
func (s *Store) SetLive(l Live) {
	s.mu.Lock()
	s.live = l
	s.mu.Unlock()
}

// Snapshot returns the current feed merged with live system information.
func (s *Store) Snapshot() Feed {
	s.mu.RLock()
	defer s.mu.RUnlock()

	f := s.feed
	if len(s.fortunes) > 0 {
		f.Fortunes = slices.Concat(f.Fortunes, s.fortunes)
	}

	info := state.DefaultSystemInfo()
	if s.nodeName != "" {
		info.NodeName = s.nodeName
	}
	overlay(&info.Uptime, f.SystemInfo.Uptime)
	overlay(&info.LoadAverage, f.SystemInfo.LoadAverage)
	overlay(&info.MotdSuggestion, f.SystemInfo.MotdSuggestion)
	overlay(&info.NodeName, f.SystemInfo.NodeName)
	overlay(&info.CurrentDate, f.SystemInfo.CurrentDate)
	overlay(&info.Bio, f.SystemInfo.Bio)
	overlay(&info.Uptime, s.live.Uptime)
	overlay(&info.LoadAverage, s.live.LoadAverage)
	overlay(&info.CurrentDate, s.live.CurrentDate)
	f.SystemInfo = info
	return f
}

func overlay(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

// Apply returns st carrying the current snapshot.
func (s *Store) Apply(st state.SessionState) state.SessionState {
	f := s.Snapshot()
	st.Posts = f.Posts
	st.Pages = f.Pages
	st.Socials = f.Socials
	st.Fortunes = f.Fortunes
	st.SystemInfo = f.SystemInfo
	return st
}
