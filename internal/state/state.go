// Package state defines the session snapshot threaded through every dispatch
// call. Values are owned by the caller; the dispatcher returns a new value
// rather than mutating the one it was given.
package state

import (
	"encoding/json"
	"fmt"
	"slices"
)

// DefaultVersion is the software version echoed by a bootstrap session.
const DefaultVersion = "2.0.26-LNX"

// Post is content metadata for a post or page. Tags and categories are sets;
// duplicates are tolerated here and removed on enumeration.
type Post struct {
	Title      string   `json:"title" yaml:"title"`
	Slug       string   `json:"slug" yaml:"slug"`
	URL        string   `json:"url" yaml:"url"`
	Date       string   `json:"date" yaml:"date"`
	Tags       []string `json:"tags" yaml:"tags"`
	Categories []string `json:"categories" yaml:"categories"`
}

// HasTag reports whether the post carries tag.
func (p Post) HasTag(tag string) bool { return slices.Contains(p.Tags, tag) }

// HasCategory reports whether the post carries category.
func (p Post) HasCategory(category string) bool { return slices.Contains(p.Categories, category) }

// Page shares the post shape.
type Page = Post

// Social is a named external profile link.
type Social struct {
	Name string `json:"name" yaml:"name"`
	URL  string `json:"url" yaml:"url"`
}

// SystemInfo is host-supplied display data.
type SystemInfo struct {
	Uptime         string `json:"uptime" yaml:"uptime"`
	LoadAverage    string `json:"loadAverage" yaml:"loadAverage"`
	MotdSuggestion string `json:"motdSuggestion" yaml:"motdSuggestion"`
	NodeName       string `json:"nodeName" yaml:"nodeName"`
	CurrentDate    string `json:"currentDate" yaml:"currentDate"`
	Bio            string `json:"bio" yaml:"bio"`
}

// DefaultSystemInfo returns the placeholders used when the host supplies none.
func DefaultSystemInfo() SystemInfo {
	return SystemInfo{
		Uptime:         "unknown",
		LoadAverage:    "0.00",
		MotdSuggestion: "help",
		NodeName:       "node",
	}
}

// SessionState is the complete snapshot of one terminal session.
type SessionState struct {
	Cwd             string     `json:"cwd"`
	CurrentUser     string     `json:"currentUser"`
	LoginState      Mode       `json:"loginState"`
	ReturnState     Mode       `json:"returnState"`
	IsAuthenticated bool       `json:"isAuthenticated"`
	MailRecipient   *string    `json:"mailRecipient"`
	Posts           []Post     `json:"posts"`
	Pages           []Page     `json:"pages"`
	Socials         []Social   `json:"socials"`
	Fortunes        []string   `json:"fortunes"`
	SystemInfo      SystemInfo `json:"systemInfo"`
	Version         string     `json:"version"`
	Booted          bool       `json:"booted"`
	DebugMode       bool       `json:"debugMode"`
}

// Default returns the bootstrap session a caller starts from.
func Default() SessionState {
	return SessionState{
		Cwd:         "/",
		CurrentUser: "guest",
		LoginState:  ModeUninitialized,
		ReturnState: ModePrompt,
		Posts:       []Post{},
		Pages:       []Page{},
		Socials:     []Social{},
		Fortunes:    []string{},
		SystemInfo:  DefaultSystemInfo(),
		Version:     DefaultVersion,
	}
}

// Pause returns a copy of s waiting for a keypress before resuming target.
func (s SessionState) Pause(target Mode) SessionState {
	s.ReturnState = target
	s.LoginState = ModePause
	return s
}

// Enter returns a copy of s in mode m.
func (s SessionState) Enter(m Mode) SessionState {
	s.LoginState = m
	return s
}

// Validate checks a decoded snapshot is consistent.
func (s SessionState) Validate() error {
	if len(s.Cwd) == 0 || s.Cwd[0] != '/' {
		return fmt.Errorf("cwd %q is not absolute", s.Cwd)
	}
	if s.LoginState == ModePause && !s.ReturnState.IsResumable() {
		return fmt.Errorf("pause cannot resume %s", s.ReturnState)
	}
	return nil
}

// Decode parses a JSON snapshot. Fields absent from data keep their
// bootstrap defaults.
func Decode(data []byte) (SessionState, error) {
	s := Default()
	if err := json.Unmarshal(data, &s); err != nil {
		return Default(), fmt.Errorf("failed to decode session state: %w", err)
	}
	if err := s.Validate(); err != nil {
		return Default(), fmt.Errorf("invalid session state: %w", err)
	}
	return s, nil
}

// Encode serializes s for the host.
func Encode(s SessionState) ([]byte, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("failed to encode session state: %w", err)
	}
	return data, nil
}
