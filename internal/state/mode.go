package state

import (
	"encoding/json"
	"fmt"
)

// Mode is the session's input-routing mode. The set is closed: decoding an
// unknown tag fails instead of producing an unroutable session.
type Mode int

const (
	// ModeUninitialized is the mode of a fresh session before the boot banner.
	ModeUninitialized Mode = iota
	// ModeBoot is set once the boot banner has been shown.
	ModeBoot
	// ModeLogin waits for a username.
	ModeLogin
	// ModePassword waits for the admin password.
	ModePassword
	// ModePrompt is the authenticated shell prompt.
	ModePrompt
	// ModeMail captures a mail body for MailRecipient.
	ModeMail
	// ModeMessage captures a message body.
	ModeMessage
	// ModePause waits for any key, then resumes ReturnState.
	ModePause
	// ModeBBSMain is the BBS main menu.
	ModeBBSMain
	// ModeBBSPosts is the BBS post list, filtered by Cwd.
	ModeBBSPosts
	// ModeBBSCategories is the BBS category (message area) list.
	ModeBBSCategories
)

var modeTags = [...]string{
	ModeUninitialized: "UNINITIALIZED",
	ModeBoot:          "BOOT",
	ModeLogin:         "LOGIN",
	ModePassword:      "PASSWORD",
	ModePrompt:        "PROMPT",
	ModeMail:          "MAIL",
	ModeMessage:       "MESSAGE",
	ModePause:         "BBS_PAUSE",
	ModeBBSMain:       "BBS_MAIN",
	ModeBBSPosts:      "BBS_POSTS",
	ModeBBSCategories: "BBS_CATEGORIES",
}

// modes lists every mode in declaration order.
func modes() []Mode {
	modes := make([]Mode, len(modeTags))
	for i := range modeTags {
		modes[i] = Mode(i)
	}
	return modes
}

// String returns the wire tag for m.
func (m Mode) String() string {
	if m < 0 || int(m) >= len(modeTags) {
		return fmt.Sprintf("Mode(%d)", int(m))
	}
	return modeTags[m]
}

// ParseMode maps a wire tag back to its Mode.
func ParseMode(tag string) (Mode, error) {
	for i, t := range modeTags {
		if t == tag {
			return Mode(i), nil
		}
	}
	return ModeUninitialized, fmt.Errorf("unknown session mode %q", tag)
}

// IsBBS reports whether m is one of the BBS navigation screens. Pause is not
// included: it is handled before any BBS routing.
func (m Mode) IsBBS() bool {
	return m == ModeBBSMain || m == ModeBBSPosts || m == ModeBBSCategories
}

// IsResumable reports whether m is a legal pause return target.
func (m Mode) IsResumable() bool {
	return m == ModeBBSMain || m == ModeBBSPosts || m == ModePrompt
}

// MarshalJSON encodes the mode as its wire tag.
func (m Mode) MarshalJSON() ([]byte, error) {
	if m < 0 || int(m) >= len(modeTags) {
		return nil, fmt.Errorf("cannot encode invalid mode %d", int(m))
	}
	return json.Marshal(modeTags[m])
}

// UnmarshalJSON decodes a wire tag.
func (m *Mode) UnmarshalJSON(data []byte) error {
	var tag string
	if err := json.Unmarshal(data, &tag); err != nil {
		return fmt.Errorf("session mode must be a string: %w", err)
	}
	parsed, err := ParseMode(tag)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
