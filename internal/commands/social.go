package commands

import (
	"fmt"
	"strings"

	"github.com/tecnoter/ttsh/internal/state"
)

// SocialResult is either text to display or a URL the host should open.
type SocialResult struct {
	Text string
	URL  string
}

// Social lists the configured networks, or resolves one by name
// (case-insensitive) to its URL.
func Social(st state.SessionState, args []string) SocialResult {
	if len(args) == 0 {
		var b strings.Builder
		b.WriteString("Connected Social Networks:\n")
		if len(st.Socials) == 0 {
			b.WriteString(" No social networks configured.")
			return SocialResult{Text: b.String()}
		}
		for _, s := range st.Socials {
			fmt.Fprintf(&b, " - %s: %s\n", s.Name, s.URL)
		}
		b.WriteString("\nUsage: social [network] to open in a new link.")
		return SocialResult{Text: b.String()}
	}

	network := strings.ToLower(args[0])
	for _, s := range st.Socials {
		if strings.ToLower(s.Name) == network {
			return SocialResult{URL: s.URL}
		}
	}
	return SocialResult{Text: fmt.Sprintf("Social network not found: %s", network)}
}
