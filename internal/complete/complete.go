// Package complete offers Tab completion and inline suggestions for the
// node shell prompt.
package complete

import (
	"strings"

	"github.com/tecnoter/ttsh/internal/state"
	"github.com/tecnoter/ttsh/internal/vfs"
)

// Commands is the completion table, in the order candidates are offered.
var Commands = []string{
	"help", "ls", "whoami", "fortune", "cowsay", "uptime", "weather", "bbs",
	"cat", "mail", "msg", "message", "clear", "matrix", "ansi", "exit", "man",
	"top", "who", "ping", "social", "date", "motd", "curl", "cd",
}

// pathCommands take a virtual path as their argument.
var pathCommands = map[string]bool{"ls": true, "cat": true, "cd": true}

// Complete returns the candidates that can replace the last token of raw.
// Each candidate carries the directory part of the token so it can be
// substituted verbatim.
func Complete(st state.SessionState, raw string) []string {
	parts := strings.Fields(raw)
	trailingSpace := strings.HasSuffix(raw, " ")

	if len(parts) == 1 && !trailingSpace {
		prefix := strings.ToLower(parts[0])
		var out []string
		for _, cmd := range Commands {
			if strings.HasPrefix(cmd, prefix) {
				out = append(out, cmd)
			}
		}
		return out
	}

	if len(parts) == 0 || !pathCommands[parts[0]] {
		return nil
	}

	token := ""
	if !trailingSpace {
		token = parts[len(parts)-1]
	}
	return Paths(st, token)
}

// Paths completes a single path fragment against the session's cwd.
func Paths(st state.SessionState, token string) []string {
	dirPart, prefix := "", token
	searchDir := st.Cwd
	if i := strings.LastIndexByte(token, '/'); i >= 0 {
		dirPart, prefix = token[:i+1], token[i+1:]
		searchDir = vfs.Resolve(st.Cwd, dirPart)
		if len(searchDir) > 1 {
			searchDir = strings.TrimSuffix(searchDir, "/")
		}
	}

	entries, ok := vfs.Members(st, searchDir)
	if !ok {
		return nil
	}
	var out []string
	for _, e := range entries {
		if strings.HasPrefix(e, prefix) {
			out = append(out, dirPart+e)
		}
	}
	return out
}

// Suggest returns the single best inline completion for text: the first
// command that strictly extends it, or for "cat"/"ls" with one argument, the
// first cwd entry or post slug extending that argument. It returns "" when
// nothing fits.
func Suggest(st state.SessionState, text string) string {
	if text == "" {
		return ""
	}
	for _, cmd := range Commands {
		if strings.HasPrefix(cmd, text) && cmd != text {
			return cmd
		}
	}

	if !strings.HasPrefix(text, "cat ") && !strings.HasPrefix(text, "ls ") {
		return ""
	}
	parts := strings.Fields(text)
	var prefix string
	switch {
	case len(parts) == 2:
		prefix = parts[1]
	case len(parts) == 1 && strings.HasSuffix(text, " "):
	default:
		return ""
	}

	entries, _ := vfs.ListDirectory(st.Cwd)
	for _, e := range entries {
		if strings.HasPrefix(e, prefix) {
			return parts[0] + " " + e
		}
	}
	for _, p := range st.Posts {
		if strings.HasPrefix(p.Slug, prefix) {
			return parts[0] + " " + p.Slug
		}
	}
	return ""
}
