package node

import (
	"strings"

	"github.com/tecnoter/ttsh/internal/complete"
	"github.com/tecnoter/ttsh/internal/output"
	"github.com/tecnoter/ttsh/internal/state"
)

// autoComplete is the x/term completion hook. Only Tab at the shell prompt
// does anything.
func (s *nodeSession) autoComplete(line string, pos int, key rune) (string, int, bool) {
	if key != '\t' {
		s.tabs = 0
		return "", 0, false
	}
	if s.st.LoginState != state.ModePrompt {
		return "", 0, false
	}

	head, tail := line[:pos], line[pos:]
	newHead, list, presses := complete.Expand(s.st, head, s.tabs)
	s.tabs = presses
	if list != nil {
		s.write(s.ps1() + line + "\n")
		s.write(renderLine(output.Of(output.AutocompleteList, strings.Join(list, "  "))))
	}
	if newHead == head {
		return "", 0, false
	}
	return newHead + tail, len(newHead), true
}
