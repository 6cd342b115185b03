package complete

import (
	"strings"

	"github.com/tecnoter/ttsh/internal/state"
	"github.com/tecnoter/ttsh/internal/vfs"
)

// Expand applies one Tab press to head, the text before the cursor. One
// candidate replaces the word, followed by "/" for a directory and " "
// otherwise. Several candidates extend the word to their common prefix;
// when that gains nothing, the second consecutive press returns their base
// names to list. presses counts earlier fruitless presses and the updated
// count is returned.
func Expand(st state.SessionState, head string, presses int) (string, []string, int) {
	matches := Complete(st, head)
	word := lastWord(head)
	base := head[:len(head)-len(word)]

	switch len(matches) {
	case 0:
		return head, nil, 0
	case 1:
		suffix := " "
		if !isCommandWord(head) {
			if _, dir := vfs.Members(st, vfs.Resolve(st.Cwd, matches[0])); dir {
				suffix = "/"
			}
		}
		return base + matches[0] + suffix, nil, 0
	}

	if prefix := commonPrefix(matches); len(prefix) > len(word) {
		return base + prefix, nil, 0
	}
	presses++
	if presses < 2 {
		return head, nil, presses
	}
	names := make([]string, len(matches))
	for i, m := range matches {
		names[i] = m[strings.LastIndexByte(m, '/')+1:]
	}
	return head, names, 0
}

// lastWord is the token the cursor sits in; empty after a space.
func lastWord(head string) string {
	if i := strings.LastIndexByte(head, ' '); i >= 0 {
		return head[i+1:]
	}
	return head
}

func isCommandWord(head string) bool {
	return !strings.Contains(strings.TrimLeft(head, " "), " ")
}

func commonPrefix(words []string) string {
	prefix := words[0]
	for _, w := range words[1:] {
		for !strings.HasPrefix(w, prefix) {
			prefix = prefix[:len(prefix)-1]
		}
	}
	return prefix
}
