package console

// historySize bounds the remembered lines, as the remote line editor does.
const historySize = 100

// history holds submitted lines for ArrowUp/ArrowDown recall. pos is the
// entry shown; len(entries) means the blank line after the newest.
type history struct {
	entries []string
	pos     int
}

// add records line as the newest entry and resets recall. Blank lines and
// repeats of the newest entry are skipped.
func (h *history) add(line string) {
	if line != "" && (len(h.entries) == 0 || h.entries[len(h.entries)-1] != line) {
		h.entries = append(h.entries, line)
		if over := len(h.entries) - historySize; over > 0 {
			h.entries = h.entries[over:]
		}
	}
	h.pos = len(h.entries)
}

// prev steps back one entry, stopping at the oldest.
func (h *history) prev() (string, bool) {
	if len(h.entries) == 0 {
		return "", false
	}
	h.pos = max(h.pos-1, 0)
	return h.entries[h.pos], true
}

// next steps forward; past the newest entry it yields a blank line.
func (h *history) next() string {
	h.pos = min(h.pos+1, len(h.entries))
	if h.pos == len(h.entries) {
		return ""
	}
	return h.entries[h.pos]
}
