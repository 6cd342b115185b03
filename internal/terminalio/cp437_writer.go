// Package terminalio adapts session output to the character set a remote
// terminal expects.
package terminalio

import (
	"io"
	"strings"
	"sync"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// OutputMode is the character encoding a terminal is written in.
type OutputMode int

const (
	OutputModeUTF8  OutputMode = iota // UTF-8 passthrough
	OutputModeCP437                   // IBM PC code page 437
)

// ParseOutputMode maps a config value to a mode; anything but "cp437"
// means UTF-8.
func ParseOutputMode(s string) OutputMode {
	if strings.EqualFold(strings.TrimSpace(s), "cp437") {
		return OutputModeCP437
	}
	return OutputModeUTF8
}

func (m OutputMode) String() string {
	if m == OutputModeCP437 {
		return "cp437"
	}
	return "utf8"
}

// NewWriter wraps w so text written to it arrives in mode's encoding.
func NewWriter(w io.Writer, mode OutputMode) io.Writer {
	if mode == OutputModeCP437 {
		return NewSelectiveCP437Writer(w)
	}
	return w
}

// ansiState tracks the parser state for escape sequences.
type ansiState int

const (
	ansiStateGround ansiState = iota // Normal text
	ansiStateEscape                  // Saw ESC
	ansiStateCSI                     // Saw ESC [
)

// SelectiveCP437Writer encodes UTF-8 text to CP437 while passing escape
// sequences through unmodified. Runes with no CP437 form are written as
// '?'. Sequences and runes split across writes are carried over.
type SelectiveCP437Writer struct {
	mu      sync.Mutex
	w       io.Writer
	state   ansiState
	pending []byte // incomplete UTF-8 rune from the previous write
}

// NewSelectiveCP437Writer creates a CP437 writer over w.
func NewSelectiveCP437Writer(w io.Writer) *SelectiveCP437Writer {
	return &SelectiveCP437Writer{w: w}
}

// Write implements io.Writer. It reports len(p) on success because every
// input byte is consumed even when fewer bytes reach the terminal.
func (sw *SelectiveCP437Writer) Write(p []byte) (int, error) {
	sw.mu.Lock()
	defer sw.mu.Unlock()

	data := p
	if len(sw.pending) > 0 {
		data = append(append([]byte{}, sw.pending...), p...)
		sw.pending = sw.pending[:0]
	}

	out := make([]byte, 0, len(data))
	for i := 0; i < len(data); {
		b := data[i]
		switch sw.state {
		case ansiStateEscape:
			out = append(out, b)
			i++
			if b == '[' {
				sw.state = ansiStateCSI
			} else {
				sw.state = ansiStateGround
			}
			continue
		case ansiStateCSI:
			out = append(out, b)
			i++
			if b >= '@' && b <= '~' {
				sw.state = ansiStateGround
			}
			continue
		}

		if b == 0x1B {
			out = append(out, b)
			sw.state = ansiStateEscape
			i++
			continue
		}
		if b < utf8.RuneSelf {
			out = append(out, b)
			i++
			continue
		}
		if !utf8.FullRune(data[i:]) {
			sw.pending = append(sw.pending, data[i:]...)
			break
		}
		r, size := utf8.DecodeRune(data[i:])
		if enc, ok := charmap.CodePage437.EncodeRune(r); ok && r != utf8.RuneError {
			out = append(out, enc)
		} else {
			out = append(out, '?')
		}
		i += size
	}

	if len(out) > 0 {
		if _, err := sw.w.Write(out); err != nil {
			return 0, err
		}
	}
	return len(p), nil
}
