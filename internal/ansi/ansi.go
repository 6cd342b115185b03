// Package ansi turns display lines into terminal bytes: pipe colour codes,
// lineType styling, CP437 art decoding and the small effects the node
// plays (colour test, matrix rain).
package ansi

import (
	"bytes"
	"fmt"
	"strings"

	"golang.org/x/text/encoding/charmap"
)

// Pipe colour codes, DOS palette order.
var pipeCodeReplacements = map[string]string{
	"|00": "\x1B[0;30m", // Black
	"|01": "\x1B[0;34m", // Blue
	"|02": "\x1B[0;32m", // Green
	"|03": "\x1B[0;36m", // Cyan
	"|04": "\x1B[0;31m", // Red
	"|05": "\x1B[0;35m", // Magenta
	"|06": "\x1B[0;33m", // Brown
	"|07": "\x1B[0;37m", // Light Gray
	"|08": "\x1B[1;30m", // Dark Gray
	"|09": "\x1B[1;34m", // Light Blue
	"|10": "\x1B[1;32m", // Light Green
	"|11": "\x1B[1;36m", // Light Cyan
	"|12": "\x1B[1;31m", // Light Red
	"|13": "\x1B[1;35m", // Light Magenta
	"|14": "\x1B[1;33m", // Yellow
	"|15": "\x1B[1;37m", // White

	"|B0": "\x1B[40m",
	"|B1": "\x1B[41m",
	"|B2": "\x1B[42m",
	"|B3": "\x1B[43m",
	"|B4": "\x1B[44m",
	"|B5": "\x1B[45m",
	"|B6": "\x1B[46m",
	"|B7": "\x1B[47m",

	"|CL": "\x1B[2J\x1B[H", // Clear screen and home cursor
	"|DE": "\x1B[K",        // Clear to end of line
	"|23": "\x1B[0m",       // Reset attributes
}

// ReplacePipeCodes expands |XX codes into ANSI sequences. "||" is a literal
// pipe; a pipe not starting a known code passes through.
func ReplacePipeCodes(data []byte) []byte {
	var buf bytes.Buffer
	i := 0
	dataLen := len(data)

	for i < dataLen {
		if data[i] == '|' && i+1 < dataLen && data[i+1] == '|' {
			buf.WriteByte('|')
			i += 2
			continue
		}

		if data[i] == '|' && i+2 < dataLen {
			code := string(data[i : i+3])
			if replacement, ok := pipeCodeReplacements[code]; ok {
				buf.WriteString(replacement)
				i += 3
				continue
			}
		}

		buf.WriteByte(data[i])
		i++
	}
	return buf.Bytes()
}

// EscapePipes doubles every pipe so text survives ReplacePipeCodes verbatim.
func EscapePipes(s string) string {
	return strings.ReplaceAll(s, "|", "||")
}

// ClearScreen clears the display and homes the cursor.
func ClearScreen() string {
	return "\x1B[2J\x1B[H"
}

// MoveCursor positions the cursor; rows and columns are 1-indexed.
func MoveCursor(row, col int) string {
	return fmt.Sprintf("\x1B[%d;%dH", row, col)
}

// ansiEnd returns the index just past the escape sequence starting at
// data[start], which must be ESC.
func ansiEnd(data []byte, start int) int {
	if start+1 >= len(data) {
		return start + 1
	}
	i := start + 1
	switch data[i] {
	case '[':
		i++
		for i < len(data) {
			c := data[i]
			i++
			if c >= '@' && c <= '~' {
				return i
			}
			if i-start > 32 {
				return i
			}
		}
		return i
	case '(', ')':
		if start+2 < len(data) {
			return start + 3
		}
		return start + 2
	}
	return start + 2
}

// StripAnsi removes escape sequences from s.
func StripAnsi(s string) string {
	data := []byte(s)
	var out strings.Builder
	for i := 0; i < len(data); {
		if data[i] == 0x1B {
			i = ansiEnd(data, i)
			continue
		}
		out.WriteByte(data[i])
		i++
	}
	return out.String()
}

// stripSAUCE removes a trailing SAUCE record, and the EOF marker before it,
// from ANSI art.
func stripSAUCE(data []byte) []byte {
	const sauceSize = 128
	const eofMarker = 0x1A

	if len(data) < sauceSize {
		return data
	}

	sauceStart := len(data) - sauceSize
	if !bytes.HasPrefix(data[sauceStart:], []byte("SAUCE")) {
		return data
	}

	// Comment blocks may sit between the marker and the record.
	for i := sauceStart - 1; i >= 0 && sauceStart-i <= 65536; i-- {
		if data[i] == eofMarker {
			return data[:i]
		}
	}
	return data[:sauceStart]
}

// CP437BytesToUTF8 converts raw CP437 bytes to UTF-8, passing escape
// sequences through untouched.
func CP437BytesToUTF8(data []byte) []byte {
	out := make([]byte, 0, len(data)*2)
	for i := 0; i < len(data); {
		b := data[i]
		if b == 0x1B {
			end := ansiEnd(data, i)
			out = append(out, data[i:end]...)
			i = end
			continue
		}
		if b < 0x80 {
			out = append(out, b)
		} else {
			out = append(out, string(charmap.CodePage437.DecodeByte(b))...)
		}
		i++
	}
	return out
}

// DecodeArt prepares a downloaded .ans file for a UTF-8 terminal: SAUCE is
// dropped, CP437 is decoded, line endings are normalised to LF and the
// attributes are reset at the end.
func DecodeArt(data []byte) string {
	data = stripSAUCE(data)
	if i := bytes.IndexByte(data, 0x1A); i >= 0 {
		data = data[:i]
	}
	text := string(CP437BytesToUTF8(data))
	text = strings.ReplaceAll(text, "\r\n", "\n")
	return strings.TrimRight(text, "\n") + "\x1B[0m"
}
