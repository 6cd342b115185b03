package ansi

import (
	"math/rand/v2"
	"strings"

	"github.com/tecnoter/ttsh/internal/output"
)

// ColorFor returns the pipe colour a line type is drawn in.
func ColorFor(t output.Type) string {
	s := string(t)
	switch {
	case t == output.BBSBorder:
		return "|09"
	case t == output.BBSTitle:
		return "|14"
	case t == output.BBSHeader:
		return "|11"
	case t == output.BBSFooter:
		return "|08"
	case strings.HasPrefix(s, "bbs-multi-row-"):
		return "|15"
	case strings.HasPrefix(s, "bbs-posts-row-"):
		return "|10"
	case strings.HasPrefix(s, "bbs-cat-row-"):
		return "|13"
	case t == output.Suggestion:
		return "|08"
	case t == output.AutocompleteList:
		return "|03"
	}
	return "|07"
}

// Render colours one display line. Embedded newlines are kept; every
// physical line is coloured and reset on its own so a terminal that wraps
// or scrolls between them keeps the right attributes.
func Render(l output.Line) string {
	color := ColorFor(l.Type)
	parts := strings.Split(l.Text, "\n")
	for i, p := range parts {
		if p == "" {
			continue
		}
		parts[i] = string(ReplacePipeCodes([]byte(color + EscapePipes(p) + "|23")))
	}
	return strings.Join(parts, "\n")
}

// ColourTest returns the palette sample the ansi instruction falls back to.
func ColourTest() []string {
	names := []string{
		"Black", "Blue", "Green", "Cyan", "Red", "Magenta", "Brown", "Light Gray",
		"Dark Gray", "Light Blue", "Light Green", "Light Cyan", "Light Red", "Light Magenta", "Yellow", "White",
	}
	lines := make([]string, 0, len(names)/2+1)
	lines = append(lines, string(ReplacePipeCodes([]byte("|14ANSI colour test|23"))))
	for i := 0; i < len(names); i += 2 {
		row := pipeCode(i) + padRight(names[i], 20) + pipeCode(i+1) + names[i+1] + "|23"
		lines = append(lines, string(ReplacePipeCodes([]byte(row))))
	}
	return lines
}

func pipeCode(n int) string {
	return "|" + string(rune('0'+n/10)) + string(rune('0'+n%10))
}

func padRight(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}

// Matrix character sets by mode.
var matrixCharsets = map[string]string{
	"binary":   "01",
	"ascii":    "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789$#@%&",
	"hex":      "0123456789ABCDEF",
	"tecnoter": "░▒▓█",
}

// MatrixCharset returns the characters a matrix mode draws from; unknown
// modes draw binary.
func MatrixCharset(mode string) []rune {
	chars, ok := matrixCharsets[mode]
	if !ok {
		chars = matrixCharsets["binary"]
	}
	return []rune(chars)
}

// MatrixLine returns one rain line of width characters, green.
func MatrixLine(chars []rune, width int, intn func(int) int) string {
	if intn == nil {
		intn = rand.IntN
	}
	var b strings.Builder
	b.WriteString("\x1B[0;32m")
	for i := 0; i < width; i++ {
		b.WriteRune(chars[intn(len(chars))])
	}
	b.WriteString("\x1B[0m")
	return b.String()
}
