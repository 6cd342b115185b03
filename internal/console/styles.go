package console

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/tecnoter/ttsh/internal/ansi"
	"github.com/tecnoter/ttsh/internal/output"
)

// DOS palette indices mapped to ANSI 256-colour indices, in pipe-code order.
var dosColors = [16]string{
	"0",  // 0:  Black
	"4",  // 1:  Blue
	"2",  // 2:  Green
	"6",  // 3:  Cyan
	"1",  // 4:  Red
	"5",  // 5:  Magenta
	"3",  // 6:  Brown
	"7",  // 7:  Light Gray
	"8",  // 8:  Dark Gray
	"12", // 9:  Light Blue
	"10", // 10: Light Green
	"14", // 11: Light Cyan
	"9",  // 12: Light Red
	"13", // 13: Light Magenta
	"11", // 14: Yellow
	"15", // 15: White
}

// dosFg is a foreground-only style for a DOS palette index.
func dosFg(n int) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(dosColors[n&0x0F]))
}

var (
	userStyle   = dosFg(10)
	boardStyle  = dosFg(11)
	cwdStyle    = dosFg(9)
	plainStyle  = dosFg(7)
	promptStyle = dosFg(13)
	bbsStyle    = dosFg(11)
	titleStyle  = dosFg(14).Bold(true)
)

// styleFor is the style a line type is drawn in, following the pipe colour
// the terminal renderer uses for it.
func styleFor(t output.Type) lipgloss.Style {
	code := strings.TrimPrefix(ansi.ColorFor(t), "|")
	n, err := strconv.Atoi(code)
	if err != nil {
		return plainStyle
	}
	return dosFg(n)
}

// renderLine styles each physical line of l.
func renderLine(l output.Line) []string {
	style := styleFor(l.Type)
	parts := strings.Split(l.Text, "\n")
	for i, p := range parts {
		if p != "" {
			parts[i] = style.Render(p)
		}
	}
	return parts
}
