package ansi

import (
	"strings"
	"testing"

	"github.com/tecnoter/ttsh/internal/output"
)

func TestReplacePipeCodes(t *testing.T) {
	testCases := []struct {
		name  string
		input string
		want  string
	}{
		{name: "colour", input: "|12hot|23", want: "\x1B[1;31mhot\x1B[0m"},
		{name: "escaped pipe", input: "a||b", want: "a|b"},
		{name: "unknown code passes", input: "|ZZ|", want: "|ZZ|"},
		{name: "background", input: "|B1x", want: "\x1B[41mx"},
		{name: "trailing pipe", input: "end|", want: "end|"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := string(ReplacePipeCodes([]byte(tc.input))); got != tc.want {
				t.Errorf("ReplacePipeCodes(%q) = %q, want %q", tc.input, got, tc.want)
			}
		})
	}
}

func TestStripAnsi(t *testing.T) {
	in := "\x1B[1;32mgreen\x1B[0m \x1B(Bplain"
	if got := StripAnsi(in); got != "green plain" {
		t.Errorf("StripAnsi() = %q", got)
	}
}

func TestRender(t *testing.T) {
	testCases := []struct {
		name string
		line output.Line
		want string
	}{
		{
			name: "regular",
			line: output.Text("hello"),
			want: "\x1B[0;37mhello\x1B[0m",
		},
		{
			name: "pipes in text stay literal",
			line: output.Text("a|12b"),
			want: "\x1B[0;37ma|12b\x1B[0m",
		},
		{
			name: "title",
			line: output.Of(output.BBSTitle, "T"),
			want: "\x1B[1;33mT\x1B[0m",
		},
		{
			name: "multiline keeps blank lines",
			line: output.Of(output.PostsRow(2), "x\n\ny"),
			want: "\x1B[1;32mx\x1B[0m\n\n\x1B[1;32my\x1B[0m",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Render(tc.line); got != tc.want {
				t.Errorf("Render() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestColorFor(t *testing.T) {
	testCases := []struct {
		t    output.Type
		want string
	}{
		{t: output.Regular, want: "|07"},
		{t: output.BBSBorder, want: "|09"},
		{t: output.MultiRow("bbs-row-r", "bbs-row-c"), want: "|15"},
		{t: output.CategoryRow(1), want: "|13"},
		{t: output.AutocompleteList, want: "|03"},
		{t: output.Type("something-new"), want: "|07"},
	}

	for _, tc := range testCases {
		t.Run(string(tc.t), func(t *testing.T) {
			if got := ColorFor(tc.t); got != tc.want {
				t.Errorf("ColorFor(%s) = %s, want %s", tc.t, got, tc.want)
			}
		})
	}
}

func TestColourTest(t *testing.T) {
	lines := ColourTest()
	if len(lines) != 9 {
		t.Fatalf("expected 9 lines, got %d", len(lines))
	}
	if !strings.Contains(StripAnsi(lines[8]), "Yellow") || !strings.Contains(StripAnsi(lines[8]), "White") {
		t.Errorf("last row %q", StripAnsi(lines[8]))
	}
	if strings.Contains(lines[1], "|") {
		t.Errorf("unexpanded pipe code in %q", lines[1])
	}
}

func TestMatrix(t *testing.T) {
	if got := string(MatrixCharset("hex")); got != "0123456789ABCDEF" {
		t.Errorf("hex charset %q", got)
	}
	if got := string(MatrixCharset("nope")); got != "01" {
		t.Errorf("fallback charset %q", got)
	}

	line := MatrixLine(MatrixCharset("tecnoter"), 80, func(n int) int { return n - 1 })
	plain := StripAnsi(line)
	if plain != strings.Repeat("█", 80) {
		t.Errorf("unexpected rain %q", plain)
	}
}
