package output

import "testing"

func TestRowTypes(t *testing.T) {
	testCases := []struct {
		name string
		got  Type
		want string
	}{
		{"multi row", MultiRow("bbs-row-r", "bbs-row-c"), "bbs-multi-row-bbs-row-r__bbs-row-c"},
		{"multi row empty right", MultiRow("bbs-page-bio", ""), "bbs-multi-row-bbs-page-bio__"},
		{"posts row", PostsRow(3), "bbs-posts-row-3"},
		{"category row", CategoryRow(0), "bbs-cat-row-0"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if string(tc.got) != tc.want {
				t.Errorf("got %q, want %q", tc.got, tc.want)
			}
			if !tc.got.IsBBS() {
				t.Errorf("%q should be a BBS type", tc.got)
			}
		})
	}
	if Regular.IsBBS() || Instruction.IsBBS() {
		t.Error("non-BBS types reported as BBS")
	}
}

func TestInstructionPayloads(t *testing.T) {
	testCases := []struct {
		line Line
		text string
		kind string
		arg  string
	}{
		{Exit(), "exit", "exit", ""},
		{ANSI(), "ansi", "ansi", ""},
		{Matrix("binary"), "_MATRIX_binary", "matrix", "binary"},
		{OpenURL("https://example.com/x"), "_OPEN_URL_https://example.com/x", "open-url", "https://example.com/x"},
	}
	for _, tc := range testCases {
		t.Run(tc.text, func(t *testing.T) {
			if tc.line.Type != Instruction || tc.line.Text != tc.text {
				t.Errorf("line = %+v, want instruction %q", tc.line, tc.text)
			}
			d := ParseInstruction(tc.line.Text)
			if d.Kind != tc.kind || d.Arg != tc.arg {
				t.Errorf("ParseInstruction(%q) = %+v", tc.line.Text, d)
			}
		})
	}
	if d := ParseInstruction("reboot"); d.Kind != "unknown" || d.Arg != "reboot" {
		t.Errorf("unexpected directive for unknown payload: %+v", d)
	}
}

func TestClearAndText(t *testing.T) {
	if c := Clear(); c.Type != ClearScreen || c.Text != "" {
		t.Errorf("Clear() = %+v", c)
	}
	ls := Lines("a", "b")
	if len(ls) != 2 || ls[1] != Text("b") {
		t.Errorf("Lines() = %+v", ls)
	}
}
