// Package output defines the display lines the dispatcher returns and the
// lineType taxonomy the presentation layer keys its styling on.
package output

import (
	"fmt"
	"strings"
)

// Type is a presentation tag. The string values are part of the host
// protocol and must not change.
type Type string

const (
	Regular          Type = "regular"
	BBSBorder        Type = "bbs-border"
	BBSTitle         Type = "bbs-title"
	BBSHeader        Type = "bbs-header"
	BBSFooter        Type = "bbs-footer"
	Suggestion       Type = "suggestion"
	AutocompleteList Type = "autocomplete-list"
	ClearScreen      Type = "clearScreen"
	Instruction      Type = "internalInstruction"
)

// MultiRow tags a two-column BBS main menu row with the actions behind each
// column, e.g. "bbs-multi-row-bbs-row-r__bbs-row-c".
func MultiRow(left, right string) Type {
	return Type(fmt.Sprintf("bbs-multi-row-%s__%s", left, right))
}

// PostsRow tags row i of the post list.
func PostsRow(i int) Type { return Type(fmt.Sprintf("bbs-posts-row-%d", i)) }

// CategoryRow tags row i of the category list.
func CategoryRow(i int) Type { return Type(fmt.Sprintf("bbs-cat-row-%d", i)) }

// IsBBS reports whether t belongs to the box-drawn BBS family.
func (t Type) IsBBS() bool { return strings.HasPrefix(string(t), "bbs-") }

// Line is one display line.
type Line struct {
	Text string `json:"text"`
	Type Type   `json:"lineType"`
}

// Text returns a regular line.
func Text(s string) Line { return Line{Text: s, Type: Regular} }

// Of returns a line of the given type.
func Of(t Type, s string) Line { return Line{Text: s, Type: t} }

// Lines wraps each text in a regular line. Embedded newlines are kept; the
// host decides how to break them.
func Lines(texts ...string) []Line {
	out := make([]Line, 0, len(texts))
	for _, s := range texts {
		out = append(out, Text(s))
	}
	return out
}

// Instruction payloads interpreted by the host.
const (
	InstructionExit = "exit"
	InstructionANSI = "ansi"

	matrixPrefix  = "_MATRIX_"
	openURLPrefix = "_OPEN_URL_"
)

// Exit asks the host to terminate the session.
func Exit() Line { return Of(Instruction, InstructionExit) }

// ANSI asks the host to play its ANSI art sequence.
func ANSI() Line { return Of(Instruction, InstructionANSI) }

// Matrix asks the host to start the matrix animation in mode.
func Matrix(mode string) Line { return Of(Instruction, matrixPrefix+mode) }

// OpenURL asks the host to navigate to url.
func OpenURL(url string) Line { return Of(Instruction, openURLPrefix+url) }

// Clear asks the host to clear its display.
func Clear() Line { return Of(ClearScreen, "") }

// Directive is a decoded instruction payload.
type Directive struct {
	Kind string // "exit", "ansi", "matrix", "open-url" or "unknown"
	Arg  string
}

// ParseInstruction decodes an internalInstruction payload.
func ParseInstruction(payload string) Directive {
	switch {
	case payload == InstructionExit:
		return Directive{Kind: "exit"}
	case payload == InstructionANSI:
		return Directive{Kind: "ansi"}
	case strings.HasPrefix(payload, matrixPrefix):
		return Directive{Kind: "matrix", Arg: strings.TrimPrefix(payload, matrixPrefix)}
	case strings.HasPrefix(payload, openURLPrefix):
		return Directive{Kind: "open-url", Arg: strings.TrimPrefix(payload, openURLPrefix)}
	}
	return Directive{Kind: "unknown", Arg: payload}
}
