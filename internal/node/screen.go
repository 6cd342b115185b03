package node

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/tecnoter/ttsh/internal/ansi"
	"github.com/tecnoter/ttsh/internal/fetch"
	"github.com/tecnoter/ttsh/internal/logging"
	"github.com/tecnoter/ttsh/internal/output"
	"github.com/tecnoter/ttsh/internal/state"
)

const (
	loginPrompt    = "tecnoter login: "
	passwordPrompt = "Password: "
	messagePrompt  = "Message to Admin: "
)

// PromptLabel is the uncoloured prompt for st's mode.
func PromptLabel(st state.SessionState, board string) string {
	switch st.LoginState {
	case state.ModeLogin, state.ModeUninitialized, state.ModeBoot:
		return loginPrompt
	case state.ModePassword:
		return passwordPrompt
	case state.ModeMessage:
		return messagePrompt
	case state.ModeMail:
		recipient := ""
		if st.MailRecipient != nil {
			recipient = *st.MailRecipient
		}
		return "Mail to " + recipient + ": "
	case state.ModeBBSMain, state.ModeBBSPosts, state.ModeBBSCategories:
		return fmt.Sprintf("BBS Selection (1-%d, Q to Quit, M for Menu): ", len(st.Posts))
	case state.ModePause:
		return ""
	}
	return st.CurrentUser + "@" + board + ":" + st.Cwd + "$ "
}

// Banner greets a user who has just logged in.
func Banner(user, board, date, from string) []string {
	return []string{
		fmt.Sprintf("Last login: %s from %s", date, from),
		"",
		fmt.Sprintf("Welcome to %s BBS, %s!", board, user),
		"Type 'help' to see available commands. Use Ctrl+D or 'logout' to exit.",
		"",
	}
}

// prompt returns the line prompt for the current mode.
func (s *nodeSession) prompt() string {
	switch {
	case s.st.LoginState == state.ModePrompt:
		return s.ps1()
	case s.st.LoginState == state.ModeMail || s.st.LoginState == state.ModeMessage:
		return colour("|13" + ansi.EscapePipes(PromptLabel(s.st, s.node.cfg.BoardName)))
	case s.st.LoginState.IsBBS():
		return colour("|11" + ansi.EscapePipes(PromptLabel(s.st, s.node.cfg.BoardName)))
	}
	return PromptLabel(s.st, s.node.cfg.BoardName)
}

// ps1 is the shell prompt: user@board:cwd$.
func (s *nodeSession) ps1() string {
	return colour("|10" + ansi.EscapePipes(s.st.CurrentUser) +
		"|07@|11" + ansi.EscapePipes(s.node.cfg.BoardName) +
		"|07:|09" + ansi.EscapePipes(s.st.Cwd) + "|07$ ")
}

func colour(pipe string) string {
	return string(ansi.ReplacePipeCodes([]byte(pipe + "|23")))
}

func clearScreen() string { return ansi.ClearScreen() }

func renderLine(l output.Line) string {
	return ansi.Render(l) + "\n"
}

// show writes dispatcher output and plays instructions. It reports whether
// an instruction ended the session.
func (s *nodeSession) show(ctx context.Context, lines []output.Line) bool {
	for _, l := range lines {
		switch l.Type {
		case output.ClearScreen:
			s.write(clearScreen())
		case output.Instruction:
			if s.instruction(ctx, output.ParseInstruction(l.Text)) {
				return true
			}
		default:
			s.write(renderLine(l))
		}
	}
	return false
}

func (s *nodeSession) instruction(ctx context.Context, d output.Directive) bool {
	switch d.Kind {
	case "exit":
		s.write("Terminating session...\n")
		return true
	case "matrix":
		s.matrix(ctx, d.Arg)
	case "ansi":
		s.art(ctx)
	case "open-url":
		s.write(renderLine(output.Text("Open in your browser: " + d.Arg)))
	default:
		logging.Debug("Node %d: ignoring instruction %q", s.sess.NodeID, d.Arg)
	}
	return false
}

// matrix clears the screen and rains MatrixLines lines of the mode's
// characters.
func (s *nodeSession) matrix(ctx context.Context, mode string) {
	chars := ansi.MatrixCharset(mode)
	s.write(clearScreen())
	for i := 0; i < MatrixLines; i++ {
		s.write(ansi.MatrixLine(chars, MatrixWidth, s.node.cfg.Intn) + "\n")
		if !sleep(ctx, s.node.cfg.FrameDelay) {
			return
		}
	}
}

// art shows a random piece from the art sources, or the colour test when
// none can be fetched.
func (s *nodeSession) art(ctx context.Context) {
	piece, err := s.node.fetchArt(ctx)
	if err != nil {
		s.node.log.Printf("WARN: Node %d: ANSI art unavailable: %v", s.sess.NodeID, err)
		s.write(strings.Join(ansi.ColourTest(), "\n") + "\n")
		return
	}
	s.write(clearScreen() + piece + "\n")
}

func (n *Node) fetchArt(ctx context.Context) (string, error) {
	if len(n.cfg.ArtSources) == 0 {
		return "", fmt.Errorf("no art sources configured")
	}
	return fetch.Art(ctx, n.cfg.Client, n.cfg.ArtSources[n.cfg.Intn(len(n.cfg.ArtSources))])
}

// sleep waits d, reporting false if ctx ends first.
func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

func trimmed(s string) string { return strings.TrimSpace(s) }

func firstWord(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return ""
	}
	return strings.ToLower(fields[0])
}
