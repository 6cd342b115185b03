package shell

import (
	"strings"

	"github.com/tecnoter/ttsh/internal/complete"
	"github.com/tecnoter/ttsh/internal/output"
	"github.com/tecnoter/ttsh/internal/state"
)

// internalFunc handles a host-issued control command. raw is the whole input
// line; args are its fields after the command.
type internalFunc func(d *Dispatcher, st state.SessionState, raw string, args []string) ([]output.Line, state.SessionState)

// Control commands. Hosts issue these; users are not expected to type them.
const (
	CmdBoot         = "_boot"
	CmdStartLogin   = "_start_login"
	CmdLogin        = "_login"
	CmdReadInternal = "_read_internal"
	CmdSuggest      = "_suggest"
	CmdAutocomplete = "_autocomplete"
)

var bootBanner = []string{
	"TECNOTER.IO(TM) CORE SYSTEM",
	"",
	"LOADING SYSTEM MODULES...",
	"NET_STACK: TCP/IP v6 READY",
	"SSH_DAEMON: LISTENING ON PORT 22",
	"HTTP_DAEMON: READY",
	"",
	"CONNECTING TO TECNOTER NETWORK...",
	"CARRIER 14400 / ARQ / V.32bis",
	"CONNECT 14400/REL - CD 1",
	"PROTOCOL: LAP-M",
	"COMPRESSION: V.42bis",
	"",
	"*** WELCOME TO THE TECNOTER.IO NODE ***",
	"",
}

func registerInternal(registry map[string]internalFunc) {
	registry[CmdBoot] = func(_ *Dispatcher, st state.SessionState, _ string, _ []string) ([]output.Line, state.SessionState) {
		return output.Lines(bootBanner...), st.Enter(state.ModeBoot)
	}
	registry[CmdStartLogin] = func(_ *Dispatcher, st state.SessionState, _ string, _ []string) ([]output.Line, state.SessionState) {
		return nil, st.Enter(state.ModeLogin)
	}
	registry[CmdLogin] = runLogin
	registry[CmdReadInternal] = runReadInternal
	registry[CmdSuggest] = func(_ *Dispatcher, st state.SessionState, raw string, _ []string) ([]output.Line, state.SessionState) {
		text := argText(raw, CmdSuggest)
		if text == "" {
			return nil, st
		}
		return []output.Line{output.Of(output.Suggestion, complete.Suggest(st, text))}, st
	}
	registry[CmdAutocomplete] = func(_ *Dispatcher, st state.SessionState, raw string, _ []string) ([]output.Line, state.SessionState) {
		matches := complete.Complete(st, argText(raw, CmdAutocomplete))
		return []output.Line{output.Of(output.AutocompleteList, strings.Join(matches, " "))}, st
	}
}

// argText returns everything after "<cmd> " in raw, verbatim.
func argText(raw, cmd string) string {
	text, ok := strings.CutPrefix(raw, cmd+" ")
	if !ok {
		return ""
	}
	return text
}

// runLogin authenticates a username. guest lands at the prompt, bbs in the
// board and admin must supply a password.
func runLogin(_ *Dispatcher, st state.SessionState, _ string, args []string) ([]output.Line, state.SessionState) {
	username := ""
	if len(args) > 0 {
		username = strings.ToLower(args[0])
	}

	switch username {
	case "guest":
		st.IsAuthenticated = true
		st = st.Enter(state.ModePrompt)
	case "bbs":
		st.IsAuthenticated = true
		st = st.Enter(state.ModeBBSMain)
	case "admin":
		st = st.Enter(state.ModePassword)
	default:
		return output.Lines("Login incorrect."), st
	}
	st.CurrentUser = username
	return output.Lines("\n--- ACCESS GRANTED ---"), st
}

func runReadInternal(_ *Dispatcher, st state.SessionState, _ string, args []string) ([]output.Line, state.SessionState) {
	slug := ""
	if len(args) > 0 {
		slug = args[0]
	}
	for _, p := range st.Posts {
		if p.Slug == slug {
			return []output.Line{
				output.Of(output.BBSTitle, "Reading: "+strings.ToUpper(p.Title)),
				output.Of(output.BBSBorder, strings.Repeat("-", 40)),
			}, st
		}
	}
	return nil, st
}
