package shell

import (
	"fmt"
	"strings"

	"github.com/tecnoter/ttsh/internal/bbs"
	"github.com/tecnoter/ttsh/internal/commands"
	"github.com/tecnoter/ttsh/internal/output"
	"github.com/tecnoter/ttsh/internal/state"
)

// CommandFunc runs one entry of the command table. args excludes the
// command name.
type CommandFunc func(d *Dispatcher, st state.SessionState, args []string) ([]output.Line, state.SessionState)

// command is a registered handler. pausesBBS commands drop a BBS session into
// a pause so the screen is redrawn on the next keystroke.
type command struct {
	run       CommandFunc
	pausesBBS bool
}

// CommandNames is the documented command table. New refuses to build a
// dispatcher that lacks a handler for any of them.
var CommandNames = []string{
	"help", "ls", "cd", "cat", "whoami", "fortune", "cowsay", "uptime",
	"weather", "climate", "top", "who", "date", "motd", "social", "curl",
	"man", "bbs", "mail", "msg", "message", "clear", "matrix", "ansi",
	"exit", "ping",
}

// text adapts a handler producing one block of text.
func text(fn func(d *Dispatcher, st state.SessionState, args []string) string) CommandFunc {
	return func(d *Dispatcher, st state.SessionState, args []string) ([]output.Line, state.SessionState) {
		return output.Lines(fn(d, st, args)), st
	}
}

// registerCommands fills registry with the standard command table.
func registerCommands(registry map[string]command) {
	registry["help"] = command{run: text(func(*Dispatcher, state.SessionState, []string) string { return commands.Help() })}
	registry["ping"] = command{run: text(func(*Dispatcher, state.SessionState, []string) string { return commands.Ping() })}
	registry["ls"] = command{run: text(func(_ *Dispatcher, st state.SessionState, args []string) string { return commands.Ls(st, args) })}
	registry["cd"] = command{run: runCd}
	registry["cat"] = command{run: text(func(d *Dispatcher, st state.SessionState, args []string) string {
		return commands.Cat(st, args, d.fetcher)
	})}
	registry["curl"] = command{run: text(func(d *Dispatcher, st state.SessionState, args []string) string {
		return commands.Curl(st, args, d.fetcher)
	})}
	registry["whoami"] = command{run: text(func(_ *Dispatcher, st state.SessionState, _ []string) string { return commands.Whoami(st) })}
	registry["fortune"] = command{pausesBBS: true, run: text(func(d *Dispatcher, st state.SessionState, _ []string) string {
		return commands.Fortune(st, d.intn)
	})}
	registry["cowsay"] = command{pausesBBS: true, run: text(func(*Dispatcher, state.SessionState, []string) string { return commands.Cowsay() })}
	registry["uptime"] = command{pausesBBS: true, run: text(func(_ *Dispatcher, st state.SessionState, _ []string) string { return commands.Uptime(st) })}
	weather := command{pausesBBS: true, run: text(func(*Dispatcher, state.SessionState, []string) string { return commands.Weather() })}
	registry["weather"] = weather
	registry["climate"] = weather
	registry["top"] = command{run: text(func(*Dispatcher, state.SessionState, []string) string { return commands.Top() })}
	registry["who"] = command{run: text(func(*Dispatcher, state.SessionState, []string) string { return commands.Who() })}
	registry["date"] = command{run: text(func(d *Dispatcher, _ state.SessionState, _ []string) string { return commands.Date(d.now()) })}
	registry["motd"] = command{run: text(func(_ *Dispatcher, st state.SessionState, _ []string) string { return commands.Motd(st) })}
	registry["man"] = command{run: text(func(_ *Dispatcher, _ state.SessionState, args []string) string { return commands.Man(args) })}
	registry["social"] = command{run: runSocial}
	registry["bbs"] = command{run: runBBS}
	registry["mail"] = command{run: runMail}
	message := command{run: func(_ *Dispatcher, st state.SessionState, _ []string) ([]output.Line, state.SessionState) {
		return nil, st.Enter(state.ModeMessage)
	}}
	registry["msg"] = message
	registry["message"] = message
	registry["clear"] = command{run: instruction(func([]string) output.Line { return output.Clear() })}
	registry["matrix"] = command{run: instruction(func(args []string) output.Line {
		mode := "binary"
		if len(args) > 0 {
			mode = args[0]
		}
		return output.Matrix(mode)
	})}
	registry["ansi"] = command{run: instruction(func([]string) output.Line { return output.ANSI() })}
	registry["exit"] = command{run: instruction(func([]string) output.Line { return output.Exit() })}
}

// validateRegistry reports every documented command without a handler.
func validateRegistry(registry map[string]command) error {
	var missing []string
	for _, name := range CommandNames {
		if c, ok := registry[name]; !ok || c.run == nil {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("command table incomplete, missing: %s", strings.Join(missing, ", "))
	}
	return nil
}

func instruction(fn func(args []string) output.Line) CommandFunc {
	return func(_ *Dispatcher, st state.SessionState, args []string) ([]output.Line, state.SessionState) {
		return []output.Line{fn(args)}, st
	}
}

func runCd(_ *Dispatcher, st state.SessionState, args []string) ([]output.Line, state.SessionState) {
	res := commands.Cd(st, args)
	st.Cwd = res.Path
	if res.Message == "" {
		return nil, st
	}
	return output.Lines(res.Message), st
}

func runSocial(_ *Dispatcher, st state.SessionState, args []string) ([]output.Line, state.SessionState) {
	res := commands.Social(st, args)
	if res.URL != "" {
		return []output.Line{
			output.Text(fmt.Sprintf("Opening uplink to %s...", res.URL)),
			output.OpenURL(res.URL),
		}, st
	}
	return output.Lines(res.Text), st
}

func runBBS(_ *Dispatcher, st state.SessionState, args []string) ([]output.Line, state.SessionState) {
	sub := ""
	if len(args) > 0 {
		sub = args[0]
	}
	return bbs.Enter(st, sub)
}

func runMail(_ *Dispatcher, st state.SessionState, args []string) ([]output.Line, state.SessionState) {
	if len(args) == 0 {
		return output.Lines("Usage: mail [username]"), st
	}
	recipient := args[0]
	st.MailRecipient = &recipient
	return nil, st.Enter(state.ModeMail)
}
