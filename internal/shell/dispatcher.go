// Package shell is the node's session state machine. A Dispatcher takes one
// line of input and a session snapshot and returns the lines to display
// together with the next snapshot.
package shell

import (
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/tecnoter/ttsh/internal/bbs"
	"github.com/tecnoter/ttsh/internal/commands"
	"github.com/tecnoter/ttsh/internal/logging"
	"github.com/tecnoter/ttsh/internal/output"
	"github.com/tecnoter/ttsh/internal/state"
)

// Passwords accepted at the admin password prompt.
var passwords = []string{"admin", "password", "tecnoter"}

// Response is the result of one dispatch call.
type Response struct {
	Lines   []output.Line      `json:"lines"`
	State   state.SessionState `json:"state"`
	Handled bool               `json:"handled"`
}

// MarshalJSON encodes a response with an empty line list rather than null.
func (r Response) MarshalJSON() ([]byte, error) {
	type wire Response
	if r.Lines == nil {
		r.Lines = []output.Line{}
	}
	return json.Marshal(wire(r))
}

// Config holds the capabilities a Dispatcher is built with. Zero fields get
// defaults: no fetching, logging.Std, the wall clock and math/rand.
type Config struct {
	Fetcher commands.Fetcher
	Logger  logging.Logger
	Now     func() time.Time
	Intn    func(n int) int
}

// Dispatcher routes session input. It keeps no per-session state; a host may
// share one between sessions that share a Fetcher.
type Dispatcher struct {
	registry map[string]command
	internal map[string]internalFunc
	nav      bbs.Navigator
	fetcher  commands.Fetcher
	log      logging.Logger
	now      func() time.Time
	intn     func(n int) int
}

// New builds a Dispatcher and checks its command table is complete.
func New(cfg Config) (*Dispatcher, error) {
	d := &Dispatcher{
		registry: make(map[string]command),
		internal: make(map[string]internalFunc),
		fetcher:  cfg.Fetcher,
		log:      logging.OrStd(cfg.Logger),
		now:      cfg.Now,
		intn:     cfg.Intn,
	}
	if d.now == nil {
		d.now = time.Now
	}
	if d.intn == nil {
		d.intn = rand.IntN
	}
	d.nav = bbs.Navigator{Read: d.readItem}

	registerCommands(d.registry)
	registerInternal(d.internal)
	if err := validateRegistry(d.registry); err != nil {
		return nil, fmt.Errorf("failed to build dispatcher: %w", err)
	}
	return d, nil
}

// Process handles one line of input against st.
func (d *Dispatcher) Process(st state.SessionState, input string) Response {
	switch st.LoginState {
	case state.ModePause:
		next := st.Enter(st.ReturnState)
		return Response{Lines: bbs.Screen(next), State: next, Handled: true}

	case state.ModePassword:
		masked := output.Text("********")
		for _, p := range passwords {
			if input == p {
				st.IsAuthenticated = true
				return handled([]output.Line{masked, output.Text("Authentication successful.")}, st.Enter(state.ModePrompt))
			}
		}
		return handled([]output.Line{masked, output.Text("Login incorrect.")}, st.Enter(state.ModeLogin))

	case state.ModeMail:
		st.MailRecipient = nil
		return handled(output.Lines("Mail sent."), st.Enter(state.ModePrompt))

	case state.ModeMessage:
		return handled(output.Lines("Message sent."), st.Enter(state.ModePrompt))
	}

	fields := strings.Fields(input)
	if len(fields) == 0 {
		return Response{State: st}
	}
	name := strings.ToLower(fields[0])

	if strings.HasPrefix(name, "_") {
		if fn, ok := d.internal[name]; ok {
			lines, next := fn(d, st, input, fields[1:])
			return handled(lines, next)
		}
		logging.Debug("unknown internal command %q", name)
	}

	if st.LoginState.IsBBS() {
		if lines, next, ok := d.nav.Handle(st, input); ok {
			return handled(lines, next)
		}
	}

	cmd, ok := d.registry[name]
	if !ok {
		return Response{State: st}
	}
	inBBS := st.LoginState.IsBBS()
	lines, next := cmd.run(d, st, fields[1:])
	if cmd.pausesBBS && inBBS {
		next = next.Pause(state.ModeBBSMain)
	}
	return handled(lines, next)
}

// readItem shows one page or post, as cat does.
func (d *Dispatcher) readItem(st state.SessionState, slug string) string {
	return commands.Cat(st, []string{slug}, d.fetcher)
}

func handled(lines []output.Line, st state.SessionState) Response {
	return Response{Lines: lines, State: st, Handled: true}
}

// ProcessJSON is the serialized form of Process. A snapshot that fails to
// decode is replaced by the bootstrap session and the failure is logged.
func (d *Dispatcher) ProcessJSON(rawState []byte, input string) ([]byte, error) {
	st, err := state.Decode(rawState)
	if err != nil {
		d.log.Printf("ERROR: Critical state deserialization failure: %v", err)
	}
	resp := d.Process(st, input)
	data, err := json.Marshal(resp)
	if err != nil {
		return nil, fmt.Errorf("failed to encode response: %w", err)
	}
	return data, nil
}
