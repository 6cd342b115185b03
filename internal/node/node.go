// Package node runs one interactive terminal session on top of the shell
// dispatcher: boot and login, line editing with Tab completion, prompts per
// mode and the instruction effects (matrix rain, ANSI art) a browser host
// would play.
package node

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"net"
	"net/http"
	"strings"
	"time"

	"golang.org/x/term"

	"github.com/tecnoter/ttsh/internal/feed"
	"github.com/tecnoter/ttsh/internal/fetch"
	"github.com/tecnoter/ttsh/internal/logging"
	"github.com/tecnoter/ttsh/internal/session"
	"github.com/tecnoter/ttsh/internal/shell"
	"github.com/tecnoter/ttsh/internal/state"
	"github.com/tecnoter/ttsh/internal/terminalio"
)

// DateLayout is how the host stamps SystemInfo.CurrentDate.
const DateLayout = "Mon Jan 02 2006"

// Matrix rain dimensions.
const (
	MatrixLines = 51
	MatrixWidth = 80
)

// DefaultFrameDelay paces the matrix animation.
const DefaultFrameDelay = 50 * time.Millisecond

// DefaultArtSources are the .ans files the ansi instruction picks from.
var DefaultArtSources = []string{
	"https://raw.githubusercontent.com/lwlsn/ascii-art/master/ansi-art/a-team.ans",
	"https://raw.githubusercontent.com/tehmaze/ansimple/master/examples/logo.ans",
	"https://raw.githubusercontent.com/atdt/ansilove/master/examples/example.ans",
	"https://raw.githubusercontent.com/mnsantos/asciiart/master/test.ans",
	"https://raw.githubusercontent.com/JohnW-CS/ANSI-Art/master/ANSI/JW-LOGO.ANS",
	"https://raw.githubusercontent.com/textfiles/artwork/master/ansi/UNIX.ANS",
}

// Conn is one connected terminal as a transport hands it over.
type Conn struct {
	RW         io.ReadWriter
	Transport  session.Transport
	RemoteAddr string
	Size       terminalio.Window
	// Resize delivers later size changes; nil when the transport has none.
	Resize <-chan terminalio.Window
	Output terminalio.OutputMode
}

// Config holds what every session on a node shares. Zero fields get
// defaults: no feed, no node limit, http.DefaultClient, logging.Std, the
// wall clock and math/rand.
type Config struct {
	Store      *feed.Store
	Registry   *session.SessionRegistry
	Client     fetch.HTTPClient
	Logger     logging.Logger
	BoardName  string
	ArtSources []string
	FrameDelay time.Duration
	Now        func() time.Time
	Intn       func(n int) int
}

// Node serves terminal sessions.
type Node struct {
	cfg Config
	log logging.Logger
}

// New creates a Node.
func New(cfg Config) *Node {
	if cfg.Client == nil {
		cfg.Client = http.DefaultClient
	}
	if cfg.BoardName == "" {
		cfg.BoardName = "tecnoter.io"
	}
	if cfg.ArtSources == nil {
		cfg.ArtSources = DefaultArtSources
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Intn == nil {
		cfg.Intn = rand.IntN
	}
	return &Node{cfg: cfg, log: logging.OrStd(cfg.Logger)}
}

// Serve runs one session until the user leaves, the connection fails or
// ctx is cancelled. A session the registry turns away is told why and
// gets the registry's error back.
func (n *Node) Serve(ctx context.Context, c Conn) error {
	sess := session.New(c.Transport, c.RemoteAddr)
	if n.cfg.Registry != nil {
		if err := n.cfg.Registry.Register(sess); err != nil {
			n.log.Printf("INFO: Rejecting %s connection from %s: %v", c.Transport, c.RemoteAddr, err)
			fmt.Fprintf(c.RW, "\r\nConnection rejected: %v\r\nPlease try again later.\r\n", err)
			return err
		}
		defer n.cfg.Registry.Unregister(sess.ID)
	}

	ctx, cancel := context.WithCancel(ctx)
	outbox := fetch.NewOutbox(0)
	fetcher := fetch.New(ctx, n.cfg.Client, outbox, n.log)
	defer fetcher.Wait()
	defer cancel()

	disp, err := shell.New(shell.Config{
		Fetcher: fetcher,
		Logger:  n.log,
		Now:     n.cfg.Now,
		Intn:    n.cfg.Intn,
	})
	if err != nil {
		return fmt.Errorf("failed to start node %d: %w", sess.NodeID, err)
	}

	out := terminalio.NewWriter(c.RW, c.Output)
	t := term.NewTerminal(struct {
		io.Reader
		io.Writer
	}{c.RW, out}, "")
	if c.Size.Width > 0 && c.Size.Height > 0 {
		t.SetSize(c.Size.Width, c.Size.Height)
	}

	ns := &nodeSession{
		node: n,
		sess: sess,
		conn: c,
		term: t,
		disp: disp,
		st:   sess.State(),
	}
	t.AutoCompleteCallback = ns.autoComplete

	go ns.pumpOutbox(ctx, outbox)
	if c.Resize != nil {
		go ns.pumpResize(ctx, c.Resize)
	}

	n.log.Printf("INFO: Node %d: %s session from %s", sess.NodeID, c.Transport, c.RemoteAddr)
	err = ns.run(ctx)
	n.log.Printf("INFO: Node %d: Disconnected %s (User: %s)", sess.NodeID, c.RemoteAddr, ns.st.CurrentUser)
	if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) {
		return nil
	}
	return err
}

// nodeSession is the host loop of one connection. Everything but the
// pumps runs on the Serve goroutine.
type nodeSession struct {
	node *Node
	sess *session.Session
	conn Conn
	term *term.Terminal
	disp *shell.Dispatcher
	st   state.SessionState
	tabs int
}

func (s *nodeSession) run(ctx context.Context) error {
	if s.show(ctx, s.process(shell.CmdBoot).Lines) {
		return nil
	}
	s.process(shell.CmdStartLogin)

	for ctx.Err() == nil {
		input, err := s.read()
		if err != nil {
			if errors.Is(err, io.EOF) && s.st.IsAuthenticated {
				s.write("Session terminated. Logging out...\n")
			}
			return err
		}
		if s.submit(ctx, input) {
			return nil
		}
	}
	return nil
}

// read collects the next input the current mode expects.
func (s *nodeSession) read() (string, error) {
	switch s.st.LoginState {
	case state.ModePassword:
		return s.term.ReadPassword(passwordPrompt)
	case state.ModePause:
		return "", s.readKey()
	}
	s.term.SetPrompt(s.prompt())
	return s.term.ReadLine()
}

// readKey waits for any keypress.
func (s *nodeSession) readKey() error {
	buf := make([]byte, 16)
	_, err := s.conn.RW.Read(buf)
	return err
}

// submit hands one input to the dispatcher and shows the result. It
// reports whether the session should end.
func (s *nodeSession) submit(ctx context.Context, input string) bool {
	before := s.st.LoginState
	if before == state.ModeLogin {
		if input = trimmed(input); input == "" {
			return false
		}
		input = shell.CmdLogin + " " + input
	}

	resp := s.process(input)
	if s.show(ctx, resp.Lines) {
		return true
	}
	if !resp.Handled && (before == state.ModePrompt || before.IsBBS()) {
		switch cmd := firstWord(input); {
		case cmd == "logout" && before == state.ModePrompt:
			s.write("Session terminated. Logging out...\n")
			return true
		case cmd != "":
			s.write("command not found: " + cmd + "\n")
		}
	}

	if (before == state.ModeLogin || before == state.ModePassword) && s.st.IsAuthenticated {
		return s.welcome(ctx, before == state.ModeLogin)
	}
	return false
}

// process runs one dispatch call against the freshest feed snapshot.
func (s *nodeSession) process(input string) shell.Response {
	st := s.st
	if s.node.cfg.Store != nil {
		st = s.node.cfg.Store.Apply(st)
	}
	st.SystemInfo.CurrentDate = s.node.cfg.Now().Format(DateLayout)

	resp := s.disp.Process(st, input)
	s.st = resp.State
	s.sess.SetState(s.st)
	return resp
}

// welcome greets a freshly authenticated user. bbs lands on the board
// menu; everyone else gets the login banner.
func (s *nodeSession) welcome(ctx context.Context, viaUsername bool) bool {
	s.write(clearScreen())
	if s.st.LoginState.IsBBS() {
		return s.show(ctx, s.process("m").Lines)
	}
	if viaUsername {
		s.write("Authentication successful.\n")
	}
	banner := Banner(s.st.CurrentUser, s.node.cfg.BoardName, s.node.cfg.Now().Format(DateLayout), hostOf(s.conn.RemoteAddr))
	s.write(strings.Join(banner, "\n") + "\n")
	return false
}

func (s *nodeSession) write(text string) {
	if _, err := s.term.Write([]byte(text)); err != nil {
		logging.Debug("Node %d: write failed: %v", s.sess.NodeID, err)
	}
}

func (s *nodeSession) pumpResize(ctx context.Context, resize <-chan terminalio.Window) {
	for {
		select {
		case <-ctx.Done():
			return
		case w, ok := <-resize:
			if !ok {
				return
			}
			if err := s.term.SetSize(w.Width, w.Height); err != nil {
				logging.Debug("Node %d: resize to %dx%d failed: %v", s.sess.NodeID, w.Width, w.Height, err)
			}
		}
	}
}

func (s *nodeSession) pumpOutbox(ctx context.Context, outbox *fetch.Outbox) {
	for {
		select {
		case <-ctx.Done():
			return
		case l := <-outbox.Lines():
			s.write(renderLine(l))
		}
	}
}

func hostOf(addr string) string {
	host, _, err := net.SplitHostPort(addr)
	if err != nil || host == "" {
		return addr
	}
	return host
}
