// Package console is the local full-screen host: the same shell session a
// remote node gets, drawn by bubbletea with a scrollback viewport and a
// line editor.
package console

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"net/http"
	"strings"
	"time"
	"unicode"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/tecnoter/ttsh/internal/ansi"
	"github.com/tecnoter/ttsh/internal/bbs"
	"github.com/tecnoter/ttsh/internal/complete"
	"github.com/tecnoter/ttsh/internal/feed"
	"github.com/tecnoter/ttsh/internal/fetch"
	"github.com/tecnoter/ttsh/internal/logging"
	"github.com/tecnoter/ttsh/internal/node"
	"github.com/tecnoter/ttsh/internal/output"
	"github.com/tecnoter/ttsh/internal/shell"
	"github.com/tecnoter/ttsh/internal/state"
)

const (
	minWidth       = 40
	minHeight      = 10
	scrollbackSize = 2000
	logoutMessage  = "Session terminated. Logging out..."
)

// Config mirrors node.Config for the single local session.
type Config struct {
	Store      *feed.Store
	Client     fetch.HTTPClient
	Logger     logging.Logger
	BoardName  string
	ArtSources []string
	FrameDelay time.Duration
	Now        func() time.Time
	Intn       func(n int) int
}

type (
	lineMsg output.Line
	rainMsg struct{}
	artMsg  struct {
		piece string
		err   error
	}
)

// Model is the bubbletea model of one local session.
type Model struct {
	cfg     Config
	log     logging.Logger
	ctx     context.Context
	disp    *shell.Dispatcher
	fetcher *fetch.Fetcher
	outbox  *fetch.Outbox

	st   state.SessionState
	tabs int
	hist history

	// Matrix rain in progress
	rain      int
	rainChars []rune

	lines    []string
	input    textinput.Model
	view     viewport.Model
	width    int
	height   int
	quitting bool
}

// New boots a session and leaves it at the login prompt. Background output
// stops when ctx ends.
func New(ctx context.Context, cfg Config) (Model, error) {
	if cfg.Client == nil {
		cfg.Client = http.DefaultClient
	}
	if cfg.BoardName == "" {
		cfg.BoardName = "tecnoter.io"
	}
	if cfg.ArtSources == nil {
		cfg.ArtSources = node.DefaultArtSources
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Intn == nil {
		cfg.Intn = rand.IntN
	}
	log := logging.OrStd(cfg.Logger)

	outbox := fetch.NewOutbox(0)
	fetcher := fetch.New(ctx, cfg.Client, outbox, log)
	disp, err := shell.New(shell.Config{Fetcher: fetcher, Logger: log, Now: cfg.Now, Intn: cfg.Intn})
	if err != nil {
		return Model{}, fmt.Errorf("failed to start console session: %w", err)
	}

	ti := textinput.New()
	ti.CharLimit = 512
	ti.Focus()

	m := Model{
		cfg:     cfg,
		log:     log,
		ctx:     ctx,
		disp:    disp,
		fetcher: fetcher,
		outbox:  outbox,
		st:      state.Default(),
		input:   ti,
		view:    viewport.New(80, 23),
		width:   80,
		height:  24,
	}
	m.show(m.process(shell.CmdBoot).Lines)
	m.process(shell.CmdStartLogin)
	m.syncPrompt()
	return m, nil
}

// State is the session state after the last dispatch.
func (m Model) State() state.SessionState { return m.st }

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.waitForLine(), tea.SetWindowTitle(m.cfg.BoardName))
}

// waitForLine delivers the next background output line.
func (m Model) waitForLine() tea.Cmd {
	lines, ctx := m.outbox.Lines(), m.ctx
	return func() tea.Msg {
		select {
		case <-ctx.Done():
			return nil
		case l := <-lines:
			return lineMsg(l)
		}
	}
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = max(msg.Width, minWidth)
		m.height = max(msg.Height, minHeight)
		m.view.Width = m.width
		m.view.Height = m.height - 1
		m.input.Width = m.width - lipgloss.Width(m.input.Prompt) - 1
		m.refresh()
		return m, nil

	case lineMsg:
		m.append(renderLine(output.Line(msg))...)
		return m, m.waitForLine()

	case rainMsg:
		if m.rain <= 0 {
			return m, nil
		}
		m.append(ansi.MatrixLine(m.rainChars, node.MatrixWidth, m.cfg.Intn))
		m.rain--
		if m.rain == 0 {
			return m, nil
		}
		return m, m.rainTick()

	case artMsg:
		if msg.err != nil {
			m.log.Printf("WARN: Console: ANSI art unavailable: %v", msg.err)
			m.append(ansi.ColourTest()...)
			return m, nil
		}
		m.lines = nil
		m.append(strings.Split(msg.piece, "\n")...)
		return m, nil

	case tea.KeyMsg:
		return m.updateKey(msg)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) updateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		m.quitting = true
		return m, tea.Quit
	case tea.KeyCtrlD:
		if m.st.IsAuthenticated {
			m.append(logoutMessage)
		}
		m.quitting = true
		return m, tea.Quit
	}

	if m.st.LoginState == state.ModePause {
		return m.submit("")
	}
	if m.st.LoginState.IsBBS() && m.input.Value() == "" && msg.Type == tea.KeyRunes && !msg.Alt && len(msg.Runes) == 1 {
		if k := unicode.ToLower(msg.Runes[0]); strings.ContainsRune(bbs.Hotkeys, k) {
			m.append(m.echo(string(k)))
			return m.submit(string(k))
		}
	}

	switch msg.Type {
	case tea.KeyEsc:
		if m.st.LoginState.IsBBS() {
			return m.submit("q")
		}
		return m, nil

	case tea.KeyTab:
		if m.st.LoginState != state.ModePrompt {
			return m, nil
		}
		line := m.input.Value()
		pos := m.input.Position()
		head, tail := line[:pos], line[pos:]
		newHead, list, presses := complete.Expand(m.st, head, m.tabs)
		m.tabs = presses
		if list != nil {
			m.append(m.echo(line))
			m.append(renderLine(output.Of(output.AutocompleteList, strings.Join(list, "  ")))...)
		}
		if newHead != head {
			m.input.SetValue(newHead + tail)
			m.input.SetCursor(len(newHead))
		}
		return m, nil

	case tea.KeyUp:
		if m.st.LoginState == state.ModePrompt {
			if line, ok := m.hist.prev(); ok {
				m.input.SetValue(line)
				m.input.CursorEnd()
			}
		}
		return m, nil

	case tea.KeyDown:
		if m.st.LoginState == state.ModePrompt {
			m.input.SetValue(m.hist.next())
			m.input.CursorEnd()
		}
		return m, nil

	case tea.KeyEnter:
		line := m.input.Value()
		m.input.Reset()
		m.tabs = 0
		switch m.st.LoginState {
		case state.ModePassword:
			m.append(m.echo(""))
		case state.ModePrompt:
			m.hist.add(strings.TrimSpace(line))
			fallthrough
		default:
			m.append(m.echo(line))
		}
		return m.submit(line)
	}

	m.tabs = 0
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// submit hands one input to the dispatcher, the way a terminal node does.
func (m Model) submit(input string) (tea.Model, tea.Cmd) {
	before := m.st.LoginState
	if before == state.ModeLogin {
		if input = strings.TrimSpace(input); input == "" {
			return m, nil
		}
		input = shell.CmdLogin + " " + input
	}

	resp := m.process(input)
	cmd := m.show(resp.Lines)
	if m.quitting {
		return m, cmd
	}
	if !resp.Handled && (before == state.ModePrompt || before.IsBBS()) {
		switch name := firstWord(input); {
		case name == "logout" && before == state.ModePrompt:
			m.append(logoutMessage)
			m.quitting = true
			return m, tea.Quit
		case name != "":
			m.append(plainStyle.Render("command not found: " + name))
		}
	}

	if (before == state.ModeLogin || before == state.ModePassword) && m.st.IsAuthenticated {
		cmd = tea.Batch(cmd, m.welcome(before == state.ModeLogin))
	}
	m.syncPrompt()
	m.refresh()
	return m, cmd
}

func (m *Model) welcome(viaUsername bool) tea.Cmd {
	m.lines = nil
	if m.st.LoginState.IsBBS() {
		return m.show(m.process("m").Lines)
	}
	if viaUsername {
		m.append(plainStyle.Render("Authentication successful."))
	}
	for _, l := range node.Banner(m.st.CurrentUser, m.cfg.BoardName, m.cfg.Now().Format(node.DateLayout), "console") {
		m.append(plainStyle.Render(l))
	}
	return nil
}

// process runs one dispatch against the freshest feed snapshot.
func (m *Model) process(input string) shell.Response {
	st := m.st
	if m.cfg.Store != nil {
		st = m.cfg.Store.Apply(st)
	}
	st.SystemInfo.CurrentDate = m.cfg.Now().Format(node.DateLayout)
	resp := m.disp.Process(st, input)
	m.st = resp.State
	return resp
}

// show appends dispatcher output and starts any instruction effects.
func (m *Model) show(lines []output.Line) tea.Cmd {
	var cmds []tea.Cmd
	for _, l := range lines {
		switch l.Type {
		case output.ClearScreen:
			m.lines = nil
		case output.Instruction:
			cmd := m.instruction(output.ParseInstruction(l.Text))
			if m.quitting {
				m.refresh()
				return cmd
			}
			cmds = append(cmds, cmd)
		default:
			m.append(renderLine(l)...)
		}
	}
	m.refresh()
	return tea.Batch(cmds...)
}

func (m *Model) instruction(d output.Directive) tea.Cmd {
	switch d.Kind {
	case "exit":
		m.append(plainStyle.Render("Terminating session..."))
		m.quitting = true
		return tea.Quit
	case "matrix":
		m.lines = nil
		m.rain = node.MatrixLines
		m.rainChars = ansi.MatrixCharset(d.Arg)
		return m.rainTick()
	case "ansi":
		return m.fetchArt()
	case "open-url":
		m.append(plainStyle.Render("Open in your browser: " + d.Arg))
	default:
		logging.Debug("Console: ignoring instruction %q", d.Arg)
	}
	return nil
}

func (m Model) rainTick() tea.Cmd {
	if m.cfg.FrameDelay <= 0 {
		return func() tea.Msg { return rainMsg{} }
	}
	return tea.Tick(m.cfg.FrameDelay, func(time.Time) tea.Msg { return rainMsg{} })
}

func (m Model) fetchArt() tea.Cmd {
	ctx, client, sources := m.ctx, m.cfg.Client, m.cfg.ArtSources
	if len(sources) == 0 {
		return func() tea.Msg { return artMsg{err: errors.New("no art sources configured")} }
	}
	url := sources[m.cfg.Intn(len(sources))]
	return func() tea.Msg {
		piece, err := fetch.Art(ctx, client, url)
		return artMsg{piece: piece, err: err}
	}
}

// echo is how a submitted line stays in the scrollback.
func (m Model) echo(line string) string {
	return m.promptText() + plainStyle.Render(line)
}

func (m Model) promptText() string {
	label := node.PromptLabel(m.st, m.cfg.BoardName)
	switch {
	case m.st.LoginState == state.ModePrompt:
		return userStyle.Render(m.st.CurrentUser) + plainStyle.Render("@") +
			boardStyle.Render(m.cfg.BoardName) + plainStyle.Render(":") +
			cwdStyle.Render(m.st.Cwd) + plainStyle.Render("$ ")
	case m.st.LoginState == state.ModeMail || m.st.LoginState == state.ModeMessage:
		return promptStyle.Render(label)
	case m.st.LoginState.IsBBS():
		return bbsStyle.Render(label)
	}
	return plainStyle.Render(label)
}

// syncPrompt points the line editor at the current mode.
func (m *Model) syncPrompt() {
	m.input.Prompt = m.promptText()
	if m.st.LoginState == state.ModePassword {
		m.input.EchoMode = textinput.EchoNone
	} else {
		m.input.EchoMode = textinput.EchoNormal
	}
}

func (m *Model) append(lines ...string) {
	m.lines = append(m.lines, lines...)
	if over := len(m.lines) - scrollbackSize; over > 0 {
		m.lines = m.lines[over:]
	}
	m.refresh()
}

func (m *Model) refresh() {
	m.view.SetContent(strings.Join(m.lines, "\n"))
	m.view.GotoBottom()
}

// View implements tea.Model.
func (m Model) View() string {
	if m.quitting {
		return strings.Join(m.lines, "\n") + "\n"
	}
	if m.st.LoginState == state.ModePause {
		return m.view.View() + "\n" + titleStyle.Render("Press any key to continue...")
	}
	return m.view.View() + "\n" + m.input.View()
}

func firstWord(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return ""
	}
	return strings.ToLower(fields[0])
}

// Run drives a local session on the controlling terminal until the user
// leaves or ctx ends.
func Run(ctx context.Context, cfg Config) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	m, err := New(ctx, cfg)
	if err != nil {
		return err
	}
	defer m.fetcher.Wait()
	defer cancel()

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("console: %w", err)
	}
	return nil
}
