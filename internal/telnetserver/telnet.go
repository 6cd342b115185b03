package telnetserver

import (
	"bufio"
	"bytes"
	"fmt"
	"log"
	"net"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tecnoter/ttsh/internal/terminalio"
)

// Telnet protocol constants
const (
	IAC  byte = 255 // Interpret As Command
	DONT byte = 254
	DO   byte = 253
	WONT byte = 252
	WILL byte = 251
	SB   byte = 250 // Subnegotiation Begin
	SE   byte = 240 // Subnegotiation End

	OptEcho     byte = 1  // Echo option
	OptSGA      byte = 3  // Suppress Go Ahead
	OptTermType byte = 24 // Terminal Type (RFC 1091)
	OptNAWS     byte = 31 // Negotiate About Window Size
	OptLinemode byte = 34 // Linemode

	TermTypeIs   byte = 0
	TermTypeSend byte = 1
)

// Default and maximum terminal dimensions.
const (
	DefaultWidth  = 80
	DefaultHeight = 24
	maxDimension  = 500
)

// negotiationWindow is how long Negotiate waits for option replies.
var negotiationWindow = 500 * time.Millisecond

// telnetState tracks the IAC state machine
type telnetState int

const (
	stateData telnetState = iota
	stateIAC
	stateWill
	stateWont
	stateDo
	stateDont
	stateSB
	stateSBData
	stateSBIAC
)

// TelnetConn wraps a net.Conn with telnet protocol awareness.
// Read strips IAC commands transparently; Write escapes 0xFF bytes.
type TelnetConn struct {
	conn    net.Conn
	reader  *bufio.Reader
	writeMu sync.Mutex

	width  int
	height int
	sizeMu sync.RWMutex

	winCh chan terminalio.Window

	// IAC state machine (persists across Read calls)
	state    telnetState
	sbOption byte
	sbData   []byte

	closed int32

	termType     string
	termTypeMu   sync.RWMutex
	willTermType bool
}

// NewTelnetConn wraps an existing net.Conn with telnet protocol handling.
func NewTelnetConn(conn net.Conn) *TelnetConn {
	return &TelnetConn{
		conn:   conn,
		reader: bufio.NewReaderSize(conn, 256),
		width:  DefaultWidth,
		height: DefaultHeight,
		winCh:  make(chan terminalio.Window, 1),
		state:  stateData,
	}
}

// Negotiate asks the client for character mode with server echo, window
// size reports and its terminal type, then consumes the replies.
func (tc *TelnetConn) Negotiate() error {
	negotiations := []byte{
		IAC, WILL, OptEcho,
		IAC, WILL, OptSGA,
		IAC, DO, OptSGA,
		IAC, DONT, OptLinemode,
		IAC, DO, OptNAWS,
		IAC, DO, OptTermType,
	}
	if err := tc.writeRaw(negotiations); err != nil {
		return fmt.Errorf("failed to send telnet negotiations: %w", err)
	}
	tc.drainNegotiations()

	if tc.willTermType {
		if err := tc.writeRaw([]byte{IAC, SB, OptTermType, TermTypeSend, IAC, SE}); err != nil {
			return fmt.Errorf("failed to send TERM_TYPE request: %w", err)
		}
		tc.drainNegotiations()
	}
	return nil
}

func (tc *TelnetConn) writeRaw(p []byte) error {
	tc.writeMu.Lock()
	defer tc.writeMu.Unlock()
	_, err := tc.conn.Write(p)
	return err
}

// drainNegotiations processes option replies arriving within the
// negotiation window. Data bytes seen meanwhile are discarded.
func (tc *TelnetConn) drainNegotiations() {
	tc.conn.SetReadDeadline(time.Now().Add(negotiationWindow))
	defer tc.conn.SetReadDeadline(time.Time{})

	buf := make([]byte, 64)
	for {
		n, err := tc.reader.Read(buf)
		for i := 0; i < n; i++ {
			tc.feed(buf[i])
		}
		if err != nil || tc.reader.Buffered() == 0 {
			return
		}
	}
}

// feed advances the IAC state machine by one byte and reports whether b is
// user data.
func (tc *TelnetConn) feed(b byte) (data bool) {
	switch tc.state {
	case stateData:
		if b == IAC {
			tc.state = stateIAC
			return false
		}
		return true

	case stateIAC:
		switch b {
		case IAC:
			tc.state = stateData
			return true // escaped 0xFF
		case WILL:
			tc.state = stateWill
		case WONT:
			tc.state = stateWont
		case DO:
			tc.state = stateDo
		case DONT:
			tc.state = stateDont
		case SB:
			tc.state = stateSB
		default:
			tc.state = stateData // BRK, IP, AYT and friends
		}

	case stateWill, stateWont, stateDo, stateDont:
		if tc.state == stateWill && b == OptTermType {
			tc.willTermType = true
		}
		tc.state = stateData

	case stateSB:
		tc.sbOption = b
		tc.sbData = tc.sbData[:0]
		tc.state = stateSBData

	case stateSBData:
		if b == IAC {
			tc.state = stateSBIAC
		} else if len(tc.sbData) < 256 {
			tc.sbData = append(tc.sbData, b)
		}

	case stateSBIAC:
		switch b {
		case SE:
			tc.handleSubnegotiation()
			tc.state = stateData
		case IAC:
			if len(tc.sbData) < 256 {
				tc.sbData = append(tc.sbData, IAC)
			}
			tc.state = stateSBData
		default:
			tc.state = stateData
		}
	}
	return false
}

// handleSubnegotiation processes a completed subnegotiation.
func (tc *TelnetConn) handleSubnegotiation() {
	switch tc.sbOption {
	case OptNAWS:
		if len(tc.sbData) < 4 {
			return
		}
		width := int(tc.sbData[0])<<8 | int(tc.sbData[1])
		height := int(tc.sbData[2])<<8 | int(tc.sbData[3])
		if width <= 0 || height <= 0 || width > maxDimension || height > maxDimension {
			log.Printf("WARN: Telnet NAWS: invalid dimensions %dx%d, using defaults", width, height)
			width, height = DefaultWidth, DefaultHeight
		}
		log.Printf("DEBUG: Telnet NAWS: %dx%d", width, height)

		tc.sizeMu.Lock()
		tc.width = width
		tc.height = height
		tc.sizeMu.Unlock()

		// Keep only the latest size.
		select {
		case <-tc.winCh:
		default:
		}
		select {
		case tc.winCh <- terminalio.Window{Width: width, Height: height}:
		default:
		}

	case OptTermType:
		if len(tc.sbData) >= 1 && tc.sbData[0] == TermTypeIs {
			t := strings.ToLower(strings.TrimSpace(string(tc.sbData[1:])))
			if t != "" {
				tc.termTypeMu.Lock()
				tc.termType = t
				tc.termTypeMu.Unlock()
				log.Printf("DEBUG: Telnet TERM_TYPE: %s", t)
			}
		}
	}
}

// TermType returns the negotiated terminal type, or "ansi".
func (tc *TelnetConn) TermType() string {
	tc.termTypeMu.RLock()
	defer tc.termTypeMu.RUnlock()
	if tc.termType == "" {
		return "ansi"
	}
	return tc.termType
}

// Read reads user data, stripping telnet commands. It blocks until at
// least one data byte arrives.
func (tc *TelnetConn) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}

	buf := make([]byte, len(p))
	for {
		n, err := tc.reader.Read(buf)
		written := 0
		for i := 0; i < n; i++ {
			if tc.feed(buf[i]) {
				p[written] = buf[i]
				written++
			}
		}
		if written > 0 {
			return written, nil
		}
		if err != nil {
			return 0, err
		}
	}
}

// Write writes data, escaping 0xFF bytes as IAC IAC.
func (tc *TelnetConn) Write(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	if !bytes.Contains(p, []byte{IAC}) {
		if err := tc.writeRaw(p); err != nil {
			return 0, err
		}
		return len(p), nil
	}
	escaped := bytes.ReplaceAll(p, []byte{IAC}, []byte{IAC, IAC})
	if err := tc.writeRaw(escaped); err != nil {
		return 0, err
	}
	return len(p), nil
}

// Close closes the connection. It is safe to call more than once.
func (tc *TelnetConn) Close() error {
	if atomic.CompareAndSwapInt32(&tc.closed, 0, 1) {
		return tc.conn.Close()
	}
	return nil
}

// RemoteAddr returns the remote network address.
func (tc *TelnetConn) RemoteAddr() net.Addr {
	return tc.conn.RemoteAddr()
}

// WindowSize returns the current terminal dimensions.
func (tc *TelnetConn) WindowSize() (width, height int) {
	tc.sizeMu.RLock()
	defer tc.sizeMu.RUnlock()
	return tc.width, tc.height
}

// WindowChanges delivers size reports made after negotiation. Only the
// latest unread report is kept.
func (tc *TelnetConn) WindowChanges() <-chan terminalio.Window {
	return tc.winCh
}
