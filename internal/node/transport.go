package node

import (
	"github.com/gliderlabs/ssh"

	"github.com/tecnoter/ttsh/internal/session"
	"github.com/tecnoter/ttsh/internal/sshserver"
	"github.com/tecnoter/ttsh/internal/telnetserver"
	"github.com/tecnoter/ttsh/internal/terminalio"
)

// FromSSH describes an SSH session. SSH clients speak UTF-8.
func FromSSH(s ssh.Session) Conn {
	_, size, resize := sshserver.Terminal(s)
	return Conn{
		RW:         s,
		Transport:  session.TransportSSH,
		RemoteAddr: s.RemoteAddr().String(),
		Size:       size,
		Resize:     resize,
		Output:     terminalio.OutputModeUTF8,
	}
}

// FromTelnet describes a negotiated telnet connection written in mode.
func FromTelnet(tc *telnetserver.TelnetConn, mode terminalio.OutputMode) Conn {
	w, h := tc.WindowSize()
	return Conn{
		RW:         tc,
		Transport:  session.TransportTelnet,
		RemoteAddr: tc.RemoteAddr().String(),
		Size:       terminalio.Window{Width: w, Height: h},
		Resize:     tc.WindowChanges(),
		Output:     mode,
	}
}
