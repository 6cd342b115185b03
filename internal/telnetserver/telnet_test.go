package telnetserver

import (
	"bytes"
	"io"
	"net"
	"testing"
	"time"

	"github.com/tecnoter/ttsh/internal/terminalio"
)

func pipe(t *testing.T) (*TelnetConn, net.Conn) {
	t.Helper()
	server, client := net.Pipe()
	t.Cleanup(func() {
		server.Close()
		client.Close()
	})
	return NewTelnetConn(server), client
}

func TestReadStripsCommands(t *testing.T) {
	testCases := []struct {
		name  string
		input []byte
		want  []byte
	}{
		{name: "plain", input: []byte("ls\r"), want: []byte("ls\r")},
		{name: "option reply", input: []byte{'a', IAC, WILL, OptSGA, 'b'}, want: []byte("ab")},
		{name: "escaped 0xff", input: []byte{'x', IAC, IAC, 'y'}, want: []byte{'x', 0xFF, 'y'}},
		{name: "subnegotiation", input: []byte{IAC, SB, OptTermType, TermTypeIs, 'x', 't', IAC, SE, 'z'}, want: []byte("z")},
		{name: "unknown command", input: []byte{IAC, 244, 'q'}, want: []byte("q")},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			conn, client := pipe(t)
			go client.Write(tc.input)

			got := make([]byte, 0, len(tc.want))
			buf := make([]byte, 16)
			for len(got) < len(tc.want) {
				n, err := conn.Read(buf)
				if err != nil {
					t.Fatalf("Read: %v", err)
				}
				got = append(got, buf[:n]...)
			}
			if !bytes.Equal(got, tc.want) {
				t.Errorf("Read = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestNAWSUpdatesWindow(t *testing.T) {
	conn, client := pipe(t)
	go client.Write([]byte{IAC, SB, OptNAWS, 0, 132, 0, 43, IAC, SE, 'k'})

	buf := make([]byte, 4)
	if _, err := conn.Read(buf); err != nil {
		t.Fatalf("Read: %v", err)
	}
	if w, h := conn.WindowSize(); w != 132 || h != 43 {
		t.Errorf("WindowSize = %dx%d, want 132x43", w, h)
	}
	select {
	case win := <-conn.WindowChanges():
		if win != (terminalio.Window{Width: 132, Height: 43}) {
			t.Errorf("window change %+v", win)
		}
	default:
		t.Error("expected a window change")
	}
}

func TestNAWSRejectsNonsense(t *testing.T) {
	conn, client := pipe(t)
	go client.Write([]byte{IAC, SB, OptNAWS, 0, 0, 0, 0, IAC, SE, 'k'})

	buf := make([]byte, 4)
	if _, err := conn.Read(buf); err != nil {
		t.Fatalf("Read: %v", err)
	}
	if w, h := conn.WindowSize(); w != DefaultWidth || h != DefaultHeight {
		t.Errorf("WindowSize = %dx%d, want defaults", w, h)
	}
}

func TestWriteEscapesIAC(t *testing.T) {
	conn, client := pipe(t)

	done := make(chan []byte)
	go func() {
		buf := make([]byte, 16)
		n, _ := io.ReadAtLeast(client, buf, 4)
		done <- buf[:n]
	}()

	n, err := conn.Write([]byte{'a', 0xFF, 'b'})
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if n != 3 {
		t.Errorf("Write reported %d bytes, want 3", n)
	}
	if got := <-done; !bytes.Equal(got, []byte{'a', IAC, IAC, 'b'}) {
		t.Errorf("wire bytes %v", got)
	}
}

func TestNegotiateRequestsTermType(t *testing.T) {
	old := negotiationWindow
	negotiationWindow = 200 * time.Millisecond
	t.Cleanup(func() { negotiationWindow = old })

	conn, client := pipe(t)

	go func() {
		buf := make([]byte, 18)
		io.ReadFull(client, buf)
		client.Write([]byte{IAC, WILL, OptTermType, IAC, SB, OptNAWS, 0, 100, 0, 30, IAC, SE})
		req := make([]byte, 6)
		io.ReadFull(client, req)
		client.Write([]byte{IAC, SB, OptTermType, TermTypeIs, 'X', 'T', 'E', 'R', 'M', IAC, SE})
	}()

	if err := conn.Negotiate(); err != nil {
		t.Fatalf("Negotiate: %v", err)
	}
	if got := conn.TermType(); got != "xterm" {
		t.Errorf("TermType = %q, want xterm", got)
	}
	if w, h := conn.WindowSize(); w != 100 || h != 30 {
		t.Errorf("WindowSize = %dx%d", w, h)
	}
}

func TestServerHandsOffConnections(t *testing.T) {
	old := negotiationWindow
	negotiationWindow = 10 * time.Millisecond
	t.Cleanup(func() { negotiationWindow = old })

	handled := make(chan string, 1)
	srv, err := NewServer(Config{Port: 1, SessionHandler: func(tc *TelnetConn) {
		tc.Write([]byte("hi"))
		handled <- tc.TermType()
	}})
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	serveErr := make(chan error, 1)
	go func() { serveErr <- srv.Serve(ln) }()

	conn, err := net.Dial("tcp", ln.Addr().String())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	go io.Copy(io.Discard, conn)

	select {
	case tt := <-handled:
		if tt != "ansi" {
			t.Errorf("term type %q", tt)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("handler never ran")
	}

	srv.Close()
	if err := <-serveErr; err != nil {
		t.Errorf("Serve returned %v", err)
	}
	srv.Wait()
}

func TestNewServerValidation(t *testing.T) {
	if _, err := NewServer(Config{Port: 23}); err == nil {
		t.Error("expected error without handler")
	}
	if _, err := NewServer(Config{Port: 0, SessionHandler: func(*TelnetConn) {}}); err == nil {
		t.Error("expected error for port 0")
	}
}
