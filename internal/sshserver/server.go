// Package sshserver serves node sessions over SSH. It wraps gliderlabs/ssh
// (which itself wraps golang.org/x/crypto/ssh) and adds host key
// provisioning and legacy algorithm support for retro terminal clients
// (SyncTERM, NetRunner).
package sshserver

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/pem"
	"errors"
	"fmt"
	"log"
	"net"
	"os"
	"path/filepath"

	"github.com/gliderlabs/ssh"
	gossh "golang.org/x/crypto/ssh"

	"github.com/tecnoter/ttsh/internal/terminalio"
)

// DefaultVersion is the server banner version.
const DefaultVersion = "ttsh"

// Config holds SSH server configuration.
type Config struct {
	HostKeyPath         string
	Host                string
	Port                int
	LegacySSHAlgorithms bool
	SessionHandler      func(ssh.Session)
	// PasswordHandler is optional. Without it, clients are admitted with
	// no authentication and identify themselves at the node's login prompt.
	PasswordHandler func(ctx ssh.Context, password string) bool
	Version         string
}

// Server wraps a gliderlabs/ssh server.
type Server struct {
	inner *ssh.Server
}

// NewServer creates and configures a new SSH server. The host key is
// generated when HostKeyPath does not exist yet.
func NewServer(cfg Config) (*Server, error) {
	if cfg.SessionHandler == nil {
		return nil, fmt.Errorf("session handler is required")
	}
	if cfg.Version == "" {
		cfg.Version = DefaultVersion
	}

	signer, err := LoadOrCreateHostKey(cfg.HostKeyPath)
	if err != nil {
		return nil, err
	}

	srv := &ssh.Server{
		Addr:            fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:         cfg.SessionHandler,
		HostSigners:     []ssh.Signer{signer},
		PasswordHandler: cfg.PasswordHandler,
		Version:         cfg.Version,
		ConnectionFailedCallback: func(conn net.Conn, err error) {
			log.Printf("WARN: SSH connection failed from %s: %v", conn.RemoteAddr(), err)
		},
	}

	legacy := cfg.LegacySSHAlgorithms
	srv.ServerConfigCallback = func(ctx ssh.Context) *gossh.ServerConfig {
		sc := &gossh.ServerConfig{}
		if legacy {
			log.Printf("DEBUG: SSH legacy algorithms enabled for %s", ctx.RemoteAddr())
			sc.Config = legacyAlgorithms()
		}
		return sc
	}

	return &Server{inner: srv}, nil
}

// legacyAlgorithms adds the older suites (diffie-hellman-group1-sha1,
// 3des-cbc, hmac-sha1) retro clients still negotiate.
func legacyAlgorithms() gossh.Config {
	return gossh.Config{
		KeyExchanges: []string{
			"curve25519-sha256",
			"curve25519-sha256@libssh.org",
			"ecdh-sha2-nistp256",
			"ecdh-sha2-nistp384",
			"ecdh-sha2-nistp521",
			"diffie-hellman-group14-sha256",
			"diffie-hellman-group16-sha512",
			"diffie-hellman-group14-sha1",
			"diffie-hellman-group1-sha1",
		},
		Ciphers: []string{
			"chacha20-poly1305@openssh.com",
			"aes128-gcm@openssh.com",
			"aes256-gcm@openssh.com",
			"aes128-ctr",
			"aes192-ctr",
			"aes256-ctr",
			"aes128-cbc",
			"aes256-cbc",
			"3des-cbc",
		},
		MACs: []string{
			"hmac-sha2-256-etm@openssh.com",
			"hmac-sha2-512-etm@openssh.com",
			"hmac-sha2-256",
			"hmac-sha2-512",
			"hmac-sha1",
		},
	}
}

// LoadOrCreateHostKey reads a PEM private key from path. A missing file is
// replaced by a fresh ed25519 key written with 0600 permissions.
func LoadOrCreateHostKey(path string) (gossh.Signer, error) {
	keyBytes, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		log.Printf("WARN: Host key %s not found, generating ed25519 key", path)
		keyBytes, err = generateHostKey(path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read host key %s: %w", path, err)
	}

	signer, err := gossh.ParsePrivateKey(keyBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse host key %s: %w", path, err)
	}
	log.Printf("INFO: Host key loaded from %s (%s)", path, gossh.FingerprintSHA256(signer.PublicKey()))
	return signer, nil
}

func generateHostKey(path string) ([]byte, error) {
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("failed to generate key: %w", err)
	}
	block, err := gossh.MarshalPrivateKey(priv, "ttsh host key")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal key: %w", err)
	}
	data := pem.EncodeToMemory(block)

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create key directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return nil, fmt.Errorf("failed to write key: %w", err)
	}
	return data, nil
}

// Addr returns the configured listen address.
func (s *Server) Addr() string {
	return s.inner.Addr
}

// ListenAndServe binds to the configured address and serves SSH connections.
// It blocks until the server is closed.
func (s *Server) ListenAndServe() error {
	return s.inner.ListenAndServe()
}

// Serve starts serving on an existing listener. Blocks until closed.
func (s *Server) Serve(l net.Listener) error {
	return s.inner.Serve(l)
}

// Close shuts down the server and all active connections.
func (s *Server) Close() error {
	return s.inner.Close()
}

// Terminal returns the session's pty size and a channel of later size
// changes. Sessions without a pty report 80x24 and a nil channel.
func Terminal(s ssh.Session) (term string, initial terminalio.Window, changes <-chan terminalio.Window) {
	pty, winCh, ok := s.Pty()
	if !ok {
		return "", terminalio.DefaultWindow, nil
	}

	out := make(chan terminalio.Window, 1)
	go func() {
		for {
			select {
			case w, ok := <-winCh:
				if !ok {
					return
				}
				select {
				case <-out:
				default:
				}
				out <- terminalio.Window{Width: w.Width, Height: w.Height}
			case <-s.Context().Done():
				return
			}
		}
	}()
	return pty.Term, terminalio.Window{Width: pty.Window.Width, Height: pty.Window.Height}, out
}
