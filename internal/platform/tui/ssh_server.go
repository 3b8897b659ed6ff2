package tui

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/charmbracelet/ssh"
	"github.com/charmbracelet/wish"
	"github.com/charmbracelet/wish/bubbletea"

	"github.com/vovakirdan/pong-arena/internal/core"
	"github.com/vovakirdan/pong-arena/internal/multiplayer"
)

// SSHServerConfig holds configuration for the SSH server.
type SSHServerConfig struct {
	// Address is the host:port to listen on (e.g., ":2323").
	Address string

	// HostKeyPath is the path to the host key file. Wish generates the key
	// when the file does not exist.
	HostKeyPath string

	// IdleTimeout is how long to wait before closing idle connections.
	IdleTimeout time.Duration

	// SendBuffer is the event buffer of each session.
	SendBuffer int
}

// DefaultSSHServerConfig returns a config with sensible defaults.
func DefaultSSHServerConfig() SSHServerConfig {
	return SSHServerConfig{
		Address:     ":2323",
		HostKeyPath: ".ssh/arena_ed25519",
		IdleTimeout: 30 * time.Minute,
		SendBuffer:  64,
	}
}

// SSHServer serves the terminal client over SSH. Every SSH session becomes
// one arena identity on the shared Manager.
type SSHServer struct {
	config       SSHServerConfig
	server       *ssh.Server
	manager      *multiplayer.Manager
	history      HistorySource
	difficulties []string
	logger       *log.Logger
}

// NewSSHServer creates a new SSH server. history may be nil.
func NewSSHServer(cfg SSHServerConfig, m *multiplayer.Manager, history HistorySource, difficulties []string, logger *log.Logger) (*SSHServer, error) {
	if cfg.SendBuffer <= 0 {
		cfg.SendBuffer = DefaultSSHServerConfig().SendBuffer
	}
	srv := &SSHServer{
		config:       cfg,
		manager:      m,
		history:      history,
		difficulties: difficulties,
		logger:       logger.WithPrefix("ssh"),
	}

	if dir := filepath.Dir(cfg.HostKeyPath); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("cannot create host key directory: %w", err)
		}
	}

	server, err := wish.NewServer(
		wish.WithAddress(cfg.Address),
		wish.WithHostKeyPath(cfg.HostKeyPath),
		wish.WithIdleTimeout(cfg.IdleTimeout),
		wish.WithMiddleware(
			bubbletea.Middleware(srv.teaHandler),
			srv.loggingMiddleware,
		),
	)
	if err != nil {
		return nil, fmt.Errorf("cannot create SSH server: %w", err)
	}
	srv.server = server
	return srv, nil
}

// sessionIdentity builds the arena identity of one SSH session.
func sessionIdentity(user string, now time.Time) core.Identity {
	if user == "" {
		user = "anon"
	}
	return core.Identity(fmt.Sprintf("ssh-%s-%d", user, now.UnixNano()))
}

// teaHandler creates a Bubble Tea program for each SSH session.
func (s *SSHServer) teaHandler(sess ssh.Session) (tea.Model, []tea.ProgramOption) {
	pty, _, ok := sess.Pty()
	if !ok {
		s.logger.Warn("no PTY requested", "user", sess.User())
		return nil, nil
	}

	conn := NewLocalConn(s.manager, sessionIdentity(sess.User(), time.Now()), s.config.SendBuffer)
	go func() {
		<-sess.Context().Done()
		conn.Close()
	}()

	model := NewModel(Options{
		Conn:         conn,
		History:      s.history,
		Difficulties: s.difficulties,
		Width:        pty.Window.Width,
		Height:       pty.Window.Height,
	})
	return model, []tea.ProgramOption{tea.WithAltScreen()}
}

// loggingMiddleware logs SSH session events.
func (s *SSHServer) loggingMiddleware(next ssh.Handler) ssh.Handler {
	return func(sess ssh.Session) {
		s.logger.Info("session started",
			"user", sess.User(),
			"remote", sess.RemoteAddr().String(),
		)
		next(sess)
		s.logger.Info("session ended",
			"user", sess.User(),
			"remote", sess.RemoteAddr().String(),
		)
	}
}

// ListenAndServe serves until Shutdown is called.
func (s *SSHServer) ListenAndServe() error {
	s.logger.Info("starting SSH server", "address", s.config.Address)
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, ssh.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *SSHServer) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// Addr returns the server's listen address string.
func (s *SSHServer) Addr() string {
	return s.config.Address
}
