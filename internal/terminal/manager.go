package terminal

import (
	"bytes"
	"errors"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/deskhub-app/deskhub/internal/domain"
)

var errPTYUnsupported = errors.New("pty is not supported on this platform")

const readBufferLimit = 1 << 20

// ptyHandle is the platform-specific side of a session: a started shell
// attached to a pseudo-terminal.
type ptyHandle interface {
	io.ReadWriteCloser
	Resize(cols, rows uint16) error
}

// Session is one live shell. Output is drained by a background goroutine into
// a bounded buffer so Read never blocks.
type Session struct {
	ID    string
	Shell string

	handle ptyHandle

	mu     sync.Mutex
	buf    bytes.Buffer
	closed bool
}

// Manager owns all live terminal sessions for the process.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*Session
}

func NewManager() *Manager {
	return &Manager{sessions: map[string]*Session{}}
}

func defaultShell() string {
	if shell := strings.TrimSpace(os.Getenv("SHELL")); shell != "" {
		return shell
	}
	return "/bin/bash"
}

// Create starts a new shell session at the default 80x24 size and returns its
// id.
func (m *Manager) Create() (string, error) {
	shell := defaultShell()
	handle, err := startShell(shell)
	if err != nil {
		if errors.Is(err, errPTYUnsupported) {
			return "", domain.InvalidArgument("terminal sessions are not supported on this platform")
		}
		return "", domain.Internal("failed to start shell", err)
	}

	session := &Session{
		ID:     uuid.NewString(),
		Shell:  shell,
		handle: handle,
	}
	go session.drain()

	m.mu.Lock()
	m.sessions[session.ID] = session
	m.mu.Unlock()

	log.WithField("session", session.ID).Info("terminal session created")
	return session.ID, nil
}

func (m *Manager) get(id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	session, ok := m.sessions[id]
	if !ok {
		return nil, domain.NotFound("terminal session not found")
	}
	return session, nil
}

func (m *Manager) Write(id string, data []byte) error {
	session, err := m.get(id)
	if err != nil {
		return err
	}
	if _, err := session.handle.Write(data); err != nil {
		return domain.Internal("failed to write to terminal", err)
	}
	return nil
}

// Read returns whatever output has accumulated since the last call. It never
// blocks; an idle session yields an empty slice.
func (m *Manager) Read(id string) ([]byte, error) {
	session, err := m.get(id)
	if err != nil {
		return nil, err
	}

	session.mu.Lock()
	defer session.mu.Unlock()
	out := make([]byte, session.buf.Len())
	copy(out, session.buf.Bytes())
	session.buf.Reset()
	return out, nil
}

func (m *Manager) Resize(id string, cols, rows uint16) error {
	session, err := m.get(id)
	if err != nil {
		return err
	}
	if cols == 0 || rows == 0 {
		return domain.InvalidArgument("cols and rows must be positive")
	}
	if err := session.handle.Resize(cols, rows); err != nil {
		return domain.Internal("failed to resize terminal", err)
	}
	return nil
}

func (m *Manager) Close(id string) error {
	m.mu.Lock()
	session, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if !ok {
		return domain.NotFound("terminal session not found")
	}

	session.close()
	log.WithField("session", id).Info("terminal session closed")
	return nil
}

// List returns the ids of all live sessions.
func (m *Manager) List() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	return ids
}

// CloseAll tears down every session, used at process shutdown.
func (m *Manager) CloseAll() {
	m.mu.Lock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, session := range m.sessions {
		sessions = append(sessions, session)
	}
	m.sessions = map[string]*Session{}
	m.mu.Unlock()

	for _, session := range sessions {
		session.close()
	}
}

func (s *Session) drain() {
	chunk := make([]byte, 8192)
	for {
		n, err := s.handle.Read(chunk)
		if n > 0 {
			s.mu.Lock()
			// Oldest output is dropped once the buffer overflows; the
			// session keeps running.
			if s.buf.Len()+n > readBufferLimit {
				overflow := s.buf.Len() + n - readBufferLimit
				if overflow >= s.buf.Len() {
					s.buf.Reset()
				} else {
					s.buf.Next(overflow)
				}
			}
			s.buf.Write(chunk[:n])
			s.mu.Unlock()
		}
		if err != nil {
			return
		}
	}
}

func (s *Session) close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()
	_ = s.handle.Close()
}
