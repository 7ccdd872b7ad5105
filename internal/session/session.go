package session

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"ragchat/internal/domain"
)

// ErrUnknownSession is returned when an operation names a session id that
// does not exist.
var ErrUnknownSession = errors.New("unknown session")

const (
	defaultName = "New Chat"
	nameWords   = 3
	nameMaxLen  = 20
)

// Store persists sessions across runs. Implemented by the sqlite
// sub-package; a nil store keeps sessions in memory only.
type Store interface {
	SaveSession(ctx context.Context, s domain.ChatSession) error
	SaveTurn(ctx context.Context, sessionID string, turn domain.ChatTurn) error
	RenameSession(ctx context.Context, sessionID, name string) error
	DeleteSession(ctx context.Context, sessionID string) error
	LoadSessions(ctx context.Context) ([]domain.ChatSession, error)
}

// Manager owns the session store and the process-wide active session. All
// mutation goes through it; one lock guards the map since turns are
// processed one at a time.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*domain.ChatSession
	active   string
	store    Store
}

// NewManager creates a manager with a fresh empty active session. When a
// store is given, previously persisted sessions are loaded first.
func NewManager(ctx context.Context, store Store) (*Manager, error) {
	m := &Manager{sessions: make(map[string]*domain.ChatSession), store: store}
	if store != nil {
		loaded, err := store.LoadSessions(ctx)
		if err != nil {
			return nil, fmt.Errorf("load sessions: %w", err)
		}
		for i := range loaded {
			s := loaded[i]
			m.sessions[s.ID] = &s
		}
	}
	m.mu.Lock()
	m.newSessionLocked(ctx)
	m.mu.Unlock()
	return m, nil
}

// NewSession starts an empty session, makes it active, and returns it.
func (m *Manager) NewSession(ctx context.Context) domain.ChatSession {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.newSessionLocked(ctx)
}

func (m *Manager) newSessionLocked(ctx context.Context) domain.ChatSession {
	// Reuse the active placeholder instead of piling up empty sessions.
	if cur, ok := m.sessions[m.active]; ok && cur.Empty() {
		return copySession(cur)
	}
	s := &domain.ChatSession{
		ID:        uuid.New().String(),
		Name:      defaultName,
		CreatedAt: time.Now(),
	}
	m.sessions[s.ID] = s
	m.active = s.ID
	return copySession(s)
}

// Active returns the currently active session.
func (m *Manager) Active() domain.ChatSession {
	m.mu.Lock()
	defer m.mu.Unlock()
	return copySession(m.sessions[m.active])
}

// Select makes the named session active.
func (m *Manager) Select(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[id]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownSession, id)
	}
	// Selecting away from an untouched placeholder discards it.
	if cur, ok := m.sessions[m.active]; ok && cur.Empty() && m.active != id {
		delete(m.sessions, m.active)
	}
	m.active = id
	return nil
}

// Get returns the named session.
func (m *Manager) Get(id string) (domain.ChatSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return domain.ChatSession{}, fmt.Errorf("%w: %s", ErrUnknownSession, id)
	}
	return copySession(s), nil
}

// Append adds a turn to the named session. Once the session holds exactly
// one user and one assistant turn, a display name is derived from the
// first user turn. The first write to a placeholder session also persists
// the session record itself.
func (m *Manager) Append(ctx context.Context, id string, turn domain.ChatTurn) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownSession, id)
	}
	wasEmpty := s.Empty()
	s.Turns = append(s.Turns, turn)
	if m.store != nil {
		if wasEmpty {
			if err := m.store.SaveSession(ctx, copySession(s)); err != nil {
				return fmt.Errorf("save session: %w", err)
			}
		}
		if err := m.store.SaveTurn(ctx, id, turn); err != nil {
			return fmt.Errorf("save turn: %w", err)
		}
	}
	if users, assistants := countRoles(s.Turns); users == 1 && assistants == 1 {
		return m.autoNameLocked(ctx, s)
	}
	return nil
}

// AutoName derives a display name from the first user turn: its first
// three words, truncated to 20 characters with an ellipsis if longer.
// Idempotent.
func (m *Manager) AutoName(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownSession, id)
	}
	return m.autoNameLocked(ctx, s)
}

func (m *Manager) autoNameLocked(ctx context.Context, s *domain.ChatSession) error {
	for _, turn := range s.Turns {
		if turn.Role != domain.RoleUser {
			continue
		}
		name := deriveName(turn.Content)
		if name == "" || name == s.Name {
			return nil
		}
		s.Name = name
		if m.store != nil {
			if err := m.store.RenameSession(ctx, s.ID, name); err != nil {
				return fmt.Errorf("rename session: %w", err)
			}
		}
		return nil
	}
	return nil
}

// Delete removes the named session. Unknown ids are a no-op, so deletion
// is idempotent. Deleting the active session resets the active pointer to
// a fresh empty session.
func (m *Manager) Delete(ctx context.Context, id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[id]; !ok {
		return
	}
	delete(m.sessions, id)
	if m.store != nil {
		_ = m.store.DeleteSession(ctx, id)
	}
	if m.active == id {
		m.active = ""
		m.newSessionLocked(ctx)
	}
}

// List returns non-empty sessions, most recently created first. The empty
// active placeholder is never listed.
func (m *Manager) List() []domain.ChatSession {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.ChatSession, 0, len(m.sessions))
	for _, s := range m.sessions {
		if s.Empty() {
			continue
		}
		out = append(out, copySession(s))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func countRoles(turns []domain.ChatTurn) (users, assistants int) {
	for _, t := range turns {
		switch t.Role {
		case domain.RoleUser:
			users++
		case domain.RoleAssistant:
			assistants++
		}
	}
	return users, assistants
}

func deriveName(content string) string {
	words := strings.Fields(content)
	if len(words) == 0 {
		return ""
	}
	if len(words) > nameWords {
		words = words[:nameWords]
	}
	name := strings.Join(words, " ")
	if runes := []rune(name); len(runes) > nameMaxLen {
		name = string(runes[:nameMaxLen]) + "…"
	}
	return name
}

func copySession(s *domain.ChatSession) domain.ChatSession {
	if s == nil {
		return domain.ChatSession{}
	}
	out := *s
	out.Turns = make([]domain.ChatTurn, len(s.Turns))
	copy(out.Turns, s.Turns)
	return out
}
