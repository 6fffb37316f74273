package session

import (
	"errors"
	"strings"
	"sync"
	"time"

	contractx "github.com/tanpawarit/Juno-Tiered-Home-Agent/agent/contract"
)

var ErrInvalidSessionID = errors.New("session id is empty")

// Session is the runtime state of one conversation: the transcript so far
// and the memory context assembled when the session started. Nothing here
// is persisted; the durable outcome of a session is the summary note the
// store receives when it ends.
type Session struct {
	ID        string
	StartedAt time.Time

	mu        sync.Mutex
	entries   []contractx.Entry
	memory    contractx.MemoryContext
	hasMemory bool
	ended     bool
}

func New(id string, startedAt time.Time) (*Session, error) {
	if strings.TrimSpace(id) == "" {
		return nil, ErrInvalidSessionID
	}
	return &Session{ID: id, StartedAt: startedAt}, nil
}

/* ----------------------------- transcript ----------------------------- */

func (s *Session) Append(entries ...contractx.Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, entries...)
}

// Entries returns a copy of the transcript so callers can iterate without
// holding the session lock.
func (s *Session) Entries() []contractx.Entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]contractx.Entry, len(s.entries))
	copy(out, s.entries)
	return out
}

func (s *Session) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

/* ----------------------------- memory cache ----------------------------- */

// Memory returns the context cached for this session, if one was set.
// The cache lives and dies with the session; the next session rebuilds
// from the store and sees everything written in the meantime.
func (s *Session) Memory() (contractx.MemoryContext, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.memory, s.hasMemory
}

func (s *Session) SetMemory(mc contractx.MemoryContext) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.memory = mc
	s.hasMemory = true
}

/* ----------------------------- lifecycle ----------------------------- */

// MarkEnded flips the session to ended and reports whether this call was
// the one that did it. Ending twice is harmless and summarizes nothing.
func (s *Session) MarkEnded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ended {
		return false
	}
	s.ended = true
	return true
}

func (s *Session) Ended() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ended
}

/* ----------------------------- manager ----------------------------- */

// Manager tracks live sessions by id. Sessions are created on first use
// and dropped once ended, so a returning speaker gets fresh context.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*Session
	now      func() time.Time
}

type ManagerOption func(*Manager)

func WithClock(now func() time.Time) ManagerOption {
	return func(m *Manager) { m.now = now }
}

func NewManager(opts ...ManagerOption) *Manager {
	m := &Manager{
		sessions: make(map[string]*Session, 4),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	return s, ok
}

func (m *Manager) GetOrCreate(id string) (*Session, error) {
	if strings.TrimSpace(id) == "" {
		return nil, ErrInvalidSessionID
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.sessions[id]; ok {
		return s, nil
	}
	s := &Session{ID: id, StartedAt: m.now()}
	m.sessions[id] = s
	return s, nil
}

func (m *Manager) Remove(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
}

// ActiveIDs lists the ids of sessions still tracked, for shutdown sweeps.
func (m *Manager) ActiveIDs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	return ids
}
