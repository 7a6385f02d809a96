// Package auth owns the credential lifecycle: the session store contract,
// resolving a session to a live vehicle handle, and the token bootstrap.
package auth

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/soyeahso/zoebot/internal/domain"
)

// SessionStore persists one session record per conversation identity.
type SessionStore interface {
	// GetOrCreate returns the session for identity, creating it on first use.
	GetOrCreate(ctx context.Context, identity string) (*domain.Session, error)

	// Get returns the session for identity or domain.ErrSessionNotFound.
	Get(ctx context.Context, identity string) (*domain.Session, error)

	// SaveBootstrap persists the bootstrap state machine only.
	SaveBootstrap(ctx context.Context, identity string, state domain.BootstrapState) error

	// Commit writes login token, account and vehicle in one atomic step
	// and marks the bootstrap committed.
	Commit(ctx context.Context, identity string, creds domain.Credentials, at time.Time) error

	// List returns every session, most recently updated first.
	List(ctx context.Context) ([]domain.Session, error)
}

// MemorySessionStore is an in-memory SessionStore. Callers always get
// copies, so a session only changes through the store methods.
type MemorySessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*domain.Session // identity → session
	now      func() time.Time
}

var _ SessionStore = (*MemorySessionStore)(nil)

// NewMemorySessionStore creates an in-memory session store.
func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{
		sessions: make(map[string]*domain.Session),
		now:      time.Now,
	}
}

func (s *MemorySessionStore) GetOrCreate(_ context.Context, identity string) (*domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sess, ok := s.sessions[identity]; ok {
		return sess.Clone(), nil
	}

	now := s.now()
	sess := &domain.Session{Identity: identity, CreatedAt: now, UpdatedAt: now}
	s.sessions[identity] = sess
	return sess.Clone(), nil
}

func (s *MemorySessionStore) Get(_ context.Context, identity string) (*domain.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[identity]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return sess.Clone(), nil
}

func (s *MemorySessionStore) SaveBootstrap(_ context.Context, identity string, state domain.BootstrapState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.getOrInit(identity)
	sess.Bootstrap = state
	sess.UpdatedAt = s.now()
	return nil
}

func (s *MemorySessionStore) Commit(_ context.Context, identity string, creds domain.Credentials, at time.Time) error {
	if err := creds.Valid(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.getOrInit(identity).Apply(creds, at)
	return nil
}

func (s *MemorySessionStore) List(_ context.Context) ([]domain.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		out = append(out, *sess.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].UpdatedAt.After(out[j].UpdatedAt)
		}
		return out[i].Identity < out[j].Identity
	})
	return out, nil
}

// getOrInit must be called with mu held.
func (s *MemorySessionStore) getOrInit(identity string) *domain.Session {
	sess, ok := s.sessions[identity]
	if !ok {
		now := s.now()
		sess = &domain.Session{Identity: identity, CreatedAt: now, UpdatedAt: now}
		s.sessions[identity] = sess
	}
	return sess
}
