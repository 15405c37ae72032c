package careauth

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/carebridge/careauth/session"
)

// SessionPersistence is the collaborator storage layer that lets a session
// survive process restarts. The engine only calls Save, Load, and Clear;
// everything else about the medium is opaque. Load returns
// [session.ErrNotFound] when nothing is persisted.
type SessionPersistence interface {
	Save(ctx context.Context, sess *session.Session) error
	Load(ctx context.Context) (*session.Session, error)
	Clear(ctx context.Context) error
}

type memoryPersistence struct {
	mu  sync.Mutex
	rec *session.Session
}

func newMemoryPersistence() *memoryPersistence {
	return &memoryPersistence{}
}

func (p *memoryPersistence) Save(_ context.Context, sess *session.Session) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	clone := *sess
	p.rec = &clone
	return nil
}

func (p *memoryPersistence) Load(_ context.Context) (*session.Session, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.rec == nil {
		return nil, session.ErrNotFound
	}
	clone := *p.rec
	return &clone, nil
}

func (p *memoryPersistence) Clear(_ context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.rec = nil
	return nil
}

type redisPersistence struct {
	store    *session.Store
	deviceID string
}

func (p *redisPersistence) Save(ctx context.Context, sess *session.Session) error {
	return p.store.Save(ctx, p.deviceID, sess)
}

func (p *redisPersistence) Load(ctx context.Context) (*session.Session, error) {
	return p.store.Load(ctx, p.deviceID)
}

func (p *redisPersistence) Clear(ctx context.Context) error {
	return p.store.Clear(ctx, p.deviceID)
}

// SessionStore is the sole owner of the process-wide session. All mutation
// goes through Establish, the rotation and profile setters, and Teardown;
// no flow writes session fields directly. At most one session exists at a
// time and replacement is atomic: readers observe either the old complete
// pair or the new one, never a partial update.
type SessionStore struct {
	mu      sync.RWMutex
	tokens  Tokens
	user    *User
	active  bool
	persist SessionPersistence
	caches  []SessionCache
	warn    func(msg string)
}

func newSessionStore(persist SessionPersistence, warn func(string)) *SessionStore {
	if persist == nil {
		persist = newMemoryPersistence()
	}
	if warn == nil {
		warn = func(string) {}
	}
	return &SessionStore{
		persist: persist,
		warn:    warn,
	}
}

// registerCache adds a session-derived cache to the teardown cascade.
// Registration order is preserved; Teardown clears in that order.
func (s *SessionStore) registerCache(c SessionCache) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.caches = append(s.caches, c)
}

// Establish describes the establish operation and its observable behavior.
//
// Establish may return an error when input validation, dependency calls, or security checks fail.
// Establish does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (s *SessionStore) Establish(ctx context.Context, tokens Tokens, user *User) error {
	if !tokens.Valid() {
		return errors.New("careauth: refusing to establish partial token pair")
	}

	s.mu.Lock()
	s.tokens = tokens
	s.user = user
	s.active = true
	rec := s.record()
	s.mu.Unlock()

	// Persistence is best-effort: a storage failure leaves the in-memory
	// session authoritative and only costs restart survival.
	if err := s.persist.Save(ctx, rec); err != nil {
		s.warn("careauth: session persist failed: " + err.Error())
	}
	return nil
}

// record builds the persisted form. Caller holds s.mu.
func (s *SessionStore) record() *session.Session {
	rec := &session.Session{
		AccessToken:  s.tokens.AccessToken,
		RefreshToken: s.tokens.RefreshToken,
	}
	if s.user != nil {
		rec.UserID = s.user.UserID
	}
	if !s.tokens.AccessExpiry.IsZero() {
		rec.AccessExpiresAt = s.tokens.AccessExpiry.Unix()
	}
	if !s.tokens.RefreshExpiry.IsZero() {
		rec.RefreshExpiresAt = s.tokens.RefreshExpiry.Unix()
	}
	rec.EstablishedAt = time.Now().Unix()
	return rec
}

// Teardown describes the teardown operation and its observable behavior.
//
// Teardown may return an error when input validation, dependency calls, or security checks fail.
// Teardown does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (s *SessionStore) Teardown(ctx context.Context) {
	s.mu.Lock()
	s.tokens = Tokens{}
	s.user = nil
	s.active = false
	caches := make([]SessionCache, len(s.caches))
	copy(caches, s.caches)
	s.mu.Unlock()

	if err := s.persist.Clear(ctx); err != nil {
		s.warn("careauth: session persistence clear failed: " + err.Error())
	}
	for _, c := range caches {
		if err := c.Clear(ctx); err != nil {
			s.warn("careauth: cache clear failed for " + c.Name() + ": " + err.Error())
		}
	}
}

// IsAuthenticated describes the isauthenticated operation and its observable behavior.
//
// IsAuthenticated may return an error when input validation, dependency calls, or security checks fail.
// IsAuthenticated does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (s *SessionStore) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active
}

// Current describes the current operation and its observable behavior.
//
// Current may return an error when input validation, dependency calls, or security checks fail.
// Current does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (s *SessionStore) Current() (Tokens, *User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.active {
		return Tokens{}, nil, false
	}
	var user *User
	if s.user != nil {
		clone := *s.user
		user = &clone
	}
	return s.tokens, user, true
}

// rotate atomically replaces the token pair without disturbing the cached
// user. Used by session refresh; rejected when no session is active.
func (s *SessionStore) rotate(ctx context.Context, tokens Tokens) error {
	if !tokens.Valid() {
		return errors.New("careauth: refusing to rotate to partial token pair")
	}

	s.mu.Lock()
	if !s.active {
		s.mu.Unlock()
		return ErrNotAuthenticated
	}
	s.tokens = tokens
	rec := s.record()
	s.mu.Unlock()

	if err := s.persist.Save(ctx, rec); err != nil {
		s.warn("careauth: session persist failed: " + err.Error())
	}
	return nil
}

// setUser replaces the cached user snapshot on an active session.
func (s *SessionStore) setUser(user *User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.active {
		return
	}
	s.user = user
}

// restore installs a persisted session, if one survives. Called once from
// Builder.Build; a corrupt or absent record leaves the store empty.
func (s *SessionStore) restore(ctx context.Context) bool {
	rec, err := s.persist.Load(ctx)
	if err != nil {
		if !errors.Is(err, session.ErrNotFound) {
			s.warn("careauth: session restore failed: " + err.Error())
		}
		return false
	}
	if rec.RefreshExpiresAt > 0 && time.Now().Unix() >= rec.RefreshExpiresAt {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens = Tokens{
		AccessToken:  rec.AccessToken,
		RefreshToken: rec.RefreshToken,
	}
	if rec.AccessExpiresAt > 0 {
		s.tokens.AccessExpiry = time.Unix(rec.AccessExpiresAt, 0)
	}
	if rec.RefreshExpiresAt > 0 {
		s.tokens.RefreshExpiry = time.Unix(rec.RefreshExpiresAt, 0)
	}
	if rec.UserID != "" {
		s.user = &User{UserID: rec.UserID}
	}
	s.active = true
	return true
}
