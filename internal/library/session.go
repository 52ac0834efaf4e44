package library

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/crate/internal/models"
	"github.com/desertthunder/crate/internal/repositories"
	"github.com/desertthunder/crate/internal/shared"
	"github.com/golang-jwt/jwt/v5"
)

const (
	tokenKey = "token"
	userKey  = "user"
)

// KeyValueStore is durable string storage. Get reports a missing key with [repositories.ErrNotFound].
type KeyValueStore interface {
	Get(ctx context.Context, key string) (string, error)
	SetMany(ctx context.Context, values map[string]string) error
	DeleteMany(ctx context.Context, keys ...string) error
}

// SessionStore persists the session and caches it in memory.
type SessionStore struct {
	kv     KeyValueStore
	logger *log.Logger

	mu      sync.RWMutex
	session *models.Session
}

// NewSessionStore creates a [SessionStore] backed by kv.
func NewSessionStore(kv KeyValueStore, logger *log.Logger) *SessionStore {
	if logger == nil {
		logger = shared.NewLogger(io.Discard)
	}
	return &SessionStore{kv: kv, logger: shared.WithLogger(logger, "component", "session")}
}

// Load reads the persisted session into the cache. It returns nil when no token is stored.
//
// A stored user that cannot be decoded is logged and treated as an empty profile.
func (s *SessionStore) Load(ctx context.Context) (*models.Session, error) {
	token, err := s.kv.Get(ctx, tokenKey)
	if errors.Is(err, repositories.ErrNotFound) || (err == nil && token == "") {
		s.set(nil)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load token: %w", err)
	}

	session := models.Session{Token: token}
	raw, err := s.kv.Get(ctx, userKey)
	switch {
	case errors.Is(err, repositories.ErrNotFound):
	case err != nil:
		return nil, fmt.Errorf("failed to load user: %w", err)
	default:
		if err := json.Unmarshal([]byte(raw), &session.User); err != nil {
			s.logger.Warn("discarding unreadable user profile", "err", err)
			session.User = models.User{}
		}
	}

	s.set(&session)
	return s.Session(), nil
}

// Save persists token and user together.
func (s *SessionStore) Save(ctx context.Context, session models.Session) error {
	if session.Token == "" {
		return fmt.Errorf("%w: empty token", shared.ErrInvalidInput)
	}

	user, err := json.Marshal(session.User)
	if err != nil {
		return fmt.Errorf("failed to encode user: %w", err)
	}

	if err := s.kv.SetMany(ctx, map[string]string{tokenKey: session.Token, userKey: string(user)}); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}

	s.set(&session)
	s.logger.Debug("session saved", "user", session.User.UserName)
	return nil
}

// Clear removes the persisted session. The in-memory session is dropped even if the store fails.
func (s *SessionStore) Clear(ctx context.Context) error {
	s.set(nil)
	if err := s.kv.DeleteMany(ctx, tokenKey, userKey); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	s.logger.Debug("session cleared")
	return nil
}

// Token returns the cached token, or "" when not authenticated.
func (s *SessionStore) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.session == nil {
		return ""
	}
	return s.session.Token
}

// Session returns a copy of the cached session, or nil.
func (s *SessionStore) Session() *models.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.session == nil {
		return nil
	}
	cp := *s.session
	return &cp
}

func (s *SessionStore) set(session *models.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session = session
}

// TokenClaims is the display subset of a session token's claims.
type TokenClaims struct {
	Subject   string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Expired reports whether the token carries an expiry before now.
func (c TokenClaims) Expired(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && now.After(c.ExpiresAt)
}

// Claims decodes the cached token without verifying its signature.
//
// The result is informational only; it never decides whether a request is sent.
func (s *SessionStore) Claims() (*TokenClaims, error) {
	token := s.Token()
	if token == "" {
		return nil, shared.ErrNotAuthenticated
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("%w: token is not a JWT: %v", shared.ErrInvalidInput, err)
	}

	out := &TokenClaims{}
	if sub, err := claims.GetSubject(); err == nil {
		out.Subject = sub
	}
	if iat, err := claims.GetIssuedAt(); err == nil && iat != nil {
		out.IssuedAt = iat.Time
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		out.ExpiresAt = exp.Time
	}
	return out, nil
}
