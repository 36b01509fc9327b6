// Package session owns the persisted authentication state: the bearer
// token and the signed-in user. Manager is the only writer of that state
// and doubles as the token source for the API clients.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/nhle/tracerx/internal/logging"
	"github.com/nhle/tracerx/internal/model"
)

// Keys under which the session is persisted.
const (
	TokenKey  = "auth_token"
	UserKey   = "user_data"
	AIKeyName = "gemini-api-key"
)

// Session is the signed-in user and their bearer token.
type Session struct {
	Token string
	User  model.User
}

// Manager guards the current session and persists it to a Store.
type Manager struct {
	store  Store
	logger *logging.Logger
	now    func() time.Time

	mu      sync.RWMutex
	current *Session
}

// NewManager creates a manager with no active session. Call Restore to
// load a persisted one.
func NewManager(store Store, logger *logging.Logger) *Manager {
	return &Manager{
		store:  store,
		logger: logging.OrDiscard(logger).WithComponent(logging.ComponentSession),
		now:    time.Now,
	}
}

// Restore loads the persisted session. A missing token or user, a
// corrupt user record or an expired JWT all yield (nil, nil) and leave
// the manager signed out; expired or corrupt state is also cleared.
func (m *Manager) Restore() (*Session, error) {
	token, err := m.store.Get(TokenKey)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading session token: %w", err)
	}

	rawUser, err := m.store.Get(UserKey)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading session user: %w", err)
	}

	var user model.User
	if err := json.Unmarshal([]byte(rawUser), &user); err != nil {
		m.logger.Warn("discarding corrupt user record", logging.FieldError, err)
		return nil, m.Clear()
	}

	if TokenExpired(token, m.now()) {
		m.logger.Info("discarding expired session", "user", user.Email)
		return nil, m.Clear()
	}

	s := &Session{Token: token, User: user}
	m.mu.Lock()
	m.current = s
	m.mu.Unlock()
	return s, nil
}

// Save persists a new session and makes it current.
func (m *Manager) Save(token string, user model.User) error {
	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("encoding user: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.store.Set(TokenKey, token); err != nil {
		return err
	}
	if err := m.store.Set(UserKey, string(data)); err != nil {
		return err
	}
	m.current = &Session{Token: token, User: user}
	m.logger.Info("session saved", "user", user.Email)
	return nil
}

// SetUser replaces the stored user, e.g. after a profile update.
func (m *Manager) SetUser(user model.User) error {
	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("encoding user: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current == nil {
		return errors.New("no active session")
	}
	if err := m.store.Set(UserKey, string(data)); err != nil {
		return err
	}
	m.current = &Session{Token: m.current.Token, User: user}
	return nil
}

// Clear removes the persisted session and signs out.
func (m *Manager) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.current = nil
	if err := m.store.Delete(TokenKey); err != nil {
		return err
	}
	if err := m.store.Delete(UserKey); err != nil {
		return err
	}
	m.logger.Info("session cleared")
	return nil
}

// Token returns the current bearer token, or "" when signed out.
func (m *Manager) Token() string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.current == nil {
		return ""
	}
	return m.current.Token
}

// User returns the signed-in user.
func (m *Manager) User() (model.User, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.current == nil {
		return model.User{}, false
	}
	return m.current.User, true
}

// IsAuthenticated reports whether both a token and a user are present.
func (m *Manager) IsAuthenticated() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.current != nil && m.current.Token != "" && m.current.User.ID != ""
}

// TokenExpired reports whether token is a JWT whose exp claim is not
// after now. The signature is not verified; the server remains the
// authority. Tokens that are not JWTs or carry no exp never expire here.
func TokenExpired(token string, now time.Time) bool {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return !exp.After(now)
}
