package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"inkshelf/pkg/domain"
)

// Session is the hydrated per-browser state. Authenticated is true iff both
// the token and the user profile are present.
type Session struct {
	User          *domain.UserProfile
	Role          domain.Role
	Token         string
	Authenticated bool
}

// ErrInvalidRole is returned by SelectRole for values outside reader/writer.
var ErrInvalidRole = errors.New("invalid role")

// Manager is the single writer of persisted identity state. Resource clients
// and view handlers read identity through it and never touch the store
// directly. No method here performs a network call.
type Manager struct {
	store Store
	now   func() time.Time
}

// NewManager wires a manager over the given store.
func NewManager(store Store) *Manager {
	return &Manager{store: store, now: time.Now}
}

// Hydrate loads the stored session. A missing record yields an empty,
// unauthenticated session with no error. A stored token whose JWT expiry has
// passed is treated as stale: the whole record is purged and an empty session
// returned. Hydrate never calls the network and always terminates.
func (m *Manager) Hydrate(ctx context.Context, sid string) (Session, error) {
	values, err := m.store.Read(ctx, sid)
	if err != nil {
		return Session{}, fmt.Errorf("read session: %w", err)
	}

	token := values[KeyToken]
	if token != "" && tokenExpired(token, m.now()) {
		if err := m.store.Clear(ctx, sid); err != nil {
			return Session{}, fmt.Errorf("purge expired session: %w", err)
		}
		return Session{}, nil
	}

	var user *domain.UserProfile
	if raw := values[KeyUserData]; raw != "" {
		var profile domain.UserProfile
		if err := json.Unmarshal([]byte(raw), &profile); err == nil {
			user = &profile
		}
		// A corrupt userData blob hydrates as absent; logout will clear it.
	}

	role, _ := domain.ParseRole(values[KeyUserRole])
	if role == "" && user != nil {
		role, _ = domain.ParseRole(string(user.Role))
	}

	return Session{
		User:          user,
		Role:          role,
		Token:         token,
		Authenticated: token != "" && user != nil,
	}, nil
}

// SelectRole persists a tentative role without requiring authentication.
// Used for landing-page role pre-selection before login.
func (m *Manager) SelectRole(ctx context.Context, sid string, role domain.Role) error {
	parsed, ok := domain.ParseRole(string(role))
	if !ok {
		return ErrInvalidRole
	}
	return m.store.Write(ctx, sid, map[string]string{KeyUserRole: string(parsed)})
}

// Login records the authenticated identity, deriving the role from the
// profile when present. All keys land in one store write.
func (m *Manager) Login(ctx context.Context, sid string, user domain.UserProfile, token string) (Session, error) {
	if strings.TrimSpace(token) == "" {
		return Session{}, errors.New("login requires a token")
	}
	raw, err := json.Marshal(user)
	if err != nil {
		return Session{}, fmt.Errorf("encode user: %w", err)
	}
	values := map[string]string{
		KeyToken:    token,
		KeyUserData: string(raw),
	}
	role, ok := domain.ParseRole(string(user.Role))
	if ok {
		values[KeyUserRole] = string(role)
	}
	if err := m.store.Write(ctx, sid, values); err != nil {
		return Session{}, fmt.Errorf("persist session: %w", err)
	}
	sess := Session{
		User:          &user,
		Token:         token,
		Authenticated: true,
	}
	if ok {
		sess.Role = role
	}
	return sess, nil
}

// UpdateUser replaces the persisted profile wholesale after a profile update,
// so the new identity survives the next hydrate.
func (m *Manager) UpdateUser(ctx context.Context, sid string, user domain.UserProfile) error {
	raw, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("encode user: %w", err)
	}
	values := map[string]string{KeyUserData: string(raw)}
	if role, ok := domain.ParseRole(string(user.Role)); ok {
		values[KeyUserRole] = string(role)
	}
	return m.store.Write(ctx, sid, values)
}

// Logout clears the in-memory view and every persisted key, including the
// legacy duplicate, so nothing can resurrect the session on the next hydrate.
func (m *Manager) Logout(ctx context.Context, sid string) error {
	return m.store.Clear(ctx, sid)
}

// tokenExpired inspects the JWT exp claim without verifying the signature.
// The backend is the authority on token validity; this only avoids carrying
// a token the backend is guaranteed to reject. Opaque or malformed tokens
// pass through untouched.
func tokenExpired(token string, now time.Time) bool {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return exp.Before(now)
}
