package session

import (
	"context"
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"inkshelf/pkg/domain"
)

func testProfile() domain.UserProfile {
	return domain.UserProfile{
		ID:    "user-1",
		Name:  "A",
		Email: "b@x.com",
		Role:  domain.RoleWriter,
	}
}

func signedToken(t *testing.T, expiresAt time.Time) string {
	t.Helper()
	claims := jwt.MapClaims{"sub": "user-1", "exp": expiresAt.Unix()}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func TestHydrateEmptyStore(t *testing.T) {
	m := NewManager(NewMemoryStore())
	sess, err := m.Hydrate(context.Background(), "sid-1")
	if err != nil {
		t.Fatalf("hydrate: %v", err)
	}
	if sess.Authenticated {
		t.Fatalf("empty store should hydrate unauthenticated")
	}
	if sess.User != nil || sess.Role != "" || sess.Token != "" {
		t.Fatalf("empty store should hydrate an empty session, got %+v", sess)
	}
}

func TestLoginThenLogoutLeavesNoKeys(t *testing.T) {
	store := NewMemoryStore()
	m := NewManager(store)
	ctx := context.Background()

	// Simulate the legacy duplicate key an older client left behind.
	if err := store.Write(ctx, "sid-1", map[string]string{KeyLegacyUser: "{}"}); err != nil {
		t.Fatalf("seed legacy key: %v", err)
	}

	if _, err := m.Login(ctx, "sid-1", testProfile(), signedToken(t, time.Now().Add(time.Hour))); err != nil {
		t.Fatalf("login: %v", err)
	}
	if err := m.Logout(ctx, "sid-1"); err != nil {
		t.Fatalf("logout: %v", err)
	}

	values, err := store.Read(ctx, "sid-1")
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	for _, key := range []string{KeyToken, KeyUserData, KeyUserRole, KeyLegacyUser} {
		if _, ok := values[key]; ok {
			t.Fatalf("key %q should be cleared after logout", key)
		}
	}

	sess, err := m.Hydrate(ctx, "sid-1")
	if err != nil {
		t.Fatalf("hydrate after logout: %v", err)
	}
	if sess.Authenticated || sess.Token != "" || sess.User != nil {
		t.Fatalf("session should be empty after logout, got %+v", sess)
	}
}

func TestLoginDerivesRoleAndSurvivesHydrate(t *testing.T) {
	m := NewManager(NewMemoryStore())
	ctx := context.Background()

	sess, err := m.Login(ctx, "sid-1", testProfile(), signedToken(t, time.Now().Add(time.Hour)))
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if !sess.Authenticated || sess.Role != domain.RoleWriter {
		t.Fatalf("login should authenticate and derive role, got %+v", sess)
	}

	restored, err := m.Hydrate(ctx, "sid-1")
	if err != nil {
		t.Fatalf("hydrate: %v", err)
	}
	if !restored.Authenticated {
		t.Fatalf("hydrate should restore authentication")
	}
	if restored.User == nil || restored.User.Email != "b@x.com" {
		t.Fatalf("hydrate should restore the profile, got %+v", restored.User)
	}
	if restored.Role != domain.RoleWriter {
		t.Fatalf("hydrate should restore role writer, got %q", restored.Role)
	}
}

func TestSelectRoleDoesNotAuthenticate(t *testing.T) {
	m := NewManager(NewMemoryStore())
	ctx := context.Background()

	if err := m.SelectRole(ctx, "sid-1", domain.RoleWriter); err != nil {
		t.Fatalf("select role: %v", err)
	}
	sess, err := m.Hydrate(ctx, "sid-1")
	if err != nil {
		t.Fatalf("hydrate: %v", err)
	}
	if sess.Authenticated {
		t.Fatalf("role selection must not authenticate")
	}
	if sess.Role != domain.RoleWriter {
		t.Fatalf("expected tentative role writer, got %q", sess.Role)
	}
}

func TestSelectRoleRejectsUnknownRole(t *testing.T) {
	m := NewManager(NewMemoryStore())
	if err := m.SelectRole(context.Background(), "sid-1", domain.Role("admin")); err != ErrInvalidRole {
		t.Fatalf("expected ErrInvalidRole, got %v", err)
	}
}

func TestHydratePurgesExpiredToken(t *testing.T) {
	store := NewMemoryStore()
	m := NewManager(store)
	ctx := context.Background()

	if _, err := m.Login(ctx, "sid-1", testProfile(), signedToken(t, time.Now().Add(-time.Hour))); err != nil {
		t.Fatalf("login: %v", err)
	}

	sess, err := m.Hydrate(ctx, "sid-1")
	if err != nil {
		t.Fatalf("hydrate: %v", err)
	}
	if sess.Authenticated || sess.Token != "" {
		t.Fatalf("expired token should hydrate unauthenticated, got %+v", sess)
	}

	values, err := store.Read(ctx, "sid-1")
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(values) != 0 {
		t.Fatalf("expired session should be purged, got %v", values)
	}
}

func TestHydrateAcceptsOpaqueToken(t *testing.T) {
	m := NewManager(NewMemoryStore())
	ctx := context.Background()

	if _, err := m.Login(ctx, "sid-1", testProfile(), "opaque-session-token"); err != nil {
		t.Fatalf("login: %v", err)
	}
	sess, err := m.Hydrate(ctx, "sid-1")
	if err != nil {
		t.Fatalf("hydrate: %v", err)
	}
	if !sess.Authenticated {
		t.Fatalf("opaque tokens have no inspectable expiry and must pass through")
	}
}

func TestUpdateUserRoundTrip(t *testing.T) {
	m := NewManager(NewMemoryStore())
	ctx := context.Background()

	if _, err := m.Login(ctx, "sid-1", testProfile(), "tok"); err != nil {
		t.Fatalf("login: %v", err)
	}
	updated := testProfile()
	updated.Name = "A2"
	updated.Email = "b2@x.com"
	if err := m.UpdateUser(ctx, "sid-1", updated); err != nil {
		t.Fatalf("update user: %v", err)
	}

	sess, err := m.Hydrate(ctx, "sid-1")
	if err != nil {
		t.Fatalf("hydrate: %v", err)
	}
	if sess.User == nil || sess.User.Name != "A2" || sess.User.Email != "b2@x.com" {
		t.Fatalf("updated profile should survive hydrate, got %+v", sess.User)
	}
	if !sess.Authenticated {
		t.Fatalf("profile update must not drop authentication")
	}
}
