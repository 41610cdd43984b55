package session

import "context"

// Persisted keys for one browser session. KeyLegacyUser was written by an
// older client that stored the profile under "user" next to "userData"; the
// redesigned manager never writes it but still clears it so a stale copy
// cannot resurrect a session on the next hydrate.
const (
	KeyToken      = "token"
	KeyUserData   = "userData"
	KeyUserRole   = "userRole"
	KeyLegacyUser = "user"
)

// Store persists session fields keyed by session ID. Writes are synchronous;
// the manager treats each Write/Clear as atomic from the caller's view.
type Store interface {
	Read(ctx context.Context, sid string) (map[string]string, error)
	Write(ctx context.Context, sid string, values map[string]string) error
	Remove(ctx context.Context, sid string, keys ...string) error
	Clear(ctx context.Context, sid string) error
}
