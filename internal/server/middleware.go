package server

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"inkshelf/internal/session"
	"inkshelf/internal/util"
	"inkshelf/pkg/domain"
)

type sessionContextKey struct{}

// sessionState is what the guards evaluate: the hydrated session, plus the
// hydration error when the store was unreachable.
type sessionState struct {
	sid        string
	sess       session.Session
	hydrateErr error
}

// withSession ensures a session cookie exists and hydrates the stored
// session before any guard or view runs. Hydration never calls the network;
// a store failure is carried in the state so guard rule one can render the
// loading view instead of redirecting.
func (s *Server) withSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sid := ""
		if cookie, err := r.Cookie(s.cookieName); err == nil {
			sid = cookie.Value
		}
		if sid == "" {
			sid = uuid.NewString()
			http.SetCookie(w, &http.Cookie{
				Name:     s.cookieName,
				Value:    sid,
				Path:     "/",
				MaxAge:   int(s.cookieMaxAge.Seconds()),
				HttpOnly: true,
				Secure:   s.cookieSecure,
				SameSite: http.SameSiteLaxMode,
			})
		}

		state := &sessionState{sid: sid}
		sess, err := s.sessions.Hydrate(r.Context(), sid)
		if err != nil {
			util.LoggerFromContext(r.Context()).Warn("session hydrate failed", "err", err)
			state.hydrateErr = err
		} else {
			state.sess = sess
		}

		ctx := context.WithValue(r.Context(), sessionContextKey{}, state)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func stateFromRequest(r *http.Request) *sessionState {
	state, _ := r.Context().Value(sessionContextKey{}).(*sessionState)
	if state == nil {
		return &sessionState{}
	}
	return state
}

// requireAuth guards routes that need an authenticated session.
// Evaluation order: hydration failure renders the loading view with no
// redirect; an unauthenticated session redirects to login; otherwise the
// view renders.
func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		state := stateFromRequest(r)
		if state.hydrateErr != nil {
			s.renderLoading(w)
			return
		}
		if !state.sess.Authenticated {
			s.audit(r, "web.authorize", "fail", "reason", "unauthenticated")
			http.Redirect(w, r, "/login", http.StatusFound)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// requireRole guards role-scoped routes. An authenticated session with the
// wrong role is sent to its own role home, not to login.
func (s *Server) requireRole(role domain.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return s.requireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			state := stateFromRequest(r)
			if state.sess.Role != role {
				target := "/"
				if state.sess.Role != "" {
					target = "/" + string(state.sess.Role)
				}
				s.audit(r, "web.authorize", "fail", "reason", "role_mismatch", "have", string(state.sess.Role), "want", string(role))
				http.Redirect(w, r, target, http.StatusFound)
				return
			}
			next.ServeHTTP(w, r)
		}))
	}
}
