package server

import (
	"errors"
	"net/http"
	"strings"

	"inkshelf/internal/authclient"
	"inkshelf/pkg/domain"
)

const genericErrorMessage = "An error occurred. Please try again."

type loginData struct {
	Error string
	Email string
}

type signupData struct {
	Error string
	Name  string
	Email string
	Role  string
}

// handleRoot redirects to the role home when a role is already selected,
// even before login; otherwise it shows the landing page with role cards.
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	state := stateFromRequest(r)
	if state.hydrateErr != nil {
		s.renderLoading(w)
		return
	}
	if state.sess.Role != "" {
		http.Redirect(w, r, "/"+string(state.sess.Role), http.StatusFound)
		return
	}
	s.views.render(w, http.StatusOK, "landing.html", nil)
}

// handleSelectRole persists the tentative role chosen on the landing page.
// Selecting a role grants nothing beyond the landing redirect; protected
// routes still demand authentication.
func (s *Server) handleSelectRole(w http.ResponseWriter, r *http.Request) {
	state := stateFromRequest(r)
	if state.hydrateErr != nil {
		s.renderLoading(w)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	role, ok := domain.ParseRole(r.PostFormValue("role"))
	if !ok {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	if err := s.sessions.SelectRole(r.Context(), state.sid, role); err != nil {
		s.audit(r, "web.role.select", "fail", "reason", err.Error())
		s.renderLoading(w)
		return
	}
	s.audit(r, "web.role.select", "success", "role", string(role))
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) showLogin(w http.ResponseWriter, r *http.Request) {
	s.views.render(w, http.StatusOK, "login.html", loginData{})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	state := stateFromRequest(r)
	if state.hydrateErr != nil {
		s.renderLoading(w)
		return
	}
	if err := r.ParseForm(); err != nil {
		s.views.render(w, http.StatusBadRequest, "login.html", loginData{Error: genericErrorMessage})
		return
	}
	email := strings.TrimSpace(r.PostFormValue("email"))
	password := r.PostFormValue("password")
	if email == "" || password == "" {
		// Validation failures never reach the network.
		s.views.render(w, http.StatusOK, "login.html", loginData{
			Error: "Email and password are required",
			Email: email,
		})
		return
	}
	if !s.allowRate(w, r, s.loginLimiter) {
		s.audit(r, "web.login", "rate_limited")
		s.views.render(w, http.StatusTooManyRequests, "login.html", loginData{
			Error: "Too many login attempts. Please try again later.",
			Email: email,
		})
		return
	}

	user, token, err := s.auth.Login(r.Context(), email, password)
	if err != nil {
		s.audit(r, "web.login", "fail", "reason", err.Error())
		s.views.render(w, http.StatusOK, "login.html", loginData{
			Error: s.authErrorMessage(err),
			Email: email,
		})
		return
	}

	if _, err := s.sessions.Login(r.Context(), state.sid, user, token); err != nil {
		s.audit(r, "web.login", "fail", "reason", err.Error())
		s.views.render(w, http.StatusOK, "login.html", loginData{Error: genericErrorMessage, Email: email})
		return
	}
	s.audit(r, "web.login", "success", "user_id", user.ID)
	http.Redirect(w, r, roleHome(user.Role), http.StatusSeeOther)
}

func (s *Server) showSignup(w http.ResponseWriter, r *http.Request) {
	s.views.render(w, http.StatusOK, "signup.html", signupData{Role: string(domain.RoleReader)})
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	state := stateFromRequest(r)
	if state.hydrateErr != nil {
		s.renderLoading(w)
		return
	}
	if err := r.ParseForm(); err != nil {
		s.views.render(w, http.StatusBadRequest, "signup.html", signupData{Error: genericErrorMessage})
		return
	}
	name := strings.TrimSpace(r.PostFormValue("name"))
	email := strings.TrimSpace(r.PostFormValue("email"))
	password := r.PostFormValue("password")
	role, ok := domain.ParseRole(r.PostFormValue("role"))
	if !ok {
		role = domain.RoleReader
	}
	form := signupData{Name: name, Email: email, Role: string(role)}

	if name == "" || email == "" || password == "" {
		form.Error = "All fields are required"
		s.views.render(w, http.StatusOK, "signup.html", form)
		return
	}
	if len(password) < 6 {
		form.Error = "Password must be at least 6 characters"
		s.views.render(w, http.StatusOK, "signup.html", form)
		return
	}
	if !s.allowRate(w, r, s.signupLimiter) {
		s.audit(r, "web.signup", "rate_limited")
		form.Error = "Too many signup attempts. Please try again later."
		s.views.render(w, http.StatusTooManyRequests, "signup.html", form)
		return
	}

	user, token, err := s.auth.Register(r.Context(), name, email, password, role)
	if err != nil {
		s.audit(r, "web.signup", "fail", "reason", err.Error())
		form.Error = s.authErrorMessage(err)
		s.views.render(w, http.StatusOK, "signup.html", form)
		return
	}

	if _, err := s.sessions.Login(r.Context(), state.sid, user, token); err != nil {
		s.audit(r, "web.signup", "fail", "reason", err.Error())
		form.Error = genericErrorMessage
		s.views.render(w, http.StatusOK, "signup.html", form)
		return
	}
	s.audit(r, "web.signup", "success", "user_id", user.ID)
	http.Redirect(w, r, roleHome(user.Role), http.StatusSeeOther)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	state := stateFromRequest(r)
	if err := s.sessions.Logout(r.Context(), state.sid); err != nil {
		s.audit(r, "web.logout", "fail", "reason", err.Error())
		s.renderLoading(w)
		return
	}
	s.audit(r, "web.logout", "success")
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// authErrorMessage keeps the backend's message for expected failures and
// falls back to a generic message for transport errors.
func (s *Server) authErrorMessage(err error) string {
	var apiErr *authclient.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	if s.metrics != nil {
		s.metrics.RecordUpstreamFailure("auth")
	}
	return genericErrorMessage
}

func roleHome(role domain.Role) string {
	if role == domain.RoleWriter {
		return "/writer"
	}
	return "/reader"
}
