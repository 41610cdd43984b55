package server

import (
	"errors"
	"net/http"
	"strings"

	"inkshelf/internal/userclient"
	"inkshelf/pkg/domain"
)

type profileData struct {
	User   *domain.UserProfile
	Name   string
	Email  string
	Error  string
	Notice string
}

func (s *Server) showProfile(w http.ResponseWriter, r *http.Request) {
	state := stateFromRequest(r)
	user := state.sess.User
	s.views.render(w, http.StatusOK, "profile.html", profileData{
		User:  user,
		Name:  user.Name,
		Email: user.Email,
	})
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	state := stateFromRequest(r)
	user := state.sess.User
	if err := r.ParseForm(); err != nil {
		s.views.render(w, http.StatusBadRequest, "profile.html", profileData{User: user, Error: genericErrorMessage})
		return
	}

	name := strings.TrimSpace(r.PostFormValue("name"))
	email := strings.TrimSpace(r.PostFormValue("email"))
	password := r.PostFormValue("password")
	confirm := r.PostFormValue("confirmPassword")
	form := profileData{User: user, Name: name, Email: email}

	// Validation failures never reach the network and leave state intact.
	switch {
	case name == "":
		form.Error = "Name is required"
	case email == "":
		form.Error = "Email is required"
	case password != "" && password != confirm:
		form.Error = "Passwords do not match"
	case password != "" && len(password) < 6:
		form.Error = "Password must be at least 6 characters"
	}
	if form.Error != "" {
		s.views.render(w, http.StatusOK, "profile.html", form)
		return
	}

	updated, err := s.users.Update(r.Context(), state.sess.Token, userclient.ProfileUpdate{
		Name:     name,
		Email:    email,
		Password: password,
	})
	if err != nil {
		s.audit(r, "web.profile.update", "fail", "reason", err.Error())
		form.Error = s.userErrorMessage(err, "An error occurred while updating profile")
		s.views.render(w, http.StatusOK, "profile.html", form)
		return
	}

	// The backend may return a sparse record; keep current identity fields
	// it left blank, then replace the stored profile wholesale.
	merged := updated
	if merged.ID == "" {
		merged.ID = user.ID
	}
	if merged.Role == "" {
		merged.Role = user.Role
	}
	if err := s.sessions.UpdateUser(r.Context(), state.sid, merged); err != nil {
		form.Error = genericErrorMessage
		s.views.render(w, http.StatusOK, "profile.html", form)
		return
	}
	s.audit(r, "web.profile.update", "success", "user_id", merged.ID)
	s.views.render(w, http.StatusOK, "profile.html", profileData{
		User:   &merged,
		Name:   merged.Name,
		Email:  merged.Email,
		Notice: "Profile updated successfully",
	})
}

func (s *Server) handleDeleteAccount(w http.ResponseWriter, r *http.Request) {
	state := stateFromRequest(r)
	if err := s.users.DeleteAccount(r.Context(), state.sess.Token); err != nil {
		s.audit(r, "web.account.delete", "fail", "reason", err.Error())
		user := state.sess.User
		s.views.render(w, http.StatusOK, "profile.html", profileData{
			User:  user,
			Name:  user.Name,
			Email: user.Email,
			Error: s.userErrorMessage(err, "Failed to delete account"),
		})
		return
	}
	// Account is gone server-side; clear every local key so nothing can
	// resurrect the session.
	if err := s.sessions.Logout(r.Context(), state.sid); err != nil {
		s.audit(r, "web.account.delete", "fail", "reason", err.Error())
		s.renderLoading(w)
		return
	}
	s.audit(r, "web.account.delete", "success")
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) userErrorMessage(err error, fallback string) string {
	var apiErr *userclient.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	if s.metrics != nil {
		s.metrics.RecordUpstreamFailure("profile")
	}
	return fallback
}
