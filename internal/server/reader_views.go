package server

import (
	"errors"
	"html/template"
	"net/http"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"inkshelf/internal/bookclient"
	"inkshelf/internal/util"
	"inkshelf/pkg/domain"
)

type readerData struct {
	User  *domain.UserProfile
	Books []bookView
	Error string
}

type readData struct {
	Book        *bookView
	Description template.HTML
	Error       string
}

// handleReaderDashboard lists the public catalog. The catalog and the
// profile refresh are independent round trips with no ordering between
// them; a profile failure falls back to the session's stored copy.
func (s *Server) handleReaderDashboard(w http.ResponseWriter, r *http.Request) {
	state := stateFromRequest(r)

	var books []domain.Book
	user := state.sess.User

	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		listed, err := s.books.List(ctx)
		if err != nil {
			return err
		}
		books = listed
		return nil
	})
	g.Go(func() error {
		fresh, err := s.users.Get(ctx, state.sess.Token)
		if err != nil {
			util.LoggerFromContext(ctx).Warn("profile refresh failed", "err", err)
			return nil
		}
		user = &fresh
		return nil
	})
	if err := g.Wait(); err != nil {
		s.views.render(w, http.StatusOK, "reader.html", readerData{
			User:  user,
			Error: s.bookErrorMessage(err, "Failed to load books"),
		})
		return
	}

	s.views.render(w, http.StatusOK, "reader.html", readerData{
		User:  user,
		Books: s.views.bookViews(books),
	})
}

// handleReadingView shows one book. The description may carry markup from
// the writer and is sanitized before rendering; the file itself is an opaque
// link delegated to the browser's viewer.
func (s *Server) handleReadingView(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	book, err := s.books.Get(r.Context(), id)
	if err != nil {
		status := http.StatusOK
		msg := "Failed to load book"
		var apiErr *bookclient.APIError
		if errors.As(err, &apiErr) {
			msg = apiErr.Message
			if apiErr.Status == http.StatusNotFound {
				status = http.StatusNotFound
			}
		} else if s.metrics != nil {
			s.metrics.RecordUpstreamFailure("books")
		}
		s.views.render(w, status, "read.html", readData{Error: msg})
		return
	}

	view := s.views.bookView(book)
	s.views.render(w, http.StatusOK, "read.html", readData{
		Book:        &view,
		Description: template.HTML(s.sanitizer.Sanitize(book.Description)),
	})
}
