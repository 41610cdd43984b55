package server

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"inkshelf/internal/bookclient"
	"inkshelf/pkg/domain"
)

type writerStats struct {
	Total     int
	Published int
	Drafts    int
}

type writerData struct {
	User   *domain.UserProfile
	Books  []bookView
	Stats  writerStats
	Error  string
	Notice string
}

// handleWriterDashboard lists the writer's own books, drafts included, with
// the studio upload form.
func (s *Server) handleWriterDashboard(w http.ResponseWriter, r *http.Request) {
	s.renderWriterDashboard(w, r, http.StatusOK, "", noticeFromQuery(r))
}

func (s *Server) renderWriterDashboard(w http.ResponseWriter, r *http.Request, status int, errMsg, notice string) {
	state := stateFromRequest(r)
	data := writerData{
		User:   state.sess.User,
		Error:  errMsg,
		Notice: notice,
	}

	books, err := s.books.ListByWriter(r.Context(), state.sess.Token, state.sess.User.ID)
	if err != nil {
		if data.Error == "" {
			data.Error = s.bookErrorMessage(err, "Failed to load your books")
		}
		s.views.render(w, status, "writer.html", data)
		return
	}

	data.Books = s.views.bookViews(books)
	data.Stats.Total = len(books)
	for _, b := range books {
		switch b.Status {
		case domain.StatusPublished:
			data.Stats.Published++
		case domain.StatusDraft:
			data.Stats.Drafts++
		}
	}
	s.views.render(w, status, "writer.html", data)
}

func (s *Server) handleCreateBook(w http.ResponseWriter, r *http.Request) {
	state := stateFromRequest(r)
	if s.maxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)
	}
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		s.renderWriterDashboard(w, r, http.StatusBadRequest, "Invalid form data", "")
		return
	}

	form, msg := parseBookForm(r)
	if msg != "" {
		s.renderWriterDashboard(w, r, http.StatusOK, msg, "")
		return
	}

	bookFile, err := formUpload(r, "bookFile")
	if err != nil {
		s.renderWriterDashboard(w, r, http.StatusBadRequest, "Invalid form data", "")
		return
	}
	if bookFile == nil {
		// Rejected before any network call.
		s.renderWriterDashboard(w, r, http.StatusOK, "Please select a book file to upload", "")
		return
	}
	if !s.isBookExtensionAllowed(bookFile.Filename) {
		s.renderWriterDashboard(w, r, http.StatusOK, "Unsupported book file type", "")
		return
	}
	form.BookFile = bookFile

	cover, err := formUpload(r, "coverImage")
	if err != nil {
		s.renderWriterDashboard(w, r, http.StatusBadRequest, "Invalid form data", "")
		return
	}
	if cover != nil {
		if !isCoverExtensionAllowed(cover.Filename) {
			s.renderWriterDashboard(w, r, http.StatusOK, "Cover image must be an image file", "")
			return
		}
		form.CoverImage = cover
	}

	if _, err := s.books.Create(r.Context(), state.sess.Token, form); err != nil {
		s.renderWriterDashboard(w, r, http.StatusOK, s.bookErrorMessage(err, "Failed to upload book"), "")
		return
	}
	http.Redirect(w, r, "/writer?uploaded=1", http.StatusSeeOther)
}

func (s *Server) handleUpdateBook(w http.ResponseWriter, r *http.Request) {
	state := stateFromRequest(r)
	id := chi.URLParam(r, "id")
	if s.maxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)
	}
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		s.renderWriterDashboard(w, r, http.StatusBadRequest, "Invalid form data", "")
		return
	}

	form, msg := parseBookForm(r)
	if msg != "" {
		s.renderWriterDashboard(w, r, http.StatusOK, msg, "")
		return
	}

	// Files are optional on edit; existing ones are kept server-side.
	bookFile, err := formUpload(r, "bookFile")
	if err != nil {
		s.renderWriterDashboard(w, r, http.StatusBadRequest, "Invalid form data", "")
		return
	}
	if bookFile != nil {
		if !s.isBookExtensionAllowed(bookFile.Filename) {
			s.renderWriterDashboard(w, r, http.StatusOK, "Unsupported book file type", "")
			return
		}
		form.BookFile = bookFile
	}
	cover, err := formUpload(r, "coverImage")
	if err != nil {
		s.renderWriterDashboard(w, r, http.StatusBadRequest, "Invalid form data", "")
		return
	}
	if cover != nil {
		if !isCoverExtensionAllowed(cover.Filename) {
			s.renderWriterDashboard(w, r, http.StatusOK, "Cover image must be an image file", "")
			return
		}
		form.CoverImage = cover
	}

	if _, err := s.books.Update(r.Context(), state.sess.Token, id, form); err != nil {
		s.renderWriterDashboard(w, r, http.StatusOK, s.bookErrorMessage(err, "Failed to update book"), "")
		return
	}
	http.Redirect(w, r, "/writer?updated=1", http.StatusSeeOther)
}

func (s *Server) handleDeleteBook(w http.ResponseWriter, r *http.Request) {
	state := stateFromRequest(r)
	id := chi.URLParam(r, "id")
	if err := s.books.Delete(r.Context(), state.sess.Token, id); err != nil {
		s.renderWriterDashboard(w, r, http.StatusOK, s.bookErrorMessage(err, "Failed to delete book"), "")
		return
	}
	http.Redirect(w, r, "/writer?deleted=1", http.StatusSeeOther)
}

// bookErrorMessage keeps the backend's message for expected failures and
// falls back to the given message for transport errors.
func (s *Server) bookErrorMessage(err error, fallback string) string {
	var apiErr *bookclient.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	if s.metrics != nil {
		s.metrics.RecordUpstreamFailure("books")
	}
	return fallback
}

func noticeFromQuery(r *http.Request) string {
	q := r.URL.Query()
	switch {
	case q.Get("uploaded") == "1":
		return "Book uploaded successfully!"
	case q.Get("updated") == "1":
		return "Book updated successfully!"
	case q.Get("deleted") == "1":
		return "Book deleted"
	default:
		return ""
	}
}
