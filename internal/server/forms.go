package server

import (
	"errors"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"inkshelf/internal/bookclient"
	"inkshelf/pkg/domain"
)

var coverExtensions = map[string]struct{}{
	".jpg": {}, ".jpeg": {}, ".png": {}, ".gif": {}, ".webp": {},
}

// parseBookForm reads the scalar book fields from a multipart submit and
// coerces the optional numerics. A non-empty message means the submit was
// rejected client-side and must not reach the network.
func parseBookForm(r *http.Request) (bookclient.BookForm, string) {
	form := bookclient.BookForm{
		Title:       strings.TrimSpace(r.FormValue("title")),
		Author:      strings.TrimSpace(r.FormValue("author")),
		Description: strings.TrimSpace(r.FormValue("description")),
		Category:    strings.TrimSpace(r.FormValue("category")),
		ISBN:        strings.TrimSpace(r.FormValue("isbn")),
		Language:    strings.TrimSpace(r.FormValue("language")),
	}
	if form.Language == "" {
		form.Language = "English"
	}
	switch domain.BookStatus(r.FormValue("status")) {
	case domain.StatusPublished:
		form.Status = domain.StatusPublished
	default:
		form.Status = domain.StatusDraft
	}

	if form.Title == "" || form.Author == "" {
		return form, "Title and author are required"
	}

	if raw := strings.TrimSpace(r.FormValue("pageCount")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return form, "Page count must be a whole number"
		}
		form.PageCount = &n
	}
	if raw := strings.TrimSpace(r.FormValue("price")); raw != "" {
		price, err := decimal.NewFromString(raw)
		if err != nil || price.IsNegative() {
			return form, "Price must be a valid amount"
		}
		form.Price = &price
	}
	return form, ""
}

// formUpload extracts an optional file part. A missing part is not an error;
// callers decide whether the field is required.
func formUpload(r *http.Request, field string) (*bookclient.FileUpload, error) {
	file, header, err := r.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, nil
		}
		return nil, err
	}
	return &bookclient.FileUpload{
		Filename: header.Filename,
		Content:  file,
	}, nil
}

func (s *Server) isBookExtensionAllowed(filename string) bool {
	if len(s.allowedExtensions) == 0 {
		return true
	}
	ext := strings.ToLower(filepath.Ext(filename))
	_, ok := s.allowedExtensions[ext]
	return ok
}

func isCoverExtensionAllowed(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	_, ok := coverExtensions[ext]
	return ok
}
