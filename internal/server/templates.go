package server

import (
	"embed"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"inkshelf/pkg/domain"
)

//go:embed templates/*.html
var templateFS embed.FS

// viewRenderer holds the parsed page templates and resolves relative asset
// paths (covers, book files) against the configured asset base URL.
type viewRenderer struct {
	tmpl      *template.Template
	assetBase *url.URL
}

func newViewRenderer(assetBaseURL string) (*viewRenderer, error) {
	v := &viewRenderer{}
	if raw := strings.TrimSpace(assetBaseURL); raw != "" {
		base, err := url.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("parse asset base URL: %w", err)
		}
		v.assetBase = base
	}
	tmpl, err := template.New("").Funcs(template.FuncMap{
		"asset": v.assetURL,
	}).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	v.tmpl = tmpl
	return v, nil
}

// assetURL resolves a backend-relative path like /uploads/covers/x.jpg.
// Absolute URLs pass through untouched.
func (v *viewRenderer) assetURL(path string) string {
	if path == "" {
		return ""
	}
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	if v.assetBase == nil {
		return path
	}
	ref, err := url.Parse(path)
	if err != nil {
		return path
	}
	return v.assetBase.ResolveReference(ref).String()
}

func (v *viewRenderer) render(w http.ResponseWriter, status int, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := v.tmpl.ExecuteTemplate(w, name, data); err != nil {
		slog.Error("render template", "template", name, "err", err)
	}
}

func (s *Server) renderLoading(w http.ResponseWriter) {
	s.views.render(w, http.StatusOK, "loading.html", nil)
}

// descriptionPolicy builds the allowlist for book descriptions rendered in
// the reading view. Plain formatting tags only; no links, images, or
// scriptable content survive.
func descriptionPolicy() *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	p.AllowElements(
		"p", "br", "ul", "ol", "li",
		"blockquote", "pre", "code",
		"strong", "em",
	)
	return p
}

// bookView pairs a book with its resolved asset URLs for rendering.
type bookView struct {
	domain.Book
	CoverURL string
	FileHref string
}

func (v *viewRenderer) bookViews(books []domain.Book) []bookView {
	out := make([]bookView, 0, len(books))
	for _, b := range books {
		out = append(out, v.bookView(b))
	}
	return out
}

func (v *viewRenderer) bookView(b domain.Book) bookView {
	return bookView{
		Book:     b,
		CoverURL: v.assetURL(b.CoverImage),
		FileHref: v.assetURL(b.FileURL),
	}
}
