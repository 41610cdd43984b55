package server

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"

	"inkshelf/pkg/domain"
)

func multipartRequest(t *testing.T, fields map[string]string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for name, value := range fields {
		if err := mw.WriteField(name, value); err != nil {
			t.Fatalf("write field %s: %v", name, err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/writer/books", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if err := req.ParseMultipartForm(8 << 20); err != nil {
		t.Fatalf("parse multipart: %v", err)
	}
	return req
}

func TestParseBookFormDefaults(t *testing.T) {
	form, msg := parseBookForm(multipartRequest(t, map[string]string{
		"title":  "T",
		"author": "A",
	}))
	if msg != "" {
		t.Fatalf("unexpected rejection: %q", msg)
	}
	if form.Language != "English" {
		t.Errorf("language default = %q", form.Language)
	}
	if form.Status != domain.StatusDraft {
		t.Errorf("status default = %q", form.Status)
	}
	if form.PageCount != nil || form.Price != nil {
		t.Errorf("absent numerics must stay nil: %+v", form)
	}
}

func TestParseBookFormCoercesNumerics(t *testing.T) {
	form, msg := parseBookForm(multipartRequest(t, map[string]string{
		"title":     "T",
		"author":    "A",
		"pageCount": "320",
		"price":     "12.50",
		"status":    "published",
	}))
	if msg != "" {
		t.Fatalf("unexpected rejection: %q", msg)
	}
	if form.PageCount == nil || *form.PageCount != 320 {
		t.Errorf("pageCount = %v", form.PageCount)
	}
	if form.Price == nil || !form.Price.Equal(decimal.RequireFromString("12.5")) {
		t.Errorf("price = %v", form.Price)
	}
	if form.Status != domain.StatusPublished {
		t.Errorf("status = %q", form.Status)
	}
}

func TestParseBookFormRejections(t *testing.T) {
	cases := []struct {
		name   string
		fields map[string]string
		want   string
	}{
		{"missing title", map[string]string{"author": "A"}, "Title and author are required"},
		{"bad page count", map[string]string{"title": "T", "author": "A", "pageCount": "many"}, "Page count must be a whole number"},
		{"negative page count", map[string]string{"title": "T", "author": "A", "pageCount": "-1"}, "Page count must be a whole number"},
		{"bad price", map[string]string{"title": "T", "author": "A", "price": "free"}, "Price must be a valid amount"},
		{"negative price", map[string]string{"title": "T", "author": "A", "price": "-2"}, "Price must be a valid amount"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, msg := parseBookForm(multipartRequest(t, tc.fields))
			if msg != tc.want {
				t.Fatalf("msg = %q, want %q", msg, tc.want)
			}
		})
	}
}

func TestExtensionChecks(t *testing.T) {
	s := &Server{allowedExtensions: normalizeExtensions(nil)}
	if !s.isBookExtensionAllowed("book.PDF") {
		t.Errorf("extension match must be case-insensitive")
	}
	if s.isBookExtensionAllowed("book.exe") {
		t.Errorf(".exe must be rejected")
	}
	if !isCoverExtensionAllowed("cover.jpeg") || isCoverExtensionAllowed("cover.pdf") {
		t.Errorf("cover extension allowlist broken")
	}
}

func TestAssetURLResolution(t *testing.T) {
	v, err := newViewRenderer("http://backend:4000")
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}
	cases := map[string]string{
		"/uploads/covers/x.jpg":    "http://backend:4000/uploads/covers/x.jpg",
		"http://cdn.example.com/x": "http://cdn.example.com/x",
		"":                         "",
	}
	for in, want := range cases {
		if got := v.assetURL(in); got != want {
			t.Errorf("assetURL(%q) = %q, want %q", in, got, want)
		}
	}
}
