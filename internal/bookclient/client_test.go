package bookclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"inkshelf/pkg/domain"
)

func TestListIsUnauthenticated(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/books" {
			http.NotFound(w, r)
			return
		}
		if r.Header.Get("Authorization") != "" {
			t.Errorf("public listing must not send a token, got %q", r.Header.Get("Authorization"))
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"books":   []domain.Book{{ID: "b1", Title: "T"}},
		})
	}))
	defer backend.Close()

	books, err := NewClient(backend.URL).List(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(books) != 1 || books[0].ID != "b1" {
		t.Fatalf("unexpected books: %+v", books)
	}
}

func TestListByWriterSendsBearer(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/books/writer/u1" {
			http.NotFound(w, r)
			return
		}
		if got := r.Header.Get("Authorization"); got != "Bearer tok-1" {
			t.Errorf("authorization = %q", got)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"success": true, "books": []domain.Book{}})
	}))
	defer backend.Close()

	if _, err := NewClient(backend.URL).ListByWriter(context.Background(), "tok-1", "u1"); err != nil {
		t.Fatalf("list by writer: %v", err)
	}
}

func TestCreateMultipartFieldsAndFiles(t *testing.T) {
	pages := 120
	price := decimal.RequireFromString("9.99")

	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/books" {
			http.NotFound(w, r)
			return
		}
		if err := r.ParseMultipartForm(8 << 20); err != nil {
			t.Fatalf("parse multipart: %v", err)
		}
		for field, want := range map[string]string{
			"title":     "T",
			"author":    "A",
			"language":  "English",
			"status":    "draft",
			"pageCount": "120",
			"price":     "9.99",
		} {
			if got := r.FormValue(field); got != want {
				t.Errorf("field %s = %q, want %q", field, got, want)
			}
		}
		if _, ok := r.MultipartForm.Value["description"]; ok {
			t.Errorf("empty description must be omitted")
		}
		file, header, err := r.FormFile("bookFile")
		if err != nil {
			t.Fatalf("bookFile part: %v", err)
		}
		defer file.Close()
		if header.Filename != "t.pdf" {
			t.Errorf("bookFile filename = %q", header.Filename)
		}
		if _, _, err := r.FormFile("coverImage"); !errors.Is(err, http.ErrMissingFile) {
			t.Errorf("coverImage must be absent, got err %v", err)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"book":    domain.Book{ID: "b2", Title: "T"},
		})
	}))
	defer backend.Close()

	book, err := NewClient(backend.URL).Create(context.Background(), "tok-1", BookForm{
		Title:     "T",
		Author:    "A",
		Language:  "English",
		PageCount: &pages,
		Price:     &price,
		Status:    domain.StatusDraft,
		BookFile:  &FileUpload{Filename: "t.pdf", Content: strings.NewReader("%PDF-")},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if book.ID != "b2" {
		t.Fatalf("unexpected book: %+v", book)
	}
}

func TestUpdateWithoutFilesOmitsFileParts(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut || r.URL.Path != "/api/books/b1" {
			http.NotFound(w, r)
			return
		}
		if err := r.ParseMultipartForm(8 << 20); err != nil {
			t.Fatalf("parse multipart: %v", err)
		}
		if _, _, err := r.FormFile("bookFile"); !errors.Is(err, http.ErrMissingFile) {
			t.Errorf("bookFile must be absent on edit without replacement, got %v", err)
		}
		if got := r.FormValue("status"); got != "published" {
			t.Errorf("status = %q", got)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"success": true, "book": domain.Book{ID: "b1"}})
	}))
	defer backend.Close()

	_, err := NewClient(backend.URL).Update(context.Background(), "tok-1", "b1", BookForm{
		Title:  "T",
		Author: "A",
		Status: domain.StatusPublished,
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
}

func TestDeleteSurfacesBackendMessage(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"success": false,
			"message": "You can only delete your own books",
		})
	}))
	defer backend.Close()

	err := NewClient(backend.URL).Delete(context.Background(), "tok-1", "b1")
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.Status != http.StatusForbidden || apiErr.Message != "You can only delete your own books" {
		t.Fatalf("unexpected APIError: %+v", apiErr)
	}
}

func TestGetNotFound(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(map[string]any{"success": false, "message": "Book not found"})
	}))
	defer backend.Close()

	_, err := NewClient(backend.URL).Get(context.Background(), "missing")
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.Status != http.StatusNotFound {
		t.Fatalf("status = %d", apiErr.Status)
	}
}
