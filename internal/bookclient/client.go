package bookclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"inkshelf/pkg/domain"
)

// Client wraps the backend book endpoints. Public reads need no token;
// writer-scoped listing and every mutation attach a bearer token.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// APIError represents an expected backend failure with a structured body.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return e.Message
}

// NewClient constructs a book client for the given API base URL.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// FileUpload is an opaque attachment streamed into the multipart body.
// Book content is never parsed client-side.
type FileUpload struct {
	Filename string
	Content  io.Reader
}

// BookForm carries one full-record submit. Scalar fields are included
// whenever defined; numeric fields are coerced before transmission.
type BookForm struct {
	Title       string
	Author      string
	Description string
	Category    string
	ISBN        string
	Language    string
	PageCount   *int
	Price       *decimal.Decimal
	Status      domain.BookStatus
	BookFile    *FileUpload
	CoverImage  *FileUpload
}

// List fetches the public catalog.
func (c *Client) List(ctx context.Context) ([]domain.Book, error) {
	env, err := c.do(ctx, http.MethodGet, "/api/books", "", nil, "")
	if err != nil {
		return nil, err
	}
	return env.Books, nil
}

// Get fetches one book. Single-item reads are public.
func (c *Client) Get(ctx context.Context, id string) (domain.Book, error) {
	env, err := c.do(ctx, http.MethodGet, "/api/books/"+id, "", nil, "")
	if err != nil {
		return domain.Book{}, err
	}
	return env.Book, nil
}

// ListByWriter fetches a writer's own books, drafts included.
func (c *Client) ListByWriter(ctx context.Context, token, writerID string) ([]domain.Book, error) {
	env, err := c.do(ctx, http.MethodGet, "/api/books/writer/"+writerID, token, nil, "")
	if err != nil {
		return nil, err
	}
	return env.Books, nil
}

// Create submits a new book as multipart form data.
func (c *Client) Create(ctx context.Context, token string, form BookForm) (domain.Book, error) {
	body, contentType, err := encodeMultipart(form)
	if err != nil {
		return domain.Book{}, err
	}
	env, err := c.do(ctx, http.MethodPost, "/api/books", token, body, contentType)
	if err != nil {
		return domain.Book{}, err
	}
	return env.Book, nil
}

// Update submits a full-record edit; files are replaced only when attached.
func (c *Client) Update(ctx context.Context, token, id string, form BookForm) (domain.Book, error) {
	body, contentType, err := encodeMultipart(form)
	if err != nil {
		return domain.Book{}, err
	}
	env, err := c.do(ctx, http.MethodPut, "/api/books/"+id, token, body, contentType)
	if err != nil {
		return domain.Book{}, err
	}
	return env.Book, nil
}

// Delete removes a book.
func (c *Client) Delete(ctx context.Context, token, id string) error {
	_, err := c.do(ctx, http.MethodDelete, "/api/books/"+id, token, nil, "")
	return err
}

func encodeMultipart(form BookForm) (io.Reader, string, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	fields := []struct {
		name  string
		value string
	}{
		{"title", form.Title},
		{"author", form.Author},
		{"description", form.Description},
		{"category", form.Category},
		{"isbn", form.ISBN},
		{"language", form.Language},
		{"status", string(form.Status)},
	}
	for _, f := range fields {
		if f.value == "" {
			continue
		}
		if err := writer.WriteField(f.name, f.value); err != nil {
			return nil, "", err
		}
	}
	if form.PageCount != nil {
		if err := writer.WriteField("pageCount", strconv.Itoa(*form.PageCount)); err != nil {
			return nil, "", err
		}
	}
	if form.Price != nil {
		if err := writer.WriteField("price", form.Price.String()); err != nil {
			return nil, "", err
		}
	}

	if err := writeFilePart(writer, "bookFile", form.BookFile); err != nil {
		return nil, "", err
	}
	if err := writeFilePart(writer, "coverImage", form.CoverImage); err != nil {
		return nil, "", err
	}
	if err := writer.Close(); err != nil {
		return nil, "", err
	}
	return body, writer.FormDataContentType(), nil
}

func writeFilePart(writer *multipart.Writer, field string, upload *FileUpload) error {
	if upload == nil {
		return nil
	}
	part, err := writer.CreateFormFile(field, upload.Filename)
	if err != nil {
		return err
	}
	if _, err := io.Copy(part, upload.Content); err != nil {
		return fmt.Errorf("copy %s: %w", field, err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path, token string, body io.Reader, contentType string) (bookEnvelope, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return bookEnvelope{}, err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	addAuthHeader(req, token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return bookEnvelope{}, err
	}
	defer resp.Body.Close()

	var env bookEnvelope
	decodeErr := json.NewDecoder(io.LimitReader(resp.Body, 4<<20)).Decode(&env)
	if resp.StatusCode >= 400 || (decodeErr == nil && !env.Success) {
		msg := env.Message
		if msg == "" {
			msg = resp.Status
		}
		return bookEnvelope{}, &APIError{Status: resp.StatusCode, Message: msg}
	}
	if decodeErr != nil {
		return bookEnvelope{}, decodeErr
	}
	return env, nil
}

func addAuthHeader(req *http.Request, token string) {
	if strings.TrimSpace(token) == "" {
		return
	}
	req.Header.Set("Authorization", "Bearer "+token)
}

type bookEnvelope struct {
	Success bool          `json:"success"`
	Message string        `json:"message"`
	Book    domain.Book   `json:"book"`
	Books   []domain.Book `json:"books"`
}
