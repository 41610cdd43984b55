package userclient

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"inkshelf/pkg/domain"
)

// Client wraps the backend profile endpoints. Every call is bearer-scoped.
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

// NewClient constructs a profile client for the given API base URL.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// ProfileUpdate is the full-record profile submit. Password is optional;
// when empty it is omitted from the payload entirely.
type ProfileUpdate struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password,omitempty"`
}

// Get fetches the authenticated user's profile.
func (c *Client) Get(ctx context.Context, token string) (domain.UserProfile, error) {
	env, err := c.do(ctx, http.MethodGet, "/api/user/data", token, nil)
	if err != nil {
		return domain.UserProfile{}, err
	}
	return env.User, nil
}

// Update replaces name/email and optionally the password.
func (c *Client) Update(ctx context.Context, token string, update ProfileUpdate) (domain.UserProfile, error) {
	data, err := json.Marshal(update)
	if err != nil {
		return domain.UserProfile{}, err
	}
	env, err := c.do(ctx, http.MethodPut, "/api/user/profile", token, bytes.NewReader(data))
	if err != nil {
		return domain.UserProfile{}, err
	}
	return env.User, nil
}

// DeleteAccount removes the account server-side. The caller is responsible
// for clearing the local session afterwards.
func (c *Client) DeleteAccount(ctx context.Context, token string) error {
	_, err := c.do(ctx, http.MethodDelete, "/api/user/account", token, nil)
	return err
}

func (c *Client) do(ctx context.Context, method, path, token string, body io.Reader) (userEnvelope, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return userEnvelope{}, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if strings.TrimSpace(token) != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return userEnvelope{}, err
	}
	defer resp.Body.Close()

	var env userEnvelope
	decodeErr := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&env)
	if resp.StatusCode >= 400 || (decodeErr == nil && !env.Success) {
		msg := env.Message
		if msg == "" {
			msg = resp.Status
		}
		return userEnvelope{}, &APIError{Status: resp.StatusCode, Message: msg}
	}
	if decodeErr != nil {
		return userEnvelope{}, decodeErr
	}
	return env, nil
}

type userEnvelope struct {
	Success bool               `json:"success"`
	Message string             `json:"message"`
	User    domain.UserProfile `json:"user"`
}
