package authclient

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

// Client performs the credential exchange against the platform backend.
// It owns no state: tokens it returns are persisted by the session manager,
// never by this package.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// APIError represents an expected backend failure (bad credentials,
// duplicate email, validation). Transport-level failures surface as plain
// errors instead.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return e.Message
}

// NewClient constructs an auth client for the given API base URL.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// Register creates an account. On success it returns the new profile and
// bearer token.
func (c *Client) Register(ctx context.Context, name, email, password string, role domain.Role) (domain.UserProfile, string, error) {
	payload := map[string]string{
		"name":     name,
		"email":    email,
		"password": password,
		"role":     string(role),
	}
	env, err := c.doJSON(ctx, "/api/auth/register", payload)
	if err != nil {
		return domain.UserProfile{}, "", err
	}
	return env.User, env.Token, nil
}

// Login authenticates existing credentials.
func (c *Client) Login(ctx context.Context, email, password string) (domain.UserProfile, string, error) {
	payload := map[string]string{
		"email":    email,
		"password": password,
	}
	env, err := c.doJSON(ctx, "/api/auth/login", payload)
	if err != nil {
		return domain.UserProfile{}, "", err
	}
	return env.User, env.Token, nil
}

func (c *Client) doJSON(ctx context.Context, path string, payload any) (authEnvelope, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return authEnvelope{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return authEnvelope{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return authEnvelope{}, err
	}
	defer resp.Body.Close()

	var env authEnvelope
	decodeErr := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&env)
	if resp.StatusCode >= 400 || (decodeErr == nil && !env.Success) {
		msg := env.Message
		if msg == "" {
			msg = resp.Status
		}
		return authEnvelope{}, &APIError{Status: resp.StatusCode, Message: msg}
	}
	if decodeErr != nil {
		return authEnvelope{}, decodeErr
	}
	return env, nil
}

type authEnvelope struct {
	Success bool               `json:"success"`
	Message string             `json:"message"`
	Token   string             `json:"token"`
	User    domain.UserProfile `json:"user"`
}
