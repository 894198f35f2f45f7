// Package storefront is the client side of the pizzeria API. A Session is
// created by logging in and owns the customer's view of their cart and
// orders; every cart mutation replaces that view with the server's answer.
package storefront

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

var (
	// ErrUnauthorized is returned after the server rejected the session
	// token. The session has already been logged out at that point.
	ErrUnauthorized    = errors.New("session expired, please log in again")
	ErrLoggedOut       = errors.New("session is logged out")
	ErrInvalidQuantity = errors.New("quantity must be at least 1")
)

// APIError is a failed request. Fields holds per-field messages for
// validation failures.
type APIError struct {
	StatusCode int
	Message    string
	Fields     map[string]string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("request failed (%d): %s", e.StatusCode, e.Message)
}

// PromoRejection explains why a promo code was not accepted.
type PromoRejection struct {
	Reason  string
	Message string
}

func (r *PromoRejection) Error() string {
	return r.Message
}

type envelope struct {
	Success bool              `json:"success"`
	Message string            `json:"message"`
	Data    json.RawMessage   `json:"data"`
	Errors  map[string]string `json:"errors"`
	Reason  string            `json:"reason"`
}

type Client struct {
	BaseURL    string
	HTTPClient *http.Client

	recent *RecentLogins
}

func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		recent: NewRecentLogins(DefaultRecentLogins),
	}
}

// RecentLogins lists the emails of previous successful logins, newest first.
func (c *Client) RecentLogins() []string {
	return c.recent.List()
}

func (c *Client) Login(ctx context.Context, email, password string) (*Session, error) {
	body := map[string]string{"email": email, "password": password}
	return c.authenticate(ctx, "/api/user/login", body)
}

type RegisterRequest struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	Phone     string `json:"phone,omitempty"`
}

func (c *Client) Register(ctx context.Context, req RegisterRequest) (*Session, error) {
	return c.authenticate(ctx, "/api/user/register", req)
}

func (c *Client) authenticate(ctx context.Context, path string, body interface{}) (*Session, error) {
	var out struct {
		User        User   `json:"user"`
		AccessToken string `json:"accessToken"`
	}
	if err := c.do(ctx, http.MethodPost, path, "", body, &out); err != nil {
		return nil, err
	}
	c.recent.Add(out.User.Email)
	return newSession(c, out.AccessToken, &out.User), nil
}

// ListMenu returns the published products, optionally for one category.
func (c *Client) ListMenu(ctx context.Context, category string) ([]Product, error) {
	path := "/api/products/published"
	if category != "" {
		path += "?" + url.Values{"category": {category}}.Encode()
	}
	var products []Product
	if err := c.do(ctx, http.MethodGet, path, "", nil, &products); err != nil {
		return nil, err
	}
	return products, nil
}

func (c *Client) do(ctx context.Context, method, path, token string, body, dest interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil && resp.StatusCode < 300 {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized && token != "":
		return ErrUnauthorized
	case resp.StatusCode == http.StatusUnprocessableEntity && env.Reason != "":
		return &PromoRejection{Reason: env.Reason, Message: env.Message}
	case resp.StatusCode >= 300:
		msg := env.Message
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return &APIError{StatusCode: resp.StatusCode, Message: msg, Fields: env.Errors}
	}

	if dest == nil || len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, dest); err != nil {
		return fmt.Errorf("failed to parse response data: %w", err)
	}
	return nil
}

// DefaultRecentLogins is how many login emails are remembered.
const DefaultRecentLogins = 5

// RecentLogins is a rolling, de-duplicated list of login emails used to
// prefill the login form. Passwords are never kept.
type RecentLogins struct {
	mu     sync.Mutex
	max    int
	emails []string
}

func NewRecentLogins(max int) *RecentLogins {
	return &RecentLogins{max: max}
}

func (r *RecentLogins) Add(email string) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	kept := []string{email}
	for _, e := range r.emails {
		if e != email && len(kept) < r.max {
			kept = append(kept, e)
		}
	}
	r.emails = kept
}

func (r *RecentLogins) List() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.emails...)
}
