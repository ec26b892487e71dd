// Package client calls the chat backend's /auth endpoints.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// DefaultErrorMessage is shown when a failure carries no server message.
const DefaultErrorMessage = "Something went wrong"

// User is the public profile returned by the auth endpoints.
type User struct {
	ID          string `json:"_id"`
	Email       string `json:"email"`
	FullName    string `json:"fullName"`
	ProfilePic  string `json:"profilePic"`
	PhoneNumber string `json:"phoneNumber,omitempty"`
	CreatedAt   string `json:"createdAt,omitempty"`
	UpdatedAt   string `json:"updatedAt,omitempty"`
}

type SignupRequest struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UpdateProfileRequest carries only the fields being changed.
type UpdateProfileRequest struct {
	FullName    *string `json:"fullName,omitempty"`
	ProfilePic  *string `json:"profilePic,omitempty"`
	PhoneNumber *string `json:"phoneNumber,omitempty"`
}

// ErrorResponse is the body the backend sends with a failure status.
type ErrorResponse struct {
	Message string `json:"message"`
}

// APIError is returned for every non-2xx response.
type APIError struct {
	Status int
	Body   ErrorResponse
}

func (e *APIError) Error() string {
	if e.Body.Message != "" {
		return fmt.Sprintf("api error %d: %s", e.Status, e.Body.Message)
	}
	return fmt.Sprintf("api error %d", e.Status)
}

// ErrorMessage derives the user-facing text for err: the server's message
// when the failure response carried one, DefaultErrorMessage otherwise.
func ErrorMessage(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Body.Message != "" {
		return apiErr.Body.Message
	}
	return DefaultErrorMessage
}

// Client is an HTTP client for the auth API.
type Client struct {
	baseURL string
	http    *http.Client
}

// New returns a Client rooted at baseURL (e.g. http://localhost:5001/api).
// The http.Client should carry a cookie jar so the session survives between calls.
func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
	}
}

func (c *Client) CheckAuth(ctx context.Context) (*User, error) {
	var u User
	if err := c.do(ctx, http.MethodGet, "/auth/check", nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (c *Client) Signup(ctx context.Context, req SignupRequest) (*User, error) {
	var u User
	if err := c.do(ctx, http.MethodPost, "/auth/signup", req, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (c *Client) Login(ctx context.Context, req LoginRequest) (*User, error) {
	var u User
	if err := c.do(ctx, http.MethodPost, "/auth/login", req, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// Logout ignores the response body.
func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/auth/logout", nil, nil)
}

func (c *Client) UpdateProfile(ctx context.Context, req UpdateProfileRequest) (*User, error) {
	var u User
	if err := c.do(ctx, http.MethodPut, "/auth/update-profile", req, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{Status: resp.StatusCode}
		// 本文がJSONでない場合はメッセージなしとして扱う
		_ = json.Unmarshal(raw, &apiErr.Body)
		return apiErr
	}

	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
