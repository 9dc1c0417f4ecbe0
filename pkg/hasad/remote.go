package hasad

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/hyperengineering/hasad/internal/types"
)

// HTTPRemote reads and replaces a user's aggregate over the Hasad HTTP API.
type HTTPRemote struct {
	baseURL string
	apiKey  string
	userID  string
	client  *http.Client
}

// NewHTTPRemote creates a remote for userID on the server at baseURL.
func NewHTTPRemote(baseURL, apiKey, userID string, timeout time.Duration) *HTTPRemote {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPRemote{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		userID:  userID,
		client:  &http.Client{Timeout: timeout},
	}
}

// Ping checks connectivity to the server.
func (r *HTTPRemote) Ping(ctx context.Context) (*Health, error) {
	var h Health
	if err := r.do(ctx, http.MethodGet, "/api/v1/health", nil, &h); err != nil {
		return nil, err
	}
	return &h, nil
}

// Fetch returns the stored aggregate.
func (r *HTTPRemote) Fetch(ctx context.Context) (*types.State, error) {
	var s types.State
	if err := r.do(ctx, http.MethodGet, r.statePath(), nil, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// Replace overwrites the stored aggregate with s.
func (r *HTTPRemote) Replace(ctx context.Context, s types.State) error {
	return r.do(ctx, http.MethodPut, r.statePath(), s, nil)
}

func (r *HTTPRemote) statePath() string {
	return "/api/v1/users/" + url.PathEscape(r.userID) + "/state"
}

// do sends an authenticated request and decodes a JSON response into out
// when out is non-nil.
func (r *HTTPRemote) do(ctx context.Context, method, path string, body, out any) error {
	if r.baseURL == "" {
		return fmt.Errorf("hasad URL not configured")
	}

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, r.baseURL+path, reqBody)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+r.apiKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// StatusError is a non-2xx response from the server.
type StatusError struct {
	StatusCode int
	Title      string
	Detail     string
}

func (e *StatusError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("hasad: %d %s: %s", e.StatusCode, e.Title, e.Detail)
	}
	return fmt.Sprintf("hasad: %d %s", e.StatusCode, e.Title)
}

func decodeError(resp *http.Response) error {
	e := &StatusError{StatusCode: resp.StatusCode, Title: http.StatusText(resp.StatusCode)}
	var problem struct {
		Title  string `json:"title"`
		Detail string `json:"detail"`
	}
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if json.Unmarshal(data, &problem) == nil {
		if problem.Title != "" {
			e.Title = problem.Title
		}
		e.Detail = problem.Detail
	}
	return e
}
