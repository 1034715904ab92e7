package jmap

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/mailbridge/fastmail-mcp/internal/errs"
)

const (
	defaultBaseURL = "https://api.fastmail.com"
	sessionPath    = "/jmap/session"

	// stepPacing is the fixed delay between the sequential backend calls of
	// multi-step routines like the send choreography. Cooperative pacing to
	// stay under the remote rate limit, not a locking mechanism.
	stepPacing = 250 * time.Millisecond
)

// Client talks to the JMAP mail backend. The session document is fetched on
// first use and memoized for the client's lifetime; it is never invalidated
// or refreshed.
type Client struct {
	token   string
	baseURL string
	httpc   *http.Client
	limiter *rate.Limiter

	mu      sync.Mutex
	session *Session
}

// NewClient returns a client authenticating with the given bearer token.
// baseURL may be empty (default host), a bare hostname (https assumed), or a
// full http(s) URL; trailing slashes are stripped.
func NewClient(token, baseURL string) *Client {
	return &Client{
		token:   token,
		baseURL: normalizeBaseURL(baseURL),
		httpc:   &http.Client{},
		limiter: rate.NewLimiter(rate.Every(stepPacing), 1),
	}
}

func normalizeBaseURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return defaultBaseURL
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	return strings.TrimRight(raw, "/")
}

// Session returns the memoized session document, fetching it on first use.
func (c *Client) Session(ctx context.Context) (*Session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session != nil {
		return c.session, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+sessionPath, nil)
	if err != nil {
		return nil, fmt.Errorf("build session request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, &errs.NetworkError{Op: "fetch session", Err: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, &errs.AuthError{Backend: "jmap", Status: resp.StatusCode}
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("session discovery returned HTTP %d", resp.StatusCode)
	}

	var session Session
	if err := json.NewDecoder(resp.Body).Decode(&session); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	c.session = &session
	return c.session, nil
}

// Execute posts the batch to the session's API URL and returns the ordered
// responses. Callers correlate response[i] to call[i] positionally through
// BatchResponse.Result.
func (c *Client) Execute(ctx context.Context, b *Batch) (*BatchResponse, error) {
	session, err := c.Session(ctx)
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(b)
	if err != nil {
		return nil, fmt.Errorf("encode batch: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, session.APIURL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build batch request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, &errs.NetworkError{Op: "execute batch", Err: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, &errs.AuthError{Backend: "jmap", Status: resp.StatusCode}
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("batch request returned HTTP %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &errs.NetworkError{Op: "read batch response", Err: err}
	}

	requested := make([]string, 0, len(b.calls))
	for _, call := range b.calls {
		requested = append(requested, call.Name)
	}
	return parseBatchResponse(body, requested)
}

// pace blocks for the fixed inter-call delay of multi-step routines.
func (c *Client) pace(ctx context.Context) error {
	return c.limiter.Wait(ctx)
}

// download fetches a blob via the session's download URL template.
func (c *Client) download(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build download request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, &errs.NetworkError{Op: "download blob", Err: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, &errs.AuthError{Backend: "jmap", Status: resp.StatusCode}
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("blob download returned HTTP %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}
