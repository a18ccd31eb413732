package drive

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
)

// DefaultBaseURL is the Drive v3 API root.
const DefaultBaseURL = "https://www.googleapis.com/drive/v3"

const defaultUserAgent = "gdrive-go/0.1"

// TokenSource provides bearer tokens for authorized calls. ok reports
// whether a usable token exists; false is the ordinary unauthenticated
// case, not an error. Defined at the consumer per Go convention "accept
// interfaces, return structs" — credstore provides the real implementation.
type TokenSource interface {
	Token(ctx context.Context) (string, bool, error)
}

// Client is an HTTP client for the Drive API. It handles request
// construction, authentication, and error classification. It imposes no
// timeout of its own (the injected http.Client decides) and never retries:
// any failure is surfaced once to the caller. Overlapping calls are not
// de-duplicated either — a caller issuing concurrent listings that needs
// strict ordering must discard stale results itself.
type Client struct {
	baseURL          string
	httpClient       *http.Client
	tokens           TokenSource
	logger           *slog.Logger
	userAgent        string
	tokenInViewerURL bool
}

// Option configures a Client.
type Option func(*Client)

// WithUserAgent overrides the User-Agent header sent on API calls.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// WithTokenInViewerURL enables viewer URLs that embed the bearer token as a
// query parameter for types the provider cannot preview natively. The
// resulting URL hands the token to a third-party viewer — leave this off
// unless that trade-off is acceptable.
func WithTokenInViewerURL(enabled bool) Option {
	return func(c *Client) {
		c.tokenInViewerURL = enabled
	}
}

// NewClient creates a Drive API client.
// baseURL is typically DefaultBaseURL.
func NewClient(baseURL string, httpClient *http.Client, tokens TokenSource, logger *slog.Logger, opts ...Option) *Client {
	if logger == nil {
		logger = slog.Default()
	}

	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	c := &Client{
		baseURL:    baseURL,
		httpClient: httpClient,
		tokens:     tokens,
		logger:     logger,
		userAgent:  defaultUserAgent,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// bearerToken resolves a usable token or fails with ErrNotAuthenticated
// before any request is built.
func (c *Client) bearerToken(ctx context.Context) (string, error) {
	tok, ok, err := c.tokens.Token(ctx)
	if err != nil {
		return "", fmt.Errorf("drive: obtaining token: %w", err)
	}

	if !ok {
		return "", ErrNotAuthenticated
	}

	return tok, nil
}

// get issues an authorized GET against the full URL and classifies non-2xx
// responses with the given sentinel. The caller is responsible for closing
// the response body on success.
func (c *Client) get(ctx context.Context, url string, sentinel error) (*http.Response, error) {
	tok, err := c.bearerToken(ctx)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("drive: creating request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+tok)
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("drive: request failed: %w", err)
	}

	// 2xx — success.
	if resp.StatusCode >= http.StatusOK && resp.StatusCode < http.StatusMultipleChoices {
		c.logger.Debug("request succeeded", slog.Int("status", resp.StatusCode))
		return resp, nil
	}

	// Read and close body for error responses; the body text travels with
	// the error for diagnosis.
	errBody, readErr := io.ReadAll(resp.Body)
	resp.Body.Close()

	if readErr != nil {
		errBody = []byte("(failed to read response body)")
	}

	c.logger.Warn("request failed",
		slog.Int("status", resp.StatusCode),
	)

	return nil, &RequestError{
		StatusCode: resp.StatusCode,
		Body:       string(errBody),
		Err:        sentinel,
	}
}
