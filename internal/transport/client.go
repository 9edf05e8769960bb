// Package transport provides the HTTP client used to fetch remote batches
// and enrichment data: timeouts, a fixed user agent, optional credentials
// and decoding of responses into typed errors.
package transport

import (
	"context"
	"net/http"

	"github.com/agentstation/stonemap/pkg/constants"
	"github.com/agentstation/stonemap/pkg/errors"
)

// DefaultHTTPTimeout is the default timeout for HTTP requests.
var DefaultHTTPTimeout = constants.DefaultHTTPTimeout

// Client performs HTTP requests on behalf of one named remote source.
type Client struct {
	http      *http.Client
	source    string
	userAgent string
	auth      Authenticator
	apiKey    string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithAuth applies credentials to every request.
func WithAuth(auth Authenticator, apiKey string) Option {
	return func(c *Client) {
		c.auth = auth
		c.apiKey = apiKey
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

// New creates a client for the named source. The source name is reported in
// API errors.
func New(source string, opts ...Option) *Client {
	c := &Client{
		http:      &http.Client{Timeout: DefaultHTTPTimeout},
		source:    source,
		userAgent: constants.UserAgent,
		auth:      &NoAuth{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Source returns the name used in errors.
func (c *Client) Source() string {
	return c.source
}

// Do performs an HTTP request with headers and credentials applied.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	if c.apiKey != "" {
		c.auth.Apply(req, c.apiKey)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		if ctxErr := req.Context().Err(); ctxErr != nil {
			return nil, errors.WrapAPI(c.source, 0, ctxErr)
		}
		return nil, errors.WrapAPI(c.source, 0, err)
	}
	return resp, nil
}

// Get performs a GET request.
func (c *Client) Get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.NewValidationError("url", url, err.Error())
	}
	return c.Do(req)
}

// GetBody performs a GET request and returns the body of a 200 response.
func (c *Client) GetBody(ctx context.Context, url string) ([]byte, error) {
	resp, err := c.Get(ctx, url)
	if err != nil {
		return nil, err
	}
	return ReadBody(resp, c.source)
}

// GetJSON performs a GET request and decodes a 200 JSON response into target.
func (c *Client) GetJSON(ctx context.Context, url string, target any) error {
	resp, err := c.Get(ctx, url)
	if err != nil {
		return err
	}
	return DecodeResponse(resp, target, c.source)
}
