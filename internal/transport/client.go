// Package transport provides the HTTP client plumbing shared by upstream
// catalog API clients: authentication, common headers, and response decoding.
package transport

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/noodle630/beam/pkg/errors"
)

// DefaultHTTPTimeout is the default timeout for HTTP requests.
const DefaultHTTPTimeout = 30 * time.Second

// Authenticator applies credentials to an outgoing request.
type Authenticator interface {
	Apply(req *http.Request)
}

// NoAuth performs no authentication.
type NoAuth struct{}

// Apply implements Authenticator.
func (NoAuth) Apply(*http.Request) {}

// HeaderAuth sets a static credential header, e.g. the Shopify Admin API's
// X-Shopify-Access-Token.
type HeaderAuth struct {
	Header string
	Token  string
}

// Apply implements Authenticator.
func (a HeaderAuth) Apply(req *http.Request) {
	if a.Token != "" {
		req.Header.Set(a.Header, a.Token)
	}
}

// Client provides HTTP client functionality with authentication.
type Client struct {
	http *http.Client
	auth Authenticator
}

// New creates a new transport client with the specified authenticator.
func New(auth Authenticator) *Client {
	if auth == nil {
		auth = NoAuth{}
	}
	return &Client{
		http: &http.Client{Timeout: DefaultHTTPTimeout},
		auth: auth,
	}
}

// Do performs an HTTP request with authentication and common headers applied.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	c.auth.Apply(req)
	req.Header.Set("Accept", "application/json")
	if req.Method == http.MethodPost || req.Method == http.MethodPut || req.Method == http.MethodPatch {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.http.Do(req)
}

// Get performs a GET request.
func (c *Client) Get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.WrapAPI("", 0, err)
	}
	return c.Do(req)
}

// DecodeResponse decodes a JSON response body into v, treating non-2xx
// statuses as API errors. The body is always drained and closed.
func DecodeResponse(resp *http.Response, v any) error {
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		return errors.NewAPIError(resp.Request.Host, resp.StatusCode, string(body))
	}
	defer func() {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return errors.WrapAPI(resp.Request.Host, resp.StatusCode, err)
	}
	return nil
}
