package shopify

import (
	"context"
	"fmt"
	"iter"
	"net/url"
	"regexp"
	"time"

	"github.com/rs/zerolog"

	"github.com/noodle630/beam/internal/transport"
	"github.com/noodle630/beam/pkg/errors"
	"github.com/noodle630/beam/pkg/logging"
)

const (
	// apiVersion pins the Admin API version the client speaks.
	apiVersion = "2024-01"

	// accessTokenHeader carries the Admin API credential.
	accessTokenHeader = "X-Shopify-Access-Token"

	// defaultPageSize is the Admin API's maximum page size.
	defaultPageSize = 250

	// defaultPageDelay is the courtesy pause between pages to respect the
	// upstream rate limit.
	defaultPageDelay = 500 * time.Millisecond
)

// linkNext extracts the rel="next" URL from an Admin API Link header.
var linkNext = regexp.MustCompile(`<([^>]+)>;\s*rel="next"`)

// Client fetches products from a shop as a lazy, finite, non-restartable
// sequence of pages. Each page is fetched exactly once, on demand, with a
// fixed delay between pages.
type Client struct {
	transport *transport.Client
	shop      string
	baseURL   string
	pageSize  int
	pageDelay time.Duration
	logger    *zerolog.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithPageSize sets the page size requested from the API.
func WithPageSize(n int) ClientOption {
	return func(c *Client) { c.pageSize = n }
}

// WithPageDelay sets the inter-page delay.
func WithPageDelay(d time.Duration) ClientOption {
	return func(c *Client) { c.pageDelay = d }
}

// WithBaseURL overrides the API base URL. Used by tests.
func WithBaseURL(u string) ClientOption {
	return func(c *Client) { c.baseURL = u }
}

// WithClientLogger sets the client's logger.
func WithClientLogger(logger *zerolog.Logger) ClientOption {
	return func(c *Client) { c.logger = logger }
}

// NewClient creates a Client for the given shop domain and Admin API access
// token.
func NewClient(shopDomain, accessToken string, opts ...ClientOption) *Client {
	c := &Client{
		transport: transport.New(transport.HeaderAuth{
			Header: accessTokenHeader,
			Token:  accessToken,
		}),
		shop:      shopDomain,
		baseURL:   fmt.Sprintf("https://%s/admin/api/%s", shopDomain, apiVersion),
		pageSize:  defaultPageSize,
		pageDelay: defaultPageDelay,
		logger:    logging.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Shop returns the shop domain the client is bound to.
func (c *Client) Shop() string {
	return c.shop
}

// Pages yields product pages until the API reports no more. The sequence
// terminates on the first error; it is not restartable.
func (c *Client) Pages(ctx context.Context) iter.Seq2[[]Product, error] {
	return func(yield func([]Product, error) bool) {
		pageInfo := ""
		for page := 1; ; page++ {
			reqURL := fmt.Sprintf("%s/products.json?limit=%d", c.baseURL, c.pageSize)
			if pageInfo != "" {
				reqURL += "&page_info=" + url.QueryEscape(pageInfo)
			}

			resp, err := c.transport.Get(ctx, reqURL)
			if err != nil {
				yield(nil, errors.WrapAPI(c.shop, 0, err))
				return
			}
			next := nextPageInfo(resp.Header.Get("Link"))

			var body productsResponse
			if err := transport.DecodeResponse(resp, &body); err != nil {
				yield(nil, err)
				return
			}

			c.logger.Debug().
				Str("shop", c.shop).
				Int("page", page).
				Int("products", len(body.Products)).
				Msg("Fetched product page")

			if !yield(body.Products, nil) {
				return
			}
			if next == "" {
				return
			}
			pageInfo = next

			// Courtesy pause between pages, never after the last one.
			select {
			case <-ctx.Done():
				yield(nil, ctx.Err())
				return
			case <-time.After(c.pageDelay):
			}
		}
	}
}

// nextPageInfo pulls the continuation cursor out of the Link header, if any.
func nextPageInfo(link string) string {
	m := linkNext.FindStringSubmatch(link)
	if m == nil {
		return ""
	}
	u, err := url.Parse(m[1])
	if err != nil {
		return ""
	}
	return u.Query().Get("page_info")
}
