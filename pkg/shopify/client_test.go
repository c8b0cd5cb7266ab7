package shopify

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noodle630/beam/pkg/errors"
)

// pagedServer serves two product pages linked by a page_info cursor and
// records the requests it saw.
func pagedServer(t *testing.T) (*httptest.Server, *[]http.Request) {
	t.Helper()
	var seen []http.Request

	mux := http.NewServeMux()
	var srv *httptest.Server
	mux.HandleFunc("/products.json", func(w http.ResponseWriter, r *http.Request) {
		seen = append(seen, *r)
		w.Header().Set("Content-Type", "application/json")

		switch r.URL.Query().Get("page_info") {
		case "":
			w.Header().Set("Link", fmt.Sprintf(`<%s/products.json?limit=2&page_info=cursor2>; rel="next"`, srv.URL))
			fmt.Fprint(w, `{"products":[{"id":1,"title":"One"},{"id":2,"title":"Two"}]}`)
		case "cursor2":
			fmt.Fprint(w, `{"products":[{"id":3,"title":"Three"}]}`)
		default:
			http.Error(w, "unknown cursor", http.StatusBadRequest)
		}
	})
	srv = httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, &seen
}

func TestPagesFollowsLinkHeader(t *testing.T) {
	srv, seen := pagedServer(t)

	c := NewClient("test-shop.myshopify.com", "secret-token",
		WithBaseURL(srv.URL),
		WithPageSize(2),
		WithPageDelay(0),
	)

	var pages [][]Product
	for page, err := range c.Pages(context.Background()) {
		require.NoError(t, err)
		pages = append(pages, page)
	}

	require.Len(t, pages, 2)
	assert.Len(t, pages[0], 2)
	assert.Len(t, pages[1], 1)
	assert.Equal(t, int64(3), pages[1][0].ID)

	require.Len(t, *seen, 2)
	assert.Equal(t, "secret-token", (*seen)[0].Header.Get("X-Shopify-Access-Token"))
	assert.Equal(t, "2", (*seen)[0].URL.Query().Get("limit"))
	assert.Equal(t, "cursor2", (*seen)[1].URL.Query().Get("page_info"))
}

func TestPagesStopsOnAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "too many requests", http.StatusTooManyRequests)
	}))
	t.Cleanup(srv.Close)

	c := NewClient("test-shop.myshopify.com", "tok", WithBaseURL(srv.URL), WithPageDelay(0))

	var yields int
	for _, err := range c.Pages(context.Background()) {
		yields++
		require.Error(t, err)
		assert.True(t, errors.Is(err, errors.ErrRateLimited), "429 maps to the rate limit sentinel")
	}
	assert.Equal(t, 1, yields, "sequence ends after the first error")
}

func TestPagesEarlyBreak(t *testing.T) {
	srv, seen := pagedServer(t)

	c := NewClient("test-shop.myshopify.com", "tok",
		WithBaseURL(srv.URL), WithPageSize(2), WithPageDelay(0))

	for range c.Pages(context.Background()) {
		break
	}

	assert.Len(t, *seen, 1, "breaking the loop stops fetching")
}

func TestPagesCanceledContext(t *testing.T) {
	srv, _ := pagedServer(t)

	c := NewClient("test-shop.myshopify.com", "tok",
		WithBaseURL(srv.URL), WithPageSize(2), WithPageDelay(0))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var lastErr error
	for _, err := range c.Pages(ctx) {
		lastErr = err
	}
	require.Error(t, lastErr)
}

func TestNextPageInfo(t *testing.T) {
	tests := []struct {
		name string
		link string
		want string
	}{
		{
			name: "next only",
			link: `<https://shop.myshopify.com/admin/api/2024-01/products.json?page_info=abc123&limit=250>; rel="next"`,
			want: "abc123",
		},
		{
			name: "previous and next",
			link: `<https://s/prev?page_info=p1>; rel="previous", <https://s/next?page_info=n1>; rel="next"`,
			want: "n1",
		},
		{name: "previous only", link: `<https://s/prev?page_info=p1>; rel="previous"`, want: ""},
		{name: "empty header", link: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, nextPageInfo(tt.link))
		})
	}
}

func TestShop(t *testing.T) {
	c := NewClient("my-shop.myshopify.com", "tok")
	assert.Equal(t, "my-shop.myshopify.com", c.Shop())
}
