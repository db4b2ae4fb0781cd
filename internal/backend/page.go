package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"

	"github.com/talk2dom/web/internal/paging"
)

// countBatch is the page size used when walking a whole collection.
const countBatch = 100

// listEnvelope is the backend's collection response.
type listEnvelope[T any] struct {
	Items   *[]T `json:"items"`
	HasNext bool `json:"has_next"`
}

// FetchPage reads one page of the collection at path. A success body that is
// not a usable {items, has_next} object becomes an empty page with no next
// page rather than an error.
func FetchPage[T any](ctx context.Context, c *Client, route, path string, limit, offset int, fallback string) (paging.Page[T], error) {
	if err := paging.CheckWindow(limit, offset); err != nil {
		return paging.Page[T]{}, err
	}

	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))
	q.Set("offset", strconv.Itoa(offset))

	body, err := c.send(ctx, call{
		method:   http.MethodGet,
		route:    route,
		path:     path,
		query:    q,
		fallback: fallback,
	})
	if err != nil {
		return paging.Page[T]{}, err
	}

	return decodePage[T](body, limit, offset), nil
}

func decodePage[T any](body []byte, limit, offset int) paging.Page[T] {
	var env listEnvelope[T]
	if err := json.Unmarshal(body, &env); err != nil || env.Items == nil {
		return paging.EmptyPage[T](limit, offset)
	}
	return paging.NewPage(*env.Items, limit, offset, env.HasNext)
}

// pageFetcher adapts FetchPage to paging.Fetcher for a fixed collection.
func pageFetcher[T any](c *Client, route, path, fallback string) paging.Fetcher[T] {
	return func(ctx context.Context, limit, offset int) (paging.Page[T], error) {
		return FetchPage[T](ctx, c, route, path, limit, offset, fallback)
	}
}
