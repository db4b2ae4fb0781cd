package backend

import (
	"context"
	"net/http"

	"github.com/talk2dom/web/internal/paging"
)

// LocateInput is the body of an inference request.
type LocateInput struct {
	URL             string `json:"url"`
	HTML            string `json:"html"`
	UserInstruction string `json:"user_instruction"`
}

// ListLocatorCache fetches one page of a project's cached locator results.
func (c *Client) ListLocatorCache(ctx context.Context, projectID string, limit, offset int) (paging.Page[LocatorCacheEntry], error) {
	return c.LocatorCache(projectID)(ctx, limit, offset)
}

// LocatorCache returns a fetcher over a project's cached locator results.
func (c *Client) LocatorCache(projectID string) paging.Fetcher[LocatorCacheEntry] {
	return pageFetcher[LocatorCacheEntry](c, "/project/{id}/locator-cache", pathf("/project/%s/locator-cache", projectID), "Failed to load locator cache")
}

// DeleteLocatorCacheEntry deletes one cached result.
func (c *Client) DeleteLocatorCacheEntry(ctx context.Context, projectID, entryID string) error {
	_, err := c.send(ctx, call{
		method:   http.MethodDelete,
		route:    "/project/{id}/locator-cache/{entryId}",
		path:     pathf("/project/%s/locator-cache/%s", projectID, entryID),
		fallback: "Failed to delete cache entry",
	})
	return err
}

// Locate asks the inference engine for a selector matching the instruction.
func (c *Client) Locate(ctx context.Context, in LocateInput) (Locator, error) {
	body, err := c.send(ctx, call{
		method:   http.MethodPost,
		route:    "/inference/locator",
		path:     "/inference/locator",
		body:     in,
		fallback: "Failed to locate element",
	})
	if err != nil {
		return Locator{}, err
	}

	var l Locator
	if err := decodeWrite(body, &l); err != nil {
		return Locator{}, err
	}
	if l.SelectorType == "" || l.SelectorValue == "" {
		return Locator{}, ErrMalformedResponse
	}
	return l, nil
}
