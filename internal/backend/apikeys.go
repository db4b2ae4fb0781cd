package backend

import (
	"context"
	"net/http"

	"github.com/talk2dom/web/internal/paging"
)

// CreateAPIKeyInput is the body of an API key create.
type CreateAPIKeyInput struct {
	Name *string `json:"name,omitempty"`
}

// ListAPIKeys fetches one page of the caller's API keys.
func (c *Client) ListAPIKeys(ctx context.Context, limit, offset int) (paging.Page[APIKey], error) {
	return c.APIKeys()(ctx, limit, offset)
}

// APIKeys returns a fetcher over the caller's API keys.
func (c *Client) APIKeys() paging.Fetcher[APIKey] {
	return pageFetcher[APIKey](c, "/user/api-keys", "/user/api-keys", "Failed to load API keys")
}

// CreateAPIKey creates a key. The returned key is the only time the full
// value is available.
func (c *Client) CreateAPIKey(ctx context.Context, in CreateAPIKeyInput) (APIKey, error) {
	body, err := c.send(ctx, call{
		method:   http.MethodPost,
		route:    "/user/api-keys",
		path:     "/user/api-keys",
		body:     in,
		fallback: "Failed to create API key",
	})
	if err != nil {
		return APIKey{}, err
	}

	var k APIKey
	if err := decodeWrite(body, &k); err != nil {
		return APIKey{}, err
	}
	return k, nil
}

// DeleteAPIKey deletes a key.
func (c *Client) DeleteAPIKey(ctx context.Context, keyID string) error {
	_, err := c.send(ctx, call{
		method:   http.MethodDelete,
		route:    "/user/api-keys/{id}",
		path:     pathf("/user/api-keys/%s", keyID),
		fallback: "Failed to delete API key",
	})
	return err
}
