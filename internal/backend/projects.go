package backend

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/talk2dom/web/internal/paging"
)

// CreateProjectInput is the body of a project create.
type CreateProjectInput struct {
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
}

// ListProjects fetches one page of the caller's projects.
func (c *Client) ListProjects(ctx context.Context, limit, offset int) (paging.Page[Project], error) {
	return FetchPage[Project](ctx, c, "/project", "/project", limit, offset, "Failed to load projects")
}

// Projects returns a fetcher over the caller's projects.
func (c *Client) Projects() paging.Fetcher[Project] {
	return pageFetcher[Project](c, "/project", "/project", "Failed to load projects")
}

// CountProjects pages through the caller's projects and counts those owned by
// ownerID. An empty ownerID counts every project.
func (c *Client) CountProjects(ctx context.Context, ownerID string) (int, error) {
	all, err := paging.All(ctx, c.Projects(), countBatch)
	if err != nil {
		return 0, err
	}
	if ownerID == "" {
		return len(all), nil
	}
	n := 0
	for _, p := range all {
		if p.OwnerID == ownerID {
			n++
		}
	}
	return n, nil
}

// CreateProject creates a project and returns it.
func (c *Client) CreateProject(ctx context.Context, in CreateProjectInput) (Project, error) {
	body, err := c.send(ctx, call{
		method:   http.MethodPost,
		route:    "/project",
		path:     "/project",
		body:     in,
		fallback: "Failed to create project",
	})
	if err != nil {
		return Project{}, err
	}

	var p Project
	if err := decodeWrite(body, &p); err != nil {
		return Project{}, err
	}
	if p.ID == "" {
		return Project{}, ErrMalformedResponse
	}
	return p, nil
}

// DeleteProject deletes a project.
func (c *Client) DeleteProject(ctx context.Context, projectID string) error {
	_, err := c.send(ctx, call{
		method:   http.MethodDelete,
		route:    "/project/{id}",
		path:     pathf("/project/%s", projectID),
		fallback: "Failed to delete project",
	})
	return err
}

// Usage fetches a project's API usage series. An undecodable body yields no
// points.
func (c *Client) Usage(ctx context.Context, projectID string) ([]UsagePoint, error) {
	body, err := c.send(ctx, call{
		method:   http.MethodGet,
		route:    "/project/{id}/api-usage",
		path:     pathf("/project/%s/api-usage", projectID),
		fallback: "Failed to load usage",
	})
	if err != nil {
		return nil, err
	}

	var points []UsagePoint
	if err := json.Unmarshal(body, &points); err != nil {
		return []UsagePoint{}, nil
	}
	if points == nil {
		points = []UsagePoint{}
	}
	return points, nil
}
