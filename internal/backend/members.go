package backend

import (
	"context"
	"net/http"

	"github.com/talk2dom/web/internal/access"
	"github.com/talk2dom/web/internal/paging"
)

// AddMemberInput is the body of a member add.
type AddMemberInput struct {
	Email string      `json:"email"`
	Role  access.Role `json:"role,omitempty"`
}

// CreateInviteInput is the body of an invite create.
type CreateInviteInput struct {
	Email string `json:"email"`
}

// ListMembers fetches one page of a project's members.
func (c *Client) ListMembers(ctx context.Context, projectID string, limit, offset int) (paging.Page[Member], error) {
	return c.Members(projectID)(ctx, limit, offset)
}

// Members returns a fetcher over a project's members.
func (c *Client) Members(projectID string) paging.Fetcher[Member] {
	return pageFetcher[Member](c, "/project/{id}/members", pathf("/project/%s/members", projectID), "Failed to load members")
}

// AllMembers pages through every member of a project.
func (c *Client) AllMembers(ctx context.Context, projectID string) ([]Member, error) {
	return paging.All(ctx, c.Members(projectID), countBatch)
}

// AddMember adds a user to a project.
func (c *Client) AddMember(ctx context.Context, projectID string, in AddMemberInput) (Member, error) {
	body, err := c.send(ctx, call{
		method:   http.MethodPost,
		route:    "/project/{id}/members",
		path:     pathf("/project/%s/members", projectID),
		body:     in,
		fallback: "Failed to add member",
	})
	if err != nil {
		return Member{}, err
	}

	var m Member
	if err := decodeWrite(body, &m); err != nil {
		return Member{}, err
	}
	return m, nil
}

// RemoveMember removes a user from a project. The backend enforces its own
// permission rules; a refusal comes back as *FetchError.
func (c *Client) RemoveMember(ctx context.Context, projectID, userID string) error {
	_, err := c.send(ctx, call{
		method:   http.MethodDelete,
		route:    "/project/{id}/members/{userId}",
		path:     pathf("/project/%s/members/%s", projectID, userID),
		fallback: "Failed to remove member",
	})
	return err
}

// ListInvites fetches one page of a project's invites.
func (c *Client) ListInvites(ctx context.Context, projectID string, limit, offset int) (paging.Page[Invite], error) {
	return c.Invites(projectID)(ctx, limit, offset)
}

// Invites returns a fetcher over a project's invites.
func (c *Client) Invites(projectID string) paging.Fetcher[Invite] {
	return pageFetcher[Invite](c, "/project/{id}/invites", pathf("/project/%s/invites", projectID), "Failed to load invites")
}

// CreateInvite invites an email address to a project.
func (c *Client) CreateInvite(ctx context.Context, projectID string, in CreateInviteInput) (Invite, error) {
	body, err := c.send(ctx, call{
		method:   http.MethodPost,
		route:    "/project/{id}/invites",
		path:     pathf("/project/%s/invites", projectID),
		body:     in,
		fallback: "Failed to send invite",
	})
	if err != nil {
		return Invite{}, err
	}

	var inv Invite
	if err := decodeWrite(body, &inv); err != nil {
		return Invite{}, err
	}
	return inv, nil
}

// RevokeInvite deletes a pending invite.
func (c *Client) RevokeInvite(ctx context.Context, projectID, inviteID string) error {
	_, err := c.send(ctx, call{
		method:   http.MethodDelete,
		route:    "/project/{id}/invites/{inviteId}",
		path:     pathf("/project/%s/invites/%s", projectID, inviteID),
		fallback: "Failed to revoke invite",
	})
	return err
}
