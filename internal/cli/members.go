package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/talk2dom/web/internal/access"
	"github.com/talk2dom/web/internal/api/validation"
	"github.com/talk2dom/web/internal/backend"
	"github.com/talk2dom/web/internal/paging"
)

// ErrNotPermitted is returned when the current user's role does not allow a
// member removal. No request is sent in that case.
var ErrNotPermitted = errors.New("you do not have permission to remove this member")

// roster is the current user plus every member of one project; it decides
// which rows may be removed.
type roster struct {
	user backend.User
	all  []backend.Member
}

func (a *app) loadRoster(ctx context.Context, c *backend.Client, projectID string) (*roster, error) {
	r := &roster{}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		u, err := a.currentUser(gctx, c)
		r.user = u
		return err
	})
	g.Go(func() error {
		all, err := c.AllMembers(gctx, projectID)
		if err != nil {
			return failure(err, "Failed to load members")
		}
		r.all = all
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *roster) canRemove(target backend.Member) bool {
	role, ok := access.RoleOf(r.user.ID, backend.Principals(r.all))
	return ok && access.CanRemove(access.Principal{UserID: r.user.ID, Role: role}, target.Principal())
}

func (r *roster) find(userID string) (backend.Member, bool) {
	for _, m := range r.all {
		if m.UserID == userID {
			return m, true
		}
	}
	return backend.Member{}, false
}

func (r *roster) drop(userID string) {
	for i, m := range r.all {
		if m.UserID == userID {
			r.all = append(r.all[:i], r.all[i+1:]...)
			return
		}
	}
}

func (r *roster) nonOwners() int {
	n := 0
	for _, m := range r.all {
		if m.Role != access.RoleOwner {
			n++
		}
	}
	return n
}

// remove applies the role rule locally and only then asks the backend.
func (r *roster) remove(ctx context.Context, c *backend.Client, projectID, userID string) error {
	target, ok := r.find(userID)
	if !ok {
		return fmt.Errorf("user %s is not a member of this project", userID)
	}
	if !r.canRemove(target) {
		return ErrNotPermitted
	}
	if err := c.RemoveMember(ctx, projectID, userID); err != nil {
		return failure(err, "Failed to remove member")
	}
	r.drop(userID)
	return nil
}

func (r *roster) table() table[backend.Member] {
	return table[backend.Member]{
		noun:    "members",
		headers: []string{"USER ID", "NAME", "EMAIL", "ROLE", "REMOVABLE"},
		row: func(m backend.Member) []string {
			return []string{m.UserID, m.Name, m.Email, string(m.Role), yesNo(r.canRemove(m))}
		},
	}
}

func (a *app) membersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "members",
		Aliases: []string{"member"},
		Short:   "Manage project members",
	}

	var w window
	list := &cobra.Command{
		Use:   "list <project-id>",
		Short: "List a project's members",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := w.check(); err != nil {
				return err
			}
			c, err := a.client()
			if err != nil {
				return err
			}
			r, err := a.loadRoster(cmd.Context(), c, args[0])
			if err != nil {
				return err
			}
			page, err := c.ListMembers(cmd.Context(), args[0], w.limit, w.offset)
			if err != nil {
				return failure(err, "Failed to load members")
			}
			return r.table().writePage(a.out, page)
		},
	}
	addWindowFlags(list, &w, paging.TableSizes, paging.DefaultTableSize)

	var email, role string
	add := &cobra.Command{
		Use:   "add <project-id>",
		Short: "Add a user to a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in := backend.AddMemberInput{Email: strings.TrimSpace(email), Role: access.Role(role)}
			if err := invalid(validation.ValidateAddMemberRequest(in.Email, in.Role)); err != nil {
				return err
			}
			c, err := a.client()
			if err != nil {
				return err
			}
			r, err := a.loadRoster(cmd.Context(), c, args[0])
			if err != nil {
				return err
			}
			if !access.CanAddMember(r.user.Plan, r.nonOwners()) {
				return fmt.Errorf("%w: your %s plan allows %d members per project", access.ErrMemberLimitReached, r.user.Plan, access.MemberLimit(r.user.Plan))
			}

			m, err := c.AddMember(cmd.Context(), args[0], in)
			if err != nil {
				return failure(err, "Failed to add member")
			}
			fmt.Fprintf(a.out, "Added %s as %s\n", m.Email, m.Role)
			return nil
		},
	}
	add.Flags().StringVar(&email, "email", "", "email of the user to add")
	add.Flags().StringVar(&role, "role", string(access.RoleMember), `role, "admin" or "member"`)

	var rw window
	remove := &cobra.Command{
		Use:   "remove <project-id> <user-id>",
		Short: "Remove a member and show the refreshed list",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := rw.check(); err != nil {
				return err
			}
			projectID, userID := args[0], args[1]
			c, err := a.client()
			if err != nil {
				return err
			}
			r, err := a.loadRoster(cmd.Context(), c, projectID)
			if err != nil {
				return err
			}
			if err := r.remove(cmd.Context(), c, projectID, userID); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Removed member %s\n", userID)

			page, err := paging.Correct(cmd.Context(), c.Members(projectID), rw.limit, rw.offset)
			if err != nil {
				return failure(err, "Failed to load members")
			}
			return r.table().writePage(a.out, page)
		},
	}
	addWindowFlags(remove, &rw, paging.TableSizes, paging.DefaultTableSize)

	browseCmd := &cobra.Command{
		Use:   "browse <project-id>",
		Short: "Page through a project's members interactively",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			projectID := args[0]
			c, err := a.client()
			if err != nil {
				return err
			}
			r, err := a.loadRoster(cmd.Context(), c, projectID)
			if err != nil {
				return err
			}
			p := paging.NewPager(c.Members(projectID), paging.DefaultTableSize, paging.WithSizes(paging.TableSizes...))
			return browse(cmd.Context(), a.in, a.out, p, r.table(), func(ctx context.Context, m backend.Member) error {
				return r.remove(ctx, c, projectID, m.UserID)
			})
		},
	}

	cmd.AddCommand(list, add, remove, browseCmd)
	return cmd
}

var inviteTable = table[backend.Invite]{
	noun:    "invites",
	headers: []string{"ID", "EMAIL", "STATUS"},
	row: func(inv backend.Invite) []string {
		status := "pending"
		if inv.Accepted {
			status = "accepted"
		}
		return []string{inv.ID, inv.Email, status}
	},
}

func (a *app) invitesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "invites",
		Aliases: []string{"invite"},
		Short:   "Manage project invites",
	}

	var w window
	list := &cobra.Command{
		Use:   "list <project-id>",
		Short: "List a project's invites",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := w.check(); err != nil {
				return err
			}
			c, err := a.client()
			if err != nil {
				return err
			}
			page, err := c.ListInvites(cmd.Context(), args[0], w.limit, w.offset)
			if err != nil {
				return failure(err, "Failed to load invites")
			}
			return inviteTable.writePage(a.out, page)
		},
	}
	addWindowFlags(list, &w, paging.TableSizes, paging.DefaultTableSize)

	create := &cobra.Command{
		Use:   "create <project-id> <email>",
		Short: "Invite someone to a project by email",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			email := strings.TrimSpace(args[1])
			if err := invalid(validation.ValidateCreateInviteRequest(email)); err != nil {
				return err
			}
			c, err := a.client()
			if err != nil {
				return err
			}
			inv, err := c.CreateInvite(cmd.Context(), args[0], backend.CreateInviteInput{Email: email})
			if err != nil {
				return failure(err, "Failed to send invite")
			}
			fmt.Fprintf(a.out, "Invited %s (%s)\n", inv.Email, inv.ID)
			return nil
		},
	}

	var rw window
	revoke := &cobra.Command{
		Use:   "revoke <project-id> <invite-id>",
		Short: "Revoke an invite and show the refreshed list",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := rw.check(); err != nil {
				return err
			}
			projectID := args[0]
			c, err := a.client()
			if err != nil {
				return err
			}
			if err := c.RevokeInvite(cmd.Context(), projectID, args[1]); err != nil {
				return failure(err, "Failed to revoke invite")
			}
			fmt.Fprintf(a.out, "Revoked invite %s\n", args[1])

			page, err := paging.Correct(cmd.Context(), c.Invites(projectID), rw.limit, rw.offset)
			if err != nil {
				return failure(err, "Failed to load invites")
			}
			return inviteTable.writePage(a.out, page)
		},
	}
	addWindowFlags(revoke, &rw, paging.TableSizes, paging.DefaultTableSize)

	browseCmd := &cobra.Command{
		Use:   "browse <project-id>",
		Short: "Page through a project's invites interactively",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			projectID := args[0]
			c, err := a.client()
			if err != nil {
				return err
			}
			p := paging.NewPager(c.Invites(projectID), paging.DefaultTableSize, paging.WithSizes(paging.TableSizes...))
			return browse(cmd.Context(), a.in, a.out, p, inviteTable, func(ctx context.Context, inv backend.Invite) error {
				return c.RevokeInvite(ctx, projectID, inv.ID)
			})
		},
	}

	cmd.AddCommand(list, create, revoke, browseCmd)
	return cmd
}
