package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/talk2dom/web/internal/access"
	"github.com/talk2dom/web/internal/api/validation"
	"github.com/talk2dom/web/internal/backend"
	"github.com/talk2dom/web/internal/paging"
)

var projectTable = table[backend.Project]{
	noun:    "projects",
	headers: []string{"ID", "NAME", "OWNER", "MEMBERS", "API CALLS", "CREATED"},
	row: func(p backend.Project) []string {
		return []string{p.ID, p.Name, p.OwnerEmail, strconv.Itoa(p.MemberCount), strconv.Itoa(p.APICalls), p.CreatedAt}
	},
}

func (a *app) projectsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "projects",
		Aliases: []string{"project"},
		Short:   "Manage projects",
	}

	var w window
	list := &cobra.Command{
		Use:   "list",
		Short: "List projects",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := w.check(); err != nil {
				return err
			}
			c, err := a.client()
			if err != nil {
				return err
			}
			page, err := c.ListProjects(cmd.Context(), w.limit, w.offset)
			if err != nil {
				return failure(err, "Failed to load projects")
			}
			return projectTable.writePage(a.out, page)
		},
	}
	addWindowFlags(list, &w, paging.ProjectSizes, paging.DefaultGridSize)

	var description string
	create := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in := backend.CreateProjectInput{Name: strings.TrimSpace(args[0])}
			if d := strings.TrimSpace(description); d != "" {
				in.Description = &d
			}
			if err := invalid(validation.ValidateCreateProjectRequest(validation.CreateProjectRequest(in))); err != nil {
				return err
			}
			c, err := a.client()
			if err != nil {
				return err
			}
			if err := a.checkProjectQuota(cmd.Context(), c); err != nil {
				return err
			}

			p, err := c.CreateProject(cmd.Context(), in)
			if err != nil {
				return failure(err, "Failed to create project")
			}
			fmt.Fprintf(a.out, "Created project %s (%s)\n", p.Name, p.ID)
			return nil
		},
	}
	create.Flags().StringVar(&description, "description", "", "project description")

	var dw window
	del := &cobra.Command{
		Use:   "delete <project-id>",
		Short: "Delete a project and show the refreshed list",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := dw.check(); err != nil {
				return err
			}
			c, err := a.client()
			if err != nil {
				return err
			}
			if err := c.DeleteProject(cmd.Context(), args[0]); err != nil {
				return failure(err, "Failed to delete project")
			}
			fmt.Fprintf(a.out, "Deleted project %s\n", args[0])

			page, err := paging.Correct(cmd.Context(), c.Projects(), dw.limit, dw.offset)
			if err != nil {
				return failure(err, "Failed to load projects")
			}
			return projectTable.writePage(a.out, page)
		},
	}
	addWindowFlags(del, &dw, paging.ProjectSizes, paging.DefaultGridSize)

	var size int
	browseCmd := &cobra.Command{
		Use:   "browse",
		Short: "Page through projects interactively",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !paging.ValidSize(paging.ProjectSizes, size) {
				return fmt.Errorf("--limit must be one of %v", paging.ProjectSizes)
			}
			c, err := a.client()
			if err != nil {
				return err
			}
			p := paging.NewPager(c.Projects(), size, paging.WithSizes(paging.ProjectSizes...))
			return browse(cmd.Context(), a.in, a.out, p, projectTable, func(ctx context.Context, pr backend.Project) error {
				return c.DeleteProject(ctx, pr.ID)
			})
		},
	}
	browseCmd.Flags().IntVar(&size, "limit", paging.DefaultGridSize, fmt.Sprintf("initial page size, one of %v", paging.ProjectSizes))

	cmd.AddCommand(list, create, del, browseCmd)
	return cmd
}

// checkProjectQuota refuses a create the caller's plan does not allow.
func (a *app) checkProjectQuota(ctx context.Context, c *backend.Client) error {
	u, err := a.currentUser(ctx, c)
	if err != nil {
		return err
	}
	owned, err := c.CountProjects(ctx, u.ID)
	if err != nil {
		return failure(err, "Failed to load projects")
	}
	if !access.CanCreateProject(u.Plan, owned) {
		return fmt.Errorf("%w: your %s plan allows %d projects", access.ErrProjectLimitReached, u.Plan, access.ProjectLimit(u.Plan))
	}
	return nil
}
