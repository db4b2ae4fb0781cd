package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/talk2dom/web/internal/api/validation"
	"github.com/talk2dom/web/internal/backend"
	"github.com/talk2dom/web/internal/paging"
)

var keyTable = table[backend.APIKey]{
	noun:    "API keys",
	headers: []string{"ID", "NAME", "KEY", "ACTIVE", "CREATED"},
	row: func(k backend.APIKey) []string {
		return []string{k.ID, deref(k.Name), k.Masked(), yesNo(k.IsActive), k.CreatedAt}
	},
}

func (a *app) keysCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "keys",
		Aliases: []string{"api-keys"},
		Short:   "Manage API keys",
	}

	var w window
	list := &cobra.Command{
		Use:   "list",
		Short: "List API keys",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := w.check(); err != nil {
				return err
			}
			c, err := a.client()
			if err != nil {
				return err
			}
			page, err := c.ListAPIKeys(cmd.Context(), w.limit, w.offset)
			if err != nil {
				return failure(err, "Failed to load API keys")
			}
			return keyTable.writePage(a.out, page)
		},
	}
	addWindowFlags(list, &w, paging.TableSizes, paging.DefaultTableSize)

	var name string
	create := &cobra.Command{
		Use:   "create",
		Short: "Create an API key and print it once",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var in backend.CreateAPIKeyInput
			if n := strings.TrimSpace(name); n != "" {
				in.Name = &n
			}
			if err := invalid(validation.ValidateCreateAPIKeyRequest(in.Name)); err != nil {
				return err
			}
			c, err := a.client()
			if err != nil {
				return err
			}
			k, err := c.CreateAPIKey(cmd.Context(), in)
			if err != nil {
				return failure(err, "Failed to create API key")
			}
			fmt.Fprintf(a.out, "Created API key %s\n", k.ID)
			if k.Key != nil {
				fmt.Fprintf(a.out, "\n  %s\n\nCopy it now; it will not be shown again.\n", *k.Key)
			}
			return nil
		},
	}
	create.Flags().StringVar(&name, "name", "", "key name")

	var dw window
	del := &cobra.Command{
		Use:   "delete <key-id>",
		Short: "Delete an API key and show the refreshed list",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := dw.check(); err != nil {
				return err
			}
			c, err := a.client()
			if err != nil {
				return err
			}
			if err := c.DeleteAPIKey(cmd.Context(), args[0]); err != nil {
				return failure(err, "Failed to delete API key")
			}
			fmt.Fprintf(a.out, "Deleted API key %s\n", args[0])

			page, err := paging.Correct(cmd.Context(), c.APIKeys(), dw.limit, dw.offset)
			if err != nil {
				return failure(err, "Failed to load API keys")
			}
			return keyTable.writePage(a.out, page)
		},
	}
	addWindowFlags(del, &dw, paging.TableSizes, paging.DefaultTableSize)

	browseCmd := &cobra.Command{
		Use:   "browse",
		Short: "Page through API keys interactively",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := a.client()
			if err != nil {
				return err
			}
			p := paging.NewPager(c.APIKeys(), paging.DefaultTableSize, paging.WithSizes(paging.TableSizes...))
			return browse(cmd.Context(), a.in, a.out, p, keyTable, func(ctx context.Context, k backend.APIKey) error {
				return c.DeleteAPIKey(ctx, k.ID)
			})
		},
	}

	cmd.AddCommand(list, create, del, browseCmd)
	return cmd
}

var cacheTable = table[backend.LocatorCacheEntry]{
	noun:    "cached locators",
	headers: []string{"ID", "INSTRUCTION", "SELECTOR", "URL"},
	row: func(e backend.LocatorCacheEntry) []string {
		return []string{e.ID, e.UserInstruction, e.SelectorType + "=" + e.SelectorValue, e.URL}
	},
}

func (a *app) cacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect a project's locator cache",
	}

	var w window
	list := &cobra.Command{
		Use:   "list <project-id>",
		Short: "List cached locators",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := w.check(); err != nil {
				return err
			}
			c, err := a.client()
			if err != nil {
				return err
			}
			page, err := c.ListLocatorCache(cmd.Context(), args[0], w.limit, w.offset)
			if err != nil {
				return failure(err, "Failed to load locator cache")
			}
			return cacheTable.writePage(a.out, page)
		},
	}
	addWindowFlags(list, &w, paging.TableSizes, paging.DefaultTableSize)

	var dw window
	del := &cobra.Command{
		Use:   "delete <project-id> <entry-id>",
		Short: "Delete a cached locator and show the refreshed list",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := dw.check(); err != nil {
				return err
			}
			projectID := args[0]
			c, err := a.client()
			if err != nil {
				return err
			}
			if err := c.DeleteLocatorCacheEntry(cmd.Context(), projectID, args[1]); err != nil {
				return failure(err, "Failed to delete cache entry")
			}
			fmt.Fprintf(a.out, "Deleted cache entry %s\n", args[1])

			page, err := paging.Correct(cmd.Context(), c.LocatorCache(projectID), dw.limit, dw.offset)
			if err != nil {
				return failure(err, "Failed to load locator cache")
			}
			return cacheTable.writePage(a.out, page)
		},
	}
	addWindowFlags(del, &dw, paging.TableSizes, paging.DefaultTableSize)

	browseCmd := &cobra.Command{
		Use:   "browse <project-id>",
		Short: "Page through cached locators interactively",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			projectID := args[0]
			c, err := a.client()
			if err != nil {
				return err
			}
			p := paging.NewPager(c.LocatorCache(projectID), paging.DefaultTableSize, paging.WithSizes(paging.TableSizes...))
			return browse(cmd.Context(), a.in, a.out, p, cacheTable, func(ctx context.Context, e backend.LocatorCacheEntry) error {
				return c.DeleteLocatorCacheEntry(ctx, projectID, e.ID)
			})
		},
	}

	cmd.AddCommand(list, del, browseCmd)
	return cmd
}
