// ABOUTME: Inquiry and job application commands: list, show and delete
// ABOUTME: Both inboxes share one command builder parameterized by inbox kind

package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/2389/sgu-admin/internal/app"
	"github.com/2389/sgu-admin/internal/inbox"
	"github.com/2389/sgu-admin/internal/route"
)

func (c *cli) inquiriesCmd() *cobra.Command {
	return c.inboxCmd(inbox.General, "inquiries", "Customer inquiries", "Inquiries")
}

func (c *cli) applicationsCmd() *cobra.Command {
	return c.inboxCmd(inbox.Applications, "applications", "Job applications", "Job Applications")
}

func (c *cli) inboxCmd(kind inbox.Kind, use, short, title string) *cobra.Command {
	path := "/" + kind.String()
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
	}

	// load mounts the inbox view and fills it before calling fn.
	load := func(cmd *cobra.Command, fn func(ctx context.Context, v *inbox.View) error) error {
		return c.view(cmd, path, func(ctx context.Context, a *app.App, _ route.Decision) error {
			v := inbox.New(kind, a.API, a.Notify, a.Logger)
			if err := v.Load(ctx); err != nil {
				return err
			}
			return fn(ctx, v)
		})
	}

	var search string
	list := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List newest first",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return load(cmd, func(_ context.Context, v *inbox.View) error {
				printInquiries(cmd.OutOrStdout(), title, v.Search(search))
				return nil
			})
		},
	}
	list.Flags().StringVarP(&search, "search", "s", "", "filter by sender, email, subject or message")

	show := &cobra.Command{
		Use:   "show <id>",
		Short: "Show one message",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return load(cmd, func(_ context.Context, v *inbox.View) error {
				inq, ok := v.Find(id)
				if !ok {
					return fmt.Errorf("%w: %d", inbox.ErrNotFound, id)
				}
				printInquiry(cmd.OutOrStdout(), inq)
				return nil
			})
		},
	}

	var yes bool
	del := &cobra.Command{
		Use:     "delete <id>",
		Aliases: []string{"rm"},
		Short:   "Delete one message",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if !yes && !newPrompter(cmd).confirm(fmt.Sprintf("Delete %s %d?", use, id)) {
				fmt.Fprintln(cmd.OutOrStdout(), "Cancelled.")
				return nil
			}
			return load(cmd, func(ctx context.Context, v *inbox.View) error {
				return v.Delete(ctx, id)
			})
		},
	}
	del.Flags().BoolVarP(&yes, "yes", "y", false, "skip confirmation")

	cmd.AddCommand(list, show, del)
	return cmd
}
