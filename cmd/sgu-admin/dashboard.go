// ABOUTME: Dashboard command showing catalog statistics and recent activity
// ABOUTME: Counts come from the product and inquiry lists loaded concurrently

package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/2389/sgu-admin/internal/app"
	"github.com/2389/sgu-admin/internal/catalog"
	"github.com/2389/sgu-admin/internal/route"
)

func (c *cli) dashboardCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "dashboard",
		Aliases: []string{"dash"},
		Short:   "Catalog statistics and recent activity",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.view(cmd, route.RootPath, func(ctx context.Context, a *app.App, _ route.Decision) error {
				d := catalog.NewDashboard(a.API, a.Logger)
				if err := d.Load(ctx); err != nil {
					return err
				}
				printDashboard(cmd.OutOrStdout(), d)
				return nil
			})
		},
	}
}
