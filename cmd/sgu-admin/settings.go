// ABOUTME: Site settings commands: list and set
// ABOUTME: Setting one key saves the whole social or branding set it belongs to

package main

import (
	"context"
	"sort"

	"github.com/spf13/cobra"

	"github.com/2389/sgu-admin/internal/app"
	"github.com/2389/sgu-admin/internal/route"
	"github.com/2389/sgu-admin/internal/sitesettings"
)

func (c *cli) settingsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Social links and branding",
	}

	list := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "Show all settings",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.view(cmd, "/settings", func(ctx context.Context, a *app.App, _ route.Decision) error {
				v := sitesettings.New(a.API, a.Notify, a.Logger)
				if err := v.Load(ctx); err != nil {
					return err
				}
				printSettings(cmd.OutOrStdout(), v)
				return nil
			})
		},
	}

	set := &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Change one setting (trust_logos takes a comma-separated list)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.view(cmd, "/settings", func(ctx context.Context, a *app.App, _ route.Decision) error {
				v := sitesettings.New(a.API, a.Notify, a.Logger)
				if err := v.Load(ctx); err != nil {
					return err
				}
				return v.Set(ctx, args[0], args[1])
			})
		},
	}

	cmd.AddCommand(list, set)
	return cmd
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
