// ABOUTME: Root command, global flags, and per-command application scope
// ABOUTME: Each command loads config, opens the app, resolves the session, and checks its route

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/2389/sgu-admin/internal/app"
	"github.com/2389/sgu-admin/internal/config"
	"github.com/2389/sgu-admin/internal/logging"
	"github.com/2389/sgu-admin/internal/notify"
	"github.com/2389/sgu-admin/internal/route"
	"github.com/2389/sgu-admin/internal/session"
)

const banner = `
                                  _           _
 ___  __ _ _   _        __ _  __| |_ __ ___ (_)_ __
/ __|/ _' | | | |_____ / _' |/ _' | '_ ' _ \| | '_ \
\__ \ (_| | |_| |_____| (_| | (_| | | | | | | | | | |
|___/\__, |\__,_|      \__,_|\__,_|_| |_| |_|_|_| |_|
     |___/
`

var (
	// errNotLoggedIn is returned when a command needs a session and there is none.
	errNotLoggedIn = errors.New("not logged in (run: sgu-admin login)")
	// errSessionExpired is returned when the API rejected the token mid-command.
	errSessionExpired = errors.New("session expired, log in again (run: sgu-admin login)")
)

// cli carries global flags into every command.
type cli struct {
	configPath string
	host       string
	debug      bool

	// options for tests
	appOptions []app.Option
}

func newRootCmd() *cobra.Command {
	c := &cli{}
	return c.rootCmd()
}

func (c *cli) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "sgu-admin",
		Short:         "Admin console for the SGU product catalog",
		Long:          banner + "\nManage products, inquiries, job applications and site settings.",
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&c.configPath, "config", "", "config file (default: $SGU_CONFIG or $XDG_CONFIG_HOME/sgu-admin/config.yaml)")
	flags.StringVar(&c.host, "host", "", "host name used to pick the local or public API")
	flags.BoolVar(&c.debug, "debug", false, "enable debug logging")

	root.AddCommand(
		c.loginCmd(),
		c.logoutCmd(),
		c.whoamiCmd(),
		c.statusCmd(),
		c.dashboardCmd(),
		c.productsCmd(),
		c.uploadCmd(),
		c.countriesCmd(),
		c.inquiriesCmd(),
		c.applicationsCmd(),
		c.settingsCmd(),
		c.consoleCmd(),
	)
	return root
}

// loadConfig reads the config file and applies flag overrides.
func (c *cli) loadConfig() (*config.Config, error) {
	path := c.configPath
	if path == "" {
		path = config.Path()
	}
	cfg, err := config.LoadOrDefault(path)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if c.host != "" {
		cfg.API.Host = c.host
	}
	if c.debug {
		cfg.Logging.Level = "debug"
	}
	return cfg, nil
}

// open builds the application scope and resolves the stored session.
func (c *cli) open(ctx context.Context) (*app.App, error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return nil, err
	}
	logger := logging.Setup(cfg.Logging)
	slog.SetDefault(logger)

	opts := append([]app.Option{app.WithLogger(logger)}, c.appOptions...)
	a, err := app.New(cfg, opts...)
	if err != nil {
		return nil, err
	}
	a.Start(ctx)
	return a, nil
}

// view opens the app, checks that path is reachable for the session, mounts
// a view for it and runs fn. Success notifications raised by fn are printed.
func (c *cli) view(cmd *cobra.Command, path string, fn func(ctx context.Context, a *app.App, d route.Decision) error) error {
	a, err := c.open(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	d, settled := a.Navigate(path)
	if d.Kind != route.Match || (settled == route.LoginPath && route.Clean(path) != route.LoginPath) {
		return errNotLoggedIn
	}

	ctx, unmount := a.Mount(cmd.Context(), d.Route.Name)
	defer unmount()

	err = fn(ctx, a, d)
	if a.Session.Snapshot().State != session.Authenticated {
		return errSessionExpired
	}
	printSuccess(cmd.OutOrStdout(), a.Notify.Current())
	return err
}

// printSuccess echoes a visible success notification. Errors reach the
// operator through the returned error instead.
func printSuccess(w io.Writer, n notify.Notification) {
	if n.Visible && n.Kind == notify.KindSuccess {
		color.New(color.FgGreen).Fprintf(w, "✓ %s\n", n.Message)
	}
}
