// ABOUTME: Session commands: login, logout, whoami and status
// ABOUTME: Passwords are read without echo when stdin is a terminal

package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/2389/sgu-admin/internal/api"
	"github.com/2389/sgu-admin/internal/app"
	"github.com/2389/sgu-admin/internal/route"
	"github.com/2389/sgu-admin/internal/session"
)

// prompter reads answers from the command's input.
type prompter struct {
	in  io.Reader
	r   *bufio.Reader
	out io.Writer
}

func newPrompter(cmd *cobra.Command) *prompter {
	in := cmd.InOrStdin()
	return &prompter{in: in, r: bufio.NewReader(in), out: cmd.OutOrStdout()}
}

func (p *prompter) line(label string) (string, error) {
	fmt.Fprint(p.out, label)
	s, err := p.r.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && s != "") {
		return "", fmt.Errorf("reading %s: %w", strings.TrimSuffix(strings.TrimSpace(label), ":"), err)
	}
	return strings.TrimSpace(s), nil
}

// secret reads without echo on a terminal and falls back to a plain line.
func (p *prompter) secret(label string) (string, error) {
	if f, ok := p.in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(p.out, label)
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(p.out)
		if err != nil {
			return "", fmt.Errorf("reading password: %w", err)
		}
		return string(b), nil
	}
	return p.line(label)
}

func (p *prompter) confirm(question string) bool {
	answer, err := p.line(question + " [y/N] ")
	if err != nil {
		return false
	}
	answer = strings.ToLower(answer)
	return answer == "y" || answer == "yes"
}

func (c *cli) loginCmd() *cobra.Command {
	var username, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Exchange username and password for an access token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := c.open(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()
			return login(cmd.Context(), a, newPrompter(cmd), username, password)
		},
	}
	cmd.Flags().StringVarP(&username, "username", "u", "", "username (prompted if empty)")
	cmd.Flags().StringVarP(&password, "password", "p", "", "password (prompted without echo if empty)")
	return cmd
}

func login(ctx context.Context, a *app.App, p *prompter, username, password string) error {
	var err error
	if username == "" {
		if username, err = p.line("Username: "); err != nil {
			return err
		}
	}
	if password == "" {
		if password, err = p.secret("Password: "); err != nil {
			return err
		}
	}

	user, err := a.Session.Authenticate(ctx, username, password)
	if err != nil {
		if errors.Is(err, api.ErrInvalidCredentials) {
			return fmt.Errorf("authentication failed: %w", err)
		}
		return err
	}

	color.New(color.FgGreen).Fprintf(p.out, "✓ Welcome back, %s!\n", user.Username)
	return nil
}

func (c *cli) logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored access token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := c.open(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()
			a.Logout()
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out.")
			return nil
		},
	}
}

func (c *cli) whoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in identity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.view(cmd, route.RootPath, func(_ context.Context, a *app.App, _ route.Decision) error {
				u, err := a.Session.User()
				if err != nil {
					return err
				}
				w := cmd.OutOrStdout()
				heading(w, "Identity")
				fmt.Fprintf(w, "  Username: %s\n", u.Username)
				fmt.Fprintf(w, "  Role:     %s\n\n", orDash(u.Role))
				return nil
			})
		},
	}
}

func (c *cli) statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the API endpoint and session state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := c.open(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			w := cmd.OutOrStdout()
			cyan := color.New(color.FgCyan)
			green := color.New(color.FgGreen)
			yellow := color.New(color.FgYellow)

			cyan.Fprint(w, banner)
			fmt.Fprintln(w)
			green.Fprint(w, "  API:      ")
			fmt.Fprintln(w, a.API.BaseURL())
			green.Fprint(w, "  Storage:  ")
			fmt.Fprintln(w, a.Config.Storage.Driver)

			snap := a.Session.Snapshot()
			if snap.State == session.Authenticated && snap.User != nil {
				green.Fprint(w, "  Identity: ")
				fmt.Fprintf(w, "%s (%s)\n", snap.User.Username, orDash(snap.User.Role))
			} else {
				yellow.Fprint(w, "  Identity: ")
				fmt.Fprintln(w, "(not logged in)")
			}
			fmt.Fprintln(w)
			return nil
		},
	}
}
