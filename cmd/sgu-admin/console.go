// ABOUTME: Interactive console: one long-lived app scope with a screen per route
// ABOUTME: Notifications print as they appear; a forced logout returns the console to login

package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/2389/sgu-admin/internal/api"
	"github.com/2389/sgu-admin/internal/app"
	"github.com/2389/sgu-admin/internal/catalog"
	"github.com/2389/sgu-admin/internal/inbox"
	"github.com/2389/sgu-admin/internal/notify"
	"github.com/2389/sgu-admin/internal/route"
	"github.com/2389/sgu-admin/internal/session"
	"github.com/2389/sgu-admin/internal/sitesettings"
)

var errUnknownCommand = errors.New("unknown command (try /help)")

// syncWriter serializes writes from the input loop and the watchers.
type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *syncWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}

// console is the interactive session. Exactly one screen is mounted at a time.
type console struct {
	a       *app.App
	in      io.Reader
	scanner *bufio.Scanner
	out     io.Writer

	path    string
	wanted  string
	state   session.State
	route   route.Route
	params  map[string]string
	search  string
	viewCtx context.Context
	unmount func()

	dash     *catalog.Dashboard
	list     *catalog.ListView
	detail   *catalog.DetailView
	form     *catalog.Form
	inbox    *inbox.View
	settings *sitesettings.View
}

func (c *cli) consoleCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "console",
		Aliases: []string{"ui"},
		Short:   "Interactive console with screens for every admin page",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a, err := c.open(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			con := newConsole(a, cmd.InOrStdin(), cmd.OutOrStdout())
			return con.run(ctx)
		},
	}
}

func newConsole(a *app.App, in io.Reader, out io.Writer) *console {
	return &console{
		a:       a,
		in:      in,
		scanner: bufio.NewScanner(in),
		out:     &syncWriter{w: out},
		unmount: func() {},
	}
}

func (con *console) run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer func() { con.unmount() }()
	con.viewCtx = ctx

	go con.printNotifications(ctx)
	go con.watchSession(ctx)

	color.New(color.FgCyan).Fprint(con.out, banner)
	fmt.Fprintf(con.out, "Connected to %s. /help for commands, /quit to exit.\n", con.a.API.BaseURL())

	con.navigate(ctx, route.RootPath)

	for {
		fmt.Fprintf(con.out, "%s> ", con.path)

		input, err := con.readLine(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, context.Canceled) {
				fmt.Fprintln(con.out, "\nGoodbye!")
				return nil
			}
			return fmt.Errorf("reading input: %w", err)
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		if input == "/quit" || input == "/exit" || input == "/q" {
			fmt.Fprintln(con.out, "Goodbye!")
			return nil
		}

		if err := con.dispatch(ctx, input); err != nil {
			con.reportError(err)
		}

		// A 401 anywhere tears the screen down; show whatever the guard allows now.
		if con.a.Session.Snapshot().State != con.state {
			con.navigate(ctx, con.path)
		}
	}
}

// readLine reads one line, returning early when ctx is done.
func (con *console) readLine(ctx context.Context) (string, error) {
	inputCh := make(chan string, 1)
	errCh := make(chan error, 1)
	go func() {
		if con.scanner.Scan() {
			inputCh <- con.scanner.Text()
			return
		}
		if err := con.scanner.Err(); err != nil {
			errCh <- err
			return
		}
		errCh <- io.EOF
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case err := <-errCh:
		return "", err
	case line := <-inputCh:
		return line, nil
	}
}

// readSecret reads without echo when input is a terminal.
func (con *console) readSecret(ctx context.Context, label string) (string, error) {
	fmt.Fprint(con.out, label)
	if f, ok := con.in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(con.out)
		return string(b), err
	}
	return con.readLine(ctx)
}

func (con *console) printNotifications(ctx context.Context) {
	var last string
	for n := range con.a.Notify.Subscribe(ctx) {
		if !n.Visible || n.ID == last {
			continue
		}
		last = n.ID
		printNotification(con.out, n)
	}
}

func (con *console) watchSession(ctx context.Context) {
	prev := con.a.Session.Snapshot().State
	for snap := range con.a.Session.Watch(ctx) {
		if prev == session.Authenticated && snap.State == session.Anonymous {
			color.New(color.FgYellow).Fprintln(con.out, "\nSigned out. Log in again with /login <username>.")
		}
		prev = snap.State
	}
}

// reportError prints err unless the screen already showed it as a notification.
func (con *console) reportError(err error) {
	if errors.Is(err, api.ErrUnauthorized) || errors.Is(err, context.Canceled) {
		return
	}
	var apiErr *api.Error
	if errors.As(err, &apiErr) {
		n := con.a.Notify.Current()
		if n.Visible && n.Kind == notify.KindError && strings.Contains(n.Message, err.Error()) {
			return
		}
	}
	color.New(color.FgRed).Fprintf(con.out, "[error] %v\n", err)
}

// navigate unmounts the current screen, resolves path through the guard and
// mounts whatever it settles on.
func (con *console) navigate(ctx context.Context, path string) {
	con.unmount()
	con.dash, con.list, con.detail, con.form, con.inbox, con.settings = nil, nil, nil, nil, nil, nil
	con.search = ""

	con.state = con.a.Session.Snapshot().State
	d, settled := con.a.Navigate(path)
	if d.Kind == route.Loading {
		fmt.Fprintln(con.out, "Loading...")
		return
	}
	if settled == route.LoginPath && route.Clean(path) != route.LoginPath {
		con.wanted = route.Clean(path)
	}

	con.path = settled
	con.route = d.Route
	con.params = d.Params
	con.viewCtx, con.unmount = con.a.Mount(ctx, d.Route.Name)

	if err := con.load(con.viewCtx); err != nil {
		con.reportError(err)
		return
	}
	con.render()
}

// load builds and fills the screen's view.
func (con *console) load(ctx context.Context) error {
	a := con.a
	switch con.route.Name {
	case route.Login:
		return nil
	case route.Dashboard:
		con.dash = catalog.NewDashboard(a.API, a.Logger)
		return con.dash.Load(ctx)
	case route.Products:
		con.list = catalog.NewListView(a.API, a.Notify, a.Logger)
		return con.list.Load(ctx)
	case route.ProductDetail:
		id, err := con.paramID()
		if err != nil {
			return err
		}
		con.detail = catalog.NewDetailView(a.API, a.Notify, a.Logger)
		return con.detail.Load(ctx, id)
	case route.AddProduct, route.EditProduct:
		con.form = catalog.NewForm(a.API, a.Notify, a.Logger)
		if err := con.form.LoadCountries(ctx); err != nil {
			a.Logger.Warn("loading countries", "error", err)
		}
		if con.route.Name == route.EditProduct {
			id, err := con.paramID()
			if err != nil {
				return err
			}
			return con.form.LoadForEdit(ctx, id)
		}
		return nil
	case route.Inquiries, route.Applications:
		kind := inbox.General
		if con.route.Name == route.Applications {
			kind = inbox.Applications
		}
		con.inbox = inbox.New(kind, a.API, a.Notify, a.Logger)
		return con.inbox.Load(ctx)
	case route.Settings:
		con.settings = sitesettings.New(a.API, a.Notify, a.Logger)
		return con.settings.Load(ctx)
	}
	return nil
}

func (con *console) paramID() (int, error) {
	return parseID(con.params["id"])
}

func (con *console) render() {
	w := con.out
	switch {
	case con.route.Name == route.Login:
		heading(w, "Login")
		fmt.Fprintln(w, "  Sign in with /login <username>")
		fmt.Fprintln(w)
	case con.dash != nil:
		printDashboard(w, con.dash)
	case con.list != nil:
		printProducts(w, con.list.Filter(con.search))
	case con.detail != nil:
		if p, ok := con.detail.Product(); ok {
			printProduct(w, p, con.detail.Selected())
		}
	case con.form != nil:
		printForm(w, con.form)
	case con.inbox != nil:
		printInquiries(w, con.route.Title, con.inbox.Search(con.search))
	case con.settings != nil:
		printSettings(w, con.settings)
	}
}

func (con *console) dispatch(ctx context.Context, input string) error {
	name, args, _ := strings.Cut(input, " ")
	args = strings.TrimSpace(args)

	switch name {
	case "/help":
		printConsoleHelp(con.out)
		return nil
	case "/go":
		if args == "" {
			return errors.New("usage: /go <path>")
		}
		con.navigate(ctx, args)
		return nil
	case "/routes":
		for _, r := range con.a.Guard.Routes() {
			fmt.Fprintf(con.out, "  %-22s %s\n", r.Pattern, r.Title)
		}
		return nil
	case "/login":
		return con.login(ctx, args)
	case "/logout":
		con.a.Logout()
		return nil
	case "/refresh", "/r":
		con.navigate(ctx, con.path)
		return nil
	case "/show":
		return con.show(args)
	case "/search":
		if con.list == nil && con.inbox == nil {
			return errors.New("nothing to search on this screen")
		}
		con.search = args
		con.render()
		return nil
	case "/delete":
		return con.delete(ctx, args)
	case "/bestseller":
		return con.bestSeller(args)
	case "/set":
		return con.set(args)
	case "/toggle":
		return con.toggle(args)
	case "/country":
		return con.country(args)
	case "/spec":
		return con.spec(args)
	case "/image":
		return con.image(args)
	case "/save":
		return con.save(ctx)
	}
	return errUnknownCommand
}

func printConsoleHelp(w io.Writer) {
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  /go <path>                 Open a screen (e.g. /products, /product-details/3)")
	fmt.Fprintln(w, "  /routes                    List screens")
	fmt.Fprintln(w, "  /login <username>          Sign in")
	fmt.Fprintln(w, "  /logout                    Sign out")
	fmt.Fprintln(w, "  /refresh                   Reload the current screen")
	fmt.Fprintln(w, "  /search <text>             Filter products or inquiries")
	fmt.Fprintln(w, "  /show <id>                 Show one inquiry")
	fmt.Fprintln(w, "  /delete [id]               Delete a product or inquiry")
	fmt.Fprintln(w, "  /bestseller [id]           Toggle best seller")
	fmt.Fprintln(w, "  /set <field> <value>       Set a form field or site setting")
	fmt.Fprintln(w, "  /toggle <field> <value>    Toggle a tag on a form list field")
	fmt.Fprintln(w, "  /country <text>            Suggest and pick origin countries")
	fmt.Fprintln(w, "  /spec add|set|rm|mv ...    Edit specification rows")
	fmt.Fprintln(w, "  /image add|rm|select ...   Edit or browse the image gallery")
	fmt.Fprintln(w, "  /save                      Submit the product form")
	fmt.Fprintln(w, "  /quit                      Exit")
}

func (con *console) login(ctx context.Context, args string) error {
	if con.state == session.Authenticated {
		return errors.New("already logged in (use /logout first)")
	}
	username, password, _ := strings.Cut(args, " ")
	if username == "" {
		return errors.New("usage: /login <username>")
	}
	if password == "" {
		var err error
		if password, err = con.readSecret(ctx, "Password: "); err != nil {
			return err
		}
	}

	user, err := con.a.Session.Authenticate(ctx, username, strings.TrimSpace(password))
	if err != nil {
		return err
	}
	color.New(color.FgGreen).Fprintf(con.out, "✓ Welcome back, %s!\n", user.Username)

	next := con.wanted
	con.wanted = ""
	if next == "" {
		next = route.RootPath
	}
	con.navigate(ctx, next)
	return nil
}

func (con *console) show(args string) error {
	if con.inbox == nil {
		con.render()
		return nil
	}
	id, err := parseID(args)
	if err != nil {
		return err
	}
	inq, ok := con.inbox.Find(id)
	if !ok {
		return inbox.ErrNotFound
	}
	printInquiry(con.out, inq)
	return nil
}

func (con *console) delete(ctx context.Context, args string) error {
	switch {
	case con.detail != nil:
		if err := con.detail.Delete(con.viewCtx); err != nil {
			return err
		}
		con.navigate(ctx, "/products")
		return nil
	case con.list != nil:
		id, err := parseID(args)
		if err != nil {
			return err
		}
		if err := con.list.Delete(con.viewCtx, id); err != nil {
			return err
		}
	case con.inbox != nil:
		id, err := parseID(args)
		if err != nil {
			return err
		}
		if err := con.inbox.Delete(con.viewCtx, id); err != nil {
			return err
		}
	default:
		return errors.New("nothing to delete on this screen")
	}
	con.render()
	return nil
}

func (con *console) bestSeller(args string) error {
	switch {
	case con.form != nil:
		con.form.SetBestSeller(!con.form.Draft().IsBestSeller)
	case con.list != nil:
		id, err := parseID(args)
		if err != nil {
			return err
		}
		if _, err := con.list.ToggleBestSeller(con.viewCtx, id); err != nil {
			return err
		}
	default:
		return errors.New("no product list or form on this screen")
	}
	con.render()
	return nil
}

// formFields maps short console names to form fields.
var formFields = map[string]catalog.Field{
	"name":           catalog.FieldName,
	"sku":            catalog.FieldSKU,
	"sku_name":       catalog.FieldSKU,
	"overview":       catalog.FieldOverview,
	"applications":   catalog.FieldApplications,
	"country":        catalog.FieldCountry,
	"quality":        catalog.FieldQuality,
	"packaging":      catalog.FieldPackaging,
	"certifications": catalog.FieldCertifications,
	"certification":  catalog.FieldCertifications,
	"category":       catalog.FieldCategory,
}

func lookupField(name string) (catalog.Field, error) {
	if f, ok := formFields[name]; ok {
		return f, nil
	}
	if f, ok := formFields[strings.TrimPrefix(name, "product_")]; ok {
		return f, nil
	}
	return "", fmt.Errorf("unknown field %q", name)
}

func (con *console) set(args string) error {
	key, value, _ := strings.Cut(args, " ")
	value = strings.TrimSpace(value)
	switch {
	case con.settings != nil:
		if err := con.settings.Set(con.viewCtx, key, value); err != nil {
			return err
		}
	case con.form != nil:
		field, err := lookupField(key)
		if err != nil {
			return err
		}
		if err := con.form.Set(field, value); err != nil {
			return err
		}
	default:
		return errors.New("nothing to set on this screen")
	}
	con.render()
	return nil
}

func (con *console) toggle(args string) error {
	if con.form == nil {
		return errors.New("no product form on this screen")
	}
	key, value, _ := strings.Cut(args, " ")
	field, err := lookupField(key)
	if err != nil {
		return err
	}
	value = strings.TrimSpace(value)
	if opts := catalog.Options(field); opts != nil {
		option, ok := matchFold(opts, value)
		if !ok {
			return fmt.Errorf("%q is not one of: %s", value, strings.Join(opts, ", "))
		}
		value = option
	}
	if err := con.form.Toggle(field, value); err != nil {
		return err
	}
	con.render()
	return nil
}

// matchFold returns the item equal to v ignoring case.
func matchFold(items []string, v string) (string, bool) {
	for _, item := range items {
		if strings.EqualFold(item, v) {
			return item, true
		}
	}
	return "", false
}

// country lists suggestions for the trailing segment of input and applies
// the suggestion when there is exactly one.
func (con *console) country(input string) error {
	if con.form == nil {
		return errors.New("no product form on this screen")
	}
	suggestions := con.form.Suggest(input)
	switch len(suggestions) {
	case 0:
		fmt.Fprintln(con.out, "  (no matching countries)")
	case 1:
		text := con.form.SelectSuggestion(input, suggestions[0])
		fmt.Fprintf(con.out, "  country_of_origin: %s\n", text)
	default:
		for _, s := range suggestions {
			fmt.Fprintf(con.out, "  %s\n", s)
		}
	}
	return nil
}

// index parses a 1-based row number.
func index(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 {
		return 0, fmt.Errorf("invalid row %q", s)
	}
	return n - 1, nil
}

func (con *console) spec(args string) error {
	if con.form == nil {
		return errors.New("no product form on this screen")
	}
	op, rest, _ := strings.Cut(args, " ")
	rest = strings.TrimSpace(rest)

	var err error
	switch op {
	case "add":
		name, value, _ := strings.Cut(rest, ":")
		con.form.AddSpec(strings.TrimSpace(name), strings.TrimSpace(value))
	case "set":
		row, spec, _ := strings.Cut(rest, " ")
		var i int
		if i, err = index(row); err == nil {
			name, value, _ := strings.Cut(spec, ":")
			err = con.form.SetSpec(i, strings.TrimSpace(name), strings.TrimSpace(value))
		}
	case "rm":
		var i int
		if i, err = index(rest); err == nil {
			err = con.form.RemoveSpec(i)
		}
	case "mv":
		from, to, _ := strings.Cut(rest, " ")
		var i, j int
		if i, err = index(from); err == nil {
			if j, err = index(to); err == nil {
				err = con.form.MoveSpec(i, j)
			}
		}
	default:
		return errors.New("usage: /spec add <name>: <value> | set <n> <name>: <value> | rm <n> | mv <n> <m>")
	}
	if err != nil {
		return err
	}
	con.render()
	return nil
}

func (con *console) image(args string) error {
	op, rest, _ := strings.Cut(args, " ")
	rest = strings.TrimSpace(rest)

	if con.detail != nil && op == "select" {
		i, err := index(rest)
		if err != nil {
			return err
		}
		if err := con.detail.SelectImage(i); err != nil {
			return err
		}
		con.render()
		return nil
	}
	if con.form == nil {
		return errors.New("no product form on this screen")
	}

	var err error
	switch op {
	case "add":
		err = addImage(con.viewCtx, con.form, rest)
	case "rm":
		var i int
		if i, err = index(rest); err == nil {
			err = con.form.RemoveImage(i)
		}
	default:
		return errors.New("usage: /image add <url|file> | rm <n> | select <n>")
	}
	if err != nil {
		return err
	}
	con.render()
	return nil
}

func (con *console) save(ctx context.Context) error {
	if con.form == nil {
		return errors.New("no product form on this screen")
	}
	if _, err := con.form.Submit(con.viewCtx); err != nil {
		return err
	}
	con.navigate(ctx, "/products")
	return nil
}
