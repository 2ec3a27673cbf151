// ABOUTME: Route guard deciding which screen a path resolves to for a session state
// ABOUTME: Pending shows loading, anonymous sees only login, authenticated sees the full table

package route

import (
	"fmt"
	"strings"

	"github.com/2389/sgu-admin/internal/session"
)

// Route names.
const (
	Dashboard     = "dashboard"
	Products      = "products"
	AddProduct    = "add-product"
	EditProduct   = "edit-product"
	ProductDetail = "product-details"
	Settings      = "settings"
	Inquiries     = "inquiries"
	Applications  = "applications"
	Login         = "login"
)

// Well-known paths.
const (
	RootPath  = "/"
	LoginPath = "/login"
)

// Kind is the outcome of resolving a path.
type Kind int

const (
	// Loading means the session is unresolved and nothing may render yet.
	Loading Kind = iota
	// Match means Route should be shown.
	Match
	// Redirect means the caller should navigate to Redirect and resolve again.
	Redirect
)

func (k Kind) String() string {
	switch k {
	case Loading:
		return "loading"
	case Match:
		return "match"
	case Redirect:
		return "redirect"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Route is one entry of the route table.
type Route struct {
	Name    string
	Pattern string
	Title   string
}

// Decision is the guard's answer for a (state, path) pair.
type Decision struct {
	Kind     Kind
	Route    Route
	Params   map[string]string
	Redirect string
}

// Param returns a path parameter, or "" if absent.
func (d Decision) Param(name string) string {
	return d.Params[name]
}

// Table is the authenticated route table.
var Table = []Route{
	{Name: Dashboard, Pattern: "/", Title: "Dashboard"},
	{Name: Products, Pattern: "/products", Title: "Products"},
	{Name: AddProduct, Pattern: "/add-product", Title: "Add Product"},
	{Name: EditProduct, Pattern: "/edit-product/:id", Title: "Edit Product"},
	{Name: ProductDetail, Pattern: "/product-details/:id", Title: "Product Details"},
	{Name: Settings, Pattern: "/settings", Title: "Settings"},
	{Name: Inquiries, Pattern: "/inquiries", Title: "Inquiries"},
	{Name: Applications, Pattern: "/applications", Title: "Job Applications"},
}

var loginRoute = Route{Name: Login, Pattern: LoginPath, Title: "Login"}

// Guard resolves paths against the route table for a session state.
type Guard struct {
	routes []Route
}

// NewGuard returns a Guard over Table.
func NewGuard() *Guard {
	return &Guard{routes: Table}
}

// Routes returns the authenticated route table.
func (g *Guard) Routes() []Route {
	out := make([]Route, len(g.routes))
	copy(out, g.routes)
	return out
}

// Resolve decides what path shows for state.
func (g *Guard) Resolve(state session.State, path string) Decision {
	path = Clean(path)

	switch state {
	case session.Anonymous:
		if path == LoginPath {
			return Decision{Kind: Match, Route: loginRoute}
		}
		return Decision{Kind: Redirect, Redirect: LoginPath}

	case session.Authenticated:
		if path == LoginPath {
			return Decision{Kind: Redirect, Redirect: RootPath}
		}
		for _, r := range g.routes {
			if params, ok := match(r.Pattern, path); ok {
				return Decision{Kind: Match, Route: r, Params: params}
			}
		}
		return Decision{Kind: Redirect, Redirect: RootPath}

	default:
		return Decision{Kind: Loading}
	}
}

// Follow resolves path, following at most one redirect, and returns the final
// decision along with the path it settled on.
func (g *Guard) Follow(state session.State, path string) (Decision, string) {
	d := g.Resolve(state, path)
	if d.Kind != Redirect {
		return d, Clean(path)
	}
	target := d.Redirect
	return g.Resolve(state, target), target
}

// Path builds a concrete path from a route name and parameter values in order.
func Path(name string, args ...any) (string, error) {
	for _, r := range append(Table[:len(Table):len(Table)], loginRoute) {
		if r.Name != name {
			continue
		}
		segs := split(r.Pattern)
		i := 0
		for j, s := range segs {
			if strings.HasPrefix(s, ":") {
				if i >= len(args) {
					return "", fmt.Errorf("route %s: missing %s", name, s[1:])
				}
				segs[j] = fmt.Sprint(args[i])
				i++
			}
		}
		return "/" + strings.Join(segs, "/"), nil
	}
	return "", fmt.Errorf("unknown route %q", name)
}

// Clean normalizes a path: leading slash, no trailing slash, no empty segments.
func Clean(path string) string {
	segs := split(path)
	if len(segs) == 0 {
		return RootPath
	}
	return "/" + strings.Join(segs, "/")
}

func split(path string) []string {
	var segs []string
	for _, s := range strings.Split(path, "/") {
		if s != "" {
			segs = append(segs, s)
		}
	}
	return segs
}

func match(pattern, path string) (map[string]string, bool) {
	ps, xs := split(pattern), split(path)
	if len(ps) != len(xs) {
		return nil, false
	}
	var params map[string]string
	for i, p := range ps {
		if strings.HasPrefix(p, ":") {
			if params == nil {
				params = make(map[string]string)
			}
			params[p[1:]] = xs[i]
			continue
		}
		if p != xs[i] {
			return nil, false
		}
	}
	return params, true
}
