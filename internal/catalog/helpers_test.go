// ABOUTME: Shared fixtures for catalog view tests
// ABOUTME: Real request layer against the fake API plus a mock-clock notifier

package catalog

import (
	"net/http/httptest"
	"testing"

	"github.com/benbjohnson/clock"

	"github.com/2389/sgu-admin/internal/api"
	"github.com/2389/sgu-admin/internal/fakeapi"
	"github.com/2389/sgu-admin/internal/notify"
)

type tokenCell struct{ token string }

func (c *tokenCell) Token() (string, error) { return c.token, nil }
func (c *tokenCell) ClearToken() error      { c.token = ""; return nil }

type env struct {
	fake         *fakeapi.Server
	client       *api.Client
	notes        *notify.Channel
	tokens       *tokenCell
	unauthorized int
}

func newEnv(t *testing.T) *env {
	t.Helper()
	fake := fakeapi.New()
	fake.AddUser("admin", "secret", "admin")
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	e := &env{
		fake:   fake,
		notes:  notify.New(notify.DefaultHideAfter, notify.WithClock(clock.NewMock())),
		tokens: &tokenCell{token: fake.IssueToken("admin")},
	}
	t.Cleanup(e.notes.Close)
	e.client = api.New(srv.URL, e.tokens, api.WithUnauthorizedHandler(func() { e.unauthorized++ }))
	return e
}

func seedProducts(e *env) []api.Product {
	return []api.Product{
		e.fake.AddProduct(api.Product{Name: "Xanthan Gum", SKU: "XG-80", Categories: api.List{"Stabilizers & Emulsifiers"}}),
		e.fake.AddProduct(api.Product{Name: "Whey Protein", SKU: "WPC-80", Categories: api.List{"Dairy", "Nutritional"}, IsBestSeller: true}),
		e.fake.AddProduct(api.Product{Name: "Cocoa Powder", SKU: "CP-10", Categories: api.List{"Bakery"}}),
	}
}
