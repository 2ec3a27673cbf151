// ABOUTME: Tests for the application scope
// ABOUTME: Covers wiring, forced logout on 401, view mounting and teardown

package app

import (
	"bytes"
	"context"
	"log/slog"
	"net/http/httptest"
	"testing"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/sgu-admin/internal/config"
	"github.com/2389/sgu-admin/internal/fakeapi"
	"github.com/2389/sgu-admin/internal/route"
	"github.com/2389/sgu-admin/internal/session"
	"github.com/2389/sgu-admin/internal/storage"
)

func newTestApp(t *testing.T, opts ...Option) (*App, *fakeapi.Server) {
	t.Helper()
	t.Setenv("SGU_TOKEN", "")

	fake := fakeapi.New()
	fake.AddUser("admin", "secret", "admin")
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	cfg := config.Default()
	cfg.API.Host = "localhost"
	cfg.API.LocalURL = srv.URL
	cfg.Storage = config.StorageConfig{Driver: config.DriverMemory}

	a, err := New(cfg, append([]Option{WithClock(clock.NewMock())}, opts...)...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	return a, fake
}

func TestApp_StartWithoutToken(t *testing.T) {
	a, _ := newTestApp(t)

	snap := a.Start(context.Background())
	assert.Equal(t, session.Anonymous, snap.State)

	d, path := a.Navigate("/products")
	assert.Equal(t, route.Login, d.Route.Name)
	assert.Equal(t, route.LoginPath, path)
}

func TestApp_NavigateWhilePending(t *testing.T) {
	a, _ := newTestApp(t)
	d, _ := a.Navigate("/products")
	assert.Equal(t, route.Loading, d.Kind)
}

func TestApp_StartWithStoredToken(t *testing.T) {
	a, fake := newTestApp(t)
	require.NoError(t, a.Store.Set(context.Background(), storage.TokenKey, fake.IssueToken("admin")))

	snap := a.Start(context.Background())
	require.Equal(t, session.Authenticated, snap.State)
	assert.Equal(t, "admin", snap.User.Username)

	d, _ := a.Navigate("/edit-product/3")
	assert.Equal(t, route.EditProduct, d.Route.Name)
	assert.Equal(t, "3", d.Param("id"))
}

func TestApp_UnauthorizedForcesLogout(t *testing.T) {
	a, fake := newTestApp(t)
	token := fake.IssueToken("admin")
	require.NoError(t, a.Store.Set(context.Background(), storage.TokenKey, token))
	require.Equal(t, session.Authenticated, a.Start(context.Background()).State)

	viewCtx, unmount := a.Mount(context.Background(), "products")
	defer unmount()

	fake.Revoke(token)
	_, err := a.API.ListProducts(viewCtx)
	require.Error(t, err)

	assert.Equal(t, session.Anonymous, a.Session.Snapshot().State)
	assert.Error(t, viewCtx.Err(), "mounted views are torn down")
	assert.Zero(t, a.Mounted())

	_, err = a.Store.Get(context.Background(), storage.TokenKey)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	d, path := a.Navigate("/products")
	assert.Equal(t, route.Login, d.Route.Name)
	assert.Equal(t, route.LoginPath, path)
}

func TestApp_ForcedLogoutWarnsAboutEnvironmentToken(t *testing.T) {
	for _, fromEnv := range []bool{true, false} {
		t.Run(map[bool]string{true: "env token", false: "stored token"}[fromEnv], func(t *testing.T) {
			var logs bytes.Buffer
			logger := slog.New(slog.NewTextHandler(&logs, nil))
			a, fake := newTestApp(t, WithLogger(logger))
			token := fake.IssueToken("admin")
			if fromEnv {
				t.Setenv("SGU_TOKEN", token)
			} else {
				require.NoError(t, a.Store.Set(context.Background(), storage.TokenKey, token))
			}
			require.Equal(t, session.Authenticated, a.Start(context.Background()).State)

			fake.Revoke(token)
			_, err := a.API.ListProducts(context.Background())
			require.Error(t, err)
			assert.Equal(t, session.Anonymous, a.Session.Snapshot().State)

			if fromEnv {
				assert.Contains(t, logs.String(), "level=WARN")
				assert.Contains(t, logs.String(), "SGU_TOKEN is still set")
			} else {
				assert.NotContains(t, logs.String(), "SGU_TOKEN")
			}
		})
	}
}

func TestApp_LoginFlow(t *testing.T) {
	a, _ := newTestApp(t)
	a.Start(context.Background())

	d, _ := a.Navigate("/")
	require.Equal(t, route.Login, d.Route.Name)

	_, err := a.Session.Authenticate(context.Background(), "admin", "secret")
	require.NoError(t, err)

	d, path := a.Navigate("/login")
	assert.Equal(t, route.Dashboard, d.Route.Name)
	assert.Equal(t, route.RootPath, path)

	a.Logout()
	assert.Equal(t, session.Anonymous, a.Session.Snapshot().State)
}

func TestApp_MountUnmount(t *testing.T) {
	a, _ := newTestApp(t)

	ctx1, unmount1 := a.Mount(context.Background(), "dashboard")
	ctx2, unmount2 := a.Mount(context.Background(), "settings")
	assert.Equal(t, 2, a.Mounted())

	unmount1()
	unmount1()
	assert.Error(t, ctx1.Err())
	assert.NoError(t, ctx2.Err())
	assert.Equal(t, 1, a.Mounted())

	unmount2()
	assert.Zero(t, a.Mounted())
}

func TestApp_Close(t *testing.T) {
	a, _ := newTestApp(t)

	ctx, _ := a.Mount(context.Background(), "inquiries")
	require.NoError(t, a.Close())
	assert.Error(t, ctx.Err())
	assert.ErrorIs(t, a.Close(), ErrClosed)

	late, unmount := a.Mount(context.Background(), "late")
	defer unmount()
	assert.Error(t, late.Err(), "mounting after close yields a dead context")
}
