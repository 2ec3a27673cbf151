// ABOUTME: Application scope owning config, storage, API client, session and notifications
// ABOUTME: Views mount into it for a cancellable context and everything tears down on Close

package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"

	"github.com/2389/sgu-admin/internal/api"
	"github.com/2389/sgu-admin/internal/config"
	"github.com/2389/sgu-admin/internal/notify"
	"github.com/2389/sgu-admin/internal/route"
	"github.com/2389/sgu-admin/internal/session"
	"github.com/2389/sgu-admin/internal/storage"
)

// ErrClosed is returned by operations on a closed App.
var ErrClosed = errors.New("app closed")

// Option configures New.
type Option func(*options)

type options struct {
	logger     *slog.Logger
	httpClient *http.Client
	store      storage.Store
	clock      clock.Clock
}

// WithLogger sets the root logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithHTTPClient sets the HTTP client used by the API client.
func WithHTTPClient(hc *http.Client) Option {
	return func(o *options) { o.httpClient = hc }
}

// WithStore uses store instead of opening the configured one. The App
// still closes it.
func WithStore(store storage.Store) Option {
	return func(o *options) { o.store = store }
}

// WithClock sets the clock for notification timers.
func WithClock(c clock.Clock) Option {
	return func(o *options) { o.clock = c }
}

// App is the explicit scope every view receives.
type App struct {
	Config  *config.Config
	Logger  *slog.Logger
	Store   storage.Store
	Tokens  *storage.TokenStore
	API     *api.Client
	Session *session.Store
	Notify  *notify.Channel
	Guard   *route.Guard

	mu     sync.Mutex
	views  map[string]*mount
	closed bool
}

type mount struct {
	name   string
	cancel context.CancelFunc
}

// New wires the application scope from cfg.
func New(cfg *config.Config, opts ...Option) (*App, error) {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	if o.clock == nil {
		o.clock = clock.New()
	}

	store := o.store
	if store == nil {
		var err error
		store, err = storage.Open(cfg.Storage)
		if err != nil {
			return nil, fmt.Errorf("opening storage: %w", err)
		}
	}

	a := &App{
		Config: cfg,
		Logger: o.logger,
		Store:  store,
		Tokens: storage.NewTokenStore(store),
		Notify: notify.New(cfg.Notify.HideAfter, notify.WithClock(o.clock), notify.WithLogger(o.logger)),
		Guard:  route.NewGuard(),
		views:  make(map[string]*mount),
	}

	hc := o.httpClient
	if hc == nil {
		hc = &http.Client{Timeout: cfg.API.Timeout}
	}
	a.API = api.New(cfg.BaseURL(), a.Tokens,
		api.WithHTTPClient(hc),
		api.WithLogger(o.logger),
		api.WithUnauthorizedHandler(a.forceLogout),
	)
	a.Session = session.New(a.API, a.Tokens, o.logger)

	o.logger.Debug("app initialized", "base_url", a.API.BaseURL(), "storage", cfg.Storage.Driver)
	return a, nil
}

// Start resolves the stored session.
func (a *App) Start(ctx context.Context) session.Session {
	return a.Session.Resolve(ctx)
}

// Navigate resolves path for the current session state, following a
// redirect, and returns the decision with the path it settled on.
func (a *App) Navigate(path string) (route.Decision, string) {
	return a.Guard.Follow(a.Session.Snapshot().State, path)
}

// Mount registers a view and returns its context, derived from parent. The
// context is cancelled when unmount is called, on a forced logout, or when
// the App closes. Views drop results that arrive after their context is done.
func (a *App) Mount(parent context.Context, name string) (context.Context, func()) {
	ctx, cancel := context.WithCancel(parent)

	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		cancel()
		return ctx, func() {}
	}
	id := uuid.New().String()
	a.views[id] = &mount{name: name, cancel: cancel}
	a.mu.Unlock()

	a.Logger.Debug("view mounted", "view", name, "id", id)

	var once sync.Once
	return ctx, func() {
		once.Do(func() {
			a.mu.Lock()
			delete(a.views, id)
			a.mu.Unlock()
			cancel()
			a.Logger.Debug("view unmounted", "view", name, "id", id)
		})
	}
}

// Mounted returns the number of mounted views.
func (a *App) Mounted() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.views)
}

// Logout ends the session at the operator's request.
func (a *App) Logout() {
	a.Session.Logout()
	a.unmountAll()
}

// forceLogout runs after any request observed a 401. It is a full navigation
// to the login screen: every mounted view is torn down.
func (a *App) forceLogout() {
	a.Session.ForceLogout()
	a.unmountAll()
	if a.Tokens != nil && a.Tokens.FromEnv() {
		a.Logger.Warn("token was rejected but SGU_TOKEN is still set and will be sent with every request; unset it to log out")
	}
}

func (a *App) unmountAll() {
	a.mu.Lock()
	views := a.views
	a.views = make(map[string]*mount)
	a.mu.Unlock()

	for _, m := range views {
		m.cancel()
	}
}

// Close tears down every view, the notification channel and storage.
func (a *App) Close() error {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return ErrClosed
	}
	a.closed = true
	a.mu.Unlock()

	a.unmountAll()
	a.Notify.Close()
	if err := a.Store.Close(); err != nil {
		return fmt.Errorf("closing storage: %w", err)
	}
	return nil
}
