// ABOUTME: Session store tracking the bearer token and resolved user identity
// ABOUTME: Three-state machine (pending, authenticated, anonymous) with change watchers

package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/2389/sgu-admin/internal/api"
)

// ErrNotAuthenticated is returned by operations that need a verified session.
var ErrNotAuthenticated = errors.New("not authenticated")

// watcherBufferSize is the channel buffer for each watcher.
const watcherBufferSize = 4

// State is the session resolution state.
type State int

const (
	// Pending means the stored token has not been checked yet.
	Pending State = iota
	// Authenticated means a token is held and its identity was fetched.
	Authenticated
	// Anonymous means there is no usable token.
	Anonymous
)

func (s State) String() string {
	switch s {
	case Pending:
		return "pending"
	case Authenticated:
		return "authenticated"
	case Anonymous:
		return "anonymous"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Session is a point-in-time copy of the store.
type Session struct {
	Token string
	User  *api.User
	State State
}

// Resolved reports whether the session has left Pending.
func (s Session) Resolved() bool { return s.State != Pending }

// Verifier exchanges credentials and verifies tokens against the API.
type Verifier interface {
	Login(ctx context.Context, username, password string) (*api.Token, error)
	MeWithToken(ctx context.Context, token string) (*api.User, error)
}

// Tokens is the durable token cell.
type Tokens interface {
	Token() (string, error)
	SetToken(token string) error
	ClearToken() error
}

// Store holds the current session. The zero value is not usable; call New.
type Store struct {
	mu       sync.Mutex
	api      Verifier
	tokens   Tokens
	logger   *slog.Logger
	now      func() time.Time
	state    State
	token    string
	user     *api.User
	watchers map[string]chan Session
}

// New creates a Store in the Pending state. Pass nil logger for default.
func New(verifier Verifier, tokens Tokens, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		api:      verifier,
		tokens:   tokens,
		logger:   logger.With("component", "session"),
		now:      time.Now,
		state:    Pending,
		watchers: make(map[string]chan Session),
	}
}

// Snapshot returns the current session.
func (s *Store) Snapshot() Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() Session {
	var user *api.User
	if s.user != nil {
		u := *s.user
		user = &u
	}
	return Session{Token: s.token, User: user, State: s.state}
}

// Resolve verifies the stored token. With no token the session becomes
// Anonymous immediately. A JWT whose exp has already passed is discarded
// without a network call. Otherwise the current-user endpoint decides:
// success is Authenticated, any failure clears the token and is Anonymous.
func (s *Store) Resolve(ctx context.Context) Session {
	s.set(Pending, "", nil)

	token, err := s.tokens.Token()
	if err != nil {
		s.logger.Warn("reading stored token", "error", err)
	}
	if token == "" {
		return s.set(Anonymous, "", nil)
	}

	if expired(token, s.now()) {
		s.logger.Info("stored token expired, discarding")
		s.clearToken()
		return s.set(Anonymous, "", nil)
	}

	user, err := s.api.MeWithToken(ctx, token)
	if err != nil {
		s.logger.Info("stored token rejected", "error", err)
		s.clearToken()
		return s.set(Anonymous, "", nil)
	}

	return s.set(Authenticated, token, user)
}

// Login persists token and marks the session Authenticated as user.
func (s *Store) Login(token string, user api.User) error {
	if token == "" {
		return fmt.Errorf("login: empty token")
	}
	if err := s.tokens.SetToken(token); err != nil {
		return fmt.Errorf("login: %w", err)
	}
	s.set(Authenticated, token, &user)
	s.logger.Info("logged in", "username", user.Username)
	return nil
}

// Authenticate performs the credential exchange: obtain a token, fetch the
// identity behind it, then Login. The session is untouched on failure.
func (s *Store) Authenticate(ctx context.Context, username, password string) (*api.User, error) {
	tok, err := s.api.Login(ctx, username, password)
	if err != nil {
		return nil, err
	}
	user, err := s.api.MeWithToken(ctx, tok.AccessToken)
	if err != nil {
		return nil, err
	}
	if err := s.Login(tok.AccessToken, *user); err != nil {
		return nil, err
	}
	return user, nil
}

// Logout clears the persisted token and makes the session Anonymous.
func (s *Store) Logout() {
	s.clearToken()
	s.set(Anonymous, "", nil)
	s.logger.Info("logged out")
}

// ForceLogout is the global unauthorized path, run whenever any request is
// rejected with 401 regardless of which view issued it.
func (s *Store) ForceLogout() {
	s.clearToken()
	s.set(Anonymous, "", nil)
	s.logger.Warn("session expired, login required")
}

// User returns the authenticated identity or ErrNotAuthenticated.
func (s *Store) User() (api.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != Authenticated || s.user == nil {
		return api.User{}, ErrNotAuthenticated
	}
	return *s.user, nil
}

// Watch returns a channel receiving every session change until ctx is done.
// A slow watcher loses the oldest pending changes, never the latest.
func (s *Store) Watch(ctx context.Context) <-chan Session {
	id := uuid.New().String()
	ch := make(chan Session, watcherBufferSize)

	s.mu.Lock()
	s.watchers[id] = ch
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		s.mu.Lock()
		delete(s.watchers, id)
		s.mu.Unlock()
		close(ch)
	}()

	return ch
}

func (s *Store) set(state State, token string, user *api.User) Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	// user is only ever held alongside a verified token
	if token == "" {
		user = nil
	}
	s.state = state
	s.token = token
	s.user = user

	snap := s.snapshotLocked()
	for _, ch := range s.watchers {
		deliver(ch, snap)
	}
	return snap
}

// deliver pushes snap without blocking, dropping the oldest queued value if full.
func deliver(ch chan Session, snap Session) {
	for {
		select {
		case ch <- snap:
			return
		default:
		}
		select {
		case <-ch:
		default:
		}
	}
}

func (s *Store) clearToken() {
	if err := s.tokens.ClearToken(); err != nil {
		s.logger.Warn("clearing token", "error", err)
	}
}

// expired reports whether token is a JWT whose exp claim is before now.
// Opaque tokens are never considered expired here.
func expired(token string, now time.Time) bool {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return !exp.After(now)
}
