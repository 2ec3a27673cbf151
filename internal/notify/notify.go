// ABOUTME: Single-slot transient notification channel with an auto-hide timer
// ABOUTME: Latest message wins; subscribers receive snapshots without blocking writers

package notify

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
)

// DefaultHideAfter is how long a message stays visible.
const DefaultHideAfter = 4 * time.Second

// Kind distinguishes success from error messages.
type Kind string

const (
	KindSuccess Kind = "success"
	KindError   Kind = "error"
)

// Notification is the content of the slot.
type Notification struct {
	ID      string
	Message string
	Kind    Kind
	Visible bool
}

// Option configures a Channel.
type Option func(*Channel)

// WithClock sets the clock driving the hide timer.
func WithClock(c clock.Clock) Option {
	return func(ch *Channel) { ch.clock = c }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(ch *Channel) { ch.logger = l }
}

// Channel is the process-wide message slot. Any view writes to it, one
// display reads from it via Subscribe.
type Channel struct {
	mu        sync.Mutex
	clock     clock.Clock
	logger    *slog.Logger
	hideAfter time.Duration
	current   Notification
	timer     *clock.Timer
	subs      map[string]chan Notification
	closed    bool
}

// New creates a Channel. A non-positive hideAfter uses DefaultHideAfter.
func New(hideAfter time.Duration, opts ...Option) *Channel {
	if hideAfter <= 0 {
		hideAfter = DefaultHideAfter
	}
	ch := &Channel{
		clock:     clock.New(),
		logger:    slog.Default(),
		hideAfter: hideAfter,
		subs:      make(map[string]chan Notification),
	}
	for _, opt := range opts {
		opt(ch)
	}
	ch.logger = ch.logger.With("component", "notify")
	return ch
}

// Success shows a success message.
func (c *Channel) Success(msg string) Notification { return c.Show(msg, KindSuccess) }

// Error shows an error message.
func (c *Channel) Error(msg string) Notification { return c.Show(msg, KindError) }

// Show replaces the slot with msg and restarts the hide timer.
func (c *Channel) Show(msg string, kind Kind) Notification {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return c.current
	}

	if c.timer != nil {
		c.timer.Stop()
	}

	n := Notification{
		ID:      uuid.New().String(),
		Message: msg,
		Kind:    kind,
		Visible: true,
	}
	c.current = n
	c.timer = c.clock.AfterFunc(c.hideAfter, func() { c.hide(n.ID) })

	c.logger.Debug("notification shown", "id", n.ID, "kind", kind, "message", msg)
	c.publishLocked()
	return n
}

// Dismiss hides the current message immediately.
func (c *Channel) Dismiss() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || !c.current.Visible {
		return
	}
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.current.Visible = false
	c.publishLocked()
}

// Current returns the slot contents.
func (c *Channel) Current() Notification {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// Subscribe returns a channel receiving every slot change until ctx is done
// or the Channel is closed. Only the latest unread snapshot is kept.
func (c *Channel) Subscribe(ctx context.Context) <-chan Notification {
	id := uuid.New().String()
	out := make(chan Notification, 1)

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		close(out)
		return out
	}
	c.subs[id] = out
	c.mu.Unlock()

	go func() {
		<-ctx.Done()
		c.mu.Lock()
		defer c.mu.Unlock()
		if sub, ok := c.subs[id]; ok {
			delete(c.subs, id)
			close(sub)
		}
	}()

	return out
}

// Close stops the pending timer and closes every subscription.
func (c *Channel) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	for id, sub := range c.subs {
		delete(c.subs, id)
		close(sub)
	}
}

// hide runs from the timer. A timer that lost the race with a newer Show
// finds a different ID in the slot and does nothing.
func (c *Channel) hide(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || c.current.ID != id || !c.current.Visible {
		return
	}
	c.current.Visible = false
	c.timer = nil
	c.publishLocked()
}

func (c *Channel) publishLocked() {
	for _, sub := range c.subs {
		select {
		case <-sub:
		default:
		}
		select {
		case sub <- c.current:
		default:
		}
	}
}
