// ABOUTME: Inquiry inbox views split by subject into general inquiries and job applications
// ABOUTME: Deletes remove an entry locally only after the server confirms

package inbox

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/2389/sgu-admin/internal/api"
	"github.com/2389/sgu-admin/internal/notify"
)

// ErrNotFound means the inquiry is not in the view.
var ErrNotFound = errors.New("inquiry not found")

// Kind selects which inquiries a View holds.
type Kind int

const (
	// General is every inquiry that is not a job application.
	General Kind = iota
	// Applications is inquiries whose subject marks a job application.
	Applications
)

func (k Kind) String() string {
	switch k {
	case General:
		return "inquiries"
	case Applications:
		return "applications"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// noun is used in notification text.
func (k Kind) noun() string {
	if k == Applications {
		return "Application"
	}
	return "Inquiry"
}

// Includes reports whether inq belongs to this kind.
func (k Kind) Includes(inq api.Inquiry) bool {
	if k == Applications {
		return inq.IsJobApplication()
	}
	return !inq.IsJobApplication()
}

// API is the request layer surface the inbox needs.
type API interface {
	ListInquiries(ctx context.Context) ([]api.Inquiry, error)
	DeleteInquiry(ctx context.Context, id int) error
}

// Notifier receives transient messages.
type Notifier interface {
	Success(msg string) notify.Notification
	Error(msg string) notify.Notification
}

// View is one inbox screen.
type View struct {
	kind   Kind
	api    API
	notify Notifier
	logger *slog.Logger

	mu        sync.Mutex
	inquiries []api.Inquiry
	loaded    bool
}

// New creates a View for kind.
func New(kind Kind, client API, n Notifier, logger *slog.Logger) *View {
	if logger == nil {
		logger = slog.Default()
	}
	return &View{
		kind:   kind,
		api:    client,
		notify: n,
		logger: logger.With("component", "inbox", "kind", kind.String()),
	}
}

// Kind returns the view's kind.
func (v *View) Kind() Kind { return v.kind }

// Load fetches every inquiry and keeps those of the view's kind, newest first.
// Entries whose timestamp does not parse follow in server order.
func (v *View) Load(ctx context.Context) error {
	all, err := v.api.ListInquiries(ctx)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	if err != nil {
		v.logger.Error("failed to fetch inquiries", "error", err)
		return err
	}

	var kept []api.Inquiry
	for _, inq := range all {
		if v.kind.Includes(inq) {
			kept = append(kept, inq)
		}
	}
	sort.SliceStable(kept, func(i, j int) bool {
		ti, okI := kept[i].Created()
		tj, okJ := kept[j].Created()
		if okI != okJ {
			// Unparsable timestamps sort last.
			return okI
		}
		return okI && ti.After(tj)
	})

	v.mu.Lock()
	v.inquiries = kept
	v.loaded = true
	v.mu.Unlock()
	return nil
}

// Loaded reports whether Load has succeeded.
func (v *View) Loaded() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.loaded
}

// Inquiries returns the held inquiries.
func (v *View) Inquiries() []api.Inquiry {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]api.Inquiry(nil), v.inquiries...)
}

// Search returns inquiries whose sender, email, subject or message contain
// query, ignoring case.
func (v *View) Search(query string) []api.Inquiry {
	all := v.Inquiries()
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return all
	}
	var out []api.Inquiry
	for _, inq := range all {
		hay := strings.ToLower(strings.Join([]string{inq.Name, inq.Email, inq.Subject, inq.Message}, "\n"))
		if strings.Contains(hay, q) {
			out = append(out, inq)
		}
	}
	return out
}

// Find returns inquiry id.
func (v *View) Find(id int) (api.Inquiry, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	for _, inq := range v.inquiries {
		if inq.ID == id {
			return inq, true
		}
	}
	return api.Inquiry{}, false
}

// Delete removes inquiry id on the server, then locally.
func (v *View) Delete(ctx context.Context, id int) error {
	if _, ok := v.Find(id); !ok {
		return ErrNotFound
	}

	if err := v.api.DeleteInquiry(ctx, id); err != nil {
		if ctx.Err() == nil && !errors.Is(err, api.ErrUnauthorized) && v.notify != nil {
			v.notify.Error("Failed to delete: " + err.Error())
		}
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	v.mu.Lock()
	for i, inq := range v.inquiries {
		if inq.ID == id {
			v.inquiries = append(v.inquiries[:i], v.inquiries[i+1:]...)
			break
		}
	}
	v.mu.Unlock()

	if v.notify != nil {
		v.notify.Success(v.kind.noun() + " deleted successfully!")
	}
	return nil
}
