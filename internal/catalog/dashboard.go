// ABOUTME: Dashboard aggregate over products and inquiries fetched concurrently
// ABOUTME: Computes headline stats and a short recent-activity feed

package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/2389/sgu-admin/internal/api"
)

const (
	recentProducts  = 3
	recentInquiries = 2
	maxActivities   = 5
)

// DashboardAPI is the request layer surface the dashboard needs.
type DashboardAPI interface {
	ListProducts(ctx context.Context) ([]api.Product, error)
	ListInquiries(ctx context.Context) ([]api.Inquiry, error)
}

// Stats are the dashboard headline numbers.
type Stats struct {
	Products    int
	Sectors     int
	Inquiries   int
	ActiveUsers int
}

// ActivityKind tells product activity from inquiry activity.
type ActivityKind string

const (
	ActivityProduct ActivityKind = "product"
	ActivityInquiry ActivityKind = "inquiry"
)

// Activity is one recent-activity entry.
type Activity struct {
	ID   string
	Kind ActivityKind
	Text string
}

// Dashboard is the landing screen.
type Dashboard struct {
	api    DashboardAPI
	logger *slog.Logger

	mu         sync.Mutex
	stats      Stats
	activities []Activity
	loaded     bool
}

// NewDashboard creates an empty dashboard.
func NewDashboard(client DashboardAPI, logger *slog.Logger) *Dashboard {
	return &Dashboard{
		api:    client,
		logger: orDefault(logger).With("component", "catalog.dashboard"),
	}
}

// Load fetches products and inquiries in parallel. Both must succeed; on
// any failure the error is logged and the previous state is kept.
func (d *Dashboard) Load(ctx context.Context) error {
	var (
		products  []api.Product
		inquiries []api.Inquiry
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		products, err = d.api.ListProducts(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		inquiries, err = d.api.ListInquiries(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		d.logger.Error("failed to fetch dashboard data", "error", err)
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	stats, activities := summarize(products, inquiries)

	d.mu.Lock()
	d.stats = stats
	d.activities = activities
	d.loaded = true
	d.mu.Unlock()
	return nil
}

// Stats returns the headline numbers.
func (d *Dashboard) Stats() Stats {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.stats
}

// Activities returns the recent-activity feed.
func (d *Dashboard) Activities() []Activity {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]Activity(nil), d.activities...)
}

// Loaded reports whether Load has succeeded at least once.
func (d *Dashboard) Loaded() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.loaded
}

func summarize(products []api.Product, inquiries []api.Inquiry) (Stats, []Activity) {
	sectors := make(map[string]struct{})
	for _, p := range products {
		for _, c := range p.Categories {
			sectors[c] = struct{}{}
		}
	}

	stats := Stats{
		Products:    len(products),
		Sectors:     len(sectors),
		Inquiries:   len(inquiries),
		ActiveUsers: 1,
	}

	var activities []Activity
	for i, p := range products {
		if i == recentProducts {
			break
		}
		where := p.Categories.String()
		if where == "" {
			where = "Catalog"
		}
		activities = append(activities, Activity{
			ID:   fmt.Sprintf("p-%d", p.ID),
			Kind: ActivityProduct,
			Text: fmt.Sprintf("New product %q added to %s", p.Name, where),
		})
	}
	for i, inq := range inquiries {
		if i == recentInquiries {
			break
		}
		activities = append(activities, Activity{
			ID:   fmt.Sprintf("i-%d", inq.ID),
			Kind: ActivityInquiry,
			Text: fmt.Sprintf("New inquiry from %s: %s", inq.Name, inq.Subject),
		})
	}
	if len(activities) > maxActivities {
		activities = activities[:maxActivities]
	}
	return stats, activities
}
