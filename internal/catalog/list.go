// ABOUTME: Catalog list view holding a local product snapshot
// ABOUTME: Supports search filtering, best-seller toggling, and confirmed deletes

package catalog

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/2389/sgu-admin/internal/api"
)

// ListView is the catalog list screen.
type ListView struct {
	api    ProductAPI
	notify Notifier
	logger *slog.Logger

	mu       sync.Mutex
	products []api.Product
	loaded   bool
}

// NewListView creates an empty list view.
func NewListView(client ProductAPI, n Notifier, logger *slog.Logger) *ListView {
	return &ListView{
		api:    client,
		notify: n,
		logger: orDefault(logger).With("component", "catalog.list"),
	}
}

// Load fetches the catalog and replaces the snapshot. A result arriving
// after ctx is done is dropped.
func (v *ListView) Load(ctx context.Context) error {
	products, err := v.api.ListProducts(ctx)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	if err != nil {
		v.logger.Error("failed to fetch products", "error", err)
		reportError(v.notify, "", err)
		return err
	}

	v.mu.Lock()
	v.products = products
	v.loaded = true
	v.mu.Unlock()
	return nil
}

// Refresh reloads the catalog.
func (v *ListView) Refresh(ctx context.Context) error {
	return v.Load(ctx)
}

// Loaded reports whether a snapshot is held.
func (v *ListView) Loaded() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.loaded
}

// Products returns a copy of the snapshot.
func (v *ListView) Products() []api.Product {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]api.Product(nil), v.products...)
}

// Filter returns products whose name, category or SKU contains query,
// ignoring case. An empty query returns everything.
func (v *ListView) Filter(query string) []api.Product {
	products := v.Products()
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return products
	}

	var out []api.Product
	for _, p := range products {
		if matches(p, q) {
			out = append(out, p)
		}
	}
	return out
}

func matches(p api.Product, q string) bool {
	return strings.Contains(strings.ToLower(p.Name), q) ||
		strings.Contains(strings.ToLower(p.Categories.String()), q) ||
		strings.Contains(strings.ToLower(p.SKU), q)
}

// Find returns the product with id from the snapshot.
func (v *ListView) Find(id int) (api.Product, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	i := v.indexLocked(id)
	if i < 0 {
		return api.Product{}, false
	}
	return v.products[i], true
}

func (v *ListView) indexLocked(id int) int {
	for i, p := range v.products {
		if p.ID == id {
			return i
		}
	}
	return -1
}

// ToggleBestSeller sends the product with only its best-seller flag inverted
// and, on success, updates the snapshot in place.
func (v *ListView) ToggleBestSeller(ctx context.Context, id int) (api.Product, error) {
	p, ok := v.Find(id)
	if !ok {
		return api.Product{}, ErrNotFound
	}
	p.IsBestSeller = !p.IsBestSeller

	if _, err := v.api.SetBestSeller(ctx, p, p.IsBestSeller); err != nil {
		if ctx.Err() == nil {
			reportError(v.notify, "Failed to update status: ", err)
		}
		return api.Product{}, err
	}
	if err := ctx.Err(); err != nil {
		return api.Product{}, err
	}

	v.mu.Lock()
	if i := v.indexLocked(id); i >= 0 {
		v.products[i].IsBestSeller = p.IsBestSeller
	}
	v.mu.Unlock()

	if p.IsBestSeller {
		reportSuccess(v.notify, "Added to Best Sellers!")
	} else {
		reportSuccess(v.notify, "Removed from Best Sellers")
	}
	return p, nil
}

// Delete removes product id on the server and then from the snapshot.
// The snapshot is untouched when the server call fails.
func (v *ListView) Delete(ctx context.Context, id int) error {
	if err := v.api.DeleteProduct(ctx, id); err != nil {
		if ctx.Err() == nil {
			reportError(v.notify, "Failed to delete: ", err)
		}
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	v.mu.Lock()
	if i := v.indexLocked(id); i >= 0 {
		v.products = append(v.products[:i], v.products[i+1:]...)
	}
	v.mu.Unlock()

	reportSuccess(v.notify, "Product deleted successfully!")
	return nil
}
