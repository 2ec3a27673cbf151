// ABOUTME: Product detail view with an image switcher and delete action
// ABOUTME: Renders overview and applications text as Markdown HTML

package catalog

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/yuin/goldmark"

	"github.com/2389/sgu-admin/internal/api"
)

// DetailView is the read-only product screen.
type DetailView struct {
	api    ProductAPI
	notify Notifier
	logger *slog.Logger

	mu       sync.Mutex
	product  *api.Product
	selected int
}

// Rendered holds the HTML forms of the long text fields.
type Rendered struct {
	Overview     string
	Applications string
}

// NewDetailView creates an empty detail view.
func NewDetailView(client ProductAPI, n Notifier, logger *slog.Logger) *DetailView {
	return &DetailView{
		api:    client,
		notify: n,
		logger: orDefault(logger).With("component", "catalog.detail"),
	}
}

// Load fetches product id and selects its primary image.
func (v *DetailView) Load(ctx context.Context, id int) error {
	p, err := v.api.GetProduct(ctx, id)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	if err != nil {
		v.logger.Error("error fetching product", "id", id, "error", err)
		return err
	}

	v.mu.Lock()
	v.product = p
	v.selected = 0
	v.mu.Unlock()
	return nil
}

// Product returns the loaded product.
func (v *DetailView) Product() (api.Product, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.product == nil {
		return api.Product{}, false
	}
	return *v.product, true
}

// Images returns the product's image URLs.
func (v *DetailView) Images() []string {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.product == nil {
		return nil
	}
	return append([]string(nil), v.product.Images...)
}

// SelectImage makes image i the displayed one.
func (v *DetailView) SelectImage(i int) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.product == nil {
		return ErrNotLoaded
	}
	if i < 0 || i >= len(v.product.Images) {
		return fmt.Errorf("image %d out of range", i)
	}
	v.selected = i
	return nil
}

// Selected returns the displayed image URL, or "" when there are none.
func (v *DetailView) Selected() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.product == nil || v.selected >= len(v.product.Images) {
		return ""
	}
	return v.product.Images[v.selected]
}

// Delete removes the loaded product.
func (v *DetailView) Delete(ctx context.Context) error {
	p, ok := v.Product()
	if !ok {
		return ErrNotLoaded
	}
	if err := v.api.DeleteProduct(ctx, p.ID); err != nil {
		if ctx.Err() == nil {
			reportError(v.notify, "Deletion failed: ", err)
		}
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	v.mu.Lock()
	v.product = nil
	v.selected = 0
	v.mu.Unlock()

	reportSuccess(v.notify, "Product record deleted!")
	return nil
}

// RenderHTML converts the overview and applications text to HTML.
func (v *DetailView) RenderHTML() (Rendered, error) {
	p, ok := v.Product()
	if !ok {
		return Rendered{}, ErrNotLoaded
	}
	overview, err := markdown(p.Overview)
	if err != nil {
		return Rendered{}, fmt.Errorf("rendering overview: %w", err)
	}
	applications, err := markdown(p.Applications)
	if err != nil {
		return Rendered{}, fmt.Errorf("rendering applications: %w", err)
	}
	return Rendered{Overview: overview, Applications: applications}, nil
}

func markdown(src string) (string, error) {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(src), &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}
