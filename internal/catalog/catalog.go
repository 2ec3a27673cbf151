// ABOUTME: Shared types for the catalog views: API surface, notifier, errors, option sets
// ABOUTME: Views report failures through the notifier except for unauthorized responses

package catalog

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/2389/sgu-admin/internal/api"
	"github.com/2389/sgu-admin/internal/notify"
)

// MaxImages bounds the product gallery.
const MaxImages = 5

var (
	// ErrNotFound means the product is not in the locally held list.
	ErrNotFound = errors.New("product not found")
	// ErrGalleryFull means the gallery already holds MaxImages images.
	ErrGalleryFull = errors.New("gallery is full")
	// ErrNotLoaded means the view has no product yet.
	ErrNotLoaded = errors.New("product not loaded")
)

// ProductAPI is the part of the request layer the catalog views use.
type ProductAPI interface {
	ListProducts(ctx context.Context) ([]api.Product, error)
	GetProduct(ctx context.Context, id int) (*api.Product, error)
	CreateProduct(ctx context.Context, p api.Product) (*api.Product, error)
	UpdateProduct(ctx context.Context, id int, p api.Product) (*api.Product, error)
	SetBestSeller(ctx context.Context, p api.Product, on bool) (*api.Product, error)
	DeleteProduct(ctx context.Context, id int) error
	UploadImage(ctx context.Context, filename string, r io.Reader) (*api.Upload, error)
	ListCountries(ctx context.Context) ([]string, error)
}

// Notifier receives transient messages.
type Notifier interface {
	Success(msg string) notify.Notification
	Error(msg string) notify.Notification
}

// Fixed option sets offered by the product form.
var (
	Categories = []string{
		"Food Ingredients",
		"Nutritional",
		"Beverage",
		"Dairy",
		"Bakery",
		"Confectionery",
		"Stabilizers & Emulsifiers",
	}
	Certifications = []string{
		"FSSAI", "ISO 9001", "ISO 22000", "HACCP", "HALAL", "KOSHER", "MSME", "DPIIT",
	}
	QualityGrades = []string{
		"Premium Food Grade", "Industrial Grade", "Pharma Grade", "USP Grade", "FCC Grade",
	}
	PackagingOptions = []string{
		"25kg Paper Bags", "50kg HDPE Bags", "Jumbo Bags (1MT)", "Liquid Drums", "Cartons",
	}
)

// reportError shows prefix+err on the notifier. Unauthorized failures are
// handled by the global logout and cancelled calls belong to a view that is
// gone, so neither is shown.
func reportError(n Notifier, prefix string, err error) {
	if n == nil || err == nil || silent(err) {
		return
	}
	n.Error(prefix + err.Error())
}

// reportSuccess shows msg when a notifier is attached.
func reportSuccess(n Notifier, msg string) {
	if n == nil {
		return
	}
	n.Success(msg)
}

func silent(err error) bool {
	return errors.Is(err, api.ErrUnauthorized) || errors.Is(err, context.Canceled)
}

func orDefault(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.Default()
	}
	return logger
}
