// ABOUTME: Product create/edit form state: fields, tag pickers, specs, gallery, countries
// ABOUTME: Submit serializes the draft through the request layer with status Active

package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/2389/sgu-admin/internal/api"
)

// Mode is whether the form creates or edits.
type Mode int

const (
	ModeCreate Mode = iota
	ModeEdit
)

func (m Mode) String() string {
	if m == ModeEdit {
		return "edit"
	}
	return "create"
}

// Field names a product form field by its wire key.
type Field string

const (
	FieldName           Field = "name"
	FieldSKU            Field = "sku_name"
	FieldOverview       Field = "product_overview"
	FieldApplications   Field = "applications"
	FieldCountry        Field = "country_of_origin"
	FieldQuality        Field = "quality"
	FieldPackaging      Field = "packaging"
	FieldCertifications Field = "certifications"
	FieldCategory       Field = "category"
)

// ErrNameRequired is returned by Submit when the product has no name.
var ErrNameRequired = errors.New("product name is required")

// Options returns the fixed choices for a tag-picker field, or nil for
// free-form fields.
func Options(field Field) []string {
	switch field {
	case FieldCategory:
		return Categories
	case FieldCertifications:
		return Certifications
	case FieldQuality:
		return QualityGrades
	case FieldPackaging:
		return PackagingOptions
	default:
		return nil
	}
}

// SpecRow is one editable specification row. ID is stable across reorders.
type SpecRow struct {
	ID    string
	Name  string
	Value string
}

// Form holds the draft product for the create and edit screens.
type Form struct {
	api    ProductAPI
	notify Notifier
	logger *slog.Logger

	mu        sync.Mutex
	mode      Mode
	id        int
	draft     api.Product
	specs     []SpecRow
	images    []string
	countries []string
}

// NewForm returns an empty create-mode form with one blank spec row.
func NewForm(client ProductAPI, n Notifier, logger *slog.Logger) *Form {
	return &Form{
		api:    client,
		notify: n,
		logger: orDefault(logger).With("component", "catalog.form"),
		mode:   ModeCreate,
		specs:  []SpecRow{newSpecRow("", "")},
	}
}

func newSpecRow(name, value string) SpecRow {
	return SpecRow{ID: uuid.New().String(), Name: name, Value: value}
}

// LoadForEdit fetches product id and switches the form to edit mode.
func (f *Form) LoadForEdit(ctx context.Context, id int) error {
	p, err := f.api.GetProduct(ctx, id)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	if err != nil {
		reportError(f.notify, "Error fetching product: ", err)
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.mode = ModeEdit
	f.id = id
	f.draft = *p
	f.images = append([]string(nil), p.Images...)
	f.specs = f.specs[:0]
	for _, s := range p.Specs {
		if s.Name == "" && s.Value == "" {
			continue
		}
		f.specs = append(f.specs, newSpecRow(s.Name, s.Value))
	}
	if len(f.specs) == 0 {
		f.specs = append(f.specs, newSpecRow("", ""))
	}
	return nil
}

// Mode returns the form mode.
func (f *Form) Mode() Mode {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.mode
}

// ID returns the product being edited, or 0 in create mode.
func (f *Form) ID() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.id
}

// Set assigns a field. List fields parse value as a comma-separated list.
func (f *Form) Set(field Field, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch field {
	case FieldName:
		f.draft.Name = value
	case FieldSKU:
		f.draft.SKU = value
	case FieldOverview:
		f.draft.Overview = value
	case FieldApplications:
		f.draft.Applications = value
	default:
		l, err := f.listLocked(field)
		if err != nil {
			return err
		}
		*l = api.List(api.SplitList(value))
	}
	return nil
}

// Toggle adds value to a list field, or removes it if already present.
func (f *Form) Toggle(field Field, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	l, err := f.listLocked(field)
	if err != nil {
		return err
	}
	*l = l.Toggle(value)
	return nil
}

// Values returns the current entries of a list field.
func (f *Form) Values(field Field) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	l, err := f.listLocked(field)
	if err != nil {
		return nil
	}
	return append([]string(nil), (*l)...)
}

func (f *Form) listLocked(field Field) (*api.List, error) {
	switch field {
	case FieldCountry:
		return &f.draft.CountryOfOrigin, nil
	case FieldQuality:
		return &f.draft.Quality, nil
	case FieldPackaging:
		return &f.draft.Packaging, nil
	case FieldCertifications:
		return &f.draft.Certifications, nil
	case FieldCategory:
		return &f.draft.Categories, nil
	default:
		return nil, fmt.Errorf("%s is not a list field", field)
	}
}

// SetBestSeller sets the draft's best-seller flag.
func (f *Form) SetBestSeller(on bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.draft.IsBestSeller = on
}

// LoadCountries fetches the suggestion list. Failure leaves suggestions
// empty and is only logged.
func (f *Form) LoadCountries(ctx context.Context) error {
	names, err := f.api.ListCountries(ctx)
	if err != nil {
		f.logger.Warn("fetching countries", "error", err)
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	f.mu.Lock()
	f.countries = names
	f.mu.Unlock()
	return nil
}

// Suggest returns countries containing the last comma-separated segment of
// input, ignoring case, that are not already among input's segments.
func (f *Form) Suggest(input string) []string {
	parts := api.SplitList(input)
	segs := strings.Split(input, ",")
	search := strings.ToLower(strings.TrimSpace(segs[len(segs)-1]))
	if search == "" {
		return nil
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, c := range f.countries {
		if strings.Contains(strings.ToLower(c), search) && !contains(parts, c) {
			out = append(out, c)
		}
	}
	return out
}

// SelectSuggestion applies a picked suggestion to the country field text.
// When the trailing segment is a prefix of suggestion it is replaced, and
// suggestion is appended unless already present. The result becomes the
// draft's country list and is returned as field text.
func (f *Form) SelectSuggestion(input, suggestion string) string {
	parts := api.SplitList(input)
	if n := len(parts); n > 0 && strings.HasPrefix(strings.ToLower(suggestion), strings.ToLower(parts[n-1])) {
		parts = parts[:n-1]
	}
	if !contains(parts, suggestion) {
		parts = append(parts, suggestion)
	}

	f.mu.Lock()
	f.draft.CountryOfOrigin = api.List(parts)
	f.mu.Unlock()
	return strings.Join(parts, ", ")
}

func contains(items []string, v string) bool {
	for _, item := range items {
		if item == v {
			return true
		}
	}
	return false
}

// Specs returns the specification rows in order.
func (f *Form) Specs() []SpecRow {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]SpecRow(nil), f.specs...)
}

// AddSpec appends a specification row and returns it.
func (f *Form) AddSpec(name, value string) SpecRow {
	f.mu.Lock()
	defer f.mu.Unlock()
	row := newSpecRow(name, value)
	f.specs = append(f.specs, row)
	return row
}

// SetSpec edits row i.
func (f *Form) SetSpec(i int, name, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if i < 0 || i >= len(f.specs) {
		return fmt.Errorf("spec row %d out of range", i)
	}
	f.specs[i].Name = name
	f.specs[i].Value = value
	return nil
}

// RemoveSpec deletes row i.
func (f *Form) RemoveSpec(i int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if i < 0 || i >= len(f.specs) {
		return fmt.Errorf("spec row %d out of range", i)
	}
	f.specs = append(f.specs[:i], f.specs[i+1:]...)
	return nil
}

// MoveSpec moves the row at from to position to, shifting the rows between.
func (f *Form) MoveSpec(from, to int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := len(f.specs)
	if from < 0 || from >= n || to < 0 || to >= n {
		return fmt.Errorf("spec move %d->%d out of range", from, to)
	}
	row := f.specs[from]
	f.specs = append(f.specs[:from], f.specs[from+1:]...)
	f.specs = append(f.specs[:to], append([]SpecRow{row}, f.specs[to:]...)...)
	return nil
}

// Images returns the gallery. The first image is the primary one.
func (f *Form) Images() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.images...)
}

// AddImageURL appends url to the gallery.
func (f *Form) AddImageURL(url string) error {
	url = strings.TrimSpace(url)
	if url == "" {
		return errors.New("image url is empty")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.images) >= MaxImages {
		return ErrGalleryFull
	}
	f.images = append(f.images, url)
	return nil
}

// RemoveImage deletes gallery entry i.
func (f *Form) RemoveImage(i int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if i < 0 || i >= len(f.images) {
		return fmt.Errorf("image %d out of range", i)
	}
	f.images = append(f.images[:i], f.images[i+1:]...)
	return nil
}

// UploadImage uploads r and appends the hosted URL to the gallery. A full
// gallery is rejected before any request is made.
func (f *Form) UploadImage(ctx context.Context, filename string, r io.Reader) (string, error) {
	f.mu.Lock()
	full := len(f.images) >= MaxImages
	f.mu.Unlock()
	if full {
		return "", ErrGalleryFull
	}

	up, err := f.api.UploadImage(ctx, filename, r)
	if err != nil {
		if ctx.Err() == nil {
			reportError(f.notify, "Upload failed: ", err)
		}
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.images) >= MaxImages {
		return "", ErrGalleryFull
	}
	f.images = append(f.images, up.URL)
	return up.URL, nil
}

// Draft returns the product as it would be submitted. Spec rows missing a
// name or value are dropped.
func (f *Form) Draft() api.Product {
	f.mu.Lock()
	defer f.mu.Unlock()
	p := f.draft
	p.ID = f.id
	p.Images = api.URLList(append([]string(nil), f.images...))
	rows := make(api.Specs, 0, len(f.specs))
	for _, row := range f.specs {
		rows = append(rows, api.Spec{Name: row.Name, Value: row.Value})
	}
	p.Specs = rows.Complete()
	p.Status = api.ProductStatusActive
	return p
}

// Submit creates or updates the product and returns the server's copy.
func (f *Form) Submit(ctx context.Context) (*api.Product, error) {
	p := f.Draft()
	if strings.TrimSpace(p.Name) == "" {
		return nil, ErrNameRequired
	}

	var (
		saved *api.Product
		err   error
		done  string
	)
	if f.Mode() == ModeEdit {
		saved, err = f.api.UpdateProduct(ctx, p.ID, p)
		done = "Product updated successfully!"
	} else {
		saved, err = f.api.CreateProduct(ctx, p)
		done = "Product created successfully!"
	}
	if err != nil {
		if ctx.Err() == nil {
			reportError(f.notify, "Error saving product: ", err)
		}
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f.logger.Info("product saved", "id", saved.ID, "mode", f.Mode().String())
	reportSuccess(f.notify, done)
	return saved, nil
}
