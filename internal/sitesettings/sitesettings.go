// ABOUTME: Site settings editor for social links and branding assets
// ABOUTME: Decodes the key/value list with mapstructure and upserts a fixed key set concurrently

package sitesettings

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"sort"
	"strings"
	"sync"

	"github.com/mitchellh/mapstructure"
	"golang.org/x/sync/errgroup"

	"github.com/2389/sgu-admin/internal/api"
	"github.com/2389/sgu-admin/internal/notify"
)

// SocialLinks are the footer social media URLs.
type SocialLinks struct {
	Facebook  string `mapstructure:"facebook_url"`
	Instagram string `mapstructure:"instagram_url"`
	LinkedIn  string `mapstructure:"linkedin_url"`
	Twitter   string `mapstructure:"twitter_url"`
	Pinterest string `mapstructure:"pinterest_url"`
}

// Branding holds the site's logo assets. TrustLogos is stored as a
// comma-joined URL list.
type Branding struct {
	LogoURL    string   `mapstructure:"logo_url"`
	FaviconURL string   `mapstructure:"favicon_url"`
	TrustLogos []string `mapstructure:"trust_logos"`
}

// API is the request layer surface the settings view needs.
type API interface {
	ListSettings(ctx context.Context) ([]api.Setting, error)
	UpdateSetting(ctx context.Context, key, value string) (*api.Setting, error)
}

// Notifier receives transient messages.
type Notifier interface {
	Success(msg string) notify.Notification
	Error(msg string) notify.Notification
}

// SocialKeys and BrandingKeys are the setting keys each tab persists.
var (
	SocialKeys   = keysOf(SocialLinks{})
	BrandingKeys = keysOf(Branding{})
)

// View is the settings screen.
type View struct {
	api    API
	notify Notifier
	logger *slog.Logger

	mu       sync.Mutex
	social   SocialLinks
	branding Branding
	other    map[string]string
	loaded   bool
}

// New creates an empty settings view.
func New(client API, n Notifier, logger *slog.Logger) *View {
	if logger == nil {
		logger = slog.Default()
	}
	return &View{
		api:    client,
		notify: n,
		logger: logger.With("component", "sitesettings"),
		other:  make(map[string]string),
	}
}

// Load fetches every setting and decodes the known keys.
func (v *View) Load(ctx context.Context) error {
	settings, err := v.api.ListSettings(ctx)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	if err != nil {
		v.logger.Error("failed to fetch settings", "error", err)
		return err
	}

	raw := make(map[string]string, len(settings))
	for _, s := range settings {
		raw[s.Key] = s.Value
	}

	var social SocialLinks
	if err := decode(raw, &social); err != nil {
		return fmt.Errorf("decoding social links: %w", err)
	}
	var branding Branding
	if err := decode(raw, &branding); err != nil {
		return fmt.Errorf("decoding branding: %w", err)
	}

	other := make(map[string]string)
	for k, val := range raw {
		if !contains(SocialKeys, k) && !contains(BrandingKeys, k) {
			other[k] = val
		}
	}

	v.mu.Lock()
	v.social = social
	v.branding = branding
	v.other = other
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

// Social returns the social links.
func (v *View) Social() SocialLinks {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.social
}

// Branding returns the branding assets.
func (v *View) Branding() Branding {
	v.mu.Lock()
	defer v.mu.Unlock()
	b := v.branding
	b.TrustLogos = append([]string(nil), b.TrustLogos...)
	return b
}

// Other returns settings outside the social and branding key sets.
func (v *View) Other() map[string]string {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := make(map[string]string, len(v.other))
	for k, val := range v.other {
		out[k] = val
	}
	return out
}

// SaveSocial upserts every social key.
func (v *View) SaveSocial(ctx context.Context, links SocialLinks) error {
	if err := v.save(ctx, links); err != nil {
		return err
	}
	v.mu.Lock()
	v.social = links
	v.mu.Unlock()
	v.success("Social media links updated!")
	return nil
}

// SaveBranding upserts every branding key.
func (v *View) SaveBranding(ctx context.Context, b Branding) error {
	if err := v.save(ctx, b); err != nil {
		return err
	}
	v.mu.Lock()
	v.branding = b
	v.mu.Unlock()
	v.success("Branding assets updated!")
	return nil
}

func (v *View) success(msg string) {
	if v.notify != nil {
		v.notify.Success(msg)
	}
}

// Set changes one social or branding key and saves that key's whole set.
// List-valued keys take a comma-separated value.
func (v *View) Set(ctx context.Context, key, value string) error {
	switch {
	case contains(SocialKeys, key):
		links, err := with(v.Social(), key, value)
		if err != nil {
			return err
		}
		return v.SaveSocial(ctx, links)
	case contains(BrandingKeys, key):
		b, err := with(v.Branding(), key, value)
		if err != nil {
			return err
		}
		return v.SaveBranding(ctx, b)
	default:
		return fmt.Errorf("unknown setting %q (known: %s)", key, strings.Join(SocialKeys, ", ")+", "+strings.Join(BrandingKeys, ", "))
	}
}

// with returns a copy of current with key replaced by value.
func with[T any](current T, key, value string) (T, error) {
	values, err := encode(current)
	if err != nil {
		return current, err
	}
	values[key] = value
	var out T
	if err := decode(values, &out); err != nil {
		return current, fmt.Errorf("setting %s: %w", key, err)
	}
	return out, nil
}

func (v *View) save(ctx context.Context, in any) error {
	values, err := encode(in)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	for key, value := range values {
		g.Go(func() error {
			_, err := v.api.UpdateSetting(gctx, key, value)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		if v.notify != nil && ctx.Err() == nil && !errors.Is(err, api.ErrUnauthorized) {
			v.notify.Error("Error saving settings: " + err.Error())
		}
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	v.logger.Info("settings saved", "keys", len(values))
	return nil
}

// decode fills out from the raw key/value map. Comma-joined strings decode
// into slice fields.
func decode(raw map[string]string, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       splitListHook,
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	return dec.Decode(raw)
}

func splitListHook(from, to reflect.Type, data any) (any, error) {
	if from.Kind() == reflect.String && to.Kind() == reflect.Slice && to.Elem().Kind() == reflect.String {
		return api.SplitList(data.(string)), nil
	}
	return data, nil
}

// encode flattens in to setting values, joining slices with commas.
func encode(in any) (map[string]string, error) {
	var fields map[string]any
	if err := mapstructure.Decode(in, &fields); err != nil {
		return nil, fmt.Errorf("encoding settings: %w", err)
	}
	out := make(map[string]string, len(fields))
	for k, val := range fields {
		switch x := val.(type) {
		case string:
			out[k] = strings.TrimSpace(x)
		case []string:
			out[k] = api.URLList(x).String()
		default:
			out[k] = fmt.Sprint(x)
		}
	}
	return out, nil
}

func keysOf(v any) []string {
	t := reflect.TypeOf(v)
	keys := make([]string, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		if tag := t.Field(i).Tag.Get("mapstructure"); tag != "" {
			keys = append(keys, tag)
		}
	}
	sort.Strings(keys)
	return keys
}

func contains(items []string, v string) bool {
	for _, item := range items {
		if item == v {
			return true
		}
	}
	return false
}
