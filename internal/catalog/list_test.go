// ABOUTME: Tests for the catalog list view
// ABOUTME: Covers filtering, best-seller toggle, confirmed deletes and unauthorized handling

package catalog

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/sgu-admin/internal/notify"
)

func TestListView_Load(t *testing.T) {
	e := newEnv(t)
	seedProducts(e)
	v := NewListView(e.client, e.notes, nil)

	assert.False(t, v.Loaded())
	require.NoError(t, v.Load(context.Background()))
	assert.True(t, v.Loaded())
	assert.Len(t, v.Products(), 3)
}

func TestListView_Filter(t *testing.T) {
	e := newEnv(t)
	seedProducts(e)
	v := NewListView(e.client, e.notes, nil)
	require.NoError(t, v.Load(context.Background()))

	tests := []struct {
		query string
		want  []string
	}{
		{"", []string{"Xanthan Gum", "Whey Protein", "Cocoa Powder"}},
		{"   ", []string{"Xanthan Gum", "Whey Protein", "Cocoa Powder"}},
		{"whey", []string{"Whey Protein"}},
		{"DAIRY", []string{"Whey Protein"}},
		{"nutri", []string{"Whey Protein"}},
		{"cp-", []string{"Cocoa Powder"}},
		{"gum", []string{"Xanthan Gum"}},
		{"nothing", nil},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			var got []string
			for _, p := range v.Filter(tt.query) {
				got = append(got, p.Name)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestListView_ToggleBestSeller(t *testing.T) {
	e := newEnv(t)
	seeded := seedProducts(e)
	v := NewListView(e.client, e.notes, nil)
	require.NoError(t, v.Load(context.Background()))

	updated, err := v.ToggleBestSeller(context.Background(), seeded[0].ID)
	require.NoError(t, err)
	assert.True(t, updated.IsBestSeller)

	local, _ := v.Find(seeded[0].ID)
	assert.True(t, local.IsBestSeller, "local snapshot reflects the new flag")
	assert.Equal(t, "Added to Best Sellers!", e.notes.Current().Message)

	remote, _ := e.fake.Product(seeded[0].ID)
	assert.True(t, remote.IsBestSeller)
	assert.Equal(t, seeded[0].Name, remote.Name, "only the flag changes")
	assert.Equal(t, seeded[0].Categories, remote.Categories)

	assert.Equal(t, 1, e.fake.Count(http.MethodGet, "/products/"), "no re-fetch after toggling")

	_, err = v.ToggleBestSeller(context.Background(), seeded[1].ID)
	require.NoError(t, err)
	assert.Equal(t, "Removed from Best Sellers", e.notes.Current().Message)
}

func TestListView_ToggleBestSellerSendsStoredFieldsVerbatim(t *testing.T) {
	e := newEnv(t)
	stored := `{"name":"Sodium Alginate","sku_name":"SA-1","country_of_origin":"India,Brazil",` +
		`"quality":"Food Grade","packaging":",","certifications":"","product_overview":"  spaced  ",` +
		`"generic_specs":"Food grade\npH: 6.5\nMoisture:","applications":"Jellies","category":"Dairy,Bakery",` +
		`"image":"a.png, b.png","is_bestseller":false,"status":"Active"}`
	id := e.fake.AddRawProduct(stored)

	v := NewListView(e.client, e.notes, nil)
	require.NoError(t, v.Load(context.Background()))

	for _, want := range []bool{true, false} {
		_, err := v.ToggleBestSeller(context.Background(), id)
		require.NoError(t, err)

		reqs := e.fake.Requests()
		put := reqs[len(reqs)-1]
		require.Equal(t, http.MethodPut, put.Method)

		var wire, sent map[string]any
		require.NoError(t, json.Unmarshal([]byte(stored), &wire))
		require.NoError(t, json.Unmarshal([]byte(put.Body), &sent))
		assert.Equal(t, want, sent["is_bestseller"])
		for field, value := range wire {
			if field == "is_bestseller" {
				continue
			}
			assert.Equal(t, value, sent[field], field)
		}
	}
}

func TestListView_ToggleBestSellerFailureKeepsFlag(t *testing.T) {
	e := newEnv(t)
	seeded := seedProducts(e)
	v := NewListView(e.client, e.notes, nil)
	require.NoError(t, v.Load(context.Background()))

	e.fake.Fail(http.MethodPut, "/products/1", http.StatusInternalServerError, "boom")
	_, err := v.ToggleBestSeller(context.Background(), seeded[0].ID)
	require.Error(t, err)

	local, _ := v.Find(seeded[0].ID)
	assert.False(t, local.IsBestSeller)
	cur := e.notes.Current()
	assert.Equal(t, notify.KindError, cur.Kind)
	assert.Contains(t, cur.Message, "Failed to update status: Failed to update product")
}

func TestListView_ToggleUnknown(t *testing.T) {
	e := newEnv(t)
	v := NewListView(e.client, e.notes, nil)
	_, err := v.ToggleBestSeller(context.Background(), 99)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListView_Delete(t *testing.T) {
	e := newEnv(t)
	seeded := seedProducts(e)
	v := NewListView(e.client, e.notes, nil)
	require.NoError(t, v.Load(context.Background()))

	require.NoError(t, v.Delete(context.Background(), seeded[1].ID))

	_, found := v.Find(seeded[1].ID)
	assert.False(t, found)
	assert.Len(t, v.Products(), 2)
	assert.Equal(t, "Product deleted successfully!", e.notes.Current().Message)
}

func TestListView_DeleteFailureLeavesList(t *testing.T) {
	e := newEnv(t)
	seeded := seedProducts(e)
	v := NewListView(e.client, e.notes, nil)
	require.NoError(t, v.Load(context.Background()))

	e.fake.Fail(http.MethodDelete, "/products/2", http.StatusConflict, "in use")
	require.Error(t, v.Delete(context.Background(), seeded[1].ID))

	assert.Len(t, v.Products(), 3)
	assert.Equal(t, notify.KindError, e.notes.Current().Kind)
}

func TestListView_UnauthorizedIsNotToasted(t *testing.T) {
	e := newEnv(t)
	seeded := seedProducts(e)
	v := NewListView(e.client, e.notes, nil)
	require.NoError(t, v.Load(context.Background()))

	e.fake.Fail(http.MethodDelete, "/products/1", http.StatusUnauthorized, "expired")
	require.Error(t, v.Delete(context.Background(), seeded[0].ID))

	assert.Equal(t, 1, e.unauthorized)
	assert.Empty(t, e.tokens.token)
	assert.False(t, e.notes.Current().Visible, "redirect only, no toast")
	assert.Len(t, v.Products(), 3)
}

func TestListView_LateResultDiscarded(t *testing.T) {
	e := newEnv(t)
	seedProducts(e)
	v := NewListView(e.client, e.notes, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, v.Load(ctx), context.Canceled)
	assert.False(t, v.Loaded())
	assert.False(t, e.notes.Current().Visible)
}

func TestViews_SucceedWithoutNotifier(t *testing.T) {
	e := newEnv(t)
	seeded := seedProducts(e)
	ctx := context.Background()

	list := NewListView(e.client, nil, nil)
	require.NoError(t, list.Load(ctx))
	require.NotPanics(t, func() {
		_, err := list.ToggleBestSeller(ctx, seeded[0].ID)
		require.NoError(t, err)
		require.NoError(t, list.Delete(ctx, seeded[0].ID))
	})

	detail := NewDetailView(e.client, nil, nil)
	require.NoError(t, detail.Load(ctx, seeded[1].ID))
	require.NotPanics(t, func() { require.NoError(t, detail.Delete(ctx)) })

	form := NewForm(e.client, nil, nil)
	require.NoError(t, form.Set(FieldName, "Pectin"))
	require.NotPanics(t, func() {
		_, err := form.Submit(ctx)
		require.NoError(t, err)
	})

	assert.Equal(t, notify.Notification{}, e.notes.Current())
}
