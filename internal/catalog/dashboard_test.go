// ABOUTME: Tests for the dashboard aggregate
// ABOUTME: Covers stats, activity feed limits, and all-or-nothing failure

package catalog

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/sgu-admin/internal/api"
)

func TestDashboard_Load(t *testing.T) {
	e := newEnv(t)
	seedProducts(e)
	e.fake.AddProduct(api.Product{Name: "Plain Salt"})
	e.fake.AddInquiry(api.Inquiry{Name: "Asha", Subject: "Bulk order"})
	e.fake.AddInquiry(api.Inquiry{Name: "Ben", Subject: "Job Apply"})
	e.fake.AddInquiry(api.Inquiry{Name: "Chen", Subject: "Samples"})

	d := NewDashboard(e.client, nil)
	require.NoError(t, d.Load(context.Background()))

	assert.Equal(t, Stats{Products: 4, Sectors: 4, Inquiries: 3, ActiveUsers: 1}, d.Stats())

	acts := d.Activities()
	require.Len(t, acts, 5)
	assert.Equal(t, "p-1", acts[0].ID)
	assert.Equal(t, `New product "Xanthan Gum" added to Stabilizers & Emulsifiers`, acts[0].Text)
	assert.Equal(t, `New product "Whey Protein" added to Dairy, Nutritional`, acts[1].Text)
	assert.Equal(t, ActivityInquiry, acts[3].Kind)
	assert.Equal(t, "New inquiry from Asha: Bulk order", acts[3].Text)
	assert.Equal(t, "i-2", acts[4].ID)
}

func TestDashboard_UncategorizedProduct(t *testing.T) {
	_, acts := summarize([]api.Product{{ID: 9, Name: "Salt"}}, nil)
	require.Len(t, acts, 1)
	assert.Equal(t, `New product "Salt" added to Catalog`, acts[0].Text)
}

func TestDashboard_FailureKeepsPriorState(t *testing.T) {
	e := newEnv(t)
	seedProducts(e)
	d := NewDashboard(e.client, nil)
	require.NoError(t, d.Load(context.Background()))
	before := d.Stats()

	e.fake.AddProduct(api.Product{Name: "New"})
	e.fake.Fail(http.MethodGet, "/inquiries/", http.StatusBadGateway, "upstream")

	require.Error(t, d.Load(context.Background()))
	assert.Equal(t, before, d.Stats(), "no partial update")
	assert.True(t, d.Loaded())
}

func TestDashboard_EmptyUntilLoaded(t *testing.T) {
	e := newEnv(t)
	e.fake.Fail(http.MethodGet, "/products/", http.StatusInternalServerError, "down")
	d := NewDashboard(e.client, nil)

	require.Error(t, d.Load(context.Background()))
	assert.False(t, d.Loaded())
	assert.Equal(t, Stats{}, d.Stats())
	assert.Empty(t, d.Activities())
}
