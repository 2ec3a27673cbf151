// ABOUTME: Tests for the delimited-string wire codec
// ABOUTME: Covers list joining/splitting, spec rows, nulls, and the product form example

package api

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestList_Marshal(t *testing.T) {
	data, err := json.Marshal(List{"India", "Brazil"})
	require.NoError(t, err)
	assert.Equal(t, `"India, Brazil"`, string(data))

	data, err = json.Marshal(List(nil))
	require.NoError(t, err)
	assert.Equal(t, `""`, string(data))
}

func TestList_UnmarshalTrimsAndDropsEmpties(t *testing.T) {
	var l List
	require.NoError(t, json.Unmarshal([]byte(`" India ,Brazil,, "`), &l))
	assert.Equal(t, List{"India", "Brazil"}, l)

	require.NoError(t, json.Unmarshal([]byte(`null`), &l))
	assert.Empty(t, l)
}

func TestList_Toggle(t *testing.T) {
	l := List{"FSSAI", "HACCP"}

	l = l.Toggle("HALAL")
	assert.Equal(t, List{"FSSAI", "HACCP", "HALAL"}, l)

	l = l.Toggle("FSSAI")
	assert.Equal(t, List{"HACCP", "HALAL"}, l)

	assert.Equal(t, l, l.Toggle("  "))
	assert.True(t, l.Contains("HALAL"))
	assert.False(t, l.Contains("FSSAI"))
}

func TestURLList_RoundTrip(t *testing.T) {
	var l URLList
	require.NoError(t, json.Unmarshal([]byte(`"https://a/1.png, https://a/2.png"`), &l))
	assert.Equal(t, "https://a/1.png", l.Primary())

	data, err := json.Marshal(l)
	require.NoError(t, err)
	assert.Equal(t, `"https://a/1.png,https://a/2.png"`, string(data))

	assert.Equal(t, "", URLList(nil).Primary())
}

func TestSpecs_Serialize(t *testing.T) {
	specs := Specs{
		{Name: "pH", Value: "6.5"},
		{Name: "Purity", Value: "99%"},
	}
	assert.Equal(t, "pH: 6.5\nPurity: 99%", specs.String())
}

func TestSpecs_SerializeKeepsIncompleteRows(t *testing.T) {
	specs := Specs{
		{Name: "pH", Value: "6.5"},
		{Name: "", Value: "orphan"},
		{Name: "Moisture", Value: ""},
		{Name: " ", Value: ""},
	}
	assert.Equal(t, "pH: 6.5\n: orphan\nMoisture:", specs.String())
	assert.Equal(t, specs[:3], ParseSpecs(specs.String()))
}

func TestSpecs_Complete(t *testing.T) {
	specs := Specs{
		{Name: " pH ", Value: "6.5"},
		{Name: "", Value: "orphan"},
		{Name: "Moisture", Value: " "},
	}
	assert.Equal(t, Specs{{Name: "pH", Value: "6.5"}}, specs.Complete())
	assert.Empty(t, Specs(nil).Complete())
}

func TestSpecs_ColonlessLineKeepsItsText(t *testing.T) {
	specs := ParseSpecs("Food grade\npH: 6.5\nMoisture:")
	assert.Equal(t, Specs{
		{Name: "Food grade", Value: ""},
		{Name: "pH", Value: "6.5"},
		{Name: "Moisture", Value: ""},
	}, specs)

	data, err := json.Marshal(specs)
	require.NoError(t, err)
	assert.JSONEq(t, `"Food grade:\npH: 6.5\nMoisture:"`, string(data))
}

func TestParseSpecs(t *testing.T) {
	specs := ParseSpecs("pH: 6.5\n\nRatio: 1:2\nColour:\n")
	assert.Equal(t, Specs{
		{Name: "pH", Value: "6.5"},
		{Name: "Ratio", Value: "1:2"},
		{Name: "Colour", Value: ""},
	}, specs)
}

func TestProduct_FormExample(t *testing.T) {
	p := Product{
		Name:            "Xanthan Gum",
		CountryOfOrigin: List{"India", "Brazil"},
		Specs: Specs{
			{Name: "pH", Value: "6.5"},
			{Name: "Purity", Value: "99%"},
		},
		Images: URLList{"https://cdn/x.png"},
		Status: ProductStatusActive,
	}

	data, err := json.Marshal(p)
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, "India, Brazil", raw["country_of_origin"])
	assert.Equal(t, "pH: 6.5\nPurity: 99%", raw["generic_specs"])
	assert.Equal(t, "https://cdn/x.png", raw["image"])
	assert.Equal(t, "", raw["category"])
	assert.NotContains(t, raw, "id")
}

func TestProduct_DecodeFromAPI(t *testing.T) {
	body := `{
		"id": 7,
		"name": "Guar Gum",
		"sku_name": "GG-200",
		"country_of_origin": "India",
		"quality": null,
		"generic_specs": "Viscosity: 5000 cps",
		"category": "Food Ingredients, Dairy",
		"image": "a.png,b.png",
		"is_bestseller": true,
		"status": "Active"
	}`

	var p Product
	require.NoError(t, json.Unmarshal([]byte(body), &p))
	assert.Equal(t, 7, p.ID)
	assert.Equal(t, List{"Food Ingredients", "Dairy"}, p.Categories)
	assert.Empty(t, p.Quality)
	assert.Equal(t, Specs{{Name: "Viscosity", Value: "5000 cps"}}, p.Specs)
	assert.Equal(t, URLList{"a.png", "b.png"}, p.Images)
	assert.True(t, p.IsBestSeller)
}

func TestInquiry_Created(t *testing.T) {
	ts, ok := Inquiry{CreatedAt: "2025-03-01T10:30:00.123456"}.Created()
	require.True(t, ok)
	assert.Equal(t, 2025, ts.Year())

	_, ok = Inquiry{CreatedAt: "yesterday"}.Created()
	assert.False(t, ok)

	assert.True(t, Inquiry{Subject: "Job Apply"}.IsJobApplication())
	assert.False(t, Inquiry{Subject: "job apply"}.IsJobApplication())
}
