// ABOUTME: Resource types exchanged with the catalog API
// ABOUTME: Products, inquiries, settings, countries, users, and tokens

package api

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// ProductStatusActive is the status every form submission sends.
const ProductStatusActive = "Active"

// JobApplySubject marks an inquiry as a recruitment submission.
const JobApplySubject = "Job Apply"

// Product is a catalog entry. List-valued fields are decoded from their
// delimited wire form by the types in wire.go.
type Product struct {
	ID              int     `json:"id,omitempty"`
	Name            string  `json:"name"`
	SKU             string  `json:"sku_name"`
	CountryOfOrigin List    `json:"country_of_origin"`
	Quality         List    `json:"quality"`
	Overview        string  `json:"product_overview"`
	Specs           Specs   `json:"generic_specs"`
	Applications    string  `json:"applications"`
	Packaging       List    `json:"packaging"`
	Certifications  List    `json:"certifications"`
	Categories      List    `json:"category"`
	Images          URLList `json:"image"`
	IsBestSeller    bool    `json:"is_bestseller"`
	Status          string  `json:"status,omitempty"`

	// wire is the object the API last sent for this product.
	wire json.RawMessage
}

// UnmarshalJSON decodes the product and keeps the original object so a
// single-field update can resend every other field untouched.
func (p *Product) UnmarshalJSON(data []byte) error {
	type fields Product
	var decoded fields
	if err := json.Unmarshal(data, &decoded); err != nil {
		return err
	}
	*p = Product(decoded)
	p.wire = append(json.RawMessage(nil), data...)
	return nil
}

// withField returns the wire object for p with key set to value. Products not
// decoded from the API are encoded through the field codecs first.
func (p Product) withField(key string, value any) (map[string]json.RawMessage, error) {
	src := p.wire
	if len(src) == 0 {
		encoded, err := json.Marshal(p)
		if err != nil {
			return nil, err
		}
		src = encoded
	}
	obj := make(map[string]json.RawMessage)
	if err := json.Unmarshal(src, &obj); err != nil {
		return nil, fmt.Errorf("decoding product object: %w", err)
	}
	v, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	obj[key] = v
	return obj, nil
}

// Inquiry is a contact-form or job application submission.
type Inquiry struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Phone     string `json:"phone,omitempty"`
	Subject   string `json:"subject"`
	Message   string `json:"message"`
	CreatedAt string `json:"created_at"`
}

// IsJobApplication reports whether the inquiry is a recruitment submission.
func (i Inquiry) IsJobApplication() bool {
	return i.Subject == JobApplySubject
}

var inquiryTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02 15:04:05.999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// Created parses CreatedAt. The API does not always include a zone.
func (i Inquiry) Created() (time.Time, bool) {
	s := strings.TrimSpace(i.CreatedAt)
	for _, layout := range inquiryTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Setting is a key/value site setting.
type Setting struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Country is an origin-country suggestion.
type Country struct {
	Name string `json:"name"`
}

// User is the identity returned by the current-user endpoint.
type User struct {
	Username string `json:"username"`
	Role     string `json:"role,omitempty"`
}

// Token is the credential exchange response.
type Token struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// Upload is the image upload response.
type Upload struct {
	URL string `json:"url"`
}
