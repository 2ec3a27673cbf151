// ABOUTME: Inquiry and site setting operations
// ABOUTME: Wraps /inquiries/ (read/delete) and /settings/ (list/upsert)

package api

import (
	"context"
	"net/http"
	"strconv"
)

// ListInquiries returns every inquiry, including job applications.
func (c *Client) ListInquiries(ctx context.Context) ([]Inquiry, error) {
	cl, err := jsonCall("fetch inquiries", http.MethodGet, "/inquiries/", nil)
	if err != nil {
		return nil, err
	}
	var inquiries []Inquiry
	if err := c.do(ctx, cl, &inquiries); err != nil {
		return nil, err
	}
	return inquiries, nil
}

// DeleteInquiry removes inquiry id.
func (c *Client) DeleteInquiry(ctx context.Context, id int) error {
	return c.do(ctx, deleteCall("delete inquiry", "/inquiries/"+strconv.Itoa(id)), nil)
}

// ListSettings returns every stored setting.
func (c *Client) ListSettings(ctx context.Context) ([]Setting, error) {
	cl, err := jsonCall("fetch settings", http.MethodGet, "/settings/", nil)
	if err != nil {
		return nil, err
	}
	var settings []Setting
	if err := c.do(ctx, cl, &settings); err != nil {
		return nil, err
	}
	return settings, nil
}

// UpdateSetting upserts key=value.
func (c *Client) UpdateSetting(ctx context.Context, key, value string) (*Setting, error) {
	cl, err := jsonCall("update setting", http.MethodPost, "/settings/", Setting{Key: key, Value: value})
	if err != nil {
		return nil, err
	}
	var s Setting
	if err := c.do(ctx, cl, &s); err != nil {
		return nil, err
	}
	return &s, nil
}
