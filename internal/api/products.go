// ABOUTME: Product, image upload, and country operations
// ABOUTME: Wraps /products/, /upload/, and /countries/ endpoints

package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strconv"
)

// ListProducts returns the full catalog.
func (c *Client) ListProducts(ctx context.Context) ([]Product, error) {
	cl, err := jsonCall("fetch products", http.MethodGet, "/products/", nil)
	if err != nil {
		return nil, err
	}
	var products []Product
	if err := c.do(ctx, cl, &products); err != nil {
		return nil, err
	}
	return products, nil
}

// GetProduct returns one product.
func (c *Client) GetProduct(ctx context.Context, id int) (*Product, error) {
	cl, err := jsonCall("fetch product", http.MethodGet, "/products/"+strconv.Itoa(id), nil)
	if err != nil {
		return nil, err
	}
	var p Product
	if err := c.do(ctx, cl, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// CreateProduct stores a new product and returns it with its identifier.
func (c *Client) CreateProduct(ctx context.Context, p Product) (*Product, error) {
	p.ID = 0
	cl, err := jsonCall("create product", http.MethodPost, "/products/", p)
	if err != nil {
		return nil, err
	}
	var created Product
	if err := c.do(ctx, cl, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// UpdateProduct replaces product id with p.
func (c *Client) UpdateProduct(ctx context.Context, id int, p Product) (*Product, error) {
	cl, err := jsonCall("update product", http.MethodPut, "/products/"+strconv.Itoa(id), p)
	if err != nil {
		return nil, err
	}
	var updated Product
	if err := c.do(ctx, cl, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// SetBestSeller resends p as the API last returned it with only is_bestseller
// replaced, so fields the codecs would normalize go back byte-for-byte.
func (c *Client) SetBestSeller(ctx context.Context, p Product, on bool) (*Product, error) {
	const op = "update product"
	body, err := p.withField("is_bestseller", on)
	if err != nil {
		return nil, &Error{Op: op, Err: err}
	}
	cl, err := jsonCall(op, http.MethodPut, "/products/"+strconv.Itoa(p.ID), body)
	if err != nil {
		return nil, err
	}
	var updated Product
	if err := c.do(ctx, cl, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// DeleteProduct removes product id.
func (c *Client) DeleteProduct(ctx context.Context, id int) error {
	return c.do(ctx, deleteCall("delete product", "/products/"+strconv.Itoa(id)), nil)
}

// UploadImage sends r as multipart field "file" and returns the hosted URL.
func (c *Client) UploadImage(ctx context.Context, filename string, r io.Reader) (*Upload, error) {
	const op = "upload image"

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filepath.Base(filename))
	if err != nil {
		return nil, &Error{Op: op, Err: fmt.Errorf("creating form file: %w", err)}
	}
	if _, err := io.Copy(part, r); err != nil {
		return nil, &Error{Op: op, Err: fmt.Errorf("reading %s: %w", filename, err)}
	}
	if err := mw.Close(); err != nil {
		return nil, &Error{Op: op, Err: fmt.Errorf("closing form: %w", err)}
	}

	cl := call{
		op:          op,
		method:      http.MethodPost,
		path:        "/upload/",
		body:        &buf,
		contentType: mw.FormDataContentType(),
	}
	var up Upload
	if err := c.do(ctx, cl, &up); err != nil {
		return nil, err
	}
	if up.URL == "" {
		return nil, &Error{Op: op, Err: fmt.Errorf("response has no url")}
	}
	return &up, nil
}

// ListCountries returns origin-country names for suggestions.
func (c *Client) ListCountries(ctx context.Context) ([]string, error) {
	cl, err := jsonCall("fetch countries", http.MethodGet, "/countries/", nil)
	if err != nil {
		return nil, err
	}
	var countries []Country
	if err := c.do(ctx, cl, &countries); err != nil {
		return nil, err
	}
	names := make([]string, 0, len(countries))
	for _, country := range countries {
		if country.Name != "" {
			names = append(names, country.Name)
		}
	}
	return names, nil
}
