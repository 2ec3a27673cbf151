// ABOUTME: Tests for the request layer against an httptest fake API
// ABOUTME: Covers header rules, 401 handling, typed failures, and each operation

package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memTokens implements TokenSource for testing.
type memTokens struct {
	mu      sync.Mutex
	token   string
	cleared int
}

func (m *memTokens) Token() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token, nil
}

func (m *memTokens) ClearToken() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = ""
	m.cleared++
	return nil
}

// recorded captures what the fake server saw.
type recorded struct {
	method        string
	path          string
	contentType   string
	authorization string
	requestID     string
	body          []byte
}

func newTestServer(t *testing.T, status int, response string) (*httptest.Server, *[]recorded) {
	t.Helper()
	var mu sync.Mutex
	var seen []recorded

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		seen = append(seen, recorded{
			method:        r.Method,
			path:          r.URL.Path,
			contentType:   r.Header.Get("Content-Type"),
			authorization: r.Header.Get("Authorization"),
			requestID:     r.Header.Get("X-Request-ID"),
			body:          body,
		})
		mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, response)
	}))
	t.Cleanup(srv.Close)
	return srv, &seen
}

func TestClient_ListProducts_Headers(t *testing.T) {
	srv, seen := newTestServer(t, http.StatusOK, `[{"id":1,"name":"Agar","category":"Food Ingredients"}]`)
	tokens := &memTokens{token: "tok-1"}
	client := New(srv.URL+"/", tokens)

	products, err := client.ListProducts(context.Background())
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "Agar", products[0].Name)

	require.Len(t, *seen, 1)
	req := (*seen)[0]
	assert.Equal(t, http.MethodGet, req.method)
	assert.Equal(t, "/products/", req.path)
	assert.Equal(t, "application/json", req.contentType)
	assert.Equal(t, "Bearer tok-1", req.authorization)
	assert.NotEmpty(t, req.requestID)
}

func TestClient_NoTokenNoAuthorization(t *testing.T) {
	srv, seen := newTestServer(t, http.StatusOK, `[]`)
	client := New(srv.URL, &memTokens{})

	_, err := client.ListSettings(context.Background())
	require.NoError(t, err)
	assert.Empty(t, (*seen)[0].authorization)
}

func TestClient_DeleteHasNoContentType(t *testing.T) {
	srv, seen := newTestServer(t, http.StatusOK, `{"ok":true}`)
	client := New(srv.URL, &memTokens{token: "tok"})

	require.NoError(t, client.DeleteProduct(context.Background(), 12))
	require.NoError(t, client.DeleteInquiry(context.Background(), 4))

	require.Len(t, *seen, 2)
	assert.Equal(t, http.MethodDelete, (*seen)[0].method)
	assert.Equal(t, "/products/12", (*seen)[0].path)
	assert.Empty(t, (*seen)[0].contentType)
	assert.Equal(t, "Bearer tok", (*seen)[0].authorization)
	assert.Equal(t, "/inquiries/4", (*seen)[1].path)
	assert.Empty(t, (*seen)[1].contentType)
}

func TestClient_CreateAndUpdateProduct(t *testing.T) {
	srv, seen := newTestServer(t, http.StatusOK, `{"id":9,"name":"Pectin","country_of_origin":"India, Brazil"}`)
	client := New(srv.URL, &memTokens{token: "tok"})

	created, err := client.CreateProduct(context.Background(), Product{
		ID:              3,
		Name:            "Pectin",
		CountryOfOrigin: List{"India", "Brazil"},
	})
	require.NoError(t, err)
	assert.Equal(t, 9, created.ID)
	assert.Equal(t, List{"India", "Brazil"}, created.CountryOfOrigin)

	_, err = client.UpdateProduct(context.Background(), 9, *created)
	require.NoError(t, err)

	require.Len(t, *seen, 2)
	assert.Equal(t, http.MethodPost, (*seen)[0].method)
	assert.Equal(t, "/products/", (*seen)[0].path)
	var sent map[string]any
	require.NoError(t, json.Unmarshal((*seen)[0].body, &sent))
	assert.NotContains(t, sent, "id", "create never sends an id")
	assert.Equal(t, "India, Brazil", sent["country_of_origin"])

	assert.Equal(t, http.MethodPut, (*seen)[1].method)
	assert.Equal(t, "/products/9", (*seen)[1].path)
}

func TestClient_SetBestSellerResendsRecordUntouched(t *testing.T) {
	stored := `{"id":7,"name":"Pectin","country_of_origin":"India,Brazil","packaging":",",` +
		`"generic_specs":"Food grade\npH: 6.5\nMoisture:","image":"a.png,b.png","is_bestseller":false,"extra":{"kept":true}}`
	srv, seen := newTestServer(t, http.StatusOK, stored)
	client := New(srv.URL, &memTokens{token: "tok"})

	p, err := client.GetProduct(context.Background(), 7)
	require.NoError(t, err)
	_, err = client.SetBestSeller(context.Background(), *p, true)
	require.NoError(t, err)

	require.Len(t, *seen, 2)
	put := (*seen)[1]
	assert.Equal(t, http.MethodPut, put.method)
	assert.Equal(t, "/products/7", put.path)

	var want, got map[string]any
	require.NoError(t, json.Unmarshal([]byte(stored), &want))
	require.NoError(t, json.Unmarshal(put.body, &got))
	assert.Equal(t, true, got["is_bestseller"])
	delete(want, "is_bestseller")
	delete(got, "is_bestseller")
	assert.Equal(t, want, got)
}

func TestClient_SetBestSellerEncodesLocalProduct(t *testing.T) {
	srv, seen := newTestServer(t, http.StatusOK, `{"id":3}`)
	client := New(srv.URL, &memTokens{token: "tok"})

	_, err := client.SetBestSeller(context.Background(), Product{ID: 3, Name: "Agar", Categories: List{"Dairy"}}, true)
	require.NoError(t, err)

	var sent map[string]any
	require.NoError(t, json.Unmarshal((*seen)[0].body, &sent))
	assert.Equal(t, "/products/3", (*seen)[0].path)
	assert.Equal(t, true, sent["is_bestseller"])
	assert.Equal(t, "Dairy", sent["category"])
}

func TestClient_UploadImage(t *testing.T) {
	var gotName, gotContent, gotType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotType = r.Header.Get("Content-Type")
		file, header, err := r.FormFile("file")
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		defer file.Close()
		data, _ := io.ReadAll(file)
		gotName = header.Filename
		gotContent = string(data)
		_, _ = io.WriteString(w, `{"url":"https://cdn.example/uploads/logo.png"}`)
	}))
	defer srv.Close()

	client := New(srv.URL, &memTokens{token: "tok"})
	up, err := client.UploadImage(context.Background(), "/home/me/logo.png", strings.NewReader("PNGDATA"))
	require.NoError(t, err)

	assert.Equal(t, "https://cdn.example/uploads/logo.png", up.URL)
	assert.Equal(t, "logo.png", gotName)
	assert.Equal(t, "PNGDATA", gotContent)
	assert.True(t, strings.HasPrefix(gotType, "multipart/form-data; boundary="))
}

func TestClient_ListCountries(t *testing.T) {
	srv, _ := newTestServer(t, http.StatusOK, `[{"name":"India"},{"name":""},{"name":"Brazil"}]`)
	client := New(srv.URL, &memTokens{})

	names, err := client.ListCountries(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"India", "Brazil"}, names)
}

func TestClient_UpdateSetting(t *testing.T) {
	srv, seen := newTestServer(t, http.StatusOK, `{"key":"facebook_url","value":"https://fb.com/sgu"}`)
	client := New(srv.URL, &memTokens{token: "tok"})

	s, err := client.UpdateSetting(context.Background(), "facebook_url", "https://fb.com/sgu")
	require.NoError(t, err)
	assert.Equal(t, "https://fb.com/sgu", s.Value)
	assert.JSONEq(t, `{"key":"facebook_url","value":"https://fb.com/sgu"}`, string((*seen)[0].body))
}

func TestClient_UnauthorizedFromEveryOperation(t *testing.T) {
	ops := map[string]func(c *Client) error{
		"ListProducts":  func(c *Client) error { _, err := c.ListProducts(context.Background()); return err },
		"GetProduct":    func(c *Client) error { _, err := c.GetProduct(context.Background(), 1); return err },
		"CreateProduct": func(c *Client) error { _, err := c.CreateProduct(context.Background(), Product{}); return err },
		"UpdateProduct": func(c *Client) error { _, err := c.UpdateProduct(context.Background(), 1, Product{}); return err },
		"SetBestSeller": func(c *Client) error { _, err := c.SetBestSeller(context.Background(), Product{ID: 1}, true); return err },
		"DeleteProduct": func(c *Client) error { return c.DeleteProduct(context.Background(), 1) },
		"UploadImage": func(c *Client) error {
			_, err := c.UploadImage(context.Background(), "a.png", strings.NewReader("x"))
			return err
		},
		"ListCountries": func(c *Client) error { _, err := c.ListCountries(context.Background()); return err },
		"ListInquiries": func(c *Client) error { _, err := c.ListInquiries(context.Background()); return err },
		"DeleteInquiry": func(c *Client) error { return c.DeleteInquiry(context.Background(), 1) },
		"ListSettings":  func(c *Client) error { _, err := c.ListSettings(context.Background()); return err },
		"UpdateSetting": func(c *Client) error { _, err := c.UpdateSetting(context.Background(), "k", "v"); return err },
		"Me":            func(c *Client) error { _, err := c.Me(context.Background()); return err },
	}

	srv, _ := newTestServer(t, http.StatusUnauthorized, `{"detail":"Could not validate credentials"}`)

	for name, op := range ops {
		t.Run(name, func(t *testing.T) {
			tokens := &memTokens{token: "stale"}
			logouts := 0
			client := New(srv.URL, tokens, WithUnauthorizedHandler(func() { logouts++ }))

			err := op(client)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrUnauthorized)
			assert.Equal(t, http.StatusUnauthorized, StatusCode(err))

			token, _ := tokens.Token()
			assert.Empty(t, token, "stored token must be cleared")
			assert.Equal(t, 1, tokens.cleared)
			assert.Equal(t, 1, logouts, "logout handler must fire")
		})
	}
}

func TestClient_NonAuthFailureKeepsToken(t *testing.T) {
	srv, _ := newTestServer(t, http.StatusInternalServerError, `{"detail":"database unavailable"}`)
	tokens := &memTokens{token: "tok"}
	logouts := 0
	client := New(srv.URL, tokens, WithUnauthorizedHandler(func() { logouts++ }))

	_, err := client.ListProducts(context.Background())
	require.Error(t, err)

	var apiErr *Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "fetch products", apiErr.Op)
	assert.Equal(t, http.StatusInternalServerError, apiErr.Status)
	assert.Equal(t, "Failed to fetch products: database unavailable", err.Error())
	assert.NotErrorIs(t, err, ErrUnauthorized)

	token, _ := tokens.Token()
	assert.Equal(t, "tok", token)
	assert.Zero(t, logouts)
}

func TestClient_ValidationDetail(t *testing.T) {
	srv, _ := newTestServer(t, http.StatusUnprocessableEntity, `{"detail":[{"loc":["body","name"],"msg":"field required"}]}`)
	client := New(srv.URL, &memTokens{})

	_, err := client.CreateProduct(context.Background(), Product{})
	assert.EqualError(t, err, "Failed to create product: field required")
}

func TestClient_PlainTextErrorBody(t *testing.T) {
	srv, _ := newTestServer(t, http.StatusBadGateway, `<html>bad gateway</html>`)
	client := New(srv.URL, &memTokens{})

	err := client.DeleteProduct(context.Background(), 1)
	assert.EqualError(t, err, "Failed to delete product")
	assert.Equal(t, http.StatusBadGateway, StatusCode(err))
}

func TestClient_NetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	client := New(url, &memTokens{token: "tok"})
	_, err := client.ListInquiries(context.Background())
	require.Error(t, err)
	assert.Equal(t, "Failed to fetch inquiries", err.Error())
	assert.Zero(t, StatusCode(err))
}

func TestClient_DecodeFailure(t *testing.T) {
	srv, _ := newTestServer(t, http.StatusOK, `{not json`)
	client := New(srv.URL, &memTokens{})

	_, err := client.GetProduct(context.Background(), 1)
	assert.EqualError(t, err, "Failed to fetch product")
}

func TestClient_CancelledContext(t *testing.T) {
	srv, seen := newTestServer(t, http.StatusOK, `[]`)
	client := New(srv.URL, &memTokens{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.ListProducts(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, *seen)
}

func TestClient_Login(t *testing.T) {
	var form string
	var contentType, authorization string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/login", r.URL.Path)
		body, _ := io.ReadAll(r.Body)
		form = string(body)
		contentType = r.Header.Get("Content-Type")
		authorization = r.Header.Get("Authorization")
		_, _ = io.WriteString(w, `{"access_token":"new-token","token_type":"bearer"}`)
	}))
	defer srv.Close()

	client := New(srv.URL, &memTokens{token: "old"})
	tok, err := client.Login(context.Background(), "admin", "p&ss word")
	require.NoError(t, err)

	assert.Equal(t, "new-token", tok.AccessToken)
	assert.Equal(t, "application/x-www-form-urlencoded", contentType)
	assert.Equal(t, "password=p%26ss+word&username=admin", form)
	assert.Empty(t, authorization)
}

func TestClient_LoginRejectedDoesNotLogout(t *testing.T) {
	srv, _ := newTestServer(t, http.StatusUnauthorized, `{"detail":"Incorrect username or password"}`)
	tokens := &memTokens{token: "keep"}
	logouts := 0
	client := New(srv.URL, tokens, WithUnauthorizedHandler(func() { logouts++ }))

	_, err := client.Login(context.Background(), "admin", "wrong")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	assert.EqualError(t, err, "Failed to log in: Incorrect username or password")
	assert.Zero(t, logouts)
	assert.Zero(t, tokens.cleared)
}

func TestClient_MeWithToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer explicit" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = io.WriteString(w, `{"username":"admin","role":"admin"}`)
	}))
	defer srv.Close()

	tokens := &memTokens{token: "stored"}
	logouts := 0
	client := New(srv.URL, tokens, WithUnauthorizedHandler(func() { logouts++ }))

	u, err := client.MeWithToken(context.Background(), "explicit")
	require.NoError(t, err)
	assert.Equal(t, User{Username: "admin", Role: "admin"}, *u)

	_, err = client.MeWithToken(context.Background(), "wrong")
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.Zero(t, logouts, "explicit-token verification does not force logout")
	assert.Zero(t, tokens.cleared)
}
