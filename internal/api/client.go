// ABOUTME: REST client for the catalog API with bearer token injection
// ABOUTME: Clears the stored token and signals logout on any 401 response

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

// maxErrorBody bounds how much of a failed response is read for its detail.
const maxErrorBody = 64 << 10

// TokenSource is the durable storage holding the bearer token.
type TokenSource interface {
	Token() (string, error)
	ClearToken() error
}

// Client issues one request per call against the catalog API.
// There are no retries and no timeout beyond what the http.Client or the
// caller's context impose.
type Client struct {
	baseURL        string
	http           *http.Client
	tokens         TokenSource
	logger         *slog.Logger
	onUnauthorized func()
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces http.DefaultClient.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithLogger sets the logger. Pass nil for slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithUnauthorizedHandler registers fn to run after any 401 has cleared the token.
func WithUnauthorizedHandler(fn func()) Option {
	return func(c *Client) { c.onUnauthorized = fn }
}

// New creates a Client for baseURL.
func New(baseURL string, tokens TokenSource, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    http.DefaultClient,
		tokens:  tokens,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With("component", "api")
	return c
}

// BaseURL returns the endpoint this client talks to.
func (c *Client) BaseURL() string { return c.baseURL }

// SetUnauthorizedHandler replaces the 401 hook after construction.
func (c *Client) SetUnauthorizedHandler(fn func()) { c.onUnauthorized = fn }

const contentTypeJSON = "application/json"

// call describes one request.
type call struct {
	op          string
	method      string
	path        string
	body        io.Reader
	contentType string
	// token, when set, replaces the stored token and a 401 is returned to the
	// caller without the global logout.
	token string
	// anonymous calls carry no Authorization header and never trigger the
	// global logout.
	anonymous bool
}

// jsonCall builds a call with a JSON body (or none) and the JSON content type.
func jsonCall(op, method, path string, in any) (call, error) {
	c := call{op: op, method: method, path: path, contentType: contentTypeJSON}
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return call{}, &Error{Op: op, Err: fmt.Errorf("encoding request: %w", err)}
		}
		c.body = bytes.NewReader(data)
	}
	return c, nil
}

// deleteCall builds an empty-body DELETE, which carries no content type.
func deleteCall(op, path string) call {
	return call{op: op, method: http.MethodDelete, path: path}
}

func (c *Client) do(ctx context.Context, cl call, out any) error {
	req, err := http.NewRequestWithContext(ctx, cl.method, c.baseURL+cl.path, cl.body)
	if err != nil {
		return &Error{Op: cl.op, Err: fmt.Errorf("creating request: %w", err)}
	}

	requestID := uuid.New().String()
	req.Header.Set("X-Request-ID", requestID)
	req.Header.Set("Accept", contentTypeJSON)
	if cl.contentType != "" {
		req.Header.Set("Content-Type", cl.contentType)
	}

	explicitToken := cl.token != "" || cl.anonymous
	token := cl.token
	if !explicitToken && c.tokens != nil {
		token, err = c.tokens.Token()
		if err != nil {
			c.logger.Warn("reading stored token", "error", err)
			token = ""
		}
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Debug("request failed", "op", cl.op, "method", cl.method, "path", cl.path, "request_id", requestID, "error", err)
		return &Error{Op: cl.op, Err: err}
	}
	defer resp.Body.Close()

	c.logger.Debug("request completed",
		"op", cl.op,
		"method", cl.method,
		"path", cl.path,
		"status", resp.StatusCode,
		"request_id", requestID)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		if resp.StatusCode == http.StatusUnauthorized {
			if !explicitToken {
				c.handleUnauthorized()
			}
			return &Error{Op: cl.op, Status: resp.StatusCode, Detail: errorDetail(body), Err: ErrUnauthorized}
		}
		return statusError(cl.op, resp.StatusCode, body)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return &Error{Op: cl.op, Status: resp.StatusCode, Err: fmt.Errorf("decoding response: %w", err)}
	}
	return nil
}

// handleUnauthorized clears the stored token and signals the session.
func (c *Client) handleUnauthorized() {
	if c.tokens != nil {
		if err := c.tokens.ClearToken(); err != nil {
			c.logger.Warn("clearing token after 401", "error", err)
		}
	}
	c.logger.Info("session rejected by API, logging out")
	if c.onUnauthorized != nil {
		c.onUnauthorized()
	}
}
