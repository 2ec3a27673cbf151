// ABOUTME: Typed failures raised by the request layer
// ABOUTME: Every failed call surfaces as *Error carrying the operation name

package api

import (
	"errors"
	"fmt"

	"github.com/tidwall/gjson"
)

// Request layer errors
var (
	ErrUnauthorized       = errors.New("unauthorized")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// Error is a failed API operation. Op is the human operation name
// ("fetch products"), Status the HTTP status when a response arrived.
type Error struct {
	Op     string
	Status int
	Detail string
	Err    error
}

func (e *Error) Error() string {
	msg := "Failed to " + e.Op
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// StatusCode returns the HTTP status of err, or 0 if err carries none.
func StatusCode(err error) int {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

// statusError builds an *Error from a non-success response body.
func statusError(op string, status int, body []byte) *Error {
	e := &Error{Op: op, Status: status, Detail: errorDetail(body)}
	if e.Detail == "" {
		e.Err = fmt.Errorf("status %d", status)
	} else {
		e.Err = fmt.Errorf("status %d: %s", status, e.Detail)
	}
	return e
}

// errorDetail extracts the server's explanation from an error body.
// FastAPI sends {"detail": "..."} or {"detail": [{"msg": "..."}]}.
func errorDetail(body []byte) string {
	if !gjson.ValidBytes(body) {
		return ""
	}
	detail := gjson.GetBytes(body, "detail")
	switch {
	case detail.Type == gjson.String:
		return detail.String()
	case detail.IsArray():
		return gjson.GetBytes(body, "detail.0.msg").String()
	}
	return gjson.GetBytes(body, "message").String()
}
