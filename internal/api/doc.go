// Package api is the request layer between sgu-admin and the catalog API.
//
// # Overview
//
// Client exposes one method per remote operation. Each call makes exactly one
// HTTP attempt: no retries, no backoff, and no timeout other than the
// caller's context or a configured http.Client.
//
// # Headers
//
//   - Content-Type: application/json on every call except multipart uploads
//     (which send their own boundary type) and empty-body deletes
//   - Authorization: Bearer <token> whenever durable storage holds a token
//   - X-Request-ID: a fresh UUID per call for server-side correlation
//
// # Failures
//
// Every failure is an *Error whose message reads "Failed to <op>". A 401 from
// any call that used the stored token also clears that token and runs the
// unauthorized handler, which the session store uses to force a logout:
//
//	client := api.New(baseURL, tokens, api.WithUnauthorizedHandler(sess.ForceLogout))
//
// errors.Is(err, api.ErrUnauthorized) identifies that case. Network and decode
// failures are reported the same way as status failures.
//
// # Wire Encoding
//
// The API stores several lists as delimited strings. List (", "-joined),
// URLList (","-joined) and Specs (newline-separated "name: value" rows)
// convert at the JSON boundary so callers work with slices only.
package api
