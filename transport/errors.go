package transport

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrUnauthorized is returned when the server responds with 401 Unauthorized.
	// Use errors.Is(err, ErrUnauthorized) to check for authentication failures.
	ErrUnauthorized = errors.New("transport: authentication failed (401 Unauthorized)")

	// ErrForbidden is matched by a 403 Forbidden response.
	ErrForbidden = errors.New("transport: access denied (403 Forbidden)")

	// ErrNotFound is matched by a 404 Not Found response.
	ErrNotFound = errors.New("transport: resource not found (404 Not Found)")

	// ErrTimeout is returned when no response headers arrive within the
	// transport timeout.
	ErrTimeout = errors.New("transport: timed out waiting for response")
)

// maxBodyPreview bounds the response body kept on an HTTPError.
const maxBodyPreview = 3000

// HTTPError is returned for any response with status 400 or above.
type HTTPError struct {
	// Method and URL identify the failed request.
	Method string
	URL    string

	// StatusCode is the HTTP status code returned by the server.
	StatusCode int

	// Body is a preview of the response body, truncated to 3000 bytes.
	Body string
}

func newHTTPError(req *http.Request, resp *http.Response, body []byte) *HTTPError {
	preview := string(body)
	if len(preview) > maxBodyPreview {
		preview = preview[:maxBodyPreview] + "..."
	}
	return &HTTPError{
		Method:     req.Method,
		URL:        req.URL.Redacted(),
		StatusCode: resp.StatusCode,
		Body:       preview,
	}
}

// Error implements the error interface.
func (e *HTTPError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("transport: %s %s: HTTP %d", e.Method, e.URL, e.StatusCode)
	}
	return fmt.Sprintf("transport: %s %s: HTTP %d: %s", e.Method, e.URL, e.StatusCode, e.Body)
}

// Is lets errors.Is match the status sentinels.
func (e *HTTPError) Is(target error) bool {
	switch target {
	case ErrUnauthorized:
		return e.StatusCode == http.StatusUnauthorized
	case ErrForbidden:
		return e.StatusCode == http.StatusForbidden
	case ErrNotFound:
		return e.StatusCode == http.StatusNotFound
	}
	return false
}

// IsServerError returns true for 5xx responses.
func (e *HTTPError) IsServerError() bool {
	return e.StatusCode >= 500
}

// StatusCode extracts the HTTP status code from err, or 0 if err is not an HTTPError.
func StatusCode(err error) int {
	var he *HTTPError
	if errors.As(err, &he) {
		return he.StatusCode
	}
	return 0
}
