package transport

import (
	"log/slog"
	"net/http"
	"time"

	dlog "github.com/smnsjas/go-dspace/internal/log"
)

// RoundTripFunc adapts a function to http.RoundTripper.
type RoundTripFunc func(*http.Request) (*http.Response, error)

// RoundTrip implements http.RoundTripper.
func (f RoundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

// Middleware intercepts an outgoing request. It may modify a clone of the
// request, short-circuit with its own response, or hand off to next.
//
// Middleware must not mutate req in place; use req.Clone.
type Middleware func(req *http.Request, next RoundTripFunc) (*http.Response, error)

// chain is the http.Client's Transport. It snapshots the middleware list on
// every request so middleware added later applies to later requests.
type chain struct {
	t *HTTPTransport
}

func (c chain) RoundTrip(req *http.Request) (*http.Response, error) {
	c.t.mu.RLock()
	mws := make([]Middleware, len(c.t.middleware))
	copy(mws, c.t.middleware)
	base := c.t.base
	c.t.mu.RUnlock()

	next := RoundTripFunc(base.RoundTrip)
	for i := len(mws) - 1; i >= 0; i-- {
		mw, inner := mws[i], next
		next = func(r *http.Request) (*http.Response, error) {
			return mw(r, inner)
		}
	}
	return next(req)
}

// HeaderMiddleware sets a fixed header on every request.
func HeaderMiddleware(key, value string) Middleware {
	return func(req *http.Request, next RoundTripFunc) (*http.Response, error) {
		r := req.Clone(req.Context())
		r.Header.Set(key, value)
		return next(r)
	}
}

// LoggingMiddleware logs method, URL, status and duration at debug level.
// Header values that carry credentials are redacted.
func LoggingMiddleware(logger *slog.Logger) Middleware {
	return func(req *http.Request, next RoundTripFunc) (*http.Response, error) {
		if logger == nil || !logger.Enabled(req.Context(), slog.LevelDebug) {
			return next(req)
		}

		start := time.Now()
		resp, err := next(req)
		attrs := []any{
			"method", req.Method,
			"url", req.URL.Redacted(),
			"headers", dlog.RedactHeaders(req.Header),
			"duration", time.Since(start),
		}
		if err != nil {
			logger.DebugContext(req.Context(), "http request failed", append(attrs, "error", err)...)
			return resp, err
		}
		logger.DebugContext(req.Context(), "http request", append(attrs, "status", resp.StatusCode)...)
		return resp, nil
	}
}
