package auth

import (
	"log/slog"
	"net/http"
	"sync"
)

// BasicAuth sends HTTP Basic credentials on every request, for repositories
// published behind a password-protected web server.
type BasicAuth struct {
	creds  Credentials
	logger *slog.Logger
}

// NewBasicAuth creates a new Basic authentication handler.
func NewBasicAuth(creds Credentials) *BasicAuth {
	return &BasicAuth{creds: creds}
}

// WithLogger sets the logger used for the cleartext warning.
func (a *BasicAuth) WithLogger(logger *slog.Logger) *BasicAuth {
	a.logger = logger
	return a
}

// Name returns the authentication scheme name.
func (a *BasicAuth) Name() string {
	return "Basic"
}

// Transport wraps an http.RoundTripper with Basic authentication.
func (a *BasicAuth) Transport(base http.RoundTripper) http.RoundTripper {
	logger := a.logger
	if logger == nil {
		logger = slog.Default()
	}
	return &basicTransport{
		base:   base,
		creds:  a.creds,
		logger: logger,
	}
}

type basicTransport struct {
	base     http.RoundTripper
	creds    Credentials
	logger   *slog.Logger
	warnOnce sync.Once
}

// RoundTrip implements http.RoundTripper.
func (t *basicTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.URL.Scheme != "https" {
		t.warnOnce.Do(func() {
			t.logger.Warn("basic authentication over plain HTTP, credentials are not encrypted",
				"host", req.URL.Host)
		})
	}

	r := req.Clone(req.Context())
	r.SetBasicAuth(t.creds.Username, t.creds.Password)
	return t.base.RoundTrip(r)
}
