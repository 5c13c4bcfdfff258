package auth

import (
	"net/http"
	"sync"

	"github.com/smnsjas/go-dspace/transport"
)

// HeaderToken is the request header carrying the session token.
const HeaderToken = "rest-dspace-token"

// TokenStore holds the session token for one client. The zero value is an
// empty store ready for use.
type TokenStore struct {
	mu    sync.RWMutex
	token string
}

// Token returns the current token, or "" when unauthenticated.
func (s *TokenStore) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// Set replaces the token. An empty token clears it.
func (s *TokenStore) Set(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
}

// Clear removes the token.
func (s *TokenStore) Clear() {
	s.Set("")
}

// Present reports whether a token is held.
func (s *TokenStore) Present() bool {
	return s.Token() != ""
}

// TokenAuth attaches the session token to outgoing requests.
//
// The token is read from the store when each request is dispatched, so a
// login or logout affects every later request without re-registering.
type TokenAuth struct {
	store *TokenStore
}

// NewTokenAuth creates a token filter reading from store.
func NewTokenAuth(store *TokenStore) *TokenAuth {
	return &TokenAuth{store: store}
}

// Name returns the authentication scheme name.
func (a *TokenAuth) Name() string {
	return "DSpaceToken"
}

// Middleware returns the filter as transport middleware.
func (a *TokenAuth) Middleware() transport.Middleware {
	return func(req *http.Request, next transport.RoundTripFunc) (*http.Response, error) {
		token := a.store.Token()
		if token == "" {
			return next(req)
		}
		reqCopy := req.Clone(req.Context())
		reqCopy.Header.Set(HeaderToken, token)
		return next(reqCopy)
	}
}

// Transport wraps an http.RoundTripper with the token filter.
func (a *TokenAuth) Transport(base http.RoundTripper) http.RoundTripper {
	mw := a.Middleware()
	return transport.RoundTripFunc(func(req *http.Request) (*http.Response, error) {
		return mw(req, base.RoundTrip)
	})
}
