package client

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"

	"github.com/smnsjas/go-dspace/auth"
	dlog "github.com/smnsjas/go-dspace/internal/log"
	"github.com/smnsjas/go-dspace/resource"
	"github.com/smnsjas/go-dspace/transport"
)

// Client is a DSpace REST session.
//
// A Client is safe for concurrent use. Requests observe the session token
// current at the moment they are dispatched.
type Client struct {
	mu sync.Mutex

	baseURL     string
	baseURI     *url.URL
	transport   *transport.HTTPTransport
	initialized bool

	tokens auth.TokenStore

	logger   *slog.Logger
	user     string
	security *SecurityLogger
}

// New creates a client for baseURL. One trailing slash is removed from
// baseURL. A nil tr makes Init build a default transport.
//
// The client is not usable until Init succeeds.
func New(baseURL string, tr *transport.HTTPTransport, opts ...Option) *Client {
	c := &Client{
		baseURL:   normalizeBaseURL(baseURL),
		transport: tr,
		logger:    dlog.Discard(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.security = NewSecurityLogger(c.logger, c.user, c.baseURL)
	return c
}

// Open creates and initializes a client with a default transport.
func Open(baseURL string, opts ...Option) (*Client, error) {
	c := New(baseURL, nil, opts...)
	if err := c.Init(); err != nil {
		return nil, err
	}
	return c, nil
}

// Init prepares the client for network calls: it parses the base URL,
// builds the default transport when none was supplied and installs the
// session token filter on the transport.
//
// A base URL that is not an absolute http or https URL yields an
// *AddressParseError and leaves the transport untouched. Calling Init
// again after it succeeded does nothing.
func (c *Client) Init() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.initialized {
		return nil
	}
	if c.baseURL == "" {
		return ErrEmptyBaseURL
	}

	u, err := parseBaseURL(c.baseURL)
	if err != nil {
		c.security.Session(context.Background(), SubtypeSessionInit, OutcomeFailure, map[string]any{
			"error": err.Error(),
		})
		return err
	}

	if c.transport == nil {
		c.transport = transport.NewHTTPTransport(transport.WithLogger(c.logger))
	}
	c.transport.Use(auth.NewTokenAuth(&c.tokens).Middleware())

	c.baseURI = u
	c.initialized = true

	c.security.Session(context.Background(), SubtypeSessionInit, OutcomeSuccess, nil)
	return nil
}

// BaseURL returns the normalized base URL.
func (c *Client) BaseURL() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.baseURL
}

// SetBaseURL points the client at another repository. After Init the new
// URL is parsed immediately; on failure the previous endpoint is kept.
func (c *Client) SetBaseURL(baseURL string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	normalized := normalizeBaseURL(baseURL)
	if !c.initialized {
		c.baseURL = normalized
		c.security.SetTarget(normalized)
		return nil
	}
	if normalized == "" {
		return ErrEmptyBaseURL
	}
	u, err := parseBaseURL(normalized)
	if err != nil {
		return err
	}
	c.baseURL = normalized
	c.baseURI = u
	c.security.SetTarget(normalized)
	return nil
}

// BaseURI returns a copy of the parsed base URL, or nil before Init.
func (c *Client) BaseURI() *url.URL {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.baseURI == nil {
		return nil
	}
	u := *c.baseURI
	return &u
}

// Transport returns the transport, or nil if none was supplied and Init has
// not run.
func (c *Client) Transport() *transport.HTTPTransport {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.transport
}

// SetTransport replaces the transport. It must be called before Init.
func (c *Client) SetTransport(tr *transport.HTTPTransport) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.initialized {
		return ErrAlreadyInitialized
	}
	c.transport = tr
	return nil
}

// IsInitialized reports whether Init has succeeded.
func (c *Client) IsInitialized() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.initialized
}

// binding returns the transport and endpoint for resource accessors. It is
// unbound before Init, so every call through it fails with ErrNotInitialized.
func (c *Client) binding() resource.Binding {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.initialized {
		return resource.Binding{}
	}
	u := *c.baseURI
	return resource.Binding{Transport: c.transport, Base: &u}
}

// Root returns the accessor for the API root: status, test and raw login/logout.
func (c *Client) Root() *resource.Root {
	return resource.NewRoot(c.binding())
}

func (c *Client) Communities() *resource.Communities {
	return resource.NewCommunities(c.binding())
}

func (c *Client) Collections() *resource.Collections {
	return resource.NewCollections(c.binding())
}

func (c *Client) Items() *resource.Items {
	return resource.NewItems(c.binding())
}

func (c *Client) Bitstreams() *resource.Bitstreams {
	return resource.NewBitstreams(c.binding())
}

// Handle returns the accessor resolving persistent handles.
func (c *Client) Handle() *resource.Handle {
	return resource.NewHandle(c.binding())
}

func normalizeBaseURL(s string) string {
	return strings.TrimSuffix(strings.TrimSpace(s), "/")
}

func parseBaseURL(raw string) (*url.URL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, &AddressParseError{Address: raw, Err: err}
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, &AddressParseError{
			Address: raw,
			Err:     fmt.Errorf("parse %q: scheme must be http or https", raw),
		}
	}
	if u.Host == "" {
		return nil, &AddressParseError{
			Address: raw,
			Err:     fmt.Errorf("parse %q: missing host", raw),
		}
	}
	return u, nil
}
