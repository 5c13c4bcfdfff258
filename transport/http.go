package transport

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"
)

const (
	// ContentTypeJSON is the content type for JSON request and response bodies.
	ContentTypeJSON = "application/json"

	// ContentTypeXML is the content type for XML request and response bodies.
	ContentTypeXML = "application/xml"

	// ContentTypeText is the content type for plain text bodies, e.g. the login token.
	ContentTypeText = "text/plain"

	// ContentTypeOctetStream is the content type for raw bitstream data.
	ContentTypeOctetStream = "application/octet-stream"

	// DefaultTimeout is the default HTTP request timeout.
	DefaultTimeout = 60 * time.Second

	// DefaultUserAgent is sent on every request unless overridden with WithUserAgent.
	DefaultUserAgent = "go-dspace/1.0"

	// defaultBufferSize is the initial size for pooled buffers.
	defaultBufferSize = 32 * 1024 // 32KB
)

// bufferPool is a pool of reusable bytes.Buffer to reduce allocations.
var bufferPool = sync.Pool{
	New: func() interface{} {
		return bytes.NewBuffer(make([]byte, 0, defaultBufferSize))
	},
}

// readAllPooled reads from r using a pooled buffer and returns a copy of the data.
func readAllPooled(r io.Reader) ([]byte, error) {
	buf := bufferPool.Get().(*bytes.Buffer)
	defer func() {
		buf.Reset()
		bufferPool.Put(buf)
	}()

	if _, err := buf.ReadFrom(r); err != nil {
		return nil, err
	}

	// Return a copy since buf will be reused
	result := make([]byte, buf.Len())
	copy(result, buf.Bytes())
	return result, nil
}

// HTTPTransport is the HTTP client shared by the session client and every
// resource accessor it hands out.
//
// Outgoing requests pass through the registered middleware in registration
// order before reaching the base http.RoundTripper. Middleware may be added
// at any time; the chain is assembled per request.
type HTTPTransport struct {
	client  *http.Client
	timeout time.Duration

	mu         sync.RWMutex
	raw        http.RoundTripper
	wrappers   []Wrapper
	base       http.RoundTripper
	middleware []Middleware
	codecs     map[string]Codec
	userAgent  string
}

// HTTPTransportOption configures an HTTPTransport.
type HTTPTransportOption func(*HTTPTransport)

// NewHTTPTransport creates a new HTTP transport with the JSON and XML codecs
// registered and the given options applied.
func NewHTTPTransport(opts ...HTTPTransportOption) *HTTPTransport {
	t := &HTTPTransport{
		raw: &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			TLSClientConfig: &tls.Config{
				MinVersion: tls.VersionTLS12,
			},
			MaxIdleConns:        20,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
		},
		timeout:   DefaultTimeout,
		codecs:    make(map[string]Codec),
		userAgent: DefaultUserAgent,
	}
	// No client-wide Timeout: it would also cut off streamed bodies.
	t.client = &http.Client{Transport: chain{t: t}}

	t.RegisterCodec(JSONCodec{})
	t.RegisterCodec(XMLCodec{})

	for _, opt := range opts {
		opt(t)
	}
	t.rebuild()

	return t
}

// WithTimeout bounds each request. Do waits at most d for the response
// headers and leaves the body to the caller's context; Call applies d to the
// whole exchange including the body. Zero disables the limit.
func WithTimeout(d time.Duration) HTTPTransportOption {
	return func(t *HTTPTransport) {
		t.timeout = d
	}
}

// Timeout returns the configured request timeout.
func (t *HTTPTransport) Timeout() time.Duration {
	return t.timeout
}

// WithInsecureSkipVerify configures TLS to skip certificate verification.
// WARNING: Only use this for testing. Never use in production.
func WithInsecureSkipVerify(skip bool) HTTPTransportOption {
	return func(t *HTTPTransport) {
		if skip {
			fmt.Fprintf(os.Stderr, "WARNING: TLS certificate verification disabled. This is insecure and should only be used for testing.\n")
		}
		transport := t.ensureHTTPTransport()
		if transport.TLSClientConfig == nil {
			transport.TLSClientConfig = &tls.Config{
				MinVersion: tls.VersionTLS12,
			}
		}
		transport.TLSClientConfig.InsecureSkipVerify = skip
	}
}

// WithTLSConfig sets a custom TLS configuration. cfg is cloned, so later
// changes by the caller have no effect. A nil cfg is ignored.
// NOTE: MinVersion is enforced to be at least TLS 1.2.
func WithTLSConfig(cfg *tls.Config) HTTPTransportOption {
	return func(t *HTTPTransport) {
		if cfg == nil {
			return
		}
		cfg = cfg.Clone()
		if cfg.MinVersion < tls.VersionTLS12 {
			cfg.MinVersion = tls.VersionTLS12
		}
		t.ensureHTTPTransport().TLSClientConfig = cfg
	}
}

// WithProxy configures the proxy used for outgoing requests.
// An empty string keeps http.ProxyFromEnvironment, "direct" disables proxying,
// anything else is parsed as the proxy URL.
func WithProxy(proxyURL string) HTTPTransportOption {
	return func(t *HTTPTransport) {
		transport := t.ensureHTTPTransport()
		switch proxyURL {
		case "":
			transport.Proxy = http.ProxyFromEnvironment
		case "direct":
			transport.Proxy = nil
		default:
			u, err := url.Parse(proxyURL)
			if err != nil {
				fmt.Fprintf(os.Stderr, "WARNING: ignoring invalid proxy URL %q: %v\n", proxyURL, err)
				return
			}
			transport.Proxy = http.ProxyURL(u)
		}
	}
}

// WithUserAgent overrides the User-Agent header sent with every request.
func WithUserAgent(ua string) HTTPTransportOption {
	return func(t *HTTPTransport) {
		t.userAgent = ua
	}
}

// WithBaseTransport replaces the round tripper at the end of the middleware chain.
func WithBaseTransport(rt http.RoundTripper) HTTPTransportOption {
	return func(t *HTTPTransport) {
		t.raw = rt
		t.rebuild()
	}
}

// Wrapper wraps a round tripper, typically to add connection-level authentication.
type Wrapper interface {
	Transport(base http.RoundTripper) http.RoundTripper
}

// WithAuthenticator wraps the base round tripper with an authenticator such as
// Basic or NTLM credentials required by a proxy in front of the repository.
func WithAuthenticator(a Wrapper) HTTPTransportOption {
	return func(t *HTTPTransport) {
		t.wrappers = append(t.wrappers, a)
		t.rebuild()
	}
}

// WithMiddleware registers middleware at construction time.
func WithMiddleware(mw ...Middleware) HTTPTransportOption {
	return func(t *HTTPTransport) {
		t.Use(mw...)
	}
}

// WithLogger logs every request and response at debug level.
func WithLogger(logger *slog.Logger) HTTPTransportOption {
	return func(t *HTTPTransport) {
		t.Use(LoggingMiddleware(logger))
	}
}

// ensureHTTPTransport ensures the raw round tripper is an *http.Transport.
func (t *HTTPTransport) ensureHTTPTransport() *http.Transport {
	transport, ok := t.raw.(*http.Transport)
	if !ok {
		transport = &http.Transport{Proxy: http.ProxyFromEnvironment}
		t.raw = transport
		t.rebuild()
	}
	return transport
}

// rebuild applies the authentication wrappers to the raw round tripper.
func (t *HTTPTransport) rebuild() {
	t.mu.Lock()
	defer t.mu.Unlock()
	base := t.raw
	for _, w := range t.wrappers {
		base = w.Transport(base)
	}
	t.base = base
}

// Use appends middleware to the chain. It takes effect for the next request.
func (t *HTTPTransport) Use(mw ...Middleware) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.middleware = append(t.middleware, mw...)
}

// RegisterCodec registers a codec for its content type, replacing any previous one.
func (t *HTTPTransport) RegisterCodec(c Codec) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.codecs[mediaType(c.ContentType())] = c
}

// Codec returns the codec registered for contentType. Parameters such as
// charset are ignored.
func (t *HTTPTransport) Codec(contentType string) (Codec, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	c, ok := t.codecs[mediaType(contentType)]
	return c, ok
}

// Request describes an outgoing call.
type Request struct {
	Method string
	URL    string

	// Body is sent as-is when it is an io.Reader or []byte, and encoded with
	// the codec for ContentType otherwise. A nil Body sends no payload.
	Body any

	// ContentType defaults to JSON when Body needs encoding.
	ContentType string

	// Accept defaults to JSON.
	Accept string

	Header http.Header
}

// Do sends the request and returns the response once the status is known to
// be successful. The caller must close the response body.
//
// The transport timeout covers the wait for the response headers only; the
// body can be streamed for as long as ctx allows.
func (t *HTTPTransport) Do(ctx context.Context, r *Request) (*http.Response, error) {
	ctx, cancel := context.WithCancelCause(ctx)
	var timer *time.Timer
	if t.timeout > 0 {
		timer = time.AfterFunc(t.timeout, func() { cancel(ErrTimeout) })
		defer timer.Stop()
	}

	req, err := t.newRequest(ctx, r)
	if err != nil {
		cancel(nil)
		return nil, err
	}

	resp, err := t.client.Do(req)
	if err == nil && timer != nil && !timer.Stop() {
		// Headers arrived as the timer fired; the body is already canceled.
		resp.Body.Close()
		err = ErrTimeout
	}
	if err != nil {
		cause := context.Cause(ctx)
		cancel(nil)
		if errors.Is(cause, ErrTimeout) {
			return nil, fmt.Errorf("transport: request failed: %w", ErrTimeout)
		}
		return nil, fmt.Errorf("transport: request failed: %w", err)
	}

	if resp.StatusCode >= 400 {
		defer cancel(nil)
		defer resp.Body.Close()
		body, _ := readAllPooled(resp.Body)
		return nil, newHTTPError(req, resp, body)
	}

	resp.Body = &cancelOnClose{ReadCloser: resp.Body, cancel: cancel}
	return resp, nil
}

// cancelOnClose releases the request context when the body is closed.
type cancelOnClose struct {
	io.ReadCloser
	cancel context.CancelCauseFunc
}

func (b *cancelOnClose) Close() error {
	err := b.ReadCloser.Close()
	b.cancel(nil)
	return err
}

// Call sends the request and decodes the response body into out.
//
// A *string or *[]byte receives the raw body. Any other non-nil out is
// decoded with the codec matching the response Content-Type, falling back to
// the codec for the request's Accept type. An empty body leaves out untouched.
func (t *HTTPTransport) Call(ctx context.Context, r *Request, out any) error {
	if t.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}

	resp, err := t.Do(ctx, r)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := readAllPooled(resp.Body)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = ctxErr
		}
		return fmt.Errorf("transport: failed to read response: %w", err)
	}

	if out == nil || len(body) == 0 {
		return nil
	}

	switch v := out.(type) {
	case *string:
		*v = string(body)
		return nil
	case *[]byte:
		*v = body
		return nil
	}

	codec, ok := t.Codec(resp.Header.Get("Content-Type"))
	if !ok {
		codec, ok = t.Codec(acceptOrDefault(r.Accept))
	}
	if !ok {
		return fmt.Errorf("transport: no codec for response content type %q", resp.Header.Get("Content-Type"))
	}

	if err := codec.Unmarshal(body, out); err != nil {
		return fmt.Errorf("transport: failed to decode response: %w", err)
	}
	return nil
}

// Post sends body to url and returns the response body as text.
func (t *HTTPTransport) Post(ctx context.Context, url string, body any, contentType string) (string, error) {
	var out string
	err := t.Call(ctx, &Request{
		Method:      http.MethodPost,
		URL:         url,
		Body:        body,
		ContentType: contentType,
		Accept:      ContentTypeText,
	}, &out)
	return out, err
}

func (t *HTTPTransport) newRequest(ctx context.Context, r *Request) (*http.Request, error) {
	method := r.Method
	if method == "" {
		method = http.MethodGet
	}

	var (
		payload     io.Reader
		contentType = r.ContentType
	)
	switch b := r.Body.(type) {
	case nil:
	case io.Reader:
		payload = b
		if contentType == "" {
			contentType = ContentTypeOctetStream
		}
	case []byte:
		payload = bytes.NewReader(b)
	default:
		if contentType == "" {
			contentType = ContentTypeJSON
		}
		codec, ok := t.Codec(contentType)
		if !ok {
			return nil, fmt.Errorf("transport: no codec registered for %q", contentType)
		}
		data, err := codec.Marshal(b)
		if err != nil {
			return nil, fmt.Errorf("transport: failed to encode request body: %w", err)
		}
		payload = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, r.URL, payload)
	if err != nil {
		return nil, fmt.Errorf("transport: failed to create request: %w", err)
	}

	for k, vs := range r.Header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", acceptOrDefault(r.Accept))

	t.mu.RLock()
	ua := t.userAgent
	t.mu.RUnlock()
	if ua != "" && req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", ua)
	}

	return req, nil
}

// Client returns the underlying HTTP client for advanced configuration.
// Its Timeout is zero; the transport applies WithTimeout per request.
func (t *HTTPTransport) Client() *http.Client {
	return t.client
}

// CloseIdleConnections closes any idle connections in the transport.
func (t *HTTPTransport) CloseIdleConnections() {
	t.client.CloseIdleConnections()
}

func acceptOrDefault(accept string) string {
	if accept == "" {
		return ContentTypeJSON
	}
	return accept
}

// mediaType strips parameters and normalizes case: "application/json; charset=utf-8" -> "application/json".
func mediaType(contentType string) string {
	if i := strings.IndexByte(contentType, ';'); i >= 0 {
		contentType = contentType[:i]
	}
	return strings.ToLower(strings.TrimSpace(contentType))
}
