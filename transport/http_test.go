package transport

import (
	"context"
	"crypto/tls"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type community struct {
	ID   int    `json:"id" xml:"id"`
	Name string `json:"name" xml:"name"`
}

// TestNewHTTPTransport verifies transport creation with default settings.
func TestNewHTTPTransport(t *testing.T) {
	tr := NewHTTPTransport()
	if tr == nil {
		t.Fatal("NewHTTPTransport returned nil")
	}
	if tr.client == nil {
		t.Error("client is nil")
	}
	if tr.Timeout() != DefaultTimeout {
		t.Errorf("got timeout %v, want %v", tr.Timeout(), DefaultTimeout)
	}
	if tr.client.Timeout != 0 {
		t.Errorf("client-wide timeout %v would cut off streamed bodies", tr.client.Timeout)
	}
}

// TestNewHTTPTransport_DefaultCodecs verifies JSON and XML are registered.
func TestNewHTTPTransport_DefaultCodecs(t *testing.T) {
	tr := NewHTTPTransport()

	for _, ct := range []string{ContentTypeJSON, "application/json; charset=UTF-8", ContentTypeXML} {
		if _, ok := tr.Codec(ct); !ok {
			t.Errorf("no codec registered for %q", ct)
		}
	}
	if _, ok := tr.Codec("application/yaml"); ok {
		t.Error("unexpected codec for application/yaml")
	}
}

// TestHTTPTransport_WithTimeout verifies timeout configuration.
func TestHTTPTransport_WithTimeout(t *testing.T) {
	timeout := 30 * time.Second
	tr := NewHTTPTransport(WithTimeout(timeout))

	if tr.Timeout() != timeout {
		t.Errorf("got timeout %v, want %v", tr.Timeout(), timeout)
	}
}

// chunkedHandler writes n chunks of "chunk" with delay between them.
func chunkedHandler(n int, delay time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", ContentTypeOctetStream)
		for i := 0; i < n; i++ {
			if i > 0 {
				select {
				case <-time.After(delay):
				case <-r.Context().Done():
					return
				}
			}
			_, _ = io.WriteString(w, "chunk")
			w.(http.Flusher).Flush()
		}
	}
}

// TestHTTPTransport_Do_StreamOutlivesTimeout verifies the timeout does not
// apply to reading a streamed body.
func TestHTTPTransport_Do_StreamOutlivesTimeout(t *testing.T) {
	server := httptest.NewServer(chunkedHandler(6, 100*time.Millisecond))
	defer server.Close()

	tr := NewHTTPTransport(WithTimeout(300 * time.Millisecond))
	resp, err := tr.Do(context.Background(), &Request{URL: server.URL, Accept: "*/*"})
	if err != nil {
		t.Fatalf("Do failed: %v", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("reading body: %v", err)
	}
	if got, want := string(data), strings.Repeat("chunk", 6); got != want {
		t.Errorf("body = %q, want %q", got, want)
	}
}

// TestHTTPTransport_Do_StreamCanceled verifies ctx still stops a streamed body.
func TestHTTPTransport_Do_StreamCanceled(t *testing.T) {
	server := httptest.NewServer(chunkedHandler(20, 50*time.Millisecond))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tr := NewHTTPTransport()
	resp, err := tr.Do(ctx, &Request{URL: server.URL, Accept: "*/*"})
	if err != nil {
		t.Fatalf("Do failed: %v", err)
	}
	defer resp.Body.Close()

	buf := make([]byte, 5)
	if _, err := io.ReadFull(resp.Body, buf); err != nil {
		t.Fatalf("reading first chunk: %v", err)
	}
	cancel()
	if _, err := io.ReadAll(resp.Body); err == nil {
		t.Error("expected an error after cancel")
	}
}

// TestHTTPTransport_Do_HeaderTimeout verifies the timeout applies while
// waiting for the response headers.
func TestHTTPTransport_Do_HeaderTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(time.Second):
		case <-r.Context().Done():
		}
	}))
	defer server.Close()

	tr := NewHTTPTransport(WithTimeout(50 * time.Millisecond))
	_, err := tr.Do(context.Background(), &Request{URL: server.URL})
	if !errors.Is(err, ErrTimeout) {
		t.Errorf("err = %v, want ErrTimeout", err)
	}
}

// TestHTTPTransport_Call_TimeoutCoversBody verifies Call, which buffers the
// body, is bounded as a whole.
func TestHTTPTransport_Call_TimeoutCoversBody(t *testing.T) {
	server := httptest.NewServer(chunkedHandler(6, 100*time.Millisecond))
	defer server.Close()

	tr := NewHTTPTransport(WithTimeout(250 * time.Millisecond))
	var out []byte
	err := tr.Call(context.Background(), &Request{URL: server.URL, Accept: "*/*"}, &out)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("err = %v, want context.DeadlineExceeded", err)
	}
}

// TestHTTPTransport_WithInsecureSkipVerify verifies TLS skip verify configuration.
func TestHTTPTransport_WithInsecureSkipVerify(t *testing.T) {
	tr := NewHTTPTransport(WithInsecureSkipVerify(true))

	httpTransport, ok := tr.raw.(*http.Transport)
	if !ok {
		t.Fatal("transport is not *http.Transport")
	}
	if httpTransport.TLSClientConfig == nil {
		t.Fatal("TLSClientConfig is nil")
	}
	if !httpTransport.TLSClientConfig.InsecureSkipVerify {
		t.Error("InsecureSkipVerify is false, want true")
	}
}

// TestHTTPTransport_WithTLSConfig verifies custom TLS configuration and the TLS 1.2 floor.
func TestHTTPTransport_WithTLSConfig(t *testing.T) {
	tlsCfg := &tls.Config{
		MinVersion: tls.VersionTLS10,
	}
	tr := NewHTTPTransport(WithTLSConfig(tlsCfg))

	httpTransport, ok := tr.raw.(*http.Transport)
	if !ok {
		t.Fatal("transport is not *http.Transport")
	}
	if httpTransport.TLSClientConfig == tlsCfg {
		t.Error("TLSClientConfig should be a clone of the provided config")
	}
	if httpTransport.TLSClientConfig.MinVersion != tls.VersionTLS12 {
		t.Errorf("MinVersion = %x, want TLS 1.2", httpTransport.TLSClientConfig.MinVersion)
	}
	if tlsCfg.MinVersion != tls.VersionTLS10 {
		t.Errorf("caller's config modified: MinVersion = %x", tlsCfg.MinVersion)
	}
}

// TestHTTPTransport_WithTLSConfig_Nil verifies a nil config keeps the default.
func TestHTTPTransport_WithTLSConfig_Nil(t *testing.T) {
	tr := NewHTTPTransport(WithTLSConfig(nil))

	httpTransport, ok := tr.raw.(*http.Transport)
	if !ok {
		t.Fatal("transport is not *http.Transport")
	}
	if httpTransport.TLSClientConfig == nil || httpTransport.TLSClientConfig.MinVersion != tls.VersionTLS12 {
		t.Errorf("TLSClientConfig = %+v, want default with TLS 1.2 floor", httpTransport.TLSClientConfig)
	}
}

// TestHTTPTransport_WithProxy verifies proxy configuration.
func TestHTTPTransport_WithProxy(t *testing.T) {
	tests := []struct {
		name     string
		proxyURL string
		wantNil  bool
	}{
		{"empty uses environment", "", false},
		{"direct bypasses proxy", "direct", true},
		{"explicit proxy URL", "http://proxy.example.com:8080", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := NewHTTPTransport(WithProxy(tt.proxyURL))

			httpTransport, ok := tr.raw.(*http.Transport)
			if !ok {
				t.Fatal("transport is not *http.Transport")
			}
			if got := httpTransport.Proxy == nil; got != tt.wantNil {
				t.Errorf("Proxy nil = %v, want %v", got, tt.wantNil)
			}
		})
	}
}

// TestHTTPTransport_Call_JSON verifies body encoding and response decoding.
func TestHTTPTransport_Call_JSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ct := r.Header.Get("Content-Type"); ct != ContentTypeJSON {
			t.Errorf("unexpected Content-Type: %s", ct)
		}
		if accept := r.Header.Get("Accept"); accept != ContentTypeJSON {
			t.Errorf("unexpected Accept: %s", accept)
		}
		if ua := r.Header.Get("User-Agent"); ua != DefaultUserAgent {
			t.Errorf("unexpected User-Agent: %s", ua)
		}

		body, _ := io.ReadAll(r.Body)
		if string(body) != `{"id":0,"name":"Theses"}` {
			t.Errorf("unexpected body: %s", body)
		}

		w.Header().Set("Content-Type", "application/json; charset=UTF-8")
		_, _ = w.Write([]byte(`{"id":7,"name":"Theses"}`))
	}))
	defer server.Close()

	tr := NewHTTPTransport()

	var got community
	err := tr.Call(context.Background(), &Request{
		Method: http.MethodPost,
		URL:    server.URL,
		Body:   community{Name: "Theses"},
	}, &got)
	if err != nil {
		t.Fatalf("Call failed: %v", err)
	}
	if got.ID != 7 || got.Name != "Theses" {
		t.Errorf("got %+v", got)
	}
}

// TestHTTPTransport_Call_XML verifies the XML codec is selected by content type.
func TestHTTPTransport_Call_XML(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		if !strings.Contains(string(body), "<name>Theses</name>") {
			t.Errorf("unexpected body: %s", body)
		}
		w.Header().Set("Content-Type", ContentTypeXML)
		_, _ = w.Write([]byte(`<community><id>3</id><name>Theses</name></community>`))
	}))
	defer server.Close()

	tr := NewHTTPTransport()

	var got community
	err := tr.Call(context.Background(), &Request{
		Method:      http.MethodPost,
		URL:         server.URL,
		Body:        community{Name: "Theses"},
		ContentType: ContentTypeXML,
		Accept:      ContentTypeXML,
	}, &got)
	if err != nil {
		t.Fatalf("Call failed: %v", err)
	}
	if got.ID != 3 {
		t.Errorf("got %+v", got)
	}
}

// TestHTTPTransport_Post verifies a text response is returned verbatim.
func TestHTTPTransport_Post(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s", r.Method)
		}
		if accept := r.Header.Get("Accept"); accept != ContentTypeText {
			t.Errorf("unexpected Accept: %s", accept)
		}
		_, _ = w.Write([]byte("token-value"))
	}))
	defer server.Close()

	tr := NewHTTPTransport()
	got, err := tr.Post(context.Background(), server.URL, []byte("raw"), ContentTypeText)
	if err != nil {
		t.Fatalf("Post failed: %v", err)
	}
	if got != "token-value" {
		t.Errorf("got %q", got)
	}
}

// TestHTTPTransport_Do_WithContext verifies context cancellation.
func TestHTTPTransport_Do_WithContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(100 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	tr := NewHTTPTransport()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := tr.Do(ctx, &Request{URL: server.URL})
	if err == nil {
		t.Error("expected context deadline exceeded error")
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("err = %v, want context.DeadlineExceeded", err)
	}
}

// TestHTTPTransport_Do_Error verifies error handling for failed requests.
func TestHTTPTransport_Do_Error(t *testing.T) {
	tr := NewHTTPTransport()

	_, err := tr.Do(context.Background(), &Request{URL: "http://localhost:1"})
	if err == nil {
		t.Error("expected connection error")
	}
}

// TestHTTPTransport_StatusErrors verifies status codes map to HTTPError and sentinels.
func TestHTTPTransport_StatusErrors(t *testing.T) {
	tests := []struct {
		status   int
		sentinel error
	}{
		{http.StatusUnauthorized, ErrUnauthorized},
		{http.StatusForbidden, ErrForbidden},
		{http.StatusNotFound, ErrNotFound},
		{http.StatusInternalServerError, nil},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte("boom"))
			}))
			defer server.Close()

			tr := NewHTTPTransport()
			err := tr.Call(context.Background(), &Request{URL: server.URL}, nil)

			var he *HTTPError
			if !errors.As(err, &he) {
				t.Fatalf("err = %v, want *HTTPError", err)
			}
			if he.StatusCode != tt.status {
				t.Errorf("StatusCode = %d, want %d", he.StatusCode, tt.status)
			}
			if he.Body != "boom" {
				t.Errorf("Body = %q", he.Body)
			}
			if StatusCode(err) != tt.status {
				t.Errorf("StatusCode(err) = %d", StatusCode(err))
			}
			if tt.sentinel != nil && !errors.Is(err, tt.sentinel) {
				t.Errorf("errors.Is(err, %v) = false", tt.sentinel)
			}
			if tt.status >= 500 && !he.IsServerError() {
				t.Error("IsServerError() = false")
			}
		})
	}
}

// TestHTTPError_BodyPreviewTruncated verifies large bodies are truncated.
func TestHTTPError_BodyPreviewTruncated(t *testing.T) {
	req, _ := http.NewRequest(http.MethodGet, "http://example.com/rest/items", nil)
	resp := &http.Response{StatusCode: http.StatusBadGateway}

	he := newHTTPError(req, resp, []byte(strings.Repeat("x", maxBodyPreview+10)))
	if len(he.Body) != maxBodyPreview+3 {
		t.Errorf("len(Body) = %d, want %d", len(he.Body), maxBodyPreview+3)
	}
}

// TestHTTPTransport_Middleware verifies registration order and per-request assembly.
func TestHTTPTransport_Middleware(t *testing.T) {
	var (
		mu    sync.Mutex
		order []string
	)
	add := func(s string) {
		mu.Lock()
		defer mu.Unlock()
		order = append(order, s)
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		add("server:" + r.Header.Get("X-Test"))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	record := func(name string) Middleware {
		return func(req *http.Request, next RoundTripFunc) (*http.Response, error) {
			add(name)
			return next(req)
		}
	}

	tr := NewHTTPTransport(WithMiddleware(record("first")))
	tr.Use(record("second"), HeaderMiddleware("X-Test", "yes"))

	if _, err := tr.Do(context.Background(), &Request{URL: server.URL}); err != nil {
		t.Fatalf("Do failed: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	want := []string{"first", "second", "server:yes"}
	if strings.Join(order, ",") != strings.Join(want, ",") {
		t.Errorf("order = %v, want %v", order, want)
	}
}

// TestHTTPTransport_WithMaxConcurrent verifies excess requests are rejected when the queue is disabled.
func TestHTTPTransport_WithMaxConcurrent(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) == 1 {
			close(started)
		}
		<-release
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	tr := NewHTTPTransport(WithMaxConcurrent(1, 0, time.Second))

	errCh := make(chan error, 1)
	go func() {
		_, err := tr.Do(context.Background(), &Request{URL: server.URL})
		errCh <- err
	}()
	<-started

	_, err := tr.Do(context.Background(), &Request{URL: server.URL})
	if !errors.Is(err, ErrQueueFull) {
		t.Errorf("err = %v, want ErrQueueFull", err)
	}

	close(release)
	if err := <-errCh; err != nil {
		t.Errorf("first request failed: %v", err)
	}
}

// TestSemaphore_AcquireTimeout verifies a queued request times out.
func TestSemaphore_AcquireTimeout(t *testing.T) {
	sem := newSemaphore(1, -1, 20*time.Millisecond)
	if err := sem.Acquire(context.Background()); err != nil {
		t.Fatalf("first Acquire: %v", err)
	}
	if sem.InFlight() != 1 {
		t.Errorf("InFlight() = %d", sem.InFlight())
	}

	if err := sem.Acquire(context.Background()); !errors.Is(err, ErrAcquireTimeout) {
		t.Errorf("err = %v, want ErrAcquireTimeout", err)
	}

	sem.Release()
	if err := sem.Acquire(context.Background()); err != nil {
		t.Errorf("Acquire after Release: %v", err)
	}
}

type countingWrapper struct {
	n *atomic.Int32
}

func (w countingWrapper) Transport(base http.RoundTripper) http.RoundTripper {
	return RoundTripFunc(func(req *http.Request) (*http.Response, error) {
		w.n.Add(1)
		return base.RoundTrip(req)
	})
}

// TestHTTPTransport_WithAuthenticator verifies wrappers survive later TLS options.
func TestHTTPTransport_WithAuthenticator(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	var n atomic.Int32
	tr := NewHTTPTransport(
		WithAuthenticator(countingWrapper{n: &n}),
		WithTLSConfig(&tls.Config{}),
	)

	if _, err := tr.Do(context.Background(), &Request{URL: server.URL}); err != nil {
		t.Fatalf("Do failed: %v", err)
	}
	if n.Load() != 1 {
		t.Errorf("wrapper called %d times, want 1", n.Load())
	}
}
