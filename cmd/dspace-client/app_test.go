package main

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

// call is one request seen by fakeRepo.
type call struct {
	Method      string
	Path        string
	Token       string
	ContentType string
}

type fakeRepo struct {
	mu    sync.Mutex
	calls []call
}

func (f *fakeRepo) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	token := r.Header.Get("rest-dspace-token")

	f.mu.Lock()
	f.calls = append(f.calls, call{
		Method:      r.Method,
		Path:        r.URL.Path,
		Token:       token,
		ContentType: r.Header.Get("Content-Type"),
	})
	f.mu.Unlock()

	switch r.Method + " " + r.URL.Path {
	case "POST /rest/login":
		if strings.Contains(string(body), "secret") {
			_, _ = io.WriteString(w, "tok-1")
		}
	case "POST /rest/logout":
	case "GET /rest/status":
		w.Header().Set("Content-Type", "application/json")
		if token != "" {
			_, _ = io.WriteString(w, `{"okay":true,"authenticated":true,"email":"admin@example.org"}`)
			return
		}
		_, _ = io.WriteString(w, `{"okay":true,"authenticated":false}`)
	case "GET /rest/communities/top-communities":
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `[{"id":1,"name":"Research","handle":"10673/1","type":"community","countItems":3}]`)
	case "GET /rest/handle/10673/1":
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"id":1,"name":"Research","handle":"10673/1","type":"community"}`)
	case "GET /rest/bitstreams/5/retrieve":
		w.Header().Set("Content-Type", "application/pdf")
		_, _ = io.WriteString(w, "%PDF-1.7")
	case "GET /rest/bitstreams/6/retrieve":
		// Announces more than it sends, so the client sees a truncated body.
		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Length", "1000")
		_, _ = io.WriteString(w, "%PDF-1.7")
	default:
		http.NotFound(w, r)
	}
}

func (f *fakeRepo) snapshot() []call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]call(nil), f.calls...)
}

func newFakeRepo(t *testing.T) (*fakeRepo, string) {
	t.Helper()
	repo := &fakeRepo{}
	srv := httptest.NewServer(repo)
	t.Cleanup(srv.Close)
	return repo, srv.URL + "/rest/"
}

func run(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	app := App()
	var out, errOut bytes.Buffer
	app.Writer = &out
	app.ErrWriter = &errOut
	app.ExitErrHandler = func(*cli.Context, error) {}

	err = app.Run(append([]string{"dspace-client"}, args...))
	return out.String(), errOut.String(), err
}

func TestApp(t *testing.T) {
	app := App()
	assert.Equal(t, "dspace-client", app.Name)

	commands := make(map[string]bool)
	for _, cmd := range app.Commands {
		commands[cmd.Name] = true
	}
	for _, name := range []string{"status", "login", "logout", "communities", "collections", "items", "bitstreams", "handle"} {
		assert.True(t, commands[name], "missing command %s", name)
	}

	flags := make(map[string]bool)
	for _, f := range app.Flags {
		flags[f.Names()[0]] = true
	}
	for name := range flagKeys {
		assert.True(t, flags[name], "flag key %s has no flag", name)
	}
}

func TestStatus_Anonymous(t *testing.T) {
	repo, url := newFakeRepo(t)

	out, _, err := run(t, "--url", url, "--output", "json", "status")
	require.NoError(t, err)
	assert.Contains(t, out, `"authenticated": false`)

	calls := repo.snapshot()
	require.Len(t, calls, 1)
	assert.Equal(t, "/rest/status", calls[0].Path)
	assert.Empty(t, calls[0].Token)
}

func TestAutoLoginAndLogout(t *testing.T) {
	repo, url := newFakeRepo(t)

	out, _, err := run(t, "--url", url, "--email", "admin@example.org", "--password", "secret",
		"communities", "top")
	require.NoError(t, err)
	assert.Contains(t, out, "Research")
	assert.Contains(t, out, "10673/1")

	calls := repo.snapshot()
	require.Len(t, calls, 3)
	assert.Equal(t, call{Method: "POST", Path: "/rest/login", ContentType: "application/json"}, calls[0])
	assert.Equal(t, "/rest/communities/top-communities", calls[1].Path)
	assert.Equal(t, "tok-1", calls[1].Token)
	assert.Equal(t, "/rest/logout", calls[2].Path)
	assert.Equal(t, "tok-1", calls[2].Token)
}

func TestLogin_PrintsToken(t *testing.T) {
	repo, url := newFakeRepo(t)

	out, _, err := run(t, "--url", url, "--email", "admin@example.org", "--password", "secret", "--xml", "login")
	require.NoError(t, err)
	assert.Equal(t, "tok-1\n", out)

	calls := repo.snapshot()
	require.Len(t, calls, 1, "login must not log out")
	assert.Equal(t, "application/xml", calls[0].ContentType)
}

func TestLogin_Rejected(t *testing.T) {
	_, url := newFakeRepo(t)

	_, _, err := run(t, "--url", url, "--email", "admin@example.org", "--password", "wrong", "login")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rejected")
}

func TestLogin_NoEmail(t *testing.T) {
	_, url := newFakeRepo(t)

	_, _, err := run(t, "--url", url, "login")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "e-mail")
}

func TestLogout_WithToken(t *testing.T) {
	repo, url := newFakeRepo(t)

	_, _, err := run(t, "--url", url, "--token", "tok-9", "logout")
	require.NoError(t, err)

	calls := repo.snapshot()
	require.Len(t, calls, 1)
	assert.Equal(t, "/rest/logout", calls[0].Path)
	assert.Equal(t, "tok-9", calls[0].Token)
}

func TestLogout_NoToken(t *testing.T) {
	repo, url := newFakeRepo(t)

	_, _, err := run(t, "--url", url, "logout")
	require.Error(t, err)
	assert.Empty(t, repo.snapshot())
}

func TestHandle_YAML(t *testing.T) {
	_, url := newFakeRepo(t)

	out, _, err := run(t, "--url", url, "-o", "yaml", "handle", "hdl:10673/1")
	require.NoError(t, err)
	assert.Contains(t, out, "handle: 10673/1")
	assert.Contains(t, out, "name: Research")
}

func TestHandle_Invalid(t *testing.T) {
	_, url := newFakeRepo(t)

	_, _, err := run(t, "--url", url, "handle", "nohandle")
	assert.Error(t, err)
}

func TestDownload(t *testing.T) {
	_, url := newFakeRepo(t)
	path := filepath.Join(t.TempDir(), "paper.pdf")

	_, _, err := run(t, "--url", url, "bitstreams", "download", "5", path)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.7", string(data))
}

func TestDownload_TruncatedRemovesFile(t *testing.T) {
	_, url := newFakeRepo(t)
	path := filepath.Join(t.TempDir(), "paper.pdf")

	_, _, err := run(t, "--url", url, "bitstreams", "download", "6", path)
	require.Error(t, err)

	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr), "partial download left on disk")
}

func TestDownload_SlowStreamOutlivesTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		for i := 0; i < 6; i++ {
			if i > 0 {
				select {
				case <-time.After(100 * time.Millisecond):
				case <-r.Context().Done():
					return
				}
			}
			_, _ = io.WriteString(w, "part;")
			w.(http.Flusher).Flush()
		}
	}))
	t.Cleanup(srv.Close)
	path := filepath.Join(t.TempDir(), "slow.pdf")

	_, _, err := run(t, "--url", srv.URL+"/rest", "--timeout", "300ms", "bitstreams", "download", "9", path)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, strings.Repeat("part;", 6), string(data))
}

func TestDownload_Stdout(t *testing.T) {
	_, url := newFakeRepo(t)

	out, _, err := run(t, "--url", url, "bitstreams", "download", "5", "-")
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.7", out)
}

func TestNotFound(t *testing.T) {
	_, url := newFakeRepo(t)

	_, _, err := run(t, "--url", url, "items", "get", "999")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}

func TestMissingArgs(t *testing.T) {
	repo, url := newFakeRepo(t)

	_, _, err := run(t, "--url", url, "items", "find", "dc.subject")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "KEY VALUE")
	assert.Empty(t, repo.snapshot())
}

func TestMissingURL(t *testing.T) {
	t.Setenv("DSPACE_URL", "")

	_, _, err := run(t, "status")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--url")
}

func TestMalformedURL(t *testing.T) {
	_, _, err := run(t, "--url", "http://[::1", "status")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid base URL")
}

func TestInvalidOutput(t *testing.T) {
	_, url := newFakeRepo(t)

	_, _, err := run(t, "--url", url, "--output", "csv", "status")
	assert.Error(t, err)
}

func TestConfigFile(t *testing.T) {
	repo, url := newFakeRepo(t)
	path := filepath.Join(t.TempDir(), "dspace.yaml")
	require.NoError(t, os.WriteFile(path, []byte("url: "+url+"\noutput: json\n"), 0o600))

	out, _, err := run(t, "--config", path, "status")
	require.NoError(t, err)
	assert.Contains(t, out, `"okay": true`)
	assert.Len(t, repo.snapshot(), 1)
}

func TestMetricsFile(t *testing.T) {
	_, url := newFakeRepo(t)
	path := filepath.Join(t.TempDir(), "dspace.prom")

	_, _, err := run(t, "--url", url, "--metrics-file", path, "--max-concurrent", "2", "--rate", "100", "status")
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `dspace_client_requests_total{method="GET",resource="status",status="200"} 1`)
}

func TestLogFile(t *testing.T) {
	_, url := newFakeRepo(t)
	path := filepath.Join(t.TempDir(), "dspace.log")

	_, stderr, err := run(t, "--url", url, "--log-file", path, "--log-level", "debug",
		"--email", "admin@example.org", "--password", "secret", "status")
	require.NoError(t, err)
	assert.Empty(t, stderr)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	log := string(data)
	assert.Contains(t, log, "SecurityEvent")
	assert.Contains(t, log, "http request")
	assert.NotContains(t, log, "secret")
	assert.NotContains(t, log, "tok-1")
}

func TestGatewayBasicAuth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || user != "svc-dspace" || pass != "gw-pass" {
			w.Header().Set("WWW-Authenticate", `Basic realm="dspace"`)
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"okay":true,"authenticated":false}`)
	}))
	t.Cleanup(srv.Close)

	_, _, err := run(t, "--url", srv.URL+"/rest", "--gateway-auth", "basic",
		"--gateway-user", "svc-dspace", "--gateway-password", "gw-pass", "-o", "json", "status")
	require.NoError(t, err)

	_, _, err = run(t, "--url", srv.URL+"/rest", "status")
	assert.Error(t, err, "no gateway credentials")

	_, _, err = run(t, "--url", srv.URL+"/rest", "--gateway-auth", "basic", "status")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "gateway.username")
}
