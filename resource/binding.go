package resource

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/smnsjas/go-dspace/transport"
)

// ErrUnbound is returned by every accessor whose binding has no transport or
// no base URL, e.g. one obtained from a client that was never initialized.
var ErrUnbound = errors.New("resource: client not initialized")

// ErrInvalidSegment is returned when an identifier would change the request
// path instead of naming a single element of it.
var ErrInvalidSegment = errors.New("resource: invalid path segment")

// Binding is the transport and parsed endpoint shared by all accessors of a client.
type Binding struct {
	Transport *transport.HTTPTransport
	Base      *url.URL
}

// Bound reports whether the binding can issue requests.
func (b Binding) Bound() bool {
	return b.Transport != nil && b.Base != nil
}

// Query holds the optional query parameters understood by most endpoints.
// A nil *Query sends none.
type Query struct {
	// Expand lists related objects to inline, e.g. model.ExpandMetadata.
	Expand []string

	// Limit and Offset page through list endpoints. Zero means server default.
	Limit  int
	Offset int

	// UserIP, UserAgent and XForwardedFor are recorded in usage statistics.
	UserIP        string
	UserAgent     string
	XForwardedFor string
}

// Values encodes the query.
func (q *Query) Values() url.Values {
	v := url.Values{}
	if q == nil {
		return v
	}
	if len(q.Expand) > 0 {
		v.Set("expand", strings.Join(q.Expand, ","))
	}
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Offset > 0 {
		v.Set("offset", strconv.Itoa(q.Offset))
	}
	if q.UserIP != "" {
		v.Set("userIP", q.UserIP)
	}
	if q.UserAgent != "" {
		v.Set("userAgent", q.UserAgent)
	}
	if q.XForwardedFor != "" {
		v.Set("xforwardedfor", q.XForwardedFor)
	}
	return v
}

// URL resolves segments against the base URL and attaches params.
func (b Binding) URL(params url.Values, segments ...string) (string, error) {
	if !b.Bound() {
		return "", ErrUnbound
	}
	for i, seg := range segments {
		// "/" alone addresses the root with its trailing slash.
		if seg == "/" && len(segments) == 1 {
			continue
		}
		if err := checkSegment(seg); err != nil {
			return "", fmt.Errorf("%w: segment %d", err, i)
		}
	}
	u := b.Base.JoinPath(segments...)
	if len(params) > 0 {
		u.RawQuery = params.Encode()
	} else {
		u.RawQuery = ""
	}
	return u.String(), nil
}

func checkSegment(seg string) error {
	switch {
	case seg == "", seg == ".", seg == "..", strings.ContainsAny(seg, `/\`):
		return fmt.Errorf("%w %q", ErrInvalidSegment, seg)
	}
	return nil
}

// call issues a JSON request and decodes the response into out.
func (b Binding) call(ctx context.Context, method string, body, out any, q *Query, segments ...string) error {
	u, err := b.URL(q.Values(), segments...)
	if err != nil {
		return err
	}
	return b.Transport.Call(ctx, &transport.Request{
		Method: method,
		URL:    u,
		Body:   body,
	}, out)
}

// text issues a request that answers with plain text or HTML.
func (b Binding) text(ctx context.Context, method, accept string, body any, contentType string, segments ...string) (string, error) {
	u, err := b.URL(nil, segments...)
	if err != nil {
		return "", err
	}
	var out string
	err = b.Transport.Call(ctx, &transport.Request{
		Method:      method,
		URL:         u,
		Body:        body,
		ContentType: contentType,
		Accept:      accept,
	}, &out)
	return out, err
}

// stream uploads raw data and decodes the JSON response into out.
func (b Binding) stream(ctx context.Context, method string, data io.Reader, params url.Values, out any, segments ...string) error {
	u, err := b.URL(params, segments...)
	if err != nil {
		return err
	}
	return b.Transport.Call(ctx, &transport.Request{
		Method:      method,
		URL:         u,
		Body:        data,
		ContentType: transport.ContentTypeOctetStream,
	}, out)
}

func get[T any](ctx context.Context, b Binding, q *Query, segments ...string) (T, error) {
	var out T
	err := b.call(ctx, http.MethodGet, nil, &out, q, segments...)
	return out, err
}

func send[T any](ctx context.Context, b Binding, method string, body any, segments ...string) (T, error) {
	var out T
	err := b.call(ctx, method, body, &out, nil, segments...)
	return out, err
}
