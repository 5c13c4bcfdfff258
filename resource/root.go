package resource

import (
	"context"
	"net/http"

	"github.com/smnsjas/go-dspace/model"
	"github.com/smnsjas/go-dspace/transport"
)

// Root accesses the top level of the REST API.
type Root struct {
	b Binding
}

// NewRoot returns a Root accessor for b.
func NewRoot(b Binding) *Root {
	return &Root{b: b}
}

// Index returns the HTML page the API serves at its base URL.
func (r *Root) Index(ctx context.Context) (string, error) {
	return r.b.text(ctx, http.MethodGet, "text/html", nil, "", "/")
}

// Test returns the plain-text liveness message of GET /test.
func (r *Root) Test(ctx context.Context) (string, error) {
	return r.b.text(ctx, http.MethodGet, transport.ContentTypeText, nil, "", "test")
}

// Status reports whether the current session is authenticated and for whom.
func (r *Root) Status(ctx context.Context) (*model.Status, error) {
	return get[*model.Status](ctx, r.b, nil, "status")
}

// Login posts user, encoded as contentType, to /login and returns the body
// verbatim. The server answers with the session token as plain text.
func (r *Root) Login(ctx context.Context, user model.User, contentType string) (string, error) {
	return r.b.text(ctx, http.MethodPost, transport.ContentTypeText, user, contentType, "login")
}

// Logout invalidates the session token sent with the request.
func (r *Root) Logout(ctx context.Context) error {
	_, err := r.b.text(ctx, http.MethodPost, transport.ContentTypeText, nil, "", "logout")
	return err
}
