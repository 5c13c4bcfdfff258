package resource

import (
	"context"
	"fmt"
	"strings"

	"github.com/smnsjas/go-dspace/model"
)

// Handle resolves persistent handles to repository objects.
type Handle struct {
	b Binding
}

// NewHandle returns a Handle accessor for b.
func NewHandle(b Binding) *Handle {
	return &Handle{b: b}
}

// Resolve returns the object registered under handle prefix/suffix, e.g. "10673", "7".
func (h *Handle) Resolve(ctx context.Context, prefix, suffix string, q *Query) (*model.DSpaceObject, error) {
	return get[*model.DSpaceObject](ctx, h.b, q, "handle", prefix, suffix)
}

// SplitHandle splits "prefix/suffix". The "hdl:" scheme and a handle.net
// resolver URL prefix are accepted and stripped.
func SplitHandle(handle string) (prefix, suffix string, err error) {
	h := strings.TrimPrefix(handle, "hdl:")
	for _, resolver := range []string{"https://hdl.handle.net/", "http://hdl.handle.net/"} {
		h = strings.TrimPrefix(h, resolver)
	}
	prefix, suffix, ok := strings.Cut(h, "/")
	if !ok || prefix == "" || suffix == "" {
		return "", "", fmt.Errorf("resource: invalid handle %q", handle)
	}
	return prefix, suffix, nil
}
