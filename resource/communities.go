package resource

import (
	"context"
	"net/http"

	"github.com/smnsjas/go-dspace/model"
)

// Communities accesses /communities.
type Communities struct {
	b Binding
}

// NewCommunities returns a Communities accessor for b.
func NewCommunities(b Binding) *Communities {
	return &Communities{b: b}
}

// List returns every community.
func (c *Communities) List(ctx context.Context, q *Query) ([]model.Community, error) {
	return get[[]model.Community](ctx, c.b, q, "communities")
}

// TopCommunities returns communities without a parent.
func (c *Communities) TopCommunities(ctx context.Context, q *Query) ([]model.Community, error) {
	return get[[]model.Community](ctx, c.b, q, "communities", "top-communities")
}

func (c *Communities) Get(ctx context.Context, id model.ID, q *Query) (*model.Community, error) {
	return get[*model.Community](ctx, c.b, q, "communities", string(id))
}

// Collections returns the collections directly under community id.
func (c *Communities) Collections(ctx context.Context, id model.ID, q *Query) ([]model.Collection, error) {
	return get[[]model.Collection](ctx, c.b, q, "communities", string(id), "collections")
}

// SubCommunities returns the communities directly under community id.
func (c *Communities) SubCommunities(ctx context.Context, id model.ID, q *Query) ([]model.Community, error) {
	return get[[]model.Community](ctx, c.b, q, "communities", string(id), "communities")
}

// Create creates a top-level community.
func (c *Communities) Create(ctx context.Context, community *model.Community) (*model.Community, error) {
	return send[*model.Community](ctx, c.b, http.MethodPost, community, "communities")
}

// CreateCollection creates a collection in community id.
func (c *Communities) CreateCollection(ctx context.Context, id model.ID, collection *model.Collection) (*model.Collection, error) {
	return send[*model.Collection](ctx, c.b, http.MethodPost, collection, "communities", string(id), "collections")
}

// CreateSubCommunity creates a community nested in community id.
func (c *Communities) CreateSubCommunity(ctx context.Context, id model.ID, community *model.Community) (*model.Community, error) {
	return send[*model.Community](ctx, c.b, http.MethodPost, community, "communities", string(id), "communities")
}

func (c *Communities) Update(ctx context.Context, id model.ID, community *model.Community) error {
	return c.b.call(ctx, http.MethodPut, community, nil, nil, "communities", string(id))
}

func (c *Communities) Delete(ctx context.Context, id model.ID) error {
	return c.b.call(ctx, http.MethodDelete, nil, nil, nil, "communities", string(id))
}

// DeleteCollection removes collection collectionID from community id.
func (c *Communities) DeleteCollection(ctx context.Context, id, collectionID model.ID) error {
	return c.b.call(ctx, http.MethodDelete, nil, nil, nil, "communities", string(id), "collections", string(collectionID))
}

// DeleteSubCommunity removes community subID from community id.
func (c *Communities) DeleteSubCommunity(ctx context.Context, id, subID model.ID) error {
	return c.b.call(ctx, http.MethodDelete, nil, nil, nil, "communities", string(id), "communities", string(subID))
}
