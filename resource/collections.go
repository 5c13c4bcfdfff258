package resource

import (
	"context"
	"net/http"

	"github.com/smnsjas/go-dspace/model"
	"github.com/smnsjas/go-dspace/transport"
)

// Collections accesses /collections.
type Collections struct {
	b Binding
}

// NewCollections returns a Collections accessor for b.
func NewCollections(b Binding) *Collections {
	return &Collections{b: b}
}

func (c *Collections) List(ctx context.Context, q *Query) ([]model.Collection, error) {
	return get[[]model.Collection](ctx, c.b, q, "collections")
}

func (c *Collections) Get(ctx context.Context, id model.ID, q *Query) (*model.Collection, error) {
	return get[*model.Collection](ctx, c.b, q, "collections", string(id))
}

// Items returns the items in collection id.
func (c *Collections) Items(ctx context.Context, id model.ID, q *Query) ([]model.Item, error) {
	return get[[]model.Item](ctx, c.b, q, "collections", string(id), "items")
}

// CreateItem submits item into collection id. Only item.Metadata is used by the server.
func (c *Collections) CreateItem(ctx context.Context, id model.ID, item *model.Item) (*model.Item, error) {
	return send[*model.Item](ctx, c.b, http.MethodPost, item, "collections", string(id), "items")
}

// FindByName returns the collection with exactly this name. The server
// answers 404 when none matches.
func (c *Collections) FindByName(ctx context.Context, name string) (*model.Collection, error) {
	u, err := c.b.URL(nil, "collections", "find-collection")
	if err != nil {
		return nil, err
	}
	var out *model.Collection
	err = c.b.Transport.Call(ctx, &transport.Request{
		Method:      http.MethodPost,
		URL:         u,
		Body:        []byte(name),
		ContentType: transport.ContentTypeJSON,
	}, &out)
	return out, err
}

func (c *Collections) Update(ctx context.Context, id model.ID, collection *model.Collection) error {
	return c.b.call(ctx, http.MethodPut, collection, nil, nil, "collections", string(id))
}

func (c *Collections) Delete(ctx context.Context, id model.ID) error {
	return c.b.call(ctx, http.MethodDelete, nil, nil, nil, "collections", string(id))
}

// DeleteItem removes item itemID from collection id.
func (c *Collections) DeleteItem(ctx context.Context, id, itemID model.ID) error {
	return c.b.call(ctx, http.MethodDelete, nil, nil, nil, "collections", string(id), "items", string(itemID))
}
