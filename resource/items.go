package resource

import (
	"context"
	"io"
	"net/http"
	"net/url"

	"github.com/smnsjas/go-dspace/model"
)

// Items accesses /items.
type Items struct {
	b Binding
}

// NewItems returns an Items accessor for b.
func NewItems(b Binding) *Items {
	return &Items{b: b}
}

func (i *Items) List(ctx context.Context, q *Query) ([]model.Item, error) {
	return get[[]model.Item](ctx, i.b, q, "items")
}

func (i *Items) Get(ctx context.Context, id model.ID, q *Query) (*model.Item, error) {
	return get[*model.Item](ctx, i.b, q, "items", string(id))
}

// Metadata returns all metadata entries of item id.
func (i *Items) Metadata(ctx context.Context, id model.ID) ([]model.MetadataEntry, error) {
	return get[[]model.MetadataEntry](ctx, i.b, nil, "items", string(id), "metadata")
}

// Bitstreams returns the files attached to item id.
func (i *Items) Bitstreams(ctx context.Context, id model.ID, q *Query) ([]model.Bitstream, error) {
	return get[[]model.Bitstream](ctx, i.b, q, "items", string(id), "bitstreams")
}

// FindByMetadataField returns the items carrying entry. Key and Value must match exactly.
func (i *Items) FindByMetadataField(ctx context.Context, entry model.MetadataEntry, q *Query) ([]model.Item, error) {
	var out []model.Item
	err := i.b.call(ctx, http.MethodPost, entry, &out, q, "items", "find-by-metadata-field")
	return out, err
}

// AddMetadata appends entries to item id.
func (i *Items) AddMetadata(ctx context.Context, id model.ID, entries []model.MetadataEntry) error {
	return i.b.call(ctx, http.MethodPost, entries, nil, nil, "items", string(id), "metadata")
}

// UpdateMetadata replaces the values of every key present in entries.
func (i *Items) UpdateMetadata(ctx context.Context, id model.ID, entries []model.MetadataEntry) error {
	return i.b.call(ctx, http.MethodPut, entries, nil, nil, "items", string(id), "metadata")
}

// ClearMetadata removes all metadata from item id.
func (i *Items) ClearMetadata(ctx context.Context, id model.ID) error {
	return i.b.call(ctx, http.MethodDelete, nil, nil, nil, "items", string(id), "metadata")
}

// AddBitstream uploads data as a new bitstream of item id. Empty name and
// description are not sent.
func (i *Items) AddBitstream(ctx context.Context, id model.ID, name, description string, data io.Reader) (*model.Bitstream, error) {
	params := url.Values{}
	if name != "" {
		params.Set("name", name)
	}
	if description != "" {
		params.Set("description", description)
	}
	var out *model.Bitstream
	err := i.b.stream(ctx, http.MethodPost, data, params, &out, "items", string(id), "bitstreams")
	return out, err
}

// DeleteBitstream removes bitstream bitstreamID from item id.
func (i *Items) DeleteBitstream(ctx context.Context, id, bitstreamID model.ID) error {
	return i.b.call(ctx, http.MethodDelete, nil, nil, nil, "items", string(id), "bitstreams", string(bitstreamID))
}

func (i *Items) Delete(ctx context.Context, id model.ID) error {
	return i.b.call(ctx, http.MethodDelete, nil, nil, nil, "items", string(id))
}
