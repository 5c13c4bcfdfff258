package resource

import (
	"context"
	"io"
	"net/http"

	"github.com/smnsjas/go-dspace/model"
	"github.com/smnsjas/go-dspace/transport"
)

// Bitstreams accesses /bitstreams.
type Bitstreams struct {
	b Binding
}

// NewBitstreams returns a Bitstreams accessor for b.
func NewBitstreams(b Binding) *Bitstreams {
	return &Bitstreams{b: b}
}

func (s *Bitstreams) List(ctx context.Context, q *Query) ([]model.Bitstream, error) {
	return get[[]model.Bitstream](ctx, s.b, q, "bitstreams")
}

func (s *Bitstreams) Get(ctx context.Context, id model.ID, q *Query) (*model.Bitstream, error) {
	return get[*model.Bitstream](ctx, s.b, q, "bitstreams", string(id))
}

// Policies returns the resource policies of bitstream id.
func (s *Bitstreams) Policies(ctx context.Context, id model.ID) ([]model.ResourcePolicy, error) {
	return get[[]model.ResourcePolicy](ctx, s.b, nil, "bitstreams", string(id), "policy")
}

func (s *Bitstreams) AddPolicy(ctx context.Context, id model.ID, policy *model.ResourcePolicy) error {
	return s.b.call(ctx, http.MethodPost, policy, nil, nil, "bitstreams", string(id), "policy")
}

func (s *Bitstreams) DeletePolicy(ctx context.Context, id, policyID model.ID) error {
	return s.b.call(ctx, http.MethodDelete, nil, nil, nil, "bitstreams", string(id), "policy", string(policyID))
}

// Retrieve streams the content of bitstream id. The caller must close the reader.
func (s *Bitstreams) Retrieve(ctx context.Context, id model.ID) (io.ReadCloser, error) {
	u, err := s.b.URL(nil, "bitstreams", string(id), "retrieve")
	if err != nil {
		return nil, err
	}
	resp, err := s.b.Transport.Do(ctx, &transport.Request{
		Method: http.MethodGet,
		URL:    u,
		Accept: "*/*",
	})
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}

// UpdateData replaces the content of bitstream id.
func (s *Bitstreams) UpdateData(ctx context.Context, id model.ID, data io.Reader) error {
	return s.b.stream(ctx, http.MethodPut, data, nil, nil, "bitstreams", string(id), "data")
}

// Update replaces the metadata (name, description, format, ...) of bitstream id.
func (s *Bitstreams) Update(ctx context.Context, id model.ID, bitstream *model.Bitstream) error {
	return s.b.call(ctx, http.MethodPut, bitstream, nil, nil, "bitstreams", string(id))
}

func (s *Bitstreams) Delete(ctx context.Context, id model.ID) error {
	return s.b.call(ctx, http.MethodDelete, nil, nil, nil, "bitstreams", string(id))
}
