package transport

import (
	"encoding/json"
	"encoding/xml"
)

// Codec marshals request bodies and unmarshals response bodies for one
// content type.
type Codec interface {
	ContentType() string
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
}

// JSONCodec encodes bodies as JSON.
type JSONCodec struct{}

// ContentType implements Codec.
func (JSONCodec) ContentType() string { return ContentTypeJSON }

// Marshal implements Codec.
func (JSONCodec) Marshal(v any) ([]byte, error) { return json.Marshal(v) }

// Unmarshal implements Codec.
func (JSONCodec) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }

// XMLCodec encodes bodies as XML. The repository accepts XML for every
// endpoint that accepts JSON, including login.
type XMLCodec struct{}

// ContentType implements Codec.
func (XMLCodec) ContentType() string { return ContentTypeXML }

// Marshal implements Codec.
func (XMLCodec) Marshal(v any) ([]byte, error) { return xml.Marshal(v) }

// Unmarshal implements Codec.
func (XMLCodec) Unmarshal(data []byte, v any) error { return xml.Unmarshal(data, v) }
