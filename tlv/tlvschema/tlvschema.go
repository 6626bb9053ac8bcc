// Package tlvschema builds TLV message types from YAML or JSON definition documents.
//
// Each message definition becomes a Go struct type with `tlv` struct tags, so that the
// tlv package encodes and decodes it like a hand-written record.
package tlvschema

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ghodss/yaml"
	"github.com/usnistgov/tlvcodec/core/logging"
	"github.com/usnistgov/tlvcodec/tlv"
)

var logger = logging.New("tlvschema")

// ErrDocument indicates an invalid definition document.
var ErrDocument = errors.New("invalid definition document")

// Document is a list of message definitions.
type Document struct {
	Messages []MessageDef `json:"messages"`
}

// MessageDef defines a message type.
type MessageDef struct {
	Name string `json:"name"`

	// Envelope optionally frames the whole message.
	Envelope *FieldDef `json:"envelope,omitempty"`

	// Capacity is the encode buffer capacity hint.
	Capacity int `json:"capacity,omitempty"`

	Fields []FieldDef `json:"fields"`
}

// FieldDef defines a field in a message.
// Omitted widths take format defaults.
type FieldDef struct {
	Name        string     `json:"name,omitempty"`
	Format      tlv.Format `json:"format"`
	Tag         *uint64    `json:"tag,omitempty"`
	TagWidth    *tlv.Width `json:"tw,omitempty"`
	Length      *int       `json:"len,omitempty"`
	LengthWidth *tlv.Width `json:"lw,omitempty"`
	Bits        uint8      `json:"bits,omitempty"`

	// Type is one of uint8, uint16, uint32, uint64, bytes, string, or the name of another message.
	// Default is bytes.
	Type string `json:"type,omitempty"`

	// Presence is one of required, optional, repeated.
	// Default is required.
	Presence string `json:"presence,omitempty"`
}

// Parse parses and builds a YAML or JSON definition document.
func Parse(input []byte) (*Registry, error) {
	j, e := yaml.YAMLToJSON(input)
	if e != nil {
		return nil, fmt.Errorf("%w: %w", ErrDocument, e)
	}
	if e := validateDocument(j); e != nil {
		return nil, e
	}

	var doc Document
	if e := json.Unmarshal(j, &doc); e != nil {
		return nil, fmt.Errorf("%w: %w", ErrDocument, e)
	}
	return Build(doc)
}
