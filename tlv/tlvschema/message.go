package tlvschema

import (
	"encoding/hex"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/ghodss/yaml"
	"github.com/usnistgov/tlvcodec/core/jsonhelper"
	"github.com/usnistgov/tlvcodec/tlv"
)

// HexBytes is a byte string that appears as upper-case hexadecimal in JSON and YAML.
type HexBytes []byte

// MarshalText implements encoding.TextMarshaler interface.
func (b HexBytes) MarshalText() ([]byte, error) {
	return []byte(strings.ToUpper(hex.EncodeToString(b))), nil
}

// UnmarshalText implements encoding.TextUnmarshaler interface.
func (b *HexBytes) UnmarshalText(text []byte) (e error) {
	*b, e = hex.DecodeString(string(text))
	return e
}

// Message is a built message type.
type Message struct {
	name   string
	typ    reflect.Type
	schema *tlv.Schema
}

// Name returns the message name.
func (m *Message) Name() string {
	return m.name
}

// Type returns the Go struct type.
func (m *Message) Type() reflect.Type {
	return m.typ
}

// Schema returns the compiled TLV schema.
func (m *Message) Schema() *tlv.Schema {
	return m.schema
}

// New returns a pointer to a zero value of the message type.
func (m *Message) New() any {
	return reflect.New(m.typ).Interface()
}

// Encode encodes a value given as YAML or JSON.
func (m *Message) Encode(doc []byte) ([]byte, error) {
	j, e := yaml.YAMLToJSON(doc)
	if e != nil {
		return nil, e
	}
	ptr := m.New()
	if e := jsonhelper.Decode(j, ptr, jsonhelper.DisallowUnknownFields); e != nil {
		return nil, fmt.Errorf("message %s: %w", m.name, e)
	}
	return m.schema.Marshal(ptr)
}

// EncodeValue encodes a value given as JSON-compatible object, such as map[string]any.
func (m *Message) EncodeValue(value any) ([]byte, error) {
	ptr := m.New()
	if e := jsonhelper.Roundtrip(value, ptr, jsonhelper.DisallowUnknownFields); e != nil {
		return nil, fmt.Errorf("message %s: %w", m.name, e)
	}
	return m.schema.Marshal(ptr)
}

// Decode decodes wire into a JSON-compatible object.
// Numbers are represented as json.Number.
//
// If decoding stops at an unknown tag, the fields decoded so far are returned along with
// the *tlv.UnknownTagError.
func (m *Message) Decode(wire []byte, opts tlv.UnmarshalOptions) (value map[string]any, e error) {
	ptr := m.New()
	e = m.schema.Unmarshal(wire, ptr, opts)
	var unknown *tlv.UnknownTagError
	if e != nil && !errors.As(e, &unknown) {
		return nil, e
	}

	if e := jsonhelper.Roundtrip(ptr, &value, jsonhelper.UseNumber); e != nil {
		return nil, e
	}
	return value, e
}
