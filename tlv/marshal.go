package tlv

import (
	"errors"
	"fmt"
	"reflect"
)

// topLevel describes how a Go type is encoded as a whole message.
type topLevel struct {
	name     string
	schema   *Schema
	codec    valueCodec
	envelope *Field
	capacity int
}

func (s *Schema) topLevel() topLevel {
	return topLevel{
		name:     s.name,
		schema:   s,
		envelope: s.envelope,
		capacity: s.capacity,
	}
}

func topLevelOf(t reflect.Type) (tl topLevel, e error) {
	if t.Kind() == reflect.Struct {
		s, e := SchemaOf(t)
		if e != nil {
			return tl, e
		}
		return s.topLevel(), nil
	}

	codec, e := newCompiler().codecOf(t)
	if e != nil {
		return tl, &SchemaError{Record: t.String(), Reason: e.Error()}
	}
	return topLevel{
		name:     t.String(),
		codec:    codec,
		capacity: DefaultCapacity,
	}, nil
}

func (tl topLevel) encodeValue(enc *Encoder, v reflect.Value) error {
	if tl.schema != nil {
		return tl.schema.encodeRecord(enc, v)
	}
	return tl.codec.encode(enc, v)
}

func (tl topLevel) encode(enc *Encoder, v reflect.Value) error {
	if tl.envelope == nil {
		return tl.encodeValue(enc, v)
	}
	return EncodeField(enc, *tl.envelope, EncoderFunc(func(enc *Encoder) error { return tl.encodeValue(enc, v) }))
}

func (tl topLevel) decode(d *Decoder, v reflect.Value) error {
	switch {
	case tl.envelope != nil:
		return DecodeField(d, *tl.envelope, DecoderFunc(func(d *Decoder) error {
			if e := tl.schema.decodeRecord(d, v); e != nil {
				return e
			}
			return d.ErrUnlessEOF()
		}))
	case tl.schema != nil:
		return tl.schema.decodeRecord(d, v)
	default:
		return tl.codec.decode(d, v)
	}
}

func (tl topLevel) marshal(rv reflect.Value) ([]byte, error) {
	enc := NewEncoder(tl.capacity)
	if e := tl.encode(enc, rv); e != nil {
		return nil, annotate(e, tl.name)
	}
	return enc.Bytes(), nil
}

func (tl topLevel) unmarshal(d *Decoder, ptr reflect.Value, opts UnmarshalOptions, requireEOF bool) error {
	d.allowUnknown = opts.AllowUnknown
	tmp := reflect.New(ptr.Type().Elem()).Elem()
	if tl.schema != nil && !tl.schema.IsNewtype() {
		// fields without a slot keep their values
		tmp.Set(ptr.Elem())
		for _, slot := range tl.schema.slots {
			tmp.Field(slot.Index).SetZero()
		}
	}
	e := tl.decode(d, tmp)
	if e == nil && requireEOF {
		e = d.ErrUnlessEOF()
	}

	var unknown *UnknownTagError
	if e == nil || errors.As(e, &unknown) {
		ptr.Elem().Set(tmp)
	}
	return annotate(e, tl.name)
}

// derefValue accepts a value or a non-nil pointer to it.
func derefValue(v any) (reflect.Value, error) {
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return rv, errors.New("tlv: cannot encode nil pointer")
		}
		rv = rv.Elem()
	}
	if !rv.IsValid() {
		return rv, errors.New("tlv: cannot encode nil")
	}
	return rv, nil
}

func pointerValue(v any) (reflect.Value, error) {
	ptr := reflect.ValueOf(v)
	if ptr.Kind() != reflect.Pointer || ptr.IsNil() {
		return ptr, fmt.Errorf("tlv: cannot decode into non-pointer or nil %T", v)
	}
	return ptr, nil
}

// Marshal encodes a value.
// v is a struct described by `tlv` struct tags, a pointer to one, or a value of a supported base type.
func Marshal(v any) ([]byte, error) {
	rv, e := derefValue(v)
	if e != nil {
		return nil, e
	}
	tl, e := topLevelOf(rv.Type())
	if e != nil {
		return nil, e
	}
	return tl.marshal(rv)
}

// Encode appends the encoding of v to enc.
// On error, enc may contain partial output.
func Encode(enc *Encoder, v any) error {
	rv, e := derefValue(v)
	if e != nil {
		return e
	}
	tl, e := topLevelOf(rv.Type())
	if e != nil {
		return e
	}
	return annotate(tl.encode(enc, rv), tl.name)
}

// UnmarshalOptions contains decoding options.
type UnmarshalOptions struct {
	// AllowUnknown skips tail entries with unknown tags, when all optional fields of the record
	// are TLV or TLV-E with the same tag and length widths.
	// Otherwise, an unknown tag causes *UnknownTagError.
	AllowUnknown bool
}

// Unmarshal decodes wire into v, which must be a non-nil pointer.
// All input must be consumed.
//
// Fields described by the schema are overwritten; other fields, such as those without a `tlv`
// struct tag, keep their values.
// On error, v is unchanged, except for *UnknownTagError where fields decoded before the
// unknown entry are stored into v.
func Unmarshal(wire []byte, v any) error {
	return UnmarshalOptions{}.Unmarshal(wire, v)
}

// Unmarshal decodes wire into v with options.
func (opts UnmarshalOptions) Unmarshal(wire []byte, v any) error {
	return opts.decode(NewDecoder(wire), v, true)
}

// Decode decodes one value from d into v, leaving subsequent input in d.
// A record with optional fields consumes all input.
func (opts UnmarshalOptions) Decode(d *Decoder, v any) error {
	return opts.decode(d, v, false)
}

func (opts UnmarshalOptions) decode(d *Decoder, v any, requireEOF bool) error {
	ptr, e := pointerValue(v)
	if e != nil {
		return e
	}
	tl, e := topLevelOf(ptr.Type().Elem())
	if e != nil {
		return e
	}
	return tl.unmarshal(d, ptr, opts, requireEOF)
}

func (s *Schema) checkType(t reflect.Type) error {
	if t != s.typ {
		return fmt.Errorf("tlv: schema %s expects %s, not %s", s.name, s.typ, t)
	}
	return nil
}

// Marshal encodes v, which must be of the schema's type or a pointer to it.
func (s *Schema) Marshal(v any) ([]byte, error) {
	rv, e := derefValue(v)
	if e != nil {
		return nil, e
	}
	if e := s.checkType(rv.Type()); e != nil {
		return nil, e
	}
	return s.topLevel().marshal(rv)
}

// Unmarshal decodes wire into v, which must be a pointer to the schema's type.
// It has the same semantics as UnmarshalOptions.Unmarshal.
func (s *Schema) Unmarshal(wire []byte, v any, opts UnmarshalOptions) error {
	ptr, e := pointerValue(v)
	if e != nil {
		return e
	}
	if e := s.checkType(ptr.Type().Elem()); e != nil {
		return e
	}
	return s.topLevel().unmarshal(NewDecoder(wire), ptr, opts, true)
}
