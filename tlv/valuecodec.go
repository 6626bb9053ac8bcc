package tlv

import (
	"errors"
	"fmt"
	"reflect"
)

var (
	valueEncoderType = reflect.TypeOf((*ValueEncoder)(nil)).Elem()
	valueDecoderType = reflect.TypeOf((*ValueDecoder)(nil)).Elem()
	envelopeType     = reflect.TypeOf(Envelope{})
)

var errNilPointer = errors.New("nil pointer in required position")

// valueCodec encodes and decodes a field value through reflection.
type valueCodec interface {
	encode(enc *Encoder, v reflect.Value) error
	// decode assigns to v, which must be settable.
	decode(d *Decoder, v reflect.Value) error
	// size returns the exact encoded size, or -1 if variable.
	size() int
}

// bytesLike determines whether values of type t consume all remaining octets.
func bytesLike(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.String:
		return true
	case reflect.Slice:
		return t.Elem().Kind() == reflect.Uint8
	}
	return false
}

func valueEncoderOf(c valueCodec, v reflect.Value) ValueEncoder {
	return EncoderFunc(func(enc *Encoder) error { return c.encode(enc, v) })
}

func valueDecoderOf(c valueCodec, v reflect.Value) ValueDecoder {
	return DecoderFunc(func(d *Decoder) error { return c.decode(d, v) })
}

type customCodec struct {
	ptrEncoder bool
}

func (c customCodec) encode(enc *Encoder, v reflect.Value) error {
	if c.ptrEncoder {
		if !v.CanAddr() {
			vv := reflect.New(v.Type())
			vv.Elem().Set(v)
			v = vv.Elem()
		}
		v = v.Addr()
	}
	return v.Interface().(ValueEncoder).EncodeValue(enc)
}

func (customCodec) decode(d *Decoder, v reflect.Value) error {
	return v.Addr().Interface().(ValueDecoder).DecodeValue(d)
}

func (customCodec) size() int {
	return -1
}

type uintCodec Width

func (c uintCodec) encode(enc *Encoder, v reflect.Value) error {
	return enc.WriteUint(Width(c), v.Uint())
}

func (c uintCodec) decode(d *Decoder, v reflect.Value) error {
	n, e := d.ReadUint(Width(c))
	if e != nil {
		return e
	}
	v.SetUint(n)
	return nil
}

func (c uintCodec) size() int {
	return int(c)
}

type bytesCodec struct{}

func (bytesCodec) encode(enc *Encoder, v reflect.Value) error {
	if v.Kind() == reflect.String {
		_, e := enc.Write([]byte(v.String()))
		return e
	}
	_, e := enc.Write(v.Bytes())
	return e
}

func (bytesCodec) decode(d *Decoder, v reflect.Value) error {
	if v.Kind() == reflect.String {
		v.SetString(string(d.ReadAll()))
		return nil
	}
	v.SetBytes(d.ReadAll())
	return nil
}

func (bytesCodec) size() int {
	return -1
}

type arrayCodec int

func (c arrayCodec) encode(enc *Encoder, v reflect.Value) error {
	for i := 0; i < int(c); i++ {
		enc.b = append(enc.b, byte(v.Index(i).Uint()))
	}
	return nil
}

func (c arrayCodec) decode(d *Decoder, v reflect.Value) error {
	b, e := d.Take(int(c))
	if e != nil {
		return e
	}
	for i, o := range b {
		v.Index(i).SetUint(uint64(o))
	}
	return nil
}

func (c arrayCodec) size() int {
	return int(c)
}

// recordCodec encodes a nested record, which must fill its enclosing value exactly.
type recordCodec struct {
	s *Schema
}

func (c recordCodec) encode(enc *Encoder, v reflect.Value) error {
	return c.s.encodeRecord(enc, v)
}

func (c recordCodec) decode(d *Decoder, v reflect.Value) error {
	if e := c.s.decodeRecord(d, v); e != nil {
		return e
	}
	return d.ErrUnlessEOF()
}

func (recordCodec) size() int {
	return -1
}

type ptrCodec struct {
	elem valueCodec
}

func (c ptrCodec) encode(enc *Encoder, v reflect.Value) error {
	if v.IsNil() {
		return errNilPointer
	}
	return c.elem.encode(enc, v.Elem())
}

func (c ptrCodec) decode(d *Decoder, v reflect.Value) error {
	p := reflect.New(v.Type().Elem())
	if e := c.elem.decode(d, p.Elem()); e != nil {
		return e
	}
	v.Set(p)
	return nil
}

func (c ptrCodec) size() int {
	return c.elem.size()
}

// codecOf resolves the value codec of type t.
func (c *compiler) codecOf(t reflect.Type) (valueCodec, error) {
	ptrT := reflect.PointerTo(t)
	if ptrT.Implements(valueDecoderType) {
		switch {
		case t.Implements(valueEncoderType):
			return customCodec{}, nil
		case ptrT.Implements(valueEncoderType):
			return customCodec{ptrEncoder: true}, nil
		}
	}

	switch t.Kind() {
	case reflect.Uint8:
		return uintCodec(1), nil
	case reflect.Uint16:
		return uintCodec(2), nil
	case reflect.Uint32:
		return uintCodec(4), nil
	case reflect.Uint64:
		return uintCodec(8), nil
	case reflect.String:
		return bytesCodec{}, nil
	case reflect.Slice:
		if bytesLike(t) {
			return bytesCodec{}, nil
		}
	case reflect.Array:
		if t.Elem().Kind() == reflect.Uint8 {
			return arrayCodec(t.Len()), nil
		}
	case reflect.Pointer:
		elem, e := c.codecOf(t.Elem())
		if e != nil {
			return nil, e
		}
		return ptrCodec{elem}, nil
	case reflect.Struct:
		s, e := c.schemaOf(t)
		if e != nil {
			return nil, e
		}
		return recordCodec{s}, nil
	}
	return nil, fmt.Errorf("unsupported value type %s", t)
}
