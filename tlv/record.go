package tlv

import (
	"reflect"
)

func (s *Schema) encodeRecord(enc *Encoder, v reflect.Value) error {
	if s.newtype != nil {
		return s.newtype.encode(enc, v.Field(0))
	}

	for _, op := range s.prefix {
		f, fv := op.slot.Field, v.Field(op.slot.Index)
		var e error
		switch {
		case op.second != nil:
			e = EncodeNibblePair(enc, uint8(fv.Uint()), uint8(v.Field(op.second.Index).Uint()))
		case f.IsNibbleTV():
			e = EncodeNibbleTV(enc, f, uint8(fv.Uint()))
		case f.Format == FormatT:
			e = EncodeField(enc, f, nil)
		default:
			e = EncodeField(enc, f, valueEncoderOf(op.codec, fv))
		}
		if e != nil {
			return annotate(e, op.slot.Name)
		}
	}

	if s.tail != nil {
		return s.tail.encode(enc, v)
	}
	return nil
}

// decodeRecord decodes into v, which must be settable.
// The required prefix is consumed in order; the tail consumes all remaining input.
// Without a tail, remaining input is left to the caller.
func (s *Schema) decodeRecord(d *Decoder, v reflect.Value) error {
	if s.newtype != nil {
		return s.newtype.decode(d, v.Field(0))
	}

	for _, op := range s.prefix {
		f, fv := op.slot.Field, v.Field(op.slot.Index)
		var e error
		switch {
		case op.second != nil:
			var first, second uint8
			if first, second, e = DecodeNibblePair(d); e == nil {
				fv.SetUint(uint64(first))
				v.Field(op.second.Index).SetUint(uint64(second))
			}
		case f.IsNibbleTV():
			var n uint8
			if n, e = DecodeNibbleTV(d, f); e == nil {
				fv.SetUint(uint64(n))
			}
		case f.Format == FormatT:
			e = DecodeField(d, f, nil)
		default:
			e = DecodeField(d, f, valueDecoderOf(op.codec, fv))
		}
		if e != nil {
			return annotate(e, op.slot.Name)
		}
	}

	if s.tail != nil {
		return s.tail.decode(d, v)
	}
	return nil
}
