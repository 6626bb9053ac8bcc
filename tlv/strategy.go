package tlv

import (
	"fmt"
)

// EncodeField appends one field framed per f.
// v may be nil for FormatT.
// 4-bit fields are not handled here; use EncodeNibbleTV or EncodeNibblePair.
func EncodeField(enc *Encoder, f Field, v ValueEncoder) error {
	if f.IsNibble() {
		return fmt.Errorf("%w: %s field requires nibble packing", ErrSchema, f)
	}

	if f.Format.HasTag() {
		if e := enc.WriteUint(f.TagWidth, f.Tag); e != nil {
			return fmt.Errorf("tag: %w", e)
		}
	}
	if f.Format == FormatT {
		return nil
	}

	switch {
	case !f.Format.HasLength():
		return encodeFixedValue(enc, f, v)
	case f.HasLength:
		if e := enc.WriteUint(f.LengthWidth, uint64(f.Length)); e != nil {
			return &LengthOverflowError{Length: f.Length, Width: f.LengthWidth}
		}
		return encodeFixedValue(enc, f, v)
	}

	m := enc.BeginLength(f.LengthWidth)
	if e := v.EncodeValue(enc); e != nil {
		return e
	}
	_, e := enc.EndLength(m)
	return e
}

// encodeFixedValue writes the value and verifies its size against a literal length if present.
func encodeFixedValue(enc *Encoder, f Field, v ValueEncoder) error {
	start := enc.Len()
	if e := v.EncodeValue(enc); e != nil {
		return e
	}
	if n := enc.Len() - start; f.HasLength && n != f.Length {
		return fmt.Errorf("%w: value has %d octets, fixed length is %d", ErrRange, n, f.Length)
	}
	return nil
}

// DecodeField consumes one field framed per f and passes its value to v.
// v may be nil for FormatT.
// A V field without literal length passes all remaining input to v.
// 4-bit fields are not handled here; use DecodeNibbleTV or DecodeNibblePair.
func DecodeField(d *Decoder, f Field, v ValueDecoder) error {
	if f.IsNibble() {
		return fmt.Errorf("%w: %s field requires nibble packing", ErrSchema, f)
	}

	if f.Format.HasTag() {
		if e := decodeTag(d, f); e != nil {
			return e
		}
	}
	if f.Format == FormatT {
		return nil
	}

	length := d.Len()
	switch {
	case f.Format.HasLength():
		off := d.Offset()
		n, e := d.ReadUint(f.LengthWidth)
		if e != nil {
			return e
		}
		if f.HasLength && n != uint64(f.Length) {
			return fmt.Errorf("%w: length %d at offset %d, expect %d", ErrLength, n, off, f.Length)
		}
		if n > uint64(d.Len()) {
			return fmt.Errorf("%w: length %d at offset %d, have %d", ErrIncomplete, n, off, d.Len())
		}
		length = int(n)
	case f.HasLength:
		length = f.Length
	}

	sub, e := d.Sub(length)
	if e != nil {
		return e
	}
	return v.DecodeValue(sub)
}

func decodeTag(d *Decoder, f Field) error {
	off := d.Offset()
	tag, e := d.ReadUint(f.TagWidth)
	if e != nil {
		return e
	}
	if tag != f.Tag {
		return fmt.Errorf("%w: tag 0x%X at offset %d, expect 0x%X", ErrTagMismatch, tag, off, f.Tag)
	}
	return nil
}
