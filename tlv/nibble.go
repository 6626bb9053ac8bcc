package tlv

import (
	"fmt"
)

// PackNibbles combines two 4-bit values into one octet.
// hi is the first declared field.
func PackNibbles(hi, lo uint8) (byte, error) {
	if hi > 0x0F || lo > 0x0F {
		return 0, fmt.Errorf("%w: nibbles %d,%d exceed 15", ErrRange, hi, lo)
	}
	return hi<<4 | lo, nil
}

// UnpackNibbles splits one octet into two 4-bit values.
func UnpackNibbles(c byte) (hi, lo uint8) {
	return c >> 4, c & 0x0F
}

// EncodeNibblePair appends an octet holding two tagless 4-bit values.
func EncodeNibblePair(enc *Encoder, first, second uint8) error {
	c, e := PackNibbles(first, second)
	if e != nil {
		return e
	}
	return enc.WriteByte(c)
}

// DecodeNibblePair consumes an octet holding two tagless 4-bit values.
func DecodeNibblePair(d *Decoder) (first, second uint8, e error) {
	c, e := d.ReadByte()
	if e != nil {
		return 0, 0, e
	}
	first, second = UnpackNibbles(c)
	return first, second, nil
}

// EncodeNibbleTV appends an octet with f.Tag in the high nibble and v in the low nibble.
func EncodeNibbleTV(enc *Encoder, f Field, v uint8) error {
	if !f.IsNibbleTV() {
		return fmt.Errorf("%w: %s is not a 4-bit TV field", ErrSchema, f)
	}
	if f.Tag > 0x0F {
		return fmt.Errorf("%w: tag 0x%X exceeds 4 bits", ErrRange, f.Tag)
	}
	return EncodeNibblePair(enc, uint8(f.Tag), v)
}

// DecodeNibbleTV consumes an octet with a 4-bit tag and a 4-bit value.
// The tag must equal f.Tag.
func DecodeNibbleTV(d *Decoder, f Field) (uint8, error) {
	if !f.IsNibbleTV() {
		return 0, fmt.Errorf("%w: %s is not a 4-bit TV field", ErrSchema, f)
	}
	off := d.Offset()
	tag, v, e := DecodeNibblePair(d)
	if e != nil {
		return 0, e
	}
	if uint64(tag) != f.Tag {
		return 0, fmt.Errorf("%w: nibble tag 0x%X at offset %d, expect 0x%X", ErrTagMismatch, tag, off, f.Tag)
	}
	return v, nil
}
