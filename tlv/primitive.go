package tlv

// Uint8 is a 1-octet value.
// Decoding reads the first octet and ignores the rest.
type Uint8 uint8

// EncodeValue implements ValueEncoder interface.
func (v Uint8) EncodeValue(enc *Encoder) error {
	return enc.WriteByte(byte(v))
}

// DecodeValue implements ValueDecoder interface.
func (v *Uint8) DecodeValue(d *Decoder) error {
	c, e := d.ReadByte()
	*v = Uint8(c)
	return e
}

// Uint16 is a 2-octet big-endian value.
type Uint16 uint16

// EncodeValue implements ValueEncoder interface.
func (v Uint16) EncodeValue(enc *Encoder) error {
	return enc.WriteUint(2, uint64(v))
}

// DecodeValue implements ValueDecoder interface.
func (v *Uint16) DecodeValue(d *Decoder) error {
	n, e := d.ReadUint(2)
	*v = Uint16(n)
	return e
}

// Uint32 is a 4-octet big-endian value.
type Uint32 uint32

// EncodeValue implements ValueEncoder interface.
func (v Uint32) EncodeValue(enc *Encoder) error {
	return enc.WriteUint(4, uint64(v))
}

// DecodeValue implements ValueDecoder interface.
func (v *Uint32) DecodeValue(d *Decoder) error {
	n, e := d.ReadUint(4)
	*v = Uint32(n)
	return e
}

// Uint64 is an 8-octet big-endian value.
type Uint64 uint64

// EncodeValue implements ValueEncoder interface.
func (v Uint64) EncodeValue(enc *Encoder) error {
	return enc.WriteUint(8, uint64(v))
}

// DecodeValue implements ValueDecoder interface.
func (v *Uint64) DecodeValue(d *Decoder) error {
	n, e := d.ReadUint(8)
	*v = Uint64(n)
	return e
}

// Bytes is a raw octet string.
// Decoding copies all remaining value octets.
type Bytes []byte

// EncodeValue implements ValueEncoder interface.
func (v Bytes) EncodeValue(enc *Encoder) error {
	_, e := enc.Write(v)
	return e
}

// DecodeValue implements ValueDecoder interface.
func (v *Bytes) DecodeValue(d *Decoder) error {
	*v = d.ReadAll()
	return nil
}
