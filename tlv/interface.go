package tlv

// ValueEncoder is the interface implemented by an object that can encode itself as a field value.
// It writes the value only; framing is added by the caller.
type ValueEncoder interface {
	EncodeValue(enc *Encoder) error
}

// ValueDecoder is the interface implemented by an object that can decode a field value representation of itself.
// d is positioned over the value octets, bounded by the field length when the framing has one.
type ValueDecoder interface {
	DecodeValue(d *Decoder) error
}

// EncoderFunc adapts a function to ValueEncoder.
type EncoderFunc func(enc *Encoder) error

// EncodeValue implements ValueEncoder interface.
func (f EncoderFunc) EncodeValue(enc *Encoder) error {
	return f(enc)
}

// DecoderFunc adapts a function to ValueDecoder.
type DecoderFunc func(d *Decoder) error

// DecodeValue implements ValueDecoder interface.
func (f DecoderFunc) DecodeValue(d *Decoder) error {
	return f(d)
}
