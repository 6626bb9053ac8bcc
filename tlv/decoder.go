package tlv

import (
	"fmt"
)

// Decoder is a read cursor over wire input.
// Offsets are relative to the outermost input, including in sub-decoders.
type Decoder struct {
	wire []byte
	pos  int
	base int

	allowUnknown bool
}

// NewDecoder creates a Decoder.
func NewDecoder(wire []byte) *Decoder {
	return &Decoder{wire: wire}
}

// Len returns the number of unconsumed octets.
func (d *Decoder) Len() int {
	return len(d.wire) - d.pos
}

// Offset returns the position of the next octet relative to the outermost input.
func (d *Decoder) Offset() int {
	return d.base + d.pos
}

// EOF returns true if decoder is at end of input.
func (d *Decoder) EOF() bool {
	return d.Len() == 0
}

// Rest returns unconsumed input without consuming it.
func (d *Decoder) Rest() []byte {
	return d.wire[d.pos:]
}

// ErrUnlessEOF returns an error if there is unconsumed input.
func (d *Decoder) ErrUnlessEOF() error {
	if d.EOF() {
		return nil
	}
	return fmt.Errorf("%w: %d octets at offset %d", ErrTail, d.Len(), d.Offset())
}

func (d *Decoder) errIncomplete(n int) error {
	return fmt.Errorf("%w: need %d octets at offset %d, have %d", ErrIncomplete, n, d.Offset(), d.Len())
}

// Peek returns the next n octets without consuming them.
func (d *Decoder) Peek(n int) ([]byte, error) {
	if n < 0 || n > d.Len() {
		return nil, d.errIncomplete(n)
	}
	return d.wire[d.pos : d.pos+n], nil
}

// Take consumes n octets and returns them.
// The returned slice aliases the input.
func (d *Decoder) Take(n int) ([]byte, error) {
	b, e := d.Peek(n)
	if e != nil {
		return nil, e
	}
	d.pos += n
	return b, nil
}

// Skip consumes n octets.
func (d *Decoder) Skip(n int) error {
	_, e := d.Take(n)
	return e
}

// ReadByte implements io.ByteReader interface.
func (d *Decoder) ReadByte() (byte, error) {
	b, e := d.Take(1)
	if e != nil {
		return 0, e
	}
	return b[0], nil
}

// ReadUint consumes a big-endian number of width w.
func (d *Decoder) ReadUint(w Width) (uint64, error) {
	off := d.Offset()
	b, e := d.Take(int(w))
	if e != nil {
		return 0, e
	}
	n, e := getUint(b)
	if e != nil {
		return 0, fmt.Errorf("%w at offset %d", e, off)
	}
	return n, nil
}

// Sub consumes n octets and returns a Decoder over them.
// Options and offset base carry over.
func (d *Decoder) Sub(n int) (*Decoder, error) {
	base := d.Offset()
	b, e := d.Take(n)
	if e != nil {
		return nil, e
	}
	return &Decoder{wire: b, base: base, allowUnknown: d.allowUnknown}, nil
}

// ReadAll consumes all remaining octets and returns a copy.
// The result is non-nil even if empty.
func (d *Decoder) ReadAll() []byte {
	b := append(make([]byte, 0, d.Len()), d.Rest()...)
	d.pos = len(d.wire)
	return b
}
