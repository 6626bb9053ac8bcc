package tlv

import (
	"fmt"

	binutils "github.com/jfoster/binary-utilities"
	"github.com/pkg/math"
)

// Encoder capacity hint limits.
const (
	minCapacity = 16
	maxCapacity = 1 << 20
)

// Encoder is an append-only output buffer.
// Zero value is an empty buffer.
type Encoder struct {
	b []byte
}

// NewEncoder creates an Encoder with a capacity hint.
func NewEncoder(capacity int) *Encoder {
	capacity = int(binutils.NextPowerOfTwo(int64(math.MaxInt(capacity, minCapacity))))
	capacity = math.MinInt(capacity, maxCapacity)
	return &Encoder{b: make([]byte, 0, capacity)}
}

// Len returns the number of octets written so far.
func (enc *Encoder) Len() int {
	return len(enc.b)
}

// Bytes returns encoder output.
// The slice is valid until the next write.
func (enc *Encoder) Bytes() []byte {
	return enc.b
}

// Reset discards output while retaining the buffer.
func (enc *Encoder) Reset() {
	enc.b = enc.b[:0]
}

// Write implements io.Writer interface.
func (enc *Encoder) Write(p []byte) (n int, e error) {
	enc.b = append(enc.b, p...)
	return len(p), nil
}

// WriteByte implements io.ByteWriter interface.
func (enc *Encoder) WriteByte(c byte) error {
	enc.b = append(enc.b, c)
	return nil
}

// WriteUint appends a big-endian number of width w.
func (enc *Encoder) WriteUint(w Width, n uint64) error {
	if !Fits(w, n) {
		return fmt.Errorf("%w: %d does not fit in %d octets", ErrRange, n, w)
	}
	pos := len(enc.b)
	enc.b = append(enc.b, make([]byte, w)...)
	putUint(enc.b[pos:], n)
	return nil
}

// LengthMark records a length placeholder written by BeginLength.
type LengthMark struct {
	pos   int
	width Width
}

// BeginLength writes a zero placeholder of width w.
// The caller then writes the value and calls EndLength.
func (enc *Encoder) BeginLength(w Width) LengthMark {
	m := LengthMark{pos: len(enc.b), width: w}
	enc.b = append(enc.b, make([]byte, w)...)
	return m
}

// EndLength overwrites the placeholder with the number of octets written after it.
// If the count does not fit in the placeholder, it returns *LengthOverflowError and leaves the placeholder unchanged.
func (enc *Encoder) EndLength(m LengthMark) (n int, e error) {
	start := m.pos + int(m.width)
	n = len(enc.b) - start
	if !Fits(m.width, n) {
		return n, &LengthOverflowError{Length: n, Width: m.width}
	}
	putUint(enc.b[m.pos:start], uint64(n))
	return n, nil
}
