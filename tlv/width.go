package tlv

import (
	"math"

	"golang.org/x/exp/constraints"
)

// Width is the size of a tag or length field in octets.
// Zero means the field is absent on the wire.
type Width uint8

// Valid determines whether w is a supported width: 0, 1, 2, 4, 8, or 16.
func (w Width) Valid() bool {
	switch w {
	case 0, 1, 2, 4, 8, 16:
		return true
	}
	return false
}

// Max returns the largest number representable in this width.
// A 16-octet field carries numbers up to math.MaxUint64 in its low 8 octets.
func (w Width) Max() uint64 {
	switch {
	case w == 0:
		return 0
	case w >= 8:
		return math.MaxUint64
	default:
		return 1<<(8*uint(w)) - 1
	}
}

// Fits determines whether n is representable in this width.
func Fits[V constraints.Integer](w Width, n V) bool {
	return n >= 0 && uint64(n) <= w.Max()
}

// putUint writes n big-endian into b, filling all of b.
func putUint(b []byte, n uint64) {
	for i := len(b) - 1; i >= 0; i-- {
		b[i] = byte(n)
		n >>= 8
	}
}

// getUint reads a big-endian number from b.
// Octets beyond the low 8 must be zero.
func getUint(b []byte) (n uint64, e error) {
	if len(b) > 8 {
		for _, c := range b[:len(b)-8] {
			if c != 0 {
				return 0, ErrWide
			}
		}
		b = b[len(b)-8:]
	}
	for _, c := range b {
		n = n<<8 | uint64(c)
	}
	return n, nil
}
