package tlv

import (
	"fmt"
	"strings"
)

// DefaultCapacity is the default encode buffer capacity hint.
const DefaultCapacity = 1024

// Field describes the wire framing of one value slot.
// It is immutable once a schema is built.
type Field struct {
	Format Format

	// Tag is the literal tag, meaningful if HasTag is true.
	Tag    uint64
	HasTag bool
	// TagWidth is the tag size in octets.
	// Zero with FormatTV selects a 4-bit tag sharing an octet with a 4-bit value.
	TagWidth Width

	// Length is the literal length, meaningful if HasLength is true.
	// Decoding verifies the wire length equals this literal.
	Length    int
	HasLength bool
	// LengthWidth is the length size in octets.
	LengthWidth Width

	// ValueBits is 8 for whole octets, or 4 for a nibble packed with its neighbor.
	// Zero is treated as 8.
	ValueBits uint8

	// Capacity is an encode buffer capacity hint.
	Capacity int
}

// TField creates a tag-only descriptor.
func TField(tag uint64) Field {
	return Field{Format: FormatT, Tag: tag, HasTag: true, TagWidth: 1, ValueBits: 8}
}

// VField creates a value-only descriptor of fixed length.
func VField(length int) Field {
	return Field{Format: FormatV, Length: length, HasLength: true, ValueBits: 8}
}

// NibbleField creates a 4-bit value-only descriptor.
func NibbleField() Field {
	return Field{Format: FormatV, ValueBits: 4}
}

// TVField creates a tag-value descriptor with a fixed value length.
func TVField(tag uint64, length int) Field {
	return Field{Format: FormatTV, Tag: tag, HasTag: true, TagWidth: 1, Length: length, HasLength: true, ValueBits: 8}
}

// NibbleTVField creates a descriptor of a 4-bit tag and 4-bit value sharing one octet.
func NibbleTVField(tag uint8) Field {
	return Field{Format: FormatTV, Tag: uint64(tag), HasTag: true, ValueBits: 4}
}

// LVField creates a length-value descriptor with 1-octet length.
func LVField() Field {
	return Field{Format: FormatLV, LengthWidth: 1, ValueBits: 8}
}

// LVEField creates a length-value descriptor with 2-octet length.
func LVEField() Field {
	return Field{Format: FormatLVE, LengthWidth: 2, ValueBits: 8}
}

// TLVField creates a tag-length-value descriptor with 1-octet tag and 1-octet length.
func TLVField(tag uint64) Field {
	return Field{Format: FormatTLV, Tag: tag, HasTag: true, TagWidth: 1, LengthWidth: 1, ValueBits: 8}
}

// TLVEField creates a tag-length-value descriptor with 1-octet tag and 2-octet length.
func TLVEField(tag uint64) Field {
	return Field{Format: FormatTLVE, Tag: tag, HasTag: true, TagWidth: 1, LengthWidth: 2, ValueBits: 8}
}

// WithTagWidth returns a copy with modified tag width.
func (f Field) WithTagWidth(w Width) Field {
	f.TagWidth = w
	return f
}

// WithLengthWidth returns a copy with modified length width.
func (f Field) WithLengthWidth(w Width) Field {
	f.LengthWidth = w
	return f
}

// WithLength returns a copy with a literal length.
func (f Field) WithLength(n int) Field {
	f.Length, f.HasLength = n, true
	return f
}

// IsNibble determines whether the value occupies 4 bits.
func (f Field) IsNibble() bool {
	return f.ValueBits == 4
}

// IsNibbleTV determines whether this is a 4-bit tag with 4-bit value.
func (f Field) IsNibbleTV() bool {
	return f.Format == FormatTV && f.IsNibble()
}

// IsNibblePair determines whether this is a tagless 4-bit value packed with its neighbor.
func (f Field) IsNibblePair() bool {
	return f.Format == FormatV && f.IsNibble()
}

// HeaderSize returns the number of octets before the value.
func (f Field) HeaderSize() int {
	return int(f.TagWidth) + int(f.LengthWidth)
}

// Validate checks the descriptor on its own.
// It returns a list of reasons, empty when the descriptor is valid.
func (f Field) Validate() (reasons []string) {
	bad := func(format string, arg ...any) {
		reasons = append(reasons, fmt.Sprintf(format, arg...))
	}

	if !f.Format.Valid() {
		bad("invalid format %d", f.Format)
		return
	}
	if !f.TagWidth.Valid() {
		bad("invalid tag width %d", f.TagWidth)
	}
	if !f.LengthWidth.Valid() {
		bad("invalid length width %d", f.LengthWidth)
	}

	switch f.ValueBits {
	case 0, 8:
	case 4:
		switch f.Format {
		case FormatV:
			if f.HasTag || f.TagWidth != 0 || f.LengthWidth != 0 || f.HasLength {
				bad("4-bit V field cannot have tag or length")
			}
		case FormatTV:
			if f.TagWidth != 0 {
				bad("4-bit TV field must have tag width 0")
			}
			if !f.HasTag || f.Tag > 0x0F {
				bad("4-bit TV field requires tag 0x0-0xF")
			}
			if f.HasLength {
				bad("4-bit TV field cannot have length")
			}
		default:
			bad("4-bit value is not allowed in %s field", f.Format)
		}
		return
	default:
		bad("value bits must be 8 or 4")
		return
	}

	if f.Format.HasTag() {
		switch {
		case !f.HasTag:
			bad("%s field requires a tag", f.Format)
		case f.TagWidth == 0:
			bad("%s field requires tag width", f.Format)
		case !Fits(f.TagWidth, f.Tag):
			bad("tag 0x%X does not fit in %d octets", f.Tag, f.TagWidth)
		}
	} else if f.HasTag || f.TagWidth != 0 {
		bad("%s field cannot have a tag", f.Format)
	}

	if f.Format.HasLength() {
		if f.LengthWidth == 0 {
			bad("%s field requires length width", f.Format)
		}
	} else if f.LengthWidth != 0 {
		bad("%s field cannot have length width", f.Format)
	}

	if f.HasLength {
		switch {
		case f.Length < 0:
			bad("negative length %d", f.Length)
		case f.Format == FormatT:
			bad("T field cannot have length")
		case f.LengthWidth > 0 && !Fits(f.LengthWidth, f.Length):
			bad("length %d does not fit in %d octets", f.Length, f.LengthWidth)
		}
	} else if f.Format == FormatTV {
		bad("TV field requires a literal length")
	}

	if f.Capacity < 0 {
		bad("negative capacity")
	}
	return
}

func (f Field) String() string {
	var b strings.Builder
	b.WriteString(f.Format.String())
	var params []string
	if f.HasTag {
		params = append(params, fmt.Sprintf("tag=0x%X", f.Tag))
	}
	if f.TagWidth != f.Format.DefaultTagWidth() && !f.IsNibbleTV() {
		params = append(params, fmt.Sprintf("tw=%d", f.TagWidth))
	}
	if f.HasLength {
		params = append(params, fmt.Sprintf("len=%d", f.Length))
	}
	if f.LengthWidth != f.Format.DefaultLengthWidth() {
		params = append(params, fmt.Sprintf("lw=%d", f.LengthWidth))
	}
	if f.IsNibble() {
		params = append(params, "bits=4")
	}
	if len(params) > 0 {
		b.WriteString("(" + strings.Join(params, ",") + ")")
	}
	return b.String()
}
