package tlv

import (
	"fmt"
	"strings"
)

// Format identifies a framing variant.
type Format uint8

// Framing variants.
const (
	FormatInvalid Format = iota
	FormatT              // tag only
	FormatV              // value only
	FormatTV             // tag and value, length implied by schema
	FormatLV             // length and value
	FormatLVE            // length and value, extended length
	FormatTLV            // tag, length, value
	FormatTLVE           // tag, length, value, extended length
)

var formatNames = map[Format]string{
	FormatT:    "T",
	FormatV:    "V",
	FormatTV:   "TV",
	FormatLV:   "LV",
	FormatLVE:  "LV-E",
	FormatTLV:  "TLV",
	FormatTLVE: "TLV-E",
}

func (f Format) String() string {
	if s, ok := formatNames[f]; ok {
		return s
	}
	return fmt.Sprintf("Format(%d)", uint8(f))
}

// Valid determines whether f is a known framing variant.
func (f Format) Valid() bool {
	_, ok := formatNames[f]
	return ok
}

// HasTag determines whether the framing variant carries a tag on the wire.
func (f Format) HasTag() bool {
	switch f {
	case FormatT, FormatTV, FormatTLV, FormatTLVE:
		return true
	}
	return false
}

// HasLength determines whether the framing variant carries a length on the wire.
func (f Format) HasLength() bool {
	switch f {
	case FormatLV, FormatLVE, FormatTLV, FormatTLVE:
		return true
	}
	return false
}

// DefaultTagWidth returns the conventional tag width.
func (f Format) DefaultTagWidth() Width {
	if f.HasTag() {
		return 1
	}
	return 0
}

// DefaultLengthWidth returns the conventional length width.
// Extended variants use two octets.
func (f Format) DefaultLengthWidth() Width {
	switch f {
	case FormatLV, FormatTLV:
		return 1
	case FormatLVE, FormatTLVE:
		return 2
	}
	return 0
}

// MarshalText implements encoding.TextMarshaler interface.
func (f Format) MarshalText() ([]byte, error) {
	if !f.Valid() {
		return nil, fmt.Errorf("invalid %s", f)
	}
	return []byte(f.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler interface.
func (f *Format) UnmarshalText(text []byte) (e error) {
	*f, e = ParseFormat(string(text))
	return e
}

// ParseFormat parses a framing variant name.
// It is case insensitive and accepts "LVE", "LV_E", "TLVE", "TLV_E" spellings.
func ParseFormat(s string) (Format, error) {
	norm := strings.ToUpper(strings.NewReplacer("-", "", "_", "").Replace(strings.TrimSpace(s)))
	switch norm {
	case "T":
		return FormatT, nil
	case "V":
		return FormatV, nil
	case "TV":
		return FormatTV, nil
	case "LV":
		return FormatLV, nil
	case "LVE":
		return FormatLVE, nil
	case "TLV":
		return FormatTLV, nil
	case "TLVE":
		return FormatTLVE, nil
	}
	return FormatInvalid, fmt.Errorf("unknown format %q", s)
}
