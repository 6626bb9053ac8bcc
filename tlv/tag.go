package tlv

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"go.uber.org/multierr"
)

// ParseStructTag parses a `tlv` struct tag.
//
// The first item is the format name.
// Following items are key=value pairs:
//   - tag: literal tag, decimal or 0x-prefixed hexadecimal
//   - tw: tag width in octets
//   - len: literal length
//   - lw: length width in octets
//   - bits: 8 or 4
//   - cap: encode buffer capacity hint
//
// The "optional" flag marks a byte slice as optional, where nil means absent.
// A zero-length value on the wire decodes as a non-nil empty slice, so that it re-encodes as
// present. Pointer fields of fixed-size types treat a zero-length value as absent.
// Widths not specified take format defaults; a 4-bit TV field defaults to tag width 0.
func ParseStructTag(s string) (f Field, optional bool, e error) {
	items := strings.Split(s, ",")
	format, e := ParseFormat(items[0])
	if e != nil {
		return f, false, e
	}
	f = Field{
		Format:      format,
		TagWidth:    format.DefaultTagWidth(),
		LengthWidth: format.DefaultLengthWidth(),
		ValueBits:   8,
	}

	twSet := false
	for _, item := range items[1:] {
		key, value, _ := strings.Cut(strings.TrimSpace(item), "=")
		switch key {
		case "optional":
			optional = true
		case "tag":
			f.Tag, e = strconv.ParseUint(value, 0, 64)
			f.HasTag = true
		case "tw":
			f.TagWidth, e = parseWidth(value)
			twSet = true
		case "len":
			f.Length, e = strconv.Atoi(value)
			f.HasLength = true
		case "lw":
			f.LengthWidth, e = parseWidth(value)
		case "bits":
			var bits uint64
			bits, e = strconv.ParseUint(value, 10, 8)
			f.ValueBits = uint8(bits)
		case "cap":
			f.Capacity, e = strconv.Atoi(value)
		default:
			e = fmt.Errorf("unknown key %q", key)
		}
		if e != nil {
			return f, false, fmt.Errorf("tlv tag %q: %w", s, e)
		}
	}

	if f.IsNibbleTV() && !twSet {
		f.TagWidth = 0
	}
	return f, optional, nil
}

func parseWidth(value string) (Width, error) {
	w, e := strconv.ParseUint(value, 10, 8)
	return Width(w), e
}

// StructTag formats f as a `tlv` struct tag.
// ParseStructTag(f.StructTag(optional)) yields an equivalent Field.
func (f Field) StructTag(optional bool) string {
	items := []string{f.Format.String()}
	if f.HasTag {
		items = append(items, fmt.Sprintf("tag=0x%X", f.Tag))
	}
	if f.IsNibbleTV() || f.TagWidth != f.Format.DefaultTagWidth() {
		items = append(items, fmt.Sprintf("tw=%d", f.TagWidth))
	}
	if f.HasLength {
		items = append(items, fmt.Sprintf("len=%d", f.Length))
	}
	if f.LengthWidth != f.Format.DefaultLengthWidth() {
		items = append(items, fmt.Sprintf("lw=%d", f.LengthWidth))
	}
	if f.ValueBits != 0 && f.ValueBits != 8 {
		items = append(items, fmt.Sprintf("bits=%d", f.ValueBits))
	}
	if f.Capacity != 0 {
		items = append(items, fmt.Sprintf("cap=%d", f.Capacity))
	}
	if optional {
		items = append(items, "optional")
	}
	return strings.Join(items, ",")
}

// presenceOf derives slot presence from the Go type.
func presenceOf(t reflect.Type, optional bool) Presence {
	switch {
	case t.Kind() == reflect.Pointer:
		return Optional
	case t.Kind() == reflect.Slice && !bytesLike(t):
		return Repeated
	case optional:
		return Optional
	}
	return Required
}

// naturalSize returns the encoded size of fixed-size base types, or -1.
func naturalSize(t reflect.Type) int {
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	switch t.Kind() {
	case reflect.Uint8:
		return 1
	case reflect.Uint16:
		return 2
	case reflect.Uint32:
		return 4
	case reflect.Uint64:
		return 8
	case reflect.Array:
		if t.Elem().Kind() == reflect.Uint8 {
			return t.Len()
		}
	}
	return -1
}

// slotsFromStruct reads `tlv` struct tags.
// Fields without a tag, or tagged "-", are ignored.
// V and TV fields of fixed-size base types get their literal length from the type.
func slotsFromStruct(t reflect.Type) (slots []Slot, envelope *Field, errs error) {
	name := recordName(t)
	if t.Kind() != reflect.Struct {
		return nil, nil, &SchemaError{Record: name, Reason: fmt.Sprintf("%s is not a struct", t)}
	}

	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		value, ok := sf.Tag.Lookup("tlv")
		if !ok || value == "-" {
			continue
		}
		f, optional, e := ParseStructTag(value)
		if e != nil {
			errs = multierr.Append(errs, &SchemaError{Record: name, Field: sf.Name, Reason: e.Error()})
			continue
		}

		if sf.Type == envelopeType {
			if envelope != nil {
				errs = multierr.Append(errs, &SchemaError{Record: name, Field: sf.Name, Reason: "duplicate envelope"})
			}
			envelope = &f
			continue
		}

		if (f.Format == FormatV || f.Format == FormatTV) && !f.HasLength && !f.IsNibble() {
			if size := naturalSize(sf.Type); size >= 0 {
				f.Length, f.HasLength = size, true
			}
		}
		slots = append(slots, Slot{
			Name:     sf.Name,
			Index:    i,
			Field:    f,
			Presence: presenceOf(sf.Type, optional),
		})
	}
	return slots, envelope, errs
}
