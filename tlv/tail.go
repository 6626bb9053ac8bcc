package tlv

import (
	"fmt"
	"reflect"

	"github.com/zyedidia/generic/mapset"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// tailEntry is an optional or repeated slot.
type tailEntry struct {
	slot  Slot
	elem  reflect.Type
	codec valueCodec // nil for 4-bit TV
	ptr   bool
}

func (ent tailEntry) encode(enc *Encoder, v reflect.Value) error {
	if f := ent.slot.Field; f.IsNibbleTV() {
		return EncodeNibbleTV(enc, f, uint8(v.Uint()))
	}
	return EncodeField(enc, ent.slot.Field, valueEncoderOf(ent.codec, v))
}

// decode consumes one entry and assigns it to fv.
// A zero-length value of a fixed-size optional slot leaves it absent.
func (ent tailEntry) decode(d *Decoder, fv reflect.Value) error {
	f := ent.slot.Field
	target := reflect.New(ent.elem).Elem()
	absent := false
	if f.IsNibbleTV() {
		n, e := DecodeNibbleTV(d, f)
		if e != nil {
			return e
		}
		target.SetUint(uint64(n))
	} else {
		e := DecodeField(d, f, DecoderFunc(func(sub *Decoder) error {
			if ent.slot.Presence == Optional && sub.EOF() && ent.codec.size() > 0 {
				absent = true
				return nil
			}
			return ent.codec.decode(sub, target)
		}))
		if e != nil {
			return e
		}
	}

	switch {
	case absent:
	case ent.slot.Presence == Repeated:
		fv.Set(reflect.Append(fv, target))
	case ent.ptr:
		fv.Set(target.Addr())
	default:
		fv.Set(target)
	}
	return nil
}

// tailTable dispatches tail entries by tag.
type tailTable struct {
	entries []tailEntry
	// nibble maps a 4-bit tag to entry index plus one.
	nibble [16]int
	// byTag maps a full-width tag to entry index.
	byTag map[uint64]int
	// tagWidth is the width shared by all full-width tags.
	tagWidth Width
	// skipLW is the length width for skipping unknown entries, or zero if they cannot be skipped.
	skipLW Width
}

// leadingNibble returns the high nibble of the first octet of a tag.
func leadingNibble(tag uint64, w Width) uint8 {
	if w > 8 {
		return 0
	}
	return uint8(tag>>(8*uint(w)-4)) & 0x0F
}

func newTailTable(entries []tailEntry, bad func(field, format string, arg ...any)) *tailTable {
	tt := &tailTable{
		entries: entries,
		byTag:   map[uint64]int{},
	}
	skippable := true
	for i, ent := range entries {
		f := ent.slot.Field
		if f.IsNibbleTV() {
			skippable = false
			if j := tt.nibble[f.Tag]; j != 0 {
				bad(ent.slot.Name, "4-bit tag 0x%X duplicates %s", f.Tag, entries[j-1].slot.Name)
				continue
			}
			tt.nibble[f.Tag] = i + 1
			continue
		}

		if tt.tagWidth == 0 {
			tt.tagWidth = f.TagWidth
		} else if f.TagWidth != tt.tagWidth {
			bad(ent.slot.Name, "tag width %d differs from %d of other optional fields", f.TagWidth, tt.tagWidth)
			continue
		}
		if j, ok := tt.byTag[f.Tag]; ok {
			bad(ent.slot.Name, "tag 0x%X duplicates %s", f.Tag, entries[j].slot.Name)
			continue
		}
		tt.byTag[f.Tag] = i

		switch {
		case f.Format == FormatTV:
			skippable = false
		case tt.skipLW == 0:
			tt.skipLW = f.LengthWidth
		case f.LengthWidth != tt.skipLW:
			skippable = false
		}
	}

	tags := maps.Keys(tt.byTag)
	slices.Sort(tags)
	for _, tag := range tags {
		if j := tt.nibble[leadingNibble(tag, tt.tagWidth)]; j != 0 {
			bad(entries[tt.byTag[tag]].slot.Name, "tag 0x%X is ambiguous with 4-bit tag of %s", tag, entries[j-1].slot.Name)
		}
	}

	if !skippable {
		tt.skipLW = 0
	}
	return tt
}

func (tt *tailTable) encode(enc *Encoder, v reflect.Value) error {
	for _, ent := range tt.entries {
		fv := v.Field(ent.slot.Index)
		var e error
		switch {
		case ent.slot.Presence == Repeated:
			for j := 0; j < fv.Len() && e == nil; j++ {
				e = ent.encode(enc, fv.Index(j))
			}
		case fv.IsNil():
		case ent.ptr:
			e = ent.encode(enc, fv.Elem())
		default:
			e = ent.encode(enc, fv)
		}
		if e != nil {
			return annotate(e, ent.slot.Name)
		}
	}
	return nil
}

func (tt *tailTable) decode(d *Decoder, v reflect.Value) error {
	seen := mapset.New[int]()
	for !d.EOF() {
		off := d.Offset()
		i, tag, e := tt.lookup(d)
		if e != nil {
			return e
		}
		if i < 0 {
			if d.allowUnknown && tt.skipLW > 0 {
				if e := tt.skip(d); e != nil {
					return e
				}
				continue
			}
			return &UnknownTagError{Tag: tag, Offset: off}
		}

		ent := tt.entries[i]
		if seen.Has(i) && ent.slot.Presence != Repeated {
			return &DuplicateTagError{Tag: tag, Offset: off}
		}
		seen.Put(i)
		if e := ent.decode(d, v.Field(ent.slot.Index)); e != nil {
			return annotate(e, ent.slot.Name)
		}
	}
	return nil
}

// lookup peeks the next tag and finds its entry.
// i is -1 if the tag is unknown.
func (tt *tailTable) lookup(d *Decoder) (i int, tag uint64, e error) {
	c, e := d.Peek(1)
	if e != nil {
		return -1, 0, e
	}
	hi := c[0] >> 4
	if j := tt.nibble[hi]; j != 0 {
		return j - 1, uint64(hi), nil
	}
	if tt.tagWidth == 0 {
		return -1, uint64(hi), nil
	}

	off := d.Offset()
	hdr, e := d.Peek(int(tt.tagWidth))
	if e != nil {
		return -1, 0, e
	}
	if tag, e = getUint(hdr); e != nil {
		return -1, 0, fmt.Errorf("%w at offset %d", e, off)
	}
	if j, ok := tt.byTag[tag]; ok {
		return j, tag, nil
	}
	return -1, tag, nil
}

// skip consumes an unknown TLV-shaped entry.
func (tt *tailTable) skip(d *Decoder) error {
	if e := d.Skip(int(tt.tagWidth)); e != nil {
		return e
	}
	off := d.Offset()
	n, e := d.ReadUint(tt.skipLW)
	if e != nil {
		return e
	}
	if n > uint64(d.Len()) {
		return fmt.Errorf("%w: length %d at offset %d, have %d", ErrIncomplete, n, off, d.Len())
	}
	return d.Skip(int(n))
}
