package tlv

import (
	"errors"
	"fmt"
	"reflect"

	lru "github.com/hashicorp/golang-lru"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/exp/slices"
)

// Presence indicates how many times a slot may appear.
type Presence uint8

// Presence values.
const (
	Required Presence = iota
	Optional
	Repeated
)

func (p Presence) String() string {
	switch p {
	case Required:
		return "required"
	case Optional:
		return "optional"
	case Repeated:
		return "repeated"
	}
	return fmt.Sprintf("Presence(%d)", uint8(p))
}

// Slot binds a field descriptor to a struct field.
type Slot struct {
	Name     string
	Index    int // struct field index
	Field    Field
	Presence Presence
}

// Envelope frames a whole record when declared as a tagged blank field.
//
//	type Message struct {
//		_ tlv.Envelope `tlv:"TLV-E,tag=0x50,cap=256"`
//		...
//	}
type Envelope struct{}

// Schema is a compiled record layout.
// It is immutable and safe for concurrent use.
type Schema struct {
	name     string
	typ      reflect.Type
	slots    []Slot
	envelope *Field
	capacity int

	newtype valueCodec
	prefix  []prefixOp
	tail    *tailTable
}

// prefixOp is one step of the required prefix.
// second is set for a nibble pair.
type prefixOp struct {
	slot   Slot
	second *Slot
	codec  valueCodec
}

// Name returns the record name.
func (s *Schema) Name() string {
	return s.name
}

// Type returns the Go type of the record.
func (s *Schema) Type() reflect.Type {
	return s.typ
}

// Slots returns a copy of the slots in declared order.
func (s *Schema) Slots() []Slot {
	return slices.Clone(s.slots)
}

// Envelope returns the top-level framing, if any.
func (s *Schema) Envelope() (f Field, ok bool) {
	if s.envelope == nil {
		return Field{}, false
	}
	return *s.envelope, true
}

// Capacity returns the encode buffer capacity hint.
func (s *Schema) Capacity() int {
	return s.capacity
}

// IsNewtype determines whether the record is a transparent wrapper of its only field.
func (s *Schema) IsNewtype() bool {
	return s.newtype != nil
}

const schemaCacheSize = 256

var schemaCache = func() *lru.Cache {
	c, e := lru.New(schemaCacheSize)
	if e != nil {
		panic(e)
	}
	return c
}()

type cachedSchema struct {
	s *Schema
	e error
}

// SchemaOf returns the schema of a struct type described by `tlv` struct tags.
// Results are cached.
func SchemaOf(t reflect.Type) (*Schema, error) {
	if cached, ok := schemaCache.Get(t); ok {
		cs := cached.(cachedSchema)
		return cs.s, cs.e
	}

	s, e := newCompiler().schemaOf(t)
	schemaCache.Add(t, cachedSchema{s, e})
	return s, e
}

// NewSchema compiles a schema from an explicit slot list.
// t must be a struct type; each slot refers to one of its exported fields.
// Nested struct types are described by their `tlv` struct tags.
// All violations are reported, combined with multierr.
func NewSchema(t reflect.Type, slots []Slot, envelope *Field) (*Schema, error) {
	c := newCompiler()
	s := c.placeholder(t)
	if len(slots) == 0 && envelope == nil && isNewtype(t) {
		if e := c.compileNewtype(s); e != nil {
			return nil, e
		}
		return s, nil
	}
	if e := c.compile(s, slots, envelope); e != nil {
		return nil, e
	}
	return s, nil
}

// compiler tracks schemas under construction, so that recursive types resolve.
type compiler struct {
	building map[reflect.Type]*Schema
}

func newCompiler() *compiler {
	return &compiler{building: map[reflect.Type]*Schema{}}
}

func recordName(t reflect.Type) string {
	if name := t.Name(); name != "" {
		return name
	}
	return "record"
}

func (c *compiler) placeholder(t reflect.Type) *Schema {
	s := &Schema{
		name:     recordName(t),
		typ:      t,
		capacity: DefaultCapacity,
	}
	c.building[t] = s
	return s
}

func (c *compiler) schemaOf(t reflect.Type) (*Schema, error) {
	if s := c.building[t]; s != nil {
		return s, nil
	}
	if cached, ok := schemaCache.Get(t); ok {
		cs := cached.(cachedSchema)
		return cs.s, cs.e
	}

	s := c.placeholder(t)
	if t.Kind() == reflect.Struct && isNewtype(t) {
		if e := c.compileNewtype(s); e != nil {
			return nil, e
		}
		return s, nil
	}

	slots, envelope, e := slotsFromStruct(t)
	if e != nil {
		return nil, e
	}
	if e := c.compile(s, slots, envelope); e != nil {
		return nil, e
	}
	return s, nil
}

// isNewtype determines whether t is a struct with exactly one embedded untagged field.
func isNewtype(t reflect.Type) bool {
	if t.Kind() != reflect.Struct || t.NumField() != 1 {
		return false
	}
	sf := t.Field(0)
	_, tagged := sf.Tag.Lookup("tlv")
	return sf.Anonymous && !tagged
}

func (c *compiler) compileNewtype(s *Schema) error {
	sf := s.typ.Field(0)
	if !sf.IsExported() {
		return &SchemaError{Record: s.name, Field: sf.Name, Reason: "embedded field is unexported"}
	}
	codec, e := c.codecOf(sf.Type)
	if e != nil {
		return &SchemaError{Record: s.name, Field: sf.Name, Reason: e.Error()}
	}
	s.newtype = codec
	s.slots = []Slot{{Name: sf.Name, Index: 0, Field: Field{Format: FormatV, ValueBits: 8}}}
	logger.Debug("newtype compiled",
		zap.String("record", s.name),
		zap.Stringer("inner", sf.Type),
	)
	return nil
}

func (c *compiler) compile(s *Schema, slots []Slot, envelope *Field) (errs error) {
	bad := func(field, format string, arg ...any) {
		errs = multierr.Append(errs, &SchemaError{Record: s.name, Field: field, Reason: fmt.Sprintf(format, arg...)})
	}

	t := s.typ
	if t.Kind() != reflect.Struct {
		bad("", "%s is not a struct", t)
		return errs
	}

	if envelope != nil {
		env := *envelope
		for _, reason := range env.Validate() {
			bad("(envelope)", "%s", reason)
		}
		if env.Format == FormatT || env.IsNibble() {
			bad("(envelope)", "%s cannot frame a record", env)
		}
		s.envelope = &env
		if env.Capacity > 0 {
			s.capacity = env.Capacity
		}
	}

	s.slots = slices.Clone(slots)
	var pending *Slot
	flushPending := func() {
		if pending != nil {
			bad(pending.Name, "unpaired 4-bit field")
			pending = nil
		}
	}

	var tail []tailEntry
	lastOptional := ""
	for i, slot := range slots {
		if slot.Index < 0 || slot.Index >= t.NumField() {
			bad(slot.Name, "field index %d out of range", slot.Index)
			continue
		}
		sf := t.Field(slot.Index)
		if !sf.IsExported() {
			bad(slot.Name, "field is unexported")
			continue
		}
		if slot.Presence != Required {
			lastOptional = slot.Name
		} else if lastOptional != "" {
			bad(slot.Name, "required field follows optional field %s", lastOptional)
			continue
		}
		if reasons := slot.Field.Validate(); len(reasons) > 0 {
			for _, reason := range reasons {
				bad(slot.Name, "%s", reason)
			}
			continue
		}

		if slot.Presence != Required {
			flushPending()
			ent, e := c.tailEntryOf(slot, sf.Type)
			if e != nil {
				bad(slot.Name, "%v", e)
				continue
			}
			tail = append(tail, ent)
			continue
		}

		f := slot.Field
		if f.IsNibble() && sf.Type.Kind() != reflect.Uint8 {
			bad(slot.Name, "4-bit field must be uint8, not %s", sf.Type)
			continue
		}
		if f.IsNibblePair() {
			if pending == nil {
				first := slot
				pending = &first
			} else {
				second := slot
				s.prefix = append(s.prefix, prefixOp{slot: *pending, second: &second})
				pending = nil
			}
			continue
		}
		flushPending()

		op := prefixOp{slot: slot}
		switch {
		case f.IsNibbleTV(), f.Format == FormatT:
		case sf.Type.Kind() == reflect.Pointer:
			bad(slot.Name, "pointer field must be optional")
			continue
		default:
			codec, e := c.codecOf(sf.Type)
			if e != nil {
				bad(slot.Name, "%v", e)
				continue
			}
			op.codec = codec
			if e := checkValueSize(f, codec); e != nil {
				bad(slot.Name, "%v", e)
			}
			if f.Format == FormatV && !f.HasLength && i != len(slots)-1 {
				bad(slot.Name, "V field without literal length must be the last field")
			}
		}
		s.prefix = append(s.prefix, op)
	}
	flushPending()

	if len(tail) > 0 {
		s.tail = newTailTable(tail, bad)
	}
	if errs != nil {
		return errs
	}

	logger.Debug("schema compiled",
		zap.String("record", s.name),
		zap.Int("prefix", len(s.prefix)),
		zap.Int("tail", len(tail)),
		zap.Bool("envelope", s.envelope != nil),
	)
	return nil
}

// checkValueSize verifies a literal length against a fixed-size value.
func checkValueSize(f Field, codec valueCodec) error {
	size := codec.size()
	switch {
	case f.Format == FormatV && !f.HasLength && size >= 0:
		return errors.New("V field of fixed-size value requires a literal length")
	case f.HasLength && size >= 0 && f.Length != size:
		return fmt.Errorf("literal length %d differs from value size %d", f.Length, size)
	}
	return nil
}

func (c *compiler) tailEntryOf(slot Slot, t reflect.Type) (ent tailEntry, e error) {
	f := slot.Field
	switch f.Format {
	case FormatTV, FormatTLV, FormatTLVE:
	default:
		return ent, fmt.Errorf("%s field cannot be %s", f.Format, slot.Presence)
	}

	ent.slot = slot
	switch slot.Presence {
	case Optional:
		switch {
		case t.Kind() == reflect.Pointer:
			ent.ptr, ent.elem = true, t.Elem()
		case t.Kind() == reflect.Slice && bytesLike(t):
			ent.elem = t
		default:
			return ent, fmt.Errorf("optional field must be a pointer or byte slice, not %s", t)
		}
	case Repeated:
		if t.Kind() != reflect.Slice || bytesLike(t) {
			return ent, fmt.Errorf("repeated field must be a slice of non-byte elements, not %s", t)
		}
		ent.elem = t.Elem()
	default:
		return ent, fmt.Errorf("invalid presence %s", slot.Presence)
	}

	if f.IsNibbleTV() {
		if ent.elem.Kind() != reflect.Uint8 {
			return ent, fmt.Errorf("4-bit field must be uint8, not %s", ent.elem)
		}
		return ent, nil
	}

	if ent.codec, e = c.codecOf(ent.elem); e != nil {
		return ent, e
	}
	return ent, checkValueSize(f, ent.codec)
}
