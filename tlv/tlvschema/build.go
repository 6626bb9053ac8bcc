package tlvschema

import (
	"fmt"
	"go/token"
	"reflect"
	"strconv"
	"strings"

	"github.com/pascaldekloe/name"
	"github.com/usnistgov/tlvcodec/tlv"
	"github.com/zyedidia/generic/mapset"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

var baseTypes = map[string]reflect.Type{
	"uint8":  reflect.TypeOf(uint8(0)),
	"uint16": reflect.TypeOf(uint16(0)),
	"uint32": reflect.TypeOf(uint32(0)),
	"uint64": reflect.TypeOf(uint64(0)),
	"bytes":  reflect.TypeOf(HexBytes(nil)),
	"string": reflect.TypeOf(""),
}

var envelopeType = reflect.TypeOf(tlv.Envelope{})

// Registry contains built message types.
type Registry struct {
	messages map[string]*Message
}

// Names returns message names in ascending order.
func (r *Registry) Names() []string {
	names := maps.Keys(r.messages)
	slices.Sort(names)
	return names
}

// Message finds a message by name.
func (r *Registry) Message(name string) (*Message, error) {
	if m := r.messages[name]; m != nil {
		return m, nil
	}
	return nil, fmt.Errorf("message %q is not defined", name)
}

type builder struct {
	defs     map[string]*MessageDef
	types    map[string]reflect.Type
	visiting mapset.Set[string]
}

// Build builds message types from a document.
// It reports all errors, combined with multierr.
func Build(doc Document) (*Registry, error) {
	b := builder{
		defs:     map[string]*MessageDef{},
		types:    map[string]reflect.Type{},
		visiting: mapset.New[string](),
	}
	var errs error
	for i := range doc.Messages {
		def := &doc.Messages[i]
		if _, ok := b.defs[def.Name]; ok {
			errs = multierr.Append(errs, fmt.Errorf("%w: duplicate message %q", ErrDocument, def.Name))
			continue
		}
		b.defs[def.Name] = def
	}
	if errs != nil {
		return nil, errs
	}

	r := &Registry{messages: map[string]*Message{}}
	for _, def := range doc.Messages {
		typ, e := b.typeOf(def.Name)
		if e != nil {
			errs = multierr.Append(errs, e)
			continue
		}
		s, e := tlv.SchemaOf(typ)
		if e != nil {
			errs = multierr.Append(errs, fmt.Errorf("message %s: %w", def.Name, e))
			continue
		}
		r.messages[def.Name] = &Message{name: def.Name, typ: typ, schema: s}
		logger.Debug("message built",
			zap.String("message", def.Name),
			zap.Int("fields", len(def.Fields)),
			zap.Stringer("type", typ),
		)
	}
	if errs != nil {
		return nil, errs
	}
	return r, nil
}

func (b *builder) typeOf(msgName string) (reflect.Type, error) {
	if typ := b.types[msgName]; typ != nil {
		return typ, nil
	}
	def := b.defs[msgName]
	if def == nil {
		return nil, fmt.Errorf("%w: message %q is not defined", ErrDocument, msgName)
	}
	if b.visiting.Has(msgName) {
		return nil, fmt.Errorf("%w: message %q contains itself", ErrDocument, msgName)
	}
	b.visiting.Put(msgName)
	defer b.visiting.Remove(msgName)

	var fields []reflect.StructField
	goNames := mapset.New[string]()
	if def.Envelope != nil {
		goNames.Put("Envelope")
		fields = append(fields, reflect.StructField{
			Name: "Envelope",
			Type: envelopeType,
			Tag:  reflect.StructTag(fmt.Sprintf(`tlv:%s json:"-"`, strconv.Quote(fieldTag(*def.Envelope, false, def.Capacity)))),
		})
	} else if def.Capacity > 0 {
		return nil, fmt.Errorf("%w: message %s: capacity requires envelope", ErrDocument, msgName)
	}

	for _, fd := range def.Fields {
		sf, e := b.structField(fd)
		if e != nil {
			return nil, fmt.Errorf("message %s field %s: %w", msgName, fd.Name, e)
		}
		if goNames.Has(sf.Name) {
			return nil, fmt.Errorf("%w: message %s: duplicate field %s", ErrDocument, msgName, sf.Name)
		}
		goNames.Put(sf.Name)
		fields = append(fields, sf)
	}

	typ := reflect.StructOf(fields)
	b.types[msgName] = typ
	return typ, nil
}

func (b *builder) structField(fd FieldDef) (sf reflect.StructField, e error) {
	sf.Name = name.CamelCase(fd.Name, true)
	if !token.IsIdentifier(sf.Name) || !token.IsExported(sf.Name) {
		return sf, fmt.Errorf("%w: cannot derive Go name from %q", ErrDocument, fd.Name)
	}

	typeName := fd.Type
	if typeName == "" {
		typeName = "bytes"
	}
	base := baseTypes[typeName]
	if base == nil {
		if base, e = b.typeOf(typeName); e != nil {
			return sf, e
		}
	}

	optional := false
	jsonTag := fd.Name
	switch fd.Presence {
	case "", "required":
		sf.Type = base
	case "optional":
		jsonTag += ",omitempty"
		if base.Kind() == reflect.Slice {
			sf.Type, optional = base, true
		} else {
			sf.Type = reflect.PointerTo(base)
		}
	case "repeated":
		if base.Kind() == reflect.Uint8 {
			return sf, fmt.Errorf("%w: repeated uint8 is not supported, use bytes", ErrDocument)
		}
		jsonTag += ",omitempty"
		sf.Type = reflect.SliceOf(base)
	default:
		return sf, fmt.Errorf("%w: unknown presence %q", ErrDocument, fd.Presence)
	}

	sf.Tag = reflect.StructTag(fmt.Sprintf(`tlv:%s json:%s`, strconv.Quote(fieldTag(fd, optional, 0)), strconv.Quote(jsonTag)))
	return sf, nil
}

// fieldTag converts a field definition to `tlv` struct tag syntax.
func fieldTag(fd FieldDef, optional bool, capacity int) string {
	items := []string{fd.Format.String()}
	if fd.Tag != nil {
		items = append(items, "tag="+strconv.FormatUint(*fd.Tag, 10))
	}
	if fd.TagWidth != nil {
		items = append(items, "tw="+strconv.Itoa(int(*fd.TagWidth)))
	}
	if fd.Length != nil {
		items = append(items, "len="+strconv.Itoa(*fd.Length))
	}
	if fd.LengthWidth != nil {
		items = append(items, "lw="+strconv.Itoa(int(*fd.LengthWidth)))
	}
	if fd.Bits != 0 {
		items = append(items, "bits="+strconv.Itoa(int(fd.Bits)))
	}
	if capacity > 0 {
		items = append(items, "cap="+strconv.Itoa(capacity))
	}
	if optional {
		items = append(items, "optional")
	}
	return strings.Join(items, ",")
}
