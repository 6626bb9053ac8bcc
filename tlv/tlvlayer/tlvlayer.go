// Package tlvlayer provides GoPacket layers carrying TLV records.
package tlvlayer

import (
	"errors"
	"fmt"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/usnistgov/tlvcodec/tlv"
)

// Type is a registered record layer type.
type Type struct {
	LayerType gopacket.LayerType
	newValue  func() any
	opts      tlv.UnmarshalOptions
}

// Register registers a layer type for records created by newValue.
// newValue must return a pointer to a record.
// num follows gopacket.RegisterLayerType rules.
func Register(num int, name string, newValue func() any, opts tlv.UnmarshalOptions) *Type {
	t := &Type{
		newValue: newValue,
		opts:     opts,
	}
	t.LayerType = gopacket.RegisterLayerType(num, gopacket.LayerTypeMetadata{
		Name:    name,
		Decoder: gopacket.DecodeFunc(t.decode),
	})
	return t
}

// BindUDPPort causes UDP packets to or from port to be decoded as this layer type.
func (t *Type) BindUDPPort(port layers.UDPPort) {
	layers.RegisterUDPPortLayerType(port, t.LayerType)
}

// NewRecord creates a layer.
// If value is nil, DecodeFromBytes allocates a new value.
func (t *Type) NewRecord(value any) *Record {
	return &Record{
		Value: value,
		t:     t,
	}
}

func (t *Type) decode(wire []byte, p gopacket.PacketBuilder) error {
	l := t.NewRecord(nil)
	if e := l.DecodeFromBytes(wire, p); e != nil {
		return e
	}
	p.AddLayer(l)
	p.SetApplicationLayer(l)
	return nil
}

// Record is the layer for a TLV record.
type Record struct {
	// Value is a pointer to the record.
	Value any

	t    *Type
	wire []byte
}

var _ interface {
	gopacket.ApplicationLayer
	gopacket.DecodingLayer
	gopacket.SerializableLayer
} = &Record{}

// LayerType returns the registered layer type.
func (l *Record) LayerType() gopacket.LayerType {
	return l.t.LayerType
}

// LayerContents returns record bytes.
func (l *Record) LayerContents() []byte {
	return l.wire
}

// LayerPayload returns nil.
func (l *Record) LayerPayload() []byte {
	return nil
}

// Payload implements gopacket.ApplicationLayer interface.
func (l *Record) Payload() []byte {
	return l.wire
}

// DecodeFromBytes decodes a record.
// Input must contain exactly one record.
func (l *Record) DecodeFromBytes(wire []byte, df gopacket.DecodeFeedback) error {
	if l.Value == nil {
		l.Value = l.t.newValue()
	}
	if e := l.t.opts.Unmarshal(wire, l.Value); e != nil {
		return fmt.Errorf("%s: %w", l.t.LayerType, e)
	}
	l.wire = wire
	return nil
}

// CanDecode implements gopacket.DecodingLayer interface.
func (l *Record) CanDecode() gopacket.LayerClass {
	return l.t.LayerType
}

// NextLayerType implements gopacket.DecodingLayer interface.
func (l *Record) NextLayerType() gopacket.LayerType {
	return gopacket.LayerTypeZero
}

// SerializeTo implements gopacket.SerializableLayer interface.
func (l *Record) SerializeTo(b gopacket.SerializeBuffer, opts gopacket.SerializeOptions) error {
	if l.Value == nil {
		return errors.New("no Value")
	}

	wire, e := tlv.Marshal(l.Value)
	if e != nil {
		return e
	}
	room, e := b.PrependBytes(len(wire))
	if e != nil {
		return e
	}
	copy(room, wire)
	return nil
}
