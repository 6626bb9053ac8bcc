// Package pfcp describes a subset of PFCP node messages (3GPP TS 29.244) as TLV records.
//
// A message header without SEID is modeled as a TLV-E envelope: the flags octet and message
// type form a 2-octet tag, followed by the 2-octet message length.
package pfcp

import (
	"fmt"
	"net/netip"
	"time"

	"github.com/usnistgov/tlvcodec/core/logging"
	"github.com/usnistgov/tlvcodec/tlv"
	"go.uber.org/zap"
)

var logger = logging.New("pfcp")

// UDPPort is the PFCP UDP port number.
const UDPPort = 8805

// Message types.
const (
	MsgHeartbeatRequest         = 1
	MsgHeartbeatResponse        = 2
	MsgAssociationSetupRequest  = 5
	MsgAssociationSetupResponse = 6
)

// IE types.
const (
	IECause              = 19
	IEUPFunctionFeatures = 43
	IENodeID             = 60
	IECPFunctionFeatures = 89
	IERecoveryTimeStamp  = 96
	IESourceIPAddress    = 192
)

// ntpEpochOffset is the number of seconds from 1900-01-01 to 1970-01-01.
const ntpEpochOffset = 2208988800

// Sequence is a 3-octet sequence number.
type Sequence uint32

// MaxSequence is the maximum sequence number.
const MaxSequence = 0xFFFFFF

// EncodeValue implements tlv.ValueEncoder interface.
func (s Sequence) EncodeValue(enc *tlv.Encoder) error {
	if s > MaxSequence {
		return fmt.Errorf("%w: sequence number %d", tlv.ErrRange, s)
	}
	_, e := enc.Write([]byte{byte(s >> 16), byte(s >> 8), byte(s)})
	return e
}

// DecodeValue implements tlv.ValueDecoder interface.
func (s *Sequence) DecodeValue(d *tlv.Decoder) error {
	b, e := d.Take(3)
	if e != nil {
		return e
	}
	*s = Sequence(b[0])<<16 | Sequence(b[1])<<8 | Sequence(b[2])
	return nil
}

// RecoveryTimeStamp is an NTP timestamp in seconds.
type RecoveryTimeStamp uint32

// NewRecoveryTimeStamp converts time.Time to RecoveryTimeStamp.
func NewRecoveryTimeStamp(t time.Time) RecoveryTimeStamp {
	return RecoveryTimeStamp(t.Unix() + ntpEpochOffset)
}

// Time converts to time.Time in UTC.
func (ts RecoveryTimeStamp) Time() time.Time {
	return time.Unix(int64(ts)-ntpEpochOffset, 0).UTC()
}

// Node ID types.
const (
	NodeIDIPv4 = 0
	NodeIDIPv6 = 1
	NodeIDFQDN = 2
)

// NodeID is the Node ID IE value.
type NodeID struct {
	Spare uint8  `tlv:"V,bits=4"`
	Type  uint8  `tlv:"V,bits=4"`
	Value []byte `tlv:"V"`
}

// NewNodeIDAddr creates NodeID from an IP address.
func NewNodeIDAddr(addr netip.Addr) NodeID {
	if addr.Is4() {
		return NodeID{Type: NodeIDIPv4, Value: addr.AsSlice()}
	}
	return NodeID{Type: NodeIDIPv6, Value: addr.AsSlice()}
}

// Addr returns the IP address, if Type is IPv4 or IPv6.
func (n NodeID) Addr() (addr netip.Addr, ok bool) {
	switch {
	case n.Type == NodeIDIPv4 && len(n.Value) == 4, n.Type == NodeIDIPv6 && len(n.Value) == 16:
		return netip.AddrFromSlice(n.Value)
	}
	return netip.Addr{}, false
}

func (n NodeID) String() string {
	if addr, ok := n.Addr(); ok {
		return addr.String()
	}
	return fmt.Sprintf("%d:%X", n.Type, n.Value)
}

// HeartbeatRequest is a Heartbeat Request message.
type HeartbeatRequest struct {
	_                 tlv.Envelope      `tlv:"TLV-E,tag=0x2001,tw=2,cap=64"`
	Sequence          Sequence          `tlv:"V,len=3"`
	Spare             uint8             `tlv:"V"`
	RecoveryTimeStamp RecoveryTimeStamp `tlv:"TLV-E,tag=96,tw=2"`
	SourceIPAddress   []byte            `tlv:"TLV-E,tag=192,tw=2,optional"`
}

// HeartbeatResponse is a Heartbeat Response message.
type HeartbeatResponse struct {
	_                 tlv.Envelope      `tlv:"TLV-E,tag=0x2002,tw=2,cap=64"`
	Sequence          Sequence          `tlv:"V,len=3"`
	Spare             uint8             `tlv:"V"`
	RecoveryTimeStamp RecoveryTimeStamp `tlv:"TLV-E,tag=96,tw=2"`
}

// AssociationSetupRequest is an Association Setup Request message.
type AssociationSetupRequest struct {
	_                  tlv.Envelope      `tlv:"TLV-E,tag=0x2005,tw=2,cap=256"`
	Sequence           Sequence          `tlv:"V,len=3"`
	Spare              uint8             `tlv:"V"`
	NodeID             NodeID            `tlv:"TLV-E,tag=60,tw=2"`
	RecoveryTimeStamp  RecoveryTimeStamp `tlv:"TLV-E,tag=96,tw=2"`
	UPFunctionFeatures []byte            `tlv:"TLV-E,tag=43,tw=2,optional"`
	CPFunctionFeatures *uint8            `tlv:"TLV-E,tag=89,tw=2"`
}

// AssociationSetupResponse is an Association Setup Response message.
type AssociationSetupResponse struct {
	_                  tlv.Envelope      `tlv:"TLV-E,tag=0x2006,tw=2,cap=256"`
	Sequence           Sequence          `tlv:"V,len=3"`
	Spare              uint8             `tlv:"V"`
	NodeID             NodeID            `tlv:"TLV-E,tag=60,tw=2"`
	Cause              uint8             `tlv:"TLV-E,tag=19,tw=2"`
	RecoveryTimeStamp  RecoveryTimeStamp `tlv:"TLV-E,tag=96,tw=2"`
	UPFunctionFeatures []byte            `tlv:"TLV-E,tag=43,tw=2,optional"`
	CPFunctionFeatures *uint8            `tlv:"TLV-E,tag=89,tw=2"`
}

// CauseRequestAccepted is the Cause value for a successful request.
const CauseRequestAccepted = 1

var messageTypes = map[uint8]func() any{
	MsgHeartbeatRequest:         func() any { return &HeartbeatRequest{} },
	MsgHeartbeatResponse:        func() any { return &HeartbeatResponse{} },
	MsgAssociationSetupRequest:  func() any { return &AssociationSetupRequest{} },
	MsgAssociationSetupResponse: func() any { return &AssociationSetupResponse{} },
}

// Parse decodes a message, dispatching on the message type octet.
// Unknown IEs are skipped.
// Returns a pointer to one of the message structs.
func Parse(wire []byte) (msg any, e error) {
	if len(wire) < 2 {
		return nil, tlv.ErrIncomplete
	}
	newMsg := messageTypes[wire[1]]
	if newMsg == nil {
		return nil, fmt.Errorf("unsupported message type %d", wire[1])
	}
	msg = newMsg()
	if e := (tlv.UnmarshalOptions{AllowUnknown: true}).Unmarshal(wire, msg); e != nil {
		return nil, e
	}
	logger.Debug("message parsed", zap.Uint8("type", wire[1]), zap.Int("length", len(wire)))
	return msg, nil
}
