// Package nas describes a subset of 5GS mobility management messages (3GPP TS 24.501) as TLV records.
package nas

import (
	"fmt"

	"github.com/usnistgov/tlvcodec/core/logging"
	"github.com/usnistgov/tlvcodec/tlv"
	"go.uber.org/zap"
)

var logger = logging.New("nas")

// EPD5GMM is the extended protocol discriminator of 5GS mobility management messages.
const EPD5GMM = 0x7E

// Message types.
const (
	MsgRegistrationRequest   = 0x41
	MsgDeregistrationRequest = 0x45
)

// Security header types.
const (
	SecurityPlain             = 0
	SecurityIntegrity         = 1
	SecurityIntegrityCiphered = 2
)

// Mobile identity types.
const (
	IdentityNone  = 0
	IdentitySUCI  = 1
	IdentityGUTI  = 2
	IdentityIMEI  = 3
	IdentitySTMSI = 4
)

// MobileIdentity is the 5GS mobile identity value.
type MobileIdentity struct {
	// Head is identity digit 1, or spare bits.
	Head    uint8  `tlv:"V,bits=4"`
	// TypeOdd contains the odd/even indicator and the type of identity.
	TypeOdd uint8  `tlv:"V,bits=4"`
	Value   []byte `tlv:"V"`
}

// Type returns the type of identity.
func (id MobileIdentity) Type() uint8 {
	return id.TypeOdd & 0x07
}

// SNSSAI is a single network slice selection assistance information.
type SNSSAI struct {
	SST uint8
	// SD is either empty or 3 octets.
	SD []byte
}

// NSSAI is a list of S-NSSAI, each encoded as LV.
type NSSAI []SNSSAI

var snssaiField = tlv.LVField()

// EncodeValue implements tlv.ValueEncoder interface.
func (n NSSAI) EncodeValue(enc *tlv.Encoder) error {
	for i, s := range n {
		if len(s.SD) != 0 && len(s.SD) != 3 {
			return fmt.Errorf("%w: S-NSSAI %d has %d-octet SD", tlv.ErrRange, i, len(s.SD))
		}
		e := tlv.EncodeField(enc, snssaiField, tlv.EncoderFunc(func(enc *tlv.Encoder) error {
			if e := enc.WriteByte(s.SST); e != nil {
				return e
			}
			_, e := enc.Write(s.SD)
			return e
		}))
		if e != nil {
			return e
		}
	}
	return nil
}

// DecodeValue implements tlv.ValueDecoder interface.
func (n *NSSAI) DecodeValue(d *tlv.Decoder) error {
	list := NSSAI{}
	for !d.EOF() {
		var s SNSSAI
		e := tlv.DecodeField(d, snssaiField, tlv.DecoderFunc(func(d *tlv.Decoder) (e error) {
			if s.SST, e = d.ReadByte(); e != nil {
				return e
			}
			if sd := d.ReadAll(); len(sd) > 0 {
				s.SD = sd
			}
			return nil
		}))
		if e != nil {
			return e
		}
		list = append(list, s)
	}
	*n = list
	return nil
}

// RegistrationRequest is a Registration Request message.
type RegistrationRequest struct {
	EPD                uint8          `tlv:"V"`
	SpareHalf          uint8          `tlv:"V,bits=4"`
	SecurityHeaderType uint8          `tlv:"V,bits=4"`
	MessageType        uint8          `tlv:"V"`
	NgKSI              uint8          `tlv:"V,bits=4"`
	RegistrationType   uint8          `tlv:"V,bits=4"`
	MobileIdentity     MobileIdentity `tlv:"LV-E"`

	NonCurrentNgKSI          *uint8   `tlv:"TV,tag=0xC,bits=4"`
	Capability               []byte   `tlv:"TLV,tag=0x10,optional"`
	UESecurityCapability     []byte   `tlv:"TLV,tag=0x2E,optional"`
	RequestedNSSAI           *NSSAI   `tlv:"TLV,tag=0x2F"`
	LastVisitedTAI           *[6]byte `tlv:"TV,tag=0x52"`
	MICOIndication           *uint8   `tlv:"TV,tag=0xB,bits=4"`
	UEStatus                 *uint8   `tlv:"TLV,tag=0x2B"`
	UplinkDataStatus         *uint16  `tlv:"TLV,tag=0x40"`
	PDUSessionStatus         *uint16  `tlv:"TLV,tag=0x50"`
	NetworkSlicingIndication *uint8   `tlv:"TV,tag=0x9,bits=4"`
	PayloadContainerType     *uint8   `tlv:"TV,tag=0x8,bits=4"`
	NASMessageContainer      []byte   `tlv:"TLV-E,tag=0x71,optional"`
	PayloadContainer         []byte   `tlv:"TLV-E,tag=0x7B,optional"`
}

// NewRegistrationRequest creates a plain Registration Request.
func NewRegistrationRequest(ngKSI, registrationType uint8, id MobileIdentity) RegistrationRequest {
	return RegistrationRequest{
		EPD:              EPD5GMM,
		MessageType:      MsgRegistrationRequest,
		NgKSI:            ngKSI,
		RegistrationType: registrationType,
		MobileIdentity:   id,
	}
}

// DeregistrationRequest is a UE originating Deregistration Request message.
type DeregistrationRequest struct {
	EPD                uint8          `tlv:"V"`
	SpareHalf          uint8          `tlv:"V,bits=4"`
	SecurityHeaderType uint8          `tlv:"V,bits=4"`
	MessageType        uint8          `tlv:"V"`
	NgKSI              uint8          `tlv:"V,bits=4"`
	DeregistrationType uint8          `tlv:"V,bits=4"`
	MobileIdentity     MobileIdentity `tlv:"LV-E"`
}

// SecurityProtected is a security protected 5GS NAS message.
type SecurityProtected struct {
	EPD                uint8   `tlv:"V"`
	SpareHalf          uint8   `tlv:"V,bits=4"`
	SecurityHeaderType uint8   `tlv:"V,bits=4"`
	MAC                [4]byte `tlv:"V"`
	Sequence           uint8   `tlv:"V"`
	Plain              []byte  `tlv:"V"`
}

// Parse decodes a 5GMM message.
// Returns a pointer to one of the message structs.
// If the message is security protected, it returns *SecurityProtected, whose Plain field
// may be passed to Parse again when it is not ciphered.
func Parse(wire []byte) (msg any, e error) {
	if len(wire) < 3 {
		return nil, tlv.ErrIncomplete
	}
	if wire[0] != EPD5GMM {
		return nil, fmt.Errorf("unsupported extended protocol discriminator 0x%02X", wire[0])
	}

	switch {
	case wire[1]&0x0F != SecurityPlain:
		msg = &SecurityProtected{}
	case wire[2] == MsgRegistrationRequest:
		msg = &RegistrationRequest{}
	case wire[2] == MsgDeregistrationRequest:
		msg = &DeregistrationRequest{}
	default:
		return nil, fmt.Errorf("unsupported message type 0x%02X", wire[2])
	}

	if e = tlv.Unmarshal(wire, msg); e != nil {
		return nil, e
	}
	logger.Debug("message parsed", zap.String("type", fmt.Sprintf("%T", msg)), zap.Int("length", len(wire)))
	return msg, nil
}
