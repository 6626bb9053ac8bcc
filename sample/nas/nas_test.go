package nas_test

import (
	"errors"
	"testing"

	"github.com/usnistgov/tlvcodec/core/testenv"
	"github.com/usnistgov/tlvcodec/sample/nas"
	"github.com/usnistgov/tlvcodec/tlv"
)

var (
	makeAR       = testenv.MakeAR
	bytesFromHex = testenv.BytesFromHex
)

func ptrTo[T any](v T) *T {
	return &v
}

func TestRegistrationRequest(t *testing.T) {
	assert, require := makeAR(t)

	req := nas.NewRegistrationRequest(7, 1, nas.MobileIdentity{
		TypeOdd: nas.IdentitySUCI,
		Value:   bytesFromHex("02F839F0FF0000"),
	})
	req.UESecurityCapability = []byte{0xF0, 0xF0}
	req.RequestedNSSAI = &nas.NSSAI{
		{SST: 1},
		{SST: 1, SD: []byte{0x01, 0x02, 0x03}},
	}
	req.MICOIndication = ptrTo[uint8](1)
	req.PayloadContainer = []byte{0xAA, 0xBB, 0xCC}

	wire, e := tlv.Marshal(req)
	require.NoError(e)
	assert.Equal(bytesFromHex("7E 00 41 71 0008 01 02F839F0FF0000 "+
		"2E02F0F0 2F07 0101 0401010203 B1 7B0003AABBCC"), wire)

	parsed, e := nas.Parse(wire)
	require.NoError(e)
	assert.Equal(&req, parsed)
	assert.EqualValues(nas.IdentitySUCI, parsed.(*nas.RegistrationRequest).MobileIdentity.Type())

	parsed, e = nas.Parse(bytesFromHex("7E 00 41 71 0008 0102F839F0FF0000 " +
		"B1 7B0003AABBCC 2F07 0101 0401010203 2E02F0F0 C3 50022000"))
	require.NoError(e)
	decoded := parsed.(*nas.RegistrationRequest)
	require.NotNil(decoded.NonCurrentNgKSI)
	assert.EqualValues(3, *decoded.NonCurrentNgKSI)
	require.NotNil(decoded.PDUSessionStatus)
	assert.EqualValues(0x2000, *decoded.PDUSessionStatus)
	assert.Equal(req.RequestedNSSAI, decoded.RequestedNSSAI)
	assert.Nil(decoded.Capability)
	assert.Nil(decoded.LastVisitedTAI)
}

func TestRegistrationRequestErrors(t *testing.T) {
	assert, require := makeAR(t)

	_, e := nas.Parse(bytesFromHex("7E 00 41 71 0008 0102F839F0FF0000 2A01FF"))
	var unknown *tlv.UnknownTagError
	require.True(errors.As(e, &unknown))
	assert.EqualValues(0x2A, unknown.Tag)
	assert.Equal(14, unknown.Offset)

	_, e = nas.Parse(bytesFromHex("7E 00 41 71 0008 0102F839F0FF0000 B1 B0"))
	assert.ErrorIs(e, tlv.ErrDuplicateTag)

	_, e = nas.Parse(bytesFromHex("7E 00 41 71 0009 0102F839F0FF0000"))
	assert.ErrorIs(e, tlv.ErrMalformed)

	_, e = nas.Parse(bytesFromHex("7E 00 41 71 0008 0102F839F0FF0000 2F03 0401"))
	assert.ErrorIs(e, tlv.ErrMalformed)

	_, e = tlv.Marshal(nas.NewRegistrationRequest(16, 1, nas.MobileIdentity{}))
	assert.ErrorIs(e, tlv.ErrRange)

	req := nas.NewRegistrationRequest(0, 1, nas.MobileIdentity{})
	req.RequestedNSSAI = &nas.NSSAI{{SST: 1, SD: []byte{0x01}}}
	_, e = tlv.Marshal(req)
	assert.ErrorIs(e, tlv.ErrRange)
}

func TestDeregistrationRequest(t *testing.T) {
	assert, require := makeAR(t)

	req := nas.DeregistrationRequest{
		EPD:                nas.EPD5GMM,
		MessageType:        nas.MsgDeregistrationRequest,
		DeregistrationType: 9,
		MobileIdentity: nas.MobileIdentity{
			Head:    0xF,
			TypeOdd: nas.IdentityGUTI,
			Value:   []byte{0x01, 0x02, 0x03, 0x04},
		},
	}
	wire, e := tlv.Marshal(req)
	require.NoError(e)
	assert.Equal(bytesFromHex("7E 00 45 09 0005 F2 01020304"), wire)

	parsed, e := nas.Parse(wire)
	require.NoError(e)
	assert.Equal(&req, parsed)
}

func TestSecurityProtected(t *testing.T) {
	assert, require := makeAR(t)

	parsed, e := nas.Parse(bytesFromHex("7E 02 11223344 05 7E 00 45 09 0005 F2 01020304"))
	require.NoError(e)
	sp, ok := parsed.(*nas.SecurityProtected)
	require.True(ok)
	assert.EqualValues(nas.SecurityIntegrityCiphered, sp.SecurityHeaderType)
	assert.Equal([4]byte{0x11, 0x22, 0x33, 0x44}, sp.MAC)
	assert.EqualValues(5, sp.Sequence)

	inner, e := nas.Parse(sp.Plain)
	require.NoError(e)
	dereg, ok := inner.(*nas.DeregistrationRequest)
	require.True(ok)
	assert.EqualValues(9, dereg.DeregistrationType)
	assert.EqualValues(nas.IdentityGUTI, dereg.MobileIdentity.Type())

	_, e = nas.Parse(bytesFromHex("7E 00"))
	assert.ErrorIs(e, tlv.ErrMalformed)
	_, e = nas.Parse(bytesFromHex("2E 00 41"))
	assert.Error(e)
	_, e = nas.Parse(bytesFromHex("7E 00 5A"))
	assert.Error(e)
}
