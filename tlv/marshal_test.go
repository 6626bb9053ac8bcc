package tlv_test

import (
	"errors"
	"reflect"
	"testing"

	"github.com/usnistgov/tlvcodec/core/testenv"
	"github.com/usnistgov/tlvcodec/tlv"
)

type scenarioMsg struct {
	Req uint8  `tlv:"TLV,tag=2"`
	Opt *uint8 `tlv:"TLV,tag=3"`
}

func ptrTo[T any](v T) *T {
	return &v
}

func TestScenario(t *testing.T) {
	assert, require := makeAR(t)

	wire, e := tlv.Marshal(scenarioMsg{Req: 11, Opt: ptrTo[uint8](6)})
	require.NoError(e)
	assert.Equal(bytesFromHex("02010B 030106"), wire)

	var decoded scenarioMsg
	require.NoError(tlv.Unmarshal(wire, &decoded))
	assert.EqualValues(11, decoded.Req)
	require.NotNil(decoded.Opt)
	assert.EqualValues(6, *decoded.Opt)

	wire, e = tlv.Marshal(&scenarioMsg{Req: 11})
	require.NoError(e)
	assert.Equal(bytesFromHex("02010B"), wire)

	decoded = scenarioMsg{}
	require.NoError(tlv.Unmarshal(wire, &decoded))
	assert.EqualValues(11, decoded.Req)
	assert.Nil(decoded.Opt)
}

type nibblePairMsg struct {
	Hi   uint8 `tlv:"V,bits=4"`
	Lo   uint8 `tlv:"V,bits=4"`
	Next uint8 `tlv:"V"`
}

func TestNibblePairRecord(t *testing.T) {
	assert, require := makeAR(t)

	wire, e := tlv.Marshal(nibblePairMsg{Hi: 7, Lo: 15, Next: 1})
	require.NoError(e)
	assert.Equal(bytesFromHex("7F 01"), wire)

	var decoded nibblePairMsg
	require.NoError(tlv.Unmarshal(wire, &decoded))
	assert.Equal(nibblePairMsg{Hi: 7, Lo: 15, Next: 1}, decoded)

	_, e = tlv.Marshal(nibblePairMsg{Hi: 16})
	assert.ErrorIs(e, tlv.ErrRange)
	var pe *tlv.PathError
	require.True(errors.As(e, &pe))
	assert.Equal([]string{"nibblePairMsg", "Hi"}, pe.Path)
}

type fixedMsg struct {
	Addr []byte `tlv:"LV,len=4"`
	Kind uint8  `tlv:"V"`
}

func TestFixedLength(t *testing.T) {
	assert, require := makeAR(t)

	wire, e := tlv.Marshal(fixedMsg{Addr: []byte{192, 0, 2, 1}, Kind: 1})
	require.NoError(e)
	assert.Equal(bytesFromHex("04 C0000201 01"), wire)

	_, e = tlv.Marshal(fixedMsg{Addr: []byte{192, 0, 2}})
	assert.ErrorIs(e, tlv.ErrRange)

	decoded := fixedMsg{Addr: []byte{0xFF}, Kind: 0xFF}
	e = tlv.Unmarshal(bytesFromHex("03 C00002 01"), &decoded)
	assert.ErrorIs(e, tlv.ErrLength)
	assert.ErrorIs(e, tlv.ErrMalformed)
	assert.Equal(fixedMsg{Addr: []byte{0xFF}, Kind: 0xFF}, decoded)

	e = tlv.Unmarshal(bytesFromHex("04 C0000201 01 FF"), &decoded)
	assert.ErrorIs(e, tlv.ErrTail)
	assert.Equal(fixedMsg{Addr: []byte{0xFF}, Kind: 0xFF}, decoded)

	e = tlv.Unmarshal(bytesFromHex("04 C0000201"), &decoded)
	assert.ErrorIs(e, tlv.ErrIncomplete)
	assert.Equal(fixedMsg{Addr: []byte{0xFF}, Kind: 0xFF}, decoded)
}

type tailMsg struct {
	Req uint8  `tlv:"V"`
	A   *uint8 `tlv:"TLV,tag=0x10"`
	B   *uint8 `tlv:"TLV,tag=0x11"`
}

func TestUnknownTag(t *testing.T) {
	assert, require := makeAR(t)

	wire := bytesFromHex("01 100105 200109 110107")
	var decoded tailMsg
	e := tlv.Unmarshal(wire, &decoded)
	var unknown *tlv.UnknownTagError
	require.True(errors.As(e, &unknown))
	assert.EqualValues(0x20, unknown.Tag)
	assert.Equal(4, unknown.Offset)
	assert.ErrorIs(e, tlv.ErrUnknownTag)
	assert.NotErrorIs(e, tlv.ErrMalformed)

	assert.EqualValues(1, decoded.Req)
	require.NotNil(decoded.A)
	assert.EqualValues(5, *decoded.A)
	assert.Nil(decoded.B)

	decoded = tailMsg{}
	require.NoError(tlv.UnmarshalOptions{AllowUnknown: true}.Unmarshal(wire, &decoded))
	require.NotNil(decoded.A)
	assert.EqualValues(5, *decoded.A)
	require.NotNil(decoded.B)
	assert.EqualValues(7, *decoded.B)

	e = tlv.UnmarshalOptions{AllowUnknown: true}.Unmarshal(bytesFromHex("01 2005FF"), &decoded)
	assert.ErrorIs(e, tlv.ErrIncomplete)
}

func TestDuplicateTag(t *testing.T) {
	assert, require := makeAR(t)

	var decoded tailMsg
	e := tlv.Unmarshal(bytesFromHex("01 100105 100106"), &decoded)
	var dup *tlv.DuplicateTagError
	require.True(errors.As(e, &dup))
	assert.EqualValues(0x10, dup.Tag)
	assert.Equal(4, dup.Offset)
	assert.ErrorIs(e, tlv.ErrDuplicateTag)
	assert.Nil(decoded.A)
}

type annotatedMsg struct {
	Req  uint8  `tlv:"TLV,tag=2"`
	Opt  *uint8 `tlv:"TLV,tag=3"`
	Note string
	Skip int `tlv:"-"`
}

func TestUnmarshalKeepsUntagged(t *testing.T) {
	assert, require := makeAR(t)

	decoded := annotatedMsg{Req: 1, Opt: ptrTo[uint8](9), Note: "keep", Skip: 5}
	require.NoError(tlv.Unmarshal(bytesFromHex("02010B"), &decoded))
	assert.Equal(annotatedMsg{Req: 11, Note: "keep", Skip: 5}, decoded)

	assert.Error(tlv.Unmarshal(bytesFromHex("0201"), &decoded))
	assert.Equal(annotatedMsg{Req: 11, Note: "keep", Skip: 5}, decoded)
}

type octetsTailMsg struct {
	Req uint8  `tlv:"V"`
	C   []byte `tlv:"TLV,tag=0x12,optional"`
}

func TestOptionalEmptyBytes(t *testing.T) {
	assert, require := makeAR(t)

	var decoded octetsTailMsg
	require.NoError(tlv.Unmarshal(bytesFromHex("01 1200"), &decoded))
	assert.NotNil(decoded.C)
	assert.Len(decoded.C, 0)

	wire, e := tlv.Marshal(decoded)
	require.NoError(e)
	assert.Equal(bytesFromHex("01 1200"), wire)

	decoded = octetsTailMsg{}
	require.NoError(tlv.Unmarshal(bytesFromHex("01"), &decoded))
	assert.Nil(decoded.C)
	wire, e = tlv.Marshal(decoded)
	require.NoError(e)
	assert.Equal(bytesFromHex("01"), wire)
}

func TestOptionalAbsence(t *testing.T) {
	assert, require := makeAR(t)

	var decoded tailMsg
	require.NoError(tlv.Unmarshal(bytesFromHex("01 1100 1000"), &decoded))
	assert.Nil(decoded.A)
	assert.Nil(decoded.B)

	// declared order on encode, any order on decode
	require.NoError(tlv.Unmarshal(bytesFromHex("01 110107 100105"), &decoded))
	require.NotNil(decoded.A)
	require.NotNil(decoded.B)
	wire, e := tlv.Marshal(decoded)
	require.NoError(e)
	assert.Equal(bytesFromHex("01 100105 110107"), wire)
}

type repeatedMsg struct {
	Items []uint16 `tlv:"TLV,tag=7"`
	Names []string `tlv:"TLV-E,tag=8"`
}

func TestRepeated(t *testing.T) {
	assert, require := makeAR(t)

	msg := repeatedMsg{Items: []uint16{1, 2}, Names: []string{"a", "bc"}}
	wire, e := tlv.Marshal(msg)
	require.NoError(e)
	assert.Equal(bytesFromHex("07020001 07020002 08000161 0800026263"), wire)

	var decoded repeatedMsg
	require.NoError(tlv.Unmarshal(bytesFromHex("07020001 08000161 07020002 0800026263"), &decoded))
	assert.Equal(msg, decoded)

	decoded = repeatedMsg{}
	require.NoError(tlv.Unmarshal(nil, &decoded))
	assert.Empty(decoded.Items)
}

type octets struct {
	tlv.Bytes
}

type counter uint16

type newtypeMsg struct {
	Payload octets  `tlv:"TLV,tag=1"`
	Count   counter `tlv:"V"`
	Nested  *octets `tlv:"TLV-E,tag=2"`
}

func TestNewtype(t *testing.T) {
	assert, require := makeAR(t)

	wire, e := tlv.Marshal(octets{tlv.Bytes{0x01, 0x02, 0x03}})
	require.NoError(e)
	assert.Equal(bytesFromHex("010203"), wire)

	var o octets
	require.NoError(tlv.Unmarshal(wire, &o))
	assert.Equal(tlv.Bytes{0x01, 0x02, 0x03}, o.Bytes)

	s, e := tlv.SchemaOf(reflect.TypeOf(o))
	require.NoError(e)
	assert.True(s.IsNewtype())

	msg := newtypeMsg{
		Payload: octets{tlv.Bytes{0xA0}},
		Count:   0x0102,
		Nested:  &octets{tlv.Bytes{0xB0, 0xB1}},
	}
	wire, e = tlv.Marshal(msg)
	require.NoError(e)
	assert.Equal(bytesFromHex("0101A0 0102 02 0002 B0B1"), wire)

	var decoded newtypeMsg
	require.NoError(tlv.Unmarshal(wire, &decoded))
	assert.Equal(msg, decoded)

	wire, e = tlv.Marshal(counter(0x0A0B))
	require.NoError(e)
	assert.Equal(bytesFromHex("0A0B"), wire)
}

type envelopeMsg struct {
	_    tlv.Envelope `tlv:"TLV-E,tag=0x50,tw=2,cap=64"`
	Kind uint8        `tlv:"V"`
	Data []byte       `tlv:"LV"`
}

func TestEnvelope(t *testing.T) {
	assert, require := makeAR(t)

	s, e := tlv.SchemaOf(reflect.TypeOf(envelopeMsg{}))
	require.NoError(e)
	assert.Equal(64, s.Capacity())
	env, ok := s.Envelope()
	require.True(ok)
	assert.Equal(tlv.FormatTLVE, env.Format)

	wire, e := tlv.Marshal(envelopeMsg{Kind: 1, Data: []byte{0xAA, 0xBB}})
	require.NoError(e)
	assert.Equal(bytesFromHex("0050 0004 01 02AABB"), wire)

	var decoded envelopeMsg
	require.NoError(tlv.Unmarshal(wire, &decoded))
	assert.EqualValues(1, decoded.Kind)
	assert.Equal([]byte{0xAA, 0xBB}, decoded.Data)

	e = tlv.Unmarshal(bytesFromHex("0050 0005 01 02AABB FF"), &decoded)
	assert.ErrorIs(e, tlv.ErrTail)
	e = tlv.Unmarshal(bytesFromHex("0051 0004 01 02AABB"), &decoded)
	assert.ErrorIs(e, tlv.ErrTagMismatch)
}

type wideMsg struct {
	A uint64 `tlv:"TLV,tag=1,tw=16,lw=16"`
}

func TestWide(t *testing.T) {
	assert, require := makeAR(t)

	wire, e := tlv.Marshal(wideMsg{A: 0x0102030405060708})
	require.NoError(e)
	assert.Equal(bytesFromHex(`
		00000000000000000000000000000001
		00000000000000000000000000000008
		0102030405060708
	`), wire)

	var decoded wideMsg
	require.NoError(tlv.Unmarshal(wire, &decoded))
	assert.EqualValues(uint64(0x0102030405060708), decoded.A)

	wire[0] = 0x01
	e = tlv.Unmarshal(wire, &decoded)
	assert.ErrorIs(e, tlv.ErrWide)
	assert.ErrorIs(e, tlv.ErrMalformed)
}

type overflowInner struct {
	Data []byte `tlv:"V"`
}

type overflowMsg struct {
	Inner overflowInner `tlv:"TLV,tag=9"`
}

type overflowMsgE struct {
	Inner overflowInner `tlv:"TLV-E,tag=9"`
}

func TestNestedLength(t *testing.T) {
	assert, require := makeAR(t)

	data := make([]byte, 300)
	testenv.RandBytes(data)

	_, e := tlv.Marshal(overflowMsg{Inner: overflowInner{Data: data}})
	assert.ErrorIs(e, tlv.ErrLengthOverflow)
	var pe *tlv.PathError
	require.True(errors.As(e, &pe))
	assert.Equal([]string{"overflowMsg", "Inner"}, pe.Path)

	wire, e := tlv.Marshal(overflowMsgE{Inner: overflowInner{Data: data}})
	require.NoError(e)
	assert.Equal(bytesFromHex("09 012C"), wire[:3])
	assert.Equal(data, wire[3:])

	var decoded overflowMsgE
	require.NoError(tlv.Unmarshal(wire, &decoded))
	assert.Equal(data, decoded.Inner.Data)
	decoded.Inner.Data[0] ^= 0xFF
	assert.NotEqual(wire[3], decoded.Inner.Data[0])
}

type nasLikeMsg struct {
	Head uint8    `tlv:"V"`
	K    *uint8   `tlv:"TV,tag=0xC,bits=4"`
	M    *uint8   `tlv:"TV,tag=0xB,bits=4"`
	X    []byte   `tlv:"TLV,tag=0x2E,optional"`
	Y    *[2]byte `tlv:"TV,tag=0x2F"`
}

func TestMixedTail(t *testing.T) {
	assert, require := makeAR(t)

	msg := nasLikeMsg{Head: 1, K: ptrTo[uint8](3), M: ptrTo[uint8](1), X: []byte{0xAA}, Y: &[2]byte{0xB0, 0xB1}}
	wire, e := tlv.Marshal(msg)
	require.NoError(e)
	assert.Equal(bytesFromHex("01 C3 B1 2E01AA 2FB0B1"), wire)

	var decoded nasLikeMsg
	require.NoError(tlv.Unmarshal(bytesFromHex("01 2FB0B1 B1 2E01AA C3"), &decoded))
	assert.Equal(msg, decoded)

	decoded = nasLikeMsg{}
	require.NoError(tlv.Unmarshal(bytesFromHex("01 2E00"), &decoded))
	assert.NotNil(decoded.X)
	assert.Len(decoded.X, 0)
	assert.Nil(decoded.K)

	e = tlv.Unmarshal(bytesFromHex("01 C3 C4"), &decoded)
	assert.ErrorIs(e, tlv.ErrDuplicateTag)

	e = tlv.Unmarshal(bytesFromHex("01 A1"), &decoded)
	var unknown *tlv.UnknownTagError
	require.True(errors.As(e, &unknown))
	assert.EqualValues(0xA1, unknown.Tag)

	e = tlv.UnmarshalOptions{AllowUnknown: true}.Unmarshal(bytesFromHex("01 A1"), &decoded)
	assert.ErrorIs(e, tlv.ErrUnknownTag)

	_, e = tlv.Marshal(nasLikeMsg{K: ptrTo[uint8](16)})
	assert.ErrorIs(e, tlv.ErrRange)
}

type treeNode struct {
	Value uint8     `tlv:"V"`
	Child *treeNode `tlv:"TLV,tag=1"`
}

func TestRecursive(t *testing.T) {
	assert, require := makeAR(t)

	tree := treeNode{Value: 1, Child: &treeNode{Value: 2, Child: &treeNode{Value: 3}}}
	wire, e := tlv.Marshal(tree)
	require.NoError(e)
	assert.Equal(bytesFromHex("01 0104 02 010103"), wire)

	var decoded treeNode
	require.NoError(tlv.Unmarshal(wire, &decoded))
	assert.Equal(tree, decoded)

	e = tlv.Unmarshal(bytesFromHex("01 0104 02 010203"), &decoded)
	assert.ErrorIs(e, tlv.ErrIncomplete)
	var pe *tlv.PathError
	require.True(errors.As(e, &pe))
	assert.Equal([]string{"treeNode", "Child", "Child"}, pe.Path)
}

type celsius int8

func (c celsius) EncodeValue(enc *tlv.Encoder) error {
	return enc.WriteByte(byte(c))
}

func (c *celsius) DecodeValue(d *tlv.Decoder) error {
	b, e := d.ReadByte()
	*c = celsius(int8(b))
	return e
}

type customMsg struct {
	Temp  celsius   `tlv:"TLV,tag=0x40"`
	Extra []celsius `tlv:"TLV,tag=0x41"`
}

func TestCustomValue(t *testing.T) {
	assert, require := makeAR(t)

	msg := customMsg{Temp: -5, Extra: []celsius{-1, 20}}
	wire, e := tlv.Marshal(msg)
	require.NoError(e)
	assert.Equal(bytesFromHex("4001FB 4101FF 410114"), wire)

	var decoded customMsg
	require.NoError(tlv.Unmarshal(wire, &decoded))
	assert.Equal(msg, decoded)
}

type markerMsg struct {
	Marker struct{} `tlv:"T,tag=0xFF"`
	Body   string   `tlv:"V"`
}

func TestRemainder(t *testing.T) {
	assert, require := makeAR(t)

	wire, e := tlv.Marshal(markerMsg{Body: "hello"})
	require.NoError(e)
	assert.Equal(append([]byte{0xFF}, "hello"...), wire)

	var decoded markerMsg
	require.NoError(tlv.Unmarshal(wire, &decoded))
	assert.Equal("hello", decoded.Body)

	require.NoError(tlv.Unmarshal([]byte{0xFF}, &decoded))
	assert.Equal("", decoded.Body)

	e = tlv.Unmarshal([]byte{0xFE}, &decoded)
	assert.ErrorIs(e, tlv.ErrTagMismatch)
}

func TestStreamDecode(t *testing.T) {
	assert, require := makeAR(t)

	enc := tlv.NewEncoder(0)
	require.NoError(tlv.Encode(enc, fixedMsg{Addr: []byte{1, 2, 3, 4}, Kind: 1}))
	require.NoError(tlv.Encode(enc, &fixedMsg{Addr: []byte{5, 6, 7, 8}, Kind: 2}))

	d := tlv.NewDecoder(enc.Bytes())
	var first, second fixedMsg
	require.NoError(tlv.UnmarshalOptions{}.Decode(d, &first))
	require.NoError(tlv.UnmarshalOptions{}.Decode(d, &second))
	assert.True(d.EOF())
	assert.EqualValues(1, first.Kind)
	assert.Equal([]byte{5, 6, 7, 8}, second.Addr)
}

func TestMarshalInvalid(t *testing.T) {
	assert, _ := makeAR(t)

	_, e := tlv.Marshal(nil)
	assert.Error(e)
	_, e = tlv.Marshal((*scenarioMsg)(nil))
	assert.Error(e)
	_, e = tlv.Marshal(1.5)
	assert.ErrorIs(e, tlv.ErrSchema)

	assert.Error(tlv.Unmarshal(nil, scenarioMsg{}))
	assert.Error(tlv.Unmarshal(nil, (*scenarioMsg)(nil)))
}
