package tlv_test

import (
	"math/rand/v2"
	"testing"

	"github.com/usnistgov/tlvcodec/core/testenv"
	"github.com/usnistgov/tlvcodec/tlv"
)

type allFormatsInner struct {
	Code  uint16 `tlv:"V"`
	Value []byte `tlv:"LV-E"`
}

type allFormatsMsg struct {
	Marker  struct{}          `tlv:"T,tag=0xFE"`
	Version uint8             `tlv:"V,bits=4"`
	Flags   uint8             `tlv:"V,bits=4"`
	Cell    uint8             `tlv:"TV,tag=0x9,bits=4"`
	ID      [3]byte           `tlv:"V"`
	Tagged  uint32            `tlv:"TV,tag=0x21"`
	Short   []byte            `tlv:"LV"`
	Long    []byte            `tlv:"LV-E"`
	Inner   allFormatsInner   `tlv:"TLV-E,tag=0x22"`
	Wide    uint64            `tlv:"TLV-E,tag=0x23,tw=16,lw=4"`
	Nib     *uint8            `tlv:"TV,tag=0xC,bits=4"`
	Opt     *uint16           `tlv:"TLV,tag=0x30"`
	Ext     []byte            `tlv:"TLV-E,tag=0x31,optional"`
	Multi   []allFormatsInner `tlv:"TLV-E,tag=0x32"`
}

func randBytes(n int) []byte {
	b := make([]byte, n)
	testenv.RandBytes(b)
	return b
}

func randInner() allFormatsInner {
	return allFormatsInner{Code: uint16(rand.Uint32()), Value: randBytes(rand.IntN(600))}
}

func TestRoundTrip(t *testing.T) {
	assert, require := makeAR(t)

	for i := 0; i < 200; i++ {
		msg := allFormatsMsg{
			Version: uint8(rand.IntN(16)),
			Flags:   uint8(rand.IntN(16)),
			Cell:    uint8(rand.IntN(16)),
			Tagged:  rand.Uint32(),
			Short:   randBytes(rand.IntN(256)),
			Long:    randBytes(rand.IntN(1000)),
			Inner:   randInner(),
			Wide:    rand.Uint64(),
		}
		copy(msg.ID[:], randBytes(3))
		if rand.IntN(2) == 0 {
			msg.Nib = ptrTo(uint8(rand.IntN(16)))
		}
		if rand.IntN(2) == 0 {
			msg.Opt = ptrTo(uint16(rand.Uint32()))
		}
		if rand.IntN(2) == 0 {
			msg.Ext = randBytes(rand.IntN(300))
		}
		for j := rand.IntN(3); j > 0; j-- {
			msg.Multi = append(msg.Multi, randInner())
		}

		wire, e := tlv.Marshal(msg)
		require.NoError(e)

		var decoded allFormatsMsg
		require.NoError(tlv.Unmarshal(wire, &decoded))
		assert.Equal(msg.Version, decoded.Version)
		assert.Equal(msg.Flags, decoded.Flags)
		assert.Equal(msg.Cell, decoded.Cell)
		assert.Equal(msg.ID, decoded.ID)
		assert.Equal(msg.Tagged, decoded.Tagged)
		testenv.BytesEqual(assert, msg.Short, decoded.Short)
		testenv.BytesEqual(assert, msg.Long, decoded.Long)
		assert.Equal(msg.Inner.Code, decoded.Inner.Code)
		testenv.BytesEqual(assert, msg.Inner.Value, decoded.Inner.Value)
		assert.Equal(msg.Wide, decoded.Wide)
		assert.Equal(msg.Nib, decoded.Nib)
		assert.Equal(msg.Opt, decoded.Opt)
		assert.Equal(msg.Ext == nil, decoded.Ext == nil)
		testenv.BytesEqual(assert, msg.Ext, decoded.Ext)
		assert.Len(decoded.Multi, len(msg.Multi))

		rewire, e := tlv.Marshal(decoded)
		require.NoError(e)
		assert.Equal(wire, rewire)
	}
}
