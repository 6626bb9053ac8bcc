package tlv_test

import (
	"github.com/usnistgov/tlvcodec/core/testenv"
)

var (
	makeAR       = testenv.MakeAR
	bytesFromHex = testenv.BytesFromHex
)
