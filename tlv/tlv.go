// Package tlv implements a schema-driven codec for Tag-Length-Value wire formats.
//
// A record type is described by a list of field descriptors, one per value slot.
// Each descriptor selects a framing variant (T, V, TV, LV, LV-E, TLV, TLV-E), tag and length widths,
// and optional literal tag and length values.
// Required fields appear first in declared order; optional and repeated fields form a tail,
// where each entry is dispatched by its tag.
//
// Descriptors are usually written as struct tags:
//
//	type Message struct {
//		Req uint8  `tlv:"TLV,tag=2"`
//		Opt *uint8 `tlv:"TLV,tag=3"`
//	}
//
// Encoding {Req: 11, Opt: &6} yields 02 01 0B 03 01 06.
package tlv

import "github.com/usnistgov/tlvcodec/core/logging"

var logger = logging.New("tlv")
