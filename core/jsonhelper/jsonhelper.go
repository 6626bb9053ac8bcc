// Package jsonhelper provides JSON-related helper functions.
package jsonhelper

import (
	"bytes"
	"encoding/json"
)

// Option sets an option on json.Decoder.
type Option func(*json.Decoder)

// DisallowUnknownFields causes json.Decoder to reject unknown struct fields.
var DisallowUnknownFields Option = func(d *json.Decoder) { d.DisallowUnknownFields() }

// UseNumber causes json.Decoder to decode numbers in interface{} as json.Number.
var UseNumber Option = func(d *json.Decoder) { d.UseNumber() }

// Decode unmarshals JSON into ptr with options.
func Decode(j []byte, ptr any, options ...Option) error {
	decoder := json.NewDecoder(bytes.NewReader(j))
	for _, option := range options {
		option(decoder)
	}
	return decoder.Decode(ptr)
}

// Roundtrip marshals the input to JSON then unmarshals it into ptr.
// This is useful for converting between structures.
func Roundtrip(input, ptr any, options ...Option) error {
	j, e := json.Marshal(input)
	if e != nil {
		return e
	}
	return Decode(j, ptr, options...)
}
