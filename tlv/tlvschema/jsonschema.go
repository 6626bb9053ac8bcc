package tlvschema

import (
	"fmt"

	"github.com/xeipuuv/gojsonschema"
	"go.uber.org/multierr"
)

// DocumentSchema is the JSON schema of definition documents.
const DocumentSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "title": "TLV message definitions",
  "type": "object",
  "required": ["messages"],
  "additionalProperties": false,
  "properties": {
    "messages": {
      "type": "array",
      "minItems": 1,
      "items": { "$ref": "#/definitions/message" }
    }
  },
  "definitions": {
    "identifier": {
      "type": "string",
      "pattern": "^[A-Za-z][A-Za-z0-9_-]*$"
    },
    "width": {
      "type": "integer",
      "enum": [0, 1, 2, 4, 8, 16]
    },
    "field": {
      "type": "object",
      "required": ["format"],
      "additionalProperties": false,
      "properties": {
        "name": { "$ref": "#/definitions/identifier" },
        "format": { "type": "string", "enum": ["T", "V", "TV", "LV", "LV-E", "TLV", "TLV-E"] },
        "tag": { "type": "integer", "minimum": 0 },
        "tw": { "$ref": "#/definitions/width" },
        "len": { "type": "integer", "minimum": 0 },
        "lw": { "$ref": "#/definitions/width" },
        "bits": { "type": "integer", "enum": [4, 8] },
        "type": { "type": "string", "minLength": 1 },
        "presence": { "type": "string", "enum": ["required", "optional", "repeated"] }
      }
    },
    "message": {
      "type": "object",
      "required": ["name", "fields"],
      "additionalProperties": false,
      "properties": {
        "name": { "$ref": "#/definitions/identifier" },
        "envelope": { "$ref": "#/definitions/field" },
        "capacity": { "type": "integer", "minimum": 0 },
        "fields": {
          "type": "array",
          "items": {
            "allOf": [
              { "$ref": "#/definitions/field" },
              { "required": ["name"] }
            ]
          }
        }
      }
    }
  }
}`

var documentSchema = func() *gojsonschema.Schema {
	s, e := gojsonschema.NewSchema(gojsonschema.NewStringLoader(DocumentSchema))
	if e != nil {
		panic(e)
	}
	return s
}()

func validateDocument(j []byte) (errs error) {
	result, e := documentSchema.Validate(gojsonschema.NewBytesLoader(j))
	switch {
	case e != nil:
		return fmt.Errorf("%w: %w", ErrDocument, e)
	case result.Valid():
		return nil
	}

	for _, desc := range result.Errors() {
		errs = multierr.Append(errs, fmt.Errorf("%w: %s", ErrDocument, desc))
	}
	return errs
}
