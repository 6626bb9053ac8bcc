package tlv

import (
	"errors"
	"fmt"
	"strings"
)

// Error categories.
var (
	ErrSchema         = errors.New("invalid schema")
	ErrMalformed      = errors.New("malformed payload")
	ErrUnknownTag     = errors.New("unknown tag")
	ErrDuplicateTag   = errors.New("duplicate tag")
	ErrLengthOverflow = errors.New("length overflow")
	ErrRange          = errors.New("out of range")
)

// Malformed payload conditions.
// Each of them matches ErrMalformed in errors.Is.
var (
	ErrIncomplete  error = malformedError("incomplete input")
	ErrLength      error = malformedError("length mismatch")
	ErrTagMismatch error = malformedError("tag mismatch")
	ErrTail        error = malformedError("junk after end of value")
	ErrWide        error = malformedError("number exceeds 64 bits")
)

type malformedError string

func (e malformedError) Error() string {
	return string(e)
}

func (malformedError) Is(target error) bool {
	return target == ErrMalformed
}

// SchemaError indicates an invalid field descriptor or record layout.
type SchemaError struct {
	Record string
	Field  string
	Reason string
}

func (e *SchemaError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("schema %s: %s", e.Record, e.Reason)
	}
	return fmt.Sprintf("schema %s.%s: %s", e.Record, e.Field, e.Reason)
}

// Is matches ErrSchema.
func (e *SchemaError) Is(target error) bool {
	return target == ErrSchema
}

// UnknownTagError indicates a tail entry whose tag has no descriptor.
// Fields decoded before this entry are retained.
type UnknownTagError struct {
	Tag    uint64
	Offset int
}

func (e *UnknownTagError) Error() string {
	return fmt.Sprintf("unknown tag 0x%X at offset %d", e.Tag, e.Offset)
}

// Is matches ErrUnknownTag.
func (e *UnknownTagError) Is(target error) bool {
	return target == ErrUnknownTag
}

// DuplicateTagError indicates a repeated tail entry for a non-repeated slot.
type DuplicateTagError struct {
	Tag    uint64
	Offset int
}

func (e *DuplicateTagError) Error() string {
	return fmt.Sprintf("duplicate tag 0x%X at offset %d", e.Tag, e.Offset)
}

// Is matches ErrDuplicateTag.
func (e *DuplicateTagError) Is(target error) bool {
	return target == ErrDuplicateTag
}

// LengthOverflowError indicates a value too long for its length field.
type LengthOverflowError struct {
	Length int
	Width  Width
}

func (e *LengthOverflowError) Error() string {
	return fmt.Sprintf("length %d does not fit in %d octets", e.Length, e.Width)
}

// Is matches ErrLengthOverflow.
func (e *LengthOverflowError) Is(target error) bool {
	return target == ErrLengthOverflow
}

// PathError annotates an error with the location of the field that caused it.
type PathError struct {
	Path []string
	Err  error
}

func (e *PathError) Error() string {
	return strings.Join(e.Path, ".") + ": " + e.Err.Error()
}

func (e *PathError) Unwrap() error {
	return e.Err
}

// annotate prepends path elements to an error.
func annotate(e error, path ...string) error {
	if e == nil {
		return nil
	}
	if pe, ok := e.(*PathError); ok {
		return &PathError{
			Path: append(append([]string{}, path...), pe.Path...),
			Err:  pe.Err,
		}
	}
	return &PathError{
		Path: append([]string{}, path...),
		Err:  e,
	}
}
