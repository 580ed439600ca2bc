package corekit

import (
	"reflect"
	"strings"
)

// whitespace is the set of characters trimmed by StripWhitespace
const whitespace = " \t\n\r"

// StripWhitespace removes spaces, tabs, and newlines from the beginning and end
// of a string.  Whitespace in the middle of v is untouched.
func StripWhitespace(v string) string {
	return strings.Trim(v, whitespace)
}

// StripWhitespaceHookFunc is a mapstructure.DecodeHookFunc that trims string
// sources with StripWhitespace.  A nil source, which represents an absent value,
// is returned as is.
func StripWhitespaceHookFunc(_, _ reflect.Type, src interface{}) (interface{}, error) {
	if text, ok := src.(string); ok {
		return StripWhitespace(text), nil
	}

	return src, nil
}
