package corekit

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"math/big"
	"reflect"
	"strings"
)

// NativeValue converts a string into the native value it denotes when read as a
// JSON document.  For example, "7" becomes int64(7), "true" becomes true, "null" becomes
// nil and "\"7\"" becomes the string "7".  Integers too large for int64 become a
// *big.Int.  A string that is not a valid JSON document, such as "value" or "'7'", is
// returned unchanged.
//
// Values that are not strings are returned as is.
func NativeValue(v interface{}) interface{} {
	text, ok := v.(string)
	if !ok {
		return v
	}

	decoded, err := decodeJSON(text)
	if err != nil {
		return text
	}

	return decoded
}

// decodeJSON decodes exactly one JSON document from text.  Integral numbers are
// returned as int64, or *big.Int when they overflow int64.  All others are float64.
func decodeJSON(text string) (interface{}, error) {
	d := json.NewDecoder(bytes.NewBufferString(text))
	d.UseNumber()

	var decoded interface{}
	if err := d.Decode(&decoded); err != nil {
		return nil, err
	}

	// trailing data means the text as a whole is not a document
	if _, err := d.Token(); !errors.Is(err, io.EOF) {
		return nil, errTrailingData
	}

	return nativeNumbers(decoded), nil
}

var errTrailingData = errors.New("trailing data after JSON document")

func nativeNumbers(v interface{}) interface{} {
	switch vt := v.(type) {
	case json.Number:
		if i, err := vt.Int64(); err == nil {
			return i
		}

		// integers beyond int64 stay exact
		if !strings.ContainsAny(string(vt), ".eE") {
			if i, ok := new(big.Int).SetString(string(vt), 10); ok {
				return i
			}
		}

		f, _ := vt.Float64()
		return f

	case map[string]interface{}:
		for key, value := range vt {
			vt[key] = nativeNumbers(value)
		}

	case []interface{}:
		for i, value := range vt {
			vt[i] = nativeNumbers(value)
		}
	}

	return v
}

// NativeValueHookFunc is a mapstructure.DecodeHookFunc that passes string sources
// through NativeValue.  Strings bound for string destinations are left alone, so that
// a setting such as "123" can still populate a string field.
func NativeValueHookFunc(_, to reflect.Type, src interface{}) (interface{}, error) {
	if text, ok := src.(string); ok && to.Kind() != reflect.String {
		return NativeValue(text), nil
	}

	return src, nil
}
