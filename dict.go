package corekit

import (
	"reflect"
	"strings"

	"github.com/spf13/cast"
)

// Dict is a JSON-like document.  Nested documents may be Dicts or any other map
// that spf13/cast can convert, such as the map[interface{}]interface{} values
// produced by some YAML decoders.
type Dict = map[string]interface{}

// asDict tests whether v is a nested document.  Dicts are returned as is, so
// mutations through the result are visible in v.  Other maps are converted.
func asDict(v interface{}) (Dict, bool) {
	switch vt := v.(type) {
	case Dict:
		return vt, true

	case nil:
		return nil, false
	}

	// cast happily parses JSON strings into maps, so only hand it actual maps
	if reflect.ValueOf(v).Kind() != reflect.Map {
		return nil, false
	}

	d, err := cast.ToStringMapE(v)
	return d, err == nil
}

// DictSubset returns a new Dict containing only the given keys of d.  Keys are
// dotted paths: "b.c" selects c within the nested document b.  Keys that do not
// exist in d are ignored, as are duplicates.  When a path descends into something
// that is not a document, the value at the last existing level is kept whole.
func DictSubset(d Dict, keys []string) Dict {
	result := make(Dict)
	for _, key := range keys {
		field, subfield, nested := strings.Cut(key, ".")
		if !nested {
			if v, ok := d[key]; ok {
				result[key] = v
			}

			continue
		}

		v, ok := d[field]
		if !ok {
			continue
		}

		if sub, isDict := asDict(v); isDict {
			existing, _ := asDict(result[field])
			result[field] = DictMerge(
				DictSubset(sub, []string{subfield}),
				existing,
			)
		} else {
			result[field] = v
		}
	}

	return result
}

// DictMerge returns a new Dict holding the keys of both a and b.  Nested documents
// are merged recursively.  For any other conflict, the value from a is used.
// Neither a nor b is modified.
func DictMerge(a, b Dict) Dict {
	result := make(Dict, len(a)+len(b))
	for key, value := range b {
		result[key] = value
	}

	for key, value := range a {
		if sub, isDict := asDict(value); isDict {
			other, _ := asDict(result[key])
			value = DictMerge(sub, other)
		}

		result[key] = value
	}

	return result
}

// FindNestedValue looks up a dotted path in d.  Since keys can themselves contain
// dots, an exact match for path always wins.  Otherwise, the longest dotted prefix of
// path that is a key in d is taken as the root, and the rest of the path is looked up
// within it.
//
// If nothing matches, the optional default is returned, or nil if no default was given.
func FindNestedValue(d Dict, path string, def ...interface{}) interface{} {
	var fallback interface{}
	if len(def) > 0 {
		fallback = def[0]
	}

	return findNestedValue(d, path, fallback)
}

func findNestedValue(d Dict, path string, def interface{}) interface{} {
	if v, ok := d[path]; ok {
		return v
	}

	parts := strings.Split(path, ".")
	for n := len(parts) - 1; n > 0; n-- {
		v, ok := d[strings.Join(parts[:n], ".")]
		if !ok {
			continue
		}

		sub, isDict := asDict(v)
		if !isDict {
			return def
		}

		return findNestedValue(sub, strings.Join(parts[n:], "."), def)
	}

	return def
}

// RecursiveUpdateDict applies changes to root in place.  Nested documents in changes
// are merged into root, creating them as needed.  Any change whose value equals one of
// ignores removes that key from root instead.
//
// If changes is not a document, this function does nothing.
func RecursiveUpdateDict(root Dict, changes interface{}, ignores ...interface{}) {
	c, ok := asDict(changes)
	if !ok || root == nil {
		return
	}

	for key, value := range c {
		switch sub, isDict := asDict(value); {
		case isDict:
			target, exists := asDict(root[key])
			if !exists {
				target = make(Dict, len(sub))
			}

			root[key] = target
			RecursiveUpdateDict(target, sub, ignores...)

		case ignored(value, ignores):
			delete(root, key)

		default:
			root[key] = value
		}
	}
}

func ignored(v interface{}, ignores []interface{}) bool {
	for _, i := range ignores {
		if reflect.DeepEqual(v, i) {
			return true
		}
	}

	return false
}
