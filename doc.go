// Package corekit is a grab-bag of small utilities shared by web services:
//
// Value coercion
//
// NativeValue turns configuration and query strings into the closest matching
// native value, while StripWhitespace trims user input.  Both are available as
// mapstructure decode hooks for use with viper.
//
// Dicts
//
// DictSubset, DictMerge, FindNestedValue and RecursiveUpdateDict operate on
// arbitrary JSON-like documents addressed with dotted paths.
//
// Environment and settings
//
// ReadEnv looks up a dotted setting name in the process environment.  Settings
// layers the same rules over a viper instance and exposes it to an fx.App.
package corekit
