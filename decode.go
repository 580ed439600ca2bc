package corekit

import (
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

// Exact sets the DecoderConfig.ErrorUnused flag, which turns unknown settings
// into decoding errors.
func Exact(dc *mapstructure.DecoderConfig) {
	dc.ErrorUnused = true
}

// Merge takes any number of slices of decoder options and merges them
// into a single option that applies each of them in order.
func Merge(opts ...[]viper.DecoderConfigOption) viper.DecoderConfigOption {
	return func(dc *mapstructure.DecoderConfig) {
		for _, group := range opts {
			for _, o := range group {
				o(dc)
			}
		}
	}
}

// DefaultDecodeHooks sets the decode hooks used by Settings.  Strings are trimmed,
// then coerced with NativeValue unless bound for a string field.  Whatever is still
// a string afterwards gets viper's usual duration and comma-separated slice handling.
func DefaultDecodeHooks(dc *mapstructure.DecoderConfig) {
	dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
		StripWhitespaceHookFunc,
		NativeValueHookFunc,
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	)
}

// ComposeDecodeHooks appends decode hooks to any that are already configured.
func ComposeDecodeHooks(fs ...mapstructure.DecodeHookFunc) viper.DecoderConfigOption {
	return func(dc *mapstructure.DecoderConfig) {
		if dc.DecodeHook != nil {
			fs = append([]mapstructure.DecodeHookFunc{dc.DecodeHook}, fs...)
		}

		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(fs...)
	}
}
