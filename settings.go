package corekit

import (
	"errors"
	"sort"

	"github.com/spf13/viper"
	"go.uber.org/fx"
	"go.uber.org/multierr"
)

var (
	// ErrNilViper is returned when an externally supplied Viper instance is nil
	ErrNilViper = errors.New("the viper instance cannot be nil")
)

// Settings is a viper-backed settings store.  Environment variables are consulted
// using the same naming rules as ReadEnv, optionally with a prefix, and string values
// are coerced with NativeValue.
type Settings struct {
	viper   *viper.Viper
	prefix  string
	options []viper.DecoderConfigOption
	printer fx.Printer
}

// SettingsOption tailors a Settings instance during NewSettings
type SettingsOption func(*Settings) error

// WithViper uses an externally created viper instance, such as one that has already
// read a configuration file.
func WithViper(v *viper.Viper) SettingsOption {
	return func(s *Settings) error {
		if v == nil {
			return ErrNilViper
		}

		s.viper = v
		return nil
	}
}

// WithPrefix sets the prefix for settings read from the environment.  With a prefix
// of "kinto", the setting "http.port" may be overridden by either KINTO_HTTP_PORT or HTTP_PORT.
func WithPrefix(prefix string) SettingsOption {
	return func(s *Settings) error {
		s.prefix = prefix
		return nil
	}
}

// WithDecodeOptions appends decoder options applied to every UnmarshalKey call
func WithDecodeOptions(o ...viper.DecoderConfigOption) SettingsOption {
	return func(s *Settings) error {
		s.options = append(s.options, o...)
		return nil
	}
}

// WithPrinter sets the fx.Printer for informational output.  A nil printer
// means DefaultPrinter.
func WithPrinter(p fx.Printer) SettingsOption {
	return func(s *Settings) error {
		s.printer = p
		return nil
	}
}

// NewSettings creates a Settings from a set of options.  Unless WithViper is
// used, a new viper instance is created.
func NewSettings(opts ...SettingsOption) (*Settings, error) {
	s := new(Settings)

	var err error
	for _, o := range opts {
		err = multierr.Append(err, o(s))
	}

	if err != nil {
		return nil, err
	}

	if s.viper == nil {
		s.viper = viper.New()
	}

	s.printer = NewModulePrinter(Module, s.printer)
	s.viper.SetEnvKeyReplacer(EnvReplacer)
	if len(s.prefix) > 0 {
		s.viper.SetEnvPrefix(s.prefix)
	}

	s.viper.AutomaticEnv()
	return s, nil
}

// Viper returns the underlying viper instance
func (s *Settings) Viper() *viper.Viper {
	return s.viper
}

// Prefix returns the environment prefix, which may be empty
func (s *Settings) Prefix() string {
	return s.prefix
}

// LoadDefaults fills in each key of defaults that has no value yet.  Environment
// variables then override every one of these keys, including keys that were Set
// explicitly: first the unprefixed name, then the prefixed name.  Keys are processed
// in sorted order.
func (s *Settings) LoadDefaults(defaults Dict) {
	keys := make([]string, 0, len(defaults))
	for key := range defaults {
		keys = append(keys, key)
	}

	sort.Strings(keys)
	for _, key := range keys {
		value := defaults[key]
		if s.viper.IsSet(key) {
			value = s.viper.Get(key)
		}

		value = ReadEnv(key, value)
		if len(s.prefix) > 0 {
			value = ReadEnv(s.prefix+"."+key, value)
		}

		s.printer.Printf("SETTING\t[%s] => %T", key, value)
		s.viper.Set(key, value)
	}
}

// Set explicitly sets a value.  It takes precedence over configuration files and
// defaults, but a later LoadDefaults lets the environment override it.
func (s *Settings) Set(key string, value interface{}) {
	s.viper.Set(key, value)
}

// Get returns the value of a setting.  Strings, which is how environment
// variables always arrive, are coerced with NativeValue.
func (s *Settings) Get(key string) interface{} {
	return NativeValue(s.viper.Get(key))
}

// IsSet tests if a setting has any value
func (s *Settings) IsSet(key string) bool {
	return s.viper.IsSet(key)
}

// UnmarshalKey decodes the settings under key into value, using DefaultDecodeHooks
// followed by any configured options and then opts.
func (s *Settings) UnmarshalKey(key string, value interface{}, opts ...viper.DecoderConfigOption) error {
	s.printer.Printf("UNMARSHAL KEY\t[%s] => %T", key, value)
	return s.viper.UnmarshalKey(
		key,
		value,
		DefaultDecodeHooks,
		Merge(s.options, opts),
	)
}

// SettingsIn is the set of optional dependencies used by Provide
type SettingsIn struct {
	fx.In

	// Printer is the optional fx.Printer for informational output
	Printer fx.Printer `optional:"true"`

	// Defaults are the optional default settings, which are passed to LoadDefaults
	Defaults Dict `name:"settings.defaults" optional:"true"`
}

// Provide produces a *Settings component for an fx.App.  The options supplied
// here are applied after the injected printer, so WithPrinter overrides it.
func Provide(opts ...SettingsOption) fx.Option {
	return fx.Provide(
		func(in SettingsIn) (*Settings, error) {
			s, err := NewSettings(
				append([]SettingsOption{WithPrinter(in.Printer)}, opts...)...,
			)

			if err == nil && len(in.Defaults) > 0 {
				s.LoadDefaults(in.Defaults)
			}

			return s, err
		},
	)
}
