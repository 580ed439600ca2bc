package corekit

import (
	"os"
	"strings"
)

// EnvReplacer rewrites dotted setting names into environment variable names.
// It is suitable for viper.SetEnvKeyReplacer.
var EnvReplacer = strings.NewReplacer(".", "_", "-", "_")

// EnvKey returns the environment variable name for a setting, e.g. "kinto-conf.name"
// becomes "KINTO_CONF_NAME".
func EnvKey(key string) string {
	return strings.ToUpper(EnvReplacer.Replace(key))
}

// lookupEnv is swapped out by tests
var lookupEnv = os.LookupEnv

// ReadEnv returns the value of the environment variable named by EnvKey(key),
// coerced with NativeValue.  If that variable is not set, def is returned as is.
// In particular, def is never coerced.
func ReadEnv(key string, def interface{}) interface{} {
	if v, ok := lookupEnv(EnvKey(key)); ok {
		return NativeValue(v)
	}

	return def
}
