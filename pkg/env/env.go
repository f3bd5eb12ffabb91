// Package env reads process environment variables with fallbacks, for the
// few knobs (log format) that live outside the envconfig-loaded config.
package env

import "os"

// Get returns the named variable, or fallback when unset or empty.
func Get(key, fallback string) string {
	val, ok := os.LookupEnv(key)
	if !ok || val == "" {
		return fallback
	}
	return val
}
