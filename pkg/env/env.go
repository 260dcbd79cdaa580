// Package env reads the handful of settings that must be known before the
// envconfig-driven config is loaded, such as the log format.
package env

import (
	"os"
	"strconv"
	"strings"
)

// Prefix namespaces every PartsBridge variable.
const Prefix = "PARTSBRIDGE_"

// Name returns the prefixed variable name for key.
func Name(key string) string {
	if strings.HasPrefix(key, Prefix) {
		return key
	}
	return Prefix + key
}

// String returns the trimmed value of the prefixed key, or fallback when it
// is unset or blank.
func String(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(Name(key))); v != "" {
		return v
	}
	return fallback
}

// Bool parses the prefixed key with strconv.ParseBool, returning fallback on
// absence or garbage.
func Bool(key string, fallback bool) bool {
	v := strings.TrimSpace(os.Getenv(Name(key)))
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}
