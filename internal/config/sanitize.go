package config

import "strings"

// Sanitize returns a copy of the config with sensitive fields masked.
//
// This is used for logging configuration without exposing secrets.
func Sanitize(cfg *Config) *Config {
	sanitized := *cfg
	if sanitized.Signer.Key != "" {
		sanitized.Signer.Key = maskSecret(sanitized.Signer.Key)
	}
	return &sanitized
}

// maskSecret keeps the encoding prefix and masks the rest.
func maskSecret(s string) string {
	prefix := ""
	if i := strings.IndexByte(s, ':'); i >= 0 {
		prefix, s = s[:i+1], s[i+1:]
	}
	if len(s) <= 4 {
		return prefix + "****"
	}
	return prefix + s[:2] + strings.Repeat("*", len(s)-4) + s[len(s)-2:]
}
