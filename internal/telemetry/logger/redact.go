package logger

import (
	"log/slog"
	"strings"
)

// Signer keys are configured inline as "hex:..." or "base64:...". Values
// with those prefixes are masked wherever they appear; other string
// attributes are replaced outright when their key names a secret.

const redactedValue = "***REDACTED***"

var keyMaterialPrefixes = [...]string{"hex:", "base64:"}

var secretKeyFragments = [...]string{
	"secret",
	"private",
	"password",
	"credential",
	"signing_key",
	"hmac_key",
}

func redactAttr(_ []string, a slog.Attr) slog.Attr {
	switch a.Value.Kind() {
	case slog.KindGroup:
		attrs := a.Value.Group()
		out := make([]slog.Attr, len(attrs))
		for i, attr := range attrs {
			out[i] = redactAttr(nil, attr)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(out...)}
	case slog.KindString:
		v := a.Value.String()
		if prefix, ok := keyMaterialPrefix(v); ok {
			return slog.String(a.Key, mask(v, prefix))
		}
		if v != "" && IsSensitiveKey(a.Key) {
			return slog.String(a.Key, redactedValue)
		}
	}
	return a
}

func keyMaterialPrefix(v string) (string, bool) {
	for _, p := range keyMaterialPrefixes {
		if strings.HasPrefix(v, p) {
			return p, true
		}
	}
	return "", false
}

// mask keeps the encoding prefix and three characters at each end.
func mask(v, prefix string) string {
	body := v[len(prefix):]
	if len(body) <= 6 {
		return prefix + "***"
	}
	return prefix + body[:3] + "..." + body[len(body)-3:]
}

// RedactString masks inline key material and returns other values as-is.
func RedactString(v string) string {
	if prefix, ok := keyMaterialPrefix(v); ok {
		return mask(v, prefix)
	}
	return v
}

// IsSensitiveKey reports whether an attribute key names a secret.
func IsSensitiveKey(key string) bool {
	k := strings.ToLower(key)
	for _, f := range secretKeyFragments {
		if strings.Contains(k, f) {
			return true
		}
	}
	return false
}

// IsSensitiveValue reports whether v looks like inline key material.
func IsSensitiveValue(v string) bool {
	_, ok := keyMaterialPrefix(v)
	return ok
}
