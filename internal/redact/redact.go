// Package redact hides secrets in diagnostic output such as HTTP dumps.
package redact

import (
	"net/http"
	"path"
	"strings"
)

// LengthMin is the shortest secret String will redact. Hiding shorter
// values would mostly mangle innocent text.
const LengthMin = 6

// Redacted replaces every hidden value.
const Redacted = "[REDACTED]"

// SensitiveHeaders are the header name patterns hidden in HTTP dumps. Jenkins
// sends its CSRF crumb in a header named after the issuer, usually
// Jenkins-Crumb.
var SensitiveHeaders = []string{
	"Authorization",
	"Proxy-Authorization",
	"Cookie",
	"Set-Cookie",
	"*-Crumb",
}

// Match reports if the canonical form of name matches any of the patterns.
// Malformed patterns never match.
func Match(patterns []string, name string) bool {
	name = http.CanonicalHeaderKey(name)
	for _, pattern := range patterns {
		if matched, err := path.Match(pattern, name); err == nil && matched {
			return true
		}
	}
	return false
}

// Header returns a copy of h with the values of matching headers replaced.
func Header(h http.Header, patterns []string) http.Header {
	out := h.Clone()
	for name, values := range out {
		if !Match(patterns, name) {
			continue
		}
		hidden := make([]string, len(values))
		for i := range hidden {
			hidden[i] = Redacted
		}
		out[name] = hidden
	}
	return out
}

// String replaces every occurrence of each secret in s. Secrets shorter than
// LengthMin are left alone.
func String(s string, secrets []string) string {
	var pairs []string
	for _, secret := range secrets {
		if len(secret) >= LengthMin {
			pairs = append(pairs, secret, Redacted)
		}
	}
	if len(pairs) == 0 {
		return s
	}
	return strings.NewReplacer(pairs...).Replace(s)
}
