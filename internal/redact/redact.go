// Package redact provides utilities for redacting sensitive information from
// strings before they are logged. This prevents the accidental leakage of
// bearer tokens, API keys, and signing secrets that might be embedded in
// error messages or header dumps.
package redact

import (
	"regexp"
)

// Constants for redaction placeholders
const (
	RedactionPlaceholder          = "[REDACTED]"
	RedactedCredentialPlaceholder = "[REDACTED_CREDENTIAL]"
)

// Precompiled regex patterns
var (
	// JWT token pattern - matches the standard three-part base64url-encoded
	// JWT token format
	jwtTokenRegex = regexp.MustCompile(`eyJ[a-zA-Z0-9_-]+\.eyJ[a-zA-Z0-9_-]+\.[a-zA-Z0-9_-]+`)

	// Bearer credentials in header values or error text
	bearerRegex = regexp.MustCompile(`(?i)bearer\s+[A-Za-z0-9_\-.~+/=]+`)

	// API keys, secrets, and similar credential-bearing key/value fragments
	apiKeyRegex = regexp.MustCompile(
		`(?i)(api[_-]?key|token|secret|key|auth)(['"\s:=]+)[A-Za-z0-9_\-.~+/]{8,}`,
	)
)

// String redacts sensitive values from the given string.
func String(s string) string {
	if s == "" {
		return s
	}

	s = jwtTokenRegex.ReplaceAllString(s, RedactionPlaceholder)
	s = bearerRegex.ReplaceAllString(s, RedactedCredentialPlaceholder)
	s = apiKeyRegex.ReplaceAllString(s, "${1}${2}"+RedactedCredentialPlaceholder)

	return s
}

// Error redacts sensitive values from an error's message.
// Returns an empty string for a nil error.
func Error(err error) string {
	if err == nil {
		return ""
	}
	return String(err.Error())
}
