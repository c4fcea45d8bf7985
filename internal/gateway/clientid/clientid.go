// Package clientid derives a stable per-request client identifier from proxy
// headers and connection info. The identifier partitions rate-limit state; it
// is a best-effort heuristic and never blocks or fails a request.
package clientid

import (
	"net"
	"net/http"
	"strings"
)

// Unknown is returned when no usable client address can be derived.
const Unknown = "unknown"

// Header names consulted when resolving the client identity.
const (
	headerForwardedFor = "X-Forwarded-For"
	headerRealIP       = "X-Real-IP"
)

// FromRequest resolves the client identity for the given request.
//
// Priority order, first non-empty wins:
//  1. The first comma-separated value of X-Forwarded-For, trimmed.
//  2. X-Real-IP, if present and non-empty.
//  3. The transport-level peer address (without port).
//  4. The literal "unknown".
func FromRequest(r *http.Request) string {
	if forwarded := r.Header.Get(headerForwardedFor); forwarded != "" {
		// The leftmost entry is the originating client; later entries are
		// intermediate proxies.
		first, _, _ := strings.Cut(forwarded, ",")
		if first = strings.TrimSpace(first); first != "" {
			return first
		}
	}

	if realIP := strings.TrimSpace(r.Header.Get(headerRealIP)); realIP != "" {
		return realIP
	}

	if r.RemoteAddr != "" {
		host, _, err := net.SplitHostPort(r.RemoteAddr)
		if err == nil && host != "" {
			return host
		}
		// RemoteAddr without a port (as some tests and proxies set it)
		return r.RemoteAddr
	}

	return Unknown
}
