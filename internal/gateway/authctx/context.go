// Package authctx validates the bearer credential on an inbound request and
// exposes the authenticated subject, roles, and permissions to the rest of
// the gateway chain. Extraction is deliberately lenient: a missing or
// malformed credential makes the request anonymous, never an error, because
// downstream route policies decide whether anonymity is acceptable.
package authctx

import (
	"context"
	"sort"
)

// Context is the immutable per-request authentication context derived from a
// validated bearer credential.
type Context struct {
	// Subject is the token's subject claim.
	Subject string
	// Username is the optional username claim.
	Username string
	// AccountID is the optional numeric account claim; nil when absent or
	// unparseable.
	AccountID *int64
	// Roles granted to the principal, deduplicated and sorted.
	Roles []string
	// Permissions granted to the principal, deduplicated and sorted.
	Permissions []string
}

// Authorities returns the principal's full granted-authority set: the union
// of roles and permissions, deduplicated and sorted. Authorization policies
// and the forwarded authorities header are both built from this set.
func (c *Context) Authorities() []string {
	if c == nil {
		return nil
	}

	seen := make(map[string]struct{}, len(c.Roles)+len(c.Permissions))
	authorities := make([]string, 0, len(c.Roles)+len(c.Permissions))
	for _, lists := range [][]string{c.Roles, c.Permissions} {
		for _, a := range lists {
			if _, dup := seen[a]; dup || a == "" {
				continue
			}
			seen[a] = struct{}{}
			authorities = append(authorities, a)
		}
	}
	sort.Strings(authorities)
	return authorities
}

// HasAuthority reports whether the principal holds the given authority.
func (c *Context) HasAuthority(authority string) bool {
	if c == nil {
		return false
	}
	for _, a := range c.Roles {
		if a == authority {
			return true
		}
	}
	for _, a := range c.Permissions {
		if a == authority {
			return true
		}
	}
	return false
}

// ctxKey is the private context key type for the authentication context.
type ctxKey struct{}

var authContextKey = ctxKey{}

// NewContext returns a context carrying the given authentication context.
func NewContext(ctx context.Context, ac *Context) context.Context {
	return context.WithValue(ctx, authContextKey, ac)
}

// FromContext retrieves the authentication context for the current request.
// The second return value is false for anonymous requests.
func FromContext(ctx context.Context) (*Context, bool) {
	ac, ok := ctx.Value(authContextKey).(*Context)
	return ac, ok && ac != nil
}
