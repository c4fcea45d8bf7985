// Package policy evaluates route-level authorization policies. Each route is
// bound to exactly one policy from a closed set of variants; a request whose
// route matches no configured policy is denied. The engine fails closed in
// every ambiguous case.
package policy

import (
	"fmt"
)

// Kind identifies one of the closed set of policy variants.
type Kind int

const (
	// PublicAccess always allows.
	PublicAccess Kind = iota
	// RequireGatewayOrigin allows iff the gateway-origin marker header
	// carries its fixed truthy value.
	RequireGatewayOrigin
	// RequireAPIKey allows iff the API-key header equals the configured
	// shared secret.
	RequireAPIKey
	// RequireAPIKeyOrGatewayOrigin allows iff either of the above holds.
	RequireAPIKeyOrGatewayOrigin
	// RequireAllAuthorities allows iff every listed authority is present in
	// the principal's granted-authority set. An absent principal has the
	// empty authority set and is therefore denied for any non-empty list.
	RequireAllAuthorities
)

// String returns the configuration spelling of the kind.
func (k Kind) String() string {
	switch k {
	case PublicAccess:
		return "public"
	case RequireGatewayOrigin:
		return "gateway_origin"
	case RequireAPIKey:
		return "api_key"
	case RequireAPIKeyOrGatewayOrigin:
		return "api_key_or_gateway_origin"
	case RequireAllAuthorities:
		return "all_authorities"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// KindFromString parses the configuration spelling of a policy kind.
func KindFromString(s string) (Kind, error) {
	switch s {
	case "public":
		return PublicAccess, nil
	case "gateway_origin":
		return RequireGatewayOrigin, nil
	case "api_key":
		return RequireAPIKey, nil
	case "api_key_or_gateway_origin":
		return RequireAPIKeyOrGatewayOrigin, nil
	case "all_authorities":
		return RequireAllAuthorities, nil
	default:
		return 0, fmt.Errorf("unknown policy kind %q", s)
	}
}

// Policy is one tagged variant. Authorities is only consulted for
// RequireAllAuthorities.
type Policy struct {
	Kind        Kind
	Authorities []string
}

// Rule binds a path pattern and HTTP method to a policy.
//
// Pattern is either an exact path or a prefix pattern ending in "/*" or
// "/**", which matches the prefix before the wildcard plus any deeper path.
// Method is a specific HTTP method, or empty / "*" for all methods.
type Rule struct {
	Pattern string
	Method  string
	Policy  Policy
}
