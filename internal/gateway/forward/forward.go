// Package forward rewrites the outbound request sent to backend services,
// injecting the trusted identity headers and the gateway-origin marker.
// Backends behind the gateway authorize on these headers instead of
// re-validating the bearer token; that only holds if the marker is
// unforgeable, so any identity header arriving from the outside is stripped
// before the gateway's own values are set.
package forward

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/phrazzld/edge-gateway/internal/gateway/authctx"
)

// Headers injected into every request forwarded to a backend.
const (
	// HeaderGatewayRequest is the gateway-origin marker. Backends use it to
	// distinguish traffic that passed through the edge layer from direct
	// access, and must reject it when it arrives from outside the gateway
	// network boundary.
	HeaderGatewayRequest = "X-Gateway-Request"

	// GatewayRequestValue is the fixed truthy marker value.
	GatewayRequestValue = "true"

	HeaderSubject     = "X-JWT-Subject"
	HeaderUsername    = "X-JWT-Username"
	HeaderAccountID   = "X-JWT-Account-ID"
	HeaderAuthorities = "X-JWT-Authorities"
	HeaderRoles       = "X-User-Roles"
	HeaderPermissions = "X-User-Permissions"
)

// identityHeaders lists every header this package owns. They are cleared
// from inbound requests unconditionally so clients cannot smuggle identity
// claims past the gateway.
var identityHeaders = []string{
	HeaderGatewayRequest,
	HeaderSubject,
	HeaderUsername,
	HeaderAccountID,
	HeaderAuthorities,
	HeaderRoles,
	HeaderPermissions,
}

// Apply rewrites the given header set for forwarding to a backend.
//
// The gateway-origin marker is always set, authenticated or not. With an
// authentication context present, the identity headers are set from it;
// empty or absent fields are omitted entirely rather than sent as empty
// strings.
func Apply(h http.Header, ac *authctx.Context) {
	for _, name := range identityHeaders {
		h.Del(name)
	}

	h.Set(HeaderGatewayRequest, GatewayRequestValue)

	if ac == nil {
		return
	}

	setNonEmpty(h, HeaderSubject, ac.Subject)
	setNonEmpty(h, HeaderUsername, ac.Username)
	if ac.AccountID != nil {
		h.Set(HeaderAccountID, strconv.FormatInt(*ac.AccountID, 10))
	}
	setNonEmpty(h, HeaderAuthorities, strings.Join(ac.Authorities(), ","))
	setNonEmpty(h, HeaderRoles, strings.Join(ac.Roles, ","))
	setNonEmpty(h, HeaderPermissions, strings.Join(ac.Permissions, ","))
}

// Middleware returns the header-forwarding stage of the gateway chain. It
// must run after the authentication context is established and before
// authorization, so policy evaluation sees the same headers the backend
// will.
func Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ac, _ := authctx.FromContext(r.Context())
			Apply(r.Header, ac)
			next.ServeHTTP(w, r)
		})
	}
}

func setNonEmpty(h http.Header, name, value string) {
	if value != "" {
		h.Set(name, value)
	}
}
