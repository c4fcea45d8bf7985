package policy

import (
	"crypto/subtle"
	"net/http"

	"github.com/phrazzld/edge-gateway/internal/api/shared"
	"github.com/phrazzld/edge-gateway/internal/gateway/authctx"
	"github.com/phrazzld/edge-gateway/internal/gateway/clientid"
	"github.com/phrazzld/edge-gateway/internal/gateway/forward"
	"github.com/phrazzld/edge-gateway/internal/platform/logger"
	"github.com/phrazzld/edge-gateway/internal/platform/metrics"
)

// HeaderAPIKey is the inbound header carrying the shared API-key secret.
const HeaderAPIKey = "X-API-Key"

// Engine evaluates the policy table against individual requests.
type Engine struct {
	table  *Table
	apiKey string
}

// NewEngine creates an Engine. An empty apiKey disables the API-key policies
// (they then deny unconditionally rather than matching an empty header).
func NewEngine(table *Table, apiKey string) *Engine {
	return &Engine{table: table, apiKey: apiKey}
}

// Authorize decides whether the request may proceed. It selects the one rule
// governing the request's method and path and evaluates its policy against
// the request's verified attributes: the gateway-origin marker, the API-key
// header, and the authentication context's authority set.
func (e *Engine) Authorize(r *http.Request) bool {
	rule, ok := e.table.Match(r.Method, r.URL.Path)
	if !ok {
		// Explicit deny-all fallthrough for unmatched routes.
		return false
	}
	return e.evaluate(rule.Policy, r)
}

// evaluate is the single exhaustive dispatch over the policy variants.
func (e *Engine) evaluate(p Policy, r *http.Request) bool {
	switch p.Kind {
	case PublicAccess:
		return true

	case RequireGatewayOrigin:
		return e.gatewayOrigin(r)

	case RequireAPIKey:
		return e.apiKeyMatches(r)

	case RequireAPIKeyOrGatewayOrigin:
		return e.apiKeyMatches(r) || e.gatewayOrigin(r)

	case RequireAllAuthorities:
		// An absent principal has the empty authority set; the check below
		// is then false for any non-empty authority list.
		ac, _ := authctx.FromContext(r.Context())
		for _, required := range p.Authorities {
			if !ac.HasAuthority(required) {
				return false
			}
		}
		return true

	default:
		return false
	}
}

func (e *Engine) gatewayOrigin(r *http.Request) bool {
	return r.Header.Get(forward.HeaderGatewayRequest) == forward.GatewayRequestValue
}

func (e *Engine) apiKeyMatches(r *http.Request) bool {
	if e.apiKey == "" {
		return false
	}
	presented := r.Header.Get(HeaderAPIKey)
	return subtle.ConstantTimeCompare([]byte(presented), []byte(e.apiKey)) == 1
}

// Middleware returns the authorization stage of the gateway chain. It runs
// last before the proxy, after the forwarding stage has populated the
// request's identity headers. Denials are logged with the client identity
// and path for audit, but the response never discloses which requirement
// failed.
func Middleware(e *Engine) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !e.Authorize(r) {
				metrics.AuthzDeniedTotal.Inc()
				logger.FromContext(r.Context()).Warn("request denied by route policy",
					"client_id", clientid.FromRequest(r),
					"path", r.URL.Path,
					"method", r.Method)

				shared.RespondWithError(w, r, http.StatusForbidden,
					"Forbidden", "Access denied.")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
