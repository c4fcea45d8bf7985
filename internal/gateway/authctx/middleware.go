package authctx

import (
	"net/http"
)

// Middleware returns the authentication stage of the gateway chain. It runs
// after rate limiting (so over-quota clients never cost token validation)
// and before header forwarding and authorization (which both consume the
// context it establishes). It never short-circuits: anonymous requests
// proceed and the route policy decides their fate.
func Middleware(e *Extractor) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if ac := e.Extract(r); ac != nil {
				r = r.WithContext(NewContext(r.Context(), ac))
			}
			next.ServeHTTP(w, r)
		})
	}
}
