package middleware

import (
	"fmt"
	"net/http"

	"github.com/phrazzld/edge-gateway/internal/api/shared"
)

// RecoverMiddleware catches panics from downstream stages and maps them to a
// generic 500 JSON envelope instead of letting the connection die or a stack
// trace leak to the client.
func RecoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					// The proxy aborts the handler when the client goes away;
					// there is nothing left to respond to.
					panic(rec)
				}
				shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError,
					"Internal server error", "An unexpected error occurred.",
					fmt.Errorf("panic: %v", rec))
			}
		}()

		next.ServeHTTP(w, r)
	})
}
