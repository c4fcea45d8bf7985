package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/phrazzld/edge-gateway/internal/api/middleware"
	"github.com/phrazzld/edge-gateway/internal/api/shared"
	"github.com/phrazzld/edge-gateway/internal/gateway/authctx"
	"github.com/phrazzld/edge-gateway/internal/gateway/forward"
	"github.com/phrazzld/edge-gateway/internal/gateway/policy"
	"github.com/phrazzld/edge-gateway/internal/gateway/ratelimit"
	"github.com/phrazzld/edge-gateway/internal/platform/metrics"
)

// newRouter assembles the gateway's middleware chain. The edge stages run in
// a fixed order: rate limiting precedes authentication so that over-quota
// clients cost no token-validation work, and authorization runs after header
// forwarding so it sees the same headers the backend will receive.
func newRouter(
	limiter *ratelimit.Limiter,
	extractor *authctx.Extractor,
	engine *policy.Engine,
	backend http.Handler,
) chi.Router {
	router := chi.NewRouter()
	router.Use(chimiddleware.RequestID)
	router.Use(middleware.TraceMiddleware)
	router.Use(middleware.RecoverMiddleware)
	router.Use(metrics.Middleware)

	// Endpoints the gateway answers itself, outside the edge chain.
	router.Get("/actuator/health", healthHandler)
	router.Method(http.MethodGet, "/metrics", metrics.Handler())

	// Everything else runs the full edge chain and ends at the proxy.
	router.Group(func(r chi.Router) {
		r.Use(ratelimit.Middleware(limiter))
		r.Use(authctx.Middleware(extractor))
		r.Use(forward.Middleware())
		r.Use(policy.Middleware(engine))
		r.Handle("/*", backend)
	})

	return router
}

// healthHandler reports gateway liveness.
func healthHandler(w http.ResponseWriter, r *http.Request) {
	shared.RespondWithJSON(w, r, http.StatusOK, map[string]string{"status": "UP"})
}
