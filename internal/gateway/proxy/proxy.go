// Package proxy forwards authorized requests to the backend service that
// owns the request path. Routing is longest-prefix over a static table built
// from configuration at startup.
package proxy

import (
	"fmt"
	"net/http"
	"net/http/httputil"
	"net/url"
	"sort"
	"strings"

	"github.com/phrazzld/edge-gateway/internal/api/shared"
	"github.com/phrazzld/edge-gateway/internal/config"
	"github.com/phrazzld/edge-gateway/internal/platform/logger"
)

// route is one resolved prefix→backend mapping.
type route struct {
	prefix  string
	target  *url.URL
	handler *httputil.ReverseProxy
}

// Proxy is the terminal handler of the gateway chain.
type Proxy struct {
	// routes sorted by descending prefix length so the first match is the
	// longest one.
	routes []route
}

// New builds a Proxy from the configured routes.
func New(cfg config.ProxyConfig) (*Proxy, error) {
	routes := make([]route, 0, len(cfg.Routes))
	for i, rc := range cfg.Routes {
		target, err := url.Parse(rc.Target)
		if err != nil {
			return nil, fmt.Errorf("proxy route %d (%s): invalid target: %w", i, rc.Prefix, err)
		}
		if target.Scheme == "" || target.Host == "" {
			return nil, fmt.Errorf("proxy route %d (%s): target %q must be an absolute URL", i, rc.Prefix, rc.Target)
		}

		routes = append(routes, route{
			prefix:  rc.Prefix,
			target:  target,
			handler: newReverseProxy(target),
		})
	}

	sort.SliceStable(routes, func(i, j int) bool {
		return len(routes[i].prefix) > len(routes[j].prefix)
	})

	return &Proxy{routes: routes}, nil
}

// ServeHTTP forwards the request to the backend owning the longest matching
// prefix, or answers 404 when no backend owns the path.
func (p *Proxy) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	for _, rt := range p.routes {
		if strings.HasPrefix(r.URL.Path, rt.prefix) {
			rt.handler.ServeHTTP(w, r)
			return
		}
	}

	shared.RespondWithError(w, r, http.StatusNotFound,
		"Not found", "No backend service owns this path.")
}

func newReverseProxy(target *url.URL) *httputil.ReverseProxy {
	return &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			pr.SetURL(target)
			pr.Out.Host = target.Host
			// SetXForwarded is deliberately not called: the inbound
			// X-Forwarded-For is preserved as-is so backends see the same
			// chain the gateway's client-identity resolution saw.
		},
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			logger.FromContext(r.Context()).Error("backend request failed",
				"error", err,
				"path", r.URL.Path)
			shared.RespondWithError(w, r, http.StatusBadGateway,
				"Bad gateway", "The backend service is unavailable.")
		},
	}
}
