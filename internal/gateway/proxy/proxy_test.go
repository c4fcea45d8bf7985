package proxy_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/phrazzld/edge-gateway/internal/config"
	"github.com/phrazzld/edge-gateway/internal/gateway/proxy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProxyRoutesByLongestPrefix(t *testing.T) {
	t.Parallel()

	orders := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "orders")
	}))
	t.Cleanup(orders.Close)

	admin := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "admin")
	}))
	t.Cleanup(admin.Close)

	p, err := proxy.New(config.ProxyConfig{Routes: []config.ProxyRoute{
		{Prefix: "/api/", Target: orders.URL},
		{Prefix: "/api/admin/", Target: admin.URL},
	}})
	require.NoError(t, err)

	t.Run("longest prefix wins", func(t *testing.T) {
		rec := httptest.NewRecorder()
		p.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/admin/users", nil))

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "admin", rec.Body.String())
	})

	t.Run("general prefix", func(t *testing.T) {
		rec := httptest.NewRecorder()
		p.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/orders/7", nil))

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "orders", rec.Body.String())
	})

	t.Run("unrouted path is 404", func(t *testing.T) {
		rec := httptest.NewRecorder()
		p.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nowhere", nil))

		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Contains(t, rec.Body.String(), "Not found")
	})
}

func TestProxyForwardsHeaders(t *testing.T) {
	t.Parallel()

	var seen http.Header
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = r.Header.Clone()
	}))
	t.Cleanup(backend.Close)

	p, err := proxy.New(config.ProxyConfig{Routes: []config.ProxyRoute{
		{Prefix: "/", Target: backend.URL},
	}})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/orders", nil)
	req.Header.Set("X-Gateway-Request", "true")
	req.Header.Set("X-JWT-Subject", "user-42")

	rec := httptest.NewRecorder()
	p.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "true", seen.Get("X-Gateway-Request"))
	assert.Equal(t, "user-42", seen.Get("X-JWT-Subject"))
}

func TestProxyBackendFailure(t *testing.T) {
	t.Parallel()

	// A backend that is no longer listening.
	dead := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	deadURL := dead.URL
	dead.Close()

	p, err := proxy.New(config.ProxyConfig{Routes: []config.ProxyRoute{
		{Prefix: "/", Target: deadURL},
	}})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	p.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/orders", nil))

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Body.String(), "Bad gateway")
}

func TestProxyRejectsInvalidTargets(t *testing.T) {
	t.Parallel()

	_, err := proxy.New(config.ProxyConfig{Routes: []config.ProxyRoute{
		{Prefix: "/api/", Target: "not-a-url"},
	}})
	assert.Error(t, err)
}
