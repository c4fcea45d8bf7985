package authctx_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/phrazzld/edge-gateway/internal/gateway/authctx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMiddleware(t *testing.T) {
	t.Parallel()

	e := newExtractor(t)

	var captured *authctx.Context
	var found bool
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured, found = authctx.FromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})
	handler := authctx.Middleware(e)(next)

	t.Run("authenticated request carries context", func(t *testing.T) {
		token := signToken(t, testSecret, jwt.MapClaims{"sub": "user-42", "roles": "ADMIN"})

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, requestWithToken(token))

		require.Equal(t, http.StatusOK, rec.Code)
		require.True(t, found)
		assert.Equal(t, "user-42", captured.Subject)
		assert.Equal(t, []string{"ADMIN"}, captured.Roles)
	})

	t.Run("anonymous request proceeds without context", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, requestWithToken(""))

		require.Equal(t, http.StatusOK, rec.Code)
		assert.False(t, found)
		assert.Nil(t, captured)
	})
}

func TestHasAuthority(t *testing.T) {
	t.Parallel()

	ac := &authctx.Context{
		Roles:       []string{"ADMIN"},
		Permissions: []string{"WRITE"},
	}

	assert.True(t, ac.HasAuthority("ADMIN"))
	assert.True(t, ac.HasAuthority("WRITE"))
	assert.False(t, ac.HasAuthority("SYSTEM"))

	var absent *authctx.Context
	assert.False(t, absent.HasAuthority("ADMIN"))
	assert.Empty(t, absent.Authorities())
}
