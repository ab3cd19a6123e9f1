package integration

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lifecopilotAPI/middleware"
	"lifecopilotAPI/tests/helpers"
)

func protectedProbe() http.Handler {
	return middleware.ClerkAuthMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		clerkID, ok := middleware.GetClerkID(r.Context())
		if !ok {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(clerkID))
	}))
}

func TestClerkAuthMiddleware(t *testing.T) {
	handler := protectedProbe()

	t.Run("rejects a request with no authorization header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/logs", nil)
		rr := httptest.NewRecorder()

		handler.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		assert.Contains(t, rr.Body.String(), "Authorization header required")
	})

	t.Run("rejects a non-bearer authorization header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/logs", nil)
		req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
		rr := httptest.NewRecorder()

		handler.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("rejects a token not issued by Clerk", func(t *testing.T) {
		token, err := helpers.GenerateMockClerkJWT("user_test_unverifiable")
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/api/v1/logs", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rr := httptest.NewRecorder()

		handler.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})
}
