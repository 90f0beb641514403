package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupProtectedRouter(t *testing.T, am *AuthManager) *gin.Engine {
	t.Helper()

	gin.SetMode(gin.TestMode)
	router := gin.New()

	middleware := NewAuthMiddleware(am)
	router.GET("/protected", middleware.RequireAuth(), func(c *gin.Context) {
		userID, ok := GetUserID(c)
		require.True(t, ok)
		username, ok := GetUsername(c)
		require.True(t, ok)
		c.JSON(http.StatusOK, gin.H{"user_id": userID, "username": username})
	})

	return router
}

func TestAuthMiddleware_RequireAuth(t *testing.T) {
	am := NewAuthManager("test-secret")
	router := setupProtectedRouter(t, am)

	request := func(authHeader string) *httptest.ResponseRecorder {
		req := httptest.NewRequest("GET", "/protected", nil)
		if authHeader != "" {
			req.Header.Set("Authorization", authHeader)
		}
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)
		return resp
	}

	t.Run("should reject missing header", func(t *testing.T) {
		resp := request("")
		assert.Equal(t, http.StatusUnauthorized, resp.Code)
	})

	t.Run("should reject non-bearer header", func(t *testing.T) {
		resp := request("Basic dXNlcjpwYXNz")
		assert.Equal(t, http.StatusUnauthorized, resp.Code)
	})

	t.Run("should reject empty bearer token", func(t *testing.T) {
		resp := request("Bearer ")
		assert.Equal(t, http.StatusUnauthorized, resp.Code)
	})

	t.Run("should reject invalid token", func(t *testing.T) {
		resp := request("Bearer not-a-valid-token")
		assert.Equal(t, http.StatusUnauthorized, resp.Code)
	})

	t.Run("should reject expired token", func(t *testing.T) {
		expired := NewAuthManagerWithExpiry("test-secret", -time.Minute)
		token, err := expired.GenerateToken(1, "alice")
		require.NoError(t, err)

		resp := request("Bearer " + token)
		assert.Equal(t, http.StatusUnauthorized, resp.Code)
	})

	t.Run("should pass valid token and expose claims", func(t *testing.T) {
		token, err := am.GenerateToken(7, "alice")
		require.NoError(t, err)

		resp := request("Bearer " + token)
		assert.Equal(t, http.StatusOK, resp.Code)
		assert.Contains(t, resp.Body.String(), `"user_id":7`)
		assert.Contains(t, resp.Body.String(), `"username":"alice"`)
	})
}
