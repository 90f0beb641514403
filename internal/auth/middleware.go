package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// AuthMiddleware provides HTTP middleware that validates bearer tokens and
// attaches the authenticated user's claims to the request context.
type AuthMiddleware struct {
	authManager *AuthManager
}

// ErrorResponse represents an authentication error response body.
type ErrorResponse struct {
	Error string `json:"error"`
}

// NewAuthMiddleware creates a new authentication middleware instance backed
// by the given AuthManager.
func NewAuthMiddleware(authManager *AuthManager) *AuthMiddleware {
	return &AuthMiddleware{
		authManager: authManager,
	}
}

// RequireAuth returns a middleware that rejects requests without a valid
// bearer token. On success the user's claims are stored in the gin context
// for handlers to read via GetUserID / GetUsername.
func (am *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Authorization header is required"})
			c.Abort()
			return
		}

		if !strings.HasPrefix(authHeader, "Bearer ") {
			c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Authorization header must start with 'Bearer '"})
			c.Abort()
			return
		}

		token := strings.TrimPrefix(authHeader, "Bearer ")
		if token == "" {
			c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Bearer token is required"})
			c.Abort()
			return
		}

		claims, err := am.authManager.ValidateToken(token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Invalid or expired token"})
			c.Abort()
			return
		}

		c.Set("user_id", claims.UserID)
		c.Set("username", claims.Username)

		c.Next()
	}
}

// GetUserID extracts the authenticated user's ID from the gin context.
// It should be called after RequireAuth has run.
// Returns the user ID and a boolean indicating if it was found.
func GetUserID(c *gin.Context) (uint, bool) {
	userID, exists := c.Get("user_id")
	if !exists {
		return 0, false
	}

	id, ok := userID.(uint)
	return id, ok
}

// GetUsername extracts the authenticated username from the gin context.
// It should be called after RequireAuth has run.
// Returns the username and a boolean indicating if it was found.
func GetUsername(c *gin.Context) (string, bool) {
	username, exists := c.Get("username")
	if !exists {
		return "", false
	}

	name, ok := username.(string)
	return name, ok
}
