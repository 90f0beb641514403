// Package api provides the REST endpoints of the VPN management surface:
// authentication, client management, and status reporting, implemented as
// Gin handlers over the database and control-plane seams.
package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"vpn-manager/internal/auth"
	"vpn-manager/internal/database"
)

// AuthAPI provides the login endpoint that exchanges credentials for a
// bearer token.
type AuthAPI struct {
	db          *database.Database
	authManager *auth.AuthManager
	logger      zerolog.Logger
}

// LoginRequest is the credentials body for the login endpoint.
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse carries the issued token and the authenticated user's
// public fields.
type LoginResponse struct {
	AccessToken string   `json:"access_token"`
	User        UserInfo `json:"user"`
}

// UserInfo is the user representation returned on login.
type UserInfo struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	IsAdmin  bool   `json:"is_admin"`
}

// NewAuthAPI creates a new authentication API instance.
func NewAuthAPI(db *database.Database, authManager *auth.AuthManager, logger zerolog.Logger) *AuthAPI {
	return &AuthAPI{
		db:          db,
		authManager: authManager,
		logger:      logger,
	}
}

// RegisterRoutes registers the authentication routes. Login is the one
// /api route that requires no bearer token.
func (api *AuthAPI) RegisterRoutes(router *gin.Engine) {
	router.POST("/api/auth/login", api.Login)
}

// Login authenticates a user and issues a bearer token valid for the
// configured expiry. Failed attempts receive a single generic message
// regardless of whether the username exists.
func (api *AuthAPI) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Username and password required"})
		return
	}

	user, err := api.db.AuthenticateUser(req.Username, req.Password)
	if err != nil {
		if errors.Is(err, database.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Invalid credentials"})
			return
		}
		api.logger.Error().Err(err).Msg("authentication lookup failed")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to authenticate user"})
		return
	}

	token, err := api.authManager.GenerateToken(user.ID, user.Username)
	if err != nil {
		api.logger.Error().Err(err).Msg("token generation failed")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to generate token"})
		return
	}

	c.JSON(http.StatusOK, LoginResponse{
		AccessToken: token,
		User: UserInfo{
			ID:       user.ID,
			Username: user.Username,
			Email:    user.Email,
			IsAdmin:  user.IsAdmin,
		},
	})
}
