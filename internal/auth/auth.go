// Package auth provides JWT-based authentication for the VPN management API.
// It implements token issuance and validation plus the gin middleware that
// guards the protected routes.
package auth

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// AuthManager handles bearer token issuance and validation. Tokens are
// HS256-signed JWTs carrying the user's identity claims.
type AuthManager struct {
	jwtSecret   string        // Secret key for JWT token signing and verification
	tokenExpiry time.Duration // Duration for which tokens remain valid
}

// Claims represents the JWT claims embedded in issued tokens.
type Claims struct {
	UserID   uint   `json:"user_id"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// NewAuthManager creates a new authentication manager with the default
// 24 hour token expiry.
func NewAuthManager(jwtSecret string) *AuthManager {
	return NewAuthManagerWithExpiry(jwtSecret, 24*time.Hour)
}

// NewAuthManagerWithExpiry creates a new authentication manager with a
// custom token expiry duration. Useful in tests that need expired tokens.
func NewAuthManagerWithExpiry(jwtSecret string, tokenExpiry time.Duration) *AuthManager {
	return &AuthManager{
		jwtSecret:   jwtSecret,
		tokenExpiry: tokenExpiry,
	}
}

// GenerateToken creates a signed JWT for the specified user.
// Returns the token string or an error if signing fails.
func (am *AuthManager) GenerateToken(userID uint, username string) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID:   userID,
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(am.tokenExpiry)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    "vpn-manager",
			Subject:   fmt.Sprintf("user-%d", userID),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(am.jwtSecret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenString, nil
}

// ValidateToken parses and validates a JWT token string, verifying the
// signature, signing method, and expiry.
// Returns the parsed claims if the token is valid.
func (am *AuthManager) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(am.jwtSecret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}

	return nil, fmt.Errorf("invalid token claims")
}

// TokenExpiry returns the configured token lifetime.
func (am *AuthManager) TokenExpiry() time.Duration {
	return am.tokenExpiry
}

// GenerateSecureSecret creates a cryptographically secure random secret for
// JWT signing: 32 bytes of entropy, base64-encoded.
func GenerateSecureSecret() (string, error) {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("failed to generate secure secret: %w", err)
	}
	return base64.URLEncoding.EncodeToString(bytes), nil
}
