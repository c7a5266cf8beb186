// middleware/jwt_middleware.go
package middleware

import (
	"errors"
	"log"
	"os"
	"sync"
	"time"

	"github.com/golang-jwt/jwt"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// Token lifetimes.
const (
	tokenTTL        = 24 * time.Hour
	refreshTokenTTL = 7 * 24 * time.Hour
)

// JwtCustomClaims for JWT token
type JwtCustomClaims struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	jwt.StandardClaims
}

// Valid implements the Claims interface for Echo's JWT middleware
func (c JwtCustomClaims) Valid() error {
	if c.ExpiresAt > 0 && time.Now().Unix() > c.ExpiresAt {
		return errors.New("token is expired")
	}
	if c.NotBefore > 0 && time.Now().Unix() < c.NotBefore {
		return errors.New("token used before valid")
	}
	return nil
}

var (
	blacklistMu    sync.RWMutex
	tokenBlacklist = make(map[string]time.Time)
)

// CleanupBlacklist periodically removes expired tokens from blacklist
func CleanupBlacklist() {
	for {
		time.Sleep(1 * time.Hour)
		now := time.Now()
		blacklistMu.Lock()
		for token, expiry := range tokenBlacklist {
			if now.After(expiry) {
				delete(tokenBlacklist, token)
			}
		}
		blacklistMu.Unlock()
	}
}

// BlacklistToken adds a token to the blacklist
func BlacklistToken(token string, expiry time.Time) {
	blacklistMu.Lock()
	defer blacklistMu.Unlock()
	tokenBlacklist[token] = expiry
}

// IsTokenBlacklisted checks if a token is blacklisted
func IsTokenBlacklisted(token string) bool {
	blacklistMu.RLock()
	defer blacklistMu.RUnlock()
	_, exists := tokenBlacklist[token]
	return exists
}

// GetJWTSecret returns the JWT secret from environment variables
func GetJWTSecret() string {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		panic("JWT_SECRET environment variable is required")
	}
	return secret
}

// JWTMiddleware returns a configured JWT middleware
func JWTMiddleware() echo.MiddlewareFunc {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		log.Printf("Warning: JWT_SECRET environment variable is not set")
		return func(next echo.HandlerFunc) echo.HandlerFunc {
			return func(c echo.Context) error {
				return echo.NewHTTPError(echo.ErrUnauthorized.Code, "JWT configuration error")
			}
		}
	}

	return middleware.JWTWithConfig(middleware.JWTConfig{
		SigningKey: []byte(secret),
		Claims:     &JwtCustomClaims{},
		SuccessHandler: func(c echo.Context) {
			user := c.Get("user").(*jwt.Token)

			if IsTokenBlacklisted(user.Raw) {
				c.Error(echo.NewHTTPError(echo.ErrUnauthorized.Code, "Token has been invalidated"))
				return
			}

			claims := user.Claims.(*JwtCustomClaims)
			c.Set("userId", claims.UserID)
			c.Set("role", claims.Role)
			c.Set("email", claims.Email)
		},
		ErrorHandler: func(err error) error {
			log.Printf("JWT middleware error: %v", err)
			return echo.NewHTTPError(echo.ErrUnauthorized.Code, "Please provide valid credentials")
		},
	})
}

// GenerateJWT generates a new JWT token together with a refresh token
func GenerateJWT(userID, email, role string) (string, string, error) {
	now := time.Now()

	claims := &JwtCustomClaims{
		UserID: userID,
		Email:  email,
		Role:   role,
		StandardClaims: jwt.StandardClaims{
			ExpiresAt: now.Add(tokenTTL).Unix(),
			IssuedAt:  now.Unix(),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	refreshClaims := &JwtCustomClaims{
		UserID: userID,
		Email:  email,
		Role:   role,
		StandardClaims: jwt.StandardClaims{
			ExpiresAt: now.Add(refreshTokenTTL).Unix(),
			IssuedAt:  now.Unix(),
		},
	}
	refreshToken := jwt.NewWithClaims(jwt.SigningMethodHS256, refreshClaims)

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		return "", "", errors.New("JWT_SECRET environment variable is required")
	}

	tokenString, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", "", err
	}

	refreshTokenString, err := refreshToken.SignedString([]byte(secret))
	if err != nil {
		return "", "", err
	}

	return tokenString, refreshTokenString, nil
}

// GetUserFromToken extracts user information from JWT token
func GetUserFromToken(c echo.Context) *JwtCustomClaims {
	user := c.Get("user")
	if user == nil {
		return nil
	}

	token, ok := user.(*jwt.Token)
	if !ok {
		return nil
	}

	claims, ok := token.Claims.(*JwtCustomClaims)
	if !ok {
		return nil
	}

	return claims
}

// GetUserIDFromToken returns the authenticated user's id, or "" when the
// request carries no valid token.
func GetUserIDFromToken(c echo.Context) string {
	if userID, ok := c.Get("userId").(string); ok && userID != "" {
		return userID
	}

	claims := GetUserFromToken(c)
	if claims != nil {
		return claims.UserID
	}

	return ""
}

// ExtractRole safely extracts the user role from the context
func ExtractRole(c echo.Context) string {
	if role, ok := c.Get("role").(string); ok && role != "" {
		return role
	}

	claims := GetUserFromToken(c)
	if claims != nil {
		return claims.Role
	}

	return ""
}
