package controllers

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/golang-jwt/jwt"
	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"

	"github.com/sistema-zara/zara-backend/middleware"
	"github.com/sistema-zara/zara-backend/models"
	"github.com/sistema-zara/zara-backend/repositories"
	"github.com/sistema-zara/zara-backend/utils"
)

const rememberMeDuration = 30 * 24 * time.Hour

// AuthController contains authentication logic
type AuthController struct {
	DB    *mongo.Client
	users repositories.UserStore
	redis *redis.Client
}

// NewAuthController creates a new auth controller. The Redis client may be
// nil, in which case "Remember Me" is disabled.
func NewAuthController(db *mongo.Client, users repositories.UserStore, redisClient *redis.Client) *AuthController {
	ac := &AuthController{
		DB:    db,
		users: users,
		redis: redisClient,
	}

	go ac.startRememberMeCleanupRoutine()

	return ac
}

func (ac *AuthController) startRememberMeCleanupRoutine() {
	for {
		time.Sleep(6 * time.Hour)
		if err := utils.CleanupExpiredRememberMeTokens(ac.redis); err != nil {
			log.Printf("Error cleaning up remember me tokens: %v", err)
		}
	}
}

// Login authenticates a user by email and password and issues JWT tokens
func (ac *AuthController) Login(c echo.Context) error {
	var req models.LoginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request body",
		})
	}

	email, err := utils.SanitizeEmail(req.Email)
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid email format",
		})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	user, err := ac.users.FindByEmail(ctx, email)
	if err != nil {
		log.Printf("Error finding user by email: %v", err)
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to process login",
		})
	}
	if user == nil || !user.IsActive {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Invalid credentials",
		})
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Invalid credentials",
		})
	}

	token, refreshToken, err := middleware.GenerateJWT(user.ID.Hex(), user.Email, user.Role)
	if err != nil {
		log.Printf("Error generating JWT: %v", err)
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to generate token",
		})
	}

	if err := ac.users.UpdateLastActivity(ctx, user.ID); err != nil {
		log.Printf("Error updating last activity for %s: %v", user.Email, err)
	}

	resp := models.LoginResponse{
		Token:        token,
		RefreshToken: refreshToken,
		User:         *user,
	}
	resp.User.Password = ""

	if req.RememberMe && ac.redis != nil {
		rememberToken, err := utils.GenerateRememberMeToken()
		if err == nil {
			err = utils.StoreRememberedCredentials(ac.redis, rememberToken, utils.RememberedCredentials{
				Email:      user.Email,
				Role:       user.Role,
				UserID:     user.ID.Hex(),
				ExpiresAt:  time.Now().Add(rememberMeDuration),
				DeviceInfo: c.Request().UserAgent(),
			}, rememberMeDuration)
		}
		if err != nil {
			log.Printf("Error storing remember me credentials: %v", err)
		} else {
			resp.RememberMeToken = rememberToken
		}
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Login successful",
		Data:    resp,
	})
}

// LoginWithRememberMe exchanges a remember-me token for fresh JWT tokens
func (ac *AuthController) LoginWithRememberMe(c echo.Context) error {
	var req struct {
		Token string `json:"token"`
	}
	if err := c.Bind(&req); err != nil || req.Token == "" {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request body",
		})
	}

	credentials, err := utils.RetrieveRememberedCredentials(ac.redis, req.Token)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Invalid or expired remember me token",
		})
	}

	userID, err := primitive.ObjectIDFromHex(credentials.UserID)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Invalid remember me token",
		})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	user, err := ac.users.FindByID(ctx, userID)
	if err != nil {
		log.Printf("Error finding user for remember me login: %v", err)
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to process login",
		})
	}
	if user == nil || !user.IsActive {
		utils.RemoveRememberedCredentials(ac.redis, req.Token)
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Invalid credentials",
		})
	}

	token, refreshToken, err := middleware.GenerateJWT(user.ID.Hex(), user.Email, user.Role)
	if err != nil {
		log.Printf("Error generating JWT: %v", err)
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to generate token",
		})
	}

	if err := ac.users.UpdateLastActivity(ctx, user.ID); err != nil {
		log.Printf("Error updating last activity for %s: %v", user.Email, err)
	}

	resp := models.LoginResponse{
		Token:        token,
		RefreshToken: refreshToken,
		User:         *user,
	}
	resp.User.Password = ""

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Login successful",
		Data:    resp,
	})
}

// Logout blacklists the current token and removes any remember-me session
func (ac *AuthController) Logout(c echo.Context) error {
	authHeader := c.Request().Header.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		expiry := time.Now().Add(24 * time.Hour)
		if claims := middleware.GetUserFromToken(c); claims != nil && claims.ExpiresAt > 0 {
			expiry = time.Unix(claims.ExpiresAt, 0)
		}
		middleware.BlacklistToken(tokenString, expiry)
	}

	var req struct {
		RememberMeToken string `json:"rememberMeToken"`
	}
	if err := c.Bind(&req); err == nil && req.RememberMeToken != "" && ac.redis != nil {
		if err := utils.RemoveRememberedCredentials(ac.redis, req.RememberMeToken); err != nil {
			log.Printf("Error removing remember me credentials: %v", err)
		}
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Logged out successfully",
	})
}

// GetCurrentUser returns the authenticated user's profile
func (ac *AuthController) GetCurrentUser(c echo.Context) error {
	claims := middleware.GetUserFromToken(c)
	if claims == nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Unauthorized",
		})
	}

	userID, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid user ID",
		})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	user, err := ac.users.FindByID(ctx, userID)
	if err != nil {
		log.Printf("Error finding user: %v", err)
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to retrieve user",
		})
	}
	if user == nil {
		return c.JSON(http.StatusNotFound, models.Response{
			Status:  http.StatusNotFound,
			Message: "User not found",
		})
	}

	user.Password = ""
	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "User retrieved successfully",
		Data:    user,
	})
}

// ValidateSession lets the frontend check whether its token is still valid
func (ac *AuthController) ValidateSession(c echo.Context) error {
	result, err := utils.ValidateTokenFromHeader(c.Request().Header.Get("Authorization"), ac.DB)
	if err != nil {
		log.Printf("Error validating token: %v", err)
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to validate token",
		})
	}

	status := http.StatusOK
	if !result.Valid {
		status = http.StatusUnauthorized
	}
	return c.JSON(status, models.Response{
		Status:  status,
		Message: result.Message,
		Data:    result,
	})
}

// RefreshToken issues a new token pair from a valid refresh token
func (ac *AuthController) RefreshToken(c echo.Context) error {
	var req struct {
		RefreshToken string `json:"refreshToken"`
	}
	if err := c.Bind(&req); err != nil || req.RefreshToken == "" {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request body",
		})
	}

	if middleware.IsTokenBlacklisted(req.RefreshToken) {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Token has been revoked",
		})
	}

	token, err := jwt.ParseWithClaims(req.RefreshToken, &middleware.JwtCustomClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, echo.ErrUnauthorized
		}
		return []byte(middleware.GetJWTSecret()), nil
	})
	if err != nil || !token.Valid {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Invalid refresh token",
		})
	}

	claims, ok := token.Claims.(*middleware.JwtCustomClaims)
	if !ok {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Invalid token claims",
		})
	}

	userID, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Invalid user ID",
		})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	user, err := ac.users.FindByID(ctx, userID)
	if err != nil {
		log.Printf("Error finding user for token refresh: %v", err)
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to refresh token",
		})
	}
	if user == nil || !user.IsActive {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Invalid credentials",
		})
	}

	newToken, newRefreshToken, err := middleware.GenerateJWT(user.ID.Hex(), user.Email, user.Role)
	if err != nil {
		log.Printf("Error generating JWT: %v", err)
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to generate token",
		})
	}

	// The old refresh token is single-use
	middleware.BlacklistToken(req.RefreshToken, time.Unix(claims.ExpiresAt, 0))

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Token refreshed successfully",
		Data: map[string]string{
			"token":        newToken,
			"refreshToken": newRefreshToken,
		},
	})
}
