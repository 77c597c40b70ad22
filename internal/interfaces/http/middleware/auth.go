package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"smartcontract-gateway.backend/internal/interfaces/http/response"
	"smartcontract-gateway.backend/pkg/jwt"
	"smartcontract-gateway.backend/pkg/logger"
)

const (
	// AuthorizationHeader is the header key for authorization
	AuthorizationHeader = "Authorization"
	// BearerPrefix is the prefix for bearer tokens
	BearerPrefix = "Bearer "
	// SubjectKey is the context key for the token subject
	SubjectKey = "subject"
	// RoleKey is the context key for the token role
	RoleKey = "role"

	RoleAdmin = "admin"
)

// AuthMiddleware creates a new authentication middleware
func AuthMiddleware(jwtService *jwt.JWTService) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader(AuthorizationHeader)
		if authHeader == "" {
			logger.Warn(c.Request.Context(), "Authorization header is missing", zap.String("path", c.Request.URL.Path))
			response.ErrorWithError(c, http.StatusUnauthorized, "ERR_UNAUTHORIZED", "Authorization header is required")
			return
		}

		if !strings.HasPrefix(authHeader, BearerPrefix) {
			response.ErrorWithError(c, http.StatusUnauthorized, "ERR_UNAUTHORIZED", "Invalid authorization format. Use: Bearer <token>")
			return
		}

		claims, err := jwtService.ValidateToken(strings.TrimPrefix(authHeader, BearerPrefix))
		if err != nil {
			logger.Warn(c.Request.Context(), "Token rejected", zap.String("path", c.Request.URL.Path), zap.Error(err))
			if errors.Is(err, jwt.ErrExpiredToken) {
				response.ErrorWithError(c, http.StatusUnauthorized, "ERR_TOKEN_EXPIRED", "Token has expired")
				return
			}
			response.ErrorWithError(c, http.StatusUnauthorized, "ERR_UNAUTHORIZED", "Invalid token")
			return
		}

		c.Set(SubjectKey, claims.Subject)
		c.Set(RoleKey, claims.Role)

		c.Next()
	}
}

// GetSubject gets the token subject from context
func GetSubject(c *gin.Context) (string, bool) {
	subject := c.GetString(SubjectKey)
	return subject, subject != ""
}

// RequireRole creates a middleware that requires one of roles
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.GetString(RoleKey)
		if role == "" {
			response.ErrorWithError(c, http.StatusUnauthorized, "ERR_UNAUTHORIZED", "User role not found")
			return
		}

		for _, allowed := range roles {
			if role == allowed {
				c.Next()
				return
			}
		}

		response.ErrorWithError(c, http.StatusForbidden, "ERR_FORBIDDEN", "Insufficient permissions")
	}
}

// RequireAdmin creates a middleware that requires admin role
func RequireAdmin() gin.HandlerFunc {
	return RequireRole(RoleAdmin)
}
