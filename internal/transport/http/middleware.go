package http

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/chatlink/chatlink-server/internal/auth"
)

const (
	// ContextKeyUserID is the context key for storing user ID.
	ContextKeyUserID = "user_id"
	// ContextKeyUsername is the context key for storing username.
	ContextKeyUsername = "username"
	// ContextKeyIsGuest is the context key for storing guest status.
	ContextKeyIsGuest = "is_guest"
)

// bearerToken extracts the token from an "Authorization: Bearer <token>"
// header.
func bearerToken(c *gin.Context) (string, bool) {
	header := c.GetHeader("Authorization")
	if header == "" {
		return "", false
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

// currentUserID returns the authenticated user's id. On failure it writes the
// error response and aborts the request.
func currentUserID(c *gin.Context) (int64, bool) {
	v, exists := c.Get(ContextKeyUserID)
	if !exists {
		c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return 0, false
	}
	id, ok := v.(int64)
	if !ok {
		c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return 0, false
	}
	return id, true
}

// pathID parses a positive integer path parameter. On failure it writes a 400
// response and aborts the request.
func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, ErrorResponse{Error: "invalid " + name})
		return 0, false
	}
	return id, true
}

// AuthMiddleware validates the bearer token and stores the claims on the
// request context.
func AuthMiddleware(authService *auth.Service, logger *zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			logger.Debug().Msg("missing or malformed authorization header")
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: "missing or malformed authorization header"})
			return
		}

		claims, err := authService.ValidateToken(token)
		if err != nil {
			logger.Debug().Err(err).Msg("invalid token")
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: "invalid token"})
			return
		}

		c.Set(ContextKeyUserID, claims.UserID)
		c.Set(ContextKeyUsername, claims.Username)
		c.Set(ContextKeyIsGuest, claims.IsGuest)

		c.Next()
	}
}

// RequireRegistered rejects guest accounts. Runs after AuthMiddleware.
func RequireRegistered(logger *zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetBool(ContextKeyIsGuest) {
			logger.Debug().Str("path", c.Request.URL.Path).Msg("guest blocked from registered-only endpoint")
			c.AbortWithStatusJSON(http.StatusForbidden, ErrorResponse{Error: "guest accounts cannot use this endpoint"})
			return
		}
		c.Next()
	}
}

// LoggerMiddleware logs each HTTP request after it completes.
func LoggerMiddleware(logger *zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("latency", time.Since(start)).
			Str("client_ip", c.ClientIP()).
			Msg("http request")
	}
}
