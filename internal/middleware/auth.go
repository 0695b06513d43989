package middleware

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"jobbridge_backend/internal/auth"
	"jobbridge_backend/internal/logger"
	"jobbridge_backend/internal/models"
	"jobbridge_backend/pkg/apperrors"
)

const (
	ContextUserID = "user_id"
	ContextRole   = "role"
)

// RequireAuth validates the Bearer token and stores the caller's
// identity in the gin context.
func RequireAuth(jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			abortWith(c, apperrors.NewUnauthorizedError("Missing or malformed Authorization header"))
			return
		}

		claims, err := auth.ParseToken(strings.TrimPrefix(header, "Bearer "), jwtSecret)
		if err != nil {
			abortWith(c, apperrors.NewUnauthorizedError("Invalid or expired token"))
			return
		}

		c.Set(ContextUserID, claims.UserID)
		c.Set(ContextRole, claims.Role)
		c.Next()
	}
}

// RequireRole gates a route group to the given roles. Must run after
// RequireAuth.
func RequireRole(roles ...models.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		value, exists := c.Get(ContextRole)
		if !exists {
			abortWith(c, apperrors.NewUnauthorizedError("Authentication required"))
			return
		}

		role, _ := value.(models.UserRole)
		for _, allowed := range roles {
			if role == allowed {
				c.Next()
				return
			}
		}
		abortWith(c, apperrors.NewForbiddenError("Insufficient permissions"))
	}
}

// UserID returns the authenticated user's id from the context.
func UserID(c *gin.Context) string {
	return c.GetString(ContextUserID)
}

func abortWith(c *gin.Context, appErr *apperrors.AppError) {
	c.AbortWithStatusJSON(appErr.HTTPCode, gin.H{"error": appErr})
}

// RequestLogger logs each handled request through the app logger.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.HTTPLog(c.Request.Method, c.Request.URL.Path,
			c.Writer.Status(), time.Since(start), c.Writer.Size())
	}
}
