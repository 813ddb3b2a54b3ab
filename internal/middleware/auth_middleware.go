package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/offthegrid/booking-backend/pkg/jwt"
)

const userContextKey = "user_context"

// UserContext is the authenticated identity attached to a request
type UserContext struct {
	UserID uuid.UUID
	Email  string
	Role   string
}

// AuthMiddleware validates the bearer token and attaches the user context.
// Requests without a valid token are rejected.
func AuthMiddleware(jwtSvc *jwt.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := parseBearer(c, jwtSvc)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":   "unauthorized",
				"message": "Missing or invalid authorization token",
			})
			c.Abort()
			return
		}

		c.Set(userContextKey, &UserContext{
			UserID: claims.UserID,
			Email:  claims.Email,
			Role:   claims.Role,
		})
		c.Next()
	}
}

// OptionalAuth attaches the user context when a valid token is present but
// lets anonymous requests through. Used on guest checkout routes.
func OptionalAuth(jwtSvc *jwt.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		if claims, ok := parseBearer(c, jwtSvc); ok {
			c.Set(userContextKey, &UserContext{
				UserID: claims.UserID,
				Email:  claims.Email,
				Role:   claims.Role,
			})
		}
		c.Next()
	}
}

func parseBearer(c *gin.Context, jwtSvc *jwt.Service) (*jwt.Claims, bool) {
	header := c.GetHeader("Authorization")
	if header == "" {
		return nil, false
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return nil, false
	}
	claims, err := jwtSvc.ValidateToken(strings.TrimSpace(parts[1]))
	if err != nil {
		return nil, false
	}
	return claims, true
}

// GetUserContext retrieves the user context set by AuthMiddleware or
// OptionalAuth
func GetUserContext(c *gin.Context) (*UserContext, bool) {
	value, exists := c.Get(userContextKey)
	if !exists {
		return nil, false
	}
	userCtx, ok := value.(*UserContext)
	return userCtx, ok
}

// OptionalUserID returns the authenticated user id, or nil for guests
func OptionalUserID(c *gin.Context) *uuid.UUID {
	userCtx, ok := GetUserContext(c)
	if !ok {
		return nil
	}
	id := userCtx.UserID
	return &id
}
