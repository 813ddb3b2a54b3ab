package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/offthegrid/booking-backend/internal/models"
)

// Capability names a protected operation. Route handlers never inspect
// roles directly; they declare the capability and this middleware decides.
type Capability string

const (
	CapManageOfferings Capability = "offerings:manage"
	CapManageSlots     Capability = "slots:manage"
	CapViewAuditLog    Capability = "audit:view"
	CapRecordPayment   Capability = "payments:record"
)

// capabilityRoles is the single place mapping capabilities to roles
var capabilityRoles = map[Capability][]string{
	CapManageOfferings: {models.RoleAdmin},
	CapManageSlots:     {models.RoleAdmin},
	CapViewAuditLog:    {models.RoleAdmin},
	CapRecordPayment:   {models.RoleAdmin},
}

// RequireCapability rejects requests whose authenticated role does not
// grant the capability. Must run after AuthMiddleware.
func RequireCapability(capability Capability) gin.HandlerFunc {
	return func(c *gin.Context) {
		userCtx, exists := GetUserContext(c)
		if !exists {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":   "unauthorized",
				"message": "Authentication required",
			})
			c.Abort()
			return
		}

		if !roleHasCapability(userCtx.Role, capability) {
			c.JSON(http.StatusForbidden, gin.H{
				"error":   "forbidden",
				"message": "You do not have permission to perform this action",
			})
			c.Abort()
			return
		}

		c.Next()
	}
}

func roleHasCapability(role string, capability Capability) bool {
	for _, allowed := range capabilityRoles[capability] {
		if role == allowed {
			return true
		}
	}
	return false
}
