package middleware

import (
	"bookcourier/internal/access" // Capability table
	"bookcourier/internal/domain" // Importing domain models
	"net/http"                    // HTTP status codes

	"github.com/gin-gonic/gin" // Gin web framework
)

// RequireCapability lets the request through only when the caller's role,
// read from the database by AuthMiddleware, grants c
func RequireCapability(c access.Capability) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		user := CurrentUser(ctx) // Get the caller from context
		if user == nil {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		if !access.Allows(user.Role, c) {
			ctx.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Forbidden: " + string(c) + " requires a different role"})
			return
		}
		ctx.Next()
	}
}

// RequireRole lets the request through only for the listed roles
func RequireRole(roles ...domain.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := CurrentUser(c) // Get the caller from context
		if user == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		if !access.RequireRole(user.Role, roles...).Allowed {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Access denied for role " + user.Role.String()})
			return
		}
		c.Next() // Role matches, proceed
	}
}
