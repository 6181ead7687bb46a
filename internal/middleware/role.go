package middleware

import (
	"net/http"

	"taskhub/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

// RequireRole lets the request through when the token carries one of roles.
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.GetString(ContextRole)
		if role == "" {
			response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Role not found in token")
			c.Abort()
			return
		}

		for _, r := range roles {
			if r == role {
				c.Next()
				return
			}
		}

		response.Error(c, http.StatusForbidden, "FORBIDDEN", "Access denied: insufficient permissions")
		c.Abort()
	}
}

func AdminOnly() gin.HandlerFunc {
	return RequireRole("admin")
}

func TaskerOnly() gin.HandlerFunc {
	return RequireRole("tasker", "admin")
}
