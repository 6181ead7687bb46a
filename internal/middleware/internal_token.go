package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"taskhub/internal/pkg/logger"
	"taskhub/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

// InternalTokenAuth protects operator endpoints with a static bearer
// token. An empty token disables the endpoints. allowedIPs, when set,
// restricts callers further.
func InternalTokenAuth(token string, allowedIPs []string, log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token == "" {
			logAuthFailure(c, log, http.StatusForbidden, "disabled")
			response.Error(c, http.StatusForbidden, "FORBIDDEN", "Internal endpoints are disabled")
			c.Abort()
			return
		}

		if !ipAllowed(c, allowedIPs) {
			logAuthFailure(c, log, http.StatusForbidden, "ip_not_allowed")
			response.Error(c, http.StatusForbidden, "FORBIDDEN", "IP not allowed")
			c.Abort()
			return
		}

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			logAuthFailure(c, log, http.StatusUnauthorized, "missing_auth")
			response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Authorization header is required")
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			logAuthFailure(c, log, http.StatusUnauthorized, "invalid_auth_format")
			response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Authorization header must be 'Bearer <token>'")
			c.Abort()
			return
		}

		if subtle.ConstantTimeCompare([]byte(parts[1]), []byte(token)) != 1 {
			logAuthFailure(c, log, http.StatusForbidden, "invalid_token")
			response.Error(c, http.StatusForbidden, "FORBIDDEN", "Invalid internal token")
			c.Abort()
			return
		}

		c.Next()
	}
}

func ipAllowed(c *gin.Context, allowed []string) bool {
	if len(allowed) == 0 {
		return true
	}
	clientIP := c.ClientIP()
	for _, ip := range allowed {
		if strings.TrimSpace(ip) == clientIP {
			return true
		}
	}
	return false
}

func logAuthFailure(c *gin.Context, log *logger.Logger, status int, reason string) {
	log.Warn("internal auth rejected",
		"status", status,
		"request_id", c.GetString("request_id"),
		"client_ip", c.ClientIP(),
		"reason", reason,
	)
}
