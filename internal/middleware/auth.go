package middleware

import (
	"net/http"
	"strings"

	"taskhub/internal/pkg/jwt"
	"taskhub/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

const (
	ContextUserID = "user_id"
	ContextEmail  = "email"
	ContextRole   = "role"
)

type TokenValidator interface {
	ValidateToken(token string) (*jwt.Claims, error)
}

// JWTAuth requires a Bearer token and stores its claims on the context.
func JWTAuth(tokens TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr, ok := bearerToken(c)
		if !ok {
			response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Missing or invalid Authorization header")
			c.Abort()
			return
		}

		claims, err := tokens.ValidateToken(tokenStr)
		if err != nil {
			response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid token")
			c.Abort()
			return
		}

		c.Set(ContextUserID, claims.UserID)
		c.Set(ContextEmail, claims.Email)
		c.Set(ContextRole, claims.Role)
		c.Next()
	}
}

// bearerToken also accepts ?token= so browsers can authenticate the
// WebSocket upgrade, which cannot carry custom headers.
func bearerToken(c *gin.Context) (string, bool) {
	h := c.GetHeader("Authorization")
	if h == "" {
		if q := strings.TrimSpace(c.Query("token")); q != "" && c.IsWebsocket() {
			return q, true
		}
		return "", false
	}
	if !strings.HasPrefix(h, "Bearer ") {
		return "", false
	}
	tokenStr := strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	return tokenStr, tokenStr != ""
}

// Actor is the authenticated caller as seen by services.
type Actor struct {
	UserID int64
	Email  string
	Role   string
}

func ActorFrom(c *gin.Context) Actor {
	return Actor{
		UserID: c.GetInt64(ContextUserID),
		Email:  c.GetString(ContextEmail),
		Role:   c.GetString(ContextRole),
	}
}

// OptionalAuth records the caller when a valid token is present and lets
// anonymous requests through otherwise.
func OptionalAuth(tokens TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		if tokenStr, ok := bearerToken(c); ok {
			if claims, err := tokens.ValidateToken(tokenStr); err == nil {
				c.Set(ContextUserID, claims.UserID)
				c.Set(ContextEmail, claims.Email)
				c.Set(ContextRole, claims.Role)
			}
		}
		c.Next()
	}
}

// OptionalActor returns nil for anonymous requests.
func OptionalActor(c *gin.Context) *Actor {
	if _, ok := c.Get(ContextEmail); !ok {
		return nil
	}
	a := ActorFrom(c)
	return &a
}
