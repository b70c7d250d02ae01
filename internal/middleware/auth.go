package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"ridehail/internal/identity"
)

// Context keys set by Auth for logging.
const (
	ContextRole    = "role"
	ContextSubject = "subject"
)

// TokenParser turns a bearer token into a verified identity.
type TokenParser interface {
	Parse(token string) (identity.Identity, error)
}

// Auth resolves the caller's identity from an HS256 bearer token and stores
// it in the request context. Requests without a valid token get 401.
func Auth(parser TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			unauthorized(c, "authorization header required")
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenString == authHeader || tokenString == "" {
			unauthorized(c, "bearer token required")
			return
		}

		id, err := parser.Parse(tokenString)
		if err != nil {
			unauthorized(c, "invalid token")
			return
		}

		c.Request = c.Request.WithContext(identity.WithIdentity(c.Request.Context(), id))
		c.Set(ContextRole, string(id.Role()))
		c.Set(ContextSubject, id.Subject())

		c.Next()
	}
}

func unauthorized(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"error": msg,
		"code":  "unauthenticated",
	})
}
