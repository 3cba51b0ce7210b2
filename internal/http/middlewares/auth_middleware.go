package middlewares

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/geocoder89/taskhub/internal/auth"
	"github.com/geocoder89/taskhub/internal/domain/user"
	"github.com/gin-gonic/gin"
)

// Keep these interfaces small so tests can fake them easily.
type TokenVerifier interface {
	VerifyToken(token string) (*auth.Claims, error)
}

type UserLoader interface {
	GetByIDAndToken(ctx context.Context, id, token string) (user.User, error)
}

type AuthMiddleware struct {
	jwt   TokenVerifier
	users UserLoader
}

func NewAuthMiddleware(jwt TokenVerifier, users UserLoader) *AuthMiddleware {
	return &AuthMiddleware{jwt: jwt, users: users}
}

const (
	ctxUserKey  = "auth.user"
	ctxTokenKey = "auth.token"
)

// RequireAuth gates a route on the full authentication conjunction: the
// bearer token must carry a valid signature AND still be present on the
// resolved user's token list. Either check failing alone is a 401 —
// logout revokes a token server-side even though its signature stays valid.
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") {
			abortUnauthorized(c, "Missing or invalid Authorization header")
			return
		}

		raw := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer"))
		if raw == "" {
			abortUnauthorized(c, "Missing or invalid bearer token")
			return
		}

		claims, err := m.jwt.VerifyToken(raw)
		if err != nil {
			abortUnauthorized(c, "Invalid or expired token")
			return
		}

		cctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		u, err := m.users.GetByIDAndToken(cctx, claims.UserID, raw)
		if err != nil {
			// unknown user or a revoked token: same response either way
			abortUnauthorized(c, "Invalid or expired token")
			return
		}

		// Stash the resolved identity on the context
		c.Set(ctxUserKey, u)
		c.Set(ctxTokenKey, raw)

		c.Next()
	}
}

func abortUnauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"error": gin.H{
			"code":    "unauthorized",
			"message": message,
		},
	})
}

// Helpers so handlers don't need to know the magic keys.

func UserFromContext(c *gin.Context) (user.User, bool) {
	v, ok := c.Get(ctxUserKey)
	if !ok {
		return user.User{}, false
	}
	u, ok := v.(user.User)
	return u, ok
}

func TokenFromContext(c *gin.Context) (string, bool) {
	v, ok := c.Get(ctxTokenKey)
	if !ok {
		return "", false
	}
	raw, ok := v.(string)
	return raw, ok && raw != ""
}
