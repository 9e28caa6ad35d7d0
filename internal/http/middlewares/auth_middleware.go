package middlewares

import (
	"net/http"
	"strings"

	"github.com/ArnavJain-cy/sih-app/internal/actorctx"
	"github.com/ArnavJain-cy/sih-app/internal/auth"
	"github.com/gin-gonic/gin"
)

const (
	MsgTokenRequired = "Access token required"
	MsgTokenInvalid  = "Invalid or expired token"
)

// Keep this small interface so tests can fake it easily.
type TokenVerifier interface {
	Verify(token string) (*auth.Claims, error)
}

type AuthMiddleware struct {
	tokens TokenVerifier
}

func NewAuthMiddleware(tokens TokenVerifier) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens}
}

// RequireAuth answers 401 when no bearer token is sent and 403 when the
// token does not verify. Guest tokens pass.
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := bearerToken(c.GetHeader("Authorization"))
		if raw == "" {
			AbortWithError(c, http.StatusUnauthorized, "unauthorized", MsgTokenRequired, nil)
			return
		}

		claims, err := m.tokens.Verify(raw)
		if err != nil {
			AbortWithError(c, http.StatusForbidden, "forbidden", MsgTokenInvalid, nil)
			return
		}

		c.Set(CtxClaims, claims)
		c.Request = c.Request.WithContext(actorctx.WithIdentity(c.Request.Context(), claims.Identity()))

		c.Next()
	}
}

func bearerToken(header string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// Optional helpers so handlers don't need to know the magic keys.

func ClaimsFromContext(c *gin.Context) (*auth.Claims, bool) {
	v, ok := c.Get(CtxClaims)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*auth.Claims)
	return claims, ok && claims != nil
}

