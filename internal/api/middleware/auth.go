package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Wikid82/ballot/backend/internal/services"
)

// Context keys set by AuthMiddleware.
const (
	UserIDKey  = "userID"
	EmailKey   = "email"
	IsAdminKey = "isAdmin"
)

// TokenVerifier decodes bearer tokens.
type TokenVerifier interface {
	Verify(token string) (*services.Claims, error)
}

// AdminChecker looks admin status up in the credential store.
type AdminChecker interface {
	IsAdmin(ctx context.Context, userID string) (bool, error)
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	parts := strings.SplitN(header, " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return strings.TrimSpace(parts[1])
	}
	return ""
}

// authenticate verifies the bearer token and stores its claims on the
// context. It aborts with 401 and returns nil on failure.
func authenticate(c *gin.Context, tokens TokenVerifier) *services.Claims {
	raw := bearerToken(c)
	if raw == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Token is missing"})
		return nil
	}

	claims, err := tokens.Verify(raw)
	if err != nil {
		msg := "Token is invalid"
		if errors.Is(err, services.ErrTokenExpired) {
			msg = "Token has expired"
		}
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": msg})
		return nil
	}

	c.Set(UserIDKey, claims.UserID)
	c.Set(EmailKey, claims.Email)
	c.Set(IsAdminKey, claims.IsAdmin)
	return claims
}

// AuthMiddleware requires a valid bearer token.
func AuthMiddleware(tokens TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		if authenticate(c, tokens) == nil {
			return
		}
		c.Next()
	}
}

// AdminMiddleware requires a valid bearer token carrying the admin claim.
// With a non-nil checker the claim must also still hold in the credential
// store.
func AdminMiddleware(tokens TokenVerifier, checker AdminChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := authenticate(c, tokens)
		if claims == nil {
			return
		}
		if !claims.IsAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Admin access required"})
			return
		}
		if checker != nil {
			ok, err := checker.IsAdmin(c.Request.Context(), claims.UserID)
			if err != nil {
				GetRequestLogger(c).WithError(err).Error("admin recheck failed")
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
				return
			}
			if !ok {
				c.Set(IsAdminKey, false)
				c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Admin access required"})
				return
			}
		}
		c.Next()
	}
}
