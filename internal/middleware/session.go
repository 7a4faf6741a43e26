package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mhofstetter/schulplan-api/internal/models"
	appErrors "github.com/mhofstetter/schulplan-api/pkg/errors"
	"github.com/mhofstetter/schulplan-api/pkg/response"
)

const (
	// ContextUserKey is the gin context key storing the resolved user.
	ContextUserKey = "currentUser"
	// ContextTokenKey is the gin context key storing the raw session token.
	ContextTokenKey = "sessionToken"
)

type sessionResolver interface {
	ResolveSession(ctx context.Context, token string) (*models.User, error)
}

// Session authenticates requests by resolving the opaque session token, sent
// as a Bearer header or as a cookie, to a user record. The token-to-user
// lookup happens once per request; the user is threaded through the context.
func Session(resolver sessionResolver, cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			if cookie, err := c.Cookie(cookieName); err == nil {
				token = cookie
			}
		}
		if token == "" {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}

		user, err := resolver.ResolveSession(c.Request.Context(), token)
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}

		c.Set(ContextUserKey, user)
		c.Set(ContextTokenKey, token)
		c.Next()
	}
}

// User returns the authenticated user stored on the context.
func User(c *gin.Context) *models.User {
	value, exists := c.Get(ContextUserKey)
	if !exists {
		return nil
	}
	user, ok := value.(*models.User)
	if !ok {
		return nil
	}
	return user
}

// Token returns the raw session token stored on the context.
func Token(c *gin.Context) string {
	if value, exists := c.Get(ContextTokenKey); exists {
		if token, ok := value.(string); ok {
			return token
		}
	}
	return ""
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
