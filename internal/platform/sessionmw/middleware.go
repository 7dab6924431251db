// Package sessionmw provides the Gin middleware that resolves bearer session tokens.
package sessionmw

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"petserver/internal/feature/auth/domain/entity"
)

// Context keys set by SessionRequired.
const (
	ContextUser  = "sessionUser"
	ContextToken = "sessionToken"
)

// Resolver maps a session token to its user.
type Resolver interface {
	GetSessionUser(ctx context.Context, token string) (*entity.User, error)
}

// SessionRequired returns a Gin middleware that accepts only requests whose
// bearer token names a live session. notFound is the resolver's "no user" error.
func SessionRequired(r Resolver, notFound error) gin.HandlerFunc {
	return func(c *gin.Context) {
		// 1. Get Authorization header
		auth := c.GetHeader("Authorization")
		if !strings.HasPrefix(auth, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}
		token := strings.TrimPrefix(auth, "Bearer ")
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}

		// 2. Resolve the session
		user, err := r.GetSessionUser(c.Request.Context(), token)
		switch {
		case errors.Is(err, notFound):
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "No user"})
			return
		case err != nil:
			slog.Error("session lookup failed", "error", err, "remote_addr", c.ClientIP())
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}

		// 3. Pass control to the next handler
		c.Set(ContextUser, user)
		c.Set(ContextToken, token)
		c.Next()
	}
}

// UserFrom returns the user stored by SessionRequired.
func UserFrom(c *gin.Context) (*entity.User, bool) {
	v, ok := c.Get(ContextUser)
	if !ok {
		return nil, false
	}
	u, ok := v.(*entity.User)
	return u, ok
}
