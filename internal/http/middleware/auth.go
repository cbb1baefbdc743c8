// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file provides bearer-token authentication and role gating. The
// Authentication middleware parses the Authorization header, verifies the JWT
// through a TokenVerifier, and stores the caller's identity in the Gin
// context; RequireRoles then gates individual routes on that identity.
// Handlers read the identity back with CurrentUserID / CurrentRole.
package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/agrosage/go-plant-backend/internal/access"
	"github.com/agrosage/go-plant-backend/internal/auth"
)

// Gin context keys under which the authenticated identity is stored.
const (
	UserIDKey   = "userID"
	UsernameKey = "username"
	RoleKey     = "role"
)

// TokenVerifier validates a bearer token and returns its claims.
// *auth.Service satisfies it.
type TokenVerifier interface {
	Verify(token string) (*auth.Claims, error)
}

// Authentication returns a middleware that requires a valid Bearer token on
// every request it guards. On success the user id, username, and role are
// stored in the Gin context; on failure the request is aborted with a 401
// envelope.
func Authentication(verifier TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			abortAuth(c, http.StatusUnauthorized, "unauthorized", "missing bearer token")
			return
		}
		claims, err := verifier.Verify(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			abortAuth(c, http.StatusUnauthorized, "unauthorized", "invalid or expired token")
			return
		}
		c.Set(UserIDKey, claims.UserID)
		c.Set(UsernameKey, claims.Username)
		c.Set(RoleKey, claims.Role)
		c.Next()
	}
}

// RequireRoles returns a middleware that aborts with 403 unless the
// authenticated caller holds one of the given roles. An empty role list
// admits any authenticated caller. Must run after Authentication.
func RequireRoles(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, ok := CurrentRole(c)
		if !ok {
			abortAuth(c, http.StatusUnauthorized, "unauthorized", "missing bearer token")
			return
		}
		if !access.Allowed(role, roles...) {
			abortAuth(c, http.StatusForbidden, "forbidden", "insufficient role")
			return
		}
		c.Next()
	}
}

// CurrentUserID returns the authenticated user id from the Gin context.
func CurrentUserID(c *gin.Context) (uint, bool) {
	v, ok := c.Get(UserIDKey)
	if !ok {
		return 0, false
	}
	id, ok := v.(uint)
	return id, ok
}

// CurrentRole returns the authenticated caller's role from the Gin context.
func CurrentRole(c *gin.Context) (string, bool) {
	v, ok := c.Get(RoleKey)
	if !ok {
		return "", false
	}
	role, ok := v.(string)
	return role, ok
}

// abortAuth writes the standard error envelope without importing the handlers
// package (which depends on this one).
func abortAuth(c *gin.Context, status int, code, msg string) {
	c.AbortWithStatusJSON(status, gin.H{
		"request_id": c.Writer.Header().Get(requestIDHeader),
		"code":       code,
		"message":    msg,
	})
}
