package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"manifesto-backend/internal/shared/auth"
	"manifesto-backend/internal/shared/server/respond"
)

const (
	userIDKey    = "userId"
	userEmailKey = "userEmail"
	userNameKey  = "userName"
	isAdminKey   = "isAdmin"
)

// Auth validates JWTs or guest headers and stores identity in context.
// Admin status is derived from the configured admin email allowlist.
func Auth(env string, adminEmails []string) gin.HandlerFunc {
	admins := make(map[string]struct{}, len(adminEmails))
	for _, e := range adminEmails {
		if trimmed := strings.ToLower(strings.TrimSpace(e)); trimmed != "" {
			admins[trimmed] = struct{}{}
		}
	}

	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.Status(http.StatusNoContent)
			return
		}

		authHeader := strings.TrimSpace(c.GetHeader("Authorization"))

		if authHeader != "" {
			if !strings.HasPrefix(authHeader, "Bearer ") {
				respond.Error(c, http.StatusUnauthorized, "unauthorized", "missing or invalid token", nil)
				return
			}

			token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer"))
			if token == "" {
				respond.Error(c, http.StatusUnauthorized, "unauthorized", "missing or invalid token", nil)
				return
			}

			claims, err := auth.VerifyJWT(token)
			if err != nil {
				respond.Error(c, http.StatusUnauthorized, "unauthorized", "missing or invalid token", nil)
				return
			}

			c.Set(userIDKey, claims.Sub)
			if claims.Email != "" {
				c.Set(userEmailKey, claims.Email)
			}
			if claims.Name != "" {
				c.Set(userNameKey, claims.Name)
			}
			_, isAdmin := admins[strings.ToLower(claims.Email)]
			c.Set(isAdminKey, isAdmin && claims.Email != "")
			c.Set("isGuest", false)
			c.Next()
			return
		}

		guestID := strings.TrimSpace(c.GetHeader("X-Guest-Id"))
		if guestID == "" {
			respond.Error(c, http.StatusUnauthorized, "unauthorized", "Missing identity", nil)
			return
		}

		c.Set(userIDKey, "guest:"+guestID)
		c.Set(isAdminKey, false)
		c.Set("isGuest", true)
		c.Next()
	}
}

// RequireUser rejects guest identities.
func RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		if isGuest, ok := c.Get("isGuest"); ok {
			if guest, ok2 := isGuest.(bool); ok2 && guest {
				respond.Error(c, http.StatusUnauthorized, "login_required", "Login required", nil)
				return
			}
		}
		c.Next()
	}
}

// RequireAdmin rejects callers not on the admin allowlist.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !IsAdminFromContext(c) {
			respond.Error(c, http.StatusForbidden, "forbidden", "Admin privileges required", nil)
			return
		}
		c.Next()
	}
}

// UserIDFromContext fetches the user ID set by the auth middleware.
func UserIDFromContext(c *gin.Context) string {
	if c == nil {
		return ""
	}
	val, _ := c.Get(userIDKey)
	if id, ok := val.(string); ok {
		return id
	}
	return ""
}

// UserEmailFromContext fetches the user email set by the auth middleware.
func UserEmailFromContext(c *gin.Context) string {
	if c == nil {
		return ""
	}
	val, _ := c.Get(userEmailKey)
	if email, ok := val.(string); ok {
		return email
	}
	return ""
}

// IsAdminFromContext reports whether the caller is an admin.
func IsAdminFromContext(c *gin.Context) bool {
	if c == nil {
		return false
	}
	val, _ := c.Get(isAdminKey)
	admin, ok := val.(bool)
	return ok && admin
}
