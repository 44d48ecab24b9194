package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/dishom/opsboard/internal/auth"
	"github.com/dishom/opsboard/internal/pkg/errors"
	"github.com/dishom/opsboard/internal/pkg/utils"
)

// ContextKey is a custom type for context keys
type ContextKey string

const (
	// UserIDKey is the context key for user ID
	UserIDKey ContextKey = "userID"
	// UserEmailKey is the context key for user email
	UserEmailKey ContextKey = "email"
	// CapabilitiesKey is the context key for the caller's capabilities
	CapabilitiesKey ContextKey = "capabilities"
)

// Auth returns a middleware that validates JWT tokens and resolves the
// caller's capabilities from the token's roles.
func Auth(jwtSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenStr := extractToken(r)
			if tokenStr == "" {
				utils.WriteError(w, errors.Unauthorized("Missing authentication token"))
				return
			}

			claims, err := auth.ParseClaims(tokenStr, jwtSecret)
			if err != nil {
				utils.WriteError(w, errors.Unauthorized("Invalid or expired token"))
				return
			}

			caps := auth.CapabilitiesForRoles(claims.Roles)

			ctx := context.WithValue(r.Context(), UserIDKey, claims.UserID)
			ctx = context.WithValue(ctx, UserEmailKey, claims.Email)
			ctx = context.WithValue(ctx, CapabilitiesKey, caps)

			AddLogField(w, "user_id", claims.UserID)
			AddLogField(w, "email", claims.Email)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func extractToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader != "" {
		parts := strings.Split(authHeader, " ")
		if len(parts) == 2 && parts[0] == "Bearer" {
			return parts[1]
		}
		return ""
	}

	// WebSocket clients cannot set headers from the browser, so the
	// token may ride in a cookie or query parameter instead.
	if cookie, err := r.Cookie("accessToken"); err == nil {
		return cookie.Value
	}
	return r.URL.Query().Get("token")
}

// RequireViewLogs rejects callers without the view-logs capability.
func RequireViewLogs(next http.Handler) http.Handler {
	return requireCapability(next, func(c auth.Capabilities) bool { return c.ViewLogs })
}

// RequireManageIncidents rejects callers without the manage-incidents
// capability.
func RequireManageIncidents(next http.Handler) http.Handler {
	return requireCapability(next, func(c auth.Capabilities) bool { return c.ManageIncidents })
}

func requireCapability(next http.Handler, allowed func(auth.Capabilities) bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		caps, ok := GetCapabilities(r)
		if !ok || !allowed(caps) {
			utils.WriteError(w, errors.Forbidden("Insufficient permissions"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GetUserID extracts the user ID from the request context
func GetUserID(r *http.Request) (int64, bool) {
	userID, ok := r.Context().Value(UserIDKey).(int64)
	return userID, ok
}

// GetUserEmail extracts the user email from the request context
func GetUserEmail(r *http.Request) (string, bool) {
	email, ok := r.Context().Value(UserEmailKey).(string)
	return email, ok
}

// GetCapabilities extracts the caller's capabilities from the request
// context
func GetCapabilities(r *http.Request) (auth.Capabilities, bool) {
	caps, ok := r.Context().Value(CapabilitiesKey).(auth.Capabilities)
	return caps, ok
}
