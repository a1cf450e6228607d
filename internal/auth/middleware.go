package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"centreconnect/internal/api"

	"github.com/gin-gonic/gin"
)

const principalKey = "principal"

func abortUnauthenticated(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, api.ErrorResponse{
		Error: msg,
		Code:  string(api.CodeUnauthenticated),
	})
}

func AuthMiddleware(accessTokenSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortUnauthenticated(c, "Authorization header required")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || strings.TrimSpace(parts[0]) != "Bearer" {
			abortUnauthenticated(c, "Invalid authorization header format")
			return
		}

		tokenString := strings.TrimSpace(parts[1])
		if tokenString == "" {
			abortUnauthenticated(c, "Token is empty")
			return
		}

		claims, err := ValidateToken(tokenString, accessTokenSecret)
		if err != nil {
			switch {
			case errors.Is(err, ErrTokenExpired):
				abortUnauthenticated(c, "Token expired")
			default:
				abortUnauthenticated(c, "Invalid or malformed token")
			}
			return
		}

		if claims.TokenType != "access" {
			abortUnauthenticated(c, "Access token required")
			return
		}

		principal := claims.Principal
		c.Set(principalKey, &principal)

		c.Next()
	}
}

// OptionalAuthMiddleware attaches the principal when the request carries a
// valid access token and lets every other request through anonymously.
func OptionalAuthMiddleware(accessTokenSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		parts := strings.SplitN(c.GetHeader("Authorization"), " ", 2)
		if len(parts) == 2 && strings.TrimSpace(parts[0]) == "Bearer" {
			claims, err := ValidateToken(strings.TrimSpace(parts[1]), accessTokenSecret)
			if err == nil && claims.TokenType == "access" {
				principal := claims.Principal
				c.Set(principalKey, &principal)
			}
		}
		c.Next()
	}
}

// RoleLookup resolves the stored role of an account.
type RoleLookup interface {
	GetRole(ctx context.Context, userID string) (string, error)
}

// RequireRole re-reads the caller's role from storage on every request.
// Lookup failures and mismatches are reported identically so the response
// does not reveal whether the account exists.
func RequireRole(lookup RoleLookup, requiredRole string) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, ok := GetPrincipal(c)
		if !ok {
			abortUnauthenticated(c, "Authentication required")
			return
		}

		role, err := lookup.GetRole(c.Request.Context(), principal.UserID)
		if err != nil || role != requiredRole {
			c.AbortWithStatusJSON(http.StatusForbidden, api.ErrorResponse{
				Error: "Insufficient permissions",
				Code:  string(api.CodePermissionDenied),
			})
			return
		}

		c.Next()
	}
}

func GetPrincipal(c *gin.Context) (*Principal, bool) {
	value, exists := c.Get(principalKey)
	if !exists {
		return nil, false
	}

	p, ok := value.(*Principal)
	if !ok || p == nil || p.UserID == "" {
		return nil, false
	}

	return p, true
}

// GetUserID returns the authenticated caller's id.
func GetUserID(c *gin.Context) (string, bool) {
	p, ok := GetPrincipal(c)
	if !ok {
		return "", false
	}
	return p.UserID, true
}
