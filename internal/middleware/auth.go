// Package middleware provides Gin HTTP middleware for authentication, rate
// limiting, security headers, request IDs, and metrics.
//
// Middleware ordering matters and is enforced in router.go:
//
//	Security → RateLimit → RequestID → Metrics → Auth → Handler
//
// Security headers run first so they appear on all responses including
// errors. Rate limiting runs before auth to block brute-force attempts
// before any DB work. Auth resolves the identity that handlers pass into
// the accounts service.
package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/package-registry/package-registry/internal/accounts"
	"github.com/package-registry/package-registry/internal/auth"
	"github.com/package-registry/package-registry/internal/db/repositories"
)

const (
	// IdentityKey is the gin.Context key holding the accounts.Identity value.
	IdentityKey = "identity"
)

// CurrentIdentity returns the authenticated identity set by AuthMiddleware.
func CurrentIdentity(c *gin.Context) (accounts.Identity, bool) {
	v, ok := c.Get(IdentityKey)
	if !ok {
		return accounts.Identity{}, false
	}
	ident, ok := v.(accounts.Identity)
	return ident, ok
}

// AuthMiddleware validates the bearer credential and attaches the resolved
// identity to the request context.
//
// JWT validation is attempted first because it is entirely stateless, a
// cryptographic check with no database round-trip. API token validation
// always requires a DB query (prefix lookup + bcrypt comparison), so JWT is
// the lower-latency path for browser sessions.
func AuthMiddleware(userRepo *repositories.UserRepository, tokenRepo *repositories.APITokenRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		credential, err := auth.ExtractBearerToken(c.GetHeader("Authorization"))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": err.Error(),
			})
			return
		}

		if claims, err := auth.ValidateJWT(credential); err == nil {
			user, err := userRepo.GetUserByID(c.Request.Context(), claims.UserID)
			if err != nil {
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"error": "Failed to load user",
				})
				return
			}
			if user == nil {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
					"error": "User not found",
				})
				return
			}

			c.Set(IdentityKey, accounts.Identity{UserID: user.ID, Login: user.Login})
			c.Set("auth_method", "jwt")
			c.Next()
			return
		}

		// Fall back to API tokens. Only the bcrypt hash is stored; the
		// display prefix narrows the candidate rows before comparing.
		candidates, err := tokenRepo.FindByDisplayPrefix(c.Request.Context(), auth.DisplayPrefix(credential))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to validate token",
			})
			return
		}

		for _, candidate := range candidates {
			if !auth.ValidateAPIToken(credential, candidate.TokenHash) {
				continue
			}

			user, err := userRepo.GetUserByID(c.Request.Context(), candidate.UserID)
			if err != nil || user == nil {
				break
			}

			// Best-effort bookkeeping; a failed touch never blocks the request.
			_ = tokenRepo.TouchLastUsed(c.Request.Context(), candidate.ID)

			c.Set(IdentityKey, accounts.Identity{UserID: user.ID, Login: user.Login})
			c.Set("auth_method", "api_token")
			c.Next()
			return
		}

		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"error": "Invalid or expired credentials",
		})
	}
}
