// Package api wires together the HTTP routes for the account-identity
// service.
//
// Route grouping:
//   - /health and /api/v1/confirm/:email_token are unauthenticated. The
//     confirmation link lands in a mail client, so the request cannot carry
//     a session; possession of the token is the entire proof.
//   - Everything else under /api/v1 requires a bearer credential (JWT or
//     registry API token).
package api

import (
	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"

	"github.com/package-registry/package-registry/internal/accounts"
	"github.com/package-registry/package-registry/internal/api/account"
	"github.com/package-registry/package-registry/internal/config"
	"github.com/package-registry/package-registry/internal/db/repositories"
	"github.com/package-registry/package-registry/internal/middleware"
)

// Background holds resources with goroutines that must be stopped during
// graceful shutdown, after the HTTP server has drained in-flight requests.
type Background struct {
	rateLimiter *middleware.RateLimiter
}

// Shutdown stops all background goroutines.
func (b *Background) Shutdown() {
	if b.rateLimiter != nil {
		b.rateLimiter.Stop()
	}
}

// NewRouter builds the Gin engine with the full middleware chain and all
// account routes. The mailer is injected so tests can run without SMTP.
func NewRouter(cfg *config.Config, db *sqlx.DB, mailer accounts.Mailer) (*gin.Engine, *Background) {
	router := gin.New()
	router.Use(gin.Recovery())

	bg := &Background{}

	router.Use(middleware.SecurityHeadersMiddleware(middleware.APISecurityHeadersConfig()))

	if cfg.Security.RateLimiting.Enabled {
		rlCfg := middleware.DefaultRateLimitConfig()
		if cfg.Security.RateLimiting.RequestsPerMinute > 0 {
			rlCfg.RequestsPerMinute = cfg.Security.RateLimiting.RequestsPerMinute
		}
		if cfg.Security.RateLimiting.Burst > 0 {
			rlCfg.BurstSize = cfg.Security.RateLimiting.Burst
		}
		bg.rateLimiter = middleware.NewRateLimiter(rlCfg)
		router.Use(bg.rateLimiter.Middleware())
	}

	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.MetricsMiddleware())

	userRepo := repositories.NewUserRepository(db)
	emailRepo := repositories.NewEmailRepository(db)
	ownerRepo := repositories.NewOwnershipRepository(db)
	feedRepo := repositories.NewFeedRepository(db)
	tokenRepo := repositories.NewAPITokenRepository(db)

	svc := accounts.NewService(userRepo, emailRepo, ownerRepo, feedRepo, mailer)
	handlers := account.NewHandlers(svc)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	v1 := router.Group("/api/v1")

	// Confirmation is reached from a mail client; no credential available.
	v1.PUT("/confirm/:email_token", handlers.ConfirmEmailHandler())

	authed := v1.Group("")
	authed.Use(middleware.AuthMiddleware(userRepo, tokenRepo))
	{
		authed.GET("/me", handlers.MeHandler())
		authed.GET("/me/updates", handlers.UpdatesHandler())
		authed.PUT("/me/email_notifications", handlers.UpdateEmailNotificationsHandler())
		authed.PUT("/users/:user_id", handlers.UpdateUserHandler())
		authed.PUT("/users/:user_id/resend", handlers.ResendConfirmationHandler())
	}

	return router, bg
}
