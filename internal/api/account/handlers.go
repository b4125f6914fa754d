package account

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/package-registry/package-registry/internal/accounts"
	"github.com/package-registry/package-registry/internal/middleware"
	"github.com/package-registry/package-registry/internal/pagination"
)

// Handlers holds the account endpoint handlers.
type Handlers struct {
	svc *accounts.Service
}

// NewHandlers creates the account Handlers.
func NewHandlers(svc *accounts.Service) *Handlers {
	return &Handlers{svc: svc}
}

// respondError maps the accounts error taxonomy onto HTTP statuses. Unknown
// errors surface as 500 without leaking internals.
func respondError(c *gin.Context, err error) {
	var (
		validationErr *accounts.ValidationError
		authzErr      *accounts.AuthorizationError
		notFoundErr   *accounts.NotFoundError
		conflictErr   *accounts.ConflictError
		storeErr      *accounts.TransientStoreError
	)

	switch {
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": validationErr.Msg})
	case errors.As(err, &authzErr):
		c.JSON(http.StatusForbidden, gin.H{"error": authzErr.Msg})
	case errors.As(err, &notFoundErr):
		c.JSON(http.StatusNotFound, gin.H{"error": notFoundErr.Msg})
	case errors.As(err, &conflictErr):
		c.JSON(http.StatusConflict, gin.H{"error": conflictErr.Msg})
	case errors.As(err, &storeErr):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": storeErr.Msg})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

// identity pulls the authenticated identity or aborts with 401. The auth
// middleware always sets it on authenticated groups; the check guards
// against wiring mistakes.
func identity(c *gin.Context) (accounts.Identity, bool) {
	ident, ok := middleware.CurrentIdentity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
	}
	return ident, ok
}

// MeHandler serves the private profile view.
// GET /api/v1/me
func (h *Handlers) MeHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ident, ok := identity(c)
		if !ok {
			return
		}

		profile, err := h.svc.GetProfile(c.Request.Context(), ident)
		if err != nil {
			respondError(c, err)
			return
		}

		owned := make([]OwnedPackage, 0, len(profile.OwnedPackages))
		for _, p := range profile.OwnedPackages {
			owned = append(owned, OwnedPackage{
				ID:                 p.ID,
				Name:               p.Name,
				EmailNotifications: p.EmailNotifications,
			})
		}

		c.JSON(http.StatusOK, MeResponse{
			User: EncodableUser{
				ID:               profile.User.ID,
				Login:            profile.User.Login,
				Name:             profile.User.Name,
				Email:            profile.User.Email,
				EmailVerified:    profile.Verified,
				VerificationSent: profile.VerificationSent,
			},
			OwnedPackages: owned,
		})
	}
}

// UpdatesHandler serves one page of the personalized update feed.
// GET /api/v1/me/updates?page=1&per_page=20
func (h *Handlers) UpdatesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ident, ok := identity(c)
		if !ok {
			return
		}

		page := pagination.FromQuery(c.Query("page"), c.Query("per_page"))

		feed, err := h.svc.GetUpdateFeed(c.Request.Context(), ident, page.Limit(), page.Offset())
		if err != nil {
			respondError(c, err)
			return
		}

		versions := make([]EncodableVersion, 0, len(feed.Versions))
		for _, v := range feed.Versions {
			versions = append(versions, EncodableVersion{
				ID:          v.ID,
				PackageName: v.PackageName,
				Num:         v.Num,
				PublishedBy: v.PublishedBy,
				CreatedAt:   v.CreatedAt,
			})
		}

		c.JSON(http.StatusOK, UpdatesResponse{
			Versions: versions,
			Meta:     UpdatesMeta{More: feed.More},
		})
	}
}

// UpdateUserHandler changes the target user's email address.
// PUT /api/v1/users/:user_id
func (h *Handlers) UpdateUserHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ident, ok := identity(c)
		if !ok {
			return
		}

		var req UpdateUserRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json request"})
			return
		}
		if req.User.Email == nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "empty email rejected"})
			return
		}

		err := h.svc.ChangeEmail(c.Request.Context(), ident, c.Param("user_id"), *req.User.Email)
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, OkResponse{OK: true})
	}
}

// ConfirmEmailHandler marks the email matching the token as verified. The
// route is unauthenticated: possession of the token is the proof.
// PUT /api/v1/confirm/:email_token
func (h *Handlers) ConfirmEmailHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		err := h.svc.ConfirmEmail(c.Request.Context(), c.Param("email_token"))
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, OkResponse{OK: true})
	}
}

// ResendConfirmationHandler rotates the confirmation token and re-sends it.
// PUT /api/v1/users/:user_id/resend
func (h *Handlers) ResendConfirmationHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ident, ok := identity(c)
		if !ok {
			return
		}

		err := h.svc.ResendConfirmation(c.Request.Context(), ident, c.Param("user_id"))
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, OkResponse{OK: true})
	}
}

// UpdateEmailNotificationsHandler batch-synchronizes the acting user's
// per-package notification flags.
// PUT /api/v1/me/email_notifications
func (h *Handlers) UpdateEmailNotificationsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ident, ok := identity(c)
		if !ok {
			return
		}

		var prefs []NotificationPreference
		if err := c.ShouldBindJSON(&prefs); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
			return
		}

		patch := make(map[string]bool, len(prefs))
		for _, p := range prefs {
			patch[p.ID] = p.EmailNotifications
		}

		if err := h.svc.UpdateEmailNotifications(c.Request.Context(), ident, patch); err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, OkResponse{OK: true})
	}
}
