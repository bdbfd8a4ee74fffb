package middleware

import (
	"errors"

	"github.com/gin-gonic/gin"

	apperrors "framex/internal/errors"
	"framex/internal/logger"
	"framex/internal/models"
)

// UserLoader is the part of the user directory LoadUser depends on.
type UserLoader interface {
	GetUserByID(id string) (*models.User, error)
}

// LoadUser resolves the authenticated user ID into the current user record.
// A token whose user has since been deleted is treated as unauthenticated.
func LoadUser(users UserLoader) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := UserID(c)
		if !ok {
			abortWithError(c, apperrors.ErrUnauthorized)
			return
		}

		user, err := users.GetUserByID(id)
		if err != nil {
			if errors.Is(err, apperrors.ErrUserNotFound) {
				abortWithError(c, apperrors.ErrUnauthorized)
				return
			}
			logger.Get().Errorw("failed to load current user", "error", err, "user_id", id)
			abortWithError(c, apperrors.ErrInternalServer)
			return
		}

		c.Set(currentUserKey, user)
		c.Next()
	}
}

// CurrentUser returns the user stored by LoadUser.
func CurrentUser(c *gin.Context) (*models.User, bool) {
	v, ok := c.Get(currentUserKey)
	if !ok {
		return nil, false
	}
	user, ok := v.(*models.User)
	return user, ok && user != nil
}

// SetCurrentUser stores user as the authenticated user.
func SetCurrentUser(c *gin.Context, user *models.User) {
	c.Set(userIDKey, user.ID)
	c.Set(currentUserKey, user)
}

// RequireAdmin rejects non-admin users with FORBIDDEN.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := CurrentUser(c)
		if !ok {
			abortWithError(c, apperrors.ErrUnauthorized)
			return
		}
		if !user.IsAdmin() {
			abortWithError(c, apperrors.WithMessage(apperrors.ErrForbidden, "Admin access required"))
			return
		}
		c.Next()
	}
}

// RequirePasswordCurrent blocks users flagged for a password change from
// every route except the allowed ones (matched against the route pattern).
func RequirePasswordCurrent(allowed ...string) gin.HandlerFunc {
	allow := make(map[string]bool, len(allowed))
	for _, p := range allowed {
		allow[p] = true
	}
	return func(c *gin.Context) {
		user, ok := CurrentUser(c)
		if !ok {
			abortWithError(c, apperrors.ErrUnauthorized)
			return
		}
		if user.ForcePasswordChange && !allow[c.FullPath()] {
			abortWithError(c, apperrors.ErrPasswordChangeRequired)
			return
		}
		c.Next()
	}
}
