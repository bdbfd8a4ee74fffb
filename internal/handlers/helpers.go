package handlers

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "framex/internal/errors"
	"framex/internal/logger"
	"framex/internal/middleware"
	"framex/internal/models"
	"framex/internal/uuid"
)

const dateOnlyLayout = "2006-01-02"

// getCurrentUser returns the user loaded by middleware.LoadUser.
func getCurrentUser(c *gin.Context) (*models.User, error) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		return nil, apperrors.ErrUnauthorized
	}
	return user, nil
}

// parsePathID reads a UUID path parameter in canonical form.
func parsePathID(c *gin.Context, param string) (string, error) {
	id, err := uuid.Parse(c.Param(param))
	if err != nil {
		return "", apperrors.WithMessage(apperrors.ErrInvalidInput, "Invalid "+param)
	}
	return id, nil
}

// parseMasterDataType reads the :type path parameter.
func parseMasterDataType(c *gin.Context) (models.MasterDataType, error) {
	typ := models.MasterDataType(c.Param("type"))
	if !typ.Valid() {
		return "", apperrors.WithMessagef(apperrors.ErrInvalidInput,
			"Invalid type, must be one of %v", models.MasterDataTypes)
	}
	return typ, nil
}

// parseDate accepts RFC3339 or YYYY-MM-DD. A date-only value is interpreted
// in loc; with endOfDay it covers the whole day.
func parseDate(v string, loc *time.Location, endOfDay bool) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t, nil
	}
	t, err := time.ParseInLocation(dateOnlyLayout, v, loc)
	if err != nil {
		return time.Time{}, err
	}
	if endOfDay {
		t = t.AddDate(0, 0, 1).Add(-time.Nanosecond)
	}
	return t, nil
}

// respondWithError writes a consistent JSON error response. If the error is an
// *AppError it uses the error's status code, code, and message. Otherwise it
// logs the unexpected error and returns a generic internal server error.
func respondWithError(c *gin.Context, err error) {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		if appErr.Internal != nil {
			logger.Get().Errorw("app error",
				"code", appErr.Code,
				"internal", appErr.Internal.Error(),
				"path", c.Request.URL.Path,
			)
		}
		c.JSON(appErr.StatusCode, gin.H{
			"error": gin.H{
				"code":    appErr.Code,
				"message": appErr.Message,
			},
		})
		return
	}

	logger.Get().Errorw("unexpected error",
		"error", err.Error(),
		"path", c.Request.URL.Path,
		"method", c.Request.Method,
	)
	c.JSON(apperrors.ErrInternalServer.StatusCode, gin.H{
		"error": gin.H{
			"code":    apperrors.ErrInternalServer.Code,
			"message": apperrors.ErrInternalServer.Message,
		},
	})
}

// bindError converts a binding failure into INVALID_INPUT.
func bindError(err error) error {
	return apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error())
}

// ErrorDetail represents the inner error object in an error response.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}
