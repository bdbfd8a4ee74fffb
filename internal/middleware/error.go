package middleware

import (
	"errors"

	"github.com/gin-gonic/gin"

	apperrors "framex/internal/errors"
	"framex/internal/logger"
)

// ErrorHandler renders the last error attached with c.Error, unless the
// handler already wrote a response. Internal details are logged, never sent.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		err := c.Errors.Last().Err

		var appErr *apperrors.AppError
		if !errors.As(err, &appErr) {
			appErr = apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if appErr.Internal != nil {
			logger.Get().Errorw("request failed",
				"code", appErr.Code,
				"internal", appErr.Internal.Error(),
				"method", c.Request.Method,
				"path", c.Request.URL.Path,
				"request_id", c.GetString(requestIDKey),
			)
		}
		abortWithError(c, appErr)
	}
}
