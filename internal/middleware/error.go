package middleware

import (
	"errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	apperrors "budgeteer/internal/errors"
	"budgeteer/internal/logger"
)

// ErrorHandler renders the error a handler attached with c.Error as
// {"error":{"code","message"}}. An AppError keeps its status, code and
// message; anything else becomes INTERNAL_ERROR. Internal causes are logged
// with the request ID and never sent to the client.
func ErrorHandler(log *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		err := c.Errors.Last().Err
		reqLog := logger.FromContext(c.Request.Context(), log).With(
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"user_id", c.GetString(UserIDKey),
		)

		var appErr *apperrors.AppError
		if !errors.As(err, &appErr) {
			reqLog.Errorw("unexpected error", "error", err.Error())
			abortWithError(c, apperrors.ErrInternalServer)
			return
		}

		if appErr.Internal != nil {
			reqLog.Errorw("request failed",
				"code", appErr.Code,
				"internal", appErr.Internal.Error(),
			)
		}
		abortWithError(c, appErr)
	}
}
