package middleware

import (
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/monocle-dev/taskboard/internal/apperr"
	"github.com/monocle-dev/taskboard/internal/types"
	log "github.com/sirupsen/logrus"
)

type ErrorResponse struct {
	Success    bool   `json:"success"`
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
}

// ErrorHandler renders the last error a handler attached with ctx.Error.
// Internal causes are logged and replaced by a generic message.
func ErrorHandler(logger *log.Logger) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		ctx.Next()

		if len(ctx.Errors) == 0 {
			return
		}

		appErr := apperr.From(ctx.Errors.Last().Err)

		if appErr.Kind == apperr.KindInternal {
			logger.WithError(appErr.Err).WithFields(log.Fields{
				"request_id": ctx.GetString(types.ContextRequestIDKey),
				"method":     ctx.Request.Method,
				"path":       ctx.Request.URL.Path,
			}).Error("request failed")
		}

		if ctx.Writer.Written() {
			return
		}

		status := appErr.StatusCode()
		ctx.JSON(status, ErrorResponse{
			Success:    false,
			StatusCode: status,
			Message:    appErr.PublicMessage(),
		})
	}
}

func Recovery(logger *log.Logger) gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(io.Discard, func(ctx *gin.Context, recovered any) {
		logger.WithFields(log.Fields{
			"request_id": ctx.GetString(types.ContextRequestIDKey),
			"panic":      fmt.Sprint(recovered),
		}).Error("panic recovered")

		ctx.AbortWithStatusJSON(http.StatusInternalServerError, ErrorResponse{
			Success:    false,
			StatusCode: http.StatusInternalServerError,
			Message:    "Internal server error",
		})
	})
}
