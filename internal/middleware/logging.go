package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/monocle-dev/taskboard/internal/types"
	log "github.com/sirupsen/logrus"
)

const requestIDHeader = "X-Request-ID"

func RequestLogger(logger *log.Logger) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		start := time.Now()

		requestID := ctx.GetHeader(requestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		ctx.Set(types.ContextRequestIDKey, requestID)
		ctx.Header(requestIDHeader, requestID)

		ctx.Next()

		path := ctx.FullPath()
		if path == "" {
			path = ctx.Request.URL.Path
		}

		status := ctx.Writer.Status()
		fields := log.Fields{
			"request_id": requestID,
			"method":     ctx.Request.Method,
			"path":       path,
			"status":     status,
			"latency_ms": time.Since(start).Milliseconds(),
			"client_ip":  ctx.ClientIP(),
		}
		if user, ok := ctx.Get(types.ContextUserKey); ok {
			if authUser, ok := user.(AuthenticatedUser); ok {
				fields["user_id"] = authUser.ID
			}
		}

		entry := logger.WithFields(fields)
		switch {
		case status >= 500:
			entry.Error("request")
		case status >= 400:
			entry.Warn("request")
		default:
			entry.Info("request")
		}
	}
}
