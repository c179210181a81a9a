package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/monocle-dev/taskboard/internal/utils"
)

// WebSocket upgrades the request and keeps the socket registered under the
// caller until it disconnects. Task mutations push refresh events over it.
func (h *Handler) WebSocket(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		_ = ctx.Error(err)
		return
	}

	h.Hub.Serve(ctx.Writer, ctx.Request, userID)
}
