package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/monocle-dev/taskboard/internal/apperr"
	"github.com/monocle-dev/taskboard/internal/services"
	"github.com/monocle-dev/taskboard/internal/utils"
)

type UpdateUserRequest struct {
	Name        *string `json:"name"`
	Email       *string `json:"email" binding:"omitempty,email"`
	OldPassword *string `json:"oldPassword"`
	NewPassword *string `json:"newPassword" binding:"omitempty,min=8,max=72"`
}

func (h *Handler) UpdateUser(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		_ = ctx.Error(err)
		return
	}

	var req UpdateUserRequest

	if err := ctx.ShouldBindJSON(&req); err != nil {
		_ = ctx.Error(apperr.Validation("Invalid request"))
		return
	}

	user, err := h.Users.UpdateUser(ctx.Request.Context(), userID, services.UserPatch{
		Name:        req.Name,
		Email:       req.Email,
		OldPassword: req.OldPassword,
		NewPassword: req.NewPassword,
	})

	if err != nil {
		_ = ctx.Error(err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "User updated successfully",
		"user":    user,
	})
}

func (h *Handler) GetUserName(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		_ = ctx.Error(err)
		return
	}

	name, err := h.Users.GetUserName(ctx.Request.Context(), userID)

	if err != nil {
		_ = ctx.Error(err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"success": true, "userName": name})
}

func (h *Handler) GetUserAnalytics(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		_ = ctx.Error(err)
		return
	}

	analytics, err := h.Tasks.GetUserAnalytics(ctx.Request.Context(), userID)

	if err != nil {
		_ = ctx.Error(err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"success": true, "analytics": analytics})
}
