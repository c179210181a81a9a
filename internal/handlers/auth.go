package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/monocle-dev/taskboard/internal/apperr"
	"github.com/monocle-dev/taskboard/internal/services"
	"github.com/monocle-dev/taskboard/internal/utils"
)

type CreateUserRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8,max=72"`
}

type LoginUserRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

const tokenCookie = "token"

func (h *Handler) CreateUser(ctx *gin.Context) {
	var req CreateUserRequest

	if err := ctx.ShouldBindJSON(&req); err != nil {
		_ = ctx.Error(apperr.Validation("Name, valid email and a password of at least 8 characters are required"))
		return
	}

	user, err := h.Users.Register(ctx.Request.Context(), services.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})

	if err != nil {
		_ = ctx.Error(err)
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "User registered successfully",
		"user":    user,
	})
}

func (h *Handler) LoginUser(ctx *gin.Context) {
	var req LoginUserRequest

	if err := ctx.ShouldBindJSON(&req); err != nil {
		_ = ctx.Error(apperr.Validation("Email and password are required"))
		return
	}

	result, err := h.Users.Login(ctx.Request.Context(), req.Email, req.Password)

	if err != nil {
		_ = ctx.Error(err)
		return
	}

	h.setTokenCookie(ctx, result.Token, int(time.Until(result.ExpiresAt).Seconds()))

	ctx.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Logged in successfully",
		"user":    result.User,
		"token":   result.Token,
	})
}

func (h *Handler) Me(ctx *gin.Context) {
	currentUser, err := utils.GetCurrentUser(ctx)

	if err != nil {
		_ = ctx.Error(err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"success": true, "user": currentUser})
}

func (h *Handler) LogoutUser(ctx *gin.Context) {
	claims, err := utils.GetClaims(ctx)

	if err != nil {
		_ = ctx.Error(err)
		return
	}

	if err := h.Users.Logout(ctx.Request.Context(), claims); err != nil {
		_ = ctx.Error(err)
		return
	}

	h.setTokenCookie(ctx, "", -1)

	ctx.JSON(http.StatusOK, gin.H{"success": true, "message": "Logged out successfully"})
}

func (h *Handler) setTokenCookie(ctx *gin.Context, value string, maxAge int) {
	http.SetCookie(ctx.Writer, &http.Cookie{
		Name:     tokenCookie,
		Value:    value,
		Path:     "/",
		Domain:   h.Domain,
		MaxAge:   maxAge,
		Secure:   true,
		HttpOnly: true,
		SameSite: http.SameSiteNoneMode,
	})
}
