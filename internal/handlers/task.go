package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/monocle-dev/taskboard/internal/apperr"
	"github.com/monocle-dev/taskboard/internal/models"
	"github.com/monocle-dev/taskboard/internal/services"
	"github.com/monocle-dev/taskboard/internal/utils"
)

type CreateTaskRequest struct {
	Title     string                 `json:"title" binding:"required"`
	Priority  string                 `json:"priority" binding:"required"`
	Status    string                 `json:"status"`
	Checklist []models.ChecklistItem `json:"checklist"`
	DueDate   *time.Time             `json:"dueDate"`
	Assignee  string                 `json:"assignee"`
}

// UpdateTaskRequest mirrors TaskPatch: omitted and null fields are left alone.
type UpdateTaskRequest struct {
	Title     *string                 `json:"title"`
	Priority  *string                 `json:"priority"`
	Status    *string                 `json:"status"`
	Checklist *[]models.ChecklistItem `json:"checklist"`
	DueDate   *time.Time              `json:"dueDate"`
	Assignee  *string                 `json:"assignee"`
}

type UpdateChecklistItemRequest struct {
	Completed *bool `json:"completed" binding:"required"`
}

type ShareBoardRequest struct {
	Email string `json:"email" binding:"required,email"`
}

func (h *Handler) CreateTask(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		_ = ctx.Error(err)
		return
	}

	var req CreateTaskRequest

	if err := ctx.ShouldBindJSON(&req); err != nil {
		_ = ctx.Error(apperr.Validation("Title and priority are required"))
		return
	}

	task, err := h.Tasks.CreateTask(ctx.Request.Context(), userID, services.CreateTaskInput{
		Title:     req.Title,
		Priority:  req.Priority,
		Status:    req.Status,
		Checklist: req.Checklist,
		DueDate:   req.DueDate,
		Assignee:  req.Assignee,
	})

	if err != nil {
		_ = ctx.Error(err)
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "Task created successfully",
		"task":    task,
	})
}

func (h *Handler) GetUserTasks(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		_ = ctx.Error(err)
		return
	}

	tasks, err := h.Tasks.ListTasks(ctx.Request.Context(), userID, services.TaskFilter{
		Status:   ctx.Query("status"),
		Priority: ctx.Query("priority"),
		Period:   ctx.Query("filter"),
	})

	if err != nil {
		_ = ctx.Error(err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"success": true, "tasks": tasks})
}

func (h *Handler) GetTask(ctx *gin.Context) {
	taskID, err := utils.GetTaskID(ctx)

	if err != nil {
		_ = ctx.Error(err)
		return
	}

	task, err := h.Tasks.GetTask(ctx.Request.Context(), taskID)

	if err != nil {
		_ = ctx.Error(err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"success": true, "task": task})
}

func (h *Handler) UpdateTask(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		_ = ctx.Error(err)
		return
	}

	taskID, err := utils.GetTaskID(ctx)

	if err != nil {
		_ = ctx.Error(err)
		return
	}

	var req UpdateTaskRequest

	if err := ctx.ShouldBindJSON(&req); err != nil {
		_ = ctx.Error(apperr.Validation("Invalid request"))
		return
	}

	task, err := h.Tasks.UpdateTask(ctx.Request.Context(), taskID, userID, services.TaskPatch{
		Title:     req.Title,
		Priority:  req.Priority,
		Status:    req.Status,
		Checklist: req.Checklist,
		DueDate:   req.DueDate,
		Assignee:  req.Assignee,
	})

	if err != nil {
		_ = ctx.Error(err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Task updated successfully",
		"task":    task,
	})
}

func (h *Handler) UpdateChecklistItem(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		_ = ctx.Error(err)
		return
	}

	taskID, err := utils.GetTaskID(ctx)

	if err != nil {
		_ = ctx.Error(err)
		return
	}

	itemIndex, err := utils.GetItemIndex(ctx)

	if err != nil {
		_ = ctx.Error(err)
		return
	}

	var req UpdateChecklistItemRequest

	if err := ctx.ShouldBindJSON(&req); err != nil {
		_ = ctx.Error(apperr.Validation("Completed flag is required"))
		return
	}

	task, err := h.Tasks.UpdateChecklistItem(ctx.Request.Context(), taskID, userID, itemIndex, *req.Completed)

	if err != nil {
		_ = ctx.Error(err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Checklist item updated successfully",
		"task":    task,
	})
}

func (h *Handler) DeleteTask(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		_ = ctx.Error(err)
		return
	}

	taskID, err := utils.GetTaskID(ctx)

	if err != nil {
		_ = ctx.Error(err)
		return
	}

	if err := h.Tasks.DeleteTask(ctx.Request.Context(), taskID, userID); err != nil {
		_ = ctx.Error(err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"success": true, "message": "Task deleted successfully"})
}

func (h *Handler) ShareBoard(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		_ = ctx.Error(err)
		return
	}

	var req ShareBoardRequest

	if err := ctx.ShouldBindJSON(&req); err != nil {
		_ = ctx.Error(apperr.Validation("A valid email is required"))
		return
	}

	result, err := h.Tasks.ShareBoard(ctx.Request.Context(), userID, req.Email)

	if err != nil {
		_ = ctx.Error(err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"success":    true,
		"message":    "Board shared successfully",
		"recipient":  result.Recipient,
		"tasksAdded": result.TaskCount,
	})
}

func (h *Handler) GetBoardShares(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		_ = ctx.Error(err)
		return
	}

	shares, err := h.Users.ListBoardShares(ctx.Request.Context(), userID)

	if err != nil {
		_ = ctx.Error(err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"success":    true,
		"sharedTo":   shares.SharedTo,
		"sharedWith": shares.SharedWith,
	})
}

func (h *Handler) GetEmailsForAssign(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		_ = ctx.Error(err)
		return
	}

	emails, err := h.Users.ListAssigneeEmails(ctx.Request.Context(), userID)

	if err != nil {
		_ = ctx.Error(err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"success": true, "emails": emails})
}
