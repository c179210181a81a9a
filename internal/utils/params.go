package utils

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/monocle-dev/taskboard/internal/apperr"
)

func GetTaskID(ctx *gin.Context) (uint, error) {
	taskIDStr := ctx.Param("task_id")

	if taskIDStr == "" {
		return 0, apperr.Validation("Task ID not found")
	}

	taskID, err := strconv.ParseUint(taskIDStr, 10, 32)

	if err != nil || taskID == 0 {
		return 0, apperr.Validation("Invalid Task ID")
	}

	return uint(taskID), nil
}

// GetItemIndex parses the checklist position. Range checks, negative values
// included, belong to the task service, which reports them as not found.
func GetItemIndex(ctx *gin.Context) (int, error) {
	indexStr := ctx.Param("item_index")

	if indexStr == "" {
		return 0, apperr.Validation("Item index not found")
	}

	index, err := strconv.Atoi(indexStr)

	if err != nil {
		return 0, apperr.Validation("Invalid item index")
	}

	return index, nil
}
