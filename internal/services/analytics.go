package services

import (
	"context"
	"fmt"

	"github.com/monocle-dev/taskboard/internal/apperr"
	"github.com/monocle-dev/taskboard/internal/models"
	"github.com/monocle-dev/taskboard/internal/types"
)

// GetUserAnalytics counts the user's visible tasks by status, by priority and
// by whether a due date is set.
func (s *TaskService) GetUserAnalytics(ctx context.Context, userID uint) (types.Analytics, error) {
	if s.analytics != nil {
		cached, ok, err := s.analytics.Get(ctx, userID)
		if err != nil {
			s.logger.WithError(err).WithField("user_id", userID).Warn("read analytics cache")
		} else if ok {
			return cached, nil
		}
	}

	var tasks []models.Task
	err := s.db.WithContext(ctx).Model(&models.Task{}).
		Select("tasks.id", "tasks.status", "tasks.priority", "tasks.due_date").
		Joins("JOIN task_visibilities ON task_visibilities.task_id = tasks.id").
		Where("task_visibilities.user_id = ?", userID).
		Find(&tasks).Error
	if err != nil {
		return types.Analytics{}, apperr.Internal(fmt.Errorf("load analytics tasks: %w", err))
	}

	analytics := aggregate(tasks)

	if s.analytics != nil {
		if err := s.analytics.Set(ctx, userID, analytics); err != nil {
			s.logger.WithError(err).WithField("user_id", userID).Warn("write analytics cache")
		}
	}

	return analytics, nil
}

func aggregate(tasks []models.Task) types.Analytics {
	var a types.Analytics
	for _, task := range tasks {
		switch task.Status {
		case models.StatusBacklog:
			a.BacklogCount++
		case models.StatusToDo:
			a.TodoCount++
		case models.StatusInProgress:
			a.InProgressCount++
		case models.StatusDone:
			a.CompletedCount++
		}

		switch task.Priority {
		case models.PriorityLow:
			a.LowPriorityCount++
		case models.PriorityModerate:
			a.ModeratePriorityCount++
		case models.PriorityHigh:
			a.HighPriorityCount++
		}

		if task.DueDate != nil {
			a.DueDateCount++
		}
	}
	return a
}
