package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/monocle-dev/taskboard/internal/apperr"
	"github.com/monocle-dev/taskboard/internal/models"
	"github.com/monocle-dev/taskboard/internal/types"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	PeriodToday = "today"
	PeriodWeek  = "week"
	PeriodMonth = "month"
)

type TaskService struct {
	db        *gorm.DB
	logger    *log.Logger
	notifier  RefreshNotifier
	analytics AnalyticsStore
	now       func() time.Time
}

// NewTaskService wires the task operations. notifier and analytics may be nil.
func NewTaskService(db *gorm.DB, logger *log.Logger, notifier RefreshNotifier, analytics AnalyticsStore) *TaskService {
	return &TaskService{
		db:        db,
		logger:    defaultLogger(logger),
		notifier:  notifier,
		analytics: analytics,
		now:       time.Now,
	}
}

type CreateTaskInput struct {
	Title     string
	Priority  string
	Status    string
	Checklist []models.ChecklistItem
	DueDate   *time.Time
	Assignee  string
}

// TaskPatch carries a partial update. A nil field leaves the stored value
// unchanged, a non-nil one overwrites it. An empty Assignee unassigns.
type TaskPatch struct {
	Title     *string
	Priority  *string
	Status    *string
	Checklist *[]models.ChecklistItem
	DueDate   *time.Time
	Assignee  *string
}

func (p TaskPatch) empty() bool {
	return p.Title == nil && p.Priority == nil && p.Status == nil && p.Checklist == nil && p.DueDate == nil && p.Assignee == nil
}

type TaskFilter struct {
	Status   string
	Priority string
	Period   string
}

func (s *TaskService) CreateTask(ctx context.Context, creatorID uint, input CreateTaskInput) (resp types.TaskResponse, err error) {
	ctx, span := startSpan(ctx, "TaskService.CreateTask", trace.WithAttributes(
		attribute.Int64("taskboard.creator_id", int64(creatorID)),
	))
	defer func() { endSpan(span, err) }()

	title := strings.TrimSpace(input.Title)
	if title == "" || input.Priority == "" {
		return types.TaskResponse{}, apperr.Validation("Title and Priority are required")
	}
	if !models.IsValidPriority(input.Priority) {
		return types.TaskResponse{}, apperr.Validation("Invalid task priority")
	}

	status := input.Status
	if status == "" {
		status = models.StatusToDo
	}
	if !models.IsValidStatus(status) {
		return types.TaskResponse{}, apperr.Validation("Invalid task status")
	}

	if err := validateChecklist(input.Checklist); err != nil {
		return types.TaskResponse{}, err
	}

	task := models.Task{
		Title:     title,
		Priority:  input.Priority,
		Status:    status,
		Checklist: checklistOf(input.Checklist),
		DueDate:   input.DueDate,
		CreatedBy: creatorID,
	}

	var audience []uint
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		owners := []uint{creatorID}
		if input.Assignee != "" {
			assigneeID, err := resolveAssignee(tx, input.Assignee)
			if err != nil {
				return err
			}
			task.AssigneeID = &assigneeID
			owners = append(owners, assigneeID)
		}

		locked, err := lockOwners(tx, owners...)
		if err != nil {
			return err
		}
		if !containsUser(locked, creatorID) {
			return apperr.NotFound("User not found")
		}

		if err := tx.Create(&task).Error; err != nil {
			return fmt.Errorf("create task: %w", err)
		}

		if err := fanOutTask(tx, &task); err != nil {
			return err
		}

		var aerr error
		audience, aerr = taskAudience(tx, task.ID)
		return aerr
	})
	if err != nil {
		return types.TaskResponse{}, wrap(err)
	}

	span.SetAttributes(
		attribute.Int64("taskboard.task_id", int64(task.ID)),
		attribute.Int("taskboard.audience", len(audience)),
	)
	s.logger.WithFields(log.Fields{"task_id": task.ID, "created_by": creatorID, "audience": len(audience)}).Info("task created")

	s.publish(ctx, audience, task.ID, "task created")

	return s.single(ctx, task)
}

// ListTasks returns every task in the user's visible set, newest first.
func (s *TaskService) ListTasks(ctx context.Context, userID uint, filter TaskFilter) ([]types.TaskResponse, error) {
	q := s.db.WithContext(ctx).Model(&models.Task{}).
		Joins("JOIN task_visibilities ON task_visibilities.task_id = tasks.id").
		Where("task_visibilities.user_id = ?", userID)

	if filter.Status != "" {
		if !models.IsValidStatus(filter.Status) {
			return nil, apperr.Validation("Invalid task status")
		}
		q = q.Where("tasks.status = ?", filter.Status)
	}

	if filter.Priority != "" {
		if !models.IsValidPriority(filter.Priority) {
			return nil, apperr.Validation("Invalid task priority")
		}
		q = q.Where("tasks.priority = ?", filter.Priority)
	}

	if filter.Period != "" {
		since, err := periodStart(s.now(), filter.Period)
		if err != nil {
			return nil, err
		}
		q = q.Where("tasks.created_at >= ?", since)
	}

	var tasks []models.Task
	if err := q.Order("tasks.created_at DESC").Order("tasks.id DESC").Find(&tasks).Error; err != nil {
		return nil, apperr.Internal(fmt.Errorf("list tasks: %w", err))
	}

	return s.hydrate(ctx, tasks)
}

func (s *TaskService) GetTask(ctx context.Context, taskID uint) (types.TaskResponse, error) {
	var task models.Task
	if err := s.db.WithContext(ctx).First(&task, taskID).Error; err != nil {
		return types.TaskResponse{}, notFoundOr(err, "Task not found")
	}
	return s.single(ctx, task)
}

func (s *TaskService) UpdateTask(ctx context.Context, taskID, userID uint, patch TaskPatch) (resp types.TaskResponse, err error) {
	ctx, span := startSpan(ctx, "TaskService.UpdateTask", trace.WithAttributes(
		attribute.Int64("taskboard.task_id", int64(taskID)),
		attribute.Int64("taskboard.user_id", int64(userID)),
	))
	defer func() { endSpan(span, err) }()

	var (
		task     models.Task
		audience []uint
	)
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := loadVisibleTask(tx, taskID, userID, &task); err != nil {
			return err
		}

		if patch.empty() {
			return nil
		}

		if err := validatePatch(patch); err != nil {
			return err
		}

		assigneeChanged := false
		if patch.Assignee != nil {
			var next *uint
			if strings.TrimSpace(*patch.Assignee) != "" {
				id, err := resolveAssignee(tx, *patch.Assignee)
				if err != nil {
					return err
				}
				next = &id
			}
			assigneeChanged = !sameID(task.AssigneeID, next)
			task.AssigneeID = next
		}

		if assigneeChanged {
			owners := []uint{task.CreatedBy}
			if task.AssigneeID != nil {
				owners = append(owners, *task.AssigneeID)
			}
			if _, err := lockOwners(tx, owners...); err != nil {
				return err
			}
		}

		applyPatch(&task, patch)

		if err := tx.Save(&task).Error; err != nil {
			return fmt.Errorf("update task: %w", err)
		}

		if assigneeChanged {
			if err := fanOutTask(tx, &task); err != nil {
				return err
			}
		}

		var err error
		audience, err = taskAudience(tx, task.ID)
		return err
	})
	if err != nil {
		return types.TaskResponse{}, wrap(err)
	}

	if !patch.empty() {
		s.logger.WithFields(log.Fields{"task_id": task.ID, "user_id": userID}).Info("task updated")
		s.publish(ctx, audience, task.ID, "task updated")
	}

	return s.single(ctx, task)
}

// UpdateChecklistItem flips one checklist entry. An index outside the
// checklist fails before anything is written.
func (s *TaskService) UpdateChecklistItem(ctx context.Context, taskID, userID uint, itemIndex int, completed bool) (types.TaskResponse, error) {
	var (
		task     models.Task
		audience []uint
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := loadVisibleTask(tx, taskID, userID, &task); err != nil {
			return err
		}

		if itemIndex < 0 || itemIndex >= len(task.Checklist) {
			return apperr.NotFound("Checklist item not found")
		}

		items := make(datatypes.JSONSlice[models.ChecklistItem], len(task.Checklist))
		copy(items, task.Checklist)
		items[itemIndex].Completed = completed
		task.Checklist = items

		if err := tx.Save(&task).Error; err != nil {
			return fmt.Errorf("update checklist item: %w", err)
		}

		var err error
		audience, err = taskAudience(tx, task.ID)
		return err
	})
	if err != nil {
		return types.TaskResponse{}, wrap(err)
	}

	s.publish(ctx, audience, task.ID, "checklist updated")

	return s.single(ctx, task)
}

// DeleteTask is allowed for the creator, the assignee and board members. The
// task row and every reference to it go in the same transaction.
func (s *TaskService) DeleteTask(ctx context.Context, taskID, userID uint) (err error) {
	ctx, span := startSpan(ctx, "TaskService.DeleteTask", trace.WithAttributes(
		attribute.Int64("taskboard.task_id", int64(taskID)),
		attribute.Int64("taskboard.user_id", int64(userID)),
	))
	defer func() { endSpan(span, err) }()

	var audience []uint
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var task models.Task
		if err := tx.First(&task, taskID).Error; err != nil {
			return notFoundOr(err, "Task not found")
		}

		allowed := task.CreatedBy == userID || (task.AssigneeID != nil && *task.AssigneeID == userID)
		if !allowed {
			member, err := isBoardMember(tx, task.ID, userID)
			if err != nil {
				return err
			}
			allowed = member
		}
		if !allowed {
			return apperr.Authorization("Unauthorized to delete this task")
		}

		var err error
		if audience, err = taskAudience(tx, task.ID); err != nil {
			return err
		}

		if err := tx.Where("task_id = ?", task.ID).Delete(&models.TaskVisibility{}).Error; err != nil {
			return fmt.Errorf("prune visibility: %w", err)
		}
		if err := tx.Where("task_id = ?", task.ID).Delete(&models.TaskBoardMember{}).Error; err != nil {
			return fmt.Errorf("prune board members: %w", err)
		}
		if err := tx.Delete(&task).Error; err != nil {
			return fmt.Errorf("delete task: %w", err)
		}
		return nil
	})
	if err != nil {
		return wrap(err)
	}

	span.SetAttributes(attribute.Int("taskboard.audience", len(audience)))
	s.logger.WithFields(log.Fields{"task_id": taskID, "user_id": userID, "audience": len(audience)}).Info("task deleted")

	s.publish(ctx, audience, taskID, "task deleted")
	return nil
}

func loadVisibleTask(tx *gorm.DB, taskID, userID uint, task *models.Task) error {
	if err := tx.First(task, taskID).Error; err != nil {
		return notFoundOr(err, "Task not found")
	}
	visible, err := canSee(tx, task, userID)
	if err != nil {
		return err
	}
	if !visible {
		return apperr.Authorization("Unauthorized to modify this task")
	}
	return nil
}

func resolveAssignee(tx *gorm.DB, email string) (uint, error) {
	var user models.User
	if err := tx.Select("id").Where("email = ?", normalizeEmail(email)).First(&user).Error; err != nil {
		return 0, notFoundOr(err, "Assignee not found")
	}
	return user.ID, nil
}

func applyPatch(task *models.Task, patch TaskPatch) {
	if patch.Title != nil {
		task.Title = strings.TrimSpace(*patch.Title)
	}
	if patch.Priority != nil {
		task.Priority = *patch.Priority
	}
	if patch.Status != nil {
		task.Status = *patch.Status
	}
	if patch.Checklist != nil {
		task.Checklist = checklistOf(*patch.Checklist)
	}
	if patch.DueDate != nil {
		due := *patch.DueDate
		task.DueDate = &due
	}
}

// validatePatch runs after the task is loaded so a missing or hidden task is
// reported before a bad field.
func validatePatch(patch TaskPatch) error {
	if patch.Status != nil && !models.IsValidStatus(*patch.Status) {
		return apperr.Validation("Invalid task status")
	}
	if patch.Priority != nil && !models.IsValidPriority(*patch.Priority) {
		return apperr.Validation("Invalid task priority")
	}
	if patch.Title != nil && strings.TrimSpace(*patch.Title) == "" {
		return apperr.Validation("Title cannot be empty")
	}
	if patch.Checklist != nil {
		return validateChecklist(*patch.Checklist)
	}
	return nil
}

func validateChecklist(items []models.ChecklistItem) error {
	for i, item := range items {
		if strings.TrimSpace(item.Text) == "" {
			return apperr.Validation(fmt.Sprintf("Checklist item %d needs text", i))
		}
	}
	return nil
}

func checklistOf(items []models.ChecklistItem) datatypes.JSONSlice[models.ChecklistItem] {
	out := make(datatypes.JSONSlice[models.ChecklistItem], len(items))
	copy(out, items)
	return out
}

func containsUser(users []models.User, id uint) bool {
	for _, user := range users {
		if user.ID == id {
			return true
		}
	}
	return false
}

func sameID(a, b *uint) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func periodStart(now time.Time, period string) (time.Time, error) {
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	switch period {
	case PeriodToday:
		return startOfDay, nil
	case PeriodWeek:
		return startOfDay.AddDate(0, 0, -7), nil
	case PeriodMonth:
		return startOfDay.AddDate(0, -1, 0), nil
	default:
		return time.Time{}, apperr.Validation("Invalid filter, expected today, week or month")
	}
}

func (s *TaskService) single(ctx context.Context, task models.Task) (types.TaskResponse, error) {
	out, err := s.hydrate(ctx, []models.Task{task})
	if err != nil {
		return types.TaskResponse{}, err
	}
	return out[0], nil
}

// hydrate resolves assignee e-mails and board members for a page of tasks
// with one query each.
func (s *TaskService) hydrate(ctx context.Context, tasks []models.Task) ([]types.TaskResponse, error) {
	out := make([]types.TaskResponse, 0, len(tasks))
	if len(tasks) == 0 {
		return out, nil
	}

	taskIDs := make([]uint, 0, len(tasks))
	var assigneeIDs []uint
	for _, task := range tasks {
		taskIDs = append(taskIDs, task.ID)
		if task.AssigneeID != nil {
			assigneeIDs = append(assigneeIDs, *task.AssigneeID)
		}
	}

	emails := make(map[uint]string)
	if len(assigneeIDs) > 0 {
		var users []models.User
		if err := s.db.WithContext(ctx).Select("id", "email").Where("id IN ?", uniqueIDs(assigneeIDs)).Find(&users).Error; err != nil {
			return nil, apperr.Internal(fmt.Errorf("load assignees: %w", err))
		}
		for _, u := range users {
			emails[u.ID] = u.Email
		}
	}

	var members []models.TaskBoardMember
	if err := s.db.WithContext(ctx).Where("task_id IN ?", taskIDs).Order("task_id").Order("user_id").Find(&members).Error; err != nil {
		return nil, apperr.Internal(fmt.Errorf("load board members: %w", err))
	}
	byTask := make(map[uint][]uint, len(tasks))
	for _, m := range members {
		byTask[m.TaskID] = append(byTask[m.TaskID], m.UserID)
	}

	for _, task := range tasks {
		out = append(out, toTaskResponse(task, emails, byTask[task.ID]))
	}
	return out, nil
}

func toTaskResponse(task models.Task, emails map[uint]string, members []uint) types.TaskResponse {
	checklist := make([]types.ChecklistItemResponse, 0, len(task.Checklist))
	for _, item := range task.Checklist {
		checklist = append(checklist, types.ChecklistItemResponse{Text: item.Text, Completed: item.Completed})
	}

	var assignee *string
	if task.AssigneeID != nil {
		if email, ok := emails[*task.AssigneeID]; ok {
			assignee = &email
		}
	}

	if members == nil {
		members = []uint{}
	}

	return types.TaskResponse{
		ID:           task.ID,
		Title:        task.Title,
		Priority:     task.Priority,
		Status:       task.Status,
		Checklist:    checklist,
		DueDate:      task.DueDate,
		Assignee:     assignee,
		CreatedBy:    task.CreatedBy,
		AddedToBoard: members,
		CreatedAt:    task.CreatedAt,
		UpdatedAt:    task.UpdatedAt,
	}
}
