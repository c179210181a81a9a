package services

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/monocle-dev/taskboard/internal/apperr"
	"github.com/monocle-dev/taskboard/internal/models"
	"github.com/monocle-dev/taskboard/internal/types"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const insertBatchSize = 500

type ShareResult struct {
	Recipient types.UserResponse
	TaskCount int
}

// ShareBoard gives the recipient every task the owner created or is assigned,
// and records the owner -> recipient edge so tasks created later fan out too.
// Sharing twice with the same recipient leaves the same state as once.
func (s *TaskService) ShareBoard(ctx context.Context, ownerID uint, recipientEmail string) (result ShareResult, err error) {
	ctx, span := startSpan(ctx, "TaskService.ShareBoard", trace.WithAttributes(
		attribute.Int64("taskboard.owner_id", int64(ownerID)),
	))
	defer func() { endSpan(span, err) }()

	email := normalizeEmail(recipientEmail)
	if email == "" {
		return ShareResult{}, apperr.Validation("Email is required")
	}

	var recipient models.User
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&recipient).Error; err != nil {
		return ShareResult{}, notFoundOr(err, "User not found")
	}

	if recipient.ID == ownerID {
		return ShareResult{}, apperr.Validation("Cannot share board with yourself")
	}

	var taskIDs []uint
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := lockOwners(tx, ownerID); err != nil {
			return err
		}

		edge := models.BoardShare{OwnerID: ownerID, RecipientID: recipient.ID}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&edge).Error; err != nil {
			return fmt.Errorf("record share edge: %w", err)
		}

		ids, err := ownerTaskIDs(tx, ownerID)
		if err != nil {
			return err
		}
		taskIDs = ids

		return propagate(tx, []uint{ownerID}, []uint{recipient.ID}, taskIDs)
	})
	if err != nil {
		return ShareResult{}, wrap(err)
	}

	span.SetAttributes(
		attribute.Int64("taskboard.recipient_id", int64(recipient.ID)),
		attribute.Int("taskboard.shared_tasks", len(taskIDs)),
	)

	s.logger.WithFields(log.Fields{
		"owner_id":     ownerID,
		"recipient_id": recipient.ID,
		"tasks":        len(taskIDs),
	}).Info("board shared")

	s.publish(ctx, []uint{ownerID, recipient.ID}, 0, "board shared")

	return ShareResult{
		Recipient: types.UserResponse{ID: recipient.ID, Name: recipient.Name, Email: recipient.Email},
		TaskCount: len(taskIDs),
	}, nil
}

// fanOutTask makes a single task visible to everyone whose board should show
// it: its creator and assignee, plus everyone either of them shared a board
// to.
func fanOutTask(tx *gorm.DB, task *models.Task) error {
	owners := []uint{task.CreatedBy}
	if task.AssigneeID != nil && *task.AssigneeID != task.CreatedBy {
		owners = append(owners, *task.AssigneeID)
	}

	var recipients []uint
	for _, owner := range owners {
		ids, err := sharedTo(tx, owner)
		if err != nil {
			return err
		}
		recipients = append(recipients, ids...)
	}

	return propagate(tx, owners, recipients, []uint{task.ID})
}

// lockOwners takes row locks on the given users in id order. ShareBoard reads
// an owner's tasks and writes share edges while fan-out reads share edges and
// writes tasks, so both hold the owner's lock until commit.
func lockOwners(tx *gorm.DB, ids ...uint) ([]models.User, error) {
	var users []models.User
	if err := lockOwnersQuery(tx, ids, &users).Error; err != nil {
		return nil, fmt.Errorf("lock users: %w", err)
	}
	return users, nil
}

func lockOwnersQuery(tx *gorm.DB, ids []uint, dest *[]models.User) *gorm.DB {
	sorted := uniqueIDs(append([]uint(nil), ids...))
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	return tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Select("id").
		Where("id IN ?", sorted).
		Order("id").
		Find(dest)
}

// propagate is the single write path for visibility. It grants taskIDs to
// owners and recipients, and records recipients as board members of each
// task. Share-time and create-time fan-out both end here.
func propagate(tx *gorm.DB, owners, recipients, taskIDs []uint) error {
	if len(taskIDs) == 0 {
		return nil
	}

	if err := grantVisibility(tx, append(append([]uint{}, owners...), recipients...), taskIDs); err != nil {
		return err
	}

	return addBoardMembers(tx, recipients, taskIDs)
}

func grantVisibility(tx *gorm.DB, userIDs, taskIDs []uint) error {
	userIDs = uniqueIDs(userIDs)
	taskIDs = uniqueIDs(taskIDs)

	rows := make([]models.TaskVisibility, 0, len(userIDs)*len(taskIDs))
	for _, userID := range userIDs {
		for _, taskID := range taskIDs {
			rows = append(rows, models.TaskVisibility{UserID: userID, TaskID: taskID})
		}
	}
	if len(rows) == 0 {
		return nil
	}

	if err := tx.Clauses(clause.OnConflict{DoNothing: true}).CreateInBatches(&rows, insertBatchSize).Error; err != nil {
		return fmt.Errorf("grant visibility: %w", err)
	}
	return nil
}

func addBoardMembers(tx *gorm.DB, userIDs, taskIDs []uint) error {
	userIDs = uniqueIDs(userIDs)
	taskIDs = uniqueIDs(taskIDs)

	rows := make([]models.TaskBoardMember, 0, len(userIDs)*len(taskIDs))
	for _, taskID := range taskIDs {
		for _, userID := range userIDs {
			rows = append(rows, models.TaskBoardMember{TaskID: taskID, UserID: userID})
		}
	}
	if len(rows) == 0 {
		return nil
	}

	if err := tx.Clauses(clause.OnConflict{DoNothing: true}).CreateInBatches(&rows, insertBatchSize).Error; err != nil {
		return fmt.Errorf("add board members: %w", err)
	}
	return nil
}

func sharedTo(tx *gorm.DB, ownerID uint) ([]uint, error) {
	var ids []uint
	if err := tx.Model(&models.BoardShare{}).Where("owner_id = ?", ownerID).Order("recipient_id").Pluck("recipient_id", &ids).Error; err != nil {
		return nil, fmt.Errorf("load shared-to users: %w", err)
	}
	return ids, nil
}

func sharedWith(tx *gorm.DB, recipientID uint) ([]uint, error) {
	var ids []uint
	if err := tx.Model(&models.BoardShare{}).Where("recipient_id = ?", recipientID).Order("owner_id").Pluck("owner_id", &ids).Error; err != nil {
		return nil, fmt.Errorf("load shared-with users: %w", err)
	}
	return ids, nil
}

// ownerTaskIDs is the owner's task set: tasks they created or are assigned.
func ownerTaskIDs(tx *gorm.DB, ownerID uint) ([]uint, error) {
	var ids []uint
	if err := tx.Model(&models.Task{}).
		Where("created_by = ? OR assignee_id = ?", ownerID, ownerID).
		Order("id").
		Pluck("id", &ids).Error; err != nil {
		return nil, fmt.Errorf("load owner tasks: %w", err)
	}
	return ids, nil
}

func taskAudience(tx *gorm.DB, taskID uint) ([]uint, error) {
	var ids []uint
	if err := tx.Model(&models.TaskVisibility{}).Where("task_id = ?", taskID).Order("user_id").Pluck("user_id", &ids).Error; err != nil {
		return nil, fmt.Errorf("load task audience: %w", err)
	}
	return ids, nil
}

func canSee(tx *gorm.DB, task *models.Task, userID uint) (bool, error) {
	if task.CreatedBy == userID || (task.AssigneeID != nil && *task.AssigneeID == userID) {
		return true, nil
	}
	var count int64
	if err := tx.Model(&models.TaskVisibility{}).Where("user_id = ? AND task_id = ?", userID, task.ID).Count(&count).Error; err != nil {
		return false, fmt.Errorf("check visibility: %w", err)
	}
	return count > 0, nil
}

func isBoardMember(tx *gorm.DB, taskID, userID uint) (bool, error) {
	var count int64
	if err := tx.Model(&models.TaskBoardMember{}).Where("task_id = ? AND user_id = ?", taskID, userID).Count(&count).Error; err != nil {
		return false, fmt.Errorf("check board membership: %w", err)
	}
	return count > 0, nil
}

// publish runs after commit. Failures are logged and never undo the write.
func (s *TaskService) publish(ctx context.Context, audience []uint, taskID uint, reason string) {
	audience = uniqueIDs(audience)
	if len(audience) == 0 {
		return
	}
	if s.analytics != nil {
		if err := s.analytics.Invalidate(ctx, audience...); err != nil {
			s.logger.WithError(err).WithField("users", audience).Warn("invalidate analytics cache")
		}
	}
	if s.notifier != nil {
		s.notifier.NotifyRefresh(audience, taskID, reason)
	}
}

func uniqueIDs(ids []uint) []uint {
	if len(ids) < 2 {
		return ids
	}
	seen := make(map[uint]bool, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
