package models

import "time"

// TaskBoardMember records a user who gained visibility of a task through a
// shared board. Rows are only ever added, except when the task is deleted.
type TaskBoardMember struct {
	TaskID    uint `gorm:"primaryKey;autoIncrement:false"`
	UserID    uint `gorm:"primaryKey;autoIncrement:false;index"`
	CreatedAt time.Time
}
