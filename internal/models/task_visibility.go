package models

import "time"

// TaskVisibility is the materialized visible-task set: one row per task a
// user may list.
type TaskVisibility struct {
	UserID    uint `gorm:"primaryKey;autoIncrement:false"`
	TaskID    uint `gorm:"primaryKey;autoIncrement:false;index"`
	CreatedAt time.Time
}
