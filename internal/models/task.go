package models

import (
	"time"

	"gorm.io/datatypes"
)

const (
	PriorityHigh     = "HIGH"
	PriorityModerate = "MODERATE"
	PriorityLow      = "LOW"
)

const (
	StatusBacklog    = "Backlog"
	StatusInProgress = "In progress"
	StatusToDo       = "To do"
	StatusDone       = "Done"
)

var (
	Priorities = []string{PriorityHigh, PriorityModerate, PriorityLow}
	Statuses   = []string{StatusBacklog, StatusInProgress, StatusToDo, StatusDone}
)

type ChecklistItem struct {
	Text      string `json:"text"`
	Completed bool   `json:"completed"`
}

type Task struct {
	BaseModel

	Title      string                             `gorm:"not null"`
	Priority   string                             `gorm:"not null;index"`
	Status     string                             `gorm:"not null;default:'To do';index"`
	Checklist  datatypes.JSONSlice[ChecklistItem] `gorm:"not null"`
	DueDate    *time.Time
	AssigneeID *uint `gorm:"index"`
	CreatedBy  uint  `gorm:"not null;index"`

	// Relationships
	Assignee     *User             `gorm:"foreignKey:AssigneeID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL"`
	BoardMembers []TaskBoardMember `gorm:"foreignKey:TaskID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	Visibilities []TaskVisibility  `gorm:"foreignKey:TaskID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

func IsValidPriority(priority string) bool {
	for _, p := range Priorities {
		if p == priority {
			return true
		}
	}
	return false
}

func IsValidStatus(status string) bool {
	for _, s := range Statuses {
		if s == status {
			return true
		}
	}
	return false
}
