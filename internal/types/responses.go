package types

import "time"

type UserResponse struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type ChecklistItemResponse struct {
	Text      string `json:"text"`
	Completed bool   `json:"completed"`
}

type TaskResponse struct {
	ID           uint                    `json:"id"`
	Title        string                  `json:"title"`
	Priority     string                  `json:"priority"`
	Status       string                  `json:"status"`
	Checklist    []ChecklistItemResponse `json:"checklist"`
	DueDate      *time.Time              `json:"dueDate"`
	Assignee     *string                 `json:"assignee"`
	CreatedBy    uint                    `json:"createdBy"`
	AddedToBoard []uint                  `json:"addedToBoard"`
	CreatedAt    time.Time               `json:"createdAt"`
	UpdatedAt    time.Time               `json:"updatedAt"`
}

type Analytics struct {
	BacklogCount          int `json:"backlogCount"`
	TodoCount             int `json:"todoCount"`
	InProgressCount       int `json:"inProgressCount"`
	CompletedCount        int `json:"completedCount"`
	LowPriorityCount      int `json:"lowPriorityCount"`
	ModeratePriorityCount int `json:"moderatePriorityCount"`
	HighPriorityCount     int `json:"highPriorityCount"`
	DueDateCount          int `json:"dueDateCount"`
}
