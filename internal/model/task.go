package model

import "time"

// Task statuses, in board order.
const (
	StatusPending     = "pending"
	StatusOnHold      = "onHold"
	StatusInProgress  = "inProgress"
	StatusUnderReview = "underReview"
	StatusCompleted   = "completed"
)

// ValidStatus reports whether s is one of the known task statuses.
func ValidStatus(s string) bool {
	switch s {
	case StatusPending, StatusOnHold, StatusInProgress, StatusUnderReview, StatusCompleted:
		return true
	}
	return false
}

type Task struct {
	ID          int64          `json:"id"`
	ProjectID   int64          `json:"project_id"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Status      string         `json:"status"`
	CompletedBy []StatusChange `json:"completed_by,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// StatusChange records who moved a task to a given status.
type StatusChange struct {
	ID        int64     `json:"id"`
	TaskID    int64     `json:"task_id"`
	UserID    int64     `json:"user_id"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}
