package models

import "time"

// Priority classifies how urgent a task is.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Valid reports whether p is one of the known priority levels.
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// Task represents a single to-do item owned by a user.
type Task struct {
	ID          string     `json:"id"`
	UserID      string     `json:"userId"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Completed   bool       `json:"completed"`
	Priority    Priority   `json:"priority"`
	DueDate     *time.Time `json:"dueDate,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// TaskFilter narrows a task listing. Nil fields impose no constraint.
type TaskFilter struct {
	Completed *bool
	Priority  *Priority
}

// TaskInput carries the fields a caller may set when creating a task.
type TaskInput struct {
	Title       string
	Description string
	Priority    Priority
	DueDate     *time.Time
}

// TaskPatch carries a partial update. Nil pointer fields were absent from
// the request and leave the stored value untouched; the Clear flags record
// an explicit null, which wipes the column.
type TaskPatch struct {
	Title            *string
	Description      *string
	ClearDescription bool
	Completed        *bool
	Priority         *Priority
	DueDate          *time.Time
	ClearDueDate     bool
}

// Empty reports whether the patch changes nothing.
func (p TaskPatch) Empty() bool {
	return p.Title == nil && p.Description == nil && !p.ClearDescription &&
		p.Completed == nil && p.Priority == nil && p.DueDate == nil && !p.ClearDueDate
}

const (
	DefaultPageLimit = 10
	MaxPageLimit     = 100
)

// ClampPage snaps an out-of-range page number to the first page.
func ClampPage(page int) int {
	if page < 1 {
		return 1
	}
	return page
}

// ClampLimit snaps an out-of-range page size into [1, MaxPageLimit].
// A non-positive limit falls back to DefaultPageLimit.
func ClampLimit(limit int) int {
	if limit < 1 {
		return DefaultPageLimit
	}
	if limit > MaxPageLimit {
		return MaxPageLimit
	}
	return limit
}
