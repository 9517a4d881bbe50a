package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/isdelr/taskdeck-be/internal/models"
)

// TaskServiceProvider defines the interface for task persistence and
// querying. Every operation is scoped to an owner: no call can see or touch
// another user's tasks, regardless of the ids or filters it passes.
type TaskServiceProvider interface {
	List(ctx context.Context, ownerID string, filter models.TaskFilter, page, limit int) ([]models.Task, int, error)
	Get(ctx context.Context, id, ownerID string) (models.Task, error)
	Create(ctx context.Context, ownerID string, input models.TaskInput) (models.Task, error)
	Update(ctx context.Context, id, ownerID string, patch models.TaskPatch) (models.Task, error)
	Delete(ctx context.Context, id, ownerID string) error
}

// TaskService provides owner-scoped CRUD and query logic for tasks.
type TaskService struct {
	db      *sql.DB
	timeout time.Duration
}

// NewTaskService creates a new TaskService. timeout bounds every store
// operation.
func NewTaskService(db *sql.DB, timeout time.Duration) *TaskService {
	return &TaskService{db: db, timeout: timeout}
}

const taskColumns = "id, user_id, title, description, completed, priority, due_date, created_at, updated_at"

// scanTask is a helper to scan a task from a row or rows object.
func scanTask(scanner interface{ Scan(...interface{}) error }) (models.Task, error) {
	var task models.Task
	var desc sql.NullString
	var due sql.NullTime

	err := scanner.Scan(
		&task.ID, &task.UserID, &task.Title, &desc, &task.Completed,
		&task.Priority, &due, &task.CreatedAt, &task.UpdatedAt,
	)
	if err != nil {
		return task, err
	}

	task.Description = desc.String
	if due.Valid {
		t := due.Time
		task.DueDate = &t
	}
	return task, nil
}

// List returns one page of the owner's tasks matching the filter, plus the
// total count of the filtered set before pagination. Results are ordered by
// creation time descending with the id as a tie-break, so pages never
// reorder between requests. Out-of-range page and limit values are clamped.
func (s *TaskService) List(ctx context.Context, ownerID string, filter models.TaskFilter, page, limit int) ([]models.Task, int, error) {
	page = models.ClampPage(page)
	limit = models.ClampLimit(limit)

	where := []string{"user_id = ?"}
	args := []interface{}{ownerID}
	if filter.Completed != nil {
		where = append(where, "completed = ?")
		args = append(args, *filter.Completed)
	}
	if filter.Priority != nil {
		where = append(where, "priority = ?")
		args = append(args, string(*filter.Priority))
	}
	whereClause := strings.Join(where, " AND ")

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var total int
	row := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM tasks WHERE "+whereClause, args...)
	if err := row.Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count tasks: %w", err)
	}

	query := fmt.Sprintf(
		"SELECT %s FROM tasks WHERE %s ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?",
		taskColumns, whereClause,
	)
	rows, err := s.db.QueryContext(ctx, query, append(args, limit, (page-1)*limit)...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query tasks: %w", err)
	}
	defer rows.Close()

	var tasks []models.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, 0, err
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return tasks, total, nil
}

// Get retrieves a single task owned by ownerID. An id that does not exist
// and an id owned by someone else both return ErrTaskNotFound.
func (s *TaskService) Get(ctx context.Context, id, ownerID string) (models.Task, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	row := s.db.QueryRowContext(ctx,
		"SELECT "+taskColumns+" FROM tasks WHERE id = ? AND user_id = ?", id, ownerID)
	task, err := scanTask(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Task{}, ErrTaskNotFound
		}
		return models.Task{}, err
	}
	return task, nil
}

// Create inserts a new task for ownerID, assigning the id, timestamps and
// defaults (completed=false, priority=medium).
func (s *TaskService) Create(ctx context.Context, ownerID string, input models.TaskInput) (models.Task, error) {
	now := time.Now().UTC()
	task := models.Task{
		ID:          uuid.New().String(),
		UserID:      ownerID,
		Title:       input.Title,
		Description: input.Description,
		Completed:   false,
		Priority:    input.Priority,
		DueDate:     input.DueDate,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if task.Priority == "" {
		task.Priority = models.PriorityMedium
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO tasks("+taskColumns+") VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?)",
		task.ID, task.UserID, task.Title, nullString(task.Description), task.Completed,
		string(task.Priority), nullTime(task.DueDate), task.CreatedAt, task.UpdatedAt,
	)
	if err != nil {
		return models.Task{}, fmt.Errorf("failed to insert task: %w", err)
	}
	return task, nil
}

// Update applies a partial update to a task owned by ownerID. Only fields
// present in the patch are written; an explicitly cleared field is set to
// NULL. Ownership misses return ErrTaskNotFound, same as absent ids.
func (s *TaskService) Update(ctx context.Context, id, ownerID string, patch models.TaskPatch) (models.Task, error) {
	if patch.Empty() {
		return s.Get(ctx, id, ownerID)
	}

	set := []string{}
	args := []interface{}{}
	if patch.Title != nil {
		set = append(set, "title = ?")
		args = append(args, *patch.Title)
	}
	if patch.ClearDescription {
		set = append(set, "description = NULL")
	} else if patch.Description != nil {
		set = append(set, "description = ?")
		args = append(args, *patch.Description)
	}
	if patch.Completed != nil {
		set = append(set, "completed = ?")
		args = append(args, *patch.Completed)
	}
	if patch.Priority != nil {
		set = append(set, "priority = ?")
		args = append(args, string(*patch.Priority))
	}
	if patch.ClearDueDate {
		set = append(set, "due_date = NULL")
	} else if patch.DueDate != nil {
		set = append(set, "due_date = ?")
		args = append(args, *patch.DueDate)
	}
	set = append(set, "updated_at = ?")
	args = append(args, time.Now().UTC())

	query := "UPDATE tasks SET " + strings.Join(set, ", ") + " WHERE id = ? AND user_id = ?"
	args = append(args, id, ownerID)

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return models.Task{}, fmt.Errorf("failed to update task: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return models.Task{}, err
	}
	if affected == 0 {
		return models.Task{}, ErrTaskNotFound
	}

	return s.Get(ctx, id, ownerID)
}

// Delete removes a task owned by ownerID. Absent and foreign-owned ids both
// return ErrTaskNotFound.
func (s *TaskService) Delete(ctx context.Context, id, ownerID string) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	res, err := s.db.ExecContext(ctx, "DELETE FROM tasks WHERE id = ? AND user_id = ?", id, ownerID)
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrTaskNotFound
	}
	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
