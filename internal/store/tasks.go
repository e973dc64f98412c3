package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/Nikonell/krakker-backend/internal/models"
)

const taskColumns = `id, project_id, name, description, status, due_date, issue_ref, created_at, updated_at`

// TaskStore handles CRUD operations for tasks.
type TaskStore struct {
	db *DB
}

func NewTaskStore(db *DB) *TaskStore {
	return &TaskStore{db: db}
}

// CreateTask inserts a new todo task into a project.
func (s *TaskStore) CreateTask(ctx context.Context, projectID int64, req *models.CreateTaskRequest) (*models.Task, error) {
	var exists bool
	if err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM projects WHERE id = ?)`, projectID,
	).Scan(&exists); err != nil {
		return nil, fmt.Errorf("check project: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("project %d: %w", projectID, ErrNotFound)
	}

	now := time.Now().Unix()
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO tasks (project_id, name, description, status, due_date, issue_ref, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, projectID, req.Name, req.Description, string(models.TaskStatusTodo),
		nullInt(req.DueDate), nullInt(req.IssueRef), now, now)
	if err != nil {
		return nil, fmt.Errorf("insert task: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("task id: %w", err)
	}

	return &models.Task{
		ID:          id,
		ProjectID:   projectID,
		Name:        req.Name,
		Description: req.Description,
		Status:      models.TaskStatusTodo,
		DueDate:     req.DueDate,
		IssueRef:    req.IssueRef,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// UpdateTaskStatus sets the status and issue reference of a task that
// belongs to projectID. Other fields are left untouched.
func (s *TaskStore) UpdateTaskStatus(ctx context.Context, projectID, taskID int64, status models.TaskStatus, issueRef int64) (*models.Task, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE tasks SET status = ?, issue_ref = ?, updated_at = ?
		WHERE id = ? AND project_id = ?
	`, string(status), issueRef, time.Now().Unix(), taskID, projectID)
	if err != nil {
		return nil, fmt.Errorf("update task status: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, fmt.Errorf("task %d in project %d: %w", taskID, projectID, ErrNotFound)
	}
	return s.Get(ctx, taskID)
}

// Get returns a task by ID, or nil if it does not exist.
func (s *TaskStore) Get(ctx context.Context, id int64) (*models.Task, error) {
	t, err := scanTask(s.db.QueryRowContext(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get task: %w", err)
	}
	return t, nil
}

// ListByProject returns the tasks of a project ordered by ID.
func (s *TaskStore) ListByProject(ctx context.Context, projectID int64) ([]models.Task, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE project_id = ? ORDER BY id`, projectID)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []models.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, *t)
	}
	return tasks, rows.Err()
}

// Update applies partial updates to a task.
func (s *TaskStore) Update(ctx context.Context, id int64, req *models.UpdateTaskRequest) (*models.Task, error) {
	sets := []string{"updated_at = ?"}
	args := []any{time.Now().Unix()}

	if req.Name != nil {
		sets = append(sets, "name = ?")
		args = append(args, *req.Name)
	}
	if req.Description != nil {
		sets = append(sets, "description = ?")
		args = append(args, *req.Description)
	}
	if req.Status != nil {
		sets = append(sets, "status = ?")
		args = append(args, string(*req.Status))
	}
	if req.DueDate != nil {
		sets = append(sets, "due_date = ?")
		args = append(args, *req.DueDate)
	}
	if req.IssueRef != nil {
		sets = append(sets, "issue_ref = ?")
		args = append(args, *req.IssueRef)
	}

	args = append(args, id)
	res, err := s.db.ExecContext(ctx,
		fmt.Sprintf(`UPDATE tasks SET %s WHERE id = ?`, strings.Join(sets, ", ")), args...)
	if err != nil {
		return nil, fmt.Errorf("update task: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, fmt.Errorf("task %d: %w", id, ErrNotFound)
	}
	return s.Get(ctx, id)
}

// Delete removes a task.
func (s *TaskStore) Delete(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("task %d: %w", id, ErrNotFound)
	}
	return nil
}

func scanTask(row rowScanner) (*models.Task, error) {
	var t models.Task
	var status string
	var due, ref sql.NullInt64
	if err := row.Scan(&t.ID, &t.ProjectID, &t.Name, &t.Description, &status,
		&due, &ref, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, err
	}
	t.Status = models.TaskStatus(status)
	if due.Valid {
		t.DueDate = &due.Int64
	}
	if ref.Valid {
		t.IssueRef = &ref.Int64
	}
	return &t, nil
}

func nullInt(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}
