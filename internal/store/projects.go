package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Nikonell/krakker-backend/internal/models"
)

const projectColumns = `id, name, description, repository, created_at, updated_at`

// ProjectStore handles project registration, repository bindings, and the
// bound-project snapshot consumed by the reconciliation worker.
type ProjectStore struct {
	db *DB
}

func NewProjectStore(db *DB) *ProjectStore {
	return &ProjectStore{db: db}
}

// Create inserts a new project.
func (s *ProjectStore) Create(ctx context.Context, req *models.CreateProjectRequest) (*models.Project, error) {
	now := time.Now().Unix()
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO projects (name, description, repository, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
	`, req.Name, req.Description, nullString(req.Repository), now, now)
	if err != nil {
		return nil, fmt.Errorf("insert project: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("project id: %w", err)
	}

	return &models.Project{
		ID:          id,
		Name:        req.Name,
		Description: req.Description,
		Repository:  normalizeRepo(req.Repository),
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// Get returns a project by ID with its tasks, or nil if it does not exist.
func (s *ProjectStore) Get(ctx context.Context, id int64) (*models.Project, error) {
	p, err := scanProject(s.db.QueryRowContext(ctx,
		`SELECT `+projectColumns+` FROM projects WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get project: %w", err)
	}

	tasks, err := NewTaskStore(s.db).ListByProject(ctx, id)
	if err != nil {
		return nil, err
	}
	p.Tasks = tasks
	return p, nil
}

// GetByName returns the first project with the given name, or nil.
func (s *ProjectStore) GetByName(ctx context.Context, name string) (*models.Project, error) {
	p, err := scanProject(s.db.QueryRowContext(ctx,
		`SELECT `+projectColumns+` FROM projects WHERE name = ? ORDER BY id LIMIT 1`, name))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get project by name: %w", err)
	}
	return p, nil
}

// List returns all projects without their tasks.
func (s *ProjectStore) List(ctx context.Context) ([]models.Project, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+projectColumns+` FROM projects ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	var projects []models.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		projects = append(projects, *p)
	}
	return projects, rows.Err()
}

// ListBoundProjects returns every project with a repository binding together
// with a snapshot of its tasks, ordered by task ID. The snapshot is read fresh
// on every call.
func (s *ProjectStore) ListBoundProjects(ctx context.Context) ([]models.Project, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+projectColumns+` FROM projects
		WHERE repository IS NOT NULL AND repository != ''
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("list bound projects: %w", err)
	}

	var projects []models.Project
	index := make(map[int64]int)
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan project: %w", err)
		}
		index[p.ID] = len(projects)
		projects = append(projects, *p)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list bound projects: %w", err)
	}
	if len(projects) == 0 {
		return projects, nil
	}

	taskRows, err := s.db.QueryContext(ctx, `
		SELECT `+taskColumns+` FROM tasks
		WHERE project_id IN (
			SELECT id FROM projects WHERE repository IS NOT NULL AND repository != ''
		)
		ORDER BY project_id, id
	`)
	if err != nil {
		return nil, fmt.Errorf("list bound tasks: %w", err)
	}
	defer taskRows.Close()

	for taskRows.Next() {
		t, err := scanTask(taskRows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		// A project bound between the two queries has no slot; it is
		// picked up on the next pass.
		if i, ok := index[t.ProjectID]; ok {
			projects[i].Tasks = append(projects[i].Tasks, *t)
		}
	}
	return projects, taskRows.Err()
}

// SetRepository binds or unbinds (nil or empty) a repository.
func (s *ProjectStore) SetRepository(ctx context.Context, id int64, repository *string) (*models.Project, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE projects SET repository = ?, updated_at = ? WHERE id = ?
	`, nullString(repository), time.Now().Unix(), id)
	if err != nil {
		return nil, fmt.Errorf("set repository: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, fmt.Errorf("project %d: %w", id, ErrNotFound)
	}
	return s.Get(ctx, id)
}

// UpsertByName creates a project or updates the description and binding of
// the existing project with the same name. The bool reports a create.
func (s *ProjectStore) UpsertByName(ctx context.Context, req *models.CreateProjectRequest) (*models.Project, bool, error) {
	existing, err := s.GetByName(ctx, req.Name)
	if err != nil {
		return nil, false, err
	}
	if existing == nil {
		p, err := s.Create(ctx, req)
		return p, true, err
	}

	_, err = s.db.ExecContext(ctx, `
		UPDATE projects SET description = ?, repository = ?, updated_at = ? WHERE id = ?
	`, req.Description, nullString(req.Repository), time.Now().Unix(), existing.ID)
	if err != nil {
		return nil, false, fmt.Errorf("update project: %w", err)
	}
	p, err := s.Get(ctx, existing.ID)
	return p, false, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProject(row rowScanner) (*models.Project, error) {
	var p models.Project
	var repo sql.NullString
	if err := row.Scan(&p.ID, &p.Name, &p.Description, &repo, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	if repo.Valid && repo.String != "" {
		p.Repository = &repo.String
	}
	return &p, nil
}

func nullString(s *string) sql.NullString {
	if s == nil || *s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func normalizeRepo(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	v := *s
	return &v
}
