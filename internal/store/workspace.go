package store

import (
	"context"
	"fmt"
	"time"

	"github.com/01moynul/projectforge-golang/internal/models"
)

// 1. --- Employees ---

type employeeRow struct {
	ID           string `db:"id"`
	AdminID      string `db:"admin_id"`
	FullName     string `db:"full_name"`
	Email        string `db:"email"`
	JobTitle     string `db:"job_title"`
	PasswordHash string `db:"password_hash"`
	CreatedAt    int64  `db:"created_at"`
}

func (s *Store) CreateEmployee(ctx context.Context, e *models.Employee) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO employees (id, admin_id, full_name, email, job_title, password_hash, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.AdminID, e.FullName, e.Email, e.JobTitle, e.PasswordHash, toUnix(e.CreatedAt))
	if err != nil {
		return fmt.Errorf("create employee: %w", err)
	}
	return nil
}

// EmployeeEmailExists reports whether the tenant already has this email.
func (s *Store) EmployeeEmailExists(ctx context.Context, adminID, email string) (bool, error) {
	var n int
	err := sqlxGet(ctx, s, &n, `SELECT COUNT(*) FROM employees WHERE admin_id = ? AND email = ?`, adminID, email)
	if err != nil {
		return false, fmt.Errorf("check employee email: %w", err)
	}
	return n > 0, nil
}

func (s *Store) ListEmployees(ctx context.Context, adminID string) ([]models.Employee, error) {
	var rows []employeeRow
	err := sqlxSelect(ctx, s, &rows, `
		SELECT id, admin_id, full_name, email, job_title, password_hash, created_at
		FROM employees WHERE admin_id = ? ORDER BY created_at, id`, adminID)
	if err != nil {
		return nil, fmt.Errorf("list employees: %w", err)
	}
	out := make([]models.Employee, 0, len(rows))
	for _, r := range rows {
		out = append(out, models.Employee{
			ID: r.ID, AdminID: r.AdminID, FullName: r.FullName, Email: r.Email,
			JobTitle: r.JobTitle, PasswordHash: r.PasswordHash, CreatedAt: fromUnix(r.CreatedAt),
		})
	}
	return out, nil
}

// 2. --- Projects ---

type projectRow struct {
	ID          string `db:"id"`
	AdminID     string `db:"admin_id"`
	Name        string `db:"name"`
	Slug        string `db:"slug"`
	Description string `db:"description"`
	CreatedAt   int64  `db:"created_at"`
}

func (r projectRow) model() models.Project {
	return models.Project{
		ID: r.ID, AdminID: r.AdminID, Name: r.Name, Slug: r.Slug,
		Description: r.Description, CreatedAt: fromUnix(r.CreatedAt),
	}
}

func (s *Store) CreateProject(ctx context.Context, p *models.Project) error {
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO projects (id, admin_id, name, slug, description, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		p.ID, p.AdminID, p.Name, p.Slug, p.Description, toUnix(p.CreatedAt))
	if err != nil {
		return fmt.Errorf("create project: %w", err)
	}
	return nil
}

// ProjectSlugExists reports whether the slug is taken within the tenant.
func (s *Store) ProjectSlugExists(ctx context.Context, adminID, slug string) (bool, error) {
	var n int
	err := sqlxGet(ctx, s, &n, `SELECT COUNT(*) FROM projects WHERE admin_id = ? AND slug = ?`, adminID, slug)
	if err != nil {
		return false, fmt.Errorf("check project slug: %w", err)
	}
	return n > 0, nil
}

// GetProject loads a project scoped to its tenant.
func (s *Store) GetProject(ctx context.Context, adminID, id string) (*models.Project, error) {
	var rows []projectRow
	err := sqlxSelect(ctx, s, &rows, `
		SELECT id, admin_id, name, slug, COALESCE(description, '') AS description, created_at
		FROM projects WHERE admin_id = ? AND id = ?`, adminID, id)
	if err != nil {
		return nil, fmt.Errorf("get project: %w", err)
	}
	if len(rows) == 0 {
		return nil, ErrNotFound
	}
	p := rows[0].model()
	return &p, nil
}

func (s *Store) ListProjects(ctx context.Context, adminID string) ([]models.Project, error) {
	var rows []projectRow
	err := sqlxSelect(ctx, s, &rows, `
		SELECT id, admin_id, name, slug, COALESCE(description, '') AS description, created_at
		FROM projects WHERE admin_id = ? ORDER BY created_at, id`, adminID)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	out := make([]models.Project, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.model())
	}
	return out, nil
}

// 3. --- Tasks ---

type taskRow struct {
	ID         string  `db:"id"`
	AdminID    string  `db:"admin_id"`
	ProjectID  string  `db:"project_id"`
	Title      string  `db:"title"`
	Status     string  `db:"status"`
	AssigneeID *string `db:"assignee_id"`
	CreatedAt  int64   `db:"created_at"`
}

func (s *Store) CreateTask(ctx context.Context, t *models.Task) error {
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO tasks (id, admin_id, project_id, title, status, assignee_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.AdminID, t.ProjectID, t.Title, t.Status, t.AssigneeID, toUnix(t.CreatedAt))
	if err != nil {
		return fmt.Errorf("create task: %w", err)
	}
	return nil
}

func (s *Store) ListTasks(ctx context.Context, adminID, projectID string) ([]models.Task, error) {
	var rows []taskRow
	err := sqlxSelect(ctx, s, &rows, `
		SELECT id, admin_id, project_id, title, status, assignee_id, created_at
		FROM tasks WHERE admin_id = ? AND project_id = ? ORDER BY created_at, id`, adminID, projectID)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	out := make([]models.Task, 0, len(rows))
	for _, r := range rows {
		out = append(out, models.Task{
			ID: r.ID, AdminID: r.AdminID, ProjectID: r.ProjectID, Title: r.Title,
			Status: r.Status, AssigneeID: r.AssigneeID, CreatedAt: fromUnix(r.CreatedAt),
		})
	}
	return out, nil
}

// 4. --- Documents ---

type documentRow struct {
	ID        string  `db:"id"`
	AdminID   string  `db:"admin_id"`
	ProjectID *string `db:"project_id"`
	Title     string  `db:"title"`
	Content   string  `db:"content"`
	CreatedAt int64   `db:"created_at"`
}

func (s *Store) CreateDocument(ctx context.Context, d *models.Document) error {
	if d.CreatedAt.IsZero() {
		d.CreatedAt = time.Now().UTC()
	}
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO documents (id, admin_id, project_id, title, content, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		d.ID, d.AdminID, d.ProjectID, d.Title, d.Content, toUnix(d.CreatedAt))
	if err != nil {
		return fmt.Errorf("create document: %w", err)
	}
	return nil
}

func (s *Store) ListDocuments(ctx context.Context, adminID string) ([]models.Document, error) {
	var rows []documentRow
	err := sqlxSelect(ctx, s, &rows, `
		SELECT id, admin_id, project_id, title, COALESCE(content, '') AS content, created_at
		FROM documents WHERE admin_id = ? ORDER BY created_at, id`, adminID)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	out := make([]models.Document, 0, len(rows))
	for _, r := range rows {
		out = append(out, models.Document{
			ID: r.ID, AdminID: r.AdminID, ProjectID: r.ProjectID, Title: r.Title,
			Content: r.Content, CreatedAt: fromUnix(r.CreatedAt),
		})
	}
	return out, nil
}

// 5. --- Research ---

type researchRow struct {
	ID         string `db:"id"`
	AdminID    string `db:"admin_id"`
	Query      string `db:"query_text"`
	Result     string `db:"result"`
	TokensUsed int    `db:"tokens_used"`
	CreatedAt  int64  `db:"created_at"`
}

func (s *Store) CreateResearch(ctx context.Context, r *models.Research) error {
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO research (id, admin_id, query_text, result, tokens_used, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		r.ID, r.AdminID, r.Query, r.Result, r.TokensUsed, toUnix(r.CreatedAt))
	if err != nil {
		return fmt.Errorf("create research: %w", err)
	}
	return nil
}

func (s *Store) ListResearch(ctx context.Context, adminID string) ([]models.Research, error) {
	var rows []researchRow
	err := sqlxSelect(ctx, s, &rows, `
		SELECT id, admin_id, query_text, COALESCE(result, '') AS result, tokens_used, created_at
		FROM research WHERE admin_id = ? ORDER BY created_at, id`, adminID)
	if err != nil {
		return nil, fmt.Errorf("list research: %w", err)
	}
	out := make([]models.Research, 0, len(rows))
	for _, r := range rows {
		out = append(out, models.Research{
			ID: r.ID, AdminID: r.AdminID, Query: r.Query, Result: r.Result,
			TokensUsed: r.TokensUsed, CreatedAt: fromUnix(r.CreatedAt),
		})
	}
	return out, nil
}
