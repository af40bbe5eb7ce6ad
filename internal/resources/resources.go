// Package resources creates tenant workspace objects behind the quota gate.
package resources

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/01moynul/projectforge-golang/internal/models"
	"github.com/01moynul/projectforge-golang/internal/quota"
	"github.com/01moynul/projectforge-golang/internal/research"
	"github.com/01moynul/projectforge-golang/internal/store"
	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"github.com/rs/zerolog/log"
)

var (
	ErrEmployeeExists  = errors.New("an employee with this email already exists")
	ErrProjectNotFound = errors.New("project not found")
)

type Service struct {
	store      *store.Store
	gate       *quota.Gate
	researcher research.Researcher
}

func NewService(st *store.Store, gate *quota.Gate, researcher research.Researcher) *Service {
	if researcher == nil {
		researcher = research.Disabled{}
	}
	return &Service{store: st, gate: gate, researcher: researcher}
}

// consume runs after a successful insert. The resource already exists, so a
// failure here is logged rather than returned.
func (s *Service) consume(ctx context.Context, adminID string, kind quota.Kind) {
	if err := s.gate.Consume(ctx, adminID, kind); err != nil {
		log.Error().Err(err).Str("admin_id", adminID).Str("resource", string(kind)).Msg("Failed to decrement quota")
	}
}

// --- Employees ---

type EmployeeInput struct {
	FullName string
	Email    string
	JobTitle string
	Password string
}

func (s *Service) CreateEmployee(ctx context.Context, adminID string, in EmployeeInput) (*models.Employee, error) {
	// 1. --- Quota ---
	if err := s.gate.Check(ctx, adminID, quota.KindEmployee); err != nil {
		return nil, err
	}

	// 2. --- Uniqueness within the tenant ---
	email := strings.ToLower(strings.TrimSpace(in.Email))
	exists, err := s.store.EmployeeEmailExists(ctx, adminID, email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrEmployeeExists
	}

	// 3. --- Hash the Password ---
	var password models.Password
	if err := password.Set(in.Password); err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	e := &models.Employee{
		ID:           uuid.NewString(),
		AdminID:      adminID,
		FullName:     in.FullName,
		Email:        email,
		JobTitle:     in.JobTitle,
		PasswordHash: password.Hash,
	}
	if err := s.store.CreateEmployee(ctx, e); err != nil {
		return nil, err
	}
	s.consume(ctx, adminID, quota.KindEmployee)
	return e, nil
}

func (s *Service) ListEmployees(ctx context.Context, adminID string) ([]models.Employee, error) {
	return s.store.ListEmployees(ctx, adminID)
}

// --- Projects ---

func (s *Service) CreateProject(ctx context.Context, adminID, name, description string) (*models.Project, error) {
	if err := s.gate.Check(ctx, adminID, quota.KindProject); err != nil {
		return nil, err
	}

	projectSlug, err := s.uniqueSlug(ctx, adminID, name)
	if err != nil {
		return nil, err
	}
	p := &models.Project{
		ID:          uuid.NewString(),
		AdminID:     adminID,
		Name:        name,
		Slug:        projectSlug,
		Description: description,
	}
	if err := s.store.CreateProject(ctx, p); err != nil {
		return nil, err
	}
	s.consume(ctx, adminID, quota.KindProject)
	return p, nil
}

// uniqueSlug appends -2, -3, ... until the slug is free within the tenant.
func (s *Service) uniqueSlug(ctx context.Context, adminID, name string) (string, error) {
	base := slug.Make(name)
	if base == "" {
		base = "project"
	}
	candidate := base
	for i := 2; ; i++ {
		taken, err := s.store.ProjectSlugExists(ctx, adminID, candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, i)
	}
}

func (s *Service) ListProjects(ctx context.Context, adminID string) ([]models.Project, error) {
	return s.store.ListProjects(ctx, adminID)
}

func (s *Service) project(ctx context.Context, adminID, projectID string) (*models.Project, error) {
	p, err := s.store.GetProject(ctx, adminID, projectID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrProjectNotFound
	}
	return p, err
}

// --- Tasks ---

func (s *Service) CreateTask(ctx context.Context, adminID, projectID, title string, assigneeID *string) (*models.Task, error) {
	if err := s.gate.Check(ctx, adminID, quota.KindTask); err != nil {
		return nil, err
	}
	if _, err := s.project(ctx, adminID, projectID); err != nil {
		return nil, err
	}

	t := &models.Task{
		ID:         uuid.NewString(),
		AdminID:    adminID,
		ProjectID:  projectID,
		Title:      title,
		Status:     "todo",
		AssigneeID: assigneeID,
	}
	if err := s.store.CreateTask(ctx, t); err != nil {
		return nil, err
	}
	s.consume(ctx, adminID, quota.KindTask)
	return t, nil
}

func (s *Service) ListTasks(ctx context.Context, adminID, projectID string) ([]models.Task, error) {
	if _, err := s.project(ctx, adminID, projectID); err != nil {
		return nil, err
	}
	return s.store.ListTasks(ctx, adminID, projectID)
}

// --- Documents ---

func (s *Service) CreateDocument(ctx context.Context, adminID string, projectID *string, title, content string) (*models.Document, error) {
	if err := s.gate.Check(ctx, adminID, quota.KindDocument); err != nil {
		return nil, err
	}
	if projectID != nil {
		if _, err := s.project(ctx, adminID, *projectID); err != nil {
			return nil, err
		}
	}

	d := &models.Document{
		ID:        uuid.NewString(),
		AdminID:   adminID,
		ProjectID: projectID,
		Title:     title,
		Content:   content,
	}
	if err := s.store.CreateDocument(ctx, d); err != nil {
		return nil, err
	}
	s.consume(ctx, adminID, quota.KindDocument)
	return d, nil
}

func (s *Service) ListDocuments(ctx context.Context, adminID string) ([]models.Document, error) {
	return s.store.ListDocuments(ctx, adminID)
}

// --- Research ---

func (s *Service) RunResearch(ctx context.Context, adminID, query string) (*models.Research, error) {
	if err := s.gate.Check(ctx, adminID, quota.KindResearch); err != nil {
		return nil, err
	}

	text, tokens, err := s.researcher.Research(ctx, query)
	if err != nil {
		return nil, err
	}

	r := &models.Research{
		ID:         uuid.NewString(),
		AdminID:    adminID,
		Query:      query,
		Result:     text,
		TokensUsed: tokens,
	}
	if err := s.store.CreateResearch(ctx, r); err != nil {
		return nil, err
	}
	s.consume(ctx, adminID, quota.KindResearch)
	return r, nil
}

func (s *Service) ListResearch(ctx context.Context, adminID string) ([]models.Research, error) {
	return s.store.ListResearch(ctx, adminID)
}
