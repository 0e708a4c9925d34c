package service

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/deskflow/helpdesk/internal/domain"
	"github.com/deskflow/helpdesk/internal/repository"
	apperrors "github.com/deskflow/helpdesk/pkg/util/errorutil"
)

// CatalogService administers departments, categories and solutions.
type CatalogService struct {
	departments repository.DepartmentRepository
	categories  repository.CategoryRepository
	solutions   repository.SolutionRepository
	tx          repository.TxManager
	logger      *zap.Logger
}

// CatalogDependencies bundles repositories.
type CatalogDependencies struct {
	DepartmentRepo repository.DepartmentRepository
	CategoryRepo   repository.CategoryRepository
	SolutionRepo   repository.SolutionRepository
	TxManager      repository.TxManager
	Logger         *zap.Logger
}

// DepartmentInput creates or replaces a department.
type DepartmentInput struct {
	Name        string
	Description string
}

// CategoryInput creates or replaces a category.
type CategoryInput struct {
	Name            string
	DepartmentID    *string
	Description     string
	Keywords        []string
	DefaultResponse string
}

// SolutionInput creates or replaces a solution.
type SolutionInput struct {
	Title            string
	Content          string
	Keywords         []string
	CategoryID       string
	IsFallback       bool
	FallbackPriority int
}

// NewCatalogService constructs the service.
func NewCatalogService(deps CatalogDependencies) *CatalogService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CatalogService{
		departments: deps.DepartmentRepo,
		categories:  deps.CategoryRepo,
		solutions:   deps.SolutionRepo,
		tx:          deps.TxManager,
		logger:      logger,
	}
}

// Departments

func (s *CatalogService) ListDepartments(ctx context.Context) ([]domain.Department, error) {
	depts, err := s.departments.List(ctx)
	return depts, apperrors.MapError(err)
}

func (s *CatalogService) GetDepartment(ctx context.Context, id string) (*domain.Department, error) {
	dept, err := s.departments.GetByID(ctx, id)
	if err != nil {
		return nil, apperrors.NotFoundOr(err, "department", map[string]any{"department_id": id})
	}
	return dept, nil
}

func (s *CatalogService) CreateDepartment(ctx context.Context, input DepartmentInput) (*domain.Department, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, requiredField("name")
	}
	dept := &domain.Department{Name: name, Description: strings.TrimSpace(input.Description)}
	if err := s.departments.Create(ctx, dept); err != nil {
		return nil, apperrors.MapError(err)
	}
	return dept, nil
}

func (s *CatalogService) UpdateDepartment(ctx context.Context, id string, input DepartmentInput) (*domain.Department, error) {
	dept, err := s.GetDepartment(ctx, id)
	if err != nil {
		return nil, err
	}
	if name := strings.TrimSpace(input.Name); name != "" {
		dept.Name = name
	}
	dept.Description = strings.TrimSpace(input.Description)
	if err := s.departments.Update(ctx, dept); err != nil {
		return nil, apperrors.NotFoundOr(err, "department", map[string]any{"department_id": id})
	}
	return dept, nil
}

func (s *CatalogService) DeleteDepartment(ctx context.Context, id string) error {
	return apperrors.NotFoundOr(s.departments.Delete(ctx, id), "department", map[string]any{"department_id": id})
}

// Categories

func (s *CatalogService) ListCategories(ctx context.Context) ([]domain.Category, error) {
	cats, err := s.categories.List(ctx)
	return cats, apperrors.MapError(err)
}

// ListCategoriesByDepartment returns the categories routed to departmentID.
func (s *CatalogService) ListCategoriesByDepartment(ctx context.Context, departmentID string) ([]domain.Category, error) {
	if _, err := s.GetDepartment(ctx, departmentID); err != nil {
		return nil, err
	}
	cats, err := s.categories.ListByDepartment(ctx, departmentID)
	return cats, apperrors.MapError(err)
}

func (s *CatalogService) GetCategory(ctx context.Context, id string) (*domain.Category, error) {
	cat, err := s.categories.GetByID(ctx, id)
	if err != nil {
		return nil, apperrors.NotFoundOr(err, "category", map[string]any{"category_id": id})
	}
	return cat, nil
}

// CreateCategory rejects duplicate names with a conflict.
func (s *CatalogService) CreateCategory(ctx context.Context, input CategoryInput) (*domain.Category, error) {
	cat := &domain.Category{}
	if err := s.fillCategory(ctx, cat, input); err != nil {
		return nil, err
	}
	if err := s.categories.Create(ctx, cat); err != nil {
		return nil, categoryWriteError(err, cat.Name)
	}
	return cat, nil
}

func (s *CatalogService) UpdateCategory(ctx context.Context, id string, input CategoryInput) (*domain.Category, error) {
	cat, err := s.GetCategory(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.fillCategory(ctx, cat, input); err != nil {
		return nil, err
	}
	if err := s.categories.Update(ctx, cat); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("category", map[string]any{"category_id": id})
		}
		return nil, categoryWriteError(err, cat.Name)
	}
	return cat, nil
}

// DeleteCategory removes the category and its solutions.
func (s *CatalogService) DeleteCategory(ctx context.Context, id string) error {
	return apperrors.NotFoundOr(s.categories.Delete(ctx, id), "category", map[string]any{"category_id": id})
}

func (s *CatalogService) fillCategory(ctx context.Context, cat *domain.Category, input CategoryInput) error {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return requiredField("name")
	}
	if input.DepartmentID != nil {
		if _, err := s.departments.GetByID(ctx, *input.DepartmentID); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return apperrors.NewValidationError("department not found", map[string]any{"department_id": *input.DepartmentID})
			}
			return apperrors.MapError(err)
		}
	}
	cat.Name = name
	cat.DepartmentID = input.DepartmentID
	cat.Description = strings.TrimSpace(input.Description)
	cat.Keywords = mergeKeywords(nil, input.Keywords)
	cat.DefaultResponse = strings.TrimSpace(input.DefaultResponse)
	return nil
}

func categoryWriteError(err error, name string) error {
	if apperrors.IsUniqueViolation(err) {
		return apperrors.NewConflict("category name already exists", map[string]any{"name": name})
	}
	return apperrors.MapError(err)
}

// Solutions

func (s *CatalogService) ListSolutions(ctx context.Context, categoryID string) ([]domain.Solution, error) {
	if _, err := s.GetCategory(ctx, categoryID); err != nil {
		return nil, err
	}
	sols, err := s.solutions.ListByCategory(ctx, categoryID)
	return sols, apperrors.MapError(err)
}

func (s *CatalogService) GetSolution(ctx context.Context, id string) (*domain.Solution, error) {
	sol, err := s.solutions.GetByID(ctx, id)
	if err != nil {
		return nil, apperrors.NotFoundOr(err, "solution", map[string]any{"solution_id": id})
	}
	return sol, nil
}

// CreateSolution stores the solution and adds its keywords to the category so
// the detector can route messages to it.
func (s *CatalogService) CreateSolution(ctx context.Context, input SolutionInput) (*domain.Solution, error) {
	sol := &domain.Solution{}
	if err := fillSolution(sol, input); err != nil {
		return nil, err
	}
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.absorbKeywords(ctx, sol.CategoryID, sol.Keywords); err != nil {
			return err
		}
		return s.solutions.Create(ctx, sol)
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return sol, nil
}

func (s *CatalogService) UpdateSolution(ctx context.Context, id string, input SolutionInput) (*domain.Solution, error) {
	sol, err := s.GetSolution(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := fillSolution(sol, input); err != nil {
		return nil, err
	}
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.absorbKeywords(ctx, sol.CategoryID, sol.Keywords); err != nil {
			return err
		}
		return s.solutions.Update(ctx, sol)
	})
	if err != nil {
		return nil, apperrors.NotFoundOr(err, "solution", map[string]any{"solution_id": id})
	}
	return sol, nil
}

func (s *CatalogService) DeleteSolution(ctx context.Context, id string) error {
	return apperrors.NotFoundOr(s.solutions.Delete(ctx, id), "solution", map[string]any{"solution_id": id})
}

func (s *CatalogService) absorbKeywords(ctx context.Context, categoryID string, keywords []string) error {
	cat, err := s.categories.GetByID(ctx, categoryID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewValidationError("category not found", map[string]any{"category_id": categoryID})
		}
		return err
	}
	merged := mergeKeywords(cat.Keywords, keywords)
	if len(merged) == len(cat.Keywords) {
		return nil
	}
	cat.Keywords = merged
	return s.categories.Update(ctx, cat)
}

func fillSolution(sol *domain.Solution, input SolutionInput) error {
	title := strings.TrimSpace(input.Title)
	content := strings.TrimSpace(input.Content)
	if title == "" || content == "" {
		return apperrors.NewValidationError("title and content are required", nil)
	}
	if strings.TrimSpace(input.CategoryID) == "" {
		return requiredField("category_id")
	}
	keywords := mergeKeywords(nil, input.Keywords)
	if len(keywords) > domain.MaxSolutionKeywords {
		return apperrors.NewValidationError("too many keywords", map[string]any{
			"max":   domain.MaxSolutionKeywords,
			"count": len(keywords),
		})
	}
	sol.Title = title
	sol.Content = content
	sol.Keywords = keywords
	sol.CategoryID = input.CategoryID
	sol.IsFallback = input.IsFallback
	sol.FallbackPriority = input.FallbackPriority
	return nil
}

// mergeKeywords appends the trimmed, lowercased additions missing from base,
// keeping first-seen order.
func mergeKeywords(base, additions []string) []string {
	out := make([]string, 0, len(base)+len(additions))
	seen := make(map[string]struct{}, cap(out))
	for _, list := range [][]string{base, additions} {
		for _, kw := range list {
			kw = strings.ToLower(strings.TrimSpace(kw))
			if kw == "" {
				continue
			}
			if _, dup := seen[kw]; dup {
				continue
			}
			seen[kw] = struct{}{}
			out = append(out, kw)
		}
	}
	return out
}
