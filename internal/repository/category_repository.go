package repository

import (
	"context"

	"github.com/deskflow/helpdesk/internal/domain"
)

// CategoryRepository manages categories.
type CategoryRepository interface {
	Create(ctx context.Context, cat *domain.Category) error
	Update(ctx context.Context, cat *domain.Category) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*domain.Category, error)
	// GetByName matches case-insensitively.
	GetByName(ctx context.Context, name string) (*domain.Category, error)
	// List returns categories in a stable order (creation time, then id).
	List(ctx context.Context) ([]domain.Category, error)
	ListByDepartment(ctx context.Context, departmentID string) ([]domain.Category, error)
}

const categoryColumns = `id, name, department_id, description, keywords, default_response, created_at, updated_at`

type categoryRepository struct {
	db DBTX
}

// NewCategoryRepository builds the repository.
func NewCategoryRepository(db DBTX) CategoryRepository {
	return &categoryRepository{db: db}
}

func (r *categoryRepository) Create(ctx context.Context, cat *domain.Category) error {
	const query = `
        INSERT INTO categories (name, department_id, description, keywords, default_response)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, created_at, updated_at`
	return conn(ctx, r.db).QueryRow(ctx, query,
		cat.Name,
		cat.DepartmentID,
		cat.Description,
		nonNilStrings(cat.Keywords),
		cat.DefaultResponse,
	).Scan(&cat.ID, &cat.CreatedAt, &cat.UpdatedAt)
}

func (r *categoryRepository) Update(ctx context.Context, cat *domain.Category) error {
	const query = `
        UPDATE categories SET name=$1, department_id=$2, description=$3, keywords=$4, default_response=$5, updated_at=NOW()
        WHERE id=$6`
	return requireAffected(conn(ctx, r.db).Exec(ctx, query,
		cat.Name,
		cat.DepartmentID,
		cat.Description,
		nonNilStrings(cat.Keywords),
		cat.DefaultResponse,
		cat.ID,
	))
}

func (r *categoryRepository) Delete(ctx context.Context, id string) error {
	return requireAffected(conn(ctx, r.db).Exec(ctx, `DELETE FROM categories WHERE id=$1`, id))
}

func (r *categoryRepository) GetByID(ctx context.Context, id string) (*domain.Category, error) {
	query := `SELECT ` + categoryColumns + ` FROM categories WHERE id=$1`
	return scanCategory(conn(ctx, r.db).QueryRow(ctx, query, id))
}

func (r *categoryRepository) GetByName(ctx context.Context, name string) (*domain.Category, error) {
	query := `SELECT ` + categoryColumns + ` FROM categories WHERE LOWER(name)=LOWER($1)`
	return scanCategory(conn(ctx, r.db).QueryRow(ctx, query, name))
}

func (r *categoryRepository) List(ctx context.Context) ([]domain.Category, error) {
	query := `SELECT ` + categoryColumns + ` FROM categories ORDER BY created_at, id`
	return r.list(ctx, query)
}

func (r *categoryRepository) ListByDepartment(ctx context.Context, departmentID string) ([]domain.Category, error) {
	query := `SELECT ` + categoryColumns + ` FROM categories WHERE department_id=$1 ORDER BY created_at, id`
	return r.list(ctx, query, departmentID)
}

func (r *categoryRepository) list(ctx context.Context, query string, args ...any) ([]domain.Category, error) {
	rows, err := conn(ctx, r.db).Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Category
	for rows.Next() {
		cat, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *cat)
	}
	return result, rows.Err()
}

func scanCategory(row rowScanner) (*domain.Category, error) {
	var cat domain.Category
	if err := row.Scan(
		&cat.ID,
		&cat.Name,
		&cat.DepartmentID,
		&cat.Description,
		&cat.Keywords,
		&cat.DefaultResponse,
		&cat.CreatedAt,
		&cat.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &cat, nil
}

func nonNilStrings(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
