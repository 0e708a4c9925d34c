package repository

import (
	"context"

	"github.com/deskflow/helpdesk/internal/domain"
)

// DepartmentRepository manages department persistence.
type DepartmentRepository interface {
	Create(ctx context.Context, dept *domain.Department) error
	Update(ctx context.Context, dept *domain.Department) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*domain.Department, error)
	List(ctx context.Context) ([]domain.Department, error)
}

type departmentRepository struct {
	db DBTX
}

// NewDepartmentRepository builds the repository.
func NewDepartmentRepository(db DBTX) DepartmentRepository {
	return &departmentRepository{db: db}
}

func (r *departmentRepository) Create(ctx context.Context, dept *domain.Department) error {
	const query = `
        INSERT INTO departments (name, description)
        VALUES ($1,$2)
        RETURNING id, created_at, updated_at`
	return conn(ctx, r.db).QueryRow(ctx, query,
		dept.Name,
		dept.Description,
	).Scan(&dept.ID, &dept.CreatedAt, &dept.UpdatedAt)
}

func (r *departmentRepository) Update(ctx context.Context, dept *domain.Department) error {
	const query = `
        UPDATE departments SET name=$1, description=$2, updated_at=NOW()
        WHERE id=$3`
	return requireAffected(conn(ctx, r.db).Exec(ctx, query,
		dept.Name,
		dept.Description,
		dept.ID,
	))
}

func (r *departmentRepository) Delete(ctx context.Context, id string) error {
	return requireAffected(conn(ctx, r.db).Exec(ctx, `DELETE FROM departments WHERE id=$1`, id))
}

func (r *departmentRepository) GetByID(ctx context.Context, id string) (*domain.Department, error) {
	const query = `
        SELECT id, name, description, created_at, updated_at
        FROM departments WHERE id=$1`
	var dept domain.Department
	if err := conn(ctx, r.db).QueryRow(ctx, query, id).Scan(
		&dept.ID,
		&dept.Name,
		&dept.Description,
		&dept.CreatedAt,
		&dept.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &dept, nil
}

func (r *departmentRepository) List(ctx context.Context) ([]domain.Department, error) {
	const query = `
        SELECT id, name, description, created_at, updated_at
        FROM departments ORDER BY name`
	rows, err := conn(ctx, r.db).Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Department
	for rows.Next() {
		var dept domain.Department
		if err := rows.Scan(&dept.ID, &dept.Name, &dept.Description, &dept.CreatedAt, &dept.UpdatedAt); err != nil {
			return nil, err
		}
		result = append(result, dept)
	}
	return result, rows.Err()
}
