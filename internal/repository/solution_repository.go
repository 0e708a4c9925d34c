package repository

import (
	"context"

	"github.com/deskflow/helpdesk/internal/domain"
)

// SolutionRepository manages canned solutions.
type SolutionRepository interface {
	Create(ctx context.Context, sol *domain.Solution) error
	Update(ctx context.Context, sol *domain.Solution) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*domain.Solution, error)
	ListByCategory(ctx context.Context, categoryID string) ([]domain.Solution, error)
}

const solutionColumns = `id, title, content, keywords, category_id, is_fallback, fallback_priority, created_at, updated_at`

type solutionRepository struct {
	db DBTX
}

// NewSolutionRepository builds the repository.
func NewSolutionRepository(db DBTX) SolutionRepository {
	return &solutionRepository{db: db}
}

func (r *solutionRepository) Create(ctx context.Context, sol *domain.Solution) error {
	const query = `
        INSERT INTO solutions (title, content, keywords, category_id, is_fallback, fallback_priority)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id, created_at, updated_at`
	return conn(ctx, r.db).QueryRow(ctx, query,
		sol.Title,
		sol.Content,
		nonNilStrings(sol.Keywords),
		sol.CategoryID,
		sol.IsFallback,
		sol.FallbackPriority,
	).Scan(&sol.ID, &sol.CreatedAt, &sol.UpdatedAt)
}

func (r *solutionRepository) Update(ctx context.Context, sol *domain.Solution) error {
	const query = `
        UPDATE solutions SET title=$1, content=$2, keywords=$3, category_id=$4, is_fallback=$5,
            fallback_priority=$6, updated_at=NOW()
        WHERE id=$7`
	return requireAffected(conn(ctx, r.db).Exec(ctx, query,
		sol.Title,
		sol.Content,
		nonNilStrings(sol.Keywords),
		sol.CategoryID,
		sol.IsFallback,
		sol.FallbackPriority,
		sol.ID,
	))
}

func (r *solutionRepository) Delete(ctx context.Context, id string) error {
	return requireAffected(conn(ctx, r.db).Exec(ctx, `DELETE FROM solutions WHERE id=$1`, id))
}

func (r *solutionRepository) GetByID(ctx context.Context, id string) (*domain.Solution, error) {
	query := `SELECT ` + solutionColumns + ` FROM solutions WHERE id=$1`
	return scanSolution(conn(ctx, r.db).QueryRow(ctx, query, id))
}

func (r *solutionRepository) ListByCategory(ctx context.Context, categoryID string) ([]domain.Solution, error) {
	query := `SELECT ` + solutionColumns + ` FROM solutions WHERE category_id=$1 ORDER BY created_at, id`
	rows, err := conn(ctx, r.db).Query(ctx, query, categoryID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Solution
	for rows.Next() {
		sol, err := scanSolution(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *sol)
	}
	return result, rows.Err()
}

func scanSolution(row rowScanner) (*domain.Solution, error) {
	var sol domain.Solution
	if err := row.Scan(
		&sol.ID,
		&sol.Title,
		&sol.Content,
		&sol.Keywords,
		&sol.CategoryID,
		&sol.IsFallback,
		&sol.FallbackPriority,
		&sol.CreatedAt,
		&sol.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &sol, nil
}
