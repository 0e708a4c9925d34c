package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/deskflow/helpdesk/internal/domain"
)

// UserRepository defines persistence access for accounts of every role.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	Update(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	List(ctx context.Context, filter UserFilter) ([]domain.User, error)
	// ClaimLeastLoadedAgent picks the agent of departmentID with the lowest
	// ticket count (oldest first on ties) and increments its counter in one
	// statement. Returns pgx.ErrNoRows when the department has no agent.
	ClaimLeastLoadedAgent(ctx context.Context, departmentID string) (*domain.User, error)
	IncrementTicketCount(ctx context.Context, agentID string) error
	// Delete removes the account. Returns a foreign key violation while
	// tickets still reference it as requester.
	Delete(ctx context.Context, id string) error
}

// UserFilter defines query params for user listing.
type UserFilter struct {
	Role         *domain.Role
	DepartmentID *string
	// Search matches name or email, case-insensitively.
	Search *string
	Limit  int
	Offset int
}

const userColumns = `id, name, email, password_hash, role, department_id, ticket_count, profile_image_url,
    phone, address, bio, skills, linkedin_url, twitter_url, verified, created_at, updated_at`

type userRepository struct {
	db DBTX
}

// NewUserRepository returns a Postgres-backed implementation.
func NewUserRepository(db DBTX) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	const query = `
        INSERT INTO users (name, email, password_hash, role, department_id, profile_image_url,
            phone, address, bio, skills, linkedin_url, twitter_url, verified)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
        RETURNING id, ticket_count, created_at, updated_at`

	return conn(ctx, r.db).QueryRow(ctx, query,
		user.Name,
		strings.ToLower(user.Email),
		user.PasswordHash,
		user.Role,
		user.DepartmentID,
		user.ProfileImageURL,
		user.Profile.Phone,
		user.Profile.Address,
		user.Profile.Bio,
		skillsArg(user.Profile.Skills),
		user.Profile.LinkedIn,
		user.Profile.Twitter,
		user.Verified,
	).Scan(&user.ID, &user.TicketCount, &user.CreatedAt, &user.UpdatedAt)
}

// Update never writes ticket_count; counters only move through the claim and increment paths.
func (r *userRepository) Update(ctx context.Context, user *domain.User) error {
	const query = `
        UPDATE users SET name=$1, email=$2, password_hash=$3, role=$4, department_id=$5,
            profile_image_url=$6, phone=$7, address=$8, bio=$9, skills=$10, linkedin_url=$11,
            twitter_url=$12, verified=$13, updated_at=NOW()
        WHERE id=$14`

	return requireAffected(conn(ctx, r.db).Exec(ctx, query,
		user.Name,
		strings.ToLower(user.Email),
		user.PasswordHash,
		user.Role,
		user.DepartmentID,
		user.ProfileImageURL,
		user.Profile.Phone,
		user.Profile.Address,
		user.Profile.Bio,
		skillsArg(user.Profile.Skills),
		user.Profile.LinkedIn,
		user.Profile.Twitter,
		user.Verified,
		user.ID,
	))
}

func (r *userRepository) Delete(ctx context.Context, id string) error {
	return requireAffected(conn(ctx, r.db).Exec(ctx, `DELETE FROM users WHERE id=$1`, id))
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id=$1`
	return scanUser(conn(ctx, r.db).QueryRow(ctx, query, id))
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email=$1`
	return scanUser(conn(ctx, r.db).QueryRow(ctx, query, strings.ToLower(email)))
}

func (r *userRepository) List(ctx context.Context, filter UserFilter) ([]domain.User, error) {
	clauses := []string{"1=1"}
	args := []any{}

	if filter.Role != nil {
		args = append(args, *filter.Role)
		clauses = append(clauses, fmt.Sprintf("role=$%d", len(args)))
	}
	if filter.DepartmentID != nil {
		args = append(args, *filter.DepartmentID)
		clauses = append(clauses, fmt.Sprintf("department_id=$%d", len(args)))
	}
	if filter.Search != nil && strings.TrimSpace(*filter.Search) != "" {
		args = append(args, "%"+strings.TrimSpace(*filter.Search)+"%")
		clauses = append(clauses, fmt.Sprintf("(name ILIKE $%d OR email ILIKE $%d)", len(args), len(args)))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`SELECT %s FROM users WHERE %s ORDER BY ticket_count ASC, created_at ASC LIMIT %d OFFSET %d`,
		userColumns, strings.Join(clauses, " AND "), limit, offset)

	rows, err := conn(ctx, r.db).Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *user)
	}
	return result, rows.Err()
}

func (r *userRepository) ClaimLeastLoadedAgent(ctx context.Context, departmentID string) (*domain.User, error) {
	query := `
        UPDATE users SET ticket_count = ticket_count + 1, updated_at = NOW()
        WHERE id = (
            SELECT id FROM users
            WHERE role = 'Agent' AND department_id = $1
            ORDER BY ticket_count ASC, created_at ASC
            LIMIT 1
            FOR UPDATE
        )
        RETURNING ` + userColumns
	return scanUser(conn(ctx, r.db).QueryRow(ctx, query, departmentID))
}

func (r *userRepository) IncrementTicketCount(ctx context.Context, agentID string) error {
	const query = `UPDATE users SET ticket_count = ticket_count + 1, updated_at = NOW() WHERE id=$1 AND role='Agent'`
	return requireAffected(conn(ctx, r.db).Exec(ctx, query, agentID))
}

func scanUser(row rowScanner) (*domain.User, error) {
	var user domain.User
	if err := row.Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.PasswordHash,
		&user.Role,
		&user.DepartmentID,
		&user.TicketCount,
		&user.ProfileImageURL,
		&user.Profile.Phone,
		&user.Profile.Address,
		&user.Profile.Bio,
		&user.Profile.Skills,
		&user.Profile.LinkedIn,
		&user.Profile.Twitter,
		&user.Verified,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &user, nil
}

// skillsArg keeps NOT NULL TEXT[] columns from receiving a nil slice.
func skillsArg(skills []string) []string {
	if skills == nil {
		return []string{}
	}
	return skills
}
