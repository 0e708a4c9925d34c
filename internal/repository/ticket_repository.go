package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/deskflow/helpdesk/internal/domain"
)

// TicketFilter captures listing parameters.
type TicketFilter struct {
	RequesterID     *string
	DepartmentID    *string
	AssignedAgentID *string
	// AgentScope restricts results to tickets assigned to the agent OR in its department.
	AgentScope  *AgentScope
	Statuses    []domain.TicketStatus
	Priorities  []domain.TicketPriority
	SearchTerm  *string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	Limit       int
	Offset      int
}

// AgentScope is the visibility rule applied to agents.
type AgentScope struct {
	AgentID      string
	DepartmentID *string
}

// TicketRepository persists the ticket aggregate with its comments and files.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	Update(ctx context.Context, ticket *domain.Ticket) error
	Delete(ctx context.Context, id string) error
	// GetByID loads the ticket with its comments and files.
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	ListWithFilter(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error)
	AddComment(ctx context.Context, comment *domain.Comment) error
	UpdateComment(ctx context.Context, comment *domain.Comment) error
	AddFile(ctx context.Context, file *domain.TicketFile) error
}

const ticketColumns = `id, ticket_number, title, description, client_name, client_email, department_id, category_id,
               request_type, due_date, time_spent, status, priority, requester_id, assigned_agent_id,
               created_by, created_by_role, closed_by, resolution_notes, satisfaction, start_date, end_date, updated_at`

type ticketRepository struct {
	db DBTX
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(db DBTX) TicketRepository {
	return &ticketRepository{db: db}
}

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (ticket_number, title, description, client_name, client_email, department_id, category_id,
            request_type, due_date, time_spent, status, priority, requester_id, assigned_agent_id,
            created_by, created_by_role, start_date)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)
        RETURNING id, updated_at`
	return conn(ctx, r.db).QueryRow(ctx, query,
		ticket.TicketNumber,
		ticket.Title,
		ticket.Description,
		ticket.Client.Name,
		ticket.Client.Email,
		ticket.DepartmentID,
		ticket.Metadata.CategoryID,
		ticket.Metadata.RequestType,
		ticket.Metadata.DueDate,
		ticket.Metadata.TimeSpent,
		ticket.Status,
		ticket.Priority,
		ticket.RequesterID,
		ticket.AssignedAgentID,
		ticket.CreatedBy,
		ticket.CreatedByRole,
		ticket.StartDate,
	).Scan(&ticket.ID, &ticket.UpdatedAt)
}

func (r *ticketRepository) Update(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        UPDATE tickets SET title=$1, description=$2, client_name=$3, client_email=$4, department_id=$5,
            category_id=$6, request_type=$7, due_date=$8, time_spent=$9, status=$10, priority=$11,
            assigned_agent_id=$12, closed_by=$13, resolution_notes=$14, satisfaction=$15, end_date=$16,
            updated_at=NOW()
        WHERE id=$17
        RETURNING updated_at`
	return conn(ctx, r.db).QueryRow(ctx, query,
		ticket.Title,
		ticket.Description,
		ticket.Client.Name,
		ticket.Client.Email,
		ticket.DepartmentID,
		ticket.Metadata.CategoryID,
		ticket.Metadata.RequestType,
		ticket.Metadata.DueDate,
		ticket.Metadata.TimeSpent,
		ticket.Status,
		ticket.Priority,
		ticket.AssignedAgentID,
		ticket.ClosedBy,
		ticket.ResolutionNotes,
		ticket.Satisfaction,
		ticket.EndDate,
		ticket.ID,
	).Scan(&ticket.UpdatedAt)
}

func (r *ticketRepository) Delete(ctx context.Context, id string) error {
	return requireAffected(conn(ctx, r.db).Exec(ctx, `DELETE FROM tickets WHERE id=$1`, id))
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	db := conn(ctx, r.db)
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE id=$1`
	ticket, err := scanTicket(db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, err
	}
	if ticket.Comments, err = r.comments(ctx, db, ticket.ID); err != nil {
		return nil, err
	}
	if ticket.Files, err = r.files(ctx, db, ticket.ID); err != nil {
		return nil, err
	}
	return ticket, nil
}

func (r *ticketRepository) ListWithFilter(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error) {
	clauses := []string{"1=1"}
	args := []any{}

	if filter.RequesterID != nil {
		args = append(args, *filter.RequesterID)
		clauses = append(clauses, fmt.Sprintf("requester_id=$%d", len(args)))
	}
	if filter.DepartmentID != nil {
		args = append(args, *filter.DepartmentID)
		clauses = append(clauses, fmt.Sprintf("department_id=$%d", len(args)))
	}
	if filter.AssignedAgentID != nil {
		args = append(args, *filter.AssignedAgentID)
		clauses = append(clauses, fmt.Sprintf("assigned_agent_id=$%d", len(args)))
	}
	if scope := filter.AgentScope; scope != nil {
		args = append(args, scope.AgentID)
		clause := fmt.Sprintf("assigned_agent_id=$%d", len(args))
		if scope.DepartmentID != nil {
			args = append(args, *scope.DepartmentID)
			clause = fmt.Sprintf("(%s OR department_id=$%d)", clause, len(args))
		}
		clauses = append(clauses, clause)
	}
	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}
	if len(filter.Priorities) > 0 {
		placeholders := make([]string, len(filter.Priorities))
		for i, pr := range filter.Priorities {
			args = append(args, pr)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("priority IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.CreatedFrom != nil {
		args = append(args, *filter.CreatedFrom)
		clauses = append(clauses, fmt.Sprintf("start_date >= $%d", len(args)))
	}
	if filter.CreatedTo != nil {
		args = append(args, *filter.CreatedTo)
		clauses = append(clauses, fmt.Sprintf("start_date <= $%d", len(args)))
	}
	if filter.SearchTerm != nil && strings.TrimSpace(*filter.SearchTerm) != "" {
		search := "%" + strings.ToLower(strings.TrimSpace(*filter.SearchTerm)) + "%"
		args = append(args, search)
		placeholder := fmt.Sprintf("$%d", len(args))
		clauses = append(clauses, fmt.Sprintf("(LOWER(title) LIKE %s OR LOWER(description) LIKE %s)", placeholder, placeholder))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`SELECT %s FROM tickets WHERE %s ORDER BY updated_at DESC LIMIT %d OFFSET %d`,
		ticketColumns, strings.Join(clauses, " AND "), limit, offset)

	rows, err := conn(ctx, r.db).Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Ticket
	for rows.Next() {
		ticket, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *ticket)
	}
	return result, rows.Err()
}

func (r *ticketRepository) AddComment(ctx context.Context, comment *domain.Comment) error {
	const query = `
        INSERT INTO ticket_comments (ticket_id, text, author_id, author_role)
        VALUES ($1,$2,$3,$4)
        RETURNING id, created_at`
	return conn(ctx, r.db).QueryRow(ctx, query,
		comment.TicketID,
		comment.Text,
		comment.AuthorID,
		comment.AuthorRole,
	).Scan(&comment.ID, &comment.CreatedAt)
}

func (r *ticketRepository) UpdateComment(ctx context.Context, comment *domain.Comment) error {
	const query = `
        UPDATE ticket_comments SET text=$1, updated_at=$2, deleted=$3, deleted_at=$4
        WHERE id=$5 AND ticket_id=$6`
	return requireAffected(conn(ctx, r.db).Exec(ctx, query,
		comment.Text,
		comment.UpdatedAt,
		comment.Deleted,
		comment.DeletedAt,
		comment.ID,
		comment.TicketID,
	))
}

func (r *ticketRepository) AddFile(ctx context.Context, file *domain.TicketFile) error {
	const query = `
        INSERT INTO ticket_files (ticket_id, path, original_name, file_type, size_bytes, uploaded_by)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id, uploaded_at`
	return conn(ctx, r.db).QueryRow(ctx, query,
		file.TicketID,
		file.Path,
		file.OriginalName,
		file.FileType,
		file.SizeBytes,
		file.UploadedBy,
	).Scan(&file.ID, &file.UploadedAt)
}

func (r *ticketRepository) comments(ctx context.Context, db DBTX, ticketID string) ([]domain.Comment, error) {
	const query = `
        SELECT id, ticket_id, text, author_id, author_role, created_at, updated_at, deleted, deleted_at
        FROM ticket_comments WHERE ticket_id=$1 ORDER BY created_at, id`
	rows, err := db.Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Comment
	for rows.Next() {
		var c domain.Comment
		if err := rows.Scan(&c.ID, &c.TicketID, &c.Text, &c.AuthorID, &c.AuthorRole,
			&c.CreatedAt, &c.UpdatedAt, &c.Deleted, &c.DeletedAt); err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	return result, rows.Err()
}

func (r *ticketRepository) files(ctx context.Context, db DBTX, ticketID string) ([]domain.TicketFile, error) {
	const query = `
        SELECT id, ticket_id, path, original_name, file_type, size_bytes, uploaded_by, uploaded_at
        FROM ticket_files WHERE ticket_id=$1 ORDER BY uploaded_at, id`
	rows, err := db.Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.TicketFile
	for rows.Next() {
		var f domain.TicketFile
		if err := rows.Scan(&f.ID, &f.TicketID, &f.Path, &f.OriginalName, &f.FileType,
			&f.SizeBytes, &f.UploadedBy, &f.UploadedAt); err != nil {
			return nil, err
		}
		result = append(result, f)
	}
	return result, rows.Err()
}

func scanTicket(row rowScanner) (*domain.Ticket, error) {
	var t domain.Ticket
	if err := row.Scan(
		&t.ID,
		&t.TicketNumber,
		&t.Title,
		&t.Description,
		&t.Client.Name,
		&t.Client.Email,
		&t.DepartmentID,
		&t.Metadata.CategoryID,
		&t.Metadata.RequestType,
		&t.Metadata.DueDate,
		&t.Metadata.TimeSpent,
		&t.Status,
		&t.Priority,
		&t.RequesterID,
		&t.AssignedAgentID,
		&t.CreatedBy,
		&t.CreatedByRole,
		&t.ClosedBy,
		&t.ResolutionNotes,
		&t.Satisfaction,
		&t.StartDate,
		&t.EndDate,
		&t.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &t, nil
}
