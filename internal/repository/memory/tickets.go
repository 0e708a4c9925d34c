package memory

import (
	"context"
	"slices"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/deskflow/helpdesk/internal/domain"
	"github.com/deskflow/helpdesk/internal/repository"
)

// errDuplicate mirrors the error Postgres returns on a unique index.
var errDuplicate = &pgconn.PgError{Code: "23505", Message: "duplicate key value violates unique constraint"}

// errReferenced mirrors a foreign key violation on delete.
var errReferenced = &pgconn.PgError{Code: "23503", Message: "update or delete violates foreign key constraint"}

type ticketRepo struct{ s *Store }

func (r ticketRepo) Create(ctx context.Context, ticket *domain.Ticket) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, t := range r.s.tickets {
		if t.TicketNumber == ticket.TicketNumber {
			return errDuplicate
		}
	}
	ticket.ID = uuid.NewString()
	ticket.UpdatedAt = r.s.now()
	stored := cloneTicket(*ticket)
	stored.Comments = nil
	stored.Files = nil
	remember(ctx, r.s.tickets, ticket.ID)
	r.s.tickets[ticket.ID] = stored
	r.s.ticketOrder = append(r.s.ticketOrder, ticket.ID)
	return nil
}

func (r ticketRepo) Update(ctx context.Context, ticket *domain.Ticket) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	current, ok := r.s.tickets[ticket.ID]
	if !ok {
		return pgx.ErrNoRows
	}
	ticket.UpdatedAt = r.s.now()
	updated := cloneTicket(*ticket)
	// Immutable columns and child rows are owned by their own statements.
	updated.TicketNumber = current.TicketNumber
	updated.RequesterID = current.RequesterID
	updated.CreatedBy = current.CreatedBy
	updated.CreatedByRole = current.CreatedByRole
	updated.StartDate = current.StartDate
	updated.Comments = current.Comments
	updated.Files = current.Files
	remember(ctx, r.s.tickets, ticket.ID)
	r.s.tickets[ticket.ID] = updated
	return nil
}

func (r ticketRepo) Delete(ctx context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.tickets[id]; !ok {
		return pgx.ErrNoRows
	}
	remember(ctx, r.s.tickets, id)
	delete(r.s.tickets, id)
	return nil
}

func (r ticketRepo) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.tickets[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	t = cloneTicket(t)
	return &t, nil
}

func (r ticketRepo) ListWithFilter(_ context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var matched []domain.Ticket
	for i := len(r.s.ticketOrder) - 1; i >= 0; i-- {
		t, ok := r.s.tickets[r.s.ticketOrder[i]]
		if !ok || !matchesFilter(t, filter) {
			continue
		}
		t = cloneTicket(t)
		t.Comments = nil
		t.Files = nil
		matched = append(matched, t)
	}
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].UpdatedAt.After(matched[j].UpdatedAt)
	})

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := max(filter.Offset, 0)
	if offset >= len(matched) {
		return nil, nil
	}
	end := min(offset+limit, len(matched))
	return matched[offset:end], nil
}

func matchesFilter(t domain.Ticket, f repository.TicketFilter) bool {
	if f.RequesterID != nil && t.RequesterID != *f.RequesterID {
		return false
	}
	if f.DepartmentID != nil && t.DepartmentID != *f.DepartmentID {
		return false
	}
	if f.AssignedAgentID != nil && !t.IsAssignedTo(*f.AssignedAgentID) {
		return false
	}
	if scope := f.AgentScope; scope != nil {
		inDept := scope.DepartmentID != nil && t.DepartmentID == *scope.DepartmentID
		if !t.IsAssignedTo(scope.AgentID) && !inDept {
			return false
		}
	}
	if len(f.Statuses) > 0 && !slices.Contains(f.Statuses, t.Status) {
		return false
	}
	if len(f.Priorities) > 0 && !slices.Contains(f.Priorities, t.Priority) {
		return false
	}
	if f.CreatedFrom != nil && t.StartDate.Before(*f.CreatedFrom) {
		return false
	}
	if f.CreatedTo != nil && t.StartDate.After(*f.CreatedTo) {
		return false
	}
	if f.SearchTerm != nil {
		term := strings.ToLower(strings.TrimSpace(*f.SearchTerm))
		if term != "" &&
			!strings.Contains(strings.ToLower(t.Title), term) &&
			!strings.Contains(strings.ToLower(t.Description), term) {
			return false
		}
	}
	return true
}

func (r ticketRepo) AddComment(ctx context.Context, comment *domain.Comment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.tickets[comment.TicketID]
	if !ok {
		return pgx.ErrNoRows
	}
	comment.ID = uuid.NewString()
	comment.CreatedAt = r.s.now()
	t.Comments = append(t.Comments, *comment)
	remember(ctx, r.s.tickets, t.ID)
	r.s.tickets[t.ID] = t
	return nil
}

func (r ticketRepo) UpdateComment(ctx context.Context, comment *domain.Comment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.tickets[comment.TicketID]
	if !ok {
		return pgx.ErrNoRows
	}
	t = cloneTicket(t)
	existing := t.FindComment(comment.ID)
	if existing == nil {
		return pgx.ErrNoRows
	}
	existing.Text = comment.Text
	existing.UpdatedAt = comment.UpdatedAt
	existing.Deleted = comment.Deleted
	existing.DeletedAt = comment.DeletedAt
	remember(ctx, r.s.tickets, t.ID)
	r.s.tickets[t.ID] = t
	return nil
}

func (r ticketRepo) AddFile(ctx context.Context, file *domain.TicketFile) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.tickets[file.TicketID]
	if !ok {
		return pgx.ErrNoRows
	}
	file.ID = uuid.NewString()
	file.UploadedAt = r.s.now()
	t.Files = append(t.Files, *file)
	remember(ctx, r.s.tickets, t.ID)
	r.s.tickets[t.ID] = t
	return nil
}

func cloneTicket(t domain.Ticket) domain.Ticket {
	t.Comments = slices.Clone(t.Comments)
	t.Files = slices.Clone(t.Files)
	return t
}

// notifications

type notificationRepo struct{ s *Store }

func (r notificationRepo) Create(_ context.Context, n *domain.Notification) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	n.ID = uuid.NewString()
	n.IsRead = false
	n.CreatedAt = r.s.now()
	r.s.notifications = append(r.s.notifications, *n)
	return nil
}

func (r notificationRepo) ListByUser(_ context.Context, userID string, unreadOnly bool, limit int) ([]domain.Notification, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if limit <= 0 {
		limit = 50
	}
	var out []domain.Notification
	for i := len(r.s.notifications) - 1; i >= 0 && len(out) < limit; i-- {
		n := r.s.notifications[i]
		if n.UserID != userID || (unreadOnly && n.IsRead) {
			continue
		}
		out = append(out, n)
	}
	return out, nil
}

func (r notificationRepo) MarkRead(_ context.Context, id, userID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for i := range r.s.notifications {
		n := &r.s.notifications[i]
		if n.ID == id && n.UserID == userID {
			n.IsRead = true
			return nil
		}
	}
	return pgx.ErrNoRows
}

func (r notificationRepo) MarkAllRead(_ context.Context, userID string) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var count int64
	for i := range r.s.notifications {
		n := &r.s.notifications[i]
		if n.UserID == userID && !n.IsRead {
			n.IsRead = true
			count++
		}
	}
	return count, nil
}
