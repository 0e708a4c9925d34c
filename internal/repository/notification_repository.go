package repository

import (
	"context"

	"github.com/deskflow/helpdesk/internal/domain"
)

// NotificationRepository stores per-user notifications.
type NotificationRepository interface {
	Create(ctx context.Context, n *domain.Notification) error
	ListByUser(ctx context.Context, userID string, unreadOnly bool, limit int) ([]domain.Notification, error)
	MarkRead(ctx context.Context, id, userID string) error
	MarkAllRead(ctx context.Context, userID string) (int64, error)
}

type notificationRepository struct {
	db DBTX
}

// NewNotificationRepository builds the repository.
func NewNotificationRepository(db DBTX) NotificationRepository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) Create(ctx context.Context, n *domain.Notification) error {
	const query = `
        INSERT INTO notifications (user_id, ticket_id, title, message, type)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, is_read, created_at`
	return conn(ctx, r.db).QueryRow(ctx, query,
		n.UserID,
		n.TicketID,
		n.Title,
		n.Message,
		n.Type,
	).Scan(&n.ID, &n.IsRead, &n.CreatedAt)
}

func (r *notificationRepository) ListByUser(ctx context.Context, userID string, unreadOnly bool, limit int) ([]domain.Notification, error) {
	if limit <= 0 {
		limit = 50
	}
	const query = `
        SELECT id, user_id, ticket_id, title, message, type, is_read, created_at
        FROM notifications
        WHERE user_id=$1 AND ($2 = FALSE OR is_read = FALSE)
        ORDER BY created_at DESC
        LIMIT $3`
	rows, err := conn(ctx, r.db).Query(ctx, query, userID, unreadOnly, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Notification
	for rows.Next() {
		var n domain.Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.TicketID, &n.Title, &n.Message, &n.Type, &n.IsRead, &n.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, n)
	}
	return result, rows.Err()
}

func (r *notificationRepository) MarkRead(ctx context.Context, id, userID string) error {
	const query = `UPDATE notifications SET is_read=TRUE WHERE id=$1 AND user_id=$2`
	return requireAffected(conn(ctx, r.db).Exec(ctx, query, id, userID))
}

func (r *notificationRepository) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	const query = `UPDATE notifications SET is_read=TRUE WHERE user_id=$1 AND is_read=FALSE`
	tag, err := conn(ctx, r.db).Exec(ctx, query, userID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
