package repository

import (
	"context"

	"github.com/deskflow/helpdesk/internal/domain"
)

// AvailabilityRepository stores the weekly availability slots of users.
type AvailabilityRepository interface {
	// ListByUser returns slots ordered Monday first, then by start time.
	ListByUser(ctx context.Context, userID string) ([]domain.AvailabilitySlot, error)
	// Add inserts one slot; an identical slot is a unique violation.
	Add(ctx context.Context, slot *domain.AvailabilitySlot) error
	// DeleteAll clears every slot of userID. Replace runs it with Add inside
	// one unit of work.
	DeleteAll(ctx context.Context, userID string) error
	Delete(ctx context.Context, userID, slotID string) error
}

const availabilityColumns = `id, user_id, day, start_time, end_time, created_at`

type availabilityRepository struct {
	db DBTX
}

// NewAvailabilityRepository builds the Postgres implementation.
func NewAvailabilityRepository(db DBTX) AvailabilityRepository {
	return &availabilityRepository{db: db}
}

func (r *availabilityRepository) ListByUser(ctx context.Context, userID string) ([]domain.AvailabilitySlot, error) {
	query := `SELECT ` + availabilityColumns + ` FROM availability_slots
        WHERE user_id=$1
        ORDER BY array_position(ARRAY['Lundi','Mardi','Mercredi','Jeudi','Vendredi','Samedi','Dimanche'], day), start_time`
	rows, err := conn(ctx, r.db).Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.AvailabilitySlot
	for rows.Next() {
		var slot domain.AvailabilitySlot
		if err := rows.Scan(&slot.ID, &slot.UserID, &slot.Day, &slot.Start, &slot.End, &slot.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, slot)
	}
	return result, rows.Err()
}

func (r *availabilityRepository) Add(ctx context.Context, slot *domain.AvailabilitySlot) error {
	const query = `
        INSERT INTO availability_slots (user_id, day, start_time, end_time)
        VALUES ($1, $2, $3, $4)
        RETURNING id, created_at`
	return conn(ctx, r.db).QueryRow(ctx, query, slot.UserID, slot.Day, slot.Start, slot.End).
		Scan(&slot.ID, &slot.CreatedAt)
}

func (r *availabilityRepository) DeleteAll(ctx context.Context, userID string) error {
	_, err := conn(ctx, r.db).Exec(ctx, `DELETE FROM availability_slots WHERE user_id=$1`, userID)
	return err
}

func (r *availabilityRepository) Delete(ctx context.Context, userID, slotID string) error {
	const query = `DELETE FROM availability_slots WHERE id=$1 AND user_id=$2`
	return requireAffected(conn(ctx, r.db).Exec(ctx, query, slotID, userID))
}
