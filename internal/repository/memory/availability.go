package memory

import (
	"context"
	"sort"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/deskflow/helpdesk/internal/domain"
)

type availabilityRepo struct{ s *Store }

func (r availabilityRepo) ListByUser(_ context.Context, userID string) ([]domain.AvailabilitySlot, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []domain.AvailabilitySlot
	for _, slot := range r.s.availability {
		if slot.UserID == userID {
			out = append(out, slot)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if di, dj := out[i].Day.Index(), out[j].Day.Index(); di != dj {
			return di < dj
		}
		return out[i].Start < out[j].Start
	})
	return out, nil
}

func (r availabilityRepo) Add(ctx context.Context, slot *domain.AvailabilitySlot) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.availability {
		if existing.UserID == slot.UserID && existing.Day == slot.Day &&
			existing.Start == slot.Start && existing.End == slot.End {
			return errDuplicate
		}
	}
	slot.ID = uuid.NewString()
	slot.CreatedAt = r.s.now()
	remember(ctx, r.s.availability, slot.ID)
	r.s.availability[slot.ID] = *slot
	return nil
}

func (r availabilityRepo) DeleteAll(ctx context.Context, userID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for id, slot := range r.s.availability {
		if slot.UserID == userID {
			remember(ctx, r.s.availability, id)
			delete(r.s.availability, id)
		}
	}
	return nil
}

func (r availabilityRepo) Delete(ctx context.Context, userID, slotID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	slot, ok := r.s.availability[slotID]
	if !ok || slot.UserID != userID {
		return pgx.ErrNoRows
	}
	remember(ctx, r.s.availability, slotID)
	delete(r.s.availability, slotID)
	return nil
}
