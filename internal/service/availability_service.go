package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/deskflow/helpdesk/internal/domain"
	"github.com/deskflow/helpdesk/internal/repository"
	apperrors "github.com/deskflow/helpdesk/pkg/util/errorutil"
)

// MaxAvailabilitySlots bounds a weekly schedule.
const MaxAvailabilitySlots = 50

// SlotInput is one requested availability range.
type SlotInput struct {
	Day   domain.Weekday
	Start string
	End   string
}

// AvailabilityService manages the weekly availability of users.
type AvailabilityService struct {
	slots  repository.AvailabilityRepository
	users  repository.UserRepository
	tx     repository.TxManager
	logger *zap.Logger
}

// AvailabilityDependencies bundles collaborators.
type AvailabilityDependencies struct {
	AvailabilityRepo repository.AvailabilityRepository
	UserRepo         repository.UserRepository
	TxManager        repository.TxManager
	Logger           *zap.Logger
}

// NewAvailabilityService constructs the service.
func NewAvailabilityService(deps AvailabilityDependencies) *AvailabilityService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AvailabilityService{
		slots:  deps.AvailabilityRepo,
		users:  deps.UserRepo,
		tx:     deps.TxManager,
		logger: logger,
	}
}

// List returns the schedule of userID, empty when none was set. Users read
// their own schedule; admins read anyone's.
func (s *AvailabilityService) List(ctx context.Context, actor domain.Actor, userID string) ([]domain.AvailabilitySlot, error) {
	if actor.ID != userID && actor.Role != domain.RoleAdmin {
		return nil, apperrors.NewForbidden("cannot read another user's availability")
	}
	if actor.ID != userID {
		if _, err := s.users.GetByID(ctx, userID); err != nil {
			return nil, apperrors.NotFoundOr(err, "user", map[string]any{"user_id": userID})
		}
	}
	slots, err := s.slots.ListByUser(ctx, userID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if slots == nil {
		slots = []domain.AvailabilitySlot{}
	}
	return slots, nil
}

// Replace swaps the caller's whole schedule for inputs in one unit of work.
func (s *AvailabilityService) Replace(ctx context.Context, actor domain.Actor, inputs []SlotInput) ([]domain.AvailabilitySlot, error) {
	if len(inputs) > MaxAvailabilitySlots {
		return nil, apperrors.NewValidationError("too many slots", map[string]any{"max": MaxAvailabilitySlots})
	}
	slots := make([]domain.AvailabilitySlot, 0, len(inputs))
	for i, in := range inputs {
		slot, err := newSlot(actor.ID, in)
		if err != nil {
			return nil, err
		}
		for _, prev := range slots {
			if prev.Overlaps(slot) {
				return nil, apperrors.NewValidationError("slots overlap", map[string]any{"index": i, "day": slot.Day})
			}
		}
		slots = append(slots, slot)
	}

	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.slots.DeleteAll(ctx, actor.ID); err != nil {
			return err
		}
		for i := range slots {
			if err := s.slots.Add(ctx, &slots[i]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	out, err := s.slots.ListByUser(ctx, actor.ID)
	return out, apperrors.MapError(err)
}

// AddSlot appends one range to the caller's schedule. An identical slot is a
// conflict; an overlapping one is a validation error.
func (s *AvailabilityService) AddSlot(ctx context.Context, actor domain.Actor, in SlotInput) (*domain.AvailabilitySlot, error) {
	slot, err := newSlot(actor.ID, in)
	if err != nil {
		return nil, err
	}
	existing, err := s.slots.ListByUser(ctx, actor.ID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if len(existing) >= MaxAvailabilitySlots {
		return nil, apperrors.NewValidationError("too many slots", map[string]any{"max": MaxAvailabilitySlots})
	}
	for _, prev := range existing {
		if prev.Day == slot.Day && prev.Start == slot.Start && prev.End == slot.End {
			return nil, apperrors.NewConflict("slot already exists", map[string]any{"slot_id": prev.ID})
		}
		if prev.Overlaps(slot) {
			return nil, apperrors.NewValidationError("slots overlap", map[string]any{"slot_id": prev.ID})
		}
	}
	if err := s.slots.Add(ctx, &slot); err != nil {
		if apperrors.IsUniqueViolation(err) {
			return nil, apperrors.NewConflict("slot already exists", nil)
		}
		return nil, apperrors.MapError(err)
	}
	return &slot, nil
}

// RemoveSlot deletes one of the caller's slots.
func (s *AvailabilityService) RemoveSlot(ctx context.Context, actor domain.Actor, slotID string) error {
	if err := s.slots.Delete(ctx, actor.ID, slotID); err != nil {
		return apperrors.NotFoundOr(err, "availability slot", map[string]any{"slot_id": slotID})
	}
	return nil
}

// newSlot validates in and normalises times to "HH:MM".
func newSlot(userID string, in SlotInput) (domain.AvailabilitySlot, error) {
	day := domain.Weekday(strings.TrimSpace(string(in.Day)))
	if !day.Valid() {
		return domain.AvailabilitySlot{}, invalidEnum("day", in.Day)
	}
	start, ok := domain.ParseClock(strings.TrimSpace(in.Start))
	if !ok {
		return domain.AvailabilitySlot{}, apperrors.NewValidationError("start must be HH:MM", map[string]any{"start": in.Start})
	}
	end, ok := domain.ParseClock(strings.TrimSpace(in.End))
	if !ok {
		return domain.AvailabilitySlot{}, apperrors.NewValidationError("end must be HH:MM", map[string]any{"end": in.End})
	}
	if end <= start {
		return domain.AvailabilitySlot{}, apperrors.NewValidationError("end must be after start", map[string]any{
			"start": in.Start,
			"end":   in.End,
		})
	}
	return domain.AvailabilitySlot{
		UserID: userID,
		Day:    day,
		Start:  domain.FormatClock(start),
		End:    domain.FormatClock(end),
	}, nil
}
