package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deskflow/helpdesk/internal/domain"
	apperrors "github.com/deskflow/helpdesk/pkg/util/errorutil"
)

func (f *fixture) availabilityService() *AvailabilityService {
	return NewAvailabilityService(AvailabilityDependencies{
		AvailabilityRepo: f.store.Availability(),
		UserRepo:         f.store.Users(),
		TxManager:        f.store.TxManager(),
	})
}

func TestReplaceAvailabilityNormalisesAndOrders(t *testing.T) {
	f := newFixture(t)
	svc := f.availabilityService()

	slots, err := svc.Replace(f.ctx, f.agentIT.Actor(), []SlotInput{
		{Day: domain.Wednesday, Start: "14:00", End: "18:00"},
		{Day: domain.Monday, Start: "9:00", End: "12:30"},
	})
	require.NoError(t, err)
	require.Len(t, slots, 2)
	assert.Equal(t, domain.Monday, slots[0].Day)
	assert.Equal(t, "09:00", slots[0].Start)
	assert.Equal(t, f.agentIT.ID, slots[0].UserID)
	assert.NotEmpty(t, slots[0].ID)

	replaced, err := svc.Replace(f.ctx, f.agentIT.Actor(), []SlotInput{{Day: domain.Friday, Start: "08:00", End: "10:00"}})
	require.NoError(t, err)
	require.Len(t, replaced, 1)
	assert.Equal(t, domain.Friday, replaced[0].Day)

	cleared, err := svc.Replace(f.ctx, f.agentIT.Actor(), nil)
	require.NoError(t, err)
	assert.Empty(t, cleared)
}

func TestReplaceAvailabilityRejectsBadSlots(t *testing.T) {
	f := newFixture(t)
	svc := f.availabilityService()
	_, err := svc.Replace(f.ctx, f.agentIT.Actor(), []SlotInput{{Day: domain.Monday, Start: "08:00", End: "10:00"}})
	require.NoError(t, err)

	cases := map[string][]SlotInput{
		"unknown day":      {{Day: "Monday", Start: "08:00", End: "10:00"}},
		"bad clock":        {{Day: domain.Tuesday, Start: "25:00", End: "26:00"}},
		"end before start": {{Day: domain.Tuesday, Start: "10:00", End: "09:00"}},
		"overlap": {
			{Day: domain.Tuesday, Start: "08:00", End: "10:00"},
			{Day: domain.Tuesday, Start: "09:30", End: "11:00"},
		},
	}
	for name, inputs := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Replace(f.ctx, f.agentIT.Actor(), inputs)
			assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation), "got %v", err)
		})
	}

	kept, err := svc.List(f.ctx, f.agentIT.Actor(), f.agentIT.ID)
	require.NoError(t, err)
	require.Len(t, kept, 1)
	assert.Equal(t, domain.Monday, kept[0].Day)
}

func TestAvailabilitySlotLifecycle(t *testing.T) {
	f := newFixture(t)
	svc := f.availabilityService()
	actor := f.agentFac.Actor()

	slot, err := svc.AddSlot(f.ctx, actor, SlotInput{Day: domain.Thursday, Start: "13:00", End: "17:00"})
	require.NoError(t, err)

	_, err = svc.AddSlot(f.ctx, actor, SlotInput{Day: domain.Thursday, Start: "13:00", End: "17:00"})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeConflict))
	_, err = svc.AddSlot(f.ctx, actor, SlotInput{Day: domain.Thursday, Start: "16:00", End: "18:00"})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))
	_, err = svc.AddSlot(f.ctx, actor, SlotInput{Day: domain.Thursday, Start: "17:00", End: "18:00"})
	require.NoError(t, err)

	err = svc.RemoveSlot(f.ctx, f.agentIT.Actor(), slot.ID)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))
	require.NoError(t, svc.RemoveSlot(f.ctx, actor, slot.ID))

	left, err := svc.List(f.ctx, actor, f.agentFac.ID)
	require.NoError(t, err)
	require.Len(t, left, 1)
	assert.Equal(t, "17:00", left[0].Start)
}

func TestListAvailabilityAccess(t *testing.T) {
	f := newFixture(t)
	svc := f.availabilityService()

	empty, err := svc.List(f.ctx, f.client.Actor(), f.client.ID)
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)

	_, err = svc.List(f.ctx, f.client.Actor(), f.agentIT.ID)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeForbidden))

	_, err = svc.List(f.ctx, f.admin.Actor(), f.agentIT.ID)
	require.NoError(t, err)

	_, err = svc.List(f.ctx, f.admin.Actor(), "00000000-0000-0000-0000-000000000000")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))
}
